package config

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		check   func(*testing.T, *Config)
		wantErr bool
	}{
		{
			name: "valid config",
			modify: func(c *Config) {
				c.Dist = "out"
				c.Concurrency.Workers = 4
				c.Concurrency.Timeout = 5 * time.Minute
			},
		},
		{
			name:   "empty dist gets default",
			modify: func(c *Config) {},
			check: func(t *testing.T, c *Config) {
				assert.Equal(t, DefaultDist, c.Dist)
			},
		},
		{
			name: "workers below minimum gets default",
			modify: func(c *Config) {
				c.Concurrency.Workers = 0
			},
			check: func(t *testing.T, c *Config) {
				assert.Equal(t, DefaultWorkers, c.Concurrency.Workers)
			},
		},
		{
			name: "timeout below minimum gets default",
			modify: func(c *Config) {
				c.Concurrency.Timeout = 100 * time.Millisecond
			},
			check: func(t *testing.T, c *Config) {
				assert.Equal(t, DefaultTimeout, c.Concurrency.Timeout)
			},
		},
		{
			name: "access key without secret",
			modify: func(c *Config) {
				c.Publish.AccessKeyID = "AKIA..."
			},
			wantErr: true,
		},
		{
			name: "access key with secret",
			modify: func(c *Config) {
				c.Publish.AccessKeyID = "AKIA..."
				c.Publish.SecretAccessKey = "secret"
			},
		},
		{
			name: "invalid log level",
			modify: func(c *Config) {
				c.Logging.Level = "loud"
			},
			wantErr: true,
		},
		{
			name: "invalid log format",
			modify: func(c *Config) {
				c.Logging.Format = "xml"
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{}
			tt.modify(cfg)

			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			if tt.check != nil {
				tt.check(t, cfg)
			}
		})
	}
}

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, DefaultDist, cfg.Dist)
	assert.Equal(t, DefaultWorkers, cfg.Concurrency.Workers)
	assert.Equal(t, DefaultTimeout, cfg.Concurrency.Timeout)
	assert.True(t, cfg.Cache.Enabled)
	assert.Equal(t, CacheDir(), cfg.Cache.Directory)
	assert.Equal(t, DefaultPublishRetries, cfg.Publish.MaxRetries)
	assert.Equal(t, "info", cfg.Logging.Level)

	require.NoError(t, cfg.Validate())
}

func TestConfigDir(t *testing.T) {
	dir := ConfigDir()
	assert.Contains(t, dir, ".wsrelease")
	assert.Equal(t, filepath.Join(dir, "cache"), CacheDir())
}
