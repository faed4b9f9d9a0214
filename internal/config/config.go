// Package config loads the tool's runtime settings from file, environment,
// and CLI flags. The release manifest itself lives in package manifest; this
// covers everything around it (workers, cache, logging, publish credentials).
package config

import (
	"fmt"
	"time"
)

// Config represents the application configuration
type Config struct {
	Dist        string            `mapstructure:"dist" yaml:"dist"`
	Concurrency ConcurrencyConfig `mapstructure:"concurrency" yaml:"concurrency"`
	Cache       CacheConfig       `mapstructure:"cache" yaml:"cache"`
	Publish     PublishConfig     `mapstructure:"publish" yaml:"publish"`
	Logging     LoggingConfig     `mapstructure:"logging" yaml:"logging"`
}

// ConcurrencyConfig contains build parallelism settings
type ConcurrencyConfig struct {
	Workers int           `mapstructure:"workers" yaml:"workers"`
	Timeout time.Duration `mapstructure:"timeout" yaml:"timeout"`
}

// CacheConfig contains build cache settings
type CacheConfig struct {
	Enabled   bool   `mapstructure:"enabled" yaml:"enabled"`
	Directory string `mapstructure:"directory" yaml:"directory"`
}

// PublishConfig contains upload settings. Static credentials are only needed
// for S3-compatible stores outside the AWS default chain.
type PublishConfig struct {
	MaxRetries      int    `mapstructure:"max_retries" yaml:"max_retries"`
	AccessKeyID     string `mapstructure:"access_key_id" yaml:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key" yaml:"secret_access_key"`
}

// LoggingConfig contains logging settings
type LoggingConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

// Validate validates the configuration and applies defaults for invalid values
func (c *Config) Validate() error {
	if c.Dist == "" {
		c.Dist = DefaultDist
	}
	if c.Concurrency.Workers < 1 {
		c.Concurrency.Workers = DefaultWorkers
	}
	if c.Concurrency.Timeout < time.Second {
		c.Concurrency.Timeout = DefaultTimeout
	}
	if c.Publish.MaxRetries < 0 {
		c.Publish.MaxRetries = DefaultPublishRetries
	}
	if c.Publish.AccessKeyID != "" && c.Publish.SecretAccessKey == "" {
		return fmt.Errorf("publish.access_key_id set without publish.secret_access_key")
	}
	switch c.Logging.Level {
	case "", "trace", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid logging.level: %q", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "", "pretty", "json":
	default:
		return fmt.Errorf("invalid logging.format: %q", c.Logging.Format)
	}
	return nil
}
