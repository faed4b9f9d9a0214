package config

import (
	"os"
	"path/filepath"
	"runtime"
	"time"
)

// Default values
const (
	DefaultDist = "dist"

	DefaultTimeout = 10 * time.Minute

	DefaultCacheEnabled = true

	DefaultPublishRetries = 3

	DefaultLogLevel  = "info"
	DefaultLogFormat = "pretty"
)

// DefaultWorkers is the default build parallelism
var DefaultWorkers = runtime.NumCPU()

// ConfigDir returns the config directory path
func ConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".wsrelease"
	}
	return filepath.Join(home, ".wsrelease")
}

// CacheDir returns the build cache directory path
func CacheDir() string {
	return filepath.Join(ConfigDir(), "cache")
}

// ConfigFilePath returns the config file path
func ConfigFilePath() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}

// Default returns the default configuration
func Default() *Config {
	return &Config{
		Dist: DefaultDist,
		Concurrency: ConcurrencyConfig{
			Workers: DefaultWorkers,
			Timeout: DefaultTimeout,
		},
		Cache: CacheConfig{
			Enabled:   DefaultCacheEnabled,
			Directory: CacheDir(),
		},
		Publish: PublishConfig{
			MaxRetries: DefaultPublishRetries,
		},
		Logging: LoggingConfig{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
	}
}
