package manifest

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultPath is where the loader looks when no manifest is given
const DefaultPath = ".wsrelease.yaml"

// Loader loads and validates release manifests
type Loader struct{}

// NewLoader creates a new manifest loader
func NewLoader() *Loader {
	return &Loader{}
}

// Load reads and parses a manifest file from the given path
func (l *Loader) Load(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("%w: %s", ErrFileNotFound, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest file: %w", err)
	}

	return l.LoadFromBytes(data, filepath.Ext(path))
}

// LoadFromBytes parses a manifest from raw bytes
func (l *Loader) LoadFromBytes(data []byte, ext string) (*Config, error) {
	ext = strings.ToLower(ext)

	var cfg Config
	switch ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
		}
	case ".json":
		if err := json.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
		}
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedExt, ext)
	}

	l.applyDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// applyDefaults fills in the per-manifest defaults. Options.Dist is left
// empty on purpose: the CLI's dist setting applies when the manifest does
// not pin one.
func (l *Loader) applyDefaults(cfg *Config) {
	for i := range cfg.Builds {
		b := &cfg.Builds[i]
		if b.ID == "" {
			b.ID = cfg.ProjectName
		}
		if b.Main == "" {
			b.Main = "."
		}
		if b.Binary == "" {
			b.Binary = cfg.ProjectName
		}
		if len(b.Goos) == 0 {
			b.Goos = append(b.Goos, DefaultGoos...)
		}
		if len(b.Goarch) == 0 {
			b.Goarch = append(b.Goarch, DefaultGoarch...)
		}
		if b.Ldflags == "" {
			b.Ldflags = DefaultLdflags
		}
	}

	if cfg.Archives.NameTemplate == "" {
		cfg.Archives.NameTemplate = DefaultNameTemplate
	}
	if cfg.Archives.Format == "" {
		cfg.Archives.Format = DefaultArchiveFormat
	}

	if cfg.Checksum.NameTemplate == "" {
		cfg.Checksum.NameTemplate = DefaultChecksumName
	}
	if cfg.Checksum.Algorithm == "" {
		cfg.Checksum.Algorithm = DefaultChecksumAlgo
	}

	if cfg.Changelog.Sort == "" {
		cfg.Changelog.Sort = DefaultChangelogSort
	}
	if len(cfg.Changelog.Filters.Exclude) == 0 {
		cfg.Changelog.Filters.Exclude = append(cfg.Changelog.Filters.Exclude, DefaultChangelogExclude...)
	}
}
