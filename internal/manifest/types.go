package manifest

import (
	"fmt"
	"regexp"

	"github.com/wstunnel/wsrelease/internal/domain"
	"github.com/wstunnel/wsrelease/internal/target"
)

// Config represents the complete release manifest
type Config struct {
	ProjectName string    `yaml:"project_name" json:"project_name"`
	Builds      []Build   `yaml:"builds" json:"builds"`
	Archives    Archive   `yaml:"archives,omitempty" json:"archives,omitempty"`
	Checksum    Checksum  `yaml:"checksum,omitempty" json:"checksum,omitempty"`
	Changelog   Changelog `yaml:"changelog,omitempty" json:"changelog,omitempty"`
	Publish     Publish   `yaml:"publish,omitempty" json:"publish,omitempty"`
	Options     Options   `yaml:"options,omitempty" json:"options,omitempty"`
}

// Build declares one build matrix and how to compile it
type Build struct {
	ID      string          `yaml:"id,omitempty" json:"id,omitempty"`
	Main    string          `yaml:"main,omitempty" json:"main,omitempty"`
	Binary  string          `yaml:"binary,omitempty" json:"binary,omitempty"`
	Goos    []string        `yaml:"goos,omitempty" json:"goos,omitempty"`
	Goarch  []string        `yaml:"goarch,omitempty" json:"goarch,omitempty"`
	Goarm   []string        `yaml:"goarm,omitempty" json:"goarm,omitempty"`
	Ignore  []target.Ignore `yaml:"ignore,omitempty" json:"ignore,omitempty"`
	Env     []string        `yaml:"env,omitempty" json:"env,omitempty"`
	Flags   []string        `yaml:"flags,omitempty" json:"flags,omitempty"`
	Ldflags string          `yaml:"ldflags,omitempty" json:"ldflags,omitempty"`
	Hooks   Hooks           `yaml:"hooks,omitempty" json:"hooks,omitempty"`
}

// Hooks declares commands run around each target build. The post hook always
// receives architecture, operating system, ARM revision, and project name as
// trailing positional arguments.
//
// The command is split on whitespace, not parsed by a shell, so quoted
// arguments are not supported. Wrap anything that needs quoting or pipes in
// a script and name the script here.
type Hooks struct {
	Post string `yaml:"post,omitempty" json:"post,omitempty"`
}

// Archive declares how binaries are packaged
type Archive struct {
	NameTemplate    string           `yaml:"name_template,omitempty" json:"name_template,omitempty"`
	Format          string           `yaml:"format,omitempty" json:"format,omitempty"`
	FormatOverrides []FormatOverride `yaml:"format_overrides,omitempty" json:"format_overrides,omitempty"`
	Files           []string         `yaml:"files,omitempty" json:"files,omitempty"`
}

// FormatOverride swaps the archive format for one OS (e.g. zip on windows)
type FormatOverride struct {
	Goos   string `yaml:"goos" json:"goos"`
	Format string `yaml:"format" json:"format"`
}

// FormatFor returns the archive format for a target OS
func (a Archive) FormatFor(goos string) string {
	for _, o := range a.FormatOverrides {
		if o.Goos == goos {
			return o.Format
		}
	}
	return a.Format
}

// Checksum declares the checksum artifact
type Checksum struct {
	NameTemplate string `yaml:"name_template,omitempty" json:"name_template,omitempty"`
	Algorithm    string `yaml:"algorithm,omitempty" json:"algorithm,omitempty"`
}

// Changelog declares commit filtering for release notes
type Changelog struct {
	Sort    string  `yaml:"sort,omitempty" json:"sort,omitempty"`
	Filters Filters `yaml:"filters,omitempty" json:"filters,omitempty"`
}

// Filters holds commit-subject exclusion patterns
type Filters struct {
	Exclude []string `yaml:"exclude,omitempty" json:"exclude,omitempty"`
}

// Publish declares optional artifact destinations
type Publish struct {
	S3 *S3 `yaml:"s3,omitempty" json:"s3,omitempty"`
}

// S3 declares an S3-compatible upload target. Credentials come from the
// environment (AWS default chain).
type S3 struct {
	Bucket   string `yaml:"bucket" json:"bucket"`
	Region   string `yaml:"region,omitempty" json:"region,omitempty"`
	Prefix   string `yaml:"prefix,omitempty" json:"prefix,omitempty"`
	Endpoint string `yaml:"endpoint,omitempty" json:"endpoint,omitempty"`
}

// Options holds global manifest options
type Options struct {
	Dist            string `yaml:"dist,omitempty" json:"dist,omitempty"`
	ContinueOnError bool   `yaml:"continue_on_error" json:"continue_on_error"`
}

// Validate validates the manifest configuration
func (c *Config) Validate() error {
	if c.ProjectName == "" {
		return ErrNoProject
	}
	if len(c.Builds) == 0 {
		return ErrNoBuilds
	}

	for i, b := range c.Builds {
		if err := b.validate(i); err != nil {
			return err
		}
	}

	switch c.Archives.Format {
	case "", "tar.gz", "zip", "binary":
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, c.Archives.Format)
	}
	for _, o := range c.Archives.FormatOverrides {
		switch o.Format {
		case "tar.gz", "zip", "binary":
		default:
			return fmt.Errorf("%w: %q for goos %s", ErrUnknownFormat, o.Format, o.Goos)
		}
	}

	switch c.Checksum.Algorithm {
	case "", "sha256", "sha512":
	default:
		return fmt.Errorf("%w: %q", ErrUnknownAlgorithm, c.Checksum.Algorithm)
	}

	switch c.Changelog.Sort {
	case "", "asc", "desc":
	default:
		return fmt.Errorf("%w: %q", ErrInvalidSort, c.Changelog.Sort)
	}
	for _, pattern := range c.Changelog.Filters.Exclude {
		if _, err := regexp.Compile(pattern); err != nil {
			return fmt.Errorf("%w: %q: %v", ErrInvalidFilter, pattern, err)
		}
	}

	if c.Publish.S3 != nil && c.Publish.S3.Bucket == "" {
		return ErrNoBucket
	}

	return nil
}

func (b Build) validate(idx int) error {
	for _, os := range b.Goos {
		if !target.SupportedOs(os) {
			return fmt.Errorf("build %d: %w: goos %q", idx, ErrUnknownPlatform, os)
		}
	}
	for _, arch := range b.Goarch {
		if !target.SupportedArch(arch) {
			return fmt.Errorf("build %d: %w: goarch %q", idx, ErrUnknownPlatform, arch)
		}
	}

	hasArm := false
	for _, arch := range b.Goarch {
		if arch == "arm" {
			hasArm = true
			break
		}
	}
	if len(b.Goarm) > 0 && !hasArm {
		return fmt.Errorf("build %d: %w", idx, ErrGoarmWithoutArm)
	}

	for _, ig := range b.Ignore {
		if ig.Goos == "" || ig.Goarch == "" {
			return fmt.Errorf("build %d: %w", idx, ErrIncompleteIgnore)
		}
	}

	// Every ignore entry must name a combination the cross product yields
	if dead := target.Dead(b.Goos, b.Goarch, b.Goarm, b.Ignore); len(dead) > 0 {
		d := dead[0]
		triple := d.Goos + "/" + d.Goarch
		if d.Goarm != "" {
			triple += "v" + d.Goarm
		}
		return fmt.Errorf("build %d: %w: %s", idx, ErrDeadIgnore, triple)
	}

	if len(b.Targets()) == 0 {
		return fmt.Errorf("build %d: %w", idx, ErrEmptyMatrix)
	}

	return nil
}

// Targets expands the build's matrix minus its ignore set
func (b Build) Targets() []domain.Target {
	return target.Expand(b.Goos, b.Goarch, b.Goarm, b.Ignore)
}
