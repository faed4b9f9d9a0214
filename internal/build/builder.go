// Package build compiles the project for each matrix target and runs the
// per-target post-build hooks.
package build

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/wstunnel/wsrelease/internal/cache"
	"github.com/wstunnel/wsrelease/internal/checksum"
	"github.com/wstunnel/wsrelease/internal/domain"
	"github.com/wstunnel/wsrelease/internal/utils"
)

// Spec describes one target compilation
type Spec struct {
	BuildID string
	Main    string
	Binary  string
	Target  domain.Target
	Env     []string
	Flags   []string
	Ldflags string
	Dist    string
}

// Builder compiles targets with the Go toolchain
type Builder struct {
	gotool string
	dir    string
	cache  domain.Cache
	commit string
	logger *utils.Logger
}

// BuilderOptions contains options for creating a Builder
type BuilderOptions struct {
	// GoTool is the compiler binary, "go" by default
	GoTool string
	// Dir is the working directory for compilations (repo root)
	Dir string
	// Cache, when set, skips recompiling unchanged targets
	Cache domain.Cache
	// Commit keys cache entries to the source revision
	Commit string
	Logger *utils.Logger
}

// NewBuilder creates a new Builder
func NewBuilder(opts BuilderOptions) *Builder {
	if opts.GoTool == "" {
		opts.GoTool = "go"
	}
	if opts.Logger == nil {
		opts.Logger = utils.NewDefaultLogger()
	}
	return &Builder{
		gotool: opts.GoTool,
		dir:    opts.Dir,
		cache:  opts.Cache,
		commit: opts.Commit,
		logger: opts.Logger.WithComponent("build"),
	}
}

// Build compiles one target and returns the binary artifact
func (b *Builder) Build(ctx context.Context, spec Spec, tc domain.TemplateContext) (*domain.Artifact, error) {
	log := b.logger.WithBuild(spec.BuildID).WithTarget(spec.Target.String())

	ldflags, err := tc.Apply("ldflags", spec.Ldflags)
	if err != nil {
		return nil, domain.NewBuildError(spec.Target, "", err)
	}

	out := OutputPath(spec)
	art := &domain.Artifact{
		Name:    filepath.Base(out),
		Path:    out,
		Type:    domain.TypeBinary,
		Target:  spec.Target,
		BuildID: spec.BuildID,
	}

	key := cache.BuildKey(b.commit, spec.Target, ldflags, spec.Flags)
	if b.cached(ctx, key, out) {
		log.Debug().Str("path", out).Msg("build cache hit, skipping compile")
		return art, nil
	}

	if err := utils.EnsureDir(out); err != nil {
		return nil, domain.NewBuildError(spec.Target, "", err)
	}

	args := Args(spec, ldflags, out)
	log.Debug().Strs("args", args).Msg("compiling")

	cmd := exec.CommandContext(ctx, b.gotool, args...)
	cmd.Dir = b.dir
	cmd.Env = Env(spec.Target, spec.Env)

	if output, err := cmd.CombinedOutput(); err != nil {
		return nil, domain.NewBuildError(spec.Target, strings.TrimSpace(string(output)), err)
	}

	b.store(ctx, key, out)
	log.Info().Str("path", out).Msg("built")
	return art, nil
}

// OutputPath returns the binary path for a spec:
// <dist>/<build-id>_<triple>/<binary><ext>
func OutputPath(spec Spec) string {
	dir := utils.SanitizeName(spec.BuildID + "_" + spec.Target.String())
	return filepath.Join(spec.Dist, dir, spec.Binary+spec.Target.Ext())
}

// Args returns the compiler arguments for a spec
func Args(spec Spec, ldflags, out string) []string {
	args := []string{"build", "-o", out}
	if ldflags != "" {
		args = append(args, "-ldflags", ldflags)
	}
	args = append(args, spec.Flags...)
	args = append(args, spec.Main)
	return args
}

// Env returns the process environment for a target compilation. CGO is
// disabled unless the build's env re-enables it.
func Env(t domain.Target, extra []string) []string {
	env := append(os.Environ(),
		"CGO_ENABLED=0",
		"GOOS="+t.Os,
		"GOARCH="+t.Arch,
	)
	if t.Arm != "" {
		env = append(env, "GOARM="+t.Arm)
	}
	return append(env, extra...)
}

// cached reports whether a valid cached binary already exists at out
func (b *Builder) cached(ctx context.Context, key, out string) bool {
	if b.cache == nil || b.commit == "" {
		return false
	}
	data, err := b.cache.Get(ctx, key)
	if err != nil {
		return false
	}
	entry, err := cache.DecodeEntry(data)
	if err != nil || entry.Path != out || !utils.FileExists(out) {
		return false
	}
	digest, err := checksum.File(out, "sha256")
	return err == nil && digest == entry.Checksum
}

// store records the freshly built binary in the cache
func (b *Builder) store(ctx context.Context, key, out string) {
	if b.cache == nil || b.commit == "" {
		return
	}
	digest, err := checksum.File(out, "sha256")
	if err != nil {
		return
	}
	entry := cache.Entry{Path: out, Checksum: digest}
	data, err := entry.Encode()
	if err != nil {
		return
	}
	if err := b.cache.Set(ctx, key, data); err != nil {
		b.logger.Warn().Err(err).Msg("failed to store build cache entry")
	}
}
