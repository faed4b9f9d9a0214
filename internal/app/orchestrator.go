// Package app coordinates the release pipeline: manifest loading, version
// resolution, parallel cross-compilation, hooks, archives, checksums,
// changelog, and publishing.
package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/wstunnel/wsrelease/internal/archive"
	"github.com/wstunnel/wsrelease/internal/build"
	"github.com/wstunnel/wsrelease/internal/cache"
	"github.com/wstunnel/wsrelease/internal/changelog"
	"github.com/wstunnel/wsrelease/internal/checksum"
	"github.com/wstunnel/wsrelease/internal/config"
	"github.com/wstunnel/wsrelease/internal/domain"
	"github.com/wstunnel/wsrelease/internal/gitutil"
	"github.com/wstunnel/wsrelease/internal/manifest"
	"github.com/wstunnel/wsrelease/internal/publish"
	"github.com/wstunnel/wsrelease/internal/utils"
)

// PublisherFactory creates a publisher for the manifest's S3 section. It is
// injectable so tests can run the pipeline without AWS credentials.
type PublisherFactory func(ctx context.Context, cfg *config.Config, s3 *manifest.S3) (domain.Publisher, error)

// Orchestrator coordinates one release run
type Orchestrator struct {
	config     *config.Config
	logger     *utils.Logger
	repo       *gitutil.Repo
	cache      domain.Cache
	builder    *build.Builder
	hooks      *build.HookRunner
	archiver   *archive.Archiver
	publishers PublisherFactory
}

// OrchestratorOptions contains options for creating an orchestrator
type OrchestratorOptions struct {
	Config  *config.Config
	Verbose bool
	// Dir is the repository root, "." by default
	Dir string
	// Repo overrides repository discovery (used by tests)
	Repo *gitutil.Repo
	// GoTool overrides the compiler binary (used by tests)
	GoTool string
	// PublisherFactory overrides publisher construction (used by tests)
	PublisherFactory PublisherFactory
}

// RunOptions controls one pipeline run
type RunOptions struct {
	ManifestPath string
	Snapshot     bool
	AllowDirty   bool
	SkipPublish  bool
	RmDist       bool
}

// Result summarizes a completed pipeline run
type Result struct {
	Info      domain.ReleaseInfo
	Artifacts []*domain.Artifact
	Duration  time.Duration
}

// NewOrchestrator creates a new orchestrator with the given configuration
func NewOrchestrator(opts OrchestratorOptions) (*Orchestrator, error) {
	cfg := opts.Config
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}

	logLevel := cfg.Logging.Level
	if opts.Verbose {
		logLevel = "debug"
	}
	logger := utils.NewLogger(utils.LoggerOptions{
		Level:   logLevel,
		Format:  cfg.Logging.Format,
		Verbose: opts.Verbose,
	})

	dir := opts.Dir
	if dir == "" {
		dir = "."
	}

	repo := opts.Repo
	if repo == nil {
		var err error
		repo, err = gitutil.Open(dir)
		if err != nil {
			return nil, err
		}
	}

	head, err := repo.Head()
	if err != nil {
		return nil, err
	}

	var buildCache domain.Cache
	if cfg.Cache.Enabled {
		bc, err := cache.NewBadgerCache(cache.Options{
			Directory: utils.ExpandPath(cfg.Cache.Directory),
			Verbose:   opts.Verbose,
		})
		if err != nil {
			// The cache is an optimization, a broken one never blocks a release
			logger.Warn().Err(err).Msg("build cache unavailable, builds will not be skipped")
		} else {
			buildCache = bc
		}
	}

	builder := build.NewBuilder(build.BuilderOptions{
		GoTool: opts.GoTool,
		Dir:    dir,
		Cache:  buildCache,
		Commit: head.Hash.String(),
		Logger: logger,
	})

	publishers := opts.PublisherFactory
	if publishers == nil {
		publishers = defaultPublisherFactory
	}

	return &Orchestrator{
		config:     cfg,
		logger:     logger,
		repo:       repo,
		cache:      buildCache,
		builder:    builder,
		hooks:      build.NewHookRunner(dir, logger),
		archiver:   archive.NewArchiver(logger),
		publishers: publishers,
	}, nil
}

func defaultPublisherFactory(ctx context.Context, cfg *config.Config, s3 *manifest.S3) (domain.Publisher, error) {
	return publish.NewS3Publisher(ctx, publish.S3Options{
		Bucket:          s3.Bucket,
		Region:          s3.Region,
		Prefix:          s3.Prefix,
		Endpoint:        s3.Endpoint,
		AccessKeyID:     cfg.Publish.AccessKeyID,
		SecretAccessKey: cfg.Publish.SecretAccessKey,
		Retrier:         publish.NewRetrier(publish.RetrierOptions{MaxRetries: cfg.Publish.MaxRetries}),
	})
}

// Release runs the full pipeline: build, archive, checksum, changelog,
// publish.
func (o *Orchestrator) Release(ctx context.Context, opts RunOptions) (*Result, error) {
	start := time.Now()

	cfg, rel, err := o.prepare(opts)
	if err != nil {
		return nil, err
	}

	o.logger.Info().
		Str("project", cfg.ProjectName).
		Str("version", rel.Version).
		Bool("snapshot", rel.Snapshot).
		Int("workers", o.config.Concurrency.Workers).
		Msg("starting release")

	archives, err := o.buildAll(ctx, cfg, rel, true)
	if err != nil {
		return nil, err
	}

	sumName, err := domain.NewTemplateContext(rel, domain.Target{}, "").Apply("checksum name", cfg.Checksum.NameTemplate)
	if err != nil {
		return nil, fmt.Errorf("invalid checksum name template: %w", err)
	}
	hashBar := utils.NewProgressBar(-1, utils.DescHashing)
	sum, err := checksum.Write(cfg.Options.Dist, sumName, cfg.Checksum.Algorithm, archives)
	_ = hashBar.Finish()
	if err != nil {
		return nil, err
	}

	notes, err := o.changelogArtifact(cfg, rel)
	if err != nil {
		return nil, err
	}

	artifacts := append(archives, sum, notes)

	if !opts.SkipPublish && cfg.Publish.S3 != nil {
		if err := o.publish(ctx, cfg, rel, artifacts); err != nil {
			return nil, err
		}
	} else if cfg.Publish.S3 != nil {
		o.logger.Info().Msg("publish skipped")
	}

	duration := time.Since(start)
	o.logger.Info().
		Str("version", rel.Version).
		Int("artifacts", len(artifacts)).
		Dur("duration", duration).
		Msg("release completed")

	return &Result{Info: rel, Artifacts: artifacts, Duration: duration}, nil
}

// Build runs the compile and hook stages only, producing unarchived binaries
func (o *Orchestrator) Build(ctx context.Context, opts RunOptions) (*Result, error) {
	start := time.Now()

	cfg, rel, err := o.prepare(opts)
	if err != nil {
		return nil, err
	}

	binaries, err := o.buildAll(ctx, cfg, rel, false)
	if err != nil {
		return nil, err
	}

	return &Result{Info: rel, Artifacts: binaries, Duration: time.Since(start)}, nil
}

// Changelog renders the release notes for the current repository state
func (o *Orchestrator) Changelog(opts RunOptions) (string, error) {
	cfg, rel, err := o.prepare(opts)
	if err != nil {
		return "", err
	}

	entries, err := changelog.Collect(o.repo, rel.PreviousTag, changelog.Options{
		Sort:    cfg.Changelog.Sort,
		Exclude: cfg.Changelog.Filters.Exclude,
	})
	if err != nil {
		return "", err
	}
	return changelog.Render(entries, rel.Version), nil
}

// Close releases orchestrator resources
func (o *Orchestrator) Close() error {
	if o.cache != nil {
		return o.cache.Close()
	}
	return nil
}

// prepare loads the manifest, resets dist, and resolves the version
func (o *Orchestrator) prepare(opts RunOptions) (*manifest.Config, domain.ReleaseInfo, error) {
	path := opts.ManifestPath
	if path == "" {
		path = manifest.DefaultPath
	}
	cfg, err := manifest.NewLoader().Load(path)
	if err != nil {
		return nil, domain.ReleaseInfo{}, err
	}
	if cfg.Options.Dist == "" {
		cfg.Options.Dist = o.config.Dist
	}

	if opts.RmDist {
		if err := os.RemoveAll(cfg.Options.Dist); err != nil {
			return nil, domain.ReleaseInfo{}, fmt.Errorf("failed to clear dist: %w", err)
		}
	}
	if err := os.MkdirAll(cfg.Options.Dist, 0755); err != nil {
		return nil, domain.ReleaseInfo{}, err
	}

	v, err := gitutil.Resolve(o.repo, gitutil.ResolveOptions{
		Snapshot:   opts.Snapshot,
		AllowDirty: opts.AllowDirty,
	})
	if err != nil {
		return nil, domain.ReleaseInfo{}, err
	}

	return cfg, v.ReleaseInfo(cfg.ProjectName), nil
}

type buildJob struct {
	build  manifest.Build
	target domain.Target
}

// buildAll compiles every matrix target in parallel, runs post hooks, and
// optionally archives. Returned artifacts are archives when archiving,
// binaries otherwise.
func (o *Orchestrator) buildAll(ctx context.Context, cfg *manifest.Config, rel domain.ReleaseInfo, archived bool) ([]*domain.Artifact, error) {
	var jobs []buildJob
	for _, b := range cfg.Builds {
		for _, t := range b.Targets() {
			jobs = append(jobs, buildJob{build: b, target: t})
		}
	}
	if len(jobs) == 0 {
		return nil, domain.ErrNoTargets
	}

	runCtx := ctx
	var cancel context.CancelFunc
	if !cfg.Options.ContinueOnError {
		runCtx, cancel = context.WithCancel(ctx)
		defer cancel()
	}

	// Each job ends with packaging on release runs
	desc := utils.DescBuilding
	if archived {
		desc = utils.DescArchiving
	}
	bar := utils.NewProgressBar(len(jobs), desc)
	artifacts := make([]*domain.Artifact, len(jobs))
	var mu sync.Mutex

	type indexedJob struct {
		job buildJob
		idx int
	}
	indexed := make([]indexedJob, len(jobs))
	for i, j := range jobs {
		indexed[i] = indexedJob{job: j, idx: i}
	}

	errs := utils.ParallelForEach(runCtx, indexed, o.config.Concurrency.Workers, func(ctx context.Context, item indexedJob) error {
		art, err := o.buildOne(ctx, cfg, rel, item.job, archived)
		_ = bar.Add(1)
		if err != nil {
			o.logger.Error().Err(err).Str("target", item.job.target.String()).Msg("target failed")
			if cancel != nil {
				cancel()
			}
			return err
		}
		mu.Lock()
		artifacts[item.idx] = art
		mu.Unlock()
		return nil
	})
	_ = bar.Finish()

	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	failed := utils.CollectErrors(errs)
	if len(failed) > 0 {
		if !cfg.Options.ContinueOnError {
			return nil, failed[0]
		}
		o.logger.Warn().Int("failed", len(failed)).Int("total", len(jobs)).Msg("continuing past failed targets")
	}

	var ok []*domain.Artifact
	for _, a := range artifacts {
		if a != nil {
			ok = append(ok, a)
		}
	}
	if len(ok) == 0 {
		return nil, fmt.Errorf("all %d targets failed: %w", len(jobs), failed[0])
	}
	return ok, nil
}

// buildOne compiles one target, runs its post hook, and archives the result
func (o *Orchestrator) buildOne(ctx context.Context, cfg *manifest.Config, rel domain.ReleaseInfo, job buildJob, archived bool) (*domain.Artifact, error) {
	tc := domain.NewTemplateContext(rel, job.target, job.build.Binary)

	bin, err := o.builder.Build(ctx, build.Spec{
		BuildID: job.build.ID,
		Main:    job.build.Main,
		Binary:  job.build.Binary,
		Target:  job.target,
		Env:     job.build.Env,
		Flags:   job.build.Flags,
		Ldflags: job.build.Ldflags,
		Dist:    cfg.Options.Dist,
	}, tc)
	if err != nil {
		return nil, err
	}

	if job.build.Hooks.Post != "" {
		if err := o.hooks.Run(ctx, job.build.Hooks.Post, tc, job.build.Env); err != nil {
			return nil, err
		}
	}

	if !archived {
		return bin, nil
	}

	name, err := archive.Name(cfg.Archives.NameTemplate, tc)
	if err != nil {
		return nil, err
	}
	return o.archiver.Create(archive.Spec{
		Binary: bin,
		Name:   name,
		Format: cfg.Archives.FormatFor(job.target.Os),
		Files:  cfg.Archives.Files,
		Dist:   cfg.Options.Dist,
	})
}

// changelogArtifact writes the release notes into dist
func (o *Orchestrator) changelogArtifact(cfg *manifest.Config, rel domain.ReleaseInfo) (*domain.Artifact, error) {
	entries, err := changelog.Collect(o.repo, rel.PreviousTag, changelog.Options{
		Sort:    cfg.Changelog.Sort,
		Exclude: cfg.Changelog.Filters.Exclude,
	})
	if err != nil {
		return nil, err
	}

	path := filepath.Join(cfg.Options.Dist, "CHANGELOG.md")
	if err := os.WriteFile(path, []byte(changelog.Render(entries, rel.Version)), 0644); err != nil {
		return nil, err
	}
	return &domain.Artifact{
		Name: "CHANGELOG.md",
		Path: path,
		Type: domain.TypeChangelog,
	}, nil
}

// publish uploads all artifacts to the manifest's destinations
func (o *Orchestrator) publish(ctx context.Context, cfg *manifest.Config, rel domain.ReleaseInfo, artifacts []*domain.Artifact) error {
	pub, err := o.publishers(ctx, o.config, cfg.Publish.S3)
	if err != nil {
		return err
	}

	o.logger.Info().
		Str("publisher", pub.Name()).
		Int("artifacts", len(artifacts)).
		Msg("publishing release")

	bar := utils.NewProgressBar(len(artifacts), utils.DescUploading)
	defer bar.Finish()

	for _, art := range artifacts {
		if err := pub.Upload(ctx, art, rel.Version); err != nil {
			return err
		}
		_ = bar.Add(1)
	}
	return nil
}
