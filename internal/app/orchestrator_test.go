package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wstunnel/wsrelease/internal/config"
	"github.com/wstunnel/wsrelease/internal/domain"
	"github.com/wstunnel/wsrelease/internal/gitutil"
	"github.com/wstunnel/wsrelease/internal/manifest"
)

type fakePublisher struct {
	mu      sync.Mutex
	uploads []string
}

func (f *fakePublisher) Name() string { return "fake" }

func (f *fakePublisher) Upload(_ context.Context, art *domain.Artifact, version string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.uploads = append(f.uploads, version+"/"+art.Name)
	return nil
}

// releaseEnv is a throwaway git repository plus stub tooling for pipeline
// tests. The fake compiler writes a marker file instead of invoking go.
type releaseEnv struct {
	repoDir  string
	workDir  string
	dist     string
	manifest string
	hookLog  string
	repo     *gitutil.Repo
	pub      *fakePublisher
	cfg      *config.Config
	gotool   string
}

func newReleaseEnv(t *testing.T) *releaseEnv {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("stub compiler scripts are not portable to Windows")
	}

	env := &releaseEnv{
		repoDir: t.TempDir(),
		workDir: t.TempDir(),
		pub:     &fakePublisher{},
	}
	env.dist = filepath.Join(env.workDir, "dist")
	env.hookLog = filepath.Join(env.workDir, "hooks.log")

	r, err := git.PlainInit(env.repoDir, false)
	require.NoError(t, err)
	env.repo = gitutil.Wrap(r)

	wt, err := r.Worktree()
	require.NoError(t, err)

	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	c1 := env.commit(t, wt, "main.go", "feat: initial tunnel", base)
	_, err = r.CreateTag("v1.0.0", c1, nil)
	require.NoError(t, err)

	env.commit(t, wt, "README.md", "docs: describe websocket framing", base.Add(time.Hour))
	c3 := env.commit(t, wt, "flags.go", "feat: add listen flags", base.Add(2*time.Hour))
	_, err = r.CreateTag("v1.1.0", c3, nil)
	require.NoError(t, err)

	env.gotool = filepath.Join(env.workDir, "fakego")
	require.NoError(t, os.WriteFile(env.gotool, []byte(
		"#!/bin/sh\n# args: build -o <out> ...\nprintf 'bin-%s-%s' \"$GOOS\" \"$GOARCH\" > \"$3\"\n",
	), 0755))

	hookScript := filepath.Join(env.workDir, "hook.sh")
	require.NoError(t, os.WriteFile(hookScript, []byte(
		"#!/bin/sh\necho \"$@\" >> "+env.hookLog+"\n",
	), 0755))

	env.manifest = filepath.Join(env.workDir, ".wsrelease.yaml")
	require.NoError(t, os.WriteFile(env.manifest, []byte(fmt.Sprintf(`
project_name: wstunnel
builds:
  - goos: [linux]
    goarch: [amd64, arm, "386"]
    goarm: ["7"]
    ignore:
      - goos: linux
        goarch: "386"
    hooks:
      post: %s
archives:
  format: tar.gz
publish:
  s3:
    bucket: releases
options:
  dist: %s
`, hookScript, env.dist)), 0644))

	env.cfg = config.Default()
	env.cfg.Cache.Enabled = false
	env.cfg.Concurrency.Workers = 2
	env.cfg.Logging.Level = "error"
	return env
}

func (e *releaseEnv) commit(t *testing.T, wt *git.Worktree, name, msg string, when time.Time) plumbing.Hash {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(e.repoDir, name), []byte(msg), 0644))
	_, err := wt.Add(name)
	require.NoError(t, err)
	h, err := wt.Commit(msg, &git.CommitOptions{
		Author: &object.Signature{Name: "dev", Email: "dev@example.com", When: when},
	})
	require.NoError(t, err)
	return h
}

func (e *releaseEnv) orchestrator(t *testing.T) *Orchestrator {
	t.Helper()
	o, err := NewOrchestrator(OrchestratorOptions{
		Config: e.cfg,
		Dir:    e.repoDir,
		Repo:   e.repo,
		GoTool: e.gotool,
		PublisherFactory: func(context.Context, *config.Config, *manifest.S3) (domain.Publisher, error) {
			return e.pub, nil
		},
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = o.Close() })
	return o
}

func TestOrchestrator_Release(t *testing.T) {
	env := newReleaseEnv(t)
	o := env.orchestrator(t)

	res, err := o.Release(context.Background(), RunOptions{ManifestPath: env.manifest})
	require.NoError(t, err)

	assert.Equal(t, "v1.1.0", res.Info.Version)
	assert.False(t, res.Info.Snapshot)

	// linux/amd64 and linux/armv7 archives plus checksums and changelog
	names := make(map[string]domain.ArtifactType)
	for _, a := range res.Artifacts {
		names[a.Name] = a.Type
	}
	assert.Equal(t, domain.TypeArchive, names["wstunnel_v1.1.0_linux_amd64.tar.gz"])
	assert.Equal(t, domain.TypeArchive, names["wstunnel_v1.1.0_linux_armv7.tar.gz"])
	assert.Equal(t, domain.TypeChecksum, names["checksums.txt"])
	assert.Equal(t, domain.TypeChangelog, names["CHANGELOG.md"])
	assert.Len(t, res.Artifacts, 4)

	// The checksum file covers both archives
	sums, err := os.ReadFile(filepath.Join(env.dist, "checksums.txt"))
	require.NoError(t, err)
	assert.Contains(t, string(sums), "wstunnel_v1.1.0_linux_amd64.tar.gz")
	assert.Contains(t, string(sums), "wstunnel_v1.1.0_linux_armv7.tar.gz")

	// Changelog covers commits since v1.0.0 with docs: excluded
	notes, err := os.ReadFile(filepath.Join(env.dist, "CHANGELOG.md"))
	require.NoError(t, err)
	assert.Contains(t, string(notes), "feat: add listen flags")
	assert.NotContains(t, string(notes), "docs: describe websocket framing")

	// Post hooks ran once per target with the positional contract args
	hookLog, err := os.ReadFile(env.hookLog)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(hookLog)), "\n")
	assert.ElementsMatch(t, []string{
		"amd64 linux  wstunnel",
		"arm linux 7 wstunnel",
	}, lines)

	// Everything was uploaded under the release version
	assert.Len(t, env.pub.uploads, 4)
	assert.Contains(t, env.pub.uploads, "v1.1.0/checksums.txt")
}

func TestOrchestrator_ReleaseSkipPublish(t *testing.T) {
	env := newReleaseEnv(t)
	o := env.orchestrator(t)

	_, err := o.Release(context.Background(), RunOptions{ManifestPath: env.manifest, SkipPublish: true})
	require.NoError(t, err)
	assert.Empty(t, env.pub.uploads)
}

func TestOrchestrator_BuildOnly(t *testing.T) {
	env := newReleaseEnv(t)
	o := env.orchestrator(t)

	res, err := o.Build(context.Background(), RunOptions{ManifestPath: env.manifest})
	require.NoError(t, err)

	require.Len(t, res.Artifacts, 2)
	for _, a := range res.Artifacts {
		assert.Equal(t, domain.TypeBinary, a.Type)
		data, err := os.ReadFile(a.Path)
		require.NoError(t, err)
		assert.Equal(t, "bin-"+a.Target.Os+"-"+a.Target.Arch, string(data))
	}
	assert.Empty(t, env.pub.uploads)
}

func TestOrchestrator_Changelog(t *testing.T) {
	env := newReleaseEnv(t)
	o := env.orchestrator(t)

	notes, err := o.Changelog(RunOptions{ManifestPath: env.manifest})
	require.NoError(t, err)

	assert.Contains(t, notes, "## Changelog")
	assert.Contains(t, notes, "Release v1.1.0")
	assert.Contains(t, notes, "feat: add listen flags")
	assert.NotContains(t, notes, "docs: describe websocket framing")
	assert.NotContains(t, notes, "feat: initial tunnel")
}

func TestOrchestrator_RmDist(t *testing.T) {
	env := newReleaseEnv(t)
	o := env.orchestrator(t)

	stale := filepath.Join(env.dist, "stale.txt")
	require.NoError(t, os.MkdirAll(env.dist, 0755))
	require.NoError(t, os.WriteFile(stale, []byte("old"), 0644))

	_, err := o.Release(context.Background(), RunOptions{
		ManifestPath: env.manifest,
		SkipPublish:  true,
		RmDist:       true,
	})
	require.NoError(t, err)
	assert.NoFileExists(t, stale)
}

func TestOrchestrator_DistFromConfig(t *testing.T) {
	env := newReleaseEnv(t)

	// Manifest pins no dist, so the configured directory wins.
	noDist := filepath.Join(env.workDir, "nodist.yaml")
	require.NoError(t, os.WriteFile(noDist, []byte(`
project_name: wstunnel
builds:
  - goos: [linux]
    goarch: [amd64]
`), 0644))

	custom := filepath.Join(env.workDir, "out")
	env.cfg.Dist = custom
	o := env.orchestrator(t)

	res, err := o.Build(context.Background(), RunOptions{ManifestPath: noDist})
	require.NoError(t, err)

	require.Len(t, res.Artifacts, 1)
	assert.Equal(t, custom, filepath.Dir(filepath.Dir(res.Artifacts[0].Path)))
	assert.NoDirExists(t, env.dist)
}

func TestOrchestrator_FailingBuildAborts(t *testing.T) {
	env := newReleaseEnv(t)
	require.NoError(t, os.WriteFile(env.gotool, []byte("#!/bin/sh\necho 'compile error' >&2\nexit 1\n"), 0755))
	o := env.orchestrator(t)

	_, err := o.Release(context.Background(), RunOptions{ManifestPath: env.manifest})

	var buildErr *domain.BuildError
	require.ErrorAs(t, err, &buildErr)
	assert.Contains(t, buildErr.Output, "compile error")
}

func TestOrchestrator_MissingManifest(t *testing.T) {
	env := newReleaseEnv(t)
	o := env.orchestrator(t)

	_, err := o.Release(context.Background(), RunOptions{ManifestPath: filepath.Join(env.workDir, "nope.yaml")})
	assert.ErrorIs(t, err, manifest.ErrFileNotFound)
}

func TestNewOrchestrator_RequiresConfig(t *testing.T) {
	_, err := NewOrchestrator(OrchestratorOptions{})
	assert.Error(t, err)
}

func TestNewOrchestrator_NotARepository(t *testing.T) {
	_, err := NewOrchestrator(OrchestratorOptions{
		Config: config.Default(),
		Dir:    t.TempDir(),
	})
	assert.ErrorIs(t, err, gitutil.ErrNotRepository)
}
