// Package gitutil wraps the go-git operations the release pipeline needs:
// opening the local repository, resolving HEAD and tags, walking commit
// history, and detecting a dirty worktree. It never shells out to the git
// binary.
package gitutil

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"

	"github.com/wstunnel/wsrelease/internal/domain"
)

// ErrNotRepository indicates the path is not inside a git repository
var ErrNotRepository = errors.New("not a git repository")

// ErrTagNotFound indicates a named tag does not exist
var ErrTagNotFound = errors.New("tag not found")

// Tag is a resolved tag pointing at a commit
type Tag struct {
	Name string
	Hash plumbing.Hash
	When time.Time
}

// Repo wraps a go-git repository
type Repo struct {
	inner *git.Repository
}

// Open opens the repository containing path
func Open(path string) (*Repo, error) {
	r, err := git.PlainOpenWithOptions(path, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		if errors.Is(err, git.ErrRepositoryNotExists) {
			return nil, fmt.Errorf("%w: %s", ErrNotRepository, path)
		}
		return nil, err
	}
	return &Repo{inner: r}, nil
}

// Wrap adapts an already-open go-git repository (used by tests with
// in-memory storage)
func Wrap(r *git.Repository) *Repo {
	return &Repo{inner: r}
}

// Head returns the commit HEAD points at
func (r *Repo) Head() (*object.Commit, error) {
	ref, err := r.inner.Head()
	if err != nil {
		if errors.Is(err, plumbing.ErrReferenceNotFound) {
			return nil, domain.ErrNoCommits
		}
		return nil, err
	}
	return r.inner.CommitObject(ref.Hash())
}

// IsDirty reports whether the worktree has uncommitted changes. Bare
// repositories are never dirty.
func (r *Repo) IsDirty() (bool, error) {
	wt, err := r.inner.Worktree()
	if err != nil {
		if errors.Is(err, git.ErrIsBareRepository) {
			return false, nil
		}
		return false, err
	}

	status, err := wt.Status()
	if err != nil {
		return false, err
	}
	return !status.IsClean(), nil
}

// Tags returns all tags resolved to their target commits, annotated tags
// included
func (r *Repo) Tags() ([]Tag, error) {
	iter, err := r.inner.Tags()
	if err != nil {
		return nil, err
	}
	defer iter.Close()

	var tags []Tag
	err = iter.ForEach(func(ref *plumbing.Reference) error {
		commit, err := r.resolveTagCommit(ref.Hash())
		if err != nil {
			return err
		}
		tags = append(tags, Tag{
			Name: ref.Name().Short(),
			Hash: commit.Hash,
			When: commit.Committer.When,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(tags, func(i, j int) bool { return tags[i].Name < tags[j].Name })
	return tags, nil
}

// TagCommit resolves a tag name to its target commit hash
func (r *Repo) TagCommit(name string) (plumbing.Hash, error) {
	tags, err := r.Tags()
	if err != nil {
		return plumbing.ZeroHash, err
	}
	for _, t := range tags {
		if t.Name == name {
			return t.Hash, nil
		}
	}
	return plumbing.ZeroHash, fmt.Errorf("%w: %s", ErrTagNotFound, name)
}

// Log returns a commit iterator starting at from
func (r *Repo) Log(from plumbing.Hash) (object.CommitIter, error) {
	return r.inner.Log(&git.LogOptions{From: from})
}

// resolveTagCommit follows an annotated tag object to its commit, or loads
// the commit directly for lightweight tags
func (r *Repo) resolveTagCommit(hash plumbing.Hash) (*object.Commit, error) {
	if tagObj, err := r.inner.TagObject(hash); err == nil {
		return tagObj.Commit()
	}
	return r.inner.CommitObject(hash)
}
