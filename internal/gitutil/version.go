package gitutil

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/wstunnel/wsrelease/internal/domain"
)

// ResolveOptions controls version resolution
type ResolveOptions struct {
	// Snapshot forces a snapshot version even on a tagged HEAD
	Snapshot bool
	// AllowDirty permits uncommitted changes in the worktree
	AllowDirty bool
}

// Version is the resolved release version for the current repository state
type Version struct {
	Version     string
	CurrentTag  string
	PreviousTag string
	Commit      string
	ShortCommit string
	Date        time.Time
	Snapshot    bool
	Dirty       bool
}

// Resolve determines the release version from the repository. A tagged HEAD
// releases under its tag; anything else produces a snapshot version derived
// from the latest tag and the short commit hash.
func Resolve(r *Repo, opts ResolveOptions) (*Version, error) {
	head, err := r.Head()
	if err != nil {
		return nil, err
	}

	dirty, err := r.IsDirty()
	if err != nil {
		return nil, err
	}
	if dirty && !opts.AllowDirty && !opts.Snapshot {
		return nil, domain.ErrDirtyWorktree
	}

	tags, err := r.Tags()
	if err != nil {
		return nil, err
	}
	sortTags(tags)

	v := &Version{
		Commit:      head.Hash.String(),
		ShortCommit: head.Hash.String()[:7],
		Date:        head.Committer.When,
		Dirty:       dirty,
	}

	// Highest tag pointing at HEAD, if any
	for i := len(tags) - 1; i >= 0; i-- {
		if tags[i].Hash == head.Hash {
			v.CurrentTag = tags[i].Name
			break
		}
	}

	switch {
	case v.CurrentTag != "" && !opts.Snapshot:
		v.Version = v.CurrentTag
		v.PreviousTag = tagBefore(tags, v.CurrentTag)
	default:
		v.Snapshot = true
		base := "v0.0.0"
		if len(tags) > 0 {
			base = tags[len(tags)-1].Name
			v.PreviousTag = base
		}
		v.Version = fmt.Sprintf("%s-SNAPSHOT-%s", base, v.ShortCommit)
	}

	if dirty && v.Snapshot {
		v.Version += "+dirty"
	}

	return v, nil
}

// ReleaseInfo converts the resolved version into the domain release context
func (v *Version) ReleaseInfo(projectName string) domain.ReleaseInfo {
	return domain.ReleaseInfo{
		ProjectName: projectName,
		Version:     v.Version,
		Commit:      v.Commit,
		ShortCommit: v.ShortCommit,
		CurrentTag:  v.CurrentTag,
		PreviousTag: v.PreviousTag,
		Date:        v.Date,
		Snapshot:    v.Snapshot,
		Dirty:       v.Dirty,
	}
}

// sortTags orders tags ascending, semver-aware. Tags that do not parse as
// semver sort by commit time before all semver tags.
func sortTags(tags []Tag) {
	sort.SliceStable(tags, func(i, j int) bool {
		vi, oki := parseSemver(tags[i].Name)
		vj, okj := parseSemver(tags[j].Name)
		if oki && okj {
			return semverLess(vi, vj)
		}
		if oki != okj {
			return !oki
		}
		return tags[i].When.Before(tags[j].When)
	})
}

// tagBefore returns the tag immediately preceding name in sorted order
func tagBefore(tags []Tag, name string) string {
	for i, t := range tags {
		if t.Name == name {
			if i > 0 {
				return tags[i-1].Name
			}
			return ""
		}
	}
	return ""
}

type semver struct {
	nums [3]int
	pre  string
}

// parseSemver parses "v1.2.3" or "1.2.3" with an optional "-pre" suffix
func parseSemver(s string) (semver, bool) {
	s = strings.TrimPrefix(s, "v")

	var v semver
	if idx := strings.IndexByte(s, '-'); idx >= 0 {
		v.pre = s[idx+1:]
		s = s[:idx]
	}

	parts := strings.Split(s, ".")
	if len(parts) != 3 {
		return semver{}, false
	}
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 {
			return semver{}, false
		}
		v.nums[i] = n
	}
	return v, true
}

func semverLess(a, b semver) bool {
	for i := 0; i < 3; i++ {
		if a.nums[i] != b.nums[i] {
			return a.nums[i] < b.nums[i]
		}
	}
	// A pre-release sorts below its release
	if (a.pre == "") != (b.pre == "") {
		return a.pre != ""
	}
	return a.pre < b.pre
}
