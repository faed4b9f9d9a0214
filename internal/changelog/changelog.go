// Package changelog generates release notes from git history. Commits since
// the previous release tag are filtered against the manifest's exclude
// patterns and ordered by committer time.
package changelog

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"

	"github.com/wstunnel/wsrelease/internal/gitutil"
)

// Entry is one commit included in the changelog
type Entry struct {
	Hash      string
	ShortHash string
	Subject   string
	When      time.Time
}

// Options controls commit filtering and ordering
type Options struct {
	// Sort is "asc" (default) or "desc"
	Sort string
	// Exclude drops commits whose subject matches any pattern
	Exclude []string
}

// Collect returns the filtered commits reachable from HEAD but not from
// sinceTag. An empty sinceTag walks the full history. Excluding everything
// the tag reaches, rather than stopping the walk at the tagged commit,
// keeps merged side branches out of the range.
func Collect(repo *gitutil.Repo, sinceTag string, opts Options) ([]Entry, error) {
	excludes, err := compile(opts.Exclude)
	if err != nil {
		return nil, err
	}

	released := make(map[plumbing.Hash]struct{})
	if sinceTag != "" {
		boundary, err := repo.TagCommit(sinceTag)
		if err != nil {
			return nil, err
		}
		if released, err = reachable(repo, boundary); err != nil {
			return nil, err
		}
	}

	head, err := repo.Head()
	if err != nil {
		return nil, err
	}

	iter, err := repo.Log(head.Hash)
	if err != nil {
		return nil, err
	}
	defer iter.Close()

	var entries []Entry
	err = iter.ForEach(func(c *object.Commit) error {
		if _, ok := released[c.Hash]; ok {
			return nil
		}
		subject := subjectOf(c)
		if matchesAny(subject, excludes) {
			return nil
		}
		entries = append(entries, Entry{
			Hash:      c.Hash.String(),
			ShortHash: c.Hash.String()[:7],
			Subject:   subject,
			When:      c.Committer.When,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	sortEntries(entries, opts.Sort)
	return entries, nil
}

// reachable returns every commit hash reachable from the given commit
func reachable(repo *gitutil.Repo, from plumbing.Hash) (map[plumbing.Hash]struct{}, error) {
	iter, err := repo.Log(from)
	if err != nil {
		return nil, err
	}
	defer iter.Close()

	seen := make(map[plumbing.Hash]struct{})
	err = iter.ForEach(func(c *object.Commit) error {
		seen[c.Hash] = struct{}{}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return seen, nil
}

// Render produces the markdown release notes body
func Render(entries []Entry, version string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "## Changelog\n\n")
	if version != "" {
		fmt.Fprintf(&b, "Release %s\n\n", version)
	}
	if len(entries) == 0 {
		b.WriteString("No notable changes.\n")
		return b.String()
	}
	for _, e := range entries {
		fmt.Fprintf(&b, "* %s %s\n", e.ShortHash, e.Subject)
	}
	return b.String()
}

// sortEntries orders ascending by committer time with hash as tiebreaker;
// "desc" reverses
func sortEntries(entries []Entry, order string) {
	sort.SliceStable(entries, func(i, j int) bool {
		if !entries[i].When.Equal(entries[j].When) {
			return entries[i].When.Before(entries[j].When)
		}
		return entries[i].Hash < entries[j].Hash
	})
	if order == "desc" {
		for i, j := 0, len(entries)-1; i < j; i, j = i+1, j-1 {
			entries[i], entries[j] = entries[j], entries[i]
		}
	}
}

func subjectOf(c *object.Commit) string {
	subject := c.Message
	if idx := strings.IndexByte(subject, '\n'); idx >= 0 {
		subject = subject[:idx]
	}
	return strings.TrimSpace(subject)
}

func compile(patterns []string) ([]*regexp.Regexp, error) {
	res := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("invalid exclude pattern %q: %w", p, err)
		}
		res = append(res, re)
	}
	return res, nil
}

func matchesAny(s string, res []*regexp.Regexp) bool {
	for _, re := range res {
		if re.MatchString(s) {
			return true
		}
	}
	return false
}
