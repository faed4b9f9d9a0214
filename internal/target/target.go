// Package target expands a declared build matrix into the concrete set of
// cross-compilation targets. A matrix is the cross product of the goos,
// goarch, and goarm lists minus an explicit ignore set; every combination the
// lists imply is therefore either produced or named by an ignore entry.
package target

import (
	"github.com/wstunnel/wsrelease/internal/domain"
)

// Ignore excludes one combination from the build matrix. An empty Goarm
// matches every ARM revision of the os/arch pair.
type Ignore struct {
	Goos   string `yaml:"goos" json:"goos"`
	Goarch string `yaml:"goarch" json:"goarch"`
	Goarm  string `yaml:"goarm,omitempty" json:"goarm,omitempty"`
}

// Matches reports whether the ignore entry covers the target
func (i Ignore) Matches(t domain.Target) bool {
	if i.Goos != t.Os || i.Goarch != t.Arch {
		return false
	}
	return i.Goarm == "" || i.Goarm == t.Arm
}

// DefaultArmRevisions is used when goarch contains "arm" but no goarm list
// is declared.
var DefaultArmRevisions = []string{"7"}

// knownOs is the set of GOOS values the tool accepts
var knownOs = map[string]bool{
	"aix": true, "android": true, "darwin": true, "dragonfly": true,
	"freebsd": true, "illumos": true, "ios": true, "js": true,
	"linux": true, "netbsd": true, "openbsd": true, "plan9": true,
	"solaris": true, "wasip1": true, "windows": true,
}

// knownArch is the set of GOARCH values the tool accepts
var knownArch = map[string]bool{
	"386": true, "amd64": true, "arm": true, "arm64": true,
	"loong64": true, "mips": true, "mipsle": true, "mips64": true,
	"mips64le": true, "ppc64": true, "ppc64le": true, "riscv64": true,
	"s390x": true, "wasm": true,
}

// SupportedOs reports whether goos is a known GOOS value
func SupportedOs(goos string) bool {
	return knownOs[goos]
}

// SupportedArch reports whether goarch is a known GOARCH value
func SupportedArch(goarch string) bool {
	return knownArch[goarch]
}

// Expand returns the cross product of the lists minus the ignore set.
// Order is deterministic: os-major, then arch, then ARM revision, each in
// declaration order. Duplicate list entries are dropped.
func Expand(goos, goarch, goarm []string, ignores []Ignore) []domain.Target {
	goos = dedupe(goos)
	goarch = dedupe(goarch)
	goarm = dedupe(goarm)
	if len(goarm) == 0 {
		goarm = DefaultArmRevisions
	}

	var targets []domain.Target
	for _, os := range goos {
		for _, arch := range goarch {
			if arch == "arm" {
				for _, arm := range goarm {
					t := domain.Target{Os: os, Arch: arch, Arm: arm}
					if !ignored(t, ignores) {
						targets = append(targets, t)
					}
				}
				continue
			}
			t := domain.Target{Os: os, Arch: arch}
			if !ignored(t, ignores) {
				targets = append(targets, t)
			}
		}
	}
	return targets
}

// All returns the full cross product with no ignores applied
func All(goos, goarch, goarm []string) []domain.Target {
	return Expand(goos, goarch, goarm, nil)
}

// Dead returns the ignore entries that match nothing in the cross product.
// A dead entry is a manifest defect: it names a combination the matrix never
// yields.
func Dead(goos, goarch, goarm []string, ignores []Ignore) []Ignore {
	all := All(goos, goarch, goarm)

	var dead []Ignore
	for _, ig := range ignores {
		matched := false
		for _, t := range all {
			if ig.Matches(t) {
				matched = true
				break
			}
		}
		if !matched {
			dead = append(dead, ig)
		}
	}
	return dead
}

func ignored(t domain.Target, ignores []Ignore) bool {
	for _, ig := range ignores {
		if ig.Matches(t) {
			return true
		}
	}
	return false
}

func dedupe(items []string) []string {
	seen := make(map[string]bool, len(items))
	var out []string
	for _, s := range items {
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}
