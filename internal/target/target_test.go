package target

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wstunnel/wsrelease/internal/domain"
)

// The wstunnel matrix: three operating systems, four architectures, ARM
// revision 7, five exclusions.
var (
	wstunnelOs      = []string{"linux", "darwin", "windows"}
	wstunnelArch    = []string{"386", "amd64", "arm64", "arm"}
	wstunnelArm     = []string{"7"}
	wstunnelIgnores = []Ignore{
		{Goos: "windows", Goarch: "arm64"},
		{Goos: "windows", Goarch: "arm"},
		{Goos: "darwin", Goarch: "arm"},
		{Goos: "linux", Goarch: "386"},
		{Goos: "darwin", Goarch: "386"},
	}
)

func TestExpand_WstunnelMatrix(t *testing.T) {
	targets := Expand(wstunnelOs, wstunnelArch, wstunnelArm, wstunnelIgnores)

	expected := []domain.Target{
		{Os: "linux", Arch: "amd64"},
		{Os: "linux", Arch: "arm64"},
		{Os: "linux", Arch: "arm", Arm: "7"},
		{Os: "darwin", Arch: "amd64"},
		{Os: "darwin", Arch: "arm64"},
		{Os: "windows", Arch: "386"},
		{Os: "windows", Arch: "amd64"},
	}
	assert.Equal(t, expected, targets)
}

func TestExpand_EveryCombinationProducedOrIgnored(t *testing.T) {
	all := All(wstunnelOs, wstunnelArch, wstunnelArm)
	produced := Expand(wstunnelOs, wstunnelArch, wstunnelArm, wstunnelIgnores)

	builtSet := make(map[string]bool, len(produced))
	for _, tgt := range produced {
		builtSet[tgt.String()] = true
	}

	// No combination implied by the cross product may be left undefined:
	// each is either built or matched by an ignore entry.
	for _, tgt := range all {
		if builtSet[tgt.String()] {
			continue
		}
		matched := false
		for _, ig := range wstunnelIgnores {
			if ig.Matches(tgt) {
				matched = true
				break
			}
		}
		assert.True(t, matched, "combination %s is neither built nor ignored", tgt)
	}
}

func TestExpand_DefaultArmRevision(t *testing.T) {
	targets := Expand([]string{"linux"}, []string{"arm"}, nil, nil)

	require.Len(t, targets, 1)
	assert.Equal(t, domain.Target{Os: "linux", Arch: "arm", Arm: "7"}, targets[0])
}

func TestExpand_MultipleArmRevisions(t *testing.T) {
	targets := Expand([]string{"linux"}, []string{"arm"}, []string{"6", "7"}, nil)

	assert.Equal(t, []domain.Target{
		{Os: "linux", Arch: "arm", Arm: "6"},
		{Os: "linux", Arch: "arm", Arm: "7"},
	}, targets)
}

func TestExpand_Dedupes(t *testing.T) {
	targets := Expand([]string{"linux", "linux"}, []string{"amd64", "amd64"}, nil, nil)
	assert.Len(t, targets, 1)
}

func TestExpand_IgnoreWithoutArmMatchesAllRevisions(t *testing.T) {
	targets := Expand([]string{"linux"}, []string{"arm", "amd64"}, []string{"6", "7"},
		[]Ignore{{Goos: "linux", Goarch: "arm"}})

	assert.Equal(t, []domain.Target{{Os: "linux", Arch: "amd64"}}, targets)
}

func TestExpand_IgnoreSpecificArmRevision(t *testing.T) {
	targets := Expand([]string{"linux"}, []string{"arm"}, []string{"6", "7"},
		[]Ignore{{Goos: "linux", Goarch: "arm", Goarm: "6"}})

	assert.Equal(t, []domain.Target{{Os: "linux", Arch: "arm", Arm: "7"}}, targets)
}

func TestDead_NoDeadEntriesInWstunnelMatrix(t *testing.T) {
	dead := Dead(wstunnelOs, wstunnelArch, wstunnelArm, wstunnelIgnores)
	assert.Empty(t, dead)
}

func TestDead_ReportsUnmatchedEntries(t *testing.T) {
	ignores := []Ignore{
		{Goos: "linux", Goarch: "amd64"},   // live
		{Goos: "plan9", Goarch: "amd64"},   // os not in matrix
		{Goos: "linux", Goarch: "riscv64"}, // arch not in matrix
		{Goos: "linux", Goarch: "arm", Goarm: "5"}, // revision not in matrix
	}

	dead := Dead([]string{"linux"}, []string{"amd64", "arm"}, []string{"7"}, ignores)

	require.Len(t, dead, 3)
	assert.Equal(t, "plan9", dead[0].Goos)
	assert.Equal(t, "riscv64", dead[1].Goarch)
	assert.Equal(t, "5", dead[2].Goarm)
}

func TestSupported(t *testing.T) {
	assert.True(t, SupportedOs("linux"))
	assert.True(t, SupportedOs("darwin"))
	assert.True(t, SupportedOs("windows"))
	assert.False(t, SupportedOs("beos"))

	assert.True(t, SupportedArch("386"))
	assert.True(t, SupportedArch("arm64"))
	assert.False(t, SupportedArch("ia64"))
}
