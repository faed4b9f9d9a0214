package domain

import (
	"bytes"
	"text/template"
	"time"
)

// Target identifies one cross-compilation platform. Arm holds the GOARM
// revision and is empty for non-ARM architectures.
type Target struct {
	Os   string `json:"os"`
	Arch string `json:"arch"`
	Arm  string `json:"arm,omitempty"`
}

// String renders the triple the way build logs and dist paths show it,
// e.g. "linux/amd64" or "linux/armv7".
func (t Target) String() string {
	if t.Arm != "" {
		return t.Os + "/" + t.Arch + "v" + t.Arm
	}
	return t.Os + "/" + t.Arch
}

// Ext returns the binary suffix for the target OS
func (t Target) Ext() string {
	if t.Os == "windows" {
		return ".exe"
	}
	return ""
}

// ArtifactType classifies produced files for publishing
type ArtifactType int

const (
	// TypeBinary is a compiled binary before archiving
	TypeBinary ArtifactType = iota
	// TypeArchive is a packaged tar.gz/zip (or a raw binary copy)
	TypeArchive
	// TypeChecksum is the checksum file covering all archives
	TypeChecksum
	// TypeChangelog is the generated release notes file
	TypeChangelog
)

// String returns a human-readable artifact type name
func (t ArtifactType) String() string {
	switch t {
	case TypeBinary:
		return "binary"
	case TypeArchive:
		return "archive"
	case TypeChecksum:
		return "checksum"
	case TypeChangelog:
		return "changelog"
	default:
		return "unknown"
	}
}

// Artifact represents one file produced by the pipeline
type Artifact struct {
	Name    string       `json:"name"`
	Path    string       `json:"path"`
	Type    ArtifactType `json:"type"`
	Target  Target       `json:"target"`
	BuildID string       `json:"build_id,omitempty"`
}

// ReleaseInfo carries the resolved version metadata for one release run
type ReleaseInfo struct {
	ProjectName string    `json:"project_name"`
	Version     string    `json:"version"`
	Commit      string    `json:"commit"`
	ShortCommit string    `json:"short_commit"`
	CurrentTag  string    `json:"current_tag,omitempty"`
	PreviousTag string    `json:"previous_tag,omitempty"`
	Date        time.Time `json:"date"`
	Snapshot    bool      `json:"snapshot"`
	Dirty       bool      `json:"dirty"`
}

// TemplateContext exposes the fields available to name, ldflags, and hook
// templates in the manifest
type TemplateContext struct {
	ProjectName string
	Version     string
	Commit      string
	ShortCommit string
	Date        string
	Os          string
	Arch        string
	Arm         string
	Binary      string
}

// NewTemplateContext builds a template context for one target
func NewTemplateContext(rel ReleaseInfo, t Target, binary string) TemplateContext {
	return TemplateContext{
		ProjectName: rel.ProjectName,
		Version:     rel.Version,
		Commit:      rel.Commit,
		ShortCommit: rel.ShortCommit,
		Date:        rel.Date.UTC().Format(time.RFC3339),
		Os:          t.Os,
		Arch:        t.Arch,
		Arm:         t.Arm,
		Binary:      binary,
	}
}

// Apply renders a manifest template string against the context
func (c TemplateContext) Apply(name, tmpl string) (string, error) {
	t, err := template.New(name).Option("missingkey=error").Parse(tmpl)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := t.Execute(&buf, c); err != nil {
		return "", err
	}
	return buf.String(), nil
}
