package app

import (
	"fmt"
	"strings"

	"github.com/wstunnel/wsrelease/internal/manifest"
)

// BuildCheck describes one build's expanded matrix
type BuildCheck struct {
	ID      string
	Binary  string
	Targets []string
}

// CheckReport summarizes a validated manifest
type CheckReport struct {
	ProjectName  string
	Builds       []BuildCheck
	TotalTargets int
	Format       string
	Checksum     string
	Publish      bool
}

// Check loads and validates a manifest and reports its expanded build matrix
func Check(path string) (*CheckReport, error) {
	if path == "" {
		path = manifest.DefaultPath
	}
	cfg, err := manifest.NewLoader().Load(path)
	if err != nil {
		return nil, err
	}

	report := &CheckReport{
		ProjectName: cfg.ProjectName,
		Format:      cfg.Archives.Format,
		Checksum:    cfg.Checksum.Algorithm,
		Publish:     cfg.Publish.S3 != nil,
	}
	for _, b := range cfg.Builds {
		bc := BuildCheck{ID: b.ID, Binary: b.Binary}
		for _, t := range b.Targets() {
			bc.Targets = append(bc.Targets, t.String())
		}
		report.TotalTargets += len(bc.Targets)
		report.Builds = append(report.Builds, bc)
	}
	return report, nil
}

// String renders the report for terminal output
func (r *CheckReport) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "project: %s\n", r.ProjectName)
	fmt.Fprintf(&b, "archive format: %s, checksum: %s\n", r.Format, r.Checksum)
	if r.Publish {
		b.WriteString("publish: s3\n")
	}
	for _, bc := range r.Builds {
		fmt.Fprintf(&b, "build %q (%s), %d targets:\n", bc.ID, bc.Binary, len(bc.Targets))
		for _, t := range bc.Targets {
			fmt.Fprintf(&b, "  %s\n", t)
		}
	}
	fmt.Fprintf(&b, "total: %d targets\n", r.TotalTargets)
	return b.String()
}
