// Package manifest provides types and utilities for loading and validating
// wsrelease manifests. A manifest declares the build matrix, packaging,
// checksum, changelog, and publish configuration for one project.
//
// # Manifest Format
//
// Manifests can be written in YAML or JSON format:
//
//	project_name: wstunnel
//	builds:
//	  - goos: [linux, darwin, windows]
//	    goarch: ["386", amd64, arm64, arm]
//	    goarm: ["7"]
//	    ignore:
//	      - {goos: windows, goarch: arm64}
//	      - {goos: windows, goarch: arm}
//	      - {goos: darwin, goarch: arm}
//	      - {goos: linux, goarch: "386"}
//	      - {goos: darwin, goarch: "386"}
//	    hooks:
//	      post: ./scripts/package.sh
//	checksum:
//	  name_template: checksums.txt
//	changelog:
//	  sort: asc
//	  filters:
//	    exclude: ["^docs:", "^test:"]
//
// # Validation
//
// Loading applies defaults and then enforces the matrix invariants: every
// goos/goarch value must be a known platform, every ignore entry must match a
// combination the cross product actually yields (no dead exclusions), and the
// matrix must expand to at least one target.
//
// # Error Handling
//
// The package defines sentinel errors for common failure cases, e.g.
// ErrFileNotFound, ErrInvalidFormat, ErrDeadIgnore, ErrUnknownPlatform.
package manifest
