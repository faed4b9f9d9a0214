// Package version exposes the wsrelease binary's own release identity. The
// values are injected at build time through the same ldflags mechanism the
// tool renders for the projects it releases.
package version

import (
	"fmt"
	"runtime"
	"strings"
)

// Set by the release build via -ldflags -X
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

// Short returns just the version string
func Short() string {
	return Version
}

// Snapshot reports whether this binary was built from an untagged commit
func Snapshot() bool {
	return Version == "dev" || strings.Contains(Version, "-SNAPSHOT-")
}

// Full returns the multi-line output of the version command
func Full() string {
	var b strings.Builder
	fmt.Fprintf(&b, "wsrelease %s", Version)
	if Snapshot() {
		b.WriteString(" (snapshot)")
	}
	fmt.Fprintf(&b, "\n  commit:  %s", Commit)
	fmt.Fprintf(&b, "\n  built:   %s", BuildTime)
	fmt.Fprintf(&b, "\n  go:      %s (%s/%s)", runtime.Version(), runtime.GOOS, runtime.GOARCH)
	return b.String()
}
