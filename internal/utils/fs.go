package utils

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// invalidCharsRegex matches characters that cannot appear in artifact names
var invalidCharsRegex = regexp.MustCompile(`[<>:"|?*\\/\s]`)

// SanitizeName sanitizes a string for use as a file or directory name.
// Target triples like "linux/armv7" become "linux-armv7".
func SanitizeName(name string) string {
	name = invalidCharsRegex.ReplaceAllString(name, "-")
	name = strings.Trim(name, "- ")
	if name == "" {
		name = "unnamed"
	}
	return name
}

// EnsureDir ensures the parent directory of path exists
func EnsureDir(path string) error {
	dir := filepath.Dir(path)
	return os.MkdirAll(dir, 0755)
}

// ExpandPath expands ~ to the user's home directory
func ExpandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}
	if path == "~" {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return home
	}
	return path
}

// FileExists reports whether path exists and is a regular file
func FileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}
