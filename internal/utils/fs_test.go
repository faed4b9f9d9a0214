package utils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeName(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"linux/amd64", "linux-amd64"},
		{"linux/armv7", "linux-armv7"},
		{"name with spaces", "name-with-spaces"},
		{"--trimmed--", "trimmed"},
		{"", "unnamed"},
		{"already-clean", "already-clean"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, SanitizeName(tt.input), tt.input)
	}
}

func TestEnsureDir(t *testing.T) {
	tmp := t.TempDir()
	path := filepath.Join(tmp, "a", "b", "file.txt")

	require.NoError(t, EnsureDir(path))

	info, err := os.Stat(filepath.Join(tmp, "a", "b"))
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(home, "dist"), ExpandPath("~/dist"))
	assert.Equal(t, home, ExpandPath("~"))
	assert.Equal(t, "/absolute", ExpandPath("/absolute"))
	assert.Equal(t, "relative", ExpandPath("relative"))
}

func TestFileExists(t *testing.T) {
	tmp := t.TempDir()
	path := filepath.Join(tmp, "f")

	assert.False(t, FileExists(path))
	require.NoError(t, os.WriteFile(path, []byte("x"), 0644))
	assert.True(t, FileExists(path))
	assert.False(t, FileExists(tmp)) // directories are not files
}
