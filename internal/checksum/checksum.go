// Package checksum produces and verifies the release checksum file. Every
// archive gets one "<digest>  <filename>" line, sorted by filename, so the
// file is reproducible for a given artifact set.
package checksum

import (
	"bufio"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"fmt"
	"hash"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/wstunnel/wsrelease/internal/domain"
)

// New returns a hash for the manifest's checksum algorithm
func New(algo string) (hash.Hash, error) {
	switch algo {
	case "", "sha256":
		return sha256.New(), nil
	case "sha512":
		return sha512.New(), nil
	default:
		return nil, fmt.Errorf("unsupported checksum algorithm: %s", algo)
	}
}

// File returns the hex digest of a file's contents
func File(path, algo string) (string, error) {
	h, err := New(algo)
	if err != nil {
		return "", err
	}

	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// Write hashes the given artifacts and writes the checksum file into dist.
// Returns the checksum file as an artifact of its own.
func Write(dist, filename, algo string, artifacts []*domain.Artifact) (*domain.Artifact, error) {
	sorted := make([]*domain.Artifact, len(artifacts))
	copy(sorted, artifacts)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })

	lines := make([]string, 0, len(sorted))
	for _, art := range sorted {
		digest, err := File(art.Path, algo)
		if err != nil {
			return nil, fmt.Errorf("hashing %s: %w", art.Name, err)
		}
		lines = append(lines, fmt.Sprintf("%s  %s", digest, art.Name))
	}

	path := filepath.Join(dist, filename)
	content := strings.Join(lines, "\n")
	if len(lines) > 0 {
		content += "\n"
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return nil, err
	}

	return &domain.Artifact{
		Name: filename,
		Path: path,
		Type: domain.TypeChecksum,
	}, nil
}

// Verify re-hashes every file named in the checksum file at path against the
// dist directory contents
func Verify(path, algo, dist string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		parts := strings.SplitN(line, "  ", 2)
		if len(parts) != 2 {
			return fmt.Errorf("malformed checksum line: %q", line)
		}
		want, name := parts[0], parts[1]

		got, err := File(filepath.Join(dist, name), algo)
		if err != nil {
			return err
		}
		if got != want {
			return fmt.Errorf("%w: %s", domain.ErrChecksumMismatch, name)
		}
	}
	return scanner.Err()
}
