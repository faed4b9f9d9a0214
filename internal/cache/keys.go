package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/wstunnel/wsrelease/internal/domain"
)

// BuildKey derives the cache key for one compiled target. Any change to the
// commit, target triple, ldflags, or build flags yields a new key.
func BuildKey(commit string, t domain.Target, ldflags string, flags []string) string {
	var b strings.Builder
	b.WriteString(commit)
	b.WriteByte('|')
	b.WriteString(t.String())
	b.WriteByte('|')
	b.WriteString(ldflags)
	b.WriteByte('|')
	b.WriteString(strings.Join(flags, " "))

	hash := sha256.Sum256([]byte(b.String()))
	return "build:" + hex.EncodeToString(hash[:])
}
