package cache

import (
	"encoding/json"

	"github.com/wstunnel/wsrelease/internal/domain"
)

// Ensure BadgerCache implements domain.Cache
var _ domain.Cache = (*BadgerCache)(nil)

// Entry records one cached build result
type Entry struct {
	Path     string `json:"path"`
	Checksum string `json:"checksum"`
}

// Encode serializes the entry for storage
func (e Entry) Encode() ([]byte, error) {
	return json.Marshal(e)
}

// DecodeEntry deserializes a stored entry
func DecodeEntry(data []byte) (Entry, error) {
	var e Entry
	err := json.Unmarshal(data, &e)
	return e, err
}

// Options contains cache configuration options
type Options struct {
	Directory string
	InMemory  bool
	// Verbose enables badger's own logging
	Verbose bool
}
