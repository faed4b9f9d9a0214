package domain

import (
	"context"
)

// Cache defines the interface for the build cache
type Cache interface {
	// Get retrieves a value from cache
	Get(ctx context.Context, key string) ([]byte, error)
	// Set stores a value in cache
	Set(ctx context.Context, key string, value []byte) error
	// Has checks if a key exists in cache
	Has(ctx context.Context, key string) bool
	// Delete removes a key from cache
	Delete(ctx context.Context, key string) error
	// Close releases cache resources
	Close() error
}

// Publisher defines the interface for artifact publishing
type Publisher interface {
	// Name returns the publisher name
	Name() string
	// Upload publishes one artifact under the release version
	Upload(ctx context.Context, art *Artifact, version string) error
}
