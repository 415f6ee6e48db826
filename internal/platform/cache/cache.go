// Package cache abstracts the key-value backend used by the cached store
// decorators. Two implementations exist: Redis for deployments and an
// in-memory map for tests and dev. Caching is a performance optimization,
// never a correctness dependency; decorators treat any error from these
// methods as a miss and fall through to the underlying store.
package cache

import (
	"context"
	"time"
)

// Cache is a byte-oriented key-value store with TTLs and prefix eviction.
type Cache interface {
	// Get returns the cached value and whether the key was present.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Set stores the value. A zero ttl means no expiry.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// Del removes the given keys; missing keys are not an error.
	Del(ctx context.Context, keys ...string) error
	// DelByPrefix removes every key starting with prefix. Used for the coarse
	// statistics-wide eviction on writes.
	DelByPrefix(ctx context.Context, prefix string) error
}
