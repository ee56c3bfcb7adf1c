// Package cache provides pluggable byte caches for registry responses.
//
// # Overview
//
// The [Cache] interface abstracts a key/value store with per-entry TTL.
// Three implementations are provided:
//
//   - [FileCache]: entries stored as files under a directory (CLI default)
//   - [RedisCache]: shared cache backed by a Redis server (API server)
//   - [NullCache]: no-op cache for tests and uncached runs
//
// Keys are opaque strings; callers namespace them to avoid collisions
// (e.g. "pypi:fastapi"). Values are raw bytes; callers handle encoding.
package cache

import (
	"context"
	"time"
)

// DefaultTTL is the entry lifetime used when the caller has no preference.
const DefaultTTL = 24 * time.Hour

// Cache is a byte-oriented key/value store with per-entry expiration.
// Implementations must be safe for concurrent use.
type Cache interface {
	// Get retrieves the value stored under key. The boolean reports
	// whether the key was present and unexpired.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key. A ttl of zero or less means the entry
	// never expires.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases resources held by the cache.
	Close() error
}
