// Package cache provides byte-oriented storage backends shared by the
// registry client (HTTP response caching) and the resolver (process-wide
// resolved subtrees).
//
// Backends:
//   - [NullCache]: never stores anything
//   - [FileCache]: one JSON file per key, for CLI usage
//   - [RedisCache]: shared across server instances
//   - [MongoCache]: shared, with a TTL index doing the expiry
//
// Keys are produced by a [Keyer] so every consumer namespaces its entries
// the same way.
package cache

import (
	"context"
	"time"
)

// Cache is a key/value store for opaque byte payloads.
//
// Get reports (nil, false, nil) on a miss. Expired entries are misses.
// A ttl of 0 passed to Set means the entry never expires.
//
// Implementations must be safe for concurrent use.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}
