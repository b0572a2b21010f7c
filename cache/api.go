package cache

import (
	"context"
	"time"
)

// Cache is a sharded, thread-safe front for colored.Cache.
// All methods are safe for concurrent use by multiple goroutines.
//
// Operations cost a shard lock, a map lookup and constant-time list
// splices; an insert into a full shard adds one color-bucket scan.
type Cache[K comparable, V any] interface {
	// Add inserts k→v only if k is not resident (expired counts as absent).
	// Returns false if the key already exists.
	Add(k K, v V) bool

	// Set inserts or updates k→v with DefaultTTL and marks it most recently used.
	Set(k K, v V)

	// SetWithTTL is Set with a per-key TTL. A non-positive ttl disables expiry.
	SetWithTTL(k K, v V, ttl time.Duration)

	// Get returns the value for k and marks it most recently used.
	Get(k K) (V, bool)

	// Peek returns the value for k without changing recency.
	Peek(k K) (V, bool)

	// Remove deletes k if present and returns true on success.
	Remove(k K) bool

	// Len returns the number of resident entries across all shards.
	Len() int

	// Stats returns hit/miss/eviction counters summed over shards.
	Stats() Stats

	// Close marks the cache closed: writes are ignored, reads miss.
	Close() error

	// GetOrLoad returns the value for k, loading it via Options.Loader on a
	// miss. Concurrent loads of one key are coalesced.
	// Returns ErrNoLoader if no Loader was configured.
	GetOrLoad(ctx context.Context, k K) (V, error)
}
