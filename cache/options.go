package cache

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

// ErrInvalidOptions is returned by New when Options cannot describe a cache.
var ErrInvalidOptions = errors.New("cache: invalid options")

// EvictReason explains why an entry was removed.
type EvictReason int

const (
	// EvictCapacity: chosen by the color-bucket scan of a full shard.
	EvictCapacity EvictReason = iota
	// EvictTTL: expired, removed lazily on access.
	EvictTTL
)

func (r EvictReason) String() string {
	switch r {
	case EvictTTL:
		return "ttl"
	default:
		return "capacity"
	}
}

// Metrics exposes cache-level observability hooks.
// NoopMetrics is used when none is configured.
type Metrics interface {
	Hit()
	Miss()
	// Evict reports one removal and the color bucket it came from.
	Evict(reason EvictReason, color int)
	// Size reports the number of resident entries across all shards.
	Size(entries int)
}

// Clock provides time in UnixNano; useful for deterministic tests.
type Clock interface{ NowUnixNano() int64 }

// Options configures the cache. Defaults are applied in New:
//   - Colors <= 0    => 1
//   - BlockSize <= 0 => 1
//   - Shards <= 0    => 1 (otherwise rounded up to a power of two, max 256)
//   - nil Metrics    => NoopMetrics
//   - nil Logger     => discard
type Options[K comparable, V any] struct {
	// Capacity is the total entry limit, split evenly (ceil) across shards. Required.
	Capacity int

	// Colors is the number of color buckets per shard. Eviction takes the
	// least recently used entry of the first non-empty bucket.
	Colors int

	// BlockSize is the number of placeholder slots pre-allocated per color.
	BlockSize int

	// Shards splits the cache into independently locked partitions. With a
	// single shard eviction order is exactly that of colored.Cache.
	Shards int

	// DefaultTTL applies to Add/Set (0 = no expiry).
	DefaultTTL time.Duration

	// Loader fetches a value on miss. Used by GetOrLoad.
	Loader func(ctx context.Context, k K) (V, error)

	// OnEvict runs under the shard lock for every eviction; keep it short
	// and do not call back into the cache.
	OnEvict func(k K, v V, reason EvictReason)
	Metrics Metrics
	Logger  *slog.Logger

	// Clock overrides the time source (tests). Nil => time.Now().
	Clock Clock
}
