package cache

import (
	"context"
	"errors"
	"fmt"
	"hash/maphash"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/IvanBrykalov/colorcache/internal/singleflight"
	"github.com/IvanBrykalov/colorcache/internal/util"
)

// ErrNoLoader is returned by GetOrLoad when Options.Loader is nil.
var ErrNoLoader = errors.New("cache: no Loader provided")

type cache[K comparable, V any] struct {
	shards []*shard[K, V]
	closed atomic.Bool
	size   atomic.Int64 // resident entries over all shards

	opt  Options[K, V]
	log  *slog.Logger
	seed maphash.Seed // shard routing for keys without a fixed hash

	sf singleflight.Group[K, V]
}

// New constructs a cache from opt; see Options for defaults.
// It fails with ErrInvalidOptions when Capacity <= 0.
func New[K comparable, V any](opt Options[K, V]) (Cache[K, V], error) {
	if opt.Capacity <= 0 {
		return nil, fmt.Errorf("%w: capacity must be > 0, got %d", ErrInvalidOptions, opt.Capacity)
	}
	if opt.Colors <= 0 {
		opt.Colors = 1
	}
	if opt.BlockSize <= 0 {
		opt.BlockSize = 1
	}
	opt.Shards = util.ClampShards(opt.Shards)
	if opt.Metrics == nil {
		opt.Metrics = NoopMetrics{}
	}
	if opt.Logger == nil {
		opt.Logger = slog.New(slog.DiscardHandler)
	}

	c := &cache[K, V]{opt: opt, log: opt.Logger, seed: maphash.MakeSeed()}
	perShard := util.SplitCapacity(opt.Capacity, opt.Shards)
	c.shards = make([]*shard[K, V], opt.Shards)
	for i := range c.shards {
		s, err := newShard(c, perShard)
		if err != nil {
			return nil, fmt.Errorf("%w: shard %d: %w", ErrInvalidOptions, i, err)
		}
		c.shards[i] = s
	}

	c.log.Info("cache created",
		"capacity", opt.Capacity,
		"shards", opt.Shards,
		"shard_capacity", perShard,
		"colors", opt.Colors,
		"block_size", opt.BlockSize,
		"default_ttl", opt.DefaultTTL)
	return c, nil
}

// Add inserts k→v only if absent, using DefaultTTL.
func (c *cache[K, V]) Add(k K, v V) bool {
	if c.closed.Load() {
		return false
	}
	return c.getShard(k).Add(k, v, c.defaultDeadline())
}

// Set inserts or updates k→v, using DefaultTTL.
func (c *cache[K, V]) Set(k K, v V) {
	if c.closed.Load() {
		return
	}
	c.getShard(k).Set(k, v, c.defaultDeadline())
}

// SetWithTTL inserts or updates k→v with a per-key TTL.
func (c *cache[K, V]) SetWithTTL(k K, v V, ttl time.Duration) {
	if c.closed.Load() {
		return
	}
	c.getShard(k).Set(k, v, c.deadline(ttl))
}

func (c *cache[K, V]) Get(k K) (V, bool) {
	if c.closed.Load() {
		var zero V
		return zero, false
	}
	return c.getShard(k).Get(k)
}

func (c *cache[K, V]) Peek(k K) (V, bool) {
	if c.closed.Load() {
		var zero V
		return zero, false
	}
	return c.getShard(k).Peek(k)
}

func (c *cache[K, V]) Remove(k K) bool {
	if c.closed.Load() {
		return false
	}
	return c.getShard(k).Remove(k)
}

func (c *cache[K, V]) Len() int {
	total := 0
	for _, s := range c.shards {
		total += s.Len()
	}
	return total
}

func (c *cache[K, V]) Stats() Stats {
	var st Stats
	for _, s := range c.shards {
		st.Hits += s.hits.Load()
		st.Misses += s.misses.Load()
		st.Evictions += s.evicts.Load()
	}
	st.Entries = c.Len()
	return st
}

// Close marks the cache as closed. Later operations are ignored.
func (c *cache[K, V]) Close() error {
	if c.closed.CompareAndSwap(false, true) {
		st := c.Stats()
		c.log.Info("cache closed",
			"entries", st.Entries,
			"hits", st.Hits,
			"misses", st.Misses,
			"evictions", st.Evictions)
	}
	return nil
}

// GetOrLoad returns the value for k; on miss it loads via Options.Loader,
// running at most one load per key at a time.
func (c *cache[K, V]) GetOrLoad(ctx context.Context, k K) (V, error) {
	if v, ok := c.Get(k); ok {
		return v, nil
	}
	if c.opt.Loader == nil {
		var zero V
		return zero, ErrNoLoader
	}

	return c.sf.Do(ctx, k, func() (V, error) {
		// A concurrent leader may have stored it already. The caller's Get
		// has counted the miss.
		if v, ok := c.getShard(k).lookup(k); ok {
			return v, nil
		}
		v, err := c.opt.Loader(ctx, k)
		if err != nil {
			c.log.Debug("load failed", "key", k, "err", err)
			return v, err
		}
		c.Set(k, v)
		return v, nil
	})
}

// ---- helpers ----

// getShard hashes k with FNV-1a; colors use xxhash so the two stay independent.
func (c *cache[K, V]) getShard(k K) *shard[K, V] {
	return c.shards[util.ShardIndex(util.Fnv64a(c.seed, k), len(c.shards))]
}

func (c *cache[K, V]) now() int64 {
	if c.opt.Clock != nil {
		return c.opt.Clock.NowUnixNano()
	}
	return time.Now().UnixNano()
}

func (c *cache[K, V]) defaultDeadline() int64 {
	return c.deadline(c.opt.DefaultTTL)
}

// deadline converts a relative TTL into an absolute UnixNano deadline.
// A non-positive ttl returns 0 (no expiry).
func (c *cache[K, V]) deadline(ttl time.Duration) int64 {
	if ttl <= 0 {
		return 0
	}
	return c.now() + int64(ttl)
}
