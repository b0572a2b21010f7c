// Package cache provides a thread-safe, sharded front for the color-bucket
// LRU in package colored, with per-entry TTL, singleflight loading,
// metrics hooks and structured logging.
//
// # Design
//
//   - Concurrency: the cache is split into shards (1 by default), each a
//     colored.Cache behind a mutex. Shard selection hashes keys with FNV-1a;
//     colors use xxhash, so every shard sees all colors.
//
//   - Eviction: when a new key lands in a full shard, the shard's buckets are
//     scanned in index order and the first non-empty one gives up its least
//     recently used entry. This is not global LRU. With Shards == 1 the
//     order is exactly that of colored.Cache.
//
//   - TTL: entries can carry deadlines (UnixNano). Expiry is lazy on read.
//
//   - GetOrLoad coalesces concurrent loads for one key. Without a Loader it
//     returns ErrNoLoader.
//
//   - Observability: Options.Metrics receives Hit/Miss/Evict/Size signals
//     (NoopMetrics by default; see metrics/prom). Options.Logger receives an
//     Info record on construction and close, and Debug records per eviction.
//
//   - Callbacks: Options.OnEvict(k, v, reason) runs for every eviction
//     (EvictCapacity or EvictTTL), never for Remove.
//
// # Basic usage
//
//	c, err := cache.New[string, []byte](cache.Options[string, []byte]{
//	    Capacity: 10_000,
//	    Colors:   16,
//	})
//	if err != nil {
//	    return err
//	}
//	c.Set("a", []byte("1"))
//	if v, ok := c.Get("a"); ok {
//	    _ = v
//	}
//
// # With GetOrLoad
//
//	c, _ := cache.New[string, string](cache.Options[string, string]{
//	    Capacity: 1024,
//	    Loader: func(ctx context.Context, k string) (string, error) {
//	        return "v:" + k, nil
//	    },
//	})
//	v, err := c.GetOrLoad(ctx, "key")
package cache
