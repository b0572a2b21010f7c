// Package colored implements a fixed-capacity key/value cache whose eviction
// victim is chosen through hash-partitioned "color" buckets.
//
// # Structure
//
// Every entry lives in an arena slot and is linked into two intrusive lists:
//
//   - the global recency list, oldest next to the head sentinel and newest
//     next to the tail sentinel;
//   - the chain of its color bucket, Color(k) = xxhash(k) mod numColors,
//     ordered most to least recently used.
//
// At construction each bucket receives blockSize placeholder slots. They are
// spliced into the global list and sit behind the bucket's live entries,
// carry no key, and are never returned or counted by Len. A new entry of a
// given color takes over one of that bucket's placeholders while any remain;
// after that slots come from the free list or from growing the arena.
//
// # Eviction
//
// When a new key is inserted into a full cache, buckets are scanned in index
// order and the first one holding a live entry gives up its least recently
// used entry. This bounds the size and keeps every operation O(1) apart from
// the bucket scan (a bitset lookup), but it is not global LRU: a recently
// used key in bucket 0 is evicted before an old key in bucket 1. Fairness
// across buckets depends on how evenly the hash spreads the key space.
//
// # Usage
//
//	c, err := colored.New[string, int](1024, 8, 4)
//	if err != nil {
//	    return err
//	}
//	c.Put("a", 1)
//	v, ok := c.Get("a") // 1, true; "a" is now most recently used
//
// Cache is not safe for concurrent use; package cache wraps it in sharded
// mutexes.
package colored
