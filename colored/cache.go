package colored

import (
	"fmt"
	"hash/maphash"
	"math"

	"github.com/bits-and-blooms/bitset"

	"github.com/IvanBrykalov/colorcache/internal/util"
)

// Cache is a fixed-capacity key/value cache with color-partitioned eviction.
//
// This type is not safe for concurrent use. The zero value is not valid;
// create instances with New or NewWithEvict.
type Cache[K comparable, V any] struct {
	capacity  int
	blockSize int
	reserved  int // sentinels + constructed placeholders

	nodes   []node[K, V]
	free    []int32
	items   map[K]int32
	buckets []bucket

	// occupied has bit i set iff bucket i holds a live entry.
	occupied *bitset.BitSet

	// seed hashes key types xxhash has no encoding for.
	seed maphash.Seed

	onEvict func(K, V)
}

// New builds a cache holding at most capacity entries, partitioned into
// numColors buckets with blockSize placeholder slots each.
// All three parameters must be > 0.
func New[K comparable, V any](capacity, numColors, blockSize int) (*Cache[K, V], error) {
	return NewWithEvict[K, V](capacity, numColors, blockSize, nil)
}

// NewWithEvict is New with a callback invoked after every capacity eviction.
// The callback must not call back into the cache.
func NewWithEvict[K comparable, V any](capacity, numColors, blockSize int, onEvict func(K, V)) (*Cache[K, V], error) {
	switch {
	case capacity <= 0:
		return nil, fmt.Errorf("%w: capacity must be > 0, got %d", ErrInvalidArgument, capacity)
	case numColors <= 0:
		return nil, fmt.Errorf("%w: numColors must be > 0, got %d", ErrInvalidArgument, numColors)
	case blockSize <= 0:
		return nil, fmt.Errorf("%w: blockSize must be > 0, got %d", ErrInvalidArgument, blockSize)
	}
	slots := 2 + int64(numColors)*int64(blockSize) + int64(capacity)
	if slots > math.MaxInt32 {
		return nil, fmt.Errorf("%w: %d colors x %d placeholders + capacity %d exceed the arena limit",
			ErrInvalidArgument, numColors, blockSize, capacity)
	}

	reserved := 2 + numColors*blockSize
	c := &Cache[K, V]{
		capacity:  capacity,
		blockSize: blockSize,
		reserved:  reserved,
		nodes:     make([]node[K, V], reserved, reserved+capacity),
		items:     make(map[K]int32, capacity),
		buckets:   make([]bucket, numColors),
		occupied:  bitset.New(uint(numColors)),
		onEvict:   onEvict,
		seed:      maphash.MakeSeed(),
	}
	c.layout()
	return c, nil
}

// layout links the sentinels and splices every bucket's placeholders into
// the global list, bucket 0 first.
func (c *Cache[K, V]) layout() {
	c.nodes[headIdx] = emptyNode[K, V](kindSentinel, -1)
	c.nodes[tailIdx] = emptyNode[K, V](kindSentinel, -1)
	c.nodes[headIdx].next = tailIdx
	c.nodes[tailIdx].prev = headIdx

	i := int32(2)
	for col := range c.buckets {
		b := &c.buckets[col]
		*b = bucket{front: nilIdx, back: nilIdx, lru: nilIdx, spare: c.blockSize}
		for j := 0; j < c.blockSize; j++ {
			c.nodes[i] = emptyNode[K, V](kindPlaceholder, int32(col))
			c.linkBefore(i, tailIdx)
			c.appendBlock(b, i)
			i++
		}
	}
}

// Color returns the bucket index of k: xxhash(k) mod numColors.
// Strings, integers, byte arrays and fmt.Stringer keys hash the same in every
// cache; any other comparable key is hashed by maphash with a seed drawn at
// construction. Either way Color is a pure function of k for the lifetime of
// the cache.
func (c *Cache[K, V]) Color(k K) int {
	return util.Bucket(util.XXHash64(c.seed, k), len(c.buckets))
}

// Get returns the value for k and marks it most recently used, both
// globally and within its bucket. A miss leaves the cache untouched.
func (c *Cache[K, V]) Get(k K) (V, bool) {
	i, ok := c.items[k]
	if !ok {
		var zero V
		return zero, false
	}
	c.touch(i)
	return c.nodes[i].val, true
}

// Peek returns the value for k without changing recency.
func (c *Cache[K, V]) Peek(k K) (V, bool) {
	i, ok := c.items[k]
	if !ok {
		var zero V
		return zero, false
	}
	return c.nodes[i].val, true
}

// Contains reports whether k is resident, without changing recency.
func (c *Cache[K, V]) Contains(k K) bool {
	_, ok := c.items[k]
	return ok
}

// Put inserts or updates k. Updating marks k most recently used. Inserting
// a new key into a full cache first evicts one entry (see evict) and
// reports it through the return value.
func (c *Cache[K, V]) Put(k K, v V) (evicted bool) {
	if i, ok := c.items[k]; ok {
		c.nodes[i].val = v
		c.touch(i)
		return false
	}

	if len(c.items) == c.capacity {
		c.evict()
		evicted = true
	}

	col := c.Color(k)
	i := c.acquire(col)
	n := &c.nodes[i]
	n.key, n.val = k, v
	n.color = int32(col)
	n.kind = kindLive
	c.linkBefore(i, tailIdx)
	c.attachLive(i)
	c.items[k] = i
	return evicted
}

// Remove deletes k. The eviction callback is not invoked.
func (c *Cache[K, V]) Remove(k K) bool {
	i, ok := c.items[k]
	if !ok {
		return false
	}
	c.release(i)
	return true
}

// Len returns the number of resident entries.
func (c *Cache[K, V]) Len() int { return len(c.items) }

// Cap returns the capacity given at construction.
func (c *Cache[K, V]) Cap() int { return c.capacity }

// Colors returns the number of color buckets.
func (c *Cache[K, V]) Colors() int { return len(c.buckets) }

// ColorLen returns the number of resident entries in bucket color.
func (c *Cache[K, V]) ColorLen(color int) int {
	if color < 0 || color >= len(c.buckets) {
		return 0
	}
	return c.buckets[color].live
}

// Placeholders returns how many constructed placeholder slots have not yet
// been taken over by real entries.
func (c *Cache[K, V]) Placeholders() int {
	n := 0
	for i := range c.buckets {
		n += c.buckets[i].spare
	}
	return n
}

// Keys returns resident keys from least to most recently used along the
// global recency list.
func (c *Cache[K, V]) Keys() []K {
	keys := make([]K, 0, len(c.items))
	for i := c.nodes[headIdx].next; i != tailIdx; i = c.nodes[i].next {
		if c.nodes[i].kind == kindLive {
			keys = append(keys, c.nodes[i].key)
		}
	}
	return keys
}

// Purge drops every entry and restores the constructed layout.
// The eviction callback is not invoked.
func (c *Cache[K, V]) Purge() {
	clear(c.nodes[c.reserved:])
	c.nodes = c.nodes[:c.reserved]
	c.free = c.free[:0]
	clear(c.items)
	c.occupied.ClearAll()
	c.layout()
}

// touch moves live entry i next to the tail sentinel and to the front of
// its bucket.
func (c *Cache[K, V]) touch(i int32) {
	c.unlink(i)
	c.linkBefore(i, tailIdx)
	if c.buckets[c.nodes[i].color].front != i {
		c.detachLive(i)
		c.attachLive(i)
	}
}

// evict removes exactly one entry: the least recently used live entry of
// the first bucket, in index order, that holds any. This is not global LRU;
// an older entry in a later bucket outlives a newer one in an earlier bucket.
func (c *Cache[K, V]) evict() {
	col, ok := c.occupied.NextSet(0)
	if !ok {
		panic(fmt.Errorf("%w: no bucket holds a live entry with %d resident", ErrCorrupted, len(c.items)))
	}
	i := c.buckets[col].lru
	if i == nilIdx || c.nodes[i].kind != kindLive {
		panic(fmt.Errorf("%w: bucket %d marked occupied without a live entry", ErrCorrupted, col))
	}
	k, v := c.nodes[i].key, c.nodes[i].val
	c.release(i)
	if c.onEvict != nil {
		c.onEvict(k, v)
	}
}
