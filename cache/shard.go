package cache

import (
	"context"
	"log/slog"
	"sync"

	"github.com/IvanBrykalov/colorcache/colored"
	"github.com/IvanBrykalov/colorcache/internal/util"
)

// entry is what a shard stores per key: the value plus its deadline.
type entry[V any] struct {
	val V
	exp int64 // UnixNano, 0 = no TTL
}

// shard is an independently locked colored.Cache.
type shard[K comparable, V any] struct {
	// ---- guarded by mu ----
	mu  sync.Mutex
	lru *colored.Cache[K, entry[V]]

	c *cache[K, V]

	// ---- hot counters (separate cache lines to avoid false sharing) ----
	_      util.CacheLinePad
	hits   util.PaddedAtomicUint64
	misses util.PaddedAtomicUint64
	evicts util.PaddedAtomicUint64
}

func newShard[K comparable, V any](c *cache[K, V], capacity int) (*shard[K, V], error) {
	s := &shard[K, V]{c: c}
	lru, err := colored.NewWithEvict[K, entry[V]](capacity, c.opt.Colors, c.opt.BlockSize, s.onCapacityEvict)
	if err != nil {
		return nil, err
	}
	s.lru = lru
	return s, nil
}

// Add inserts k only if it is absent or expired.
func (s *shard[K, V]) Add(k K, v V, exp int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e, ok := s.lru.Peek(k); ok {
		if !s.expired(e) {
			return false
		}
		s.expireLocked(k, e)
	}
	s.putLocked(k, entry[V]{val: v, exp: exp})
	return true
}

// Set inserts or updates k and marks it most recently used.
func (s *shard[K, V]) Set(k K, v V, exp int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.putLocked(k, entry[V]{val: v, exp: exp})
}

// Get returns the value and marks it most recently used.
// An expired entry is removed and reported as a miss.
func (s *shard[K, V]) Get(k K) (V, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.lru.Get(k)
	if ok && s.expired(e) {
		s.expireLocked(k, e)
		ok = false
	}
	return s.result(e, ok)
}

// Peek is Get without the recency bump.
func (s *shard[K, V]) Peek(k K) (V, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.lru.Peek(k)
	if ok && s.expired(e) {
		s.expireLocked(k, e)
		ok = false
	}
	return s.result(e, ok)
}

// lookup is Peek without hit/miss accounting.
func (s *shard[K, V]) lookup(k K) (V, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.lru.Peek(k)
	if ok && s.expired(e) {
		s.expireLocked(k, e)
		ok = false
	}
	if !ok {
		var zero V
		return zero, false
	}
	return e.val, true
}

// Remove deletes k. Explicit removal is not counted as an eviction.
func (s *shard[K, V]) Remove(k K) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.lru.Remove(k) {
		return false
	}
	s.resize(-1)
	return true
}

func (s *shard[K, V]) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lru.Len()
}

// -------------------- internals (mu held) --------------------

func (s *shard[K, V]) result(e entry[V], ok bool) (V, bool) {
	if !ok {
		s.misses.Add(1)
		s.c.opt.Metrics.Miss()
		var zero V
		return zero, false
	}
	s.hits.Add(1)
	s.c.opt.Metrics.Hit()
	return e.val, true
}

func (s *shard[K, V]) putLocked(k K, e entry[V]) {
	fresh := !s.lru.Contains(k)
	// A capacity eviction inside Put reports itself via onCapacityEvict.
	s.lru.Put(k, e)
	if fresh {
		s.resize(1)
	}
}

func (s *shard[K, V]) expired(e entry[V]) bool {
	return e.exp != 0 && s.c.now() > e.exp
}

func (s *shard[K, V]) expireLocked(k K, e entry[V]) {
	s.lru.Remove(k)
	s.resize(-1)
	s.evicted(k, e.val, EvictTTL)
}

// onCapacityEvict is the colored.Cache eviction callback; it runs inside
// Put, under mu.
func (s *shard[K, V]) onCapacityEvict(k K, e entry[V]) {
	s.resize(-1)
	s.evicted(k, e.val, EvictCapacity)
}

func (s *shard[K, V]) evicted(k K, v V, reason EvictReason) {
	color := s.lru.Color(k)
	s.evicts.Add(1)
	s.c.opt.Metrics.Evict(reason, color)
	if log := s.c.log; log.Enabled(context.Background(), slog.LevelDebug) {
		log.Debug("evicted", "key", k, "color", color, "reason", reason.String())
	}
	if cb := s.c.opt.OnEvict; cb != nil {
		cb(k, v, reason)
	}
}

func (s *shard[K, V]) resize(delta int64) {
	s.c.opt.Metrics.Size(int(s.c.size.Add(delta)))
}
