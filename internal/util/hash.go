// Package util contains internal helpers (hashing, sharding, padding).
//
//revive:disable:var-naming  // allow 'util' as an internal helpers package name
package util

import (
	"encoding/binary"
	"fmt"
	"hash/maphash"

	"github.com/cespare/xxhash/v2"
)

// Fnv64a hashes k using 64-bit FNV-1a. It selects shards.
// Strings, [16|32|64]byte, all int/uint widths, uintptr and fmt.Stringer get a
// fixed hash. Any other comparable key falls back to maphash.Comparable, which
// is stable only for a given seed.
func Fnv64a[K comparable](seed maphash.Seed, k K) uint64 {
	if u, ok := intBits(k); ok {
		return fnv64aFromUint64(u)
	}
	switch v := any(k).(type) {
	case string:
		return fnv64aFromString(v)
	case [16]byte:
		return fnv64aFromBytes(v[:])
	case [32]byte:
		return fnv64aFromBytes(v[:])
	case [64]byte:
		return fnv64aFromBytes(v[:])
	case fmt.Stringer:
		return fnv64aFromString(v.String())
	default:
		return maphash.Comparable(seed, k)
	}
}

// XXHash64 hashes k with xxhash64. It selects color buckets, so it is kept
// independent from Fnv64a: keys of one shard still spread over all colors.
// Key types are handled as in Fnv64a, including the maphash fallback.
func XXHash64[K comparable](seed maphash.Seed, k K) uint64 {
	if u, ok := intBits(k); ok {
		var b [8]byte
		binary.LittleEndian.PutUint64(b[:], u)
		return xxhash.Sum64(b[:])
	}
	switch v := any(k).(type) {
	case string:
		return xxhash.Sum64String(v)
	case [16]byte:
		return xxhash.Sum64(v[:])
	case [32]byte:
		return xxhash.Sum64(v[:])
	case [64]byte:
		return xxhash.Sum64(v[:])
	case fmt.Stringer:
		return xxhash.Sum64String(v.String())
	default:
		return maphash.Comparable(seed, k)
	}
}

// intBits widens integer-like keys to their two's-complement uint64 bits.
func intBits[K comparable](k K) (uint64, bool) {
	switch v := any(k).(type) {
	case uint8:
		return uint64(v), true
	case uint16:
		return uint64(v), true
	case uint32:
		return uint64(v), true
	case uint64:
		return v, true
	case uint:
		return uint64(v), true
	case uintptr:
		return uint64(v), true
	case int8:
		return uint64(uint8(v)), true
	case int16:
		return uint64(uint16(v)), true
	case int32:
		return uint64(uint32(v)), true
	case int64:
		return uint64(v), true
	case int:
		return uint64(v), true
	}
	return 0, false
}

const (
	fnvOffset64 = 1469598103934665603
	fnvPrime64  = 1099511628211
)

func fnv64aFromBytes(b []byte) uint64 {
	h := uint64(fnvOffset64)
	for _, c := range b {
		h ^= uint64(c)
		h *= fnvPrime64
	}
	return h
}

func fnv64aFromString(s string) uint64 {
	h := uint64(fnvOffset64)
	for i := 0; i < len(s); i++ {
		h ^= uint64(s[i])
		h *= fnvPrime64
	}
	return h
}

func fnv64aFromUint64(u uint64) uint64 {
	// 8 little-endian bytes, no allocation.
	h := uint64(fnvOffset64)
	for i := 0; i < 8; i++ {
		h ^= uint64(byte(u))
		h *= fnvPrime64
		u >>= 8
	}
	return h
}

// Bucket reduces a 64-bit hash into [0, n). Unsigned arithmetic keeps the
// result in range for every hash value. n must be > 0.
func Bucket(hash uint64, n int) int {
	return int(hash % uint64(n))
}
