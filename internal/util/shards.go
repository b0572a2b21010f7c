package util

import "runtime"

// MaxShards bounds automatic and explicit shard counts.
const MaxShards = 256

// ReasonableShardCount picks a shard count from CPU parallelism:
// nextPow2(2*GOMAXPROCS), clamped to [1..MaxShards].
func ReasonableShardCount() int {
	p := runtime.GOMAXPROCS(0)
	if p < 1 {
		p = 1
	}
	return ClampShards(p * 2)
}

// ClampShards rounds n up to a power of two within [1..MaxShards].
func ClampShards(n int) int {
	if n < 1 {
		return 1
	}
	if n > MaxShards {
		return MaxShards
	}
	return int(NextPow2(uint64(n)))
}

// ShardIndex maps a 64-bit hash to a shard index.
// Power-of-two counts take the mask path; other counts fall back to modulo.
func ShardIndex(hash uint64, shards int) int {
	if shards <= 1 {
		return 0
	}
	if IsPowerOfTwo(uint64(shards)) {
		return int(hash & uint64(shards-1))
	}
	return Bucket(hash, shards)
}

// SplitCapacity divides total across shards, rounding up so the sum never
// falls below total.
func SplitCapacity(total, shards int) int {
	if shards <= 1 {
		return total
	}
	return (total + shards - 1) / shards
}
