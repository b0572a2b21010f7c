package cache

import (
	"math/rand"
	"strconv"
	"sync/atomic"
	"testing"
)

// benchmarkMix runs a parallel read/write mix against a half-full cache.
func benchmarkMix(b *testing.B, shards, colors, readsPct int) {
	c, err := New(Options[int, int]{
		Capacity: 100_000,
		Shards:   shards,
		Colors:   colors,
	})
	if err != nil {
		b.Fatal(err)
	}
	b.Cleanup(func() { _ = c.Close() })

	for i := 0; i < 50_000; i++ {
		c.Set(i, 1)
	}

	b.ReportAllocs()
	b.ResetTimer()

	var seed int64 = 1
	keyMask := (1 << 17) - 1

	b.RunParallel(func(pb *testing.PB) {
		r := rand.New(rand.NewSource(atomic.AddInt64(&seed, 1)))
		i := 0
		for pb.Next() {
			k := i & keyMask
			if r.Intn(100) < readsPct {
				c.Get(k)
			} else {
				c.Set(k, 1)
			}
			i++
		}
	})
}

func BenchmarkCache_1Shard_90r10w(b *testing.B)   { benchmarkMix(b, 1, 16, 90) }
func BenchmarkCache_64Shards_90r10w(b *testing.B) { benchmarkMix(b, 64, 16, 90) }
func BenchmarkCache_64Shards_50r50w(b *testing.B) { benchmarkMix(b, 64, 16, 50) }

// String keys include strconv/concat costs.
func BenchmarkCache_StringKeys_90r10w(b *testing.B) {
	c, err := New(Options[string, string]{Capacity: 100_000, Shards: 64, Colors: 16})
	if err != nil {
		b.Fatal(err)
	}
	b.Cleanup(func() { _ = c.Close() })

	b.ReportAllocs()
	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		i := 0
		for pb.Next() {
			k := "k:" + strconv.Itoa(i&0xffff)
			if i%10 == 0 {
				c.Set(k, "v")
			} else {
				c.Get(k)
			}
			i++
		}
	})
}
