package colored

import (
	"math/rand"
	"testing"
)

func benchmarkMix(b *testing.B, colors, readsPct int) {
	c, err := New[int, int](100_000, colors, 4)
	if err != nil {
		b.Fatal(err)
	}
	for i := 0; i < 50_000; i++ {
		c.Put(i, i)
	}

	r := rand.New(rand.NewSource(1))
	const keyMask = (1 << 17) - 1

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		k := r.Int() & keyMask
		if r.Intn(100) < readsPct {
			c.Get(k)
		} else {
			c.Put(k, i)
		}
	}
}

func BenchmarkColored_1Color_90r10w(b *testing.B)   { benchmarkMix(b, 1, 90) }
func BenchmarkColored_16Colors_90r10w(b *testing.B) { benchmarkMix(b, 16, 90) }
func BenchmarkColored_16Colors_50r50w(b *testing.B) { benchmarkMix(b, 16, 50) }
func BenchmarkColored_1024Colors_50r50w(b *testing.B) {
	benchmarkMix(b, 1024, 50)
}
