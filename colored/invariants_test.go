package colored

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

// verify walks both link structures and reports the first broken invariant.
func (c *Cache[K, V]) verify() error {
	if len(c.items) > c.capacity {
		return fmt.Errorf("len %d exceeds capacity %d", len(c.items), c.capacity)
	}

	// Global list: consistent back links, each slot once, only live and
	// placeholder slots between the sentinels.
	seen := make(map[int32]bool, len(c.nodes))
	live, placeholders := 0, 0
	prev := headIdx
	for i := c.nodes[headIdx].next; i != tailIdx; i = c.nodes[i].next {
		if i < 0 || int(i) >= len(c.nodes) {
			return fmt.Errorf("global list points outside the arena: %d", i)
		}
		if seen[i] {
			return fmt.Errorf("slot %d reached twice in global list", i)
		}
		seen[i] = true
		if c.nodes[i].prev != prev {
			return fmt.Errorf("slot %d prev=%d, want %d", i, c.nodes[i].prev, prev)
		}
		switch c.nodes[i].kind {
		case kindLive:
			live++
			k := c.nodes[i].key
			if idx, ok := c.items[k]; !ok || idx != i {
				return fmt.Errorf("live slot %d (key %v) not indexed by the map", i, k)
			}
			if int(c.nodes[i].color) != c.Color(k) {
				return fmt.Errorf("key %v stored in bucket %d, color is %d", k, c.nodes[i].color, c.Color(k))
			}
		case kindPlaceholder:
			placeholders++
		default:
			return fmt.Errorf("slot %d of kind %d in global list", i, c.nodes[i].kind)
		}
		prev = i
	}
	if c.nodes[tailIdx].prev != prev {
		return fmt.Errorf("tail prev=%d, want %d", c.nodes[tailIdx].prev, prev)
	}
	if live != len(c.items) {
		return fmt.Errorf("global list holds %d live entries, map holds %d", live, len(c.items))
	}

	// Buckets: live entries first, then placeholders; counters, lru and the
	// occupied bit agree with the chain.
	spare := 0
	for col := range c.buckets {
		b := &c.buckets[col]
		bl, bp := 0, 0
		lastLive := nilIdx
		prev := nilIdx
		for i := b.front; i != nilIdx; i = c.nodes[i].nextBlock {
			if !seen[i] {
				return fmt.Errorf("bucket %d slot %d missing from global list", col, i)
			}
			if c.nodes[i].prevBlock != prev {
				return fmt.Errorf("bucket %d slot %d prevBlock=%d, want %d", col, i, c.nodes[i].prevBlock, prev)
			}
			if int(c.nodes[i].color) != col {
				return fmt.Errorf("bucket %d chains slot %d of color %d", col, i, c.nodes[i].color)
			}
			switch c.nodes[i].kind {
			case kindLive:
				if bp > 0 {
					return fmt.Errorf("bucket %d has live slot %d behind a placeholder", col, i)
				}
				bl++
				lastLive = i
			case kindPlaceholder:
				bp++
			}
			if bl+bp > len(c.nodes) {
				return fmt.Errorf("bucket %d chain cycles", col)
			}
			prev = i
		}
		if b.back != prev {
			return fmt.Errorf("bucket %d back=%d, want %d", col, b.back, prev)
		}
		if bl != b.live || bp != b.spare {
			return fmt.Errorf("bucket %d counts live=%d spare=%d, chain has %d/%d", col, b.live, b.spare, bl, bp)
		}
		if b.lru != lastLive {
			return fmt.Errorf("bucket %d lru=%d, want %d", col, b.lru, lastLive)
		}
		if c.occupied.Test(uint(col)) != (bl > 0) {
			return fmt.Errorf("bucket %d occupied bit disagrees with %d live entries", col, bl)
		}
		spare += bp
	}
	if spare != placeholders {
		return fmt.Errorf("buckets hold %d placeholders, global list %d", spare, placeholders)
	}

	for _, i := range c.free {
		if c.nodes[i].kind != kindFree || seen[i] {
			return fmt.Errorf("free slot %d is still linked", i)
		}
	}
	if want := 2 + live + placeholders + len(c.free); want != len(c.nodes) {
		return fmt.Errorf("arena has %d slots, accounted for %d", len(c.nodes), want)
	}
	return nil
}

func mustVerify[K comparable, V any](t testing.TB, c *Cache[K, V]) {
	t.Helper()
	require.NoError(t, c.verify(), "invariant broken")
}

// keysOfColor returns n distinct string keys that hash into bucket col.
func keysOfColor[V any](c *Cache[string, V], col, n int) []string {
	out := make([]string, 0, n)
	for i := 0; len(out) < n; i++ {
		k := fmt.Sprintf("c%d-%d", col, i)
		if c.Color(k) == col {
			out = append(out, k)
		}
	}
	return out
}
