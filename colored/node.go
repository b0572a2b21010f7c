package colored

// Arena indices. Slots 0 and 1 are the global sentinels; every other slot is
// a placeholder, a live entry, or free.
const (
	nilIdx  int32 = -1
	headIdx int32 = 0 // oldest side of the recency list
	tailIdx int32 = 1 // newest side of the recency list
)

type kind uint8

const (
	kindFree kind = iota
	kindSentinel
	kindPlaceholder
	kindLive
)

// node is an arena slot carrying two intrusive link pairs:
// prev/next for the global recency list and prevBlock/nextBlock for the
// chain of its color bucket. Links are arena indices, nilIdx means none.
type node[K comparable, V any] struct {
	key K
	val V

	prev, next           int32
	prevBlock, nextBlock int32

	color int32
	kind  kind
}

// bucket is the chain of one color. Order front→back is
// live entries (MRU … LRU) followed by unconsumed placeholders, so the
// live entry adjacent to the placeholder anchor is the bucket's LRU.
type bucket struct {
	front int32
	back  int32
	lru   int32 // last live entry, nilIdx when the bucket holds none

	live  int
	spare int // placeholders still in the chain
}

func emptyNode[K comparable, V any](k kind, color int32) node[K, V] {
	return node[K, V]{
		prev:      nilIdx,
		next:      nilIdx,
		prevBlock: nilIdx,
		nextBlock: nilIdx,
		color:     color,
		kind:      k,
	}
}

// ---- global recency list ----

// linkBefore splices i in front of at.
func (c *Cache[K, V]) linkBefore(i, at int32) {
	p := c.nodes[at].prev
	n := &c.nodes[i]
	n.prev = p
	n.next = at
	c.nodes[p].next = i
	c.nodes[at].prev = i
}

func (c *Cache[K, V]) unlink(i int32) {
	n := &c.nodes[i]
	c.nodes[n.prev].next = n.next
	c.nodes[n.next].prev = n.prev
	n.prev, n.next = nilIdx, nilIdx
}

// ---- color chains ----

func (c *Cache[K, V]) appendBlock(b *bucket, i int32) {
	n := &c.nodes[i]
	n.prevBlock = b.back
	n.nextBlock = nilIdx
	if b.back != nilIdx {
		c.nodes[b.back].nextBlock = i
	} else {
		b.front = i
	}
	b.back = i
}

func (c *Cache[K, V]) pushBlockFront(b *bucket, i int32) {
	n := &c.nodes[i]
	n.prevBlock = nilIdx
	n.nextBlock = b.front
	if b.front != nilIdx {
		c.nodes[b.front].prevBlock = i
	} else {
		b.back = i
	}
	b.front = i
}

func (c *Cache[K, V]) unlinkBlock(b *bucket, i int32) {
	n := &c.nodes[i]
	if n.prevBlock != nilIdx {
		c.nodes[n.prevBlock].nextBlock = n.nextBlock
	} else {
		b.front = n.nextBlock
	}
	if n.nextBlock != nilIdx {
		c.nodes[n.nextBlock].prevBlock = n.prevBlock
	} else {
		b.back = n.prevBlock
	}
	n.prevBlock, n.nextBlock = nilIdx, nilIdx
}

// attachLive puts live entry i at the front of its bucket.
func (c *Cache[K, V]) attachLive(i int32) {
	col := c.nodes[i].color
	b := &c.buckets[col]
	c.pushBlockFront(b, i)
	if b.lru == nilIdx {
		b.lru = i
	}
	b.live++
	c.occupied.Set(uint(col))
}

// detachLive takes live entry i out of its bucket chain.
func (c *Cache[K, V]) detachLive(i int32) {
	col := c.nodes[i].color
	b := &c.buckets[col]
	if b.lru == i {
		// Live entries precede placeholders, so prevBlock is live or nil.
		b.lru = c.nodes[i].prevBlock
	}
	c.unlinkBlock(b, i)
	b.live--
	if b.live == 0 {
		c.occupied.Clear(uint(col))
	}
}

// ---- slots ----

// acquire returns a detached slot for a new entry of color col: the
// bucket's first placeholder while any remain, then recycled slots, then a
// fresh arena slot.
func (c *Cache[K, V]) acquire(col int) int32 {
	b := &c.buckets[col]
	if b.spare > 0 {
		i := b.front
		if b.lru != nilIdx {
			i = c.nodes[b.lru].nextBlock
		}
		c.unlinkBlock(b, i)
		c.unlink(i)
		b.spare--
		return i
	}
	if n := len(c.free); n > 0 {
		i := c.free[n-1]
		c.free = c.free[:n-1]
		return i
	}
	c.nodes = append(c.nodes, emptyNode[K, V](kindFree, -1))
	return int32(len(c.nodes) - 1)
}

// release unlinks live entry i from both structures and recycles its slot.
func (c *Cache[K, V]) release(i int32) {
	c.detachLive(i)
	c.unlink(i)
	delete(c.items, c.nodes[i].key)
	c.nodes[i] = emptyNode[K, V](kindFree, -1)
	c.free = append(c.free, i)
}
