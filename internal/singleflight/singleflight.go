// Package singleflight coalesces concurrent calls that share a key.
package singleflight

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// Group runs fn at most once per key at a time; callers arriving while a
// call is in flight wait for its result.
//
// Cancelling a follower's ctx releases only that follower. The leader's fn
// keeps running; thread ctx into fn if the work itself must stop.
type Group[K comparable, V any] struct {
	mu sync.Mutex
	m  map[K]*call[V]
}

type call[V any] struct {
	done chan struct{} // closed after val/err are set
	val  V
	err  error
}

// ErrPanicked is wrapped into the error followers receive when the leader's
// fn panicked. The leader re-panics with the original value.
var ErrPanicked = errors.New("singleflight: function panicked")

// Do runs fn once for key and shares (V, error) with concurrent callers.
func (g *Group[K, V]) Do(ctx context.Context, key K, fn func() (V, error)) (V, error) {
	g.mu.Lock()
	if g.m == nil {
		g.m = make(map[K]*call[V])
	}
	if c, ok := g.m[key]; ok {
		g.mu.Unlock()
		select {
		case <-c.done:
			return c.val, c.err
		case <-ctx.Done():
			var zero V
			return zero, ctx.Err()
		}
	}

	c := &call[V]{done: make(chan struct{})}
	g.m[key] = c
	g.mu.Unlock()

	g.run(key, c, fn)
	return c.val, c.err
}

// run executes fn as leader and always publishes, even if fn panics.
func (g *Group[K, V]) run(key K, c *call[V], fn func() (V, error)) {
	normal := false
	defer func() {
		if !normal {
			c.err = fmt.Errorf("%w: key %v", ErrPanicked, key)
		}
		close(c.done)

		g.mu.Lock()
		delete(g.m, key)
		g.mu.Unlock()
	}()

	c.val, c.err = fn()
	normal = true
}
