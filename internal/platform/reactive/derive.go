package reactive

import (
	"slices"
	"sync"
)

// Computed is a read-only cell derived from other cells.
type Computed[T any] struct {
	mu       sync.Mutex
	fn       func() T
	deps     []Source
	unwatch  []func()
	value    T
	seen     []uint64
	computed bool
	ver      uint64
	subs     subscribers
}

// Derive returns a cell whose value is fn(), recomputed when any of deps changes.
// fn must only read the cells listed in deps. A write from fn is rejected when the
// recomputation was triggered by a write to one of deps; a lazy recomputation from Get
// runs unguarded so readers never block writers.
func Derive[T any](fn func() T, deps ...Source) *Computed[T] {
	c := &Computed[T]{fn: fn, deps: deps}
	for _, dep := range deps {
		c.unwatch = append(c.unwatch, dep.watch(c.onChange))
	}
	return c
}

func (c *Computed[T]) Get() T {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.refreshLocked(false)
	return c.value
}

func (c *Computed[T]) Subscribe(fn func(T)) func() {
	return c.subs.add(func() { fn(c.Get()) })
}

// Close detaches c from its inputs. It keeps its last value.
func (c *Computed[T]) Close() {
	for _, unwatch := range c.unwatch {
		unwatch()
	}
	c.unwatch = nil
}

// refreshLocked recomputes when an input moved. guard freezes the inputs for the duration,
// which is only done on the notify path of a write.
func (c *Computed[T]) refreshLocked(guard bool) bool {
	current := make([]uint64, len(c.deps))
	for i, dep := range c.deps {
		current[i] = dep.version()
	}
	if c.computed && slices.Equal(current, c.seen) {
		return false
	}

	if guard {
		for _, dep := range c.deps {
			dep.freeze()
		}
	}
	value := c.fn()
	if guard {
		for _, dep := range c.deps {
			dep.thaw()
		}
	}

	c.value = value
	c.seen = current
	c.computed = true
	c.ver++
	return true
}

func (c *Computed[T]) onChange() {
	c.mu.Lock()
	changed := c.refreshLocked(true)
	c.mu.Unlock()
	if !changed {
		return
	}
	for _, sub := range c.subs.snapshot() {
		sub.fn()
	}
}

func (c *Computed[T]) version() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.refreshLocked(false)
	return c.ver
}

func (c *Computed[T]) watch(fn func()) func() {
	return c.subs.add(fn)
}

// freeze propagates to the inputs so a write reached through a chain of derived cells
// is rejected as well.
func (c *Computed[T]) freeze() {
	for _, dep := range c.deps {
		dep.freeze()
	}
}

func (c *Computed[T]) thaw() {
	for _, dep := range c.deps {
		dep.thaw()
	}
}
