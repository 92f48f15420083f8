// Package reactive provides observable value cells and derived cells.
//
// A Cell holds one value and notifies its subscribers, in subscription order, after each
// write completes. Derive builds a read-only Computed cell from other cells; it is
// recomputed only when one of its inputs has changed since the last computation.
//
// Reads may happen from any goroutine. Writes to a given cell must be serialized by its
// owner; a write issued while the same cell is notifying, or while a derived cell is
// recomputing from it in response to a write, is rejected with ErrCycle. Readers never
// cause a write to be rejected.
package reactive

import (
	"errors"
	"slices"
	"sync"
	"sync/atomic"
)

var ErrCycle = errors.New("reactive: cyclic write")

// Readable is the read side shared by Cell and Computed.
type Readable[T any] interface {
	Get() T
	Subscribe(fn func(T)) (unsubscribe func())
}

// Source is anything a derived cell can depend on.
type Source interface {
	version() uint64
	watch(fn func()) (unwatch func())
	freeze()
	thaw()
}

type subscription struct {
	id uint64
	fn func()
}

type subscribers struct {
	mu     sync.Mutex
	nextID uint64
	list   []subscription
}

func (s *subscribers) add(fn func()) func() {
	s.mu.Lock()
	s.nextID++
	id := s.nextID
	s.list = append(s.list, subscription{id: id, fn: fn})
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			s.list = slices.DeleteFunc(s.list, func(sub subscription) bool { return sub.id == id })
		})
	}
}

func (s *subscribers) snapshot() []subscription {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.list)
}

type Cell[T any] struct {
	mu        sync.RWMutex
	value     T
	ver       uint64
	subs      subscribers
	notifying atomic.Bool
	frozen    atomic.Int32
}

func New[T any](initial T) *Cell[T] {
	return &Cell[T]{value: initial}
}

func (c *Cell[T]) Get() T {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.value
}

func (c *Cell[T]) Set(v T) error {
	if c.notifying.Load() || c.frozen.Load() > 0 {
		return ErrCycle
	}

	c.mu.Lock()
	c.value = v
	c.ver++
	c.mu.Unlock()

	c.notifying.Store(true)
	defer c.notifying.Store(false)
	for _, sub := range c.subs.snapshot() {
		sub.fn()
	}
	return nil
}

func (c *Cell[T]) Update(fn func(T) T) error {
	return c.Set(fn(c.Get()))
}

func (c *Cell[T]) Subscribe(fn func(T)) func() {
	return c.subs.add(func() { fn(c.Get()) })
}

func (c *Cell[T]) version() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.ver
}

func (c *Cell[T]) watch(fn func()) func() {
	return c.subs.add(fn)
}

func (c *Cell[T]) freeze() { c.frozen.Add(1) }
func (c *Cell[T]) thaw()   { c.frozen.Add(-1) }
