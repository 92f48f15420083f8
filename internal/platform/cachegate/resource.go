// Package cachegate guards a network-backed value so repeated reads reuse the last
// fetched result until it is explicitly invalidated.
package cachegate

import (
	"context"
	"strconv"
	"sync"

	"golang.org/x/sync/singleflight"
)

type Freshness int

const (
	Stale Freshness = iota
	Fresh
)

func (f Freshness) String() string {
	if f == Fresh {
		return "fresh"
	}
	return "stale"
}

type Fetcher[T any] func(ctx context.Context) (T, error)

// Resource is a cached value plus its freshness. The zero value is an empty, stale resource.
type Resource[T any] struct {
	mu        sync.Mutex
	value     T
	present   bool
	freshness Freshness
	// generation is bumped by Invalidate so a fetch started before it cannot mark the
	// resource fresh again.
	generation uint64
	group      singleflight.Group
}

// Read returns the cached value when fresh; otherwise it calls fetch and stores the result.
// Concurrent reads of a stale resource share one fetch; a read issued after Invalidate
// never joins a fetch started before it.
func (r *Resource[T]) Read(ctx context.Context, fetch Fetcher[T]) (T, error) {
	r.mu.Lock()
	if r.present && r.freshness == Fresh {
		v := r.value
		r.mu.Unlock()
		return v, nil
	}
	gen := r.generation
	r.mu.Unlock()

	v, err, _ := r.group.Do(strconv.FormatUint(gen, 10), func() (any, error) {
		value, err := fetch(ctx)
		if err != nil {
			return value, err
		}
		r.mu.Lock()
		if r.generation == gen {
			r.value = value
			r.present = true
			r.freshness = Fresh
		}
		r.mu.Unlock()
		return value, nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	value, _ := v.(T)
	return value, nil
}

// Invalidate marks the resource stale without dropping the last value.
func (r *Resource[T]) Invalidate() {
	r.mu.Lock()
	r.freshness = Stale
	r.generation++
	r.mu.Unlock()
}

// Reset drops the value entirely.
func (r *Resource[T]) Reset() {
	r.mu.Lock()
	var zero T
	r.value = zero
	r.present = false
	r.freshness = Stale
	r.generation++
	r.mu.Unlock()
}

// Store replaces the value and marks it fresh, e.g. with a server response to a mutation.
func (r *Resource[T]) Store(v T) {
	r.mu.Lock()
	r.value = v
	r.present = true
	r.freshness = Fresh
	r.generation++
	r.mu.Unlock()
}

// Peek returns the last known value, fresh or not.
func (r *Resource[T]) Peek() (T, Freshness, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.value, r.freshness, r.present
}
