package cachegate

import (
	"context"
	"sync"
)

// Keyed holds one Resource per key, for single-entity lookups such as an order by id.
type Keyed[K comparable, T any] struct {
	mu        sync.Mutex
	resources map[K]*Resource[T]
}

func NewKeyed[K comparable, T any]() *Keyed[K, T] {
	return &Keyed[K, T]{resources: make(map[K]*Resource[T])}
}

func (k *Keyed[K, T]) resource(key K) *Resource[T] {
	k.mu.Lock()
	defer k.mu.Unlock()
	r, ok := k.resources[key]
	if !ok {
		r = &Resource[T]{}
		k.resources[key] = r
	}
	return r
}

func (k *Keyed[K, T]) Read(ctx context.Context, key K, fetch func(ctx context.Context, key K) (T, error)) (T, error) {
	return k.resource(key).Read(ctx, func(ctx context.Context) (T, error) {
		return fetch(ctx, key)
	})
}

func (k *Keyed[K, T]) Store(key K, v T) {
	k.resource(key).Store(v)
}

func (k *Keyed[K, T]) Invalidate(key K) {
	k.mu.Lock()
	r, ok := k.resources[key]
	k.mu.Unlock()
	if ok {
		r.Invalidate()
	}
}

// Purge drops every cached entry, e.g. on logout.
func (k *Keyed[K, T]) Purge() {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.resources = make(map[K]*Resource[T])
}
