// Package memory is an in-process persistence backend, used by default and in tests.
package memory

import (
	"context"
	"sync"

	"example.com/storefront/internal/infra/persistence"
)

type Backend struct {
	mu     sync.RWMutex
	values map[string][]byte
}

func NewBackend() *Backend {
	return &Backend{values: make(map[string][]byte)}
}

func (b *Backend) Load(_ context.Context, key string) ([]byte, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	v, ok := b.values[key]
	if !ok {
		return nil, persistence.ErrNotFound
	}
	return append([]byte(nil), v...), nil
}

func (b *Backend) Save(_ context.Context, key string, value []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.values[key] = append([]byte(nil), value...)
	return nil
}

func (b *Backend) Delete(_ context.Context, key string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.values, key)
	return nil
}

// Keys lists stored keys; tests use it to assert what a session persisted.
func (b *Backend) Keys() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	keys := make([]string, 0, len(b.values))
	for k := range b.values {
		keys = append(keys, k)
	}
	return keys
}
