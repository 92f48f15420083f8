// Package redis stores persisted session state in Redis.
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"example.com/storefront/internal/infra/persistence"
)

type Backend struct {
	client *goredis.Client
	prefix string
	ttl    time.Duration
}

// NewBackend namespaces every key under prefix. A zero ttl keeps keys forever.
func NewBackend(client *goredis.Client, prefix string, ttl time.Duration) *Backend {
	return &Backend{client: client, prefix: prefix, ttl: ttl}
}

func (b *Backend) key(k string) string {
	return b.prefix + k
}

func (b *Backend) Load(ctx context.Context, key string) ([]byte, error) {
	v, err := b.client.Get(ctx, b.key(key)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, persistence.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis get %s: %w", key, err)
	}
	return v, nil
}

func (b *Backend) Save(ctx context.Context, key string, value []byte) error {
	if err := b.client.Set(ctx, b.key(key), value, b.ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

func (b *Backend) Delete(ctx context.Context, key string) error {
	if err := b.client.Del(ctx, b.key(key)).Err(); err != nil {
		return fmt.Errorf("redis del %s: %w", key, err)
	}
	return nil
}
