// Package postgres stores persisted session state in a PostgreSQL table.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"example.com/storefront/internal/infra/persistence"
)

type KVStore struct {
	pool *pgxpool.Pool
}

func NewKVStore(pool *pgxpool.Pool) *KVStore {
	return &KVStore{pool: pool}
}

func (r *KVStore) EnsureSchema(ctx context.Context) error {
	_, err := r.pool.Exec(ctx, `
        CREATE TABLE IF NOT EXISTS kv_store (
            k TEXT PRIMARY KEY,
            v BYTEA NOT NULL,
            updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
        )
    `)
	return err
}

func (r *KVStore) Load(ctx context.Context, key string) ([]byte, error) {
	var v []byte
	err := r.pool.QueryRow(ctx, `SELECT v FROM kv_store WHERE k = $1`, key).Scan(&v)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, persistence.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("postgres load %s: %w", key, err)
	}
	return v, nil
}

func (r *KVStore) Save(ctx context.Context, key string, value []byte) error {
	_, err := r.pool.Exec(ctx, `
        INSERT INTO kv_store (k, v, updated_at)
        VALUES ($1, $2, now())
        ON CONFLICT (k) DO UPDATE SET v = EXCLUDED.v, updated_at = now()
    `, key, value)
	if err != nil {
		return fmt.Errorf("postgres save %s: %w", key, err)
	}
	return nil
}

func (r *KVStore) Delete(ctx context.Context, key string) error {
	if _, err := r.pool.Exec(ctx, `DELETE FROM kv_store WHERE k = $1`, key); err != nil {
		return fmt.Errorf("postgres delete %s: %w", key, err)
	}
	return nil
}
