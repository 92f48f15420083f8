package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"example.com/storefront/internal/infra/persistence"
)

type KVStore struct {
	db *sql.DB
}

func NewKVStore(db *sql.DB) *KVStore {
	return &KVStore{db: db}
}

func (r *KVStore) EnsureSchema(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `
        CREATE TABLE IF NOT EXISTS kv_store (
            k VARCHAR(255) NOT NULL PRIMARY KEY,
            v MEDIUMBLOB NOT NULL,
            updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP
        )
    `)
	return err
}

func (r *KVStore) Load(ctx context.Context, key string) ([]byte, error) {
	var v []byte
	err := r.db.QueryRowContext(ctx, `SELECT v FROM kv_store WHERE k = ?`, key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, persistence.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("mysql load %s: %w", key, err)
	}
	return v, nil
}

func (r *KVStore) Save(ctx context.Context, key string, value []byte) error {
	_, err := r.db.ExecContext(ctx, `
        INSERT INTO kv_store (k, v)
        VALUES (?, ?)
        ON DUPLICATE KEY UPDATE v = VALUES(v)
    `, key, value)
	if err != nil {
		return fmt.Errorf("mysql save %s: %w", key, err)
	}
	return nil
}

func (r *KVStore) Delete(ctx context.Context, key string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM kv_store WHERE k = ?`, key); err != nil {
		return fmt.Errorf("mysql delete %s: %w", key, err)
	}
	return nil
}
