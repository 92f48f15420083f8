package postgres

import (
	"context"
	"os"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"

	"example.com/storefront/internal/infra/persistence"
)

// Runs against a real server only when PG_TEST_DSN is set.
func TestKVStore_RoundTrip(t *testing.T) {
	dsn := os.Getenv("PG_TEST_DSN")
	if dsn == "" {
		t.Skip("PG_TEST_DSN not set")
	}
	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	s := NewKVStore(pool)
	require.NoError(t, s.EnsureSchema(ctx))

	require.NoError(t, s.Save(ctx, "test:filter:orders", []byte(`{"page":1}`)))
	require.NoError(t, s.Save(ctx, "test:filter:orders", []byte(`{"page":2}`)))
	v, err := s.Load(ctx, "test:filter:orders")
	require.NoError(t, err)
	require.Equal(t, `{"page":2}`, string(v))

	require.NoError(t, s.Delete(ctx, "test:filter:orders"))
	_, err = s.Load(ctx, "test:filter:orders")
	require.ErrorIs(t, err, persistence.ErrNotFound)
}
