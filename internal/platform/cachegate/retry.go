package cachegate

import (
	"context"

	"example.com/storefront/internal/domain/remote"
)

// Retry calls fetch up to attempts times while it fails with a transient error.
// Other errors and context cancellation end the loop at once.
func Retry[T any](attempts int, fetch Fetcher[T]) Fetcher[T] {
	if attempts < 1 {
		attempts = 1
	}
	return func(ctx context.Context) (T, error) {
		var (
			v   T
			err error
		)
		for i := 0; i < attempts; i++ {
			v, err = fetch(ctx)
			if err == nil || !remote.IsTransient(err) || ctx.Err() != nil {
				return v, err
			}
		}
		return v, err
	}
}
