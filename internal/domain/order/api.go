package order

import (
	"context"

	"example.com/storefront/internal/domain/listing"
)

type API interface {
	List(ctx context.Context, userID string, filter listing.Filter) (*listing.Page[Order], error)
	GetByID(ctx context.Context, id string) (*Order, error)
}
