package product

import (
	"context"

	"example.com/storefront/internal/domain/listing"
)

type API interface {
	List(ctx context.Context, filter listing.Filter) (*listing.Page[Product], error)
	GetByID(ctx context.Context, id string) (*Product, error)
	// Similar lists other products of categoryID, excluding productID.
	Similar(ctx context.Context, productID, categoryID string) ([]Product, error)
}
