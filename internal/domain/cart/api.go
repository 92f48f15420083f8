package cart

import (
	"context"

	"github.com/shopspring/decimal"
)

type AddInput struct {
	UserID       string
	ProductID    string
	Unit         int
	ProductPrice decimal.Decimal
}

type UpdateInput struct {
	Unit         int
	ProductPrice decimal.Decimal
}

// API is the remote storefront cart endpoint set.
type API interface {
	Get(ctx context.Context, userID string) (*Cart, error)
	Add(ctx context.Context, in AddInput) error
	Update(ctx context.Context, itemID string, in UpdateInput) error
	Delete(ctx context.Context, itemID string) error
	Merge(ctx context.Context, userID string, items []Item) (*Cart, error)
}
