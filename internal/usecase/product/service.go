package product

import (
	"context"
	"slices"
	"strings"

	"example.com/storefront/internal/domain/listing"
	dom "example.com/storefront/internal/domain/product"
	"example.com/storefront/internal/platform/cachegate"
)

// Service reads the product catalogue. Single products are cached by id.
type Service struct {
	api      dom.API
	attempts int
	details  *cachegate.Keyed[string, *dom.Product]
	similar  *cachegate.Keyed[string, []dom.Product]
}

func NewService(api dom.API, attempts int) *Service {
	if attempts <= 0 {
		attempts = 1
	}
	return &Service{
		api:      api,
		attempts: attempts,
		details:  cachegate.NewKeyed[string, *dom.Product](),
		similar:  cachegate.NewKeyed[string, []dom.Product](),
	}
}

func (s *Service) List(ctx context.Context, f listing.Filter) (*listing.Page[dom.Product], error) {
	return cachegate.Retry(s.attempts, func(ctx context.Context) (*listing.Page[dom.Product], error) {
		return s.api.List(ctx, f)
	})(ctx)
}

func (s *Service) GetByID(ctx context.Context, id string) (*dom.Product, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, dom.ErrProductNotFound
	}
	p, err := s.details.Read(ctx, id, func(ctx context.Context, id string) (*dom.Product, error) {
		return cachegate.Retry(s.attempts, func(ctx context.Context) (*dom.Product, error) {
			return s.api.GetByID(ctx, id)
		})(ctx)
	})
	if err != nil {
		return nil, err
	}
	cp := *p
	return &cp, nil
}

// Similar lists the products sharing the category of product id. A product without a
// category has no similar products.
func (s *Service) Similar(ctx context.Context, id string) ([]dom.Product, error) {
	p, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.Category == nil || p.Category.ID == "" {
		return []dom.Product{}, nil
	}
	categoryID := p.Category.ID
	similar, err := s.similar.Read(ctx, p.ID, func(ctx context.Context, id string) ([]dom.Product, error) {
		return cachegate.Retry(s.attempts, func(ctx context.Context) ([]dom.Product, error) {
			return s.api.Similar(ctx, id, categoryID)
		})(ctx)
	})
	if err != nil {
		return nil, err
	}
	return slices.Clone(similar), nil
}

// Invalidate makes the next GetByID and Similar of id fetch again.
func (s *Service) Invalidate(id string) {
	id = strings.TrimSpace(id)
	s.details.Invalidate(id)
	s.similar.Invalidate(id)
}
