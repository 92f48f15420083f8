package order

import (
	"context"
	"strings"

	"example.com/storefront/internal/domain/listing"
	domorder "example.com/storefront/internal/domain/order"
	"example.com/storefront/internal/platform/cachegate"
)

// Service reads a member's orders. Single orders are cached by id until Forget.
type Service struct {
	api      domorder.API
	attempts int
	details  *cachegate.Keyed[string, *domorder.Order]
}

func NewService(api domorder.API, attempts int) *Service {
	if attempts <= 0 {
		attempts = 1
	}
	return &Service{
		api:      api,
		attempts: attempts,
		details:  cachegate.NewKeyed[string, *domorder.Order](),
	}
}

func (s *Service) List(ctx context.Context, userID string, f listing.Filter) (*listing.Page[domorder.Order], error) {
	return cachegate.Retry(s.attempts, func(ctx context.Context) (*listing.Page[domorder.Order], error) {
		return s.api.List(ctx, userID, f)
	})(ctx)
}

func (s *Service) GetByID(ctx context.Context, id string) (*domorder.Order, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, domorder.ErrOrderNotFound
	}
	o, err := s.details.Read(ctx, id, func(ctx context.Context, id string) (*domorder.Order, error) {
		return cachegate.Retry(s.attempts, func(ctx context.Context) (*domorder.Order, error) {
			return s.api.GetByID(ctx, id)
		})(ctx)
	})
	if err != nil {
		return nil, err
	}
	cp := *o
	return &cp, nil
}

// Invalidate makes the next GetByID of id fetch again.
func (s *Service) Invalidate(id string) {
	s.details.Invalidate(strings.TrimSpace(id))
}

// Forget drops every cached order, e.g. when the member logs out.
func (s *Service) Forget() {
	s.details.Purge()
}
