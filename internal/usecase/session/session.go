// Package session ties together the state of one shopper: identity, cart, listings and
// detail lookups, all persisted under the session's own storage namespace.
package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	domcart "example.com/storefront/internal/domain/cart"
	domcategory "example.com/storefront/internal/domain/category"
	"example.com/storefront/internal/domain/listing"
	domorder "example.com/storefront/internal/domain/order"
	domproduct "example.com/storefront/internal/domain/product"
	domuser "example.com/storefront/internal/domain/user"
	"example.com/storefront/internal/infra/persistence"
	"example.com/storefront/internal/platform/reactive"
	cartuc "example.com/storefront/internal/usecase/cart"
	categoryuc "example.com/storefront/internal/usecase/category"
	"example.com/storefront/internal/usecase/filter"
	orderuc "example.com/storefront/internal/usecase/order"
	productuc "example.com/storefront/internal/usecase/product"
)

var ErrUnauthenticated = errors.New("authentication required")

type Deps struct {
	Carts    domcart.API
	Orders   domorder.API
	Products *productuc.Service
	// Categories learns category slugs from every fetched product page.
	Categories *categoryuc.Service
	Store      *persistence.Store
	Logger     *slog.Logger
	Validate   *validator.Validate
	// Attempts bounds retries of transient API failures.
	Attempts          int
	GuestShippingCost decimal.Decimal
}

type Session struct {
	id       string
	ctx      context.Context
	deps     Deps
	store    *persistence.Store
	logger   *slog.Logger
	location *Location
	cart     *cartuc.Service
	orderSvc *orderuc.Service
	// lastSeen is the unix nano time of the latest registry lookup.
	lastSeen atomic.Int64

	mu       sync.Mutex
	identity *reactive.Cell[*domuser.Identity]
	orders   *filter.Controller[domorder.Order]
	products *filter.Controller[domproduct.Product]
}

func newSession(ctx context.Context, id string, deps Deps) *Session {
	store := deps.Store.Namespace(id)
	logger := deps.Logger.With(slog.String("session_id", id))
	return &Session{
		id:       id,
		ctx:      ctx,
		deps:     deps,
		store:    store,
		logger:   logger,
		location: NewLocation(),
		cart: cartuc.NewService(cartuc.Config{
			API:               deps.Carts,
			Store:             store,
			Logger:            logger,
			GuestShippingCost: deps.GuestShippingCost,
			Attempts:          deps.Attempts,
		}),
		orderSvc: orderuc.NewService(deps.Orders, deps.Attempts),
		identity: reactive.New[*domuser.Identity](nil),
	}
}

func (s *Session) ID() string { return s.id }

func (s *Session) touch(now time.Time) { s.lastSeen.Store(now.UnixNano()) }

func (s *Session) idleSince(now time.Time) time.Duration {
	return now.Sub(time.Unix(0, s.lastSeen.Load()))
}

func (s *Session) Cart() *cartuc.Service { return s.cart }

func (s *Session) Location() *Location { return s.location }

func (s *Session) Identity() *domuser.Identity {
	id := s.identity.Get()
	if id == nil {
		return nil
	}
	cp := *id
	return &cp
}

// Login switches the session to id. The cart runs its merge protocol; an orders listing of
// a previous member is dropped.
func (s *Session) Login(ctx context.Context, id domuser.Identity) error {
	s.mu.Lock()
	if prev := s.identity.Get(); prev == nil || prev.UserID != id.UserID {
		s.dropMemberStateLocked()
		if err := s.identity.Set(&id); err != nil {
			s.mu.Unlock()
			return err
		}
	}
	s.mu.Unlock()

	if err := s.cart.Login(ctx, id.UserID); err != nil {
		s.logger.Warn("cart not loaded after login", slog.String("user_id", id.UserID), slog.Any("error", err))
		return err
	}
	return nil
}

func (s *Session) Logout() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.identity.Get() == nil {
		return
	}
	s.dropMemberStateLocked()
	if err := s.identity.Set(nil); err != nil {
		s.logger.Error("identity write rejected", slog.Any("error", err))
	}
	s.cart.Logout()
}

func (s *Session) dropMemberStateLocked() {
	if s.orders != nil {
		s.orders.Close()
		s.orders = nil
	}
	s.orderSvc.Forget()
}

// Orders returns the member's orders listing, creating it on first use.
func (s *Session) Orders() (*filter.Controller[domorder.Order], error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.identity.Get()
	if id == nil {
		return nil, ErrUnauthenticated
	}
	if s.orders == nil {
		userID := id.UserID
		svc := s.orderSvc
		s.orders = filter.New(s.ctx, filter.Config[domorder.Order]{
			Kind: listing.KindOrders,
			Fetch: func(ctx context.Context, f listing.Filter) (*listing.Page[domorder.Order], error) {
				return svc.List(ctx, userID, f)
			},
			Column:    domorder.Column,
			Store:     s.store,
			Navigator: s.location,
			Validate:  s.deps.Validate,
			Logger:    s.logger,
		})
	}
	return s.orders, nil
}

// Products returns the catalogue listing, creating it on first use.
func (s *Session) Products() *filter.Controller[domproduct.Product] {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.products == nil {
		products, categories := s.deps.Products, s.deps.Categories
		s.products = filter.New(s.ctx, filter.Config[domproduct.Product]{
			Kind: listing.KindProducts,
			Fetch: func(ctx context.Context, f listing.Filter) (*listing.Page[domproduct.Product], error) {
				page, err := products.List(ctx, f)
				if err == nil {
					categories.Observe(page.Items)
				}
				return page, err
			},
			Column:    domproduct.Column,
			Store:     s.store,
			Navigator: s.location,
			Validate:  s.deps.Validate,
			Logger:    s.logger,
		})
	}
	return s.products
}

func (s *Session) Order(ctx context.Context, id string) (*domorder.Order, error) {
	if s.identity.Get() == nil {
		return nil, ErrUnauthenticated
	}
	return s.orderSvc.GetByID(ctx, id)
}

func (s *Session) Product(ctx context.Context, id string) (*domproduct.Product, error) {
	return s.deps.Products.GetByID(ctx, id)
}

func (s *Session) SimilarProducts(ctx context.Context, id string) ([]domproduct.Product, error) {
	return s.deps.Products.Similar(ctx, id)
}

// RefreshProduct makes the next lookup of product id, and of its similar products,
// fetch again.
func (s *Session) RefreshProduct(id string) {
	s.deps.Products.Invalidate(id)
}

func (s *Session) RefreshOrder(id string) {
	s.orderSvc.Invalidate(id)
}

// Categories lists the categories seen on product pages so far.
func (s *Session) Categories() []domcategory.Category {
	return s.deps.Categories.List()
}

// ResolveCategory maps category slugs, as carried in storefront links, to ids.
func (s *Session) ResolveCategory(categorySlug, subSlug string) (categoryID, subCategoryID *string, err error) {
	return s.deps.Categories.Resolve(categorySlug, subSlug)
}

// Close stops the session's listings and waits for their fetches.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.orders != nil {
		s.orders.Close()
		s.orders = nil
	}
	if s.products != nil {
		s.products.Close()
		s.products = nil
	}
}
