// Package cart keeps the shopper's active cart. A guest cart lives only in local storage;
// a member cart lives on the storefront API and is cached here. Logging in offers to merge
// the guest cart into the member cart, and nothing is merged until the shopper confirms.
package cart

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sync"

	"github.com/shopspring/decimal"

	domcart "example.com/storefront/internal/domain/cart"
	"example.com/storefront/internal/domain/remote"
	"example.com/storefront/internal/infra/persistence"
	"example.com/storefront/internal/platform/cachegate"
	"example.com/storefront/internal/platform/reactive"
)

const (
	GuestKey    = "cart:guest"
	SnapshotKey = "cart:snapshot"

	DefaultAttempts = 3
)

var DefaultGuestShippingCost = decimal.NewFromInt(100)

// mode is either guestMode or memberMode.
type mode interface {
	isMode()
}

type guestMode struct{}

type memberMode struct {
	userID string
}

func (guestMode) isMode()  {}
func (memberMode) isMode() {}

// MergeOffer is the open question put to a shopper who logs in with a non-empty guest cart.
type MergeOffer struct {
	UserID string         `json:"userId"`
	Items  []domcart.Item `json:"cartItems"`
}

type AddItem struct {
	ProductID   string
	ProductName string
	Unit        int
	UnitPrice   decimal.Decimal
}

type Config struct {
	API               domcart.API
	Store             *persistence.Store
	Logger            *slog.Logger
	GuestShippingCost decimal.Decimal
	// Attempts bounds member cart fetches on transient failures.
	Attempts int
	// NewItemID generates guest item ids; tests replace it.
	NewItemID func() string
}

type Service struct {
	api          domcart.API
	store        *persistence.Store
	logger       *slog.Logger
	shippingCost decimal.Decimal
	attempts     int
	newItemID    func() string

	mu      sync.Mutex
	mode    mode
	epoch   uint64
	guest   *domcart.Cart
	offered bool
	merging bool
	member  cachegate.Resource[*domcart.Cart]

	active  *reactive.Cell[*domcart.Cart]
	pending *reactive.Cell[*MergeOffer]
	count   *reactive.Computed[int]
}

// NewService starts in guest mode with the guest cart found in storage.
func NewService(cfg Config) *Service {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Attempts <= 0 {
		cfg.Attempts = DefaultAttempts
	}
	if cfg.NewItemID == nil {
		cfg.NewItemID = func() string { return randomID(10) }
	}
	if cfg.GuestShippingCost.IsZero() {
		cfg.GuestShippingCost = DefaultGuestShippingCost
	}

	s := &Service{
		api:          cfg.API,
		store:        cfg.Store,
		logger:       cfg.Logger,
		shippingCost: cfg.GuestShippingCost,
		attempts:     cfg.Attempts,
		newItemID:    cfg.NewItemID,
		mode:         guestMode{},
		guest:        domcart.NewGuest(),
		pending:      reactive.New[*MergeOffer](nil),
	}

	var saved domcart.Cart
	if s.store != nil && s.store.Get(GuestKey, &saved) {
		saved.Owner = ""
		saved.Normalize()
		s.guest = &saved
	}
	s.active = reactive.New(s.guest.Clone())
	active := s.active
	s.count = reactive.Derive(func() int {
		return active.Get().Count()
	}, s.active)
	return s
}

func (s *Service) Active() reactive.Readable[*domcart.Cart] { return s.active }
func (s *Service) Count() reactive.Readable[int] { return s.count }
func (s *Service) PendingMerge() reactive.Readable[*MergeOffer] { return s.pending }

// UserID returns the member the cart belongs to, or "" for a guest.
func (s *Service) UserID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if m, ok := s.mode.(memberMode); ok {
		return m.userID
	}
	return ""
}

// Get returns the current cart. A member cart is fetched at most once until a mutation
// or a new login invalidates it.
func (s *Service) Get(ctx context.Context) (*domcart.Cart, error) {
	s.mu.Lock()
	switch m := s.mode.(type) {
	case memberMode:
		epoch := s.epoch
		s.mu.Unlock()
		return s.fetchMember(ctx, m.userID, epoch)
	default:
		defer s.mu.Unlock()
		c := s.guest.Clone()
		s.publishActive(c)
		return c.Clone(), nil
	}
}

func (s *Service) fetchMember(ctx context.Context, userID string, epoch uint64) (*domcart.Cart, error) {
	c, err := s.member.Read(ctx, cachegate.Retry(s.attempts, func(ctx context.Context) (*domcart.Cart, error) {
		return s.api.Get(ctx, userID)
	}))
	if err != nil {
		return nil, fmt.Errorf("get cart: %w", err)
	}
	c = c.Clone()
	c.Owner = userID
	c.Normalize()

	s.mu.Lock()
	defer s.mu.Unlock()
	if epoch == s.epoch {
		s.publishActive(c.Clone())
		if s.store != nil {
			s.store.Set(SnapshotKey, c)
		}
		s.offerMergeLocked(userID)
	}
	return c, nil
}

// Refresh drops the cached member cart and fetches it again. A guest cart is re-read
// from storage.
func (s *Service) Refresh(ctx context.Context) (*domcart.Cart, error) {
	s.mu.Lock()
	switch m := s.mode.(type) {
	case memberMode:
		epoch := s.epoch
		s.member.Invalidate()
		s.mu.Unlock()
		return s.fetchMember(ctx, m.userID, epoch)
	default:
		defer s.mu.Unlock()
		var saved domcart.Cart
		if s.store != nil && s.store.Get(GuestKey, &saved) {
			saved.Owner = ""
			saved.Normalize()
			s.guest = &saved
		}
		c := s.guest.Clone()
		s.publishActive(c)
		return c.Clone(), nil
	}
}

func (s *Service) Add(ctx context.Context, in AddItem) (*domcart.Cart, error) {
	if in.Unit <= 0 {
		return nil, domcart.ErrInvalidUnit
	}
	if in.UnitPrice.IsNegative() {
		return nil, domcart.ErrInvalidPrice
	}

	s.mu.Lock()
	switch m := s.mode.(type) {
	case memberMode:
		epoch := s.epoch
		s.mu.Unlock()
		err := s.api.Add(ctx, domcart.AddInput{
			UserID:       m.userID,
			ProductID:    in.ProductID,
			Unit:         in.Unit,
			ProductPrice: in.UnitPrice,
		})
		if err != nil {
			return nil, fmt.Errorf("add to cart: %w", err)
		}
		return s.refresh(ctx, m.userID, epoch)
	default:
		defer s.mu.Unlock()
		next := s.guest.Clone()
		if i, ok := next.FindProduct(in.ProductID); ok {
			next.Items[i].Unit += in.Unit
			next.Items[i].UnitPrice = in.UnitPrice
			next.Items[i].Recompute()
		} else {
			item := domcart.Item{
				ID:           s.uniqueItemID(next),
				ProductID:    in.ProductID,
				ProductName:  in.ProductName,
				Unit:         in.Unit,
				UnitPrice:    in.UnitPrice,
				ShippingCost: s.shippingCost,
			}
			item.Recompute()
			next.Items = append(next.Items, item)
		}
		s.commitGuest(next)
		return next.Clone(), nil
	}
}

func (s *Service) Update(ctx context.Context, itemID string, unit int) (*domcart.Cart, error) {
	if unit <= 0 {
		return nil, domcart.ErrInvalidUnit
	}

	s.mu.Lock()
	switch m := s.mode.(type) {
	case memberMode:
		epoch := s.epoch
		current := s.active.Get()
		i, ok := current.Find(itemID)
		if !ok {
			s.mu.Unlock()
			return nil, domcart.ErrItemNotFound
		}
		price := current.Items[i].UnitPrice
		s.mu.Unlock()

		if err := s.api.Update(ctx, itemID, domcart.UpdateInput{Unit: unit, ProductPrice: price}); err != nil {
			return nil, fmt.Errorf("update cart item: %w", err)
		}
		return s.refresh(ctx, m.userID, epoch)
	default:
		defer s.mu.Unlock()
		next := s.guest.Clone()
		i, ok := next.Find(itemID)
		if !ok {
			return nil, domcart.ErrItemNotFound
		}
		next.Items[i].Unit = unit
		next.Items[i].Recompute()
		s.commitGuest(next)
		return next.Clone(), nil
	}
}

func (s *Service) Remove(ctx context.Context, itemID string) (*domcart.Cart, error) {
	s.mu.Lock()
	switch m := s.mode.(type) {
	case memberMode:
		epoch := s.epoch
		s.mu.Unlock()
		if err := s.api.Delete(ctx, itemID); err != nil {
			return nil, fmt.Errorf("remove cart item: %w", err)
		}
		return s.refresh(ctx, m.userID, epoch)
	default:
		defer s.mu.Unlock()
		next := s.guest.Clone()
		i, ok := next.Find(itemID)
		if !ok {
			return nil, domcart.ErrItemNotFound
		}
		next.Items = append(next.Items[:i], next.Items[i+1:]...)
		s.commitGuest(next)
		return next.Clone(), nil
	}
}

// refresh re-reads the member cart after a successful mutation. A failed re-read leaves
// the last known cart in place; the mutation itself already succeeded.
func (s *Service) refresh(ctx context.Context, userID string, epoch uint64) (*domcart.Cart, error) {
	s.mu.Lock()
	if epoch != s.epoch {
		s.mu.Unlock()
		s.logger.Info("cart mutation outlived its login", slog.String("user_id", userID))
		return nil, domcart.ErrSessionChanged
	}
	s.member.Invalidate()
	s.mu.Unlock()

	c, err := s.fetchMember(ctx, userID, epoch)
	if err != nil {
		s.logger.Warn("cart refresh after mutation failed", slog.String("user_id", userID), slog.Any("error", err))
		return s.active.Get().Clone(), nil
	}
	return c, nil
}

// Login switches to the member's cart. Repeated logins of the same member are ignored.
// The merge offer is raised at most once per login, for a non-empty guest cart, and only
// once the member cart has been fetched; after a failed fetch it waits for the next
// successful one.
func (s *Service) Login(ctx context.Context, userID string) error {
	if userID == "" {
		return errors.New("login: empty user id")
	}

	s.mu.Lock()
	if m, ok := s.mode.(memberMode); ok && m.userID == userID {
		s.mu.Unlock()
		return nil
	}
	s.epoch++
	epoch := s.epoch
	s.mode = memberMode{userID: userID}
	s.member.Reset()
	s.offered = false
	s.merging = false
	s.publishPending(nil)

	var snap domcart.Cart
	if s.store != nil && s.store.Get(SnapshotKey, &snap) && snap.Owner == userID {
		snap.Normalize()
		s.publishActive(&snap)
	} else {
		s.publishActive(nil)
	}
	s.mu.Unlock()

	if _, err := s.fetchMember(ctx, userID, epoch); err != nil {
		s.logger.Warn("member cart fetch failed on login", slog.String("user_id", userID), slog.Any("error", err))
		return err
	}
	return nil
}

// offerMergeLocked raises the merge offer for userID if this login has not offered it yet.
func (s *Service) offerMergeLocked(userID string) {
	if s.offered || s.guest.IsEmpty() {
		return
	}
	s.offered = true
	s.publishPending(&MergeOffer{UserID: userID, Items: s.guest.Clone().Items})
}

// ConfirmMerge sends the guest cart to the member's cart once. On failure the guest cart
// and the offer are kept so the merge can be retried.
func (s *Service) ConfirmMerge(ctx context.Context) (*domcart.Cart, error) {
	s.mu.Lock()
	offer := s.pending.Get()
	if offer == nil {
		s.mu.Unlock()
		return nil, domcart.ErrNoPendingMerge
	}
	if s.merging {
		s.mu.Unlock()
		return nil, domcart.ErrMergeInProgress
	}
	s.merging = true
	epoch := s.epoch
	items := s.guest.Clone().Items
	s.mu.Unlock()

	merged, err := s.api.Merge(ctx, offer.UserID, items)

	s.mu.Lock()
	defer s.mu.Unlock()
	if epoch == s.epoch {
		s.merging = false
	}
	if err != nil {
		s.logger.Warn("cart merge failed", slog.String("user_id", offer.UserID), slog.Any("error", err))
		if errors.Is(err, remote.ErrRejected) {
			return nil, fmt.Errorf("%w: %w", domcart.ErrMergeRejected, err)
		}
		return nil, fmt.Errorf("merge cart: %w", err)
	}

	// The server now owns these items whatever happened to the session meanwhile.
	s.guest = domcart.NewGuest()
	if s.store != nil {
		s.store.Remove(GuestKey)
	}

	merged = merged.Clone()
	merged.Owner = offer.UserID
	merged.Normalize()
	if epoch == s.epoch {
		s.publishPending(nil)
		s.member.Store(merged.Clone())
		s.publishActive(merged.Clone())
		if s.store != nil {
			s.store.Set(SnapshotKey, merged)
		}
	}
	return merged, nil
}

// DeclineMerge closes the offer for this login; the guest cart stays in storage.
func (s *Service) DeclineMerge() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pending.Get() == nil {
		return domcart.ErrNoPendingMerge
	}
	if s.merging {
		return domcart.ErrMergeInProgress
	}
	s.publishPending(nil)
	return nil
}

// Logout returns to guest mode. The guest cart is untouched and the member cart is forgotten.
func (s *Service) Logout() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.mode.(guestMode); ok {
		return
	}
	s.epoch++
	s.mode = guestMode{}
	s.member.Reset()
	s.offered = false
	s.merging = false
	s.publishPending(nil)
	s.publishActive(nil)
	if s.store != nil {
		s.store.Remove(SnapshotKey)
	}
}

// commitGuest persists next and makes it the guest cart. Must hold mu.
func (s *Service) commitGuest(next *domcart.Cart) {
	if s.store != nil {
		s.store.Set(GuestKey, next)
	}
	s.guest = next
	s.publishActive(next.Clone())
}

func (s *Service) publishActive(c *domcart.Cart) {
	if err := s.active.Set(c); err != nil {
		s.logger.Error("cart state write rejected", slog.Any("error", err))
	}
}

func (s *Service) publishPending(o *MergeOffer) {
	if err := s.pending.Set(o); err != nil {
		s.logger.Error("merge offer write rejected", slog.Any("error", err))
	}
}

func (s *Service) uniqueItemID(c *domcart.Cart) string {
	for {
		id := s.newItemID()
		if _, taken := c.Find(id); !taken {
			return id
		}
	}
}

const idAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

func randomID(n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = idAlphabet[rand.IntN(len(idAlphabet))]
	}
	return string(b)
}
