// Package filter keeps the query state of one listing (orders or products): the filter
// being edited, the filter driving the fetch, the loaded page and its status.
package filter

import (
	"context"
	"errors"
	"log/slog"
	"net/url"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"

	"example.com/storefront/internal/domain/listing"
	"example.com/storefront/internal/infra/persistence"
	"example.com/storefront/internal/platform/cachegate"
	"example.com/storefront/internal/platform/querycodec"
	"example.com/storefront/internal/platform/reactive"
)

type Fetcher[R any] func(ctx context.Context, f listing.Filter) (*listing.Page[R], error)

// Navigator receives the query a listing's address should show.
type Navigator interface {
	Navigate(kind listing.Kind, query url.Values)
}

type Config[R any] struct {
	Kind      listing.Kind
	Fetch     Fetcher[R]
	Column    listing.ColumnFunc[R]
	Store     *persistence.Store
	Navigator Navigator
	Validate  *validator.Validate
	Logger    *slog.Logger
}

// Controller serializes every state change under mu. Fetches run on their own goroutine
// and only the completion of the latest one is applied.
type Controller[R any] struct {
	kind     listing.Kind
	fetch    Fetcher[R]
	column   listing.ColumnFunc[R]
	store    *persistence.Store
	nav      Navigator
	validate *validator.Validate
	logger   *slog.Logger

	mu     sync.Mutex
	ctx    context.Context
	cancel context.CancelFunc
	ticket uint64
	// inflight holds a done channel per started fetch, removed once its result is applied.
	inflight map[uint64]chan struct{}
	// pages caches fetched pages per canonical query.
	pages *cachegate.Keyed[string, *listing.Page[R]]

	applied     *reactive.Cell[listing.Filter]
	held        *reactive.Cell[listing.Filter]
	status      *reactive.Cell[Status]
	sort        *reactive.Cell[*SortState]
	page        *reactive.Cell[*listing.Page[R]]
	cardinality *reactive.Computed[int]
}

// New restores the held filter from storage, applies it and starts the first fetch.
func New[R any](ctx context.Context, cfg Config[R]) *Controller[R] {
	if cfg.Validate == nil {
		cfg.Validate = validator.New()
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	ctx, cancel := context.WithCancel(ctx)

	c := &Controller[R]{
		kind:     cfg.Kind,
		fetch:    cfg.Fetch,
		column:   cfg.Column,
		store:    cfg.Store,
		nav:      cfg.Navigator,
		validate: cfg.Validate,
		logger:   cfg.Logger.With(slog.String("listing", string(cfg.Kind))),
		ctx:      ctx,
		cancel:   cancel,
		pages:    cachegate.NewKeyed[string, *listing.Page[R]](),
		inflight: make(map[uint64]chan struct{}),
		status:   reactive.New(Status{State: Idle}),
		sort:     reactive.New[*SortState](nil),
		page:     reactive.New[*listing.Page[R]](nil),
	}

	initial := listing.Default()
	if c.store != nil {
		var saved listing.Filter
		if c.store.Get(c.kind.StorageKey(), &saved) {
			initial = saved
		}
	}
	initial = c.sanitize(initial)
	c.held = reactive.New(initial.Clone())
	c.applied = reactive.New(initial.Clone())
	kind := c.kind
	applied := c.applied
	c.cardinality = reactive.Derive(func() int {
		return kind.Cardinality(applied.Get())
	}, c.applied)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.mirror()
	c.load()
	return c
}

func (c *Controller[R]) Kind() listing.Kind { return c.kind }

func (c *Controller[R]) Applied() reactive.Readable[listing.Filter] { return c.applied }
func (c *Controller[R]) Held() reactive.Readable[listing.Filter] { return c.held }
func (c *Controller[R]) Status() reactive.Readable[Status] { return c.status }
func (c *Controller[R]) Page() reactive.Readable[*listing.Page[R]] { return c.page }
func (c *Controller[R]) Ordering() reactive.Readable[*SortState] { return c.sort }
func (c *Controller[R]) Cardinality() reactive.Readable[int] { return c.cardinality }

func (c *Controller[R]) View() View[R] {
	c.mu.Lock()
	defer c.mu.Unlock()
	v := View[R]{
		Kind:        c.kind,
		Applied:     c.applied.Get().Clone(),
		Held:        c.held.Get().Clone(),
		Cardinality: c.cardinality.Get(),
		Status:      c.status.Get(),
		Page:        c.page.Get().Clone(),
	}
	if s := c.sort.Get(); s != nil {
		cp := *s
		v.Sort = &cp
	}
	return v
}

// Hold edits the held filter only. It is persisted and the address keeps showing the
// applied filter; nothing is fetched until Apply.
func (c *Controller[R]) Hold(edit func(f *listing.Filter)) {
	c.mu.Lock()
	defer c.mu.Unlock()

	next := c.held.Get().Clone()
	edit(&next)
	next = c.sanitize(next)
	publish(c.logger, c.held, next)
	c.persist()
	c.mirror()
}

func (c *Controller[R]) HoldPriceRange(from, to *float64) {
	c.Hold(func(f *listing.Filter) {
		f.MinPrice, f.MaxPrice = from, to
		f.Page = listing.DefaultPage
	})
}

func (c *Controller[R]) HoldDateRange(from, to *time.Time) {
	c.Hold(func(f *listing.Filter) {
		f.MinDate, f.MaxDate = from, to
		f.Page = listing.DefaultPage
	})
}

func (c *Controller[R]) HoldStatus(status *string) {
	c.Hold(func(f *listing.Filter) {
		f.DeliveryStatus = status
		f.Page = listing.DefaultPage
	})
}

func (c *Controller[R]) HoldCategory(categoryID, subCategoryID *string) {
	c.Hold(func(f *listing.Filter) {
		f.CategoryID, f.SubCategoryID = categoryID, subCategoryID
		f.Page = listing.DefaultPage
	})
}

// Apply makes the held filter the applied one and fetches it.
func (c *Controller[R]) Apply() {
	c.mu.Lock()
	defer c.mu.Unlock()

	next := c.held.Get().Clone()
	publish(c.logger, c.applied, next)
	c.persist()
	c.mirror()
	c.load()
}

// QueryEdit changes pagination and search of the applied filter in one step. Nil fields
// are left alone. A new search or page size goes back to the first page unless Page is set.
type QueryEdit struct {
	Page     *int
	PageSize *int
	Search   *string
}

// Edit applies q with a single fetch.
func (c *Controller[R]) Edit(q QueryEdit) {
	if q.Page == nil && q.PageSize == nil && q.Search == nil {
		return
	}
	c.change(func(f *listing.Filter) {
		if q.Search != nil {
			if *q.Search == "" {
				f.Search = nil
			} else {
				search := *q.Search
				f.Search = &search
			}
			f.Page = listing.DefaultPage
		}
		if q.PageSize != nil {
			f.PageSize = *q.PageSize
			f.Page = listing.DefaultPage
		}
		if q.Page != nil {
			f.Page = *q.Page
		}
	})
}

func (c *Controller[R]) SetPage(page int) {
	c.Edit(QueryEdit{Page: &page})
}

// SetPageSize also goes back to the first page.
func (c *Controller[R]) SetPageSize(size int) {
	c.Edit(QueryEdit{PageSize: &size})
}

func (c *Controller[R]) SetSearch(search string) {
	c.Edit(QueryEdit{Search: &search})
}

// change edits the applied filter directly and folds the same edit into the held one.
func (c *Controller[R]) change(edit func(f *listing.Filter)) {
	c.mu.Lock()
	defer c.mu.Unlock()

	applied := c.applied.Get().Clone()
	edit(&applied)
	held := c.held.Get().Clone()
	edit(&held)

	publish(c.logger, c.applied, c.sanitize(applied))
	publish(c.logger, c.held, c.sanitize(held))
	c.persist()
	c.mirror()
	c.load()
}

// Clear resets held and applied to the defaults and forgets the persisted filter.
func (c *Controller[R]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	publish(c.logger, c.applied, listing.Default())
	publish(c.logger, c.held, listing.Default())
	publish(c.logger, c.sort, nil)
	if c.store != nil {
		c.store.Remove(c.kind.StorageKey())
	}
	c.pages.Purge()
	c.mirror()
	c.load()
}

// Retry fetches the applied filter again.
func (c *Controller[R]) Retry() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.load()
}

// Sort orders the loaded page by column without fetching. Sorting by the current column
// again flips the direction; a new column starts ascending.
func (c *Controller[R]) Sort(column string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	page := c.page.Get()
	if page == nil {
		return ErrNotLoaded
	}
	var zero R
	if _, err := c.column(zero, column); err != nil {
		return err
	}

	next := &SortState{Column: column, Direction: Asc}
	if cur := c.sort.Get(); cur != nil && cur.Column == column && cur.Direction == Asc {
		next.Direction = Desc
	}
	sorted, err := sortPage(page, *next, c.column)
	if err != nil {
		return err
	}
	publish(c.logger, c.sort, next)
	publish(c.logger, c.page, sorted)
	return nil
}

// Wait blocks until every fetch started so far has completed. Fetches started by other
// callers meanwhile are not waited for.
func (c *Controller[R]) Wait() {
	c.mu.Lock()
	pending := make([]chan struct{}, 0, len(c.inflight))
	for _, done := range c.inflight {
		pending = append(pending, done)
	}
	c.mu.Unlock()

	for _, done := range pending {
		<-done
	}
}

// Close stops in-flight fetches from being applied and waits for them.
func (c *Controller[R]) Close() {
	c.cancel()
	c.Wait()
	c.cardinality.Close()
}

// load must be called with mu held.
func (c *Controller[R]) load() {
	c.ticket++
	ticket := c.ticket
	f := c.applied.Get().Clone()
	key := querycodec.Key(f)

	c.pages.Invalidate(key)
	publish(c.logger, c.status, Status{State: Loading})

	done := make(chan struct{})
	c.inflight[ticket] = done
	go func() {
		defer close(done)
		page, err := c.pages.Read(c.ctx, key, func(ctx context.Context, _ string) (*listing.Page[R], error) {
			return c.fetch(ctx, f)
		})
		c.complete(ticket, f, page, err)
	}()
}

func (c *Controller[R]) complete(ticket uint64, f listing.Filter, page *listing.Page[R], err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.inflight, ticket)

	if ticket != c.ticket {
		c.logger.Debug("discarding superseded listing response",
			slog.Uint64("ticket", ticket),
			slog.Uint64("latest", c.ticket),
			slog.String("query", querycodec.Key(f)))
		return
	}
	if c.ctx.Err() != nil {
		return
	}
	if err != nil {
		c.logger.Warn("listing fetch failed", slog.String("query", querycodec.Key(f)), slog.Any("error", err))
		publish(c.logger, c.status, Status{State: Error, Message: errorMessage(err)})
		return
	}

	if page == nil {
		page = &listing.Page[R]{Items: []R{}, Page: f.Page, PageSize: f.PageSize}
	} else {
		page = page.Clone()
	}
	if s := c.sort.Get(); s != nil {
		if sorted, err := sortPage(page, *s, c.column); err == nil {
			page = sorted
		}
	}
	publish(c.logger, c.page, page)
	publish(c.logger, c.status, Status{State: Loaded})
}

func (c *Controller[R]) persist() {
	if c.store != nil {
		c.store.Set(c.kind.StorageKey(), c.held.Get())
	}
}

func (c *Controller[R]) mirror() {
	if c.nav != nil {
		c.nav.Navigate(c.kind, querycodec.Encode(c.applied.Get()))
	}
}

// sanitize drops every field that fails validation; page and page size fall back to the
// defaults instead.
func (c *Controller[R]) sanitize(f listing.Filter) listing.Filter {
	f = f.WithDefaults()
	var verrs validator.ValidationErrors
	if err := c.validate.Struct(f); !errors.As(err, &verrs) {
		return f
	}
	for _, fe := range verrs {
		c.logger.Debug("dropping invalid filter field", slog.String("field", fe.Field()), slog.String("rule", fe.Tag()))
		switch fe.StructField() {
		case "MinPrice":
			f.MinPrice = nil
		case "MaxPrice":
			f.MaxPrice = nil
		case "MinDate":
			f.MinDate = nil
		case "MaxDate":
			f.MaxDate = nil
		case "DeliveryStatus":
			f.DeliveryStatus = nil
		case "OrderID":
			f.OrderID = nil
		case "Search":
			f.Search = nil
		case "CategoryID":
			f.CategoryID = nil
		case "SubCategoryID":
			f.SubCategoryID = nil
		case "SortBy":
			f.SortBy = nil
		case "Page":
			f.Page = listing.DefaultPage
		case "PageSize":
			f.PageSize = listing.DefaultPageSize
		}
	}
	return f
}

// publish writes a state cell. A rejected write means a subscriber called back into the
// controller while being notified.
func publish[T any](logger *slog.Logger, cell *reactive.Cell[T], v T) {
	if err := cell.Set(v); err != nil {
		logger.Error("listing state write rejected", slog.Any("error", err))
	}
}
