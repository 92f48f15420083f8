package http

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"example.com/storefront/internal/domain/listing"
	domorder "example.com/storefront/internal/domain/order"
	domproduct "example.com/storefront/internal/domain/product"
	"example.com/storefront/internal/usecase/filter"
	"example.com/storefront/internal/usecase/session"
)

type controllerOf[R any] func(s *session.Session) (*filter.Controller[R], error)

func ordersOf(s *session.Session) (*filter.Controller[domorder.Order], error) {
	return s.Orders()
}

func productsOf(s *session.Session) (*filter.Controller[domproduct.Product], error) {
	return s.Products(), nil
}

type listingQueryRequest struct {
	Page     *int    `json:"page" validate:"omitempty,gte=1"`
	PageSize *int    `json:"page_size" validate:"omitempty,gt=0,lte=100"`
	Search   *string `json:"search" validate:"omitempty,max=200"`
}

type heldFilterRequest struct {
	MinPrice       *float64   `json:"min_price" validate:"omitempty,gte=0"`
	MaxPrice       *float64   `json:"max_price" validate:"omitempty,gte=0"`
	MinDate        *time.Time `json:"min_date"`
	MaxDate        *time.Time `json:"max_date"`
	DeliveryStatus *string    `json:"delivery_status" validate:"omitempty,oneof=PENDING PACKED DELIVERED"`
	CategoryID     *string    `json:"category_id" validate:"omitempty,max=64"`
	SubCategoryID  *string    `json:"sub_category_id" validate:"omitempty,max=64"`
	// Category and SubCategory are slugs; they win over the ids when set.
	Category    string `json:"category" validate:"omitempty,max=64"`
	SubCategory string `json:"sub_category" validate:"omitempty,max=64"`
}

type sortRequest struct {
	Column string `json:"column" validate:"required"`
}

// listingRoutes mounts the listing endpoints of one kind plus its detail lookup.
// Mutations that fetch answer once the fetch completed.
func listingRoutes[R any](a *API, of controllerOf[R], detail http.HandlerFunc) func(chi.Router) {
	h := listingHandlers[R]{api: a, of: of}
	return func(r chi.Router) {
		r.Get("/", h.view)
		r.Patch("/query", h.query)
		r.Put("/held", h.hold)
		r.Post("/apply", h.act(func(c *filter.Controller[R]) { c.Apply() }))
		r.Post("/clear", h.act(func(c *filter.Controller[R]) { c.Clear() }))
		r.Post("/retry", h.act(func(c *filter.Controller[R]) { c.Retry() }))
		r.Post("/sort", h.sort)
		r.Get("/{id}", detail)
	}
}

type listingHandlers[R any] struct {
	api *API
	of  controllerOf[R]
}

func (h listingHandlers[R]) controller(w http.ResponseWriter, r *http.Request) (*session.Session, *filter.Controller[R], bool) {
	s, ok := withSession(w, r)
	if !ok {
		return nil, nil, false
	}
	c, err := h.of(s)
	if err != nil {
		handleDomainError(w, err)
		return nil, nil, false
	}
	return s, c, true
}

func (h listingHandlers[R]) view(w http.ResponseWriter, r *http.Request) {
	_, c, ok := h.controller(w, r)
	if !ok {
		return
	}
	c.Wait()
	writeJSON(w, http.StatusOK, c.View())
}

func (h listingHandlers[R]) query(w http.ResponseWriter, r *http.Request) {
	_, c, ok := h.controller(w, r)
	if !ok {
		return
	}

	var req listingQueryRequest
	if err := h.api.decodeAndValidate(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}

	if req.Search != nil {
		search := strings.TrimSpace(*req.Search)
		req.Search = &search
	}
	c.Edit(filter.QueryEdit{Page: req.Page, PageSize: req.PageSize, Search: req.Search})
	c.Wait()
	writeJSON(w, http.StatusOK, c.View())
}

func (h listingHandlers[R]) hold(w http.ResponseWriter, r *http.Request) {
	s, c, ok := h.controller(w, r)
	if !ok {
		return
	}

	var req heldFilterRequest
	if err := h.api.decodeAndValidate(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}
	if req.Category != "" || req.SubCategory != "" {
		categoryID, subCategoryID, err := s.ResolveCategory(req.Category, req.SubCategory)
		if err != nil {
			handleDomainError(w, err)
			return
		}
		req.CategoryID, req.SubCategoryID = categoryID, subCategoryID
	}

	c.Hold(func(f *listing.Filter) {
		f.MinPrice, f.MaxPrice = req.MinPrice, req.MaxPrice
		f.MinDate, f.MaxDate = req.MinDate, req.MaxDate
		f.DeliveryStatus = req.DeliveryStatus
		f.CategoryID, f.SubCategoryID = req.CategoryID, req.SubCategoryID
		f.Page = listing.DefaultPage
	})
	writeJSON(w, http.StatusOK, c.View())
}

func (h listingHandlers[R]) act(fn func(c *filter.Controller[R])) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_, c, ok := h.controller(w, r)
		if !ok {
			return
		}
		fn(c)
		c.Wait()
		writeJSON(w, http.StatusOK, c.View())
	}
}

func (h listingHandlers[R]) sort(w http.ResponseWriter, r *http.Request) {
	_, c, ok := h.controller(w, r)
	if !ok {
		return
	}

	var req sortRequest
	if err := h.api.decodeAndValidate(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}

	if err := c.Sort(req.Column); err != nil {
		handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, c.View())
}

func (a *API) handleGetOrder(w http.ResponseWriter, r *http.Request) {
	s, ok := withSession(w, r)
	if !ok {
		return
	}

	id := chi.URLParam(r, "id")
	if wantsRefresh(r) {
		s.RefreshOrder(id)
	}
	o, err := s.Order(r.Context(), id)
	if err != nil {
		handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, o)
}

func (a *API) handleSimilarProducts(w http.ResponseWriter, r *http.Request) {
	s, ok := withSession(w, r)
	if !ok {
		return
	}

	id := chi.URLParam(r, "id")
	if wantsRefresh(r) {
		s.RefreshProduct(id)
	}
	products, err := s.SimilarProducts(r.Context(), id)
	if err != nil {
		handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": products})
}

func (a *API) handleListCategories(w http.ResponseWriter, r *http.Request) {
	s, ok := withSession(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": s.Categories()})
}

func (a *API) handleGetProduct(w http.ResponseWriter, r *http.Request) {
	s, ok := withSession(w, r)
	if !ok {
		return
	}

	id := chi.URLParam(r, "id")
	if wantsRefresh(r) {
		s.RefreshProduct(id)
	}
	p, err := s.Product(r.Context(), id)
	if err != nil {
		handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// wantsRefresh reports whether a detail lookup asks to bypass its cache (?refresh=1).
func wantsRefresh(r *http.Request) bool {
	v, err := strconv.ParseBool(r.URL.Query().Get("refresh"))
	return err == nil && v
}
