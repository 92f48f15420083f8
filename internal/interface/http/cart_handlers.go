package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	domcart "example.com/storefront/internal/domain/cart"
	cartuc "example.com/storefront/internal/usecase/cart"
)

type addCartItemRequest struct {
	ProductID   string          `json:"product_id" validate:"required,max=64"`
	ProductName string          `json:"product_name" validate:"max=200"`
	Unit        int             `json:"unit" validate:"required,gt=0"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
}

type updateCartItemRequest struct {
	Unit int `json:"unit" validate:"required,gt=0"`
}

func (a *API) handleGetCart(w http.ResponseWriter, r *http.Request) {
	s, ok := withSession(w, r)
	if !ok {
		return
	}

	cart, err := s.Cart().Get(r.Context())
	if err != nil {
		handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, mapCart(cart))
}

func (a *API) handleRefreshCart(w http.ResponseWriter, r *http.Request) {
	s, ok := withSession(w, r)
	if !ok {
		return
	}

	cart, err := s.Cart().Refresh(r.Context())
	if err != nil {
		handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, mapCart(cart))
}

func (a *API) handleAddCartItem(w http.ResponseWriter, r *http.Request) {
	s, ok := withSession(w, r)
	if !ok {
		return
	}

	var req addCartItemRequest
	if err := a.decodeAndValidate(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}

	cart, err := s.Cart().Add(r.Context(), cartuc.AddItem{
		ProductID:   req.ProductID,
		ProductName: req.ProductName,
		Unit:        req.Unit,
		UnitPrice:   req.UnitPrice,
	})
	if err != nil {
		handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, mapCart(cart))
}

func (a *API) handleUpdateCartItem(w http.ResponseWriter, r *http.Request) {
	s, ok := withSession(w, r)
	if !ok {
		return
	}

	var req updateCartItemRequest
	if err := a.decodeAndValidate(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}

	cart, err := s.Cart().Update(r.Context(), chi.URLParam(r, "id"), req.Unit)
	if err != nil {
		handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, mapCart(cart))
}

func (a *API) handleRemoveCartItem(w http.ResponseWriter, r *http.Request) {
	s, ok := withSession(w, r)
	if !ok {
		return
	}

	cart, err := s.Cart().Remove(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, mapCart(cart))
}

func (a *API) handleConfirmMerge(w http.ResponseWriter, r *http.Request) {
	s, ok := withSession(w, r)
	if !ok {
		return
	}

	cart, err := s.Cart().ConfirmMerge(r.Context())
	if err != nil {
		handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, mapCart(cart))
}

func (a *API) handleDeclineMerge(w http.ResponseWriter, r *http.Request) {
	s, ok := withSession(w, r)
	if !ok {
		return
	}

	if err := s.Cart().DeclineMerge(); err != nil {
		handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, mapCart(s.Cart().Active().Get()))
}

func mapMergeOffer(o *cartuc.MergeOffer) map[string]any {
	if o == nil {
		return nil
	}
	guest := &domcart.Cart{Items: o.Items}
	return map[string]any{
		"user_id": o.UserID,
		"items":   mapCart(guest)["items"],
		"count":   guest.Count(),
	}
}
