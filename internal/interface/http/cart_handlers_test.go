package http

import (
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	domcart "example.com/storefront/internal/domain/cart"
)

func addMug(t *testing.T, ta *testAPI, sid string, unit int) map[string]any {
	t.Helper()
	rec := ta.do(t, http.MethodPost, "/api/v1/cart/items", sid, map[string]any{
		"product_id":   "p2",
		"product_name": "Mug",
		"unit":         unit,
		"unit_price":   "12",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode(t, rec)
}

func TestCart_GuestAddAndGet(t *testing.T) {
	ta := setupAPI(t)
	sid := uuid.NewString()

	addMug(t, ta, sid, 2)
	body := addMug(t, ta, sid, 1)
	require.Equal(t, float64(1), body["count"], "same product adds units to one line")

	rec := ta.do(t, http.MethodGet, "/api/v1/cart", sid, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body = decode(t, rec)
	require.Equal(t, true, body["guest"])
	items := body["items"].([]any)
	require.Len(t, items, 1)
	item := items[0].(map[string]any)
	require.Equal(t, "p2", item["product_id"])
	require.Equal(t, float64(3), item["unit"])
	require.Equal(t, "36", item["line_total"])

	rec = ta.do(t, http.MethodGet, "/api/v1/cart", uuid.NewString(), nil)
	require.Equal(t, float64(0), decode(t, rec)["count"], "sessions do not share carts")
}

func TestCart_AddItemValidation(t *testing.T) {
	ta := setupAPI(t)
	sid := uuid.NewString()

	rec := ta.do(t, http.MethodPost, "/api/v1/cart/items", sid, map[string]any{"product_id": "p2", "unit": 0})
	require.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())

	rec = ta.do(t, http.MethodPost, "/api/v1/cart/items", sid, map[string]any{
		"product_id": "p2", "unit": 1, "unit_price": "-1",
	})
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code, rec.Body.String())
}

func TestCart_UpdateAndRemoveGuestItem(t *testing.T) {
	ta := setupAPI(t)
	sid := uuid.NewString()

	body := addMug(t, ta, sid, 1)
	id := body["items"].([]any)[0].(map[string]any)["id"].(string)

	rec := ta.do(t, http.MethodPatch, "/api/v1/cart/items/"+id, sid, map[string]any{"unit": 4})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	item := decode(t, rec)["items"].([]any)[0].(map[string]any)
	require.Equal(t, float64(4), item["unit"])
	require.Equal(t, "48", item["line_total"])

	rec = ta.do(t, http.MethodDelete, "/api/v1/cart/items/"+id, sid, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.Equal(t, float64(0), decode(t, rec)["count"])

	rec = ta.do(t, http.MethodDelete, "/api/v1/cart/items/"+id, sid, nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCart_MergeConfirmFlow(t *testing.T) {
	ta := setupAPI(t)
	sid := uuid.NewString()
	addMug(t, ta, sid, 2)

	rec := ta.do(t, http.MethodPost, "/api/v1/session/login", sid, map[string]any{"token": ta.token(t, "u1")})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	offer := decode(t, rec)["pending_merge"].(map[string]any)
	require.Equal(t, "u1", offer["user_id"])
	require.Equal(t, float64(1), offer["count"])

	rec = ta.do(t, http.MethodPost, "/api/v1/cart/merge/confirm", sid, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := decode(t, rec)
	require.Equal(t, "u1", body["owner"])
	require.Equal(t, float64(1), body["count"])
	require.Equal(t, 1, ta.carts.merges)

	rec = ta.do(t, http.MethodPost, "/api/v1/cart/merge/confirm", sid, nil)
	require.Equal(t, http.StatusConflict, rec.Code)
}

func TestCart_MergeDecline(t *testing.T) {
	ta := setupAPI(t)
	sid := uuid.NewString()
	addMug(t, ta, sid, 1)

	rec := ta.do(t, http.MethodPost, "/api/v1/session/login", sid, map[string]any{"token": ta.token(t, "u1")})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = ta.do(t, http.MethodPost, "/api/v1/cart/merge/decline", sid, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.Equal(t, float64(0), decode(t, rec)["count"])
	require.Equal(t, 0, ta.carts.merges)

	rec = ta.do(t, http.MethodPost, "/api/v1/cart/merge/decline", sid, nil)
	require.Equal(t, http.StatusConflict, rec.Code)
}

func TestCart_RefreshRefetchesMemberCart(t *testing.T) {
	ta := setupAPI(t)
	sid := uuid.NewString()
	rec := ta.do(t, http.MethodPost, "/api/v1/session/login", sid, map[string]any{"token": ta.token(t, "u1")})
	require.Equal(t, http.StatusOK, rec.Code)

	ta.carts.mu.Lock()
	ta.carts.carts["u1"] = &domcart.Cart{Owner: "u1", Items: []domcart.Item{
		{ID: "srv-7", ProductID: "p1", Unit: 2, UnitPrice: decimal.NewFromInt(30)},
	}}
	ta.carts.mu.Unlock()

	rec = ta.do(t, http.MethodGet, "/api/v1/cart", sid, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, float64(0), decode(t, rec)["count"], "member cart is served from cache")

	rec = ta.do(t, http.MethodPost, "/api/v1/cart/refresh", sid, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.Equal(t, float64(1), decode(t, rec)["count"])
}
