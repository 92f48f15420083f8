package apiclient

import (
	"context"
	"net/http"
	"net/url"

	"github.com/shopspring/decimal"

	domcart "example.com/storefront/internal/domain/cart"
)

type wireProductRef struct {
	ID    string          `json:"id"`
	Name  string          `json:"name,omitempty"`
	Price decimal.Decimal `json:"price"`
}

type wireCartItem struct {
	ID           string          `json:"id"`
	Unit         int             `json:"unit"`
	Total        decimal.Decimal `json:"total"`
	ShippingCost decimal.Decimal `json:"shippingCost"`
	Product      wireProductRef  `json:"product"`
}

type wireCart struct {
	UserID    string         `json:"userId,omitempty"`
	CartItems []wireCartItem `json:"cartItems"`
}

func toWireItems(items []domcart.Item) []wireCartItem {
	out := make([]wireCartItem, 0, len(items))
	for _, it := range items {
		out = append(out, wireCartItem{
			ID:           it.ID,
			Unit:         it.Unit,
			Total:        it.LineTotal,
			ShippingCost: it.ShippingCost,
			Product:      wireProductRef{ID: it.ProductID, Name: it.ProductName, Price: it.UnitPrice},
		})
	}
	return out
}

func (w wireCart) toDomain(owner string) *domcart.Cart {
	c := &domcart.Cart{Owner: owner, Items: make([]domcart.Item, 0, len(w.CartItems))}
	for _, it := range w.CartItems {
		c.Items = append(c.Items, domcart.Item{
			ID:           it.ID,
			ProductID:    it.Product.ID,
			ProductName:  it.Product.Name,
			Unit:         it.Unit,
			UnitPrice:    it.Product.Price,
			ShippingCost: it.ShippingCost,
		})
	}
	c.Normalize()
	return c
}

type CartClient struct {
	c *Client
}

func NewCartClient(c *Client) *CartClient {
	return &CartClient{c: c}
}

var _ domcart.API = (*CartClient)(nil)

func (a *CartClient) Get(ctx context.Context, userID string) (*domcart.Cart, error) {
	var w wireCart
	if err := a.c.do(ctx, http.MethodGet, "/cart/"+url.PathEscape(userID), nil, nil, &w, nil); err != nil {
		return nil, err
	}
	return w.toDomain(userID), nil
}

func (a *CartClient) Add(ctx context.Context, in domcart.AddInput) error {
	body := struct {
		UserID       string          `json:"userId"`
		Unit         int             `json:"unit"`
		ProductID    string          `json:"productId"`
		ProductPrice decimal.Decimal `json:"productPrice"`
	}{in.UserID, in.Unit, in.ProductID, in.ProductPrice}
	return a.c.do(ctx, http.MethodPost, "/cart/add", nil, body, nil, nil)
}

func (a *CartClient) Update(ctx context.Context, itemID string, in domcart.UpdateInput) error {
	body := struct {
		Unit         int             `json:"unit"`
		ProductPrice decimal.Decimal `json:"productPrice"`
	}{in.Unit, in.ProductPrice}
	return a.c.do(ctx, http.MethodPatch, "/cart/"+url.PathEscape(itemID)+"/update", nil, body, nil, domcart.ErrItemNotFound)
}

func (a *CartClient) Delete(ctx context.Context, itemID string) error {
	return a.c.do(ctx, http.MethodDelete, "/cart/"+url.PathEscape(itemID)+"/delete", nil, nil, nil, domcart.ErrItemNotFound)
}

func (a *CartClient) Merge(ctx context.Context, userID string, items []domcart.Item) (*domcart.Cart, error) {
	var w wireCart
	body := wireCart{CartItems: toWireItems(items)}
	if err := a.c.do(ctx, http.MethodPost, "/cart/"+url.PathEscape(userID)+"/merge", nil, body, &w, nil); err != nil {
		return nil, err
	}
	return w.toDomain(userID), nil
}
