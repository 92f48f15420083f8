package apiclient

import (
	"context"
	"net/http"
	"net/url"

	"example.com/storefront/internal/domain/listing"
	domorder "example.com/storefront/internal/domain/order"
	domproduct "example.com/storefront/internal/domain/product"
	"example.com/storefront/internal/platform/querycodec"
)

type wirePage[R any] struct {
	Data     []R `json:"data"`
	Total    int `json:"total"`
	Page     int `json:"page"`
	PageSize int `json:"pageSize"`
}

func (w wirePage[R]) toDomain(f listing.Filter) *listing.Page[R] {
	p := &listing.Page[R]{Items: w.Data, Total: w.Total, Page: w.Page, PageSize: w.PageSize}
	if p.Items == nil {
		p.Items = []R{}
	}
	if p.Page == 0 {
		p.Page = f.Page
	}
	if p.PageSize == 0 {
		p.PageSize = f.PageSize
	}
	return p
}

// orderQuery keeps the parameters the order endpoint understands.
func orderQuery(f listing.Filter) url.Values {
	q := querycodec.Encode(f)
	q.Del(querycodec.KeyCategoryID)
	q.Del(querycodec.KeySubCategoryID)
	return q
}

func productQuery(f listing.Filter) url.Values {
	q := querycodec.Encode(f)
	q.Del(querycodec.KeyDeliveryStatus)
	q.Del(querycodec.KeyOrderID)
	return q
}

type OrderClient struct {
	c *Client
}

func NewOrderClient(c *Client) *OrderClient {
	return &OrderClient{c: c}
}

var _ domorder.API = (*OrderClient)(nil)

func (a *OrderClient) List(ctx context.Context, userID string, f listing.Filter) (*listing.Page[domorder.Order], error) {
	var w wirePage[domorder.Order]
	if err := a.c.do(ctx, http.MethodGet, "/order/"+url.PathEscape(userID), orderQuery(f), nil, &w, nil); err != nil {
		return nil, err
	}
	return w.toDomain(f), nil
}

func (a *OrderClient) GetByID(ctx context.Context, id string) (*domorder.Order, error) {
	var o domorder.Order
	if err := a.c.do(ctx, http.MethodGet, "/order/user/"+url.PathEscape(id), nil, nil, &o, domorder.ErrOrderNotFound); err != nil {
		return nil, err
	}
	return &o, nil
}

type ProductClient struct {
	c *Client
}

func NewProductClient(c *Client) *ProductClient {
	return &ProductClient{c: c}
}

var _ domproduct.API = (*ProductClient)(nil)

func (a *ProductClient) List(ctx context.Context, f listing.Filter) (*listing.Page[domproduct.Product], error) {
	var w wirePage[domproduct.Product]
	if err := a.c.do(ctx, http.MethodGet, "/product/all", productQuery(f), nil, &w, nil); err != nil {
		return nil, err
	}
	return w.toDomain(f), nil
}

func (a *ProductClient) Similar(ctx context.Context, productID, categoryID string) ([]domproduct.Product, error) {
	var out []domproduct.Product
	path := "/product/" + url.PathEscape(productID) + "/similar/" + url.PathEscape(categoryID)
	if err := a.c.do(ctx, http.MethodGet, path, nil, nil, &out, domproduct.ErrProductNotFound); err != nil {
		return nil, err
	}
	if out == nil {
		out = []domproduct.Product{}
	}
	return out, nil
}

func (a *ProductClient) GetByID(ctx context.Context, id string) (*domproduct.Product, error) {
	var p domproduct.Product
	if err := a.c.do(ctx, http.MethodGet, "/product/"+url.PathEscape(id), nil, nil, &p, domproduct.ErrProductNotFound); err != nil {
		return nil, err
	}
	return &p, nil
}
