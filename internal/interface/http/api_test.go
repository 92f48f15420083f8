package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	domcart "example.com/storefront/internal/domain/cart"
	"example.com/storefront/internal/domain/listing"
	domorder "example.com/storefront/internal/domain/order"
	domproduct "example.com/storefront/internal/domain/product"
	"example.com/storefront/internal/domain/remote"
	domuser "example.com/storefront/internal/domain/user"
	"example.com/storefront/internal/infra/persistence"
	"example.com/storefront/internal/infra/persistence/memory"
	"example.com/storefront/internal/infra/security"
	authuc "example.com/storefront/internal/usecase/auth"
	productuc "example.com/storefront/internal/usecase/product"
	"example.com/storefront/internal/usecase/session"
)

type fakeCartAPI struct {
	mu       sync.Mutex
	carts    map[string]*domcart.Cart
	mergeErr error
	merges   int
}

func newFakeCartAPI() *fakeCartAPI {
	return &fakeCartAPI{carts: make(map[string]*domcart.Cart)}
}

func (f *fakeCartAPI) Get(_ context.Context, userID string) (*domcart.Cart, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if c, ok := f.carts[userID]; ok {
		return c.Clone(), nil
	}
	return &domcart.Cart{Owner: userID, Items: []domcart.Item{}}, nil
}

func (f *fakeCartAPI) Add(context.Context, domcart.AddInput) error { return nil }

func (f *fakeCartAPI) Update(context.Context, string, domcart.UpdateInput) error { return nil }

func (f *fakeCartAPI) Delete(context.Context, string) error { return nil }

func (f *fakeCartAPI) Merge(_ context.Context, userID string, items []domcart.Item) (*domcart.Cart, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.merges++
	if f.mergeErr != nil {
		return nil, f.mergeErr
	}
	c := &domcart.Cart{Owner: userID}
	for i, item := range items {
		item.ID = fmt.Sprintf("srv-%d", i+1)
		c.Items = append(c.Items, item)
	}
	f.carts[userID] = c
	return c.Clone(), nil
}

type fakeOrderAPI struct{}

func (fakeOrderAPI) List(_ context.Context, userID string, f listing.Filter) (*listing.Page[domorder.Order], error) {
	return &listing.Page[domorder.Order]{
		Items:    []domorder.Order{{ID: "o1", UserID: userID, TotalAmount: decimal.NewFromInt(40)}},
		Total:    1,
		Page:     f.Page,
		PageSize: f.PageSize,
	}, nil
}

func (fakeOrderAPI) GetByID(_ context.Context, id string) (*domorder.Order, error) {
	if id != "o1" {
		return nil, fmt.Errorf("%w: %w", domorder.ErrOrderNotFound, remote.ErrRejected)
	}
	return &domorder.Order{ID: "o1"}, nil
}

type fakeProductAPI struct {
	lists   atomic.Int32
	details atomic.Int32
	similar atomic.Int32
}

func teapot() domproduct.Product {
	return domproduct.Product{
		ID:          "p1",
		Name:        "Teapot",
		Price:       decimal.NewFromInt(30),
		Category:    &domproduct.Category{ID: "c1", Name: "Kitchen & Dining"},
		SubCategory: &domproduct.Category{ID: "s1", Name: "Tea Pots"},
	}
}

func (p *fakeProductAPI) List(_ context.Context, f listing.Filter) (*listing.Page[domproduct.Product], error) {
	p.lists.Add(1)
	return &listing.Page[domproduct.Product]{
		Items: []domproduct.Product{
			teapot(),
			{ID: "p2", Name: "Mug", Price: decimal.NewFromInt(12)},
		},
		Total:    2,
		Page:     f.Page,
		PageSize: f.PageSize,
	}, nil
}

func (f *fakeProductAPI) Similar(_ context.Context, productID, categoryID string) ([]domproduct.Product, error) {
	f.similar.Add(1)
	return []domproduct.Product{{ID: "p3", Name: "Kettle", Category: &domproduct.Category{ID: categoryID, Name: "Kitchen & Dining"}}}, nil
}

func (f *fakeProductAPI) GetByID(_ context.Context, id string) (*domproduct.Product, error) {
	f.details.Add(1)
	switch id {
	case "p1":
		p := teapot()
		return &p, nil
	case "flaky":
		return nil, fmt.Errorf("status 502: %w", remote.ErrTransient)
	default:
		return nil, fmt.Errorf("%w: %w", domproduct.ErrProductNotFound, remote.ErrRejected)
	}
}

type testAPI struct {
	handler http.Handler
	tokens   *security.JWTService
	carts    *fakeCartAPI
	products *fakeProductAPI
}

func setupAPI(t *testing.T) *testAPI {
	t.Helper()
	carts := newFakeCartAPI()
	products := &fakeProductAPI{}
	registry := session.NewRegistry(context.Background(), session.Deps{
		Carts:    carts,
		Orders:   fakeOrderAPI{},
		Products: productuc.NewService(products, 3),
		Store:    persistence.NewStore(memory.NewBackend()),
		Attempts: 3,
	})
	t.Cleanup(registry.Close)

	tokens := security.NewJWTService("test-secret", time.Hour)
	api := NewAPI(Dependencies{
		Sessions:    registry,
		AuthService: authuc.NewService(tokens),
	})
	return &testAPI{handler: api.Router(), tokens: tokens, carts: carts, products: products}
}

func (ta *testAPI) token(t *testing.T, userID string) string {
	t.Helper()
	token, err := ta.tokens.GenerateToken(domuser.Identity{UserID: userID, Email: userID + "@example.com"})
	require.NoError(t, err)
	return token
}

func (ta *testAPI) do(t *testing.T, method, path, sessionID string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if sessionID != "" {
		req.Header.Set(SessionHeader, sessionID)
	}
	rec := httptest.NewRecorder()
	ta.handler.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func TestHealth(t *testing.T) {
	ta := setupAPI(t)
	rec := ta.do(t, http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "ok", decode(t, rec)["status"])
}

func TestSessionHeader_IssuedEchoedAndReplaced(t *testing.T) {
	ta := setupAPI(t)

	rec := ta.do(t, http.MethodGet, "/api/v1/session", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	issued := rec.Header().Get(SessionHeader)
	_, err := uuid.Parse(issued)
	require.NoError(t, err)
	require.Equal(t, issued, decode(t, rec)["session_id"])

	rec = ta.do(t, http.MethodGet, "/api/v1/session", issued, nil)
	require.Equal(t, issued, rec.Header().Get(SessionHeader))

	rec = ta.do(t, http.MethodGet, "/api/v1/session", "not-a-uuid", nil)
	require.NotEqual(t, "not-a-uuid", rec.Header().Get(SessionHeader))
}

func TestHandleDomainError_StatusMapping(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{domcart.ErrInvalidUnit, http.StatusUnprocessableEntity},
		{fmt.Errorf("sort: %w", listing.ErrUnknownColumn), http.StatusUnprocessableEntity},
		{domcart.ErrItemNotFound, http.StatusNotFound},
		{fmt.Errorf("%w: %w", domorder.ErrOrderNotFound, remote.ErrRejected), http.StatusNotFound},
		{session.ErrUnauthenticated, http.StatusUnauthorized},
		{domuser.ErrInvalidCredential, http.StatusUnauthorized},
		{domcart.ErrNoPendingMerge, http.StatusConflict},
		{fmt.Errorf("%w: %w", domcart.ErrMergeRejected, remote.ErrRejected), http.StatusConflict},
		{domcart.ErrSessionChanged, http.StatusConflict},
		{fmt.Errorf("get cart: %w", remote.ErrTransient), http.StatusServiceUnavailable},
		{remote.ErrRejected, http.StatusBadGateway},
		{fmt.Errorf("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		rec := httptest.NewRecorder()
		handleDomainError(rec, tc.err)
		require.Equal(t, tc.want, rec.Code, tc.err.Error())
	}
}
