package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	domcart "example.com/storefront/internal/domain/cart"
	domcategory "example.com/storefront/internal/domain/category"
	"example.com/storefront/internal/domain/listing"
	domorder "example.com/storefront/internal/domain/order"
	domproduct "example.com/storefront/internal/domain/product"
	"example.com/storefront/internal/domain/remote"
	domuser "example.com/storefront/internal/domain/user"
	authuc "example.com/storefront/internal/usecase/auth"
	"example.com/storefront/internal/usecase/filter"
	"example.com/storefront/internal/usecase/session"
)

type API struct {
	sessions  *session.Registry
	authSvc   *authuc.Service
	validator *validator.Validate
	logger    *slog.Logger
}

type Dependencies struct {
	Sessions    *session.Registry
	AuthService *authuc.Service
	Logger      *slog.Logger
}

func NewAPI(deps Dependencies) *API {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &API{
		sessions:  deps.Sessions,
		authSvc:   deps.AuthService,
		validator: validator.New(),
		logger:    logger,
	}
}

// Handler is the router wrapped in otelhttp instrumentation.
func (a *API) Handler() http.Handler {
	return otelhttp.NewHandler(a.Router(), "storefront")
}

func (a *API) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(chimw.AllowContentType("application/json", "text/plain"))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(a.sessionMiddleware)

		r.Post("/session/login", a.handleLogin)
		r.Post("/session/logout", a.handleLogout)
		r.Get("/session", a.handleGetSession)

		r.Route("/cart", func(cr chi.Router) {
			cr.Get("/", a.handleGetCart)
			cr.Post("/refresh", a.handleRefreshCart)
			cr.Post("/items", a.handleAddCartItem)
			cr.Patch("/items/{id}", a.handleUpdateCartItem)
			cr.Delete("/items/{id}", a.handleRemoveCartItem)
			cr.Post("/merge/confirm", a.handleConfirmMerge)
			cr.Post("/merge/decline", a.handleDeclineMerge)
		})

		r.Route("/orders", listingRoutes(a, ordersOf, a.handleGetOrder))
		r.Route("/products", func(pr chi.Router) {
			listingRoutes(a, productsOf, a.handleGetProduct)(pr)
			pr.Get("/{id}/similar", a.handleSimilarProducts)
		})
		r.Get("/categories", a.handleListCategories)
	})

	return r
}

func (a *API) decodeAndValidate(r *http.Request, dst any) error {
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return err
	}
	return a.validator.Struct(dst)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

type errorResponse struct {
	Error   string `json:"error"`
	Details any    `json:"details,omitempty"`
}

func respondError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

func mapCart(c *domcart.Cart) map[string]any {
	if c == nil {
		return nil
	}
	items := make([]map[string]any, 0, len(c.Items))
	for _, item := range c.Items {
		items = append(items, map[string]any{
			"id":            item.ID,
			"product_id":    item.ProductID,
			"product_name":  item.ProductName,
			"unit":          item.Unit,
			"unit_price":    item.UnitPrice,
			"line_total":    item.LineTotal,
			"shipping_cost": item.ShippingCost,
		})
	}
	return map[string]any{
		"owner":    c.Owner,
		"guest":    c.IsGuest(),
		"items":    items,
		"count":    c.Count(),
		"subtotal": c.Subtotal(),
		"shipping": c.ShippingTotal(),
		"total":    c.Total(),
	}
}

func mapIdentity(id *domuser.Identity) map[string]any {
	if id == nil {
		return nil
	}
	return map[string]any{
		"user_id": id.UserID,
		"email":   id.Email,
		"name":    id.Name,
	}
}

func handleDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domcart.ErrInvalidUnit),
		errors.Is(err, domcart.ErrInvalidPrice),
		errors.Is(err, domorder.ErrInvalidStatus),
		errors.Is(err, listing.ErrUnknownColumn):
		respondError(w, http.StatusUnprocessableEntity, err)
	case errors.Is(err, domcategory.ErrCategoryInvalidSlug):
		respondError(w, http.StatusBadRequest, err)
	case errors.Is(err, domcart.ErrItemNotFound),
		errors.Is(err, domcategory.ErrCategoryNotFound),
		errors.Is(err, domproduct.ErrProductNotFound),
		errors.Is(err, domorder.ErrOrderNotFound):
		respondError(w, http.StatusNotFound, err)
	case errors.Is(err, session.ErrUnauthenticated),
		errors.Is(err, domuser.ErrUnauthorized),
		errors.Is(err, domuser.ErrInvalidCredential):
		respondError(w, http.StatusUnauthorized, err)
	case errors.Is(err, domcart.ErrNoPendingMerge),
		errors.Is(err, domcart.ErrMergeInProgress),
		errors.Is(err, domcart.ErrMergeRejected),
		errors.Is(err, domcart.ErrSessionChanged),
		errors.Is(err, filter.ErrNotLoaded):
		respondError(w, http.StatusConflict, err)
	case errors.Is(err, remote.ErrTransient):
		respondError(w, http.StatusServiceUnavailable, err)
	case errors.Is(err, remote.ErrRejected):
		// The storefront API refused a request we considered valid.
		respondError(w, http.StatusBadGateway, err)
	default:
		respondError(w, http.StatusInternalServerError, err)
	}
}
