package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/rl1809/storefront/internal/adapter/metrics"
	"github.com/rl1809/storefront/internal/core/domain"
	"github.com/rl1809/storefront/internal/core/service"
)

type HTTPHandler struct {
	catalog  *service.Catalog
	browsers *service.Browsers
	tokens   *BrowserTokens
	metrics  *metrics.Prometheus
	logger   zerolog.Logger
}

type errorResponse struct {
	Error string `json:"error"`
}

type productView struct {
	domain.Product
	EffectivePrice string `json:"effective_price"`
	StockLabel     string `json:"stock_label"`
}

type orderView struct {
	domain.Order
	StatusLabel  string `json:"status_label"`
	StatusNote   string `json:"status_note,omitempty"`
	PaymentLabel string `json:"payment_label"`
	Cancellable  bool   `json:"cancellable"`
}

type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"full_name"`
	Phone    string `json:"phone"`
}

type SignInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type AddItemRequest struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

type SetQuantityRequest struct {
	Quantity int `json:"quantity"`
}

type CheckoutHTTPRequest struct {
	Address       domain.Address       `json:"address"`
	PaymentMethod domain.PaymentMethod `json:"payment_method"`
	FastDelivery  bool                 `json:"fast_delivery"`
}

// NewHTTPHandler wires the storefront API. m may be nil to run without
// request metrics.
func NewHTTPHandler(catalog *service.Catalog, browsers *service.Browsers, tokens *BrowserTokens, m *metrics.Prometheus, logger zerolog.Logger) *HTTPHandler {
	return &HTTPHandler{
		catalog:  catalog,
		browsers: browsers,
		tokens:   tokens,
		metrics:  m,
		logger:   logger.With().Str("component", "http").Logger(),
	}
}

func (h *HTTPHandler) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(requestIDMiddleware)
	r.Use(middleware.RealIP)
	r.Use(loggerMiddleware(h.logger))
	if h.metrics != nil {
		r.Use(metricsMiddleware(h.metrics))
	}
	r.Use(recoverMiddleware(h.logger))

	r.Get("/health", h.HealthCheck)
	if h.metrics != nil {
		r.Method(http.MethodGet, "/metrics", h.metrics.Handler())
	}

	r.Route("/api", func(r chi.Router) {
		r.Get("/categories", h.ListCategories)
		r.Route("/products", func(r chi.Router) {
			r.Get("/", h.ListProducts)
			r.Get("/trending", h.Trending)
			r.Get("/offers", h.Offers)
			r.Get("/{id}", h.GetProduct)
		})

		r.Group(func(r chi.Router) {
			r.Use(h.browserMiddleware)

			r.Route("/auth", func(r chi.Router) {
				r.Post("/register", h.Register)
				r.Post("/signin", h.SignIn)
				r.Post("/signout", h.SignOut)
				r.Get("/me", h.Me)
			})

			r.Get("/theme", h.GetTheme)
			r.Post("/theme/toggle", h.ToggleTheme)

			r.Route("/cart", func(r chi.Router) {
				r.Get("/", h.GetCart)
				r.Delete("/", h.ClearCart)
				r.Post("/items", h.AddItem)
				r.Put("/items/{productID}", h.SetQuantity)
				r.Delete("/items/{productID}", h.RemoveItem)
			})

			r.Get("/checkout/quote", h.Quote)
			r.Post("/checkout", h.Checkout)

			r.Route("/orders", func(r chi.Router) {
				r.Get("/", h.ListOrders)
				r.Get("/last", h.LastOrder)
				r.Post("/{id}/cancel", h.CancelOrder)
			})
		})
	})
	return r
}

func (h *HTTPHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "browsers": h.browsers.Len()})
}

func (h *HTTPHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.catalog.Categories())
}

func (h *HTTPHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	writeJSON(w, http.StatusOK, productViews(h.catalog.Filter(q.Get("category"), q.Get("q"))))
}

func (h *HTTPHandler) Trending(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, productViews(h.catalog.Trending()))
}

func (h *HTTPHandler) Offers(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, productViews(h.catalog.OnOffer()))
}

// GetProduct accepts either a product ID or its slug.
func (h *HTTPHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "id")
	p, ok := h.catalog.Product(key)
	if !ok {
		p, ok = h.catalog.ProductBySlug(key)
	}
	if !ok {
		h.writeError(w, r, service.ErrProductNotFound)
		return
	}
	writeJSON(w, http.StatusOK, newProductView(p))
}

func (h *HTTPHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if !decodeBody(w, r, &req) {
		return
	}
	user, err := storefrontFrom(r.Context()).Register(r.Context(), service.RegisterInput{
		Email:    req.Email,
		Password: req.Password,
		FullName: req.FullName,
		Phone:    req.Phone,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, user)
}

func (h *HTTPHandler) SignIn(w http.ResponseWriter, r *http.Request) {
	var req SignInRequest
	if !decodeBody(w, r, &req) {
		return
	}
	user, err := storefrontFrom(r.Context()).SignIn(r.Context(), req.Email, req.Password)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (h *HTTPHandler) SignOut(w http.ResponseWriter, r *http.Request) {
	if err := storefrontFrom(r.Context()).SignOut(r.Context()); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *HTTPHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, ok := storefrontFrom(r.Context()).CurrentUser()
	if !ok {
		h.writeError(w, r, service.ErrNoIdentity)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (h *HTTPHandler) GetTheme(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]domain.Theme{"theme": storefrontFrom(r.Context()).Theme()})
}

func (h *HTTPHandler) ToggleTheme(w http.ResponseWriter, r *http.Request) {
	theme, err := storefrontFrom(r.Context()).ToggleTheme(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]domain.Theme{"theme": theme})
}

func (h *HTTPHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, storefrontFrom(r.Context()).Cart())
}

func (h *HTTPHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	var req AddItemRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.ProductID == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "missing product_id"})
		return
	}
	sf := storefrontFrom(r.Context())
	if err := sf.AddToCart(r.Context(), req.ProductID, req.Quantity); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sf.Cart())
}

func (h *HTTPHandler) SetQuantity(w http.ResponseWriter, r *http.Request) {
	var req SetQuantityRequest
	if !decodeBody(w, r, &req) {
		return
	}
	sf := storefrontFrom(r.Context())
	if err := sf.SetCartQuantity(r.Context(), chi.URLParam(r, "productID"), req.Quantity); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sf.Cart())
}

func (h *HTTPHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	sf := storefrontFrom(r.Context())
	if err := sf.RemoveFromCart(r.Context(), chi.URLParam(r, "productID")); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sf.Cart())
}

func (h *HTTPHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	sf := storefrontFrom(r.Context())
	if err := sf.ClearCart(r.Context()); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sf.Cart())
}

func (h *HTTPHandler) Quote(w http.ResponseWriter, r *http.Request) {
	fast, _ := strconv.ParseBool(r.URL.Query().Get("fast"))
	writeJSON(w, http.StatusOK, storefrontFrom(r.Context()).Quote(fast))
}

func (h *HTTPHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	var req CheckoutHTTPRequest
	if !decodeBody(w, r, &req) {
		return
	}
	order, err := storefrontFrom(r.Context()).PlaceOrder(r.Context(), service.CheckoutRequest{
		Address:       req.Address,
		PaymentMethod: req.PaymentMethod,
		FastDelivery:  req.FastDelivery,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, newOrderView(order))
}

func (h *HTTPHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := storefrontFrom(r.Context()).Orders(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	views := make([]orderView, 0, len(orders))
	for _, o := range orders {
		views = append(views, newOrderView(o))
	}
	writeJSON(w, http.StatusOK, views)
}

func (h *HTTPHandler) LastOrder(w http.ResponseWriter, r *http.Request) {
	order, ok := storefrontFrom(r.Context()).LastOrder()
	if !ok {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "no order placed in this session"})
		return
	}
	writeJSON(w, http.StatusOK, newOrderView(order))
}

func (h *HTTPHandler) CancelOrder(w http.ResponseWriter, r *http.Request) {
	order, err := storefrontFrom(r.Context()).CancelOrder(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newOrderView(order))
}

func (h *HTTPHandler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, _, message := classify(err)
	if status == http.StatusInternalServerError {
		h.logger.Error().Err(err).Str("request_id", infoFrom(r.Context()).id).Msg("request failed")
	}
	writeJSON(w, status, errorResponse{Error: message})
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var syntaxErr *json.SyntaxError
		msg := "invalid request body"
		if errors.As(err, &syntaxErr) {
			msg = "malformed JSON"
		}
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: msg})
		return false
	}
	return true
}

func newProductView(p domain.Product) productView {
	return productView{
		Product:        p,
		EffectivePrice: p.EffectivePrice().StringFixed(2),
		StockLabel:     p.StockLabel(),
	}
}

func productViews(ps []domain.Product) []productView {
	out := make([]productView, 0, len(ps))
	for _, p := range ps {
		out = append(out, newProductView(p))
	}
	return out
}

func newOrderView(o domain.Order) orderView {
	return orderView{
		Order:        o,
		StatusLabel:  o.Status.Label(),
		StatusNote:   o.StatusNote(),
		PaymentLabel: o.PaymentMethod.Label(),
		Cancellable:  o.Status.CanTransitionTo(domain.OrderStatusCancelled),
	}
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
