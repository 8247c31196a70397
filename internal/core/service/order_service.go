package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/rl1809/storefront/internal/core/domain"
	"github.com/rl1809/storefront/internal/port"
)

var (
	ErrEmptyCart               = errors.New("cart is empty")
	ErrIncompleteAddress       = errors.New("address is incomplete")
	ErrInvalidPaymentMethod    = errors.New("invalid payment method")
	ErrFastDeliveryUnavailable = errors.New("fast delivery unavailable for this cart")
	ErrMissingProduct          = errors.New("cart item has no product")
	ErrOrderNotFound           = errors.New("order not found")
	ErrOrderNotCancellable     = errors.New("order cannot be cancelled")
	ErrCartNotCleared          = errors.New("order placed but cart not cleared")
)

var DefaultFastDeliveryFee = decimal.RequireFromString("5.99")

type CheckoutRequest struct {
	Address       domain.Address
	PaymentMethod domain.PaymentMethod
	FastDelivery  bool
}

type Quote struct {
	Subtotal              decimal.Decimal `json:"subtotal"`
	FastDeliveryAvailable bool            `json:"fast_delivery_available"`
	FastDelivery          bool            `json:"fast_delivery"`
	FastDeliveryFee       decimal.Decimal `json:"fast_delivery_fee"`
	Total                 decimal.Decimal `json:"total"`
}

// OrderService turns a cart into orders and keeps the per-identity ledger,
// most recent first.
type OrderService struct {
	storage port.BrowserStorage
	catalog *Catalog
	fee     decimal.Decimal
	metrics port.Metrics
	logger  zerolog.Logger
	now     func() time.Time
	newID   func() string
}

func NewOrderService(storage port.BrowserStorage, catalog *Catalog, fee decimal.Decimal, metrics port.Metrics, logger zerolog.Logger) *OrderService {
	return &OrderService{
		storage: storage,
		catalog: catalog,
		fee:     fee,
		metrics: metrics,
		logger:  logger.With().Str("component", "orders").Logger(),
		now:     time.Now,
		newID:   uuid.NewString,
	}
}

// Quote prices the cart without placing an order. A fast delivery request is
// dropped from the quote when no item is eligible. Lines without a snapshot
// are priced from the catalog the way Place prices them, so the quote can
// exceed CartStore.Total, which counts such lines as 0; lines the catalog
// cannot resolve are skipped.
func (s *OrderService) Quote(items []domain.CartItem, fastDelivery bool) Quote {
	q := Quote{Subtotal: decimal.Zero, FastDeliveryFee: decimal.Zero}
	for _, it := range items {
		if p, ok := s.resolve(it); ok {
			q.Subtotal = q.Subtotal.Add(p.EffectivePrice().Mul(decimal.NewFromInt(int64(it.Quantity))))
			q.FastDeliveryAvailable = q.FastDeliveryAvailable || p.FastDeliveryAvailable
		}
	}
	if fastDelivery && q.FastDeliveryAvailable {
		q.FastDelivery = true
		q.FastDeliveryFee = s.fee
	}
	q.Total = q.Subtotal.Add(q.FastDeliveryFee)
	return q
}

// Place builds an order from cart, prepends it to the ledger of user and
// clears the cart. Nothing is written when validation fails. When the order
// is recorded but the cart cannot be cleared from storage, the order is
// returned together with ErrCartNotCleared; the in-memory cart is empty
// either way.
func (s *OrderService) Place(ctx context.Context, user domain.User, cart *CartStore, req CheckoutRequest) (domain.Order, error) {
	if user.ID == "" || cart.Owner() != user.ID {
		return domain.Order{}, ErrNoIdentity
	}
	if !req.Address.Complete() {
		return domain.Order{}, ErrIncompleteAddress
	}
	if !req.PaymentMethod.Valid() {
		return domain.Order{}, fmt.Errorf("%w: %q", ErrInvalidPaymentMethod, req.PaymentMethod)
	}
	items := cart.Items()
	if len(items) == 0 {
		return domain.Order{}, ErrEmptyCart
	}

	now := s.now().UTC()
	order := domain.Order{
		ID:              s.newID(),
		UserID:          user.ID,
		Status:          domain.OrderStatusPending,
		FastDeliveryFee: decimal.Zero,
		PaymentMethod:   req.PaymentMethod,
		PaymentStatus:   domain.PaymentStatusFor(req.PaymentMethod),
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	subtotal := decimal.Zero
	eligible := false
	for _, it := range items {
		p, ok := s.resolve(it)
		if !ok {
			return domain.Order{}, fmt.Errorf("%w: %s", ErrMissingProduct, it.ProductID)
		}
		price := p.EffectivePrice()
		order.Items = append(order.Items, domain.OrderItem{
			ID:              s.newID(),
			OrderID:         order.ID,
			ProductID:       it.ProductID,
			Quantity:        it.Quantity,
			PriceAtPurchase: price,
			Product:         domain.PresentProduct(p),
		})
		subtotal = subtotal.Add(price.Mul(decimal.NewFromInt(int64(it.Quantity))))
		eligible = eligible || p.FastDeliveryAvailable
	}

	if req.FastDelivery {
		if !eligible {
			return domain.Order{}, ErrFastDeliveryUnavailable
		}
		order.FastDelivery = true
		order.FastDeliveryFee = s.fee
	}
	order.TotalAmount = subtotal.Add(order.FastDeliveryFee)

	addr := normalizeAddress(req.Address, user.ID, s.newID)
	order.AddressID = addr.ID
	order.Address = &addr

	ledger, err := s.load(ctx, user.ID)
	if err != nil {
		return domain.Order{}, err
	}
	ledger = append([]domain.Order{order}, ledger...)
	if err := saveRecord(ctx, s.storage, ordersKey(user.ID), ledger); err != nil {
		return domain.Order{}, err
	}

	s.metrics.OrderPlaced(string(order.PaymentMethod))
	s.logger.Info().
		Str("order_id", order.ID).
		Str("user_id", user.ID).
		Str("total", order.TotalAmount.StringFixed(2)).
		Str("payment_method", string(order.PaymentMethod)).
		Bool("fast_delivery", order.FastDelivery).
		Msg("order placed")

	if err := cart.Clear(ctx); err != nil {
		s.logger.Error().Err(err).Str("order_id", order.ID).Msg("order placed but cart not cleared")
		return order, fmt.Errorf("%w: order %s: %w", ErrCartNotCleared, order.ID, err)
	}
	return order, nil
}

// List returns the orders of userID, most recent first.
func (s *OrderService) List(ctx context.Context, userID string) ([]domain.Order, error) {
	return s.load(ctx, userID)
}

// Cancel moves a pending order to cancelled. Orders in any other status are
// left untouched and ErrOrderNotCancellable is returned.
func (s *OrderService) Cancel(ctx context.Context, userID, orderID string) (domain.Order, error) {
	ledger, err := s.load(ctx, userID)
	if err != nil {
		return domain.Order{}, err
	}
	for i := range ledger {
		if ledger[i].ID != orderID {
			continue
		}
		if !ledger[i].Cancel(s.now().UTC()) {
			return ledger[i], fmt.Errorf("%w: status %s", ErrOrderNotCancellable, ledger[i].Status)
		}
		if err := saveRecord(ctx, s.storage, ordersKey(userID), ledger); err != nil {
			return domain.Order{}, err
		}
		s.metrics.OrderCancelled()
		s.logger.Info().Str("order_id", orderID).Str("user_id", userID).Msg("order cancelled")
		return ledger[i], nil
	}
	return domain.Order{}, ErrOrderNotFound
}

func (s *OrderService) load(ctx context.Context, userID string) ([]domain.Order, error) {
	var ledger []domain.Order
	if _, err := loadRecord(ctx, s.storage, ordersKey(userID), &ledger); err != nil {
		if errors.Is(err, ErrCorruptRecord) {
			s.metrics.CorruptRecord("orders")
		}
		return nil, err
	}
	for _, o := range ledger {
		if o.ID == "" || !o.Status.Valid() {
			s.metrics.CorruptRecord("orders")
			return nil, fmt.Errorf("%w: order %q with status %q", ErrCorruptRecord, o.ID, o.Status)
		}
	}
	return ledger, nil
}

// resolve prefers the cart snapshot and falls back to the catalog when the
// snapshot was lost.
func (s *OrderService) resolve(it domain.CartItem) (domain.Product, bool) {
	if p, ok := it.Product.Get(); ok {
		return p, true
	}
	if s.catalog == nil {
		return domain.Product{}, false
	}
	return s.catalog.Product(it.ProductID)
}

func normalizeAddress(a domain.Address, userID string, newID func() string) domain.Address {
	a.StreetAddress = strings.TrimSpace(a.StreetAddress)
	a.City = strings.TrimSpace(a.City)
	a.State = strings.TrimSpace(a.State)
	a.PostalCode = strings.TrimSpace(a.PostalCode)
	a.Country = strings.TrimSpace(a.Country)
	if a.Country == "" {
		a.Country = domain.DefaultCountry
	}
	if a.AddressType == "" {
		a.AddressType = domain.AddressHome
	}
	if a.ID == "" {
		a.ID = newID()
	}
	a.UserID = userID
	return a
}
