package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCancelled  OrderStatus = "cancelled"
)

var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusPending:    {OrderStatusProcessing, OrderStatusShipped, OrderStatusDelivered, OrderStatusCancelled},
	OrderStatusProcessing: {OrderStatusShipped, OrderStatusDelivered},
	OrderStatusShipped:    {OrderStatusDelivered},
}

func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusPending, OrderStatusProcessing, OrderStatusShipped, OrderStatusDelivered, OrderStatusCancelled:
		return true
	}
	return false
}

func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	for _, allowed := range orderTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Label is the capitalized status shown in order history.
func (s OrderStatus) Label() string {
	if s == "" {
		return ""
	}
	return strings.ToUpper(string(s[:1])) + string(s[1:])
}

type PaymentMethod string

const (
	PaymentMethodCard PaymentMethod = "card"
	PaymentMethodCOD  PaymentMethod = "cod"
)

func (m PaymentMethod) Valid() bool {
	return m == PaymentMethodCard || m == PaymentMethodCOD
}

func (m PaymentMethod) Label() string {
	if m == PaymentMethodCard {
		return "Card"
	}
	return "Cash on Delivery"
}

type PaymentStatus string

const (
	PaymentStatusPaid    PaymentStatus = "paid"
	PaymentStatusPending PaymentStatus = "pending"
)

// PaymentStatusFor returns paid for card payments; cash on delivery stays
// pending until the courier collects it.
func PaymentStatusFor(m PaymentMethod) PaymentStatus {
	if m == PaymentMethodCard {
		return PaymentStatusPaid
	}
	return PaymentStatusPending
}

type AddressType string

const (
	AddressHome  AddressType = "home"
	AddressWork  AddressType = "work"
	AddressOther AddressType = "other"
)

const DefaultCountry = "USA"

type Address struct {
	ID            string      `json:"id"`
	UserID        string      `json:"user_id"`
	AddressType   AddressType `json:"address_type"`
	StreetAddress string      `json:"street_address"`
	City          string      `json:"city"`
	State         string      `json:"state"`
	PostalCode    string      `json:"postal_code"`
	Country       string      `json:"country"`
	IsDefault     bool        `json:"is_default"`
}

// Complete reports whether every field required to place an order is set.
func (a Address) Complete() bool {
	for _, f := range []string{a.StreetAddress, a.City, a.State, a.PostalCode} {
		if strings.TrimSpace(f) == "" {
			return false
		}
	}
	return true
}

type OrderItem struct {
	ID              string          `json:"id"`
	OrderID         string          `json:"order_id"`
	ProductID       string          `json:"product_id"`
	Quantity        int             `json:"quantity"`
	PriceAtPurchase decimal.Decimal `json:"price_at_purchase"`
	Product         ProductRef      `json:"product"`
}

func (i OrderItem) LineTotal() decimal.Decimal {
	return i.PriceAtPurchase.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

type Order struct {
	ID              string          `json:"id"`
	UserID          string          `json:"user_id"`
	AddressID       string          `json:"address_id"`
	Address         *Address        `json:"address,omitempty"`
	TotalAmount     decimal.Decimal `json:"total_amount"`
	Status          OrderStatus     `json:"status"`
	FastDelivery    bool            `json:"fast_delivery"`
	FastDeliveryFee decimal.Decimal `json:"fast_delivery_fee"`
	PaymentMethod   PaymentMethod   `json:"payment_method"`
	PaymentStatus   PaymentStatus   `json:"payment_status"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
	Items           []OrderItem     `json:"items"`
}

// Cancel moves a pending order to cancelled. It returns false and leaves the
// order untouched for any other status.
func (o *Order) Cancel(now time.Time) bool {
	if !o.Status.CanTransitionTo(OrderStatusCancelled) {
		return false
	}
	o.Status = OrderStatusCancelled
	o.UpdatedAt = now
	return true
}

// StatusNote is the extra line shown under shipped and delivered orders.
func (o Order) StatusNote() string {
	switch o.Status {
	case OrderStatusShipped:
		return "Your order is on the way! Expected delivery in 2-3 days."
	case OrderStatusDelivered:
		return "Order delivered successfully!"
	}
	return ""
}
