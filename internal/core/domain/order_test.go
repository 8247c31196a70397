package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestOrderStatusTransitions(t *testing.T) {
	assert.True(t, OrderStatusPending.CanTransitionTo(OrderStatusCancelled))
	assert.True(t, OrderStatusPending.CanTransitionTo(OrderStatusProcessing))
	assert.True(t, OrderStatusProcessing.CanTransitionTo(OrderStatusShipped))
	assert.True(t, OrderStatusShipped.CanTransitionTo(OrderStatusDelivered))

	assert.False(t, OrderStatusShipped.CanTransitionTo(OrderStatusProcessing))
	assert.False(t, OrderStatusProcessing.CanTransitionTo(OrderStatusCancelled))
	assert.False(t, OrderStatusDelivered.CanTransitionTo(OrderStatusCancelled))
	assert.False(t, OrderStatusCancelled.CanTransitionTo(OrderStatusPending))
}

func TestOrderCancel(t *testing.T) {
	created := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	now := created.Add(time.Hour)

	o := Order{Status: OrderStatusPending, UpdatedAt: created}
	assert.True(t, o.Cancel(now))
	assert.Equal(t, OrderStatusCancelled, o.Status)
	assert.Equal(t, now, o.UpdatedAt)

	assert.False(t, o.Cancel(now.Add(time.Hour)))
	assert.Equal(t, now, o.UpdatedAt)

	shipped := Order{Status: OrderStatusShipped, UpdatedAt: created}
	assert.False(t, shipped.Cancel(now))
	assert.Equal(t, OrderStatusShipped, shipped.Status)
	assert.Equal(t, created, shipped.UpdatedAt)
}

func TestAddressComplete(t *testing.T) {
	a := Address{StreetAddress: "1 Main St", City: "Springfield", State: "IL", PostalCode: "62701"}
	assert.True(t, a.Complete())

	a.City = "   "
	assert.False(t, a.Complete())
}

func TestPaymentStatusFor(t *testing.T) {
	assert.Equal(t, PaymentStatusPaid, PaymentStatusFor(PaymentMethodCard))
	assert.Equal(t, PaymentStatusPending, PaymentStatusFor(PaymentMethodCOD))
	assert.False(t, PaymentMethod("bitcoin").Valid())
}

func TestLabels(t *testing.T) {
	assert.Equal(t, "Pending", OrderStatusPending.Label())
	assert.Equal(t, "Cash on Delivery", PaymentMethodCOD.Label())
	assert.Equal(t, "Order delivered successfully!", Order{Status: OrderStatusDelivered}.StatusNote())
	assert.Empty(t, Order{Status: OrderStatusPending}.StatusNote())
}
