package domain

import "github.com/shopspring/decimal"

type CartItem struct {
	ID        string     `json:"id"`
	UserID    string     `json:"user_id"`
	ProductID string     `json:"product_id"`
	Quantity  int        `json:"quantity"`
	Product   ProductRef `json:"product"`
}

// LineTotal is zero when the product snapshot is missing.
func (c CartItem) LineTotal() decimal.Decimal {
	p, ok := c.Product.Get()
	if !ok {
		return decimal.Zero
	}
	return p.EffectivePrice().Mul(decimal.NewFromInt(int64(c.Quantity)))
}

// FastDeliveryEligible is false for items without a snapshot.
func (c CartItem) FastDeliveryEligible() bool {
	p, ok := c.Product.Get()
	return ok && p.FastDeliveryAvailable
}
