package domain

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

const (
	lowStockThreshold = 20
	maxDiscount       = 100
)

var hundred = decimal.NewFromInt(100)

type Category struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Slug        string `json:"slug"`
	Description string `json:"description,omitempty"`
	Icon        string `json:"icon"`
}

type Product struct {
	ID                    string          `json:"id"`
	CategoryID            string          `json:"category_id"`
	Name                  string          `json:"name"`
	Slug                  string          `json:"slug"`
	Description           string          `json:"description"`
	Price                 decimal.Decimal `json:"price"`
	DiscountPercentage    int             `json:"discount_percentage"`
	StockQuantity         int             `json:"stock_quantity"`
	ImageURL              string          `json:"image_url"`
	IsTrending            bool            `json:"is_trending"`
	IsOnOffer             bool            `json:"is_on_offer"`
	FastDeliveryAvailable bool            `json:"fast_delivery_available"`
	Rating                float64         `json:"rating"`
	ReviewsCount          int             `json:"reviews_count"`
}

// EffectivePrice returns price × (1 − discount/100). Discounts outside
// [0, 100] are clamped so the result never leaves [0, price].
func (p Product) EffectivePrice() decimal.Decimal {
	discount := p.DiscountPercentage
	if discount < 0 {
		discount = 0
	}
	if discount > maxDiscount {
		discount = maxDiscount
	}
	return p.Price.Mul(decimal.NewFromInt(int64(maxDiscount - discount))).Div(hundred)
}

func (p Product) InStock() bool {
	return p.StockQuantity > 0
}

func (p Product) StockLabel() string {
	switch {
	case p.StockQuantity > lowStockThreshold:
		return "In Stock"
	case p.StockQuantity > 0:
		return fmt.Sprintf("Only %d left", p.StockQuantity)
	default:
		return "Out of Stock"
	}
}

// ClampQuantity bounds a requested quantity to [1, stock]. Out of stock
// products clamp to 0.
func (p Product) ClampQuantity(quantity int) int {
	if p.StockQuantity <= 0 {
		return 0
	}
	if quantity < 1 {
		return 1
	}
	if quantity > p.StockQuantity {
		return p.StockQuantity
	}
	return quantity
}

// Validate reports catalog data that would break price invariants.
func (p Product) Validate() error {
	if p.ID == "" {
		return fmt.Errorf("product has empty id")
	}
	if p.Price.IsNegative() {
		return fmt.Errorf("product %s: negative price", p.ID)
	}
	if p.DiscountPercentage < 0 || p.DiscountPercentage > maxDiscount {
		return fmt.Errorf("product %s: discount %d out of range", p.ID, p.DiscountPercentage)
	}
	if p.StockQuantity < 0 {
		return fmt.Errorf("product %s: negative stock", p.ID)
	}
	return nil
}

// ProductRef is a product snapshot that may be absent, e.g. when a persisted
// record was written without one. Callers must check Get before use.
type ProductRef struct {
	product *Product
}

func PresentProduct(p Product) ProductRef {
	return ProductRef{product: &p}
}

func MissingProduct() ProductRef {
	return ProductRef{}
}

func (r ProductRef) Get() (Product, bool) {
	if r.product == nil {
		return Product{}, false
	}
	return *r.product, true
}

func (r ProductRef) IsMissing() bool {
	return r.product == nil
}

func (r ProductRef) MarshalJSON() ([]byte, error) {
	if r.product == nil {
		return []byte("null"), nil
	}
	return json.Marshal(r.product)
}

func (r *ProductRef) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		r.product = nil
		return nil
	}
	var p Product
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	r.product = &p
	return nil
}
