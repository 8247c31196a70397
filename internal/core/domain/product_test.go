package domain

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEffectivePrice(t *testing.T) {
	cases := []struct {
		price    string
		discount int
		want     string
	}{
		{"100", 10, "90"},
		{"50", 0, "50"},
		{"79.99", 100, "0"},
		{"1299.99", 15, "1104.9915"},
		{"20", 150, "0"},
		{"20", -5, "20"},
	}
	for _, c := range cases {
		p := Product{Price: decimal.RequireFromString(c.price), DiscountPercentage: c.discount}
		got := p.EffectivePrice()
		assert.True(t, got.Equal(decimal.RequireFromString(c.want)), "price %s discount %d: got %s", c.price, c.discount, got)
		assert.False(t, got.IsNegative())
		assert.True(t, got.LessThanOrEqual(p.Price))
	}
}

func TestStockLabel(t *testing.T) {
	assert.Equal(t, "In Stock", Product{StockQuantity: 21}.StockLabel())
	assert.Equal(t, "Only 20 left", Product{StockQuantity: 20}.StockLabel())
	assert.Equal(t, "Only 1 left", Product{StockQuantity: 1}.StockLabel())
	assert.Equal(t, "Out of Stock", Product{StockQuantity: 0}.StockLabel())
}

func TestClampQuantity(t *testing.T) {
	p := Product{StockQuantity: 5}
	assert.Equal(t, 1, p.ClampQuantity(0))
	assert.Equal(t, 1, p.ClampQuantity(-3))
	assert.Equal(t, 3, p.ClampQuantity(3))
	assert.Equal(t, 5, p.ClampQuantity(9))
	assert.Equal(t, 0, Product{}.ClampQuantity(2))
}

func TestValidate(t *testing.T) {
	ok := Product{ID: "p1", Price: decimal.NewFromInt(10), DiscountPercentage: 5, StockQuantity: 3}
	require.NoError(t, ok.Validate())

	bad := ok
	bad.DiscountPercentage = 101
	assert.Error(t, bad.Validate())

	bad = ok
	bad.Price = decimal.NewFromInt(-1)
	assert.Error(t, bad.Validate())

	bad = ok
	bad.ID = ""
	assert.Error(t, bad.Validate())
}

func TestProductRefJSON(t *testing.T) {
	item := CartItem{ID: "c1", ProductID: "p1", Quantity: 2, Product: PresentProduct(Product{ID: "p1", Name: "Widget", Price: decimal.NewFromInt(50)})}
	data, err := json.Marshal(item)
	require.NoError(t, err)

	var back CartItem
	require.NoError(t, json.Unmarshal(data, &back))
	p, ok := back.Product.Get()
	require.True(t, ok)
	assert.Equal(t, "Widget", p.Name)
	assert.True(t, p.Price.Equal(decimal.NewFromInt(50)))

	var missing CartItem
	require.NoError(t, json.Unmarshal([]byte(`{"id":"c2","product_id":"p2","quantity":1,"product":null}`), &missing))
	assert.True(t, missing.Product.IsMissing())

	var absent CartItem
	require.NoError(t, json.Unmarshal([]byte(`{"id":"c3","product_id":"p3","quantity":1}`), &absent))
	assert.True(t, absent.Product.IsMissing())
	assert.True(t, absent.LineTotal().IsZero())
}

func TestCartItemLineTotal(t *testing.T) {
	item := CartItem{Quantity: 2, Product: PresentProduct(Product{Price: decimal.NewFromInt(100), DiscountPercentage: 10})}
	assert.Equal(t, "180.00", item.LineTotal().StringFixed(2))
}
