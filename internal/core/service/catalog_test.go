package service

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rl1809/storefront/internal/core/domain"
)

type staticSource struct {
	categories []domain.Category
	products   []domain.Product
	err        error
}

func (s staticSource) Load() ([]domain.Category, []domain.Product, error) {
	return s.categories, s.products, s.err
}

func searchCatalog(t *testing.T) *Catalog {
	t.Helper()
	cats := []domain.Category{
		{ID: "electronics", Name: "Electronics"},
		{ID: "home", Name: "Home"},
	}
	prods := []domain.Product{
		{ID: "1", CategoryID: "electronics", Name: "Laptop Pro 15", Slug: "laptop-pro-15", Description: "Fast machine", Price: dec("1299.99")},
		{ID: "2", CategoryID: "electronics", Name: "Wireless Mouse", Description: "Pairs with any LAPTOP", Price: dec("25")},
		{ID: "3", CategoryID: "home", Name: "Lamp", Description: "Warm light", Price: dec("40")},
		{ID: "4", CategoryID: "home", Name: "Laptop Stand", Description: "Aluminium", Price: dec("35")},
	}
	c, err := NewCatalog(staticSource{categories: cats, products: prods})
	require.NoError(t, err)
	return c
}

func productIDs(ps []domain.Product) []string {
	ids := make([]string, 0, len(ps))
	for _, p := range ps {
		ids = append(ids, p.ID)
	}
	return ids
}

func TestCatalog_Filter(t *testing.T) {
	c := searchCatalog(t)

	tests := []struct {
		name     string
		category string
		query    string
		want     []string
	}{
		{"everything", "", "", []string{"1", "2", "3", "4"}},
		{"all sentinel", AllCategories, "", []string{"1", "2", "3", "4"}},
		{"query matches name and description", "", "lap", []string{"1", "2", "4"}},
		{"query is trimmed and case-insensitive", "", "  LAMP ", []string{"3"}},
		{"whitespace query matches everything", "", "   ", []string{"1", "2", "3", "4"}},
		{"category and query combine", "home", "lap", []string{"4"}},
		{"category only", "electronics", "", []string{"1", "2"}},
		{"no match", "", "zzz", []string{}},
		{"unknown category", "toys", "", []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, productIDs(c.Filter(tt.category, tt.query)))
		})
	}
}

func TestCatalog_Lookups(t *testing.T) {
	c := searchCatalog(t)

	p, ok := c.Product("1")
	require.True(t, ok)
	assert.Equal(t, "Laptop Pro 15", p.Name)

	p, ok = c.ProductBySlug("laptop-pro-15")
	require.True(t, ok)
	assert.Equal(t, "1", p.ID)

	_, ok = c.Product("404")
	assert.False(t, ok)

	cat, ok := c.Category("home")
	require.True(t, ok)
	assert.Equal(t, "Home", cat.Name)
	assert.Len(t, c.Categories(), 2)
	assert.Len(t, c.Products(), 4)
}

func TestCatalog_RailsCapAtEight(t *testing.T) {
	cats := []domain.Category{{ID: "c"}}
	var prods []domain.Product
	for i := 0; i < 12; i++ {
		prods = append(prods, domain.Product{
			ID:         fmt.Sprintf("p%02d", i),
			CategoryID: "c",
			Price:      dec("1"),
			IsTrending: true,
			IsOnOffer:  i%4 == 0,
		})
	}
	c, err := NewCatalogFromData(cats, prods)
	require.NoError(t, err)

	trending := c.Trending()
	assert.Len(t, trending, 8)
	assert.Equal(t, "p00", trending[0].ID)
	assert.Equal(t, "p07", trending[7].ID)
	assert.Equal(t, []string{"p00", "p04", "p08"}, productIDs(c.OnOffer()))
}

func TestCatalog_RejectsBadData(t *testing.T) {
	cats := []domain.Category{{ID: "c"}}

	tests := []struct {
		name  string
		cats  []domain.Category
		prods []domain.Product
	}{
		{"duplicate category", []domain.Category{{ID: "c"}, {ID: "c"}}, nil},
		{"duplicate product", cats, []domain.Product{{ID: "p", CategoryID: "c"}, {ID: "p", CategoryID: "c"}}},
		{"unknown category", cats, []domain.Product{{ID: "p", CategoryID: "x"}}},
		{"negative price", cats, []domain.Product{{ID: "p", CategoryID: "c", Price: dec("-1")}}},
		{"discount out of range", cats, []domain.Product{{ID: "p", CategoryID: "c", DiscountPercentage: 101}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewCatalogFromData(tt.cats, tt.prods)
			assert.Error(t, err)
		})
	}
}

func TestNewCatalog_SourceError(t *testing.T) {
	boom := errors.New("boom")
	_, err := NewCatalog(staticSource{err: boom})
	assert.ErrorIs(t, err, boom)
}
