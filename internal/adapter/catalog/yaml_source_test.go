package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rl1809/storefront/internal/core/service"
)

func TestEmbedded_LoadsIntoCatalog(t *testing.T) {
	c, err := service.NewCatalog(Embedded())
	require.NoError(t, err)

	assert.Len(t, c.Categories(), 5)
	assert.NotEmpty(t, c.Products())
	assert.LessOrEqual(t, len(c.Trending()), 8)
	assert.NotEmpty(t, c.Filter("", "lap"))

	p, ok := c.Product("prod-laptop-pro")
	require.True(t, ok)
	assert.Equal(t, "laptop-pro-15", p.Slug)
	assert.Equal(t, "1104.99", p.EffectivePrice().StringFixed(2))

	cat, ok := c.Category("home")
	require.True(t, ok)
	assert.Equal(t, "home-and-living", cat.Slug)
}

func TestParse(t *testing.T) {
	cats, prods, err := Parse([]byte(`
categories:
  - id: c1
    name: Board Games
products:
  - id: p1
    category: c1
    name: Chess Set
    price: "19.90"
    discount: 10
    stock: 4
    fast_delivery: true
  - id: p2
    category: c1
    name: Go Board
    slug: custom
    price: 55
`))
	require.NoError(t, err)

	require.Len(t, cats, 1)
	assert.Equal(t, "board-games", cats[0].Slug)
	require.Len(t, prods, 2)
	assert.Equal(t, "chess-set", prods[0].Slug)
	assert.Equal(t, "19.9", prods[0].Price.String())
	assert.Equal(t, 10, prods[0].DiscountPercentage)
	assert.True(t, prods[0].FastDeliveryAvailable)
	assert.Equal(t, "custom", prods[1].Slug)
	assert.Equal(t, "55", prods[1].Price.String())
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"not yaml", "categories: [\n"},
		{"bad price", "products:\n  - id: p1\n    price: cheap\n"},
		{"category without id", "categories:\n  - name: Toys\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := Parse([]byte(tt.doc))
			assert.Error(t, err)
		})
	}
}

func TestFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte("categories:\n  - id: c\n    name: C\n"), 0o644))

	cats, _, err := FromFile(path).Load()
	require.NoError(t, err)
	assert.Len(t, cats, 1)

	_, _, err = FromFile(filepath.Join(t.TempDir(), "missing.yaml")).Load()
	assert.Error(t, err)

	assert.Equal(t, Embedded().path, FromFile("").path)
}
