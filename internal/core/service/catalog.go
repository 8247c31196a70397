package service

import (
	"errors"
	"fmt"
	"strings"

	"github.com/rl1809/storefront/internal/core/domain"
	"github.com/rl1809/storefront/internal/port"
)

const (
	// AllCategories is the category selector sentinel for "no filter".
	AllCategories = "all"
	railSize      = 8
)

var ErrProductNotFound = errors.New("product not found")

// Catalog is the read-only product list. It is safe for concurrent use since
// nothing mutates it after construction.
type Catalog struct {
	categories []domain.Category
	products   []domain.Product
	byID       map[string]int
	bySlug     map[string]int
	categoryIx map[string]int
}

func NewCatalog(source port.CatalogSource) (*Catalog, error) {
	categories, products, err := source.Load()
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}
	return NewCatalogFromData(categories, products)
}

func NewCatalogFromData(categories []domain.Category, products []domain.Product) (*Catalog, error) {
	c := &Catalog{
		categories: append([]domain.Category(nil), categories...),
		products:   append([]domain.Product(nil), products...),
		byID:       make(map[string]int, len(products)),
		bySlug:     make(map[string]int, len(products)),
		categoryIx: make(map[string]int, len(categories)),
	}

	for i, cat := range c.categories {
		if _, dup := c.categoryIx[cat.ID]; dup {
			return nil, fmt.Errorf("duplicate category %s", cat.ID)
		}
		c.categoryIx[cat.ID] = i
	}

	for i, p := range c.products {
		if err := p.Validate(); err != nil {
			return nil, err
		}
		if _, dup := c.byID[p.ID]; dup {
			return nil, fmt.Errorf("duplicate product %s", p.ID)
		}
		if _, ok := c.categoryIx[p.CategoryID]; !ok {
			return nil, fmt.Errorf("product %s: unknown category %s", p.ID, p.CategoryID)
		}
		c.byID[p.ID] = i
		if p.Slug != "" {
			c.bySlug[p.Slug] = i
		}
	}
	return c, nil
}

func (c *Catalog) Categories() []domain.Category {
	return append([]domain.Category(nil), c.categories...)
}

func (c *Catalog) Category(id string) (domain.Category, bool) {
	i, ok := c.categoryIx[id]
	if !ok {
		return domain.Category{}, false
	}
	return c.categories[i], true
}

func (c *Catalog) Products() []domain.Product {
	return append([]domain.Product(nil), c.products...)
}

func (c *Catalog) Product(id string) (domain.Product, bool) {
	i, ok := c.byID[id]
	if !ok {
		return domain.Product{}, false
	}
	return c.products[i], true
}

func (c *Catalog) ProductBySlug(slug string) (domain.Product, bool) {
	i, ok := c.bySlug[slug]
	if !ok {
		return domain.Product{}, false
	}
	return c.products[i], true
}

// Filter returns products in categoryID (empty or AllCategories for any)
// whose name or description contains query, case-insensitively. The query is
// trimmed first, so a whitespace-only query matches everything rather than
// only text containing that whitespace.
func (c *Catalog) Filter(categoryID, query string) []domain.Product {
	if categoryID == AllCategories {
		categoryID = ""
	}
	query = strings.ToLower(strings.TrimSpace(query))

	out := make([]domain.Product, 0, len(c.products))
	for _, p := range c.products {
		if categoryID != "" && p.CategoryID != categoryID {
			continue
		}
		if query != "" &&
			!strings.Contains(strings.ToLower(p.Name), query) &&
			!strings.Contains(strings.ToLower(p.Description), query) {
			continue
		}
		out = append(out, p)
	}
	return out
}

func (c *Catalog) Trending() []domain.Product {
	return c.rail(func(p domain.Product) bool { return p.IsTrending })
}

func (c *Catalog) OnOffer() []domain.Product {
	return c.rail(func(p domain.Product) bool { return p.IsOnOffer })
}

func (c *Catalog) rail(keep func(domain.Product) bool) []domain.Product {
	out := make([]domain.Product, 0, railSize)
	for _, p := range c.products {
		if len(out) == railSize {
			break
		}
		if keep(p) {
			out = append(out, p)
		}
	}
	return out
}
