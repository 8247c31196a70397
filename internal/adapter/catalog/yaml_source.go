package catalog

import (
	_ "embed"
	"fmt"
	"os"

	"github.com/gosimple/slug"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/rl1809/storefront/internal/core/domain"
)

//go:embed catalog.yaml
var defaultCatalog []byte

type categoryEntry struct {
	ID          string `yaml:"id"`
	Name        string `yaml:"name"`
	Slug        string `yaml:"slug"`
	Description string `yaml:"description"`
	Icon        string `yaml:"icon"`
}

type productEntry struct {
	ID                    string  `yaml:"id"`
	Category              string  `yaml:"category"`
	Name                  string  `yaml:"name"`
	Slug                  string  `yaml:"slug"`
	Description           string  `yaml:"description"`
	Price                 string  `yaml:"price"`
	Discount              int     `yaml:"discount"`
	Stock                 int     `yaml:"stock"`
	Image                 string  `yaml:"image"`
	Trending              bool    `yaml:"trending"`
	OnOffer               bool    `yaml:"on_offer"`
	FastDeliveryAvailable bool    `yaml:"fast_delivery"`
	Rating                float64 `yaml:"rating"`
	Reviews               int     `yaml:"reviews"`
}

type catalogFile struct {
	Categories []categoryEntry `yaml:"categories"`
	Products   []productEntry  `yaml:"products"`
}

// YAMLSource reads the catalog from a YAML document.
type YAMLSource struct {
	data []byte
	path string
}

// Embedded returns the catalog bundled with the binary.
func Embedded() *YAMLSource {
	return &YAMLSource{data: defaultCatalog, path: "embedded catalog.yaml"}
}

// FromFile reads path on Load. An empty path falls back to the embedded
// catalog.
func FromFile(path string) *YAMLSource {
	if path == "" {
		return Embedded()
	}
	return &YAMLSource{path: path}
}

func FromBytes(data []byte) *YAMLSource {
	return &YAMLSource{data: data, path: "inline"}
}

func (s *YAMLSource) Load() ([]domain.Category, []domain.Product, error) {
	data := s.data
	if data == nil {
		raw, err := os.ReadFile(s.path)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to read catalog file %s: %w", s.path, err)
		}
		data = raw
	}
	return Parse(data)
}

// Parse decodes a catalog document. Missing slugs are derived from names.
func Parse(data []byte) ([]domain.Category, []domain.Product, error) {
	var f catalogFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, nil, fmt.Errorf("failed to parse catalog YAML: %w", err)
	}

	categories := make([]domain.Category, 0, len(f.Categories))
	for _, c := range f.Categories {
		if c.ID == "" {
			return nil, nil, fmt.Errorf("category %q has no id", c.Name)
		}
		if c.Slug == "" {
			c.Slug = slug.Make(c.Name)
		}
		categories = append(categories, domain.Category{
			ID:          c.ID,
			Name:        c.Name,
			Slug:        c.Slug,
			Description: c.Description,
			Icon:        c.Icon,
		})
	}

	products := make([]domain.Product, 0, len(f.Products))
	for _, p := range f.Products {
		price, err := decimal.NewFromString(p.Price)
		if err != nil {
			return nil, nil, fmt.Errorf("product %s: invalid price %q: %w", p.ID, p.Price, err)
		}
		if p.Slug == "" {
			p.Slug = slug.Make(p.Name)
		}
		products = append(products, domain.Product{
			ID:                    p.ID,
			CategoryID:            p.Category,
			Name:                  p.Name,
			Slug:                  p.Slug,
			Description:           p.Description,
			Price:                 price,
			DiscountPercentage:    p.Discount,
			StockQuantity:         p.Stock,
			ImageURL:              p.Image,
			IsTrending:            p.Trending,
			IsOnOffer:             p.OnOffer,
			FastDeliveryAvailable: p.FastDeliveryAvailable,
			Rating:                p.Rating,
			ReviewsCount:          p.Reviews,
		})
	}
	return categories, products, nil
}
