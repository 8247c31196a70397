package port

import "github.com/rl1809/storefront/internal/core/domain"

type CatalogSource interface {
	// Load returns the full catalog; it is called once at startup
	Load() ([]domain.Category, []domain.Product, error)
}
