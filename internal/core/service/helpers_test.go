package service

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/rl1809/storefront/internal/core/domain"
	"github.com/rl1809/storefront/internal/port"
)

var errStorageDown = errors.New("storage down")

// mockStorage is an in-memory BrowserStorage that can be told to fail.
type mockStorage struct {
	mu         sync.Mutex
	items      map[string][]byte
	failSet    bool
	failGet    bool
	failRemove bool
	setCalls   int
}

func newMockStorage() *mockStorage {
	return &mockStorage{items: make(map[string][]byte)}
}

func (m *mockStorage) GetItem(ctx context.Context, key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failGet {
		return nil, false, errStorageDown
	}
	v, ok := m.items[key]
	return v, ok, nil
}

func (m *mockStorage) SetItem(ctx context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.setCalls++
	if m.failSet {
		return errStorageDown
	}
	m.items[key] = append([]byte(nil), value...)
	return nil
}

func (m *mockStorage) RemoveItem(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failRemove {
		return errStorageDown
	}
	delete(m.items, key)
	return nil
}

func (m *mockStorage) raw(key string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.items[key]
	return string(v), ok
}

func (m *mockStorage) put(key, value string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[key] = []byte(value)
}

type mockProvider struct {
	mu       sync.Mutex
	browsers map[string]*mockStorage
}

func newMockProvider() *mockProvider {
	return &mockProvider{browsers: make(map[string]*mockStorage)}
}

func (p *mockProvider) Storage(browserID string) port.BrowserStorage {
	return p.browser(browserID)
}

func (p *mockProvider) browser(browserID string) *mockStorage {
	p.mu.Lock()
	defer p.mu.Unlock()
	s, ok := p.browsers[browserID]
	if !ok {
		s = newMockStorage()
		p.browsers[browserID] = s
	}
	return s
}

type mockMetrics struct {
	mu        sync.Mutex
	cart      []string
	placed    []string
	cancelled int
	corrupt   []string
}

func (m *mockMetrics) CartChanged(op string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cart = append(m.cart, op)
}

func (m *mockMetrics) OrderPlaced(method string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.placed = append(m.placed, method)
}

func (m *mockMetrics) OrderCancelled() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cancelled++
}

func (m *mockMetrics) CorruptRecord(kind string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.corrupt = append(m.corrupt, kind)
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func widget() domain.Product {
	return domain.Product{
		ID:            "p1",
		CategoryID:    "c1",
		Name:          "Widget",
		Slug:          "widget",
		Description:   "A useful widget",
		Price:         dec("50.00"),
		StockQuantity: 100,
	}
}

func gadget() domain.Product {
	return domain.Product{
		ID:                    "p2",
		CategoryID:            "c1",
		Name:                  "Gadget",
		Slug:                  "gadget",
		Description:           "Ships fast",
		Price:                 dec("20.00"),
		DiscountPercentage:    10,
		StockQuantity:         5,
		FastDeliveryAvailable: true,
	}
}

func soldOut() domain.Product {
	return domain.Product{
		ID:         "p3",
		CategoryID: "c1",
		Name:       "Sold Out Thing",
		Price:      dec("10.00"),
	}
}

func testCatalog() *Catalog {
	c, err := NewCatalogFromData(
		[]domain.Category{{ID: "c1", Name: "Electronics", Slug: "electronics"}},
		[]domain.Product{widget(), gadget(), soldOut()},
	)
	if err != nil {
		panic(err)
	}
	return c
}

func validAddress() domain.Address {
	return domain.Address{
		StreetAddress: "1 Main St",
		City:          "Springfield",
		State:         "IL",
		PostalCode:    "62701",
	}
}

func nopLogger() zerolog.Logger {
	return zerolog.Nop()
}

// cartFor returns a CartStore already switched to user.
func cartFor(storage port.BrowserStorage, metrics port.Metrics, userID string) *CartStore {
	c := NewCartStore(storage, metrics, nopLogger())
	if err := c.SwitchIdentity(context.Background(), &domain.User{ID: userID}); err != nil {
		panic(err)
	}
	return c
}
