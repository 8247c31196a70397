package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/rl1809/storefront/internal/core/domain"
	"github.com/rl1809/storefront/internal/port"
)

// CartStore holds the cart of the active identity. Each mutation is written
// to storage before it becomes visible in memory.
type CartStore struct {
	storage port.BrowserStorage
	metrics port.Metrics
	logger  zerolog.Logger
	newID   func() string

	owner string
	items []domain.CartItem
}

func NewCartStore(storage port.BrowserStorage, metrics port.Metrics, logger zerolog.Logger) *CartStore {
	return &CartStore{
		storage: storage,
		metrics: metrics,
		logger:  logger.With().Str("component", "cart").Logger(),
		newID:   uuid.NewString,
	}
}

// SwitchIdentity replaces the visible cart with the one persisted for user.
// A nil user leaves an empty, ownerless cart.
func (c *CartStore) SwitchIdentity(ctx context.Context, user *domain.User) error {
	if user == nil {
		c.owner, c.items = "", nil
		return nil
	}

	var items []domain.CartItem
	_, err := loadRecord(ctx, c.storage, cartKey(user.ID), &items)
	if err == nil {
		err = validateCart(items)
	}
	if errors.Is(err, ErrCorruptRecord) {
		c.metrics.CorruptRecord("cart")
		c.logger.Warn().Err(err).Str("user_id", user.ID).Msg("starting with an empty cart")
		items = nil
	} else if err != nil {
		return err
	}

	c.owner, c.items = user.ID, items
	return nil
}

func validateCart(items []domain.CartItem) error {
	seen := make(map[string]bool, len(items))
	for _, it := range items {
		if it.ProductID == "" || it.Quantity < 1 {
			return fmt.Errorf("%w: cart item %q", ErrCorruptRecord, it.ID)
		}
		if seen[it.ProductID] {
			return fmt.Errorf("%w: duplicate cart product %q", ErrCorruptRecord, it.ProductID)
		}
		seen[it.ProductID] = true
	}
	return nil
}

func (c *CartStore) Owner() string {
	return c.owner
}

// Add merges quantity into the existing line for product, or appends a new
// line with a snapshot of product.
func (c *CartStore) Add(ctx context.Context, product domain.Product, quantity int) error {
	if c.owner == "" {
		return ErrNoIdentity
	}
	if quantity < 1 {
		quantity = 1
	}

	next := c.snapshot()
	if i := indexOf(next, product.ID); i >= 0 {
		next[i].Quantity += quantity
	} else {
		next = append(next, domain.CartItem{
			ID:        c.newID(),
			UserID:    c.owner,
			ProductID: product.ID,
			Quantity:  quantity,
			Product:   domain.PresentProduct(product),
		})
	}
	return c.commit(ctx, "add", next)
}

func (c *CartStore) Remove(ctx context.Context, productID string) error {
	i := indexOf(c.items, productID)
	if i < 0 {
		return nil
	}
	next := c.snapshot()
	next = append(next[:i], next[i+1:]...)
	return c.commit(ctx, "remove", next)
}

func (c *CartStore) SetQuantity(ctx context.Context, productID string, quantity int) error {
	if quantity <= 0 {
		return c.Remove(ctx, productID)
	}
	i := indexOf(c.items, productID)
	if i < 0 {
		return nil
	}
	next := c.snapshot()
	next[i].Quantity = quantity
	return c.commit(ctx, "set_quantity", next)
}

// Clear empties the cart and erases its persisted record. The in-memory cart
// is emptied even when storage fails; if the record cannot be removed it is
// overwritten with an empty list instead, and an error is returned only when
// both writes fail.
func (c *CartStore) Clear(ctx context.Context) error {
	c.items = nil
	if c.owner == "" {
		return nil
	}

	removeErr := c.storage.RemoveItem(ctx, cartKey(c.owner))
	if removeErr != nil {
		c.logger.Warn().Err(removeErr).Str("user_id", c.owner).Msg("remove cart failed, overwriting with empty cart")
		if err := saveRecord(ctx, c.storage, cartKey(c.owner), []domain.CartItem{}); err != nil {
			return fmt.Errorf("clear cart: %w", errors.Join(removeErr, err))
		}
	}
	c.metrics.CartChanged("clear")
	return nil
}

// Total sums effective price × quantity; lines without a snapshot add 0.
func (c *CartStore) Total() decimal.Decimal {
	total := decimal.Zero
	for _, it := range c.items {
		total = total.Add(it.LineTotal())
	}
	return total
}

func (c *CartStore) Count() int {
	n := 0
	for _, it := range c.items {
		n += it.Quantity
	}
	return n
}

func (c *CartStore) Items() []domain.CartItem {
	return c.snapshot()
}

func (c *CartStore) snapshot() []domain.CartItem {
	return append([]domain.CartItem(nil), c.items...)
}

func (c *CartStore) commit(ctx context.Context, op string, next []domain.CartItem) error {
	if err := saveRecord(ctx, c.storage, cartKey(c.owner), next); err != nil {
		return err
	}
	c.items = next
	c.metrics.CartChanged(op)
	return nil
}

func indexOf(items []domain.CartItem, productID string) int {
	for i, it := range items {
		if it.ProductID == productID {
			return i
		}
	}
	return -1
}
