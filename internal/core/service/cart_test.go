package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rl1809/storefront/internal/core/domain"
)

func TestCartStore_AddMergesLines(t *testing.T) {
	ctx := context.Background()
	storage := newMockStorage()
	metrics := &mockMetrics{}
	cart := cartFor(storage, metrics, "u1")

	require.NoError(t, cart.Add(ctx, widget(), 2))
	require.NoError(t, cart.Add(ctx, widget(), 3))
	require.NoError(t, cart.Add(ctx, gadget(), 0))

	items := cart.Items()
	require.Len(t, items, 2)
	assert.Equal(t, "p1", items[0].ProductID)
	assert.Equal(t, 5, items[0].Quantity)
	assert.Equal(t, "u1", items[0].UserID)
	assert.Equal(t, 1, items[1].Quantity)
	assert.Equal(t, 6, cart.Count())
	assert.Equal(t, []string{"add", "add", "add"}, metrics.cart)

	_, ok := storage.raw("cart_u1")
	assert.True(t, ok)
}

func TestCartStore_AddWithoutIdentity(t *testing.T) {
	storage := newMockStorage()
	cart := NewCartStore(storage, &mockMetrics{}, nopLogger())

	err := cart.Add(context.Background(), widget(), 1)

	assert.ErrorIs(t, err, ErrNoIdentity)
	assert.Empty(t, cart.Items())
	assert.Zero(t, storage.setCalls)
}

func TestCartStore_Total(t *testing.T) {
	ctx := context.Background()
	cart := cartFor(newMockStorage(), &mockMetrics{}, "u1")

	assert.True(t, cart.Total().Equal(dec("0")))

	p := domain.Product{ID: "p9", CategoryID: "c1", Price: dec("100.00"), DiscountPercentage: 10, StockQuantity: 10}
	require.NoError(t, cart.Add(ctx, p, 2))

	assert.Equal(t, "180.00", cart.Total().StringFixed(2))
}

func TestCartStore_TotalSkipsMissingSnapshot(t *testing.T) {
	storage := newMockStorage()
	storage.put("cart_u1", `{"version":1,"data":[
		{"id":"i1","user_id":"u1","product_id":"p1","quantity":2,"product":null},
		{"id":"i2","user_id":"u1","product_id":"p2","quantity":1,"product":{"id":"p2","price":"20.00"}}
	]}`)
	cart := cartFor(storage, &mockMetrics{}, "u1")

	assert.Equal(t, "20.00", cart.Total().StringFixed(2))
	assert.Equal(t, 3, cart.Count())
}

func TestCartStore_SetQuantity(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name      string
		productID string
		quantity  int
		want      []int
	}{
		{"update", "p1", 7, []int{7, 1}},
		{"zero removes", "p1", 0, []int{1}},
		{"negative removes", "p1", -1, []int{1}},
		{"absent is a no-op", "missing", 4, []int{2, 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cart := cartFor(newMockStorage(), &mockMetrics{}, "u1")
			require.NoError(t, cart.Add(ctx, widget(), 2))
			require.NoError(t, cart.Add(ctx, gadget(), 1))

			require.NoError(t, cart.SetQuantity(ctx, tt.productID, tt.quantity))

			var got []int
			for _, it := range cart.Items() {
				got = append(got, it.Quantity)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCartStore_RemoveAbsentIsNoop(t *testing.T) {
	ctx := context.Background()
	storage := newMockStorage()
	cart := cartFor(storage, &mockMetrics{}, "u1")
	require.NoError(t, cart.Add(ctx, widget(), 1))
	calls := storage.setCalls

	require.NoError(t, cart.Remove(ctx, "nope"))

	assert.Len(t, cart.Items(), 1)
	assert.Equal(t, calls, storage.setCalls)
}

func TestCartStore_Clear(t *testing.T) {
	ctx := context.Background()
	storage := newMockStorage()
	cart := cartFor(storage, &mockMetrics{}, "u1")
	require.NoError(t, cart.Add(ctx, widget(), 1))

	require.NoError(t, cart.Clear(ctx))

	assert.Empty(t, cart.Items())
	_, ok := storage.raw("cart_u1")
	assert.False(t, ok)
}

func TestCartStore_FailedWriteKeepsState(t *testing.T) {
	ctx := context.Background()
	storage := newMockStorage()
	cart := cartFor(storage, &mockMetrics{}, "u1")
	require.NoError(t, cart.Add(ctx, widget(), 1))

	storage.failSet = true
	err := cart.Add(ctx, widget(), 4)

	assert.ErrorIs(t, err, errStorageDown)
	assert.Equal(t, 1, cart.Count())
}

func TestCartStore_ClearOverwritesWhenRemoveFails(t *testing.T) {
	ctx := context.Background()
	storage := newMockStorage()
	cart := cartFor(storage, &mockMetrics{}, "u1")
	require.NoError(t, cart.Add(ctx, widget(), 2))

	storage.failRemove = true
	require.NoError(t, cart.Clear(ctx))
	assert.Zero(t, cart.Count())

	raw, ok := storage.raw("cart_u1")
	require.True(t, ok)
	assert.JSONEq(t, `{"version":1,"data":[]}`, raw)

	reloaded := cartFor(storage, &mockMetrics{}, "u1")
	assert.Zero(t, reloaded.Count())
}

func TestCartStore_ClearStorageDownEmptiesMemory(t *testing.T) {
	ctx := context.Background()
	storage := newMockStorage()
	cart := cartFor(storage, &mockMetrics{}, "u1")
	require.NoError(t, cart.Add(ctx, widget(), 2))

	storage.failRemove = true
	storage.failSet = true
	err := cart.Clear(ctx)

	assert.ErrorIs(t, err, errStorageDown)
	assert.Zero(t, cart.Count())
	assert.Empty(t, cart.Items())
}

func TestCartStore_SwitchIdentity(t *testing.T) {
	ctx := context.Background()
	storage := newMockStorage()
	cart := cartFor(storage, &mockMetrics{}, "alice")
	require.NoError(t, cart.Add(ctx, widget(), 2))

	require.NoError(t, cart.SwitchIdentity(ctx, &domain.User{ID: "bob"}))
	assert.Equal(t, "bob", cart.Owner())
	assert.Empty(t, cart.Items())
	require.NoError(t, cart.Add(ctx, gadget(), 1))

	require.NoError(t, cart.SwitchIdentity(ctx, nil))
	assert.Equal(t, "", cart.Owner())
	assert.Empty(t, cart.Items())

	require.NoError(t, cart.SwitchIdentity(ctx, &domain.User{ID: "alice"}))
	items := cart.Items()
	require.Len(t, items, 1)
	assert.Equal(t, "p1", items[0].ProductID)
	assert.Equal(t, 2, items[0].Quantity)
}

func TestCartStore_CorruptRecordStartsEmpty(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"not json", `{{{`},
		{"unknown version", `{"version":9,"data":[]}`},
		{"zero quantity", `{"version":1,"data":[{"id":"i1","product_id":"p1","quantity":0}]}`},
		{"duplicate product", `[{"id":"i1","product_id":"p1","quantity":1},{"id":"i2","product_id":"p1","quantity":1}]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			storage := newMockStorage()
			storage.put("cart_u1", tt.raw)
			metrics := &mockMetrics{}

			cart := NewCartStore(storage, metrics, nopLogger())
			err := cart.SwitchIdentity(context.Background(), &domain.User{ID: "u1"})

			require.NoError(t, err)
			assert.Equal(t, "u1", cart.Owner())
			assert.Empty(t, cart.Items())
			assert.Equal(t, []string{"cart"}, metrics.corrupt)
		})
	}
}

func TestCartStore_LegacyArrayLoads(t *testing.T) {
	storage := newMockStorage()
	storage.put("cart_u1", `[{"id":"i1","user_id":"u1","product_id":"p1","quantity":3,"product":{"id":"p1","price":"5"}}]`)

	cart := cartFor(storage, &mockMetrics{}, "u1")

	assert.Equal(t, 3, cart.Count())
	assert.Equal(t, "15.00", cart.Total().StringFixed(2))
}
