// internal/application/collection/cart.go
package collection

import (
	"context"
	"log/slog"

	cartdom "atelier/internal/domain/cart"
)

// CartEngine is the cart instance of the synchronization engine plus the
// cart-specific operations (quantities, derived totals).
type CartEngine struct {
	*Engine[cartdom.Item]
}

func NewCartEngine(cache Cache, remote Remote[cartdom.Item], logger *slog.Logger) *CartEngine {
	return &CartEngine{
		Engine: New(Config[cartdom.Item]{
			Name:   "cart",
			Key:    cartdom.Item.Key,
			Merge:  cartdom.Merge,
			Logger: logger,
		}, cache, remote),
	}
}

// Add puts the item in the cart. Qty defaults to 1 when the caller leaves it
// zero; material purchases by the meter pass an explicit quantity. An add
// that derives an existing line key increments that line instead of
// duplicating it.
func (e *CartEngine) Add(ctx context.Context, item cartdom.Item) error {
	if item.Qty == 0 {
		item.Qty = 1
	}
	if err := item.Validate(); err != nil {
		return err
	}
	e.Engine.Add(ctx, item)
	return nil
}

// SetQuantity sets the line's quantity; n < 1 removes the line.
func (e *CartEngine) SetQuantity(ctx context.Context, key string, n int) bool {
	if n < 1 {
		return e.Mutate(ctx, key, func(it cartdom.Item) (cartdom.Item, bool) {
			return it, false
		})
	}
	return e.Mutate(ctx, key, func(it cartdom.Item) (cartdom.Item, bool) {
		it.Qty = n
		return it, true
	})
}

// UpdateFields patches non-identity fields of a line. Identity fields (size,
// material, fingerprint) change the derived key and must go through
// remove + add instead.
func (e *CartEngine) UpdateFields(ctx context.Context, key string, patch cartdom.Patch) bool {
	return e.Mutate(ctx, key, func(it cartdom.Item) (cartdom.Item, bool) {
		patch.Apply(&it)
		return it, true
	})
}

// DistinctCount is the displayed badge count: distinct product ids.
// Recomputed on every read, never cached.
func (e *CartEngine) DistinctCount() int {
	return cartdom.DistinctCount(e.Items())
}

// Total is the extended price over all lines.
func (e *CartEngine) Total() int64 {
	return cartdom.Total(e.Items())
}
