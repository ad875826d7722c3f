// internal/application/collection/wishlist.go
package collection

import (
	"context"
	"log/slog"

	wishdom "atelier/internal/domain/wishlist"
)

// WishlistEngine is the wishlist instance of the synchronization engine.
// Set semantics: adding an already-saved product is a no-op.
type WishlistEngine struct {
	*Engine[wishdom.Item]
}

func NewWishlistEngine(cache Cache, remote Remote[wishdom.Item], logger *slog.Logger) *WishlistEngine {
	return &WishlistEngine{
		Engine: New(Config[wishdom.Item]{
			Name:   "wishlist",
			Key:    wishdom.Item.Key,
			Merge:  wishdom.Merge,
			Logger: logger,
		}, cache, remote),
	}
}

func (e *WishlistEngine) Add(ctx context.Context, item wishdom.Item) error {
	if err := item.Validate(); err != nil {
		return err
	}
	e.Engine.Add(ctx, item)
	return nil
}

// Toggle adds the product when absent and removes it when present, returning
// whether it is saved afterwards.
func (e *WishlistEngine) Toggle(ctx context.Context, item wishdom.Item) (bool, error) {
	if err := item.Validate(); err != nil {
		return false, err
	}
	if e.Contains(item.ProductID) {
		e.Remove(ctx, item.Key())
		return false, nil
	}
	e.Engine.Add(ctx, item)
	return true, nil
}

func (e *WishlistEngine) Contains(productID string) bool {
	return wishdom.Contains(e.Items(), productID)
}
