// internal/domain/wishlist/entity.go
package wishlist

import (
	"errors"
	"strings"
)

var ErrInvalidItem = errors.New("wishlist: invalid item")

// Item is a saved product. The wishlist has set semantics: identity is the
// product id alone and there is no quantity.
type Item struct {
	ProductID string `json:"productId" firestore:"productId"`
	Name      string `json:"name,omitempty" firestore:"name,omitempty"`
	ImageURL  string `json:"imageUrl,omitempty" firestore:"imageUrl,omitempty"`

	// Price is in minor currency units, captured at save time for display.
	Price int64 `json:"price,omitempty" firestore:"price,omitempty"`
}

func (it Item) Key() string {
	return strings.TrimSpace(it.ProductID)
}

func (it Item) Validate() error {
	if it.Key() == "" {
		return ErrInvalidItem
	}
	return nil
}

// Contains reports whether the product id is already saved.
func Contains(items []Item, productID string) bool {
	pid := strings.TrimSpace(productID)
	for _, it := range items {
		if it.Key() == pid {
			return true
		}
	}
	return false
}

func Clone(items []Item) []Item {
	if len(items) == 0 {
		return []Item{}
	}
	out := make([]Item, len(items))
	copy(out, items)
	return out
}
