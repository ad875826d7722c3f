// internal/domain/cart/entity.go
package cart

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

var (
	ErrInvalidItem = errors.New("cart: invalid item")
)

// MaxKeyLen bounds the derived line key, in runes. Tailoring fingerprints
// can be long (serialized measurement sets), so the composite key is
// truncated to keep Firestore map keys and cache payloads small.
const MaxKeyLen = 80

// Item represents one line in the cart.
// Identity is the derived key of (productId, size, material, fingerprint):
// the same product ordered in a different size or with a different tailoring
// configuration is a different line.
type Item struct {
	ProductID   string `json:"productId" firestore:"productId"`
	Name        string `json:"name,omitempty" firestore:"name,omitempty"`
	Size        string `json:"size" firestore:"size"`
	Material    string `json:"material" firestore:"material"`
	Fingerprint string `json:"fingerprint" firestore:"fingerprint"`

	// UnitPrice is in minor currency units.
	UnitPrice int64 `json:"unitPrice" firestore:"unitPrice"`
	Qty       int   `json:"qty" firestore:"qty"`
}

// Key derives the composite line key, truncated to MaxKeyLen runes.
// Two adds that derive the same key are the same logical line and combine
// quantities instead of duplicating.
func (it Item) Key() string {
	return DeriveKey(it.ProductID, it.Size, it.Material, it.Fingerprint)
}

// DeriveKey builds the line key from the raw components.
func DeriveKey(productID, size, material, fingerprint string) string {
	k := strings.Join([]string{
		strings.TrimSpace(productID),
		strings.TrimSpace(size),
		strings.TrimSpace(material),
		strings.TrimSpace(fingerprint),
	}, "|")
	if utf8.RuneCountInString(k) > MaxKeyLen {
		// truncate on a rune boundary; fingerprints may carry multi-byte text
		k = string([]rune(k)[:MaxKeyLen])
	}
	return k
}

// Validate checks the minimum a line needs to be displayable and mergeable.
func (it Item) Validate() error {
	if strings.TrimSpace(it.ProductID) == "" {
		return fmt.Errorf("%w: productId is empty", ErrInvalidItem)
	}
	if it.Qty <= 0 {
		return fmt.Errorf("%w: qty must be >= 1", ErrInvalidItem)
	}
	if it.UnitPrice < 0 {
		return fmt.Errorf("%w: unitPrice is negative", ErrInvalidItem)
	}
	return nil
}

// DistinctCount is the displayed cart count: the number of distinct product
// ids, not the sum of line quantities.
func DistinctCount(items []Item) int {
	seen := map[string]struct{}{}
	for _, it := range items {
		pid := strings.TrimSpace(it.ProductID)
		if pid == "" {
			continue
		}
		seen[pid] = struct{}{}
	}
	return len(seen)
}

// Total is the extended price: sum of unitPrice * qty over all lines.
func Total(items []Item) int64 {
	var sum int64
	for _, it := range items {
		if it.Qty <= 0 {
			continue
		}
		sum += it.UnitPrice * int64(it.Qty)
	}
	return sum
}

// Clone returns a copy safe to hand to subscribers.
func Clone(items []Item) []Item {
	if len(items) == 0 {
		return []Item{}
	}
	out := make([]Item, len(items))
	copy(out, items)
	return out
}
