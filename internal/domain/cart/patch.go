// internal/domain/cart/patch.go
package cart

// Patch carries partial updates for the non-identity fields of a line.
// Identity fields are excluded: changing them changes the derived key.
type Patch struct {
	Name      *string `json:"name,omitempty"`
	UnitPrice *int64  `json:"unitPrice,omitempty"`
}

func (p Patch) Apply(it *Item) {
	if it == nil {
		return
	}
	if p.Name != nil {
		it.Name = *p.Name
	}
	if p.UnitPrice != nil {
		it.UnitPrice = *p.UnitPrice
	}
}
