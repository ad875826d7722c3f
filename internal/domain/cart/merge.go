// internal/domain/cart/merge.go
package cart

import "strings"

// Merge combines the remote (authoritative) cart with the guest-local cart.
// Pure function, no side effects.
//
// Semantics:
//   - start from remote lines, keyed by derived key, in remote order
//   - a local line whose key already exists adds its qty into that line
//   - a local line with a new key is appended in local order
//
// No quantity is lost and no duplicate keys exist in the output. Invalid
// lines (blank productId, qty <= 0) are dropped on either side.
func Merge(remote, local []Item) []Item {
	out := make([]Item, 0, len(remote)+len(local))
	index := map[string]int{}

	for _, it := range normalize(remote) {
		k := it.Key()
		if at, ok := index[k]; ok {
			out[at].Qty += it.Qty
			continue
		}
		index[k] = len(out)
		out = append(out, it)
	}

	for _, it := range normalize(local) {
		k := it.Key()
		if at, ok := index[k]; ok {
			out[at].Qty += it.Qty
			// fill fields the remote side may have lost
			if out[at].Name == "" {
				out[at].Name = it.Name
			}
			if out[at].UnitPrice == 0 {
				out[at].UnitPrice = it.UnitPrice
			}
			continue
		}
		index[k] = len(out)
		out = append(out, it)
	}

	return out
}

// normalize drops invalid lines and collapses duplicate keys within one side
// (legacy documents can contain them) before the two sides are merged.
func normalize(items []Item) []Item {
	out := make([]Item, 0, len(items))
	index := map[string]int{}
	for _, it := range items {
		if strings.TrimSpace(it.ProductID) == "" || it.Qty <= 0 {
			continue
		}
		k := it.Key()
		if at, ok := index[k]; ok {
			out[at].Qty += it.Qty
			continue
		}
		index[k] = len(out)
		out = append(out, it)
	}
	return out
}
