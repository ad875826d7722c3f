// internal/domain/wishlist/merge.go
package wishlist

// Merge is the set union of the remote and guest-local wishlists.
// Remote-first: when both sides carry the same product id, the remote entry's
// fields win (first seen wins). Pure function, no side effects.
func Merge(remote, local []Item) []Item {
	out := make([]Item, 0, len(remote)+len(local))
	seen := map[string]struct{}{}

	for _, side := range [][]Item{remote, local} {
		for _, it := range side {
			k := it.Key()
			if k == "" {
				continue
			}
			if _, ok := seen[k]; ok {
				continue
			}
			seen[k] = struct{}{}
			out = append(out, it)
		}
	}

	return out
}
