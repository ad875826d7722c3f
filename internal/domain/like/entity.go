// internal/domain/like/entity.go
package like

// Aggregate is the per-item like state for the current session: the
// server-reported base count plus the signed delta contributed by this
// session's toggles.
type Aggregate struct {
	BaseCount int
	Delta     int
	Liked     bool
}

// Count is the displayed value, clamped at zero so a stale base count can
// never render a negative number.
func (a Aggregate) Count() int {
	n := a.BaseCount + a.Delta
	if n < 0 {
		return 0
	}
	return n
}

// Rollback is the exact pre-toggle state, captured at the moment the
// optimistic flip is applied. Restoring it is an exact inverse, not a
// re-derivation, so overlapping toggles cannot compound drift.
type Rollback struct {
	Delta int
	Liked bool
}

// Flip applies the optimistic toggle and returns the rollback token.
func (a *Aggregate) Flip() Rollback {
	rb := Rollback{Delta: a.Delta, Liked: a.Liked}
	if a.Liked {
		a.Delta--
	} else {
		a.Delta++
	}
	a.Liked = !a.Liked
	return rb
}

// Restore reverts a failed toggle to its exact pre-flip state.
func (a *Aggregate) Restore(rb Rollback) {
	a.Delta = rb.Delta
	a.Liked = rb.Liked
}
