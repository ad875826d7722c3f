// internal/application/likes/engine.go
package likes

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"

	"atelier/internal/domain/like"
)

// ErrUnauthenticated rejects a toggle with no identity attached. Callers are
// expected to prompt sign-in.
var ErrUnauthenticated = errors.New("likes: sign in to continue")

// Remote persists toggles and serves counts from the remote store.
type Remote interface {
	SetLiked(ctx context.Context, uid, itemID string, liked bool) error
	BaseCount(ctx context.Context, itemID string) (int, error)
	LikedSet(ctx context.Context, uid string) ([]string, error)
}

// Event is emitted on every like-state change for an item. Err is non-nil
// when a failed toggle was rolled back.
type Event struct {
	ItemID string
	Liked  bool
	Count  int
	Err    error
}

// Engine is the per-item optimistic toggle machine: idle -> pending -> idle.
// The flip is applied before the network call; a failure restores the exact
// pre-toggle state from the rollback token captured at flip time.
type Engine struct {
	remote     Remote
	currentUID func() string // "" when no identity is attached
	log        *slog.Logger

	mu      sync.Mutex
	gen     uint64 // bumped whenever session like-state is reset
	entries map[string]*like.Aggregate
	pending map[string]struct{}
	subs    []func(Event)
}

func New(remote Remote, currentUID func() string, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		remote:     remote,
		currentUID: currentUID,
		log:        logger.With("component", "likes"),
		entries:    map[string]*like.Aggregate{},
		pending:    map[string]struct{}{},
	}
}

// Subscribe registers an event observer.
func (e *Engine) Subscribe(fn func(Event)) {
	e.mu.Lock()
	e.subs = append(e.subs, fn)
	e.mu.Unlock()
}

// EnsureLoaded lazily seeds the item's base count on first render. Entries
// are created per item actually viewed, never eagerly.
func (e *Engine) EnsureLoaded(ctx context.Context, itemID string) {
	e.mu.Lock()
	if _, ok := e.entries[itemID]; ok {
		e.mu.Unlock()
		return
	}
	e.entries[itemID] = &like.Aggregate{}
	e.mu.Unlock()

	base, err := e.remote.BaseCount(ctx, itemID)
	if err != nil {
		e.log.Warn("base count load failed", "itemId", itemID, "err", err)
		return
	}

	e.mu.Lock()
	if agg, ok := e.entries[itemID]; ok {
		agg.BaseCount = base
	}
	e.mu.Unlock()
}

// Count returns the displayed count: max(0, base + session delta).
func (e *Engine) Count(itemID string) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	if agg, ok := e.entries[itemID]; ok {
		return agg.Count()
	}
	return 0
}

// Liked reports the current session's membership for the item.
func (e *Engine) Liked(itemID string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if agg, ok := e.entries[itemID]; ok {
		return agg.Liked
	}
	return false
}

// Pending reports whether a toggle request is outstanding for the item.
func (e *Engine) Pending(itemID string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	_, ok := e.pending[itemID]
	return ok
}

// Toggle flips the like state for the item.
//
//   - rejects synchronously when no identity is attached
//   - no-op while a toggle for the same item is already pending, so rapid
//     clicks cannot double-submit
//   - optimistic: membership and count delta flip before the remote call;
//     on failure both are restored from the captured rollback token
func (e *Engine) Toggle(ctx context.Context, itemID string) error {
	itemID = strings.TrimSpace(itemID)
	if itemID == "" {
		return errors.New("likes: itemId is empty")
	}

	uid := e.currentUID()
	if uid == "" {
		return ErrUnauthenticated
	}

	e.mu.Lock()
	if _, inFlight := e.pending[itemID]; inFlight {
		e.mu.Unlock()
		return nil
	}
	agg, ok := e.entries[itemID]
	if !ok {
		agg = &like.Aggregate{}
		e.entries[itemID] = agg
	}
	rb := agg.Flip()
	liked := agg.Liked
	gen := e.gen
	e.pending[itemID] = struct{}{}
	e.emitLocked(Event{ItemID: itemID, Liked: agg.Liked, Count: agg.Count()})

	err := e.remote.SetLiked(ctx, uid, itemID, liked)

	e.mu.Lock()
	delete(e.pending, itemID)
	if err != nil {
		if gen != e.gen {
			// identity changed while the request was in flight; the rollback
			// token refers to session state that no longer exists
			e.mu.Unlock()
			e.log.Warn("toggle failed after session reset, rollback skipped", "uid", uid, "itemId", itemID, "err", err)
			return err
		}
		// exact inverse of the optimistic step, not a re-derivation
		agg.Restore(rb)
		e.log.Warn("toggle failed, rolled back", "uid", uid, "itemId", itemID, "err", err)
		e.emitLocked(Event{ItemID: itemID, Liked: agg.Liked, Count: agg.Count(), Err: err})
		return err
	}
	e.mu.Unlock()
	return nil
}

// OnIdentityChange reloads the liked set for the new user, or clears session
// state on logout. Base counts are kept: they are not user-scoped.
func (e *Engine) OnIdentityChange(ctx context.Context, uid string, authReady bool) {
	if !authReady {
		return
	}

	e.mu.Lock()
	e.gen++
	gen := e.gen
	for _, agg := range e.entries {
		agg.Delta = 0
		agg.Liked = false
	}
	e.mu.Unlock()

	if uid == "" {
		return
	}

	likedIDs, err := e.remote.LikedSet(ctx, uid)
	if err != nil {
		e.log.Warn("liked set load failed", "uid", uid, "err", err)
		return
	}

	e.mu.Lock()
	if gen != e.gen {
		// another identity change raced this load; its reload wins
		e.mu.Unlock()
		return
	}
	for _, id := range likedIDs {
		agg, ok := e.entries[id]
		if !ok {
			agg = &like.Aggregate{}
			e.entries[id] = agg
		}
		agg.Liked = true
	}
	e.mu.Unlock()
}

// emitLocked releases the lock and fans events out.
func (e *Engine) emitLocked(ev Event) {
	subs := make([]func(Event), len(e.subs))
	copy(subs, e.subs)
	e.mu.Unlock()
	for _, fn := range subs {
		fn(ev)
	}
}
