// internal/application/collection/engine.go
package collection

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"
)

// State is the synchronization state of a collection snapshot.
type State string

const (
	// StateLocalOnly: guest mode, or remote unavailable. Mutations persist
	// to the local cache only.
	StateLocalOnly State = "localOnly"
	// StateSyncing: a user became available and the one-time merge fetch is
	// in flight. Mutations are admitted but not mirrored remotely yet.
	StateSyncing State = "syncing"
	// StateSynced: merge-on-login completed for the attached uid. Every
	// mutation is mirrored to the remote document.
	StateSynced State = "synced"
)

// Snapshot is what subscribers (the UI layer) observe.
type Snapshot[T any] struct {
	Items []T
	State State
	UID   string
	// JustAdded carries the key of the most recently added item for the
	// transient "added to cart" feedback; cleared automatically.
	JustAdded string
}

// Cache is the synchronous local snapshot store (localcache.Cache).
type Cache interface {
	Get(key string) ([]byte, error)
	Set(key string, payload []byte) error
	Remove(key string) error
}

// Remote reads and writes one collection field of the per-user remote
// document. exists=false means the user has no stored collection yet.
type Remote[T any] interface {
	Fetch(ctx context.Context, uid string) (items []T, exists bool, err error)
	Store(ctx context.Context, uid string, items []T) error
}

// DefaultJustAddedTTL is how long the "just added" signal stays up.
const DefaultJustAddedTTL = 2 * time.Second

const remoteWriteTimeout = 10 * time.Second

// Config parametrizes the engine per collection variant.
type Config[T any] struct {
	// Name is the cache key and log component ("cart", "wishlist").
	Name string
	// Key returns the stable identity of an item.
	Key func(T) string
	// Merge combines (remote, local) per the collection's semantics.
	Merge func(remote, local []T) []T

	JustAddedTTL time.Duration
	Logger       *slog.Logger
}

// Engine keeps one keyed collection consistent across the guest-local cache,
// the per-user remote document, and in-memory mutations.
//
// All state transitions happen under mu. Remote I/O runs outside the lock;
// results are applied only if the sync generation is still current, so a
// late-arriving fetch for a previous session can never reinstate stale data.
type Engine[T any] struct {
	cfg    Config[T]
	cache  Cache
	remote Remote[T]
	log    *slog.Logger

	mu        sync.Mutex
	items     []T
	state     State
	uid       string
	gen       uint64 // bumped on every identity transition
	justAdded string
	subs      []func(Snapshot[T])
}

// New seeds the in-memory snapshot from the local cache synchronously. It
// never touches the remote store, so first paint always has guest state
// available even while a returning user's remote fetch is in flight.
func New[T any](cfg Config[T], cache Cache, remote Remote[T]) *Engine[T] {
	if cfg.JustAddedTTL <= 0 {
		cfg.JustAddedTTL = DefaultJustAddedTTL
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	e := &Engine[T]{
		cfg:    cfg,
		cache:  cache,
		remote: remote,
		log:    logger.With("component", cfg.Name),
		items:  []T{},
		state:  StateLocalOnly,
	}

	payload, err := cache.Get(cfg.Name)
	if err != nil {
		e.log.Warn("local cache read failed, starting empty", "err", err)
		return e
	}
	if len(payload) == 0 {
		return e
	}
	var items []T
	if err := json.Unmarshal(payload, &items); err != nil {
		// corrupt snapshot: treated as empty, never propagated
		e.log.Warn("local cache payload corrupt, starting empty", "err", err)
		return e
	}
	e.items = items
	return e
}

// Subscribe registers a listener invoked after every state change.
func (e *Engine[T]) Subscribe(fn func(Snapshot[T])) {
	e.mu.Lock()
	e.subs = append(e.subs, fn)
	e.mu.Unlock()
}

// Snapshot returns the current state for rendering.
func (e *Engine[T]) Snapshot() Snapshot[T] {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshotLocked()
}

// Items returns a copy of the current items.
func (e *Engine[T]) Items() []T {
	return e.Snapshot().Items
}

// OnIdentityChange reacts to identity transitions.
//
//   - authReady=false: defer; nothing may be read or written before we know
//     whether a session will resume.
//   - uid="": logout. Revert to local-only and persist the in-memory
//     snapshot to the local cache. The remote store is not touched.
//   - uid set: run the one-time merge unless already synced for this uid.
func (e *Engine[T]) OnIdentityChange(ctx context.Context, uid string, authReady bool) {
	if !authReady {
		return
	}

	e.mu.Lock()

	if uid == "" {
		if e.state == StateLocalOnly && e.uid == "" {
			e.mu.Unlock()
			return
		}
		e.gen++
		e.state = StateLocalOnly
		e.uid = ""
		e.persistLocalLocked()
		e.notifyLocked()
		return
	}

	if e.state == StateSynced && e.uid == uid {
		// idempotent guard: re-entering syncing for an already-synced user
		e.mu.Unlock()
		return
	}

	e.gen++
	myGen := e.gen
	e.state = StateSyncing
	e.uid = uid
	e.mu.Unlock()

	remoteItems, exists, err := e.remote.Fetch(ctx, uid)

	e.mu.Lock()
	if e.gen != myGen {
		// logged out or re-logged in while the fetch was in flight
		e.mu.Unlock()
		return
	}
	if err != nil {
		// proceed local-only; staying un-synced means the next identity
		// evaluation retries the merge
		e.state = StateLocalOnly
		e.log.Warn("merge fetch failed, continuing local-only", "uid", uid, "err", err)
		e.notifyLocked()
		return
	}

	merged := e.cfg.Merge(remoteItems, e.items)
	needWrite := !exists || !equalJSON(merged, remoteItems)
	e.items = merged
	e.state = StateSynced
	e.persistLocalLocked()
	e.notifyLocked()

	if needWrite {
		e.storeRemote(ctx, uid, merged)
	}
}

// Add inserts the item through the collection's merge semantics: an existing
// key combines, a new key appends. Raises the transient "just added" signal.
func (e *Engine[T]) Add(ctx context.Context, item T) {
	key := e.cfg.Key(item)

	e.mu.Lock()
	e.items = e.cfg.Merge(e.items, []T{item})
	e.justAdded = key
	e.afterMutationLocked(ctx)

	time.AfterFunc(e.cfg.JustAddedTTL, func() {
		e.mu.Lock()
		if e.justAdded != key {
			e.mu.Unlock()
			return
		}
		e.justAdded = ""
		e.notifyLocked()
	})
}

// Remove drops the item with the given key, if present.
func (e *Engine[T]) Remove(ctx context.Context, key string) {
	e.mu.Lock()
	kept := e.items[:0:0]
	for _, it := range e.items {
		if e.cfg.Key(it) == key {
			continue
		}
		kept = append(kept, it)
	}
	e.items = kept
	e.afterMutationLocked(ctx)
}

// Mutate applies fn to the item with the given key. fn returns the updated
// item and whether to keep it; keep=false removes the line. Returns false if
// the key is absent.
func (e *Engine[T]) Mutate(ctx context.Context, key string, fn func(T) (T, bool)) bool {
	e.mu.Lock()
	for i, it := range e.items {
		if e.cfg.Key(it) != key {
			continue
		}
		updated, keep := fn(it)
		if keep {
			e.items[i] = updated
		} else {
			e.items = append(e.items[:i], e.items[i+1:]...)
		}
		e.afterMutationLocked(ctx)
		return true
	}
	e.mu.Unlock()
	return false
}

// Clear empties the collection and erases its local cache entry. If a synced
// user is attached the empty snapshot is mirrored remotely.
func (e *Engine[T]) Clear(ctx context.Context) {
	e.mu.Lock()
	e.items = []T{}
	if err := e.cache.Remove(e.cfg.Name); err != nil {
		e.log.Warn("local cache remove failed", "err", err)
	}
	e.writeThroughLocked(ctx)
	e.notifyLocked()
}

// afterMutationLocked runs the write-through path and releases the lock via
// notifyLocked.
func (e *Engine[T]) afterMutationLocked(ctx context.Context) {
	e.persistLocalLocked()
	e.writeThroughLocked(ctx)
	e.notifyLocked()
}

// persistLocalLocked mirrors the snapshot to the local cache. Failures are
// logged and swallowed: the user is never blocked from shopping.
func (e *Engine[T]) persistLocalLocked() {
	payload, err := json.Marshal(e.items)
	if err != nil {
		e.log.Warn("snapshot marshal failed", "err", err)
		return
	}
	if err := e.cache.Set(e.cfg.Name, payload); err != nil {
		e.log.Warn("local cache write failed", "err", err)
	}
}

// writeThroughLocked mirrors the snapshot to the remote document, but only
// once the merge-on-login has completed. The synced flag, not the mere
// presence of a uid, gates the write: a mutation during the merge fetch must
// not reach the remote store ahead of the authoritative merge.
func (e *Engine[T]) writeThroughLocked(ctx context.Context) {
	if e.state != StateSynced {
		return
	}
	e.storeRemote(ctx, e.uid, cloneSlice(e.items))
}

// storeRemote is fire-and-forget: a failure is logged, never rolls back the
// local change, and is implicitly retried by the next mutation's
// write-through.
func (e *Engine[T]) storeRemote(ctx context.Context, uid string, items []T) {
	go func() {
		wctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), remoteWriteTimeout)
		defer cancel()
		if err := e.remote.Store(wctx, uid, items); err != nil {
			e.log.Warn("remote write-through failed", "uid", uid, "err", err)
		}
	}()
}

func (e *Engine[T]) snapshotLocked() Snapshot[T] {
	return Snapshot[T]{
		Items:     cloneSlice(e.items),
		State:     e.state,
		UID:       e.uid,
		JustAdded: e.justAdded,
	}
}

// notifyLocked releases the lock and invokes subscribers outside it.
func (e *Engine[T]) notifyLocked() {
	snap := e.snapshotLocked()
	subs := make([]func(Snapshot[T]), len(e.subs))
	copy(subs, e.subs)
	e.mu.Unlock()

	for _, fn := range subs {
		fn(snap)
	}
}

func cloneSlice[T any](items []T) []T {
	out := make([]T, len(items))
	copy(out, items)
	return out
}

func equalJSON[T any](a, b []T) bool {
	ab, err1 := json.Marshal(a)
	bb, err2 := json.Marshal(b)
	if err1 != nil || err2 != nil {
		return false
	}
	return bytes.Equal(ab, bb)
}
