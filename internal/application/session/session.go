// internal/application/session/session.go
package session

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"atelier/internal/domain/identity"
)

var (
	ErrNotReady        = errors.New("session: no identity attached")
	ErrNotProvisioning = errors.New("session: not awaiting signup")
)

// State of the identity session.
type State string

const (
	// StateLoading: before the first authentication event. Nothing may sync.
	StateLoading State = "loading"
	// StateAnonymous: guest session, local cache only.
	StateAnonymous State = "anonymous"
	// StateProvisioning: a credential is signed in but no identity record
	// exists yet. No default role is guessed: a concurrent signup flow may
	// be writing the real role set, and the first write must win.
	StateProvisioning State = "provisioning"
	// StateReady: identity record attached (possibly migrated in memory).
	StateReady State = "ready"
)

// Snapshot is the session state handed to subscribers.
type Snapshot struct {
	State      State
	UID        string
	Roles      []identity.Role
	ActiveRole identity.Role
	Onboarding identity.OnboardingStatus
}

// Listener observes identity transitions. The collection engines and the
// like engine register here.
type Listener interface {
	OnIdentityChange(ctx context.Context, uid string, authReady bool)
}

// Repository is the identity slice of the per-user remote document.
// Get returns (nil, nil) when no record exists for the uid.
type Repository interface {
	Get(ctx context.Context, uid string) (*identity.Record, error)
	Create(ctx context.Context, rec *identity.Record) error
	SetRoles(ctx context.Context, uid string, roles []identity.Role, active identity.Role) error
}

const roleWriteTimeout = 10 * time.Second

// Session owns the authenticated-user handle, the derived role set, the
// active role, and the tailor onboarding sub-state. It performs the legacy
// role-schema migration and repair on login.
type Session struct {
	repo Repository
	log  *slog.Logger

	mu        sync.Mutex
	state     State
	uid       string
	rec       *identity.Record
	repaired  map[string]bool // uids whose repair write was already issued
	listeners []Listener
	subs      []func(Snapshot)
}

func New(repo Repository, logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.Default()
	}
	return &Session{
		repo:     repo,
		log:      logger.With("component", "session"),
		state:    StateLoading,
		repaired: map[string]bool{},
	}
}

// RegisterListener adds an identity-change listener. Listeners are notified
// on every authentication transition after the session state has settled.
func (s *Session) RegisterListener(l Listener) {
	s.mu.Lock()
	s.listeners = append(s.listeners, l)
	s.mu.Unlock()
}

// Subscribe registers a snapshot observer for the UI layer.
func (s *Session) Subscribe(fn func(Snapshot)) {
	s.mu.Lock()
	s.subs = append(s.subs, fn)
	s.mu.Unlock()
}

// Current returns the session snapshot.
func (s *Session) Current() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// HandleAuthEvent processes an authentication event for uid ("" = signed
// out). It loads the identity record, migrates legacy shapes in memory,
// schedules the idempotent repair write, and notifies listeners.
func (s *Session) HandleAuthEvent(ctx context.Context, uid string) {
	uid = strings.TrimSpace(uid)
	if uid == "" {
		s.SignOut(ctx)
		return
	}

	rec, err := s.repo.Get(ctx, uid)

	s.mu.Lock()
	switch {
	case err != nil:
		// Safe degradation, not silent data loss: the app stays usable as a
		// plain customer and nothing is persisted in this branch.
		s.log.Warn("identity load failed, degrading to customer", "uid", uid, "err", err)
		fallback, _ := identity.NewRecord(uid, identity.RoleCustomer)
		s.state = StateReady
		s.uid = uid
		s.rec = fallback

	case rec == nil:
		// Signed in but recordless. Never default a role here: signup flows
		// create the record explicitly via CompleteSignUp.
		s.state = StateProvisioning
		s.uid = uid
		s.rec = nil

	default:
		rec.Migrate()
		if rec.NeedsRepair() && !s.repaired[uid] {
			s.repaired[uid] = true
			s.scheduleRepair(ctx, uid, rec.Roles, rec.ActiveRole)
		}
		s.state = StateReady
		s.uid = uid
		s.rec = rec
	}

	s.notifyLocked(ctx)
}

// SignOut clears the attached identity and moves listeners to guest mode.
func (s *Session) SignOut(ctx context.Context) {
	s.mu.Lock()
	s.state = StateAnonymous
	s.uid = ""
	s.rec = nil
	s.notifyLocked(ctx)
}

// CompleteSignUp creates the identity record for a provisioning session.
// This is the explicit first write that HandleAuthEvent declines to guess.
func (s *Session) CompleteSignUp(ctx context.Context, role identity.Role) error {
	s.mu.Lock()
	if s.state != StateProvisioning {
		s.mu.Unlock()
		return ErrNotProvisioning
	}
	uid := s.uid
	s.mu.Unlock()

	rec, err := identity.NewRecord(uid, role)
	if err != nil {
		return err
	}
	if err := s.repo.Create(ctx, rec); err != nil {
		return err
	}

	s.mu.Lock()
	if s.uid != uid {
		// signed out while the create was in flight
		s.mu.Unlock()
		return nil
	}
	s.state = StateReady
	s.rec = rec
	s.notifyLocked(ctx)
	return nil
}

// SwitchRole makes a held role active. The in-memory change is applied
// optimistically so navigation stays instantaneous; the remote write is
// best-effort and is not reverted on failure (the active role is cosmetic
// navigation context and the next successful write repairs it).
func (s *Session) SwitchRole(ctx context.Context, role identity.Role) error {
	s.mu.Lock()
	if s.state != StateReady || s.rec == nil {
		s.mu.Unlock()
		return ErrNotReady
	}
	if err := s.rec.SwitchActive(role); err != nil {
		s.mu.Unlock()
		return err
	}
	uid, roles, active := s.uid, append([]identity.Role(nil), s.rec.Roles...), s.rec.ActiveRole
	s.notifyLocked(ctx)

	go func() {
		wctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), roleWriteTimeout)
		defer cancel()
		if err := s.repo.SetRoles(wctx, uid, roles, active); err != nil {
			s.log.Warn("active role write failed", "uid", uid, "role", active, "err", err)
		}
	}()
	return nil
}

// AddRole appends to the role set (union, never replace) and makes the new
// role active; used when an existing customer registers as a tailor. Unlike
// SwitchRole this persists synchronously: gaining a capability must not be
// lost to a dropped write.
func (s *Session) AddRole(ctx context.Context, role identity.Role) error {
	s.mu.Lock()
	if s.state != StateReady || s.rec == nil {
		s.mu.Unlock()
		return ErrNotReady
	}
	if s.rec.HasRole(role) && s.rec.ActiveRole == role {
		s.mu.Unlock()
		return nil
	}
	if err := s.rec.AddRole(role); err != nil {
		s.mu.Unlock()
		return err
	}
	uid, roles, active := s.uid, append([]identity.Role(nil), s.rec.Roles...), s.rec.ActiveRole
	s.notifyLocked(ctx)

	return s.repo.SetRoles(ctx, uid, roles, active)
}

// SetOnboarding updates the tailor onboarding sub-state in memory. The
// persisted fields are written by the onboarding usecase.
func (s *Session) SetOnboarding(ctx context.Context, status identity.OnboardingStatus, data map[string]any) error {
	s.mu.Lock()
	if s.state != StateReady || s.rec == nil {
		s.mu.Unlock()
		return ErrNotReady
	}
	s.rec.OnboardingStatus = status
	if data != nil {
		s.rec.OnboardingData = data
	}
	s.notifyLocked(ctx)
	return nil
}

// scheduleRepair persists the migrated role shape exactly once per session.
// Caller holds s.mu; the repaired flag is already set.
func (s *Session) scheduleRepair(ctx context.Context, uid string, roles []identity.Role, active identity.Role) {
	rolesCopy := append([]identity.Role(nil), roles...)
	go func() {
		wctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), roleWriteTimeout)
		defer cancel()
		if err := s.repo.SetRoles(wctx, uid, rolesCopy, active); err != nil {
			s.log.Warn("role schema repair write failed", "uid", uid, "err", err)
			// allow a retry on the next auth event for this uid
			s.mu.Lock()
			delete(s.repaired, uid)
			s.mu.Unlock()
			return
		}
		s.log.Info("role schema repaired", "uid", uid, "roles", identity.RoleStrings(rolesCopy), "activeRole", string(active))
	}()
}

func (s *Session) snapshotLocked() Snapshot {
	snap := Snapshot{State: s.state, UID: s.uid}
	if s.rec != nil {
		snap.Roles = append([]identity.Role(nil), s.rec.Roles...)
		snap.ActiveRole = s.rec.ActiveRole
		snap.Onboarding = s.rec.OnboardingStatus
	}
	return snap
}

// notifyLocked releases the lock, then fans out to listeners and
// subscribers. authReady is true for every state except loading.
func (s *Session) notifyLocked(ctx context.Context) {
	snap := s.snapshotLocked()
	listeners := make([]Listener, len(s.listeners))
	copy(listeners, s.listeners)
	subs := make([]func(Snapshot), len(s.subs))
	copy(subs, s.subs)
	s.mu.Unlock()

	authReady := snap.State != StateLoading
	for _, l := range listeners {
		l.OnIdentityChange(ctx, snap.UID, authReady)
	}
	for _, fn := range subs {
		fn(snap)
	}
}
