package session

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"atelier/internal/domain/identity"
)

type fakeRepo struct {
	mu         sync.Mutex
	rec        *identity.Record
	getErr     error
	setErr     error
	gets       int
	creates    int
	setRoles   int
	lastRoles  []identity.Role
	lastActive identity.Role
}

func (r *fakeRepo) Get(ctx context.Context, uid string) (*identity.Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.gets++
	if r.getErr != nil {
		return nil, r.getErr
	}
	if r.rec == nil {
		return nil, nil
	}
	cp := *r.rec
	cp.Roles = append([]identity.Role(nil), r.rec.Roles...)
	return &cp, nil
}

func (r *fakeRepo) Create(ctx context.Context, rec *identity.Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.creates++
	r.rec = rec
	return nil
}

func (r *fakeRepo) SetRoles(ctx context.Context, uid string, roles []identity.Role, active identity.Role) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.setErr != nil {
		return r.setErr
	}
	r.setRoles++
	r.lastRoles = roles
	r.lastActive = active
	return nil
}

func (r *fakeRepo) setRoleCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.setRoles
}

type recordingListener struct {
	mu     sync.Mutex
	events []struct {
		uid   string
		ready bool
	}
}

func (l *recordingListener) OnIdentityChange(ctx context.Context, uid string, authReady bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, struct {
		uid   string
		ready bool
	}{uid, authReady})
}

func (l *recordingListener) last() (string, bool, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.events) == 0 {
		return "", false, false
	}
	e := l.events[len(l.events)-1]
	return e.uid, e.ready, true
}

func TestMissingRecordEntersProvisioningWithoutGuessingRole(t *testing.T) {
	repo := &fakeRepo{}
	s := New(repo, nil)

	s.HandleAuthEvent(context.Background(), "u1")

	snap := s.Current()
	assert.Equal(t, StateProvisioning, snap.State)
	assert.Equal(t, "u1", snap.UID)
	assert.Empty(t, snap.Roles)
	// nothing is written: a concurrent signup flow owns the first write
	time.Sleep(20 * time.Millisecond)
	assert.Zero(t, repo.setRoleCount())
	assert.Zero(t, repo.creates)
}

func TestCompleteSignUpCreatesRecordExplicitly(t *testing.T) {
	repo := &fakeRepo{}
	s := New(repo, nil)
	s.HandleAuthEvent(context.Background(), "u1")

	require.NoError(t, s.CompleteSignUp(context.Background(), identity.RoleCustomer))

	snap := s.Current()
	assert.Equal(t, StateReady, snap.State)
	assert.Equal(t, []identity.Role{identity.RoleCustomer}, snap.Roles)
	assert.Equal(t, 1, repo.creates)
}

func TestCompleteSignUpOutsideProvisioningFails(t *testing.T) {
	s := New(&fakeRepo{}, nil)
	err := s.CompleteSignUp(context.Background(), identity.RoleCustomer)
	assert.ErrorIs(t, err, ErrNotProvisioning)
}

func TestLegacyRecordMigratedAndRepairedExactlyOnce(t *testing.T) {
	repo := &fakeRepo{rec: &identity.Record{UID: "u1", LegacyRole: identity.RoleTailor}}
	s := New(repo, nil)

	s.HandleAuthEvent(context.Background(), "u1")

	snap := s.Current()
	assert.Equal(t, StateReady, snap.State)
	assert.Equal(t, []identity.Role{identity.RoleTailor}, snap.Roles)
	assert.Equal(t, identity.RoleTailor, snap.ActiveRole)

	require.Eventually(t, func() bool { return repo.setRoleCount() == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, identity.RoleTailor, repo.lastActive)

	// the stored doc still looks legacy in this fake, but the repair guard
	// must not issue a second write this session
	s.HandleAuthEvent(context.Background(), "u1")
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, 1, repo.setRoleCount())
}

func TestPluralWithoutActiveRoleIsRepaired(t *testing.T) {
	repo := &fakeRepo{rec: &identity.Record{
		UID:      "u1",
		Roles:    []identity.Role{identity.RoleCustomer, identity.RoleAdmin},
		HasRoles: true,
	}}
	s := New(repo, nil)

	s.HandleAuthEvent(context.Background(), "u1")

	snap := s.Current()
	assert.Equal(t, identity.RoleCustomer, snap.ActiveRole)
	require.Eventually(t, func() bool { return repo.setRoleCount() == 1 }, time.Second, 5*time.Millisecond)
}

func TestModernRecordNeverRewritten(t *testing.T) {
	repo := &fakeRepo{rec: &identity.Record{
		UID:           "u1",
		Roles:         []identity.Role{identity.RoleCustomer},
		ActiveRole:    identity.RoleCustomer,
		HasRoles:      true,
		HasActiveRole: true,
	}}
	s := New(repo, nil)

	s.HandleAuthEvent(context.Background(), "u1")

	time.Sleep(20 * time.Millisecond)
	assert.Zero(t, repo.setRoleCount())
}

func TestLoadFailureDegradesToCustomerWithoutPersisting(t *testing.T) {
	repo := &fakeRepo{getErr: assert.AnError}
	s := New(repo, nil)

	s.HandleAuthEvent(context.Background(), "u1")

	snap := s.Current()
	assert.Equal(t, StateReady, snap.State)
	assert.Equal(t, []identity.Role{identity.RoleCustomer}, snap.Roles)
	assert.Equal(t, identity.RoleCustomer, snap.ActiveRole)
	time.Sleep(20 * time.Millisecond)
	assert.Zero(t, repo.setRoleCount())
	assert.Zero(t, repo.creates)
}

func TestSwitchRoleRequiresHeldRole(t *testing.T) {
	repo := &fakeRepo{rec: &identity.Record{
		UID:           "u1",
		Roles:         []identity.Role{identity.RoleCustomer, identity.RoleTailor},
		ActiveRole:    identity.RoleCustomer,
		HasRoles:      true,
		HasActiveRole: true,
	}}
	s := New(repo, nil)
	s.HandleAuthEvent(context.Background(), "u1")

	err := s.SwitchRole(context.Background(), identity.RoleAdmin)
	assert.ErrorIs(t, err, identity.ErrRoleNotHeld)
	assert.Equal(t, identity.RoleCustomer, s.Current().ActiveRole)

	require.NoError(t, s.SwitchRole(context.Background(), identity.RoleTailor))
	assert.Equal(t, identity.RoleTailor, s.Current().ActiveRole)
	require.Eventually(t, func() bool { return repo.setRoleCount() == 1 }, time.Second, 5*time.Millisecond)
}

func TestSwitchRoleIsOptimisticOnWriteFailure(t *testing.T) {
	repo := &fakeRepo{
		rec: &identity.Record{
			UID:           "u1",
			Roles:         []identity.Role{identity.RoleCustomer, identity.RoleTailor},
			ActiveRole:    identity.RoleCustomer,
			HasRoles:      true,
			HasActiveRole: true,
		},
		setErr: assert.AnError,
	}
	s := New(repo, nil)
	s.HandleAuthEvent(context.Background(), "u1")

	require.NoError(t, s.SwitchRole(context.Background(), identity.RoleTailor))

	// best-effort by design: the in-memory active role stands
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, identity.RoleTailor, s.Current().ActiveRole)
}

func TestAddRoleUnionAndActivate(t *testing.T) {
	repo := &fakeRepo{rec: &identity.Record{
		UID:           "u1",
		Roles:         []identity.Role{identity.RoleCustomer},
		ActiveRole:    identity.RoleCustomer,
		HasRoles:      true,
		HasActiveRole: true,
	}}
	s := New(repo, nil)
	s.HandleAuthEvent(context.Background(), "u1")

	require.NoError(t, s.AddRole(context.Background(), identity.RoleTailor))

	snap := s.Current()
	assert.Equal(t, []identity.Role{identity.RoleCustomer, identity.RoleTailor}, snap.Roles)
	assert.Equal(t, identity.RoleTailor, snap.ActiveRole)
	assert.Equal(t, 1, repo.setRoleCount())
}

func TestListenersObserveTransitions(t *testing.T) {
	repo := &fakeRepo{rec: &identity.Record{
		UID:           "u1",
		Roles:         []identity.Role{identity.RoleCustomer},
		ActiveRole:    identity.RoleCustomer,
		HasRoles:      true,
		HasActiveRole: true,
	}}
	s := New(repo, nil)
	l := &recordingListener{}
	s.RegisterListener(l)

	s.HandleAuthEvent(context.Background(), "u1")
	uid, ready, ok := l.last()
	require.True(t, ok)
	assert.Equal(t, "u1", uid)
	assert.True(t, ready)

	s.SignOut(context.Background())
	uid, ready, _ = l.last()
	assert.Empty(t, uid)
	assert.True(t, ready)
	assert.Equal(t, StateAnonymous, s.Current().State)
}
