// internal/domain/identity/entity.go
package identity

import (
	"errors"
	"strings"
)

var (
	ErrInvalidUID    = errors.New("identity: invalid uid")
	ErrRoleNotHeld   = errors.New("identity: role not held")
	ErrNoRoles       = errors.New("identity: record has no roles")
	ErrInvalidRecord = errors.New("identity: invalid record")
)

// OnboardingStatus tracks the tailor role's KYC/KYT sub-state. It is empty
// for accounts that never registered as a tailor.
type OnboardingStatus string

const (
	OnboardingNone      OnboardingStatus = ""
	OnboardingSubmitted OnboardingStatus = "submitted"
	OnboardingApproved  OnboardingStatus = "approved"
	OnboardingRejected  OnboardingStatus = "rejected"
)

// Record is the per-user identity document as read from the remote store.
//
// The schema evolved from a singular `role` field to a `roles` set plus
// `activeRole`. The Has*/Legacy* flags preserve what was actually present in
// the stored document so the repair guard can stay idempotent: a record is
// repaired once, and a record already carrying the plural shape is never
// rewritten.
type Record struct {
	UID        string
	Roles      []Role
	ActiveRole Role

	OnboardingStatus OnboardingStatus
	OnboardingData   map[string]any

	// Read-time flags describing the stored shape, not the derived state.
	HasRoles      bool
	HasActiveRole bool
	LegacyRole    Role // non-empty when the legacy singular field was present
}

// NewRecord creates a fully-provisioned record for explicit signup.
func NewRecord(uid string, role Role) (*Record, error) {
	uid = strings.TrimSpace(uid)
	if uid == "" {
		return nil, ErrInvalidUID
	}
	if _, ok := ParseRole(string(role)); !ok {
		return nil, ErrInvalidRecord
	}
	return &Record{
		UID:           uid,
		Roles:         []Role{role},
		ActiveRole:    role,
		HasRoles:      true,
		HasActiveRole: true,
	}, nil
}

// NeedsRepair reports whether the stored shape is stale:
// the legacy singular field without the plural set, or the plural set
// without an active-role field. Both are expected historical states, not
// errors, and both are safe to repair exactly once.
func (r *Record) NeedsRepair() bool {
	if r == nil {
		return false
	}
	if r.LegacyRole != "" && !r.HasRoles {
		return true
	}
	if r.HasRoles && !r.HasActiveRole {
		return true
	}
	return false
}

// Migrate derives the in-memory role set from whatever shape was stored, so
// the session is correct immediately even before the repair write lands.
// It never touches the Has*/Legacy* flags: those describe the stored doc.
func (r *Record) Migrate() {
	if r == nil {
		return
	}
	if len(r.Roles) == 0 && r.LegacyRole != "" {
		r.Roles = []Role{r.LegacyRole}
	}
	if r.ActiveRole == "" && len(r.Roles) > 0 {
		r.ActiveRole = r.Roles[0]
	}
}

// HasRole reports membership in the role set.
func (r *Record) HasRole(role Role) bool {
	if r == nil {
		return false
	}
	for _, held := range r.Roles {
		if held == role {
			return true
		}
	}
	return false
}

// SwitchActive sets the active role. The role must already be held.
func (r *Record) SwitchActive(role Role) error {
	if r == nil {
		return ErrInvalidRecord
	}
	if !r.HasRole(role) {
		return ErrRoleNotHeld
	}
	r.ActiveRole = role
	return nil
}

// AddRole appends to the role set (union, never replace) and makes the new
// role active. Used when an existing customer registers as a tailor.
func (r *Record) AddRole(role Role) error {
	if r == nil {
		return ErrInvalidRecord
	}
	if _, ok := ParseRole(string(role)); !ok {
		return ErrInvalidRecord
	}
	if !r.HasRole(role) {
		r.Roles = append(r.Roles, role)
	}
	r.ActiveRole = role
	return nil
}

// Validate checks the steady-state invariants of a provisioned record.
func (r *Record) Validate() error {
	if r == nil || strings.TrimSpace(r.UID) == "" {
		return ErrInvalidRecord
	}
	if len(r.Roles) == 0 {
		return ErrNoRoles
	}
	if r.ActiveRole != "" && !r.HasRole(r.ActiveRole) {
		return ErrRoleNotHeld
	}
	return nil
}
