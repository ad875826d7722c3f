// internal/adapters/out/firestore/identity_repository_fs.go
package firestore

import (
	"context"
	"errors"
	"strings"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	iddom "atelier/internal/domain/identity"
)

// IdentityRepositoryFS reads and writes the identity fields of the per-user
// document (collection: users, docId: Firebase Auth uid).
//
// The role schema evolved over time:
//   - current: roles ([]string) + activeRole (string)
//   - legacy:  role (string)
//
// Get preserves which shape was actually stored via the record's read-time
// flags; the session decides whether a repair write is due.
type IdentityRepositoryFS struct {
	Client *firestore.Client
}

func NewIdentityRepositoryFS(client *firestore.Client) *IdentityRepositoryFS {
	return &IdentityRepositoryFS{Client: client}
}

func (r *IdentityRepositoryFS) col() *firestore.CollectionRef {
	return r.Client.Collection("users")
}

// Get returns (nil, nil) when no document exists, or when the document
// exists but carries no identity fields at all (a guest cart synced during
// provisioning creates the doc before signup completes).
func (r *IdentityRepositoryFS) Get(ctx context.Context, uid string) (*iddom.Record, error) {
	if r == nil || r.Client == nil {
		return nil, errors.New("identity_repository_fs: firestore client is nil")
	}

	uid = strings.TrimSpace(uid)
	if uid == "" {
		return nil, errors.New("identity_repository_fs: uid is empty")
	}

	snap, err := r.col().Doc(uid).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, nil
		}
		return nil, err
	}

	raw := snap.Data()
	if raw == nil {
		return nil, nil
	}

	rec := &iddom.Record{UID: uid}

	if v, ok := raw["roles"]; ok {
		rec.HasRoles = true
		rec.Roles = iddom.NormalizeRoles(asStringSlice(v))
	}
	if v, ok := raw["activeRole"]; ok {
		if role, valid := iddom.ParseRole(asString(v)); valid {
			rec.HasActiveRole = true
			rec.ActiveRole = role
		}
	}
	if v, ok := raw["role"]; ok {
		if role, valid := iddom.ParseRole(asString(v)); valid {
			rec.LegacyRole = role
		}
	}

	if v, ok := raw["onboardingStatus"]; ok {
		rec.OnboardingStatus = iddom.OnboardingStatus(strings.TrimSpace(asString(v)))
	}
	if v, ok := raw["onboardingData"]; ok {
		if m, isMap := v.(map[string]any); isMap {
			rec.OnboardingData = m
		}
	}

	if !rec.HasRoles && rec.LegacyRole == "" {
		// document exists for other fields only; identity not provisioned
		return nil, nil
	}
	return rec, nil
}

// Create merge-writes the identity fields for explicit signup. Merge, not
// overwrite: the document may already hold a cart synced while the session
// was provisioning.
func (r *IdentityRepositoryFS) Create(ctx context.Context, rec *iddom.Record) error {
	if r == nil || r.Client == nil {
		return errors.New("identity_repository_fs: firestore client is nil")
	}
	if rec == nil {
		return errors.New("identity_repository_fs: record is nil")
	}
	uid := strings.TrimSpace(rec.UID)
	if uid == "" {
		return iddom.ErrInvalidUID
	}

	now := time.Now().UTC()
	_, err := r.col().Doc(uid).Set(ctx, map[string]any{
		"roles":      iddom.RoleStrings(rec.Roles),
		"activeRole": string(rec.ActiveRole),
		"createdAt":  now,
		"updatedAt":  now,
	}, firestore.MergeAll)
	return err
}

// SetRoles persists the plural role shape. Used both for role switching and
// for the one-time legacy schema repair.
func (r *IdentityRepositoryFS) SetRoles(ctx context.Context, uid string, roles []iddom.Role, active iddom.Role) error {
	if r == nil || r.Client == nil {
		return errors.New("identity_repository_fs: firestore client is nil")
	}

	uid = strings.TrimSpace(uid)
	if uid == "" {
		return errors.New("identity_repository_fs: uid is empty")
	}
	if len(roles) == 0 {
		return iddom.ErrNoRoles
	}

	_, err := r.col().Doc(uid).Set(ctx, map[string]any{
		"roles":      iddom.RoleStrings(roles),
		"activeRole": string(active),
		"updatedAt":  time.Now().UTC(),
	}, firestore.MergeAll)
	return err
}

// SetOnboarding persists the tailor onboarding sub-state.
func (r *IdentityRepositoryFS) SetOnboarding(ctx context.Context, uid string, status iddom.OnboardingStatus, data map[string]any) error {
	if r == nil || r.Client == nil {
		return errors.New("identity_repository_fs: firestore client is nil")
	}

	uid = strings.TrimSpace(uid)
	if uid == "" {
		return errors.New("identity_repository_fs: uid is empty")
	}

	fields := map[string]any{
		"onboardingStatus": string(status),
		"updatedAt":        time.Now().UTC(),
	}
	if data != nil {
		fields["onboardingData"] = data
	}

	_, err := r.col().Doc(uid).Set(ctx, fields, firestore.MergeAll)
	return err
}
