package identity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrateFromLegacySingularRole(t *testing.T) {
	r := &Record{UID: "u1", LegacyRole: RoleTailor}

	require.True(t, r.NeedsRepair())
	r.Migrate()

	assert.Equal(t, []Role{RoleTailor}, r.Roles)
	assert.Equal(t, RoleTailor, r.ActiveRole)
	// migration is in-memory only, the stored-shape flags are untouched
	assert.False(t, r.HasRoles)
	require.NoError(t, r.Validate())
}

func TestRepairGuardPluralWithoutActive(t *testing.T) {
	r := &Record{UID: "u1", Roles: []Role{RoleCustomer, RoleTailor}, HasRoles: true}

	require.True(t, r.NeedsRepair())
	r.Migrate()

	assert.Equal(t, RoleCustomer, r.ActiveRole)
}

func TestRepairGuardIsSteadyStateForModernRecords(t *testing.T) {
	r := &Record{
		UID:           "u1",
		Roles:         []Role{RoleCustomer},
		ActiveRole:    RoleCustomer,
		HasRoles:      true,
		HasActiveRole: true,
	}
	assert.False(t, r.NeedsRepair())
}

func TestSwitchActiveRequiresHeldRole(t *testing.T) {
	r, err := NewRecord("u1", RoleCustomer)
	require.NoError(t, err)

	err = r.SwitchActive(RoleAdmin)
	assert.ErrorIs(t, err, ErrRoleNotHeld)
	assert.Equal(t, RoleCustomer, r.ActiveRole)

	require.NoError(t, r.AddRole(RoleTailor))
	require.NoError(t, r.SwitchActive(RoleCustomer))
	assert.Equal(t, RoleCustomer, r.ActiveRole)
	assert.ElementsMatch(t, []Role{RoleCustomer, RoleTailor}, r.Roles)
}

func TestAddRoleIsUnion(t *testing.T) {
	r, err := NewRecord("u1", RoleCustomer)
	require.NoError(t, err)

	require.NoError(t, r.AddRole(RoleTailor))
	require.NoError(t, r.AddRole(RoleTailor))

	assert.Equal(t, []Role{RoleCustomer, RoleTailor}, r.Roles)
	assert.Equal(t, RoleTailor, r.ActiveRole)
}

func TestNormalizeRolesDropsUnknownAndDuplicates(t *testing.T) {
	got := NormalizeRoles([]string{"customer", "Tailor", "customer", "superuser", " admin "})
	assert.Equal(t, []Role{RoleCustomer, RoleTailor, RoleAdmin}, got)
}
