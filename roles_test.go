package adminauth_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	adminauth "github.com/theamal11z/grocerygunj-dashboard"
)

func TestParseRole(t *testing.T) {
	role, ok := adminauth.ParseRole("admin")
	assert.True(t, ok)
	assert.Equal(t, adminauth.RoleAdmin, role)

	role, ok = adminauth.ParseRole("customer")
	assert.True(t, ok)
	assert.Equal(t, adminauth.RoleCustomer, role)

	for _, raw := range []string{"", "Admin", "superadmin", "owner", "null"} {
		role, ok = adminauth.ParseRole(raw)
		assert.False(t, ok, "raw %q", raw)
		assert.Equal(t, adminauth.RoleUnknown, role)
	}
}

func TestRolePredicates(t *testing.T) {
	assert.True(t, adminauth.RoleAdmin.IsAdmin())
	assert.False(t, adminauth.RoleCustomer.IsAdmin())
	assert.False(t, adminauth.RoleUnknown.IsAdmin())

	assert.True(t, adminauth.RoleAdmin.IsValid())
	assert.True(t, adminauth.RoleCustomer.IsValid())
	assert.False(t, adminauth.RoleUnknown.IsValid())

	assert.Equal(t, "admin", adminauth.RoleAdmin.String())
	assert.Equal(t, "unknown", adminauth.RoleUnknown.String())

	assert.Equal(t, []adminauth.Role{adminauth.RoleAdmin, adminauth.RoleCustomer}, adminauth.GetAllRoles())
}

func TestProfileRoleDecoding(t *testing.T) {
	admin := &adminauth.Profile{Role: "admin"}
	assert.True(t, admin.IsAdmin())
	assert.Equal(t, adminauth.RoleAdmin, admin.ParsedRole())

	drifted := &adminauth.Profile{Role: "administrator"}
	assert.False(t, drifted.IsAdmin())
	assert.Equal(t, adminauth.RoleUnknown, drifted.ParsedRole())

	var nilProfile *adminauth.Profile
	assert.False(t, nilProfile.IsAdmin())
	assert.Equal(t, adminauth.RoleUnknown, nilProfile.ParsedRole())
}
