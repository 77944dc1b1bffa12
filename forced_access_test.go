//go:build !devbypass

package adminauth_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	adminauth "github.com/theamal11z/grocerygunj-dashboard"
)

func TestForcedAdminAccessDisabledByDefault(t *testing.T) {
	assert.False(t, adminauth.ForcedAdminAccess())

	err := adminauth.SetForcedAdminAccess(true)
	assert.ErrorIs(t, err, adminauth.ErrBypassDisabled)

	// Still off: the toggle does not exist in this build.
	assert.False(t, adminauth.ForcedAdminAccess())
}
