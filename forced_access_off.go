//go:build !devbypass

package adminauth

// SetForcedAdminAccess rejects the gate bypass: this build does not carry it.
func SetForcedAdminAccess(enabled bool) error {
	return ErrBypassDisabled
}

// ForcedAdminAccess always reports false outside devbypass builds.
func ForcedAdminAccess() bool {
	return false
}
