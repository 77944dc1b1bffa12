//go:build devbypass

package adminauth

import "sync/atomic"

// forcedAdminAccess lets integration suites built with the devbypass tag walk
// through the route gate without a backend. Production builds compile the
// stub in forced_access_off.go instead, so the toggle cannot exist there.
var forcedAdminAccess atomic.Bool

// SetForcedAdminAccess toggles the gate bypass for this process.
func SetForcedAdminAccess(enabled bool) error {
	forcedAdminAccess.Store(enabled)
	return nil
}

// ForcedAdminAccess reports whether the gate bypass is active.
func ForcedAdminAccess() bool {
	return forcedAdminAccess.Load()
}
