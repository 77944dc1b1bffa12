package adminauth

import (
	"github.com/goliatone/go-router"
)

// GetRouterSnapshot extracts the Snapshot the route gate stored in the
// router's locals.
func GetRouterSnapshot(ctx router.Context, key string) (Snapshot, bool) {
	if key == "" {
		key = "auth_snapshot" // Default key used by the admin gate
	}
	raw := ctx.Locals(key)
	if raw == nil {
		return Snapshot{}, false
	}
	snap, ok := raw.(Snapshot)
	return snap, ok
}
