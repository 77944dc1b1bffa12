// Package adminauth implements the admin-session core of the GroceryGunj
// dashboard: the authentication lifecycle against the hosted backend, admin
// role verification, and the supporting diagnostics used to inspect and
// repair role state.
//
// Session lifecycle:
//   - Lifecycle owns the single cached Session for the process and is the
//     only component allowed to mutate authentication state. It moves through
//     initializing, authenticated, refresh_in_progress, and unauthenticated
//     using an explicit transition table, and serializes refresh calls so a
//     request arriving mid-refresh observes the in-flight outcome instead of
//     issuing a duplicate network call.
//   - Admin privilege is derived from the Profile role at the data-access
//     boundary. A failed profile fetch yields AdminIndeterminate, never a
//     denial; the route gate distinguishes "confirmed not admin" from
//     "could not determine".
//
// Diagnostics:
//   - Diagnostics cross-checks the profile-derived admin flag against the
//     server-side verification RPC and surfaces divergence as
//     AdminInconsistent without resolving it. RepairAdminRole performs the
//     operator-triggered role write through the elevated handle.
//
// Activity sinks:
//   - ActivitySink receives login, refresh, sign-out, and repair events.
//     Sinks run best-effort (errors are logged) so audit forwarding never
//     blocks authentication.
package adminauth
