package adminauth

// AdminStatus is the reconciled outcome of the two independent admin checks:
// the Profile role and the server-side verification RPC. The route gate must
// distinguish a confirmed denial from "could not determine"; only the latter
// warrants a refresh retry.
type AdminStatus string

const (
	// AdminIndeterminate means neither source produced a usable answer.
	AdminIndeterminate AdminStatus = "indeterminate"
	// AdminConfirmed means the available sources agree the user is admin.
	AdminConfirmed AdminStatus = "confirmed"
	// AdminDenied means the available sources agree the user is not admin.
	AdminDenied AdminStatus = "denied"
	// AdminInconsistent means the two sources disagree. Never auto-resolved.
	AdminInconsistent AdminStatus = "inconsistent"
)

// Granted reports whether the status allows protected content to render.
func (s AdminStatus) Granted() bool {
	return s == AdminConfirmed
}

// DeniedOutright reports a confirmed non-admin answer, the one case the gate
// renders "admin access required" instead of retrying.
func (s AdminStatus) DeniedOutright() bool {
	return s == AdminDenied
}

// Retryable reports whether another profile fetch or refresh could change
// the answer.
func (s AdminStatus) Retryable() bool {
	return s == AdminIndeterminate || s == AdminInconsistent
}

// ReconcileAdminStatus folds the profile fetch outcome and the optional
// verification payload into a single status. Rules, in order:
//
//   - Both sources present and disagreeing on the admin flag: Inconsistent.
//   - Profile present: Confirmed/Denied by its decoded role.
//   - Profile fetch failed but verification answered: Confirmed/Denied by
//     the verification flag.
//   - Nothing usable: Indeterminate.
func ReconcileAdminStatus(profile *Profile, profileErr error, verification *RoleVerification) AdminStatus {
	profileKnown := profileErr == nil && profile != nil
	profileAdmin := profileKnown && profile.IsAdmin()

	if profileKnown && verification != nil {
		if verification.IsAdmin != profileAdmin {
			return AdminInconsistent
		}
		if profileAdmin {
			return AdminConfirmed
		}
		return AdminDenied
	}

	if profileKnown {
		if profileAdmin {
			return AdminConfirmed
		}
		return AdminDenied
	}

	if verification != nil {
		if verification.IsAdmin {
			return AdminConfirmed
		}
		return AdminDenied
	}

	return AdminIndeterminate
}
