package adminauth

// Role is the closed set of profile roles the dashboard understands. The
// backing column is free text, so every value crossing the data-access
// boundary goes through ParseRole and unknown strings collapse to RoleUnknown.
type Role string

const (
	// RoleAdmin grants access to the dashboard.
	RoleAdmin Role = "admin"
	// RoleCustomer is the default storefront role.
	RoleCustomer Role = "customer"
	// RoleUnknown covers null, empty, and drifted values.
	RoleUnknown Role = ""
)

// IsValid checks if the role is one of the predefined valid roles
func (r Role) IsValid() bool {
	switch r {
	case RoleAdmin, RoleCustomer:
		return true
	default:
		return false
	}
}

// IsAdmin reports whether the role grants dashboard access.
func (r Role) IsAdmin() bool {
	return r == RoleAdmin
}

// String returns the wire value of the role.
func (r Role) String() string {
	if r == RoleUnknown {
		return "unknown"
	}
	return string(r)
}

// GetAllRoles returns the assignable roles.
func GetAllRoles() []Role {
	return []Role{RoleAdmin, RoleCustomer}
}

// ParseRole decodes a raw role string. The second return reports whether the
// value was one of the known roles; anything else maps to RoleUnknown.
func ParseRole(raw string) (Role, bool) {
	role := Role(raw)
	if role.IsValid() {
		return role, true
	}
	return RoleUnknown, false
}
