package adminauth

import (
	"time"

	"github.com/google/uuid"
	"github.com/nyaruka/phonenumbers"
)

// DefaultPhoneRegion is the region used to normalize profile phone numbers
// that arrive without a country prefix.
var DefaultPhoneRegion = "NP"

// Profile is the per-user record carrying the role attribute used for
// authorization. The row lives in the hosted backend (id is the auth user
// id, at most one row per user); this core reads it and, during repair,
// writes the role column. Rows are created lazily by a backend trigger on
// first sign-in and are never deleted here.
type Profile struct {
	ID        uuid.UUID  `json:"id"`
	Email     string     `json:"email,omitempty"`
	FullName  string     `json:"full_name,omitempty"`
	AvatarURL string     `json:"avatar_url,omitempty"`
	Phone     string     `json:"phone,omitempty"`
	Role      string     `json:"role,omitempty"`
	CreatedAt *time.Time `json:"created_at,omitempty"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
}

// ParsedRole decodes the free-text role column into the closed Role set.
func (p *Profile) ParsedRole() Role {
	if p == nil {
		return RoleUnknown
	}
	role, _ := ParseRole(p.Role)
	return role
}

// IsAdmin reports whether the profile's decoded role grants dashboard access.
func (p *Profile) IsAdmin() bool {
	return p.ParsedRole().IsAdmin()
}

// NormalizedPhone returns the profile phone in E.164, falling back to the
// raw value when it cannot be parsed for the default region.
func (p *Profile) NormalizedPhone() string {
	if p == nil || p.Phone == "" {
		return ""
	}
	num, err := phonenumbers.Parse(p.Phone, DefaultPhoneRegion)
	if err != nil || !phonenumbers.IsValidNumber(num) {
		return p.Phone
	}
	return phonenumbers.Format(num, phonenumbers.E164)
}
