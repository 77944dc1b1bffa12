package adminauth

import (
	"context"
	"fmt"
	"time"
)

type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
}

// AuthAPI is the authentication surface of the hosted backend: password
// sign-in, token refresh, and sign-out.
type AuthAPI interface {
	SignInWithPassword(ctx context.Context, email, password string) (*Session, error)
	RefreshSession(ctx context.Context, refreshToken string) (*Session, error)
	SignOut(ctx context.Context, accessToken string) error
}

// ProfileReader fetches the Profile row for the session user, subject to the
// backend's row-level policies (the read is performed as the session user).
type ProfileReader interface {
	FetchProfile(ctx context.Context, session *Session) (*Profile, error)
}

// ProfileWriter mutates the role attribute of a Profile row. Implementations
// are expected to run with elevated credentials that bypass row-level
// policies; the standard handle's writes fail at the policy layer instead.
type ProfileWriter interface {
	UpsertRole(ctx context.Context, userID, email string, role Role) (*Profile, error)
}

// RoleVerification is the payload of the server-side verify call, the second
// independent admin check used to cross-examine the profile-derived flag.
type RoleVerification struct {
	UserExists     bool   `json:"user_exists"`
	IsAdmin        bool   `json:"is_admin"`
	RoleValue      string `json:"role_value"`
	EmailInAuth    string `json:"email_in_auth,omitempty"`
	EmailInProfile string `json:"email_in_profile,omitempty"`
}

// RoleVerifier runs the server-side admin verification as the session user.
type RoleVerifier interface {
	VerifyAdminAccess(ctx context.Context, session *Session) (*RoleVerification, error)
}

// TokenClaims is the validated subset of an access token this core consumes.
type TokenClaims struct {
	UserID    string
	Email     string
	ExpiresAt time.Time
}

// TokenValidator verifies access-token authenticity (signature, expiry)
// before a session is adopted from an untrusted source.
type TokenValidator interface {
	Validate(token string) (*TokenClaims, error)
}

// LoginPayload carries sign-in credentials into the lifecycle.
type LoginPayload interface {
	GetIdentifier() string
	GetPassword() string
}

type defLogger struct{}

func (d defLogger) Error(format string, args ...any) {
	fmt.Printf("[ERR] ADMAUTH "+newline(format), args...)
}

func (d defLogger) Warn(format string, args ...any) {
	fmt.Printf("[WRN] ADMAUTH "+newline(format), args...)
}

func (d defLogger) Info(format string, args ...any) {
	fmt.Printf("[INF] ADMAUTH "+newline(format), args...)
}

func (d defLogger) Debug(format string, args ...any) {
	fmt.Printf("[DBG] ADMAUTH "+newline(format), args...)
}

func newline(s string) string {
	if len(s) > 0 && s[len(s)-1] != '\n' {
		s += "\n"
	}
	return s
}
