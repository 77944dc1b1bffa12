package adminauth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Session is the authenticated token pair bound to one user. It is owned by
// the hosted backend and cached process-wide by the Lifecycle; every other
// component treats it as read-only.
type Session struct {
	AccessToken  string     `json:"access_token"`
	RefreshToken string     `json:"refresh_token"`
	UserID       string     `json:"user_id"`
	Email        string     `json:"email,omitempty"`
	ExpiresAt    *time.Time `json:"expires_at,omitempty"`
}

// Expired reports whether the session expiry has passed. Sessions without an
// expiry are treated as expired so they get refreshed rather than trusted.
func (s *Session) Expired(now time.Time) bool {
	if s == nil || s.ExpiresAt == nil {
		return true
	}
	return !s.ExpiresAt.After(now)
}

// ExpiresWithin reports whether the session expires inside the given window.
func (s *Session) ExpiresWithin(now time.Time, window time.Duration) bool {
	if s == nil || s.ExpiresAt == nil {
		return true
	}
	return s.ExpiresAt.Before(now.Add(window))
}

// Remaining returns the time left before expiry, floored at zero.
func (s *Session) Remaining(now time.Time) time.Duration {
	if s == nil || s.ExpiresAt == nil {
		return 0
	}
	if left := s.ExpiresAt.Sub(now); left > 0 {
		return left
	}
	return 0
}

func (s Session) String() string {
	exp := "<nil>"
	if s.ExpiresAt != nil {
		exp = s.ExpiresAt.Format(time.RFC1123)
	}
	return fmt.Sprintf("user=%s exp=%s refresh=%t", s.UserID, exp, s.RefreshToken != "")
}

// accessClaims is the subset of the backend's access-token claims this core
// reads when the token endpoint response omits expiry or user metadata.
type accessClaims struct {
	jwt.RegisteredClaims
	Email string `json:"email,omitempty"`
}

// fillFromAccessToken backfills UserID, Email, and ExpiresAt from the access
// token claims. The token is decoded without signature verification; callers
// that need authenticity use a TokenValidator, this only recovers fields the
// token endpoint already vouched for in the same response.
func (s *Session) fillFromAccessToken() error {
	if s == nil || s.AccessToken == "" {
		return ErrUnableToDecodeSession
	}

	claims := &accessClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(s.AccessToken, claims); err != nil {
		return ErrUnableToDecodeSession
	}

	if s.UserID == "" {
		s.UserID = claims.Subject
	}
	if s.Email == "" {
		s.Email = claims.Email
	}
	if s.ExpiresAt == nil && claims.ExpiresAt != nil {
		exp := claims.ExpiresAt.Time
		s.ExpiresAt = &exp
	}

	if s.UserID == "" {
		return ErrUnableToDecodeSession
	}
	return nil
}
