package adminauth

import (
	"errors"
	"strings"

	goerrors "github.com/goliatone/go-errors"
)

// ErrNoSession is returned when an operation requires an active session.
var ErrNoSession = errors.New("no active session")

// ErrUnableToDecodeSession is returned when token material cannot be parsed.
var ErrUnableToDecodeSession = errors.New("unable to decode session")

// ErrBypassDisabled is returned when the dev access bypass is toggled in a
// build that does not carry it.
var ErrBypassDisabled = errors.New("forced admin access is not compiled into this build")

// ErrNoEmptyString is returned when a key or password to hash is empty.
var ErrNoEmptyString = errors.New("can't use empty string")

// ErrMismatchedHashAndPassword is returned when a cleartext value does not match
// its stored hash.
var ErrMismatchedHashAndPassword = errors.New("hash and password mismatch")

const (
	textCodeAuthenticationFailure = "AUTHENTICATION_FAILURE"
	textCodeRefreshFailure        = "REFRESH_FAILURE"
	textCodeRoleInconsistency     = "ROLE_INCONSISTENCY"
	textCodeRepairUnavailable     = "PRIVILEGE_REPAIR_UNAVAILABLE"
	textCodeConfigMissing         = "CONFIGURATION_MISSING"
	textCodeOperatorKeyRejected   = "OPERATOR_KEY_REJECTED"
)

// ErrAuthenticationFailed covers bad credentials and network failures during
// sign-in. It never escapes the Lifecycle as a panic or unhandled error.
var ErrAuthenticationFailed = goerrors.New("authentication failed", goerrors.CategoryAuth).
	WithTextCode(textCodeAuthenticationFailure).
	WithCode(goerrors.CodeUnauthorized)

// ErrRefreshFailed is the structured form of a failed session refresh: the
// lifecycle logs a clone of it with the underlying cause attached and stamps
// its text code on the refresh-failure activity event.
var ErrRefreshFailed = goerrors.New("session refresh failed", goerrors.CategoryAuth).
	WithTextCode(textCodeRefreshFailure).
	WithCode(goerrors.CodeUnauthorized)

// ErrRoleInconsistency marks a divergence between the profile-derived admin
// flag and the server-side verification. Diagnostics surfaces it in the
// inspection report; it is never auto-resolved.
var ErrRoleInconsistency = goerrors.New("admin role checks disagree", goerrors.CategoryConflict).
	WithTextCode(textCodeRoleInconsistency).
	WithCode(goerrors.CodeConflict)

// ErrPrivilegeRepairUnavailable is returned when a repair action is requested
// and no elevated handle is configured.
var ErrPrivilegeRepairUnavailable = goerrors.New("elevated credentials not configured", goerrors.CategoryAuthz).
	WithTextCode(textCodeRepairUnavailable).
	WithCode(goerrors.CodeForbidden)

// ErrConfigurationMissing is surfaced once at startup when the backend
// endpoint or public key is absent. The process still starts; network calls
// fail at the call site instead.
var ErrConfigurationMissing = goerrors.New("backend configuration missing", goerrors.CategoryValidation).
	WithTextCode(textCodeConfigMissing).
	WithCode(goerrors.CodeBadRequest)

// ErrOperatorKeyRejected is returned when a configured operator key does not
// match on a repair request.
var ErrOperatorKeyRejected = goerrors.New("operator key rejected", goerrors.CategoryAuth).
	WithTextCode(textCodeOperatorKeyRejected).
	WithCode(goerrors.CodeUnauthorized)

// IsInvalidCredentialsError checks for the backend's invalid-grant response.
func IsInvalidCredentialsError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "invalid_grant") ||
		strings.Contains(msg, "Invalid login credentials")
}
