package adminauth

import (
	"fmt"
	"sync"
	"time"
)

// DefaultSessionValidity is the single source-of-truth session lifetime.
// The hosted backend is configured to match; change one, change both.
const DefaultSessionValidity = 24 * time.Hour

// MinRefreshInterval is the floor applied to the derived refresh interval so
// short session lifetimes never turn the background refresher into a busy
// loop, and the route gate never re-refreshes a path faster than this.
const MinRefreshInterval = time.Minute

// SessionConfig holds the time constants derived from one validity duration.
// Construction is pure; all fields are computed once.
type SessionConfig struct {
	// Validity is the configured session lifetime.
	Validity time.Duration
	// Seconds and Millis are the lifetime in backend wire units.
	Seconds int64
	Millis  int64
	// Label is a human-readable rendering of the lifetime ("1 day").
	Label string
	// RefreshInterval drives both the background refresher and the
	// per-route refresh throttle.
	RefreshInterval time.Duration
	// MinRefresh is the floor below which refreshes are never retried.
	MinRefresh time.Duration
}

// NewSessionConfig derives all session time constants from validity.
// Non-positive validity falls back to DefaultSessionValidity.
func NewSessionConfig(validity time.Duration) SessionConfig {
	if validity <= 0 {
		validity = DefaultSessionValidity
	}

	refresh := validity / 24
	if refresh < MinRefreshInterval {
		refresh = MinRefreshInterval
	}

	return SessionConfig{
		Validity:        validity,
		Seconds:         int64(validity / time.Second),
		Millis:          validity.Milliseconds(),
		Label:           durationLabel(validity),
		RefreshInterval: refresh,
		MinRefresh:      MinRefreshInterval,
	}
}

var (
	defaultSessionConfigOnce sync.Once
	defaultSessionConfig     SessionConfig
)

// DefaultSessionConfig returns the memoized config for DefaultSessionValidity.
func DefaultSessionConfig() SessionConfig {
	defaultSessionConfigOnce.Do(func() {
		defaultSessionConfig = NewSessionConfig(DefaultSessionValidity)
	})
	return defaultSessionConfig
}

func durationLabel(d time.Duration) string {
	switch {
	case d >= 24*time.Hour && d%(24*time.Hour) == 0:
		days := int(d / (24 * time.Hour))
		if days == 1 {
			return "1 day"
		}
		return fmt.Sprintf("%d days", days)
	case d >= time.Hour && d%time.Hour == 0:
		hours := int(d / time.Hour)
		if hours == 1 {
			return "1 hour"
		}
		return fmt.Sprintf("%d hours", hours)
	case d >= time.Minute && d%time.Minute == 0:
		minutes := int(d / time.Minute)
		if minutes == 1 {
			return "1 minute"
		}
		return fmt.Sprintf("%d minutes", minutes)
	default:
		return d.String()
	}
}
