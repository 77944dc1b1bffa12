package adminauth

import (
	"sync"
	"time"
)

// RouteRefreshLedger throttles per-path refresh attempts. It maps a route
// path to the time of its last successful refresh and lives for the process
// only; it is never persisted.
type RouteRefreshLedger struct {
	mu      sync.Mutex
	entries map[string]time.Time
	now     func() time.Time
}

// NewRouteRefreshLedger returns an empty ledger.
func NewRouteRefreshLedger() *RouteRefreshLedger {
	return &RouteRefreshLedger{
		entries: map[string]time.Time{},
		now:     time.Now,
	}
}

// WithClock injects a custom clock (useful for tests).
func (l *RouteRefreshLedger) WithClock(clock func() time.Time) *RouteRefreshLedger {
	if clock != nil {
		l.now = clock
	}
	return l
}

// ShouldRefresh reports whether a refresh may be attempted for path, i.e. no
// refresh has been recorded within interval. Intervals below the global
// floor are raised to it.
func (l *RouteRefreshLedger) ShouldRefresh(path string, interval time.Duration) bool {
	if interval < MinRefreshInterval {
		interval = MinRefreshInterval
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	last, ok := l.entries[path]
	if !ok {
		return true
	}
	return l.now().Sub(last) >= interval
}

// MarkRefreshed records a successful refresh for path.
func (l *RouteRefreshLedger) MarkRefreshed(path string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries[path] = l.now()
}

// LastRefreshed returns the recorded timestamp for path, if any.
func (l *RouteRefreshLedger) LastRefreshed(path string) (time.Time, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	t, ok := l.entries[path]
	return t, ok
}

// Reset clears the ledger.
func (l *RouteRefreshLedger) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = map[string]time.Time{}
}
