package admingate

import (
	"context"
	"time"

	"github.com/goliatone/go-router"
	"github.com/theamal11z/grocerygunj-dashboard"
)

var (
	defaultWatchdogTimeout  = 10 * time.Second
	defaultLoginPath        = "/login"
	defaultRejectedRouteKey = "rejected_route"
	defaultSnapshotKey      = "auth_snapshot"
)

// SessionSource is the slice of the lifecycle the gate consumes. Declared
// locally so the middleware can be tested against a fake.
type SessionSource interface {
	Snapshot() adminauth.Snapshot
	RefreshSession(ctx context.Context) bool
	SessionConfig() adminauth.SessionConfig
}

// Views names the templates the gate renders itself. Everything else belongs
// to the wrapped handler.
type Views struct {
	Loading string
	Denied  string
}

// Config configures the admin gate middleware.
type Config struct {
	// Filter skips the gate for matching requests (static assets, health).
	Filter func(router.Context) bool

	// Lifecycle is required.
	Lifecycle SessionSource

	// Ledger throttles per-path refresh attempts. A nil ledger means every
	// qualifying request may trigger a refresh.
	Ledger *adminauth.RouteRefreshLedger

	Logger adminauth.Logger

	// WatchdogTimeout bounds how long a request waits on a refresh. Fixed,
	// intentionally independent of the session validity configuration.
	WatchdogTimeout time.Duration

	// LoginPath is where unauthenticated requests are sent.
	LoginPath string

	// RejectedRouteKey is the cookie preserving the originally requested
	// path across the login round trip.
	RejectedRouteKey string

	// SnapshotKey is the locals key the gate stores the snapshot under.
	SnapshotKey string

	Views Views
}

func configDefault(config ...Config) Config {
	var cfg Config
	if len(config) > 0 {
		cfg = config[0]
	}

	if cfg.Lifecycle == nil {
		panic("admingate: Lifecycle is required")
	}
	if cfg.Logger == nil {
		cfg.Logger = noopLogger{}
	}
	if cfg.WatchdogTimeout <= 0 {
		cfg.WatchdogTimeout = defaultWatchdogTimeout
	}
	if cfg.LoginPath == "" {
		cfg.LoginPath = defaultLoginPath
	}
	if cfg.RejectedRouteKey == "" {
		cfg.RejectedRouteKey = defaultRejectedRouteKey
	}
	if cfg.SnapshotKey == "" {
		cfg.SnapshotKey = defaultSnapshotKey
	}
	if cfg.Views.Loading == "" {
		cfg.Views.Loading = "auth/loading"
	}
	if cfg.Views.Denied == "" {
		cfg.Views.Denied = "auth/denied"
	}

	return cfg
}

// Decision is the gate's verdict for one request.
type Decision int

const (
	// DecisionAllow renders the protected content.
	DecisionAllow Decision = iota
	// DecisionRefresh attempts a session refresh before deciding again.
	DecisionRefresh
	// DecisionWait renders the loading view with a manual retry action: the
	// refresh budget for this path is spent and the admin answer is still
	// retryable, so access is neither granted nor denied yet.
	DecisionWait
	// DecisionDenied renders the admin-access-required view.
	DecisionDenied
	// DecisionRedirect sends the request to the login page.
	DecisionRedirect
)

// Decide maps a lifecycle snapshot to a verdict. refreshAllowed reports
// whether the anti-thrash policy permits a refresh for this path right now.
// Pure; the middleware and the tests share it.
func Decide(snap adminauth.Snapshot, refreshAllowed bool) Decision {
	if snap.Session != nil && snap.AdminStatus.Granted() {
		return DecisionAllow
	}

	if snap.Session == nil || snap.AdminStatus.Retryable() {
		if refreshAllowed {
			return DecisionRefresh
		}
		if snap.Session != nil && snap.AdminStatus.Retryable() {
			// Refresh exhausted and still no definitive answer. Not a
			// denial; the caller offers a retry instead.
			return DecisionWait
		}
		return DecisionRedirect
	}

	// Session present, admin confirmed false.
	return DecisionDenied
}

// New returns the protected-route middleware. Every failure inside the gate
// is caught, logged, and mapped to one of the decision outcomes; the gate never
// surfaces a raw error page.
func New(config ...Config) router.MiddlewareFunc {
	cfg := configDefault(config...)

	return func(next router.HandlerFunc) router.HandlerFunc {
		return func(ctx router.Context) error {
			if cfg.Filter != nil && cfg.Filter(ctx) {
				return ctx.Next()
			}

			if adminauth.ForcedAdminAccess() {
				cfg.Logger.Warn("forced admin access active, bypassing gate for %s", ctx.OriginalURL())
				return ctx.Next()
			}

			snap := cfg.Lifecycle.Snapshot()
			path := ctx.OriginalURL()

			switch Decide(snap, cfg.refreshAllowed(path)) {
			case DecisionAllow:
				ctx.Locals(cfg.SnapshotKey, snap)
				return ctx.Next()
			case DecisionRefresh:
				return cfg.refreshAndDecide(ctx, next, path)
			case DecisionWait:
				return cfg.renderLoading(ctx)
			case DecisionDenied:
				return cfg.renderDenied(ctx, snap)
			default:
				return cfg.redirectToLogin(ctx)
			}
		}
	}
}

// refreshAllowed consults the ledger with the configured refresh interval.
func (cfg Config) refreshAllowed(path string) bool {
	if cfg.Ledger == nil {
		return true
	}
	return cfg.Ledger.ShouldRefresh(path, cfg.Lifecycle.SessionConfig().RefreshInterval)
}

// refreshAndDecide runs one refresh bounded by the watchdog, then re-applies
// the decision. The refresh itself is detached from the request context: a
// watchdog expiry abandons the wait, and the late result still lands in
// lifecycle state without a second response being written.
func (cfg Config) refreshAndDecide(ctx router.Context, next router.HandlerFunc, path string) error {
	done := make(chan bool, 1)
	go func() {
		done <- cfg.Lifecycle.RefreshSession(context.WithoutCancel(ctx.Context()))
	}()

	watchdog := time.NewTimer(cfg.WatchdogTimeout)
	defer watchdog.Stop()

	select {
	case ok := <-done:
		if ok && cfg.Ledger != nil {
			cfg.Ledger.MarkRefreshed(path)
		}
	case <-watchdog.C:
		cfg.Logger.Warn("refresh watchdog expired after %s for %s", cfg.WatchdogTimeout, path)
		return cfg.renderLoading(ctx)
	}

	snap := cfg.Lifecycle.Snapshot()
	switch Decide(snap, false) {
	case DecisionAllow:
		ctx.Locals(cfg.SnapshotKey, snap)
		return ctx.Next()
	case DecisionWait:
		return cfg.renderLoading(ctx)
	case DecisionDenied:
		return cfg.renderDenied(ctx, snap)
	default:
		return cfg.redirectToLogin(ctx)
	}
}

// renderLoading shows the bounded-wait view: elapsed-session context plus
// manual retry and return-to-login actions. Neither grants nor denies.
func (cfg Config) renderLoading(ctx router.Context) error {
	snap := cfg.Lifecycle.Snapshot()

	elapsed := "no active session"
	if snap.Session != nil && snap.Session.ExpiresAt != nil {
		validity := cfg.Lifecycle.SessionConfig().Validity
		started := snap.Session.ExpiresAt.Add(-validity)
		elapsed = time.Since(started).Round(time.Second).String()
	}

	return ctx.Status(router.StatusOK).Render(cfg.Views.Loading, router.ViewContext{
		"elapsed":    elapsed,
		"retry_path": ctx.OriginalURL(),
		"login_path": cfg.LoginPath,
	})
}

func (cfg Config) renderDenied(ctx router.Context, snap adminauth.Snapshot) error {
	email := ""
	if snap.Session != nil {
		email = snap.Session.Email
	}
	cfg.Logger.Info("admin access denied for %q on %s", email, ctx.OriginalURL())

	return ctx.Status(router.StatusForbidden).Render(cfg.Views.Denied, router.ViewContext{
		"email":        email,
		"status":       string(snap.AdminStatus),
		"retry_path":   ctx.OriginalURL(),
		"logout_path":  "/logout",
		"inconsistent": snap.AdminStatus == adminauth.AdminInconsistent,
	})
}

// redirectToLogin preserves the originally requested path in the rejected
// route cookie so a successful sign-in can land back where the user meant
// to go.
func (cfg Config) redirectToLogin(ctx router.Context) error {
	ctx.Cookie(&router.Cookie{
		Name:     cfg.RejectedRouteKey,
		Value:    ctx.OriginalURL(),
		Expires:  time.Now().Add(time.Minute * 5),
		HTTPOnly: true,
		Secure:   true,
		SameSite: "Lax",
	})

	return ctx.Redirect(cfg.LoginPath, router.StatusSeeOther)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}
