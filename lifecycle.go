package adminauth

import (
	"context"
	"sync"
	"time"

	goerrors "github.com/goliatone/go-errors"
)

// LifecycleState is one of the session lifecycle states.
type LifecycleState string

const (
	// StateInitializing covers mount and sign-in, before the first answer.
	StateInitializing LifecycleState = "initializing"
	// StateAuthenticated means a session is cached and believed valid.
	StateAuthenticated LifecycleState = "authenticated"
	// StateRefreshing means a refresh call is in flight.
	StateRefreshing LifecycleState = "refresh_in_progress"
	// StateUnauthenticated is terminal until the next sign-in.
	StateUnauthenticated LifecycleState = "unauthenticated"
)

// refreshCallTimeout bounds the network side of a refresh. Waiters may give
// up earlier (watchdogs, request contexts); the call itself runs to this.
const refreshCallTimeout = 30 * time.Second

// Snapshot is a read-only view of lifecycle state for consumers such as the
// route gate. The Session pointer is shared; treat it as immutable.
type Snapshot struct {
	State       LifecycleState
	Session     *Session
	Profile     *Profile
	AdminStatus AdminStatus
}

// Authenticated reports whether a session is currently cached.
func (s Snapshot) Authenticated() bool {
	return s.Session != nil && s.State == StateAuthenticated
}

// Loading reports whether the lifecycle has not settled yet.
func (s Snapshot) Loading() bool {
	return s.State == StateInitializing || s.State == StateRefreshing
}

// Lifecycle is the central holder of {session, admin status, state} and the
// only component permitted to mutate authentication state.
//
// Refresh calls are single-flight: a call arriving while one is outstanding
// waits on the in-flight result instead of issuing a second network call.
// SignIn must not be invoked while a refresh is outstanding; this is a
// documented precondition, not enforced by a lock.
type Lifecycle struct {
	authAPI   AuthAPI
	profiles  ProfileReader
	validator TokenValidator
	cfg       SessionConfig

	logger       Logger
	activitySink ActivitySink
	now          func() time.Time
	transitions  map[LifecycleState]map[LifecycleState]struct{}

	mu          sync.Mutex
	state       LifecycleState
	session     *Session
	profile     *Profile
	adminStatus AdminStatus
	inflight    *refreshFlight
}

// LifecycleOption customizes lifecycle construction.
type LifecycleOption func(*Lifecycle)

// WithLifecycleLogger overrides the default logger.
func WithLifecycleLogger(logger Logger) LifecycleOption {
	return func(l *Lifecycle) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// WithLifecycleActivitySink sets the sink receiving auth events.
func WithLifecycleActivitySink(sink ActivitySink) LifecycleOption {
	return func(l *Lifecycle) {
		l.activitySink = normalizeActivitySink(sink)
	}
}

// WithLifecycleClock injects a custom clock (useful for tests).
func WithLifecycleClock(clock func() time.Time) LifecycleOption {
	return func(l *Lifecycle) {
		if clock != nil {
			l.now = clock
		}
	}
}

// WithLifecycleSessionConfig overrides the derived time constants.
func WithLifecycleSessionConfig(cfg SessionConfig) LifecycleOption {
	return func(l *Lifecycle) {
		l.cfg = cfg
	}
}

// WithTokenValidator verifies access tokens before a session is adopted.
func WithTokenValidator(validator TokenValidator) LifecycleOption {
	return func(l *Lifecycle) {
		l.validator = validator
	}
}

// NewLifecycle returns a lifecycle in the initializing state.
func NewLifecycle(authAPI AuthAPI, profiles ProfileReader, opts ...LifecycleOption) *Lifecycle {
	l := &Lifecycle{
		authAPI:      authAPI,
		profiles:     profiles,
		cfg:          DefaultSessionConfig(),
		logger:       defLogger{},
		activitySink: noopActivitySink{},
		now:          time.Now,
		state:        StateInitializing,
		adminStatus:  AdminIndeterminate,
		transitions: map[LifecycleState]map[LifecycleState]struct{}{
			StateInitializing: {
				StateAuthenticated:   {},
				StateUnauthenticated: {},
			},
			StateAuthenticated: {
				StateRefreshing:      {},
				StateUnauthenticated: {},
				StateInitializing:    {},
			},
			StateRefreshing: {
				StateAuthenticated:   {},
				StateUnauthenticated: {},
			},
			StateUnauthenticated: {
				StateInitializing: {},
				StateRefreshing:   {},
			},
		},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(l)
		}
	}

	return l
}

// SessionConfig exposes the derived time constants.
func (l *Lifecycle) SessionConfig() SessionConfig {
	return l.cfg
}

// Snapshot returns the current state under lock.
func (l *Lifecycle) Snapshot() Snapshot {
	l.mu.Lock()
	defer l.mu.Unlock()
	return Snapshot{
		State:       l.state,
		Session:     l.session,
		Profile:     l.profile,
		AdminStatus: l.adminStatus,
	}
}

// Initialize adopts an existing session, if any, and settles the lifecycle
// into authenticated or unauthenticated. Called once at mount.
func (l *Lifecycle) Initialize(ctx context.Context, existing *Session) {
	if existing == nil {
		l.mu.Lock()
		l.clearLocked()
		l.setStateLocked(ctx, StateUnauthenticated)
		l.mu.Unlock()
		return
	}

	session := existing
	if err := session.fillFromAccessToken(); err != nil {
		l.logger.Warn("initialize: discarding undecodable session: %v", err)
		session = nil
	}

	if session != nil && l.validator != nil {
		if _, err := l.validator.Validate(session.AccessToken); err != nil {
			l.logger.Warn("initialize: discarding session with invalid token: %v", err)
			session = nil
		}
	}

	if session == nil || session.Expired(l.now()) {
		l.mu.Lock()
		l.clearLocked()
		l.setStateLocked(ctx, StateUnauthenticated)
		l.mu.Unlock()
		return
	}

	profile, status := l.deriveAdminStatus(ctx, session)

	l.mu.Lock()
	l.session = session
	l.profile = profile
	l.adminStatus = status
	l.setStateLocked(ctx, StateAuthenticated)
	l.mu.Unlock()
}

// SignIn invalidates any prior session, authenticates with the backend, and
// derives the admin status from the profile fetch. Failures are returned as
// structured errors and never leave cached state behind.
func (l *Lifecycle) SignIn(ctx context.Context, email, password string) error {
	if email == "" || password == "" {
		return ErrAuthenticationFailed.Clone().WithMetadata(map[string]any{
			"reason": "missing credentials",
		})
	}

	// Explicit sign-out first so a failed attempt cannot leave stale
	// session artifacts around.
	l.performSignOut(ctx, false)

	l.mu.Lock()
	l.setStateLocked(ctx, StateInitializing)
	l.mu.Unlock()

	session, err := l.authAPI.SignInWithPassword(ctx, email, password)
	if err != nil || session == nil {
		l.failSignIn(ctx, email, err)
		if IsInvalidCredentialsError(err) {
			return ErrAuthenticationFailed.Clone().WithMetadata(map[string]any{
				"reason":     "invalid credentials",
				"identifier": email,
			})
		}
		return goerrors.Wrap(err, goerrors.CategoryAuth, "sign-in request failed").
			WithTextCode(textCodeAuthenticationFailure).
			WithCode(goerrors.CodeUnauthorized)
	}

	if err := session.fillFromAccessToken(); err != nil {
		l.failSignIn(ctx, email, err)
		return goerrors.Wrap(err, goerrors.CategoryAuth, "sign-in returned an unusable session").
			WithTextCode(textCodeAuthenticationFailure).
			WithCode(goerrors.CodeUnauthorized)
	}

	if l.validator != nil {
		if _, err := l.validator.Validate(session.AccessToken); err != nil {
			l.failSignIn(ctx, email, err)
			return goerrors.Wrap(err, goerrors.CategoryAuth, "sign-in returned an unverifiable token").
				WithTextCode(textCodeAuthenticationFailure).
				WithCode(goerrors.CodeUnauthorized)
		}
	}

	profile, status := l.deriveAdminStatus(ctx, session)

	l.mu.Lock()
	l.session = session
	l.profile = profile
	l.adminStatus = status
	l.setStateLocked(ctx, StateAuthenticated)
	l.mu.Unlock()

	l.emitAuthEvent(ctx, ActivityEventLoginSuccess, ActorRef{ID: session.UserID, Type: "user"}, session.UserID, map[string]any{
		"identifier":   email,
		"admin_status": string(status),
	})

	return nil
}

// RefreshSession attempts a silent session refresh. It is single-flight: a
// concurrent call observes the in-flight outcome. Cancelling ctx stops the
// wait, never the underlying network call; a late result is still applied to
// state exactly once. Returns false when no session exists, and the
// lifecycle moves to unauthenticated.
func (l *Lifecycle) RefreshSession(ctx context.Context) bool {
	l.mu.Lock()
	if fl := l.inflight; fl != nil {
		l.mu.Unlock()
		return fl.wait(ctx)
	}

	if l.session == nil || l.session.RefreshToken == "" {
		l.clearLocked()
		l.setStateLocked(ctx, StateUnauthenticated)
		l.mu.Unlock()
		return false
	}

	fl := &refreshFlight{done: make(chan struct{})}
	l.inflight = fl
	refreshToken := l.session.RefreshToken
	l.setStateLocked(ctx, StateRefreshing)
	l.mu.Unlock()

	go l.runRefresh(refreshToken, fl)

	return fl.wait(ctx)
}

// SignOut clears the session and admin status and notifies the backend on a
// best-effort basis.
func (l *Lifecycle) SignOut(ctx context.Context) {
	l.performSignOut(ctx, true)
}

// StartAutoRefresh runs a background silent refresh at the configured
// interval until ctx is done or the returned stop function is called.
func (l *Lifecycle) StartAutoRefresh(ctx context.Context) (stop func()) {
	done := make(chan struct{})
	var once sync.Once

	go func() {
		ticker := time.NewTicker(l.cfg.RefreshInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-done:
				return
			case <-ticker.C:
				snap := l.Snapshot()
				if snap.Session == nil {
					continue
				}
				if ok := l.RefreshSession(context.Background()); !ok {
					l.logger.Warn("background refresh failed for user %s", snap.Session.UserID)
				}
			}
		}
	}()

	return func() { once.Do(func() { close(done) }) }
}

type refreshFlight struct {
	done chan struct{}
	ok   bool
}

// wait blocks until the flight settles or ctx is done. A ctx expiry means
// the caller stopped waiting; the flight still lands in lifecycle state.
func (fl *refreshFlight) wait(ctx context.Context) bool {
	select {
	case <-fl.done:
		return fl.ok
	case <-ctx.Done():
		return false
	}
}

// runRefresh is the single-flight leader. It runs detached from every
// waiter's context so a watchdog expiry cannot cancel the network call.
func (l *Lifecycle) runRefresh(refreshToken string, fl *refreshFlight) {
	ctx, cancel := context.WithTimeout(context.Background(), refreshCallTimeout)
	defer cancel()

	session, err := l.authAPI.RefreshSession(ctx, refreshToken)
	ok := err == nil && session != nil

	if ok {
		if ferr := session.fillFromAccessToken(); ferr != nil {
			err, ok = ferr, false
		}
	}
	if ok && l.validator != nil {
		if _, verr := l.validator.Validate(session.AccessToken); verr != nil {
			err, ok = verr, false
		}
	}

	var profile *Profile
	status := AdminIndeterminate
	if ok {
		profile, status = l.deriveAdminStatus(ctx, session)
	}

	l.mu.Lock()
	if ok {
		l.session = session
		l.profile = profile
		l.adminStatus = status
		l.setStateLocked(ctx, StateAuthenticated)
	} else {
		l.clearLocked()
		l.setStateLocked(ctx, StateUnauthenticated)
	}
	fl.ok = ok
	l.inflight = nil
	userID := ""
	if session != nil {
		userID = session.UserID
	}
	l.mu.Unlock()
	close(fl.done)

	if ok {
		l.emitAuthEvent(ctx, ActivityEventRefreshSuccess, ActorRef{ID: userID, Type: "user"}, userID, map[string]any{
			"admin_status": string(status),
		})
	} else {
		failure := ErrRefreshFailed.Clone()
		if err != nil {
			failure.Source = err
		}
		meta := map[string]any{"text_code": failure.TextCode}
		if err != nil {
			meta["error"] = err.Error()
		}
		l.logger.Warn("%v", failure)
		l.emitAuthEvent(ctx, ActivityEventRefreshFailure, ActorRef{Type: "system"}, userID, meta)
	}
}

// deriveAdminStatus fetches the profile as the session user and folds the
// outcome into an AdminStatus. A failed fetch yields AdminIndeterminate so
// consumers retry instead of denying access.
func (l *Lifecycle) deriveAdminStatus(ctx context.Context, session *Session) (*Profile, AdminStatus) {
	profile, err := l.profiles.FetchProfile(ctx, session)
	if err != nil {
		l.logger.Warn("profile fetch failed for user %s, admin status unknown: %v", session.UserID, err)
		return nil, AdminIndeterminate
	}
	return profile, ReconcileAdminStatus(profile, nil, nil)
}

func (l *Lifecycle) failSignIn(ctx context.Context, identifier string, err error) {
	l.mu.Lock()
	l.clearLocked()
	l.setStateLocked(ctx, StateUnauthenticated)
	l.mu.Unlock()

	meta := map[string]any{"identifier": identifier}
	if err != nil {
		meta["error"] = err.Error()
	}
	l.logger.Error("sign-in failed for %s: %v", identifier, err)
	l.emitAuthEvent(ctx, ActivityEventLoginFailure, ActorRef{Type: "unknown"}, "", meta)
}

func (l *Lifecycle) performSignOut(ctx context.Context, emit bool) {
	l.mu.Lock()
	session := l.session
	l.clearLocked()
	l.setStateLocked(ctx, StateUnauthenticated)
	l.mu.Unlock()

	if session == nil {
		return
	}

	// Best effort: local state is already cleared even if the backend is
	// unreachable.
	if err := l.authAPI.SignOut(ctx, session.AccessToken); err != nil {
		l.logger.Warn("backend sign-out failed: %v", err)
	}

	if emit {
		l.emitAuthEvent(ctx, ActivityEventSignOut, ActorRef{ID: session.UserID, Type: "user"}, session.UserID, nil)
	}
}

// clearLocked drops the cached session and admin state. Caller holds l.mu.
func (l *Lifecycle) clearLocked() {
	l.session = nil
	l.profile = nil
	l.adminStatus = AdminIndeterminate
}

// setStateLocked applies a transition, logging table violations instead of
// failing: lifecycle state must keep moving even on unexpected paths.
// Caller holds l.mu.
func (l *Lifecycle) setStateLocked(ctx context.Context, target LifecycleState) {
	from := l.state
	if from == target {
		return
	}

	if allowed, ok := l.transitions[from]; ok {
		if _, ok := allowed[target]; !ok {
			l.logger.Warn("lifecycle transition outside table: %s -> %s", from, target)
		}
	}

	l.state = target

	sink := normalizeActivitySink(l.activitySink)
	event := ActivityEvent{
		EventType:  ActivityEventSessionStateChanged,
		Actor:      ActorRef{Type: "system"},
		FromState:  from,
		ToState:    target,
		OccurredAt: l.now(),
	}
	if l.session != nil {
		event.UserID = l.session.UserID
	}
	if err := sink.Record(ctx, event); err != nil {
		l.logger.Warn("activity sink record error: %v", err)
	}
}

func (l *Lifecycle) emitAuthEvent(ctx context.Context, eventType ActivityEventType, actor ActorRef, userID string, metadata map[string]any) {
	sink := normalizeActivitySink(l.activitySink)
	event := ActivityEvent{
		EventType:  eventType,
		Actor:      actor,
		UserID:     userID,
		Metadata:   metadata,
		OccurredAt: l.now(),
	}

	if event.Metadata == nil {
		event.Metadata = map[string]any{}
	}

	if err := sink.Record(ctx, event); err != nil {
		l.logger.Warn("activity sink record error: %v", err)
	}
}
