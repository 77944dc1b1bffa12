package admingate_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/goliatone/go-router"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	adminauth "github.com/theamal11z/grocerygunj-dashboard"
	"github.com/theamal11z/grocerygunj-dashboard/middleware/admingate"
)

type fakeLifecycle struct {
	mu           sync.Mutex
	snap         adminauth.Snapshot
	refreshOK    bool
	refreshDelay time.Duration
	refreshCalls int
	afterRefresh *adminauth.Snapshot
}

func (f *fakeLifecycle) Snapshot() adminauth.Snapshot {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.snap
}

func (f *fakeLifecycle) RefreshSession(ctx context.Context) bool {
	f.mu.Lock()
	f.refreshCalls++
	delay, ok := f.refreshDelay, f.refreshOK
	f.mu.Unlock()

	if delay > 0 {
		time.Sleep(delay)
	}

	f.mu.Lock()
	if f.afterRefresh != nil {
		f.snap = *f.afterRefresh
	}
	f.mu.Unlock()
	return ok
}

func (f *fakeLifecycle) SessionConfig() adminauth.SessionConfig {
	return adminauth.DefaultSessionConfig()
}

func confirmedSnapshot() adminauth.Snapshot {
	exp := time.Now().Add(time.Hour)
	return adminauth.Snapshot{
		State:       adminauth.StateAuthenticated,
		Session:     &adminauth.Session{UserID: "user-1", Email: "user-1@example.com", ExpiresAt: &exp},
		AdminStatus: adminauth.AdminConfirmed,
	}
}

func deniedSnapshot() adminauth.Snapshot {
	snap := confirmedSnapshot()
	snap.AdminStatus = adminauth.AdminDenied
	return snap
}

func indeterminateSnapshot() adminauth.Snapshot {
	snap := confirmedSnapshot()
	snap.AdminStatus = adminauth.AdminIndeterminate
	return snap
}

func emptySnapshot() adminauth.Snapshot {
	return adminauth.Snapshot{
		State:       adminauth.StateUnauthenticated,
		AdminStatus: adminauth.AdminIndeterminate,
	}
}

func TestDecide(t *testing.T) {
	tests := []struct {
		name           string
		snap           adminauth.Snapshot
		refreshAllowed bool
		want           admingate.Decision
	}{
		{
			name:           "confirmed admin renders content",
			snap:           confirmedSnapshot(),
			refreshAllowed: true,
			want:           admingate.DecisionAllow,
		},
		{
			name:           "confirmed admin ignores throttle",
			snap:           confirmedSnapshot(),
			refreshAllowed: false,
			want:           admingate.DecisionAllow,
		},
		{
			name:           "no session triggers refresh",
			snap:           emptySnapshot(),
			refreshAllowed: true,
			want:           admingate.DecisionRefresh,
		},
		{
			name:           "no session and throttled redirects to login",
			snap:           emptySnapshot(),
			refreshAllowed: false,
			want:           admingate.DecisionRedirect,
		},
		{
			name:           "indeterminate status triggers refresh",
			snap:           indeterminateSnapshot(),
			refreshAllowed: true,
			want:           admingate.DecisionRefresh,
		},
		{
			name:           "indeterminate status and throttled waits with retry",
			snap:           indeterminateSnapshot(),
			refreshAllowed: false,
			want:           admingate.DecisionWait,
		},
		{
			name: "inconsistent status triggers refresh",
			snap: func() adminauth.Snapshot {
				s := confirmedSnapshot()
				s.AdminStatus = adminauth.AdminInconsistent
				return s
			}(),
			refreshAllowed: true,
			want:           admingate.DecisionRefresh,
		},
		{
			name: "inconsistent status and throttled waits with retry",
			snap: func() adminauth.Snapshot {
				s := confirmedSnapshot()
				s.AdminStatus = adminauth.AdminInconsistent
				return s
			}(),
			refreshAllowed: false,
			want:           admingate.DecisionWait,
		},
		{
			name:           "confirmed non-admin is denied outright",
			snap:           deniedSnapshot(),
			refreshAllowed: true,
			want:           admingate.DecisionDenied,
		},
		{
			name:           "confirmed non-admin never refreshes",
			snap:           deniedSnapshot(),
			refreshAllowed: false,
			want:           admingate.DecisionDenied,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := admingate.Decide(tc.snap, tc.refreshAllowed)
			assert.Equal(t, tc.want, got)
		})
	}
}

// runGate drives one request through the middleware. The gate dispatches via
// ctx.Next, so the wrapped handler is a noop.
func runGate(cfg admingate.Config, ctx router.Context) error {
	handler := admingate.New(cfg)(func(router.Context) error { return nil })
	return handler(ctx)
}

func refreshCount(f *fakeLifecycle) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.refreshCalls
}

func TestGateAllowsConfirmedAdmin(t *testing.T) {
	fake := &fakeLifecycle{snap: confirmedSnapshot()}

	ctx := new(MockContext)
	ctx.On("OriginalURL").Return("/dashboard")
	ctx.On("Locals", "auth_snapshot", mock.MatchedBy(func(v any) bool {
		snap, ok := v.(adminauth.Snapshot)
		return ok && snap.AdminStatus == adminauth.AdminConfirmed
	})).Return(nil)

	err := runGate(admingate.Config{Lifecycle: fake}, ctx)
	assert.NoError(t, err)
	assert.True(t, ctx.NextCalled)
	assert.Equal(t, 0, refreshCount(fake))
	ctx.AssertExpectations(t)
}

func TestGateRefreshSuccessAllowsAndMarksLedger(t *testing.T) {
	after := confirmedSnapshot()
	fake := &fakeLifecycle{
		snap:         emptySnapshot(),
		refreshOK:    true,
		afterRefresh: &after,
	}
	ledger := adminauth.NewRouteRefreshLedger()

	ctx := new(MockContext)
	ctx.On("Context").Return(context.Background())
	ctx.On("OriginalURL").Return("/dashboard")
	ctx.On("Locals", "auth_snapshot", mock.Anything).Return(nil)

	err := runGate(admingate.Config{Lifecycle: fake, Ledger: ledger}, ctx)
	assert.NoError(t, err)
	assert.True(t, ctx.NextCalled)
	assert.Equal(t, 1, refreshCount(fake))

	_, marked := ledger.LastRefreshed("/dashboard")
	assert.True(t, marked)
	ctx.AssertExpectations(t)
}

func TestGateThrottlesRefreshPerRoute(t *testing.T) {
	// Refresh succeeds but the admin answer stays retryable: the first
	// navigation spends the path's refresh budget, the second must not
	// trigger another call and gets the retry view directly.
	fake := &fakeLifecycle{snap: indeterminateSnapshot(), refreshOK: true}
	ledger := adminauth.NewRouteRefreshLedger()
	cfg := admingate.Config{Lifecycle: fake, Ledger: ledger}

	for i := 0; i < 2; i++ {
		ctx := new(MockContext)
		ctx.On("Context").Return(context.Background()).Maybe()
		ctx.On("OriginalURL").Return("/orders")
		ctx.On("Status", router.StatusOK).Return(nil)
		ctx.On("Render", "auth/loading", mock.Anything).Return(nil)

		err := runGate(cfg, ctx)
		assert.NoError(t, err)
		assert.False(t, ctx.NextCalled)
		ctx.AssertExpectations(t)
	}

	assert.Equal(t, 1, refreshCount(fake))
}

func TestGateWatchdogRendersLoadingView(t *testing.T) {
	after := confirmedSnapshot()
	fake := &fakeLifecycle{
		snap:         emptySnapshot(),
		refreshOK:    true,
		refreshDelay: 200 * time.Millisecond,
		afterRefresh: &after,
	}

	var bind router.ViewContext
	ctx := new(MockContext)
	ctx.On("Context").Return(context.Background())
	ctx.On("OriginalURL").Return("/dashboard")
	ctx.On("Status", router.StatusOK).Return(nil)
	ctx.On("Render", "auth/loading", mock.Anything).Return(nil).Run(func(args mock.Arguments) {
		bind, _ = args.Get(1).(router.ViewContext)
	})

	err := runGate(admingate.Config{
		Lifecycle:       fake,
		WatchdogTimeout: 10 * time.Millisecond,
	}, ctx)
	assert.NoError(t, err)

	// The request got exactly one response: the loading view. Neither a
	// redirect nor the protected handler, even though the refresh is still
	// running when the watchdog fires.
	assert.False(t, ctx.NextCalled)
	assert.Equal(t, "/dashboard", bind["retry_path"])
	assert.Equal(t, "no active session", bind["elapsed"])

	// The abandoned refresh still lands in lifecycle state.
	assert.Eventually(t, func() bool {
		return fake.Snapshot().AdminStatus == adminauth.AdminConfirmed
	}, time.Second, 10*time.Millisecond)
	assert.Equal(t, 1, refreshCount(fake))
	ctx.AssertExpectations(t)
}

func TestGateFailedRefreshRedirectsWithRejectedRoute(t *testing.T) {
	fake := &fakeLifecycle{snap: emptySnapshot(), refreshOK: false}

	ctx := new(MockContext)
	ctx.On("Context").Return(context.Background())
	ctx.On("OriginalURL").Return("/settings")
	ctx.On("Cookie", mock.MatchedBy(func(c *router.Cookie) bool {
		return c.Name == "rejected_route" && c.Value == "/settings" && c.HTTPOnly
	})).Return()
	ctx.On("Redirect", "/login", []int{router.StatusSeeOther}).Return(nil)

	err := runGate(admingate.Config{Lifecycle: fake}, ctx)
	assert.NoError(t, err)
	assert.False(t, ctx.NextCalled)
	assert.Equal(t, 1, refreshCount(fake))
	ctx.AssertExpectations(t)
}

func TestGateDeniedRendersForbidden(t *testing.T) {
	fake := &fakeLifecycle{snap: deniedSnapshot()}

	var bind router.ViewContext
	ctx := new(MockContext)
	ctx.On("OriginalURL").Return("/dashboard")
	ctx.On("Status", router.StatusForbidden).Return(nil)
	ctx.On("Render", "auth/denied", mock.Anything).Return(nil).Run(func(args mock.Arguments) {
		bind, _ = args.Get(1).(router.ViewContext)
	})

	err := runGate(admingate.Config{Lifecycle: fake}, ctx)
	assert.NoError(t, err)
	assert.False(t, ctx.NextCalled)
	assert.Equal(t, "user-1@example.com", bind["email"])
	assert.Equal(t, string(adminauth.AdminDenied), bind["status"])
	assert.Equal(t, 0, refreshCount(fake))
	ctx.AssertExpectations(t)
}

func TestGateFilterSkips(t *testing.T) {
	fake := &fakeLifecycle{snap: emptySnapshot()}

	ctx := new(MockContext)
	err := runGate(admingate.Config{
		Lifecycle: fake,
		Filter: func(router.Context) bool {
			return true
		},
	}, ctx)
	assert.NoError(t, err)
	assert.True(t, ctx.NextCalled)
	assert.Equal(t, 0, refreshCount(fake))
	ctx.AssertExpectations(t)
}

func TestGateRequiresLifecycle(t *testing.T) {
	assert.Panics(t, func() {
		admingate.New(admingate.Config{})
	})
}

func TestGateConstruction(t *testing.T) {
	mw := admingate.New(admingate.Config{
		Lifecycle: &fakeLifecycle{snap: confirmedSnapshot()},
		Ledger:    adminauth.NewRouteRefreshLedger(),
	})
	assert.NotNil(t, mw)
}
