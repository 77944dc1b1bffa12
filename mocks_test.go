package adminauth_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	adminauth "github.com/theamal11z/grocerygunj-dashboard"
)

// fakeAuthAPI implements adminauth.AuthAPI with scriptable outcomes.
type fakeAuthAPI struct {
	mu sync.Mutex

	signInSession  *adminauth.Session
	signInErr      error
	signInCalls    int
	signInEmail    string
	signInPassword string

	refreshSession *adminauth.Session
	refreshErr     error
	refreshDelay   time.Duration
	refreshCalls   int

	signOutErr   error
	signOutCalls int
}

func (f *fakeAuthAPI) SignInWithPassword(ctx context.Context, email, password string) (*adminauth.Session, error) {
	f.mu.Lock()
	f.signInCalls++
	f.signInEmail, f.signInPassword = email, password
	session, err := f.signInSession, f.signInErr
	f.mu.Unlock()

	if session == nil {
		return nil, err
	}
	clone := *session
	return &clone, err
}

func (f *fakeAuthAPI) RefreshSession(ctx context.Context, refreshToken string) (*adminauth.Session, error) {
	f.mu.Lock()
	f.refreshCalls++
	session, err, delay := f.refreshSession, f.refreshErr, f.refreshDelay
	f.mu.Unlock()

	if delay > 0 {
		time.Sleep(delay)
	}
	if session == nil {
		return nil, err
	}
	clone := *session
	return &clone, err
}

func (f *fakeAuthAPI) SignOut(ctx context.Context, accessToken string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.signOutCalls++
	return f.signOutErr
}

func (f *fakeAuthAPI) counts() (signIn, refresh, signOut int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.signInCalls, f.refreshCalls, f.signOutCalls
}

func (f *fakeAuthAPI) credentials() (email, password string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.signInEmail, f.signInPassword
}

// fakeProfileReader implements adminauth.ProfileReader.
type fakeProfileReader struct {
	mu      sync.Mutex
	profile *adminauth.Profile
	err     error
	calls   int
}

func (f *fakeProfileReader) FetchProfile(ctx context.Context, session *adminauth.Session) (*adminauth.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.profile, f.err
}

// fakeProfileWriter implements adminauth.ProfileWriter.
type fakeProfileWriter struct {
	mu       sync.Mutex
	err      error
	lastRole adminauth.Role
	calls    int
}

func (f *fakeProfileWriter) UpsertRole(ctx context.Context, userID, email string, role adminauth.Role) (*adminauth.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.lastRole = role
	if f.err != nil {
		return nil, f.err
	}
	return &adminauth.Profile{Email: email, Role: string(role)}, nil
}

// fakeVerifier implements adminauth.RoleVerifier.
type fakeVerifier struct {
	verification *adminauth.RoleVerification
	err          error
}

func (f *fakeVerifier) VerifyAdminAccess(ctx context.Context, session *adminauth.Session) (*adminauth.RoleVerification, error) {
	return f.verification, f.err
}

// recordingSink collects activity events for assertions.
type recordingSink struct {
	mu     sync.Mutex
	events []adminauth.ActivityEvent
}

func (s *recordingSink) Record(ctx context.Context, event adminauth.ActivityEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

func (s *recordingSink) byType(eventType adminauth.ActivityEventType) []adminauth.ActivityEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []adminauth.ActivityEvent
	for _, e := range s.events {
		if e.EventType == eventType {
			out = append(out, e)
		}
	}
	return out
}

// makeAccessToken mints an HS256 token carrying the claims the session
// backfill reads. Signature verification is not exercised here.
func makeAccessToken(t *testing.T, userID, email string, expiresAt time.Time) string {
	t.Helper()

	claims := jwt.MapClaims{
		"sub":   userID,
		"email": email,
		"exp":   expiresAt.Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return token
}

func validSession(t *testing.T, userID string) *adminauth.Session {
	t.Helper()
	return &adminauth.Session{
		AccessToken:  makeAccessToken(t, userID, userID+"@example.com", time.Now().Add(time.Hour)),
		RefreshToken: "refresh-" + userID,
	}
}

func adminProfile(userID string) *adminauth.Profile {
	return &adminauth.Profile{Email: userID + "@example.com", Role: "admin"}
}

func customerProfile(userID string) *adminauth.Profile {
	return &adminauth.Profile{Email: userID + "@example.com", Role: "customer"}
}
