package supabase

import (
	"context"
	"net/http"
	"time"

	"github.com/theamal11z/grocerygunj-dashboard"
)

// tokenResponse is the GoTrue grant payload.
type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
	ExpiresAt    int64  `json:"expires_at"`
	User         struct {
		ID    string `json:"id"`
		Email string `json:"email"`
	} `json:"user"`
}

// AuthClient exposes the auth endpoints of a handle. It implements
// adminauth.AuthAPI.
type AuthClient struct {
	client *Client
}

// NewAuthClient wraps a client handle. The standard handle is the usual
// choice; grants carry the user identity in the response, not the key.
func NewAuthClient(client *Client) *AuthClient {
	return &AuthClient{client: client}
}

// SignInWithPassword performs the password grant.
func (a *AuthClient) SignInWithPassword(ctx context.Context, email, password string) (*adminauth.Session, error) {
	var res tokenResponse
	err := a.client.do(ctx, http.MethodPost, "/auth/v1/token?grant_type=password", map[string]string{
		"email":    email,
		"password": password,
	}, &res)
	if err != nil {
		return nil, err
	}
	return res.toSession(), nil
}

// RefreshSession exchanges a refresh token for a new token pair.
func (a *AuthClient) RefreshSession(ctx context.Context, refreshToken string) (*adminauth.Session, error) {
	var res tokenResponse
	err := a.client.do(ctx, http.MethodPost, "/auth/v1/token?grant_type=refresh_token", map[string]string{
		"refresh_token": refreshToken,
	}, &res)
	if err != nil {
		return nil, err
	}
	return res.toSession(), nil
}

// SignOut revokes the session server side. The backend returns 204.
func (a *AuthClient) SignOut(ctx context.Context, accessToken string) error {
	return a.client.AsUser(accessToken).do(ctx, http.MethodPost, "/auth/v1/logout", nil, nil)
}

func (r tokenResponse) toSession() *adminauth.Session {
	s := &adminauth.Session{
		AccessToken:  r.AccessToken,
		RefreshToken: r.RefreshToken,
		UserID:       r.User.ID,
		Email:        r.User.Email,
	}

	switch {
	case r.ExpiresAt > 0:
		t := time.Unix(r.ExpiresAt, 0)
		s.ExpiresAt = &t
	case r.ExpiresIn > 0:
		t := time.Now().Add(time.Duration(r.ExpiresIn) * time.Second)
		s.ExpiresAt = &t
	}

	return s
}
