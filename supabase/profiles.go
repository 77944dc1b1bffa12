package supabase

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/theamal11z/grocerygunj-dashboard"
)

const profilesPath = "/rest/v1/profiles"

// ProfileClient reads and writes profile rows through PostgREST. Reads run
// as the session user so row-level policies apply; writes require the
// elevated handle because the public role cannot touch the role column.
type ProfileClient struct {
	client *Client
}

// NewProfileClient wraps a handle for profile access.
func NewProfileClient(client *Client) *ProfileClient {
	return &ProfileClient{client: client}
}

// FetchProfile implements adminauth.ProfileReader. The row is read as the
// session user; a missing row is an error the caller maps to an
// indeterminate admin status.
func (p *ProfileClient) FetchProfile(ctx context.Context, session *adminauth.Session) (*adminauth.Profile, error) {
	if session == nil || session.AccessToken == "" {
		return nil, adminauth.ErrNoSession
	}

	query := url.Values{}
	query.Set("id", "eq."+session.UserID)
	query.Set("select", "*")
	query.Set("limit", "1")

	var rows []adminauth.Profile
	handle := p.client.AsUser(session.AccessToken)
	if err := handle.do(ctx, http.MethodGet, profilesPath+"?"+query.Encode(), nil, &rows); err != nil {
		return nil, err
	}

	if len(rows) == 0 {
		return nil, goerrors.New(
			fmt.Sprintf("no profile row for user %s", session.UserID),
			goerrors.CategoryNotFound,
		).WithCode(goerrors.CodeNotFound)
	}

	return decodeProfile(&rows[0]), nil
}

// UpsertRole implements adminauth.ProfileWriter: writes role for the user's
// row, creating it when missing. Runs with whatever credentials the wrapped
// handle carries; the elevated handle is the only one the policy layer lets
// through.
func (p *ProfileClient) UpsertRole(ctx context.Context, userID, email string, role adminauth.Role) (*adminauth.Profile, error) {
	now := time.Now().UTC()
	row := map[string]any{
		"id":         userID,
		"email":      email,
		"role":       role.String(),
		"updated_at": now.Format(time.RFC3339),
	}

	var rows []adminauth.Profile
	err := p.client.doWithHeaders(ctx, http.MethodPost, profilesPath, row, &rows, map[string]string{
		"Prefer": "resolution=merge-duplicates,return=representation",
	})
	if err != nil {
		return nil, err
	}

	if len(rows) == 0 {
		return nil, goerrors.New("upsert returned no representation", goerrors.CategoryOperation)
	}

	return decodeProfile(&rows[0]), nil
}

// decodeProfile normalizes a row as it crosses the data-access boundary: the
// backing phone column is free text, so it is rewritten to E.164 here and
// consumers never see the raw local format.
func decodeProfile(p *adminauth.Profile) *adminauth.Profile {
	p.Phone = p.NormalizedPhone()
	return p
}
