package supabase

import (
	"context"
	"net/http"

	"github.com/theamal11z/grocerygunj-dashboard"
)

const verifyRPCPath = "/rest/v1/rpc/verify_admin_access"

// VerifyClient runs the server-side admin verification function. It
// implements adminauth.RoleVerifier.
type VerifyClient struct {
	client *Client
}

// NewVerifyClient wraps a handle for the verification RPC.
func NewVerifyClient(client *Client) *VerifyClient {
	return &VerifyClient{client: client}
}

// VerifyAdminAccess calls the database function as the session user. The
// function is security-definer on the backend, so it can see both the auth
// record and the profile row regardless of row-level policies.
func (v *VerifyClient) VerifyAdminAccess(ctx context.Context, session *adminauth.Session) (*adminauth.RoleVerification, error) {
	if session == nil || session.AccessToken == "" {
		return nil, adminauth.ErrNoSession
	}

	var res adminauth.RoleVerification
	handle := v.client.AsUser(session.AccessToken)
	err := handle.do(ctx, http.MethodPost, verifyRPCPath, map[string]string{
		"user_id_param": session.UserID,
	}, &res)
	if err != nil {
		return nil, err
	}

	return &res, nil
}
