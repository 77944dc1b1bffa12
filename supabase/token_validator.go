package supabase

import (
	"fmt"
	"strings"
	"time"

	"github.com/MicahParks/keyfunc/v2"
	"github.com/golang-jwt/jwt/v5"
	goerrors "github.com/goliatone/go-errors"
	"github.com/theamal11z/grocerygunj-dashboard"
)

const jwksPath = "/auth/v1/.well-known/jwks.json"

type supabaseClaims struct {
	jwt.RegisteredClaims
	Email string `json:"email,omitempty"`
}

// TokenValidator verifies backend-issued access tokens against the
// project's JWK set. It implements adminauth.TokenValidator and is used
// when a persisted session is adopted at startup.
type TokenValidator struct {
	jwks   *keyfunc.JWKS
	parser *jwt.Parser
}

// NewTokenValidator fetches the JWK set once and keeps it refreshed in the
// background.
func NewTokenValidator(baseURL string, logger adminauth.Logger) (*TokenValidator, error) {
	if strings.TrimSpace(baseURL) == "" {
		return nil, fmt.Errorf("supabase: endpoint is required for token validation")
	}
	if logger == nil {
		logger = noopLogger{}
	}

	jwks, err := keyfunc.Get(strings.TrimSuffix(baseURL, "/")+jwksPath, keyfunc.Options{
		RefreshErrorHandler: func(err error) {
			logger.Warn("background JWK set refresh failed: %v", err)
		},
		RefreshInterval:   time.Hour,
		RefreshRateLimit:  time.Minute * 5,
		RefreshTimeout:    time.Second * 10,
		RefreshUnknownKID: true,
	})
	if err != nil {
		return nil, fmt.Errorf("supabase: failed to get JWK set: %w", err)
	}

	return &TokenValidator{
		jwks:   jwks,
		parser: jwt.NewParser(jwt.WithValidMethods([]string{"RS256", "ES256"})),
	}, nil
}

// Validate implements adminauth.TokenValidator.
func (v *TokenValidator) Validate(tokenString string) (*adminauth.TokenClaims, error) {
	claims := &supabaseClaims{}
	token, err := v.parser.ParseWithClaims(tokenString, claims, v.jwks.Keyfunc)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryAuth, "invalid access token").
			WithCode(goerrors.CodeUnauthorized)
	}
	if !token.Valid {
		return nil, adminauth.ErrUnableToDecodeSession
	}

	out := &adminauth.TokenClaims{
		UserID: claims.Subject,
		Email:  claims.Email,
	}
	if claims.ExpiresAt != nil {
		out.ExpiresAt = claims.ExpiresAt.Time
	}
	return out, nil
}

// Close stops the background JWK refresh.
func (v *TokenValidator) Close() {
	v.jwks.EndBackground()
}
