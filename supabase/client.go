package supabase

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/theamal11z/grocerygunj-dashboard"
)

const defaultRequestTimeout = 15 * time.Second

// Client is a thin REST client for one backend role: auth endpoints under
// /auth/v1 and PostgREST rows under /rest/v1. The apikey header always
// carries the handle's API key; the bearer token defaults to the same key
// and is swapped for a user JWT by AsUser.
type Client struct {
	baseURL string
	apiKey  string
	bearer  string

	httpClient *http.Client
	logger     adminauth.Logger
	debug      bool
}

// ClientOption customizes Client construction.
type ClientOption func(*Client)

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithClientLogger overrides the default logger.
func WithClientLogger(logger adminauth.Logger) ClientOption {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithClientDebug enables request/response logging.
func WithClientDebug(debug bool) ClientOption {
	return func(c *Client) {
		c.debug = debug
	}
}

// NewClient builds a client for the given endpoint and API key. Empty
// credentials are allowed; requests then fail at the network layer, keeping
// construction infallible.
func NewClient(baseURL, apiKey string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		apiKey:     apiKey,
		bearer:     apiKey,
		httpClient: &http.Client{Timeout: defaultRequestTimeout},
		logger:     nil,
	}

	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}

	if c.logger == nil {
		c.logger = noopLogger{}
	}

	return c
}

// AsUser derives a handle that acts as the signed-in user: the user JWT as
// bearer, the original API key still in the apikey header. The derived
// handle shares the underlying http.Client.
func (c *Client) AsUser(accessToken string) *Client {
	clone := *c
	clone.bearer = accessToken
	return &clone
}

type apiErrorBody struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
	Message          string `json:"message"`
	Msg              string `json:"msg"`
	Code             any    `json:"code"`
}

// do executes one JSON request. Non-2xx responses become structured errors
// carrying the backend's error body, so callers can match on invalid_grant
// and friends.
func (c *Client) do(ctx context.Context, method, path string, body any, out any) error {
	return c.doWithHeaders(ctx, method, path, body, out, nil)
}

func (c *Client) doWithHeaders(ctx context.Context, method, path string, body any, out any, headers map[string]string) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "encode request body")
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "build request")
	}

	req.Header.Set("apikey", c.apiKey)
	req.Header.Set("Authorization", "Bearer "+c.bearer)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	if c.debug {
		c.logger.Debug("%s %s", method, path)
	}

	res, err := c.httpClient.Do(req)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryOperation, fmt.Sprintf("%s %s", method, path))
	}
	defer res.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(res.Body, 1<<20))
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryOperation, "read response body")
	}

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return c.apiError(method, path, res.StatusCode, raw)
	}

	if out == nil || len(raw) == 0 {
		return nil
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryOperation, "decode response body")
	}

	return nil
}

func (c *Client) apiError(method, path string, status int, raw []byte) error {
	var body apiErrorBody
	_ = json.Unmarshal(raw, &body)

	msg := body.ErrorDescription
	if msg == "" {
		msg = body.Message
	}
	if msg == "" {
		msg = body.Msg
	}
	if msg == "" {
		msg = strings.TrimSpace(string(raw))
	}
	if body.Error != "" {
		msg = body.Error + ": " + msg
	}
	if msg == "" {
		msg = http.StatusText(status)
	}

	category := goerrors.CategoryOperation
	switch status {
	case http.StatusUnauthorized:
		category = goerrors.CategoryAuth
	case http.StatusForbidden:
		category = goerrors.CategoryAuthz
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		category = goerrors.CategoryValidation
	}

	if c.debug {
		c.logger.Warn("%s %s -> %d: %s", method, path, status, msg)
	}

	return goerrors.New(msg, category).WithMetadata(map[string]any{
		"status": status,
		"method": method,
		"path":   path,
	})
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Store holds the two client handles: standard (public role) and elevated
// (service role, optional). The elevated handle exists only when a service
// secret is configured and is reserved for privilege-repair writes.
type Store struct {
	standard *Client
	elevated *Client
}

// NewStore builds the credential store from a Config. An invalid config is
// logged once and construction continues with whatever credentials exist.
func NewStore(cfg Config, logger adminauth.Logger, opts ...ClientOption) *Store {
	if logger == nil {
		logger = noopLogger{}
	}

	if err := cfg.Validate(); err != nil {
		logger.Warn("backend configuration incomplete, requests will fail: %v: %v",
			adminauth.ErrConfigurationMissing, err)
	}

	if cfg.Debug {
		logger.Debug("backend config: %s", cfg.Summary())
	}

	opts = append([]ClientOption{
		WithClientLogger(logger),
		WithClientDebug(cfg.Debug),
	}, opts...)

	s := &Store{
		standard: NewClient(cfg.URL, cfg.AnonKey, opts...),
	}
	if cfg.HasElevated() {
		s.elevated = NewClient(cfg.URL, cfg.ServiceRoleKey, opts...)
	}
	return s
}

// Standard returns the public-role handle. Always non-nil.
func (s *Store) Standard() *Client {
	return s.standard
}

// Elevated returns the service-role handle when configured.
func (s *Store) Elevated() (*Client, bool) {
	return s.elevated, s.elevated != nil
}
