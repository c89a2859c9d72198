package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-chi/render"
	"github.com/google/uuid"

	"marketplace/cli/internal/logging"
)

// Client implements API over the backend's REST endpoints.
type Client struct {
	// baseURL is the base URL for all HTTP requests (e.g., "https://marketplace.example.com")
	baseURL string
	// endpoints contains the URL paths for the endpoints used by the auth flows
	endpoints Endpoints
	// creds supplies the session credential attached to every request
	creds CredentialSource
	// client is the underlying HTTP client
	client *http.Client
	// userAgent is sent with every request
	userAgent string
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.client = hc }
}

// WithTimeout bounds every request. Zero keeps the platform default.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.client = &http.Client{Timeout: d, Transport: c.client.Transport}
		}
	}
}

// WithEndpoints overrides endpoint paths; empty fields keep their defaults.
func WithEndpoints(e Endpoints) Option {
	return func(c *Client) { c.endpoints = e.withDefaults() }
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) { c.userAgent = ua }
}

// New creates a backend client. The credential is read from creds on every
// call; there is no retry policy and no backoff.
func New(baseURL string, creds CredentialSource, opts ...Option) *Client {
	c := &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		endpoints: DefaultEndpoints(),
		creds:     creds,
		client:    &http.Client{},
		userAgent: "marketplace-cli",
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the backend base URL without a trailing slash.
func (c *Client) BaseURL() string { return c.baseURL }

// Endpoints returns the endpoint paths in use.
func (c *Client) Endpoints() Endpoints { return c.endpoints }

// Host returns the host (with port, if any) of the backend.
func (c *Client) Host() string {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return ""
	}
	return u.Host
}

// LoginURL is the backend's interactive login page, hosted by the embedded
// browser flow.
func (c *Client) LoginURL() string {
	return c.baseURL + c.endpoints.Login
}

// SwitchAccountURL is where the system-browser flow starts. redirectURI and
// state are appended as redirect_uri and state when non-empty; the backend
// echoes state on the callback.
func (c *Client) SwitchAccountURL(redirectURI, state string) string {
	u := c.baseURL + c.endpoints.SwitchAccount
	q := url.Values{}
	if redirectURI != "" {
		q.Set("redirect_uri", redirectURI)
	}
	if state != "" {
		q.Set("state", state)
	}
	if len(q) == 0 {
		return u
	}
	return u + "?" + q.Encode()
}

// setStandardHeaders applies headers shared by all requests.
func (c *Client) setStandardHeaders(req *http.Request, requestID string) {
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("X-Request-Id", requestID)
}

// Do performs one backend call. body, when non-nil, is sent as JSON; out,
// when non-nil, receives the decoded JSON response. A 204 response leaves out
// untouched.
func (c *Client) Do(ctx context.Context, method, path string, body, out any) error {
	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		rdr = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rdr)
	if err != nil {
		return err
	}
	requestID := uuid.NewString()
	c.setStandardHeaders(req, requestID)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	if c.creds != nil {
		cred, ok, err := c.creds.Get()
		if err != nil {
			return fmt.Errorf("read credential: %w", err)
		}
		if ok {
			req.Header.Set("Cookie", cred)
		}
	}

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		logging.Debug("backend", "request failed", map[string]any{
			"method": method, "path": path, "request_id": requestID, "error": err.Error(),
		})
		return err
	}
	defer resp.Body.Close()

	logging.Debug("backend", "response", map[string]any{
		"method":     method,
		"path":       path,
		"status":     resp.StatusCode,
		"request_id": requestID,
		"elapsed":    time.Since(start).String(),
	})

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		_, _ = io.Copy(io.Discard, resp.Body)
		return &AuthError{Method: method, Path: path}
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return newAPIError(resp.StatusCode, resp.Body)
	case resp.StatusCode == http.StatusNoContent:
		return nil
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := render.DecodeJSON(resp.Body, out); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}

// GetVersion calls GET /api/version and returns the version string when available.
// No authentication required. This can be used to check connectivity to the backend service.
func (c *Client) GetVersion(ctx context.Context) (string, error) {
	var out struct {
		Version string `json:"version"`
	}
	if err := c.Do(ctx, http.MethodGet, c.endpoints.Version, nil, &out); err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) {
			return "unknown", nil
		}
		return "", err
	}
	if out.Version == "" {
		return "unknown", nil
	}
	return out.Version, nil
}
