package backend

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticCreds struct {
	cred string
	err  error
}

func (s staticCreds) Get() (string, bool, error) {
	if s.err != nil {
		return "", false, s.err
	}
	return s.cred, s.cred != "", nil
}

func newTestClient(t *testing.T, creds CredentialSource, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return New(srv.URL, creds)
}

func TestDo_AttachesCredentialAsCookieHeader(t *testing.T) {
	var gotCookie, gotRequestID string
	c := newTestClient(t, staticCreds{cred: "sessionid=abc; csrftoken=def"}, func(w http.ResponseWriter, r *http.Request) {
		gotCookie = r.Header.Get("Cookie")
		gotRequestID = r.Header.Get("X-Request-Id")
		w.WriteHeader(http.StatusNoContent)
	})

	require.NoError(t, c.Do(context.Background(), http.MethodGet, "/api/ping", nil, nil))
	assert.Equal(t, "sessionid=abc; csrftoken=def", gotCookie)
	assert.NotEmpty(t, gotRequestID)
}

func TestDo_NoCredentialNoCookie(t *testing.T) {
	var hadCookie bool
	c := newTestClient(t, staticCreds{}, func(w http.ResponseWriter, r *http.Request) {
		_, hadCookie = r.Header["Cookie"]
		w.WriteHeader(http.StatusNoContent)
	})
	require.NoError(t, c.Do(context.Background(), http.MethodGet, "/api/ping", nil, nil))
	assert.False(t, hadCookie)
}

func TestDo_CredentialStoreFailureAbortsCall(t *testing.T) {
	called := false
	storeErr := errors.New("keyring locked")
	c := newTestClient(t, staticCreds{err: storeErr}, func(w http.ResponseWriter, r *http.Request) {
		called = true
	})
	err := c.Do(context.Background(), http.MethodGet, "/api/ping", nil, nil)
	assert.ErrorIs(t, err, storeErr)
	assert.False(t, called)
}

func TestDo_ClassifiesResponses(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		body        string
		wantAuth    bool
		wantStatus  int
		wantMessage string
		wantOut     map[string]any
	}{
		{
			name:     "401 is an auth error",
			status:   http.StatusUnauthorized,
			body:     `{"error":"not logged in"}`,
			wantAuth: true,
		},
		{
			name:        "JSON error message",
			status:      http.StatusForbidden,
			body:        `{"error":"vendor approval pending"}`,
			wantStatus:  http.StatusForbidden,
			wantMessage: "vendor approval pending",
		},
		{
			name:        "message field",
			status:      http.StatusBadRequest,
			body:        `{"message":"code expired"}`,
			wantStatus:  http.StatusBadRequest,
			wantMessage: "code expired",
		},
		{
			name:        "nested error object",
			status:      http.StatusConflict,
			body:        `{"error":{"message":"already exists"}}`,
			wantStatus:  http.StatusConflict,
			wantMessage: "already exists",
		},
		{
			name:        "non JSON body falls back to generic message",
			status:      http.StatusBadGateway,
			body:        `<html>bad gateway</html>`,
			wantStatus:  http.StatusBadGateway,
			wantMessage: "request failed with status 502",
		},
		{
			name:    "204 resolves empty",
			status:  http.StatusNoContent,
			wantOut: map[string]any{},
		},
		{
			name:    "200 decodes JSON",
			status:  http.StatusOK,
			body:    `{"ok":true}`,
			wantOut: map[string]any{"ok": true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, staticCreds{cred: "sessionid=x"}, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			})

			out := map[string]any{}
			err := c.Do(context.Background(), http.MethodGet, "/api/thing", nil, &out)

			switch {
			case tt.wantAuth:
				var ae *AuthError
				require.ErrorAs(t, err, &ae)
				assert.True(t, IsAuthError(err))
				var apiErr *APIError
				assert.False(t, errors.As(err, &apiErr), "401 must not be an APIError")
			case tt.wantStatus != 0:
				var apiErr *APIError
				require.ErrorAs(t, err, &apiErr)
				assert.Equal(t, tt.wantStatus, apiErr.Status)
				assert.Equal(t, tt.wantMessage, apiErr.Message)
				assert.False(t, IsAuthError(err))
			default:
				require.NoError(t, err)
				assert.Equal(t, tt.wantOut, out)
			}
		})
	}
}

func TestDo_SendsJSONBody(t *testing.T) {
	var got map[string]string
	var contentType string
	c := newTestClient(t, staticCreds{}, func(w http.ResponseWriter, r *http.Request) {
		contentType = r.Header.Get("Content-Type")
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.WriteHeader(http.StatusNoContent)
	})
	require.NoError(t, c.Do(context.Background(), http.MethodPost, "/api/x", map[string]string{"a": "b"}, nil))
	assert.Equal(t, "application/json", contentType)
	assert.Equal(t, map[string]string{"a": "b"}, got)
}

func TestDo_EachCallIsASingleAttempt(t *testing.T) {
	calls := 0
	c := newTestClient(t, staticCreds{}, func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusServiceUnavailable)
	})
	err := c.Do(context.Background(), http.MethodGet, "/api/x", nil, nil)
	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestURLs(t *testing.T) {
	c := New("https://shop.example.com/", nil)
	assert.Equal(t, "shop.example.com", c.Host())
	assert.Equal(t, "https://shop.example.com/api/login", c.LoginURL())
	assert.Equal(t, "https://shop.example.com/api/mobile/switch-account", c.SwitchAccountURL("", ""))
	assert.Equal(t,
		"https://shop.example.com/api/mobile/switch-account?redirect_uri=http%3A%2F%2F127.0.0.1%3A5000%2Foauth-callback",
		c.SwitchAccountURL("http://127.0.0.1:5000/oauth-callback", ""))
	assert.Equal(t,
		"https://shop.example.com/api/mobile/switch-account?redirect_uri=marketplace%3A%2F%2Foauth-callback&state=s1",
		c.SwitchAccountURL("marketplace://oauth-callback", "s1"))

	c = New("https://shop.example.com", nil, WithEndpoints(Endpoints{Login: "/accounts/login/"}))
	assert.Equal(t, "https://shop.example.com/accounts/login/", c.LoginURL())
	assert.Equal(t, "/api/mobile/profile", c.Endpoints().Profile)
}
