package devbackend

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"marketplace/cli/internal/backend"
)

type memCreds struct {
	mu  sync.Mutex
	val string
}

func (m *memCreds) Get() (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.val, m.val != "", nil
}

func (m *memCreds) set(v string) {
	m.mu.Lock()
	m.val = v
	m.mu.Unlock()
}

func newTestServer(t *testing.T) (*Server, *httptest.Server, *backend.Client, *memCreds) {
	t.Helper()
	s := New(Options{Secret: "test-secret"})
	srv := httptest.NewServer(s.Handler())
	t.Cleanup(srv.Close)
	creds := &memCreds{}
	return s, srv, backend.New(srv.URL, creds), creds
}

// noFollow returns a client that surfaces redirects instead of following them.
func noFollow() *http.Client {
	return &http.Client{CheckRedirect: func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}}
}

func TestProfile_RequiresSession(t *testing.T) {
	_, _, client, _ := newTestServer(t)

	_, err := client.GetMobileProfile(context.Background())
	assert.True(t, backend.IsAuthError(err), "got %v", err)
}

func TestProfile_WithSessionCookie(t *testing.T) {
	s, _, client, creds := newTestServer(t)
	cookie, err := s.SessionCookie("buyer@example.com")
	require.NoError(t, err)
	creds.set(cookie + "; theme=dark")

	p, err := client.GetMobileProfile(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "buyer@example.com", p.Email)
	assert.Equal(t, []string{"customer"}, p.Roles)
	assert.NotEmpty(t, p.ID)
}

func TestProfile_RejectsForgedSession(t *testing.T) {
	_, _, client, creds := newTestServer(t)
	other := New(Options{Secret: "another-secret"})
	cookie, err := other.SessionCookie("buyer@example.com")
	require.NoError(t, err)
	creds.set(cookie)

	_, err = client.GetMobileProfile(context.Background())
	assert.True(t, backend.IsAuthError(err))
}

func TestLoginForm_SetsCookieAndLandsOffLoginPath(t *testing.T) {
	_, srv, _, _ := newTestServer(t)

	resp, err := noFollow().PostForm(srv.URL+"/api/login", url.Values{"email": {"Buyer@Example.com"}})
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/", resp.Header.Get("Location"))
	var found bool
	for _, c := range resp.Cookies() {
		if c.Name == CookieName && c.Value != "" {
			found = true
		}
	}
	assert.True(t, found, "session cookie not set")
}

func switchAccount(t *testing.T, srvURL string, form url.Values) *url.URL {
	t.Helper()
	resp, err := noFollow().PostForm(srvURL+"/api/mobile/switch-account", form)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusFound, resp.StatusCode)
	loc, err := url.Parse(resp.Header.Get("Location"))
	require.NoError(t, err)
	return loc
}

func TestSwitchAccount_CodeExchangesOnce(t *testing.T) {
	_, srv, client, creds := newTestServer(t)

	loc := switchAccount(t, srv.URL, url.Values{
		"redirect_uri": {"marketplace://oauth-callback"},
		"email":        {"new@example.com"},
		"decision":     {"allow"},
	})
	assert.Equal(t, "marketplace", loc.Scheme)
	code := loc.Query().Get("code")
	require.NotEmpty(t, code)

	session, err := client.ExchangeCode(context.Background(), code)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(session, CookieName+"="))

	creds.set(session)
	p, err := client.GetMobileProfile(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "new@example.com", p.Email)
	assert.False(t, p.HasRoles())

	_, err = client.ExchangeCode(context.Background(), code)
	var apiErr *backend.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)
	assert.Equal(t, "invalid or expired code", apiErr.Message)
}

func TestSwitchAccount_DenyRedirectsWithError(t *testing.T) {
	_, srv, _, _ := newTestServer(t)

	loc := switchAccount(t, srv.URL, url.Values{
		"redirect_uri": {"http://127.0.0.1:4567/oauth-callback"},
		"state":        {"st-1"},
		"email":        {"buyer@example.com"},
		"decision":     {"deny"},
	})
	assert.Equal(t, "127.0.0.1:4567", loc.Host)
	assert.Equal(t, "access_denied", loc.Query().Get("error"))
	assert.Equal(t, "st-1", loc.Query().Get("state"))
	assert.Empty(t, loc.Query().Get("code"))
}

func TestSwitchAccount_RejectsForeignRedirect(t *testing.T) {
	_, srv, _, _ := newTestServer(t)

	resp, err := http.Get(srv.URL + "/api/mobile/switch-account?redirect_uri=" + url.QueryEscape("https://evil.example.net/oauth-callback"))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestRole_SetAndGet(t *testing.T) {
	s, _, client, creds := newTestServer(t)
	cookie, err := s.SessionCookie("new@example.com")
	require.NoError(t, err)
	creds.set(cookie)

	rs, err := client.SetUserRole(context.Background(), "vendor")
	require.NoError(t, err)
	assert.Equal(t, "vendor", rs.Role)
	assert.Equal(t, "pending", rs.Status)

	got, err := client.GetUserRole(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "vendor", got.Role)

	p, err := client.GetMobileProfile(context.Background())
	require.NoError(t, err)
	assert.True(t, p.HasRole("vendor"))

	_, err = client.SetUserRole(context.Background(), "wizard")
	var apiErr *backend.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnprocessableEntity, apiErr.Status)
}

func TestVersion(t *testing.T) {
	_, _, client, _ := newTestServer(t)
	v, err := client.GetVersion(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "dev", v)
}

func TestMemoryCodes_Expire(t *testing.T) {
	m := NewMemoryCodes().(*memoryCodes)
	now := time.Unix(1_700_000_000, 0)
	m.now = func() time.Time { return now }

	code, err := m.Issue(context.Background(), "a@b.c", time.Minute)
	require.NoError(t, err)
	now = now.Add(2 * time.Minute)

	_, ok, err := m.Redeem(context.Background(), code)
	require.NoError(t, err)
	assert.False(t, ok)
}
