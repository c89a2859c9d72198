// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package devbackend is a local stand-in for the marketplace backend. It
// serves the login page, the mobile profile, switch-account with one-time
// codes, code exchange and user roles, so the CLI can be exercised end to end
// without the real service.
package devbackend

import (
	"context"
	"html/template"
	"net/http"
	"net/url"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/render"
	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"marketplace/cli/internal/backend"
	"marketplace/cli/internal/logging"
)

// Roles a user may request.
var Roles = []string{"customer", "vendor"}

// Options configures a Server.
type Options struct {
	// Secret signs session cookies. Empty means a random per-process secret.
	Secret string
	// SessionTTL defaults to 24h.
	SessionTTL time.Duration
	// CodeTTL defaults to 2m.
	CodeTTL time.Duration
	// Codes defaults to an in-memory store.
	Codes CodeStore
	// AppScheme is the custom scheme accepted as a switch-account redirect.
	AppScheme string
	Version   string
}

type user struct {
	ID         int
	Email      string
	Name       string
	Roles      []string
	RoleStatus string
}

// Server is the dev backend.
type Server struct {
	router   *mux.Router
	sessions sessions
	codes    CodeStore
	codeTTL  time.Duration
	scheme   string
	version  string
	now      func() time.Time

	mu     sync.Mutex
	users  map[string]*user
	nextID int
}

// New builds a server seeded with a customer account
// (buyer@example.com) and an account without roles (new@example.com).
func New(opts Options) *Server {
	if opts.Secret == "" {
		opts.Secret = uuid.NewString()
	}
	if opts.SessionTTL <= 0 {
		opts.SessionTTL = 24 * time.Hour
	}
	if opts.CodeTTL <= 0 {
		opts.CodeTTL = 2 * time.Minute
	}
	if opts.Codes == nil {
		opts.Codes = NewMemoryCodes()
	}
	if opts.AppScheme == "" {
		opts.AppScheme = "marketplace"
	}
	if opts.Version == "" {
		opts.Version = "dev"
	}
	s := &Server{
		router:   mux.NewRouter(),
		sessions: sessions{secret: []byte(opts.Secret), ttl: opts.SessionTTL},
		codes:    opts.Codes,
		codeTTL:  opts.CodeTTL,
		scheme:   opts.AppScheme,
		version:  opts.Version,
		now:      time.Now,
		users:    make(map[string]*user),
	}
	s.AddUser("buyer@example.com", "Demo Buyer", "customer")
	s.AddUser("new@example.com", "New User")
	s.routes()
	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler { return s.router }

// AddUser registers an account.
func (s *Server) AddUser(email, name string, roles ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	u := &user{ID: s.nextID, Email: strings.ToLower(email), Name: name, Roles: roles}
	if len(roles) > 0 {
		u.RoleStatus = "approved"
	}
	s.users[u.Email] = u
}

// SessionCookie returns a valid Cookie header value for email.
func (s *Server) SessionCookie(email string) (string, error) {
	tok, err := s.sessions.issue(strings.ToLower(email), s.now())
	if err != nil {
		return "", err
	}
	return CookieName + "=" + tok, nil
}

func (s *Server) routes() {
	r := s.router
	r.HandleFunc("/", s.home).Methods(http.MethodGet)
	r.HandleFunc("/api/login", s.loginPage).Methods(http.MethodGet)
	r.HandleFunc("/api/login", s.loginSubmit).Methods(http.MethodPost)
	r.HandleFunc("/api/mobile/profile", s.profile).Methods(http.MethodGet)
	r.HandleFunc("/api/mobile/switch-account", s.switchPage).Methods(http.MethodGet)
	r.HandleFunc("/api/mobile/switch-account", s.switchSubmit).Methods(http.MethodPost)
	r.HandleFunc("/api/mobile/exchange-code", s.exchange).Methods(http.MethodPost)
	r.HandleFunc("/api/user/role", s.getRole).Methods(http.MethodGet)
	r.HandleFunc("/api/user/role", s.setRole).Methods(http.MethodPost)
	r.HandleFunc("/api/version", s.getVersion).Methods(http.MethodGet)
	r.Use(s.logRequests)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logging.Debug("devbackend", "request", map[string]any{
			"method":     r.Method,
			"path":       r.URL.Path,
			"request_id": r.Header.Get("X-Request-Id"),
		})
		next.ServeHTTP(w, r)
	})
}

type errResponse struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	render.Status(r, status)
	render.JSON(w, r, errResponse{Error: msg})
}

// lookup returns a copy of the user owning the request's session.
func (s *Server) lookup(r *http.Request) (*user, bool) {
	c, err := r.Cookie(CookieName)
	if err != nil {
		return nil, false
	}
	email, err := s.sessions.verify(c.Value)
	if err != nil {
		return nil, false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[email]
	if !ok {
		return nil, false
	}
	cp := *u
	cp.Roles = append([]string(nil), u.Roles...)
	return &cp, true
}

// ensureUser returns the account for email, creating one without roles.
func (s *Server) ensureUser(email string) {
	email = strings.ToLower(strings.TrimSpace(email))
	s.mu.Lock()
	_, ok := s.users[email]
	s.mu.Unlock()
	if !ok {
		s.AddUser(email, "")
	}
}

func (s *Server) setSession(w http.ResponseWriter, email string) error {
	tok, err := s.sessions.issue(email, s.now())
	if err != nil {
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    tok,
		Path:     "/",
		HttpOnly: false, // the CLI reads it from page script
		SameSite: http.SameSiteLaxMode,
		Expires:  s.now().Add(s.sessions.ttl),
	})
	return nil
}

var pageTmpl = template.Must(template.New("page").Parse(`<!doctype html>
<html><head><meta charset="utf-8"><title>Marketplace</title></head>
<body style="font-family: sans-serif; max-width: 28em; margin: 4em auto">
{{if .SignedIn}}<h2>Welcome, {{.SignedIn}}</h2><p>You are signed in.</p>
{{else}}<h2>{{.Title}}</h2>
<form method="post" action="{{.Action}}">
  {{if .Redirect}}<input type="hidden" name="redirect_uri" value="{{.Redirect}}">{{end}}
  {{if .State}}<input type="hidden" name="state" value="{{.State}}">{{end}}
  <label>Email <input type="email" name="email" value="buyer@example.com" autofocus></label>
  <button type="submit" name="decision" value="allow">Continue</button>
  {{if .Redirect}}<button type="submit" name="decision" value="deny">Cancel</button>{{end}}
</form>{{end}}
</body></html>`))

type pageData struct {
	Title    string
	Action   string
	Redirect string
	State    string
	SignedIn string
}

func (s *Server) renderPage(w http.ResponseWriter, d pageData) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_ = pageTmpl.Execute(w, d)
}

func (s *Server) home(w http.ResponseWriter, r *http.Request) {
	u, ok := s.lookup(r)
	if !ok {
		http.Redirect(w, r, "/api/login", http.StatusFound)
		return
	}
	s.renderPage(w, pageData{SignedIn: u.Email})
}

func (s *Server) loginPage(w http.ResponseWriter, r *http.Request) {
	s.renderPage(w, pageData{Title: "Sign in to Marketplace", Action: "/api/login"})
}

func (s *Server) loginSubmit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad form", http.StatusBadRequest)
		return
	}
	email := strings.ToLower(strings.TrimSpace(r.PostForm.Get("email")))
	if email == "" {
		http.Redirect(w, r, "/api/login", http.StatusFound)
		return
	}
	s.ensureUser(email)
	if err := s.setSession(w, email); err != nil {
		http.Error(w, "session error", http.StatusInternalServerError)
		return
	}
	http.Redirect(w, r, "/", http.StatusFound)
}

func (s *Server) profile(w http.ResponseWriter, r *http.Request) {
	u, ok := s.lookup(r)
	if !ok {
		writeError(w, r, http.StatusUnauthorized, "unauthorized")
		return
	}
	roles := u.Roles
	if roles == nil {
		roles = []string{}
	}
	render.JSON(w, r, map[string]any{
		"id":    u.ID,
		"email": u.Email,
		"name":  u.Name,
		"roles": roles,
	})
}

// validRedirect accepts <scheme>://oauth-callback and loopback
// http://127.0.0.1:<port>/oauth-callback.
func (s *Server) validRedirect(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	if strings.EqualFold(u.Scheme, s.scheme) {
		return u.Host == "oauth-callback" || strings.Trim(u.Path, "/") == "oauth-callback"
	}
	return u.Scheme == "http" && u.Hostname() == "127.0.0.1" && u.Path == "/oauth-callback"
}

func (s *Server) switchPage(w http.ResponseWriter, r *http.Request) {
	redirect := r.URL.Query().Get("redirect_uri")
	if redirect == "" {
		redirect = s.scheme + "://oauth-callback"
	}
	if !s.validRedirect(redirect) {
		http.Error(w, "redirect_uri not allowed", http.StatusBadRequest)
		return
	}
	s.renderPage(w, pageData{
		Title:    "Choose an account",
		Action:   "/api/mobile/switch-account",
		Redirect: redirect,
		State:    r.URL.Query().Get("state"),
	})
}

func (s *Server) switchSubmit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad form", http.StatusBadRequest)
		return
	}
	redirect := r.PostForm.Get("redirect_uri")
	if !s.validRedirect(redirect) {
		http.Error(w, "redirect_uri not allowed", http.StatusBadRequest)
		return
	}
	q := url.Values{}
	if state := r.PostForm.Get("state"); state != "" {
		q.Set("state", state)
	}
	email := strings.ToLower(strings.TrimSpace(r.PostForm.Get("email")))
	if r.PostForm.Get("decision") == "deny" || email == "" {
		q.Set("error", "access_denied")
	} else {
		s.ensureUser(email)
		code, err := s.codes.Issue(r.Context(), email, s.codeTTL)
		if err != nil {
			q.Set("error", "server_error")
		} else {
			q.Set("code", code)
		}
	}
	http.Redirect(w, r, redirect+"?"+q.Encode(), http.StatusFound)
}

func (s *Server) exchange(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Code string `json:"code"`
	}
	if err := render.DecodeJSON(r.Body, &body); err != nil || body.Code == "" {
		writeError(w, r, http.StatusBadRequest, "code is required")
		return
	}
	email, ok, err := s.codes.Redeem(r.Context(), body.Code)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "code store unavailable")
		return
	}
	if !ok {
		writeError(w, r, http.StatusBadRequest, "invalid or expired code")
		return
	}
	cookie, err := s.SessionCookie(email)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "session error")
		return
	}
	render.JSON(w, r, map[string]string{"session": cookie})
}

func (s *Server) getRole(w http.ResponseWriter, r *http.Request) {
	u, ok := s.lookup(r)
	if !ok {
		writeError(w, r, http.StatusUnauthorized, "unauthorized")
		return
	}
	rs := backend.RoleState{Status: u.RoleStatus}
	if len(u.Roles) > 0 {
		rs.Role = u.Roles[0]
	}
	render.JSON(w, r, rs)
}

func (s *Server) setRole(w http.ResponseWriter, r *http.Request) {
	u, ok := s.lookup(r)
	if !ok {
		writeError(w, r, http.StatusUnauthorized, "unauthorized")
		return
	}
	var body struct {
		Role string `json:"role"`
	}
	if err := render.DecodeJSON(r.Body, &body); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid body")
		return
	}
	role := strings.ToLower(strings.TrimSpace(body.Role))
	if !slices.Contains(Roles, role) {
		writeError(w, r, http.StatusUnprocessableEntity, "unknown role "+body.Role)
		return
	}

	status := "approved"
	if role == "vendor" {
		status = "pending"
	}
	s.mu.Lock()
	stored := s.users[u.Email]
	stored.Roles = []string{role}
	stored.RoleStatus = status
	s.mu.Unlock()

	render.JSON(w, r, backend.RoleState{Role: role, Status: status})
}

func (s *Server) getVersion(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, map[string]string{"version": s.version})
}

// ListenAndServe serves on addr until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: s.Handler(), ReadHeaderTimeout: 10 * time.Second}
	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()
	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}
