// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

package switchauth

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-chi/render"
	"github.com/google/uuid"

	"marketplace/cli/internal/logging"
)

// ErrNoPendingSession is returned by Deliver when no switch-account session
// is waiting for a callback.
var ErrNoPendingSession = errors.New("no sign-in is waiting for a callback")

// SchemeSession uses a custom URI scheme (<scheme>://oauth-callback) as the
// redirect. The OS hands the callback URL to a second process
// ("marketplace callback <url>"), which forwards it with Deliver to the
// waiting session through a handoff file.
type SchemeSession struct {
	Scheme string
	// HandoffPath is where the pending session advertises its address.
	HandoffPath string
	Open        func(url string) error
	OnOpen      func(url string)
}

type handoff struct {
	Addr   string `json:"addr"`
	Nonce  string `json:"nonce"`
	Scheme string `json:"scheme"`
}

type deliverRequest struct {
	Nonce string `json:"nonce"`
	URL   string `json:"url"`
}

// RedirectURI is the callback URI registered for scheme.
func RedirectURI(scheme string) string {
	return scheme + "://" + CallbackPath
}

// MatchesScheme reports whether u is a callback URL for scheme.
func MatchesScheme(u *url.URL, scheme string) bool {
	if !strings.EqualFold(u.Scheme, scheme) {
		return false
	}
	// marketplace://oauth-callback parses with the name as host;
	// marketplace:/oauth-callback and marketplace:///oauth-callback as path.
	return strings.EqualFold(u.Host, CallbackPath) ||
		strings.Trim(u.Path, "/") == CallbackPath ||
		strings.TrimPrefix(u.Opaque, "//") == CallbackPath
}

// Authenticate opens the browser and waits for Deliver to forward the callback.
func (s *SchemeSession) Authenticate(ctx context.Context, authURL URLBuilder) (*url.URL, error) {
	if s.Scheme == "" || s.HandoffPath == "" {
		return nil, errors.New("scheme session needs a scheme and a handoff path")
	}
	r, err := newReceiver()
	if err != nil {
		return nil, err
	}
	defer r.close()

	h := handoff{Addr: r.addr(), Nonce: uuid.NewString(), Scheme: s.Scheme}
	state := newState()
	r.router.HandleFunc("/deliver", func(w http.ResponseWriter, req *http.Request) {
		var body deliverRequest
		if err := render.DecodeJSON(req.Body, &body); err != nil {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		if body.Nonce != h.Nonce {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}
		u, err := url.Parse(body.URL)
		if err != nil || !MatchesScheme(u, s.Scheme) {
			http.Error(w, "not a callback url", http.StatusBadRequest)
			return
		}
		if ParseCallback(u).State != state {
			http.Error(w, "state mismatch", http.StatusForbidden)
			return
		}
		if !r.deliver(u) {
			http.Error(w, "callback already received", http.StatusConflict)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}).Methods(http.MethodPost)
	r.start()

	if err := writeHandoff(s.HandoffPath, h); err != nil {
		return nil, err
	}
	defer os.Remove(s.HandoffPath)

	target := authURL(RedirectURI(s.Scheme), state)
	open := s.Open
	if open == nil {
		open = OpenBrowser
	}
	if s.OnOpen != nil {
		s.OnOpen(target)
	}
	if err := open(target); err != nil {
		return nil, fmt.Errorf("open browser: %w", err)
	}
	return r.wait(ctx)
}

func writeHandoff(path string, h handoff) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}
	b, err := json.Marshal(h)
	if err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

// Deliver forwards a callback URL received from the OS to the session waiting
// on handoffPath.
func Deliver(ctx context.Context, handoffPath, rawURL string) error {
	b, err := os.ReadFile(handoffPath)
	if errors.Is(err, os.ErrNotExist) {
		return ErrNoPendingSession
	}
	if err != nil {
		return err
	}
	var h handoff
	if err := json.Unmarshal(b, &h); err != nil {
		return fmt.Errorf("read handoff: %w", err)
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("parse callback url: %w", err)
	}
	if !MatchesScheme(u, h.Scheme) {
		return fmt.Errorf("%q is not a %s callback url", rawURL, h.Scheme)
	}

	body, _ := json.Marshal(deliverRequest{Nonce: h.Nonce, URL: rawURL})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, "http://"+h.Addr+"/deliver", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		logging.Debug("switchauth", "handoff unreachable", map[string]any{"error": err.Error()})
		return ErrNoPendingSession
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		return fmt.Errorf("callback rejected with status %d", resp.StatusCode)
	}
	return nil
}
