// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

package switchauth

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"marketplace/cli/internal/logging"
)

// LoopbackSession receives the callback on http://127.0.0.1:<port>/oauth-callback.
// It stands in for a custom URI scheme on hosts where registering one is not
// practical.
type LoopbackSession struct {
	// Open launches the system browser. Defaults to OpenBrowser.
	Open func(url string) error
	// OnOpen, if set, is told the URL the browser was sent to.
	OnOpen func(url string)
}

// Authenticate opens the browser and waits for the identity flow to call back.
// Requests that do not carry the state sent with the auth URL are refused and
// the session keeps waiting.
func (s *LoopbackSession) Authenticate(ctx context.Context, authURL URLBuilder) (*url.URL, error) {
	r, err := newReceiver()
	if err != nil {
		return nil, err
	}
	defer r.close()

	state := newState()
	r.router.HandleFunc("/"+CallbackPath, func(w http.ResponseWriter, req *http.Request) {
		u := *req.URL
		u.Scheme, u.Host = "http", req.Host
		cb := ParseCallback(&u)
		if cb.State != state {
			logging.Debug("switchauth", "callback with unknown state refused", nil)
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}
		r.deliver(&u)
		writeDonePage(w, cb.Code != "" && cb.Error == "")
	}).Methods(http.MethodGet)
	r.start()

	redirect := fmt.Sprintf("http://%s/%s", r.addr(), CallbackPath)
	target := authURL(redirect, state)
	logging.Debug("switchauth", "opening system browser", map[string]any{"redirect_uri": redirect})

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
