// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

package switchauth

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/mux"

	"marketplace/cli/internal/logging"
)

// receiver is a short-lived 127.0.0.1 HTTP server that yields exactly one
// callback URL.
type receiver struct {
	ln     net.Listener
	srv    *http.Server
	router *mux.Router

	once   sync.Once
	result chan *url.URL
}

func newReceiver() (*receiver, error) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return nil, fmt.Errorf("listen for callback: %w", err)
	}
	r := &receiver{
		ln:     ln,
		router: mux.NewRouter(),
		result: make(chan *url.URL, 1),
	}
	r.srv = &http.Server{Handler: r.router, ReadHeaderTimeout: 10 * time.Second}
	return r, nil
}

// addr is host:port of the listener.
func (r *receiver) addr() string { return r.ln.Addr().String() }

func (r *receiver) start() {
	go func() {
		if err := r.srv.Serve(r.ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Warn("switchauth", "callback server stopped", map[string]any{"error": err.Error()})
		}
	}()
}

// deliver hands over the first callback; later ones are dropped.
func (r *receiver) deliver(u *url.URL) bool {
	delivered := false
	r.once.Do(func() {
		r.result <- u
		delivered = true
	})
	return delivered
}

// wait blocks for the callback or ctx.
func (r *receiver) wait(ctx context.Context) (*url.URL, error) {
	select {
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.Canceled) {
			return nil, ErrSessionCancelled
		}
		return nil, ctx.Err()
	case u := <-r.result:
		return u, nil
	}
}

func (r *receiver) close() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_ = r.srv.Shutdown(ctx)
}

const donePage = `<!doctype html>
<html><head><meta charset="utf-8"><title>Marketplace</title></head>
<body style="font-family: sans-serif; text-align: center; margin-top: 4em">
<h2>%s</h2><p>You can close this window and return to the terminal.</p>
</body></html>`

func writeDonePage(w http.ResponseWriter, ok bool) {
	title := "Signed in"
	if !ok {
		title = "Sign-in did not complete"
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprintf(w, donePage, title)
}
