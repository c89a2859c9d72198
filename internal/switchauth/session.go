// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package switchauth implements "switch account": the stored session is
// dropped, the system browser runs the backend's switch-account flow, and the
// one-time code delivered on the callback is exchanged for a new session.
package switchauth

import (
	"context"
	"errors"
	"net/url"
	"os/exec"
	"runtime"

	"github.com/google/uuid"
)

// CallbackPath is the path (or, for custom schemes, the host) the identity
// flow redirects to when it is done.
const CallbackPath = "oauth-callback"

// ErrSessionCancelled is returned when the user abandons the browser session.
var ErrSessionCancelled = errors.New("browser session cancelled")

// URLBuilder returns the auth URL for a redirect URI and the state value the
// backend must echo back on the callback.
type URLBuilder func(redirectURI, state string) string

// BrowserSession runs one system-browser auth session and returns the URL the
// flow called back with.
type BrowserSession interface {
	Authenticate(ctx context.Context, authURL URLBuilder) (*url.URL, error)
}

// Callback holds the parameters of a callback URL.
type Callback struct {
	Code        string
	Error       string
	Description string
	State       string
}

// ParseCallback reads code or error from a callback URL.
func ParseCallback(u *url.URL) Callback {
	q := u.Query()
	return Callback{
		Code:        q.Get("code"),
		Error:       q.Get("error"),
		Description: q.Get("error_description"),
		State:       q.Get("state"),
	}
}

// newState returns a fresh value for the state parameter.
func newState() string { return uuid.NewString() }

// OpenBrowser opens url in the user's default browser. It starts the browser
// process but does not wait for it to complete.
var OpenBrowser = func(url string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	case "darwin":
		cmd = exec.Command("open", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}
	return cmd.Start()
}
