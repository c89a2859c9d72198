// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

package webauth

import (
	"context"
	"errors"
	"sync"
	"time"

	"marketplace/cli/internal/backend"
	autherrors "marketplace/cli/internal/errors"
	"marketplace/cli/internal/logging"
)

// ErrCancelled is returned when the user leaves the flow before it completes.
var ErrCancelled = autherrors.New(autherrors.LoginCancelled, "login cancelled")

// CredentialWriter persists a harvested credential.
type CredentialWriter interface {
	Set(cred string) error
}

// ProfileFetcher verifies a credential by loading the profile.
type ProfileFetcher interface {
	GetMobileProfile(ctx context.Context) (*backend.Profile, error)
}

// SessionSink receives the verified profile; *auth.Controller satisfies it.
type SessionSink interface {
	SetAuthenticated(p *backend.Profile)
}

// Options configures a Flow.
type Options struct {
	View     WebView
	Detector *Detector
	Store    CredentialWriter
	Profiles ProfileFetcher
	Session  SessionSink
	// LoginURL is the backend's interactive login page.
	LoginURL string
	// SettleDelay is waited after the credential write returns and before
	// verification. Zero skips it.
	SettleDelay time.Duration
	// OnPhase, if set, observes every phase change.
	OnPhase func(Phase)
}

// Flow drives one embedded-browser login attempt.
type Flow struct {
	opts Options

	mu      sync.Mutex
	phase   Phase
	lastErr error
}

// NewFlow creates a flow in the Idle phase.
func NewFlow(opts Options) *Flow {
	return &Flow{opts: opts}
}

// Phase returns the current phase.
func (f *Flow) Phase() Phase {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.phase
}

// LastError returns the most recent recoverable failure (harvest, storage
// or verification), if any.
func (f *Flow) LastError() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastErr
}

// transition moves from one phase to another. It fails when the flow is not
// in from, which is what keeps repeated matching navigations from
// re-entering the harvest.
func (f *Flow) transition(from, to Phase) bool {
	f.mu.Lock()
	if f.phase != from {
		f.mu.Unlock()
		return false
	}
	f.phase = to
	f.mu.Unlock()

	logging.Debug("webauth", "phase", map[string]any{"from": from.String(), "to": to.String()})
	if f.opts.OnPhase != nil {
		f.opts.OnPhase(to)
	}
	return true
}

// fail records err and returns from the authenticating phases to
// AwaitingExternalAuth so the user can retry inside the same view.
func (f *Flow) fail(from Phase, err error) {
	f.mu.Lock()
	f.lastErr = err
	f.mu.Unlock()
	logging.Warn("webauth", "login attempt failed; waiting for retry", map[string]any{"error": err.Error()})
	f.transition(from, AwaitingExternalAuth)
}

// Run loads the login page and blocks until the session is verified, the view
// is closed, or ctx is cancelled. Cancelling leaves the credential store
// untouched unless a harvested cookie was already written. The view is closed
// on return.
func (f *Flow) Run(ctx context.Context) (*backend.Profile, error) {
	if !f.transition(Idle, AwaitingExternalAuth) {
		return nil, errors.New("login flow already started")
	}
	defer f.opts.View.Close()

	if err := f.opts.View.Navigate(ctx, f.opts.LoginURL); err != nil {
		f.cancel()
		return nil, autherrors.Wrap(autherrors.BrowserFailed, "load login page", err)
	}

	events := f.opts.View.Events()
	for {
		select {
		case <-ctx.Done():
			f.cancel()
			return nil, ErrCancelled
		case ev, ok := <-events:
			if !ok || ev.Kind == EventClosed {
				f.cancel()
				return nil, ErrCancelled
			}
			switch ev.Kind {
			case EventNavigation:
				f.OnNavigate(ctx, ev.URL)
			case EventMessage:
				if p := f.OnMessage(ctx, ev.Message); p != nil {
					return p, nil
				}
			}
		}
	}
}

// OnNavigate handles a committed navigation. The first URL that matches the
// detector while awaiting external auth starts the harvest; any later match
// is ignored.
func (f *Flow) OnNavigate(ctx context.Context, url string) {
	if !f.opts.Detector.IsComplete(url) {
		return
	}
	if !f.transition(AwaitingExternalAuth, Harvesting) {
		return
	}
	logging.Debug("webauth", "login completion detected", map[string]any{"url": url})
	if err := f.opts.View.Inject(ctx, harvestScript(BindingName)); err != nil {
		f.fail(Harvesting, autherrors.Wrap(autherrors.BrowserFailed, "inject harvest script", err))
	}
}

// OnMessage handles a message posted by page script. It returns the verified
// profile once the flow reaches Done.
func (f *Flow) OnMessage(ctx context.Context, payload string) *backend.Profile {
	if f.Phase() != Harvesting {
		return nil
	}
	cookie, ok, err := parseCookieMessage(payload)
	if !ok {
		return nil
	}
	if err != nil {
		f.fail(Harvesting, autherrors.Wrap(autherrors.BrowserFailed, "harvest cookie", err))
		return nil
	}
	if cookie == "" {
		f.fail(Harvesting, autherrors.New(autherrors.ProfileFailed, "page exposed no cookies"))
		return nil
	}

	// The write is awaited; verification never starts before it lands.
	if err := f.opts.Store.Set(cookie); err != nil {
		f.fail(Harvesting, autherrors.Wrap(autherrors.StorageFailed, "store credential", err))
		return nil
	}
	if !f.transition(Harvesting, Verifying) {
		return nil
	}

	if d := f.opts.SettleDelay; d > 0 {
		t := time.NewTimer(d)
		select {
		case <-ctx.Done():
			t.Stop()
			return nil
		case <-t.C:
		}
	}

	p, err := f.opts.Profiles.GetMobileProfile(ctx)
	if err != nil {
		f.fail(Verifying, autherrors.Wrap(autherrors.ProfileFailed, "verify session", err))
		return nil
	}
	if !f.transition(Verifying, Done) {
		return nil
	}
	f.opts.Session.SetAuthenticated(p)
	return p
}

func (f *Flow) cancel() {
	f.mu.Lock()
	from := f.phase
	f.mu.Unlock()
	if from != Done {
		f.transition(from, Cancelled)
	}
}
