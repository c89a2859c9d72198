// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

package switchauth

import (
	"context"
	"errors"
	"fmt"

	"marketplace/cli/internal/auth"
	"marketplace/cli/internal/backend"
	autherrors "marketplace/cli/internal/errors"
	"marketplace/cli/internal/logging"
)

// Store is the credential store the flow rewrites.
type Store interface {
	Set(cred string) error
	Clear() error
}

// API is the subset of the backend the flow needs.
type API interface {
	ExchangeCode(ctx context.Context, code string) (string, error)
	GetMobileProfile(ctx context.Context) (*backend.Profile, error)
}

// Session is the auth state the flow converges on. *auth.Controller
// satisfies it.
type Session interface {
	Logout()
	SetAuthenticated(p *backend.Profile)
	RouteTo(ctx context.Context, r auth.Route, p *backend.Profile)
}

// Result is where the flow ended up.
type Result struct {
	Route   auth.Route
	Profile *backend.Profile
	Err     error
}

// Flow runs switch-account.
type Flow struct {
	Store   Store
	API     API
	Session Session
	Browser BrowserSession
	// AuthURL builds the switch-account URL for a redirect URI and state.
	AuthURL URLBuilder
}

// SwitchAccount drops the current session and re-authenticates through the
// system browser. It never retries: every failure routes to the login screen
// and is reported in Result.Err.
func (f *Flow) SwitchAccount(ctx context.Context) Result {
	if err := f.Store.Clear(); err != nil {
		logging.Warn("switchauth", "clear credential failed", map[string]any{"error": err.Error()})
	}
	f.Session.Logout()

	res := f.run(ctx)
	if res.Err != nil {
		logging.Info("switchauth", "switch account did not complete", map[string]any{"error": res.Err.Error()})
	}
	f.Session.RouteTo(ctx, res.Route, res.Profile)
	return res
}

func (f *Flow) run(ctx context.Context) Result {
	toLogin := func(err error) Result { return Result{Route: auth.RouteLogin, Err: err} }

	u, err := f.Browser.Authenticate(ctx, f.AuthURL)
	if err != nil {
		if errors.Is(err, ErrSessionCancelled) || ctx.Err() != nil {
			return toLogin(autherrors.Wrap(autherrors.LoginCancelled, "browser session", err))
		}
		return toLogin(autherrors.Wrap(autherrors.BrowserFailed, "browser session", err))
	}

	cb := ParseCallback(u)
	if cb.Error != "" {
		msg := cb.Error
		if cb.Description != "" {
			msg = fmt.Sprintf("%s: %s", cb.Error, cb.Description)
		}
		return toLogin(autherrors.New(autherrors.CallbackError, msg))
	}
	if cb.Code == "" {
		return toLogin(autherrors.New(autherrors.CallbackError, "callback carried no code"))
	}

	session, err := f.API.ExchangeCode(ctx, cb.Code)
	if err != nil {
		return toLogin(autherrors.Wrap(autherrors.ExchangeFailed, "exchange code", err))
	}
	if err := f.Store.Set(session); err != nil {
		return toLogin(autherrors.Wrap(autherrors.StorageFailed, "store session", err))
	}

	p, err := f.API.GetMobileProfile(ctx)
	if err != nil {
		return toLogin(autherrors.Wrap(autherrors.ProfileFailed, "load profile", err))
	}
	if !p.HasRoles() {
		// Not authenticated until a role is chosen.
		return Result{Route: auth.RouteOnboarding, Profile: p}
	}
	f.Session.SetAuthenticated(p)
	return Result{Route: auth.RouteMain, Profile: p}
}
