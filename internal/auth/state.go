// Package auth owns the client's authentication state.
//
// Controller is the single source of truth for {IsLoading, IsAuthenticated,
// Profile}. It is created once per process, bootstrapped once, and handed to
// every consumer that needs to gate on or react to the session; there is no
// package-level state.
package auth

import (
	"context"

	"marketplace/cli/internal/backend"
)

// State is a snapshot of the authentication state. IsAuthenticated is derived
// from Profile, so IsAuthenticated() == (Profile != nil) always holds.
type State struct {
	// IsLoading is true only until the bootstrap profile check completes.
	IsLoading bool
	Profile   *backend.Profile
}

// IsAuthenticated reports whether a profile is held.
func (s State) IsAuthenticated() bool {
	return s.Profile != nil
}

// Route names a top-level destination the navigation layer can show.
type Route string

const (
	RouteLogin      Route = "login"
	RouteOnboarding Route = "onboarding"
	RouteMain       Route = "main"
)

// Navigator is supplied by the navigation layer at startup so the controller
// can move the user without owning navigation.
type Navigator interface {
	ShowLogin(ctx context.Context)
	ShowOnboarding(ctx context.Context, p *backend.Profile)
	ShowMain(ctx context.Context, p *backend.Profile)
}

// NavigatorFuncs adapts plain functions to Navigator. Nil fields are no-ops.
type NavigatorFuncs struct {
	Login      func(ctx context.Context)
	Onboarding func(ctx context.Context, p *backend.Profile)
	Main       func(ctx context.Context, p *backend.Profile)
}

func (n NavigatorFuncs) ShowLogin(ctx context.Context) {
	if n.Login != nil {
		n.Login(ctx)
	}
}

func (n NavigatorFuncs) ShowOnboarding(ctx context.Context, p *backend.Profile) {
	if n.Onboarding != nil {
		n.Onboarding(ctx, p)
	}
}

func (n NavigatorFuncs) ShowMain(ctx context.Context, p *backend.Profile) {
	if n.Main != nil {
		n.Main(ctx, p)
	}
}
