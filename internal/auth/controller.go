// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

package auth

import (
	"context"
	"sync"

	"golang.org/x/sync/singleflight"

	"marketplace/cli/internal/backend"
	"marketplace/cli/internal/logging"
)

// CredentialStore is the secure storage holding the session credential.
type CredentialStore interface {
	Get() (cred string, ok bool, err error)
	Set(cred string) error
	Clear() error
}

// ProfileFetcher loads the profile of the current session.
type ProfileFetcher interface {
	GetMobileProfile(ctx context.Context) (*backend.Profile, error)
}

// Controller owns the authentication state machine.
type Controller struct {
	store    CredentialStore
	profiles ProfileFetcher

	mu        sync.RWMutex
	state     State
	navigator Navigator
	listeners map[int]func(State)
	nextID    int

	bootOnce sync.Once
	logins   singleflight.Group
}

// NewController creates a controller in the loading state. Call Bootstrap
// once at startup to resolve it.
func NewController(store CredentialStore, profiles ProfileFetcher) *Controller {
	return &Controller{
		store:     store,
		profiles:  profiles,
		state:     State{IsLoading: true},
		listeners: make(map[int]func(State)),
	}
}

// Bootstrap asks the backend for the current profile. Success means
// authenticated; any failure, including *backend.AuthError, means
// unauthenticated. A stale credential is left in storage. Only the first call
// does anything, and its result is dropped when a login, logout or refresh
// already resolved the state.
func (c *Controller) Bootstrap(ctx context.Context) State {
	c.bootOnce.Do(func() {
		p, err := c.profiles.GetMobileProfile(ctx)
		if err != nil {
			logging.Debug("auth", "bootstrap: not authenticated", map[string]any{
				"auth_error": backend.IsAuthError(err),
				"error":      err.Error(),
			})
			p = nil
		}
		c.updateIf(func(s State) bool { return s.IsLoading }, func(s *State) {
			s.IsLoading = false
			s.Profile = p
		})
	})
	return c.State()
}

// State returns a snapshot of the current state.
func (c *Controller) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// RegisterNavigator installs the navigation handler. Passing nil unsets it.
func (c *Controller) RegisterNavigator(n Navigator) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.navigator = n
}

func (c *Controller) nav() Navigator {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.navigator
}

// Subscribe registers fn to receive every state change. The returned func
// removes the subscription.
func (c *Controller) Subscribe(fn func(State)) (unsubscribe func()) {
	c.mu.Lock()
	id := c.nextID
	c.nextID++
	c.listeners[id] = fn
	c.mu.Unlock()

	return func() {
		c.mu.Lock()
		delete(c.listeners, id)
		c.mu.Unlock()
	}
}

// Login sends the user to the login screen. It is a no-op without a
// navigator. Calls made while a previous Login is still in progress join it
// instead of opening a second login screen.
func (c *Controller) Login(ctx context.Context) {
	n := c.nav()
	if n == nil {
		logging.Debug("auth", "login requested without navigator", nil)
		return
	}
	_, _, _ = c.logins.Do("login", func() (any, error) {
		n.ShowLogin(ctx)
		return nil, nil
	})
}

// RouteTo shows the given destination through the navigator, if any.
func (c *Controller) RouteTo(ctx context.Context, r Route, p *backend.Profile) {
	switch r {
	case RouteLogin:
		c.Login(ctx)
	case RouteOnboarding:
		if n := c.nav(); n != nil {
			n.ShowOnboarding(ctx, p)
		}
	case RouteMain:
		if n := c.nav(); n != nil {
			n.ShowMain(ctx, p)
		}
	}
}

// Logout clears the credential store and resets the state to
// unauthenticated. A storage failure is logged, never returned: the state
// transition always completes.
func (c *Controller) Logout() {
	if err := c.store.Clear(); err != nil {
		logging.Warn("auth", "logout: credential not cleared", map[string]any{"error": err.Error()})
	}
	c.update(func(s *State) {
		s.IsLoading = false
		s.Profile = nil
	})
}

// RefreshProfile re-fetches the profile. On success the profile is replaced
// and the state counts as resolved; on failure the state is left exactly as
// it was and the error is returned for display only.
func (c *Controller) RefreshProfile(ctx context.Context) error {
	p, err := c.profiles.GetMobileProfile(ctx)
	if err != nil {
		logging.Debug("auth", "refresh failed; state unchanged", map[string]any{"error": err.Error()})
		return err
	}
	c.update(func(s *State) {
		s.IsLoading = false
		s.Profile = p
	})
	return nil
}

// SetAuthenticated injects a profile already validated by a login flow.
// A nil profile leaves the client unauthenticated without touching storage.
func (c *Controller) SetAuthenticated(p *backend.Profile) {
	c.update(func(s *State) {
		s.IsLoading = false
		s.Profile = p
	})
}

// update applies fn under the lock and notifies listeners outside of it.
func (c *Controller) update(fn func(*State)) {
	c.updateIf(nil, fn)
}

// updateIf is update guarded by cond, evaluated under the same lock. A nil
// cond always applies.
func (c *Controller) updateIf(cond func(State) bool, fn func(*State)) {
	c.mu.Lock()
	if cond != nil && !cond(c.state) {
		c.mu.Unlock()
		return
	}
	fn(&c.state)
	snapshot := c.state
	listeners := make([]func(State), 0, len(c.listeners))
	for _, l := range c.listeners {
		listeners = append(listeners, l)
	}
	c.mu.Unlock()

	for _, l := range listeners {
		l(snapshot)
	}
}
