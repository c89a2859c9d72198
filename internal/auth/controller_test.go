// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

package auth

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/99designs/keyring"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"marketplace/cli/internal/backend"
	"marketplace/cli/internal/keychain"
)

type fakeProfiles struct {
	mu      sync.Mutex
	profile *backend.Profile
	err     error
	calls   int
}

func (f *fakeProfiles) GetMobileProfile(ctx context.Context) (*backend.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.profile, nil
}

func (f *fakeProfiles) set(p *backend.Profile, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.profile, f.err = p, err
}

type failingStore struct{}

func (*failingStore) Get() (string, bool, error) { return "", false, errors.New("locked") }
func (*failingStore) Set(string) error           { return errors.New("locked") }
func (*failingStore) Clear() error               { return errors.New("locked") }

func newStore(t *testing.T, cred string) *keychain.Manager {
	t.Helper()
	m := keychain.NewManagerWithKeyring(keyring.NewArrayKeyring(nil))
	if cred != "" {
		require.NoError(t, m.Set(cred))
	}
	return m
}

func assertInvariant(t *testing.T, s State) {
	t.Helper()
	assert.Equal(t, s.Profile != nil, s.IsAuthenticated())
}

func TestNewControllerStartsLoading(t *testing.T) {
	c := NewController(newStore(t, ""), &fakeProfiles{})
	s := c.State()
	assert.True(t, s.IsLoading)
	assert.False(t, s.IsAuthenticated())
}

func TestBootstrap_ValidStoredCredential(t *testing.T) {
	profiles := &fakeProfiles{profile: &backend.Profile{ID: "7", Roles: []string{"customer"}}}
	c := NewController(newStore(t, "sessionid=valid"), profiles)

	s := c.Bootstrap(context.Background())
	assert.False(t, s.IsLoading)
	assert.True(t, s.IsAuthenticated())
	assert.Equal(t, []string{"customer"}, s.Profile.Roles)
	assertInvariant(t, s)
}

func TestBootstrap_ExpiredCredentialStaysInStorage(t *testing.T) {
	store := newStore(t, "sessionid=expired")
	profiles := &fakeProfiles{err: &backend.AuthError{Method: "GET", Path: "/api/mobile/profile"}}
	c := NewController(store, profiles)

	s := c.Bootstrap(context.Background())
	assert.False(t, s.IsLoading)
	assert.False(t, s.IsAuthenticated())
	assert.Nil(t, s.Profile)

	cred, ok, err := store.Get()
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "sessionid=expired", cred)

	c.Logout()
	_, ok, err = store.Get()
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestBootstrap_RunsOnce(t *testing.T) {
	profiles := &fakeProfiles{err: errors.New("offline")}
	c := NewController(newStore(t, ""), profiles)

	var loadingTransitions int32
	c.Subscribe(func(s State) {
		if !s.IsLoading {
			atomic.AddInt32(&loadingTransitions, 1)
		}
	})

	c.Bootstrap(context.Background())
	profiles.set(&backend.Profile{ID: "1"}, nil)
	s := c.Bootstrap(context.Background())

	assert.Equal(t, 1, profiles.calls)
	assert.False(t, s.IsAuthenticated())
	assert.Equal(t, int32(1), atomic.LoadInt32(&loadingTransitions))
}

func TestBootstrap_KeepsStateResolvedEarlier(t *testing.T) {
	customer := &backend.Profile{ID: "7", Roles: []string{"customer"}}
	tests := []struct {
		name    string
		resolve func(c *Controller)
		want    *backend.Profile
	}{
		{name: "login flow", resolve: func(c *Controller) { c.SetAuthenticated(customer) }, want: customer},
		{name: "logout", resolve: func(c *Controller) { c.Logout() }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			profiles := &fakeProfiles{err: errors.New("dial tcp: connection refused")}
			c := NewController(newStore(t, "sessionid=a"), profiles)
			tt.resolve(c)

			s := c.Bootstrap(context.Background())
			assert.False(t, s.IsLoading)
			assert.Same(t, tt.want, s.Profile)
			assertInvariant(t, s)
		})
	}
}

func TestRefreshProfile_BeforeBootstrapResolvesLoading(t *testing.T) {
	customer := &backend.Profile{ID: "7", Roles: []string{"customer"}}
	profiles := &fakeProfiles{profile: customer}
	c := NewController(newStore(t, "sessionid=a"), profiles)

	require.NoError(t, c.RefreshProfile(context.Background()))
	s := c.State()
	assert.False(t, s.IsLoading)
	assert.Same(t, customer, s.Profile)

	profiles.set(nil, errors.New("offline"))
	s = c.Bootstrap(context.Background())
	assert.Same(t, customer, s.Profile)
}

func TestRefreshProfile_FailureBeforeBootstrapStaysLoading(t *testing.T) {
	c := NewController(newStore(t, ""), &fakeProfiles{err: errors.New("offline")})

	assert.Error(t, c.RefreshProfile(context.Background()))
	assert.True(t, c.State().IsLoading)
	assert.False(t, c.State().IsAuthenticated())
}

func TestLogout_ClearsStoreRegardlessOfState(t *testing.T) {
	tests := []struct {
		name    string
		cred    string
		profile *backend.Profile
	}{
		{name: "authenticated", cred: "sessionid=a", profile: &backend.Profile{ID: "1"}},
		{name: "stale credential", cred: "sessionid=b"},
		{name: "empty store"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newStore(t, tt.cred)
			c := NewController(store, &fakeProfiles{})
			c.SetAuthenticated(tt.profile)

			c.Logout()

			_, ok, err := store.Get()
			require.NoError(t, err)
			assert.False(t, ok)
			s := c.State()
			assert.False(t, s.IsLoading)
			assert.False(t, s.IsAuthenticated())
			assertInvariant(t, s)
		})
	}
}

func TestLogout_StorageFailureStillResetsState(t *testing.T) {
	c := NewController(&failingStore{}, &fakeProfiles{})
	c.SetAuthenticated(&backend.Profile{ID: "1"})

	assert.NotPanics(t, c.Logout)
	assert.False(t, c.State().IsAuthenticated())
}

func TestRefreshProfile(t *testing.T) {
	original := &backend.Profile{ID: "1", Roles: []string{"customer"}}
	profiles := &fakeProfiles{profile: original}
	c := NewController(newStore(t, "sessionid=a"), profiles)
	c.Bootstrap(context.Background())

	t.Run("network failure leaves profile unchanged", func(t *testing.T) {
		profiles.set(nil, errors.New("dial tcp: i/o timeout"))
		err := c.RefreshProfile(context.Background())
		assert.Error(t, err)
		assert.Same(t, original, c.State().Profile)
		assertInvariant(t, c.State())
	})

	t.Run("auth failure leaves profile unchanged", func(t *testing.T) {
		profiles.set(nil, &backend.AuthError{})
		_ = c.RefreshProfile(context.Background())
		assert.Same(t, original, c.State().Profile)
	})

	t.Run("success replaces profile wholesale", func(t *testing.T) {
		updated := &backend.Profile{ID: "1", Roles: []string{"customer", "vendor"}}
		profiles.set(updated, nil)
		require.NoError(t, c.RefreshProfile(context.Background()))
		assert.Same(t, updated, c.State().Profile)
		assert.False(t, c.State().IsLoading)
	})
}

func TestSetAuthenticatedKeepsInvariant(t *testing.T) {
	c := NewController(newStore(t, ""), &fakeProfiles{})
	var seen []State
	unsubscribe := c.Subscribe(func(s State) { seen = append(seen, s) })

	c.SetAuthenticated(&backend.Profile{ID: "9"})
	c.SetAuthenticated(nil)
	unsubscribe()
	c.SetAuthenticated(&backend.Profile{ID: "10"})

	require.Len(t, seen, 2)
	for _, s := range seen {
		assertInvariant(t, s)
	}
	assert.True(t, seen[0].IsAuthenticated())
	assert.False(t, seen[1].IsAuthenticated())
}

func TestLogin_NoNavigatorIsNoop(t *testing.T) {
	c := NewController(newStore(t, ""), &fakeProfiles{})
	assert.NotPanics(t, func() { c.Login(context.Background()) })
	assert.NotPanics(t, func() { c.RouteTo(context.Background(), RouteMain, nil) })
}

func TestLogin_ConcurrentCallsShareOneScreen(t *testing.T) {
	c := NewController(newStore(t, ""), &fakeProfiles{})

	var shown int32
	release := make(chan struct{})
	entered := make(chan struct{}, 1)
	c.RegisterNavigator(NavigatorFuncs{Login: func(ctx context.Context) {
		atomic.AddInt32(&shown, 1)
		entered <- struct{}{}
		<-release
	}})

	var wg sync.WaitGroup
	wg.Add(1)
	go func() { defer wg.Done(); c.Login(context.Background()) }()
	<-entered

	for i := 0; i < 3; i++ {
		wg.Add(1)
		go func() { defer wg.Done(); c.Login(context.Background()) }()
	}
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&shown))
}

func TestRouteTo(t *testing.T) {
	c := NewController(newStore(t, ""), &fakeProfiles{})
	var got []Route
	c.RegisterNavigator(NavigatorFuncs{
		Login:      func(context.Context) { got = append(got, RouteLogin) },
		Onboarding: func(context.Context, *backend.Profile) { got = append(got, RouteOnboarding) },
		Main:       func(context.Context, *backend.Profile) { got = append(got, RouteMain) },
	})

	c.RouteTo(context.Background(), RouteOnboarding, &backend.Profile{ID: "1"})
	c.RouteTo(context.Background(), RouteMain, &backend.Profile{ID: "1"})
	c.RouteTo(context.Background(), RouteLogin, nil)

	assert.Equal(t, []Route{RouteOnboarding, RouteMain, RouteLogin}, got)
}
