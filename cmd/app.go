// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"os"

	"marketplace/cli/internal/auth"
	"marketplace/cli/internal/backend"
	"marketplace/cli/internal/config"
	"marketplace/cli/internal/keychain"
	"marketplace/cli/internal/logging"
)

// app bundles the collaborators every command works with.
type app struct {
	cfg    config.Config
	store  *keychain.Manager
	client *backend.Client
	ctrl   *auth.Controller
}

// newApp loads the config and wires the credential store, the backend client
// and the auth controller. It performs no network IO.
func newApp() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if baseURLFlag != "" {
		cfg.BaseURL = baseURLFlag
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}
	if !verbose && cfg.LogLevel != "" {
		if err := logging.Setup(cfg.LogLevel, os.Stderr); err != nil {
			return nil, err
		}
	}

	store, err := keychain.GetManager()
	if err != nil {
		return nil, err
	}
	client := newClient(cfg, store)
	return &app{
		cfg:    cfg,
		store:  store,
		client: client,
		ctrl:   auth.NewController(store, client),
	}, nil
}

// newClient builds the backend client for cfg. The login page it hands to the
// embedded browser is the same path the completion detector excludes.
func newClient(cfg config.Config, creds backend.CredentialSource) *backend.Client {
	return backend.New(cfg.BaseURL, creds,
		backend.WithTimeout(cfg.HTTPTimeout.Std()),
		backend.WithUserAgent("marketplace-cli/"+Version),
		backend.WithEndpoints(backend.Endpoints{Login: cfg.LoginPath}),
	)
}
