// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package backend is the authenticated request client of the marketplace.
//
// Every backend call goes through Client.Do, which reads the stored session
// credential, attaches it as the Cookie header, issues exactly one HTTP request
// and classifies the response: 401 becomes *AuthError, any other non-2xx
// becomes *APIError, 204 yields an empty result and other 2xx responses are
// decoded as JSON. This is the only place credential headers are attached.
package backend

import "context"

// API defines backend operations the auth flows depend on.
// *Client implements it; tests provide fakes.
type API interface {
	// GetMobileProfile returns the profile of the session owner, or *AuthError
	// when the session is missing or invalid.
	GetMobileProfile(ctx context.Context) (*Profile, error)
	// ExchangeCode trades a one-time authorization code for a session credential.
	ExchangeCode(ctx context.Context, code string) (string, error)
	// GetUserRole returns the role state consulted for onboarding routing.
	GetUserRole(ctx context.Context) (*RoleState, error)
	// SetUserRole requests a role for the current user.
	SetUserRole(ctx context.Context, role string) (*RoleState, error)
	// GetVersion returns the backend version. No authentication required.
	GetVersion(ctx context.Context) (string, error)
}

// CredentialSource is the read side of the credential store.
type CredentialSource interface {
	Get() (cred string, ok bool, err error)
}

var _ API = (*Client)(nil)
