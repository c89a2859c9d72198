// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

package backend

// Endpoints contains REST API endpoint paths relative to the base URL.
type Endpoints struct {
	Profile       string `json:"mobile_profile"` // e.g., "/api/mobile/profile"
	Login         string `json:"login"`          // e.g., "/api/login"
	SwitchAccount string `json:"switch_account"` // e.g., "/api/mobile/switch-account"
	ExchangeCode  string `json:"exchange_code"`  // e.g., "/api/mobile/exchange-code"
	UserRole      string `json:"user_role"`      // e.g., "/api/user/role"
	Version       string `json:"version"`        // e.g., "/api/version"
}

// DefaultEndpoints returns the paths served by the marketplace backend.
func DefaultEndpoints() Endpoints {
	return Endpoints{
		Profile:       "/api/mobile/profile",
		Login:         "/api/login",
		SwitchAccount: "/api/mobile/switch-account",
		ExchangeCode:  "/api/mobile/exchange-code",
		UserRole:      "/api/user/role",
		Version:       "/api/version",
	}
}

// withDefaults fills empty paths from DefaultEndpoints.
func (e Endpoints) withDefaults() Endpoints {
	d := DefaultEndpoints()
	if e.Profile == "" {
		e.Profile = d.Profile
	}
	if e.Login == "" {
		e.Login = d.Login
	}
	if e.SwitchAccount == "" {
		e.SwitchAccount = d.SwitchAccount
	}
	if e.ExchangeCode == "" {
		e.ExchangeCode = d.ExchangeCode
	}
	if e.UserRole == "" {
		e.UserRole = d.UserRole
	}
	if e.Version == "" {
		e.Version = d.Version
	}
	return e
}
