// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
)

// ID is a user identifier. The backend emits numeric or string ids depending
// on the table; both decode into ID.
type ID string

// UnmarshalJSON accepts a JSON string or number.
func (id *ID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*id = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*id = ID(n.String())
	return nil
}

// Profile is the server-supplied identity of the session owner. It is
// replaced wholesale on every fetch and never mutated client-side.
type Profile struct {
	ID    ID     `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
	Phone string `json:"phone,omitempty"`
	// Roles granted to the user, e.g. "customer", "vendor", "admin".
	Roles []string `json:"roles"`
	// Usage holds per-domain counters such as orders or bookings.
	Usage map[string]int `json:"usage,omitempty"`
}

// HasRoles reports whether any role has been granted. A profile without roles
// belongs to an account that still has to finish onboarding.
func (p *Profile) HasRoles() bool {
	return p != nil && len(p.Roles) > 0
}

// HasRole reports whether role is granted.
func (p *Profile) HasRole(role string) bool {
	if p == nil {
		return false
	}
	for _, r := range p.Roles {
		if strings.EqualFold(r, role) {
			return true
		}
	}
	return false
}

// DisplayName returns the best human-readable identifier of the profile.
func (p *Profile) DisplayName() string {
	switch {
	case p == nil:
		return ""
	case p.Name != "":
		return p.Name
	case p.Email != "":
		return p.Email
	default:
		return string(p.ID)
	}
}

// RoleState is the role selection state of the current user.
type RoleState struct {
	Role   string `json:"role"`
	Status string `json:"status,omitempty"` // e.g. "approved", "pending"
}

// GetMobileProfile calls GET /api/mobile/profile.
func (c *Client) GetMobileProfile(ctx context.Context) (*Profile, error) {
	var p Profile
	if err := c.Do(ctx, http.MethodGet, c.endpoints.Profile, nil, &p); err != nil {
		return nil, err
	}
	if p.ID == "" && p.Email == "" {
		return nil, errors.New("profile response carries no identity")
	}
	return &p, nil
}

// GetUserRole calls GET /api/user/role.
func (c *Client) GetUserRole(ctx context.Context) (*RoleState, error) {
	var rs RoleState
	if err := c.Do(ctx, http.MethodGet, c.endpoints.UserRole, nil, &rs); err != nil {
		return nil, err
	}
	return &rs, nil
}

// SetUserRole calls POST /api/user/role with { role }.
func (c *Client) SetUserRole(ctx context.Context, role string) (*RoleState, error) {
	role = strings.TrimSpace(role)
	if role == "" {
		return nil, errors.New("role must not be empty")
	}
	var rs RoleState
	if err := c.Do(ctx, http.MethodPost, c.endpoints.UserRole, map[string]string{"role": role}, &rs); err != nil {
		return nil, err
	}
	if rs.Role == "" {
		rs.Role = role
	}
	return &rs, nil
}
