// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

package backend

import (
	"context"
	"errors"
	"net/http"
	"strings"
)

// ExchangeCode calls POST /api/mobile/exchange-code with { code } and returns
// the session credential from { session }.
func (c *Client) ExchangeCode(ctx context.Context, code string) (string, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return "", errors.New("empty authorization code")
	}
	var out struct {
		Session string `json:"session"`
	}
	if err := c.Do(ctx, http.MethodPost, c.endpoints.ExchangeCode, map[string]string{"code": code}, &out); err != nil {
		return "", err
	}
	session := strings.TrimSpace(out.Session)
	if session == "" {
		return "", errors.New("no session in exchange response")
	}
	return session, nil
}
