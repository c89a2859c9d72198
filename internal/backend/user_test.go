// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

package backend

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetMobileProfile(t *testing.T) {
	c := newTestClient(t, staticCreds{cred: "sessionid=ok"}, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/mobile/profile", r.URL.Path)
		_, _ = io.WriteString(w, `{"id":42,"email":"ada@example.com","roles":["customer"],"usage":{"orders":3}}`)
	})

	p, err := c.GetMobileProfile(context.Background())
	require.NoError(t, err)
	assert.Equal(t, ID("42"), p.ID)
	assert.Equal(t, []string{"customer"}, p.Roles)
	assert.Equal(t, 3, p.Usage["orders"])
	assert.True(t, p.HasRoles())
	assert.True(t, p.HasRole("Customer"))
	assert.Equal(t, "ada@example.com", p.DisplayName())
}

func TestGetMobileProfile_Unauthorized(t *testing.T) {
	c := newTestClient(t, staticCreds{cred: "sessionid=expired"}, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})
	p, err := c.GetMobileProfile(context.Background())
	assert.Nil(t, p)
	assert.True(t, IsAuthError(err))
}

func TestGetMobileProfile_EmptyIdentity(t *testing.T) {
	c := newTestClient(t, staticCreds{}, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{}`)
	})
	_, err := c.GetMobileProfile(context.Background())
	assert.Error(t, err)
}

func TestExchangeCode(t *testing.T) {
	tests := []struct {
		name    string
		code    string
		status  int
		body    string
		want    string
		wantErr bool
	}{
		{name: "ok", code: "abc", status: http.StatusOK, body: `{"session":"sessionid=new"}`, want: "sessionid=new"},
		{name: "missing session", code: "abc", status: http.StatusOK, body: `{}`, wantErr: true},
		{name: "rejected", code: "abc", status: http.StatusBadRequest, body: `{"error":"invalid code"}`, wantErr: true},
		{name: "empty code", code: " ", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var sent map[string]string
			c := newTestClient(t, staticCreds{}, func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, http.MethodPost, r.Method)
				assert.Equal(t, "/api/mobile/exchange-code", r.URL.Path)
				_ = json.NewDecoder(r.Body).Decode(&sent)
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			})

			got, err := c.ExchangeCode(context.Background(), tt.code)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.code, sent["code"])
		})
	}
}

func TestUserRole(t *testing.T) {
	role := ""
	c := newTestClient(t, staticCreds{cred: "sessionid=ok"}, func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost:
			var in map[string]string
			_ = json.NewDecoder(r.Body).Decode(&in)
			role = in["role"]
			_, _ = io.WriteString(w, `{"role":"`+role+`","status":"pending"}`)
		default:
			_, _ = io.WriteString(w, `{"role":"`+role+`"}`)
		}
	})

	rs, err := c.SetUserRole(context.Background(), "vendor")
	require.NoError(t, err)
	assert.Equal(t, "vendor", rs.Role)
	assert.Equal(t, "pending", rs.Status)

	rs, err = c.GetUserRole(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "vendor", rs.Role)

	_, err = c.SetUserRole(context.Background(), "")
	assert.Error(t, err)
}

func TestIDUnmarshal(t *testing.T) {
	tests := map[string]ID{`"u-1"`: "u-1", `17`: "17", `null`: ""}
	for in, want := range tests {
		var id ID
		require.NoError(t, json.Unmarshal([]byte(in), &id))
		assert.Equal(t, want, id)
	}
}

func TestGetVersion(t *testing.T) {
	c := newTestClient(t, nil, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"version":"2.4.1"}`)
	})
	v, err := c.GetVersion(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "2.4.1", v)
}
