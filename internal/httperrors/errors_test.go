package httperrors

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"testing"

	"marketplace/cli/internal/backend"
	autherrors "marketplace/cli/internal/errors"
	"marketplace/cli/internal/keychain"
)

func TestDescribe_Categories(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Category
	}{
		{"cancelled", autherrors.New(autherrors.LoginCancelled, "login cancelled"), CategoryCancelled},
		{"access denied", autherrors.New(autherrors.CallbackError, "access_denied"), CategoryCallback},
		{"exchange", autherrors.Wrap(autherrors.ExchangeFailed, "exchange code", &backend.APIError{Status: 400}), CategoryExchange},
		{"storage", autherrors.Wrap(autherrors.StorageFailed, "store", errors.New("locked")), CategoryStorage},
		{"keychain", &keychain.StoreError{Op: "get", Key: keychain.KeySessionCookie, Err: errors.New("locked")}, CategoryStorage},
		{"browser", autherrors.New(autherrors.BrowserFailed, "no chrome"), CategoryBrowser},
		{"profile 401", autherrors.Wrap(autherrors.ProfileFailed, "verify", &backend.AuthError{Method: "GET", Path: "/api/profile"}), CategorySessionExpired},
		{"auth", fmt.Errorf("whoami: %w", &backend.AuthError{Method: "GET", Path: "/x"}), CategorySessionExpired},
		{"server", &backend.APIError{Status: 503, Message: "down"}, CategoryServer},
		{"bad request", &backend.APIError{Status: 422, Message: "invalid role"}, CategoryRequest},
		{"deadline", context.DeadlineExceeded, CategoryTimeout},
		{"dns", &net.DNSError{Err: "no such host", Name: "shop.example.com"}, CategoryDNS},
		{"refused", errors.New("dial tcp 127.0.0.1:1: connect: connection refused"), CategoryConnectionRefused},
		{"tls", errors.New("x509: certificate signed by unknown authority"), CategoryTLS},
		{"other", errors.New("weird"), CategoryUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Describe(tt.err, "signing in").Category; got != tt.want {
				t.Errorf("Describe(%v).Category = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestDescribe_MasksDetails(t *testing.T) {
	m := Describe(errors.New("Cookie: sid=secret123"), "loading profile")
	if m.Details == "" {
		t.Fatal("expected details")
	}
	if strings.Contains(m.Details, "secret123") {
		t.Errorf("details leak credential: %q", m.Details)
	}
}

func TestPresent_Wraps(t *testing.T) {
	base := &backend.AuthError{Method: "GET", Path: "/api/profile"}
	err := Present(base, "loading profile")
	if !errors.Is(err, base) {
		t.Fatalf("Present should wrap original error, got %v", err)
	}
	if Present(nil, "x") != nil {
		t.Fatal("Present(nil) should be nil")
	}
}

func TestExtractHostFromURL(t *testing.T) {
	if got := ExtractHostFromURL("https://shop.example.com/api"); got != "shop.example.com" {
		t.Errorf("got %q", got)
	}
	if got := ExtractHostFromURL("::"); got != "server" {
		t.Errorf("got %q", got)
	}
}
