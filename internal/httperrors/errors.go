// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package httperrors turns failures from the backend client and the login
// flows into messages a user can act on.
package httperrors

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"
	"syscall"

	"github.com/pterm/pterm"

	"marketplace/cli/internal/backend"
	autherrors "marketplace/cli/internal/errors"
	"marketplace/cli/internal/keychain"
	"marketplace/cli/internal/logging"
)

// Category is the kind of problem a message describes.
type Category int

const (
	CategoryUnknown Category = iota
	CategoryCancelled
	CategorySessionExpired
	CategoryCallback
	CategoryExchange
	CategoryProfile
	CategoryStorage
	CategoryBrowser
	CategoryTimeout
	CategoryDNS
	CategoryConnectionRefused
	CategoryTLS
	CategoryServer
	CategoryRequest
)

// Message is a user-facing explanation of an error.
type Message struct {
	Category Category
	Title    string
	Lines    []string
	// Details is a masked technical summary, shown only in verbose mode.
	Details string
}

// Present prints a friendly message for err and returns err wrapped with
// action for the caller's own reporting.
func Present(err error, action string) error {
	if err == nil {
		return nil
	}
	m := Describe(err, action)
	render(m)
	return fmt.Errorf("%s: %w", action, err)
}

// FormatNetworkError prints a friendly message for a transport failure.
func FormatNetworkError(err error, action string) error {
	if err == nil {
		return nil
	}
	render(Describe(err, action))
	return fmt.Errorf("network error: %w", err)
}

func render(m Message) {
	switch m.Category {
	case CategoryCancelled:
		pterm.Warning.Println(m.Title)
	default:
		pterm.Error.Println(m.Title)
	}
	if len(m.Lines) > 0 {
		pterm.Println()
		for _, l := range m.Lines {
			pterm.Println(l)
		}
		pterm.Println()
	}
	if m.Details != "" && logging.Verbose() {
		pterm.Debug.Printf("Technical details: %s\n", m.Details)
	}
}

// Describe builds the message for err without printing it.
func Describe(err error, action string) Message {
	m := describe(err, action)
	m.Details = shorten(logging.Mask(err.Error()), 200)
	return m
}

func describe(err error, action string) Message {
	switch autherrors.KindOf(err) {
	case autherrors.LoginCancelled:
		return Message{Category: CategoryCancelled, Title: "Sign-in cancelled."}
	case autherrors.CallbackError:
		var e *autherrors.E
		errors.As(err, &e)
		if strings.HasPrefix(e.Message, "access_denied") {
			return Message{Category: CategoryCallback, Title: "Access was denied during sign-in.",
				Lines: []string{"Run `marketplace login` to try again with another account."}}
		}
		return Message{Category: CategoryCallback, Title: "Sign-in did not complete: " + e.Message,
			Lines: []string{"Run `marketplace login` to try again."}}
	case autherrors.ExchangeFailed:
		return Message{Category: CategoryExchange, Title: "Could not finish signing in.",
			Lines: []string{
				"The one-time sign-in code was rejected or has expired.",
				"Run `marketplace switch-account` to start over.",
			}}
	case autherrors.StorageFailed:
		return storageMessage()
	case autherrors.BrowserFailed:
		return Message{Category: CategoryBrowser, Title: "Could not open the sign-in browser.",
			Lines: []string{
				"Install Chrome, Chromium, Edge or Brave, or point browser.path in the config at one.",
			}}
	case autherrors.ProfileFailed:
		// Classified by the underlying cause below.
	}

	var storeErr *keychain.StoreError
	if errors.As(err, &storeErr) {
		return storageMessage()
	}

	if backend.IsAuthError(err) {
		return Message{Category: CategorySessionExpired, Title: "You are not signed in or your session has expired.",
			Lines: []string{"Run `marketplace login` to sign in."}}
	}

	var apiErr *backend.APIError
	if errors.As(err, &apiErr) {
		if apiErr.Status >= 500 {
			return Message{Category: CategoryServer, Title: fmt.Sprintf("Server error while %s", action),
				Lines: []string{
					"The marketplace server encountered an internal error.",
					"This is not a problem with your setup. Please try again in a few minutes.",
				}}
		}
		return Message{Category: CategoryRequest, Title: fmt.Sprintf("Request failed while %s: %s", action, apiErr.Message)}
	}

	return describeNetwork(err, action)
}

func storageMessage() Message {
	return Message{Category: CategoryStorage, Title: "Could not access secure storage.",
		Lines: []string{
			"The system keychain refused to store or read your session.",
			"  • Unlock your keychain or keyring and try again",
			"  • On headless Linux set MARKETPLACE_KEYRING_PASSWORD to use the file keyring",
		}}
}

func describeNetwork(err error, action string) Message {
	switch {
	case isTimeoutError(err):
		return Message{Category: CategoryTimeout, Title: fmt.Sprintf("Connection timeout while %s", action),
			Lines: []string{
				"The server took too long to respond. This could mean:",
				"  • Slow internet connection",
				"  • Server is under heavy load",
				"  • Network firewall is blocking the connection",
			}}
	case isDNSError(err):
		return Message{Category: CategoryDNS, Title: fmt.Sprintf("Cannot resolve server address while %s", action),
			Lines: []string{
				"Please check:",
				"  • Your internet connection is working",
				"  • The base_url in your config is spelled correctly",
			}}
	case isConnectionRefusedError(err):
		return Message{Category: CategoryConnectionRefused, Title: fmt.Sprintf("Connection refused while %s", action),
			Lines: []string{
				"The server is not accepting connections. This could mean:",
				"  • The service is temporarily down",
				"  • Wrong server address or port",
			}}
	case isSSLError(err):
		return Message{Category: CategoryTLS, Title: fmt.Sprintf("Secure connection failed while %s", action),
			Lines: []string{
				"Try:",
				"  • Check your system date and time",
				"  • Verify network proxy settings",
			}}
	}
	return Message{Category: CategoryUnknown, Title: fmt.Sprintf("Something went wrong while %s", action)}
}

func isTimeoutError(err error) bool {
	errStr := strings.ToLower(err.Error())
	if strings.Contains(errStr, "timeout") || strings.Contains(errStr, "deadline exceeded") {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func isDNSError(err error) bool {
	var dnsErr *net.DNSError
	return errors.As(err, &dnsErr)
}

func isConnectionRefusedError(err error) bool {
	var opErr *net.OpError
	if errors.As(err, &opErr) && errors.Is(opErr.Err, syscall.ECONNREFUSED) {
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), "connection refused")
}

func isSSLError(err error) bool {
	errStr := strings.ToLower(err.Error())
	return strings.Contains(errStr, "tls") ||
		strings.Contains(errStr, "x509") ||
		strings.Contains(errStr, "certificate") ||
		strings.Contains(errStr, "handshake")
}

func shorten(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

// ExtractHostFromURL extracts the hostname from a URL for error messages.
func ExtractHostFromURL(urlStr string) string {
	u, err := url.Parse(urlStr)
	if err != nil || u.Host == "" {
		return "server"
	}
	return u.Host
}
