// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package webauth implements the embedded-browser login flow.
//
// The backend only knows how to authenticate a browser: its login page
// redirects through third-party identity providers and finally sets a session
// cookie. The flow loads that page in an embedded web view, watches
// navigations until the user lands back on the backend, then asks the page to
// post its cookie jar over the view's message channel, stores it, and proves
// it works by fetching the profile.
package webauth

import "context"

// EventKind distinguishes events emitted by a WebView.
type EventKind int

const (
	// EventNavigation carries the URL of a committed top-level navigation.
	EventNavigation EventKind = iota + 1
	// EventMessage carries a payload posted by page script over the message channel.
	EventMessage
	// EventClosed means the view went away (user closed it, browser crashed).
	EventClosed
)

// Event is emitted by a WebView.
type Event struct {
	Kind    EventKind
	URL     string
	Message string
	Err     error
}

// WebView is an embedded browser the flow can drive. The page runs in its own
// JavaScript context; the message channel is the only way data comes back.
type WebView interface {
	// Navigate loads url in the view.
	Navigate(ctx context.Context, url string) error
	// Inject runs script in the current page.
	Inject(ctx context.Context, script string) error
	// Events delivers navigation, message and close events. The channel is
	// closed when the view is closed.
	Events() <-chan Event
	// Close tears the view down.
	Close() error
}
