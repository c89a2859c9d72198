// Package errors defines typed errors with categories for user-friendly reporting.
// The login flows wrap whatever went wrong in an *E carrying a machine-readable
// Kind, so the CLI can decide what to print and where to send the user next
// without string-matching error messages.
package errors

import (
	stderrors "errors"
	"fmt"
)

// Kind is a machine-readable error category.
type Kind string

const (
	// LoginCancelled indicates the user abandoned a login flow.
	LoginCancelled Kind = "login_cancelled"
	// CallbackError indicates the identity flow redirected back with an error.
	CallbackError Kind = "callback_error"
	// ExchangeFailed indicates the one-time code could not be exchanged.
	ExchangeFailed Kind = "exchange_failed"
	// ProfileFailed indicates the session could not be verified via the profile endpoint.
	ProfileFailed Kind = "profile_failed"
	// StorageFailed indicates the secure credential store rejected an operation.
	StorageFailed Kind = "storage_failed"
	// BrowserFailed indicates the embedded or system browser could not be driven.
	BrowserFailed Kind = "browser_failed"
)

// E wraps an error with kind and human-friendly message.
type E struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *E) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *E) Unwrap() error { return e.Err }

func Wrap(kind Kind, msg string, err error) *E { return &E{Kind: kind, Message: msg, Err: err} }
func New(kind Kind, msg string) *E             { return &E{Kind: kind, Message: msg} }

// KindOf returns the Kind of the first *E in err's chain, or "".
func KindOf(err error) Kind {
	var e *E
	if stderrors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}
