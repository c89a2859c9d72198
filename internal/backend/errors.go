// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

package backend

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
)

// maxErrorBody bounds how much of an error response is read for its message.
const maxErrorBody = 64 << 10

// AuthError means the session is absent or invalid (HTTP 401). It is the only
// error that should move the client to the unauthenticated state, and it is
// never worth retrying.
type AuthError struct {
	Method string
	Path   string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("unauthorized: %s %s", e.Method, e.Path)
}

// APIError is any other non-success response. It is meant for UI-level
// messaging and never triggers a logout.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.Status, e.Message)
}

// IsAuthError reports whether err is or wraps an *AuthError.
func IsAuthError(err error) bool {
	var ae *AuthError
	return errors.As(err, &ae)
}

// newAPIError builds an *APIError from a non-success response body,
// preferring a message from common JSON error fields.
func newAPIError(status int, body io.Reader) *APIError {
	b, _ := io.ReadAll(io.LimitReader(body, maxErrorBody))
	return &APIError{Status: status, Message: errorMessage(status, b)}
}

func errorMessage(status int, body []byte) string {
	var payload map[string]any
	if err := json.Unmarshal(body, &payload); err == nil {
		for _, key := range []string{"error", "message", "detail"} {
			if s, ok := payload[key].(string); ok && strings.TrimSpace(s) != "" {
				return strings.TrimSpace(s)
			}
			// {"error": {"message": "..."}}
			if nested, ok := payload[key].(map[string]any); ok {
				if s, ok := nested["message"].(string); ok && strings.TrimSpace(s) != "" {
					return strings.TrimSpace(s)
				}
			}
		}
	}
	return fmt.Sprintf("request failed with status %d", status)
}
