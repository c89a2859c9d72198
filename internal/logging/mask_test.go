// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

package logging

import (
	"testing"
)

func TestMask(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "Password parameter",
			input:    "password=secret123",
			expected: "password=***",
		},
		{
			name:     "Token",
			input:    "token=abc123xyz",
			expected: "token=***",
		},
		{
			name:     "Bearer header value",
			input:    "Authorization: Bearer eyJhbGciOi.J9.x",
			expected: "Authorization: Bearer ***",
		},
		{
			name:     "Callback code",
			input:    "marketplace://oauth-callback?code=one-time-123&state=x",
			expected: "marketplace://oauth-callback?code=***&state=x",
		},
		{
			name:     "Exchange response body",
			input:    `{"session":"sid=abc; csrftoken=def"}`,
			expected: `{"session":"***"}`,
		},
		{
			name:     "Cookie header",
			input:    "Cookie: sessionid=abc; csrftoken=def",
			expected: "Cookie: sessionid=***; csrftoken=***",
		},
		{
			name:     "Nothing sensitive",
			input:    "GET /api/mobile/profile 200",
			expected: "GET /api/mobile/profile 200",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Mask(tt.input)
			if result != tt.expected {
				t.Errorf("Mask() = %v, want %v", result, tt.expected)
			}
		})
	}
}

func TestMaskCookie(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"", ""},
		{"sessionid=abc", "sessionid=***"},
		{"sessionid=abc; csrftoken=def", "sessionid=***; csrftoken=***"},
		{"garbage", "***"},
	}
	for _, tt := range tests {
		if got := MaskCookie(tt.input); got != tt.expected {
			t.Errorf("MaskCookie(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}
