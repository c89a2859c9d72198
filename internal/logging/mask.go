// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package logging provides the CLI's structured logger and utilities for secure
// logging and error presentation.
//
// Session cookies, one-time authorization codes and bearer tokens pass through
// this client constantly; Mask and MaskCookie make sure they never reach a log
// line or an error shown to the user.
package logging

import (
	"regexp"
	"strings"
)

var (
	rePassword  = regexp.MustCompile(`(?i)(password=)([^\s;&]+)`)
	reToken     = regexp.MustCompile(`(?i)(token=|bearer\s+)([A-Za-z0-9._~+/=-]+)`)
	reCode      = regexp.MustCompile(`(?i)([?&]code=)([^\s&#]+)`)
	reCookieHdr = regexp.MustCompile(`(?i)(cookie:\s*)([^\r\n]+)`)
	reJSONSess  = regexp.MustCompile(`(?i)("(?:session|token|access_token|refresh_token|code)"\s*:\s*")([^"]*)(")`)
)

// Mask replaces sensitive values in the input string with "***".
func Mask(s string) string {
	out := s
	out = rePassword.ReplaceAllString(out, "$1***")
	out = reToken.ReplaceAllString(out, "$1***")
	out = reCode.ReplaceAllString(out, "$1***")
	out = reJSONSess.ReplaceAllString(out, "$1***$3")
	out = reCookieHdr.ReplaceAllStringFunc(out, func(m string) string {
		parts := reCookieHdr.FindStringSubmatch(m)
		return parts[1] + MaskCookie(parts[2])
	})
	return out
}

// MaskCookie keeps cookie names but hides every value of a serialized cookie
// header ("a=1; b=2" becomes "a=***; b=***").
func MaskCookie(cookie string) string {
	if strings.TrimSpace(cookie) == "" {
		return ""
	}
	pairs := strings.Split(cookie, ";")
	for i, p := range pairs {
		name, _, found := strings.Cut(strings.TrimSpace(p), "=")
		if !found {
			pairs[i] = "***"
			continue
		}
		pairs[i] = name + "=***"
	}
	return strings.Join(pairs, "; ")
}
