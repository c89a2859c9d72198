// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

package devbackend

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// CookieName is the session cookie the dev backend sets.
const CookieName = "marketplace_session"

const issuer = "marketplace-dev-backend"

type sessionClaims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// sessions signs and verifies stateless session tokens.
type sessions struct {
	secret []byte
	ttl    time.Duration
}

func (s sessions) issue(email string, now time.Time) (string, error) {
	claims := sessionClaims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   email,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

func (s sessions) verify(token string) (string, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
	)
	var claims sessionClaims
	if _, err := parser.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return s.secret, nil
	}); err != nil {
		return "", fmt.Errorf("invalid session: %w", err)
	}
	if claims.Email == "" {
		return "", errors.New("invalid session: no subject")
	}
	return claims.Email, nil
}
