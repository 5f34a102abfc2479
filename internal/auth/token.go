// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package auth

import (
	"context"
	"errors"
	"os"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Token errors
var (
	ErrNoToken      = errors.New("no active account, sign in first")
	ErrTokenExpired = errors.New("access token expired, sign in again")
)

// DefaultEnvVar holds the access token when set.
const DefaultEnvVar = "AINA_TOKEN"

// TokenSource produces the bearer token for the next request.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// =============================================================================
// FIXED SOURCES
// =============================================================================

// StaticToken always returns the same token.
type StaticToken string

// Token implements TokenSource.
func (s StaticToken) Token(context.Context) (string, error) {
	tok := strings.TrimSpace(string(s))
	if tok == "" {
		return "", ErrNoToken
	}
	return tok, nil
}

// EnvToken reads the named environment variable on every call. The empty
// name means AINA_TOKEN.
type EnvToken string

// Token implements TokenSource.
func (e EnvToken) Token(context.Context) (string, error) {
	name := string(e)
	if name == "" {
		name = DefaultEnvVar
	}
	tok := strings.TrimSpace(os.Getenv(name))
	if tok == "" {
		return "", ErrNoToken
	}
	return tok, nil
}

// =============================================================================
// CHAIN
// =============================================================================

// Chain tries each source in order and returns the first token that is not
// expired. If every source came up empty the error is ErrNoToken; if at
// least one had an expired token it is ErrTokenExpired.
type Chain []TokenSource

// Token implements TokenSource.
func (c Chain) Token(ctx context.Context) (string, error) {
	result := ErrNoToken
	for _, src := range c {
		if src == nil {
			continue
		}
		tok, err := src.Token(ctx)
		if err == nil {
			err = CheckExpiry(tok, time.Now())
		}
		switch {
		case err == nil:
			return tok, nil
		case errors.Is(err, ErrNoToken):
			continue
		case errors.Is(err, ErrTokenExpired):
			result = err
		default:
			return "", err
		}
	}
	return "", result
}

// =============================================================================
// CLAIMS
// =============================================================================

// Identity is what the client can learn from an unverified JWT.
type Identity struct {
	Subject string
	Name    string
	Expires time.Time
}

// Inspect parses a token without verifying its signature. ok is false when
// the token is opaque (not a JWT).
func Inspect(token string) (id Identity, ok bool) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return Identity{}, false
	}

	id.Subject, _ = claims.GetSubject()
	for _, key := range []string{"preferred_username", "name", "upn", "email"} {
		if v, ok := claims[key].(string); ok && v != "" {
			id.Name = v
			break
		}
	}
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		id.Expires = exp.Time
	}
	return id, true
}

// CheckExpiry returns ErrTokenExpired when token is a JWT whose exp claim is
// not after now. Opaque tokens and JWTs without exp pass.
func CheckExpiry(token string, now time.Time) error {
	id, ok := Inspect(token)
	if !ok || id.Expires.IsZero() {
		return nil
	}
	if !now.Before(id.Expires) {
		return ErrTokenExpired
	}
	return nil
}
