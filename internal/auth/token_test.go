// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package auth

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signed(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return tok
}

// =============================================================================
// FIXED SOURCES
// =============================================================================

func TestStaticToken(t *testing.T) {
	tok, err := StaticToken("  abc \n").Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "abc", tok)

	_, err = StaticToken("").Token(context.Background())
	assert.ErrorIs(t, err, ErrNoToken)
}

func TestEnvToken(t *testing.T) {
	t.Setenv(DefaultEnvVar, "from-env")
	tok, err := EnvToken("").Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "from-env", tok)

	t.Setenv("CUSTOM_TOKEN", "")
	_, err = EnvToken("CUSTOM_TOKEN").Token(context.Background())
	assert.ErrorIs(t, err, ErrNoToken)
}

// =============================================================================
// EXPIRY
// =============================================================================

func TestCheckExpiry(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name  string
		token string
		want  error
	}{
		{"opaque token", "not-a-jwt", nil},
		{"no exp claim", signed(t, jwt.MapClaims{"sub": "u1"}), nil},
		{"valid", signed(t, jwt.MapClaims{"exp": now.Add(time.Hour).Unix()}), nil},
		{"expired", signed(t, jwt.MapClaims{"exp": now.Add(-time.Minute).Unix()}), ErrTokenExpired},
		{"expires now", signed(t, jwt.MapClaims{"exp": now.Unix()}), ErrTokenExpired},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := CheckExpiry(tc.token, now)
			if tc.want == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tc.want)
			}
		})
	}
}

func TestInspect(t *testing.T) {
	exp := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	tok := signed(t, jwt.MapClaims{
		"sub":                "user-42",
		"preferred_username": "marie@example.com",
		"exp":                exp.Unix(),
	})

	id, ok := Inspect(tok)
	require.True(t, ok)
	assert.Equal(t, "user-42", id.Subject)
	assert.Equal(t, "marie@example.com", id.Name)
	assert.True(t, id.Expires.Equal(exp))

	_, ok = Inspect("opaque")
	assert.False(t, ok)
}

// =============================================================================
// CHAIN
// =============================================================================

type errSource struct{ err error }

func (e errSource) Token(context.Context) (string, error) { return "", e.err }

func TestChain(t *testing.T) {
	ctx := context.Background()
	expired := signed(t, jwt.MapClaims{"exp": time.Now().Add(-time.Hour).Unix()})
	fresh := signed(t, jwt.MapClaims{"exp": time.Now().Add(time.Hour).Unix()})
	boom := errors.New("disk on fire")

	tests := []struct {
		name    string
		chain   Chain
		want    string
		wantErr error
	}{
		{"empty chain", Chain{}, "", ErrNoToken},
		{"first wins", Chain{StaticToken("a"), StaticToken("b")}, "a", nil},
		{"skips missing", Chain{StaticToken(""), nil, StaticToken("b")}, "b", nil},
		{"skips expired", Chain{StaticToken(expired), StaticToken(fresh)}, fresh, nil},
		{"only expired", Chain{StaticToken(expired), StaticToken("")}, "", ErrTokenExpired},
		{"hard error stops", Chain{errSource{boom}, StaticToken("b")}, "", boom},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := tc.chain.Token(ctx)
			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

// =============================================================================
// FILE TOKEN
// =============================================================================

func TestFileToken_ReadAndCache(t *testing.T) {
	path := filepath.Join(t.TempDir(), "token")
	src := NewFileToken(path, nil)

	_, err := src.Token(context.Background())
	assert.ErrorIs(t, err, ErrNoToken, "missing file")

	require.NoError(t, os.WriteFile(path, []byte("first\n"), 0600))
	// The missing-file result was not cached.
	tok, err := src.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "first", tok)

	require.NoError(t, os.WriteFile(path, []byte("second"), 0600))
	tok, _ = src.Token(context.Background())
	assert.Equal(t, "first", tok, "cached until invalidated")

	src.Invalidate()
	tok, _ = src.Token(context.Background())
	assert.Equal(t, "second", tok)
}

func TestFileToken_EmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "token")
	require.NoError(t, os.WriteFile(path, []byte("  \n"), 0600))

	_, err := NewFileToken(path, nil).Token(context.Background())
	assert.ErrorIs(t, err, ErrNoToken)
}

func TestFileToken_WatchReloads(t *testing.T) {
	path := filepath.Join(t.TempDir(), "aina", "token")
	src := NewFileToken(path, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, src.Watch(ctx))
	defer src.Close()

	require.NoError(t, os.WriteFile(path, []byte("v1"), 0600))
	require.Eventually(t, func() bool {
		tok, err := src.Token(ctx)
		return err == nil && tok == "v1"
	}, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, os.WriteFile(path, []byte("v2"), 0600))
	require.Eventually(t, func() bool {
		tok, err := src.Token(ctx)
		return err == nil && tok == "v2"
	}, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, os.Remove(path))
	require.Eventually(t, func() bool {
		_, err := src.Token(ctx)
		return errors.Is(err, ErrNoToken)
	}, 2*time.Second, 10*time.Millisecond)
}

func TestFileToken_CloseIsIdempotent(t *testing.T) {
	src := NewFileToken(filepath.Join(t.TempDir(), "token"), nil)
	require.NoError(t, src.Close(), "close before watch")

	require.NoError(t, src.Watch(context.Background()))
	require.NoError(t, src.Close())
	require.NoError(t, src.Close())
}
