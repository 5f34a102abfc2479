// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// auth_cmd.go - Access token commands for aina CLI.
//
// Sign-in itself happens in the browser flow of the web app; these commands
// only inspect and store the bearer token it yields.

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jeranaias/aina-tui/internal/auth"
	"github.com/jeranaias/aina-tui/internal/util"
)

func newAuthCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Inspect and store the access token",
		Long: `Inspect and store the bearer token sent to the backend.

The token is taken from, in order: auth.token in the config file, the
AINA_TOKEN environment variable, then the token file (auth.token_file).
The chat interface reloads the token file when it changes.`,
	}
	cmd.AddCommand(newAuthStatusCommand(a), newAuthLoginCommand(a), newAuthLogoutCommand(a))
	return cmd
}

// resolveToken returns the first token available and where it came from.
func (a *app) resolveToken(ctx context.Context) (token, source string, err error) {
	path, err := a.cfg.TokenPath()
	if err != nil {
		return "", "", err
	}
	candidates := []struct {
		name string
		src  auth.TokenSource
	}{
		{"config", auth.StaticToken(a.cfg.Auth.Token)},
		{"env " + auth.DefaultEnvVar, auth.EnvToken("")},
		{"file " + path, auth.NewFileToken(path, a.logger)},
	}
	for _, c := range candidates {
		tok, err := c.src.Token(ctx)
		switch {
		case err == nil:
			return tok, c.name, nil
		case errors.Is(err, auth.ErrNoToken):
			continue
		default:
			return "", c.name, err
		}
	}
	return "", "", auth.ErrNoToken
}

func newAuthStatusCommand(a *app) *cobra.Command {
	var jsonOut bool
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show which token is used and when it expires",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			token, source, err := a.resolveToken(cmd.Context())
			if err != nil && !errors.Is(err, auth.ErrNoToken) {
				return err
			}

			data := AuthStatusData{Source: source, SignedIn: token != ""}
			if id, ok := auth.Inspect(token); ok {
				data.Subject, data.Name = id.Subject, id.Name
				if !id.Expires.IsZero() {
					exp := id.Expires
					data.ExpiresAt = &exp
				}
			}
			data.Expired = data.SignedIn && errors.Is(auth.CheckExpiry(token, time.Now()), auth.ErrTokenExpired)

			if jsonOut {
				return writeJSON(out, "auth status", data, nil)
			}
			if !data.SignedIn {
				fmt.Fprintln(out, RenderStatus(false, "Not signed in"))
				fmt.Fprintln(out, DimStyle.Render("Set "+auth.DefaultEnvVar+" or run `aina auth login`."))
				return nil
			}

			fmt.Fprintln(out, RenderStatus(!data.Expired, "Token from "+source))
			if data.Name != "" {
				printLabel(out, "Name", data.Name)
			}
			if data.Subject != "" {
				printLabel(out, "Subject", data.Subject)
			}
			switch {
			case data.ExpiresAt == nil:
				printLabel(out, "Expires", "unknown (opaque token)")
			case data.Expired:
				printLabel(out, "Expired", data.ExpiresAt.Local().Format(time.RFC1123))
			default:
				left := time.Until(*data.ExpiresAt).Round(time.Minute)
				printLabel(out, "Expires", fmt.Sprintf("%s (in %s)", data.ExpiresAt.Local().Format(time.RFC1123), left))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOut, "json", false, "print the status as JSON")
	return cmd
}

func newAuthLoginCommand(a *app) *cobra.Command {
	var token string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Store an access token in the token file",
		Long: `Store an access token in the token file, readable by the owner only.
Without --token the token is read from standard input.`,
		Example: `  pbpaste | aina auth login
  aina auth login --token "$ACCESS_TOKEN"`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if token == "" {
				if isTerminal(cmd.InOrStdin()) {
					fmt.Fprint(cmd.OutOrStdout(), "Paste the access token and press Enter: ")
				}
				data, err := io.ReadAll(io.LimitReader(cmd.InOrStdin(), 64<<10))
				if err != nil {
					return fmt.Errorf("read token: %w", err)
				}
				token = string(data)
			}
			token = strings.TrimSpace(token)
			if token == "" {
				return usageErrorf("empty token")
			}
			if err := auth.CheckExpiry(token, time.Now()); err != nil {
				return err
			}

			path, err := a.cfg.TokenPath()
			if err != nil {
				return err
			}
			if err := util.AtomicWriteFileWithDir(path, []byte(token+"\n"), 0600, 0700); err != nil {
				return fmt.Errorf("write token file: %w", err)
			}
			a.logger.Info("token stored", zap.String("path", path))
			fmt.Fprintln(cmd.OutOrStdout(), RenderStatus(true, "Token saved to "+path))
			return nil
		},
	}
	cmd.Flags().StringVar(&token, "token", "", "the access token")
	return cmd
}

func newAuthLogoutCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Remove the token file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := a.cfg.TokenPath()
			if err != nil {
				return err
			}
			if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
				return fmt.Errorf("remove token file: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), RenderStatus(true, "Signed out"))
			return nil
		},
	}
}
