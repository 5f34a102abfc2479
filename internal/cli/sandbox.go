// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// sandbox.go - Runs the in-memory development backend.

package cli

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jeranaias/aina-tui/internal/server"
)

// shutdownTimeout bounds how long in-flight requests may finish on Ctrl+C.
const shutdownTimeout = 5 * time.Second

func newSandboxCommand(a *app) *cobra.Command {
	var addr, token string
	var rps float64
	cmd := &cobra.Command{
		Use:   "sandbox",
		Short: "Run a local backend with canned answers",
		Long: `Run an in-memory implementation of the Aïna API for development and demos.
Agents answer with canned echoes; finance adds a small table and doc adds
sources. Nothing is persisted.

Point the client at it with --server or AINA_SERVER.`,
		Example: `  aina sandbox --token dev &
  AINA_TOKEN=dev aina --server http://127.0.0.1:8787`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr == "" {
				addr = a.cfg.Sandbox.Addr
			}
			if !cmd.Flags().Changed("token") {
				token = a.cfg.Sandbox.Token
			}

			srv := server.NewServer(addr).
				WithAuth(server.AuthConfig{Token: token}).
				WithLogger(a.logger)
			if rps > 0 {
				srv = srv.WithRateLimiter(server.NewRateLimiter(rps, int(rps*2)))
			} else {
				srv = srv.WithRateLimiter(nil)
			}

			ln, err := net.Listen("tcp", addr)
			if err != nil {
				return fmt.Errorf("listen %s: %w", addr, err)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, RenderStatus(true, "Sandbox listening on "+HighlightStyle.Render("http://"+ln.Addr().String())))
			if token == "" {
				fmt.Fprintln(out, WarningStyle.Render("No token configured: any bearer token is accepted."))
			}
			fmt.Fprintln(out, DimStyle.Render("Ctrl+C to stop."))

			errCh := make(chan error, 1)
			go func() { errCh <- srv.Serve(ln) }()

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
				return err
			}
			a.logger.Info("sandbox stopped", zap.Int("conversations", srv.Store().Len()))
			return <-errCh
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from sandbox.addr)")
	cmd.Flags().StringVar(&token, "token", "", "accepted bearer token (default from sandbox.token; empty accepts any)")
	cmd.Flags().Float64Var(&rps, "rate", 20, "requests per second per client; 0 disables limiting")
	return cmd
}
