// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// cli.go - Root command and global flags for aina CLI.

package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jeranaias/aina-tui/internal/api"
	"github.com/jeranaias/aina-tui/internal/auth"
	"github.com/jeranaias/aina-tui/internal/config"
	"github.com/jeranaias/aina-tui/internal/logging"
	"github.com/jeranaias/aina-tui/internal/model"
	"github.com/jeranaias/aina-tui/internal/session"
)

// Version information (set at build time)
var (
	Version   = "0.4.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// skipConfig is the annotation for commands that must run even when the
// config file is missing or broken.
const skipConfig = "aina/skip-config"

// app holds the global flags and what PersistentPreRunE builds from them.
type app struct {
	configPath string
	server     string
	agent      string
	verbose    bool

	cfg    *config.Config
	logger *zap.Logger
}

// NewRootCommand builds the aina command tree.
func NewRootCommand() *cobra.Command {
	a := &app{}
	var openID string

	root := &cobra.Command{
		Use:   "aina",
		Short: "Aïna - chat with the document, finance, vision and search agents",
		Long: `Aïna is a terminal front-end for the Aïna assistants.

Run without a command to open the chat interface. Conversations are stored
by the backend; the sidebar lists them grouped by recency.

Agents:
  doc      questions about internal documents
  finance  invoices and amounts, answered with a table
  vision   questions about an attached image
  search   web and document search`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runTUI(cmd, openID)
		},
	}

	root.PersistentFlags().StringVar(&a.configPath, "config", "", "config file (default ~/.aina/config.toml)")
	root.PersistentFlags().StringVar(&a.server, "server", "", "backend base URL")
	root.PersistentFlags().StringVar(&a.agent, "agent", "", "agent: doc, finance, vision or search")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "debug logging (also to stderr outside the chat UI)")
	root.Flags().StringVar(&openID, "open", "", "open this conversation id on start")

	root.AddCommand(
		newAskCommand(a),
		newChatCommand(a),
		newConversationsCommand(a),
		newPreviewCommand(a),
		newConfigCommand(a),
		newAuthCommand(a),
		newSandboxCommand(a),
		newVersionCommand(),
	)
	return root
}

// Execute runs the CLI and returns the process exit code.
func Execute() int {
	root := NewRootCommand()
	if err := root.Execute(); err != nil {
		printError(os.Stderr, err)
		return exitCode(err)
	}
	return ExitSuccess
}

// setup loads the config, applies flag overrides and builds the logger.
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	if _, ok := cmd.Annotations[skipConfig]; ok {
		a.cfg = config.Default()
		a.logger = zap.NewNop()
		return nil
	}

	cfg, err := a.loadConfig()
	if err != nil {
		return err
	}
	if a.server != "" {
		cfg.Server.URL = a.server
	}
	if a.agent != "" {
		agent, err := model.ParseAgent(a.agent)
		if err != nil {
			return &UsageError{Message: err.Error()}
		}
		cfg.Chat.DefaultAgent = string(agent)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	logPath, err := cfg.LogPath()
	if err != nil {
		return err
	}
	logger, err := logging.New(logging.Options{
		Level:   cfg.Logging.Level,
		Verbose: a.verbose,
		File:    logPath,
		// The chat UI owns the terminal; only subcommands echo to stderr.
		Stderr: a.verbose && cmd != cmd.Root(),
	})
	if err != nil {
		return err
	}

	a.cfg = cfg
	a.logger = logger
	a.logger.Debug("config loaded",
		zap.String("command", cmd.CommandPath()),
		zap.String("server", cfg.Server.URL),
		zap.String("agent", cfg.Chat.DefaultAgent))
	return nil
}

func (a *app) loadConfig() (*config.Config, error) {
	if a.configPath != "" {
		return config.LoadFromPath(a.configPath)
	}
	return config.Load()
}

// tokenSources returns the inline token, AINA_TOKEN and the token file, in
// that order, plus the file source so callers can watch it.
func (a *app) tokenSources() (auth.Chain, *auth.FileToken, error) {
	path, err := a.cfg.TokenPath()
	if err != nil {
		return nil, nil, err
	}
	file := auth.NewFileToken(path, a.logger)

	var chain auth.Chain
	if a.cfg.Auth.Token != "" {
		chain = append(chain, auth.StaticToken(a.cfg.Auth.Token))
	}
	chain = append(chain, auth.EnvToken(""), file)
	return chain, file, nil
}

// newClient builds the API client from the server section.
func (a *app) newClient() (*api.Client, *auth.FileToken, error) {
	tokens, file, err := a.tokenSources()
	if err != nil {
		return nil, nil, err
	}

	s := a.cfg.Server
	client := api.NewClient(s.URL, tokens).
		WithTimeout(time.Duration(s.TimeoutSecs) * time.Second).
		WithMaxResponseSize(int64(s.MaxResponseMB) << 20).
		WithLogger(a.logger)
	if s.RequestsPerSecond > 0 {
		client = client.WithRateLimit(s.RequestsPerSecond, s.Burst)
	}
	return client, file, nil
}

// newController wires a session controller to client.
func (a *app) newController(client *api.Client) *session.Controller {
	return session.NewController(client, client, session.Config{
		Agent:            a.cfg.Agent(),
		RefreshAfterSend: a.cfg.Chat.RefreshAfterSend,
		Logger:           a.logger,
	})
}
