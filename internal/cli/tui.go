// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// tui.go - Launches the full-screen chat interface.

package cli

import (
	"context"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jeranaias/aina-tui/internal/ui/chat"
	"github.com/jeranaias/aina-tui/internal/ui/styles"
)

func (a *app) runTUI(cmd *cobra.Command, openID string) error {
	if !IsTTY() || !IsStdoutTTY() {
		return usageErrorf("the chat interface needs a terminal; use `aina ask` or `aina chat` instead")
	}

	client, tokenFile, err := a.newClient()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	// A new sign-in rewrites the token file; pick it up without a restart.
	if err := tokenFile.Watch(ctx); err != nil {
		a.logger.Warn("token file not watched", zap.String("path", tokenFile.Path()), zap.Error(err))
	}
	defer tokenFile.Close()

	styles.ApplyMode(a.cfg.UI.Theme)
	ui := a.cfg.UI
	m := chat.New(chat.Options{
		Controller:    a.newController(client),
		Previewer:     client,
		Theme:         styles.NewTheme(),
		Logger:        a.logger,
		InitialID:     openID,
		SidebarOpen:   ui.SidebarOpen,
		TitleMaxRunes: ui.TitleMaxRunes,
		TypingSpeed:   time.Duration(ui.TypingSpeedMs) * time.Millisecond,
		ExportDir:     a.cfg.Export.Dir,
		ExportFormat:  a.cfg.Export.Format,
	})

	a.logger.Info("chat ui starting",
		zap.String("server", client.BaseURL()),
		zap.String("agent", a.cfg.Chat.DefaultAgent))

	p := tea.NewProgram(m,
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
		tea.WithContext(ctx),
	)
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("chat ui: %w", err)
	}
	return nil
}
