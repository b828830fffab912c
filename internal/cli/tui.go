// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/rigrun-shell/internal/logging"
	"github.com/jeranaias/rigrun-shell/internal/ui/shell"
	"github.com/jeranaias/rigrun-shell/internal/ui/styles"
)

// runTUI runs the full-screen shell. The shell starts its own discovery
// pass; the watcher feeds later ones through the program.
func runTUI(ctx context.Context, app *App) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	shellLog := logging.Component(app.Logger, "shell")
	model := shell.New(ctx, shell.Config{
		Registry:  app.Registry,
		Source:    app.Loader,
		Approval:  app.Approval,
		Theme:     styles.NewTheme(app.Config.UI.Theme),
		Logger:    shellLog,
		Version:   Version,
		ShowHints: app.Config.UI.ShowHelpHints,
		OnPrompt: func(prompt string) tea.Cmd {
			shellLog.Info("prompt submitted", "chars", len(prompt))
			return nil
		},
	})

	program := tea.NewProgram(model,
		tea.WithAltScreen(),
		tea.WithContext(ctx),
		tea.WithReportFocus(),
	)

	stopWatch := app.watch(ctx, func(_ context.Context, paths []string) {
		program.Send(shell.CommandsChangedMsg{Paths: paths})
	})
	defer stopWatch()

	app.Logger.Info("shell started", "version", Version, "mode", app.Approval.Current())
	if _, err := program.Run(); err != nil {
		if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("shell exited: %w", err)
	}
	return nil
}
