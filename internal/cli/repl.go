// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"

	"github.com/jeranaias/rigrun-shell/internal/commands"
	"github.com/jeranaias/rigrun-shell/internal/config"
)

// =============================================================================
// PLAIN REPL
// =============================================================================

// replSession is the line-oriented front-end used without a terminal or
// with --plain. It shares the registry, dispatcher and approval controller
// with the full-screen shell; only rendering differs.
type replSession struct {
	app       *App
	out       io.Writer
	completer *commands.Completer
}

func newREPLSession(app *App, out io.Writer) *replSession {
	return &replSession{
		app:       app,
		out:       out,
		completer: commands.NewCompleter(app.Registry),
	}
}

// prompt shows the authoritative mode; there are no key shortcuts here.
func (s *replSession) prompt() string {
	return fmt.Sprintf("[%s] rigrun> ", s.app.Approval.Current().Label())
}

// complete returns full candidate lines for liner.
func (s *replSession) complete(line string) []string {
	comps := s.completer.Complete(line, len(line))
	lines := make([]string, 0, len(comps))
	for _, c := range comps {
		if strings.HasPrefix(c.Value, "/") {
			lines = append(lines, c.Value+" ")
			continue
		}
		i := strings.LastIndexAny(line, " \t")
		lines = append(lines, line[:i+1]+c.Value+" ")
	}
	return lines
}

// handleLine processes one input line. It reports false when the session
// should end.
func (s *replSession) handleLine(ctx context.Context, input string) bool {
	input = strings.TrimSpace(input)
	if input == "" {
		return true
	}

	if !commands.IsCommand(input) {
		fmt.Fprintln(s.out, DimStyle.Render("prompt: ")+input)
		return true
	}

	out := s.app.Dispatch(ctx, input)
	if out.Status == commands.StatusOK {
		switch out.Result.Type {
		case commands.ResultQuit:
			return false
		case commands.ResultHistoryItem:
			if out.Result.Item != nil && out.Result.Item.Kind == commands.ItemClear {
				fmt.Fprint(s.out, "\033[H\033[2J")
			}
		}
	}
	if err := printOutcome(ctx, s.out, s.app, out); err != nil {
		fmt.Fprintln(s.out, ErrorStyle.Render("[Error]")+" "+err.Error())
	}
	return true
}

// runREPL runs the plain REPL until EOF, Ctrl+C or /quit.
func runREPL(ctx context.Context, app *App) error {
	app.Discover(ctx)

	line := liner.NewLiner()
	defer line.Close()
	line.SetCtrlCAborts(true)

	session := newREPLSession(app, os.Stdout)
	line.SetCompleter(session.complete)

	historyFile := replHistoryPath()
	if f, err := os.Open(historyFile); err == nil {
		_, _ = line.ReadHistory(f)
		f.Close()
	}
	defer saveREPLHistory(line, historyFile, app)

	stopWatch := app.watch(ctx, func(ctx context.Context, _ []string) { app.Discover(ctx) })
	defer stopWatch()

	for {
		if ctx.Err() != nil {
			return nil
		}
		input, err := line.Prompt(session.prompt())
		if err != nil {
			// Ctrl+C, Ctrl+D and closed stdin all end the session.
			if errors.Is(err, liner.ErrPromptAborted) || errors.Is(err, io.EOF) {
				fmt.Println()
				return nil
			}
			return err
		}
		if strings.TrimSpace(input) != "" {
			line.AppendHistory(input)
		}
		if !session.handleLine(ctx, input) {
			return nil
		}
	}
}

func replHistoryPath() string {
	dir, err := config.ConfigDir()
	if err != nil {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "shell_history")
}

func saveREPLHistory(line *liner.State, path string, app *App) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		app.Logger.Debug("could not save history", "err", err)
		return
	}
	defer f.Close()
	_, _ = line.WriteHistory(f)
}
