// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package commands

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jeranaias/rigrun-shell/internal/approval"
)

// =============================================================================
// BUILT-IN COMMANDS
// =============================================================================

// Builtins returns a fresh set of the built-in commands.
func Builtins() []*Command {
	return []*Command{
		{
			Name:        "help",
			AltName:     "?",
			Description: "Show help and available commands",
			Action:      dialogAction(DialogHelp),
		},
		{
			Name:        "about",
			Description: "Show version and session info",
			Action:      handleAbout,
		},
		{
			Name:        "clear",
			Description: "Clear the conversation history",
			Action:      handleClear,
		},
		{
			Name:        "editor",
			Description: "Set the external editor",
			Action:      dialogAction(DialogEditor),
		},
		{
			Name:        "privacy",
			Description: "Show the privacy notice",
			Action:      dialogAction(DialogPrivacy),
		},
		{
			Name:        "theme",
			Description: "Change the color theme",
			Action:      dialogAction(DialogTheme),
		},
		{
			Name:        "auth",
			Description: "Change the authentication method",
			Action:      dialogAction(DialogAuth),
		},
		{
			Name:        "settings",
			Description: "Open the settings editor",
			Action:      dialogAction(DialogSettings),
		},
		{
			Name:        "approval-mode",
			AltName:     "mode",
			Description: "Show or set the approval mode (default|autoEdit|plan|yolo)",
			ArgValues:   modeNames(),
			Action:      handleApprovalMode,
		},
		{
			Name:        "commands",
			Description: "List custom commands or reload them from disk (list|reload)",
			ArgValues:   []string{"list", "reload"},
			Action:      handleCommands,
		},
		{
			Name:        "quit",
			AltName:     "exit",
			Description: "Exit the shell",
			Action: func(context.Context, *Context, string) (ActionResult, error) {
				return Quit(), nil
			},
		},
	}
}

// =============================================================================
// HANDLER IMPLEMENTATIONS
// =============================================================================

func dialogAction(kind DialogKind) ActionFunc {
	return func(context.Context, *Context, string) (ActionResult, error) {
		return OpenDialog(kind), nil
	}
}

func handleAbout(_ context.Context, cc *Context, _ string) (ActionResult, error) {
	var b strings.Builder
	version := cc.Version
	if version == "" {
		version = "dev"
	}
	fmt.Fprintf(&b, "rigrun-shell %s", version)
	if cc.Approval != nil {
		fmt.Fprintf(&b, "\napproval mode: %s", cc.Approval.Current().Label())
	}
	if cc.Registry != nil {
		snap := cc.Registry.Snapshot()
		builtin, custom := countKinds(snap.Commands())
		fmt.Fprintf(&b, "\ncommands: %d built-in, %d custom", builtin, custom)
	}
	return AddHistory(ItemAbout, b.String()), nil
}

func handleClear(context.Context, *Context, string) (ActionResult, error) {
	return AddHistory(ItemClear, "Conversation cleared."), nil
}

// ErrNoApprovalController is returned when /approval-mode runs without one.
var ErrNoApprovalController = errors.New("approval mode is not available in this session")

func handleApprovalMode(_ context.Context, cc *Context, args string) (ActionResult, error) {
	if cc.Approval == nil {
		return None(), ErrNoApprovalController
	}

	parts := ParseArgs(args)
	if len(parts) == 0 {
		current := cc.Approval.Current()
		return AddHistory(ItemInfo, fmt.Sprintf("Approval mode: %s\nValid modes: default, autoEdit, plan, yolo", current.Label())), nil
	}

	mode, err := approval.ParseMode(parts[0])
	if err != nil {
		return None(), err
	}
	got, err := cc.Approval.Set(mode)
	if err != nil {
		return None(), err
	}
	return AddHistory(ItemInfo, fmt.Sprintf("Approval mode set to %s", got.Label())), nil
}

func handleCommands(_ context.Context, cc *Context, args string) (ActionResult, error) {
	parts := ParseArgs(args)
	sub := "list"
	if len(parts) > 0 {
		sub = strings.ToLower(parts[0])
	}

	switch sub {
	case "reload", "refresh":
		return ReloadCommands(), nil
	case "list", "ls":
		if cc.Registry == nil {
			return AddHistory(ItemInfo, "No commands registered."), nil
		}
		return AddHistory(ItemInfo, FormatCommandList(cc.Registry.All(), KindCustom)), nil
	}
	return None(), fmt.Errorf("unknown subcommand %q (use list or reload)", sub)
}

// =============================================================================
// FORMATTING HELPERS
// =============================================================================

// FormatCommandList renders commands of the given kind one per line as
// "/name (alt) - description [source]".
func FormatCommandList(cmds []*Command, kind Kind) string {
	var b strings.Builder
	n := 0
	for _, cmd := range cmds {
		if cmd.Kind != kind {
			continue
		}
		if n > 0 {
			b.WriteByte('\n')
		}
		n++
		b.WriteString("/" + cmd.Name)
		if cmd.AltName != "" {
			b.WriteString(" (/" + cmd.AltName + ")")
		}
		if cmd.Description != "" {
			b.WriteString(" - " + cmd.Description)
		}
		if cmd.Source != "" {
			b.WriteString(" [" + cmd.Source + "]")
		}
	}
	if n == 0 {
		return fmt.Sprintf("No %s commands.", kind)
	}
	return b.String()
}

func modeNames() []string {
	modes := approval.AllModes()
	names := make([]string, len(modes))
	for i, m := range modes {
		names[i] = m.String()
	}
	return names
}

func countKinds(cmds []*Command) (builtin, custom int) {
	for _, cmd := range cmds {
		if cmd.Kind == KindCustom {
			custom++
		} else {
			builtin++
		}
	}
	return builtin, custom
}
