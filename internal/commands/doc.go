// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package commands provides the slash command system for the shell.
//
// It resolves finalized input lines against a registry of built-in and
// custom commands, runs the matching action, and hands back what the action
// wants the shell to do. It never draws anything itself.
//
// # Key Types
//
//   - Registry: merged command set, published as immutable snapshots
//   - Snapshot: lock-free view used for lookup, listing and completion
//   - Dispatcher: resolves a line and runs the action
//   - ActionResult: closed set of requests an action can make
//   - Completer: tab completion for command names and fixed arguments
//
// # Built-in Commands
//
//   - /help (/?): Open the help dialog
//   - /about: Show version and session info
//   - /clear: Clear conversation
//   - /editor, /privacy, /theme, /auth, /settings: Open dialogs
//   - /approval-mode (/mode): Show or set the approval mode
//   - /commands: List or reload custom commands
//   - /quit (/exit): Exit the shell
//
// # Merge Rules
//
// Built-ins always win. A custom command that shares any token with a
// built-in is rejected. Between custom commands, the one loaded later wins
// and the earlier one is dropped whole.
//
// # Usage
//
//	reg := commands.NewRegistry()
//	reg.Refresh(ctx, loader)
//	out := commands.NewDispatcher(reg, logger).Dispatch(ctx, "/help", cc)
//	if out.Status == commands.StatusOK {
//	    // act on out.Result
//	}
package commands
