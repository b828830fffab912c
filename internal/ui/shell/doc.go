// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package shell provides the interactive Bubble Tea shell.
//
// The shell owns no command logic. Input starting with "/" goes to
// commands.Dispatcher inside a tea.Cmd and the returned Outcome comes back
// as a message; the shell then applies the ActionResult (dialog, history
// item, prompt submission, quit, reload). Approval-mode shortcuts reach
// approval.Controller before the text input sees them, and the footer shows
// the controller's mirror so rendering never waits on a lock.
//
// Discovery passes also run as commands. A file watcher can request one by
// sending CommandsChangedMsg through tea.Program.Send.
package shell
