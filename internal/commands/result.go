// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package commands

import (
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// ACTION RESULT
// =============================================================================

// ResultType tags the variant held by an ActionResult.
type ResultType int

const (
	ResultNone           ResultType = iota // Nothing for the shell to do
	ResultDialog                           // Open Dialog
	ResultHistoryItem                      // Append Item to the history
	ResultSubmitPrompt                     // Send Prompt to the model
	ResultQuit                             // End the session
	ResultReloadCommands                   // Start a new discovery pass
)

var resultTypeNames = map[ResultType]string{
	ResultNone:           "none",
	ResultDialog:         "dialog",
	ResultHistoryItem:    "history-item",
	ResultSubmitPrompt:   "submit-prompt",
	ResultQuit:           "quit",
	ResultReloadCommands: "reload-commands",
}

func (t ResultType) String() string {
	if name, ok := resultTypeNames[t]; ok {
		return name
	}
	return "unknown"
}

// DialogKind names a dialog the shell can open.
type DialogKind string

const (
	DialogHelp     DialogKind = "help"
	DialogEditor   DialogKind = "editor"
	DialogPrivacy  DialogKind = "privacy"
	DialogTheme    DialogKind = "theme"
	DialogAuth     DialogKind = "auth"
	DialogSettings DialogKind = "settings"
)

// ItemKind classifies a history item for rendering.
type ItemKind string

const (
	ItemInfo  ItemKind = "info"
	ItemError ItemKind = "error"
	ItemAbout ItemKind = "about"
	ItemUser  ItemKind = "user"
	ItemClear ItemKind = "clear" // Clears the history before it
)

// HistoryItem is one entry the shell appends to the conversation view.
type HistoryItem struct {
	ID   string
	Kind ItemKind
	Text string
	Time time.Time
}

// NewHistoryItem creates a history item stamped with a fresh ID.
func NewHistoryItem(kind ItemKind, text string) *HistoryItem {
	return &HistoryItem{
		ID:   uuid.NewString(),
		Kind: kind,
		Text: text,
		Time: time.Now(),
	}
}

// ActionResult is the closed set of things an action can ask the shell to
// do. Only the fields belonging to Type are meaningful. The zero value is
// ResultNone.
type ActionResult struct {
	Type   ResultType
	Dialog DialogKind
	Item   *HistoryItem
	Prompt string
}

// None is the empty result.
func None() ActionResult { return ActionResult{} }

// OpenDialog asks the shell to open a dialog.
func OpenDialog(kind DialogKind) ActionResult {
	return ActionResult{Type: ResultDialog, Dialog: kind}
}

// AddHistory asks the shell to append a history item.
func AddHistory(kind ItemKind, text string) ActionResult {
	return ActionResult{Type: ResultHistoryItem, Item: NewHistoryItem(kind, text)}
}

// SubmitPrompt asks the shell to send prompt to the model.
func SubmitPrompt(prompt string) ActionResult {
	return ActionResult{Type: ResultSubmitPrompt, Prompt: prompt}
}

// Quit asks the shell to exit.
func Quit() ActionResult { return ActionResult{Type: ResultQuit} }

// ReloadCommands asks the shell to re-run custom command discovery.
func ReloadCommands() ActionResult { return ActionResult{Type: ResultReloadCommands} }
