// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package commands

import (
	"context"

	"github.com/charmbracelet/log"

	"github.com/jeranaias/rigrun-shell/internal/approval"
)

// =============================================================================
// COMMAND DEFINITION
// =============================================================================

// Kind tells built-in commands apart from ones discovered on disk.
type Kind int

const (
	KindBuiltIn Kind = iota // Shipped with the binary
	KindCustom              // Loaded from a commands directory
)

func (k Kind) String() string {
	if k == KindCustom {
		return "custom"
	}
	return "built-in"
}

// ActionFunc executes a command. args is the raw remainder of the input
// after the command name, already trimmed. Actions may block; the dispatcher
// waits for them.
type ActionFunc func(ctx context.Context, cc *Context, args string) (ActionResult, error)

// Command describes one invocable slash command.
type Command struct {
	// Name is the primary token, without the leading slash (e.g. "help").
	// Case-sensitive and unique within a snapshot.
	Name string

	// AltName is an optional secondary token (e.g. "?"), also unique.
	AltName string

	// Description is shown in help and completion.
	Description string

	// Kind is KindBuiltIn or KindCustom.
	Kind Kind

	// Source is the file a custom command was parsed from.
	Source string

	// ArgValues lists the fixed values the first argument accepts. Used only
	// for completion.
	ArgValues []string

	// Action runs the command.
	Action ActionFunc
}

// Tokens returns every token the command resolves under.
func (c *Command) Tokens() []string {
	if c.AltName == "" || c.AltName == c.Name {
		return []string{c.Name}
	}
	return []string{c.Name, c.AltName}
}

// =============================================================================
// CONTEXT TYPE
// =============================================================================

// Context gives actions access to the services they may use. It follows the
// dependency injection pattern; all fields are optional and handlers must
// check for nil before use.
type Context struct {
	// Approval is the approval-mode controller.
	Approval *approval.Controller

	// Registry is the registry the command was resolved from.
	Registry *Registry

	// Logger is a component logger; nil means discard.
	Logger *log.Logger

	// Version is the application version shown by /about.
	Version string
}
