// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/log"

	"github.com/jeranaias/rigrun-shell/internal/logging"
)

// =============================================================================
// OUTCOME
// =============================================================================

// Status classifies a dispatch.
type Status int

const (
	StatusOK       Status = iota // Action ran; Result holds its request
	StatusNotFound               // No command matched the leading token
	StatusFailed                 // The action returned an error or panicked
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusNotFound:
		return "not-found"
	case StatusFailed:
		return "failed"
	}
	return "unknown"
}

// ErrUnknownCommand is carried by a StatusNotFound outcome.
var ErrUnknownCommand = errors.New("unknown command")

// ActionError wraps an error raised by a command's action.
type ActionError struct {
	Command string
	Err     error
}

func (e *ActionError) Error() string {
	return fmt.Sprintf("command /%s failed: %v", e.Command, e.Err)
}

func (e *ActionError) Unwrap() error {
	return e.Err
}

// Outcome is what Dispatch hands back. Callers switch on Status; nothing is
// thrown.
type Outcome struct {
	Status  Status
	Name    string
	Args    string
	Command *Command
	Result  ActionResult
	Err     error
}

// =============================================================================
// DISPATCHER
// =============================================================================

// Dispatcher resolves finalized input against a registry and runs the
// matching action. It never touches the UI; everything the action wants is
// returned in the Outcome.
type Dispatcher struct {
	registry *Registry
	logger   *log.Logger
}

// NewDispatcher creates a dispatcher over registry. logger may be nil.
func NewDispatcher(registry *Registry, logger *log.Logger) *Dispatcher {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Dispatcher{registry: registry, logger: logger}
}

// Dispatch resolves the leading token of input by exact name, then alt name,
// and runs the action with the remaining argument string, waiting for it to
// finish.
func (d *Dispatcher) Dispatch(ctx context.Context, input string, cc *Context) Outcome {
	name, args := SplitInput(input)
	out := Outcome{Name: name, Args: args}

	cmd, ok := d.registry.Lookup(name)
	if !ok || name == "" {
		out.Status = StatusNotFound
		out.Err = fmt.Errorf("%w: /%s", ErrUnknownCommand, name)
		d.logger.Debug("command not found", "name", name)
		return out
	}
	out.Command = cmd

	if cc == nil {
		cc = &Context{}
	}
	if cc.Registry == nil {
		cc.Registry = d.registry
	}

	result, err := runAction(ctx, cmd, cc, args)
	if err != nil {
		out.Status = StatusFailed
		out.Err = &ActionError{Command: cmd.Name, Err: err}
		d.logger.Warn("command failed", "name", cmd.Name, "err", err)
		return out
	}

	out.Status = StatusOK
	out.Result = result
	d.logger.Debug("command dispatched", "name", cmd.Name, "result", result.Type)
	return out
}

// runAction invokes the action, converting a panic into an error so a broken
// command cannot take the process down.
func runAction(ctx context.Context, cmd *Command, cc *Context, args string) (result ActionResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			result = None()
			err = fmt.Errorf("panic: %v", r)
		}
	}()

	if cmd.Action == nil {
		return None(), nil
	}
	if err := ctx.Err(); err != nil {
		return None(), err
	}
	return cmd.Action(ctx, cc, args)
}
