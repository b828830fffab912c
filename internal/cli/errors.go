// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// errors.go - Error to exit code mapping for the rigrun CLI.
//
// STANDARDIZED PATTERN:
//   - RunE handlers always return errors, never call os.Exit
//   - Execute maps the returned error to an exit code once

package cli

import (
	"errors"
	"fmt"

	"github.com/jeranaias/rigrun-shell/internal/commands"
	"github.com/jeranaias/rigrun-shell/internal/config"
)

// =============================================================================
// EXIT CODES
// =============================================================================

const (
	// ExitSuccess indicates successful execution
	ExitSuccess = 0
	// ExitGeneralError indicates a general/unknown error, including a failed command action
	ExitGeneralError = 1
	// ExitUsageError indicates invalid command usage or arguments
	ExitUsageError = 2
	// ExitConfigError indicates configuration or custom command file errors
	ExitConfigError = 3
	// ExitNotFoundError indicates an unknown slash command
	ExitNotFoundError = 7
)

// ExitError signals a non-zero exit code without forcing os.Exit in RunE
// handlers.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return fmt.Sprintf("exit status %d", e.Code)
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// exitWith wraps err with an exit code. A nil err stays nil.
func exitWith(code int, err error) error {
	if err == nil {
		return nil
	}
	return &ExitError{Code: code, Err: err}
}

// ExitCode classifies err. Explicit ExitErrors win; otherwise well-known
// error types pick their category.
func ExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}

	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}

	var validation config.ValidateErrors
	switch {
	case errors.Is(err, commands.ErrUnknownCommand):
		return ExitNotFoundError
	case errors.As(err, &validation):
		return ExitConfigError
	}
	return ExitGeneralError
}
