// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli implements the rigrun command line.
//
// The root command opens the full-screen shell, or the plain line REPL when
// stdin or stdout is not a terminal or --plain is given. Subcommands:
//
//	rigrun exec <input>     dispatch one slash command and print the result
//	rigrun commands list    list built-in and custom commands
//	rigrun commands check   parse custom command files and report problems
//	rigrun config show      print the effective configuration
//	rigrun version          print version information
//
// Execution goes through fang, and every RunE returns errors; Execute maps
// them to exit codes with ExitCode.
package cli
