// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"
)

// Version information (set at build time)
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// versionString returns a formatted version string for display.
func versionString() string {
	if Version == "dev" {
		return "dev (built from source)"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, GitCommit, BuildDate)
}

// NewRootCommand builds the command tree. Each call returns a fresh tree so
// tests can run commands in isolation.
func NewRootCommand() *cobra.Command {
	flags := &rootFlags{}

	root := &cobra.Command{
		Use:   "rigrun",
		Short: "Interactive shell with slash commands",
		Long: TitleStyle.Render("rigrun") + ` - interactive shell with slash commands

Type /help inside the shell for the command list. Custom commands are
loaded from ~/.rigrun/commands and .rigrun/commands in the current
project: *.toml files with a prompt, or *.md files whose body is the
prompt. git/commit.toml becomes /git:commit.

Keys: shift+tab cycles the approval mode, ctrl+y toggles YOLO.`,
		SilenceUsage: true,
		Args:         cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := newApp(flags)
			if err != nil {
				return err
			}
			defer app.Close()

			if usePlain(flags.plain) {
				return runREPL(cmd.Context(), app)
			}
			return runTUI(cmd.Context(), app)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&flags.configPath, "config", "", "config file (default is ~/.rigrun/config.toml)")
	pf.StringVar(&flags.logFile, "log-file", "", `log file, "-" for stderr (default from config)`)
	pf.BoolVarP(&flags.verbose, "verbose", "v", false, "enable debug logging")
	root.Flags().BoolVar(&flags.plain, "plain", false, "use the line REPL instead of the full-screen shell")

	root.AddCommand(
		newExecCommand(flags),
		newCommandsCommand(flags),
		newConfigCommand(flags),
		newVersionCommand(),
	)
	return root
}

// Execute runs the CLI and returns the process exit code.
func Execute(ctx context.Context) int {
	err := fang.Execute(
		ctx,
		NewRootCommand(),
		fang.WithVersion(versionString()),
		fang.WithNotifySignal(os.Interrupt),
	)
	return ExitCode(err)
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "rigrun "+versionString())
		},
	}
}
