// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jeranaias/rigrun-shell/internal/commands"
)

func newCommandsCommand(flags *rootFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "commands",
		Short: "Inspect slash commands",
	}
	cmd.AddCommand(newCommandsListCommand(flags), newCommandsCheckCommand(flags))
	return cmd
}

func newCommandsListCommand(flags *rootFlags) *cobra.Command {
	var kind string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List built-in and custom commands",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var kinds []commands.Kind
			switch strings.ToLower(kind) {
			case "", "all":
				kinds = []commands.Kind{commands.KindBuiltIn, commands.KindCustom}
			case "builtin", "built-in":
				kinds = []commands.Kind{commands.KindBuiltIn}
			case "custom":
				kinds = []commands.Kind{commands.KindCustom}
			default:
				return exitWith(ExitUsageError, fmt.Errorf("invalid --kind %q (valid: all, builtin, custom)", kind))
			}

			app, err := newApp(flags)
			if err != nil {
				return err
			}
			defer app.Close()

			app.Discover(cmd.Context())
			all := app.Registry.All()
			w := cmd.OutOrStdout()
			for i, k := range kinds {
				if i > 0 {
					fmt.Fprintln(w)
				}
				fmt.Fprintln(w, TitleStyle.Render(titleFor(k)))
				fmt.Fprintln(w, commands.FormatCommandList(all, k))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&kind, "kind", "all", "which commands to list: all, builtin, custom")
	return cmd
}

func titleFor(k commands.Kind) string {
	if k == commands.KindCustom {
		return "Custom commands"
	}
	return "Built-in commands"
}

func newCommandsCheckCommand(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Parse every custom command file and report problems",
		Long: `Parse every custom command file and report problems.

Malformed files are skipped by the shell; check shows why. It also reports
custom commands that collide with a built-in or shadow each other. Exits
with status 3 when any file fails to parse.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := newApp(flags)
			if err != nil {
				return err
			}
			defer app.Close()

			entries, err := app.Loader.Check(cmd.Context())
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			var (
				failed int
				cmds   []*commands.Command
			)
			for _, e := range entries {
				if e.Err != nil {
					failed++
					fmt.Fprintf(w, "%s %s: %v\n", ErrorStyle.Render("FAIL"), e.Path, e.Err)
					continue
				}
				fmt.Fprintf(w, "%s /%s %s\n", SuccessStyle.Render("OK  "), e.Definition.Name, DimStyle.Render(e.Path))
				cmds = append(cmds, e.Definition.Command())
			}

			_, conflicts := commands.Merge(commands.Builtins(), cmds)
			for _, c := range conflicts {
				fmt.Fprintf(w, "%s %s\n", WarningStyle.Render("WARN"), c)
			}

			fmt.Fprintf(w, "\n%d files, %d failed, %d conflicts\n", len(entries), failed, len(conflicts))
			if failed > 0 {
				return exitWith(ExitConfigError, fmt.Errorf("%d custom command files failed to parse", failed))
			}
			return nil
		},
	}
}
