// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jeranaias/rigrun-shell/internal/commands"
)

func newExecCommand(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "exec <input>",
		Short: "Dispatch one slash command and print the result",
		Long: `Dispatch one slash command and print the result.

Custom commands print their expanded prompt, which makes exec useful for
checking templates:

  rigrun exec /git:commit fix the flaky test
  rigrun exec "/approval-mode plan"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp(flags)
			if err != nil {
				return err
			}
			defer app.Close()

			app.Discover(cmd.Context())
			input := strings.Join(args, " ")
			if !commands.IsCommand(input) {
				input = "/" + input
			}
			return printOutcome(cmd.Context(), cmd.OutOrStdout(), app, app.Dispatch(cmd.Context(), input))
		},
	}
}

// printOutcome writes an outcome the way a line-oriented front-end shows
// it. Not-found and failed outcomes come back as errors carrying their exit
// code.
func printOutcome(ctx context.Context, w io.Writer, app *App, out commands.Outcome) error {
	switch out.Status {
	case commands.StatusNotFound:
		return exitWith(ExitNotFoundError, out.Err)
	case commands.StatusFailed:
		return exitWith(ExitGeneralError, out.Err)
	}

	res := out.Result
	switch res.Type {
	case commands.ResultDialog:
		if res.Dialog == commands.DialogHelp {
			printHelp(w, app.Registry)
			return nil
		}
		fmt.Fprintf(w, "The %s dialog is only available in the full-screen shell.\n", res.Dialog)

	case commands.ResultHistoryItem:
		if res.Item != nil {
			fmt.Fprintln(w, res.Item.Text)
		}

	case commands.ResultSubmitPrompt:
		fmt.Fprintln(w, res.Prompt)

	case commands.ResultReloadCommands:
		app.Discover(ctx)
		_, custom := countCustom(app.Registry.All())
		fmt.Fprintf(w, "Reloaded %d custom commands.\n", custom)
	}
	return nil
}

func printHelp(w io.Writer, reg *commands.Registry) {
	all := reg.All()
	fmt.Fprintln(w, TitleStyle.Render("Built-in commands"))
	fmt.Fprintln(w, commands.FormatCommandList(all, commands.KindBuiltIn))
	fmt.Fprintln(w)
	fmt.Fprintln(w, TitleStyle.Render("Custom commands"))
	fmt.Fprintln(w, commands.FormatCommandList(all, commands.KindCustom))
}

func countCustom(cmds []*commands.Command) (builtin, custom int) {
	for _, cmd := range cmds {
		if cmd.Kind == commands.KindCustom {
			custom++
		} else {
			builtin++
		}
	}
	return builtin, custom
}
