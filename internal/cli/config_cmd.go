// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"

	"github.com/jeranaias/rigrun-shell/internal/config"
)

func newConfigCommand(flags *rootFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or change configuration",
	}
	cmd.AddCommand(newConfigShowCommand(flags))
	cmd.AddCommand(newConfigSetCommand(flags))
	return cmd
}

// completeConfigKey completes the first argument with dot-notation keys.
func completeConfigKey(_ *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	var keys []string
	for _, k := range config.GetAllKeys() {
		if strings.HasPrefix(k, toComplete) {
			keys = append(keys, k)
		}
	}
	return keys, cobra.ShellCompDirectiveNoFileComp
}

// unknownKey wraps a lookup failure with the list of valid keys.
func unknownKey(err error) error {
	return exitWith(ExitUsageError, fmt.Errorf("%w\nvalid keys: %s", err, strings.Join(config.GetAllKeys(), ", ")))
}

func newConfigSetCommand(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Change one configuration key",
		Long: `Change one key in the config file and write it back atomically.
The --config file is edited when given, otherwise ~/.rigrun/config.toml
(or config.json when only that exists). Environment overrides are not
written to the file.

  rigrun config set approval.default_mode plan
  rigrun config set commands.watch false`,
		Args:              cobra.ExactArgs(2),
		ValidArgsFunction: completeConfigKey,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := config.ExpandPath(flags.configPath)
			if path == "" {
				p, err := config.DefaultPath()
				if err != nil {
					return exitWith(ExitConfigError, err)
				}
				path = p
			}

			cfg, err := config.Edit(path, args[0], args[1])
			if err != nil {
				var verrs config.ValidateErrors
				if errors.As(err, &verrs) {
					return exitWith(ExitConfigError, err)
				}
				if _, getErr := config.Default().Get(args[0]); getErr != nil {
					return unknownKey(getErr)
				}
				return exitWith(ExitUsageError, err)
			}

			v, _ := cfg.Get(args[0])
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s = %v\n", SuccessStyle.Render("Set"), args[0], v)
			fmt.Fprintln(cmd.OutOrStdout(), DimStyle.Render("# "+path))
			return nil
		},
	}
}

func newConfigShowCommand(flags *rootFlags) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "show [key]",
		Short: "Print the effective configuration, or one key",
		Long: `Print the effective configuration after defaults and RIGRUN_*
environment overrides are applied.

  rigrun config show
  rigrun config show approval.default_mode`,
		Args:              cobra.MaximumNArgs(1),
		ValidArgsFunction: completeConfigKey,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(flags.configPath)
			if cfg == nil {
				return exitWith(ExitConfigError, err)
			}
			w := cmd.OutOrStdout()
			if err != nil {
				fmt.Fprintln(cmd.ErrOrStderr(), WarningStyle.Render("Warning: ")+err.Error())
			}

			if len(args) == 1 {
				v, err := cfg.Get(args[0])
				if err != nil {
					return unknownKey(err)
				}
				fmt.Fprintln(w, v)
				return nil
			}

			if asJSON {
				fmt.Fprintln(w, cfg.String())
				return nil
			}
			if path, err := config.ConfigPathTOML(); err == nil && flags.configPath == "" {
				fmt.Fprintln(w, DimStyle.Render("# "+path))
			}
			return toml.NewEncoder(w).Encode(cfg)
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON instead of TOML")
	return cmd
}
