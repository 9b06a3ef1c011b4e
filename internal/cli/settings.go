package cli

import (
	"strconv"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/checklist/internal/views"
	"github.com/mesh-intelligence/checklist/pkg/types"
)

func newSettingsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Read and change display preferences",
	}
	cmd.AddCommand(newSettingsGetCmd(a), newSettingsSetCmd(a))
	return cmd
}

func checkSettingsKey(key string) error {
	if key != types.DarkModeKey {
		return usageError("unknown setting %q (valid: %s)", key, types.DarkModeKey)
	}
	return nil
}

func newSettingsGetCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "get [key]",
		Short: "Print a preference",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				if err := checkSettingsKey(args[0]); err != nil {
					return commandError(err)
				}
			}
			ctx := cmd.Context()
			return a.withSession(func(s *session) error {
				on := s.darkMode(ctx)
				return printer{out: cmd.OutOrStdout(), json: a.flags.jsonMode}.
					result(map[string]bool{types.DarkModeKey: on}, "%s: %t", types.DarkModeKey, on)
			})
		},
	}
}

func newSettingsSetCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Change a preference",
		Example: `  checklist settings set dark_mode true
  checklist settings set dark_mode toggle`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkSettingsKey(args[0]); err != nil {
				return commandError(err)
			}
			ctx := cmd.Context()
			return a.withSession(func(s *session) error {
				prefs, err := s.settings(ctx)
				if err != nil {
					return err
				}
				v := views.NewSettings(prefs, s.logger)

				on := !s.darkMode(ctx)
				if args[1] != "toggle" {
					on, err = strconv.ParseBool(args[1])
					if err != nil {
						return usageError("value %q is not a boolean", args[1])
					}
				}
				if err := v.SetDarkMode(ctx, on); err != nil {
					return err
				}
				return printer{out: cmd.OutOrStdout(), json: a.flags.jsonMode}.
					result(map[string]bool{types.DarkModeKey: on}, "%s: %t", types.DarkModeKey, on)
			})
		},
	}
}
