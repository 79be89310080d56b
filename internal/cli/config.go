package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/e-wrobel/dirsync/internal/config"
)

func (a *app) configCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or change saved settings",
	}

	show := &cobra.Command{
		Use:   "show",
		Short: "Print the effective settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.flags.Output == outputJSON {
				return writeJSON(a.out, a.settings)
			}
			writeSettingsTable(a.out, a.settings)
			return nil
		},
	}

	set := &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Change and save one setting",
		Long:  "Change and save one setting. Keys: " + strings.Join(config.Keys(), ", "),
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) != 2 {
				return usageErr("expected <key> <value>, got %d arguments", len(args))
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.stored.Set(args[0], args[1]); err != nil {
				return usageErr("%v", err)
			}
			if err := config.Save(a.settingsPath, a.stored); err != nil {
				return fmt.Errorf("save settings: %w", err)
			}
			a.settings = a.stored.WithEnv()
			a.logger.Debug("settings saved", "path", a.settingsPath, "key", args[0])
			_, err := fmt.Fprintf(a.out, "%s saved\n", args[0])
			return err
		},
	}

	path := &cobra.Command{
		Use:   "path",
		Short: "Print the settings file location",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := fmt.Fprintln(a.out, a.settingsPath)
			return err
		},
	}

	cmd.AddCommand(show, set, path)
	return cmd
}
