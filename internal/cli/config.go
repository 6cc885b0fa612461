package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/billmal071/annas/internal/config"
)

func newConfigCmd(a *app) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage configuration",
		Long: `View and modify annas configuration.

Configuration is stored in ~/.config/annas/config.yaml

Examples:
  annas config get downloads.path
  annas config set anna.secret_key YOUR_SECRET_KEY
  annas config set downloads.path ~/Books`,
	}

	configGetCmd := &cobra.Command{
		Use:   "get <key>",
		Short: "Get a configuration value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := args[0]
			value := config.GetValue(a.cfgFile, key)
			if value == nil {
				return fmt.Errorf("key not found: %s", key)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s = %v\n", key, value)
			return nil
		},
	}

	configSetCmd := &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set a configuration value",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, value := args[0], args[1]

			if err := config.Set(a.cfgFile, key, value); err != nil {
				return fmt.Errorf("failed to set config: %w", err)
			}

			out := cmd.OutOrStdout()
			Successf(out, "Set %s = %s", key, value)
			fmt.Fprintf(out, "Config saved to: %s\n", a.configPath())
			return nil
		},
	}

	configPathCmd := &cobra.Command{
		Use:   "path",
		Short: "Show configuration file path",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Config file: %s\n", a.configPath())
			fmt.Fprintf(out, "Database:    %s\n", config.GetDBPath())
			fmt.Fprintf(out, "Results:     %s\n", a.cfg.Downloads.ResultsPath())
		},
	}

	configCmd.AddCommand(configGetCmd, configSetCmd, configPathCmd)
	return configCmd
}

func (a *app) configPath() string {
	if a.cfgFile != "" {
		return a.cfgFile
	}
	return config.GetConfigPath()
}
