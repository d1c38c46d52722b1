package main

import (
	"github.com/spf13/cobra"

	"github.com/matsen/bibup/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage global configuration",
	Long:  `Manage global configuration stored in ~/.config/bibup/config.yml.`,
}

var configGetCmd = &cobra.Command{
	Use:   "get",
	Short: "Show the current global configuration",
	Args:  cobra.NoArgs,
	RunE:  runConfigGet,
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a global configuration value",
	Long: `Set a global configuration value.

Keys:
  mailto        address for the CrossRef polite pool
  cache_path    default citation cache location`,
	Args: cobra.ExactArgs(2),
	RunE: runConfigSet,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configGetCmd)
	configCmd.AddCommand(configSetCmd)
}

// ConfigResponse is the JSON output for config get.
type ConfigResponse struct {
	Mailto    string `json:"mailto,omitempty"`
	CachePath string `json:"cache_path,omitempty"`
	Path      string `json:"path"`
}

func runConfigGet(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadGlobalConfig()
	if err != nil {
		exitWithError(ExitConfigError, "%v", err)
	}

	if humanOutput {
		outputHuman("config: %s\n", config.GlobalConfigPath())
		outputHuman("  mailto:     %s\n", cfg.Mailto)
		outputHuman("  cache_path: %s\n", cfg.CachePath)
		return nil
	}
	return outputJSON(ConfigResponse{
		Mailto:    cfg.Mailto,
		CachePath: cfg.CachePath,
		Path:      config.GlobalConfigPath(),
	})
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	key, value := args[0], args[1]

	cfg, err := config.LoadGlobalConfig()
	if err != nil {
		exitWithError(ExitConfigError, "%v", err)
	}

	updated := *cfg
	switch key {
	case "mailto":
		updated.Mailto = value
	case "cache_path":
		updated.CachePath = value
	default:
		exitWithError(ExitError, "unknown config key: %s (valid: mailto, cache_path)", key)
	}

	if err := config.SaveGlobalConfig(&updated); err != nil {
		exitWithError(ExitConfigError, "%v", err)
	}

	if humanOutput {
		outputHuman("set %s = %s\n", key, value)
		return nil
	}
	return outputJSON(map[string]string{"status": "ok", key: value})
}
