package main

import (
	"fmt"
	"os"

	"konsilium/internal/config"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var initForce bool

// initCmd writes a starter config file
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a starter config file",
	Long: `Creates the config file (default .konsilium/config.yaml) with default
settings. Pass --url to fill in the generation endpoint.`,
	RunE: runInit,
}

func init() {
	initCmd.Flags().BoolVar(&initForce, "force", false, "Overwrite an existing config file")
}

func runInit(cmd *cobra.Command, args []string) error {
	if _, err := os.Stat(configPath); err == nil && !initForce {
		fmt.Fprintf(cmd.OutOrStdout(), "Config already exists at %s (use --force to overwrite)\n", configPath)
		return nil
	}

	cfg := config.DefaultConfig()
	applyFlagOverrides(cfg)
	if err := cfg.Save(configPath); err != nil {
		return &exitError{code: exitConfig, err: err}
	}

	logger.Info("Config written", zap.String("path", configPath))
	fmt.Fprintf(cmd.OutOrStdout(), "Config written to %s\n", configPath)
	if cfg.Endpoint.URL == "" {
		fmt.Fprintln(cmd.OutOrStdout(), "Set endpoint.url (or KONSILIUM_REQUEST_URL) before running konsilium.")
	}
	return nil
}
