// Command invoicectl runs maintenance tasks against the invoice editor's
// configuration: schema migration, offline rendering and credential checks.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/garyjia/clinic-invoice/internal/config"
	"github.com/garyjia/clinic-invoice/pkg/utils"
)

var Version = "dev"

var (
	configPath string
	logLevel   string
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "invoicectl",
		Short:         "Maintenance commands for the clinic invoice editor",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "configs/config.yaml", "config file path")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "log level for diagnostic output")

	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(renderCmd)
	rootCmd.AddCommand(checkAICmd)
	rootCmd.AddCommand(tokenCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// loadConfig reads the configuration named by --config
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return cfg, nil
}

// newLogger writes human-readable diagnostics to stderr so stdout stays clean
func newLogger() (*zap.Logger, error) {
	return utils.NewLogger(utils.LoggerConfig{
		Level:      logLevel,
		OutputPath: "stderr",
		Format:     "console",
	})
}
