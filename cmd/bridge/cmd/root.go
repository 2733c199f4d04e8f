package cmd

import (
	"fmt"
	"github.com/shrinex/bridge/config"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"os"
)

var (
	cfg        config.Config
	configPath string
)

var rootCmd = &cobra.Command{
	Use:   "bridge",
	Short: "Authentication bridge to a PageSeeder identity service",
	Long: `bridge logs web visitors in against a remote PageSeeder server, keeps them in a
local session and restores that session from an encrypted remember-me cookie.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if configPath == "" {
			configPath = os.Getenv("BRIDGE_CONFIG")
		}

		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "YAML configuration file (env: BRIDGE_CONFIG)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(keygenCmd)
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return nil, fmt.Errorf("log level: %w", err)
	}

	zc := zap.NewProductionConfig()
	zc.Level = lvl
	return zc.Build()
}
