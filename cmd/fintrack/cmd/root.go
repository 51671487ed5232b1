package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"fintrack/internal/cli"
	"fintrack/internal/config"
	"fintrack/internal/log"
)

var (
	cfg    *config.Config
	logger *log.Logger
)

var rootCmd = &cobra.Command{
	Use:   "fintrack",
	Short: "fintrack is a web client for a personal finance API",
	Long: `fintrack serves a browser UI for tracking income, expenses, budgets and
debts against a remote finance API. Configuration is read from the
environment and an optional .env file.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cli.LoadEnvFile()
		c, err := cli.LoadAndValidateConfig()
		if err != nil {
			return err
		}
		cfg = c
		logger = cli.SetupLogger(cfg)
		return nil
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
