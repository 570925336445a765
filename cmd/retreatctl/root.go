package main

import (
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"retreat/internal/logger"
)

var (
	version  = "dev"
	logLevel string
	log      zerolog.Logger
)

var rootCmd = &cobra.Command{
	Use:     "retreatctl",
	Short:   "Register for the retreat from the terminal",
	Long:    `retreatctl fills in the retreat registration form from a YAML file, submits it and mints admin tokens for the registration API.`,
	Version: version,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		log = logger.NewWithWriter(cmd.ErrOrStderr(), "dev", logLevel)
	},
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "log level (debug, info, warn, error)")
	rootCmd.AddCommand(submitCmd, tokenCmd)
}
