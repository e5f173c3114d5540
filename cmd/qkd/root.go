package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Glassar/dd2394-Security-Project/qkd"
)

var (
	configPath string
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "qkd",
	Short: "Simulated quantum key distribution",
	Long: `qkd simulates BB84 and E91 key distribution over a noisy channel, with an
optional eavesdropper, then sifts, spot-checks, reconciles and amplifies the
resulting keys.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "YAML config file; unset options keep their defaults")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log every pipeline stage in human readable form")
	rootCmd.AddCommand(runCmd, schemaCmd)
}

func newLogger() (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func loadConfig() (qkd.Config, error) {
	if configPath == "" {
		return qkd.DefaultConfig(), nil
	}
	return qkd.LoadConfig(configPath)
}
