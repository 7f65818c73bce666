// Package cmd contains CLI command definitions
package cmd

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	// Logger is the shared logger instance for all commands
	Logger *logrus.Logger

	rootCmd = &cobra.Command{
		Use:   "nascheck",
		Short: "nascheck - lifecycle validation harness for the NAS middleware",
		Long: `nascheck validates lifecycle operations of the storage middleware
(boot environments, volumes, datasets) by issuing dispatcher commands,
asserting postconditions, and aggregating pass/fail results.

Run without arguments to see available commands, or use 'interactive'
for a menu-driven session.`,
	}
)

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Load .env file if it exists
	_ = godotenv.Load()

	// Initialize the shared logger
	Logger = logrus.New()

	// Set log level from environment variable
	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel == "" {
		logLevel = "info" // Default to info
	}

	level, err := logrus.ParseLevel(logLevel)
	if err != nil {
		fmt.Printf("Invalid LOG_LEVEL '%s', defaulting to 'info'\n", logLevel)
		level = logrus.InfoLevel
	}
	Logger.SetLevel(level)
}
