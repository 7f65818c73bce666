package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/storageops/nascheck/internal/config"
)

var showConfigCmd = &cobra.Command{
	Use:   "show-config",
	Short: "Display current environment configuration",
	Long:  `Shows the current configuration loaded from environment variables and .env file.`,
	RunE: func(_ *cobra.Command, _ []string) error {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		fmt.Println(cfg.String())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(showConfigCmd)
}
