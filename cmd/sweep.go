package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/storageops/nascheck/internal/config"
	"github.com/storageops/nascheck/internal/harness"
	"github.com/storageops/nascheck/internal/middleware"
)

var sweepVerbose bool

var sweepCmd = &cobra.Command{
	Use:   "sweep [suite-file]",
	Short: "Apply suite sweep rules",
	Long: `Apply the sweep rules of the given suites: for every container of the
rule's kind, set the rule's attributes on each child whose name matches
the pattern. Sweeps are best-effort bulk mutations - individual failures
are logged and skipped, and no assertions are recorded.

Examples:
  nascheck sweep
  nascheck sweep suites/hide-media.yaml`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		log := newLogger(sweepVerbose)

		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}

		ctx := context.Background()

		client, err := middleware.Connect(ctx, log, middleware.Options{
			Host:        cfg.MiddlewareHost,
			Port:        cfg.MiddlewarePort,
			Username:    cfg.Username,
			Password:    cfg.Password,
			CallTimeout: cfg.CallTimeout,
		})
		if err != nil {
			return fmt.Errorf("connecting to middleware: %w", err)
		}
		defer func() {
			if err := client.Close(); err != nil {
				log.WithError(err).Warn("failed to close middleware connection")
			}
		}()

		suites, err := loadSuites(log, cfg, args)
		if err != nil {
			return err
		}

		sweep := harness.NewSweep(log, client)
		for _, suite := range suites {
			for _, rule := range suite.Sweeps {
				if err := sweep.Apply(ctx, rule.Container, rule.Child, rule.Pattern, rule.Set); err != nil {
					return fmt.Errorf("sweep in suite %s failed: %w", suite.Name, err)
				}
			}
		}

		return nil
	},
}

func init() {
	sweepCmd.Flags().BoolVar(&sweepVerbose, "verbose", false, "Enable debug logging")
	rootCmd.AddCommand(sweepCmd)
}
