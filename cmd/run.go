package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/storageops/nascheck/internal/config"
	"github.com/storageops/nascheck/internal/harness"
	"github.com/storageops/nascheck/internal/harness/suitedef"
	"github.com/storageops/nascheck/internal/middleware"
	"github.com/storageops/nascheck/internal/output"
)

var (
	runVerbose bool

	errNoSuites = errors.New("no suite definitions found")
)

var runCmd = &cobra.Command{
	Use:   "run [suite-file]",
	Short: "Run lifecycle validation suites",
	Long: `Run lifecycle validation suites against the middleware.

With a suite file argument, only that suite runs. Without one, every
.yaml suite in the suites directory runs in file order.

Each suite's scenarios execute sequentially: single-resource scenarios
walk one resource through create, configure, verify, and destroy; bulk
scenarios create N resources, check the backend enumeration agrees,
destroy them, and check nothing leaked. Assertion failures never abort
a scenario - the run records every failure and the command exits
non-zero when any assertion failed.

Examples:
  nascheck run
  nascheck run suites/bootenv.yaml
  nascheck run --verbose`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		log := newLogger(runVerbose)

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

		run := harness.NewRun(log)
		runner := harness.NewRunner(log, client, run, cfg.BootPool)
		formatter := output.NewFormatter(os.Stdout)

		for _, suite := range suites {
			formatter.PrintPhase("suite " + suite.Name)

			for _, scenario := range suite.Scenarios {
				var err error
				if scenario.Single != nil {
					err = runner.RunSingle(ctx, scenario.Name, scenario.Kind, scenario.Single.ResourceName)
				} else {
					prefix, count := bulkParams(cfg, scenario.Bulk)
					err = runner.RunBulk(ctx, scenario.Name, scenario.Kind, prefix, count)
				}
				if err != nil {
					return fmt.Errorf("scenario %s aborted: %w", scenario.Name, err)
				}
			}
		}

		for _, outcome := range run.Outcomes() {
			formatter.PrintOutcome(outcome)
		}
		formatter.PrintSummary(run)

		return run.Err()
	},
}

// bulkParams resolves a bulk scenario's prefix and count, falling back to
// the configured defaults when the suite file omits them.
func bulkParams(cfg *config.Config, spec *suitedef.BulkSpec) (string, int) {
	prefix := spec.Prefix
	if prefix == "" {
		prefix = config.BulkNamePrefix
	}

	count := cfg.BulkCount
	if spec.Count != nil {
		count = *spec.Count
	}

	return prefix, count
}

// loadSuites loads the suite named on the command line, or every suite in
// the configured directory.
func loadSuites(log logrus.FieldLogger, cfg *config.Config, args []string) ([]*suitedef.Suite, error) {
	loader := suitedef.NewLoader(log)

	if len(args) == 1 {
		suite, err := loader.LoadFile(args[0])
		if err != nil {
			return nil, fmt.Errorf("loading suite: %w", err)
		}
		return []*suitedef.Suite{suite}, nil
	}

	suites, err := loader.LoadDir(cfg.SuitesDir)
	if err != nil {
		return nil, fmt.Errorf("loading suites from %s: %w", cfg.SuitesDir, err)
	}
	if len(suites) == 0 {
		return nil, fmt.Errorf("%w in %s", errNoSuites, cfg.SuitesDir)
	}

	return suites, nil
}

func init() {
	runCmd.Flags().BoolVar(&runVerbose, "verbose", false, "Enable debug logging")
	rootCmd.AddCommand(runCmd)
}
