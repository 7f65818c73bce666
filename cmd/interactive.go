package cmd

import (
	"errors"
	"fmt"
	"log"

	"github.com/spf13/cobra"
	"github.com/storageops/nascheck/internal/config"
	"github.com/storageops/nascheck/internal/interactive"
)

var interactiveCmd = &cobra.Command{
	Use:   "interactive",
	Short: "Launch interactive menu mode",
	Long:  `Launches a menu-driven session for running suites and sweeps.`,
	Run: func(_ *cobra.Command, _ []string) {
		runInteractiveMenu()
	},
}

func init() {
	rootCmd.AddCommand(interactiveCmd)
}

func runInteractiveMenu() {
	fmt.Println("nascheck - Interactive Mode")
	fmt.Println("===========================")
	fmt.Println()

	for {
		options := []interactive.MenuOption{
			{
				Name:        "Show Config",
				Description: "Display current environment configuration",
				Action: func() error {
					cfg, err := config.Load()
					if err != nil {
						fmt.Printf("\n❌ Error: %v\n", err)
					} else {
						fmt.Println(cfg.String())
					}
					interactive.PauseForEnter()
					return nil
				},
			},
			{
				Name:        "Run Suites",
				Description: "Run every lifecycle validation suite",
				Action: func() error {
					if !interactive.Confirm("Run all suites against the configured middleware?") {
						fmt.Println("Run canceled.")
						interactive.PauseForEnter()
						return nil
					}

					if err := runCmd.RunE(runCmd, nil); err != nil {
						fmt.Printf("\n❌ %v\n", err)
					} else {
						fmt.Println("\n✅ All assertions passed!")
					}
					interactive.PauseForEnter()
					return nil
				},
			},
			{
				Name:        "Sweep",
				Description: "Apply suite sweep rules (bulk attribute mutation)",
				Action: func() error {
					if !interactive.Confirm("⚠️  Sweeps mutate backend resources. Continue?") {
						fmt.Println("Sweep canceled.")
						interactive.PauseForEnter()
						return nil
					}

					if err := sweepCmd.RunE(sweepCmd, nil); err != nil {
						fmt.Printf("\n❌ %v\n", err)
					} else {
						fmt.Println("\n✅ Sweep completed!")
					}
					interactive.PauseForEnter()
					return nil
				},
			},
		}

		if err := interactive.ShowMainMenu(options); err != nil {
			if errors.Is(err, interactive.ErrExit) {
				fmt.Println("Goodbye!")
				return
			}
			log.Fatal(err)
		}

		fmt.Println()
	}
}
