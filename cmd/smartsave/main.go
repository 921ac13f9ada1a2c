// Command smartsave serves the spending-health API and analyzes snapshots
// from the command line.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/boddenberg/smartsave-bfa-go/internal/config"
	"github.com/boddenberg/smartsave-bfa-go/internal/engine"
)

var flagThresholds string

var rootCmd = &cobra.Command{
	Use:           "smartsave",
	Short:         "SmartSave spending-health service",
	Long:          "Analyze personal finance snapshots: ratios, flags, impacts and suggested actions.",
	RunE:          runServe,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagThresholds, "thresholds", "", "TOML file overriding flag thresholds (default $THRESHOLDS_FILE)")
	rootCmd.AddCommand(serveCmd, analyzeCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "smartsave:", err)
		os.Exit(1)
	}
}

// newEngine builds the engine with defaults overlaid by the thresholds file.
// The flag wins over the environment.
func newEngine(cfg *config.Config) (*engine.Engine, error) {
	path := flagThresholds
	if path == "" {
		path = cfg.ThresholdsFile
	}
	overrides, err := config.LoadThresholds(path)
	if err != nil {
		return nil, err
	}
	return engine.New(engine.DefaultThresholds().Apply(overrides)), nil
}
