package main

import (
	"fmt"
	"io"
	"os"

	json "github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/boddenberg/smartsave-bfa-go/internal/config"
	"github.com/boddenberg/smartsave-bfa-go/internal/domain"
)

var flagPretty bool

var analyzeCmd = &cobra.Command{
	Use:   "analyze [file|-]",
	Short: "Analyze a snapshot JSON file and print the result",
	Long:  "Reads a financial snapshot from a file, or stdin when the argument is - or omitted, and prints the analysis as JSON.",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runAnalyze,
}

func init() {
	analyzeCmd.Flags().BoolVar(&flagPretty, "pretty", false, "Indent the JSON output")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	eng, err := newEngine(config.Load())
	if err != nil {
		return err
	}

	in := cmd.InOrStdin()
	if len(args) == 1 && args[0] != "-" {
		f, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("opening snapshot: %w", err)
		}
		defer f.Close()
		in = f
	}

	data, err := io.ReadAll(in)
	if err != nil {
		return fmt.Errorf("reading snapshot: %w", err)
	}

	var snapshot domain.FinancialSnapshot
	if len(data) > 0 {
		if err := json.Unmarshal(data, &snapshot); err != nil {
			return fmt.Errorf("decoding snapshot: %w", err)
		}
	}

	result := eng.Analyze(&snapshot)

	var out []byte
	if flagPretty {
		out, err = json.MarshalIndent(result, "", "  ")
	} else {
		out, err = json.Marshal(result)
	}
	if err != nil {
		return fmt.Errorf("encoding result: %w", err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), string(out))
	return nil
}
