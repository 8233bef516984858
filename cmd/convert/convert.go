// Package convert implements the statement conversion command.
package convert

import (
	"github.com/spf13/cobra"

	"tbank-xlsx/cmd/root"
	"tbank-xlsx/internal/logging"
	"tbank-xlsx/internal/pipeline"
	"tbank-xlsx/internal/rules"
)

// Cmd represents the convert command
var Cmd = &cobra.Command{
	Use:   "convert",
	Short: "Convert a T-Bank CSV statement",
	Long: `Convert a T-Bank CSV statement export into an XLSX or CSV report with
debit/credit accounts, categories and subcategories filled in from the
rules file.`,
	Run: convertFunc,
}

func convertFunc(cmd *cobra.Command, args []string) {
	input := root.SharedFlags.Input
	output := root.SharedFlags.Output
	if input == "" || output == "" {
		root.Log.Fatal("Both --input and --output are required")
	}

	rulesFile := root.SharedFlags.Rules
	if rulesFile == "" {
		rulesFile = root.Cfg.Rules.File
	}
	format := root.SharedFlags.Format
	if format == "" {
		format = root.Cfg.Output.Format
	}

	root.Log.Infof("Input statement: %s", input)
	root.Log.Infof("Output file: %s (%s)", output, format)
	root.Log.Infof("Rules file: %s", rulesFile)

	cfg, err := rules.Load(rulesFile)
	if err != nil {
		root.Log.Fatalf("Error loading rules: %v", err)
	}

	logger := logging.NewLogrusAdapterFromLogger(root.Log)
	rep, err := pipeline.New(cfg, logger).Run(input, output, format)
	if err != nil {
		root.Log.Fatalf("Conversion failed: %v", err)
	}

	root.Log.Infof("Operations processed: %d", len(rep.Operations))
	if !rep.Period.IsZero() {
		root.Log.Infof("Period: %s", rep.Period)
	}
	root.Log.Infof("Categories used: %d", len(rep.Categories))
	root.Log.Infof("Income: %s, expense: %s", rep.TotalIncome, rep.TotalExpense)
	root.Log.Info("Conversion completed successfully!")
}
