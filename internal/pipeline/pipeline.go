// Package pipeline orchestrates one conversion run: parse the statement,
// merge paired transfers, apply double-entry classification, aggregate the
// report and render it.
package pipeline

import (
	"fmt"

	"tbank-xlsx/internal/categorizer"
	"tbank-xlsx/internal/common"
	"tbank-xlsx/internal/logging"
	"tbank-xlsx/internal/report"
	"tbank-xlsx/internal/rules"
	"tbank-xlsx/internal/tbankparser"
	"tbank-xlsx/internal/transfer"
	"tbank-xlsx/internal/xlsxwriter"
)

// Output formats supported by Run.
const (
	FormatXLSX = "xlsx"
	FormatCSV  = "csv"
)

// Pipeline runs conversions with one immutable rules config. Concurrent runs
// must each use their own Pipeline value.
type Pipeline struct {
	rules  *rules.Config
	logger logging.Logger
}

// New creates a Pipeline for the given rules.
func New(cfg *rules.Config, logger logging.Logger) *Pipeline {
	if logger == nil {
		logger = logging.NewLogrusAdapter("info", "text")
	}
	return &Pipeline{rules: cfg, logger: logger}
}

// Run converts a T-Bank CSV statement into the requested output format and
// returns the report aggregate.
func (p *Pipeline) Run(inputCSV, outputPath, format string) (report.Report, error) {
	ops, err := tbankparser.ParseFile(inputCSV, p.logger)
	if err != nil {
		return report.Report{}, err
	}
	if len(ops) == 0 {
		return report.Report{}, fmt.Errorf("no operations found in statement %s", inputCSV)
	}

	// Transfer merging must run before classification: the rule engine
	// treats a pre-merged record as already resolved.
	ops = transfer.MergePairedTransfers(ops, p.logger)
	ops = categorizer.New(p.rules, p.logger).ApplyDoubleEntry(ops)

	rep := report.Build(ops, p.rules.Settings.DefaultCurrency, p.rules.Settings.ServiceAccounts)

	switch format {
	case FormatXLSX:
		err = xlsxwriter.New(rep, p.rules, p.logger).Write(outputPath)
	case FormatCSV:
		err = common.WriteOperationsToCSV(rep.Operations, outputPath, p.logger)
	default:
		err = fmt.Errorf("unsupported output format: %s", format)
	}
	if err != nil {
		return report.Report{}, err
	}

	p.logger.WithFields(
		logging.Field{Key: "operations", Value: len(rep.Operations)},
		logging.Field{Key: "period", Value: rep.Period.String()},
		logging.Field{Key: "categories", Value: len(rep.Categories)},
	).Info("Conversion completed")
	return rep, nil
}
