// Package common provides shared output helpers used by the render targets.
package common

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gocarina/gocsv"
	"github.com/shopspring/decimal"

	"tbank-xlsx/internal/logging"
	"tbank-xlsx/internal/models"
)

// OperationRow is the flat CSV representation of a classified operation.
type OperationRow struct {
	Date        string          `csv:"Date"`
	Description string          `csv:"Description"`
	Debit       string          `csv:"Debit"`
	Credit      string          `csv:"Credit"`
	Category    string          `csv:"Category"`
	Subcategory string          `csv:"Subcategory"`
	Amount      decimal.Decimal `csv:"Amount"`
	Currency    string          `csv:"Currency"`
	Comment     string          `csv:"Comment"`
}

// WriteOperationsToCSV writes classified operations to a CSV file in a
// standardized format. All render paths that emit CSV go through this
// function so the output stays consistent.
func WriteOperationsToCSV(ops []models.Operation, csvFile string, logger logging.Logger) error {
	if ops == nil {
		return fmt.Errorf("cannot write nil operations to CSV")
	}
	if logger == nil {
		logger = logging.NewLogrusAdapter("info", "text")
	}

	logger.WithFields(
		logging.Field{Key: "file", Value: csvFile},
		logging.Field{Key: "count", Value: len(ops)},
	).Info("Writing operations to CSV file")

	dir := filepath.Dir(csvFile)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("error creating directory: %w", err)
	}

	file, err := os.Create(csvFile) // #nosec G304 -- output path is user provided
	if err != nil {
		return fmt.Errorf("error creating CSV file: %w", err)
	}
	defer func() {
		if err := file.Close(); err != nil {
			logger.WithError(err).Warn("Failed to close file")
		}
	}()

	rows := make([]OperationRow, 0, len(ops))
	for i := range ops {
		op := &ops[i]
		rows = append(rows, OperationRow{
			Date:        op.OperationDate.Format("02.01.2006 15:04:05"),
			Description: op.Description,
			Debit:       op.DebitAccount,
			Credit:      op.CreditAccount,
			Category:    op.Category,
			Subcategory: op.Subcategory,
			Amount:      op.OperationAmount,
			Currency:    op.OperationCurrency,
			Comment:     op.Comment,
		})
	}

	if err := gocsv.MarshalFile(&rows, file); err != nil {
		return fmt.Errorf("error writing CSV file: %w", err)
	}
	return nil
}
