// Package tbankparser reads T-Bank CSV statement exports into typed
// operations. The export is semicolon-delimited, fully quoted UTF-8 with a
// fixed set of 15 Russian column headers.
package tbankparser

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"

	"tbank-xlsx/internal/logging"
	"tbank-xlsx/internal/models"
	"tbank-xlsx/internal/parsererror"
)

// ExpectedHeaders are the column headers of a T-Bank CSV export, in order.
var ExpectedHeaders = []string{
	"Дата операции",
	"Дата платежа",
	"Номер карты",
	"Статус",
	"Сумма операции",
	"Валюта операции",
	"Сумма платежа",
	"Валюта платежа",
	"Кэшбэк",
	"Категория",
	"MCC",
	"Описание",
	"Бонусы (включая кэшбэк)",
	"Округление на инвесткопилку",
	"Сумма операции с округлением",
}

// Column indices into a statement row.
const (
	colOperationDate = iota
	colPaymentDate
	colCardNumber
	colStatus
	colOperationAmount
	colOperationCurrency
	colPaymentAmount
	colPaymentCurrency
	colCashback
	colBankCategory
	colMCC
	colDescription
	colBonusCount
	colInvestmentAmount
	colTotalPaymentAmount
)

// Parse reads a T-Bank CSV statement from r and returns the operations in
// original row order. Rows with a wrong field count are skipped with a
// warning; a row whose date or amount cannot be parsed fails the whole read.
func Parse(r io.Reader, logger logging.Logger) ([]models.Operation, error) {
	if logger == nil {
		logger = logging.NewLogrusAdapter("info", "text")
	}

	reader := csv.NewReader(r)
	reader.Comma = ';'
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err != nil {
		if err == io.EOF {
			return nil, &parsererror.InvalidFormatError{
				FilePath:       "(from reader)",
				ExpectedFormat: "T-Bank CSV",
				Msg:            "file is empty",
			}
		}
		return nil, &parsererror.ParseError{
			Parser: "T-Bank",
			Field:  "CSV header",
			Value:  "header row",
			Err:    err,
		}
	}
	if err := validateHeaders(header); err != nil {
		return nil, err
	}

	var operations []models.Operation
	for line := 2; ; line++ {
		record, err := reader.Read()
		if err != nil {
			if err == io.EOF {
				break
			}
			logger.WithError(err).WithField("line", line).Warn("Skipping malformed CSV row")
			continue
		}
		if len(record) != len(ExpectedHeaders) {
			logger.WithField("line", line).WithField("fields", len(record)).
				Warn("Skipping row with unexpected field count")
			continue
		}

		op, err := recordToOperation(record)
		if err != nil {
			return nil, &parsererror.DataExtractionError{
				FilePath:       "(from reader)",
				FieldName:      "operation",
				RawDataSnippet: record[colDescription],
				Msg:            fmt.Sprintf("row %d: %v", line, err),
			}
		}
		operations = append(operations, op)
	}

	logger.WithField("count", len(operations)).Info("Parsed T-Bank statement")
	return operations, nil
}

// ParseFile reads a T-Bank CSV statement from disk.
func ParseFile(filePath string, logger logging.Logger) ([]models.Operation, error) {
	file, err := os.Open(filePath) // #nosec G304 -- CLI tool requires user-provided file paths
	if err != nil {
		return nil, fmt.Errorf("error opening statement file: %w", err)
	}
	defer func() {
		if err := file.Close(); err != nil && logger != nil {
			logger.WithError(err).Warn("Failed to close statement file")
		}
	}()
	return Parse(file, logger)
}

// ValidateFormat checks whether the reader holds a T-Bank CSV export by
// inspecting its header row.
func ValidateFormat(r io.Reader) (bool, error) {
	reader := csv.NewReader(r)
	reader.Comma = ';'
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err != nil {
		return false, nil
	}
	return validateHeaders(header) == nil, nil
}

func validateHeaders(actual []string) error {
	if len(actual) != len(ExpectedHeaders) {
		return &parsererror.InvalidFormatError{
			FilePath:       "(from reader)",
			ExpectedFormat: "T-Bank CSV",
			Msg: fmt.Sprintf("expected %d columns, got %d; is this a T-Bank CSV export?",
				len(ExpectedHeaders), len(actual)),
		}
	}
	for i, expected := range ExpectedHeaders {
		if actual[i] != expected {
			return &parsererror.InvalidFormatError{
				FilePath:       "(from reader)",
				ExpectedFormat: "T-Bank CSV",
				Msg: fmt.Sprintf("expected column '%s', got '%s'; is this a T-Bank CSV export?",
					expected, actual[i]),
			}
		}
	}
	return nil
}

func recordToOperation(record []string) (models.Operation, error) {
	operationDate, err := ParseDate(record[colOperationDate])
	if err != nil {
		return models.Operation{}, err
	}
	paymentDate, err := ParsePaymentDate(record[colPaymentDate])
	if err != nil {
		return models.Operation{}, err
	}

	operationAmount, err := ParseAmount(record[colOperationAmount])
	if err != nil {
		return models.Operation{}, err
	}
	paymentAmount, err := ParseAmount(record[colPaymentAmount])
	if err != nil {
		return models.Operation{}, err
	}
	cashback, err := ParseAmount(record[colCashback])
	if err != nil {
		return models.Operation{}, err
	}
	investmentAmount, err := ParseAmount(record[colInvestmentAmount])
	if err != nil {
		return models.Operation{}, err
	}
	totalPaymentAmount, err := ParseAmount(record[colTotalPaymentAmount])
	if err != nil {
		return models.Operation{}, err
	}

	return models.Operation{
		OperationDate:      operationDate,
		PaymentDate:        paymentDate,
		CardNumber:         trim(record[colCardNumber]),
		Status:             trim(record[colStatus]),
		OperationAmount:    operationAmount,
		OperationCurrency:  trim(record[colOperationCurrency]),
		PaymentAmount:      paymentAmount,
		PaymentCurrency:    trim(record[colPaymentCurrency]),
		Cashback:           cashback,
		BankCategory:       trim(record[colBankCategory]),
		MCC:                trim(record[colMCC]),
		Description:        trim(record[colDescription]),
		BonusCount:         trim(record[colBonusCount]),
		InvestmentAmount:   investmentAmount,
		TotalPaymentAmount: totalPaymentAmount,
	}, nil
}
