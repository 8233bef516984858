package xlsxwriter

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"tbank-xlsx/internal/models"
	"tbank-xlsx/internal/report"
	"tbank-xlsx/internal/rules"
)

func testConfig(t *testing.T) *rules.Config {
	t.Helper()
	cfg, err := rules.Parse([]byte(`
categories:
  - "продукты"
  - "зарплата"
  - "Нет категории"
  - "Не учитывать"
category_colors:
  "продукты": "C6EFCE"
`))
	require.NoError(t, err)
	return cfg
}

func testReport() report.Report {
	ops := []models.Operation{
		{
			OperationDate:   time.Date(2026, 1, 30, 19, 32, 0, 0, time.UTC),
			Description:     "Пятёрочка",
			DebitAccount:    "расходы",
			CreditAccount:   "Счёт ТБанка",
			Category:        "продукты",
			OperationAmount: decimal.RequireFromString("2234.86"),
		},
		{
			OperationDate:   time.Date(2026, 1, 12, 10, 0, 0, 0, time.UTC),
			Description:     "Зарплата за январь",
			DebitAccount:    "Счёт ТБанка",
			CreditAccount:   "доходы",
			Category:        "зарплата",
			OperationAmount: decimal.RequireFromString("150000"),
		},
	}
	return report.Build(ops, "RUB", rules.ServiceAccounts{
		Income:  rules.DefaultIncomeAccount,
		Expense: rules.DefaultExpenseAccount,
	})
}

func TestWriter_Write(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.xlsx")
	w := New(testReport(), testConfig(t), nil)
	require.NoError(t, w.Write(path))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer func() {
		require.NoError(t, f.Close())
	}()

	// Sheet is named after the period start month.
	sheets := f.GetSheetList()
	require.Len(t, sheets, 1)
	sheet := sheets[0]
	assert.Equal(t, "January2026", sheet)

	header, err := f.GetCellValue(sheet, "A1")
	require.NoError(t, err)
	assert.Equal(t, "Дата операции", header)

	description, err := f.GetCellValue(sheet, "B2")
	require.NoError(t, err)
	assert.Equal(t, "Пятёрочка", description)

	debit, err := f.GetCellValue(sheet, "C2")
	require.NoError(t, err)
	assert.Equal(t, "расходы", debit)

	category, err := f.GetCellValue(sheet, "E2")
	require.NoError(t, err)
	assert.Equal(t, "продукты", category)
}

func TestWriter_SummaryFormulas(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.xlsx")
	require.NoError(t, New(testReport(), testConfig(t), nil).Write(path))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer func() {
		require.NoError(t, f.Close())
	}()
	sheet := f.GetSheetList()[0]

	// First summary row holds the first configured category with its SUMIF
	// and COUNTIF over the data block.
	category, err := f.GetCellValue(sheet, "J2")
	require.NoError(t, err)
	assert.Equal(t, "продукты", category)

	sumFormula, err := f.GetCellFormula(sheet, "K2")
	require.NoError(t, err)
	assert.Equal(t, `SUMIF($E$2:$E$1000, "продукты", $G$2:$G$1000)`, sumFormula)

	countFormula, err := f.GetCellFormula(sheet, "L2")
	require.NoError(t, err)
	assert.Equal(t, `COUNTIF($E$2:$E$1000, "продукты")`, countFormula)

	// The ignore label is excluded, so three category rows then a blank and
	// the bold total row.
	lastCategory, err := f.GetCellValue(sheet, "J4")
	require.NoError(t, err)
	assert.Equal(t, "Нет категории", lastCategory)

	total, err := f.GetCellValue(sheet, "J6")
	require.NoError(t, err)
	assert.Equal(t, "ИТОГО", total)

	totalFormula, err := f.GetCellFormula(sheet, "K6")
	require.NoError(t, err)
	assert.Equal(t, "SUM($K$2:$K$4)", totalFormula)
}

func TestWriter_EmptyReportUsesDefaultSheetName(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.xlsx")
	rep := report.Build(nil, "RUB", rules.ServiceAccounts{})
	require.NoError(t, New(rep, testConfig(t), nil).Write(path))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer func() {
		require.NoError(t, f.Close())
	}()

	assert.Equal(t, "Операции", f.GetSheetList()[0])
}
