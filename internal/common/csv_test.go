package common

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tbank-xlsx/internal/models"
)

func TestWriteOperationsToCSV(t *testing.T) {
	ops := []models.Operation{
		{
			OperationDate:     time.Date(2026, 1, 30, 19, 32, 0, 0, time.UTC),
			Description:       "Пятёрочка",
			DebitAccount:      "расходы",
			CreditAccount:     "Счёт ТБанка",
			Category:          "продукты",
			OperationAmount:   decimal.RequireFromString("2234.86"),
			OperationCurrency: "RUB",
		},
	}

	path := filepath.Join(t.TempDir(), "out", "operations.csv")
	require.NoError(t, WriteOperationsToCSV(ops, path, nil))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	content := string(data)
	assert.Contains(t, content, "Date,Description,Debit,Credit,Category,Subcategory,Amount,Currency,Comment")
	assert.Contains(t, content, "30.01.2026 19:32:00")
	assert.Contains(t, content, "Пятёрочка")
	assert.Contains(t, content, "2234.86")
}

func TestWriteOperationsToCSV_NilOperations(t *testing.T) {
	err := WriteOperationsToCSV(nil, filepath.Join(t.TempDir(), "out.csv"), nil)
	assert.Error(t, err)
}

func TestWriteOperationsToCSV_EmptySlice(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.csv")
	require.NoError(t, WriteOperationsToCSV([]models.Operation{}, path, nil))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Date,Description")
}
