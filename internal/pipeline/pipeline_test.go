package pipeline

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"tbank-xlsx/internal/rules"
)

const testRules = `
version: "1.0"
settings:
  default_account: "Счёт ТБанка"
categories:
  - "продукты"
  - "зарплата"
  - "Нет категории"
  - "Не учитывать"
bank_category_mapping:
  "Супермаркеты": "продукты"
income_description_mapping:
  "Зарплата": "зарплата"
account_mapping:
  "*8878": "Счёт ТБанка"
`

const testStatement = `"Дата операции";"Дата платежа";"Номер карты";"Статус";"Сумма операции";"Валюта операции";"Сумма платежа";"Валюта платежа";"Кэшбэк";"Категория";"MCC";"Описание";"Бонусы (включая кэшбэк)";"Округление на инвесткопилку";"Сумма операции с округлением"
"30.01.2026 19:32:00";"31.01.2026";"*8878";"OK";"-2234,86";"RUB";"-2234,86";"RUB";"44";"Супермаркеты";"5411";"Пятёрочка";"44";"0";"2234,86"
"29.01.2026 12:00:00";"29.01.2026";"*8878";"OK";"150000,00";"RUB";"150000,00";"RUB";"";"Пополнения";"";"Зарплата за январь";"0";"0";"150000,00"
"28.01.2026 10:00:00";"28.01.2026";"*8878";"OK";"-30000,00";"RUB";"-30000,00";"RUB";"";"Переводы";"";"Перевод между своими счетами";"0";"0";"30000,00"
"28.01.2026 10:00:02";"28.01.2026";"*1234";"OK";"30000,00";"RUB";"30000,00";"RUB";"";"Переводы";"";"Перевод между своими счетами";"0";"0";"30000,00"
`

func setup(t *testing.T) (*rules.Config, string, string) {
	t.Helper()
	dir := t.TempDir()

	input := filepath.Join(dir, "statement.csv")
	require.NoError(t, os.WriteFile(input, []byte(testStatement), 0600))

	cfg, err := rules.Parse([]byte(testRules))
	require.NoError(t, err)
	return cfg, input, dir
}

func TestPipeline_RunXLSX(t *testing.T) {
	cfg, input, dir := setup(t)
	output := filepath.Join(dir, "report.xlsx")

	rep, err := New(cfg, nil).Run(input, output, FormatXLSX)
	require.NoError(t, err)

	// Four statement rows collapse to three: the two transfer legs merge.
	require.Len(t, rep.Operations, 3)
	assert.Equal(t, []string{"зарплата", "продукты"}, rep.Categories)
	assert.Equal(t, "28.01.2026 - 30.01.2026", rep.Period.String())
	assert.Equal(t, "150000.00 RUB", rep.TotalIncome.String())
	assert.Equal(t, "2234.86 RUB", rep.TotalExpense.String())

	merged := rep.Operations[2]
	assert.Equal(t, "*1234", merged.DebitAccount)
	assert.Equal(t, "Счёт ТБанка", merged.CreditAccount)
	assert.Equal(t, "30000", merged.OperationAmount.String())

	f, err := excelize.OpenFile(output)
	require.NoError(t, err)
	defer func() {
		require.NoError(t, f.Close())
	}()
	description, err := f.GetCellValue(f.GetSheetList()[0], "B2")
	require.NoError(t, err)
	assert.Equal(t, "Пятёрочка", description)
}

func TestPipeline_RunCSV(t *testing.T) {
	cfg, input, dir := setup(t)
	output := filepath.Join(dir, "report.csv")

	_, err := New(cfg, nil).Run(input, output, FormatCSV)
	require.NoError(t, err)

	data, err := os.ReadFile(output)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Пятёрочка")
	assert.Contains(t, string(data), "расходы")
}

func TestPipeline_UnsupportedFormat(t *testing.T) {
	cfg, input, dir := setup(t)

	_, err := New(cfg, nil).Run(input, filepath.Join(dir, "out.pdf"), "pdf")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported output format")
}

func TestPipeline_MissingInput(t *testing.T) {
	cfg, _, dir := setup(t)

	_, err := New(cfg, nil).Run(filepath.Join(dir, "missing.csv"), filepath.Join(dir, "out.xlsx"), FormatXLSX)
	assert.Error(t, err)
}

func TestPipeline_EmptyStatement(t *testing.T) {
	cfg, _, dir := setup(t)

	input := filepath.Join(dir, "headers-only.csv")
	header := testStatement[:len(`"Дата операции";"Дата платежа";"Номер карты";"Статус";"Сумма операции";"Валюта операции";"Сумма платежа";"Валюта платежа";"Кэшбэк";"Категория";"MCC";"Описание";"Бонусы (включая кэшбэк)";"Округление на инвесткопилку";"Сумма операции с округлением"`)+1]
	require.NoError(t, os.WriteFile(input, []byte(header), 0600))

	_, err := New(cfg, nil).Run(input, filepath.Join(dir, "out.xlsx"), FormatXLSX)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no operations")
}
