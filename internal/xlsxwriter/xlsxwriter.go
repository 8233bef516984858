// Package xlsxwriter renders a classified report to an XLSX workbook: one
// data block with the double-entry columns and a summary block with
// per-category SUMIF/COUNTIF formulas, so the spreadsheet keeps recalculating
// after manual edits.
package xlsxwriter

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"tbank-xlsx/internal/logging"
	"tbank-xlsx/internal/report"
	"tbank-xlsx/internal/rules"
)

// Data columns (1-based).
const (
	colDate = iota + 1
	colDescription
	colDebit
	colCredit
	colCategory
	colSubcategory
	colAmount
	colComment
)

// Summary columns, to the right of the data with one spacer column.
const (
	colSummaryCategory = colComment + 2
	colSummarySum      = colSummaryCategory + 1
	colSummaryCount    = colSummaryCategory + 2
)

// summaryFormulaRows is how far down the summary formulas reach, leaving room
// for rows added by hand.
const summaryFormulaRows = 1000

var headers = []string{
	"Дата операции",
	"Описание",
	"Дебет",
	"Кредит",
	"Категория",
	"Подкатегория",
	"Сумма",
	"Комментарий",
}

const currencyNumberFormat = `#,##0.00 "₽"`

// Writer renders one report with one rules config.
type Writer struct {
	report report.Report
	cfg    *rules.Config
	logger logging.Logger
}

// New creates a Writer for the given report and rules.
func New(rep report.Report, cfg *rules.Config, logger logging.Logger) *Writer {
	if logger == nil {
		logger = logging.NewLogrusAdapter("info", "text")
	}
	return &Writer{report: rep, cfg: cfg, logger: logger}
}

// Write renders the workbook and saves it to outputPath.
func (w *Writer) Write(outputPath string) error {
	f := excelize.NewFile()
	defer func() {
		if err := f.Close(); err != nil {
			w.logger.WithError(err).Warn("Failed to close workbook")
		}
	}()

	sheet := w.sheetName()
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return fmt.Errorf("error naming sheet: %w", err)
	}

	if err := w.writeHeader(f, sheet); err != nil {
		return err
	}
	dataEndRow, err := w.writeData(f, sheet)
	if err != nil {
		return err
	}
	if err := w.writeSummary(f, sheet); err != nil {
		return err
	}
	if err := w.applyStyles(f, sheet, dataEndRow); err != nil {
		return err
	}
	if err := w.applyConditionalFormatting(f, sheet, dataEndRow); err != nil {
		return err
	}
	if err := w.setColumnWidths(f, sheet); err != nil {
		return err
	}

	if err := f.SaveAs(outputPath); err != nil {
		return fmt.Errorf("error saving workbook: %w", err)
	}
	w.logger.WithFields(
		logging.Field{Key: "file", Value: outputPath},
		logging.Field{Key: "operations", Value: len(w.report.Operations)},
	).Info("Wrote XLSX report")
	return nil
}

// sheetName derives the sheet name from the report period. Excel caps sheet
// names at 31 characters.
func (w *Writer) sheetName() string {
	name := "Операции"
	if !w.report.Period.IsZero() {
		name = w.report.Period.Start.Format("January2006")
	}
	runes := []rune(name)
	if len(runes) > 31 {
		runes = runes[:31]
	}
	return string(runes)
}

func (w *Writer) writeHeader(f *excelize.File, sheet string) error {
	style, err := headerStyle(f)
	if err != nil {
		return err
	}
	for i, header := range headers {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, header); err != nil {
			return fmt.Errorf("error writing header: %w", err)
		}
		if err := f.SetCellStyle(sheet, cell, cell, style); err != nil {
			return err
		}
	}
	return nil
}

// writeData writes the operation rows and returns the last data row number.
func (w *Writer) writeData(f *excelize.File, sheet string) (int, error) {
	for i := range w.report.Operations {
		op := &w.report.Operations[i]
		row := i + 2

		values := map[int]interface{}{
			colDate:        op.OperationDate.Format("02.01.2006 15:04:05"),
			colDescription: op.Description,
			colDebit:       op.DebitAccount,
			colCredit:      op.CreditAccount,
			colCategory:    op.Category,
			colSubcategory: op.Subcategory,
			colAmount:      op.OperationAmount.InexactFloat64(),
			colComment:     op.Comment,
		}
		for col, value := range values {
			cell, err := excelize.CoordinatesToCellName(col, row)
			if err != nil {
				return 0, err
			}
			if err := f.SetCellValue(sheet, cell, value); err != nil {
				return 0, fmt.Errorf("error writing row %d: %w", row, err)
			}
		}
	}
	return len(w.report.Operations) + 1, nil
}

// writeSummary writes the per-category summary block. Every category from the
// rules file is listed, except the ignore label, so zero-amount categories
// stay available for manual use.
func (w *Writer) writeSummary(f *excelize.File, sheet string) error {
	headerStyleID, err := headerStyle(f)
	if err != nil {
		return err
	}

	summaryHeaders := map[int]string{
		colSummaryCategory: "Категория",
		colSummarySum:      "Сумма",
		colSummaryCount:    "Операций",
	}
	for col, header := range summaryHeaders {
		cell, err := excelize.CoordinatesToCellName(col, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, header); err != nil {
			return err
		}
		if err := f.SetCellStyle(sheet, cell, cell, headerStyleID); err != nil {
			return err
		}
	}

	categoryCol, err := excelize.ColumnNumberToName(colCategory)
	if err != nil {
		return err
	}
	amountCol, err := excelize.ColumnNumberToName(colAmount)
	if err != nil {
		return err
	}
	categoryRange := CellRange{StartRow: 2, EndRow: summaryFormulaRows, Column: categoryCol}
	amountRange := CellRange{StartRow: 2, EndRow: summaryFormulaRows, Column: amountCol}

	row := 2
	for _, category := range w.cfg.Categories {
		if category == w.cfg.Settings.IgnoreLabel {
			continue
		}

		categoryCell, err := excelize.CoordinatesToCellName(colSummaryCategory, row)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, categoryCell, category); err != nil {
			return err
		}
		if color, ok := w.cfg.CategoryColors[category]; ok {
			fillID, err := fillStyle(f, color)
			if err != nil {
				return err
			}
			if err := f.SetCellStyle(sheet, categoryCell, categoryCell, fillID); err != nil {
				return err
			}
		}

		sumCell, err := excelize.CoordinatesToCellName(colSummarySum, row)
		if err != nil {
			return err
		}
		if err := f.SetCellFormula(sheet, sumCell, SumIfFormula(categoryRange, category, amountRange)); err != nil {
			return err
		}

		countCell, err := excelize.CoordinatesToCellName(colSummaryCount, row)
		if err != nil {
			return err
		}
		if err := f.SetCellFormula(sheet, countCell, CountIfFormula(categoryRange, category)); err != nil {
			return err
		}
		row++
	}

	// Total row below the categories.
	totalRow := row + 1
	boldID, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	totalLabelCell, err := excelize.CoordinatesToCellName(colSummaryCategory, totalRow)
	if err != nil {
		return err
	}
	if err := f.SetCellValue(sheet, totalLabelCell, "ИТОГО"); err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, totalLabelCell, totalLabelCell, boldID); err != nil {
		return err
	}

	sumCol, err := excelize.ColumnNumberToName(colSummarySum)
	if err != nil {
		return err
	}
	totalCell, err := excelize.CoordinatesToCellName(colSummarySum, totalRow)
	if err != nil {
		return err
	}
	totalRange := CellRange{StartRow: 2, EndRow: row - 1, Column: sumCol}
	if err := f.SetCellFormula(sheet, totalCell, SumFormula(totalRange)); err != nil {
		return err
	}
	return f.SetCellStyle(sheet, totalCell, totalCell, boldID)
}

func (w *Writer) applyStyles(f *excelize.File, sheet string, dataEndRow int) error {
	numFmt := currencyNumberFormat
	amountStyle, err := f.NewStyle(&excelize.Style{
		CustomNumFmt: &numFmt,
		Alignment:    &excelize.Alignment{Horizontal: "right"},
	})
	if err != nil {
		return err
	}

	if dataEndRow >= 2 {
		start, err := excelize.CoordinatesToCellName(colAmount, 2)
		if err != nil {
			return err
		}
		end, err := excelize.CoordinatesToCellName(colAmount, dataEndRow)
		if err != nil {
			return err
		}
		if err := f.SetCellStyle(sheet, start, end, amountStyle); err != nil {
			return err
		}
	}

	// Summary amounts: format a generous range since rows may be added later.
	start, err := excelize.CoordinatesToCellName(colSummarySum, 2)
	if err != nil {
		return err
	}
	end, err := excelize.CoordinatesToCellName(colSummarySum, 2+len(w.cfg.Categories)+2)
	if err != nil {
		return err
	}
	return f.SetCellStyle(sheet, start, end, amountStyle)
}

// applyConditionalFormatting colors data and summary rows by category using
// the colors from the rules file.
func (w *Writer) applyConditionalFormatting(f *excelize.File, sheet string, dataEndRow int) error {
	if len(w.cfg.CategoryColors) == 0 || dataEndRow < 2 {
		return nil
	}

	categoryCol, err := excelize.ColumnNumberToName(colCategory)
	if err != nil {
		return err
	}
	lastCol, err := excelize.ColumnNumberToName(colComment)
	if err != nil {
		return err
	}
	dataRange := fmt.Sprintf("A2:%s%d", lastCol, dataEndRow)

	summaryCol, err := excelize.ColumnNumberToName(colSummaryCategory)
	if err != nil {
		return err
	}
	summaryRange := fmt.Sprintf("%s2:%s%d", summaryCol, summaryCol, 2+len(w.cfg.Categories))

	for _, category := range w.cfg.Categories {
		color, ok := w.cfg.CategoryColors[category]
		if !ok {
			continue
		}
		fillID, err := fillStyle(f, color)
		if err != nil {
			return err
		}

		criteria := fmt.Sprintf(`$%s2="%s"`, categoryCol, escapeQuotes(category))
		opts := []excelize.ConditionalFormatOptions{{
			Type:       "formula",
			Criteria:   criteria,
			Format:     &fillID,
			StopIfTrue: true,
		}}
		if err := f.SetConditionalFormat(sheet, dataRange, opts); err != nil {
			return err
		}

		if category == w.cfg.Settings.IgnoreLabel {
			continue
		}
		summaryCriteria := fmt.Sprintf(`$%s2="%s"`, summaryCol, escapeQuotes(category))
		summaryOpts := []excelize.ConditionalFormatOptions{{
			Type:       "formula",
			Criteria:   summaryCriteria,
			Format:     &fillID,
			StopIfTrue: true,
		}}
		if err := f.SetConditionalFormat(sheet, summaryRange, summaryOpts); err != nil {
			return err
		}
	}
	return nil
}

func (w *Writer) setColumnWidths(f *excelize.File, sheet string) error {
	widths := map[int]float64{
		colDate:            20,
		colDescription:     50,
		colDebit:           20,
		colCredit:          20,
		colCategory:        25,
		colSubcategory:     20,
		colAmount:          18,
		colComment:         30,
		colSummaryCategory: 25,
		colSummarySum:      18,
		colSummaryCount:    12,
	}
	for col, width := range widths {
		name, err := excelize.ColumnNumberToName(col)
		if err != nil {
			return err
		}
		if err := f.SetColWidth(sheet, name, name, width); err != nil {
			return err
		}
	}
	return nil
}

func headerStyle(f *excelize.File) (int, error) {
	return f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"D3D3D3"}, Pattern: 1},
		Alignment: &excelize.Alignment{
			Horizontal: "center",
			Vertical:   "center",
		},
	})
}

func fillStyle(f *excelize.File, color string) (int, error) {
	return f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Color: []string{color}, Pattern: 1},
	})
}
