package xlsxwriter

import (
	"fmt"
	"strings"
)

// CellRange describes a fixed column range of rows used in summary formulas.
type CellRange struct {
	StartRow int
	EndRow   int
	Column   string
}

func (r CellRange) ref() string {
	return fmt.Sprintf("$%s$%d:$%s$%d", r.Column, r.StartRow, r.Column, r.EndRow)
}

// SumIfFormula builds a SUMIF over amounts whose category matches.
func SumIfFormula(criteriaRange CellRange, category string, sumRange CellRange) string {
	return fmt.Sprintf(`SUMIF(%s, "%s", %s)`, criteriaRange.ref(), escapeQuotes(category), sumRange.ref())
}

// CountIfFormula builds a COUNTIF over the category column.
func CountIfFormula(criteriaRange CellRange, category string) string {
	return fmt.Sprintf(`COUNTIF(%s, "%s")`, criteriaRange.ref(), escapeQuotes(category))
}

// SumFormula builds a SUM over the given range.
func SumFormula(sumRange CellRange) string {
	return fmt.Sprintf("SUM(%s)", sumRange.ref())
}

// escapeQuotes doubles quotes inside a value embedded in a formula literal.
func escapeQuotes(s string) string {
	return strings.ReplaceAll(s, `"`, `""`)
}
