// Package report aggregates a finished operation sequence into the reporting
// window, the distinct category set and the income/expense totals consumed by
// the spreadsheet renderer.
package report

import (
	"fmt"
	"sort"
	"time"

	"tbank-xlsx/internal/models"
	"tbank-xlsx/internal/rules"
)

// DateRange represents the reporting window with start and end dates. Both
// are zero when no operation carried a timestamp.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// IsZero reports whether the range is undefined.
func (dr DateRange) IsZero() bool {
	return dr.Start.IsZero() || dr.End.IsZero()
}

// String returns the range in the format "DD.MM.YYYY - DD.MM.YYYY".
func (dr DateRange) String() string {
	if dr.IsZero() {
		return ""
	}
	return fmt.Sprintf("%s - %s",
		dr.Start.Format("02.01.2006"),
		dr.End.Format("02.01.2006"))
}

// Extend widens the range to include t; zero times are ignored.
func (dr DateRange) Extend(t time.Time) DateRange {
	if t.IsZero() {
		return dr
	}
	if dr.Start.IsZero() || t.Before(dr.Start) {
		dr.Start = t
	}
	if dr.End.IsZero() || t.After(dr.End) {
		dr.End = t
	}
	return dr
}

// Report is the aggregate handed to rendering: the classified operations in
// order plus derived statistics.
type Report struct {
	Operations   []models.Operation
	Categories   []string // distinct non-empty categories, sorted
	Period       DateRange
	TotalIncome  models.Money
	TotalExpense models.Money
}

// Build computes the report for a classified operation sequence. Totals are
// positive magnitudes in the given currency, summed without conversion.
// Classified amounts are absolute, so the totals key off the service
// accounts: an operation counts as expense when its debit is the expense
// account and as income when its credit is the income account. Own-account
// transfers match neither and count into no total. Unclassified records,
// with both accounts still empty, fall back to the amount sign.
func Build(ops []models.Operation, currency string, svc rules.ServiceAccounts) Report {
	r := Report{
		Operations:   ops,
		TotalIncome:  models.ZeroMoney(currency),
		TotalExpense: models.ZeroMoney(currency),
	}

	seen := make(map[string]struct{})
	for i := range ops {
		op := &ops[i]
		r.Period = r.Period.Extend(op.OperationDate)
		if op.Category != "" {
			seen[op.Category] = struct{}{}
		}
		switch {
		case op.DebitAccount == svc.Expense && op.DebitAccount != "":
			r.TotalExpense.Amount = r.TotalExpense.Amount.Add(op.OperationAmount.Abs())
		case op.CreditAccount == svc.Income && op.CreditAccount != "":
			r.TotalIncome.Amount = r.TotalIncome.Amount.Add(op.OperationAmount.Abs())
		case op.DebitAccount == "" && op.CreditAccount == "":
			if op.OperationAmount.IsPositive() {
				r.TotalIncome.Amount = r.TotalIncome.Amount.Add(op.OperationAmount)
			} else {
				r.TotalExpense.Amount = r.TotalExpense.Amount.Add(op.OperationAmount.Abs())
			}
		}
	}

	r.Categories = make([]string, 0, len(seen))
	for category := range seen {
		r.Categories = append(r.Categories, category)
	}
	sort.Strings(r.Categories)
	return r
}
