package tbankparser

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Date layouts used by T-Bank CSV exports.
const (
	DateTimeLayout = "02.01.2006 15:04:05"
	DateLayout     = "02.01.2006"
)

// ParseDate parses a T-Bank timestamp such as "30.01.2026 19:32:00".
func ParseDate(dateStr string) (time.Time, error) {
	t, err := time.Parse(DateTimeLayout, strings.TrimSpace(dateStr))
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date format: '%s'", dateStr)
	}
	return t, nil
}

// ParsePaymentDate parses the settlement date column, which the bank writes
// either with a time component or as a bare date, and sometimes leaves blank.
// A blank value yields the zero time.
func ParsePaymentDate(dateStr string) (time.Time, error) {
	dateStr = strings.TrimSpace(dateStr)
	if dateStr == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(DateTimeLayout, dateStr); err == nil {
		return t, nil
	}
	t, err := time.Parse(DateLayout, dateStr)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date format: '%s'", dateStr)
	}
	return t, nil
}

// trim normalizes a raw CSV value.
func trim(s string) string {
	return strings.TrimSpace(s)
}

// ParseAmount parses a T-Bank amount such as "-2234,86". The bank uses a
// comma as the decimal separator; blank values mean zero.
func ParseAmount(amountStr string) (decimal.Decimal, error) {
	amountStr = strings.TrimSpace(amountStr)
	if amountStr == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(strings.ReplaceAll(amountStr, ",", "."))
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid amount format: '%s'", amountStr)
	}
	return d, nil
}
