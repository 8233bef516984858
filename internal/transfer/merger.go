// Package transfer collapses the two CSV legs of a same-account transfer
// into a single balanced operation. T-Bank records a transfer between the
// user's own accounts as two independent rows, one negative and one positive;
// merging them before classification turns the pair into one double-entry
// record whose accounts are already resolved.
package transfer

import (
	"strings"
	"time"

	"tbank-xlsx/internal/logging"
	"tbank-xlsx/internal/models"
)

// Marker is the description phrase the bank uses for own-account transfers.
const Marker = "между своими счетами"

const (
	// pairSearchWindow is how many subsequent records are inspected when
	// looking for the partner leg.
	pairSearchWindow = 9
	// pairMaxTimeDelta is the maximum timestamp difference between the two
	// legs of one transfer.
	pairMaxTimeDelta = 5 * time.Second
)

// IsOwnTransfer reports whether a description carries the own-account
// transfer marker.
func IsOwnTransfer(description string) bool {
	return strings.Contains(strings.ToLower(description), Marker)
}

// MergePairedTransfers pairs and collapses same-account transfer legs. For
// each marked record it searches the next few records for an unconsumed
// marked partner with the exact opposite amount and a timestamp within five
// seconds; the first hit wins. The merged record takes the absolute amount,
// the positive leg's account token as debit, the negative leg's as credit,
// and everything else from the earlier record. Records without a partner
// pass through unchanged.
//
// The input slice is not modified; the result is a new, never longer slice
// preserving the relative order of all passthrough records.
func MergePairedTransfers(ops []models.Operation, logger logging.Logger) []models.Operation {
	if logger == nil {
		logger = logging.NewLogrusAdapter("info", "text")
	}

	merged := make([]models.Operation, 0, len(ops))
	consumed := make([]bool, len(ops))
	pairs := 0

	for i := range ops {
		if consumed[i] {
			continue
		}
		op := ops[i]
		if !IsOwnTransfer(op.Description) || op.OperationAmount.IsZero() {
			merged = append(merged, op)
			continue
		}

		partner := findPartner(ops, consumed, i)
		if partner < 0 {
			merged = append(merged, op)
			continue
		}

		consumed[partner] = true
		merged = append(merged, mergePair(op, ops[partner]))
		pairs++
	}

	if pairs > 0 {
		logger.WithFields(
			logging.Field{Key: "pairs", Value: pairs},
			logging.Field{Key: "operations", Value: len(merged)},
		).Info("Merged paired transfers")
	}
	return merged
}

// findPartner returns the index of the first matching partner leg for ops[i]
// within the search window, or -1.
func findPartner(ops []models.Operation, consumed []bool, i int) int {
	op := ops[i]
	limit := i + pairSearchWindow
	if limit > len(ops)-1 {
		limit = len(ops) - 1
	}
	for j := i + 1; j <= limit; j++ {
		if consumed[j] {
			continue
		}
		candidate := ops[j]
		if !IsOwnTransfer(candidate.Description) {
			continue
		}
		// Exact opposite sign with equal absolute amount.
		if !candidate.OperationAmount.Equal(op.OperationAmount.Neg()) {
			continue
		}
		delta := candidate.OperationDate.Sub(op.OperationDate)
		if delta < 0 {
			delta = -delta
		}
		if delta > pairMaxTimeDelta {
			continue
		}
		return j
	}
	return -1
}

// mergePair builds the merged record from the earlier leg (first) and its
// partner. Descriptive fields come from the earlier record.
func mergePair(first, partner models.Operation) models.Operation {
	merged := first
	merged.OperationAmount = first.OperationAmount.Abs()

	if first.OperationAmount.IsNegative() {
		// first is the leaving leg, partner the entering one.
		merged.DebitAccount = partner.CardNumber
		merged.CreditAccount = first.CardNumber
	} else {
		merged.DebitAccount = first.CardNumber
		merged.CreditAccount = partner.CardNumber
	}
	return merged
}
