// Package categorizer assigns double-entry bookkeeping fields to operations:
// debit and credit accounts for every record, plus category and subcategory
// for expenses. One leg of a non-transfer record is always a real account and
// the other a service account ("доходы"/"расходы"); transfers connect two
// real or target accounts.
package categorizer

import (
	"tbank-xlsx/internal/logging"
	"tbank-xlsx/internal/models"
	"tbank-xlsx/internal/rules"
	"tbank-xlsx/internal/transfer"
)

// Categorizer applies the classification rules from an immutable rules
// config. It performs no I/O and never fails: a missing mapping is a valid
// outcome that falls through to the next tier or leaves a field empty for
// manual completion.
type Categorizer struct {
	cfg       *rules.Config
	resolvers []CategoryResolver
	logger    logging.Logger
}

// New creates a Categorizer for one conversion run.
func New(cfg *rules.Config, logger logging.Logger) *Categorizer {
	if logger == nil {
		logger = logging.NewLogrusAdapter("info", "text")
	}
	return &Categorizer{
		cfg:       cfg,
		resolvers: expenseResolvers(),
		logger:    logger,
	}
}

// ApplyDoubleEntry classifies every operation and returns a new slice; the
// input is left untouched. Pre-merged transfers only get their account
// tokens resolved through the alias mapping, so a second pass is a no-op.
func (c *Categorizer) ApplyDoubleEntry(ops []models.Operation) []models.Operation {
	out := make([]models.Operation, len(ops))
	for i := range ops {
		op := ops[i]
		c.classify(&op)
		out[i] = op
	}
	return out
}

func (c *Categorizer) classify(op *models.Operation) {
	// Comment stays empty for the user to fill in.
	op.Comment = ""

	if op.IsPreMerged() {
		op.DebitAccount = c.resolveAccountName(op.DebitAccount)
		op.CreditAccount = c.resolveAccountName(op.CreditAccount)
		op.Category = ""
		op.Subcategory = ""
		return
	}

	isTransfer := transfer.IsOwnTransfer(op.Description) || c.matchesTransferMapping(op.Description)
	account := c.realAccount(op.CardNumber)

	switch {
	case isTransfer:
		// Target account comes from the transfer mapping; no match leaves it
		// empty for manual entry.
		target, _ := c.cfg.TransferAccountMapping.Match(op.Description)
		if op.OperationAmount.IsNegative() {
			op.DebitAccount = target
			op.CreditAccount = account
		} else {
			op.DebitAccount = account
			op.CreditAccount = target
		}
		op.Category = ""
		op.Subcategory = ""

	case op.OperationAmount.IsNegative():
		op.DebitAccount = c.cfg.Settings.ServiceAccounts.Expense
		op.CreditAccount = account
		resolution := c.resolveCategory(op)
		op.Category = resolution.Category
		op.Subcategory = c.resolveSubcategory(op, resolution.Subcategory)

	case op.OperationAmount.IsPositive():
		op.DebitAccount = account
		op.CreditAccount = c.cfg.Settings.ServiceAccounts.Income
		// Income with no mapping match stays blank, never the uncategorized
		// label.
		category, _ := c.cfg.IncomeDescriptionMapping.Match(op.Description)
		op.Category = category
		op.Subcategory = ""
	}

	// Once both accounts are set the direction lives in the accounts, not
	// the sign.
	if op.IsPreMerged() {
		op.OperationAmount = op.OperationAmount.Abs()
	}
}

// resolveCategory runs the expense cascade in priority order.
func (c *Categorizer) resolveCategory(op *models.Operation) Resolution {
	for _, resolver := range c.resolvers {
		if resolution, ok := resolver.Resolve(op, c.cfg); ok {
			c.logger.WithFields(
				logging.Field{Key: "resolver", Value: resolver.Name()},
				logging.Field{Key: "description", Value: op.Description},
				logging.Field{Key: "category", Value: resolution.Category},
			).Debug("Resolved expense category")
			return resolution
		}
	}
	// Unreachable: the fallback resolver always resolves.
	return Resolution{Category: c.cfg.Settings.UncategorizedLabel}
}

// resolveSubcategory prefers a bank-sourced subcategory, then the first
// substring match of the subcategory mapping, then empty.
func (c *Categorizer) resolveSubcategory(op *models.Operation, bankSubcategory string) string {
	if bankSubcategory != "" {
		return bankSubcategory
	}
	subcategory, _ := c.cfg.SubcategoryMapping.Match(op.Description)
	return subcategory
}

// realAccount resolves the account name for a raw card token: alias mapping
// first, then the raw token, then the configured default for blank tokens.
func (c *Categorizer) realAccount(cardNumber string) string {
	if name, ok := c.cfg.AccountMapping[cardNumber]; ok {
		return name
	}
	if cardNumber != "" {
		return cardNumber
	}
	return c.cfg.Settings.DefaultAccount
}

// resolveAccountName maps an already-populated account token through the
// alias mapping, leaving unmapped tokens unchanged.
func (c *Categorizer) resolveAccountName(raw string) string {
	if name, ok := c.cfg.AccountMapping[raw]; ok {
		return name
	}
	return raw
}

func (c *Categorizer) matchesTransferMapping(description string) bool {
	_, ok := c.cfg.TransferAccountMapping.Match(description)
	return ok
}
