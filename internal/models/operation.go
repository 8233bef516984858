// Package models provides the data structures shared by the conversion pipeline.
package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Operation represents a single T-Bank statement row. The first block of
// fields mirrors the 15 columns of the bank's CSV export; the second block
// holds the double-entry fields filled in by the transfer merger and the
// rule engine.
//
// Sign convention for OperationAmount: negative is an outflow, positive an
// inflow. Once DebitAccount and CreditAccount are both set the amount is
// stored as an absolute value and the direction is encoded entirely in which
// side holds the real account.
type Operation struct {
	OperationDate      time.Time       // "Дата операции"
	PaymentDate        time.Time       // "Дата платежа", zero when the bank left it blank
	CardNumber         string          // "Номер карты", raw account token such as "*8878"
	Status             string          // "Статус"
	OperationAmount    decimal.Decimal // "Сумма операции"
	OperationCurrency  string          // "Валюта операции"
	PaymentAmount      decimal.Decimal // "Сумма платежа"
	PaymentCurrency    string          // "Валюта платежа"
	Cashback           decimal.Decimal // "Кэшбэк"
	BankCategory       string          // "Категория", assigned by the bank itself
	MCC                string          // "MCC"
	Description        string          // "Описание"
	BonusCount         string          // "Бонусы (включая кэшбэк)"
	InvestmentAmount   decimal.Decimal // "Округление на инвесткопилку"
	TotalPaymentAmount decimal.Decimal // "Сумма операции с округлением"

	DebitAccount  string // where the money goes
	CreditAccount string // where the money comes from
	Category      string
	Subcategory   string
	Comment       string // always left empty, reserved for manual entry
}

// IsPreMerged reports whether both double-entry accounts are already set,
// which is the case for operations produced by the transfer merger.
func (o *Operation) IsPreMerged() bool {
	return o.DebitAccount != "" && o.CreditAccount != ""
}
