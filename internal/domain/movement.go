package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Movement holds a single balance change of an account.
type Movement struct {
	Amount decimal.Decimal `json:"amount"` // can be negative or positive
	Date   time.Time       `json:"date"`
}

// IsDeposit reports whether the movement increased the balance.
func (m Movement) IsDeposit() bool {
	return m.Amount.IsPositive()
}

// Summary holds the derived totals of an account.
type Summary struct {
	Balance  decimal.Decimal `json:"balance"`
	In       decimal.Decimal `json:"in"`
	Out      decimal.Decimal `json:"out"`
	Interest decimal.Decimal `json:"interest"`
}
