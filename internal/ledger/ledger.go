// Package ledger computes balances and summaries over an account's movements.
package ledger

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/go-petr/bankist/internal/domain"
)

var (
	hundred = decimal.NewFromInt(100)
	// minInterest is the smallest interest the bank pays for a single deposit.
	minInterest = decimal.NewFromInt(1)
)

// Balance returns the sum of all movements.
func Balance(acc domain.Account) decimal.Decimal {
	sum := decimal.Zero
	for _, m := range acc.Movements {
		sum = sum.Add(m.Amount)
	}

	return sum
}

// TotalInflow returns the sum of all deposits.
func TotalInflow(acc domain.Account) decimal.Decimal {
	sum := decimal.Zero
	for _, m := range acc.Movements {
		if m.Amount.IsPositive() {
			sum = sum.Add(m.Amount)
		}
	}

	return sum
}

// TotalOutflow returns the absolute sum of all withdrawals.
func TotalOutflow(acc domain.Account) decimal.Decimal {
	sum := decimal.Zero
	for _, m := range acc.Movements {
		if m.Amount.IsNegative() {
			sum = sum.Add(m.Amount)
		}
	}

	return sum.Abs()
}

// InterestEarned returns the interest paid on deposits.
//
// Interest is computed per deposit and amounts below one unit are not paid.
func InterestEarned(acc domain.Account) decimal.Decimal {
	sum := decimal.Zero
	for _, m := range acc.Movements {
		if !m.Amount.IsPositive() {
			continue
		}

		interest := m.Amount.Mul(acc.InterestRate).Div(hundred)
		if interest.LessThan(minInterest) {
			continue
		}

		sum = sum.Add(interest)
	}

	return sum
}

// Summarize returns balance, inflow, outflow and interest of the account.
func Summarize(acc domain.Account) domain.Summary {
	return domain.Summary{
		Balance:  Balance(acc),
		In:       TotalInflow(acc),
		Out:      TotalOutflow(acc),
		Interest: InterestEarned(acc),
	}
}

// RecordMovement appends the amount dated at the given time to the account history.
//
// The sign is not validated, callers enforce the business rules.
func RecordMovement(acc *domain.Account, amount decimal.Decimal, at time.Time) {
	acc.Movements = append(acc.Movements, domain.Movement{Amount: amount, Date: at})
}

// SortedView returns a copy of the movements ordered by amount.
//
// Movements with equal amounts keep their chronological order.
func SortedView(acc domain.Account, ascending bool) []domain.Movement {
	view := make([]domain.Movement, len(acc.Movements))
	copy(view, acc.Movements)

	sort.SliceStable(view, func(i, j int) bool {
		if ascending {
			return view[i].Amount.LessThan(view[j].Amount)
		}
		return view[i].Amount.GreaterThan(view[j].Amount)
	})

	return view
}

// HasMovementAtLeast reports whether any single movement is greater or equal to min.
func HasMovementAtLeast(acc domain.Account, min decimal.Decimal) bool {
	for _, m := range acc.Movements {
		if m.Amount.GreaterThanOrEqual(min) {
			return true
		}
	}

	return false
}
