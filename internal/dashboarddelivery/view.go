package dashboarddelivery

import (
	"time"

	"github.com/go-petr/bankist/internal/domain"
	"github.com/go-petr/bankist/pkg/formatpkg"
)

// Movement types shown next to every row.
const (
	TypeDeposit    = "deposit"
	TypeWithdrawal = "withdrawal"
)

type movementRow struct {
	Index int    `json:"index"`
	Type  string `json:"type"`
	Date  string `json:"date"`
	Value string `json:"value"`
}

type summaryView struct {
	In       string `json:"in"`
	Out      string `json:"out"`
	Interest string `json:"interest"`
}

type dashboardView struct {
	Welcome      string        `json:"welcome"`
	Username     string        `json:"username"`
	Date         string        `json:"date"`
	Balance      string        `json:"balance"`
	Summary      summaryView   `json:"summary"`
	Movements    []movementRow `json:"movements"`
	Sorted       bool          `json:"sorted"`
	PendingLoans int           `json:"pending_loans"`
	Timer        string        `json:"timer"`
}

type loggedOutView struct {
	LoggedIn bool   `json:"logged_in"`
	Message  string `json:"message"`
}

// render builds the dashboard shown for a session snapshot.
//
// Rows are listed newest first and numbered from 1 in display order.
func render(state domain.SessionState, f formatpkg.Formatter, now time.Time) dashboardView {
	money := func(m domain.Movement) string {
		return f.Money(m.Amount, state.Locale, state.Currency)
	}

	rows := make([]movementRow, 0, len(state.Movements))
	for i := len(state.Movements) - 1; i >= 0; i-- {
		m := state.Movements[i]

		typ := TypeWithdrawal
		if m.IsDeposit() {
			typ = TypeDeposit
		}

		rows = append(rows, movementRow{
			Index: i + 1,
			Type:  typ,
			Date:  f.MovementDate(m.Date, now, state.Locale),
			Value: money(m),
		})
	}

	return dashboardView{
		Welcome:  "Welcome back, " + formatpkg.FirstName(state.Owner),
		Username: state.Username,
		Date:     f.DateTime(now, state.Locale),
		Balance:  f.Money(state.Summary.Balance, state.Locale, state.Currency),
		Summary: summaryView{
			In:       f.Money(state.Summary.In, state.Locale, state.Currency),
			Out:      f.Money(state.Summary.Out, state.Locale, state.Currency),
			Interest: f.Money(state.Summary.Interest, state.Locale, state.Currency),
		},
		Movements:    rows,
		Sorted:       state.Sorted,
		PendingLoans: state.PendingLoans,
		Timer:        f.Countdown(state.SecondsRemaining),
	}
}
