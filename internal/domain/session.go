package domain

import (
	"errors"

	"github.com/google/uuid"
)

var (
	// ErrInvalidCredentials indicates that the username or the pin is wrong.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrNoActiveSession indicates that nobody is logged in.
	ErrNoActiveSession = errors.New("no active session")
	// ErrCredentialMismatch indicates that the confirmation does not match the logged in account.
	ErrCredentialMismatch = errors.New("credentials do not match the current account")
)

// SessionState is the snapshot of the current session rendered by the dashboard.
//
// The zero value represents the logged out state.
type SessionState struct {
	LoggedIn         bool       `json:"logged_in"`
	ID               uuid.UUID  `json:"id"`
	Owner            string     `json:"owner"`
	Username         string     `json:"username"`
	Currency         string     `json:"currency"`
	Locale           string     `json:"locale"`
	SecondsRemaining int        `json:"seconds_remaining"`
	Sorted           bool       `json:"sorted"`
	Movements        []Movement `json:"movements"`
	Summary          Summary    `json:"summary"`
	PendingLoans     int        `json:"pending_loans"`
}
