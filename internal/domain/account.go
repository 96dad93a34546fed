// Package domain provides defenitions of all entities.
package domain

import (
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

var (
	// ErrAccountNotFound indicates that the account is not found.
	ErrAccountNotFound = errors.New("account not found")
	// ErrUsernameAlreadyExists indicates that the account with the derived username already exists.
	ErrUsernameAlreadyExists = errors.New("username already exists")
	// ErrEmptyOwner indicates that the account owner name is blank.
	ErrEmptyOwner = errors.New("empty owner")
	// ErrUnsupportedCurrency indicates that the account currency is not supported.
	ErrUnsupportedCurrency = errors.New("unsupported currency")
)

// Account holds the customer data and movements history.
//
// Balance is not stored, it is derived from Movements by the ledger.
type Account struct {
	Owner        string          `json:"owner"`
	Username     string          `json:"username"`
	PIN          int             `json:"-"`
	Movements    []Movement      `json:"movements"`
	InterestRate decimal.Decimal `json:"interest_rate"`
	Currency     string          `json:"currency"`
	Locale       string          `json:"locale"`
}

// CreateAccountParams is the input data to create an account.
type CreateAccountParams struct {
	Owner        string
	PIN          int
	InterestRate decimal.Decimal
	Currency     string
	Locale       string
	Movements    []Movement
}

// Username derives the login name from the owner name: the lowercased first
// letter of every word, e.g. "Jonas Schmedtmann" becomes "js".
func Username(owner string) string {
	var sb strings.Builder

	for _, word := range strings.Fields(strings.ToLower(owner)) {
		r, _ := utf8.DecodeRuneInString(word)
		sb.WriteRune(r)
	}

	return sb.String()
}
