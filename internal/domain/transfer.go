package domain

import (
	"errors"
)

var (
	// ErrInvalidAmount indicates invalid amount.
	ErrInvalidAmount = errors.New("invalid amount")
	// ErrInsufficientBalance indicates that the account does not have sufficient balance.
	ErrInsufficientBalance = errors.New("insufficient balance")
	// ErrUnknownRecipient indicates that the transfer recipient does not exist.
	ErrUnknownRecipient = errors.New("unknown recipient")
	// ErrSelfTransfer indicates that the recipient is the sender.
	ErrSelfTransfer = errors.New("cannot transfer to the same account")
	// ErrLoanNotApproved indicates that no movement covers the required share of the loan.
	ErrLoanNotApproved = errors.New("loan not approved")
)
