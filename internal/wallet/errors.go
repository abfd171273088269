package wallet

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidAmount       = errors.New("amount must be a positive whole number of credits")
	ErrInsufficientFunds   = errors.New("insufficient funds")
	ErrWalletNotFound      = errors.New("wallet not found")
	ErrWalletExists        = errors.New("wallet already exists")
	ErrDuplicateReference  = errors.New("reference id already applied")
	ErrTransactionNotFound = errors.New("transaction not found")
)

// InsufficientFundsError carries the balance observed inside the locked
// mutation and the amount that was requested.
type InsufficientFundsError struct {
	Balance  int64
	Required int64
}

func (e *InsufficientFundsError) Error() string {
	return fmt.Sprintf("insufficient funds: balance %d, required %d", e.Balance, e.Required)
}

func (e *InsufficientFundsError) Unwrap() error {
	return ErrInsufficientFunds
}
