package models

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	ErrInvalidTransaction       = errors.New("invalid transaction")
	ErrDuplicateCurrencyAccount = errors.New("currency account already exists")
	ErrCurrencyAccountNotFound  = errors.New("currency account not found")
	ErrInvalidBankAccount       = errors.New("invalid bank account")
	ErrBankAccountNotFound      = errors.New("bank account not found")
	ErrInsufficientBalance      = errors.New("insufficient balance")
)

// InsufficientBalanceError reports both the requested and the available
// amount so callers can surface the shortfall.
type InsufficientBalanceError struct {
	WalletID  uint
	Requested decimal.Decimal
	Available decimal.Decimal
	Currency  string
}

func (e *InsufficientBalanceError) Error() string {
	return fmt.Sprintf("insufficient balance on wallet %d: requested %s %s, available %s %s",
		e.WalletID, e.Requested.String(), e.Currency, e.Available.String(), e.Currency)
}

// Is lets errors.Is match the package sentinel.
func (e *InsufficientBalanceError) Is(target error) bool {
	return target == ErrInsufficientBalance
}
