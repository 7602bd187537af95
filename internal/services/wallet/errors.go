package wallet

import "errors"

// Service errors
var (
	ErrWalletNotFound  = errors.New("wallet not found")
	ErrWalletInactive  = errors.New("wallet is inactive")
	ErrInvalidCurrency = errors.New("invalid currency")
	ErrCacheMiss       = errors.New("wallet not cached")
)
