package models

import (
	"errors"
	"fmt"
	"math/rand"
	"regexp"
	"time"
)

var ErrInvalidTransactionNumber = errors.New("invalid transaction number")

// txnNumberPattern matches TXN-<yyyymmdd>-<hhmmss>-<4 digit random>.
var txnNumberPattern = regexp.MustCompile(`^TXN-\d{8}-\d{6}-\d{4}$`)

// TransactionNumber is a human-readable ledger identifier. Uniqueness comes
// from the timestamp plus a random suffix; numbers are never reused.
type TransactionNumber string

// NewTransactionNumber mints a fresh number from the current time.
func NewTransactionNumber() TransactionNumber {
	now := time.Now()
	return TransactionNumber(fmt.Sprintf("TXN-%s-%s-%04d",
		now.Format("20060102"), now.Format("150405"), rand.Intn(10000)))
}

// ParseTransactionNumber validates a stored value against the expected shape.
func ParseTransactionNumber(s string) (TransactionNumber, error) {
	if !txnNumberPattern.MatchString(s) {
		return "", fmt.Errorf("%w: %q", ErrInvalidTransactionNumber, s)
	}
	return TransactionNumber(s), nil
}

func (n TransactionNumber) String() string { return string(n) }
