package models

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// DefaultCurrency is the platform's base currency.
const DefaultCurrency = "IRR"

var (
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrCurrencyMismatch = errors.New("currency mismatch")
)

// Money is an immutable amount in a single currency. IRR amounts carry no
// fractional digits; every other currency allows two. Arithmetic never
// mutates the receiver.
type Money struct {
	value    decimal.Decimal
	currency string
}

// DecimalPlaces returns the number of fractional digits allowed for a currency.
func DecimalPlaces(currency string) int32 {
	if currency == DefaultCurrency {
		return 0
	}
	return 2
}

// NewMoney builds a Money value, rejecting negative amounts and amounts that
// carry more fractional digits than the currency allows.
func NewMoney(value decimal.Decimal, currency string) (Money, error) {
	if currency == "" {
		return Money{}, fmt.Errorf("%w: currency is required", ErrInvalidAmount)
	}
	if value.IsNegative() {
		return Money{}, fmt.Errorf("%w: amount cannot be negative", ErrInvalidAmount)
	}
	if !value.Equal(value.Truncate(DecimalPlaces(currency))) {
		return Money{}, fmt.Errorf("%w: %s does not conform to %s precision", ErrInvalidAmount, value.String(), currency)
	}
	return Money{value: value, currency: currency}, nil
}

// Zero returns a zero-valued Money in the given currency.
func Zero(currency string) Money {
	return Money{value: decimal.Zero, currency: currency}
}

func (m Money) Value() decimal.Decimal { return m.value }
func (m Money) Currency() string       { return m.currency }
func (m Money) IsZero() bool           { return m.value.IsZero() }
func (m Money) IsNegative() bool       { return m.value.IsNegative() }
func (m Money) String() string         { return m.value.String() + " " + m.currency }

// Equal reports value semantics: same amount and same currency.
func (m Money) Equal(other Money) bool {
	return m.currency == other.currency && m.value.Equal(other.value)
}

// Add returns the sum of two amounts in the same currency.
func (m Money) Add(other Money) (Money, error) {
	if m.currency != other.currency {
		return Money{}, fmt.Errorf("%w: %s vs %s", ErrCurrencyMismatch, m.currency, other.currency)
	}
	return Money{value: m.value.Add(other.value), currency: m.currency}, nil
}

// Subtract returns the difference of two amounts in the same currency. The
// result may be negative; sufficiency is the caller's check, not Money's.
func (m Money) Subtract(other Money) (Money, error) {
	if m.currency != other.currency {
		return Money{}, fmt.Errorf("%w: %s vs %s", ErrCurrencyMismatch, m.currency, other.currency)
	}
	return Money{value: m.value.Sub(other.value), currency: m.currency}, nil
}

// Multiply scales the amount by a factor, rounding the result to the
// currency's precision.
func (m Money) Multiply(factor decimal.Decimal) Money {
	scaled := m.value.Mul(factor).Round(DecimalPlaces(m.currency))
	return Money{value: scaled, currency: m.currency}
}

// GreaterThanOrEqual compares amounts; currencies must already match.
func (m Money) GreaterThanOrEqual(other Money) bool {
	return m.value.GreaterThanOrEqual(other.value)
}

// GreaterThan compares amounts; currencies must already match.
func (m Money) GreaterThan(other Money) bool {
	return m.value.GreaterThan(other.value)
}
