package models

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMoney(t *testing.T) {
	tests := []struct {
		name     string
		value    string
		currency string
		wantErr  error
	}{
		{name: "whole rial amount", value: "50000", currency: "IRR"},
		{name: "two decimal usd", value: "19.99", currency: "USD"},
		{name: "zero is allowed", value: "0", currency: "IRR"},
		{name: "negative rejected", value: "-1", currency: "IRR", wantErr: ErrInvalidAmount},
		{name: "fractional rial rejected", value: "100.5", currency: "IRR", wantErr: ErrInvalidAmount},
		{name: "three decimals rejected", value: "19.999", currency: "USD", wantErr: ErrInvalidAmount},
		{name: "missing currency rejected", value: "100", currency: "", wantErr: ErrInvalidAmount},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			value, err := decimal.NewFromString(tt.value)
			require.NoError(t, err)

			m, err := NewMoney(value, tt.currency)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.True(t, m.Value().Equal(value))
			assert.Equal(t, tt.currency, m.Currency())
		})
	}
}

func TestMoneyArithmetic(t *testing.T) {
	hundred, err := NewMoney(decimal.NewFromInt(100), "IRR")
	require.NoError(t, err)
	forty, err := NewMoney(decimal.NewFromInt(40), "IRR")
	require.NoError(t, err)

	t.Run("add", func(t *testing.T) {
		sum, err := hundred.Add(forty)
		require.NoError(t, err)
		assert.True(t, sum.Value().Equal(decimal.NewFromInt(140)))
		// receiver unchanged
		assert.True(t, hundred.Value().Equal(decimal.NewFromInt(100)))
	})

	t.Run("subtract may go negative", func(t *testing.T) {
		diff, err := forty.Subtract(hundred)
		require.NoError(t, err)
		assert.True(t, diff.IsNegative())
	})

	t.Run("currency mismatch", func(t *testing.T) {
		usd, err := NewMoney(decimal.NewFromInt(40), "USD")
		require.NoError(t, err)
		_, err = hundred.Add(usd)
		assert.ErrorIs(t, err, ErrCurrencyMismatch)
		_, err = hundred.Subtract(usd)
		assert.ErrorIs(t, err, ErrCurrencyMismatch)
	})

	t.Run("multiply rounds to currency precision", func(t *testing.T) {
		fee := hundred.Multiply(decimal.NewFromFloat(0.005))
		// 0.5 IRR rounds to a whole rial
		assert.True(t, fee.Value().Equal(decimal.NewFromInt(1)), "got %s", fee.Value())

		usd, _ := NewMoney(decimal.RequireFromString("10.99"), "USD")
		scaled := usd.Multiply(decimal.NewFromFloat(0.1))
		assert.True(t, scaled.Value().Equal(decimal.RequireFromString("1.10")), "got %s", scaled.Value())
	})

	t.Run("comparisons", func(t *testing.T) {
		assert.True(t, hundred.GreaterThan(forty))
		assert.True(t, hundred.GreaterThanOrEqual(hundred))
		assert.False(t, forty.GreaterThan(hundred))
	})
}

func TestMoneyEqual(t *testing.T) {
	a, _ := NewMoney(decimal.NewFromInt(10), "IRR")
	b, _ := NewMoney(decimal.NewFromInt(10), "IRR")
	c, _ := NewMoney(decimal.NewFromInt(10), "USD")

	assert.True(t, a.Equal(b))
	assert.False(t, a.Equal(c))
	assert.True(t, Zero("IRR").IsZero())
	assert.Equal(t, "10 IRR", a.String())
}
