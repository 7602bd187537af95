package models

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestWallet(t *testing.T, currency string, balance int64) (*Wallet, *CurrencyAccount) {
	t.Helper()
	w := &Wallet{ID: 1, UserID: 1, Active: true}
	account, err := w.CreateCurrencyAccount(currency)
	require.NoError(t, err)
	account.Balance = decimal.NewFromInt(balance)
	return w, account
}

func TestWalletCreateCurrencyAccount(t *testing.T) {
	w, _ := newTestWallet(t, "IRR", 0)

	_, err := w.CreateCurrencyAccount("IRR")
	assert.ErrorIs(t, err, ErrDuplicateCurrencyAccount)

	usd, err := w.CreateCurrencyAccount("USD")
	require.NoError(t, err)
	assert.True(t, usd.Balance.IsZero())
	assert.True(t, usd.Active)
	assert.Len(t, w.Accounts, 2)
}

func TestWalletGetCurrencyAccountSkipsInactive(t *testing.T) {
	w, account := newTestWallet(t, "IRR", 100)
	account.Active = false

	_, ok := w.GetCurrencyAccount("IRR")
	assert.False(t, ok)

	// Reopening the currency after closure is allowed.
	_, err := w.CreateCurrencyAccount("IRR")
	assert.NoError(t, err)
}

func TestCurrencyAccountProcessDeposit(t *testing.T) {
	_, account := newTestWallet(t, "IRR", 1000)

	tx := newTestTransaction(TransactionStatusPending)
	require.NoError(t, account.ProcessDeposit(tx))
	assert.True(t, account.Balance.Equal(decimal.NewFromInt(2000)))
	assert.Equal(t, TransactionStatusCompleted, tx.Status)
	assert.NotNil(t, tx.ProcessedAt)

	t.Run("settled transaction cannot apply twice", func(t *testing.T) {
		err := account.ProcessDeposit(tx)
		assert.ErrorIs(t, err, ErrInvalidTransaction)
		assert.True(t, account.Balance.Equal(decimal.NewFromInt(2000)))
	})

	t.Run("direction must be in", func(t *testing.T) {
		out := newTestTransaction(TransactionStatusPending)
		out.Direction = DirectionOut
		assert.ErrorIs(t, account.ProcessDeposit(out), ErrInvalidTransaction)
	})

	t.Run("currency must match account", func(t *testing.T) {
		usd := newTestTransaction(TransactionStatusPending)
		usd.Currency = "USD"
		assert.ErrorIs(t, account.ProcessDeposit(usd), ErrCurrencyMismatch)
	})
}

func TestCurrencyAccountProcessTransfer(t *testing.T) {
	amount, err := NewMoney(decimal.NewFromInt(600), "IRR")
	require.NoError(t, err)

	t.Run("outgoing debits after sufficiency check", func(t *testing.T) {
		_, account := newTestWallet(t, "IRR", 1000)
		tx := newTestTransaction(TransactionStatusPending)
		tx.Type = TransactionTypeTransfer
		tx.Direction = DirectionOut

		require.NoError(t, account.ProcessTransfer(tx, amount))
		assert.True(t, account.Balance.Equal(decimal.NewFromInt(400)))
		assert.Equal(t, TransactionStatusCompleted, tx.Status)
	})

	t.Run("insufficient balance leaves state untouched", func(t *testing.T) {
		_, account := newTestWallet(t, "IRR", 500)
		tx := newTestTransaction(TransactionStatusPending)
		tx.Type = TransactionTypeTransfer
		tx.Direction = DirectionOut

		err := account.ProcessTransfer(tx, amount)
		assert.ErrorIs(t, err, ErrInsufficientBalance)

		var insufficient *InsufficientBalanceError
		require.True(t, errors.As(err, &insufficient))
		assert.True(t, insufficient.Requested.Equal(decimal.NewFromInt(600)))
		assert.True(t, insufficient.Available.Equal(decimal.NewFromInt(500)))

		assert.True(t, account.Balance.Equal(decimal.NewFromInt(500)))
		assert.Equal(t, TransactionStatusPending, tx.Status)
	})

	t.Run("incoming credits", func(t *testing.T) {
		_, account := newTestWallet(t, "IRR", 0)
		tx := newTestTransaction(TransactionStatusPending)
		tx.Type = TransactionTypeTransfer

		require.NoError(t, account.ProcessTransfer(tx, amount))
		assert.True(t, account.Balance.Equal(decimal.NewFromInt(600)))
	})
}

func TestCurrencyAccountProcessRefund(t *testing.T) {
	_, account := newTestWallet(t, "IRR", 100)

	refund := newTestTransaction(TransactionStatusPending)
	refund.Type = TransactionTypeRefund
	require.NoError(t, account.ProcessRefund(refund))
	assert.True(t, account.Balance.Equal(decimal.NewFromInt(1100)))

	t.Run("non-refund type rejected", func(t *testing.T) {
		deposit := newTestTransaction(TransactionStatusPending)
		assert.ErrorIs(t, account.ProcessRefund(deposit), ErrInvalidTransaction)
	})
}

func TestWalletEventQueue(t *testing.T) {
	w := &Wallet{ID: 1, UserID: 1}
	w.Record(NewWalletCreatedEvent(1, 1, 1, "IRR"))
	w.Record(NewBankAccountRemovedEvent(1, 9, false))

	collected := w.CollectEvents()
	require.Len(t, collected, 2)
	assert.Equal(t, "wallet.created", collected[0].EventName())
	assert.Empty(t, w.CollectEvents(), "collect drains the queue")

	w.ReattachEvents(collected)
	assert.Len(t, w.CollectEvents(), 2)
}
