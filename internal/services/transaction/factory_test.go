package transaction

import (
	"testing"
	"time"

	"safarpay/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testWallet(t *testing.T) (*models.Wallet, *models.CurrencyAccount) {
	t.Helper()
	w := &models.Wallet{ID: 1, UserID: 10, Active: true}
	account, err := w.CreateCurrencyAccount("IRR")
	require.NoError(t, err)
	account.ID = 100
	return w, account
}

func irr(t *testing.T, amount int64) models.Money {
	t.Helper()
	m, err := models.NewMoney(decimal.NewFromInt(amount), "IRR")
	require.NoError(t, err)
	return m
}

func TestNewDepositTransaction(t *testing.T) {
	w, account := testWallet(t)

	tx, err := NewDepositTransaction(w, account, irr(t, 50000), "top up", "AUTH-1")
	require.NoError(t, err)

	assert.Equal(t, models.TransactionStatusPending, tx.Status)
	assert.Equal(t, models.TransactionTypeDeposit, tx.Type)
	assert.Equal(t, models.DirectionIn, tx.Direction)
	assert.Equal(t, "AUTH-1", tx.PaymentReference)
	assert.Equal(t, w.ID, tx.WalletID)
	assert.Equal(t, account.ID, tx.AccountID)
	assert.Equal(t, w.UserID, tx.UserID)

	_, err = models.ParseTransactionNumber(tx.Number)
	assert.NoError(t, err, "minted number must be well formed")
}

func TestNewTransactionRejectsBadAmounts(t *testing.T) {
	w, account := testWallet(t)

	_, err := NewDepositTransaction(w, account, models.Zero("IRR"), "", "")
	assert.ErrorIs(t, err, models.ErrInvalidAmount)

	usd, err := models.NewMoney(decimal.NewFromInt(10), "USD")
	require.NoError(t, err)
	_, err = NewDepositTransaction(w, account, usd, "", "")
	assert.ErrorIs(t, err, models.ErrCurrencyMismatch)
}

func TestNewPurchaseTransaction(t *testing.T) {
	w, account := testWallet(t)

	tx, err := NewPurchaseTransaction(w, account, irr(t, 250000), "ORD-42", "hotel booking")
	require.NoError(t, err)
	assert.Equal(t, models.TransactionTypePurchase, tx.Type)
	assert.Equal(t, models.DirectionOut, tx.Direction)
	assert.Equal(t, "ORD-42", tx.OrderID)
}

func TestNewCreditTransaction(t *testing.T) {
	w, account := testWallet(t)
	due := time.Now().AddDate(0, 1, 0)

	tx, err := NewCreditTransaction(w, account, irr(t, 1000000), due, "travel credit")
	require.NoError(t, err)
	assert.Equal(t, models.TransactionTypeCredit, tx.Type)
	assert.Equal(t, models.DirectionIn, tx.Direction)
	require.NotNil(t, tx.DueDate)
	assert.True(t, tx.DueDate.Equal(due))
}

func TestNewRefundTransaction(t *testing.T) {
	w, account := testWallet(t)
	window := 30 * 24 * time.Hour

	original, err := NewPurchaseTransaction(w, account, irr(t, 100000), "ORD-1", "")
	require.NoError(t, err)
	require.NoError(t, original.MarkCompleted())
	original.ID = 55

	t.Run("valid refund links the original", func(t *testing.T) {
		refund, err := NewRefundTransaction(w, account, irr(t, 40000), original, window, "partial")
		require.NoError(t, err)
		assert.Equal(t, models.TransactionTypeRefund, refund.Type)
		assert.Equal(t, models.DirectionIn, refund.Direction)
		require.NotNil(t, refund.RelatedTransactionID)
		assert.Equal(t, original.ID, *refund.RelatedTransactionID)
	})

	t.Run("amount above original rejected", func(t *testing.T) {
		_, err := NewRefundTransaction(w, account, irr(t, 100001), original, window, "")
		assert.ErrorIs(t, err, models.ErrInvalidTransaction)
	})

	t.Run("expired window rejected", func(t *testing.T) {
		settled := time.Now().Add(-40 * 24 * time.Hour)
		original.ProcessedAt = &settled
		defer func() { original.ProcessedAt = nil }()

		_, err := NewRefundTransaction(w, account, irr(t, 10000), original, window, "")
		assert.ErrorIs(t, err, models.ErrInvalidTransaction)
	})

	t.Run("pending original rejected", func(t *testing.T) {
		pending, err := NewPurchaseTransaction(w, account, irr(t, 100000), "ORD-2", "")
		require.NoError(t, err)
		_, err = NewRefundTransaction(w, account, irr(t, 100000), pending, window, "")
		assert.ErrorIs(t, err, models.ErrInvalidTransaction)
	})
}

func TestNewTransferPair(t *testing.T) {
	fromWallet, fromAccount := testWallet(t)
	toWallet := &models.Wallet{ID: 2, UserID: 20, Active: true}
	toAccount, err := toWallet.CreateCurrencyAccount("IRR")
	require.NoError(t, err)
	toAccount.ID = 200

	out, in, err := NewTransferPair(fromWallet, fromAccount, toWallet, toAccount, irr(t, 75000), "TRF-abc", "split bill")
	require.NoError(t, err)

	assert.Equal(t, models.DirectionOut, out.Direction)
	assert.Equal(t, models.DirectionIn, in.Direction)
	assert.Equal(t, "TRF-abc", out.TransferReference)
	assert.Equal(t, "TRF-abc", in.TransferReference)
	assert.Equal(t, fromWallet.UserID, out.UserID)
	assert.Equal(t, toWallet.UserID, in.UserID)
	assert.True(t, out.Amount.Equal(in.Amount))
}

func TestNewFeeTransaction(t *testing.T) {
	w, account := testWallet(t)

	fee, err := NewFeeTransaction(w, account, irr(t, 1000), 77, "transfer fee")
	require.NoError(t, err)
	assert.Equal(t, models.TransactionTypeFee, fee.Type)
	assert.Equal(t, models.DirectionOut, fee.Direction)
	require.NotNil(t, fee.RelatedTransactionID)
	assert.Equal(t, uint(77), *fee.RelatedTransactionID)
}
