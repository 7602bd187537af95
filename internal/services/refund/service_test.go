package refund

import (
	"context"
	"testing"
	"time"

	"safarpay/internal/models"
	"safarpay/internal/repositories/repotest"
	"safarpay/internal/services/transaction"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSetup(t *testing.T) (Service, *repotest.MemoryRepository) {
	t.Helper()
	repo := repotest.NewMemoryRepository()
	svc := NewService(repo, Config{Window: 30 * 24 * time.Hour}, nil, nil)
	return svc, repo
}

// seedPurchase creates a wallet for userID and a settled outgoing purchase
// of the given amount against it.
func seedPurchase(t *testing.T, repo *repotest.MemoryRepository, userID uint, balance, amount int64) (*models.Wallet, *models.Transaction) {
	t.Helper()
	ctx := context.Background()

	w := &models.Wallet{UserID: userID, Active: true}
	account, err := w.CreateCurrencyAccount("IRR")
	require.NoError(t, err)
	require.NoError(t, repo.Create(ctx, w))

	money, err := models.NewMoney(decimal.NewFromInt(amount), "IRR")
	require.NoError(t, err)
	account.Balance = decimal.NewFromInt(balance).Add(money.Value())

	purchase, err := transaction.NewPurchaseTransaction(w, account, money, "ORD-1", "booking")
	require.NoError(t, err)
	require.NoError(t, account.ProcessTransfer(purchase, money))
	require.NoError(t, repo.CreateTransaction(ctx, purchase))
	return w, purchase
}

func TestRefundFull(t *testing.T) {
	ctx := context.Background()
	svc, repo := newTestSetup(t)
	wallet, purchase := seedPurchase(t, repo, 1, 0, 100000)

	result, err := svc.Refund(ctx, 1, purchase.ID, nil, "trip cancelled")
	require.NoError(t, err)
	assert.True(t, result.FullyRefunded)
	assert.True(t, result.Amount.Equal(decimal.NewFromInt(100000)))

	account, _ := wallet.GetCurrencyAccount("IRR")
	assert.True(t, account.Balance.Equal(decimal.NewFromInt(100000)))

	original, err := repo.GetTransactionByID(ctx, purchase.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TransactionStatusRefunded, original.Status)

	refundTx, err := repo.GetTransactionByID(ctx, result.RefundTransactionID)
	require.NoError(t, err)
	assert.Equal(t, models.TransactionTypeRefund, refundTx.Type)
	require.NotNil(t, refundTx.RelatedTransactionID)
	assert.Equal(t, purchase.ID, *refundTx.RelatedTransactionID)

	t.Run("refunded original cannot refund again", func(t *testing.T) {
		_, err := svc.Refund(ctx, 1, purchase.ID, nil, "")
		assert.ErrorIs(t, err, models.ErrInvalidAmount)
	})
}

func TestRefundPartialBounds(t *testing.T) {
	ctx := context.Background()
	svc, repo := newTestSetup(t)
	wallet, purchase := seedPurchase(t, repo, 1, 0, 100000)

	first := decimal.NewFromInt(60000)
	result, err := svc.Refund(ctx, 1, purchase.ID, &first, "partial")
	require.NoError(t, err)
	assert.False(t, result.FullyRefunded)

	original, err := repo.GetTransactionByID(ctx, purchase.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TransactionStatusCompleted, original.Status, "partially refunded stays completed")

	t.Run("second refund cannot exceed the remainder", func(t *testing.T) {
		tooMuch := decimal.NewFromInt(50000)
		_, err := svc.Refund(ctx, 1, purchase.ID, &tooMuch, "")
		assert.ErrorIs(t, err, models.ErrInvalidTransaction)
	})

	t.Run("remainder settles and flips the original", func(t *testing.T) {
		rest := decimal.NewFromInt(40000)
		result, err := svc.Refund(ctx, 1, purchase.ID, &rest, "")
		require.NoError(t, err)
		assert.True(t, result.FullyRefunded)

		original, err := repo.GetTransactionByID(ctx, purchase.ID)
		require.NoError(t, err)
		assert.Equal(t, models.TransactionStatusRefunded, original.Status)

		account, _ := wallet.GetCurrencyAccount("IRR")
		assert.True(t, account.Balance.Equal(decimal.NewFromInt(100000)))
	})
}

func TestRefundGuards(t *testing.T) {
	ctx := context.Background()
	svc, repo := newTestSetup(t)
	_, purchase := seedPurchase(t, repo, 1, 0, 100000)

	t.Run("unknown transaction", func(t *testing.T) {
		_, err := svc.Refund(ctx, 1, 999, nil, "")
		assert.ErrorIs(t, err, ErrTransactionNotFound)
	})

	t.Run("foreign transaction", func(t *testing.T) {
		seedPurchase(t, repo, 2, 0, 5000)
		_, err := svc.Refund(ctx, 2, purchase.ID, nil, "")
		assert.ErrorIs(t, err, ErrForbidden)
	})

	t.Run("outside the refund window", func(t *testing.T) {
		settled := time.Now().Add(-45 * 24 * time.Hour)
		purchase.ProcessedAt = &settled
		_, err := svc.Refund(ctx, 1, purchase.ID, nil, "")
		assert.ErrorIs(t, err, models.ErrInvalidTransaction)
	})
}

func TestRefundIncomingTransferRejected(t *testing.T) {
	ctx := context.Background()
	svc, repo := newTestSetup(t)

	w := &models.Wallet{UserID: 1, Active: true}
	account, err := w.CreateCurrencyAccount("IRR")
	require.NoError(t, err)
	require.NoError(t, repo.Create(ctx, w))

	incoming := &models.Transaction{
		WalletID:  w.ID,
		AccountID: account.ID,
		UserID:    1,
		Type:      models.TransactionTypeTransfer,
		Direction: models.DirectionIn,
		Amount:    decimal.NewFromInt(5000),
		Currency:  "IRR",
		Status:    models.TransactionStatusCompleted,
		Number:    models.NewTransactionNumber().String(),
	}
	require.NoError(t, repo.CreateTransaction(ctx, incoming))

	_, err = svc.Refund(ctx, 1, incoming.ID, nil, "")
	assert.ErrorIs(t, err, models.ErrInvalidTransaction)
}
