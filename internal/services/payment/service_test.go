package payment

import (
	"context"
	"testing"
	"time"

	"safarpay/internal/models"
	"safarpay/internal/repositories/repotest"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T) (Service, *repotest.MemoryRepository) {
	t.Helper()
	repo := repotest.NewMemoryRepository()
	svc := NewService(repo, map[string]Gateway{"sandbox": &SandboxGateway{}}, nil, nil)
	return svc, repo
}

func seedWallet(t *testing.T, repo *repotest.MemoryRepository, userID uint, currency string, balance int64) *models.Wallet {
	t.Helper()
	w := &models.Wallet{UserID: userID, Active: true}
	account, err := w.CreateCurrencyAccount(currency)
	require.NoError(t, err)
	account.Balance = decimal.NewFromInt(balance)
	require.NoError(t, repo.Create(context.Background(), w))
	return w
}

func TestDeposit(t *testing.T) {
	ctx := context.Background()
	svc, repo := newTestService(t)
	wallet := seedWallet(t, repo, 1, "IRR", 0)

	result, err := svc.Deposit(ctx, 1, decimal.NewFromInt(500000), "IRR", "sandbox", "top up")
	require.NoError(t, err)
	assert.NotEmpty(t, result.PaymentURL)
	assert.NotEmpty(t, result.Authority)

	tx, err := repo.GetTransactionByID(ctx, result.TransactionID)
	require.NoError(t, err)
	assert.Equal(t, models.TransactionStatusPending, tx.Status)
	assert.Equal(t, result.Authority, tx.PaymentReference)

	// Initiation never touches the balance.
	account, _ := wallet.GetCurrencyAccount("IRR")
	assert.True(t, account.Balance.IsZero())

	t.Run("unknown gateway", func(t *testing.T) {
		_, err := svc.Deposit(ctx, 1, decimal.NewFromInt(1000), "IRR", "nope", "")
		assert.ErrorIs(t, err, ErrUnknownGateway)
	})

	t.Run("zero amount", func(t *testing.T) {
		_, err := svc.Deposit(ctx, 1, decimal.Zero, "IRR", "sandbox", "")
		assert.ErrorIs(t, err, models.ErrInvalidAmount)
	})

	t.Run("no wallet", func(t *testing.T) {
		_, err := svc.Deposit(ctx, 9, decimal.NewFromInt(1000), "IRR", "sandbox", "")
		assert.ErrorIs(t, err, ErrWalletNotFound)
	})
}

func TestConfirmDeposit(t *testing.T) {
	ctx := context.Background()
	svc, repo := newTestService(t)
	wallet := seedWallet(t, repo, 1, "IRR", 0)
	account, _ := wallet.GetCurrencyAccount("IRR")

	initiated, err := svc.Deposit(ctx, 1, decimal.NewFromInt(500000), "IRR", "sandbox", "top up")
	require.NoError(t, err)

	confirmed, err := svc.ConfirmDeposit(ctx, 1, initiated.Authority, decimal.NewFromInt(500000), "IRR")
	require.NoError(t, err)
	assert.False(t, confirmed.AlreadyDone)
	assert.Equal(t, initiated.TransactionID, confirmed.TransactionID)
	assert.True(t, account.Balance.Equal(decimal.NewFromInt(500000)))

	tx, err := repo.GetTransactionByID(ctx, initiated.TransactionID)
	require.NoError(t, err)
	assert.Equal(t, models.TransactionStatusCompleted, tx.Status)
	assert.NotNil(t, tx.ProcessedAt)

	t.Run("replayed confirmation does not double credit", func(t *testing.T) {
		again, err := svc.ConfirmDeposit(ctx, 1, initiated.Authority, decimal.NewFromInt(500000), "IRR")
		require.NoError(t, err)
		assert.True(t, again.AlreadyDone)
		assert.Equal(t, initiated.TransactionID, again.TransactionID)
		assert.True(t, account.Balance.Equal(decimal.NewFromInt(500000)), "balance must be unchanged")
	})
}

func TestConfirmDepositMismatch(t *testing.T) {
	ctx := context.Background()
	svc, repo := newTestService(t)
	seedWallet(t, repo, 1, "IRR", 0)

	initiated, err := svc.Deposit(ctx, 1, decimal.NewFromInt(500000), "IRR", "sandbox", "")
	require.NoError(t, err)

	_, err = svc.ConfirmDeposit(ctx, 1, initiated.Authority, decimal.NewFromInt(400000), "IRR")
	assert.ErrorIs(t, err, models.ErrInvalidTransaction)

	tx, err := repo.GetTransactionByID(ctx, initiated.TransactionID)
	require.NoError(t, err)
	assert.Equal(t, models.TransactionStatusPending, tx.Status, "mismatch must not settle the deposit")
}

func TestConfirmDepositOwnership(t *testing.T) {
	ctx := context.Background()
	svc, repo := newTestService(t)
	seedWallet(t, repo, 1, "IRR", 0)
	seedWallet(t, repo, 2, "IRR", 0)

	initiated, err := svc.Deposit(ctx, 1, decimal.NewFromInt(500000), "IRR", "sandbox", "")
	require.NoError(t, err)

	_, err = svc.ConfirmDeposit(ctx, 2, initiated.Authority, decimal.NewFromInt(500000), "IRR")
	assert.ErrorIs(t, err, ErrReferenceOwner)
}

func TestConfirmDepositWithoutInitiation(t *testing.T) {
	ctx := context.Background()
	svc, repo := newTestService(t)
	wallet := seedWallet(t, repo, 1, "IRR", 0)

	// Webhook-style confirmation for a reference we never saw: the deposit
	// is created and settled in one step.
	result, err := svc.ConfirmDeposit(ctx, 1, "EXT-777", decimal.NewFromInt(250000), "IRR")
	require.NoError(t, err)
	assert.False(t, result.AlreadyDone)

	account, _ := wallet.GetCurrencyAccount("IRR")
	assert.True(t, account.Balance.Equal(decimal.NewFromInt(250000)))

	tx, err := repo.GetTransactionByReference(ctx, "EXT-777")
	require.NoError(t, err)
	assert.Equal(t, models.TransactionStatusCompleted, tx.Status)

	t.Run("empty reference rejected", func(t *testing.T) {
		_, err := svc.ConfirmDeposit(ctx, 1, "", decimal.NewFromInt(100), "IRR")
		assert.ErrorIs(t, err, models.ErrInvalidTransaction)
	})
}

func TestPurchase(t *testing.T) {
	ctx := context.Background()
	svc, repo := newTestService(t)
	wallet := seedWallet(t, repo, 1, "IRR", 1000000)

	result, err := svc.Purchase(ctx, 1, decimal.NewFromInt(750000), "IRR", "ORD-1", "hotel booking")
	require.NoError(t, err)
	assert.True(t, result.NewBalance.Equal(decimal.NewFromInt(250000)))

	tx, err := repo.GetTransactionByID(ctx, result.TransactionID)
	require.NoError(t, err)
	assert.Equal(t, models.TransactionTypePurchase, tx.Type)
	assert.Equal(t, "ORD-1", tx.OrderID)
	assert.Equal(t, models.TransactionStatusCompleted, tx.Status)

	t.Run("insufficient balance", func(t *testing.T) {
		_, err := svc.Purchase(ctx, 1, decimal.NewFromInt(300000), "IRR", "ORD-2", "")
		assert.ErrorIs(t, err, models.ErrInsufficientBalance)

		account, _ := wallet.GetCurrencyAccount("IRR")
		assert.True(t, account.Balance.Equal(decimal.NewFromInt(250000)))
	})

	t.Run("missing currency account", func(t *testing.T) {
		_, err := svc.Purchase(ctx, 1, decimal.NewFromInt(10), "USD", "ORD-3", "")
		assert.ErrorIs(t, err, models.ErrCurrencyAccountNotFound)
	})
}

func TestGrantCredit(t *testing.T) {
	ctx := context.Background()
	svc, repo := newTestService(t)
	wallet := seedWallet(t, repo, 1, "IRR", 0)
	due := time.Now().AddDate(0, 1, 0)

	result, err := svc.GrantCredit(ctx, 1, decimal.NewFromInt(2000000), "IRR", due, "travel credit")
	require.NoError(t, err)
	assert.True(t, result.NewBalance.Equal(decimal.NewFromInt(2000000)))

	tx, err := repo.GetTransactionByID(ctx, result.TransactionID)
	require.NoError(t, err)
	assert.Equal(t, models.TransactionTypeCredit, tx.Type)
	require.NotNil(t, tx.DueDate)
	assert.True(t, tx.DueDate.Equal(due))

	account, _ := wallet.GetCurrencyAccount("IRR")
	assert.True(t, account.Balance.Equal(decimal.NewFromInt(2000000)))
}
