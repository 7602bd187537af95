package repositories

import (
	"context"
	"errors"
	"time"

	"safarpay/internal/models"

	"github.com/shopspring/decimal"
)

var (
	ErrWalletNotFound      = errors.New("wallet not found")
	ErrTransactionNotFound = errors.New("transaction not found")
	ErrDuplicateWallet     = errors.New("wallet already exists")
)

// WalletRepository is the persistence contract for the wallet aggregate and
// its ledger. ExecuteInTransaction is the unit of work: the callback runs
// against a transactional repository, and every write either commits as one
// atomic unit or not at all.
type WalletRepository interface {
	// Wallet aggregate
	Create(ctx context.Context, wallet *models.Wallet) error
	Save(ctx context.Context, wallet *models.Wallet) error
	GetByUserID(ctx context.Context, userID uint) (*models.Wallet, error)
	// GetByUserIDForUpdate loads the wallet with its accounts under a row
	// lock, serializing concurrent mutations of the same wallet.
	GetByUserIDForUpdate(ctx context.Context, userID uint) (*models.Wallet, error)

	// Ledger
	CreateTransaction(ctx context.Context, tx *models.Transaction) error
	SaveTransaction(ctx context.Context, tx *models.Transaction) error
	GetTransactionByID(ctx context.Context, id uint) (*models.Transaction, error)
	GetTransactionByReference(ctx context.Context, paymentReference string) (*models.Transaction, error)
	SumRefundsForTransaction(ctx context.Context, originalTransactionID uint) (decimal.Decimal, error)

	// Read side
	GetTransactionHistory(ctx context.Context, walletID uint, limit, offset int) ([]models.Transaction, int64, error)
	GetTransactionStats(ctx context.Context, walletID uint, start, end time.Time) (*TransactionStats, error)

	// Unit of work
	ExecuteInTransaction(fn func(WalletRepository) error) error
}

// TransactionStats is an aggregated read-side projection over the ledger.
type TransactionStats struct {
	TotalTransactions int64           `json:"total_transactions"`
	TotalVolume       decimal.Decimal `json:"total_volume"`
	AvgAmount         decimal.Decimal `json:"avg_amount"`
	MaxAmount         decimal.Decimal `json:"max_amount"`
	SuccessRate       float64         `json:"success_rate"`
}

// Page wraps a paged ledger listing.
type Page struct {
	Items  []models.Transaction `json:"items"`
	Total  int64                `json:"total"`
	Limit  int                  `json:"limit"`
	Offset int                  `json:"offset"`
}
