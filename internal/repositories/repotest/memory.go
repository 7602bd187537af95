// Package repotest provides an in-memory WalletRepository for service tests.
// It mirrors the persistence contract closely enough to exercise the command
// services without a database: id assignment on create, lookup errors, and a
// pass-through unit of work.
package repotest

import (
	"context"
	"sort"
	"sync"
	"time"

	"safarpay/internal/models"
	"safarpay/internal/repositories"

	"github.com/shopspring/decimal"
)

type MemoryRepository struct {
	mu sync.Mutex

	wallets      map[uint]*models.Wallet // keyed by user id
	transactions map[uint]*models.Transaction

	nextWalletID  uint
	nextAccountID uint
	nextBankID    uint
	nextTxID      uint
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		wallets:      make(map[uint]*models.Wallet),
		transactions: make(map[uint]*models.Transaction),
	}
}

func (r *MemoryRepository) assignIDs(wallet *models.Wallet) {
	if wallet.ID == 0 {
		r.nextWalletID++
		wallet.ID = r.nextWalletID
	}
	for i := range wallet.Accounts {
		if wallet.Accounts[i].ID == 0 {
			r.nextAccountID++
			wallet.Accounts[i].ID = r.nextAccountID
		}
		wallet.Accounts[i].WalletID = wallet.ID
	}
	for i := range wallet.BankAccounts {
		if wallet.BankAccounts[i].ID == 0 {
			r.nextBankID++
			wallet.BankAccounts[i].ID = r.nextBankID
		}
		wallet.BankAccounts[i].WalletID = wallet.ID
	}
}

func (r *MemoryRepository) Create(ctx context.Context, wallet *models.Wallet) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.wallets[wallet.UserID]; exists {
		return repositories.ErrDuplicateWallet
	}
	r.assignIDs(wallet)
	wallet.CreatedAt = time.Now()
	r.wallets[wallet.UserID] = wallet
	return nil
}

func (r *MemoryRepository) Save(ctx context.Context, wallet *models.Wallet) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.assignIDs(wallet)
	r.wallets[wallet.UserID] = wallet
	return nil
}

func (r *MemoryRepository) GetByUserID(ctx context.Context, userID uint) (*models.Wallet, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	wallet, ok := r.wallets[userID]
	if !ok {
		return nil, repositories.ErrWalletNotFound
	}
	return wallet, nil
}

func (r *MemoryRepository) GetByUserIDForUpdate(ctx context.Context, userID uint) (*models.Wallet, error) {
	return r.GetByUserID(ctx, userID)
}

func (r *MemoryRepository) CreateTransaction(ctx context.Context, tx *models.Transaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if tx.ID == 0 {
		r.nextTxID++
		tx.ID = r.nextTxID
	}
	if tx.CreatedAt.IsZero() {
		tx.CreatedAt = time.Now()
	}
	r.transactions[tx.ID] = tx
	return nil
}

func (r *MemoryRepository) SaveTransaction(ctx context.Context, tx *models.Transaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if tx.ID == 0 {
		return repositories.ErrTransactionNotFound
	}
	r.transactions[tx.ID] = tx
	return nil
}

func (r *MemoryRepository) GetTransactionByID(ctx context.Context, id uint) (*models.Transaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	tx, ok := r.transactions[id]
	if !ok {
		return nil, repositories.ErrTransactionNotFound
	}
	return tx, nil
}

func (r *MemoryRepository) GetTransactionByReference(ctx context.Context, paymentReference string) (*models.Transaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, tx := range r.transactions {
		if tx.PaymentReference == paymentReference {
			return tx, nil
		}
	}
	return nil, repositories.ErrTransactionNotFound
}

func (r *MemoryRepository) SumRefundsForTransaction(ctx context.Context, originalTransactionID uint) (decimal.Decimal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	sum := decimal.Zero
	for _, tx := range r.transactions {
		if tx.Type != models.TransactionTypeRefund {
			continue
		}
		if tx.RelatedTransactionID == nil || *tx.RelatedTransactionID != originalTransactionID {
			continue
		}
		switch tx.Status {
		case models.TransactionStatusPending, models.TransactionStatusProcessing, models.TransactionStatusCompleted:
			sum = sum.Add(tx.Amount)
		}
	}
	return sum, nil
}

func (r *MemoryRepository) GetTransactionHistory(ctx context.Context, walletID uint, limit, offset int) ([]models.Transaction, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var all []models.Transaction
	for _, tx := range r.transactions {
		if tx.WalletID == walletID {
			all = append(all, *tx)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID > all[j].ID })
	total := int64(len(all))
	if offset >= len(all) {
		return nil, total, nil
	}
	all = all[offset:]
	if limit < len(all) {
		all = all[:limit]
	}
	return all, total, nil
}

func (r *MemoryRepository) GetTransactionStats(ctx context.Context, walletID uint, start, end time.Time) (*repositories.TransactionStats, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stats := &repositories.TransactionStats{TotalVolume: decimal.Zero, AvgAmount: decimal.Zero, MaxAmount: decimal.Zero}
	var completed int64
	for _, tx := range r.transactions {
		if tx.WalletID != walletID {
			continue
		}
		if tx.CreatedAt.Before(start) || tx.CreatedAt.After(end) {
			continue
		}
		stats.TotalTransactions++
		if tx.Status == models.TransactionStatusCompleted {
			completed++
			stats.TotalVolume = stats.TotalVolume.Add(tx.Amount)
			if tx.Amount.GreaterThan(stats.MaxAmount) {
				stats.MaxAmount = tx.Amount
			}
		}
	}
	if completed > 0 {
		stats.AvgAmount = stats.TotalVolume.Div(decimal.NewFromInt(completed))
	}
	if stats.TotalTransactions > 0 {
		stats.SuccessRate = float64(completed) / float64(stats.TotalTransactions)
	}
	return stats, nil
}

// ExecuteInTransaction runs the callback against the same repository. There
// is no rollback: tests asserting failure paths should assert on returned
// errors, not on untouched state.
func (r *MemoryRepository) ExecuteInTransaction(fn func(repositories.WalletRepository) error) error {
	return fn(r)
}

var _ repositories.WalletRepository = (*MemoryRepository)(nil)
