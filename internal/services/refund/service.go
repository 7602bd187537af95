// Package refund returns money from settled transactions back to the
// wallet, supporting partial refunds bounded by the original amount.
package refund

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"safarpay/internal/events"
	"safarpay/internal/models"
	"safarpay/internal/repositories"
	"safarpay/internal/services/transaction"

	"github.com/shopspring/decimal"
)

var (
	ErrTransactionNotFound = errors.New("transaction not found")
	ErrForbidden           = errors.New("transaction belongs to another user")
	ErrWalletNotFound      = errors.New("wallet not found")
	ErrWalletInactive      = errors.New("wallet is inactive")
)

// Config holds the refund policy knobs.
type Config struct {
	// Window is how long after settlement a transaction stays refundable.
	Window time.Duration
}

// DefaultWindow applies when no window is configured.
const DefaultWindow = 30 * 24 * time.Hour

// Result reports a settled refund.
type Result struct {
	RefundTransactionID   uint            `json:"refund_transaction_id"`
	OriginalTransactionID uint            `json:"original_transaction_id"`
	Amount                decimal.Decimal `json:"amount"`
	Currency              string          `json:"currency"`
	NewBalance            decimal.Decimal `json:"new_balance"`
	FullyRefunded         bool            `json:"fully_refunded"`
}

// Service refunds settled transactions.
type Service interface {
	// Refund returns money from the original transaction to the wallet.
	// A nil amount refunds whatever remains unrefunded.
	Refund(ctx context.Context, userID, originalTransactionID uint, amount *decimal.Decimal, reason string) (*Result, error)
}

// CacheInvalidator drops cached wallets after committed mutations.
type CacheInvalidator interface {
	InvalidateWallet(ctx context.Context, userID uint) error
}

type noopInvalidator struct{}

func (noopInvalidator) InvalidateWallet(context.Context, uint) error { return nil }

type service struct {
	repo      repositories.WalletRepository
	config    Config
	cache     CacheInvalidator
	publisher events.Publisher
}

// NewService creates a new refund service.
func NewService(repo repositories.WalletRepository, config Config, cache CacheInvalidator, publisher events.Publisher) Service {
	if repo == nil {
		panic("repo is required")
	}
	if config.Window <= 0 {
		config.Window = DefaultWindow
	}
	if cache == nil {
		cache = noopInvalidator{}
	}
	if publisher == nil {
		publisher = events.NoopPublisher{}
	}
	return &service{repo: repo, config: config, cache: cache, publisher: publisher}
}

func (s *service) Refund(ctx context.Context, userID, originalTransactionID uint, amount *decimal.Decimal, reason string) (*Result, error) {
	var (
		wallet *models.Wallet
		result Result
	)
	err := s.repo.ExecuteInTransaction(func(tx repositories.WalletRepository) error {
		original, err := tx.GetTransactionByID(ctx, originalTransactionID)
		if err != nil {
			if errors.Is(err, repositories.ErrTransactionNotFound) {
				return ErrTransactionNotFound
			}
			return err
		}
		if original.UserID != userID {
			return ErrForbidden
		}

		wallet, err = tx.GetByUserIDForUpdate(ctx, userID)
		if err != nil {
			if errors.Is(err, repositories.ErrWalletNotFound) {
				return ErrWalletNotFound
			}
			return err
		}
		if !wallet.Active {
			return ErrWalletInactive
		}

		refunded, err := tx.SumRefundsForTransaction(ctx, original.ID)
		if err != nil {
			return err
		}
		remaining := original.Amount.Sub(refunded)
		requested := remaining
		if amount != nil {
			requested = *amount
		}
		if requested.GreaterThan(remaining) {
			return fmt.Errorf("%w: refund %s exceeds remaining refundable %s", models.ErrInvalidTransaction, requested, remaining)
		}
		money, err := models.NewMoney(requested, original.Currency)
		if err != nil {
			return err
		}
		if money.IsZero() {
			return fmt.Errorf("%w: nothing left to refund", models.ErrInvalidAmount)
		}

		account, ok := wallet.GetCurrencyAccount(original.Currency)
		if !ok {
			return models.ErrCurrencyAccountNotFound
		}

		description := reason
		if description == "" {
			description = fmt.Sprintf("refund of %s", original.Number)
		}
		refundTx, err := transaction.NewRefundTransaction(wallet, account, money, original, s.config.Window, description)
		if err != nil {
			return err
		}
		if err := account.ProcessRefund(refundTx); err != nil {
			return err
		}
		if err := tx.CreateTransaction(ctx, refundTx); err != nil {
			return err
		}

		fullyRefunded := refunded.Add(money.Value()).Equal(original.Amount)
		if fullyRefunded {
			if err := original.MarkRefunded(); err != nil {
				return err
			}
			if err := tx.SaveTransaction(ctx, original); err != nil {
				return err
			}
		}
		if err := tx.Save(ctx, wallet); err != nil {
			return err
		}

		wallet.Record(models.NewTransactionRefundedEvent(refundTx, original.ID))
		result = Result{
			RefundTransactionID:   refundTx.ID,
			OriginalTransactionID: original.ID,
			Amount:                money.Value(),
			Currency:              money.Currency(),
			NewBalance:            account.Balance,
			FullyRefunded:         fullyRefunded,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publishAfterCommit(ctx, wallet)
	s.cache.InvalidateWallet(ctx, userID)
	return &result, nil
}

func (s *service) publishAfterCommit(ctx context.Context, wallet *models.Wallet) {
	if wallet == nil {
		return
	}
	evts := wallet.CollectEvents()
	if len(evts) == 0 {
		return
	}
	if err := s.publisher.PublishEvents(ctx, evts); err != nil {
		wallet.ReattachEvents(evts)
		log.Printf("event publish failed, %d event(s) queued for retry: %v", len(evts), err)
	}
}
