// Package transfer moves money between two wallets: a linked out/in
// transaction pair plus a fee charged to the sender, committed as one unit
// of work so no partial transfer is ever observable.
package transfer

import (
	"context"
	"errors"
	"fmt"
	"log"

	"safarpay/internal/events"
	"safarpay/internal/models"
	"safarpay/internal/repositories"
	"safarpay/internal/services/transaction"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Service errors
var (
	ErrSameUser            = errors.New("cannot transfer to self")
	ErrReceiverNotFound    = errors.New("receiver wallet not found")
	ErrReceiverInactive    = errors.New("receiver wallet is inactive")
	ErrSenderNotFound      = errors.New("sender wallet not found")
	ErrNoCurrencyAccount   = errors.New("sender has no account in this currency")
	ErrInvalidTransferData = errors.New("invalid transfer data")
)

// Config is the fee policy: fee = clamp(amount*Rate, MinFee, MaxFee). The
// figures are tunable business policy, not hardcoded law.
type Config struct {
	FeeRate decimal.Decimal
	MinFee  decimal.Decimal
	MaxFee  decimal.Decimal
}

// Result reports a committed transfer.
type Result struct {
	FromTransactionID uint            `json:"from_transaction_id"`
	ToTransactionID   uint            `json:"to_transaction_id"`
	FeeTransactionID  uint            `json:"fee_transaction_id,omitempty"`
	Fee               decimal.Decimal `json:"fee"`
	FromBalance       decimal.Decimal `json:"from_balance"`
	ToBalance         decimal.Decimal `json:"to_balance"`
	Currency          string          `json:"currency"`
	TransferReference string          `json:"transfer_reference"`
}

// Service executes wallet-to-wallet transfers.
type Service interface {
	Transfer(ctx context.Context, fromUserID, toUserID uint, amount decimal.Decimal, currency, description string) (*Result, error)
}

type service struct {
	repo      repositories.WalletRepository
	cache     CacheInvalidator
	publisher events.Publisher
	config    Config
}

// CacheInvalidator drops cached wallets after a committed transfer.
type CacheInvalidator interface {
	InvalidateWallet(ctx context.Context, userID uint) error
}

type noopInvalidator struct{}

func (noopInvalidator) InvalidateWallet(context.Context, uint) error { return nil }

// NewService creates a new transfer service.
func NewService(repo repositories.WalletRepository, cache CacheInvalidator, publisher events.Publisher, config Config) Service {
	if repo == nil {
		panic("repo is required")
	}
	if cache == nil {
		cache = noopInvalidator{}
	}
	if publisher == nil {
		publisher = events.NoopPublisher{}
	}
	return &service{repo: repo, cache: cache, publisher: publisher, config: config}
}

// Fee computes the clamped fee for an amount.
func (s *service) Fee(amount models.Money) models.Money {
	fee := amount.Multiply(s.config.FeeRate)
	if fee.Value().LessThan(s.config.MinFee) {
		fee, _ = models.NewMoney(s.config.MinFee.Round(models.DecimalPlaces(amount.Currency())), amount.Currency())
	}
	if fee.Value().GreaterThan(s.config.MaxFee) {
		fee, _ = models.NewMoney(s.config.MaxFee.Round(models.DecimalPlaces(amount.Currency())), amount.Currency())
	}
	return fee
}

func (s *service) Transfer(ctx context.Context, fromUserID, toUserID uint, amount decimal.Decimal, currency, description string) (*Result, error) {
	if fromUserID == toUserID {
		return nil, ErrSameUser
	}
	amountMoney, err := models.NewMoney(amount, currency)
	if err != nil {
		return nil, err
	}
	if amountMoney.IsZero() {
		return nil, fmt.Errorf("%w: amount must be positive", models.ErrInvalidAmount)
	}

	var (
		fromWallet, toWallet *models.Wallet
		result               Result
	)
	err = s.repo.ExecuteInTransaction(func(tx repositories.WalletRepository) error {
		// Lock both wallets in user-id order so two opposing transfers
		// cannot deadlock.
		first, second := fromUserID, toUserID
		if second < first {
			first, second = second, first
		}
		wallets := make(map[uint]*models.Wallet, 2)
		for _, id := range []uint{first, second} {
			w, err := tx.GetByUserIDForUpdate(ctx, id)
			if err != nil {
				if errors.Is(err, repositories.ErrWalletNotFound) {
					if id == fromUserID {
						return ErrSenderNotFound
					}
					return ErrReceiverNotFound
				}
				return err
			}
			wallets[id] = w
		}
		fromWallet, toWallet = wallets[fromUserID], wallets[toUserID]

		if !toWallet.Active {
			return ErrReceiverInactive
		}
		fromAccount, ok := fromWallet.GetCurrencyAccount(currency)
		if !ok {
			return ErrNoCurrencyAccount
		}

		toAccount, ok := toWallet.GetCurrencyAccount(currency)
		if !ok {
			// First transfer-in for this currency opens the account.
			if _, err := toWallet.CreateCurrencyAccount(currency); err != nil {
				return err
			}
			if err := tx.Save(ctx, toWallet); err != nil {
				return err
			}
			toAccount, _ = toWallet.GetCurrencyAccount(currency)
		}

		fee := s.Fee(amountMoney)
		total, err := amountMoney.Add(fee)
		if err != nil {
			return err
		}
		// The fee is part of the sufficiency check, never waived.
		if !fromAccount.HasSufficientBalance(total) {
			return &models.InsufficientBalanceError{
				WalletID:  fromWallet.ID,
				Requested: total.Value(),
				Available: fromAccount.Balance,
				Currency:  currency,
			}
		}

		reference := "TRF-" + uuid.NewString()
		outTx, inTx, err := transaction.NewTransferPair(fromWallet, fromAccount, toWallet, toAccount, amountMoney, reference, description)
		if err != nil {
			return err
		}

		if err := fromAccount.ProcessTransfer(outTx, amountMoney); err != nil {
			return err
		}
		if err := toAccount.ProcessTransfer(inTx, amountMoney); err != nil {
			return err
		}
		if err := tx.CreateTransaction(ctx, outTx); err != nil {
			return err
		}
		inTx.RelatedTransactionID = &outTx.ID
		if err := tx.CreateTransaction(ctx, inTx); err != nil {
			return err
		}
		outTx.RelatedTransactionID = &inTx.ID
		if err := tx.SaveTransaction(ctx, outTx); err != nil {
			return err
		}

		if !fee.IsZero() {
			feeTx, err := transaction.NewFeeTransaction(fromWallet, fromAccount, fee, outTx.ID, "transfer fee")
			if err != nil {
				return err
			}
			if err := fromAccount.ProcessTransfer(feeTx, fee); err != nil {
				return err
			}
			if err := tx.CreateTransaction(ctx, feeTx); err != nil {
				return err
			}
			result.FeeTransactionID = feeTx.ID
		}

		if err := tx.Save(ctx, fromWallet); err != nil {
			return err
		}
		if err := tx.Save(ctx, toWallet); err != nil {
			return err
		}

		fromWallet.Record(models.NewTransferCompletedEvent(outTx, inTx, fee.Value()))

		result.FromTransactionID = outTx.ID
		result.ToTransactionID = inTx.ID
		result.Fee = fee.Value()
		result.FromBalance = fromAccount.Balance
		result.ToBalance = toAccount.Balance
		result.Currency = currency
		result.TransferReference = reference
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publishAfterCommit(ctx, fromWallet)
	s.cache.InvalidateWallet(ctx, fromUserID)
	s.cache.InvalidateWallet(ctx, toUserID)
	return &result, nil
}

func (s *service) publishAfterCommit(ctx context.Context, wallet *models.Wallet) {
	evts := wallet.CollectEvents()
	if len(evts) == 0 {
		return
	}
	if err := s.publisher.PublishEvents(ctx, evts); err != nil {
		wallet.ReattachEvents(evts)
		log.Printf("event publish failed, %d event(s) queued for retry: %v", len(evts), err)
	}
}
