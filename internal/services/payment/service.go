// Package payment handles the gateway-facing money flows: deposit
// initiation, deposit confirmation (the exactly-once boundary), purchases
// and credits.
package payment

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

// Service errors
var (
	ErrUnknownGateway  = errors.New("unknown payment gateway")
	ErrGatewayRejected = errors.New("payment gateway rejected the request")
	ErrWalletNotFound  = errors.New("wallet not found")
	ErrWalletInactive  = errors.New("wallet is inactive")
	ErrReferenceOwner  = errors.New("payment reference belongs to another user")
)

// DepositResult reports an initiated deposit awaiting gateway confirmation.
type DepositResult struct {
	TransactionID uint   `json:"transaction_id"`
	PaymentURL    string `json:"payment_url"`
	Authority     string `json:"authority"`
}

// ConfirmDepositResult reports a settled (or already-settled) confirmation.
type ConfirmDepositResult struct {
	TransactionID uint            `json:"transaction_id"`
	NewBalance    decimal.Decimal `json:"new_balance"`
	Currency      string          `json:"currency"`
	AlreadyDone   bool            `json:"already_done"`
}

// PurchaseResult reports a settled purchase debit.
type PurchaseResult struct {
	TransactionID uint            `json:"transaction_id"`
	NewBalance    decimal.Decimal `json:"new_balance"`
}

// Service is the deposit/purchase/credit command surface.
type Service interface {
	Deposit(ctx context.Context, userID uint, amount decimal.Decimal, currency, gatewayKind, description string) (*DepositResult, error)
	ConfirmDeposit(ctx context.Context, userID uint, gatewayReference string, amount decimal.Decimal, currency string) (*ConfirmDepositResult, error)
	Purchase(ctx context.Context, userID uint, amount decimal.Decimal, currency, orderID, description string) (*PurchaseResult, error)
	GrantCredit(ctx context.Context, userID uint, amount decimal.Decimal, currency string, dueDate time.Time, description string) (*PurchaseResult, error)
}

// CacheInvalidator drops cached wallets after committed mutations.
type CacheInvalidator interface {
	InvalidateWallet(ctx context.Context, userID uint) error
}

type noopInvalidator struct{}

func (noopInvalidator) InvalidateWallet(context.Context, uint) error { return nil }

type service struct {
	repo      repositories.WalletRepository
	gateways  map[string]Gateway
	cache     CacheInvalidator
	publisher events.Publisher
}

// NewService creates a new payment service over the given gateways, keyed by
// gateway kind.
func NewService(repo repositories.WalletRepository, gateways map[string]Gateway, cache CacheInvalidator, publisher events.Publisher) Service {
	if repo == nil {
		panic("repo is required")
	}
	if len(gateways) == 0 {
		panic("at least one gateway is required")
	}
	if cache == nil {
		cache = noopInvalidator{}
	}
	if publisher == nil {
		publisher = events.NoopPublisher{}
	}
	return &service{repo: repo, gateways: gateways, cache: cache, publisher: publisher}
}

// Deposit starts a gateway payment and records a pending deposit carrying
// the gateway authority. The gateway round-trip happens before the unit of
// work opens, so no database locks are held during external I/O.
func (s *service) Deposit(ctx context.Context, userID uint, amount decimal.Decimal, currency, gatewayKind, description string) (*DepositResult, error) {
	money, err := models.NewMoney(amount, currency)
	if err != nil {
		return nil, err
	}
	if money.IsZero() {
		return nil, fmt.Errorf("%w: amount must be positive", models.ErrInvalidAmount)
	}
	gateway, ok := s.gateways[gatewayKind]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownGateway, gatewayKind)
	}

	created, err := gateway.CreatePayment(ctx, CreatePaymentRequest{
		Amount:      money,
		Description: description,
	})
	if err != nil {
		return nil, fmt.Errorf("gateway call failed: %w", err)
	}
	if !created.IsSuccessful {
		return nil, fmt.Errorf("%w: %s", ErrGatewayRejected, created.ErrorMessage)
	}

	var depositTx *models.Transaction
	err = s.repo.ExecuteInTransaction(func(tx repositories.WalletRepository) error {
		wallet, account, err := s.lockedAccount(ctx, tx, userID, currency)
		if err != nil {
			return err
		}
		depositTx, err = transaction.NewDepositTransaction(wallet, account, money, description, created.Authority)
		if err != nil {
			return err
		}
		return tx.CreateTransaction(ctx, depositTx)
	})
	if err != nil {
		return nil, err
	}
	s.cache.InvalidateWallet(ctx, userID)

	return &DepositResult{
		TransactionID: depositTx.ID,
		PaymentURL:    created.PaymentURL,
		Authority:     created.Authority,
	}, nil
}

// ConfirmDeposit settles a gateway confirmation exactly once. The gateway
// reference is the idempotency key: a replayed confirmation finds the
// settled transaction and returns success without touching the balance.
func (s *service) ConfirmDeposit(ctx context.Context, userID uint, gatewayReference string, amount decimal.Decimal, currency string) (*ConfirmDepositResult, error) {
	if gatewayReference == "" {
		return nil, fmt.Errorf("%w: gateway reference is required", models.ErrInvalidTransaction)
	}
	money, err := models.NewMoney(amount, currency)
	if err != nil {
		return nil, err
	}
	if money.IsZero() {
		return nil, fmt.Errorf("%w: amount must be positive", models.ErrInvalidAmount)
	}

	var (
		wallet *models.Wallet
		result ConfirmDepositResult
	)
	err = s.repo.ExecuteInTransaction(func(tx repositories.WalletRepository) error {
		// The wallet lock serializes concurrent confirmations for the same
		// user, so the lookup below cannot race a concurrent insert.
		var account *models.CurrencyAccount
		wallet, account, err = s.lockedAccount(ctx, tx, userID, currency)
		if err != nil {
			return err
		}

		existing, err := tx.GetTransactionByReference(ctx, gatewayReference)
		switch {
		case err == nil:
			if existing.UserID != userID {
				return ErrReferenceOwner
			}
			if existing.Status != models.TransactionStatusPending {
				// Replayed confirmation: already settled, report success.
				result = ConfirmDepositResult{
					TransactionID: existing.ID,
					NewBalance:    account.Balance,
					Currency:      account.Currency,
					AlreadyDone:   true,
				}
				return nil
			}
			if !existing.Amount.Equal(money.Value()) || existing.Currency != currency {
				return fmt.Errorf("%w: confirmation does not match pending deposit %s", models.ErrInvalidTransaction, existing.Number)
			}
			if err := account.ProcessDeposit(existing); err != nil {
				return err
			}
			if err := tx.SaveTransaction(ctx, existing); err != nil {
				return err
			}
			if err := tx.Save(ctx, wallet); err != nil {
				return err
			}
			wallet.Record(models.NewDepositConfirmedEvent(existing))
			result = ConfirmDepositResult{TransactionID: existing.ID, NewBalance: account.Balance, Currency: account.Currency}
			return nil
		case errors.Is(err, repositories.ErrTransactionNotFound):
			// Direct confirmation without a prior initiation.
			depositTx, err := transaction.NewDepositTransaction(wallet, account, money, "gateway deposit", gatewayReference)
			if err != nil {
				return err
			}
			if err := account.ProcessDeposit(depositTx); err != nil {
				return err
			}
			if err := tx.CreateTransaction(ctx, depositTx); err != nil {
				return err
			}
			if err := tx.Save(ctx, wallet); err != nil {
				return err
			}
			wallet.Record(models.NewDepositConfirmedEvent(depositTx))
			result = ConfirmDepositResult{TransactionID: depositTx.ID, NewBalance: account.Balance, Currency: account.Currency}
			return nil
		default:
			return err
		}
	})
	if err != nil {
		return nil, err
	}

	s.publishAfterCommit(ctx, wallet)
	s.cache.InvalidateWallet(ctx, userID)
	return &result, nil
}

// Purchase debits the wallet for an order.
func (s *service) Purchase(ctx context.Context, userID uint, amount decimal.Decimal, currency, orderID, description string) (*PurchaseResult, error) {
	money, err := models.NewMoney(amount, currency)
	if err != nil {
		return nil, err
	}
	if money.IsZero() {
		return nil, fmt.Errorf("%w: amount must be positive", models.ErrInvalidAmount)
	}

	var result PurchaseResult
	err = s.repo.ExecuteInTransaction(func(tx repositories.WalletRepository) error {
		wallet, err := tx.GetByUserIDForUpdate(ctx, userID)
		if err != nil {
			if errors.Is(err, repositories.ErrWalletNotFound) {
				return ErrWalletNotFound
			}
			return err
		}
		if !wallet.Active {
			return ErrWalletInactive
		}
		account, ok := wallet.GetCurrencyAccount(currency)
		if !ok {
			return models.ErrCurrencyAccountNotFound
		}
		purchaseTx, err := transaction.NewPurchaseTransaction(wallet, account, money, orderID, description)
		if err != nil {
			return err
		}
		if err := account.ProcessTransfer(purchaseTx, money); err != nil {
			return err
		}
		if err := tx.CreateTransaction(ctx, purchaseTx); err != nil {
			return err
		}
		if err := tx.Save(ctx, wallet); err != nil {
			return err
		}
		result = PurchaseResult{TransactionID: purchaseTx.ID, NewBalance: account.Balance}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.cache.InvalidateWallet(ctx, userID)
	return &result, nil
}

// GrantCredit credits the wallet with a repayable amount due at dueDate.
func (s *service) GrantCredit(ctx context.Context, userID uint, amount decimal.Decimal, currency string, dueDate time.Time, description string) (*PurchaseResult, error) {
	money, err := models.NewMoney(amount, currency)
	if err != nil {
		return nil, err
	}
	if money.IsZero() {
		return nil, fmt.Errorf("%w: amount must be positive", models.ErrInvalidAmount)
	}

	var result PurchaseResult
	err = s.repo.ExecuteInTransaction(func(tx repositories.WalletRepository) error {
		wallet, account, err := s.lockedAccount(ctx, tx, userID, currency)
		if err != nil {
			return err
		}
		creditTx, err := transaction.NewCreditTransaction(wallet, account, money, dueDate, description)
		if err != nil {
			return err
		}
		if err := account.ProcessDeposit(creditTx); err != nil {
			return err
		}
		if err := tx.CreateTransaction(ctx, creditTx); err != nil {
			return err
		}
		if err := tx.Save(ctx, wallet); err != nil {
			return err
		}
		result = PurchaseResult{TransactionID: creditTx.ID, NewBalance: account.Balance}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.cache.InvalidateWallet(ctx, userID)
	return &result, nil
}

// lockedAccount loads the wallet under lock and returns the currency
// account, opening it on first use.
func (s *service) lockedAccount(ctx context.Context, tx repositories.WalletRepository, userID uint, currency string) (*models.Wallet, *models.CurrencyAccount, error) {
	wallet, err := tx.GetByUserIDForUpdate(ctx, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrWalletNotFound) {
			return nil, nil, ErrWalletNotFound
		}
		return nil, nil, err
	}
	if !wallet.Active {
		return nil, nil, ErrWalletInactive
	}
	account, ok := wallet.GetCurrencyAccount(currency)
	if !ok {
		if _, err := wallet.CreateCurrencyAccount(currency); err != nil {
			return nil, nil, err
		}
		if err := tx.Save(ctx, wallet); err != nil {
			return nil, nil, err
		}
		account, _ = wallet.GetCurrencyAccount(currency)
	}
	return wallet, account, nil
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
