package wallet

import (
	"context"
	"errors"
	"fmt"
	"log"

	"safarpay/internal/events"
	"safarpay/internal/models"
	"safarpay/internal/repositories"

	"github.com/shopspring/decimal"
)

// Service owns the wallet aggregate's lifecycle commands: creation, balance
// reads, currency account and bank account management. Money movement lives
// in the transfer, payment and refund services.
type Service interface {
	CreateWallet(ctx context.Context, userID uint) (*CreateWalletResult, error)
	GetWallet(ctx context.Context, userID uint) (*models.Wallet, error)
	GetBalance(ctx context.Context, userID uint) (*BalanceSummary, error)
	CreateCurrencyAccount(ctx context.Context, userID uint, currency string) (*models.CurrencyAccount, error)
	AddBankAccount(ctx context.Context, userID uint, input models.AddBankAccountInput) (*BankAccountView, error)
	RemoveBankAccount(ctx context.Context, userID uint, bankAccountID uint) error
}

type service struct {
	repo      repositories.WalletRepository
	cache     CacheOperator
	publisher events.Publisher
	config    Config
}

// NewService creates a new wallet service.
func NewService(repo repositories.WalletRepository, cache CacheOperator, publisher events.Publisher, config Config) Service {
	if repo == nil {
		panic("repo is required")
	}
	if cache == nil {
		cache = NoopCache{}
	}
	if publisher == nil {
		publisher = events.NoopPublisher{}
	}
	if config.DefaultCurrency == "" {
		config.DefaultCurrency = models.DefaultCurrency
	}
	if config.BaseCurrency == "" {
		config.BaseCurrency = config.DefaultCurrency
	}
	if config.Rates == nil {
		config.Rates = map[string]decimal.Decimal{config.BaseCurrency: decimal.NewFromInt(1)}
	}
	return &service{repo: repo, cache: cache, publisher: publisher, config: config}
}

// publishCollected drains each wallet's pending events and publishes them.
// A failed publish re-attaches the events instead of dropping them; the
// committed balance change is never rolled back for a delivery failure.
func (s *service) publishCollected(ctx context.Context, wallets ...*models.Wallet) {
	for _, w := range wallets {
		evts := w.CollectEvents()
		if len(evts) == 0 {
			continue
		}
		if err := s.publisher.PublishEvents(ctx, evts); err != nil {
			w.ReattachEvents(evts)
			log.Printf("event publish failed, %d event(s) queued for retry: %v", len(evts), err)
		}
	}
}

// CreateWallet creates a user's wallet with a zero-balance default currency
// account. Re-requesting creation for a user that already has a wallet
// returns the existing wallet.
func (s *service) CreateWallet(ctx context.Context, userID uint) (*CreateWalletResult, error) {
	if existing, err := s.repo.GetByUserID(ctx, userID); err == nil {
		account, _ := existing.GetCurrencyAccount(s.config.DefaultCurrency)
		result := &CreateWalletResult{WalletID: existing.ID, Currency: s.config.DefaultCurrency}
		if account != nil {
			result.DefaultAccountID = account.ID
		}
		return result, nil
	} else if !errors.Is(err, repositories.ErrWalletNotFound) {
		return nil, err
	}

	wallet := &models.Wallet{UserID: userID, Active: true}
	if _, err := wallet.CreateCurrencyAccount(s.config.DefaultCurrency); err != nil {
		return nil, err
	}

	err := s.repo.ExecuteInTransaction(func(tx repositories.WalletRepository) error {
		return tx.Create(ctx, wallet)
	})
	if err != nil {
		// Lost a creation race: the other request's wallet is the wallet.
		if errors.Is(err, repositories.ErrDuplicateWallet) {
			return s.CreateWallet(ctx, userID)
		}
		return nil, fmt.Errorf("failed to create wallet: %w", err)
	}

	account := &wallet.Accounts[0]
	wallet.Record(models.NewWalletCreatedEvent(wallet.ID, userID, account.ID, account.Currency))
	s.publishCollected(ctx, wallet)
	s.cache.SetWallet(ctx, wallet)

	return &CreateWalletResult{
		WalletID:         wallet.ID,
		DefaultAccountID: account.ID,
		Currency:         account.Currency,
		Created:          true,
	}, nil
}

func (s *service) GetWallet(ctx context.Context, userID uint) (*models.Wallet, error) {
	if wallet, err := s.cache.GetWallet(ctx, userID); err == nil {
		return wallet, nil
	}
	wallet, err := s.repo.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrWalletNotFound) {
			return nil, ErrWalletNotFound
		}
		return nil, fmt.Errorf("failed to get wallet: %w", err)
	}
	s.cache.SetWallet(ctx, wallet)
	return wallet, nil
}

func (s *service) GetBalance(ctx context.Context, userID uint) (*BalanceSummary, error) {
	wallet, err := s.GetWallet(ctx, userID)
	if err != nil {
		return nil, err
	}
	summary := &BalanceSummary{
		BaseCurrency:        s.config.BaseCurrency,
		TotalInBaseCurrency: decimal.Zero,
	}
	for i := range wallet.Accounts {
		account := &wallet.Accounts[i]
		if !account.Active {
			continue
		}
		summary.Balances = append(summary.Balances, CurrencyBalance{
			AccountID: account.ID,
			Currency:  account.Currency,
			Balance:   account.Balance,
		})
		if rate, ok := s.config.Rates[account.Currency]; ok {
			summary.TotalInBaseCurrency = summary.TotalInBaseCurrency.Add(account.Balance.Mul(rate))
		}
	}
	summary.TotalInBaseCurrency = summary.TotalInBaseCurrency.Round(models.DecimalPlaces(s.config.BaseCurrency))
	return summary, nil
}

func (s *service) CreateCurrencyAccount(ctx context.Context, userID uint, currency string) (*models.CurrencyAccount, error) {
	if currency == "" {
		return nil, ErrInvalidCurrency
	}
	var account *models.CurrencyAccount
	err := s.repo.ExecuteInTransaction(func(tx repositories.WalletRepository) error {
		wallet, err := tx.GetByUserIDForUpdate(ctx, userID)
		if err != nil {
			return err
		}
		if !wallet.Active {
			return ErrWalletInactive
		}
		if account, err = wallet.CreateCurrencyAccount(currency); err != nil {
			return err
		}
		return tx.Save(ctx, wallet)
	})
	if err != nil {
		if errors.Is(err, repositories.ErrWalletNotFound) {
			return nil, ErrWalletNotFound
		}
		return nil, err
	}
	s.cache.InvalidateWallet(ctx, userID)
	return account, nil
}

func (s *service) AddBankAccount(ctx context.Context, userID uint, input models.AddBankAccountInput) (*BankAccountView, error) {
	var wallet *models.Wallet
	var added *models.BankAccount
	err := s.repo.ExecuteInTransaction(func(tx repositories.WalletRepository) error {
		var err error
		wallet, err = tx.GetByUserIDForUpdate(ctx, userID)
		if err != nil {
			return err
		}
		if !wallet.Active {
			return ErrWalletInactive
		}
		if added, err = wallet.AddBankAccount(input); err != nil {
			return err
		}
		return tx.Save(ctx, wallet)
	})
	if err != nil {
		if errors.Is(err, repositories.ErrWalletNotFound) {
			return nil, ErrWalletNotFound
		}
		return nil, err
	}

	wallet.Record(models.NewBankAccountAddedEvent(wallet.ID, added))
	s.publishCollected(ctx, wallet)
	s.cache.InvalidateWallet(ctx, userID)

	view := NewBankAccountView(added)
	return &view, nil
}

func (s *service) RemoveBankAccount(ctx context.Context, userID uint, bankAccountID uint) error {
	var wallet *models.Wallet
	var wasDefault bool
	err := s.repo.ExecuteInTransaction(func(tx repositories.WalletRepository) error {
		var err error
		wallet, err = tx.GetByUserIDForUpdate(ctx, userID)
		if err != nil {
			return err
		}
		for i := range wallet.BankAccounts {
			if wallet.BankAccounts[i].ID == bankAccountID {
				wasDefault = wallet.BankAccounts[i].Default
			}
		}
		if err := wallet.RemoveBankAccount(bankAccountID); err != nil {
			return err
		}
		return tx.Save(ctx, wallet)
	})
	if err != nil {
		if errors.Is(err, repositories.ErrWalletNotFound) {
			return ErrWalletNotFound
		}
		return err
	}

	wallet.Record(models.NewBankAccountRemovedEvent(wallet.ID, bankAccountID, wasDefault))
	s.publishCollected(ctx, wallet)
	s.cache.InvalidateWallet(ctx, userID)
	return nil
}
