package wallet

import (
	"context"

	"safarpay/internal/models"

	"github.com/shopspring/decimal"
)

// Config holds wallet service policy. Rates are the constant per-currency
// conversion rates into the base currency used for the balance total;
// currencies without a rate are listed but excluded from the total.
type Config struct {
	DefaultCurrency string
	BaseCurrency    string
	Rates           map[string]decimal.Decimal
}

// CacheOperator is the read-side cache the service consults before the
// database and invalidates after every committed mutation.
type CacheOperator interface {
	GetWallet(ctx context.Context, userID uint) (*models.Wallet, error)
	SetWallet(ctx context.Context, wallet *models.Wallet) error
	InvalidateWallet(ctx context.Context, userID uint) error
}

// NoopCache satisfies CacheOperator without caching anything.
type NoopCache struct{}

func (NoopCache) GetWallet(context.Context, uint) (*models.Wallet, error) {
	return nil, ErrCacheMiss
}
func (NoopCache) SetWallet(context.Context, *models.Wallet) error { return nil }
func (NoopCache) InvalidateWallet(context.Context, uint) error    { return nil }

// CreateWalletResult reports the wallet and its default currency account.
type CreateWalletResult struct {
	WalletID         uint   `json:"wallet_id"`
	DefaultAccountID uint   `json:"default_account_id"`
	Currency         string `json:"currency"`
	Created          bool   `json:"created"`
}

// CurrencyBalance is one per-currency line of a balance summary.
type CurrencyBalance struct {
	AccountID uint            `json:"account_id"`
	Currency  string          `json:"currency"`
	Balance   decimal.Decimal `json:"balance"`
}

// BalanceSummary lists every currency balance plus the total expressed in
// the base currency.
type BalanceSummary struct {
	Balances            []CurrencyBalance `json:"balances"`
	TotalInBaseCurrency decimal.Decimal   `json:"total_in_base_currency"`
	BaseCurrency        string            `json:"base_currency"`
}

// BankAccountView is the masked representation exposed to callers.
type BankAccountView struct {
	ID            uint   `json:"id"`
	BankName      string `json:"bank_name"`
	MaskedAccount string `json:"masked_account"`
	MaskedCard    string `json:"masked_card,omitempty"`
	HolderName    string `json:"holder_name,omitempty"`
	Verified      bool   `json:"verified"`
	Default       bool   `json:"default"`
}

// NewBankAccountView masks a bank account for external exposure.
func NewBankAccountView(b *models.BankAccount) BankAccountView {
	view := BankAccountView{
		ID:            b.ID,
		BankName:      b.BankName,
		MaskedAccount: b.MaskedAccountNumber(),
		HolderName:    b.HolderName,
		Verified:      b.Verified,
		Default:       b.Default,
	}
	if b.CardNumber != "" {
		view.MaskedCard = b.MaskedCardNumber()
	}
	return view
}
