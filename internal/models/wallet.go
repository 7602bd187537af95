package models

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Wallet is the aggregate root for a user's funds. It owns one currency
// account per currency in use plus the user's bank accounts, and it is the
// unit that gets loaded, locked and saved as a whole.
type Wallet struct {
	ID           uint              `gorm:"primarykey" json:"id"`
	UserID       uint              `gorm:"uniqueIndex;not null" json:"user_id"`
	Active       bool              `gorm:"default:true" json:"active"`
	Accounts     []CurrencyAccount `gorm:"foreignKey:WalletID" json:"accounts"`
	BankAccounts []BankAccount     `gorm:"foreignKey:WalletID" json:"bank_accounts"`
	CreatedAt    time.Time         `json:"created_at"`
	UpdatedAt    time.Time         `json:"updated_at"`
	DeletedAt    gorm.DeletedAt    `gorm:"index" json:"-"`

	// pendingEvents holds domain events raised during the current unit of
	// work. Never persisted; drained by the service after a successful commit.
	pendingEvents []DomainEvent `gorm:"-"`
}

// CurrencyAccount is a single-currency balance bucket inside a wallet. The
// balance never goes negative: every mutation checks first, mutates second,
// and marks the backing transaction terminal last.
type CurrencyAccount struct {
	ID        uint            `gorm:"primarykey" json:"id"`
	WalletID  uint            `gorm:"index;not null" json:"wallet_id"`
	Currency  string          `gorm:"not null" json:"currency"`
	Balance   decimal.Decimal `gorm:"type:decimal(32,8);default:0;not null" json:"balance"`
	Active    bool            `gorm:"default:true" json:"active"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// BalanceMoney returns the current balance as a value object.
func (a *CurrencyAccount) BalanceMoney() Money {
	return Money{value: a.Balance, currency: a.Currency}
}

// HasSufficientBalance reports whether the balance covers the amount.
func (a *CurrencyAccount) HasSufficientBalance(amount Money) bool {
	return a.Balance.GreaterThanOrEqual(amount.Value())
}

func (a *CurrencyAccount) guardMutation(tx *Transaction, direction string) error {
	if tx.Status != TransactionStatusPending && tx.Status != TransactionStatusProcessing {
		return fmt.Errorf("%w: transaction %s already %s", ErrInvalidTransaction, tx.Number, tx.Status)
	}
	if tx.Direction != direction {
		return fmt.Errorf("%w: expected %s transaction, got %s", ErrInvalidTransaction, direction, tx.Direction)
	}
	if tx.Currency != a.Currency {
		return fmt.Errorf("%w: transaction is %s, account is %s", ErrCurrencyMismatch, tx.Currency, a.Currency)
	}
	return nil
}

// ProcessDeposit credits the account with the transaction amount and settles
// the transaction.
func (a *CurrencyAccount) ProcessDeposit(tx *Transaction) error {
	if err := a.guardMutation(tx, DirectionIn); err != nil {
		return err
	}
	a.Balance = a.Balance.Add(tx.Amount)
	return tx.MarkCompleted()
}

// ProcessTransfer applies one leg of a transfer. Outgoing legs are checked
// for sufficiency before any mutation; incoming legs are credited.
func (a *CurrencyAccount) ProcessTransfer(tx *Transaction, amount Money) error {
	if err := a.guardMutation(tx, tx.Direction); err != nil {
		return err
	}
	if amount.Currency() != a.Currency {
		return fmt.Errorf("%w: amount is %s, account is %s", ErrCurrencyMismatch, amount.Currency(), a.Currency)
	}
	if tx.Direction == DirectionOut {
		if !a.HasSufficientBalance(amount) {
			return &InsufficientBalanceError{
				WalletID:  a.WalletID,
				Requested: amount.Value(),
				Available: a.Balance,
				Currency:  a.Currency,
			}
		}
		a.Balance = a.Balance.Sub(amount.Value())
	} else {
		a.Balance = a.Balance.Add(amount.Value())
	}
	return tx.MarkCompleted()
}

// ProcessRefund credits the refund amount back to the account and settles
// the refund transaction.
func (a *CurrencyAccount) ProcessRefund(tx *Transaction) error {
	if err := a.guardMutation(tx, DirectionIn); err != nil {
		return err
	}
	if tx.Type != TransactionTypeRefund {
		return fmt.Errorf("%w: expected refund transaction, got %s", ErrInvalidTransaction, tx.Type)
	}
	a.Balance = a.Balance.Add(tx.Amount)
	return tx.MarkCompleted()
}

// GetCurrencyAccount returns the active account for a currency, if any.
func (w *Wallet) GetCurrencyAccount(currency string) (*CurrencyAccount, bool) {
	for i := range w.Accounts {
		if w.Accounts[i].Currency == currency && w.Accounts[i].Active {
			return &w.Accounts[i], true
		}
	}
	return nil, false
}

// CreateCurrencyAccount opens a zero-balance account for a currency the
// wallet does not hold yet.
func (w *Wallet) CreateCurrencyAccount(currency string) (*CurrencyAccount, error) {
	if _, ok := w.GetCurrencyAccount(currency); ok {
		return nil, fmt.Errorf("%w: %s", ErrDuplicateCurrencyAccount, currency)
	}
	w.Accounts = append(w.Accounts, CurrencyAccount{
		WalletID: w.ID,
		Currency: currency,
		Balance:  decimal.Zero,
		Active:   true,
	})
	return &w.Accounts[len(w.Accounts)-1], nil
}

// Record appends a domain event to the wallet's pending queue.
func (w *Wallet) Record(event DomainEvent) {
	w.pendingEvents = append(w.pendingEvents, event)
}

// CollectEvents returns the pending events and clears the queue, so a retry
// of the surrounding operation cannot publish them twice.
func (w *Wallet) CollectEvents() []DomainEvent {
	events := w.pendingEvents
	w.pendingEvents = nil
	return events
}

// ReattachEvents puts events back on the queue after a failed publish so a
// later attempt can retry them instead of dropping them.
func (w *Wallet) ReattachEvents(events []DomainEvent) {
	w.pendingEvents = append(events, w.pendingEvents...)
}
