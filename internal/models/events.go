package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DomainEvent is a fact recorded during a unit of work and published to the
// message bus only after the underlying commit succeeds.
type DomainEvent interface {
	EventName() string
	OccurredAt() time.Time
}

type eventMeta struct {
	EventID   uuid.UUID `json:"event_id"`
	Timestamp time.Time `json:"timestamp"`
}

func newEventMeta() eventMeta {
	return eventMeta{EventID: uuid.New(), Timestamp: time.Now()}
}

func (m eventMeta) OccurredAt() time.Time { return m.Timestamp }

// WalletCreatedEvent is raised when a user's wallet is first created.
type WalletCreatedEvent struct {
	eventMeta
	WalletID  uint   `json:"wallet_id"`
	UserID    uint   `json:"user_id"`
	AccountID uint   `json:"account_id"`
	Currency  string `json:"currency"`
}

func (WalletCreatedEvent) EventName() string { return "wallet.created" }

// NewWalletCreatedEvent builds the creation event for a fresh wallet.
func NewWalletCreatedEvent(walletID, userID, accountID uint, currency string) WalletCreatedEvent {
	return WalletCreatedEvent{
		eventMeta: newEventMeta(),
		WalletID:  walletID,
		UserID:    userID,
		AccountID: accountID,
		Currency:  currency,
	}
}

// DepositConfirmedEvent is raised when a gateway confirmation lands on the
// wallet balance.
type DepositConfirmedEvent struct {
	eventMeta
	WalletID         uint            `json:"wallet_id"`
	UserID           uint            `json:"user_id"`
	TransactionID    uint            `json:"transaction_id"`
	PaymentReference string          `json:"payment_reference"`
	Amount           decimal.Decimal `json:"amount"`
	Currency         string          `json:"currency"`
}

func (DepositConfirmedEvent) EventName() string { return "wallet.deposit.confirmed" }

// NewDepositConfirmedEvent builds the confirmation event for a settled deposit.
func NewDepositConfirmedEvent(tx *Transaction) DepositConfirmedEvent {
	return DepositConfirmedEvent{
		eventMeta:        newEventMeta(),
		WalletID:         tx.WalletID,
		UserID:           tx.UserID,
		TransactionID:    tx.ID,
		PaymentReference: tx.PaymentReference,
		Amount:           tx.Amount,
		Currency:         tx.Currency,
	}
}

// TransferCompletedEvent is raised on the sending wallet once both legs and
// the fee have committed.
type TransferCompletedEvent struct {
	eventMeta
	FromWalletID      uint            `json:"from_wallet_id"`
	ToWalletID        uint            `json:"to_wallet_id"`
	FromTransactionID uint            `json:"from_transaction_id"`
	ToTransactionID   uint            `json:"to_transaction_id"`
	Amount            decimal.Decimal `json:"amount"`
	Fee               decimal.Decimal `json:"fee"`
	Currency          string          `json:"currency"`
	TransferReference string          `json:"transfer_reference"`
}

func (TransferCompletedEvent) EventName() string { return "wallet.transfer.completed" }

// NewTransferCompletedEvent builds the event for a committed transfer.
func NewTransferCompletedEvent(out, in *Transaction, fee decimal.Decimal) TransferCompletedEvent {
	return TransferCompletedEvent{
		eventMeta:         newEventMeta(),
		FromWalletID:      out.WalletID,
		ToWalletID:        in.WalletID,
		FromTransactionID: out.ID,
		ToTransactionID:   in.ID,
		Amount:            out.Amount,
		Fee:               fee,
		Currency:          out.Currency,
		TransferReference: out.TransferReference,
	}
}

// TransactionRefundedEvent is raised when a refund settles.
type TransactionRefundedEvent struct {
	eventMeta
	WalletID              uint            `json:"wallet_id"`
	UserID                uint            `json:"user_id"`
	RefundTransactionID   uint            `json:"refund_transaction_id"`
	OriginalTransactionID uint            `json:"original_transaction_id"`
	Amount                decimal.Decimal `json:"amount"`
	Currency              string          `json:"currency"`
}

func (TransactionRefundedEvent) EventName() string { return "wallet.transaction.refunded" }

// NewTransactionRefundedEvent builds the event for a settled refund.
func NewTransactionRefundedEvent(refund *Transaction, originalID uint) TransactionRefundedEvent {
	return TransactionRefundedEvent{
		eventMeta:             newEventMeta(),
		WalletID:              refund.WalletID,
		UserID:                refund.UserID,
		RefundTransactionID:   refund.ID,
		OriginalTransactionID: originalID,
		Amount:                refund.Amount,
		Currency:              refund.Currency,
	}
}

// BankAccountAddedEvent carries only the masked account number.
type BankAccountAddedEvent struct {
	eventMeta
	WalletID      uint   `json:"wallet_id"`
	BankAccountID uint   `json:"bank_account_id"`
	BankName      string `json:"bank_name"`
	MaskedAccount string `json:"masked_account"`
	Default       bool   `json:"default"`
}

func (BankAccountAddedEvent) EventName() string { return "wallet.bank_account.added" }

// NewBankAccountAddedEvent builds the event for a newly attached bank account.
func NewBankAccountAddedEvent(walletID uint, account *BankAccount) BankAccountAddedEvent {
	return BankAccountAddedEvent{
		eventMeta:     newEventMeta(),
		WalletID:      walletID,
		BankAccountID: account.ID,
		BankName:      account.BankName,
		MaskedAccount: account.MaskedAccountNumber(),
		Default:       account.Default,
	}
}

// BankAccountRemovedEvent is raised when a bank account is soft-deleted.
type BankAccountRemovedEvent struct {
	eventMeta
	WalletID      uint `json:"wallet_id"`
	BankAccountID uint `json:"bank_account_id"`
	WasDefault    bool `json:"was_default"`
}

func (BankAccountRemovedEvent) EventName() string { return "wallet.bank_account.removed" }

// NewBankAccountRemovedEvent builds the event for a soft-deleted bank account.
func NewBankAccountRemovedEvent(walletID, bankAccountID uint, wasDefault bool) BankAccountRemovedEvent {
	return BankAccountRemovedEvent{
		eventMeta:     newEventMeta(),
		WalletID:      walletID,
		BankAccountID: bankAccountID,
		WasDefault:    wasDefault,
	}
}
