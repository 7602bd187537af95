package models

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Transaction types
const (
	TransactionTypeDeposit  = "deposit"
	TransactionTypePurchase = "purchase"
	TransactionTypeRefund   = "refund"
	TransactionTypeTransfer = "transfer"
	TransactionTypeFee      = "fee"
	TransactionTypeCredit   = "credit"
)

// Transaction directions
const (
	DirectionIn  = "in"
	DirectionOut = "out"
)

// Transaction statuses
const (
	TransactionStatusPending    = "pending"
	TransactionStatusProcessing = "processing"
	TransactionStatusCompleted  = "completed"
	TransactionStatusFailed     = "failed"
	TransactionStatusCancelled  = "cancelled"
	TransactionStatusRefunded   = "refunded"
)

// legalTransitions is the closed set of forward status moves. Anything not
// listed here is an illegal transition.
var legalTransitions = map[string][]string{
	TransactionStatusPending:    {TransactionStatusProcessing, TransactionStatusCompleted, TransactionStatusFailed, TransactionStatusCancelled},
	TransactionStatusProcessing: {TransactionStatusCompleted, TransactionStatusCancelled},
	TransactionStatusCompleted:  {TransactionStatusRefunded},
}

// Transaction is an append-only ledger entry. Once created only its status
// moves, and only forward through legalTransitions.
type Transaction struct {
	ID                   uint            `gorm:"primarykey" json:"id"`
	WalletID             uint            `gorm:"index;not null" json:"wallet_id"`
	AccountID            uint            `gorm:"index;not null" json:"account_id"`
	UserID               uint            `gorm:"index;not null" json:"user_id"`
	Type                 string          `gorm:"not null" json:"type"`
	Direction            string          `gorm:"not null" json:"direction"`
	Amount               decimal.Decimal `gorm:"type:decimal(32,8);not null" json:"amount"`
	Currency             string          `gorm:"not null" json:"currency"`
	Status               string          `gorm:"not null;default:'pending'" json:"status"`
	Description          string          `json:"description"`
	Number               string          `gorm:"uniqueIndex;not null" json:"number"`
	PaymentReference     string          `gorm:"index" json:"payment_reference,omitempty"` // external gateway authority
	OrderID              string          `gorm:"index" json:"order_id,omitempty"`          // order/correlation context
	TransferReference    string          `gorm:"index" json:"transfer_reference,omitempty"`
	RelatedTransactionID *uint           `gorm:"index" json:"related_transaction_id,omitempty"`
	FailureReason        string          `json:"failure_reason,omitempty"`
	DueDate              *time.Time      `json:"due_date,omitempty"`
	CreatedAt            time.Time       `json:"created_at"`
	UpdatedAt            time.Time       `json:"updated_at"`
	ProcessedAt          *time.Time      `json:"processed_at,omitempty"`
}

// Money returns the transaction amount as a value object.
func (t *Transaction) Money() Money {
	return Money{value: t.Amount, currency: t.Currency}
}

func (t *Transaction) canTransitionTo(status string) bool {
	for _, next := range legalTransitions[t.Status] {
		if next == status {
			return true
		}
	}
	return false
}

func (t *Transaction) transitionTo(status string) error {
	if !t.canTransitionTo(status) {
		return fmt.Errorf("%w: cannot move transaction %s from %s to %s",
			ErrInvalidTransaction, t.Number, t.Status, status)
	}
	t.Status = status
	return nil
}

// MarkProcessing moves a pending transaction into processing.
func (t *Transaction) MarkProcessing() error {
	return t.transitionTo(TransactionStatusProcessing)
}

// MarkCompleted settles the transaction and stamps the processed time.
func (t *Transaction) MarkCompleted() error {
	if err := t.transitionTo(TransactionStatusCompleted); err != nil {
		return err
	}
	now := time.Now()
	t.ProcessedAt = &now
	return nil
}

// MarkFailed fails a pending transaction with a reason.
func (t *Transaction) MarkFailed(reason string) error {
	if t.Status != TransactionStatusPending {
		return fmt.Errorf("%w: cannot fail transaction %s in status %s",
			ErrInvalidTransaction, t.Number, t.Status)
	}
	t.Status = TransactionStatusFailed
	t.FailureReason = reason
	return nil
}

// MarkRefunded flags a completed transaction as fully refunded.
func (t *Transaction) MarkRefunded() error {
	return t.transitionTo(TransactionStatusRefunded)
}

// Cancel aborts any non-terminal transaction.
func (t *Transaction) Cancel() error {
	return t.transitionTo(TransactionStatusCancelled)
}

// SetPaymentReference attaches the gateway authority to a pending transaction.
func (t *Transaction) SetPaymentReference(authority string) error {
	if t.Status != TransactionStatusPending {
		return fmt.Errorf("%w: payment reference can only be set while pending", ErrInvalidTransaction)
	}
	t.PaymentReference = authority
	return nil
}

// IsRefundable reports whether this transaction can back a refund: it must be
// completed, not already refunded, debit-causing (or a settled deposit), and
// settled within the refund window.
func (t *Transaction) IsRefundable(window time.Duration) bool {
	if t.Status != TransactionStatusCompleted {
		return false
	}
	if t.Direction != DirectionOut && t.Type != TransactionTypeDeposit {
		return false
	}
	settled := t.CreatedAt
	if t.ProcessedAt != nil {
		settled = *t.ProcessedAt
	}
	return time.Since(settled) <= window
}

// IsTerminal reports whether the status admits no further transition other
// than the completed->refunded move.
func (t *Transaction) IsTerminal() bool {
	switch t.Status {
	case TransactionStatusCompleted, TransactionStatusFailed, TransactionStatusCancelled, TransactionStatusRefunded:
		return true
	}
	return false
}
