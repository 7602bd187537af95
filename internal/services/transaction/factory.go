// Package transaction owns construction of ledger entries and the read-side
// queries over them. Each transaction kind has its own constructor so the
// kind-specific rules live in one place while the persisted shape stays
// uniform.
package transaction

import (
	"fmt"
	"time"

	"safarpay/internal/models"
)

func newTransaction(wallet *models.Wallet, account *models.CurrencyAccount, amount models.Money, txType, direction, description string) (*models.Transaction, error) {
	if !amount.Value().IsPositive() {
		return nil, fmt.Errorf("%w: transaction amount must be positive", models.ErrInvalidAmount)
	}
	if amount.Currency() != account.Currency {
		return nil, fmt.Errorf("%w: amount is %s, account is %s", models.ErrCurrencyMismatch, amount.Currency(), account.Currency)
	}
	return &models.Transaction{
		WalletID:    wallet.ID,
		AccountID:   account.ID,
		UserID:      wallet.UserID,
		Type:        txType,
		Direction:   direction,
		Amount:      amount.Value(),
		Currency:    amount.Currency(),
		Status:      models.TransactionStatusPending,
		Description: description,
		Number:      models.NewTransactionNumber().String(),
	}, nil
}

// NewDepositTransaction builds a deposit. A non-empty payment reference
// marks it as awaiting external confirmation; settled deposits are completed
// by the account's ProcessDeposit.
func NewDepositTransaction(wallet *models.Wallet, account *models.CurrencyAccount, amount models.Money, description, paymentReference string) (*models.Transaction, error) {
	tx, err := newTransaction(wallet, account, amount, models.TransactionTypeDeposit, models.DirectionIn, description)
	if err != nil {
		return nil, err
	}
	tx.PaymentReference = paymentReference
	return tx, nil
}

// NewPurchaseTransaction builds an outgoing purchase tied to an order.
func NewPurchaseTransaction(wallet *models.Wallet, account *models.CurrencyAccount, amount models.Money, orderID, description string) (*models.Transaction, error) {
	tx, err := newTransaction(wallet, account, amount, models.TransactionTypePurchase, models.DirectionOut, description)
	if err != nil {
		return nil, err
	}
	tx.OrderID = orderID
	return tx, nil
}

// NewCreditTransaction builds an incoming credit with a repayment due date.
func NewCreditTransaction(wallet *models.Wallet, account *models.CurrencyAccount, amount models.Money, dueDate time.Time, description string) (*models.Transaction, error) {
	tx, err := newTransaction(wallet, account, amount, models.TransactionTypeCredit, models.DirectionIn, description)
	if err != nil {
		return nil, err
	}
	tx.DueDate = &dueDate
	return tx, nil
}

// NewRefundTransaction builds a refund linked to a refundable original
// transaction. Amount bounds against prior partial refunds are the
// orchestrator's check; refundability of the original is enforced here.
func NewRefundTransaction(wallet *models.Wallet, account *models.CurrencyAccount, amount models.Money, original *models.Transaction, window time.Duration, description string) (*models.Transaction, error) {
	if !original.IsRefundable(window) {
		return nil, fmt.Errorf("%w: transaction %s is not refundable", models.ErrInvalidTransaction, original.Number)
	}
	if amount.Value().GreaterThan(original.Amount) {
		return nil, fmt.Errorf("%w: refund exceeds original amount", models.ErrInvalidTransaction)
	}
	tx, err := newTransaction(wallet, account, amount, models.TransactionTypeRefund, models.DirectionIn, description)
	if err != nil {
		return nil, err
	}
	tx.RelatedTransactionID = &original.ID
	return tx, nil
}

// NewTransferPair builds the linked out/in legs of a transfer. Both legs
// share the transfer reference; the id link between them is completed by the
// orchestrator once the database assigns ids.
func NewTransferPair(fromWallet *models.Wallet, fromAccount *models.CurrencyAccount,
	toWallet *models.Wallet, toAccount *models.CurrencyAccount,
	amount models.Money, transferReference, description string) (out *models.Transaction, in *models.Transaction, err error) {

	out, err = newTransaction(fromWallet, fromAccount, amount, models.TransactionTypeTransfer, models.DirectionOut, description)
	if err != nil {
		return nil, nil, err
	}
	in, err = newTransaction(toWallet, toAccount, amount, models.TransactionTypeTransfer, models.DirectionIn, description)
	if err != nil {
		return nil, nil, err
	}
	out.TransferReference = transferReference
	in.TransferReference = transferReference
	return out, in, nil
}

// NewFeeTransaction builds the fee charged to the sender of a transfer,
// linked to the outgoing leg.
func NewFeeTransaction(wallet *models.Wallet, account *models.CurrencyAccount, fee models.Money, relatedTransactionID uint, description string) (*models.Transaction, error) {
	tx, err := newTransaction(wallet, account, fee, models.TransactionTypeFee, models.DirectionOut, description)
	if err != nil {
		return nil, err
	}
	tx.RelatedTransactionID = &relatedTransactionID
	return tx, nil
}
