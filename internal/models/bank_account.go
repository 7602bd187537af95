package models

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

var (
	accountNumberPattern = regexp.MustCompile(`^\d{6,20}$`)
	transferCodePattern  = regexp.MustCompile(`^[A-Z]{2}\d{24}$`)
	cardNumberPattern    = regexp.MustCompile(`^\d{16}$`)
)

// BankAccount is a payout/verification record owned by a wallet. Account and
// card numbers are stored raw but only ever exposed masked.
type BankAccount struct {
	ID            uint      `gorm:"primarykey" json:"id"`
	WalletID      uint      `gorm:"index;not null" json:"wallet_id"`
	BankName      string    `gorm:"not null" json:"bank_name"`
	AccountNumber string    `gorm:"not null" json:"-"`
	CardNumber    string    `json:"-"`
	TransferCode  string    `json:"-"` // national IBAN-style code, e.g. IR + 24 digits
	HolderName    string    `json:"holder_name,omitempty"`
	Verified      bool      `gorm:"default:false" json:"verified"`
	Default       bool      `gorm:"default:false" json:"default"`
	Active        bool      `gorm:"default:true" json:"active"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// AddBankAccountInput carries the raw fields for a new bank account.
type AddBankAccountInput struct {
	BankName      string
	AccountNumber string
	CardNumber    string
	TransferCode  string
	HolderName    string
	Verified      bool
	MakeDefault   bool
}

// luhnValid runs the Luhn checksum over a digit string, right to left.
func luhnValid(number string) bool {
	var sum int
	shouldDouble := false
	for i := len(number) - 1; i >= 0; i-- {
		digit := int(number[i] - '0')
		if shouldDouble {
			digit *= 2
			if digit > 9 {
				digit -= 9
			}
		}
		sum += digit
		shouldDouble = !shouldDouble
	}
	return sum%10 == 0
}

func validateBankAccountInput(input AddBankAccountInput) error {
	if strings.TrimSpace(input.BankName) == "" {
		return fmt.Errorf("%w: bank name is required", ErrInvalidBankAccount)
	}
	if !accountNumberPattern.MatchString(input.AccountNumber) {
		return fmt.Errorf("%w: account number must be 6-20 digits", ErrInvalidBankAccount)
	}
	if input.TransferCode != "" && !transferCodePattern.MatchString(input.TransferCode) {
		return fmt.Errorf("%w: transfer code must be a two-letter prefix followed by 24 digits", ErrInvalidBankAccount)
	}
	if input.CardNumber != "" {
		if !cardNumberPattern.MatchString(input.CardNumber) || !luhnValid(input.CardNumber) {
			return fmt.Errorf("%w: card number failed checksum", ErrInvalidBankAccount)
		}
	}
	return nil
}

// AddBankAccount validates and attaches a bank account to the wallet. When
// MakeDefault is set, the default flag on every other account is cleared
// first so exactly one default exists at a time.
func (w *Wallet) AddBankAccount(input AddBankAccountInput) (*BankAccount, error) {
	if err := validateBankAccountInput(input); err != nil {
		return nil, err
	}
	if input.MakeDefault {
		for i := range w.BankAccounts {
			w.BankAccounts[i].Default = false
		}
	}
	w.BankAccounts = append(w.BankAccounts, BankAccount{
		WalletID:      w.ID,
		BankName:      input.BankName,
		AccountNumber: input.AccountNumber,
		CardNumber:    input.CardNumber,
		TransferCode:  input.TransferCode,
		HolderName:    input.HolderName,
		Verified:      input.Verified,
		Default:       input.MakeDefault,
		Active:        true,
	})
	return &w.BankAccounts[len(w.BankAccounts)-1], nil
}

// RemoveBankAccount soft-deletes a bank account. A removed default leaves no
// default selected; callers must pick a new one explicitly.
func (w *Wallet) RemoveBankAccount(id uint) error {
	for i := range w.BankAccounts {
		if w.BankAccounts[i].ID == id && w.BankAccounts[i].Active {
			w.BankAccounts[i].Active = false
			w.BankAccounts[i].Default = false
			return nil
		}
	}
	return fmt.Errorf("%w: id %d", ErrBankAccountNotFound, id)
}

func maskDigits(number string, visibleTail int) string {
	if len(number) <= visibleTail {
		return number
	}
	return strings.Repeat("*", len(number)-visibleTail) + number[len(number)-visibleTail:]
}

// MaskedAccountNumber hides all but the last four digits.
func (b *BankAccount) MaskedAccountNumber() string {
	return maskDigits(b.AccountNumber, 4)
}

// MaskedCardNumber shows the first and last four digits of a card number.
func (b *BankAccount) MaskedCardNumber() string {
	if len(b.CardNumber) < 16 {
		return maskDigits(b.CardNumber, 4)
	}
	return b.CardNumber[:4] + strings.Repeat("*", len(b.CardNumber)-8) + b.CardNumber[len(b.CardNumber)-4:]
}
