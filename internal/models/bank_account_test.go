package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// validTestCard passes the Luhn checksum.
const validTestCard = "4242424242424242"

func validBankAccountInput() AddBankAccountInput {
	return AddBankAccountInput{
		BankName:      "Bank Melli",
		AccountNumber: "0123456789",
		TransferCode:  "IR123456789012345678901234",
		HolderName:    "Sara Ahmadi",
	}
}

func TestAddBankAccountValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*AddBankAccountInput)
		ok     bool
	}{
		{name: "valid without card", mutate: func(i *AddBankAccountInput) {}, ok: true},
		{name: "valid with luhn card", mutate: func(i *AddBankAccountInput) { i.CardNumber = validTestCard }, ok: true},
		{name: "blank bank name", mutate: func(i *AddBankAccountInput) { i.BankName = "  " }},
		{name: "short account number", mutate: func(i *AddBankAccountInput) { i.AccountNumber = "12345" }},
		{name: "account number with letters", mutate: func(i *AddBankAccountInput) { i.AccountNumber = "12345abc90" }},
		{name: "transfer code missing prefix", mutate: func(i *AddBankAccountInput) { i.TransferCode = "123456789012345678901234" }},
		{name: "transfer code too short", mutate: func(i *AddBankAccountInput) { i.TransferCode = "IR1234" }},
		{name: "card fails checksum", mutate: func(i *AddBankAccountInput) { i.CardNumber = "4242424242424241" }},
		{name: "card too short", mutate: func(i *AddBankAccountInput) { i.CardNumber = "424242424242424" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := &Wallet{ID: 1, UserID: 1, Active: true}
			input := validBankAccountInput()
			tt.mutate(&input)

			_, err := w.AddBankAccount(input)
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, ErrInvalidBankAccount)
			}
		})
	}
}

func TestAddBankAccountDefaultIsExclusive(t *testing.T) {
	w := &Wallet{ID: 1, UserID: 1, Active: true}

	first := validBankAccountInput()
	first.MakeDefault = true
	a, err := w.AddBankAccount(first)
	require.NoError(t, err)
	assert.True(t, a.Default)

	second := validBankAccountInput()
	second.AccountNumber = "9876543210"
	second.MakeDefault = true
	b, err := w.AddBankAccount(second)
	require.NoError(t, err)

	assert.True(t, b.Default)
	assert.False(t, w.BankAccounts[0].Default, "previous default must be demoted")
}

func TestRemoveBankAccount(t *testing.T) {
	w := &Wallet{ID: 1, UserID: 1, Active: true}

	input := validBankAccountInput()
	input.MakeDefault = true
	added, err := w.AddBankAccount(input)
	require.NoError(t, err)
	added.ID = 7

	other := validBankAccountInput()
	other.AccountNumber = "9876543210"
	b, err := w.AddBankAccount(other)
	require.NoError(t, err)
	b.ID = 8

	require.NoError(t, w.RemoveBankAccount(7))
	assert.False(t, w.BankAccounts[0].Active)
	assert.False(t, w.BankAccounts[0].Default)
	// No other account gets promoted to default.
	assert.False(t, w.BankAccounts[1].Default)

	t.Run("already removed", func(t *testing.T) {
		assert.ErrorIs(t, w.RemoveBankAccount(7), ErrBankAccountNotFound)
	})
	t.Run("unknown id", func(t *testing.T) {
		assert.ErrorIs(t, w.RemoveBankAccount(99), ErrBankAccountNotFound)
	})
}

func TestBankAccountMasking(t *testing.T) {
	b := &BankAccount{
		AccountNumber: "0123456789",
		CardNumber:    validTestCard,
	}
	assert.Equal(t, "******6789", b.MaskedAccountNumber())
	assert.Equal(t, "4242********4242", b.MaskedCardNumber())

	t.Run("short values stay masked to the tail", func(t *testing.T) {
		short := &BankAccount{AccountNumber: "1234"}
		assert.Equal(t, "1234", short.MaskedAccountNumber())
	})
}
