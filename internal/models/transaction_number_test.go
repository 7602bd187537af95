package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTransactionNumber(t *testing.T) {
	n := NewTransactionNumber()
	parsed, err := ParseTransactionNumber(n.String())
	require.NoError(t, err)
	assert.Equal(t, n, parsed)
}

func TestParseTransactionNumber(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{name: "valid", input: "TXN-20260115-134502-0042"},
		{name: "missing prefix", input: "20260115-134502-0042", wantErr: true},
		{name: "short random suffix", input: "TXN-20260115-134502-42", wantErr: true},
		{name: "letters in date", input: "TXN-2026Ol15-134502-0042", wantErr: true},
		{name: "empty", input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseTransactionNumber(tt.input)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidTransactionNumber)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
