package policy

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mxxikr/transfer-system/internal/errors"
)

func mustPolicy(t *testing.T, feeRate, withdrawLimit, transferLimit string) *TransferPolicy {
	t.Helper()
	p, err := NewTransferPolicy(
		decimal.RequireFromString(feeRate),
		decimal.RequireFromString(withdrawLimit),
		decimal.RequireFromString(transferLimit),
	)
	require.NoError(t, err)
	return p
}

func TestNewTransferPolicyRejectsNegativeValues(t *testing.T) {
	tests := []struct {
		name          string
		feeRate       string
		withdrawLimit string
		transferLimit string
	}{
		{"negative fee rate", "-0.01", "1000000", "3000000"},
		{"negative withdraw limit", "0.01", "-1", "3000000"},
		{"negative transfer limit", "0.01", "1000000", "-1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewTransferPolicy(
				decimal.RequireFromString(tt.feeRate),
				decimal.RequireFromString(tt.withdrawLimit),
				decimal.RequireFromString(tt.transferLimit),
			)
			assert.Error(t, err)
		})
	}
}

func TestCalculateFee(t *testing.T) {
	p := mustPolicy(t, "0.01", "1000000", "3000000")

	tests := []struct {
		name   string
		amount string
		want   string
	}{
		{"rounds half up", "12345.67", "123.46"},
		{"zero amount", "0", "0.00"},
		{"exact cents", "100000", "1000.00"},
		{"rounds down below half", "12345.12", "123.45"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fee := p.CalculateFee(decimal.RequireFromString(tt.amount))
			assert.True(t, fee.Equal(decimal.RequireFromString(tt.want)),
				"got %s want %s", fee, tt.want)
			assert.Equal(t, int32(-2), fee.Exponent(), "fee must carry scale 2")
		})
	}
}

func TestCalculateFeeZeroRate(t *testing.T) {
	p := mustPolicy(t, "0", "1000000", "3000000")
	fee := p.CalculateFee(decimal.RequireFromString("98765.43"))
	assert.True(t, fee.IsZero())
}

func TestValidateWithdrawAmount(t *testing.T) {
	p := mustPolicy(t, "0.01", "1000000", "3000000")

	// Exactly reaching the limit is allowed.
	err := p.ValidateWithdrawAmount(
		decimal.RequireFromString("400000"),
		decimal.RequireFromString("600000"),
	)
	assert.NoError(t, err)

	// One unit past the limit is not.
	err = p.ValidateWithdrawAmount(
		decimal.RequireFromString("500000"),
		decimal.RequireFromString("600000"),
	)
	assert.ErrorIs(t, err, errors.ErrExceedsWithdrawLimit)
}

func TestValidateTransferAmount(t *testing.T) {
	p := mustPolicy(t, "0.01", "1000000", "3000000")

	err := p.ValidateTransferAmount(
		decimal.RequireFromString("3000000"),
		decimal.Zero,
	)
	assert.NoError(t, err)

	err = p.ValidateTransferAmount(
		decimal.RequireFromString("0.01"),
		decimal.RequireFromString("3000000"),
	)
	assert.ErrorIs(t, err, errors.ErrTransferLimitExceeded)
}
