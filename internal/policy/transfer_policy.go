// Package policy holds the pure business-rule computations: transfer fees,
// daily limits and history paging. Policies are built once at startup from
// validated configuration and never change afterwards.
package policy

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/mxxikr/transfer-system/internal/errors"
	"github.com/mxxikr/transfer-system/internal/money"
)

type TransferPolicy struct {
	feeRate            decimal.Decimal
	withdrawDailyLimit decimal.Decimal
	transferDailyLimit decimal.Decimal
}

// NewTransferPolicy validates the configured values once. Invalid values are
// a startup failure, not a per-request error.
func NewTransferPolicy(feeRate, withdrawDailyLimit, transferDailyLimit decimal.Decimal) (*TransferPolicy, error) {
	if feeRate.IsNegative() {
		return nil, fmt.Errorf("transfer policy: fee rate must not be negative, got %s", feeRate)
	}
	if withdrawDailyLimit.IsNegative() {
		return nil, fmt.Errorf("transfer policy: withdraw daily limit must not be negative, got %s", withdrawDailyLimit)
	}
	if transferDailyLimit.IsNegative() {
		return nil, fmt.Errorf("transfer policy: transfer daily limit must not be negative, got %s", transferDailyLimit)
	}
	return &TransferPolicy{
		feeRate:            feeRate,
		withdrawDailyLimit: withdrawDailyLimit,
		transferDailyLimit: transferDailyLimit,
	}, nil
}

// CalculateFee returns amount * feeRate rounded half up to the money scale.
func (p *TransferPolicy) CalculateFee(amount decimal.Decimal) decimal.Decimal {
	return money.Normalize(amount.Mul(p.feeRate))
}

// ValidateWithdrawAmount rejects a withdrawal that would push today's total
// over the daily limit. Landing exactly on the limit is allowed.
func (p *TransferPolicy) ValidateWithdrawAmount(amount, todayWithdrawTotal decimal.Decimal) error {
	if todayWithdrawTotal.Add(amount).GreaterThan(p.withdrawDailyLimit) {
		return errors.ErrExceedsWithdrawLimit
	}
	return nil
}

// ValidateTransferAmount applies the same rule against the transfer limit.
// The principal amount is compared, not amount plus fee.
func (p *TransferPolicy) ValidateTransferAmount(amount, todayTransferTotal decimal.Decimal) error {
	if todayTransferTotal.Add(amount).GreaterThan(p.transferDailyLimit) {
		return errors.ErrTransferLimitExceeded
	}
	return nil
}
