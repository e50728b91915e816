package models

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/mxxikr/transfer-system/internal/errors"
	"github.com/mxxikr/transfer-system/internal/money"
)

// Balance mutations below are only valid on an account loaded under an
// exclusive lock; the caller's unit of work makes them durable.

// Credit adds amount to the balance. Deposits have no upper bound.
func (a *Account) Credit(amount decimal.Decimal) {
	a.Balance = money.Normalize(a.Balance.Add(amount))
	a.UpdatedAt = time.Now()
}

// Debit subtracts amount from the balance, refusing to go negative.
func (a *Account) Debit(amount decimal.Decimal) error {
	if a.Balance.LessThan(amount) {
		return errors.ErrInsufficientBalance
	}
	a.Balance = money.Normalize(a.Balance.Sub(amount))
	a.UpdatedAt = time.Now()
	return nil
}

// SetBalance assigns a precomputed balance. The transfer path validates
// both sides before mutating either, then applies the new balances directly.
func (a *Account) SetBalance(newBalance decimal.Decimal) error {
	if newBalance.IsNegative() {
		return errors.ErrNegativeBalance
	}
	a.Balance = money.Normalize(newBalance)
	a.UpdatedAt = time.Now()
	return nil
}
