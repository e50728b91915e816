package errors

import (
	"errors"
	"fmt"
)

// Domain error types for the transfer system
var (
	ErrInvalidRequest          = errors.New("invalid request")
	ErrInvalidAccountNumber    = errors.New("invalid account number")
	ErrInvalidAmount           = errors.New("invalid amount")
	ErrInvalidFee              = errors.New("invalid fee")
	ErrAccountNotFound         = errors.New("account not found")
	ErrDuplicateAccountNumber  = errors.New("account number already exists")
	ErrAccountHasTransactions  = errors.New("account has transaction history and cannot be deleted")
	ErrTransferSameAccount     = errors.New("source and destination accounts cannot be the same")
	ErrSenderAccountInactive   = errors.New("sender account is not active")
	ErrReceiverAccountInactive = errors.New("receiver account is not active")
	ErrCurrencyTypeMismatch    = errors.New("currency types do not match")
	ErrInsufficientBalance     = errors.New("insufficient balance")
	ErrNegativeBalance         = errors.New("balance cannot be negative")
	ErrExceedsWithdrawLimit    = errors.New("daily withdraw limit exceeded")
	ErrTransferLimitExceeded   = errors.New("daily transfer limit exceeded")
)

// TransactionError wraps unexpected storage or unit-of-work failures.
// These are internal errors, never business-rule violations.
type TransactionError struct {
	Operation string
	Cause     error
}

func (e *TransactionError) Error() string {
	return fmt.Sprintf("transaction error during '%s': %v", e.Operation, e.Cause)
}

func (e *TransactionError) Unwrap() error {
	return e.Cause
}

func NewTransactionError(operation string, cause error) error {
	return &TransactionError{
		Operation: operation,
		Cause:     cause,
	}
}

func IsNotFound(err error) bool {
	return errors.Is(err, ErrAccountNotFound)
}

func IsInsufficientBalance(err error) bool {
	return errors.Is(err, ErrInsufficientBalance)
}

func IsDuplicate(err error) bool {
	return errors.Is(err, ErrDuplicateAccountNumber)
}

func IsInternal(err error) bool {
	var txErr *TransactionError
	return errors.As(err, &txErr)
}

// IsBusiness reports whether err is one of the typed business-rule
// violations. Anything else reaching the caller is treated as internal.
func IsBusiness(err error) bool {
	for _, e := range []error{
		ErrInvalidRequest, ErrInvalidAccountNumber, ErrInvalidAmount, ErrInvalidFee,
		ErrAccountNotFound, ErrDuplicateAccountNumber, ErrAccountHasTransactions,
		ErrTransferSameAccount, ErrSenderAccountInactive, ErrReceiverAccountInactive,
		ErrCurrencyTypeMismatch, ErrInsufficientBalance, ErrNegativeBalance,
		ErrExceedsWithdrawLimit, ErrTransferLimitExceeded,
	} {
		if errors.Is(err, e) {
			return true
		}
	}
	return false
}
