// Package repository defines the ledger storage contract and its Postgres
// and in-memory implementations.
//
// The unit of mutual exclusion is the account row: GetAccountForUpdate
// blocks until the caller holds the account's exclusive lock, and the lock
// is held until the enclosing unit of work commits or rolls back. Any
// backing store that honors that contract can sit behind Ledger.
package repository

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mxxikr/transfer-system/internal/models"
)

// Ledger is the set of operations available inside one atomic unit of work.
type Ledger interface {
	// GetAccountForUpdate loads an account under an exclusive lock, blocking
	// until the lock is obtainable. Returns errors.ErrAccountNotFound when
	// the account does not exist.
	GetAccountForUpdate(ctx context.Context, accountNumber string) (*models.Account, error)

	// SaveAccount persists a mutated account.
	SaveAccount(ctx context.Context, account *models.Account) error

	// InsertAccount creates a new account row. Returns
	// errors.ErrDuplicateAccountNumber on an account number collision.
	InsertAccount(ctx context.Context, account *models.Account) error

	// SumTransactionsByType returns the sum of amounts for the account's
	// outgoing transactions of the given type with created_at in
	// [start, end). Zero when there are no rows.
	SumTransactionsByType(ctx context.Context, accountNumber string, txType models.TransactionType, start, end time.Time) (decimal.Decimal, error)

	// AppendTransaction writes one immutable ledger record and returns it
	// with its generated id and timestamp.
	AppendTransaction(ctx context.Context, tx *models.Transaction) (*models.Transaction, error)

	// NextAccountNumber increments and returns the daily account number
	// sequence for dateKey under an exclusive row lock.
	NextAccountNumber(ctx context.Context, dateKey string) (int64, error)
}

// Store owns the connections and runs units of work. Reads that need no
// locking go directly through the store.
type Store interface {
	// InTx runs fn as one atomic unit of work. If fn returns an error the
	// whole unit of work rolls back and the error is returned unchanged;
	// begin/commit failures are wrapped in errors.TransactionError.
	InTx(ctx context.Context, fn func(Ledger) error) error

	GetAccountByNumber(ctx context.Context, accountNumber string) (*models.Account, error)
	GetAccountByID(ctx context.Context, accountID string) (*models.Account, error)
	DeleteAccount(ctx context.Context, accountID string) error
	AccountExists(ctx context.Context, accountNumber string) (bool, error)

	// HasTransactions reports whether the account appears in the ledger on
	// either side of any transaction.
	HasTransactions(ctx context.Context, accountNumber string) (bool, error)

	// ListTransactionsByAccount returns the account's transactions newest
	// first, for the given zero-based page.
	ListTransactionsByAccount(ctx context.Context, accountNumber string, page, size int) ([]*models.Transaction, error)
}
