package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/mxxikr/transfer-system/internal/errors"
	"github.com/mxxikr/transfer-system/internal/models"
)

// PostgresStore backs the ledger with Postgres. Exclusive account locks are
// SELECT ... FOR UPDATE rows inside a READ COMMITTED transaction.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) InTx(ctx context.Context, fn func(Ledger) error) error {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return errors.NewTransactionError("begin", err)
	}

	// Ensure rollback unless committed
	defer func() {
		if tx != nil {
			tx.Rollback()
		}
	}()

	if err := fn(&pgLedger{tx: tx}); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return errors.NewTransactionError("commit", err)
	}
	tx = nil
	return nil
}

const accountColumns = `account_id, account_number, account_name, bank_name, account_type, currency_type, balance, status, created_at, updated_at`

func scanAccount(row *sql.Row) (*models.Account, error) {
	account := &models.Account{}
	err := row.Scan(
		&account.AccountID,
		&account.AccountNumber,
		&account.AccountName,
		&account.BankName,
		&account.AccountType,
		&account.CurrencyType,
		&account.Balance,
		&account.Status,
		&account.CreatedAt,
		&account.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.ErrAccountNotFound
		}
		return nil, fmt.Errorf("failed to scan account: %w", err)
	}
	return account, nil
}

func (s *PostgresStore) GetAccountByNumber(ctx context.Context, accountNumber string) (*models.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE account_number = $1`
	return scanAccount(s.db.QueryRowContext(ctx, query, accountNumber))
}

func (s *PostgresStore) GetAccountByID(ctx context.Context, accountID string) (*models.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE account_id = $1`
	return scanAccount(s.db.QueryRowContext(ctx, query, accountID))
}

func (s *PostgresStore) DeleteAccount(ctx context.Context, accountID string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM accounts WHERE account_id = $1`, accountID)
	if err != nil {
		return fmt.Errorf("failed to delete account: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected after deleting account: %w", err)
	}
	if rowsAffected == 0 {
		return errors.ErrAccountNotFound
	}
	return nil
}

func (s *PostgresStore) AccountExists(ctx context.Context, accountNumber string) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM accounts WHERE account_number = $1)`, accountNumber).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check if account exists: %w", err)
	}
	return exists, nil
}

func (s *PostgresStore) HasTransactions(ctx context.Context, accountNumber string) (bool, error) {
	query := `SELECT EXISTS(
		SELECT 1 FROM transactions
		WHERE from_account_number = $1 OR to_account_number = $1)`

	var exists bool
	if err := s.db.QueryRowContext(ctx, query, accountNumber).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check transaction history: %w", err)
	}
	return exists, nil
}

func (s *PostgresStore) ListTransactionsByAccount(ctx context.Context, accountNumber string, page, size int) ([]*models.Transaction, error) {
	query := `SELECT transaction_id, transaction_type, from_account_number, to_account_number, amount, fee, created_at
		FROM transactions
		WHERE from_account_number = $1 OR to_account_number = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`

	rows, err := s.db.QueryContext(ctx, query, accountNumber, size, page*size)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions by account: %w", err)
	}
	defer rows.Close()

	var transactions []*models.Transaction
	for rows.Next() {
		transaction := &models.Transaction{}
		var from, to sql.NullString
		err := rows.Scan(
			&transaction.TransactionID,
			&transaction.Type,
			&from,
			&to,
			&transaction.Amount,
			&transaction.Fee,
			&transaction.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		if from.Valid {
			transaction.FromAccountNumber = &from.String
		}
		if to.Valid {
			transaction.ToAccountNumber = &to.String
		}
		transactions = append(transactions, transaction)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating over transactions: %w", err)
	}
	return transactions, nil
}

// pgLedger scopes ledger operations to one database transaction.
type pgLedger struct {
	tx *sql.Tx
}

func (l *pgLedger) GetAccountForUpdate(ctx context.Context, accountNumber string) (*models.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE account_number = $1 FOR UPDATE`
	return scanAccount(l.tx.QueryRowContext(ctx, query, accountNumber))
}

func (l *pgLedger) SaveAccount(ctx context.Context, account *models.Account) error {
	query := `UPDATE accounts SET balance = $1, status = $2, updated_at = $3 WHERE account_number = $4`

	result, err := l.tx.ExecContext(ctx, query, account.Balance, account.Status, account.UpdatedAt, account.AccountNumber)
	if err != nil {
		return fmt.Errorf("failed to save account: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected after saving account: %w", err)
	}
	if rowsAffected == 0 {
		return errors.ErrAccountNotFound
	}
	return nil
}

func (l *pgLedger) InsertAccount(ctx context.Context, account *models.Account) error {
	if account.AccountID == "" {
		account.AccountID = uuid.New().String()
	}

	query := `INSERT INTO accounts (` + accountColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
		RETURNING created_at, updated_at`

	err := l.tx.QueryRowContext(ctx, query,
		account.AccountID,
		account.AccountNumber,
		account.AccountName,
		account.BankName,
		account.AccountType,
		account.CurrencyType,
		account.Balance,
		account.Status,
	).Scan(&account.CreatedAt, &account.UpdatedAt)

	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return errors.ErrDuplicateAccountNumber
		}
		return fmt.Errorf("failed to insert account: %w", err)
	}
	return nil
}

func (l *pgLedger) SumTransactionsByType(ctx context.Context, accountNumber string, txType models.TransactionType, start, end time.Time) (decimal.Decimal, error) {
	query := `SELECT COALESCE(SUM(amount), 0)
		FROM transactions
		WHERE from_account_number = $1
		  AND transaction_type = $2
		  AND created_at >= $3 AND created_at < $4`

	var total decimal.Decimal
	err := l.tx.QueryRowContext(ctx, query, accountNumber, txType, start, end).Scan(&total)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to sum transactions: %w", err)
	}
	return total, nil
}

func (l *pgLedger) AppendTransaction(ctx context.Context, transaction *models.Transaction) (*models.Transaction, error) {
	if transaction.TransactionID == "" {
		transaction.TransactionID = uuid.New().String()
	}

	query := `INSERT INTO transactions (transaction_id, transaction_type, from_account_number, to_account_number, amount, fee)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at`

	var from, to sql.NullString
	if transaction.FromAccountNumber != nil {
		from = sql.NullString{String: *transaction.FromAccountNumber, Valid: true}
	}
	if transaction.ToAccountNumber != nil {
		to = sql.NullString{String: *transaction.ToAccountNumber, Valid: true}
	}

	err := l.tx.QueryRowContext(ctx, query,
		transaction.TransactionID,
		transaction.Type,
		from,
		to,
		transaction.Amount,
		transaction.Fee,
	).Scan(&transaction.CreatedAt)

	if err != nil {
		return nil, fmt.Errorf("failed to append transaction: %w", err)
	}
	return transaction, nil
}

func (l *pgLedger) NextAccountNumber(ctx context.Context, dateKey string) (int64, error) {
	// Upsert keeps the increment atomic; the updated row stays locked for
	// the rest of the unit of work.
	query := `INSERT INTO account_number_seq (id, last_number)
		VALUES ($1, 1)
		ON CONFLICT (id) DO UPDATE SET last_number = account_number_seq.last_number + 1
		RETURNING last_number`

	var next int64
	if err := l.tx.QueryRowContext(ctx, query, dateKey).Scan(&next); err != nil {
		return 0, fmt.Errorf("failed to advance account number sequence: %w", err)
	}
	return next, nil
}
