package repository

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mxxikr/transfer-system/internal/errors"
	"github.com/mxxikr/transfer-system/internal/models"
)

func seedAccount(t *testing.T, store *MemoryStore, number, balance string) {
	t.Helper()
	err := store.InTx(context.Background(), func(ledger Ledger) error {
		return ledger.InsertAccount(context.Background(), &models.Account{
			AccountNumber: number,
			AccountName:   "tester",
			BankName:      "testbank",
			AccountType:   models.AccountTypePersonal,
			CurrencyType:  models.CurrencyKRW,
			Balance:       decimal.RequireFromString(balance),
			Status:        models.AccountStatusActive,
		})
	})
	require.NoError(t, err)
}

func TestMemoryStoreInsertAndGet(t *testing.T) {
	store := NewMemoryStore()
	seedAccount(t, store, "0012601150001", "500.00")

	account, err := store.GetAccountByNumber(context.Background(), "0012601150001")
	require.NoError(t, err)
	assert.Equal(t, "500.00", account.Balance.StringFixed(2))
	assert.NotEmpty(t, account.AccountID)

	byID, err := store.GetAccountByID(context.Background(), account.AccountID)
	require.NoError(t, err)
	assert.Equal(t, account.AccountNumber, byID.AccountNumber)

	_, err = store.GetAccountByNumber(context.Background(), "missing")
	assert.ErrorIs(t, err, errors.ErrAccountNotFound)
}

func TestMemoryStoreDuplicateInsert(t *testing.T) {
	store := NewMemoryStore()
	seedAccount(t, store, "0012601150001", "0")

	err := store.InTx(context.Background(), func(ledger Ledger) error {
		return ledger.InsertAccount(context.Background(), &models.Account{
			AccountNumber: "0012601150001",
		})
	})
	assert.ErrorIs(t, err, errors.ErrDuplicateAccountNumber)
}

func TestMemoryStoreRollbackDiscardsAllWrites(t *testing.T) {
	store := NewMemoryStore()
	seedAccount(t, store, "0012601150001", "100.00")

	boom := fmt.Errorf("boom")
	err := store.InTx(context.Background(), func(ledger Ledger) error {
		account, err := ledger.GetAccountForUpdate(context.Background(), "0012601150001")
		require.NoError(t, err)

		account.Balance = decimal.RequireFromString("999.99")
		require.NoError(t, ledger.SaveAccount(context.Background(), account))

		_, err = ledger.AppendTransaction(context.Background(), &models.Transaction{
			Type:            models.TransactionTypeDeposit,
			ToAccountNumber: &account.AccountNumber,
			Amount:          decimal.RequireFromString("899.99"),
			Fee:             decimal.Zero,
		})
		require.NoError(t, err)
		return boom
	})
	require.ErrorIs(t, err, boom)

	account, err := store.GetAccountByNumber(context.Background(), "0012601150001")
	require.NoError(t, err)
	assert.Equal(t, "100.00", account.Balance.StringFixed(2), "rolled-back save must not apply")

	hasTx, err := store.HasTransactions(context.Background(), "0012601150001")
	require.NoError(t, err)
	assert.False(t, hasTx, "rolled-back append must not reach the ledger")
}

func TestMemoryStoreLockBlocksConcurrentUnitOfWork(t *testing.T) {
	store := NewMemoryStore()
	seedAccount(t, store, "0012601150001", "100.00")

	entered := make(chan struct{})
	release := make(chan struct{})
	done := make(chan struct{})

	go func() {
		store.InTx(context.Background(), func(ledger Ledger) error {
			_, err := ledger.GetAccountForUpdate(context.Background(), "0012601150001")
			assert.NoError(t, err)
			close(entered)
			<-release
			return nil
		})
	}()

	<-entered
	go func() {
		store.InTx(context.Background(), func(ledger Ledger) error {
			_, err := ledger.GetAccountForUpdate(context.Background(), "0012601150001")
			return err
		})
		close(done)
	}()

	select {
	case <-done:
		t.Fatal("second unit of work acquired the lock while the first still held it")
	case <-time.After(50 * time.Millisecond):
	}

	close(release)
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("second unit of work never acquired the lock")
	}
}

func TestMemoryStoreSumTransactionsByType(t *testing.T) {
	store := NewMemoryStore()
	seedAccount(t, store, "0012601150001", "1000.00")
	from := "0012601150001"

	addTx := func(txType models.TransactionType, amount string) {
		err := store.InTx(context.Background(), func(ledger Ledger) error {
			_, err := ledger.AppendTransaction(context.Background(), &models.Transaction{
				Type:              txType,
				FromAccountNumber: &from,
				Amount:            decimal.RequireFromString(amount),
				Fee:               decimal.Zero,
			})
			return err
		})
		require.NoError(t, err)
	}

	addTx(models.TransactionTypeWithdraw, "10.00")
	addTx(models.TransactionTypeWithdraw, "15.50")
	addTx(models.TransactionTypeTransfer, "99.00")

	start := time.Now().Add(-time.Hour)
	end := time.Now().Add(time.Hour)

	var total decimal.Decimal
	err := store.InTx(context.Background(), func(ledger Ledger) error {
		var err error
		total, err = ledger.SumTransactionsByType(context.Background(), from, models.TransactionTypeWithdraw, start, end)
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, "25.50", total.StringFixed(2))

	// Outside the window the sum is zero.
	err = store.InTx(context.Background(), func(ledger Ledger) error {
		var err error
		total, err = ledger.SumTransactionsByType(context.Background(), from, models.TransactionTypeWithdraw, start.Add(-2*time.Hour), start)
		return err
	})
	require.NoError(t, err)
	assert.True(t, total.IsZero())
}

func TestMemoryStoreNextAccountNumber(t *testing.T) {
	store := NewMemoryStore()

	for want := int64(1); want <= 3; want++ {
		var got int64
		err := store.InTx(context.Background(), func(ledger Ledger) error {
			var err error
			got, err = ledger.NextAccountNumber(context.Background(), "2026-01-15")
			return err
		})
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	var other int64
	err := store.InTx(context.Background(), func(ledger Ledger) error {
		var err error
		other, err = ledger.NextAccountNumber(context.Background(), "2026-01-16")
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), other, "each date has its own sequence")
}

func TestMemoryStoreListTransactionsByAccountPaging(t *testing.T) {
	store := NewMemoryStore()
	seedAccount(t, store, "0012601150001", "1000.00")
	from := "0012601150001"

	for i := 0; i < 5; i++ {
		err := store.InTx(context.Background(), func(ledger Ledger) error {
			_, err := ledger.AppendTransaction(context.Background(), &models.Transaction{
				Type:              models.TransactionTypeWithdraw,
				FromAccountNumber: &from,
				Amount:            decimal.NewFromInt(int64(i + 1)),
				Fee:               decimal.Zero,
			})
			return err
		})
		require.NoError(t, err)
	}

	page0, err := store.ListTransactionsByAccount(context.Background(), from, 0, 2)
	require.NoError(t, err)
	require.Len(t, page0, 2)

	page2, err := store.ListTransactionsByAccount(context.Background(), from, 2, 2)
	require.NoError(t, err)
	assert.Len(t, page2, 1)

	empty, err := store.ListTransactionsByAccount(context.Background(), from, 5, 2)
	require.NoError(t, err)
	assert.Empty(t, empty)
}
