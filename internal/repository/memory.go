package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mxxikr/transfer-system/internal/errors"
	"github.com/mxxikr/transfer-system/internal/models"
)

// MemoryStore satisfies the same locking contract as the Postgres store
// with an in-process mutex per account: GetAccountForUpdate blocks until
// the account's mutex is held, and the mutex is released when the unit of
// work ends. Writes are staged per unit of work and applied on commit, so
// a failed unit of work leaves no partial state. Used by tests and as the
// "memory" storage driver.
type MemoryStore struct {
	mu           sync.Mutex
	accounts     map[string]*memAccount // keyed by account number
	numberByID   map[string]string
	transactions []*models.Transaction
	seq          map[string]int64
}

type memAccount struct {
	mu      sync.Mutex
	account models.Account
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		accounts:   make(map[string]*memAccount),
		numberByID: make(map[string]string),
		seq:        make(map[string]int64),
	}
}

func (s *MemoryStore) InTx(ctx context.Context, fn func(Ledger) error) error {
	session := &memLedger{
		store:  s,
		held:   make(map[string]*memAccount),
		saves:  make(map[string]models.Account),
		insert: make(map[string]models.Account),
	}
	defer session.release()

	if err := fn(session); err != nil {
		return err
	}
	session.commit()
	return nil
}

func (s *MemoryStore) GetAccountByNumber(ctx context.Context, accountNumber string) (*models.Account, error) {
	s.mu.Lock()
	ma, ok := s.accounts[accountNumber]
	s.mu.Unlock()
	if !ok {
		return nil, errors.ErrAccountNotFound
	}

	ma.mu.Lock()
	account := ma.account
	ma.mu.Unlock()
	return &account, nil
}

func (s *MemoryStore) GetAccountByID(ctx context.Context, accountID string) (*models.Account, error) {
	s.mu.Lock()
	number, ok := s.numberByID[accountID]
	s.mu.Unlock()
	if !ok {
		return nil, errors.ErrAccountNotFound
	}
	return s.GetAccountByNumber(ctx, number)
}

func (s *MemoryStore) DeleteAccount(ctx context.Context, accountID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	number, ok := s.numberByID[accountID]
	if !ok {
		return errors.ErrAccountNotFound
	}
	delete(s.accounts, number)
	delete(s.numberByID, accountID)
	return nil
}

func (s *MemoryStore) AccountExists(ctx context.Context, accountNumber string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.accounts[accountNumber]
	return ok, nil
}

func (s *MemoryStore) HasTransactions(ctx context.Context, accountNumber string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, tx := range s.transactions {
		if involves(tx, accountNumber) {
			return true, nil
		}
	}
	return false, nil
}

func (s *MemoryStore) ListTransactionsByAccount(ctx context.Context, accountNumber string, page, size int) ([]*models.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var matched []*models.Transaction
	for _, tx := range s.transactions {
		if involves(tx, accountNumber) {
			copied := *tx
			matched = append(matched, &copied)
		}
	}
	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	offset := page * size
	if offset >= len(matched) {
		return nil, nil
	}
	limit := offset + size
	if limit > len(matched) {
		limit = len(matched)
	}
	return matched[offset:limit], nil
}

func involves(tx *models.Transaction, accountNumber string) bool {
	if tx.FromAccountNumber != nil && *tx.FromAccountNumber == accountNumber {
		return true
	}
	if tx.ToAccountNumber != nil && *tx.ToAccountNumber == accountNumber {
		return true
	}
	return false
}

// memLedger is one in-flight unit of work. Locks are acquired in the order
// the caller asks for them; lock ordering is the caller's responsibility,
// exactly as with database row locks.
type memLedger struct {
	store  *MemoryStore
	locked []*memAccount
	held   map[string]*memAccount
	saves  map[string]models.Account
	insert map[string]models.Account
	txs    []*models.Transaction
}

func (l *memLedger) GetAccountForUpdate(ctx context.Context, accountNumber string) (*models.Account, error) {
	if ma, ok := l.held[accountNumber]; ok {
		account := ma.account
		if staged, ok := l.saves[accountNumber]; ok {
			account = staged
		}
		return &account, nil
	}

	l.store.mu.Lock()
	ma, ok := l.store.accounts[accountNumber]
	l.store.mu.Unlock()
	if !ok {
		return nil, errors.ErrAccountNotFound
	}

	// Blocks until any other unit of work holding this account finishes.
	ma.mu.Lock()
	l.locked = append(l.locked, ma)
	l.held[accountNumber] = ma

	account := ma.account
	return &account, nil
}

func (l *memLedger) SaveAccount(ctx context.Context, account *models.Account) error {
	if _, ok := l.held[account.AccountNumber]; !ok {
		if _, ok := l.insert[account.AccountNumber]; !ok {
			return errors.ErrAccountNotFound
		}
	}
	l.saves[account.AccountNumber] = *account
	return nil
}

func (l *memLedger) InsertAccount(ctx context.Context, account *models.Account) error {
	l.store.mu.Lock()
	_, exists := l.store.accounts[account.AccountNumber]
	l.store.mu.Unlock()
	if exists {
		return errors.ErrDuplicateAccountNumber
	}
	if _, staged := l.insert[account.AccountNumber]; staged {
		return errors.ErrDuplicateAccountNumber
	}

	if account.AccountID == "" {
		account.AccountID = uuid.New().String()
	}
	now := time.Now()
	account.CreatedAt = now
	account.UpdatedAt = now

	l.insert[account.AccountNumber] = *account
	return nil
}

func (l *memLedger) SumTransactionsByType(ctx context.Context, accountNumber string, txType models.TransactionType, start, end time.Time) (decimal.Decimal, error) {
	total := decimal.Zero

	sum := func(tx *models.Transaction) {
		if tx.Type != txType {
			return
		}
		if tx.FromAccountNumber == nil || *tx.FromAccountNumber != accountNumber {
			return
		}
		if tx.CreatedAt.Before(start) || !tx.CreatedAt.Before(end) {
			return
		}
		total = total.Add(tx.Amount)
	}

	l.store.mu.Lock()
	for _, tx := range l.store.transactions {
		sum(tx)
	}
	l.store.mu.Unlock()
	for _, tx := range l.txs {
		sum(tx)
	}
	return total, nil
}

func (l *memLedger) AppendTransaction(ctx context.Context, transaction *models.Transaction) (*models.Transaction, error) {
	if transaction.TransactionID == "" {
		transaction.TransactionID = uuid.New().String()
	}
	transaction.CreatedAt = time.Now()

	copied := *transaction
	l.txs = append(l.txs, &copied)
	return transaction, nil
}

func (l *memLedger) NextAccountNumber(ctx context.Context, dateKey string) (int64, error) {
	l.store.mu.Lock()
	defer l.store.mu.Unlock()
	l.store.seq[dateKey]++
	return l.store.seq[dateKey], nil
}

// commit applies staged writes while the account locks are still held.
func (l *memLedger) commit() {
	l.store.mu.Lock()
	defer l.store.mu.Unlock()

	for number, account := range l.insert {
		if staged, ok := l.saves[number]; ok {
			account = staged
		}
		ma := &memAccount{account: account}
		l.store.accounts[number] = ma
		l.store.numberByID[account.AccountID] = number
	}
	for number, account := range l.saves {
		if ma, ok := l.held[number]; ok {
			ma.account = account
		}
	}
	l.store.transactions = append(l.store.transactions, l.txs...)
}

func (l *memLedger) release() {
	for i := len(l.locked) - 1; i >= 0; i-- {
		l.locked[i].mu.Unlock()
	}
	l.locked = nil
}
