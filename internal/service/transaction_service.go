package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mxxikr/transfer-system/internal/bankday"
	"github.com/mxxikr/transfer-system/internal/errors"
	"github.com/mxxikr/transfer-system/internal/models"
	"github.com/mxxikr/transfer-system/internal/money"
	"github.com/mxxikr/transfer-system/internal/policy"
	"github.com/mxxikr/transfer-system/internal/repository"
)

type TransactionService interface {
	Transfer(ctx context.Context, req *models.CreateTransferRequest) (*models.Transaction, error)
	GetTransactionHistory(ctx context.Context, accountNumber string, page, size int) ([]*models.Transaction, error)
}

type TransactionServiceImpl struct {
	store          repository.Store
	transferPolicy *policy.TransferPolicy
	pagingPolicy   *policy.PagingPolicy
	loc            *time.Location
	now            func() time.Time
	logger         *slog.Logger
}

func NewTransactionService(store repository.Store, transferPolicy *policy.TransferPolicy, pagingPolicy *policy.PagingPolicy, loc *time.Location, logger *slog.Logger) *TransactionServiceImpl {
	return &TransactionServiceImpl{
		store:          store,
		transferPolicy: transferPolicy,
		pagingPolicy:   pagingPolicy,
		loc:            loc,
		now:            time.Now,
		logger:         logger,
	}
}

// Transfer moves funds between two accounts inside one unit of work.
// Both account rows are locked in ascending account-number order regardless
// of direction, so two opposing transfers on the same pair serialize on the
// same first lock instead of deadlocking.
func (s *TransactionServiceImpl) Transfer(ctx context.Context, req *models.CreateTransferRequest) (*models.Transaction, error) {
	if req == nil {
		return nil, errors.ErrInvalidRequest
	}
	if req.FromAccountNumber == "" || req.ToAccountNumber == "" {
		return nil, errors.ErrInvalidAccountNumber
	}
	if req.FromAccountNumber == req.ToAccountNumber {
		return nil, errors.ErrTransferSameAccount
	}
	if req.Amount.LessThanOrEqual(decimal.Zero) {
		return nil, errors.ErrInvalidAmount
	}

	amount := req.Amount

	var record *models.Transaction
	err := s.store.InTx(ctx, func(ledger repository.Ledger) error {
		first, second := req.FromAccountNumber, req.ToAccountNumber
		if first > second {
			first, second = second, first
		}

		firstLock, err := ledger.GetAccountForUpdate(ctx, first)
		if err != nil {
			return err
		}
		secondLock, err := ledger.GetAccountForUpdate(ctx, second)
		if err != nil {
			return err
		}

		// Re-derive direction now that both locks are held.
		sender, receiver := firstLock, secondLock
		if sender.AccountNumber != req.FromAccountNumber {
			sender, receiver = secondLock, firstLock
		}

		if receiver.Status != models.AccountStatusActive {
			return errors.ErrReceiverAccountInactive
		}
		if sender.Status != models.AccountStatusActive {
			return errors.ErrSenderAccountInactive
		}
		if sender.CurrencyType == "" || receiver.CurrencyType == "" || sender.CurrencyType != receiver.CurrencyType {
			return errors.ErrCurrencyTypeMismatch
		}

		fee := s.transferPolicy.CalculateFee(amount)
		if fee.IsNegative() {
			return errors.ErrInvalidFee
		}
		total := amount.Add(fee)

		start, end := bankday.Window(s.now(), s.loc)
		todayUsed, err := ledger.SumTransactionsByType(ctx, sender.AccountNumber, models.TransactionTypeTransfer, start, end)
		if err != nil {
			return errors.NewTransactionError("sum today's transfers", err)
		}
		if err := s.transferPolicy.ValidateTransferAmount(amount, todayUsed); err != nil {
			return err
		}

		if sender.Balance.LessThan(total) {
			s.logger.Warn("insufficient balance for transfer",
				"from_account_number", sender.AccountNumber,
				"required_total", total,
				"available_balance", sender.Balance,
			)
			return errors.ErrInsufficientBalance
		}

		// Both sides validated; apply the precomputed balances together.
		if err := sender.SetBalance(sender.Balance.Sub(total)); err != nil {
			return err
		}
		if err := receiver.SetBalance(receiver.Balance.Add(amount)); err != nil {
			return err
		}

		if err := ledger.SaveAccount(ctx, sender); err != nil {
			return errors.NewTransactionError("save sender account", err)
		}
		if err := ledger.SaveAccount(ctx, receiver); err != nil {
			return errors.NewTransactionError("save receiver account", err)
		}

		record, err = ledger.AppendTransaction(ctx, &models.Transaction{
			Type:              models.TransactionTypeTransfer,
			FromAccountNumber: &sender.AccountNumber,
			ToAccountNumber:   &receiver.AccountNumber,
			Amount:            money.Normalize(amount),
			Fee:               fee,
		})
		if err != nil {
			return errors.NewTransactionError("append transfer transaction", err)
		}
		return nil
	})
	if err != nil {
		if errors.IsBusiness(err) {
			s.logger.Warn("transfer rejected",
				"from_account_number", req.FromAccountNumber,
				"to_account_number", req.ToAccountNumber,
				"amount", amount,
				"error", err.Error(),
			)
		} else {
			s.logger.Error("transfer failed",
				"from_account_number", req.FromAccountNumber,
				"to_account_number", req.ToAccountNumber,
				"error", err.Error(),
			)
		}
		return nil, err
	}

	s.logger.Info("transfer completed",
		"transaction_id", record.TransactionID,
		"from_account_number", req.FromAccountNumber,
		"to_account_number", req.ToAccountNumber,
		"amount", record.Amount,
		"fee", record.Fee,
	)
	return record, nil
}

func (s *TransactionServiceImpl) GetTransactionHistory(ctx context.Context, accountNumber string, page, size int) ([]*models.Transaction, error) {
	if accountNumber == "" {
		return nil, errors.ErrInvalidAccountNumber
	}

	exists, err := s.store.AccountExists(ctx, accountNumber)
	if err != nil {
		return nil, errors.NewTransactionError("check account exists", err)
	}
	if !exists {
		return nil, errors.ErrAccountNotFound
	}

	validatedPage := s.pagingPolicy.ValidatedPage(page)
	validatedSize := s.pagingPolicy.ValidatedSize(size)

	transactions, err := s.store.ListTransactionsByAccount(ctx, accountNumber, validatedPage, validatedSize)
	if err != nil {
		return nil, errors.NewTransactionError("list transactions", err)
	}

	s.logger.Info("transaction history fetched",
		"account_number", accountNumber,
		"page", validatedPage,
		"size", validatedSize,
		"count", len(transactions),
	)
	return transactions, nil
}
