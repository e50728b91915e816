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

const bankName = "mxxikrBank"

type AccountService interface {
	CreateAccount(ctx context.Context, req *models.CreateAccountRequest) (*models.Account, error)
	GetAccount(ctx context.Context, accountID string) (*models.Account, error)
	DeleteAccount(ctx context.Context, accountID string) error
	Deposit(ctx context.Context, accountNumber string, amount decimal.Decimal) (*models.AccountBalance, error)
	Withdraw(ctx context.Context, accountNumber string, amount decimal.Decimal) (*models.AccountBalance, error)
}

type AccountServiceImpl struct {
	store          repository.Store
	transferPolicy *policy.TransferPolicy
	numberGen      *AccountNumberGenerator
	loc            *time.Location
	now            func() time.Time
	logger         *slog.Logger
}

func NewAccountService(store repository.Store, transferPolicy *policy.TransferPolicy, numberGen *AccountNumberGenerator, loc *time.Location, logger *slog.Logger) *AccountServiceImpl {
	return &AccountServiceImpl{
		store:          store,
		transferPolicy: transferPolicy,
		numberGen:      numberGen,
		loc:            loc,
		now:            time.Now,
		logger:         logger,
	}
}

func (s *AccountServiceImpl) CreateAccount(ctx context.Context, req *models.CreateAccountRequest) (*models.Account, error) {
	if req == nil || req.AccountName == "" || req.AccountType == "" || req.CurrencyType == "" {
		return nil, errors.ErrInvalidRequest
	}

	var account *models.Account
	err := s.store.InTx(ctx, func(ledger repository.Ledger) error {
		accountNumber, err := s.numberGen.Generate(ctx, ledger)
		if err != nil {
			return errors.NewTransactionError("generate account number", err)
		}

		account = &models.Account{
			AccountNumber: accountNumber,
			AccountName:   req.AccountName,
			BankName:      bankName,
			AccountType:   req.AccountType,
			CurrencyType:  req.CurrencyType,
			Balance:       money.Normalize(decimal.Zero),
			Status:        models.AccountStatusActive,
		}
		return ledger.InsertAccount(ctx, account)
	})
	if err != nil {
		s.logger.Error("failed to create account",
			"account_name", req.AccountName,
			"error", err.Error(),
		)
		return nil, err
	}

	s.logger.Info("account created successfully",
		"account_number", account.AccountNumber,
	)
	return account, nil
}

func (s *AccountServiceImpl) GetAccount(ctx context.Context, accountID string) (*models.Account, error) {
	if accountID == "" {
		return nil, errors.ErrInvalidRequest
	}

	account, err := s.store.GetAccountByID(ctx, accountID)
	if err != nil {
		if errors.IsNotFound(err) {
			s.logger.Warn("account not found",
				"account_id", accountID,
			)
			return nil, err
		}
		s.logger.Error("failed to get account",
			"account_id", accountID,
			"error", err.Error(),
		)
		return nil, err
	}
	return account, nil
}

func (s *AccountServiceImpl) DeleteAccount(ctx context.Context, accountID string) error {
	if accountID == "" {
		return errors.ErrInvalidRequest
	}

	account, err := s.store.GetAccountByID(ctx, accountID)
	if err != nil {
		return err
	}

	hasTransactions, err := s.store.HasTransactions(ctx, account.AccountNumber)
	if err != nil {
		return errors.NewTransactionError("check transaction history", err)
	}

	// An account with ledger history must keep its audit trail.
	if hasTransactions {
		return errors.ErrAccountHasTransactions
	}

	return s.store.DeleteAccount(ctx, accountID)
}

func (s *AccountServiceImpl) Deposit(ctx context.Context, accountNumber string, amount decimal.Decimal) (*models.AccountBalance, error) {
	if accountNumber == "" || amount.LessThanOrEqual(decimal.Zero) {
		s.logger.Warn("invalid deposit request",
			"account_number", accountNumber,
			"amount", amount,
		)
		return nil, errors.ErrInvalidRequest
	}

	var result *models.AccountBalance
	err := s.store.InTx(ctx, func(ledger repository.Ledger) error {
		account, err := ledger.GetAccountForUpdate(ctx, accountNumber)
		if err != nil {
			return err
		}

		account.Credit(amount)
		if err := ledger.SaveAccount(ctx, account); err != nil {
			return errors.NewTransactionError("save account", err)
		}

		_, err = ledger.AppendTransaction(ctx, &models.Transaction{
			Type:            models.TransactionTypeDeposit,
			ToAccountNumber: &account.AccountNumber,
			Amount:          money.Normalize(amount),
			Fee:             money.Normalize(decimal.Zero),
		})
		if err != nil {
			return errors.NewTransactionError("append deposit transaction", err)
		}

		result = &models.AccountBalance{
			AccountNumber: account.AccountNumber,
			Amount:        money.Normalize(amount),
			Balance:       account.Balance,
		}
		return nil
	})
	if err != nil {
		if errors.IsBusiness(err) {
			s.logger.Warn("deposit rejected",
				"account_number", accountNumber,
				"error", err.Error(),
			)
		} else {
			s.logger.Error("deposit failed",
				"account_number", accountNumber,
				"error", err.Error(),
			)
		}
		return nil, err
	}

	s.logger.Info("deposit completed",
		"account_number", accountNumber,
		"amount", amount,
	)
	return result, nil
}

func (s *AccountServiceImpl) Withdraw(ctx context.Context, accountNumber string, amount decimal.Decimal) (*models.AccountBalance, error) {
	if accountNumber == "" || amount.LessThanOrEqual(decimal.Zero) {
		s.logger.Warn("invalid withdraw request",
			"account_number", accountNumber,
			"amount", amount,
		)
		return nil, errors.ErrInvalidRequest
	}

	var result *models.AccountBalance
	err := s.store.InTx(ctx, func(ledger repository.Ledger) error {
		account, err := ledger.GetAccountForUpdate(ctx, accountNumber)
		if err != nil {
			return err
		}

		// The daily total is read with the account lock held, so no other
		// withdrawal on this account can slip between the check and the debit.
		start, end := bankday.Window(s.now(), s.loc)
		todayUsed, err := ledger.SumTransactionsByType(ctx, accountNumber, models.TransactionTypeWithdraw, start, end)
		if err != nil {
			return errors.NewTransactionError("sum today's withdrawals", err)
		}

		if err := s.transferPolicy.ValidateWithdrawAmount(amount, todayUsed); err != nil {
			return err
		}
		if err := account.Debit(amount); err != nil {
			return err
		}
		if err := ledger.SaveAccount(ctx, account); err != nil {
			return errors.NewTransactionError("save account", err)
		}

		_, err = ledger.AppendTransaction(ctx, &models.Transaction{
			Type:              models.TransactionTypeWithdraw,
			FromAccountNumber: &account.AccountNumber,
			Amount:            money.Normalize(amount),
			Fee:               money.Normalize(decimal.Zero),
		})
		if err != nil {
			return errors.NewTransactionError("append withdraw transaction", err)
		}

		result = &models.AccountBalance{
			AccountNumber: account.AccountNumber,
			Amount:        money.Normalize(amount),
			Balance:       account.Balance,
		}
		return nil
	})
	if err != nil {
		if errors.IsBusiness(err) {
			s.logger.Warn("withdrawal rejected",
				"account_number", accountNumber,
				"amount", amount,
				"error", err.Error(),
			)
		} else {
			s.logger.Error("withdrawal failed",
				"account_number", accountNumber,
				"error", err.Error(),
			)
		}
		return nil, err
	}

	s.logger.Info("withdrawal completed",
		"account_number", accountNumber,
		"amount", amount,
	)
	return result, nil
}
