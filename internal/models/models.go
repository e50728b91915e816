package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type AccountStatus string

const (
	AccountStatusActive    AccountStatus = "ACTIVE"
	AccountStatusInactive  AccountStatus = "INACTIVE"
	AccountStatusSuspended AccountStatus = "SUSPENDED"
)

type AccountType string

const (
	AccountTypePersonal AccountType = "PERSONAL"
	AccountTypeBusiness AccountType = "BUSINESS"
)

type CurrencyType string

const (
	CurrencyKRW CurrencyType = "KRW"
	CurrencyUSD CurrencyType = "USD"
	CurrencyEUR CurrencyType = "EUR"
	CurrencyJPY CurrencyType = "JPY"
)

type TransactionType string

const (
	TransactionTypeDeposit  TransactionType = "DEPOSIT"
	TransactionTypeWithdraw TransactionType = "WITHDRAW"
	TransactionTypeTransfer TransactionType = "TRANSFER"
)

type Account struct {
	AccountID     string          `json:"account_id"`
	AccountNumber string          `json:"account_number"`
	AccountName   string          `json:"account_name"`
	BankName      string          `json:"bank_name"`
	AccountType   AccountType     `json:"account_type"`
	CurrencyType  CurrencyType    `json:"currency_type"`
	Balance       decimal.Decimal `json:"balance"`
	Status        AccountStatus   `json:"status"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// Transaction is an immutable ledger record. FromAccountNumber is nil for
// deposits, ToAccountNumber is nil for withdrawals; transfers carry both.
type Transaction struct {
	TransactionID     string          `json:"transaction_id"`
	Type              TransactionType `json:"transaction_type"`
	FromAccountNumber *string         `json:"from_account_number,omitempty"`
	ToAccountNumber   *string         `json:"to_account_number,omitempty"`
	Amount            decimal.Decimal `json:"amount"`
	Fee               decimal.Decimal `json:"fee"`
	CreatedAt         time.Time       `json:"created_at"`
}

type CreateAccountRequest struct {
	AccountName  string       `json:"account_name"`
	AccountType  AccountType  `json:"account_type"`
	CurrencyType CurrencyType `json:"currency_type"`
}

type BalanceRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

// AccountBalance is the result of a deposit or withdrawal.
type AccountBalance struct {
	AccountNumber string          `json:"account_number"`
	Amount        decimal.Decimal `json:"amount"`
	Balance       decimal.Decimal `json:"balance"`
}

type CreateTransferRequest struct {
	FromAccountNumber string          `json:"from_account_number"`
	ToAccountNumber   string          `json:"to_account_number"`
	Amount            decimal.Decimal `json:"amount"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}
