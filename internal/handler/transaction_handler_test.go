package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mxxikr/transfer-system/internal/models"
	"github.com/mxxikr/transfer-system/internal/policy"
	"github.com/mxxikr/transfer-system/internal/repository"
	"github.com/mxxikr/transfer-system/internal/service"
)

func newTestRouter(t *testing.T, store repository.Store) *mux.Router {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	transferPolicy, err := policy.NewTransferPolicy(
		decimal.RequireFromString("0.01"),
		decimal.RequireFromString("1000000"),
		decimal.RequireFromString("3000000"),
	)
	require.NoError(t, err)
	pagingPolicy, err := policy.NewPagingPolicy(0, 10, 100)
	require.NoError(t, err)
	loc, err := time.LoadLocation("Asia/Seoul")
	require.NoError(t, err)

	accountService := service.NewAccountService(store, transferPolicy, service.NewAccountNumberGenerator(loc), loc, logger)
	transactionService := service.NewTransactionService(store, transferPolicy, pagingPolicy, loc, logger)

	router := mux.NewRouter()
	NewAccountHandler(accountService, logger).RegisterRoutes(router)
	NewTransactionHandler(transactionService, logger).RegisterRoutes(router)
	return router
}

func seedAccount(t *testing.T, store repository.Store, number, balance string) {
	t.Helper()
	err := store.InTx(context.Background(), func(ledger repository.Ledger) error {
		return ledger.InsertAccount(context.Background(), &models.Account{
			AccountNumber: number,
			AccountName:   "tester",
			BankName:      "mxxikrBank",
			AccountType:   models.AccountTypePersonal,
			CurrencyType:  models.CurrencyKRW,
			Balance:       decimal.RequireFromString(balance),
			Status:        models.AccountStatusActive,
		})
	})
	require.NoError(t, err)
}

func TestCreateTransferEndpoint(t *testing.T) {
	store := repository.NewMemoryStore()
	router := newTestRouter(t, store)
	seedAccount(t, store, "00126011500001", "200000.00")
	seedAccount(t, store, "00126011500002", "100000.00")

	body, _ := json.Marshal(models.CreateTransferRequest{
		FromAccountNumber: "00126011500001",
		ToAccountNumber:   "00126011500002",
		Amount:            decimal.RequireFromString("100000"),
	})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/transactions", bytes.NewReader(body)))

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var record models.Transaction
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &record))
	assert.Equal(t, models.TransactionTypeTransfer, record.Type)
	assert.True(t, record.Amount.Equal(decimal.RequireFromString("100000")))
	assert.True(t, record.Fee.Equal(decimal.RequireFromString("1000")))
}

func TestCreateTransferEndpointInsufficientBalance(t *testing.T) {
	store := repository.NewMemoryStore()
	router := newTestRouter(t, store)
	seedAccount(t, store, "00126011500001", "100.00")
	seedAccount(t, store, "00126011500002", "100.00")

	body, _ := json.Marshal(models.CreateTransferRequest{
		FromAccountNumber: "00126011500001",
		ToAccountNumber:   "00126011500002",
		Amount:            decimal.RequireFromString("100000"),
	})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/transactions", bytes.NewReader(body)))

	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var resp models.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "insufficient balance", resp.Error)
}

func TestDepositAndHistoryEndpoints(t *testing.T) {
	store := repository.NewMemoryStore()
	router := newTestRouter(t, store)
	seedAccount(t, store, "00126011500001", "0.00")

	body, _ := json.Marshal(models.BalanceRequest{Amount: decimal.RequireFromString("5000")})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/accounts/00126011500001/deposit", bytes.NewReader(body)))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var balance models.AccountBalance
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &balance))
	assert.True(t, balance.Balance.Equal(decimal.RequireFromString("5000")))

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/transactions/00126011500001?page=0&size=10", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var history []models.Transaction
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &history))
	assert.Len(t, history, 1)
	assert.Equal(t, models.TransactionTypeDeposit, history[0].Type)
}

func TestGetHistoryUnknownAccount(t *testing.T) {
	store := repository.NewMemoryStore()
	router := newTestRouter(t, store)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/transactions/00126011599999", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
