package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/mxxikr/transfer-system/internal/errors"
	"github.com/mxxikr/transfer-system/internal/models"
	"github.com/mxxikr/transfer-system/internal/service"
	u "github.com/mxxikr/transfer-system/internal/utils"
)

type TransactionHandler struct {
	transactionService service.TransactionService
	logger             *slog.Logger
}

func NewTransactionHandler(transactionService service.TransactionService, logger *slog.Logger) *TransactionHandler {
	return &TransactionHandler{
		transactionService: transactionService,
		logger:             logger,
	}
}

func (h *TransactionHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/transactions", h.CreateTransfer).Methods(http.MethodPost)
	router.HandleFunc("/transactions/{accountNumber}", h.GetTransactionHistory).Methods(http.MethodGet)
}

func (h *TransactionHandler) CreateTransfer(w http.ResponseWriter, r *http.Request) {
	var req models.CreateTransferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("invalid transfer request", "error", err.Error())
		u.WriteError(w, http.StatusBadRequest, "invalid request payload", err.Error())
		return
	}

	record, err := h.transactionService.Transfer(r.Context(), &req)
	if err != nil {
		h.handleServiceError(w, err, "transfer")
		return
	}

	u.WriteJSON(w, http.StatusCreated, record)
}

func (h *TransactionHandler) GetTransactionHistory(w http.ResponseWriter, r *http.Request) {
	accountNumber := mux.Vars(r)["accountNumber"]

	page := parseQueryInt(r, "page", -1)
	size := parseQueryInt(r, "size", 0)

	transactions, err := h.transactionService.GetTransactionHistory(r.Context(), accountNumber, page, size)
	if err != nil {
		h.handleServiceError(w, err, "get transaction history")
		return
	}

	u.WriteJSON(w, http.StatusOK, transactions)
}

func parseQueryInt(r *http.Request, key string, fallback int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return value
}

func (h *TransactionHandler) handleServiceError(w http.ResponseWriter, err error, operation string) {
	switch {
	case errors.IsNotFound(err):
		u.WriteError(w, http.StatusNotFound, "account not found", "")
	case errors.IsInsufficientBalance(err):
		u.WriteError(w, http.StatusBadRequest, "insufficient balance", "sender account does not have enough funds")
	case errors.IsBusiness(err):
		u.WriteError(w, http.StatusBadRequest, err.Error(), "")
	default:
		h.logger.Error("internal server error during "+operation, "error", err.Error())
		u.WriteError(w, http.StatusInternalServerError, "internal server error", "")
	}
}
