package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mxxikr/transfer-system/internal/errors"
	"github.com/mxxikr/transfer-system/internal/models"
	"github.com/mxxikr/transfer-system/internal/service"
	u "github.com/mxxikr/transfer-system/internal/utils"
)

type AccountHandler struct {
	accountService service.AccountService
	logger         *slog.Logger
}

func NewAccountHandler(accountService service.AccountService, logger *slog.Logger) *AccountHandler {
	return &AccountHandler{
		accountService: accountService,
		logger:         logger,
	}
}

func (h *AccountHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/accounts", h.CreateAccount).Methods(http.MethodPost)
	router.HandleFunc("/accounts/{id}", h.GetAccount).Methods(http.MethodGet)
	router.HandleFunc("/accounts/{id}", h.DeleteAccount).Methods(http.MethodDelete)
	router.HandleFunc("/accounts/{accountNumber}/deposit", h.Deposit).Methods(http.MethodPost)
	router.HandleFunc("/accounts/{accountNumber}/withdraw", h.Withdraw).Methods(http.MethodPost)
}

func (h *AccountHandler) CreateAccount(w http.ResponseWriter, r *http.Request) {
	var req models.CreateAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("invalid create account request", "error", err.Error())
		u.WriteError(w, http.StatusBadRequest, "invalid request payload", err.Error())
		return
	}

	account, err := h.accountService.CreateAccount(r.Context(), &req)
	if err != nil {
		h.handleServiceError(w, err, "create account")
		return
	}

	u.WriteJSON(w, http.StatusCreated, account)
}

func (h *AccountHandler) GetAccount(w http.ResponseWriter, r *http.Request) {
	accountID := mux.Vars(r)["id"]
	if accountID == "" {
		u.WriteError(w, http.StatusBadRequest, "id is required", "")
		return
	}

	account, err := h.accountService.GetAccount(r.Context(), accountID)
	if err != nil {
		h.handleServiceError(w, err, "get account")
		return
	}

	u.WriteJSON(w, http.StatusOK, account)
}

func (h *AccountHandler) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	accountID := mux.Vars(r)["id"]
	if accountID == "" {
		u.WriteError(w, http.StatusBadRequest, "id is required", "")
		return
	}

	if err := h.accountService.DeleteAccount(r.Context(), accountID); err != nil {
		h.handleServiceError(w, err, "delete account")
		return
	}

	u.WriteJSON(w, http.StatusNoContent, nil)
}

func (h *AccountHandler) Deposit(w http.ResponseWriter, r *http.Request) {
	accountNumber := mux.Vars(r)["accountNumber"]

	var req models.BalanceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("invalid deposit request", "error", err.Error())
		u.WriteError(w, http.StatusBadRequest, "invalid request payload", err.Error())
		return
	}

	result, err := h.accountService.Deposit(r.Context(), accountNumber, req.Amount)
	if err != nil {
		h.handleServiceError(w, err, "deposit")
		return
	}

	u.WriteJSON(w, http.StatusOK, result)
}

func (h *AccountHandler) Withdraw(w http.ResponseWriter, r *http.Request) {
	accountNumber := mux.Vars(r)["accountNumber"]

	var req models.BalanceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("invalid withdraw request", "error", err.Error())
		u.WriteError(w, http.StatusBadRequest, "invalid request payload", err.Error())
		return
	}

	result, err := h.accountService.Withdraw(r.Context(), accountNumber, req.Amount)
	if err != nil {
		h.handleServiceError(w, err, "withdraw")
		return
	}

	u.WriteJSON(w, http.StatusOK, result)
}

func (h *AccountHandler) handleServiceError(w http.ResponseWriter, err error, operation string) {
	switch {
	case errors.IsNotFound(err):
		u.WriteError(w, http.StatusNotFound, "account not found", "")
	case errors.IsDuplicate(err):
		u.WriteError(w, http.StatusConflict, "account number already exists", "")
	case errors.IsBusiness(err):
		u.WriteError(w, http.StatusBadRequest, err.Error(), "")
	default:
		h.logger.Error("internal server error during "+operation, "error", err.Error())
		u.WriteError(w, http.StatusInternalServerError, "internal server error", "")
	}
}
