package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/custodia/ledger/internal/adapter/http/dto"
	"github.com/custodia/ledger/internal/ledger"
)

// WalletService defines the behavior needed by WalletHandler.
type WalletService interface {
	Deposit(ctx context.Context, input ledger.DepositInput) (*ledger.OperationResult, error)
	Withdraw(ctx context.Context, input ledger.WithdrawInput) (*ledger.OperationResult, error)
}

// WalletHandler handles deposit and withdrawal HTTP requests.
type WalletHandler struct {
	engine WalletService
}

// NewWalletHandler creates a new WalletHandler.
func NewWalletHandler(engine WalletService) *WalletHandler {
	return &WalletHandler{engine: engine}
}

// Deposit credits an account.
func (h *WalletHandler) Deposit(w http.ResponseWriter, r *http.Request) {
	accountID := chi.URLParam(r, "id")

	var req dto.MoneyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	key := r.Header.Get(IdempotencyKeyHeader)

	result, err := h.engine.Deposit(r.Context(), req.ToDepositInput(accountID, key))
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, replayStatus(w, http.StatusCreated, result.Replayed), dto.OperationFromResult(result))
}

// Withdraw debits an account.
func (h *WalletHandler) Withdraw(w http.ResponseWriter, r *http.Request) {
	accountID := chi.URLParam(r, "id")

	var req dto.MoneyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	key := r.Header.Get(IdempotencyKeyHeader)

	result, err := h.engine.Withdraw(r.Context(), req.ToWithdrawInput(accountID, key))
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, replayStatus(w, http.StatusCreated, result.Replayed), dto.OperationFromResult(result))
}
