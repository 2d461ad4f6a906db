package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/custodia/ledger/internal/adapter/http/dto"
	"github.com/custodia/ledger/internal/domain"
	"github.com/custodia/ledger/internal/ledger"
)

// AccountService defines the behavior needed by AccountHandler.
type AccountService interface {
	CreateAccount(ctx context.Context) (*domain.Account, error)
	GetAccount(ctx context.Context, id string) (*domain.Account, error)
	GetBalance(ctx context.Context, id string) (*ledger.BalanceSnapshot, error)
}

// AccountHandler handles account-related HTTP requests.
type AccountHandler struct {
	engine AccountService
}

// NewAccountHandler creates a new AccountHandler.
func NewAccountHandler(engine AccountService) *AccountHandler {
	return &AccountHandler{engine: engine}
}

// Create creates a new account with a zero balance.
func (h *AccountHandler) Create(w http.ResponseWriter, r *http.Request) {
	account, err := h.engine.CreateAccount(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.AccountFromDomain(account))
}

// Get retrieves an account by ID.
func (h *AccountHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing account ID", "")
		return
	}

	account, err := h.engine.GetAccount(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.AccountFromDomain(account))
}

// Balance returns the current balance of an account.
func (h *AccountHandler) Balance(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing account ID", "")
		return
	}

	snapshot, err := h.engine.GetBalance(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.BalanceFromSnapshot(snapshot))
}
