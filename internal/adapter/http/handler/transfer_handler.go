package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/custodia/ledger/internal/adapter/http/dto"
	"github.com/custodia/ledger/internal/ledger"
)

// TransferService defines the behavior needed by TransferHandler.
type TransferService interface {
	Transfer(ctx context.Context, input ledger.TransferInput) (*ledger.TransferResult, error)
}

// TransferHandler handles transfer HTTP requests.
type TransferHandler struct {
	engine TransferService
}

// NewTransferHandler creates a new TransferHandler.
func NewTransferHandler(engine TransferService) *TransferHandler {
	return &TransferHandler{engine: engine}
}

// Create moves money between two accounts.
func (h *TransferHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateTransferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	key := r.Header.Get(IdempotencyKeyHeader)

	result, err := h.engine.Transfer(r.Context(), req.ToTransferInput(key))
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, replayStatus(w, http.StatusCreated, result.Replayed), dto.TransferFromResult(result))
}
