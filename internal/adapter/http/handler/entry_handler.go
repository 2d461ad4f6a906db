package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/custodia/ledger/internal/adapter/http/dto"
	"github.com/custodia/ledger/internal/domain"
	"github.com/custodia/ledger/internal/ledger"
)

// EntryService defines the behavior needed by EntryHandler.
type EntryService interface {
	GetEntry(ctx context.Context, id string) (*domain.Entry, error)
	ListEntries(ctx context.Context, input ledger.ListEntriesInput) ([]*domain.Entry, error)
}

// EntryHandler handles entry-related HTTP requests.
type EntryHandler struct {
	engine EntryService
}

// NewEntryHandler creates a new EntryHandler.
func NewEntryHandler(engine EntryService) *EntryHandler {
	return &EntryHandler{engine: engine}
}

// Get retrieves an entry by ID.
func (h *EntryHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing entry ID", "")
		return
	}

	entry, err := h.engine.GetEntry(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.EntryFromDomain(entry))
}

// ListByAccount lists an account's entries, newest first.
func (h *EntryHandler) ListByAccount(w http.ResponseWriter, r *http.Request) {
	accountID := chi.URLParam(r, "id")

	page := parseIntQuery(r, "page", 1)
	limit := parseIntQuery(r, "limit", domain.DefaultPageSize)

	entries, err := h.engine.ListEntries(r.Context(), ledger.ListEntriesInput{
		AccountID: accountID,
		Page:      page,
		Limit:     limit,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ListEntriesResponse{
		Entries: dto.EntriesFromDomain(entries),
		Page:    page,
		Limit:   limit,
	})
}
