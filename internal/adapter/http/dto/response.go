package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/custodia/ledger/internal/domain"
	"github.com/custodia/ledger/internal/ledger"
)

// AccountResponse represents an account in API responses.
type AccountResponse struct {
	ID        string          `json:"id"`
	Balance   decimal.Decimal `json:"balance"`
	Version   int64           `json:"version"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// AccountFromDomain converts a domain account to a response.
func AccountFromDomain(a *domain.Account) *AccountResponse {
	return &AccountResponse{
		ID:        a.ID,
		Balance:   a.Balance,
		Version:   a.Version,
		CreatedAt: a.CreatedAt,
		UpdatedAt: a.UpdatedAt,
	}
}

// BalanceResponse represents a balance snapshot.
type BalanceResponse struct {
	AccountID   string          `json:"account_id"`
	Balance     decimal.Decimal `json:"balance"`
	LastUpdated time.Time       `json:"last_updated"`
}

// BalanceFromSnapshot converts an engine balance snapshot to a response.
func BalanceFromSnapshot(s *ledger.BalanceSnapshot) *BalanceResponse {
	return &BalanceResponse{
		AccountID:   s.AccountID,
		Balance:     s.Balance,
		LastUpdated: s.UpdatedAt,
	}
}

// EntryResponse represents a ledger entry in API responses.
type EntryResponse struct {
	ID                    string          `json:"id"`
	AccountID             string          `json:"account_id"`
	Kind                  string          `json:"kind"`
	Amount                decimal.Decimal `json:"amount"`
	Description           string          `json:"description,omitempty"`
	CounterpartyAccountID string          `json:"counterparty_account_id,omitempty"`
	LinkedEntryID         string          `json:"linked_entry_id,omitempty"`
	CreatedAt             time.Time       `json:"created_at"`
}

// EntryFromDomain converts a domain entry to a response.
func EntryFromDomain(e *domain.Entry) *EntryResponse {
	return &EntryResponse{
		ID:                    e.ID,
		AccountID:             e.AccountID,
		Kind:                  string(e.Kind),
		Amount:                e.Amount,
		Description:           e.Description,
		CounterpartyAccountID: e.CounterpartyAccountID,
		LinkedEntryID:         e.LinkedEntryID,
		CreatedAt:             e.CreatedAt,
	}
}

// EntriesFromDomain converts domain entries to responses.
func EntriesFromDomain(entries []*domain.Entry) []*EntryResponse {
	result := make([]*EntryResponse, len(entries))
	for i, e := range entries {
		result[i] = EntryFromDomain(e)
	}
	return result
}

// OperationResponse represents the outcome of a deposit or withdrawal.
type OperationResponse struct {
	Entry      *EntryResponse  `json:"entry"`
	NewBalance decimal.Decimal `json:"new_balance"`
}

// OperationFromResult converts an engine result to a response.
func OperationFromResult(r *ledger.OperationResult) *OperationResponse {
	return &OperationResponse{
		Entry:      EntryFromDomain(r.Entry),
		NewBalance: r.Balance,
	}
}

// TransferResponse represents the outcome of a transfer.
type TransferResponse struct {
	OutEntry         *EntryResponse  `json:"out_entry"`
	InEntry          *EntryResponse  `json:"in_entry"`
	SenderBalance    decimal.Decimal `json:"sender_balance"`
	RecipientBalance decimal.Decimal `json:"recipient_balance"`
}

// TransferFromResult converts an engine result to a response.
func TransferFromResult(r *ledger.TransferResult) *TransferResponse {
	return &TransferResponse{
		OutEntry:         EntryFromDomain(r.OutEntry),
		InEntry:          EntryFromDomain(r.InEntry),
		SenderBalance:    r.SenderBalance,
		RecipientBalance: r.RecipientBalance,
	}
}

// ListEntriesResponse wraps a page of entries.
type ListEntriesResponse struct {
	Entries []*EntryResponse `json:"entries"`
	Page    int              `json:"page"`
	Limit   int              `json:"limit"`
}

// ErrorResponse represents an error with enough structured detail for the
// caller to explain the failure without a second lookup.
type ErrorResponse struct {
	Error          string           `json:"error"`
	Message        string           `json:"message,omitempty"`
	CurrentBalance *decimal.Decimal `json:"current_balance,omitempty"`
	RequiredAmount *decimal.Decimal `json:"required_amount,omitempty"`
}
