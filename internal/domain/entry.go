package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// EntryKind classifies a ledger entry. The sign of the balance effect is
// implied by the kind; Amount itself is always strictly positive.
type EntryKind string

const (
	EntryKindCredit      EntryKind = "CREDIT"
	EntryKindDebit       EntryKind = "DEBIT"
	EntryKindTransferIn  EntryKind = "TRANSFER_IN"
	EntryKindTransferOut EntryKind = "TRANSFER_OUT"
)

// Valid reports whether k is a known entry kind.
func (k EntryKind) Valid() bool {
	switch k {
	case EntryKindCredit, EntryKindDebit, EntryKindTransferIn, EntryKindTransferOut:
		return true
	}
	return false
}

// IsDebit reports whether the kind decreases the account balance.
func (k EntryKind) IsDebit() bool {
	return k == EntryKindDebit || k == EntryKindTransferOut
}

// IsTransfer reports whether the kind is one side of a transfer.
func (k EntryKind) IsTransfer() bool {
	return k == EntryKindTransferIn || k == EntryKindTransferOut
}

// Entry is an immutable record of one balance mutation. Entries are never
// updated or deleted; corrections are new offsetting entries.
type Entry struct {
	CreatedAt             time.Time       `json:"created_at"`
	ID                    string          `json:"id"`
	AccountID             string          `json:"account_id"`
	Kind                  EntryKind       `json:"kind"`
	Amount                decimal.Decimal `json:"amount"`
	Description           string          `json:"description,omitempty"`
	CounterpartyAccountID string          `json:"counterparty_account_id,omitempty"`
	LinkedEntryID         string          `json:"linked_entry_id,omitempty"`
	IdempotencyKey        string          `json:"idempotency_key,omitempty"`
}

// SignedAmount returns the balance effect of the entry: negative for
// DEBIT/TRANSFER_OUT, positive for CREDIT/TRANSFER_IN.
func (e *Entry) SignedAmount() decimal.Decimal {
	if e.Kind.IsDebit() {
		return e.Amount.Neg()
	}
	return e.Amount
}

// Validate checks entry invariants before it is written.
func (e *Entry) Validate() error {
	if !e.Kind.Valid() {
		return ErrInvalidEntryKind
	}

	if e.Amount.LessThanOrEqual(decimal.Zero) {
		return ErrInvalidAmount
	}

	if e.Kind.IsTransfer() {
		if e.CounterpartyAccountID == "" || e.LinkedEntryID == "" {
			return ErrUnlinkedTransferEntry
		}
	} else if e.CounterpartyAccountID != "" || e.LinkedEntryID != "" {
		return ErrUnlinkedTransferEntry
	}

	return nil
}
