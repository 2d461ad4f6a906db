package domain

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	// Account errors
	ErrAccountNotFound = errors.New("account not found")

	// Entry errors
	ErrEntryNotFound         = errors.New("entry not found")
	ErrInvalidEntryKind      = errors.New("invalid entry kind")
	ErrUnlinkedTransferEntry = errors.New("transfer entry must link its counterparty")

	// Operation errors
	ErrInvalidAmount       = errors.New("amount must be positive")
	ErrSelfTransfer        = errors.New("cannot transfer to same account")
	ErrInsufficientBalance = errors.New("insufficient balance")

	// Coordination errors
	ErrVersionConflict  = errors.New("account version conflict")
	ErrConflict         = errors.New("operation aborted: contention retries exhausted")
	ErrStorageTimeout   = errors.New("storage operation timed out")
	ErrDuplicateRequest = errors.New("duplicate request in flight")
)

// InsufficientBalanceError reports a failed sufficiency check with enough
// detail for the caller to explain it without a second lookup. It matches
// ErrInsufficientBalance under errors.Is.
type InsufficientBalanceError struct {
	CurrentBalance decimal.Decimal
	RequiredAmount decimal.Decimal
}

func (e *InsufficientBalanceError) Error() string {
	return fmt.Sprintf("insufficient balance: have %s, need %s",
		e.CurrentBalance.String(), e.RequiredAmount.String())
}

func (e *InsufficientBalanceError) Is(target error) bool {
	return target == ErrInsufficientBalance
}
