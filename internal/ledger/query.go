package ledger

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/custodia/ledger/internal/domain"
)

// BalanceSnapshot is a point-in-time view of an account's balance.
type BalanceSnapshot struct {
	AccountID string
	Balance   decimal.Decimal
	Version   int64
	UpdatedAt time.Time
}

// GetBalance returns the current balance of an account.
func (e *Engine) GetBalance(ctx context.Context, accountID string) (*BalanceSnapshot, error) {
	account, err := e.getAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}

	return &BalanceSnapshot{
		AccountID: account.ID,
		Balance:   account.Balance,
		Version:   account.Version,
		UpdatedAt: account.UpdatedAt,
	}, nil
}

// GetAccount returns an account by ID.
func (e *Engine) GetAccount(ctx context.Context, accountID string) (*domain.Account, error) {
	return e.getAccount(ctx, accountID)
}

// GetEntry returns an entry by ID.
func (e *Engine) GetEntry(ctx context.Context, entryID string) (*domain.Entry, error) {
	sctx, cancel := context.WithTimeout(ctx, e.storeTimeout)
	defer cancel()

	entry, err := e.store.GetEntry(sctx, entryID)
	if err != nil {
		return nil, e.mapStorageErr(ctx, err)
	}

	return entry, nil
}

// ListEntriesInput represents input for listing an account's entries.
// Page is 1-based.
type ListEntriesInput struct {
	AccountID string
	Page      int
	Limit     int
}

// ListEntries lists an account's entries, newest first. Ordering is
// (created_at desc, id desc) so pages are stable under concurrent appends.
func (e *Engine) ListEntries(ctx context.Context, input ListEntriesInput) ([]*domain.Entry, error) {
	page, limit := domain.ValidatePagination(input.Page, input.Limit)

	if _, err := e.getAccount(ctx, input.AccountID); err != nil {
		return nil, err
	}

	offset := (page - 1) * limit

	sctx, cancel := context.WithTimeout(ctx, e.storeTimeout)
	defer cancel()

	entries, err := e.store.ListEntriesByAccount(sctx, input.AccountID, limit, offset)
	if err != nil {
		return nil, e.mapStorageErr(ctx, err)
	}

	return entries, nil
}
