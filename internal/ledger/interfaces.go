package ledger

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/custodia/ledger/internal/domain"
)

// BalanceUpdate is a conditional balance write: it only applies if the
// account version still equals ExpectedVersion, and bumps the version by
// one when it does.
type BalanceUpdate struct {
	AccountID       string
	ExpectedVersion int64
	NewBalance      decimal.Decimal
	UpdatedAt       time.Time
}

// Store is the persistence contract the engine runs on. Implementations
// must make Commit atomic: either every balance update and every entry
// append becomes durably visible, or none of them do. Commit fails with
// domain.ErrVersionConflict when any update's ExpectedVersion is stale,
// in which case nothing is written.
type Store interface {
	CreateAccount(ctx context.Context, account *domain.Account) error
	GetAccount(ctx context.Context, id string) (*domain.Account, error)
	Commit(ctx context.Context, updates []BalanceUpdate, entries []*domain.Entry) error
	GetEntry(ctx context.Context, id string) (*domain.Entry, error)
	// ListEntriesByAccount returns entries ordered by (created_at desc, id desc).
	ListEntriesByAccount(ctx context.Context, accountID string, limit, offset int) ([]*domain.Entry, error)
}

// IdempotencyStore records operation results keyed by caller-supplied
// idempotency keys. Reserve is a conditional insert: the first caller wins
// and gets won=true; later callers get the recorded result, or existing=nil
// while the winner is still in flight.
type IdempotencyStore interface {
	Reserve(ctx context.Context, key string, ttl time.Duration) (won bool, existing []byte, err error)
	// Complete replaces the reservation with the final result.
	Complete(ctx context.Context, key string, result []byte, ttl time.Duration) error
	// Release drops a reservation so a retry of a failed operation can proceed.
	Release(ctx context.Context, key string) error
}

// IDGenerator generates unique IDs.
type IDGenerator interface {
	Generate() string
}
