// Package postgres implements the ledger persistence contract on
// PostgreSQL. Commit runs as a single SQL transaction; the version check
// is an UPDATE guarded by WHERE version = expected, so a stale read can
// never overwrite a newer balance.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/custodia/ledger/internal/domain"
	"github.com/custodia/ledger/internal/ledger"
)

// Store implements ledger.Store.
type Store struct {
	pool    *pgxpool.Pool
	retrier *Retrier
}

// NewStore creates a new Store.
func NewStore(pool *pgxpool.Pool, logger zerolog.Logger) *Store {
	return &Store{
		pool:    pool,
		retrier: NewRetrier(logger),
	}
}

// CreateAccount creates a new account.
func (s *Store) CreateAccount(ctx context.Context, account *domain.Account) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO accounts (id, balance, version, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)`,
		account.ID,
		decimalToNumeric(account.Balance),
		account.Version,
		timeToPgTimestamptz(account.CreatedAt),
		timeToPgTimestamptz(account.UpdatedAt),
	)

	return err
}

// GetAccount retrieves an account by ID.
func (s *Store) GetAccount(ctx context.Context, id string) (*domain.Account, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, balance, version, created_at, updated_at
		FROM accounts
		WHERE id = $1`, id)

	account, err := scanAccount(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrAccountNotFound
		}

		return nil, err
	}

	return account, nil
}

// Commit applies balance updates and appends entries in one transaction.
// Updates must arrive sorted by account ID; the engine guarantees this,
// which keeps row lock acquisition in a deterministic global order.
func (s *Store) Commit(ctx context.Context, updates []ledger.BalanceUpdate, entries []*domain.Entry) error {
	return s.retrier.Retry(ctx, func() error {
		return s.commitOnce(ctx, updates, entries)
	})
}

func (s *Store) commitOnce(ctx context.Context, updates []ledger.BalanceUpdate, entries []*domain.Entry) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin commit: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, u := range updates {
		ct, err := tx.Exec(ctx, `
			UPDATE accounts
			SET balance = $1, version = version + 1, updated_at = $2
			WHERE id = $3 AND version = $4`,
			decimalToNumeric(u.NewBalance),
			timeToPgTimestamptz(u.UpdatedAt),
			u.AccountID,
			u.ExpectedVersion,
		)
		if err != nil {
			return err
		}

		if ct.RowsAffected() == 0 {
			return domain.ErrVersionConflict
		}
	}

	for _, entry := range entries {
		_, err := tx.Exec(ctx, `
			INSERT INTO entries (id, account_id, kind, amount, description,
				counterparty_account_id, linked_entry_id, idempotency_key, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			entry.ID,
			entry.AccountID,
			string(entry.Kind),
			decimalToNumeric(entry.Amount),
			entry.Description,
			nullableText(entry.CounterpartyAccountID),
			nullableText(entry.LinkedEntryID),
			nullableText(entry.IdempotencyKey),
			timeToPgTimestamptz(entry.CreatedAt),
		)
		if err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

// GetEntry retrieves an entry by ID.
func (s *Store) GetEntry(ctx context.Context, id string) (*domain.Entry, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, account_id, kind, amount, description,
			counterparty_account_id, linked_entry_id, idempotency_key, created_at
		FROM entries
		WHERE id = $1`, id)

	entry, err := scanEntry(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrEntryNotFound
		}

		return nil, err
	}

	return entry, nil
}

// ListEntriesByAccount returns entries ordered by (created_at desc, id desc).
func (s *Store) ListEntriesByAccount(ctx context.Context, accountID string, limit, offset int) ([]*domain.Entry, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, account_id, kind, amount, description,
			counterparty_account_id, linked_entry_id, idempotency_key, created_at
		FROM entries
		WHERE account_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3`,
		accountID, int32(limit), int32(offset))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []*domain.Entry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}

		entries = append(entries, entry)
	}

	return entries, rows.Err()
}

func scanAccount(row pgx.Row) (*domain.Account, error) {
	var (
		account   domain.Account
		balance   pgtype.Numeric
		createdAt pgtype.Timestamptz
		updatedAt pgtype.Timestamptz
	)

	if err := row.Scan(&account.ID, &balance, &account.Version, &createdAt, &updatedAt); err != nil {
		return nil, err
	}

	account.Balance = numericToDecimal(balance)
	account.CreatedAt = createdAt.Time
	account.UpdatedAt = updatedAt.Time

	return &account, nil
}

func scanEntry(row pgx.Row) (*domain.Entry, error) {
	var (
		entry        domain.Entry
		kind         string
		amount       pgtype.Numeric
		counterparty pgtype.Text
		linked       pgtype.Text
		idemKey      pgtype.Text
		createdAt    pgtype.Timestamptz
	)

	err := row.Scan(&entry.ID, &entry.AccountID, &kind, &amount, &entry.Description,
		&counterparty, &linked, &idemKey, &createdAt)
	if err != nil {
		return nil, err
	}

	entry.Kind = domain.EntryKind(kind)
	entry.Amount = numericToDecimal(amount)
	entry.CounterpartyAccountID = counterparty.String
	entry.LinkedEntryID = linked.String
	entry.IdempotencyKey = idemKey.String
	entry.CreatedAt = createdAt.Time

	return &entry, nil
}

// Type conversion helpers.
func decimalToNumeric(d decimal.Decimal) pgtype.Numeric {
	var n pgtype.Numeric

	_ = n.Scan(d.String())

	return n
}

func numericToDecimal(n pgtype.Numeric) decimal.Decimal {
	// NaN is storable in a NUMERIC column and sorts above every number,
	// so the balance CHECK does not exclude it; n.Int is nil in that case.
	if !n.Valid || n.NaN || n.Int == nil {
		return decimal.Zero
	}

	d, _ := decimal.NewFromString(n.Int.String())
	if n.Exp != 0 {
		d = d.Shift(n.Exp)
	}

	return d
}

func timeToPgTimestamptz(t time.Time) pgtype.Timestamptz {
	return pgtype.Timestamptz{Time: t, Valid: true}
}

func nullableText(s string) pgtype.Text {
	return pgtype.Text{String: s, Valid: s != ""}
}
