// Package memory provides the in-memory reference implementation of the
// ledger persistence contracts. It backs the engine's unit tests and the
// server's development mode; the semantics here are the executable
// definition of what every other store implementation must satisfy.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/custodia/ledger/internal/domain"
	"github.com/custodia/ledger/internal/ledger"
)

// Store implements ledger.Store with maps guarded by a single mutex, which
// makes Commit trivially atomic.
type Store struct {
	mu        sync.RWMutex
	accounts  map[string]*domain.Account
	entries   map[string]*domain.Entry
	byAccount map[string][]*domain.Entry
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{
		accounts:  make(map[string]*domain.Account),
		entries:   make(map[string]*domain.Entry),
		byAccount: make(map[string][]*domain.Entry),
	}
}

// CreateAccount creates a new account.
func (s *Store) CreateAccount(ctx context.Context, account *domain.Account) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *account
	s.accounts[account.ID] = &cp

	return nil
}

// GetAccount retrieves an account by ID.
func (s *Store) GetAccount(ctx context.Context, id string) (*domain.Account, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	account, ok := s.accounts[id]
	if !ok {
		return nil, domain.ErrAccountNotFound
	}

	cp := *account

	return &cp, nil
}

// Commit applies all balance updates and appends all entries as one unit.
// Every ExpectedVersion is checked before anything is written, so a stale
// version leaves the store untouched.
func (s *Store) Commit(ctx context.Context, updates []ledger.BalanceUpdate, entries []*domain.Entry) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range updates {
		account, ok := s.accounts[u.AccountID]
		if !ok {
			return domain.ErrAccountNotFound
		}

		if account.Version != u.ExpectedVersion {
			return domain.ErrVersionConflict
		}
	}

	for _, u := range updates {
		account := s.accounts[u.AccountID]
		account.Balance = u.NewBalance
		account.Version++
		account.UpdatedAt = u.UpdatedAt
	}

	for _, entry := range entries {
		cp := *entry
		s.entries[entry.ID] = &cp
		s.byAccount[entry.AccountID] = append(s.byAccount[entry.AccountID], &cp)
	}

	return nil
}

// GetEntry retrieves an entry by ID.
func (s *Store) GetEntry(ctx context.Context, id string) (*domain.Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.entries[id]
	if !ok {
		return nil, domain.ErrEntryNotFound
	}

	cp := *entry

	return &cp, nil
}

// ListEntriesByAccount returns an account's entries ordered by
// (created_at desc, id desc).
func (s *Store) ListEntriesByAccount(ctx context.Context, accountID string, limit, offset int) ([]*domain.Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	all := s.byAccount[accountID]

	sorted := make([]*domain.Entry, len(all))
	copy(sorted, all)

	sort.Slice(sorted, func(i, j int) bool {
		if !sorted[i].CreatedAt.Equal(sorted[j].CreatedAt) {
			return sorted[i].CreatedAt.After(sorted[j].CreatedAt)
		}
		return sorted[i].ID > sorted[j].ID
	})

	if offset >= len(sorted) {
		return nil, nil
	}

	sorted = sorted[offset:]
	if limit < len(sorted) {
		sorted = sorted[:limit]
	}

	out := make([]*domain.Entry, len(sorted))
	for i, entry := range sorted {
		cp := *entry
		out[i] = &cp
	}

	return out, nil
}

type idemRecord struct {
	result    []byte
	pending   bool
	expiresAt time.Time
}

// IdempotencyStore implements ledger.IdempotencyStore in memory.
type IdempotencyStore struct {
	mu      sync.Mutex
	records map[string]idemRecord
	now     func() time.Time
}

// NewIdempotencyStore creates an empty IdempotencyStore.
func NewIdempotencyStore() *IdempotencyStore {
	return &IdempotencyStore{
		records: make(map[string]idemRecord),
		now:     time.Now,
	}
}

// Reserve atomically inserts a pending record if the key is absent.
func (s *IdempotencyStore) Reserve(ctx context.Context, key string, ttl time.Duration) (bool, []byte, error) {
	if err := ctx.Err(); err != nil {
		return false, nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[key]
	if ok && s.now().Before(rec.expiresAt) {
		if rec.pending {
			return false, nil, nil
		}

		return false, rec.result, nil
	}

	s.records[key] = idemRecord{pending: true, expiresAt: s.now().Add(ttl)}

	return true, nil, nil
}

// Complete records the final result for a reserved key.
func (s *IdempotencyStore) Complete(ctx context.Context, key string, result []byte, ttl time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.records[key] = idemRecord{result: result, expiresAt: s.now().Add(ttl)}

	return nil
}

// Release drops a reservation.
func (s *IdempotencyStore) Release(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.records, key)

	return nil
}
