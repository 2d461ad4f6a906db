// Package ledger implements the ledger engine: the single component allowed
// to mutate balances and write transaction entries. It is stateless and safe
// to run as multiple replicas; all cross-request coordination happens through
// the Store contract's conditional commit.
package ledger

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/custodia/ledger/internal/domain"
	"github.com/custodia/ledger/internal/infrastructure/metrics"
)

// Engine orchestrates balance mutation and entry creation as one logical
// unit and owns the ledger consistency invariants.
type Engine struct {
	store   Store
	idem    IdempotencyStore
	idGen   IDGenerator
	metrics *metrics.Metrics
	logger  zerolog.Logger

	maxAttempts  int
	storeTimeout time.Duration
	idemTTL      time.Duration
}

// Config tunes engine retry and idempotency behavior. Zero values fall back
// to the package defaults.
type Config struct {
	MaxAttempts    int
	StoreTimeout   time.Duration
	IdempotencyTTL time.Duration
}

// NewEngine creates a new Engine. The idempotency store may be nil, in
// which case idempotency keys are ignored. Metrics may be nil.
func NewEngine(store Store, idem IdempotencyStore, idGen IDGenerator, logger zerolog.Logger, m *metrics.Metrics, cfg Config) *Engine {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = DefaultMaxAttempts
	}

	if cfg.StoreTimeout <= 0 {
		cfg.StoreTimeout = DefaultStoreTimeout
	}

	if cfg.IdempotencyTTL <= 0 {
		cfg.IdempotencyTTL = DefaultIdempotencyTTL
	}

	return &Engine{
		store:        store,
		idem:         idem,
		idGen:        idGen,
		metrics:      m,
		logger:       logger,
		maxAttempts:  cfg.MaxAttempts,
		storeTimeout: cfg.StoreTimeout,
		idemTTL:      cfg.IdempotencyTTL,
	}
}

// OperationResult is the outcome of a deposit or withdrawal.
type OperationResult struct {
	Entry    *domain.Entry   `json:"entry"`
	Balance  decimal.Decimal `json:"balance"`
	Replayed bool            `json:"-"`
}

// DepositInput represents input for a deposit.
type DepositInput struct {
	AccountID      string
	Amount         decimal.Decimal
	Description    string
	IdempotencyKey string
}

// WithdrawInput represents input for a withdrawal.
type WithdrawInput struct {
	AccountID      string
	Amount         decimal.Decimal
	Description    string
	IdempotencyKey string
}

// CreateAccount creates a new account with a zero balance.
func (e *Engine) CreateAccount(ctx context.Context) (*domain.Account, error) {
	now := time.Now().UTC()

	account := &domain.Account{
		ID:        e.idGen.Generate(),
		Balance:   decimal.Zero,
		Version:   0,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := e.createAccount(ctx, account); err != nil {
		return nil, err
	}

	return account, nil
}

// Deposit credits an account. It always succeeds if the account exists and
// the amount is positive.
func (e *Engine) Deposit(ctx context.Context, input DepositInput) (*OperationResult, error) {
	start := time.Now()

	result, err := runGuarded(ctx, e, opDeposit, input.AccountID, input.IdempotencyKey,
		func(ctx context.Context) (*OperationResult, error) {
			return e.applyEntry(ctx, input.AccountID, domain.EntryKindCredit, input.Amount, input.Description, input.IdempotencyKey)
		})

	e.observe(opDeposit, start, err)

	return result, err
}

// Withdraw debits an account, enforcing the sufficiency check.
func (e *Engine) Withdraw(ctx context.Context, input WithdrawInput) (*OperationResult, error) {
	start := time.Now()

	result, err := runGuarded(ctx, e, opWithdraw, input.AccountID, input.IdempotencyKey,
		func(ctx context.Context) (*OperationResult, error) {
			return e.applyEntry(ctx, input.AccountID, domain.EntryKindDebit, input.Amount, input.Description, input.IdempotencyKey)
		})

	e.observe(opWithdraw, start, err)

	return result, err
}

// applyEntry is the balance mutation primitive: it writes exactly one
// immutable entry and moves the balance by the entry's signed amount, as
// one atomic commit. On version conflicts the whole read-validate-commit
// loop retries up to the configured attempt budget.
func (e *Engine) applyEntry(ctx context.Context, accountID string, kind domain.EntryKind, amount decimal.Decimal, description, idemKey string) (*OperationResult, error) {
	if err := domain.ValidateAmount(amount); err != nil {
		return nil, err
	}

	var result *OperationResult

	err := e.retryOnConflict(ctx, func() error {
		account, err := e.getAccount(ctx, accountID)
		if err != nil {
			return err
		}

		if kind.IsDebit() {
			if err := account.ValidateDebit(amount); err != nil {
				return err
			}
		}

		now := time.Now().UTC()

		entry := &domain.Entry{
			ID:             e.idGen.Generate(),
			AccountID:      account.ID,
			Kind:           kind,
			Amount:         amount,
			Description:    description,
			IdempotencyKey: idemKey,
			CreatedAt:      now,
		}

		var newBalance decimal.Decimal
		if kind.IsDebit() {
			newBalance = account.ApplyDebit(amount)
		} else {
			newBalance = account.ApplyCredit(amount)
		}

		update := BalanceUpdate{
			AccountID:       account.ID,
			ExpectedVersion: account.Version,
			NewBalance:      newBalance,
			UpdatedAt:       now,
		}

		if err := e.commit(ctx, []BalanceUpdate{update}, []*domain.Entry{entry}); err != nil {
			return err
		}

		result = &OperationResult{Entry: entry, Balance: newBalance}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

// retryOnConflict runs op with bounded exponential backoff on version
// conflicts and storage timeouts. Exhausted conflicts surface as
// ErrConflict; everything else is returned as-is.
func (e *Engine) retryOnConflict(ctx context.Context, op func() error) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = retryInitialInterval
	b.MaxInterval = retryMaxInterval
	b.MaxElapsedTime = 0 // bounded by attempt count, not wall clock

	attempts := 0

	err := backoff.Retry(func() error {
		err := op()
		if err == nil {
			return nil
		}

		if !isRetryable(err) {
			return backoff.Permanent(err)
		}

		attempts++
		if attempts >= e.maxAttempts {
			return backoff.Permanent(err)
		}

		if e.metrics != nil {
			e.metrics.ConflictRetries.Inc()
		}

		e.logger.Warn().
			Err(err).
			Int("attempt", attempts).
			Msg("retrying ledger operation")

		return err
	}, backoff.WithContext(b, ctx))

	if errors.Is(err, domain.ErrVersionConflict) {
		return domain.ErrConflict
	}

	return err
}

func isRetryable(err error) bool {
	return errors.Is(err, domain.ErrVersionConflict) || errors.Is(err, domain.ErrStorageTimeout)
}

// Store call wrappers. Every call carries its own timeout; a deadline hit
// on the store call (not on the caller's context) surfaces as
// ErrStorageTimeout, which is retryable.

func (e *Engine) createAccount(ctx context.Context, account *domain.Account) error {
	sctx, cancel := context.WithTimeout(ctx, e.storeTimeout)
	defer cancel()

	return e.mapStorageErr(ctx, e.store.CreateAccount(sctx, account))
}

func (e *Engine) getAccount(ctx context.Context, id string) (*domain.Account, error) {
	sctx, cancel := context.WithTimeout(ctx, e.storeTimeout)
	defer cancel()

	account, err := e.store.GetAccount(sctx, id)
	if err != nil {
		return nil, e.mapStorageErr(ctx, err)
	}

	return account, nil
}

func (e *Engine) commit(ctx context.Context, updates []BalanceUpdate, entries []*domain.Entry) error {
	sctx, cancel := context.WithTimeout(ctx, e.storeTimeout)
	defer cancel()

	return e.mapStorageErr(ctx, e.store.Commit(sctx, updates, entries))
}

func (e *Engine) mapStorageErr(ctx context.Context, err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
		return domain.ErrStorageTimeout
	}

	return err
}

func (e *Engine) observe(operation string, start time.Time, err error) {
	if e.metrics == nil {
		return
	}

	status := "ok"
	if err != nil {
		status = "error"
	}

	e.metrics.OperationsTotal.WithLabelValues(operation, status).Inc()
	e.metrics.OperationDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}
