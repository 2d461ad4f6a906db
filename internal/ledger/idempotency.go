package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/cenkalti/backoff/v4"

	"github.com/custodia/ledger/internal/domain"
)

// replayable is implemented by operation results so a recorded result can
// be marked as a replay when it is returned again.
type replayable interface {
	markReplayed()
}

func (r *OperationResult) markReplayed() { r.Replayed = true }
func (r *TransferResult) markReplayed()  { r.Replayed = true }

// errReservationPending signals that the winning request has neither
// recorded a result nor released its reservation yet.
var errReservationPending = errors.New("idempotency reservation pending")

// runGuarded wraps a mutating operation with the idempotency guard.
//
// The first request with a given key reserves it, performs the operation
// and records the result. A replay returns the recorded result without
// touching any balance. A concurrent duplicate that loses the reservation
// race waits for the winner and converges on its result; only when the
// winner neither completes nor releases within the wait budget does the
// loser fail with ErrDuplicateRequest. A failed operation releases its
// reservation so a retry with the same key can run fresh.
func runGuarded[T any, PT interface {
	*T
	replayable
}](ctx context.Context, e *Engine, operation, accountID, key string, fn func(context.Context) (PT, error)) (PT, error) {
	var zero PT

	if key == "" || e.idem == nil {
		return fn(ctx)
	}

	// Keys are scoped per operation kind and account to avoid
	// cross-operation collisions.
	scoped := fmt.Sprintf("%s:%s:%s", operation, accountID, key)

	won, existing, err := e.idem.Reserve(ctx, scoped, e.idemTTL)
	if err != nil {
		return zero, fmt.Errorf("idempotency reserve: %w", err)
	}

	if !won && len(existing) == 0 {
		// The first request is still in flight. Wait for its outcome:
		// either its result appears, or it fails and releases the key,
		// in which case this request takes over the reservation.
		won, existing, err = e.awaitReservation(ctx, scoped)
		if err != nil {
			return zero, err
		}
	}

	if !won {
		recorded := PT(new(T))
		if err := json.Unmarshal(existing, recorded); err != nil {
			return zero, fmt.Errorf("idempotency record corrupt: %w", err)
		}

		recorded.markReplayed()

		if e.metrics != nil {
			e.metrics.IdempotentReplays.Inc()
		}

		return recorded, nil
	}

	result, err := fn(ctx)
	if err != nil {
		if relErr := e.idem.Release(ctx, scoped); relErr != nil {
			e.logger.Error().Err(relErr).Str("key", scoped).Msg("failed to release idempotency reservation")
		}

		return zero, err
	}

	payload, err := json.Marshal(result)
	if err != nil {
		return zero, fmt.Errorf("idempotency record encode: %w", err)
	}

	// The operation is already durable; a failure to record the result
	// only costs replay protection for this key.
	if err := e.idem.Complete(ctx, scoped, payload, e.idemTTL); err != nil {
		e.logger.Error().Err(err).Str("key", scoped).Msg("failed to record idempotency result")
	}

	return result, nil
}

// awaitReservation polls a pending reservation until the winning request
// records its result or releases the key. The wait is bounded by the
// store timeout; an expired budget surfaces as ErrDuplicateRequest.
func (e *Engine) awaitReservation(ctx context.Context, key string) (bool, []byte, error) {
	wctx, cancel := context.WithTimeout(ctx, e.storeTimeout)
	defer cancel()

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = retryInitialInterval
	b.MaxInterval = retryMaxInterval
	b.MaxElapsedTime = 0

	var (
		won      bool
		existing []byte
	)

	err := backoff.Retry(func() error {
		var err error

		won, existing, err = e.idem.Reserve(wctx, key, e.idemTTL)
		if err != nil {
			return backoff.Permanent(fmt.Errorf("idempotency reserve: %w", err))
		}

		if !won && len(existing) == 0 {
			return errReservationPending
		}

		return nil
	}, backoff.WithContext(b, wctx))
	if err != nil {
		stillPending := errors.Is(err, errReservationPending) ||
			(errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil)
		if stillPending {
			return false, nil, domain.ErrDuplicateRequest
		}

		return false, nil, err
	}

	return won, existing, nil
}
