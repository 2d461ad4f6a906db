package ledger

import "time"

const (
	// DefaultMaxAttempts bounds the read-validate-commit loop under
	// version conflicts before the operation fails with ErrConflict.
	DefaultMaxAttempts = 5

	// DefaultStoreTimeout caps every individual store call.
	DefaultStoreTimeout = 5 * time.Second

	// DefaultIdempotencyTTL is how long recorded results are retained.
	// Retries beyond this window are treated as new requests.
	DefaultIdempotencyTTL = 24 * time.Hour

	retryInitialInterval = 10 * time.Millisecond
	retryMaxInterval     = 250 * time.Millisecond
)

// Operation names used for idempotency key scoping and metrics labels.
const (
	opDeposit  = "deposit"
	opWithdraw = "withdraw"
	opTransfer = "transfer"
)
