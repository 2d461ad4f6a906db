package ledger

import (
	"context"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/custodia/ledger/internal/domain"
)

// TransferInput represents input for a peer-to-peer transfer.
type TransferInput struct {
	SenderID       string
	RecipientID    string
	Amount         decimal.Decimal
	Description    string
	IdempotencyKey string
}

// TransferResult is the outcome of a transfer: two mutually linked entries
// and both post-commit balances.
type TransferResult struct {
	OutEntry         *domain.Entry   `json:"out_entry"`
	InEntry          *domain.Entry   `json:"in_entry"`
	SenderBalance    decimal.Decimal `json:"sender_balance"`
	RecipientBalance decimal.Decimal `json:"recipient_balance"`
	Replayed         bool            `json:"-"`
}

// Transfer atomically moves amount from sender to recipient. On success
// exactly two mutually linked entries exist and the balances have moved by
// amount; on failure nothing is visible to any other caller.
func (e *Engine) Transfer(ctx context.Context, input TransferInput) (*TransferResult, error) {
	start := time.Now()

	result, err := runGuarded(ctx, e, opTransfer, input.SenderID, input.IdempotencyKey,
		func(ctx context.Context) (*TransferResult, error) {
			return e.transfer(ctx, input)
		})

	e.observe(opTransfer, start, err)

	if err == nil && e.metrics != nil && !result.Replayed {
		amount, _ := input.Amount.Float64()
		e.metrics.TransferAmount.Observe(amount)
	}

	return result, err
}

func (e *Engine) transfer(ctx context.Context, input TransferInput) (*TransferResult, error) {
	if input.SenderID == input.RecipientID {
		return nil, domain.ErrSelfTransfer
	}

	if err := domain.ValidateAmount(input.Amount); err != nil {
		return nil, err
	}

	var result *TransferResult

	err := e.retryOnConflict(ctx, func() error {
		// Read both accounts in ascending ID order so concurrent
		// opposite-direction transfers cannot deadlock in the store.
		sender, recipient, err := e.getAccountPair(ctx, input.SenderID, input.RecipientID)
		if err != nil {
			return err
		}

		if err := sender.ValidateDebit(input.Amount); err != nil {
			return err
		}

		now := time.Now().UTC()

		// Both entry IDs are allocated up front so the pair is written
		// pre-linked in one commit; there is never a one-sided link.
		outID := e.idGen.Generate()
		inID := e.idGen.Generate()

		outEntry := &domain.Entry{
			ID:                    outID,
			AccountID:             sender.ID,
			Kind:                  domain.EntryKindTransferOut,
			Amount:                input.Amount,
			Description:           input.Description,
			CounterpartyAccountID: recipient.ID,
			LinkedEntryID:         inID,
			IdempotencyKey:        input.IdempotencyKey,
			CreatedAt:             now,
		}

		inEntry := &domain.Entry{
			ID:                    inID,
			AccountID:             recipient.ID,
			Kind:                  domain.EntryKindTransferIn,
			Amount:                input.Amount,
			Description:           input.Description,
			CounterpartyAccountID: sender.ID,
			LinkedEntryID:         outID,
			CreatedAt:             now,
		}

		senderBalance := sender.ApplyDebit(input.Amount)
		recipientBalance := recipient.ApplyCredit(input.Amount)

		updates := []BalanceUpdate{
			{AccountID: sender.ID, ExpectedVersion: sender.Version, NewBalance: senderBalance, UpdatedAt: now},
			{AccountID: recipient.ID, ExpectedVersion: recipient.Version, NewBalance: recipientBalance, UpdatedAt: now},
		}

		sort.Slice(updates, func(i, j int) bool {
			return updates[i].AccountID < updates[j].AccountID
		})

		if err := e.commit(ctx, updates, []*domain.Entry{outEntry, inEntry}); err != nil {
			return err
		}

		result = &TransferResult{
			OutEntry:         outEntry,
			InEntry:          inEntry,
			SenderBalance:    senderBalance,
			RecipientBalance: recipientBalance,
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

// getAccountPair reads two accounts, ordering the reads by account ID.
func (e *Engine) getAccountPair(ctx context.Context, senderID, recipientID string) (sender, recipient *domain.Account, err error) {
	firstID, secondID := senderID, recipientID
	if secondID < firstID {
		firstID, secondID = secondID, firstID
	}

	first, err := e.getAccount(ctx, firstID)
	if err != nil {
		return nil, nil, err
	}

	second, err := e.getAccount(ctx, secondID)
	if err != nil {
		return nil, nil, err
	}

	if first.ID == senderID {
		return first, second, nil
	}

	return second, first, nil
}
