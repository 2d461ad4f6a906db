package ledger_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/custodia/ledger/internal/adapter/store/memory"
	"github.com/custodia/ledger/internal/domain"
	"github.com/custodia/ledger/internal/ledger"
)

func TestEngine_Transfer(t *testing.T) {
	store := memory.NewStore()
	e := newTestEngine(store, nil, ledger.Config{})

	seedAccount(t, store, "acc-x", "100.00")
	seedAccount(t, store, "acc-y", "0")

	result, err := e.Transfer(context.Background(), ledger.TransferInput{
		SenderID:    "acc-x",
		RecipientID: "acc-y",
		Amount:      decimal.RequireFromString("25.00"),
		Description: "rent split",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !result.SenderBalance.Equal(decimal.RequireFromString("75.00")) {
		t.Fatalf("sender balance = %s, want 75.00", result.SenderBalance)
	}

	if !result.RecipientBalance.Equal(decimal.RequireFromString("25.00")) {
		t.Fatalf("recipient balance = %s, want 25.00", result.RecipientBalance)
	}

	out, in := result.OutEntry, result.InEntry

	if out.Kind != domain.EntryKindTransferOut {
		t.Fatalf("out entry kind = %s, want %s", out.Kind, domain.EntryKindTransferOut)
	}

	if in.Kind != domain.EntryKindTransferIn {
		t.Fatalf("in entry kind = %s, want %s", in.Kind, domain.EntryKindTransferIn)
	}

	if out.LinkedEntryID != in.ID || in.LinkedEntryID != out.ID {
		t.Fatalf("entries are not mutually linked: out->%s in->%s", out.LinkedEntryID, in.LinkedEntryID)
	}

	if out.CounterpartyAccountID != "acc-y" || in.CounterpartyAccountID != "acc-x" {
		t.Fatalf("wrong counterparties: out=%s in=%s", out.CounterpartyAccountID, in.CounterpartyAccountID)
	}

	// Both sides are visible as committed entries.
	for _, id := range []string{out.ID, in.ID} {
		if _, err := e.GetEntry(context.Background(), id); err != nil {
			t.Fatalf("GetEntry(%s): %v", id, err)
		}
	}

	mustBalance(t, e, "acc-x", "75.00")
	mustBalance(t, e, "acc-y", "25.00")
}

func TestEngine_Transfer_SelfTransfer(t *testing.T) {
	store := memory.NewStore()
	e := newTestEngine(store, nil, ledger.Config{})

	seedAccount(t, store, "acc-x", "100.00")

	_, err := e.Transfer(context.Background(), ledger.TransferInput{
		SenderID:    "acc-x",
		RecipientID: "acc-x",
		Amount:      decimal.RequireFromString("10.00"),
	})

	if !errors.Is(err, domain.ErrSelfTransfer) {
		t.Fatalf("expected ErrSelfTransfer, got %v", err)
	}

	mustBalance(t, e, "acc-x", "100.00")

	if n := countEntries(t, e, "acc-x"); n != 0 {
		t.Fatalf("expected no entries after rejected self transfer, got %d", n)
	}
}

func TestEngine_Transfer_InsufficientBalance(t *testing.T) {
	store := memory.NewStore()
	e := newTestEngine(store, nil, ledger.Config{})

	seedAccount(t, store, "acc-x", "10.00")
	seedAccount(t, store, "acc-y", "5.00")

	_, err := e.Transfer(context.Background(), ledger.TransferInput{
		SenderID:    "acc-x",
		RecipientID: "acc-y",
		Amount:      decimal.RequireFromString("10.01"),
	})

	if !errors.Is(err, domain.ErrInsufficientBalance) {
		t.Fatalf("expected ErrInsufficientBalance, got %v", err)
	}

	// Neither side moved: a transfer is never half-applied.
	mustBalance(t, e, "acc-x", "10.00")
	mustBalance(t, e, "acc-y", "5.00")

	if n := countEntries(t, e, "acc-x") + countEntries(t, e, "acc-y"); n != 0 {
		t.Fatalf("expected no entries after failed transfer, got %d", n)
	}
}

func TestEngine_Transfer_ValidationOrder(t *testing.T) {
	store := memory.NewStore()
	e := newTestEngine(store, nil, ledger.Config{})

	seedAccount(t, store, "acc-x", "100.00")

	// Self-transfer is rejected before the recipient lookup, so the
	// missing account is never consulted.
	_, err := e.Transfer(context.Background(), ledger.TransferInput{
		SenderID:    "acc-missing",
		RecipientID: "acc-missing",
		Amount:      decimal.RequireFromString("1.00"),
	})
	if !errors.Is(err, domain.ErrSelfTransfer) {
		t.Fatalf("expected ErrSelfTransfer, got %v", err)
	}

	_, err = e.Transfer(context.Background(), ledger.TransferInput{
		SenderID:    "acc-x",
		RecipientID: "acc-missing",
		Amount:      decimal.RequireFromString("1.00"),
	})
	if !errors.Is(err, domain.ErrAccountNotFound) {
		t.Fatalf("expected ErrAccountNotFound, got %v", err)
	}
}

func TestEngine_Transfer_OppositeDirectionsConserveTotal(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping contention test in short mode")
	}

	store := memory.NewStore()
	e := newTestEngine(store, nil, ledger.Config{MaxAttempts: 100000})

	seedAccount(t, store, "acc-a", "500.00")
	seedAccount(t, store, "acc-b", "500.00")

	const perDirection = 50

	var wg sync.WaitGroup

	errs := make(chan error, 2*perDirection)

	run := func(sender, recipient string) {
		defer wg.Done()

		_, err := e.Transfer(context.Background(), ledger.TransferInput{
			SenderID:    sender,
			RecipientID: recipient,
			Amount:      decimal.RequireFromString("1.00"),
		})
		if err != nil {
			errs <- err
		}
	}

	for i := 0; i < perDirection; i++ {
		wg.Add(2)

		go run("acc-a", "acc-b")
		go run("acc-b", "acc-a")
	}

	wg.Wait()
	close(errs)

	for err := range errs {
		t.Fatalf("concurrent transfer failed: %v", err)
	}

	// Equal traffic in both directions nets out to the opening balances,
	// and money is conserved throughout.
	mustBalance(t, e, "acc-a", "500.00")
	mustBalance(t, e, "acc-b", "500.00")

	if n := countEntries(t, e, "acc-a"); n != 2*perDirection {
		t.Fatalf("expected %d entries on acc-a, got %d", 2*perDirection, n)
	}

	if n := countEntries(t, e, "acc-b"); n != 2*perDirection {
		t.Fatalf("expected %d entries on acc-b, got %d", 2*perDirection, n)
	}
}
