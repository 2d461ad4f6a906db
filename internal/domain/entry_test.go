package domain

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func TestEntryKind_Valid(t *testing.T) {
	for _, kind := range []EntryKind{EntryKindCredit, EntryKindDebit, EntryKindTransferIn, EntryKindTransferOut} {
		if !kind.Valid() {
			t.Fatalf("expected %s to be valid", kind)
		}
	}

	if EntryKind("REVERSAL").Valid() {
		t.Fatalf("expected unknown kind to be invalid")
	}
}

func TestEntry_SignedAmount(t *testing.T) {
	tests := []struct {
		kind EntryKind
		want string
	}{
		{EntryKindCredit, "10"},
		{EntryKindTransferIn, "10"},
		{EntryKindDebit, "-10"},
		{EntryKindTransferOut, "-10"},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			entry := &Entry{Kind: tt.kind, Amount: decimal.NewFromInt(10)}

			if got := entry.SignedAmount(); !got.Equal(decimal.RequireFromString(tt.want)) {
				t.Fatalf("SignedAmount() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestEntry_Validate(t *testing.T) {
	tests := []struct {
		name    string
		entry   Entry
		wantErr error
	}{
		{
			name:  "valid credit",
			entry: Entry{Kind: EntryKindCredit, Amount: decimal.NewFromInt(10)},
		},
		{
			name: "valid transfer out",
			entry: Entry{
				Kind:                  EntryKindTransferOut,
				Amount:                decimal.NewFromInt(10),
				CounterpartyAccountID: "acc-2",
				LinkedEntryID:         "entry-2",
			},
		},
		{
			name:    "unknown kind",
			entry:   Entry{Kind: "BOGUS", Amount: decimal.NewFromInt(10)},
			wantErr: ErrInvalidEntryKind,
		},
		{
			name:    "zero amount",
			entry:   Entry{Kind: EntryKindCredit, Amount: decimal.Zero},
			wantErr: ErrInvalidAmount,
		},
		{
			name:    "negative amount",
			entry:   Entry{Kind: EntryKindDebit, Amount: decimal.NewFromInt(-5)},
			wantErr: ErrInvalidAmount,
		},
		{
			name:    "transfer missing link",
			entry:   Entry{Kind: EntryKindTransferIn, Amount: decimal.NewFromInt(10), CounterpartyAccountID: "acc-1"},
			wantErr: ErrUnlinkedTransferEntry,
		},
		{
			name:    "transfer missing counterparty",
			entry:   Entry{Kind: EntryKindTransferOut, Amount: decimal.NewFromInt(10), LinkedEntryID: "entry-2"},
			wantErr: ErrUnlinkedTransferEntry,
		},
		{
			name:    "plain entry with transfer link",
			entry:   Entry{Kind: EntryKindCredit, Amount: decimal.NewFromInt(10), LinkedEntryID: "entry-2"},
			wantErr: ErrUnlinkedTransferEntry,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.entry.Validate()

			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}

			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Validate() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}
