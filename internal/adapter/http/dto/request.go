package dto

import (
	"github.com/shopspring/decimal"

	"github.com/custodia/ledger/internal/ledger"
)

// MoneyRequest represents a deposit or withdrawal request body.
type MoneyRequest struct {
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
}

// ToDepositInput converts to engine input.
func (r *MoneyRequest) ToDepositInput(accountID, idempotencyKey string) ledger.DepositInput {
	return ledger.DepositInput{
		AccountID:      accountID,
		Amount:         r.Amount,
		Description:    r.Description,
		IdempotencyKey: idempotencyKey,
	}
}

// ToWithdrawInput converts to engine input.
func (r *MoneyRequest) ToWithdrawInput(accountID, idempotencyKey string) ledger.WithdrawInput {
	return ledger.WithdrawInput{
		AccountID:      accountID,
		Amount:         r.Amount,
		Description:    r.Description,
		IdempotencyKey: idempotencyKey,
	}
}

// CreateTransferRequest represents a transfer request body.
type CreateTransferRequest struct {
	SenderID    string          `json:"sender_id"`
	RecipientID string          `json:"recipient_id"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
}

// ToTransferInput converts to engine input.
func (r *CreateTransferRequest) ToTransferInput(idempotencyKey string) ledger.TransferInput {
	return ledger.TransferInput{
		SenderID:       r.SenderID,
		RecipientID:    r.RecipientID,
		Amount:         r.Amount,
		Description:    r.Description,
		IdempotencyKey: idempotencyKey,
	}
}
