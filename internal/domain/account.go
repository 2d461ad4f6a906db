package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Account holds the current balance of a ledger account. The balance is
// always the sum of the signed amounts of the account's entries, and the
// version increases by one with every balance mutation.
type Account struct {
	ID        string
	Balance   decimal.Decimal
	Version   int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ValidateDebit checks whether the account can be debited by amount.
// Overdrafts are never allowed.
func (a *Account) ValidateDebit(amount decimal.Decimal) error {
	if a.Balance.LessThan(amount) {
		return &InsufficientBalanceError{
			CurrentBalance: a.Balance,
			RequiredAmount: amount,
		}
	}
	return nil
}

// ApplyDebit returns the balance after a debit of amount.
func (a *Account) ApplyDebit(amount decimal.Decimal) decimal.Decimal {
	return a.Balance.Sub(amount)
}

// ApplyCredit returns the balance after a credit of amount.
func (a *Account) ApplyCredit(amount decimal.Decimal) decimal.Decimal {
	return a.Balance.Add(amount)
}
