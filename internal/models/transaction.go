package models

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType distinguishes money moving into an aim from money moving out.
type TransactionType string

const (
	// Deposit moves funds from the user's bank account into an aim.
	Deposit TransactionType = "deposit"

	// Withdrawal moves funds from an aim back to the bank account.
	Withdrawal TransactionType = "withdrawal"
)

// Valid reports whether t is one of the transaction types the backend accepts.
func (t TransactionType) Valid() bool {
	return t == Deposit || t == Withdrawal
}

func (t TransactionType) String() string { return string(t) }

// ParseTransactionType converts user input into a TransactionType.
func ParseTransactionType(s string) (TransactionType, error) {
	switch TransactionType(s) {
	case Deposit:
		return Deposit, nil
	case Withdrawal:
		return Withdrawal, nil
	}
	return "", fmt.Errorf("unknown transaction type %q", s)
}

// Transaction is a single immutable ledger entry against exactly one aim.
// The client only ever creates and reads these; it never edits or deletes them.
type Transaction struct {
	ID              int64           `json:"id"`
	AimID           int64           `json:"aim_id"`
	TransactionType TransactionType `json:"transaction_type"`
	Amount          decimal.Decimal `json:"amount"`
	BankAccountID   int64           `json:"bank_account_id"`

	// CreatedAt and UpdatedAt are server-assigned timestamps.
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TransactionCreate is the payload for recording a new transaction.
type TransactionCreate struct {
	AimID           int64           `json:"aim_id"`
	TransactionType TransactionType `json:"transaction_type"`
	Amount          decimal.Decimal `json:"amount"`
}
