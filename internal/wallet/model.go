package wallet

import (
	"time"

	"github.com/google/uuid"
)

type Kind string

const (
	KindCredit Kind = "credit"
	KindDebit  Kind = "debit"
)

// Wallet holds a user's spendable credits. Balance never drops below zero.
type Wallet struct {
	ID             uuid.UUID `db:"id" json:"id"`
	UserID         int       `db:"user_id" json:"user_id"`
	Balance        int64     `db:"balance" json:"balance"`
	TotalDeposited int64     `db:"total_deposited" json:"total_deposited"`
	TotalSpent     int64     `db:"total_spent" json:"total_spent"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}

// Transaction is the immutable ledger row written for every balance change.
type Transaction struct {
	ID           uuid.UUID  `db:"id" json:"id"`
	UserID       int        `db:"user_id" json:"user_id"`
	Delta        int64      `db:"delta" json:"delta"`
	Kind         Kind       `db:"kind" json:"kind"`
	Description  string     `db:"description" json:"description"`
	ReferenceID  *uuid.UUID `db:"reference_id" json:"reference_id,omitempty"`
	BalanceAfter int64      `db:"balance_after" json:"balance_after"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
}

// Mutation is one signed balance change handed to the store.
type Mutation struct {
	UserID      int
	Delta       int64
	Description string
	ReferenceID *uuid.UUID
}

func (m Mutation) Kind() Kind {
	if m.Delta < 0 {
		return KindDebit
	}
	return KindCredit
}

// Result is the outcome of a credit or debit. Replayed is set when the
// reference id had already been applied and nothing changed.
type Result struct {
	Wallet      *Wallet      `json:"wallet"`
	Transaction *Transaction `json:"transaction"`
	Replayed    bool         `json:"replayed"`
}
