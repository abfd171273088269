package wallet

import (
	"context"

	"github.com/google/uuid"
)

// Repository is the ledger store. Apply must check and mutate the balance and
// append the ledger row as one atomic unit.
type Repository interface {
	GetWallet(ctx context.Context, userID int) (*Wallet, error)
	CreateWallet(ctx context.Context, userID int) (*Wallet, error)
	Apply(ctx context.Context, m Mutation) (*Result, error)
	GetTransactionByReference(ctx context.Context, referenceID uuid.UUID, kind Kind) (*Transaction, error)
	GetTransactions(ctx context.Context, userID int, limit, offset int) ([]Transaction, error)
}
