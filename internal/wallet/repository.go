package wallet

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"overlaykit/internal/db"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

const (
	walletColumns      = `id, user_id, balance, total_deposited, total_spent, created_at, updated_at`
	transactionColumns = `id, user_id, delta, kind, description, reference_id, balance_after, created_at`
)

type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

func (r *repository) GetWallet(ctx context.Context, userID int) (*Wallet, error) {
	w := &Wallet{}
	err := r.db.GetContext(ctx, w, `SELECT `+walletColumns+` FROM wallets WHERE user_id = $1`, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrWalletNotFound
	}
	if err != nil {
		return nil, err
	}
	return w, nil
}

func (r *repository) CreateWallet(ctx context.Context, userID int) (*Wallet, error) {
	w := &Wallet{}
	err := r.db.QueryRowxContext(ctx,
		`INSERT INTO wallets (user_id)
		 VALUES ($1)
		 RETURNING `+walletColumns,
		userID,
	).StructScan(w)
	if db.IsUniqueViolation(err) {
		return nil, ErrWalletExists
	}
	if err != nil {
		return nil, err
	}
	return w, nil
}

func (r *repository) Apply(ctx context.Context, m Mutation) (*Result, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var w Wallet
	err = tx.QueryRowxContext(ctx,
		`SELECT `+walletColumns+`
		 FROM wallets
		 WHERE user_id = $1
		 FOR UPDATE`,
		m.UserID,
	).StructScan(&w)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrWalletNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("lock wallet: %w", err)
	}

	kind := m.Kind()
	if m.ReferenceID != nil {
		var existing Transaction
		err = tx.GetContext(ctx, &existing,
			`SELECT `+transactionColumns+`
			 FROM wallet_transactions
			 WHERE reference_id = $1 AND kind = $2`,
			*m.ReferenceID, kind,
		)
		if err == nil {
			return &Result{Wallet: &w, Transaction: &existing, Replayed: true}, nil
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("check reference: %w", err)
		}
	}

	newBalance := w.Balance + m.Delta
	if newBalance < 0 {
		return nil, &InsufficientFundsError{Balance: w.Balance, Required: -m.Delta}
	}

	deposited, spent := w.TotalDeposited, w.TotalSpent
	if kind == KindCredit {
		deposited += m.Delta
	} else {
		spent -= m.Delta
	}

	err = tx.QueryRowxContext(ctx,
		`UPDATE wallets
		 SET balance = $1, total_deposited = $2, total_spent = $3, updated_at = NOW()
		 WHERE id = $4
		 RETURNING `+walletColumns,
		newBalance, deposited, spent, w.ID,
	).StructScan(&w)
	if err != nil {
		return nil, fmt.Errorf("update wallet: %w", err)
	}

	var t Transaction
	err = tx.QueryRowxContext(ctx,
		`INSERT INTO wallet_transactions (user_id, delta, kind, description, reference_id, balance_after)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING `+transactionColumns,
		m.UserID, m.Delta, kind, m.Description, m.ReferenceID, newBalance,
	).StructScan(&t)
	if db.IsUniqueViolation(err) {
		return nil, ErrDuplicateReference
	}
	if err != nil {
		return nil, fmt.Errorf("insert transaction: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	return &Result{Wallet: &w, Transaction: &t}, nil
}

func (r *repository) GetTransactionByReference(ctx context.Context, referenceID uuid.UUID, kind Kind) (*Transaction, error) {
	t := &Transaction{}
	err := r.db.GetContext(ctx, t,
		`SELECT `+transactionColumns+`
		 FROM wallet_transactions
		 WHERE reference_id = $1 AND kind = $2`,
		referenceID, kind,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrTransactionNotFound
	}
	if err != nil {
		return nil, err
	}
	return t, nil
}

func (r *repository) GetTransactions(ctx context.Context, userID int, limit, offset int) ([]Transaction, error) {
	if limit <= 0 {
		limit = 50
	}

	txs := []Transaction{}
	err := r.db.SelectContext(ctx, &txs, `
		SELECT `+transactionColumns+`
		FROM wallet_transactions
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, userID, limit, offset)
	if err != nil {
		return nil, err
	}

	return txs, nil
}
