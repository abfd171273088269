package payment

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

const paymentColumns = `id, user_id, coin, amount_fiat, credits_to_add, status, txid, confirmations, metadata, created_at, updated_at, completed_at`

type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, p *PaymentRequest) error {
	if p.Status == "" {
		p.Status = StatusPending
	}
	return r.db.QueryRowxContext(ctx,
		`INSERT INTO payment_requests (user_id, coin, amount_fiat, credits_to_add, status, metadata)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING `+paymentColumns,
		p.UserID, p.Coin, p.AmountFiat, p.CreditsToAdd, p.Status, p.Metadata,
	).StructScan(p)
}

func (r *repository) GetByID(ctx context.Context, id uuid.UUID) (*PaymentRequest, error) {
	p := &PaymentRequest{}
	err := r.db.GetContext(ctx, p, `SELECT `+paymentColumns+` FROM payment_requests WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrPaymentNotFound
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (r *repository) ListByUser(ctx context.Context, userID int, limit int) ([]PaymentRequest, error) {
	if limit <= 0 {
		limit = 20
	}
	out := []PaymentRequest{}
	err := r.db.SelectContext(ctx, &out, `
		SELECT `+paymentColumns+`
		FROM payment_requests
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, userID, limit)
	return out, err
}

func (r *repository) MergeMetadata(ctx context.Context, id uuid.UUID, md Metadata) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE payment_requests SET metadata = metadata || $2, updated_at = NOW() WHERE id = $1`,
		id, md,
	)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrPaymentNotFound
	}
	return nil
}

func (r *repository) MarkConfirming(ctx context.Context, id uuid.UUID, txID string, confirmations int) (bool, error) {
	return r.exec(ctx,
		`UPDATE payment_requests
		 SET status = 'confirming', txid = $2, confirmations = $3, updated_at = NOW()
		 WHERE id = $1 AND status IN ('pending', 'confirming')`,
		id, txID, confirmations,
	)
}

func (r *repository) MarkCompleted(ctx context.Context, id uuid.UUID, txID string, confirmations int) (bool, error) {
	return r.exec(ctx,
		`UPDATE payment_requests
		 SET status = 'completed', txid = $2, confirmations = $3, completed_at = NOW(), updated_at = NOW()
		 WHERE id = $1 AND status <> 'completed'`,
		id, txID, confirmations,
	)
}

func (r *repository) MarkFailed(ctx context.Context, id uuid.UUID, md Metadata) (bool, error) {
	return r.exec(ctx,
		`UPDATE payment_requests
		 SET status = 'failed', metadata = metadata || $2, updated_at = NOW()
		 WHERE id = $1 AND status <> 'completed'`,
		id, md,
	)
}

func (r *repository) exec(ctx context.Context, query string, args ...any) (bool, error) {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
