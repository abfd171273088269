package subscription

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

var (
	ErrPackageNotFound      = errors.New("package not found")
	ErrSubscriptionNotFound = errors.New("subscription not found")
)

const (
	packageColumns      = `id, name, price_credits, duration_days, is_active, sort_order, created_at`
	subscriptionColumns = `id, user_id, package_id, status, starts_at, expires_at, created_at, updated_at`

	// latest active row, so a chain of back-to-back subscriptions is
	// extended from its end
	activeQuery = `
		SELECT ` + subscriptionColumns + `
		FROM subscriptions
		WHERE user_id = $1
		  AND status = 'active'
		  AND expires_at > $2
		ORDER BY expires_at DESC
		LIMIT 1`
)

type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

func (r *repository) GetPackage(ctx context.Context, id uuid.UUID) (*Package, error) {
	p := &Package{}
	err := r.db.GetContext(ctx, p, `SELECT `+packageColumns+` FROM packages WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrPackageNotFound
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (r *repository) ListPackages(ctx context.Context, activeOnly bool) ([]Package, error) {
	pkgs := []Package{}
	err := r.db.SelectContext(ctx, &pkgs, `
		SELECT `+packageColumns+`
		FROM packages
		WHERE is_active OR NOT $1
		ORDER BY sort_order, price_credits
	`, activeOnly)
	return pkgs, err
}

func (r *repository) GetActive(ctx context.Context, userID int, now time.Time) (*Subscription, error) {
	sub := &Subscription{}
	err := r.db.GetContext(ctx, sub, activeQuery, userID, now)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSubscriptionNotFound
	}
	if err != nil {
		return nil, err
	}
	return sub, nil
}

func (r *repository) GetByID(ctx context.Context, id uuid.UUID) (*Subscription, error) {
	sub := &Subscription{}
	err := r.db.GetContext(ctx, sub, `SELECT `+subscriptionColumns+` FROM subscriptions WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSubscriptionNotFound
	}
	if err != nil {
		return nil, err
	}
	return sub, nil
}

// Chain inserts sub starting at the user's latest active expiry, or at now
// when nothing is active, and reports whether it was chained. A per-user
// advisory lock held until commit serializes concurrent grants.
func (r *repository) Chain(ctx context.Context, sub *Subscription, durationDays int, now time.Time) (bool, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, sub.UserID); err != nil {
		return false, fmt.Errorf("lock user subscriptions: %w", err)
	}

	var current Subscription
	err = tx.GetContext(ctx, &current, activeQuery, sub.UserID, now)
	chained := err == nil
	switch {
	case chained:
		sub.StartsAt = current.ExpiresAt
	case errors.Is(err, sql.ErrNoRows):
		sub.StartsAt = now
	default:
		return false, fmt.Errorf("find active subscription: %w", err)
	}
	sub.ExpiresAt = sub.StartsAt.AddDate(0, 0, durationDays)

	err = tx.QueryRowxContext(ctx, `
		INSERT INTO subscriptions (user_id, package_id, status, starts_at, expires_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+subscriptionColumns,
		sub.UserID, sub.PackageID, sub.Status, sub.StartsAt, sub.ExpiresAt,
	).StructScan(sub)
	if err != nil {
		return false, fmt.Errorf("insert subscription: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return false, err
	}
	return chained, nil
}

func (r *repository) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM subscriptions WHERE id = $1`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrSubscriptionNotFound
	}
	return nil
}

func (r *repository) ListByUser(ctx context.Context, userID int) ([]Subscription, error) {
	subs := []Subscription{}
	err := r.db.SelectContext(ctx, &subs, `
		SELECT `+subscriptionColumns+`
		FROM subscriptions
		WHERE user_id = $1
		ORDER BY starts_at DESC
	`, userID)
	return subs, err
}

func (r *repository) ExpireDue(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE subscriptions
		SET status = 'expired', updated_at = NOW()
		WHERE status = 'active'
		  AND expires_at <= $1
	`, now)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
