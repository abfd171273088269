package subscription

import (
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusActive   Status = "active"
	StatusExpired  Status = "expired"
	StatusCanceled Status = "cancelled"
)

// Package is a purchasable entitlement from the admin-managed catalogue.
type Package struct {
	ID           uuid.UUID `db:"id" json:"id"`
	Name         string    `db:"name" json:"name"`
	PriceCredits int64     `db:"price_credits" json:"price_credits"`
	DurationDays int       `db:"duration_days" json:"duration_days"`
	IsActive     bool      `db:"is_active" json:"is_active"`
	SortOrder    int       `db:"sort_order" json:"sort_order"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

type Subscription struct {
	ID        uuid.UUID `db:"id" json:"id"`
	UserID    int       `db:"user_id" json:"user_id"`
	PackageID uuid.UUID `db:"package_id" json:"package_id"`
	Status    Status    `db:"status" json:"status"`
	StartsAt  time.Time `db:"starts_at" json:"starts_at"`
	ExpiresAt time.Time `db:"expires_at" json:"expires_at"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// IsActiveAt reports whether the row grants entitlement at t.
func (s *Subscription) IsActiveAt(t time.Time) bool {
	return s.Status == StatusActive && s.ExpiresAt.After(t)
}

// GrantMode records who composes the grant with the wallet: a purchase debits
// right after the grant, an admin grant never debits.
type GrantMode string

const (
	GrantPurchase GrantMode = "purchase"
	GrantAdmin    GrantMode = "admin"
)
