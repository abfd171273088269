package subscription

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type Repository interface {
	GetPackage(ctx context.Context, id uuid.UUID) (*Package, error)
	ListPackages(ctx context.Context, activeOnly bool) ([]Package, error)
	GetActive(ctx context.Context, userID int, now time.Time) (*Subscription, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Subscription, error)
	Chain(ctx context.Context, sub *Subscription, durationDays int, now time.Time) (bool, error)
	Delete(ctx context.Context, id uuid.UUID) error
	ListByUser(ctx context.Context, userID int) ([]Subscription, error)
	ExpireDue(ctx context.Context, now time.Time) (int64, error)
}
