package subscription

import (
	"context"
	"errors"
	"time"

	"overlaykit/internal/logger"
	"overlaykit/internal/metrics"

	"github.com/google/uuid"
)

type Service interface {
	GetPackage(ctx context.Context, id uuid.UUID) (*Package, error)
	ListPackages(ctx context.Context) ([]Package, error)
	GetActiveSubscription(ctx context.Context, userID int) (*Subscription, error)
	GrantSubscription(ctx context.Context, userID int, pkg *Package, mode GrantMode) (*Subscription, error)
	RevokeSubscription(ctx context.Context, id uuid.UUID) error
	ListUserSubscriptions(ctx context.Context, userID int) ([]Subscription, error)
	ExpireDue(ctx context.Context) (int64, error)
}

type Option func(*service)

// WithClock overrides time.Now, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(s *service) { s.now = now }
}

type service struct {
	repo Repository
	now  func() time.Time
}

func NewService(repo Repository, opts ...Option) Service {
	s := &service{repo: repo, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// GetPackage returns ErrPackageNotFound for missing and inactive packages alike.
func (s *service) GetPackage(ctx context.Context, id uuid.UUID) (*Package, error) {
	pkg, err := s.repo.GetPackage(ctx, id)
	if err != nil {
		return nil, err
	}
	if !pkg.IsActive {
		return nil, ErrPackageNotFound
	}
	return pkg, nil
}

func (s *service) ListPackages(ctx context.Context) ([]Package, error) {
	return s.repo.ListPackages(ctx, true)
}

// GetActiveSubscription returns nil, nil when the user has no entitlement.
func (s *service) GetActiveSubscription(ctx context.Context, userID int) (*Subscription, error) {
	sub, err := s.repo.GetActive(ctx, userID, s.now())
	if errors.Is(err, ErrSubscriptionNotFound) {
		return nil, nil
	}
	return sub, err
}

// GrantSubscription inserts a new active row. When an active subscription
// exists the new row starts exactly at its expiry, so coverage stays
// contiguous; otherwise it starts now. The wallet is never touched here.
func (s *service) GrantSubscription(ctx context.Context, userID int, pkg *Package, mode GrantMode) (*Subscription, error) {
	if pkg == nil || pkg.DurationDays <= 0 {
		return nil, ErrPackageNotFound
	}

	sub := &Subscription{
		UserID:    userID,
		PackageID: pkg.ID,
		Status:    StatusActive,
	}
	chained, err := s.repo.Chain(ctx, sub, pkg.DurationDays, s.now())
	if err != nil {
		return nil, err
	}

	metrics.RecordSubscriptionGranted(string(mode))
	logger.Info("subscription granted",
		"subscription_id", sub.ID,
		"user_id", userID,
		"package_id", pkg.ID,
		"mode", string(mode),
		"chained", chained,
	)
	return sub, nil
}

// RevokeSubscription removes a row created moments ago by a purchase whose
// debit failed. It is a compensating action only.
func (s *service) RevokeSubscription(ctx context.Context, id uuid.UUID) error {
	return s.repo.Delete(ctx, id)
}

func (s *service) ListUserSubscriptions(ctx context.Context, userID int) ([]Subscription, error) {
	return s.repo.ListByUser(ctx, userID)
}

func (s *service) ExpireDue(ctx context.Context) (int64, error) {
	n, err := s.repo.ExpireDue(ctx, s.now())
	if err != nil {
		return 0, err
	}
	metrics.RecordSubscriptionsExpired(n)
	return n, nil
}
