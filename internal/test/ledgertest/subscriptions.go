package ledgertest

import (
	"context"
	"sort"
	"sync"
	"time"

	"overlaykit/internal/subscription"

	"github.com/google/uuid"
)

type Subscriptions struct {
	mu       sync.Mutex
	packages map[uuid.UUID]subscription.Package
	subs     map[uuid.UUID]subscription.Subscription

	// FailDelete makes Delete return this error, to exercise a failed
	// compensation.
	FailDelete error
}

var _ subscription.Repository = (*Subscriptions)(nil)

func NewSubscriptions() *Subscriptions {
	return &Subscriptions{
		packages: map[uuid.UUID]subscription.Package{},
		subs:     map[uuid.UUID]subscription.Subscription{},
	}
}

// AddPackage registers an active package and returns it.
func (s *Subscriptions) AddPackage(name string, price int64, days int) subscription.Package {
	s.mu.Lock()
	defer s.mu.Unlock()

	p := subscription.Package{
		ID:           uuid.New(),
		Name:         name,
		PriceCredits: price,
		DurationDays: days,
		IsActive:     true,
		SortOrder:    len(s.packages),
		CreatedAt:    time.Now(),
	}
	s.packages[p.ID] = p
	return p
}

func (s *Subscriptions) Deactivate(id uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.packages[id]
	p.IsActive = false
	s.packages[id] = p
}

// All returns every subscription row for the user, oldest start first.
func (s *Subscriptions) All(userID int) []subscription.Subscription {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []subscription.Subscription
	for _, sub := range s.subs {
		if sub.UserID == userID {
			out = append(out, sub)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartsAt.Before(out[j].StartsAt) })
	return out
}

func (s *Subscriptions) GetPackage(ctx context.Context, id uuid.UUID) (*subscription.Package, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.packages[id]
	if !ok {
		return nil, subscription.ErrPackageNotFound
	}
	return &p, nil
}

func (s *Subscriptions) ListPackages(ctx context.Context, activeOnly bool) ([]subscription.Package, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := []subscription.Package{}
	for _, p := range s.packages {
		if activeOnly && !p.IsActive {
			continue
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].SortOrder != out[j].SortOrder {
			return out[i].SortOrder < out[j].SortOrder
		}
		return out[i].PriceCredits < out[j].PriceCredits
	})
	return out, nil
}

func (s *Subscriptions) GetActive(ctx context.Context, userID int, now time.Time) (*subscription.Subscription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	best := s.latestActive(userID, now)
	if best == nil {
		return nil, subscription.ErrSubscriptionNotFound
	}
	return best, nil
}

func (s *Subscriptions) latestActive(userID int, now time.Time) *subscription.Subscription {
	var best *subscription.Subscription
	for _, sub := range s.subs {
		if sub.UserID != userID || !sub.IsActiveAt(now) {
			continue
		}
		if best == nil || sub.ExpiresAt.After(best.ExpiresAt) {
			cp := sub
			best = &cp
		}
	}
	return best
}

func (s *Subscriptions) GetByID(ctx context.Context, id uuid.UUID) (*subscription.Subscription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sub, ok := s.subs[id]
	if !ok {
		return nil, subscription.ErrSubscriptionNotFound
	}
	return &sub, nil
}

func (s *Subscriptions) Chain(ctx context.Context, sub *subscription.Subscription, durationDays int, now time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sub.StartsAt = now
	current := s.latestActive(sub.UserID, now)
	if current != nil {
		sub.StartsAt = current.ExpiresAt
	}
	sub.ExpiresAt = sub.StartsAt.AddDate(0, 0, durationDays)

	created := time.Now()
	sub.ID = uuid.New()
	sub.CreatedAt = created
	sub.UpdatedAt = created
	s.subs[sub.ID] = *sub
	return current != nil, nil
}

func (s *Subscriptions) Delete(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.FailDelete != nil {
		return s.FailDelete
	}
	if _, ok := s.subs[id]; !ok {
		return subscription.ErrSubscriptionNotFound
	}
	delete(s.subs, id)
	return nil
}

func (s *Subscriptions) ListByUser(ctx context.Context, userID int) ([]subscription.Subscription, error) {
	out := s.All(userID)
	sort.Slice(out, func(i, j int) bool { return out[i].StartsAt.After(out[j].StartsAt) })
	return out, nil
}

func (s *Subscriptions) ExpireDue(ctx context.Context, now time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	for id, sub := range s.subs {
		if sub.Status == subscription.StatusActive && !sub.ExpiresAt.After(now) {
			sub.Status = subscription.StatusExpired
			sub.UpdatedAt = now
			s.subs[id] = sub
			n++
		}
	}
	return n, nil
}
