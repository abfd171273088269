package ledgertest

import (
	"context"
	"sort"
	"sync"
	"time"

	"overlaykit/internal/payment"

	"github.com/google/uuid"
)

type Payments struct {
	mu   sync.Mutex
	reqs map[uuid.UUID]payment.PaymentRequest
}

var _ payment.Repository = (*Payments)(nil)

func NewPayments() *Payments {
	return &Payments{reqs: map[uuid.UUID]payment.PaymentRequest{}}
}

// Seed inserts a pending request and returns a copy of it.
func (s *Payments) Seed(userID int, coin string, credits int64) payment.PaymentRequest {
	p := payment.PaymentRequest{
		UserID:       userID,
		Coin:         coin,
		AmountFiat:   float64(credits),
		CreditsToAdd: credits,
		Status:       payment.StatusPending,
	}
	_ = s.Create(context.Background(), &p)
	return p
}

func (s *Payments) Get(id uuid.UUID) payment.PaymentRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reqs[id]
}

func (s *Payments) Create(ctx context.Context, p *payment.PaymentRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	p.ID = uuid.New()
	if p.Status == "" {
		p.Status = payment.StatusPending
	}
	p.Metadata = cloneMetadata(p.Metadata)
	p.CreatedAt = now
	p.UpdatedAt = now
	s.reqs[p.ID] = *p
	return nil
}

func (s *Payments) GetByID(ctx context.Context, id uuid.UUID) (*payment.PaymentRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.reqs[id]
	if !ok {
		return nil, payment.ErrPaymentNotFound
	}
	p.Metadata = cloneMetadata(p.Metadata)
	return &p, nil
}

func (s *Payments) ListByUser(ctx context.Context, userID int, limit int) ([]payment.PaymentRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := []payment.PaymentRequest{}
	for _, p := range s.reqs {
		if p.UserID == userID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *Payments) MergeMetadata(ctx context.Context, id uuid.UUID, md payment.Metadata) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.reqs[id]
	if !ok {
		return payment.ErrPaymentNotFound
	}
	p.Metadata = cloneMetadata(p.Metadata)
	for k, v := range md {
		p.Metadata[k] = v
	}
	s.reqs[id] = p
	return nil
}

func (s *Payments) MarkConfirming(ctx context.Context, id uuid.UUID, txID string, confirmations int) (bool, error) {
	return s.update(id, func(p *payment.PaymentRequest) bool {
		if p.Status != payment.StatusPending && p.Status != payment.StatusConfirming {
			return false
		}
		p.Status = payment.StatusConfirming
		p.TxID = &txID
		p.Confirmations = confirmations
		return true
	})
}

func (s *Payments) MarkCompleted(ctx context.Context, id uuid.UUID, txID string, confirmations int) (bool, error) {
	return s.update(id, func(p *payment.PaymentRequest) bool {
		if p.Status == payment.StatusCompleted {
			return false
		}
		now := time.Now()
		p.Status = payment.StatusCompleted
		p.TxID = &txID
		p.Confirmations = confirmations
		p.CompletedAt = &now
		return true
	})
}

func (s *Payments) MarkFailed(ctx context.Context, id uuid.UUID, md payment.Metadata) (bool, error) {
	return s.update(id, func(p *payment.PaymentRequest) bool {
		if p.Status == payment.StatusCompleted {
			return false
		}
		p.Status = payment.StatusFailed
		p.Metadata = cloneMetadata(p.Metadata)
		for k, v := range md {
			p.Metadata[k] = v
		}
		return true
	})
}

func (s *Payments) update(id uuid.UUID, fn func(p *payment.PaymentRequest) bool) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.reqs[id]
	if !ok {
		return false, nil
	}
	if !fn(&p) {
		return false, nil
	}
	p.UpdatedAt = time.Now()
	s.reqs[id] = p
	return true, nil
}

func cloneMetadata(md payment.Metadata) payment.Metadata {
	out := payment.Metadata{}
	for k, v := range md {
		out[k] = v
	}
	return out
}
