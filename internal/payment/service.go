package payment

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/url"
	"strings"

	"overlaykit/internal/logger"
	"overlaykit/internal/metrics"

	"github.com/google/uuid"
)

type ServiceConfig struct {
	PublicBaseURL  string
	WebhookSecret  string
	CreditsPerUnit float64
	PayoutAddress  map[string]string
}

// Service creates top-up requests. Everything after creation belongs to the
// Reconciler.
type Service struct {
	repo   Repository
	crypto AddressCreator
	cfg    ServiceConfig
}

func NewService(repo Repository, crypto AddressCreator, cfg ServiceConfig) *Service {
	return &Service{repo: repo, crypto: crypto, cfg: cfg}
}

// CreditsFor converts a fiat amount into whole credits, rounding down.
func (s *Service) CreditsFor(amountFiat float64) int64 {
	return int64(math.Floor(amountFiat * s.cfg.CreditsPerUnit))
}

// CallbackURL is the webhook address handed to the processor for one request.
func (s *Service) CallbackURL(id uuid.UUID) string {
	q := url.Values{}
	q.Set("payment_id", id.String())
	q.Set("secret", s.cfg.WebhookSecret)
	return strings.TrimRight(s.cfg.PublicBaseURL, "/") + "/webhooks/crypto?" + q.Encode()
}

func (s *Service) CreateTopUp(ctx context.Context, userID int, coin string, amountFiat float64) (*PaymentRequest, error) {
	coin = strings.ToLower(strings.TrimSpace(coin))
	payout, ok := s.cfg.PayoutAddress[coin]
	if !ok || payout == "" {
		return nil, ErrUnsupportedCoin
	}

	credits := s.CreditsFor(amountFiat)
	if credits <= 0 {
		return nil, ErrAmountTooSmall
	}

	p := &PaymentRequest{
		UserID:       userID,
		Coin:         coin,
		AmountFiat:   amountFiat,
		CreditsToAdd: credits,
		Status:       StatusPending,
		Metadata:     Metadata{},
	}
	if err := s.repo.Create(ctx, p); err != nil {
		metrics.RecordPaymentRequest(coin, "error")
		return nil, fmt.Errorf("create payment request: %w", err)
	}

	addr, err := s.crypto.CreateAddress(ctx, AddressRequest{
		Coin:          coin,
		CallbackURL:   s.CallbackURL(p.ID),
		PayoutAddress: payout,
	})
	if err != nil {
		logger.Error("crypto processor refused address", "payment_id", p.ID, "coin", coin, "error", err)
		if _, markErr := s.repo.MarkFailed(ctx, p.ID, Metadata{"error": err.Error()}); markErr != nil {
			logger.Error("mark payment failed", "payment_id", p.ID, "error", markErr)
		}
		metrics.RecordPaymentRequest(coin, "failed")
		return nil, err
	}

	md := Metadata{
		"address_in":         addr.AddressIn,
		"address_out":        addr.AddressOut,
		"minimum_coin_value": addr.MinimumTransaction,
	}
	if err := s.repo.MergeMetadata(ctx, p.ID, md); err != nil {
		metrics.RecordPaymentRequest(coin, "error")
		return nil, fmt.Errorf("store deposit address: %w", err)
	}
	for k, v := range md {
		p.Metadata[k] = v
	}

	metrics.RecordPaymentRequest(coin, "created")
	logger.Info("payment request created",
		"payment_id", p.ID,
		"user_id", userID,
		"coin", coin,
		"credits", credits,
	)
	return p, nil
}

// GetForUser hides other users' requests behind ErrPaymentNotFound.
func (s *Service) GetForUser(ctx context.Context, userID int, id uuid.UUID) (*PaymentRequest, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.UserID != userID {
		return nil, ErrPaymentNotFound
	}
	return p, nil
}

func (s *Service) ListForUser(ctx context.Context, userID int) ([]PaymentRequest, error) {
	return s.repo.ListByUser(ctx, userID, 20)
}

// IsExternal reports whether err came from the processor.
func IsExternal(err error) (*ExternalServiceError, bool) {
	var ext *ExternalServiceError
	ok := errors.As(err, &ext)
	return ext, ok
}
