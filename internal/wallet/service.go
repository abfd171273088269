package wallet

import (
	"context"
	"errors"

	"overlaykit/internal/logger"
	"overlaykit/internal/metrics"

	"github.com/google/uuid"
)

type Service interface {
	GetOrCreateWallet(ctx context.Context, userID int) (*Wallet, error)
	GetWallet(ctx context.Context, userID int) (*Wallet, error)
	Credit(ctx context.Context, userID int, amount int64, description string, referenceID *uuid.UUID) (*Result, error)
	Debit(ctx context.Context, userID int, amount int64, description string, referenceID *uuid.UUID) (*Result, error)
	GetTransactions(ctx context.Context, userID int, limit, offset int) ([]Transaction, error)
}

type service struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

// GetOrCreateWallet provisions a zero wallet on first access. A concurrent
// creator winning the insert is treated as success and the row is re-read.
func (s *service) GetOrCreateWallet(ctx context.Context, userID int) (*Wallet, error) {
	w, err := s.repo.GetWallet(ctx, userID)
	if err == nil {
		return w, nil
	}
	if !errors.Is(err, ErrWalletNotFound) {
		return nil, err
	}

	w, err = s.repo.CreateWallet(ctx, userID)
	if errors.Is(err, ErrWalletExists) {
		return s.repo.GetWallet(ctx, userID)
	}
	return w, err
}

func (s *service) GetWallet(ctx context.Context, userID int) (*Wallet, error) {
	return s.repo.GetWallet(ctx, userID)
}

// Credit adds amount to the wallet. With a reference id the call is
// idempotent: a second credit for the same reference returns the first
// transaction and leaves the balance untouched.
func (s *service) Credit(ctx context.Context, userID int, amount int64, description string, referenceID *uuid.UUID) (*Result, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}
	if _, err := s.GetOrCreateWallet(ctx, userID); err != nil {
		return nil, err
	}
	return s.apply(ctx, Mutation{
		UserID:      userID,
		Delta:       amount,
		Description: description,
		ReferenceID: referenceID,
	})
}

// Debit removes amount from the wallet. The balance check happens inside the
// store's locked mutation, never against an earlier read.
func (s *service) Debit(ctx context.Context, userID int, amount int64, description string, referenceID *uuid.UUID) (*Result, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}
	return s.apply(ctx, Mutation{
		UserID:      userID,
		Delta:       -amount,
		Description: description,
		ReferenceID: referenceID,
	})
}

func (s *service) apply(ctx context.Context, m Mutation) (*Result, error) {
	kind := string(m.Kind())
	amount := m.Delta
	if amount < 0 {
		amount = -amount
	}

	res, err := s.repo.Apply(ctx, m)
	if errors.Is(err, ErrDuplicateReference) {
		// lost the race on the unique (reference_id, kind) index
		res, err = s.replay(ctx, m)
	}
	if err != nil {
		switch {
		case errors.Is(err, ErrInsufficientFunds):
			metrics.RecordWalletMutation(kind, "insufficient_funds", amount)
		case errors.Is(err, ErrWalletNotFound):
			metrics.RecordWalletMutation(kind, "wallet_not_found", amount)
		default:
			metrics.RecordWalletMutation(kind, "error", amount)
			logger.Error("wallet mutation failed", "user_id", m.UserID, "kind", kind, "error", err)
		}
		return nil, err
	}

	if res.Replayed {
		metrics.RecordWalletMutation(kind, "replayed", amount)
		logger.Info("wallet mutation replayed", "user_id", m.UserID, "kind", kind, "reference_id", m.ReferenceID)
		return res, nil
	}

	metrics.RecordWalletMutation(kind, "applied", amount)
	return res, nil
}

func (s *service) replay(ctx context.Context, m Mutation) (*Result, error) {
	t, err := s.repo.GetTransactionByReference(ctx, *m.ReferenceID, m.Kind())
	if err != nil {
		return nil, err
	}
	w, err := s.repo.GetWallet(ctx, m.UserID)
	if err != nil {
		return nil, err
	}
	return &Result{Wallet: w, Transaction: t, Replayed: true}, nil
}

func (s *service) GetTransactions(ctx context.Context, userID int, limit, offset int) ([]Transaction, error) {
	if limit <= 0 {
		limit = 50
	}
	if limit > 200 {
		limit = 200
	}
	if offset < 0 {
		offset = 0
	}
	return s.repo.GetTransactions(ctx, userID, limit, offset)
}
