// Package ledgertest provides in-memory stores for exercising the wallet,
// subscription, payment and audit flows without Postgres. Each store
// serializes its operations behind one mutex, which matches the row lock the
// SQL repositories take.
package ledgertest

import (
	"context"
	"sort"
	"sync"
	"time"

	"overlaykit/internal/wallet"

	"github.com/google/uuid"
)

type Wallets struct {
	mu      sync.Mutex
	wallets map[int]*wallet.Wallet
	txs     []wallet.Transaction

	// FailApply, when set, is consulted before every mutation; a non-nil
	// return aborts it with that error.
	FailApply func(m wallet.Mutation) error
}

var _ wallet.Repository = (*Wallets)(nil)

func NewWallets() *Wallets {
	return &Wallets{wallets: map[int]*wallet.Wallet{}}
}

// Seed creates or overwrites a wallet with the given balance.
func (s *Wallets) Seed(userID int, balance int64) *wallet.Wallet {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	w := &wallet.Wallet{
		ID:             uuid.New(),
		UserID:         userID,
		Balance:        balance,
		TotalDeposited: balance,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	s.wallets[userID] = w
	cp := *w
	return &cp
}

func (s *Wallets) Balance(userID int) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if w, ok := s.wallets[userID]; ok {
		return w.Balance
	}
	return 0
}

// Transactions returns the user's ledger in insertion order.
func (s *Wallets) Transactions(userID int) []wallet.Transaction {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []wallet.Transaction
	for _, t := range s.txs {
		if t.UserID == userID {
			out = append(out, t)
		}
	}
	return out
}

func (s *Wallets) CountByReference(ref uuid.UUID) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for _, t := range s.txs {
		if t.ReferenceID != nil && *t.ReferenceID == ref {
			n++
		}
	}
	return n
}

func (s *Wallets) GetWallet(ctx context.Context, userID int) (*wallet.Wallet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	w, ok := s.wallets[userID]
	if !ok {
		return nil, wallet.ErrWalletNotFound
	}
	cp := *w
	return &cp, nil
}

func (s *Wallets) CreateWallet(ctx context.Context, userID int) (*wallet.Wallet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.wallets[userID]; ok {
		return nil, wallet.ErrWalletExists
	}
	now := time.Now()
	w := &wallet.Wallet{ID: uuid.New(), UserID: userID, CreatedAt: now, UpdatedAt: now}
	s.wallets[userID] = w
	cp := *w
	return &cp, nil
}

func (s *Wallets) Apply(ctx context.Context, m wallet.Mutation) (*wallet.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.FailApply != nil {
		if err := s.FailApply(m); err != nil {
			return nil, err
		}
	}

	w, ok := s.wallets[m.UserID]
	if !ok {
		return nil, wallet.ErrWalletNotFound
	}

	kind := m.Kind()
	if m.ReferenceID != nil {
		if t := s.findLocked(*m.ReferenceID, kind); t != nil {
			wcp, tcp := *w, *t
			return &wallet.Result{Wallet: &wcp, Transaction: &tcp, Replayed: true}, nil
		}
	}

	newBalance := w.Balance + m.Delta
	if newBalance < 0 {
		return nil, &wallet.InsufficientFundsError{Balance: w.Balance, Required: -m.Delta}
	}

	w.Balance = newBalance
	if kind == wallet.KindCredit {
		w.TotalDeposited += m.Delta
	} else {
		w.TotalSpent -= m.Delta
	}
	w.UpdatedAt = time.Now()

	var ref *uuid.UUID
	if m.ReferenceID != nil {
		r := *m.ReferenceID
		ref = &r
	}
	t := wallet.Transaction{
		ID:           uuid.New(),
		UserID:       m.UserID,
		Delta:        m.Delta,
		Kind:         kind,
		Description:  m.Description,
		ReferenceID:  ref,
		BalanceAfter: newBalance,
		CreatedAt:    w.UpdatedAt,
	}
	s.txs = append(s.txs, t)

	wcp := *w
	return &wallet.Result{Wallet: &wcp, Transaction: &t}, nil
}

func (s *Wallets) findLocked(ref uuid.UUID, kind wallet.Kind) *wallet.Transaction {
	for i := range s.txs {
		t := &s.txs[i]
		if t.Kind == kind && t.ReferenceID != nil && *t.ReferenceID == ref {
			return t
		}
	}
	return nil
}

func (s *Wallets) GetTransactionByReference(ctx context.Context, ref uuid.UUID, kind wallet.Kind) (*wallet.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t := s.findLocked(ref, kind)
	if t == nil {
		return nil, wallet.ErrTransactionNotFound
	}
	cp := *t
	return &cp, nil
}

func (s *Wallets) GetTransactions(ctx context.Context, userID int, limit, offset int) ([]wallet.Transaction, error) {
	all := s.Transactions(userID)
	sort.SliceStable(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })
	if offset >= len(all) {
		return []wallet.Transaction{}, nil
	}
	all = all[offset:]
	if limit > 0 && limit < len(all) {
		all = all[:limit]
	}
	return all, nil
}
