package admin

import (
	"context"
	"fmt"
	"math"
	"strings"

	"overlaykit/internal/logger"
	"overlaykit/internal/metrics"
	"overlaykit/internal/subscription"
	"overlaykit/internal/user"
	"overlaykit/internal/wallet"

	"github.com/google/uuid"
)

type SubscriptionService interface {
	GetPackage(ctx context.Context, id uuid.UUID) (*subscription.Package, error)
	GrantSubscription(ctx context.Context, userID int, pkg *subscription.Package, mode subscription.GrantMode) (*subscription.Subscription, error)
}

type UserService interface {
	GetByID(ctx context.Context, userID int) (*user.User, error)
	SetLocked(ctx context.Context, userID int, locked bool) (*user.User, error)
	Update(ctx context.Context, userID int, req user.UpdateRequest) (*user.User, error)
	Delete(ctx context.Context, userID int) error
}

// Service is the privileged ledger surface. Every successful mutation is
// followed by an audit entry; delete_user is audited before it runs.
//
// A failed audit write after a mutation is logged and counted but does not
// undo the mutation.
type Service struct {
	wallets wallet.Service
	subs    SubscriptionService
	users   UserService
	audit   AuditRepository
}

func NewService(wallets wallet.Service, subs SubscriptionService, users UserService, audit AuditRepository) *Service {
	return &Service{wallets: wallets, subs: subs, users: users, audit: audit}
}

// WholeCredits floors an admin-entered amount. Non-positive results and
// non-finite input are rejected.
func WholeCredits(amount float64) (int64, error) {
	if math.IsNaN(amount) || math.IsInf(amount, 0) {
		return 0, wallet.ErrInvalidAmount
	}
	credits := math.Floor(amount)
	if credits <= 0 || credits > math.MaxInt64/2 {
		return 0, wallet.ErrInvalidAmount
	}
	return int64(credits), nil
}

func (s *Service) AdjustWallet(ctx context.Context, adminID, targetID int, action Action, amount float64, description string) (*wallet.Result, error) {
	if action != ActionCredit && action != ActionDebit {
		return nil, fmt.Errorf("unknown wallet action %q", action)
	}
	credits, err := WholeCredits(amount)
	if err != nil {
		return nil, err
	}
	if _, err := s.users.GetByID(ctx, targetID); err != nil {
		return nil, err
	}

	description = strings.TrimSpace(description)
	if description == "" {
		description = fmt.Sprintf("Admin %s", action)
	}
	ref := uuid.New()

	var res *wallet.Result
	if action == ActionCredit {
		res, err = s.wallets.Credit(ctx, targetID, credits, description, &ref)
	} else {
		res, err = s.wallets.Debit(ctx, targetID, credits, description, &ref)
	}
	if err != nil {
		return nil, err
	}

	s.record(ctx, adminID, action, targetID, Details{
		"amount":         credits,
		"requested":      amount,
		"description":    description,
		"reference_id":   ref.String(),
		"transaction_id": res.Transaction.ID.String(),
		"balance_after":  res.Wallet.Balance,
	})
	return res, nil
}

// AssignPackage grants a package without touching the wallet.
func (s *Service) AssignPackage(ctx context.Context, adminID, targetID int, packageID uuid.UUID) (*subscription.Subscription, error) {
	if _, err := s.users.GetByID(ctx, targetID); err != nil {
		return nil, err
	}
	pkg, err := s.subs.GetPackage(ctx, packageID)
	if err != nil {
		return nil, err
	}

	sub, err := s.subs.GrantSubscription(ctx, targetID, pkg, subscription.GrantAdmin)
	if err != nil {
		return nil, err
	}

	s.record(ctx, adminID, ActionAssignPackage, targetID, Details{
		"package_id":      pkg.ID.String(),
		"package_name":    pkg.Name,
		"subscription_id": sub.ID.String(),
		"starts_at":       sub.StartsAt,
		"expires_at":      sub.ExpiresAt,
	})
	return sub, nil
}

func (s *Service) LockUser(ctx context.Context, adminID, targetID int) (*user.User, error) {
	return s.setLocked(ctx, adminID, targetID, true)
}

func (s *Service) UnlockUser(ctx context.Context, adminID, targetID int) (*user.User, error) {
	return s.setLocked(ctx, adminID, targetID, false)
}

func (s *Service) setLocked(ctx context.Context, adminID, targetID int, locked bool) (*user.User, error) {
	u, err := s.users.SetLocked(ctx, targetID, locked)
	if err != nil {
		return nil, err
	}

	action := ActionUnlockUser
	if locked {
		action = ActionLockUser
	}
	s.record(ctx, adminID, action, targetID, Details{"is_locked": locked, "email": u.Email})
	return u, nil
}

func (s *Service) EditUser(ctx context.Context, adminID, targetID int, req user.UpdateRequest) (*user.User, error) {
	before, err := s.users.GetByID(ctx, targetID)
	if err != nil {
		return nil, err
	}
	after, err := s.users.Update(ctx, targetID, req)
	if err != nil {
		return nil, err
	}

	s.record(ctx, adminID, ActionEditUser, targetID, Details{
		"before": snapshot(before),
		"after":  snapshot(after),
	})
	return after, nil
}

// DeleteUser writes its audit entry first so the trail survives a failed
// delete. If that write fails the delete is not attempted.
func (s *Service) DeleteUser(ctx context.Context, adminID, targetID int) error {
	u, err := s.users.GetByID(ctx, targetID)
	if err != nil {
		return err
	}

	if err := s.write(ctx, adminID, ActionDeleteUser, targetID, Details{"user": snapshot(u)}); err != nil {
		return fmt.Errorf("audit delete_user: %w", err)
	}
	metrics.RecordAdminAction(string(ActionDeleteUser))

	if err := s.users.Delete(ctx, targetID); err != nil {
		logger.Error("admin delete failed after audit",
			"admin_user_id", adminID,
			"target_user_id", targetID,
			"error", err,
		)
		return err
	}
	return nil
}

func (s *Service) GetUserWallet(ctx context.Context, targetID int) (*wallet.Wallet, error) {
	if _, err := s.users.GetByID(ctx, targetID); err != nil {
		return nil, err
	}
	return s.wallets.GetOrCreateWallet(ctx, targetID)
}

func (s *Service) ListAudit(ctx context.Context, targetID, limit, offset int) ([]AuditEntry, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return s.audit.List(ctx, targetID, limit, offset)
}

func (s *Service) record(ctx context.Context, adminID int, action Action, targetID int, details Details) {
	metrics.RecordAdminAction(string(action))
	_ = s.write(ctx, adminID, action, targetID, details)
}

func (s *Service) write(ctx context.Context, adminID int, action Action, targetID int, details Details) error {
	entry := &AuditEntry{
		AdminUserID:  adminID,
		Action:       action,
		TargetUserID: targetID,
		Details:      details,
	}
	if err := s.audit.Append(ctx, entry); err != nil {
		metrics.RecordAuditWriteFailure()
		logger.Error("audit write failed",
			"admin_user_id", adminID,
			"target_user_id", targetID,
			"action", string(action),
			"error", err,
		)
		return err
	}

	logger.Info("admin action",
		"audit_id", entry.ID,
		"admin_user_id", adminID,
		"target_user_id", targetID,
		"action", string(action),
	)
	return nil
}

func snapshot(u *user.User) Details {
	return Details{
		"id":        u.ID,
		"name":      u.Name,
		"email":     u.Email,
		"role":      u.Role,
		"is_locked": u.IsLocked,
	}
}
