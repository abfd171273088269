package purchase

import (
	"context"
	"fmt"
	"time"

	"overlaykit/internal/logger"
	"overlaykit/internal/metrics"
	"overlaykit/internal/subscription"
	"overlaykit/internal/wallet"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

type WalletService interface {
	GetWallet(ctx context.Context, userID int) (*wallet.Wallet, error)
	Debit(ctx context.Context, userID int, amount int64, description string, referenceID *uuid.UUID) (*wallet.Result, error)
}

type SubscriptionService interface {
	GetPackage(ctx context.Context, id uuid.UUID) (*subscription.Package, error)
	GrantSubscription(ctx context.Context, userID int, pkg *subscription.Package, mode subscription.GrantMode) (*subscription.Subscription, error)
	RevokeSubscription(ctx context.Context, id uuid.UUID) error
}

type ReceiptSender interface {
	SendPurchaseReceipt(ctx context.Context, userID int, packageName string, expiresAt time.Time, balance int64) error
}

type Result struct {
	Subscription *subscription.Subscription `json:"subscription"`
	Package      *subscription.Package      `json:"package"`
	Balance      int64                      `json:"balance"`
}

// Orchestrator sells a package for wallet credits: grant the subscription,
// then debit, and delete the subscription again if the debit fails.
type Orchestrator struct {
	wallets  WalletService
	subs     SubscriptionService
	receipts ReceiptSender
}

func NewOrchestrator(wallets WalletService, subs SubscriptionService, receipts ReceiptSender) *Orchestrator {
	return &Orchestrator{wallets: wallets, subs: subs, receipts: receipts}
}

func (o *Orchestrator) Purchase(ctx context.Context, userID int, packageID uuid.UUID) (*Result, error) {
	ctx, span := otel.Tracer("overlaykit/purchase").Start(ctx, "purchase")
	defer span.End()
	span.SetAttributes(
		attribute.Int("user.id", userID),
		attribute.String("package.id", packageID.String()),
	)

	res, err := o.purchase(ctx, userID, packageID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		metrics.RecordPurchase(outcomeOf(err))
		return nil, err
	}

	metrics.RecordPurchase("ok")
	return res, nil
}

func (o *Orchestrator) purchase(ctx context.Context, userID int, packageID uuid.UUID) (*Result, error) {
	pkg, err := o.subs.GetPackage(ctx, packageID)
	if err != nil {
		return nil, err
	}

	w, err := o.wallets.GetWallet(ctx, userID)
	if err != nil {
		return nil, err
	}

	// Early rejection only. The authoritative check is the locked debit below.
	if w.Balance < pkg.PriceCredits {
		return nil, &wallet.InsufficientFundsError{Balance: w.Balance, Required: pkg.PriceCredits}
	}

	var sub *subscription.Subscription
	balance := w.Balance

	s := newSaga().
		Add("grant_subscription",
			func(ctx context.Context) error {
				granted, err := o.subs.GrantSubscription(ctx, userID, pkg, subscription.GrantPurchase)
				if err != nil {
					return err
				}
				sub = granted
				return nil
			},
			func(ctx context.Context) error {
				return o.subs.RevokeSubscription(ctx, sub.ID)
			},
		).
		Add("debit_wallet",
			func(ctx context.Context) error {
				if pkg.PriceCredits == 0 {
					return nil
				}
				ref := sub.ID
				res, err := o.wallets.Debit(ctx, userID, pkg.PriceCredits, fmt.Sprintf("Purchase: %s", pkg.Name), &ref)
				if err != nil {
					return err
				}
				balance = res.Wallet.Balance
				return nil
			},
			nil,
		)

	if err := s.Run(ctx); err != nil {
		logger.Warn("purchase failed",
			"user_id", userID,
			"package_id", packageID,
			"error", err,
		)
		return nil, err
	}

	logger.Info("purchase completed",
		"user_id", userID,
		"package_id", pkg.ID,
		"subscription_id", sub.ID,
		"expires_at", sub.ExpiresAt,
		"balance", balance,
	)

	if o.receipts != nil {
		if err := o.receipts.SendPurchaseReceipt(ctx, userID, pkg.Name, sub.ExpiresAt, balance); err != nil {
			logger.Warn("purchase receipt not queued", "subscription_id", sub.ID, "error", err)
		}
	}

	return &Result{Subscription: sub, Package: pkg, Balance: balance}, nil
}
