package payment

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"time"

	"overlaykit/internal/logger"
	"overlaykit/internal/metrics"
	"overlaykit/internal/wallet"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

type Outcome string

const (
	OutcomeRejected         Outcome = "rejected"
	OutcomeUnknownPayment   Outcome = "unknown_payment"
	OutcomeAlreadyCompleted Outcome = "already_completed"
	OutcomeConfirming       Outcome = "confirming"
	OutcomeIgnored          Outcome = "ignored"
	OutcomeCompleted        Outcome = "completed"
	OutcomeCreditFailed     Outcome = "credit_failed"
	OutcomeError            Outcome = "error"
)

// Crediter is the slice of the wallet service the reconciler needs.
type Crediter interface {
	Credit(ctx context.Context, userID int, amount int64, description string, referenceID *uuid.UUID) (*wallet.Result, error)
}

// ReceiptSender queues a top-up receipt. Failures are logged, never returned
// to the processor.
type ReceiptSender interface {
	SendTopUpReceipt(ctx context.Context, userID int, paymentID uuid.UUID, credits, balance int64) error
}

// Reconciler applies processor callbacks to payment requests.
//
// The wallet credit uses the payment id as its reference, so the wallet's
// idempotency check is what prevents a double credit. The completed
// short-circuit below only saves the round trip.
type Reconciler struct {
	repo     Repository
	wallet   Crediter
	receipts ReceiptSender
	secret   string
}

func NewReconciler(repo Repository, w Crediter, receipts ReceiptSender, secret string) *Reconciler {
	return &Reconciler{repo: repo, wallet: w, receipts: receipts, secret: secret}
}

// HandleCallback never needs its error surfaced to the processor. The
// returned error is for logs and tests; ErrReconciliationSkipped marks a
// deliberate no-op.
func (r *Reconciler) HandleCallback(ctx context.Context, cb Callback) (Outcome, error) {
	ctx, span := otel.Tracer("overlaykit/payment").Start(ctx, "payment.reconcile")
	defer span.End()
	span.SetAttributes(
		attribute.String("payment.id", cb.PaymentID),
		attribute.Bool("payment.pending", cb.Pending),
		attribute.Int("payment.confirmations", cb.Confirmations),
	)

	outcome, err := r.handle(ctx, cb)
	metrics.RecordWebhook(string(outcome))
	span.SetAttributes(attribute.String("payment.outcome", string(outcome)))
	if err != nil && outcome != OutcomeRejected && outcome != OutcomeUnknownPayment {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return outcome, err
}

func (r *Reconciler) handle(ctx context.Context, cb Callback) (Outcome, error) {
	if r.secret == "" || subtle.ConstantTimeCompare([]byte(cb.Secret), []byte(r.secret)) != 1 {
		logger.Warn("webhook rejected: secret mismatch", "payment_id", cb.PaymentID)
		return OutcomeRejected, fmt.Errorf("%w: secret mismatch", ErrReconciliationSkipped)
	}

	id, err := uuid.Parse(cb.PaymentID)
	if err != nil {
		logger.Warn("webhook rejected: malformed payment id", "payment_id", cb.PaymentID)
		return OutcomeUnknownPayment, fmt.Errorf("%w: malformed payment id", ErrReconciliationSkipped)
	}

	p, err := r.repo.GetByID(ctx, id)
	if errors.Is(err, ErrPaymentNotFound) {
		logger.Warn("webhook for unknown payment", "payment_id", id)
		return OutcomeUnknownPayment, fmt.Errorf("%w: unknown payment", ErrReconciliationSkipped)
	}
	if err != nil {
		logger.Error("webhook: load payment failed", "payment_id", id, "error", err)
		return OutcomeError, err
	}

	if p.Status == StatusCompleted {
		return OutcomeAlreadyCompleted, nil
	}

	if cb.Pending {
		return r.confirming(ctx, p, cb)
	}
	return r.complete(ctx, p, cb)
}

func (r *Reconciler) confirming(ctx context.Context, p *PaymentRequest, cb Callback) (Outcome, error) {
	if p.Status == StatusFailed {
		// a stale pending notice must not revive a failed request
		return OutcomeIgnored, nil
	}

	updated, err := r.repo.MarkConfirming(ctx, p.ID, cb.TxID, cb.Confirmations)
	if err != nil {
		logger.Error("webhook: mark confirming failed", "payment_id", p.ID, "error", err)
		return OutcomeError, err
	}
	if !updated {
		// completed concurrently
		return OutcomeAlreadyCompleted, nil
	}

	logger.Info("payment confirming", "payment_id", p.ID, "txid", cb.TxID, "confirmations", cb.Confirmations)
	return OutcomeConfirming, nil
}

func (r *Reconciler) complete(ctx context.Context, p *PaymentRequest, cb Callback) (Outcome, error) {
	ref := p.ID
	res, err := r.wallet.Credit(ctx, p.UserID, p.CreditsToAdd, fmt.Sprintf("Crypto top-up (%s)", p.Coin), &ref)
	if err != nil {
		logger.Error("webhook: wallet credit failed",
			"payment_id", p.ID,
			"user_id", p.UserID,
			"credits", p.CreditsToAdd,
			"error", err,
		)
		md := Metadata{
			"error":         err.Error(),
			"failed_at":     time.Now().UTC().Format(time.RFC3339),
			"txid":          cb.TxID,
			"confirmations": cb.Confirmations,
		}
		if _, markErr := r.repo.MarkFailed(ctx, p.ID, md); markErr != nil {
			logger.Error("webhook: mark failed failed", "payment_id", p.ID, "error", markErr)
		}
		return OutcomeCreditFailed, err
	}

	if _, err := r.repo.MarkCompleted(ctx, p.ID, cb.TxID, cb.Confirmations); err != nil {
		// the credit is in; a retry will replay it and finish the transition
		logger.Error("webhook: mark completed failed", "payment_id", p.ID, "error", err)
		return OutcomeError, err
	}

	logger.Info("payment completed",
		"payment_id", p.ID,
		"user_id", p.UserID,
		"credits", p.CreditsToAdd,
		"balance", res.Wallet.Balance,
		"replayed", res.Replayed,
	)

	if r.receipts != nil && !res.Replayed {
		if err := r.receipts.SendTopUpReceipt(ctx, p.UserID, p.ID, p.CreditsToAdd, res.Wallet.Balance); err != nil {
			logger.Warn("top-up receipt not queued", "payment_id", p.ID, "error", err)
		}
	}

	return OutcomeCompleted, nil
}
