package payment_test

import (
	"context"
	"errors"
	"testing"

	"overlaykit/internal/payment"
	"overlaykit/internal/test/ledgertest"
	"overlaykit/internal/wallet"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const secret = "s3cret"

type reconcileFixture struct {
	wallets    *ledgertest.Wallets
	payments   *ledgertest.Payments
	receipts   *topUpReceipts
	reconciler *payment.Reconciler
}

type topUpReceipts struct {
	sent []uuid.UUID
}

func (r *topUpReceipts) SendTopUpReceipt(ctx context.Context, userID int, paymentID uuid.UUID, credits, balance int64) error {
	r.sent = append(r.sent, paymentID)
	return nil
}

func newReconcileFixture() *reconcileFixture {
	f := &reconcileFixture{
		wallets:  ledgertest.NewWallets(),
		payments: ledgertest.NewPayments(),
		receipts: &topUpReceipts{},
	}
	f.reconciler = payment.NewReconciler(f.payments, wallet.NewService(f.wallets), f.receipts, secret)
	return f
}

func final(id uuid.UUID) payment.Callback {
	return payment.Callback{PaymentID: id.String(), Secret: secret, TxID: "tx-1", Confirmations: 3}
}

func pending(id uuid.UUID) payment.Callback {
	return payment.Callback{PaymentID: id.String(), Secret: secret, TxID: "tx-1", Confirmations: 0, Pending: true}
}

func TestReconcile_ReplayCreditsOnce(t *testing.T) {
	f := newReconcileFixture()
	f.wallets.Seed(7, 50)
	p := f.payments.Seed(7, "btc", 1000)

	for i := 0; i < 2; i++ {
		_, err := f.reconciler.HandleCallback(context.Background(), final(p.ID))
		require.NoError(t, err)
	}

	assert.Equal(t, int64(1050), f.wallets.Balance(7))
	assert.Equal(t, 1, f.wallets.CountByReference(p.ID))
	assert.Equal(t, payment.StatusCompleted, f.payments.Get(p.ID).Status)
	assert.Len(t, f.receipts.sent, 1)
}

func TestReconcile_ManyReplays(t *testing.T) {
	f := newReconcileFixture()
	p := f.payments.Seed(7, "ltc", 250)

	outcomes := map[payment.Outcome]int{}
	for i := 0; i < 20; i++ {
		o, err := f.reconciler.HandleCallback(context.Background(), final(p.ID))
		require.NoError(t, err)
		outcomes[o]++
	}

	assert.Equal(t, 1, outcomes[payment.OutcomeCompleted])
	assert.Equal(t, 19, outcomes[payment.OutcomeAlreadyCompleted])
	assert.Equal(t, int64(250), f.wallets.Balance(7))
}

func TestReconcile_PendingThenFinal(t *testing.T) {
	f := newReconcileFixture()
	p := f.payments.Seed(7, "btc", 100)

	o, err := f.reconciler.HandleCallback(context.Background(), pending(p.ID))
	require.NoError(t, err)
	assert.Equal(t, payment.OutcomeConfirming, o)

	got := f.payments.Get(p.ID)
	assert.Equal(t, payment.StatusConfirming, got.Status)
	require.NotNil(t, got.TxID)
	assert.Equal(t, "tx-1", *got.TxID)
	assert.Equal(t, int64(0), f.wallets.Balance(7))

	o, err = f.reconciler.HandleCallback(context.Background(), final(p.ID))
	require.NoError(t, err)
	assert.Equal(t, payment.OutcomeCompleted, o)
	assert.Equal(t, 3, f.payments.Get(p.ID).Confirmations)
	assert.Equal(t, int64(100), f.wallets.Balance(7))
}

func TestReconcile_LatePendingDoesNotRevert(t *testing.T) {
	f := newReconcileFixture()
	p := f.payments.Seed(7, "btc", 100)

	_, err := f.reconciler.HandleCallback(context.Background(), final(p.ID))
	require.NoError(t, err)

	o, err := f.reconciler.HandleCallback(context.Background(), pending(p.ID))
	require.NoError(t, err)
	assert.Equal(t, payment.OutcomeAlreadyCompleted, o)
	assert.Equal(t, payment.StatusCompleted, f.payments.Get(p.ID).Status)
	assert.Equal(t, int64(100), f.wallets.Balance(7))
}

func TestReconcile_BadSecret(t *testing.T) {
	f := newReconcileFixture()
	p := f.payments.Seed(7, "btc", 100)

	for _, s := range []string{"", "wrong", secret + "x"} {
		cb := final(p.ID)
		cb.Secret = s
		o, err := f.reconciler.HandleCallback(context.Background(), cb)
		assert.ErrorIs(t, err, payment.ErrReconciliationSkipped)
		assert.Equal(t, payment.OutcomeRejected, o)
	}

	assert.Equal(t, payment.StatusPending, f.payments.Get(p.ID).Status)
	assert.Equal(t, int64(0), f.wallets.Balance(7))
}

func TestReconcile_UnknownOrMalformedID(t *testing.T) {
	f := newReconcileFixture()

	o, err := f.reconciler.HandleCallback(context.Background(), final(uuid.New()))
	assert.ErrorIs(t, err, payment.ErrReconciliationSkipped)
	assert.Equal(t, payment.OutcomeUnknownPayment, o)

	cb := final(uuid.New())
	cb.PaymentID = "not-a-uuid"
	_, err = f.reconciler.HandleCallback(context.Background(), cb)
	assert.ErrorIs(t, err, payment.ErrReconciliationSkipped)
}

func TestReconcile_CreditFailureMarksFailed(t *testing.T) {
	f := newReconcileFixture()
	p := f.payments.Seed(7, "btc", 100)
	f.wallets.FailApply = func(m wallet.Mutation) error { return errors.New("db down") }

	o, err := f.reconciler.HandleCallback(context.Background(), final(p.ID))
	assert.Error(t, err)
	assert.Equal(t, payment.OutcomeCreditFailed, o)

	got := f.payments.Get(p.ID)
	assert.Equal(t, payment.StatusFailed, got.Status)
	assert.Equal(t, "db down", got.Metadata["error"])
	assert.Equal(t, int64(0), f.wallets.Balance(7))

	// a stale pending notice leaves the failure visible
	o, err = f.reconciler.HandleCallback(context.Background(), pending(p.ID))
	require.NoError(t, err)
	assert.Equal(t, payment.OutcomeIgnored, o)
	assert.Equal(t, payment.StatusFailed, f.payments.Get(p.ID).Status)

	// a redelivered final confirmation retries the idempotent credit
	f.wallets.FailApply = nil
	o, err = f.reconciler.HandleCallback(context.Background(), final(p.ID))
	require.NoError(t, err)
	assert.Equal(t, payment.OutcomeCompleted, o)
	assert.Equal(t, int64(100), f.wallets.Balance(7))
}
