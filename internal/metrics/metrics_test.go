package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordHTTPRequest(t *testing.T) {
	HTTPRequestsTotal.Reset()
	HTTPRequestDuration.Reset()

	RecordHTTPRequest("GET", "/wallet", "200", 0.5)

	count := testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues("GET", "/wallet", "200"))
	assert.Equal(t, float64(1), count)
	assert.Equal(t, 1, testutil.CollectAndCount(HTTPRequestDuration))
}

func TestRecordHTTPRequestMultiple(t *testing.T) {
	HTTPRequestsTotal.Reset()

	RecordHTTPRequest("POST", "/purchase", "200", 0.1)
	RecordHTTPRequest("POST", "/purchase", "200", 0.2)
	RecordHTTPRequest("POST", "/purchase", "400", 0.05)

	assert.Equal(t, float64(2), testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues("POST", "/purchase", "200")))
	assert.Equal(t, float64(1), testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues("POST", "/purchase", "400")))
}

func TestRecordWalletMutation(t *testing.T) {
	WalletMutationsTotal.Reset()
	WalletCreditsMoved.Reset()

	RecordWalletMutation("credit", "applied", 1000)
	RecordWalletMutation("credit", "replayed", 1000)
	RecordWalletMutation("debit", "insufficient_funds", 300)

	assert.Equal(t, float64(1), testutil.ToFloat64(WalletMutationsTotal.WithLabelValues("credit", "applied")))
	assert.Equal(t, float64(1), testutil.ToFloat64(WalletMutationsTotal.WithLabelValues("credit", "replayed")))
	assert.Equal(t, float64(1), testutil.ToFloat64(WalletMutationsTotal.WithLabelValues("debit", "insufficient_funds")))
	// only applied mutations move credits
	assert.Equal(t, float64(1000), testutil.ToFloat64(WalletCreditsMoved.WithLabelValues("credit")))
	assert.Equal(t, float64(0), testutil.ToFloat64(WalletCreditsMoved.WithLabelValues("debit")))
}

func TestRecordPurchaseAndCompensation(t *testing.T) {
	PurchasesTotal.Reset()
	CompensationsTotal.Reset()

	RecordPurchase("success")
	RecordPurchase("insufficient_funds")
	RecordCompensation("grant_subscription", "ok")

	assert.Equal(t, float64(1), testutil.ToFloat64(PurchasesTotal.WithLabelValues("success")))
	assert.Equal(t, float64(1), testutil.ToFloat64(PurchasesTotal.WithLabelValues("insufficient_funds")))
	assert.Equal(t, float64(1), testutil.ToFloat64(CompensationsTotal.WithLabelValues("grant_subscription", "ok")))
}

func TestRecordWebhook(t *testing.T) {
	WebhooksTotal.Reset()

	RecordWebhook("completed")
	RecordWebhook("skipped")
	RecordWebhook("skipped")

	assert.Equal(t, float64(1), testutil.ToFloat64(WebhooksTotal.WithLabelValues("completed")))
	assert.Equal(t, float64(2), testutil.ToFloat64(WebhooksTotal.WithLabelValues("skipped")))
}

func TestRecordSubscriptionsExpired(t *testing.T) {
	before := testutil.ToFloat64(SubscriptionsExpiredTotal)

	RecordSubscriptionsExpired(3)
	RecordSubscriptionsExpired(0)

	assert.Equal(t, before+3, testutil.ToFloat64(SubscriptionsExpiredTotal))
}

func TestRecordAuditWriteFailure(t *testing.T) {
	before := testutil.ToFloat64(AuditWriteFailuresTotal)
	RecordAuditWriteFailure()
	assert.Equal(t, before+1, testutil.ToFloat64(AuditWriteFailuresTotal))
}

func TestRecordNotification(t *testing.T) {
	NotificationsTotal.Reset()

	RecordNotification("topup_completed", "sent")
	RecordNotification("topup_completed", "failed")

	assert.Equal(t, float64(1), testutil.ToFloat64(NotificationsTotal.WithLabelValues("topup_completed", "sent")))
	assert.Equal(t, float64(1), testutil.ToFloat64(NotificationsTotal.WithLabelValues("topup_completed", "failed")))
}
