package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "overlaykit_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "overlaykit_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	WalletMutationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "overlaykit_wallet_mutations_total",
			Help: "Wallet credit/debit attempts by outcome",
		},
		[]string{"kind", "outcome"},
	)

	WalletCreditsMoved = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "overlaykit_wallet_credits_moved_total",
			Help: "Credits added to or removed from wallets",
		},
		[]string{"kind"},
	)

	SubscriptionsGrantedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "overlaykit_subscriptions_granted_total",
			Help: "Total number of subscriptions granted",
		},
		[]string{"mode"},
	)

	SubscriptionsExpiredTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "overlaykit_subscriptions_expired_total",
			Help: "Subscriptions moved to expired by the sweeper",
		},
	)

	PurchasesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "overlaykit_purchases_total",
			Help: "Package purchases by outcome",
		},
		[]string{"outcome"},
	)

	CompensationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "overlaykit_purchase_compensations_total",
			Help: "Compensating actions run after a failed purchase step",
		},
		[]string{"step", "outcome"},
	)

	WebhooksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "overlaykit_payment_webhooks_total",
			Help: "Payment processor callbacks by reconciliation outcome",
		},
		[]string{"outcome"},
	)

	PaymentRequestsCreatedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "overlaykit_payment_requests_created_total",
			Help: "Crypto top-up requests created",
		},
		[]string{"coin", "outcome"},
	)

	AdminActionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "overlaykit_admin_actions_total",
			Help: "Admin mutations applied",
		},
		[]string{"action"},
	)

	AuditWriteFailuresTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "overlaykit_admin_audit_write_failures_total",
			Help: "Admin audit entries that could not be written",
		},
	)

	NotificationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "overlaykit_notifications_total",
			Help: "Total number of notifications processed",
		},
		[]string{"type", "status"},
	)

	NotificationQueueLength = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "overlaykit_notification_queue_length",
			Help: "Current length of notification queue",
		},
	)
)

func RecordHTTPRequest(method, path, status string, duration float64) {
	HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	HTTPRequestDuration.WithLabelValues(method, path).Observe(duration)
}

func RecordWalletMutation(kind, outcome string, amount int64) {
	WalletMutationsTotal.WithLabelValues(kind, outcome).Inc()
	if outcome == "applied" && amount > 0 {
		WalletCreditsMoved.WithLabelValues(kind).Add(float64(amount))
	}
}

func RecordSubscriptionGranted(mode string) {
	SubscriptionsGrantedTotal.WithLabelValues(mode).Inc()
}

func RecordSubscriptionsExpired(n int64) {
	if n > 0 {
		SubscriptionsExpiredTotal.Add(float64(n))
	}
}

func RecordPurchase(outcome string) {
	PurchasesTotal.WithLabelValues(outcome).Inc()
}

func RecordCompensation(step, outcome string) {
	CompensationsTotal.WithLabelValues(step, outcome).Inc()
}

func RecordWebhook(outcome string) {
	WebhooksTotal.WithLabelValues(outcome).Inc()
}

func RecordPaymentRequest(coin, outcome string) {
	PaymentRequestsCreatedTotal.WithLabelValues(coin, outcome).Inc()
}

func RecordAdminAction(action string) {
	AdminActionsTotal.WithLabelValues(action).Inc()
}

func RecordAuditWriteFailure() {
	AuditWriteFailuresTotal.Inc()
}

func RecordNotification(notificationType, status string) {
	NotificationsTotal.WithLabelValues(notificationType, status).Inc()
}
