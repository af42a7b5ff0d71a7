package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// PaymentMetrics records order, verification, and webhook outcomes.
type PaymentMetrics struct {
	ordersCreated   *prometheus.CounterVec
	verifications   *prometheus.CounterVec
	webhookEvents   *prometheus.CounterVec
	webhookFailures *prometheus.CounterVec
}

// NewPaymentMetrics registers payment metrics on the provided registerer.
func NewPaymentMetrics(reg prometheus.Registerer) *PaymentMetrics {
	if reg == nil {
		return &PaymentMetrics{}
	}
	ordersCreated := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "payment_orders_created",
		Help: "Gateway orders created, labeled by plan.",
	}, []string{"plan"})
	verifications := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "payment_verifications",
		Help: "Client payment verification attempts by result.",
	}, []string{"result"})
	webhookEvents := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "payment_webhook_events",
		Help: "Webhook events received, labeled by event type.",
	}, []string{"event"})
	webhookFailures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "payment_webhook_failures",
		Help: "Webhook requests rejected, labeled by reason.",
	}, []string{"reason"})
	reg.MustRegister(ordersCreated, verifications, webhookEvents, webhookFailures)
	return &PaymentMetrics{
		ordersCreated:   ordersCreated,
		verifications:   verifications,
		webhookEvents:   webhookEvents,
		webhookFailures: webhookFailures,
	}
}

// IncOrderCreated increments the created-order counter for the plan.
func (p *PaymentMetrics) IncOrderCreated(plan string) {
	if p == nil || p.ordersCreated == nil {
		return
	}
	p.ordersCreated.WithLabelValues(normalizeLabel(plan)).Inc()
}

// IncVerification records a verification attempt outcome.
func (p *PaymentMetrics) IncVerification(result string) {
	if p == nil || p.verifications == nil {
		return
	}
	p.verifications.WithLabelValues(normalizeLabel(result)).Inc()
}

// IncWebhookEvent records a received webhook event type.
func (p *PaymentMetrics) IncWebhookEvent(event string) {
	if p == nil || p.webhookEvents == nil {
		return
	}
	p.webhookEvents.WithLabelValues(normalizeLabel(event)).Inc()
}

// IncWebhookFailure records a rejected webhook request.
func (p *PaymentMetrics) IncWebhookFailure(reason string) {
	if p == nil || p.webhookFailures == nil {
		return
	}
	p.webhookFailures.WithLabelValues(normalizeLabel(reason)).Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
