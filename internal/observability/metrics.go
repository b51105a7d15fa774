package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics aggregates the ledger's Prometheus instruments.
type Metrics struct {
	Operations       *prometheus.CounterVec
	GatewayCalls     *prometheus.CounterVec
	WebhookEvents    *prometheus.CounterVec
	OperationSeconds *prometheus.HistogramVec
}

// NewMetrics creates and registers the instruments on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "wallet_operations_total",
			Help: "Wallet ledger operations by transaction type and final status",
		}, []string{"type", "status"}),
		GatewayCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "wallet_gateway_calls_total",
			Help: "Payment gateway calls by operation and outcome",
		}, []string{"op", "outcome"}),
		WebhookEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "wallet_webhook_events_total",
			Help: "Gateway webhook events by reconciliation result",
		}, []string{"result"}),
		OperationSeconds: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "wallet_operation_duration_seconds",
			Help:    "Duration of wallet ledger operations in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"type"}),
	}
	reg.MustRegister(m.Operations, m.GatewayCalls, m.WebhookEvents, m.OperationSeconds)
	return m
}

// Handler exposes the default Prometheus registry over HTTP.
func Handler() http.Handler {
	return promhttp.Handler()
}
