package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "restaurant"

// Checkout outcomes used as the outcome label.
const (
	OutcomeCompleted        = "completed"
	OutcomeReplayed         = "replayed"
	OutcomeDeclined         = "declined"
	OutcomeProviderError    = "provider_error"
	OutcomeRejected         = "rejected"
	OutcomeAlreadyInFlight  = "already_in_flight"
	OutcomeFinalizeDeferred = "finalize_deferred"
)

// CheckoutMetrics tracks checkout attempts and the money they captured.
type CheckoutMetrics struct {
	requests *prometheus.CounterVec
	duration prometheus.Histogram
	charged  *prometheus.CounterVec
}

func NewCheckoutMetrics(reg prometheus.Registerer) *CheckoutMetrics {
	if reg == nil {
		return &CheckoutMetrics{}
	}
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "checkout_requests_total",
		Help:      "Checkout executions by outcome.",
	}, []string{"outcome"})
	duration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "checkout_duration_seconds",
		Help:      "Wall time of checkout executions.",
		Buckets:   []float64{.05, .1, .25, .5, 1, 2, 5, 10, 20, 30},
	})
	charged := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "checkout_charged_cents_total",
		Help:      "Cents captured by the payment provider.",
	}, []string{"provider"})
	reg.MustRegister(requests, duration, charged)
	return &CheckoutMetrics{requests: requests, duration: duration, charged: charged}
}

func (m *CheckoutMetrics) Observe(outcome string, elapsed time.Duration) {
	if m == nil || m.requests == nil {
		return
	}
	m.requests.WithLabelValues(normalizeLabel(outcome)).Inc()
	m.duration.Observe(elapsed.Seconds())
}

func (m *CheckoutMetrics) AddCharged(provider string, cents int64) {
	if m == nil || m.charged == nil || cents <= 0 {
		return
	}
	m.charged.WithLabelValues(normalizeLabel(provider)).Add(float64(cents))
}
