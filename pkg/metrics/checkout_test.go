package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func TestCheckoutMetricsRecordsOutcomesAndCharges(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewCheckoutMetrics(reg)

	m.Observe(OutcomeCompleted, 120*time.Millisecond)
	m.Observe(OutcomeCompleted, 80*time.Millisecond)
	m.Observe(OutcomeDeclined, 10*time.Millisecond)
	m.AddCharged("square", 360)
	m.AddCharged("square", 0)

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}

	if got, err := fetchCounterValue(mfs, "restaurant_checkout_requests_total", "outcome", OutcomeCompleted); err != nil || got != 2 {
		t.Fatalf("expected completed=2, got %f (%v)", got, err)
	}
	if got, err := fetchCounterValue(mfs, "restaurant_checkout_requests_total", "outcome", OutcomeDeclined); err != nil || got != 1 {
		t.Fatalf("expected declined=1, got %f (%v)", got, err)
	}
	if got, err := fetchCounterValue(mfs, "restaurant_checkout_charged_cents_total", "provider", "square"); err != nil || got != 360 {
		t.Fatalf("expected charged=360, got %f (%v)", got, err)
	}

	mf := findMetricFamily(mfs, "restaurant_checkout_duration_seconds")
	if mf == nil || mf.GetMetric()[0].GetHistogram().GetSampleCount() != 3 {
		t.Fatalf("expected 3 duration samples")
	}
}

func TestNilCheckoutMetricsIsNoop(t *testing.T) {
	var m *CheckoutMetrics
	m.Observe(OutcomeCompleted, time.Second)
	m.AddCharged("stripe", 100)

	empty := NewCheckoutMetrics(nil)
	empty.Observe(OutcomeCompleted, time.Second)
}
