// Package metrics exposes Prometheus collectors for donation flows.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// DonationMetrics counts donation attempts and their outcomes. A nil
// *DonationMetrics is valid and records nothing.
type DonationMetrics struct {
	requests *prometheus.CounterVec
	outcomes *prometheus.CounterVec
	submit   *prometheus.HistogramVec
	inflight prometheus.Gauge
}

// NewDonationMetrics registers the collectors on reg, or on the default
// registerer when reg is nil.
func NewDonationMetrics(reg prometheus.Registerer) *DonationMetrics {
	m := &DonationMetrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "intentd",
			Subsystem: "donation",
			Name:      "requests_total",
			Help:      "Donation requests by entry point",
		}, []string{"source"}),
		outcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "intentd",
			Subsystem: "donation",
			Name:      "outcomes_total",
			Help:      "Finished donation attempts by outcome",
		}, []string{"outcome"}),
		submit: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "intentd",
			Subsystem: "donation",
			Name:      "submit_duration_seconds",
			Help:      "Latency of suggestion index submissions",
			Buckets:   prometheus.DefBuckets,
		}, []string{"status"}),
		inflight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "intentd",
			Subsystem: "donation",
			Name:      "inflight",
			Help:      "Donation tasks currently running",
		}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.requests, m.outcomes, m.submit, m.inflight)
	return m
}

func (m *DonationMetrics) ObserveRequest(source string) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(source).Inc()
}

func (m *DonationMetrics) ObserveOutcome(outcome string) {
	if m == nil {
		return
	}
	m.outcomes.WithLabelValues(outcome).Inc()
}

func (m *DonationMetrics) ObserveSubmit(d time.Duration, err error) {
	if m == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.submit.WithLabelValues(status).Observe(d.Seconds())
}

// TrackInflight increments the in-flight gauge and returns a func that
// decrements it.
func (m *DonationMetrics) TrackInflight() func() {
	if m == nil {
		return func() {}
	}
	m.inflight.Inc()
	return m.inflight.Dec
}
