// Package metrics exposes Prometheus collectors for the suggestion pipeline.
// A nil *Metrics is valid and records nothing.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"Mood-Music-Go/pkg/music"
)

// Attempt outcomes.
const (
	AttemptAccepted  = "accepted"
	AttemptDuplicate = "duplicate"
	AttemptFailed    = "generation_failed"
)

// Metrics groups the collectors registered by New.
type Metrics struct {
	attempts    *prometheus.CounterVec
	requests    *prometheus.CounterVec
	resolutions *prometheus.CounterVec
	duration    *prometheus.HistogramVec
}

var _ music.ResolutionObserver = (*Metrics)(nil)

// New creates the collectors and registers them with reg. A nil reg leaves
// them unregistered, which tests use to avoid global state.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		attempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "moodmusic",
			Name:      "suggestion_attempts_total",
			Help:      "Suggestion attempts by outcome.",
		}, []string{"outcome"}),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "moodmusic",
			Name:      "suggestion_requests_total",
			Help:      "Suggestion requests by kind and result.",
		}, []string{"kind", "result"}),
		resolutions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "moodmusic",
			Name:      "catalog_resolutions_total",
			Help:      "Catalog lookups by provider and result.",
		}, []string{"provider", "result"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "moodmusic",
			Name:      "suggestion_request_duration_seconds",
			Help:      "Time to produce a suggestion.",
			Buckets:   []float64{0.25, 0.5, 1, 2, 4, 8, 16, 32},
		}, []string{"kind"}),
	}
	if reg != nil {
		reg.MustRegister(m.attempts, m.requests, m.resolutions, m.duration)
	}
	return m
}

// Attempt records one generate/resolve/dedupe cycle.
func (m *Metrics) Attempt(outcome string) {
	if m == nil {
		return
	}
	m.attempts.WithLabelValues(outcome).Inc()
}

// Request records a finished daily or bonus request. result is "ok" or a
// short error class.
func (m *Metrics) Request(kind, result string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(kind, result).Inc()
	m.duration.WithLabelValues(kind).Observe(elapsed.Seconds())
}

// ObserveResolution implements music.ResolutionObserver. Failures are
// labelled with their failure kind.
func (m *Metrics) ObserveResolution(provider string, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = string(music.KindOf(err))
	}
	m.resolutions.WithLabelValues(provider, result).Inc()
}
