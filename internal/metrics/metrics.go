// Package metrics provides Prometheus metrics for the recommendation service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "recommender"

var (
	// RequestsTotal counts recommendation requests by outcome.
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "requests_total",
			Help:      "Total number of recommendation requests",
		},
		[]string{"status"},
	)

	// ScoringDuration measures scoring engine call latency.
	ScoringDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "scoring_duration_seconds",
			Help:      "Duration of scoring engine calls in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"status"},
	)

	// CandidatesDropped counts candidates omitted for lack of a catalog record.
	CandidatesDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "candidates_dropped_total",
			Help:      "Candidates dropped because no catalog record matched",
		},
	)

	// ExplanationsTotal counts explanations by outcome (generated or fallback).
	ExplanationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "explanations_total",
			Help:      "Total number of explanations produced",
		},
		[]string{"factor", "outcome"},
	)

	// ExplanationDuration measures text model call latency.
	ExplanationDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "explanation_duration_seconds",
			Help:      "Duration of text model calls in seconds",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 15, 30},
		},
	)

	// ScoringCircuitState tracks the scoring breaker (0 = closed, 1 = half-open, 2 = open).
	ScoringCircuitState = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "scoring_circuit_state",
			Help:      "Scoring engine circuit breaker state",
		},
	)
)

// RecordRequest records the outcome of a recommendation request.
func RecordRequest(status string) {
	RequestsTotal.WithLabelValues(status).Inc()
}

// RecordScoring records a scoring engine call.
func RecordScoring(status string, seconds float64) {
	ScoringDuration.WithLabelValues(status).Observe(seconds)
}

// RecordDropped records candidates without catalog records.
func RecordDropped(n int) {
	if n > 0 {
		CandidatesDropped.Add(float64(n))
	}
}

// RecordExplanation records an explanation outcome and model latency.
func RecordExplanation(factor, outcome string, seconds float64) {
	ExplanationsTotal.WithLabelValues(factor, outcome).Inc()
	ExplanationDuration.Observe(seconds)
}

// SetScoringCircuitState publishes the breaker state.
func SetScoringCircuitState(state int) {
	ScoringCircuitState.Set(float64(state))
}
