// Package metrics exposes Prometheus instrumentation for the moderation
// pipeline. Collectors are registered on the default registry and served by
// the HTTP server's /metrics endpoint.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// DecisionsTotal counts computed (non-cached) moderation decisions by level.
	DecisionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "moderation_decisions_total",
		Help: "Total number of computed moderation decisions by level.",
	}, []string{"level"})

	// RejectionsTotal counts decisions that rejected the text.
	RejectionsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "moderation_rejections_total",
		Help: "Total number of rejected texts.",
	})

	// CacheEventsTotal counts result cache lookups by outcome.
	CacheEventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "moderation_cache_events_total",
		Help: "Total number of result cache lookups by outcome (hit or miss).",
	}, []string{"outcome"})

	// ClassifierFailuresTotal counts classifier calls that failed and were
	// handled by continuing without the classifier signal.
	ClassifierFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "moderation_classifier_failures_total",
		Help: "Total number of failed classifier calls the pipeline degraded around.",
	})

	// DecisionDuration observes end-to-end analysis latency in seconds for
	// computed (non-cached) decisions.
	DecisionDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "moderation_decision_duration_seconds",
		Help:    "End-to-end analysis latency for computed decisions.",
		Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
	})

	// EscalationsTotal counts decisions handed to the background review flow.
	EscalationsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "moderation_escalations_total",
		Help: "Total number of decisions submitted for background review.",
	})

	// EscalationDropsTotal counts escalation submissions dropped on queue overflow.
	EscalationDropsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "moderation_escalation_drops_total",
		Help: "Total number of escalation submissions dropped because the queue was full.",
	})
)
