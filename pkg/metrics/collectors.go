package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// SuggestionsGenerated counts candidate pairs written per strategy.
	SuggestionsGenerated = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "atrium",
		Subsystem: "dedupe",
		Name:      "suggestions_generated_total",
		Help:      "Merge suggestion pairs inserted, by strategy.",
	}, []string{"strategy"})

	SuggestionChunkFailures = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "atrium",
		Subsystem: "dedupe",
		Name:      "suggestion_chunk_failures_total",
		Help:      "Suggestion insert chunks that failed and were skipped.",
	})

	MergesExecuted = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "atrium",
		Subsystem: "dedupe",
		Name:      "merges_total",
		Help:      "Merge executions, by entity and outcome.",
	}, []string{"entity", "outcome"})

	ResolveDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "atrium",
		Subsystem: "affiliation",
		Name:      "resolve_duration_seconds",
		Help:      "Latency of affiliation resolution on the activity write path.",
		Buckets:   prometheus.DefBuckets,
	})

	RecomputedActivities = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "atrium",
		Subsystem: "affiliation",
		Name:      "recomputed_activities_total",
		Help:      "Activities whose attribution was rewritten by a recompute pass.",
	})
)
