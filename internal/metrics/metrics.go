// Package metrics provides Prometheus metrics for the classifier service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "newsclassifier"

// Cycle outcomes.
const (
	OutcomeSuccess = "success"
	OutcomeError   = "error"
	OutcomeSkipped = "skipped"
)

var (
	// CycleRuns counts coordinator cycle iterations by outcome.
	CycleRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cycle_runs_total",
			Help:      "Total number of coordinator cycle iterations",
		},
		[]string{"cycle", "outcome"},
	)

	// CycleDuration measures cycle iteration duration.
	CycleDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "cycle_duration_seconds",
			Help:      "Duration of coordinator cycle iterations in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 5, 15, 60, 300, 900},
		},
		[]string{"cycle"},
	)

	// FeedFetches counts per-feed fetch attempts.
	FeedFetches = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "feed_fetches_total",
			Help:      "Total number of feed fetch attempts",
		},
		[]string{"status"},
	)

	// ItemsIngested counts newly stored content items.
	ItemsIngested = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "items_ingested_total",
			Help:      "Total number of content items inserted",
		},
	)

	// PriorityPromotions counts feedback-driven promotions.
	PriorityPromotions = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "priority_promotions_total",
			Help:      "Total number of items promoted to High priority",
		},
	)

	// TrainingSamples observes the labeled corpus size of each training run.
	TrainingSamples = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "training_samples",
			Help:      "Number of labeled samples used by the last training run",
		},
	)

	// ModelLoaded reports whether a fitted model is installed (1) or not (0).
	ModelLoaded = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "model_loaded",
			Help:      "Classifier model status (1 = fitted, 0 = unfitted)",
		},
	)
)

// RecordCycle records one cycle iteration.
func RecordCycle(cycle, outcome string, seconds float64) {
	CycleRuns.WithLabelValues(cycle, outcome).Inc()
	CycleDuration.WithLabelValues(cycle).Observe(seconds)
}

// RecordFeedFetch records a feed fetch and the number of items it stored.
func RecordFeedFetch(status string, inserted int) {
	FeedFetches.WithLabelValues(status).Inc()
	if inserted > 0 {
		ItemsIngested.Add(float64(inserted))
	}
}

// RecordPromotions adds n promotions.
func RecordPromotions(n int) {
	if n > 0 {
		PriorityPromotions.Add(float64(n))
	}
}

// RecordTraining records a successful training run.
func RecordTraining(samples int) {
	TrainingSamples.Set(float64(samples))
	ModelLoaded.Set(1)
}

// SetModelLoaded updates the model status gauge.
func SetModelLoaded(loaded bool) {
	if loaded {
		ModelLoaded.Set(1)
		return
	}
	ModelLoaded.Set(0)
}
