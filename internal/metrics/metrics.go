package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "review_insights"

// Outcome labels for analysesTotal.
const (
	OutcomeSuccess = "success"
	OutcomeError   = "error"
)

// Drop reasons for reviewsDroppedTotal.
const (
	DropInvalid    = "invalid"
	DropIntraGroup = "intra_group_duplicate"
	DropCrossGroup = "cross_group_duplicate"
)

var (
	analysesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "analyses_total",
			Help:      "Total analysis runs by outcome.",
		},
		[]string{"outcome"},
	)

	analysisDurationSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "analysis_duration_seconds",
			Help:      "End-to-end analysis run duration in seconds.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 14),
		},
	)

	reviewsAnalyzedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reviews_analyzed_total",
			Help:      "Total reviews that completed the full pipeline.",
		},
	)

	reviewsDroppedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reviews_dropped_total",
			Help:      "Reviews dropped during cleaning by reason.",
		},
		[]string{"reason"},
	)

	classifierFallbacksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "classifier_fallbacks_total",
			Help:      "Times a sentiment strategy failed and the cascade fell through, by strategy.",
		},
		[]string{"strategy"},
	)

	classifierFailuresTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "classifier_failures_total",
			Help:      "Reviews for which every sentiment strategy failed.",
		},
	)
)

// Register registers all collectors with the given registry.
func Register(reg prometheus.Registerer) error {
	collectors := []prometheus.Collector{
		analysesTotal,
		analysisDurationSeconds,
		reviewsAnalyzedTotal,
		reviewsDroppedTotal,
		classifierFallbacksTotal,
		classifierFailuresTotal,
	}
	for _, collector := range collectors {
		if err := reg.Register(collector); err != nil {
			return err
		}
	}
	return nil
}

// ObserveAnalysis records one analysis run.
func ObserveAnalysis(d time.Duration, outcome string) {
	analysesTotal.WithLabelValues(outcome).Inc()
	analysisDurationSeconds.Observe(d.Seconds())
}

// CountAnalyzed adds to the analyzed-reviews counter.
func CountAnalyzed(n int) {
	reviewsAnalyzedTotal.Add(float64(n))
}

// CountDropped adds to the dropped-reviews counter for a reason.
func CountDropped(reason string, n int) {
	if n <= 0 {
		return
	}
	reviewsDroppedTotal.WithLabelValues(reason).Add(float64(n))
}

// CountFallback records a strategy failure inside the cascade.
func CountFallback(strategy string) {
	classifierFallbacksTotal.WithLabelValues(strategy).Inc()
}

// CountClassifierFailure records a review no strategy could classify.
func CountClassifierFailure() {
	classifierFailuresTotal.Inc()
}
