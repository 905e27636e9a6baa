package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// ClassifierMetrics observes the classification pipeline. Service is
// bound at construction; the recorder registers on the caller's
// registry so every process exposes its series on its own /metrics.
type ClassifierMetrics struct {
	service string

	classificationsTotal   *prometheus.CounterVec
	cascadeFallbacksTotal  *prometheus.CounterVec
	confidenceDistribution *prometheus.HistogramVec
	classifyDuration       *prometheus.HistogramVec
	retrievalHitTotal      *prometheus.CounterVec
	noContextTotal         *prometheus.CounterVec
	validatorDegradedTotal *prometheus.CounterVec
}

func NewClassifierMetrics(service string, registerer prometheus.Registerer) *ClassifierMetrics {
	classificationsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ldc",
			Subsystem: "classifier",
			Name:      "classifications_total",
			Help:      "Total completed classifications by final tier and review flag.",
		},
		[]string{"service", "tier", "needs_review"},
	)
	cascadeFallbacksTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ldc",
			Subsystem: "classifier",
			Name:      "cascade_fallbacks_total",
			Help:      "Total tier failures that advanced the cascade.",
		},
		[]string{"service", "tier", "error_kind"},
	)
	confidenceDistribution := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "ldc",
			Subsystem: "classifier",
			Name:      "confidence",
			Help:      "Distribution of final confidence scores.",
			Buckets:   []float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 1},
		},
		[]string{"service", "tier"},
	)
	classifyDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "ldc",
			Subsystem: "classifier",
			Name:      "duration_seconds",
			Help:      "End-to-end classification duration in seconds.",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 20, 45, 60, 120},
		},
		[]string{"service", "tier"},
	)
	retrievalHitTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ldc",
			Subsystem: "retrieval",
			Name:      "hit_total",
			Help:      "Total requests with at least one retrieval hit.",
		},
		[]string{"service"},
	)
	noContextTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ldc",
			Subsystem: "retrieval",
			Name:      "no_context_total",
			Help:      "Total requests classified without retrieval context.",
		},
		[]string{"service"},
	)
	validatorDegradedTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ldc",
			Subsystem: "validator",
			Name:      "degraded_total",
			Help:      "Total requests where the entailment validator was unavailable.",
		},
		[]string{"service"},
	)

	registerer.MustRegister(
		classificationsTotal,
		cascadeFallbacksTotal,
		confidenceDistribution,
		classifyDuration,
		retrievalHitTotal,
		noContextTotal,
		validatorDegradedTotal,
	)

	return &ClassifierMetrics{
		service:                service,
		classificationsTotal:   classificationsTotal,
		cascadeFallbacksTotal:  cascadeFallbacksTotal,
		confidenceDistribution: confidenceDistribution,
		classifyDuration:       classifyDuration,
		retrievalHitTotal:      retrievalHitTotal,
		noContextTotal:         noContextTotal,
		validatorDegradedTotal: validatorDegradedTotal,
	}
}

func (m *ClassifierMetrics) RecordClassification(tier string, needsReview bool, confidence float64, duration time.Duration) {
	m.classificationsTotal.WithLabelValues(m.service, tier, strconv.FormatBool(needsReview)).Inc()
	m.confidenceDistribution.WithLabelValues(m.service, tier).Observe(confidence)
	m.classifyDuration.WithLabelValues(m.service, tier).Observe(duration.Seconds())
}

func (m *ClassifierMetrics) RecordCascadeFallback(tier, errorKind string) {
	if errorKind == "" {
		errorKind = "unknown"
	}
	m.cascadeFallbacksTotal.WithLabelValues(m.service, tier, errorKind).Inc()
}

func (m *ClassifierMetrics) RecordRetrievalOutcome(contextEmpty bool) {
	if contextEmpty {
		m.noContextTotal.WithLabelValues(m.service).Inc()
		return
	}
	m.retrievalHitTotal.WithLabelValues(m.service).Inc()
}

func (m *ClassifierMetrics) RecordValidatorDegraded() {
	m.validatorDegradedTotal.WithLabelValues(m.service).Inc()
}
