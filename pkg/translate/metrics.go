package translate

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Provider attempt metrics
	providerRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tripglot_provider_requests_total",
			Help: "Total number of translation attempts per provider",
		},
		[]string{"provider", "status"},
	)

	providerRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tripglot_provider_request_duration_seconds",
			Help:    "Duration of provider translation attempts in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1.0, 2.0, 5.0, 15.0},
		},
		[]string{"provider", "status"},
	)

	providerAvailable = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "tripglot_provider_available",
			Help: "Whether a registered provider is currently available (1) or not (0)",
		},
		[]string{"provider"},
	)

	// Dispatch metrics
	translationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tripglot_translations_total",
			Help: "Total number of dispatched translations by outcome",
		},
		[]string{"outcome"},
	)

	translationRequestSize = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "tripglot_translation_request_size_chars",
			Help:    "Length of dispatched text in characters",
			Buckets: []float64{50, 100, 250, 500, 1000, 2500, 5000, 10000},
		},
	)

	translationChunks = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "tripglot_translation_chunks",
			Help:    "Number of chunks produced for oversized texts",
			Buckets: []float64{2, 3, 5, 10, 20, 50},
		},
	)

	chunkFailuresTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tripglot_chunk_failures_total",
			Help: "Total number of chunks replaced by a failure marker",
		},
	)

	lastResortTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tripglot_last_resort_total",
			Help: "Total number of last-resort invocations by result",
		},
		[]string{"result"},
	)
)

// Outcome labels for tripglot_translations_total.
const (
	OutcomeTranslated  = "translated"
	OutcomePlaceholder = "placeholder"
	OutcomeCached      = "cached"
	OutcomeSkipped     = "skipped"
)

// RecordProviderAttempt records one provider call.
func RecordProviderAttempt(provider string, duration time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	providerRequestsTotal.WithLabelValues(provider, status).Inc()
	providerRequestDuration.WithLabelValues(provider, status).Observe(duration.Seconds())
}

// RecordOutcome records the outcome of a whole dispatch.
func RecordOutcome(outcome string) {
	translationsTotal.WithLabelValues(outcome).Inc()
}

// MetricsCollector publishes provider availability for a registry.
type MetricsCollector struct {
	registry *Registry
	mu       sync.Mutex
}

// NewMetricsCollector creates a new metrics collector for a registry.
func NewMetricsCollector(registry *Registry) *MetricsCollector {
	return &MetricsCollector{registry: registry}
}

// UpdateMetrics refreshes the availability gauge of every provider.
func (mc *MetricsCollector) UpdateMetrics() {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	for _, st := range mc.registry.Statuses() {
		v := 0.0
		if st.Available {
			v = 1
		}
		providerAvailable.WithLabelValues(st.Name).Set(v)
	}
}
