package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "warning_service"

// Metrics holds the Prometheus counters, histograms, and gauges for the warning poller.
type Metrics struct {
	PollsTotal      *prometheus.CounterVec // labels: outcome={success,error}
	PollDuration    prometheus.Histogram
	PipelineRunning prometheus.Gauge

	// Warning counts from the most recent cycle.
	WarningsCollected *prometheus.GaugeVec // labels: feed={nina,dwd_current,dwd_advance}
	WarningsDisplayed prometheus.Gauge

	// Publishing metrics.
	BoardsPublished prometheus.Counter
	PublishErrors   prometheus.Counter

	// Home Assistant API metrics.
	HomeAssistantDuration *prometheus.HistogramVec // labels: endpoint={states,template,ai_task}

	// Translation metrics.
	TranslationRequests *prometheus.CounterVec // labels: outcome={success,error,skipped}
	TranslationCache    *prometheus.CounterVec // labels: result={hit,miss}
	TranslationDuration prometheus.Histogram
	TranslationEnabled  prometheus.Gauge
}

// NewMetrics creates and registers all service metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.PollsTotal,
		m.PollDuration,
		m.PipelineRunning,
		m.WarningsCollected,
		m.WarningsDisplayed,
		m.BoardsPublished,
		m.PublishErrors,
		m.HomeAssistantDuration,
		m.TranslationRequests,
		m.TranslationCache,
		m.TranslationDuration,
		m.TranslationEnabled,
	)
	return m
}

// NewUnregisteredMetrics creates Metrics that are never exported, for
// one-shot tools that reuse the service adapters.
func NewUnregisteredMetrics() *Metrics {
	return newMetrics()
}

// NewMetricsForTesting creates unregistered Metrics to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		PollsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "polls_total",
			Help:      "Home Assistant poll cycles by outcome.",
		}, []string{"outcome"}),
		PollDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "poll_duration_seconds",
			Help:      "Duration of a complete collect-reconcile-publish cycle.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30},
		}),
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pipeline_running",
			Help:      "1 when the poller is active, 0 when shut down.",
		}),
		WarningsCollected: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "warnings_collected",
			Help:      "Warnings read from each feed in the last cycle.",
		}, []string{"feed"}),
		WarningsDisplayed: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "warnings_displayed",
			Help:      "Warnings on the board after reconciliation in the last cycle.",
		}),
		BoardsPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "boards_published_total",
			Help:      "Total boards written to the publish backend.",
		}),
		PublishErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "publish_errors_total",
			Help:      "Total failed board publishes.",
		}),
		HomeAssistantDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "home_assistant_request_duration_seconds",
			Help:      "Home Assistant API request duration in seconds.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 15, 30},
		}, []string{"endpoint"}),
		TranslationRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "translation_requests_total",
			Help:      "AI translation requests by outcome.",
		}, []string{"outcome"}),
		TranslationCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "translation_cache_total",
			Help:      "Translation cache lookups by result.",
		}, []string{"result"}),
		TranslationDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "translation_duration_seconds",
			Help:      "AI translation request duration in seconds.",
			Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60},
		}),
		TranslationEnabled: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "translation_enabled",
			Help:      "1 when AI translation is enabled, 0 otherwise.",
		}),
	}
}
