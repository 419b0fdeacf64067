package prometheus

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Collector implements MetricsCollector using Prometheus.
type Collector struct {
	urlsRegistered      *prometheus.CounterVec
	datasetsPublished   *prometheus.CounterVec
	reachabilityQueries *prometheus.CounterVec
	conversions         *prometheus.CounterVec
	conversionDuration  prometheus.Histogram
	conversionSteps     prometheus.Histogram
	viewsInvoked        *prometheus.CounterVec
	registeredURLs      prometheus.Gauge
	workerPoolIdle      prometheus.Gauge
	workerPoolBusy      prometheus.Gauge
	workerPoolStopped   prometheus.Gauge
}

// NewCollector creates a new Prometheus metrics collector.
func NewCollector() *Collector {
	return &Collector{
		urlsRegistered: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "convreg_urls_registered_total",
				Help: "Total number of URL registrations",
			},
			[]string{"status"},
		),
		datasetsPublished: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "convreg_datasets_published_total",
				Help: "Total number of datasets published",
			},
			[]string{"mime_type"},
		),
		reachabilityQueries: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "convreg_reachability_queries_total",
				Help: "Total number of reachability queries",
			},
			[]string{"kind"},
		),
		conversions: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "convreg_conversions_total",
				Help: "Total number of conversion requests",
			},
			[]string{"status"},
		),
		conversionDuration: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "convreg_conversion_duration_seconds",
				Help:    "End-to-end conversion duration in seconds",
				Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10, 30, 60},
			},
		),
		conversionSteps: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "convreg_conversion_chain_steps",
				Help:    "Number of converter applications per conversion",
				Buckets: []float64{0, 1, 2, 3, 5, 8, 13},
			},
		),
		viewsInvoked: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "convreg_views_invoked_total",
				Help: "Total number of viewer invocations",
			},
			[]string{"status"},
		),
		registeredURLs: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "convreg_registered_urls",
				Help: "Number of URLs with at least one registered dataset",
			},
		),
		workerPoolIdle: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "convreg_worker_pool_idle",
				Help: "Number of idle conversion workers",
			},
		),
		workerPoolBusy: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "convreg_worker_pool_busy",
				Help: "Number of busy conversion workers",
			},
		),
		workerPoolStopped: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "convreg_worker_pool_stopped",
				Help: "Number of stopped conversion workers",
			},
		),
	}
}

// RecordURLRegistered records a URL registration outcome.
func (c *Collector) RecordURLRegistered(status string) {
	c.urlsRegistered.WithLabelValues(status).Inc()
}

// RecordDatasetPublished records a dataset publish by mime type.
func (c *Collector) RecordDatasetPublished(mimeType string) {
	c.datasetsPublished.WithLabelValues(mimeType).Inc()
}

// RecordReachabilityQuery records a pure reachability query.
func (c *Collector) RecordReachabilityQuery(kind string) {
	c.reachabilityQueries.WithLabelValues(kind).Inc()
}

// RecordConversion records a conversion outcome and its duration.
func (c *Collector) RecordConversion(status string, duration time.Duration) {
	c.conversions.WithLabelValues(status).Inc()
	c.conversionDuration.Observe(duration.Seconds())
}

// RecordConversionSteps records the length of a completed chain.
func (c *Collector) RecordConversionSteps(steps int) {
	c.conversionSteps.Observe(float64(steps))
}

// RecordViewInvoked records a viewer invocation outcome.
func (c *Collector) RecordViewInvoked(status string) {
	c.viewsInvoked.WithLabelValues(status).Inc()
}

// RecordWorkerPoolStatus records worker pool status.
func (c *Collector) RecordWorkerPoolStatus(idle, busy, stopped int) {
	c.workerPoolIdle.Set(float64(idle))
	c.workerPoolBusy.Set(float64(busy))
	c.workerPoolStopped.Set(float64(stopped))
}

// SetRegisteredURLs sets the registered URL gauge.
func (c *Collector) SetRegisteredURLs(count int) {
	c.registeredURLs.Set(float64(count))
}
