// Package metrics exposes Prometheus instrumentation for mix jobs, the
// transcoding engine and the HTTP service.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics contains all Prometheus metrics for mixdown. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	// Job metrics
	JobsStarted     prometheus.Counter
	JobsCompleted   prometheus.Counter
	JobsFailed      *prometheus.CounterVec
	ActiveJobs      prometheus.Gauge
	CombineDuration prometheus.Histogram
	OutputSize      prometheus.Histogram
	SourceSize      prometheus.Histogram
	CleanupWarnings prometheus.Counter

	// Engine metrics
	EngineLoads        *prometheus.CounterVec
	EngineLoadDuration prometheus.Histogram

	// Probe metrics
	ProbeCacheLookups *prometheus.CounterVec

	// HTTP API metrics
	HTTPRequests        *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
}

// New creates all metrics on a private registry that also carries the Go
// runtime and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,

		JobsStarted: factory.NewCounter(prometheus.CounterOpts{
			Name: "mixdown_jobs_started_total",
			Help: "Total number of mix jobs started",
		}),
		JobsCompleted: factory.NewCounter(prometheus.CounterOpts{
			Name: "mixdown_jobs_completed_total",
			Help: "Total number of mix jobs that produced output",
		}),
		JobsFailed: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "mixdown_jobs_failed_total",
			Help: "Total number of failed mix jobs by error kind",
		}, []string{"kind"}),
		ActiveJobs: factory.NewGauge(prometheus.GaugeOpts{
			Name: "mixdown_active_jobs",
			Help: "Current number of mix jobs in flight",
		}),
		CombineDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "mixdown_combine_duration_seconds",
			Help:    "Wall time of the combine pipeline",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 12), // 50ms to ~100s
		}),
		OutputSize: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "mixdown_output_size_bytes",
			Help:    "Size of combined output in bytes",
			Buckets: prometheus.ExponentialBuckets(16*1024, 2, 12), // 16KB to ~32MB
		}),
		SourceSize: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "mixdown_source_size_bytes",
			Help:    "Size of fetched source audio in bytes",
			Buckets: prometheus.ExponentialBuckets(16*1024, 2, 14), // 16KB to ~128MB
		}),
		CleanupWarnings: factory.NewCounter(prometheus.CounterOpts{
			Name: "mixdown_cleanup_warnings_total",
			Help: "Total number of workspace entries that could not be deleted",
		}),

		EngineLoads: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "mixdown_engine_loads_total",
			Help: "Total number of engine load attempts by result",
		}, []string{"result"}),
		EngineLoadDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "mixdown_engine_load_duration_seconds",
			Help:    "Duration of engine load attempts",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 10), // 10ms to ~5s
		}),

		ProbeCacheLookups: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "mixdown_probe_cache_lookups_total",
			Help: "Duration probe cache lookups by method and result",
		}, []string{"method", "result"}),

		HTTPRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "mixdown_http_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"method", "endpoint", "status_code"}),
		HTTPRequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "mixdown_http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "endpoint"}),
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// RecordJobStarted increments the started counter and the in-flight gauge.
func (m *Metrics) RecordJobStarted() {
	if m == nil {
		return
	}
	m.JobsStarted.Inc()
	m.ActiveJobs.Inc()
}

// RecordSourceFetched records the size of one fetched source.
func (m *Metrics) RecordSourceFetched(sizeBytes int) {
	if m == nil {
		return
	}
	m.SourceSize.Observe(float64(sizeBytes))
}

// RecordJobCompleted records a successful job.
func (m *Metrics) RecordJobCompleted(elapsed time.Duration, outputBytes, warnings int) {
	if m == nil {
		return
	}
	m.ActiveJobs.Dec()
	m.JobsCompleted.Inc()
	m.CombineDuration.Observe(elapsed.Seconds())
	m.OutputSize.Observe(float64(outputBytes))
	m.CleanupWarnings.Add(float64(warnings))
}

// RecordJobFailed records a failed job under its error kind.
func (m *Metrics) RecordJobFailed(kind string, elapsed time.Duration, warnings int) {
	if m == nil {
		return
	}
	m.ActiveJobs.Dec()
	m.JobsFailed.WithLabelValues(kind).Inc()
	m.CombineDuration.Observe(elapsed.Seconds())
	m.CleanupWarnings.Add(float64(warnings))
}

// RecordEngineLoad records an engine load attempt.
func (m *Metrics) RecordEngineLoad(elapsed time.Duration, err error) {
	if m == nil {
		return
	}
	result := "success"
	if err != nil {
		result = "failure"
	}
	m.EngineLoads.WithLabelValues(result).Inc()
	m.EngineLoadDuration.Observe(elapsed.Seconds())
}

// RecordProbeCache records a probe cache lookup.
func (m *Metrics) RecordProbeCache(method string, hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.ProbeCacheLookups.WithLabelValues(method, result).Inc()
}

// RecordHTTPRequest records an HTTP request.
func (m *Metrics) RecordHTTPRequest(method, endpoint string, statusCode int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequests.WithLabelValues(method, endpoint, strconv.Itoa(statusCode)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, endpoint).Observe(elapsed.Seconds())
}
