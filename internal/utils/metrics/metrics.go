package metrics

import (
	"context"
	"net/url"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/promptreel/server/pkg/resilient"
)

// Metrics holds all application metrics.
type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge

	// Outbound provider metrics
	ProviderAttemptsTotal   *prometheus.CounterVec
	ProviderAttemptDuration *prometheus.HistogramVec
	ProviderBackoffSeconds  *prometheus.CounterVec
	ProviderHealth          *prometheus.GaugeVec

	// Video job metrics
	VideoPollsTotal   *prometheus.CounterVec
	VideoJobsTotal    *prometheus.CounterVec
	VideoJobDuration  *prometheus.HistogramVec
	VideoJobsInFlight prometheus.Gauge

	// LLM metrics
	LLMRequestsTotal   *prometheus.CounterVec
	LLMRequestDuration *prometheus.HistogramVec
	LLMTokensTotal     *prometheus.CounterVec

	// Cache metrics
	CacheHitsTotal   *prometheus.CounterVec
	CacheMissesTotal *prometheus.CounterVec
}

// New creates a new Metrics instance registered with the default registry.
func New(namespace string) *Metrics {
	return NewWithRegistry(namespace, prometheus.DefaultRegisterer)
}

// NewWithRegistry creates a new Metrics instance registered with reg.
func NewWithRegistry(namespace string, reg prometheus.Registerer) *Metrics {
	if namespace == "" {
		namespace = "promptreel"
	}
	factory := promauto.With(reg)

	return &Metrics{
		// HTTP metrics
		HTTPRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path"},
		),
		HTTPRequestsInFlight: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "requests_in_flight",
				Help:      "Current number of HTTP requests being processed",
			},
		),

		// Outbound provider metrics
		ProviderAttemptsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "provider",
				Name:      "attempts_total",
				Help:      "Total number of outbound request attempts",
			},
			[]string{"host", "method", "outcome", "status"}, // outcome: success, retry, failure
		),
		ProviderAttemptDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "provider",
				Name:      "attempt_duration_seconds",
				Help:      "Outbound request attempt duration in seconds",
				Buckets:   []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60, 300},
			},
			[]string{"host", "method"},
		),
		ProviderBackoffSeconds: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "provider",
				Name:      "backoff_seconds_total",
				Help:      "Total time spent waiting between retries",
			},
			[]string{"host"},
		),
		ProviderHealth: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "provider",
				Name:      "health",
				Help:      "Provider health status (1=healthy, 0=unhealthy)",
			},
			[]string{"provider"},
		),

		// Video job metrics
		VideoPollsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "video",
				Name:      "polls_total",
				Help:      "Total number of operation status queries",
			},
			[]string{"state"},
		),
		VideoJobsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "video",
				Name:      "jobs_total",
				Help:      "Total number of finished video jobs",
			},
			[]string{"outcome"},
		),
		VideoJobDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "video",
				Name:      "job_duration_seconds",
				Help:      "Video job duration in seconds",
				Buckets:   []float64{10, 30, 60, 90, 120, 180, 240, 360, 600, 1200},
			},
			[]string{"outcome"},
		),
		VideoJobsInFlight: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "video",
				Name:      "jobs_in_flight",
				Help:      "Current number of running video jobs",
			},
		),

		// LLM metrics
		LLMRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "llm",
				Name:      "requests_total",
				Help:      "Total number of LLM requests",
			},
			[]string{"model", "status"},
		),
		LLMRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "llm",
				Name:      "request_duration_seconds",
				Help:      "LLM request duration in seconds",
				Buckets:   []float64{.1, .25, .5, 1, 2.5, 5, 10, 30, 60, 120},
			},
			[]string{"model"},
		),
		LLMTokensTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "llm",
				Name:      "tokens_total",
				Help:      "Total number of tokens processed",
			},
			[]string{"model", "type"}, // type: input, output
		),

		// Cache metrics
		CacheHitsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "cache",
				Name:      "hits_total",
				Help:      "Total number of cache hits",
			},
			[]string{"cache"},
		),
		CacheMissesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "cache",
				Name:      "misses_total",
				Help:      "Total number of cache misses",
			},
			[]string{"cache"},
		),
	}
}

// --- Convenience methods ---

// RecordHTTPRequest records an HTTP request.
func (m *Metrics) RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	m.HTTPRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// ObserveAttempt records an outbound attempt. It implements resilient.Observer.
func (m *Metrics) ObserveAttempt(_ context.Context, a resilient.Attempt) {
	host := "unknown"
	if u, err := url.Parse(a.URL); err == nil && u.Host != "" {
		host = u.Host
	}

	outcome := "success"
	switch {
	case a.Err != nil && a.Retry:
		outcome = "retry"
	case a.Err != nil:
		outcome = "failure"
	}

	status := "none"
	if a.StatusCode > 0 {
		status = strconv.Itoa(a.StatusCode)
	}

	m.ProviderAttemptsTotal.WithLabelValues(host, a.Method, outcome, status).Inc()
	m.ProviderAttemptDuration.WithLabelValues(host, a.Method).Observe(a.Duration.Seconds())
	if a.Backoff > 0 {
		m.ProviderBackoffSeconds.WithLabelValues(host).Add(a.Backoff.Seconds())
	}
}

// SetProviderHealth sets the health status of a provider.
func (m *Metrics) SetProviderHealth(provider string, healthy bool) {
	value := 0.0
	if healthy {
		value = 1.0
	}
	m.ProviderHealth.WithLabelValues(provider).Set(value)
}

// RecordPoll records an operation status query. It implements veo.PollRecorder.
func (m *Metrics) RecordPoll(state string) {
	m.VideoPollsTotal.WithLabelValues(state).Inc()
}

// JobStarted increments the running job gauge.
func (m *Metrics) JobStarted() {
	m.VideoJobsInFlight.Inc()
}

// RecordJob records a finished job and decrements the running job gauge.
func (m *Metrics) RecordJob(outcome string, duration time.Duration) {
	m.VideoJobsInFlight.Dec()
	m.VideoJobsTotal.WithLabelValues(outcome).Inc()
	m.VideoJobDuration.WithLabelValues(outcome).Observe(duration.Seconds())
}

// RecordLLMRequest records an LLM request.
func (m *Metrics) RecordLLMRequest(model, status string, duration time.Duration) {
	m.LLMRequestsTotal.WithLabelValues(model, status).Inc()
	m.LLMRequestDuration.WithLabelValues(model).Observe(duration.Seconds())
}

// RecordLLMTokens records token usage.
func (m *Metrics) RecordLLMTokens(model string, inputTokens, outputTokens int) {
	if inputTokens > 0 {
		m.LLMTokensTotal.WithLabelValues(model, "input").Add(float64(inputTokens))
	}
	if outputTokens > 0 {
		m.LLMTokensTotal.WithLabelValues(model, "output").Add(float64(outputTokens))
	}
}

// RecordCacheHit records a cache hit.
func (m *Metrics) RecordCacheHit(cache string) {
	m.CacheHitsTotal.WithLabelValues(cache).Inc()
}

// RecordCacheMiss records a cache miss.
func (m *Metrics) RecordCacheMiss(cache string) {
	m.CacheMissesTotal.WithLabelValues(cache).Inc()
}
