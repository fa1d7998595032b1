package monitoring

import (
	"net/http"
	"strconv"
	"time"

	"securechain-api/internal/domain"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the service's Prometheus collectors
type Metrics struct {
	registry *prometheus.Registry

	// HTTP request metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Submission metrics
	SubmissionsTotal *prometheus.CounterVec
	SinkFailures     *prometheus.CounterVec
	AttachmentSize   prometheus.Histogram

	// Rate limiting
	RateLimitBlocks *prometheus.CounterVec
}

// NewMetrics registers the collectors on a fresh registry
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,

		HTTPRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "securechain_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "endpoint", "status_code"},
		),

		HTTPRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "securechain_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "endpoint"},
		),

		SubmissionsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "securechain_submissions_total",
				Help: "Form submissions by form, outcome and error code",
			},
			[]string{"form", "outcome", "code"},
		),

		SinkFailures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "securechain_sink_failures_total",
				Help: "Failed attempts to record an accepted submission",
			},
			[]string{"sink", "form"},
		),

		AttachmentSize: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "securechain_attachment_size_bytes",
				Help:    "Size of stored audit documentation",
				Buckets: prometheus.ExponentialBuckets(16*1024, 2, 10),
			},
		),

		RateLimitBlocks: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "securechain_rate_limit_blocks_total",
				Help: "Requests rejected by the rate limiter",
			},
			[]string{"route"},
		),
	}
}

// RecordHTTPRequest records one served request
func (m *Metrics) RecordHTTPRequest(method, endpoint string, statusCode int, duration time.Duration) {
	m.HTTPRequestsTotal.WithLabelValues(method, endpoint, strconv.Itoa(statusCode)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// RecordSubmission counts a handler result
func (m *Metrics) RecordSubmission(form string, result domain.SubmissionResult) {
	outcome := "success"
	if !result.Success {
		outcome = string(result.Code.Kind())
	}
	m.SubmissionsTotal.WithLabelValues(form, outcome, string(result.Code)).Inc()
}

// RecordSinkFailure counts a sink error or panic
func (m *Metrics) RecordSinkFailure(sink, form string) {
	m.SinkFailures.WithLabelValues(sink, form).Inc()
}

// RecordAttachmentSize observes the size of a stored file
func (m *Metrics) RecordAttachmentSize(size int) {
	m.AttachmentSize.Observe(float64(size))
}

// RecordRateLimitBlock counts a rejected request
func (m *Metrics) RecordRateLimitBlock(route string) {
	m.RateLimitBlocks.WithLabelValues(route).Inc()
}

// HTTPHandler exposes the registry in the Prometheus text format
func (m *Metrics) HTTPHandler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
