// Package metrics provides Prometheus metrics for Verba.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus collectors used by the service.
type Metrics struct {
	// LLM provider metrics
	LLMRequestsTotal   *prometheus.CounterVec
	LLMRequestDuration *prometheus.HistogramVec
	LLMRetriesTotal    *prometheus.CounterVec

	// Response interpretation failures by kind
	InterpretFailuresTotal *prometheus.CounterVec

	// Conversation log
	ConversationAppendsTotal    *prometheus.CounterVec
	ConversationAppendConflicts prometheus.Counter

	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
}

// New registers all collectors on reg. Pass prometheus.DefaultRegisterer in
// production and a fresh registry in tests.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		LLMRequestsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "verba_llm_requests_total",
				Help: "Total number of LLM provider calls",
			},
			[]string{"purpose", "outcome"},
		),
		LLMRequestDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "verba_llm_request_duration_seconds",
				Help:    "LLM provider call latency in seconds",
				Buckets: []float64{.1, .25, .5, 1, 2, 4, 8, 16, 32},
			},
			[]string{"purpose"},
		),
		LLMRetriesTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "verba_llm_retries_total",
				Help: "Total number of retried LLM calls",
			},
			[]string{"purpose"},
		),
		InterpretFailuresTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "verba_interpret_failures_total",
				Help: "Completion results that could not be interpreted",
			},
			[]string{"kind"},
		),
		ConversationAppendsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "verba_conversation_appends_total",
				Help: "Conversation log appends",
			},
			[]string{"mode"},
		),
		ConversationAppendConflicts: f.NewCounter(
			prometheus.CounterOpts{
				Name: "verba_conversation_append_conflicts_total",
				Help: "Optimistic concurrency conflicts while appending turns",
			},
		),
		HTTPRequestsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "verba_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "verba_http_request_duration_seconds",
				Help:    "HTTP request latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
	}
}

// ObserveLLM records a finished provider call.
func (m *Metrics) ObserveLLM(purpose string, d time.Duration, err error) {
	if m == nil {
		return
	}
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	m.LLMRequestsTotal.WithLabelValues(purpose, outcome).Inc()
	m.LLMRequestDuration.WithLabelValues(purpose).Observe(d.Seconds())
}

// ObserveRetry records one retry of a provider call.
func (m *Metrics) ObserveRetry(purpose string) {
	if m == nil {
		return
	}
	m.LLMRetriesTotal.WithLabelValues(purpose).Inc()
}

// ObserveInterpretFailure records an interpretation failure of the given kind.
func (m *Metrics) ObserveInterpretFailure(kind string) {
	if m == nil {
		return
	}
	m.InterpretFailuresTotal.WithLabelValues(kind).Inc()
}

// ObserveAppend records a conversation append; mode is "create" or "append".
func (m *Metrics) ObserveAppend(mode string) {
	if m == nil {
		return
	}
	m.ConversationAppendsTotal.WithLabelValues(mode).Inc()
}

// ObserveAppendConflict records a lost optimistic-concurrency race.
func (m *Metrics) ObserveAppendConflict() {
	if m == nil {
		return
	}
	m.ConversationAppendConflicts.Inc()
}

// ObserveHTTP records a finished HTTP request.
func (m *Metrics) ObserveHTTP(method, path string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, path).Observe(d.Seconds())
}
