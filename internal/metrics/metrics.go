// Package metrics provides the Prometheus collectors for the slip service.
package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "parlay_slip"

// Metrics owns a registry and every collector the service records into.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	EventsTotal          *prometheus.CounterVec
	RejectionsTotal      *prometheus.CounterVec
	ActiveSessions       prometheus.Gauge
	SlipLegs             prometheus.Histogram
	PersistFailuresTotal prometheus.Counter
	PersistQueueDepth    prometheus.Gauge
	PersistLatency       prometheus.Histogram
	RoundRobinCombos     prometheus.Histogram
	FeedRequestsTotal    *prometheus.CounterVec
	FeedLatency          prometheus.Histogram
	HTTPRequestsTotal    *prometheus.CounterVec
}

// New creates collectors registered on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		EventsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "slip_events_total",
			Help:      "Total number of slip events applied",
		}, []string{"event"}),
		RejectionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "slip_rejections_total",
			Help:      "Total number of slip events rejected",
		}, []string{"event", "reason"}),
		ActiveSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_sessions",
			Help:      "Number of sessions held in memory",
		}),
		SlipLegs: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "slip_legs",
			Help:      "Number of legs on a slip after each change",
			Buckets:   []float64{1, 2, 3, 4, 5, 6, 8, 10, 15, 20},
		}),
		PersistFailuresTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "persist_failures_total",
			Help:      "Total number of failed slip writes",
		}),
		PersistQueueDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "persist_retry_queue_depth",
			Help:      "Number of slip writes waiting for retry",
		}),
		PersistLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "persist_latency_seconds",
			Help:      "Latency of slip writes in seconds",
			Buckets:   prometheus.DefBuckets,
		}),
		RoundRobinCombos: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "round_robin_combinations",
			Help:      "Number of combinations produced per round robin request",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 12),
		}),
		FeedRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "feed_requests_total",
			Help:      "Total number of suggestion feed lookups",
		}, []string{"result"}),
		FeedLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "feed_latency_seconds",
			Help:      "Latency of suggestion feed requests in seconds",
			Buckets:   prometheus.DefBuckets,
		}),
		HTTPRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of API requests",
		}, []string{"method", "route", "status"}),
	}

	m.registry.MustRegister(
		m.EventsTotal,
		m.RejectionsTotal,
		m.ActiveSessions,
		m.SlipLegs,
		m.PersistFailuresTotal,
		m.PersistQueueDepth,
		m.PersistLatency,
		m.RoundRobinCombos,
		m.FeedRequestsTotal,
		m.FeedLatency,
		m.HTTPRequestsTotal,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Registry returns the registry the collectors are registered on.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler returns the Prometheus HTTP handler.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// RecordEvent records an applied slip event and the resulting leg count.
func (m *Metrics) RecordEvent(event string, legs int) {
	if m == nil {
		return
	}
	m.EventsTotal.WithLabelValues(event).Inc()
	m.SlipLegs.Observe(float64(legs))
}

// RecordRejection records a refused slip event.
func (m *Metrics) RecordRejection(event, reason string) {
	if m == nil {
		return
	}
	m.RejectionsTotal.WithLabelValues(event, reason).Inc()
}

// SetActiveSessions updates the in-memory session gauge.
func (m *Metrics) SetActiveSessions(n int) {
	if m == nil {
		return
	}
	m.ActiveSessions.Set(float64(n))
}

// RecordPersist records the outcome of one slip write.
func (m *Metrics) RecordPersist(durationSeconds float64, err error) {
	if m == nil {
		return
	}
	m.PersistLatency.Observe(durationSeconds)
	if err != nil {
		m.PersistFailuresTotal.Inc()
	}
}

// SetPersistQueueDepth updates the retry queue gauge.
func (m *Metrics) SetPersistQueueDepth(n int) {
	if m == nil {
		return
	}
	m.PersistQueueDepth.Set(float64(n))
}

// RecordRoundRobin records the size of a round robin result.
func (m *Metrics) RecordRoundRobin(combinations int) {
	if m == nil {
		return
	}
	m.RoundRobinCombos.Observe(float64(combinations))
}

// RecordFeedRequest records a feed lookup; result is "hit", "miss" or "error".
func (m *Metrics) RecordFeedRequest(result string, durationSeconds float64) {
	if m == nil {
		return
	}
	m.FeedRequestsTotal.WithLabelValues(result).Inc()
	if result != "hit" {
		m.FeedLatency.Observe(durationSeconds)
	}
}

// RecordHTTPRequest records a served API request.
func (m *Metrics) RecordHTTPRequest(method, route string, status int) {
	if m == nil {
		return
	}
	m.HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
}
