package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Rik-van-de-Laar/ChronoZoom/application/ports"
)

// Collector holds all Prometheus metrics for the application
type Collector struct {
	// Registry for this collector instance
	registry *prometheus.Registry

	// HTTP metrics
	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec

	// Query metrics
	QueryRows     *prometheus.HistogramVec
	QueryDuration *prometheus.HistogramVec
	Truncations   *prometheus.CounterVec

	// Cascade metrics
	CascadeDeleted  *prometheus.CounterVec
	CascadeFailures *prometheus.CounterVec
}

var _ ports.QueryMetrics = (*Collector)(nil)

// NewCollector creates a collector with its own registry, so repeated
// construction in tests never collides on registration
func NewCollector(namespace string) *Collector {
	registry := prometheus.NewRegistry()

	c := &Collector{
		registry: registry,
		HTTPRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		HTTPDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		QueryRows: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "timeline_query_rows",
				Help:      "Timeline rows returned by a range query",
				Buckets:   prometheus.ExponentialBuckets(1, 4, 8),
			},
			[]string{"strategy"},
		),
		QueryDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "timeline_query_duration_seconds",
				Help:      "Timeline range query duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"strategy"},
		),
		Truncations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "timeline_query_truncated_total",
				Help:      "Range queries cut short by the element budget",
			},
			[]string{"strategy"},
		),
		CascadeDeleted: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "cascade_deleted_rows_total",
				Help:      "Rows removed by cascade deletes",
			},
			[]string{"entity"},
		),
		CascadeFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "cascade_failures_total",
				Help:      "Cascade deletes that stopped part way",
			},
			[]string{"entity"},
		),
	}

	registry.MustRegister(
		c.HTTPRequests,
		c.HTTPDuration,
		c.QueryRows,
		c.QueryDuration,
		c.Truncations,
		c.CascadeDeleted,
		c.CascadeFailures,
	)
	return c
}

// ObserveQuery records one range query
func (c *Collector) ObserveQuery(strategy string, rows int, truncated bool, duration time.Duration) {
	c.QueryRows.WithLabelValues(strategy).Observe(float64(rows))
	c.QueryDuration.WithLabelValues(strategy).Observe(duration.Seconds())
	if truncated {
		c.Truncations.WithLabelValues(strategy).Inc()
	}
}

// ObserveCascade records one cascade delete
func (c *Collector) ObserveCascade(entity string, deleted int, failed bool) {
	c.CascadeDeleted.WithLabelValues(entity).Add(float64(deleted))
	if failed {
		c.CascadeFailures.WithLabelValues(entity).Inc()
	}
}

// ObserveHTTP records one served request
func (c *Collector) ObserveHTTP(method, route string, status int, duration time.Duration) {
	c.HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	c.HTTPDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// Registry exposes the underlying registry
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves the registry in the Prometheus exposition format
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{Registry: c.registry})
}
