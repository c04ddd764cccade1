// Package metrics collects and exposes Prometheus metrics for a service.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome labels for stats fetches.
const (
	OutcomeOK          = "ok"
	OutcomeUnreachable = "unreachable"
	OutcomeTimeout     = "timeout"
	OutcomeBadStatus   = "bad_status"
	OutcomeBadBody     = "bad_body"
)

// FetchRecorder is what the aggregation fetcher reports to.
type FetchRecorder interface {
	RecordStatsFetch(outcome string, d time.Duration)
}

// Collector holds the service's metrics.
type Collector struct {
	requests     *prometheus.CounterVec
	latency      *prometheus.HistogramVec
	fetches      *prometheus.CounterVec
	fetchLatency prometheus.Histogram
}

// NewCollector registers every metric on reg. service becomes a constant
// label so the three services can share one scrape config.
func NewCollector(reg prometheus.Registerer, service string) *Collector {
	labels := prometheus.Labels{"service": service}
	c := &Collector{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "tracker_http_requests_total",
			Help:        "HTTP requests by method, route and status code.",
			ConstLabels: labels,
		}, []string{"method", "route", "status_code"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:        "tracker_http_request_duration_seconds",
			Help:        "HTTP request latency in seconds.",
			ConstLabels: labels,
			Buckets:     prometheus.DefBuckets,
		}, []string{"method", "route"}),
		fetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "tracker_stats_fetch_total",
			Help:        "Task stats fetches by outcome.",
			ConstLabels: labels,
		}, []string{"outcome"}),
		fetchLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:        "tracker_stats_fetch_duration_seconds",
			Help:        "Task stats fetch latency in seconds.",
			ConstLabels: labels,
			Buckets:     []float64{.01, .025, .05, .1, .25, .5, 1},
		}),
	}
	reg.MustRegister(c.requests, c.latency, c.fetches, c.fetchLatency)
	return c
}

// RecordStatsFetch counts one fetch and its latency.
func (c *Collector) RecordStatsFetch(outcome string, d time.Duration) {
	c.fetches.WithLabelValues(outcome).Inc()
	c.fetchLatency.Observe(d.Seconds())
}

// RecordRequest counts one served HTTP request.
func (c *Collector) RecordRequest(method, route string, status int, d time.Duration) {
	c.requests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	c.latency.WithLabelValues(method, route).Observe(d.Seconds())
}

// Middleware records every request under its route pattern, not the raw
// path, to keep label cardinality bounded.
func (c *Collector) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ec echo.Context) error {
			start := time.Now()
			err := next(ec)
			status := ec.Response().Status
			if err != nil {
				if he, ok := err.(*echo.HTTPError); ok {
					status = he.Code
				}
			}
			route := ec.Path()
			if route == "" {
				route = "unmatched"
			}
			c.RecordRequest(ec.Request().Method, route, status, time.Since(start))
			return err
		}
	}
}

// Handler serves the registry for Prometheus scrapes.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// NopRecorder discards fetch metrics.
type NopRecorder struct{}

func (NopRecorder) RecordStatsFetch(string, time.Duration) {}
