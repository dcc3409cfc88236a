// Package metrics provides Prometheus metrics collection for brushkit.
package metrics

import (
	"time"

	"github.com/artpar/brushkit/core/curvecache"
	"github.com/artpar/brushkit/ports"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "brushkit"

// Collector holds all Prometheus metrics for brushkit.
type Collector struct {
	// HTTP metrics
	RequestsTotal    *prometheus.CounterVec
	RequestDuration  *prometheus.HistogramVec
	RequestsInFlight prometheus.Gauge

	// Curve cache metrics
	CurveCacheHits      prometheus.Counter
	CurveCacheMisses    prometheus.Counter
	CurveCacheEvictions prometheus.Counter
	CurveCacheRepairs   prometheus.Counter
	CurveCacheEntries   prometheus.Gauge

	// Resolve metrics
	ResolveDuration prometheus.Histogram
	ResolveDepth    prometheus.Histogram
	Commands        *prometheus.CounterVec
	Evaluations     *prometheus.CounterVec

	// Store metrics
	StoreErrors *prometheus.CounterVec

	// Config metrics
	ConfigReloads      prometheus.Counter
	ConfigReloadErrors prometheus.Counter
	ConfigLastReload   prometheus.Gauge
}

// Ensure interface compliance.
var (
	_ ports.Metrics       = (*Collector)(nil)
	_ curvecache.Observer = (*Collector)(nil)
)

// New creates a collector registered with the default Prometheus registry.
func New() *Collector {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry creates a new metrics collector with a custom registry.
// Useful for testing to avoid global state.
func NewWithRegistry(reg prometheus.Registerer) *Collector {
	factory := promauto.With(reg)

	return &Collector{
		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests processed",
			},
			[]string{"method", "route", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   []float64{.0005, .001, .005, .01, .025, .05, .1, .25, .5, 1},
			},
			[]string{"method", "route"},
		),
		RequestsInFlight: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "http_requests_in_flight",
				Help:      "Number of HTTP requests currently being processed",
			},
		),

		CurveCacheHits: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "curve_cache",
				Name:      "hits_total",
				Help:      "Curve lookups answered by an existing entry",
			},
		),
		CurveCacheMisses: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "curve_cache",
				Name:      "misses_total",
				Help:      "Curve lookups that created a new entry",
			},
		),
		CurveCacheEvictions: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "curve_cache",
				Name:      "evictions_total",
				Help:      "Entries freed after their last reference was released",
			},
		),
		CurveCacheRepairs: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "curve_cache",
				Name:      "repairs_total",
				Help:      "Malformed curves repaired on insert",
			},
		),
		CurveCacheEntries: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "curve_cache",
				Name:      "entries",
				Help:      "Distinct curves currently cached",
			},
		),

		ResolveDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "resolve_duration_seconds",
				Help:      "Time to resolve a preset chain into one channel set",
				Buckets:   []float64{.0001, .0005, .001, .005, .01, .05, .1},
			},
		),
		ResolveDepth: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "resolve_depth",
				Help:      "Number of layers merged per resolve",
				Buckets:   []float64{1, 2, 3, 4, 6, 8},
			},
		),
		Commands: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "commands_built_total",
				Help:      "Stroke commands produced by command list builds",
			},
			[]string{"tool"},
		),
		Evaluations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "channel_evaluations_total",
				Help:      "Channel evaluations against input signals",
			},
			[]string{"channel"},
		),

		StoreErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "store_errors_total",
				Help:      "Failed preset store operations",
			},
			[]string{"op"},
		),

		ConfigReloads: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "config_reloads_total",
				Help:      "Total number of successful config reloads",
			},
		),
		ConfigReloadErrors: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "config_reload_errors_total",
				Help:      "Total number of config reload errors",
			},
		),
		ConfigLastReload: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "config_last_reload_timestamp",
				Help:      "Unix timestamp of last successful config reload",
			},
		),
	}
}

// CurveHit implements curvecache.Observer.
func (c *Collector) CurveHit() { c.CurveCacheHits.Inc() }

// CurveMiss implements curvecache.Observer.
func (c *Collector) CurveMiss() { c.CurveCacheMisses.Inc() }

// CurveEvicted implements curvecache.Observer.
func (c *Collector) CurveEvicted() { c.CurveCacheEvictions.Inc() }

// CurveRepaired implements curvecache.Observer.
func (c *Collector) CurveRepaired() { c.CurveCacheRepairs.Inc() }

// CacheSize implements curvecache.Observer.
func (c *Collector) CacheSize(n int) { c.CurveCacheEntries.Set(float64(n)) }

// ResolveCompleted implements ports.Metrics.
func (c *Collector) ResolveCompleted(depth int, d time.Duration) {
	c.ResolveDepth.Observe(float64(depth))
	c.ResolveDuration.Observe(d.Seconds())
}

// CommandsBuilt implements ports.Metrics.
func (c *Collector) CommandsBuilt(tool string, n int) {
	c.Commands.WithLabelValues(tool).Add(float64(n))
}

// ChannelEvaluated implements ports.Metrics.
func (c *Collector) ChannelEvaluated(channelID string) {
	c.Evaluations.WithLabelValues(channelID).Inc()
}

// StoreError implements ports.Metrics.
func (c *Collector) StoreError(op string) {
	c.StoreErrors.WithLabelValues(op).Inc()
}
