// Package metrics exposes Prometheus collectors for the update and
// render pipeline: passes, consumer applies, list reconciliation
// classifications, and render-instance pooling.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Config configures the metric collectors.
type Config struct {
	// Namespace is the metrics namespace (default: "structive").
	Namespace string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Buckets are the histogram buckets for pass duration.
	// Default: prometheus.DefBuckets.
	Buckets []float64

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer.
	Registry prometheus.Registerer
}

// Option configures the metric collectors.
type Option func(*Config)

// WithNamespace sets the metrics namespace.
func WithNamespace(namespace string) Option {
	return func(c *Config) {
		c.Namespace = namespace
	}
}

// WithConstLabels sets constant labels for all metrics.
func WithConstLabels(labels prometheus.Labels) Option {
	return func(c *Config) {
		c.ConstLabels = labels
	}
}

// WithBuckets sets the pass duration histogram buckets.
func WithBuckets(buckets []float64) Option {
	return func(c *Config) {
		c.Buckets = buckets
	}
}

// WithRegistry sets the Prometheus registry.
func WithRegistry(registry prometheus.Registerer) Option {
	return func(c *Config) {
		c.Registry = registry
	}
}

// Metrics holds the pipeline collectors. A nil *Metrics is valid and
// records nothing, so instrumentation call sites stay unconditional.
type Metrics struct {
	Passes        prometheus.Counter
	PassDuration  prometheus.Histogram
	RefsVisited   prometheus.Counter
	Applies       prometheus.Counter
	Transactions  *prometheus.CounterVec
	Reconciles    *prometheus.CounterVec
	PoolHits      prometheus.Counter
	PoolMisses    prometheus.Counter
	PassFailures  prometheus.Counter
}

// New creates and registers the collectors.
func New(opts ...Option) *Metrics {
	cfg := &Config{
		Namespace: "structive",
		Buckets:   prometheus.DefBuckets,
		Registry:  prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	factory := promauto.With(cfg.Registry)

	return &Metrics{
		Passes: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   cfg.Namespace,
			Name:        "render_passes_total",
			Help:        "Total render passes executed.",
			ConstLabels: cfg.ConstLabels,
		}),
		PassDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace:   cfg.Namespace,
			Name:        "render_pass_duration_seconds",
			Help:        "Render pass duration in seconds.",
			Buckets:     cfg.Buckets,
			ConstLabels: cfg.ConstLabels,
		}),
		RefsVisited: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   cfg.Namespace,
			Name:        "refs_visited_total",
			Help:        "Total property references visited during passes.",
			ConstLabels: cfg.ConstLabels,
		}),
		Applies: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   cfg.Namespace,
			Name:        "consumer_applies_total",
			Help:        "Total consumer apply invocations.",
			ConstLabels: cfg.ConstLabels,
		}),
		Transactions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   cfg.Namespace,
			Name:        "update_transactions_total",
			Help:        "Update transactions by outcome.",
			ConstLabels: cfg.ConstLabels,
		}, []string{"outcome"}),
		Reconciles: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   cfg.Namespace,
			Name:        "list_reconciles_total",
			Help:        "List reconciliations by classification.",
			ConstLabels: cfg.ConstLabels,
		}, []string{"class"}),
		PoolHits: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   cfg.Namespace,
			Name:        "instance_pool_hits_total",
			Help:        "Render instances satisfied from the reuse pool.",
			ConstLabels: cfg.ConstLabels,
		}),
		PoolMisses: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   cfg.Namespace,
			Name:        "instance_pool_misses_total",
			Help:        "Render instances constructed because the pool was empty.",
			ConstLabels: cfg.ConstLabels,
		}),
		PassFailures: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   cfg.Namespace,
			Name:        "render_pass_failures_total",
			Help:        "Render passes aborted by an error.",
			ConstLabels: cfg.ConstLabels,
		}),
	}
}

// ObservePass records one completed pass.
func (m *Metrics) ObservePass(start time.Time, refs int, failed bool) {
	if m == nil {
		return
	}
	m.Passes.Inc()
	m.PassDuration.Observe(time.Since(start).Seconds())
	m.RefsVisited.Add(float64(refs))
	if failed {
		m.PassFailures.Inc()
	}
}

// IncApplies records one consumer apply.
func (m *Metrics) IncApplies() {
	if m == nil {
		return
	}
	m.Applies.Inc()
}

// IncReconcile records one list reconciliation of the given class.
func (m *Metrics) IncReconcile(class string) {
	if m == nil {
		return
	}
	m.Reconciles.WithLabelValues(class).Inc()
}

// IncPool records a pool hit or miss.
func (m *Metrics) IncPool(hit bool) {
	if m == nil {
		return
	}
	if hit {
		m.PoolHits.Inc()
	} else {
		m.PoolMisses.Inc()
	}
}

// IncTransaction records a transaction outcome ("committed" or
// "rejected").
func (m *Metrics) IncTransaction(outcome string) {
	if m == nil {
		return
	}
	m.Transactions.WithLabelValues(outcome).Inc()
}
