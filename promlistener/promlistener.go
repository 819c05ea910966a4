// Package promlistener records finished clepsydra events as Prometheus metrics.
//
// Durations go to a histogram labelled by event name; events whose payload
// carries an exception are also counted as failures.
package promlistener

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/zoobzio/clepsydra"
)

const (
	defaultNamespace = "clepsydra"
	eventLabel       = "event"
)

// Option configures Metrics.
type Option func(*config)

type config struct {
	namespace string
	buckets   []float64
}

// WithNamespace sets the metric namespace.
func WithNamespace(namespace string) Option {
	return func(c *config) {
		c.namespace = namespace
	}
}

// WithBuckets sets the duration histogram buckets, in seconds.
func WithBuckets(buckets []float64) Option {
	return func(c *config) {
		c.buckets = buckets
	}
}

// Metrics holds the collectors fed by its Listener.
type Metrics struct {
	durations *prometheus.HistogramVec
	failures  *prometheus.CounterVec
}

// New creates unregistered metrics.
func New(opts ...Option) *Metrics {
	cfg := config{
		namespace: defaultNamespace,
		buckets:   prometheus.DefBuckets,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	return &Metrics{
		durations: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: cfg.namespace,
			Name:      "event_duration_seconds",
			Help:      "Duration of instrumented events.",
			Buckets:   cfg.buckets,
		}, []string{eventLabel}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: cfg.namespace,
			Name:      "event_failures_total",
			Help:      "Instrumented events whose block failed.",
		}, []string{eventLabel}),
	}
}

// Register registers the collectors with reg.
func (m *Metrics) Register(reg prometheus.Registerer) error {
	if err := reg.Register(m.durations); err != nil {
		return err
	}
	return reg.Register(m.failures)
}

// Collectors returns the underlying collectors.
func (m *Metrics) Collectors() []prometheus.Collector {
	return []prometheus.Collector{m.durations, m.failures}
}

// Listener returns a listener that observes every finished event.
func (m *Metrics) Listener() clepsydra.Listener {
	return func(event clepsydra.Event, start, finish clepsydra.Instant, payload clepsydra.Payload) error {
		m.durations.WithLabelValues(event.Name).Observe(finish.Sub(start).Seconds())
		if _, failed := payload[clepsydra.PayloadException]; failed {
			m.failures.WithLabelValues(event.Name).Inc()
		}
		return nil
	}
}
