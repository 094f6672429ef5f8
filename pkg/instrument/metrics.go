// Package instrument provides engine hooks that export propagation
// activity to Prometheus and OpenTelemetry.
//
// Hooks are registered on the engine at startup:
//
//	reaktor.RegisterHook(instrument.Prometheus())
//	reaktor.RegisterHook(instrument.OpenTelemetry())
package instrument

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/reaktor-dev/reaktor/pkg/reaktor"
)

// MetricsConfig configures the Prometheus hook.
type MetricsConfig struct {
	// Namespace is the metrics namespace (default: "reaktor").
	Namespace string

	// Subsystem is the metrics subsystem (default: "").
	Subsystem string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Buckets are the histogram buckets for durations.
	// Default: prometheus.DefBuckets
	Buckets []float64

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer
	Registry prometheus.Registerer
}

// MetricsOption configures the Prometheus hook.
type MetricsOption func(*MetricsConfig)

// WithNamespace sets the metrics namespace.
func WithNamespace(namespace string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Namespace = namespace
	}
}

// WithSubsystem sets the metrics subsystem.
func WithSubsystem(subsystem string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Subsystem = subsystem
	}
}

// WithConstLabels sets constant labels for all metrics.
func WithConstLabels(labels prometheus.Labels) MetricsOption {
	return func(c *MetricsConfig) {
		c.ConstLabels = labels
	}
}

// WithBuckets sets the histogram buckets.
func WithBuckets(buckets []float64) MetricsOption {
	return func(c *MetricsConfig) {
		c.Buckets = buckets
	}
}

// WithRegistry sets the Prometheus registry.
func WithRegistry(registry prometheus.Registerer) MetricsOption {
	return func(c *MetricsConfig) {
		c.Registry = registry
	}
}

func defaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		Namespace: "reaktor",
		Buckets:   prometheus.DefBuckets,
		Registry:  prometheus.DefaultRegisterer,
	}
}

// MetricsHook exports engine activity as Prometheus metrics.
type MetricsHook struct {
	reaktor.BaseHook

	nodesTotal          *prometheus.CounterVec
	liveEdges           prometheus.Gauge
	propagationsTotal   *prometheus.CounterVec
	propagationDuration prometheus.Histogram
	signalsSettled      prometheus.Counter
	triggersTotal       *prometheus.CounterVec
	triggerDuration     prometheus.Histogram
}

// Prometheus creates a metrics hook. Each call registers a fresh metric
// set, so tests and multi-engine setups should pass WithRegistry.
func Prometheus(opts ...MetricsOption) *MetricsHook {
	config := defaultMetricsConfig()
	for _, opt := range opts {
		opt(&config)
	}

	factory := promauto.With(config.Registry)

	return &MetricsHook{
		nodesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "nodes_created_total",
			Help:        "Total number of graph nodes created",
			ConstLabels: config.ConstLabels,
		}, []string{"kind"}),

		liveEdges: factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "live_edges",
			Help:        "Current number of dependency edges in the graph",
			ConstLabels: config.ConstLabels,
		}),

		propagationsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "propagations_total",
			Help:        "Total number of settle-then-notify passes",
			ConstLabels: config.ConstLabels,
		}, []string{"status"}),

		propagationDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "propagation_duration_seconds",
			Help:        "Duration of settle-then-notify passes in seconds",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}),

		signalsSettled: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "signals_settled_total",
			Help:        "Total number of signal recomputations during propagation",
			ConstLabels: config.ConstLabels,
		}),

		triggersTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "observer_triggers_total",
			Help:        "Total number of observer body executions",
			ConstLabels: config.ConstLabels,
		}, []string{"status"}),

		triggerDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "observer_trigger_duration_seconds",
			Help:        "Duration of observer body executions in seconds",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}),
	}
}

// NodeCreated implements reaktor.Hook.
func (m *MetricsHook) NodeCreated(info reaktor.NodeInfo) {
	m.nodesTotal.WithLabelValues(string(info.Kind)).Inc()
}

// EdgeAdded implements reaktor.Hook.
func (m *MetricsHook) EdgeAdded(readerID, sourceID uint64) {
	m.liveEdges.Inc()
}

// EdgeRemoved implements reaktor.Hook.
func (m *MetricsHook) EdgeRemoved(readerID, sourceID uint64) {
	m.liveEdges.Dec()
}

// PropagationDone implements reaktor.Hook.
func (m *MetricsHook) PropagationDone(stats reaktor.PropagationStats) {
	status := "ok"
	if stats.Err != nil {
		status = "error"
	}
	m.propagationsTotal.WithLabelValues(status).Inc()
	m.propagationDuration.Observe(stats.Duration.Seconds())
	m.signalsSettled.Add(float64(stats.Signals))
}

// ObserverTriggered implements reaktor.Hook.
func (m *MetricsHook) ObserverTriggered(stats reaktor.TriggerStats) {
	status := "ok"
	if stats.Err != nil {
		status = "error"
	}
	m.triggersTotal.WithLabelValues(status).Inc()
	m.triggerDuration.Observe(stats.Duration.Seconds())
}
