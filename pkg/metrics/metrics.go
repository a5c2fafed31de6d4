// Package metrics provides Prometheus instrumentation for chainflow pipelines.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Registry holds all metric instances for chainflow components.
type Registry struct {
	// Push Metrics
	Pushes *prometheus.CounterVec

	// Processing Metrics
	Values      *prometheus.CounterVec
	StepLatency *prometheus.HistogramVec
	StepErrors  *prometheus.CounterVec
	ChainLength *prometheus.GaugeVec

	// Pump Metrics
	PumpItems    *prometheus.CounterVec
	PumpDropped  *prometheus.CounterVec
	PumpInFlight *prometheus.GaugeVec
}

// NewRegistry creates a registry with the default "chainflow" namespace.
func NewRegistry(reg prometheus.Registerer) *Registry {
	return NewRegistryWithConfig(Config{Enabled: true, Registry: reg})
}

// NewRegistryWithConfig creates a registry honouring config.Namespace and
// config.Labels. A nil config.Registry means prometheus.DefaultRegisterer.
func NewRegistryWithConfig(config Config) *Registry {
	reg := config.Registry
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	ns := config.Namespace
	if ns == "" {
		ns = DefaultNamespace
	}
	factory := promauto.With(reg)

	return &Registry{
		Pushes: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace:   ns,
				Subsystem:   "push",
				Name:        "calls_total",
				Help:        "Total number of Push calls by result",
				ConstLabels: config.Labels,
			},
			[]string{"pipeline", "result"},
		),

		Values: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace:   ns,
				Subsystem:   "pipeline",
				Name:        "values_total",
				Help:        "Total number of values processed by outcome",
				ConstLabels: config.Labels,
			},
			[]string{"pipeline", "outcome"},
		),

		StepLatency: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace:   ns,
				Subsystem:   "pipeline",
				Name:        "step_duration_seconds",
				Help:        "Time spent inside a single step function",
				Buckets:     prometheus.DefBuckets,
				ConstLabels: config.Labels,
			},
			[]string{"pipeline", "kind"},
		),

		StepErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace:   ns,
				Subsystem:   "pipeline",
				Name:        "step_errors_total",
				Help:        "Total number of step functions that returned an error",
				ConstLabels: config.Labels,
			},
			[]string{"pipeline", "kind"},
		),

		ChainLength: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace:   ns,
				Subsystem:   "pipeline",
				Name:        "chain_length",
				Help:        "Number of steps registered on the root node",
				ConstLabels: config.Labels,
			},
			[]string{"pipeline"},
		),

		PumpItems: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace:   ns,
				Subsystem:   "pump",
				Name:        "items_total",
				Help:        "Total number of items drained from a source",
				ConstLabels: config.Labels,
			},
			[]string{"pipeline"},
		),

		PumpDropped: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace:   ns,
				Subsystem:   "pump",
				Name:        "dropped_total",
				Help:        "Total number of drained items dropped after a step failure",
				ConstLabels: config.Labels,
			},
			[]string{"pipeline"},
		),

		PumpInFlight: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace:   ns,
				Subsystem:   "pump",
				Name:        "in_flight",
				Help:        "Items currently being processed by a pump (0 or 1)",
				ConstLabels: config.Labels,
			},
			[]string{"pipeline"},
		),
	}
}
