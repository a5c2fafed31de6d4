package pipeline

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/vnykmshr/chainflow/pkg/metrics"
)

// Config holds options shared by every node of one pipeline tree. Nodes
// derived from an existing node inherit its tree's Config.
type Config struct {
	// Name labels logs and metrics. If empty, "pipeline-<uuid>" is used.
	Name string

	// Logger receives debug and lifecycle events. If nil, logging is disabled.
	Logger *zerolog.Logger

	// Metrics records Prometheus metrics when set. Share one Registry
	// between pipelines that use the same Registerer.
	Metrics *metrics.Registry

	// OnStepStart is called before a step function runs during Push or pump processing.
	OnStepStart func(kind StepKind, input any)

	// OnStepComplete is called after a step function returns.
	OnStepComplete func(result StepResult)

	// OnDrop is called when a drained source item is lost to a failing step.
	// Push failures are returned to the caller instead.
	OnDrop func(value any, err error)
}

// StepResult describes a single step execution.
type StepResult struct {
	// Kind is the kind of the step that ran.
	Kind StepKind

	// Input is the value the step received.
	Input any

	// Output is the value passed on; equal to Input for Filter and Terminal steps.
	Output any

	// Error is the error returned by the step function, unchanged.
	Error error

	// Duration is how long the step function took.
	Duration time.Duration
}

// DefaultConfig returns a configuration with logging and metrics disabled.
func DefaultConfig() Config {
	return Config{}
}
