package pipeline

import "context"

// StepKind identifies the operation a Step performs.
type StepKind int

const (
	// KindMap replaces the current value with the result of a transform.
	KindMap StepKind = iota

	// KindFilter ends processing of a value when its predicate returns false.
	KindFilter

	// KindTerminal hands the value to a consumer and ends processing.
	KindTerminal
)

// String returns the lower-case name used in logs and metric labels.
func (k StepKind) String() string {
	switch k {
	case KindMap:
		return "map"
	case KindFilter:
		return "filter"
	case KindTerminal:
		return "terminal"
	default:
		return "unknown"
	}
}

// Step is one immutable operation of a chain. The same *Step is shared by
// every node the step was propagated to.
type Step struct {
	kind      StepKind
	transform func(ctx context.Context, value any) (any, error)
	predicate func(ctx context.Context, value any) (bool, error)
	consumer  func(ctx context.Context, value any) error
}

// NewMapStep creates a Map step.
func NewMapStep(transform func(ctx context.Context, value any) (any, error)) *Step {
	return &Step{kind: KindMap, transform: transform}
}

// NewFilterStep creates a Filter step.
func NewFilterStep(predicate func(ctx context.Context, value any) (bool, error)) *Step {
	return &Step{kind: KindFilter, predicate: predicate}
}

// NewTerminalStep creates a Terminal step.
func NewTerminalStep(consumer func(ctx context.Context, value any) error) *Step {
	return &Step{kind: KindTerminal, consumer: consumer}
}

// Kind returns the step kind.
func (s *Step) Kind() StepKind {
	return s.kind
}

// apply runs the step once. next reports whether processing continues with
// out; err is whatever the step function returned.
func (s *Step) apply(ctx context.Context, value any) (out any, next bool, err error) {
	switch s.kind {
	case KindMap:
		out, err = s.transform(ctx, value)
		return out, err == nil, err
	case KindFilter:
		ok, err := s.predicate(ctx, value)
		return value, ok && err == nil, err
	default:
		return value, false, s.consumer(ctx, value)
	}
}

// sealed reports whether steps ends in a Terminal step.
func sealed(steps []*Step) bool {
	return len(steps) > 0 && steps[len(steps)-1].kind == KindTerminal
}

// as converts a boxed value back to T. A nil interface yields the zero T,
// which keeps chains over interface types (error, any) from panicking.
func as[T any](value any) T {
	v, _ := value.(T)
	return v
}
