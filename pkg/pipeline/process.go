package pipeline

import (
	"context"
	"time"
)

// outcome classifies how processing of one value ended.
type outcome int

const (
	outcomeConsumed outcome = iota
	outcomeFiltered
	outcomeUnconsumed
	outcomeFailed
)

func (o outcome) String() string {
	switch o {
	case outcomeConsumed:
		return "consumed"
	case outcomeFiltered:
		return "filtered"
	case outcomeUnconsumed:
		return "unconsumed"
	default:
		return "failed"
	}
}

// Process runs value through steps in order.
//
// A Map step replaces the current value, a Filter step returning false ends
// processing with a nil error, and a Terminal step receives the current value
// and ends processing. The first error returned by any step ends processing
// and is returned exactly as the step produced it. Steps after a Terminal
// are never reached. A chain without a Terminal still runs its Map and
// Filter steps.
//
// Process does not inspect ctx; it is handed to every step function.
func Process(ctx context.Context, steps []*Step, value any) error {
	_, err := run(ctx, nil, steps, value)
	return err
}

// run is Process with optional instrumentation through t.
func run(ctx context.Context, t *tree, steps []*Step, value any) (outcome, error) {
	current := value
	for _, s := range steps {
		var start time.Time
		if t != nil {
			t.stepStart(s.kind, current)
			start = time.Now()
		}

		out, next, err := s.apply(ctx, current)

		if t != nil {
			t.stepComplete(StepResult{
				Kind:     s.kind,
				Input:    current,
				Output:   out,
				Error:    err,
				Duration: time.Since(start),
			})
		}

		if err != nil {
			return outcomeFailed, err
		}
		if !next {
			if s.kind == KindTerminal {
				return outcomeConsumed, nil
			}
			return outcomeFiltered, nil
		}
		current = out
	}
	return outcomeUnconsumed, nil
}
