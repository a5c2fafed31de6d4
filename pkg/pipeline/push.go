package pipeline

import "context"

// Push results recorded in metrics.
const (
	pushProcessed = "processed"
	pushFailed    = "failed"
	pushUnsealed  = "unsealed"
)

// PushEntry is a Node that accepts values from the caller.
type PushEntry[T any] struct {
	*Node[T]
}

// NewPushEntry creates a push entry derived from ancestor, sharing its tree,
// so steps attached to the entry also register on ancestor's chain. A nil
// ancestor creates a standalone root with the default configuration.
func NewPushEntry[T any](ancestor *Node[T]) *PushEntry[T] {
	if ancestor == nil {
		return NewPushEntryWithConfig[T](DefaultConfig())
	}
	return &PushEntry[T]{Node: &Node[T]{n: ancestor.n.child()}}
}

// NewPushEntryWithConfig creates a standalone push entry with the specified configuration.
func NewPushEntryWithConfig[T any](config Config) *PushEntry[T] {
	return &PushEntry[T]{Node: NewWithConfig[T](config)}
}

// Push runs value through the entry's chain and returns when processing has
// finished. The error is the failing step's error, unchanged.
//
// If the chain is not sealed Push does nothing and returns nil. Concurrent
// Push calls are not serialised; await each call when order matters.
func (e *PushEntry[T]) Push(ctx context.Context, value T) error {
	t := e.n.t
	steps := e.n.snapshot()

	if !sealed(steps) {
		t.stats.skippedPushes.Add(1)
		t.countPush(pushUnsealed)
		t.log.Debug().Int("steps", len(steps)).Msg("push ignored: chain has no terminal step")
		return nil
	}

	t.stats.pushes.Add(1)
	_, err := t.process(ctx, steps, value)
	if err != nil {
		t.countPush(pushFailed)
		return err
	}
	t.countPush(pushProcessed)
	return nil
}

func (t *tree) countPush(result string) {
	if m := t.config.Metrics; m != nil {
		m.Pushes.WithLabelValues(t.name, result).Inc()
	}
}
