package pipeline

import "context"

// Node is a handle on one position of a pipeline tree. Map and Filter return
// a new Node derived from the receiver; ForEach seals the receiver itself.
//
// Every step appended to a Node is also appended, in the same order, to each
// of its ancestors up to the root, so the root's chain always contains every
// step attached anywhere below it. A sealed node (one whose last step is a
// Terminal) silently refuses further steps, and propagation stops there.
type Node[T any] struct {
	n *node
}

// New creates an empty root Node with the default configuration.
func New[T any]() *Node[T] {
	return NewWithConfig[T](DefaultConfig())
}

// NewWithConfig creates an empty root Node with the specified configuration.
func NewWithConfig[T any](config Config) *Node[T] {
	return &Node[T]{n: newTree(config).root}
}

// Map appends a transform that keeps the value type. See the package-level
// Map for transforms that change it.
func (p *Node[T]) Map(transform func(ctx context.Context, value T) (T, error)) *Node[T] {
	return Map(p, transform)
}

// Filter appends a predicate; values for which it returns false are dropped
// without error.
func (p *Node[T]) Filter(predicate func(ctx context.Context, value T) (bool, error)) *Node[T] {
	step := NewFilterStep(func(ctx context.Context, value any) (bool, error) {
		return predicate(ctx, as[T](value))
	})
	return &Node[T]{n: p.n.derive(step)}
}

// ForEach attaches consumer as the terminal step of this node, sealing it.
// On an already sealed node the call has no effect.
func (p *Node[T]) ForEach(consumer func(ctx context.Context, value T) error) {
	p.n.append(NewTerminalStep(func(ctx context.Context, value any) error {
		return consumer(ctx, as[T](value))
	}))
}

// Steps returns a copy of the steps that apply to values entering at this node.
func (p *Node[T]) Steps() []*Step {
	return p.n.snapshot()
}

// Sealed reports whether the node's last step is a Terminal.
func (p *Node[T]) Sealed() bool {
	return sealed(p.n.snapshot())
}

// Name returns the pipeline name used in logs and metrics.
func (p *Node[T]) Name() string {
	return p.n.t.name
}

// Stats returns counters for the whole tree this node belongs to.
func (p *Node[T]) Stats() Stats {
	return p.n.t.stats.snapshot()
}

// Map appends a transform from I to O below p and returns the new Node.
func Map[I, O any](p *Node[I], transform func(ctx context.Context, value I) (O, error)) *Node[O] {
	step := NewMapStep(func(ctx context.Context, value any) (any, error) {
		return transform(ctx, as[I](value))
	})
	return &Node[O]{n: p.n.derive(step)}
}
