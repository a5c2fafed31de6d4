package pipeline

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// tree is the state shared by all nodes grown from one root.
type tree struct {
	// mu serialises appends against step snapshots taken for processing.
	mu sync.RWMutex

	name   string
	config Config
	log    zerolog.Logger
	root   *node
	stats  counters
}

// node is one handle position in a tree.
type node struct {
	t        *tree
	steps    []*Step
	ancestor *node

	// onSeal runs after a Terminal step is appended to this node.
	onSeal func()
}

func newTree(config Config) *tree {
	name := config.Name
	if name == "" {
		name = "pipeline-" + uuid.NewString()
	}

	log := zerolog.Nop()
	if config.Logger != nil {
		log = config.Logger.With().Str("pipeline", name).Logger()
	}

	t := &tree{
		name:   name,
		config: config,
		log:    log,
	}
	t.root = &node{t: t}
	return t
}

// child creates an empty node derived from n.
func (n *node) child() *node {
	return &node{t: n.t, ancestor: n}
}

// derive creates a child of n holding step, propagating it upward.
func (n *node) derive(step *Step) *node {
	c := n.child()
	c.append(step)
	return c
}

// append adds step to n and propagates it to n's ancestors. It reports
// whether n itself accepted the step.
func (n *node) append(step *Step) bool {
	n.t.mu.Lock()
	accepted, hooks := n.appendLocked(step, nil)
	chainLength := len(n.t.root.steps)
	n.t.mu.Unlock()

	if m := n.t.config.Metrics; m != nil {
		m.ChainLength.WithLabelValues(n.t.name).Set(float64(chainLength))
	}
	for _, hook := range hooks {
		hook()
	}
	return accepted
}

// appendLocked walks upward, stopping at the first node that is sealed.
// Seal hooks are collected so they run after the lock is released.
func (n *node) appendLocked(step *Step, hooks []func()) (bool, []func()) {
	if sealed(n.steps) {
		n.t.log.Debug().Str("kind", step.kind.String()).Msg("step refused by sealed node")
		return false, hooks
	}

	n.steps = append(n.steps, step)
	if step.kind == KindTerminal && n.onSeal != nil {
		hooks = append(hooks, n.onSeal)
	}

	if n.ancestor != nil {
		_, hooks = n.ancestor.appendLocked(step, hooks)
	}
	return true, hooks
}

// snapshot returns a copy of n's steps safe to iterate without the lock.
func (n *node) snapshot() []*Step {
	n.t.mu.RLock()
	defer n.t.mu.RUnlock()

	steps := make([]*Step, len(n.steps))
	copy(steps, n.steps)
	return steps
}

// process runs value through steps and records the outcome.
func (t *tree) process(ctx context.Context, steps []*Step, value any) (outcome, error) {
	o, err := run(ctx, t, steps, value)
	t.stats.record(o)
	if m := t.config.Metrics; m != nil {
		m.Values.WithLabelValues(t.name, o.String()).Inc()
	}
	return o, err
}

func (t *tree) stepStart(kind StepKind, input any) {
	if t.config.OnStepStart != nil {
		t.config.OnStepStart(kind, input)
	}
}

func (t *tree) stepComplete(result StepResult) {
	if m := t.config.Metrics; m != nil {
		m.StepLatency.WithLabelValues(t.name, result.Kind.String()).Observe(result.Duration.Seconds())
		if result.Error != nil {
			m.StepErrors.WithLabelValues(t.name, result.Kind.String()).Inc()
		}
	}
	if t.config.OnStepComplete != nil {
		t.config.OnStepComplete(result)
	}
}
