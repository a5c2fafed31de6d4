/*
Package pipeline builds chains of Map, Filter and ForEach steps over typed
values and feeds them either by explicit pushes or by draining a pausable
source.

# Quick Start

	entry := pipeline.NewPushEntry[int](nil)

	entry.
		Filter(func(_ context.Context, v int) (bool, error) { return v > 0, nil }).
		Map(func(_ context.Context, v int) (int, error) { return v * 2, nil }).
		ForEach(func(_ context.Context, v int) error {
			fmt.Println(v)
			return nil
		})

	err := entry.Push(ctx, 21) // prints 42

# Trees and Propagation

Map and Filter return a new Node derived from the receiver; ForEach seals
the receiver itself. Every step attached to a node is also appended to each
of its ancestors, so a root always carries every step registered anywhere
below it:

	root := pipeline.New[int]()
	root.Map(inc).ForEach(consume)
	// root.Steps(): map, terminal

A node whose last step is a Terminal is sealed. A sealed node silently
refuses further steps and propagation stops at it, so a second ForEach on
the same node has no effect.

Map on a Node keeps the value type. Use the package-level Map to change it:

	lengths := pipeline.Map(words, func(_ context.Context, s string) (int, error) {
		return len(s), nil
	})

# Push Entries

A PushEntry runs its own chain once per Push and returns the failing step's
error unchanged. Pushing into an entry that has no Terminal yet does
nothing and returns nil.

Entries may be chained. NewPushEntry(parent.Node) creates an entry below
parent; steps attached to the child reach parent too, but pushes into the
child only run the child's steps.

# Sources

A SourcePipeline drains a Source one item at a time. It pauses the source
on creation and starts draining once a Terminal reaches its root. Each
emitted item pauses the source, runs through the chain and resumes it, so
at most one item is ever in flight. Step failures on drained items are
dropped; use Config.OnDrop to observe them.

	p := pipeline.NewSource[string](source.FromSlice(lines))
	p.Filter(nonEmpty).ForEach(store)
	<-p.Done()

# Observability

Config carries a zerolog logger, an optional metrics.Registry and step
hooks shared by every node of one tree. Stats returns counters for the
whole tree.
*/
package pipeline
