package pipeline

import (
	"sync/atomic"
	"time"
)

// Stats holds counters for one pipeline tree.
type Stats struct {
	// Pushes counts Push calls that ran the chain.
	Pushes int64

	// SkippedPushes counts Push calls on unsealed entries.
	SkippedPushes int64

	// Processed counts values run through a chain by Push or a pump.
	Processed int64

	// Consumed counts values that reached a Terminal step without error.
	Consumed int64

	// Filtered counts values rejected by a Filter step.
	Filtered int64

	// Unconsumed counts values that ran off the end of a chain without a Terminal.
	Unconsumed int64

	// Failed counts values whose processing ended with a step error.
	Failed int64

	// PumpItems counts items drained from a source.
	PumpItems int64

	// PumpDropped counts drained items lost to a failing step.
	PumpDropped int64

	// LastProcessedAt is when a value last finished processing.
	LastProcessedAt time.Time
}

// counters is the lock-free backing store for Stats.
type counters struct {
	pushes          atomic.Int64
	skippedPushes   atomic.Int64
	processed       atomic.Int64
	consumed        atomic.Int64
	filtered        atomic.Int64
	unconsumed      atomic.Int64
	failed          atomic.Int64
	pumpItems       atomic.Int64
	pumpDropped     atomic.Int64
	lastProcessedAt atomic.Int64 // unix nanos
}

func (c *counters) record(o outcome) {
	c.processed.Add(1)
	switch o {
	case outcomeConsumed:
		c.consumed.Add(1)
	case outcomeFiltered:
		c.filtered.Add(1)
	case outcomeUnconsumed:
		c.unconsumed.Add(1)
	case outcomeFailed:
		c.failed.Add(1)
	}
	c.lastProcessedAt.Store(time.Now().UnixNano())
}

func (c *counters) snapshot() Stats {
	s := Stats{
		Pushes:        c.pushes.Load(),
		SkippedPushes: c.skippedPushes.Load(),
		Processed:     c.processed.Load(),
		Consumed:      c.consumed.Load(),
		Filtered:      c.filtered.Load(),
		Unconsumed:    c.unconsumed.Load(),
		Failed:        c.failed.Load(),
		PumpItems:     c.pumpItems.Load(),
		PumpDropped:   c.pumpDropped.Load(),
	}
	if ns := c.lastProcessedAt.Load(); ns != 0 {
		s.LastProcessedAt = time.Unix(0, ns)
	}
	return s
}
