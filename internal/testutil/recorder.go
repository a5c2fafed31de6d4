package testutil

import (
	"context"
	"sync"
	"time"
)

// Record is one value seen by a Recorder.
type Record[T any] struct {
	Value T
	Start time.Time
	End   time.Time
}

// Recorder is a thread-safe consumer that keeps every value it receives.
// An optional Delay holds each call open to make overlap observable.
type Recorder[T any] struct {
	Delay time.Duration

	mu      sync.Mutex
	records []Record[T]
	active  int
	overlap int
}

// NewRecorder creates a Recorder that holds each call for delay.
func NewRecorder[T any](delay time.Duration) *Recorder[T] {
	return &Recorder[T]{Delay: delay}
}

// Consume records v. Its signature matches a pipeline terminal.
func (r *Recorder[T]) Consume(_ context.Context, v T) {
	start := time.Now()

	r.mu.Lock()
	r.active++
	if r.active > 1 {
		r.overlap++
	}
	r.mu.Unlock()

	if r.Delay > 0 {
		time.Sleep(r.Delay)
	}

	r.mu.Lock()
	r.active--
	r.records = append(r.records, Record[T]{Value: v, Start: start, End: time.Now()})
	r.mu.Unlock()
}

// Values returns the recorded values in arrival order.
func (r *Recorder[T]) Values() []T {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]T, len(r.records))
	for i, rec := range r.records {
		out[i] = rec.Value
	}
	return out
}

// Records returns a copy of the timestamped records.
func (r *Recorder[T]) Records() []Record[T] {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Record[T](nil), r.records...)
}

// Len returns the number of values recorded.
func (r *Recorder[T]) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.records)
}

// Overlaps returns how many calls started while another was still running.
func (r *Recorder[T]) Overlaps() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.overlap
}
