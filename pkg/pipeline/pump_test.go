package pipeline

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/vnykmshr/chainflow/internal/testutil"
	cferrors "github.com/vnykmshr/chainflow/pkg/common/errors"
	"github.com/vnykmshr/chainflow/pkg/source"
)

const drainTimeout = 2 * time.Second

// failingPuller yields n items and then fails.
type failingPuller struct {
	n   int
	err error
}

func (f *failingPuller) Next(context.Context) (int, bool, error) {
	if f.n > 0 {
		f.n--
		return f.n, true, nil
	}
	return 0, false, f.err
}

func (f *failingPuller) Close() error { return nil }

func TestSource_DrainsInOrder(t *testing.T) {
	p := NewSource[int](source.FromSlice([]int{1, 2, 3}))
	rec := testutil.NewRecorder[int](0)
	p.ForEach(func(ctx context.Context, v int) error {
		rec.Consume(ctx, v)
		return nil
	})

	testutil.WaitClosed(t, p.Done(), drainTimeout)

	got := rec.Values()
	testutil.AssertEqual(t, len(got), 3)
	for i, v := range got {
		testutil.AssertEqual(t, v, i+1)
	}
	testutil.AssertNoError(t, p.Err())
	testutil.AssertEqual(t, p.Stats().PumpItems, int64(3))
	testutil.AssertNoError(t, p.Close())
}

func TestSource_StartedByDescendantForEach(t *testing.T) {
	p := NewSource[int](source.FromSlice([]int{1, 2, 3, 4}))
	rec := testutil.NewRecorder[int](0)
	p.Filter(even).Map(double).ForEach(func(ctx context.Context, v int) error {
		rec.Consume(ctx, v)
		return nil
	})

	testutil.WaitClosed(t, p.Done(), drainTimeout)

	got := rec.Values()
	testutil.AssertEqual(t, len(got), 2)
	testutil.AssertEqual(t, got[0], 4)
	testutil.AssertEqual(t, got[1], 8)
	assertKinds(t, p.Steps(), KindFilter, KindMap, KindTerminal)
}

func TestSource_NotDrainedUntilSealed(t *testing.T) {
	var pulls atomic.Int64
	src := source.FromFunc(func() int { return int(pulls.Add(1)) })
	p := NewSource[int](src)
	p.Map(inc).Filter(even)

	time.Sleep(30 * time.Millisecond)
	testutil.AssertEqual(t, pulls.Load(), int64(0))
	testutil.AssertEqual(t, src.Paused(), true)

	testutil.AssertNoError(t, p.Close())
	testutil.WaitClosed(t, p.Done(), drainTimeout)
}

func TestSource_SingleItemInFlight(t *testing.T) {
	p := NewSource[int](source.FromSlice([]int{1, 2, 3}))
	rec := testutil.NewRecorder[int](25 * time.Millisecond)
	p.ForEach(func(ctx context.Context, v int) error {
		rec.Consume(ctx, v)
		return nil
	})

	testutil.WaitClosed(t, p.Done(), drainTimeout)

	recs := rec.Records()
	testutil.AssertEqual(t, len(recs), 3)
	testutil.AssertEqual(t, rec.Overlaps(), 0)
	for i := 1; i < len(recs); i++ {
		if recs[i].Start.Before(recs[i-1].End) {
			t.Errorf("item %d started before item %d finished", recs[i].Value, recs[i-1].Value)
		}
	}
}

func TestSource_NoPullWhileProcessing(t *testing.T) {
	var pulls atomic.Int64
	src := source.FromFunc(func() int { return int(pulls.Add(1)) })
	p := NewSource[int](src)

	entered := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once
	p.ForEach(func(context.Context, int) error {
		once.Do(func() { close(entered) })
		<-release
		return nil
	})

	testutil.WaitClosed(t, entered, drainTimeout)
	time.Sleep(30 * time.Millisecond)

	testutil.AssertEqual(t, pulls.Load(), int64(1))
	testutil.AssertEqual(t, src.Paused(), true)

	close(release)
	testutil.AssertEventually(t, func() bool { return pulls.Load() > 1 })

	testutil.AssertNoError(t, p.Close())
	testutil.WaitClosed(t, p.Done(), drainTimeout)
}

func TestSource_StepFailureDroppedAndDrainContinues(t *testing.T) {
	boom := errors.New("bad item")
	var (
		mu      sync.Mutex
		dropped []any
	)
	config := Config{
		OnDrop: func(v any, err error) {
			mu.Lock()
			defer mu.Unlock()
			if err == boom {
				dropped = append(dropped, v)
			}
		},
	}

	p := NewSourceWithConfig[int](source.FromSlice([]int{1, 2, 3}), config)
	rec := testutil.NewRecorder[int](0)
	p.ForEach(func(ctx context.Context, v int) error {
		if v == 2 {
			return boom
		}
		rec.Consume(ctx, v)
		return nil
	})

	testutil.WaitClosed(t, p.Done(), drainTimeout)

	got := rec.Values()
	testutil.AssertEqual(t, len(got), 2)
	testutil.AssertEqual(t, got[0], 1)
	testutil.AssertEqual(t, got[1], 3)

	mu.Lock()
	testutil.AssertEqual(t, len(dropped), 1)
	testutil.AssertEqual(t, dropped[0], any(2))
	mu.Unlock()

	// Step failures never surface as a pump error.
	testutil.AssertNoError(t, p.Err())
	stats := p.Stats()
	testutil.AssertEqual(t, stats.PumpDropped, int64(1))
	testutil.AssertEqual(t, stats.Failed, int64(1))
	testutil.AssertEqual(t, stats.Consumed, int64(2))
}

func TestSource_LaterBranchTerminalNeverFires(t *testing.T) {
	// Once the root is sealed, a branch's ForEach does not reach it and the
	// branch never receives drained items.
	p := NewSource[int](source.FromSlice([]int{1, 2}))
	first := testutil.NewCallbackTracker()
	p.ForEach(func(_ context.Context, v int) error {
		first.Mark(v)
		return nil
	})

	branch := testutil.NewCallbackTracker()
	p.Map(double).ForEach(func(_ context.Context, v int) error {
		branch.Mark(v)
		return nil
	})

	testutil.WaitClosed(t, p.Done(), drainTimeout)
	first.AssertCallCount(t, 2)
	branch.AssertNotCalled(t)
}

func TestSource_CloseStopsPump(t *testing.T) {
	var n atomic.Int64
	p := NewSource[int](source.FromFunc(func() int { return int(n.Add(1)) }))
	rec := testutil.NewRecorder[int](time.Millisecond)
	p.ForEach(func(ctx context.Context, v int) error {
		rec.Consume(ctx, v)
		return nil
	})

	testutil.AssertEventually(t, func() bool { return rec.Len() >= 3 })

	testutil.AssertNoError(t, p.Close())
	testutil.WaitClosed(t, p.Done(), drainTimeout)

	seen := rec.Len()
	time.Sleep(20 * time.Millisecond)
	testutil.AssertEqual(t, rec.Len(), seen)

	// Closing again is harmless.
	testutil.AssertNoError(t, p.Close())
}

func TestSource_CloseBeforeStart(t *testing.T) {
	p := NewSource[int](source.FromSlice([]int{1}))
	testutil.AssertNoError(t, p.Close())
	testutil.WaitClosed(t, p.Done(), drainTimeout)

	// Sealing after close does not start draining.
	tracker := testutil.NewCallbackTracker()
	p.ForEach(func(context.Context, int) error {
		tracker.Mark()
		return nil
	})
	time.Sleep(20 * time.Millisecond)
	tracker.AssertNotCalled(t)
}

func TestSource_PullerFailureReported(t *testing.T) {
	pullErr := errors.New("connection reset")
	p := NewSource[int](source.New[int](&failingPuller{n: 2, err: pullErr}))

	tracker := testutil.NewCallbackTracker()
	p.ForEach(func(_ context.Context, v int) error {
		tracker.Mark(v)
		return nil
	})

	testutil.WaitClosed(t, p.Done(), drainTimeout)
	tracker.AssertCallCount(t, 2)

	err := p.Err()
	testutil.AssertError(t, err)
	if !errors.Is(err, pullErr) {
		t.Errorf("Err() = %v, want wrapping %v", err, pullErr)
	}
	var opErr *cferrors.OperationError
	if !errors.As(err, &opErr) {
		t.Fatalf("Err() = %T, want *OperationError", err)
	}
	testutil.AssertEqual(t, opErr.Operation, "Drain")
}

func TestSource_AttachFailureReported(t *testing.T) {
	src := source.FromSlice([]int{1})
	testutil.AssertNoError(t, src.Attach(func(int) {}, func(error) {}))
	t.Cleanup(func() { src.Close() })

	p := NewSource[int](src)
	p.ForEach(discard)

	testutil.WaitClosed(t, p.Done(), drainTimeout)
	if !errors.Is(p.Err(), cferrors.ErrAlreadyAttached) {
		t.Errorf("Err() = %v, want %v", p.Err(), cferrors.ErrAlreadyAttached)
	}
}

func TestSource_EmptySource(t *testing.T) {
	p := NewSource[int](source.New(source.Empty[int]()))
	tracker := testutil.NewCallbackTracker()
	p.ForEach(func(context.Context, int) error {
		tracker.Mark()
		return nil
	})

	testutil.WaitClosed(t, p.Done(), drainTimeout)
	tracker.AssertNotCalled(t)
	testutil.AssertNoError(t, p.Err())
}

func TestNewSource_NilPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for nil source")
		}
	}()
	NewSource[int](nil)
}

// handoffSource emits one item per Resume and calls end as soon as it has
// handed over the last one, without waiting for it to be processed.
type handoffSource struct {
	mu    sync.Mutex
	items []int
	emit  func(int)
	end   func(error)
}

func (s *handoffSource) Pause() {}

func (s *handoffSource) Resume() {
	s.mu.Lock()
	if s.emit == nil || len(s.items) == 0 {
		s.mu.Unlock()
		return
	}
	v := s.items[0]
	s.items = s.items[1:]
	last := len(s.items) == 0
	emit, end := s.emit, s.end
	s.mu.Unlock()

	emit(v)
	if last {
		end(nil)
	}
}

func (s *handoffSource) Attach(emit func(int), end func(error)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.emit != nil {
		return cferrors.ErrAlreadyAttached
	}
	s.emit, s.end = emit, end
	return nil
}

func (s *handoffSource) Close() error { return nil }

func TestSource_ItemEmittedBeforeEndIsProcessed(t *testing.T) {
	for run := 0; run < 50; run++ {
		p := NewSource[int](&handoffSource{items: []int{1, 2, 3}})
		rec := testutil.NewRecorder[int](0)
		p.ForEach(func(ctx context.Context, v int) error {
			rec.Consume(ctx, v)
			return nil
		})

		testutil.WaitClosed(t, p.Done(), drainTimeout)
		got := rec.Values()
		if len(got) != 3 {
			t.Fatalf("run %d: processed %v, want [1 2 3]", run, got)
		}
		for i, v := range got {
			testutil.AssertEqual(t, v, i+1)
		}
		testutil.AssertNoError(t, p.Close())
	}
}

func TestSource_CloseLetsInFlightItemFinish(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	var cancelled atomic.Bool

	p := NewSource[int](source.FromSlice([]int{1, 2, 3}))
	tracker := testutil.NewCallbackTracker()
	p.ForEach(func(ctx context.Context, v int) error {
		tracker.Mark(v)
		if v == 1 {
			close(entered)
			<-release
			cancelled.Store(ctx.Err() != nil)
		}
		return nil
	})

	testutil.WaitClosed(t, entered, drainTimeout)
	testutil.AssertNoError(t, p.Close())

	select {
	case <-p.Done():
		t.Fatal("pump stopped before the in-flight item finished")
	default:
	}

	close(release)
	testutil.WaitClosed(t, p.Done(), drainTimeout)
	testutil.AssertEqual(t, cancelled.Load(), false)
	tracker.AssertCallCount(t, 1)
}

func TestNewSource_TypedNilPanics(t *testing.T) {
	defer func() {
		r := recover()
		if r == nil {
			t.Fatal("expected panic for typed nil source")
		}
		if msg, _ := r.(string); msg != "source cannot be nil (including a typed nil pointer)" {
			t.Errorf("panic = %v", r)
		}
	}()
	var src *source.Pausable[int]
	NewSource[int](src)
}
