package pipeline

import (
	"context"
	"reflect"
	"sync"

	cferrors "github.com/vnykmshr/chainflow/pkg/common/errors"
)

// Source is a pull-based producer that can be paused and resumed.
//
// After Attach, the source calls emit once per item and only while resumed;
// a Pause issued from inside emit must be honoured before the next item is
// produced. end is called once when the source is exhausted (nil), closed
// (nil) or fails (non-nil); emit is not called after end.
type Source[T any] interface {
	// Pause stops emission until Resume is called.
	Pause()

	// Resume restarts emission.
	Resume()

	// Attach registers the handlers. It fails if handlers are already attached.
	Attach(emit func(T), end func(error)) error

	// Close stops the source and releases its resources.
	Close() error
}

// SourcePipeline is a root Node fed by a Source. Draining starts the first
// time a Terminal step is registered on it, either by ForEach on the
// SourcePipeline or by a ForEach below it that propagates up.
type SourcePipeline[T any] struct {
	*Node[T]
	pump *pump[T]
}

// NewSource creates a pipeline that drains src with the default configuration.
func NewSource[T any](src Source[T]) *SourcePipeline[T] {
	return NewSourceWithConfig(src, DefaultConfig())
}

// NewSourceWithConfig creates a pipeline that drains src with the specified
// configuration. The source is paused immediately.
func NewSourceWithConfig[T any](src Source[T], config Config) *SourcePipeline[T] {
	if isNil(src) {
		panic("source cannot be nil (including a typed nil pointer)")
	}

	root := newTree(config).root
	p := newPump(src, root)
	root.onSeal = p.start
	src.Pause()

	return &SourcePipeline[T]{Node: &Node[T]{n: root}, pump: p}
}

// Done returns a channel closed once the pump has stopped.
func (s *SourcePipeline[T]) Done() <-chan struct{} {
	return s.pump.done
}

// Err returns the source failure that stopped the pump, if any. Step
// failures are never reported here.
func (s *SourcePipeline[T]) Err() error {
	return s.pump.failure()
}

// Close stops the pump and closes the source. An item already being
// processed runs to completion with its context still live; no item is
// processed afterwards.
func (s *SourcePipeline[T]) Close() error {
	return s.pump.close()
}

// pump moves one item at a time from a Source into a sink node.
type pump[T any] struct {
	src  Source[T]
	sink *node

	// inflight is the single slot between the source's emit and run.
	inflight chan T
	ended    chan struct{}
	stop     chan struct{}
	done     chan struct{}

	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	started bool
	closed  bool
	err     error

	endOnce  sync.Once
	doneOnce sync.Once
}

func newPump[T any](src Source[T], sink *node) *pump[T] {
	ctx, cancel := context.WithCancel(context.Background())
	return &pump[T]{
		src:      src,
		sink:     sink,
		inflight: make(chan T, 1),
		ended:    make(chan struct{}),
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
		ctx:      ctx,
		cancel:   cancel,
	}
}

// start attaches to the source and resumes it. Only the first call has an effect.
func (p *pump[T]) start() {
	p.mu.Lock()
	if p.started || p.closed {
		p.mu.Unlock()
		return
	}
	p.started = true
	p.mu.Unlock()

	log := p.sink.t.log
	if err := p.src.Attach(p.emit, p.end); err != nil {
		p.setFailure(cferrors.NewOperationError("pipeline", "Attach", err))
		log.Warn().Err(err).Msg("pump could not attach to source")
		p.finish()
		return
	}

	log.Info().Msg("pump started")
	go p.run()
	p.src.Resume()
}

// emit is called by the source for each item.
func (p *pump[T]) emit(item T) {
	p.src.Pause()
	select {
	case p.inflight <- item:
	case <-p.stop:
	}
}

// end is called by the source once it stops emitting.
func (p *pump[T]) end(err error) {
	p.endOnce.Do(func() {
		if err != nil {
			p.setFailure(cferrors.NewOperationError("pipeline", "Drain", err))
			p.sink.t.log.Warn().Err(err).Msg("source failed")
		}
		close(p.ended)
	})
}

func (p *pump[T]) run() {
	defer p.finish()

	for {
		select {
		case <-p.stop:
			return
		case <-p.ended:
			// An item handed over just before end is still processed.
			select {
			case item := <-p.inflight:
				if !p.stopped() {
					p.handle(item)
				}
			default:
			}
			return
		case item := <-p.inflight:
			if p.stopped() {
				return
			}
			p.handle(item)
			p.src.Resume()
		}
	}
}

// handle processes one item. Step failures end here.
func (p *pump[T]) handle(item T) {
	t := p.sink.t
	t.stats.pumpItems.Add(1)
	if m := t.config.Metrics; m != nil {
		m.PumpItems.WithLabelValues(t.name).Inc()
		m.PumpInFlight.WithLabelValues(t.name).Set(1)
		defer m.PumpInFlight.WithLabelValues(t.name).Set(0)
	}

	_, err := t.process(p.ctx, p.sink.snapshot(), item)
	if err == nil {
		return
	}

	t.stats.pumpDropped.Add(1)
	if m := t.config.Metrics; m != nil {
		m.PumpDropped.WithLabelValues(t.name).Inc()
	}
	t.log.Debug().Err(err).Msg("pumped item dropped")
	if t.config.OnDrop != nil {
		t.config.OnDrop(item, err)
	}
}

// stopped reports whether Close was called.
func (p *pump[T]) stopped() bool {
	select {
	case <-p.stop:
		return true
	default:
		return false
	}
}

func (p *pump[T]) close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	started := p.started
	p.mu.Unlock()

	// The step context is cancelled by finish once run has returned.
	close(p.stop)
	if !started {
		p.finish()
	}
	return p.src.Close()
}

func (p *pump[T]) finish() {
	p.doneOnce.Do(func() {
		p.cancel()
		p.sink.t.log.Info().Msg("pump stopped")
		close(p.done)
	})
}

func (p *pump[T]) setFailure(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err == nil {
		p.err = err
	}
}

func (p *pump[T]) failure() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.err
}

func isNil(src any) bool {
	if src == nil {
		return true
	}
	v := reflect.ValueOf(src)
	switch v.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		return v.IsNil()
	}
	return false
}
