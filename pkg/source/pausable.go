package source

import (
	"context"
	"sync"

	cferrors "github.com/vnykmshr/chainflow/pkg/common/errors"
)

// Puller produces items on demand.
type Puller[T any] interface {
	// Next returns the next element and true, or zero value and false if no more elements.
	Next(ctx context.Context) (T, bool, error)
	// Close closes the puller and releases resources.
	Close() error
}

// Pausable turns a Puller into a pipeline source with pause/resume flow
// control. It starts paused. While resumed, a single goroutine pulls one
// item and hands it to the attached emit function synchronously; a Pause
// called from inside emit therefore takes effect before the next pull.
type Pausable[T any] struct {
	puller Puller[T]

	mu       sync.Mutex
	paused   bool
	attached bool
	closed   bool
	wake     chan struct{}

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

// New wraps puller in a paused Pausable source.
func New[T any](puller Puller[T]) *Pausable[T] {
	ctx, cancel := context.WithCancel(context.Background())
	return &Pausable[T]{
		puller: puller,
		paused: true,
		wake:   make(chan struct{}, 1),
		ctx:    ctx,
		cancel: cancel,
		done:   make(chan struct{}),
	}
}

// Pause stops pulling after the item currently being emitted, if any.
func (s *Pausable[T]) Pause() {
	s.mu.Lock()
	s.paused = true
	s.mu.Unlock()
}

// Resume restarts pulling.
func (s *Pausable[T]) Resume() {
	s.mu.Lock()
	s.paused = false
	s.mu.Unlock()

	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// Paused reports whether the source is currently paused.
func (s *Pausable[T]) Paused() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.paused
}

// Attach registers the handlers and starts the pull loop.
func (s *Pausable[T]) Attach(emit func(T), end func(error)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch {
	case s.closed:
		return cferrors.ErrClosed
	case s.attached:
		return cferrors.ErrAlreadyAttached
	}
	s.attached = true

	go s.loop(emit, end)
	return nil
}

// Close stops the pull loop and closes the puller. It is safe to call more
// than once.
func (s *Pausable[T]) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	attached := s.attached
	s.mu.Unlock()

	s.cancel()
	if attached {
		<-s.done
	}
	return s.puller.Close()
}

// Done returns a channel closed when the pull loop has exited.
func (s *Pausable[T]) Done() <-chan struct{} {
	return s.done
}

func (s *Pausable[T]) loop(emit func(T), end func(error)) {
	var err error
	defer func() {
		end(err)
		close(s.done)
	}()

	for {
		if !s.awaitResume() {
			return
		}

		item, ok, pullErr := s.puller.Next(s.ctx)
		if pullErr != nil {
			if s.ctx.Err() != nil {
				// closed while pulling
				return
			}
			err = pullErr
			return
		}
		if !ok {
			return
		}

		emit(item)
	}
}

// awaitResume blocks while paused. It returns false once the source is closed.
func (s *Pausable[T]) awaitResume() bool {
	for {
		if s.ctx.Err() != nil {
			return false
		}

		s.mu.Lock()
		paused := s.paused
		s.mu.Unlock()
		if !paused {
			return true
		}

		select {
		case <-s.wake:
		case <-s.ctx.Done():
			return false
		}
	}
}
