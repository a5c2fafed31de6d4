package source

import (
	"context"
	"sync/atomic"
)

// Slice returns a Puller over items.
func Slice[T any](items []T) Puller[T] {
	return &slicePuller[T]{slice: items}
}

// Channel returns a Puller that receives from ch until it is closed.
func Channel[T any](ch <-chan T) Puller[T] {
	return &channelPuller[T]{ch: ch}
}

// Func returns an endless Puller backed by a generator function.
func Func[T any](generator func() T) Puller[T] {
	return &generatorPuller[T]{generator: generator}
}

// Empty returns a Puller that is exhausted immediately.
func Empty[T any]() Puller[T] {
	return &emptyPuller[T]{}
}

// FromSlice creates a paused source over items.
func FromSlice[T any](items []T) *Pausable[T] {
	return New(Slice(items))
}

// FromChannel creates a paused source over ch.
func FromChannel[T any](ch <-chan T) *Pausable[T] {
	return New(Channel(ch))
}

// FromFunc creates a paused, endless source backed by generator.
func FromFunc[T any](generator func() T) *Pausable[T] {
	return New(Func(generator))
}

// slicePuller implements Puller for slices.
type slicePuller[T any] struct {
	slice []T
	index int64
}

func (s *slicePuller[T]) Next(ctx context.Context) (T, bool, error) {
	var zero T

	currentIndex := atomic.AddInt64(&s.index, 1) - 1
	if currentIndex >= int64(len(s.slice)) {
		return zero, false, nil
	}

	select {
	case <-ctx.Done():
		return zero, false, ctx.Err()
	default:
		return s.slice[currentIndex], true, nil
	}
}

func (s *slicePuller[T]) Close() error {
	return nil
}

// channelPuller implements Puller for channels.
type channelPuller[T any] struct {
	ch <-chan T
}

func (s *channelPuller[T]) Next(ctx context.Context) (T, bool, error) {
	var zero T

	select {
	case value, ok := <-s.ch:
		if !ok {
			return zero, false, nil
		}
		return value, true, nil
	case <-ctx.Done():
		return zero, false, ctx.Err()
	}
}

func (s *channelPuller[T]) Close() error {
	return nil
}

// generatorPuller implements Puller for generator functions.
type generatorPuller[T any] struct {
	generator func() T
}

func (s *generatorPuller[T]) Next(ctx context.Context) (T, bool, error) {
	select {
	case <-ctx.Done():
		var zero T
		return zero, false, ctx.Err()
	default:
		return s.generator(), true, nil
	}
}

func (s *generatorPuller[T]) Close() error {
	return nil
}

// emptyPuller implements Puller for empty sources.
type emptyPuller[T any] struct{}

func (s *emptyPuller[T]) Next(_ context.Context) (T, bool, error) {
	var zero T
	return zero, false, nil
}

func (s *emptyPuller[T]) Close() error {
	return nil
}
