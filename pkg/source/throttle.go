package source

import (
	"context"

	"golang.org/x/time/rate"
)

// Limiter blocks until one more pull is allowed. *rate.Limiter satisfies it,
// as does the Redis-backed limiter in redislimit.
type Limiter interface {
	Wait(ctx context.Context) error
}

// Throttled returns a Puller that waits on limiter before each pull of p.
// Waiting honours ctx, so closing the source interrupts it.
func Throttled[T any](p Puller[T], limiter Limiter) Puller[T] {
	return &throttledPuller[T]{puller: p, limiter: limiter}
}

// NewLimiter builds a limiter allowing perSecond pulls with the given burst.
func NewLimiter(perSecond float64, burst int) *rate.Limiter {
	return rate.NewLimiter(rate.Limit(perSecond), burst)
}

type throttledPuller[T any] struct {
	puller  Puller[T]
	limiter Limiter
}

func (t *throttledPuller[T]) Next(ctx context.Context) (T, bool, error) {
	if err := t.limiter.Wait(ctx); err != nil {
		var zero T
		return zero, false, err
	}
	return t.puller.Next(ctx)
}

func (t *throttledPuller[T]) Close() error {
	return t.puller.Close()
}
