// Package redislist provides a pipeline source that drains a Redis list.
//
// Items are popped with BLPOP, one per pull, so a paused pipeline leaves
// unread items in Redis where other consumers can still take them.
package redislist

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	cferrors "github.com/vnykmshr/chainflow/pkg/common/errors"
	"github.com/vnykmshr/chainflow/pkg/common/validation"
	"github.com/vnykmshr/chainflow/pkg/source"
)

// Config configures a Redis list puller.
type Config struct {
	// Redis is the client used for BLPOP. The puller does not close it.
	Redis redis.UniversalClient

	// Key is the list to pop from.
	Key string

	// BlockTimeout bounds each BLPOP call (defaults to 1 second). Closing the
	// source may wait up to this long unless the client was created with
	// ContextTimeoutEnabled.
	BlockTimeout time.Duration

	// StopWhenEmpty ends the source when a BLPOP times out instead of
	// polling again.
	StopWhenEmpty bool
}

// DefaultConfig returns a default configuration; Redis and Key must still be set.
func DefaultConfig() Config {
	return Config{
		BlockTimeout: time.Second,
	}
}

// Decoder converts a popped list element into an item.
type Decoder[T any] func(raw string) (T, error)

// validateConfig validates the puller configuration.
func validateConfig(config Config) error {
	if err := validation.ValidateNotNil("redislist", "redis", config.Redis); err != nil {
		return err
	}
	if err := validation.ValidateNotEmpty("redislist", "key", config.Key); err != nil {
		return err
	}
	return validation.ValidateNonNegativeDuration("redislist", "block_timeout", config.BlockTimeout)
}

// NewPuller creates a Puller popping from config.Key and decoding with decode.
// A decode failure ends the source; decode leniently in a Map step instead
// when bad elements should only be dropped.
func NewPuller[T any](config Config, decode Decoder[T]) (source.Puller[T], error) {
	if err := validateConfig(config); err != nil {
		return nil, err
	}
	if config.BlockTimeout == 0 {
		config.BlockTimeout = DefaultConfig().BlockTimeout
	}
	return &puller[T]{config: config, decode: decode}, nil
}

// New creates a paused source of raw list elements.
func New(config Config) (*source.Pausable[string], error) {
	return NewDecoded(config, func(raw string) (string, error) { return raw, nil })
}

// NewDecoded creates a paused source of decoded list elements.
func NewDecoded[T any](config Config, decode Decoder[T]) (*source.Pausable[T], error) {
	p, err := NewPuller(config, decode)
	if err != nil {
		return nil, err
	}
	return source.New(p), nil
}

type puller[T any] struct {
	config Config
	decode Decoder[T]
}

func (p *puller[T]) Next(ctx context.Context) (T, bool, error) {
	var zero T

	for {
		res, err := p.config.Redis.BLPop(ctx, p.config.BlockTimeout, p.config.Key).Result()
		switch {
		case errors.Is(err, redis.Nil):
			if p.config.StopWhenEmpty {
				return zero, false, nil
			}
			continue
		case err != nil:
			if ctx.Err() != nil {
				return zero, false, ctx.Err()
			}
			return zero, false, cferrors.NewOperationError("redislist", "BLPOP", err).
				WithContext("key " + p.config.Key)
		}

		// BLPOP replies with [key, element].
		item, err := p.decode(res[1])
		if err != nil {
			return zero, false, cferrors.NewOperationError("redislist", "Decode", err).
				WithContext("key " + p.config.Key)
		}
		return item, true, nil
	}
}

func (p *puller[T]) Close() error {
	return nil
}
