// Package redislimit provides a token bucket shared through Redis, so that
// several processes draining the same source stay under one combined rate.
package redislimit

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	cferrors "github.com/vnykmshr/chainflow/pkg/common/errors"
	"github.com/vnykmshr/chainflow/pkg/common/validation"
)

// Config holds configuration for a shared limiter.
type Config struct {
	// Redis client for coordination. The limiter does not close it.
	Redis redis.UniversalClient

	// Key is the Redis hash holding the bucket state.
	Key string

	// Rate is the number of tokens added per second.
	Rate float64

	// Burst is the maximum number of tokens that can be stored.
	Burst int

	// RedisTimeout bounds each script call (defaults to 500ms).
	RedisTimeout time.Duration

	// KeyTTL expires idle bucket state (defaults to 1 hour).
	KeyTTL time.Duration
}

// DefaultConfig returns a default configuration; Redis, Key, Rate and Burst
// must still be set.
func DefaultConfig() Config {
	return Config{
		RedisTimeout: 500 * time.Millisecond,
		KeyTTL:       time.Hour,
	}
}

// Limiter is a token bucket whose state lives in Redis.
type Limiter struct {
	config Config
	script *redis.Script
}

// New creates a shared limiter.
func New(config Config) (*Limiter, error) {
	if err := validateConfig(config); err != nil {
		return nil, err
	}
	defaults := DefaultConfig()
	if config.RedisTimeout == 0 {
		config.RedisTimeout = defaults.RedisTimeout
	}
	if config.KeyTTL == 0 {
		config.KeyTTL = defaults.KeyTTL
	}
	return &Limiter{config: config, script: redis.NewScript(luaTake)}, nil
}

func validateConfig(config Config) error {
	if err := validation.ValidateNotNil("redislimit", "redis", config.Redis); err != nil {
		return err
	}
	if err := validation.ValidateNotEmpty("redislimit", "key", config.Key); err != nil {
		return err
	}
	if err := validation.ValidatePositiveFloat("redislimit", "rate", config.Rate); err != nil {
		return err
	}
	if err := validation.ValidatePositive("redislimit", "burst", config.Burst); err != nil {
		return err
	}
	if err := validation.ValidateNonNegativeDuration("redislimit", "redis_timeout", config.RedisTimeout); err != nil {
		return err
	}
	return validation.ValidateNonNegativeDuration("redislimit", "key_ttl", config.KeyTTL)
}

// Allow takes a token if one is available now.
func (l *Limiter) Allow(ctx context.Context) (bool, error) {
	delay, err := l.Reserve(ctx)
	if err != nil {
		return false, err
	}
	return delay == 0, nil
}

// Reserve tries to take a token. It returns zero when the token was taken,
// or how long to wait before a token will be available.
func (l *Limiter) Reserve(ctx context.Context) (time.Duration, error) {
	ctx, cancel := context.WithTimeout(ctx, l.config.RedisTimeout)
	defer cancel()

	res, err := l.script.Run(ctx, l.config.Redis, []string{l.config.Key},
		strconv.FormatFloat(float64(time.Now().UnixNano())/1e9, 'f', 6, 64),
		strconv.FormatFloat(l.config.Rate, 'f', -1, 64),
		l.config.Burst,
		l.config.KeyTTL.Milliseconds(),
	).Slice()
	if err != nil {
		return 0, cferrors.NewOperationError("redislimit", "Reserve", err).WithContext("key " + l.config.Key)
	}

	// Lua numbers are truncated to integers in replies, so the delay is a string.
	if len(res) != 2 {
		return 0, cferrors.NewOperationError("redislimit", "Reserve", fmt.Errorf("unexpected reply %v", res))
	}
	if allowed, _ := res[0].(int64); allowed == 1 {
		return 0, nil
	}
	raw, _ := res[1].(string)
	seconds, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, cferrors.NewOperationError("redislimit", "Reserve", err)
	}
	return time.Duration(seconds * float64(time.Second)), nil
}

// Wait blocks until a token is taken or ctx is done.
func (l *Limiter) Wait(ctx context.Context) error {
	for {
		delay, err := l.Reserve(ctx)
		if err != nil {
			return err
		}
		if delay == 0 {
			return nil
		}

		// Another process may take the refilled token first; retry after waiting.
		timer := time.NewTimer(delay)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		}
	}
}

// Reset clears the shared bucket state.
func (l *Limiter) Reset(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, l.config.RedisTimeout)
	defer cancel()
	if err := l.config.Redis.Del(ctx, l.config.Key).Err(); err != nil {
		return cferrors.NewOperationError("redislimit", "Reset", err)
	}
	return nil
}

// luaTake refills the bucket for the time passed and takes one token.
//
// KEYS[1]: bucket hash (fields tokens, last)
// ARGV[1]: now in seconds, ARGV[2]: rate, ARGV[3]: burst, ARGV[4]: ttl ms
const luaTake = `
local key = KEYS[1]
local now = tonumber(ARGV[1])
local rate = tonumber(ARGV[2])
local burst = tonumber(ARGV[3])
local ttl = tonumber(ARGV[4])

local state = redis.call('HMGET', key, 'tokens', 'last')
local tokens = tonumber(state[1]) or burst
local last = tonumber(state[2]) or now

local elapsed = math.max(0, now - last)
tokens = math.min(burst, tokens + elapsed * rate)

local allowed = 0
local delay = 0
if tokens >= 1 then
    tokens = tokens - 1
    allowed = 1
else
    delay = (1 - tokens) / rate
end

redis.call('HSET', key, 'tokens', tostring(tokens), 'last', tostring(now))
if ttl > 0 then
    redis.call('PEXPIRE', key, ttl)
end

return {allowed, tostring(delay)}
`
