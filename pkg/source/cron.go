package source

import (
	"context"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/vnykmshr/chainflow/pkg/common/validation"
)

// CronConfig configures a cron-driven Puller.
type CronConfig struct {
	// Spec is a cron expression with an optional leading seconds field, or
	// a descriptor such as "@hourly" or "@every 5s". Ignored if Schedule is set.
	Spec string

	// Schedule overrides Spec with a prepared schedule.
	Schedule cron.Schedule

	// Location is the time zone used to evaluate Spec. Defaults to time.Local.
	Location *time.Location

	// MaxTicks ends the source after this many items (0 = unlimited).
	MaxTicks int
}

// cronParser accepts both five and six field expressions.
var cronParser = cron.NewParser(
	cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

// ParseCron validates a cron expression.
func ParseCron(spec string) (cron.Schedule, error) {
	return cronParser.Parse(spec)
}

// Cron returns a Puller yielding generate(tick) for each schedule tick. The
// scheduler starts on the first Next; ticks that fire while nobody is pulling
// are coalesced into a single pending tick.
func Cron[T any](config CronConfig, generate func(tick time.Time) T) (Puller[T], error) {
	schedule := config.Schedule
	if schedule == nil {
		if err := validation.ValidateNotEmpty("source", "cron", config.Spec); err != nil {
			return nil, err
		}
		var err error
		if schedule, err = ParseCron(config.Spec); err != nil {
			return nil, err
		}
	}
	if config.MaxTicks < 0 {
		return nil, validation.ValidatePositive("source", "max_ticks", config.MaxTicks)
	}

	loc := config.Location
	if loc == nil {
		loc = time.Local
	}

	p := &cronPuller[T]{
		generate: generate,
		ticks:    make(chan time.Time, 1),
		maxTicks: config.MaxTicks,
		cron:     cron.New(cron.WithLocation(loc)),
	}
	p.cron.Schedule(schedule, cron.FuncJob(p.tick))
	return p, nil
}

// FromCron creates a paused cron-driven source.
func FromCron[T any](config CronConfig, generate func(tick time.Time) T) (*Pausable[T], error) {
	p, err := Cron(config, generate)
	if err != nil {
		return nil, err
	}
	return New(p), nil
}

type cronPuller[T any] struct {
	generate func(time.Time) T
	ticks    chan time.Time
	maxTicks int
	emitted  int
	cron     *cron.Cron

	mu      sync.Mutex
	started bool
	closed  bool
}

// start runs the scheduler once, unless the puller is already closed.
func (p *cronPuller[T]) start() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.started || p.closed {
		return
	}
	p.started = true
	p.cron.Start()
}

func (p *cronPuller[T]) running() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.started
}

func (p *cronPuller[T]) tick() {
	select {
	case p.ticks <- time.Now():
	default:
	}
}

func (p *cronPuller[T]) Next(ctx context.Context) (T, bool, error) {
	var zero T
	if p.maxTicks > 0 && p.emitted >= p.maxTicks {
		return zero, false, nil
	}
	p.start()

	select {
	case at := <-p.ticks:
		p.emitted++
		return p.generate(at), true, nil
	case <-ctx.Done():
		return zero, false, ctx.Err()
	}
}

func (p *cronPuller[T]) Close() error {
	p.mu.Lock()
	p.closed = true
	started := p.started
	p.mu.Unlock()

	if started {
		<-p.cron.Stop().Done()
	}
	return nil
}
