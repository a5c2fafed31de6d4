/*
Package source provides pull-based, pausable sources for pipeline.NewSource.

A Puller yields one item per Next call. Pausable wraps any Puller in the
pause/resume contract the pipeline pump relies on: it starts paused, pulls
only while resumed, and delivers each item synchronously so the pump can
pause it before the next pull. At most one item is outstanding at a time.

Pullers:

  - Slice, Channel, Func, Empty: in-memory producers
  - Cron: one item per tick of a robfig/cron schedule
  - Throttled: waits on a Limiter before each pull; a golang.org/x/time/rate
    limiter, or a redislimit.Limiter shared through Redis
  - redislist.NewPuller: BLPOP from a Redis list (subpackage)

Example:

	src := source.New(source.Throttled(source.Slice([]int{1, 2, 3}), source.NewLimiter(10, 1)))
	p := pipeline.NewSource[int](src)
	p.ForEach(func(ctx context.Context, v int) error {
		fmt.Println(v)
		return nil
	})
	<-p.Done()
*/
package source
