/*
Package chainflow provides a Go library for building lazily sealed processing
chains that are fed by explicit pushes or by draining pausable sources.

Pipelines (pkg/pipeline):
  - Node: fluent Map, Filter and ForEach construction with upward step propagation
  - PushEntry: synchronous pushes that return the failing step's error
  - SourcePipeline: one-item-at-a-time draining of a pausable source

Sources (pkg/source):
  - Pausable: pause/resume engine over a Puller
  - Slice, Channel, Func, Empty and Cron pullers
  - Throttled: rate-limited pulls
  - redislist: BLPOP-based Redis list puller
  - redislimit: token bucket shared through Redis

Support:
  - metrics: Prometheus instrumentation
  - config: YAML, .env and CHAINFLOW_* environment configuration

Example usage:

	import (
		"github.com/vnykmshr/chainflow/pkg/pipeline"
		"github.com/vnykmshr/chainflow/pkg/source"
	)

	p := pipeline.NewSource[int](source.FromSlice([]int{1, 2, 3}))
	p.Map(double).ForEach(store)
	<-p.Done()
*/
package chainflow
