// Package metrics provides Prometheus instrumentation for chainflow pipelines.
//
// A Registry is a set of metric vectors registered once on a Prometheus
// Registerer. Create one Registry per Registerer and share it between
// pipelines through pipeline.Config.Metrics; registering a second Registry
// on the same Registerer panics, as with any promauto collector.
//
// # Quick Start
//
//	reg := metrics.NewRegistry(prometheus.DefaultRegisterer)
//
//	entry := pipeline.NewPushEntryWithConfig[int](pipeline.Config{
//		Name:    "orders",
//		Metrics: reg,
//	})
//
// Then expose metrics via HTTP:
//
//	http.Handle("/metrics", promhttp.Handler())
//
// # Available Metrics
//
//   - chainflow_push_calls_total{pipeline,result}: Push calls; result is
//     "processed", "failed" or "unsealed"
//   - chainflow_pipeline_values_total{pipeline,outcome}: processed values;
//     outcome is "consumed", "filtered", "failed" or "unconsumed"
//   - chainflow_pipeline_step_duration_seconds{pipeline,kind}: time inside a step
//   - chainflow_pipeline_step_errors_total{pipeline,kind}: failing steps
//   - chainflow_pipeline_chain_length{pipeline}: steps on the root node
//   - chainflow_pump_items_total{pipeline}: items drained from a source
//   - chainflow_pump_dropped_total{pipeline}: drained items lost to a failing step
//   - chainflow_pump_in_flight{pipeline}: 0 or 1
//
// # Configuration
//
//	config := metrics.Config{
//		Enabled:   true,
//		Registry:  prometheus.NewRegistry(),
//		Namespace: "myapp",                             // Override default "chainflow"
//		Labels:    prometheus.Labels{"version": "1.0"}, // Constant labels
//	}
//	reg := metrics.NewRegistryWithConfig(config)
package metrics
