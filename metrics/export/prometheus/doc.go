// Package prometheus exposes goSession engine metrics through a
// client_golang Collector.
//
// Counters are named gosession_*_total. The refresh latency histogram is
// gosession_refresh_latency_seconds and is only reported when latency
// histograms are enabled on the engine.
//
// # What this package must NOT do
//
//   - Register in the global Prometheus registry. [Handler] uses a private
//     one; callers wanting the default registry register [NewCollector] themselves.
//   - Mutate engine state.
package prometheus
