// Package otel reports goSession engine metrics through OpenTelemetry.
//
// [Register] creates one observable counter per engine counter. The refresh
// latency histogram becomes a gauge of cumulative bucket counts keyed by the
// "le" attribute plus a sample counter. A single callback reads the engine
// snapshot on each collection.
//
// [NewProvider] owns a MeterProvider for callers that do not have one, and
// [LogExporter] is a push exporter that writes collections to zap.
//
// # What this package must NOT do
//
//   - Mutate engine state.
package otel
