// Package metrics defines the sinks that turn fleet mutation telemetry into
// metrics. Sinks like PromSink and InfluxSink (see infra/metrics) record
// mutation events and fleet snapshots and can be combined with NewMultiSink.
// NewMetricsSink builds sinks from configuration through the factory registry
// and returns a MultiSink automatically when several are configured.
//
// Timer brackets an operation and reports its duration on every exit path.
package metrics
