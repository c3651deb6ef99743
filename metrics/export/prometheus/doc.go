// Package prometheus exposes identity engine metrics as a
// prometheus.Collector.
//
// [NewCollector] reads [goIdentity.Engine.MetricsSnapshot] on each scrape.
// Counter names are prefixed identity_*_total; the single histogram is
// identity_verify_access_latency_seconds.
//
// # What this package must NOT do
//
//   - Register metrics in the global Prometheus registry. Callers register
//     the Collector or mount Handler.
//   - Mutate engine state.
package prometheus
