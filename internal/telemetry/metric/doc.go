// Package metric provides Prometheus metrics for quiesced.
//
// This package implements metrics collection and exposition:
//
//   - Connection gauges and counters (tracker)
//   - Request counters (rpc server middleware)
//   - Lifecycle state gauge (shutdown coordinator)
//
// Metrics are exposed at /metrics in Prometheus format.
package metric
