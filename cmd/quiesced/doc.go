// Package main provides the entry point for quiesced.
//
// The daemon is the long-lived server process that provides:
//
//   - gRPC-compatible RPC surface (health, reflection) over h2c
//   - Prometheus metrics on /metrics
//   - Local Unix socket for management access (no credentials required)
//   - Bounded-grace shutdown: on SIGINT/SIGTERM the server stops
//     accepting, drains in-flight connections, and force-terminates
//     stragglers when the grace period runs out
//
// Usage:
//
//	quiesced [flags]
//	quiesced --config /path/to/config.yaml
//	quiesced --addr "[::]:50051" --grace-period 30s
//
// The daemon loads configuration, initializes infrastructure components,
// and starts all configured listeners.
package main
