// Package main provides the entry point for quiescectl.
//
// The CLI tool provides command-line access to a running quiesced for:
//
//   - Server status (lifecycle state, live connections, uptime)
//   - Graceful shutdown, optionally waiting for the process to exit
//   - Liveness ping over the local management socket
//   - Health checks over the network-facing RPC surface
//
// Usage:
//
//	quiescectl [command] [flags]
//	quiescectl status --output json
//	quiescectl shutdown --wait
//	quiescectl health --server localhost:50051
package main
