// Package command provides CLI command definitions for quiescectl.
//
// This package defines all CLI commands using urfave/cli/v2:
//
//   - root.go: Root command and global flags
//   - status.go: Server status over the local socket
//   - shutdown.go: Graceful shutdown, optionally waiting for exit
//   - ping.go: Local socket liveness check
//   - health.go: gRPC health check over the network surface
//
// Commands follow a consistent pattern of parsing flags, talking to the
// daemon, and formatting output.
package command
