// Package localserver provides the Unix socket server for local management.
//
// This package implements a local-only management interface via Unix domain
// socket. It bypasses the network-facing RPC surface for localhost
// administrative operations:
//
//   - Server status (lifecycle state, live connections, uptime)
//   - Graceful shutdown
//   - Liveness ping
//
// Security:
//
//   - Only accessible via Unix domain socket
//   - File system permissions control access
//   - No credentials required (physical/local access only)
//
// The protocol is a single line of text per command and a single line per
// response; status responses are JSON on one line.
package localserver
