// Package connection provides connection management for quiescectl.
//
// Two transports are supported:
//
//   - socket.go: Unix domain socket to the daemon's local management
//     interface (line-based protocol, no credentials)
//   - http.go: HTTP client for the network-facing RPC surface, used for
//     health checks via the standard gRPC health service's Connect/JSON
//     mapping
package connection
