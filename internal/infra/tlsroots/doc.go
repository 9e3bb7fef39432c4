// Package tlsroots provides TLS certificate management.
//
// It handles loading of system certificates and custom CA certificates
// for clients, and hot reloading of server key pairs so certificate
// rotation does not require a restart:
//
//   - roots.go: trusted root pools for outbound connections
//   - watcher.go: fsnotify-based server certificate reloading
package tlsroots
