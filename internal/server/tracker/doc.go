// Package tracker owns the live connection set for quiesced.
//
// It wraps net.Listener so every accepted connection is registered
// with a ULID, and exposes the four commands the shutdown coordinator
// drives:
//
//   - StopAccepting: close listeners, stop admission
//   - NotifyClose: tell live connections to begin a graceful close
//   - Drained: channel closed once the live set collapses to zero
//   - Abort: forcefully close everything that remains
//
// The drain signal is a refcount collapsing to zero, exposed as a
// closed channel rather than a queryable counter, so observers cannot
// race the final decrement.
package tracker
