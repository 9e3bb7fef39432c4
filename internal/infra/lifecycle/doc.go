// Package lifecycle coordinates bounded-grace shutdown for quiesced.
//
// The Coordinator owns the shutdown state machine:
//
//	Accepting -> Draining -> Terminated
//
// On the first shutdown request it stops admission, notifies live
// connections to wind down, and races the drain signal against the
// configured grace period. Whichever resolves first decides the
// outcome: Graceful (everything drained in time) or Forced (remaining
// connections were aborted).
//
// Usage:
//
//	coord := lifecycle.NewCoordinator(grace, tracker, log)
//	coord.Listen(lifecycle.OSSignals())
//	outcome := coord.AwaitTermination()
package lifecycle
