// Package lifecycle coordinates bounded-grace shutdown for quiesced.
package lifecycle

import (
	"sync/atomic"
	"time"

	"github.com/mbaklund/quiesce/internal/telemetry/logger"
)

// State is the coordinator's position in the shutdown state machine.
// Transitions are monotonic: no state is ever revisited.
type State int32

const (
	// StateAccepting means the server is admitting new connections.
	StateAccepting State = iota
	// StateDraining means shutdown was requested and in-flight
	// connections are winding down.
	StateDraining
	// StateTerminated means shutdown finished; the coordinator is inert.
	StateTerminated
)

// String returns the lowercase state name.
func (s State) String() string {
	switch s {
	case StateAccepting:
		return "accepting"
	case StateDraining:
		return "draining"
	case StateTerminated:
		return "terminated"
	default:
		return "unknown"
	}
}

// Outcome reports how termination was reached.
type Outcome int

const (
	// OutcomeGraceful means every connection drained before the grace
	// period elapsed. No forceful action was taken.
	OutcomeGraceful Outcome = iota
	// OutcomeForced means the grace period elapsed first and remaining
	// connections were aborted.
	OutcomeForced
)

// String returns the lowercase outcome name.
func (o Outcome) String() string {
	if o == OutcomeForced {
		return "forced"
	}
	return "graceful"
}

// Tracker is the connection-tracking collaborator the coordinator
// drives. It owns the live connection set; the coordinator only issues
// commands to it and consumes its drain signal.
type Tracker interface {
	// StopAccepting stops admission of new connections.
	StopAccepting()
	// NotifyClose tells all live connections to begin a graceful close.
	NotifyClose()
	// Drained returns a channel that is closed once the live set
	// reaches zero while draining.
	Drained() <-chan struct{}
	// Abort forcefully terminates all remaining connections.
	Abort()
}

// Coordinator owns the shutdown state machine, the grace timer, and the
// race between "all connections drained" and "grace period exhausted".
//
// It performs no I/O itself; failures while aborting connections are
// the tracker's concern.
type Coordinator struct {
	grace   GracePeriod
	tracker Tracker
	log     logger.Logger

	state   atomic.Int32
	outcome Outcome // written once, before done closes
	done    chan struct{}
}

// NewCoordinator creates a coordinator in the Accepting state.
func NewCoordinator(grace GracePeriod, tracker Tracker, log logger.Logger) *Coordinator {
	if log == nil {
		log = logger.Default()
	}
	return &Coordinator{
		grace:   grace,
		tracker: tracker,
		log:     log,
		done:    make(chan struct{}),
	}
}

// State returns the current coordinator state.
func (c *Coordinator) State() State {
	return State(c.state.Load())
}

// GracePeriod returns the configured grace period.
func (c *Coordinator) GracePeriod() GracePeriod {
	return c.grace
}

// Done returns a channel that closes when the coordinator terminates.
func (c *Coordinator) Done() <-chan struct{} {
	return c.done
}

// RequestShutdown begins draining. Only the first call has any effect;
// repeated calls while draining or after termination are no-ops.
//
// The admission stop is issued before the close notification, and both
// before the drain wait begins. With a zero grace period the abort is
// issued synchronously, with no wait at all.
func (c *Coordinator) RequestShutdown() {
	if !c.state.CompareAndSwap(int32(StateAccepting), int32(StateDraining)) {
		return
	}

	c.log.Info("shutdown requested, draining traffic",
		"grace_period", c.grace.String())

	c.tracker.StopAccepting()
	c.tracker.NotifyClose()

	if c.grace.IsZero() {
		c.log.Warn("grace period is zero, forcing shutdown")
		c.tracker.Abort()
		c.finish(OutcomeForced)
		return
	}

	go c.drain()
}

// drain races the tracker's drain signal against the grace timer.
// Exactly one branch wins; the losing timer is always stopped.
func (c *Coordinator) drain() {
	if c.grace.IsInfinite() {
		c.log.Info("waiting for connections to drain")
		<-c.tracker.Drained()
		c.finish(OutcomeGraceful)
		return
	}

	c.log.Info("waiting for connections to drain",
		"timeout", c.grace.Duration().String())

	timer := time.NewTimer(c.grace.Duration())
	defer timer.Stop()

	select {
	case <-c.tracker.Drained():
		c.finish(OutcomeGraceful)
	case <-timer.C:
		c.log.Warn("grace period exhausted, forcing shutdown")
		c.tracker.Abort()
		c.finish(OutcomeForced)
	}
}

// finish records the outcome and moves to Terminated. It runs exactly
// once per coordinator: the single Accepting->Draining transition
// guarantees a single drain path reaches it.
func (c *Coordinator) finish(o Outcome) {
	c.outcome = o
	c.state.Store(int32(StateTerminated))
	if o == OutcomeGraceful {
		c.log.Info("all connections drained, terminating gracefully")
	}
	close(c.done)
}

// AwaitTermination blocks until the coordinator terminates and reports
// whether termination was graceful or forced. It is intended to be
// called once by the process's top-level driver.
func (c *Coordinator) AwaitTermination() Outcome {
	<-c.done
	return c.outcome
}

// Listen consumes shutdown requests from src until the coordinator
// terminates. Multiple firings are tolerated; only the first one
// transitions the state machine.
func (c *Coordinator) Listen(src SignalSource) {
	go func() {
		for {
			select {
			case <-c.done:
				return
			case _, ok := <-src.Requests():
				if !ok {
					return
				}
				c.RequestShutdown()
			}
		}
	}()
}
