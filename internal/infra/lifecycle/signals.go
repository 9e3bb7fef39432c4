// Package lifecycle coordinates bounded-grace shutdown for quiesced.
package lifecycle

import (
	"os"
	"os/signal"
	"syscall"
)

// SignalSource delivers external shutdown requests to the coordinator.
// A source may fire any number of times; the coordinator treats every
// firing after the first as a no-op.
type SignalSource interface {
	// Requests returns a channel that receives one value per external
	// shutdown request.
	Requests() <-chan struct{}
}

// osSignals adapts OS interrupt delivery to a SignalSource.
type osSignals struct {
	ch chan struct{}
}

// OSSignals returns a SignalSource backed by SIGINT and SIGTERM.
func OSSignals() SignalSource {
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)

	s := &osSignals{ch: make(chan struct{}, 1)}
	go func() {
		for range sig {
			select {
			case s.ch <- struct{}{}:
			default:
			}
		}
	}()

	return s
}

func (s *osSignals) Requests() <-chan struct{} {
	return s.ch
}

// Trigger is a manually fired SignalSource. The management socket uses
// one to request shutdown; tests use it to avoid real signals.
type Trigger struct {
	ch chan struct{}
}

// NewTrigger creates an unfired Trigger.
func NewTrigger() *Trigger {
	return &Trigger{ch: make(chan struct{}, 1)}
}

// Fire delivers one shutdown request. Firing while a request is still
// pending is a no-op, which matches the coordinator's idempotence.
func (t *Trigger) Fire() {
	select {
	case t.ch <- struct{}{}:
	default:
	}
}

// Requests implements SignalSource.
func (t *Trigger) Requests() <-chan struct{} {
	return t.ch
}
