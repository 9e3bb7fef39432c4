// Package tracker owns the live connection set for quiesced.
package tracker

import (
	"net"
	"sync"
	"sync/atomic"

	"github.com/oklog/ulid/v2"

	"github.com/mbaklund/quiesce/internal/telemetry/logger"
	"github.com/mbaklund/quiesce/internal/telemetry/metric"
)

// Tracker tracks live connections and listeners for the server.
//
// All methods are safe for concurrent use. StopAccepting, NotifyClose
// and Abort are idempotent; the shutdown coordinator additionally
// guarantees it issues each of them at most once.
type Tracker struct {
	log     logger.Logger
	metrics *metric.Registry

	mu        sync.Mutex
	conns     map[string]*trackedConn
	listeners map[net.Listener]struct{}
	accepting bool
	draining  bool
	hooks     []func()

	closing     chan struct{}
	notifyOnce  sync.Once
	drained     chan struct{}
	drainedOnce sync.Once
}

// New creates a tracker that is accepting connections.
// metrics may be nil, e.g. in tests.
func New(log logger.Logger, metrics *metric.Registry) *Tracker {
	if log == nil {
		log = logger.Default()
	}
	return &Tracker{
		log:       log,
		metrics:   metrics,
		conns:     make(map[string]*trackedConn),
		listeners: make(map[net.Listener]struct{}),
		accepting: true,
		closing:   make(chan struct{}),
		drained:   make(chan struct{}),
	}
}

// Listen wraps ln so that accepted connections are tracked. The
// listener itself is registered and will be closed by StopAccepting.
func (t *Tracker) Listen(ln net.Listener) net.Listener {
	t.mu.Lock()
	accepting := t.accepting
	if accepting {
		t.listeners[ln] = struct{}{}
	}
	t.mu.Unlock()

	if !accepting {
		_ = ln.Close()
	}
	return &trackedListener{t: t, ln: ln}
}

// register admits a new connection. Returns nil when admission has
// already stopped, which resolves the accept/stop race.
func (t *Tracker) register(c net.Conn) *trackedConn {
	t.mu.Lock()
	if !t.accepting {
		t.mu.Unlock()
		return nil
	}
	id := ulid.Make().String()
	tc := &trackedConn{Conn: c, id: id, t: t}
	t.conns[id] = tc
	live := len(t.conns)
	t.mu.Unlock()

	if t.metrics != nil {
		t.metrics.ConnectionsOpen.Inc()
		t.metrics.ConnectionsTotal.Inc()
	}
	t.log.Debug("connection opened",
		"conn_id", id,
		"remote", c.RemoteAddr().String(),
		"live", live)

	return tc
}

// remove drops a connection from the live set and fires the drain
// signal when the set collapses to zero while draining.
func (t *Tracker) remove(id string) {
	t.mu.Lock()
	if _, ok := t.conns[id]; !ok {
		t.mu.Unlock()
		return
	}
	delete(t.conns, id)
	live := len(t.conns)
	draining := t.draining
	t.mu.Unlock()

	if t.metrics != nil {
		t.metrics.ConnectionsOpen.Dec()
	}
	t.log.Debug("connection closed", "conn_id", id, "live", live)

	if draining && live == 0 {
		t.fireDrained()
	}
}

// StopAccepting stops admission of new connections and closes all
// registered listeners to break their accept loops.
func (t *Tracker) StopAccepting() {
	t.mu.Lock()
	if !t.accepting {
		t.mu.Unlock()
		return
	}
	t.accepting = false
	lns := make([]net.Listener, 0, len(t.listeners))
	for ln := range t.listeners {
		lns = append(lns, ln)
	}
	t.mu.Unlock()

	for _, ln := range lns {
		if err := ln.Close(); err != nil {
			t.log.Error("error closing listener", "error", err)
		}
	}
	t.log.Info("stopped accepting new connections")
}

// NotifyClose tells live connections to begin a graceful close: the
// closing channel is closed and registered close hooks run. If the
// live set is already empty the drain signal fires immediately.
func (t *Tracker) NotifyClose() {
	t.notifyOnce.Do(func() {
		t.mu.Lock()
		t.draining = true
		live := len(t.conns)
		hooks := make([]func(), len(t.hooks))
		copy(hooks, t.hooks)
		t.mu.Unlock()

		close(t.closing)
		for _, hook := range hooks {
			hook()
		}

		t.log.Info("notified live connections to close", "live", live)

		if live == 0 {
			t.fireDrained()
		}
	})
}

// OnClose registers a hook to run when NotifyClose fires. The rpc
// server uses this to flip health to NOT_SERVING and disable
// keep-alives.
func (t *Tracker) OnClose(hook func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.hooks = append(t.hooks, hook)
}

// Closing returns a channel that is closed when graceful close has
// been requested. Long-lived handlers select on it to wind down.
func (t *Tracker) Closing() <-chan struct{} {
	return t.closing
}

// Drained returns a channel that is closed once the live connection
// set reaches zero while draining.
func (t *Tracker) Drained() <-chan struct{} {
	return t.drained
}

// Abort forcefully closes every remaining connection. Close errors are
// logged, not retried; the guarantee is that the close was issued.
func (t *Tracker) Abort() {
	t.mu.Lock()
	remaining := make([]*trackedConn, 0, len(t.conns))
	for _, c := range t.conns {
		remaining = append(remaining, c)
	}
	t.mu.Unlock()

	for _, c := range remaining {
		if err := c.Close(); err != nil {
			t.log.Error("error aborting connection",
				"conn_id", c.id,
				"error", err)
		}
	}

	if len(remaining) > 0 {
		t.log.Warn("aborted remaining connections", "count", len(remaining))
	}
}

// Live returns the current number of tracked connections.
func (t *Tracker) Live() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.conns)
}

// Accepting reports whether new connections are still admitted.
func (t *Tracker) Accepting() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.accepting
}

func (t *Tracker) fireDrained() {
	t.drainedOnce.Do(func() {
		close(t.drained)
	})
}

// trackedListener registers accepted connections with the tracker.
type trackedListener struct {
	t  *Tracker
	ln net.Listener
}

func (l *trackedListener) Accept() (net.Conn, error) {
	for {
		c, err := l.ln.Accept()
		if err != nil {
			return nil, err
		}
		tc := l.t.register(c)
		if tc == nil {
			// Admission stopped between Accept and register.
			_ = c.Close()
			continue
		}
		return tc, nil
	}
}

func (l *trackedListener) Close() error {
	return l.ln.Close()
}

func (l *trackedListener) Addr() net.Addr {
	return l.ln.Addr()
}

// trackedConn deregisters itself on close. Close is idempotent.
type trackedConn struct {
	net.Conn
	id     string
	t      *Tracker
	closed atomic.Bool
}

func (c *trackedConn) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}
	err := c.Conn.Close()
	c.t.remove(c.id)
	return err
}
