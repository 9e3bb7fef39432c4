// Package localserver provides the local management server.
package localserver

import (
	"encoding/json"
	"io"
	"time"

	"github.com/mbaklund/quiesce/internal/infra/buildinfo"
	"github.com/mbaklund/quiesce/internal/infra/lifecycle"
	"github.com/mbaklund/quiesce/internal/server/tracker"
)

// Handler handles local management commands.
type Handler struct {
	coord   *lifecycle.Coordinator
	trk     *tracker.Tracker
	trigger *lifecycle.Trigger
	started time.Time
}

// NewHandler creates a new Handler. The trigger is fired on the shutdown
// command so the request is delivered through the same path as an OS
// signal rather than blocking the management session.
func NewHandler(coord *lifecycle.Coordinator, trk *tracker.Tracker, trigger *lifecycle.Trigger) *Handler {
	return &Handler{
		coord:   coord,
		trk:     trk,
		trigger: trigger,
		started: time.Now(),
	}
}

// Status is the response to the status command.
type Status struct {
	State         string `json:"state"`
	Accepting     bool   `json:"accepting"`
	LiveConns     int    `json:"live_connections"`
	GracePeriod   string `json:"grace_period"`
	UptimeSeconds int64  `json:"uptime_seconds"`
	Version       string `json:"version"`
}

// Execute executes a local management command.
func (h *Handler) Execute(w io.Writer, cmd string, args []string) error {
	switch cmd {
	case "status":
		return h.handleStatus(w)
	case "shutdown":
		return h.handleShutdown(w)
	case "ping":
		return h.handlePing(w)
	case "quit":
		_, err := w.Write([]byte("bye\n"))
		return err
	default:
		_, err := w.Write([]byte("unknown command: " + cmd + "\n"))
		return err
	}
}

func (h *Handler) handleStatus(w io.Writer) error {
	status := Status{
		State:         h.coord.State().String(),
		Accepting:     h.trk.Accepting(),
		LiveConns:     h.trk.Live(),
		GracePeriod:   h.coord.GracePeriod().String(),
		UptimeSeconds: int64(time.Since(h.started).Seconds()),
		Version:       buildinfo.Version,
	}

	data, err := json.Marshal(status)
	if err != nil {
		return err
	}
	_, err = w.Write(append(data, '\n'))
	return err
}

func (h *Handler) handleShutdown(w io.Writer) error {
	// Acknowledge before the drain starts tearing down connections,
	// including possibly this one.
	if _, err := w.Write([]byte("ok: draining\n")); err != nil {
		return err
	}

	if h.trigger != nil {
		h.trigger.Fire()
	} else {
		go h.coord.RequestShutdown()
	}
	return nil
}

func (h *Handler) handlePing(w io.Writer) error {
	_, err := w.Write([]byte("pong\n"))
	return err
}
