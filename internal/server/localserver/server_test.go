package localserver

import (
	"bufio"
	"context"
	"encoding/json"
	"net"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/mbaklund/quiesce/internal/infra/lifecycle"
	"github.com/mbaklund/quiesce/internal/server/tracker"
)

// startTestServer starts a local server on a temp socket and returns a
// connected client plus the coordinator driving it.
func startTestServer(t *testing.T) (net.Conn, *lifecycle.Coordinator, *Server) {
	t.Helper()

	socketPath := filepath.Join(t.TempDir(), "q.sock")

	trk := tracker.New(nil, nil)
	grace, err := lifecycle.BoundedGrace(5 * time.Second)
	if err != nil {
		t.Fatalf("BoundedGrace: %v", err)
	}
	coord := lifecycle.NewCoordinator(grace, trk, nil)
	trigger := lifecycle.NewTrigger()
	coord.Listen(trigger)

	srv := New(socketPath, NewHandler(coord, trk, trigger), nil)
	go srv.ListenAndServe()
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		srv.Shutdown(ctx)
	})

	// Wait for the socket to appear.
	var conn net.Conn
	deadline := time.Now().Add(2 * time.Second)
	for {
		conn, err = net.Dial("unix", socketPath)
		if err == nil {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("dial %s: %v", socketPath, err)
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Cleanup(func() { conn.Close() })

	return conn, coord, srv
}

func roundTrip(t *testing.T, conn net.Conn, cmd string) string {
	t.Helper()
	if _, err := conn.Write([]byte(cmd + "\n")); err != nil {
		t.Fatalf("write %q: %v", cmd, err)
	}
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	line, err := bufio.NewReader(conn).ReadString('\n')
	if err != nil {
		t.Fatalf("read response to %q: %v", cmd, err)
	}
	return strings.TrimSpace(line)
}

func TestPing(t *testing.T) {
	conn, _, _ := startTestServer(t)

	if got := roundTrip(t, conn, "ping"); got != "pong" {
		t.Errorf("expected pong, got %q", got)
	}
}

func TestStatus(t *testing.T) {
	conn, _, _ := startTestServer(t)

	resp := roundTrip(t, conn, "status")

	var status Status
	if err := json.Unmarshal([]byte(resp), &status); err != nil {
		t.Fatalf("unmarshal status %q: %v", resp, err)
	}
	if status.State != "accepting" {
		t.Errorf("expected state accepting, got %q", status.State)
	}
	if !status.Accepting {
		t.Error("expected accepting true")
	}
	if status.GracePeriod != "5s" {
		t.Errorf("expected grace period 5s, got %q", status.GracePeriod)
	}
	if status.Version == "" {
		t.Error("expected version to be set")
	}
}

func TestUnknownCommand(t *testing.T) {
	conn, _, _ := startTestServer(t)

	if got := roundTrip(t, conn, "frobnicate"); !strings.Contains(got, "unknown command") {
		t.Errorf("expected unknown command response, got %q", got)
	}
}

func TestShutdownCommand(t *testing.T) {
	conn, coord, _ := startTestServer(t)

	if got := roundTrip(t, conn, "shutdown"); !strings.HasPrefix(got, "ok") {
		t.Errorf("expected ok response, got %q", got)
	}

	done := make(chan lifecycle.Outcome, 1)
	go func() { done <- coord.AwaitTermination() }()

	select {
	case outcome := <-done:
		if outcome != lifecycle.OutcomeGraceful {
			t.Errorf("expected graceful outcome, got %v", outcome)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("coordinator did not terminate after shutdown command")
	}
}

func TestServerShutdownRemovesSocket(t *testing.T) {
	socketPath := filepath.Join(t.TempDir(), "q.sock")

	trk := tracker.New(nil, nil)
	coord := lifecycle.NewCoordinator(lifecycle.ZeroGrace(), trk, nil)
	srv := New(socketPath, NewHandler(coord, trk, nil), nil)

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	deadline := time.Now().Add(2 * time.Second)
	for {
		if _, err := os.Stat(socketPath); err == nil {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("socket never appeared")
		}
		time.Sleep(5 * time.Millisecond)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		t.Errorf("Shutdown: %v", err)
	}

	if err := <-errCh; err != nil {
		t.Errorf("ListenAndServe after shutdown: %v", err)
	}
	if _, err := os.Stat(socketPath); !os.IsNotExist(err) {
		t.Errorf("expected socket file to be removed, stat err = %v", err)
	}
}

func TestStaleSocketRemoved(t *testing.T) {
	socketPath := filepath.Join(t.TempDir(), "q.sock")
	if err := os.WriteFile(socketPath, nil, 0o600); err != nil {
		t.Fatalf("create stale file: %v", err)
	}

	trk := tracker.New(nil, nil)
	coord := lifecycle.NewCoordinator(lifecycle.ZeroGrace(), trk, nil)
	srv := New(socketPath, NewHandler(coord, trk, nil), nil)

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	deadline := time.Now().Add(2 * time.Second)
	for {
		if conn, err := net.Dial("unix", socketPath); err == nil {
			conn.Close()
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("server did not bind over stale socket file")
		}
		time.Sleep(5 * time.Millisecond)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	srv.Shutdown(ctx)
	<-errCh
}
