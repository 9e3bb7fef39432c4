package command

import (
	"bufio"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
)

// startFakeDaemon runs a line server on a temp unix socket that answers
// like the daemon's local management interface. When exitOnShutdown is
// set, the listener is closed after answering a shutdown command, which
// unlinks the socket file like a real daemon exit.
func startFakeDaemon(t *testing.T, exitOnShutdown bool) string {
	t.Helper()

	socketPath := filepath.Join(t.TempDir(), "q.sock")
	ln, err := net.Listen("unix", socketPath)
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	t.Cleanup(func() { ln.Close() })

	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			go func(conn net.Conn) {
				defer conn.Close()
				scanner := bufio.NewScanner(conn)
				for scanner.Scan() {
					switch strings.TrimSpace(scanner.Text()) {
					case "ping":
						conn.Write([]byte("pong\n"))
					case "status":
						resp, _ := json.Marshal(serverStatus{
							State:       "accepting",
							Accepting:   true,
							GracePeriod: "30s",
							Version:     "dev",
						})
						conn.Write(append(resp, '\n'))
					case "shutdown":
						conn.Write([]byte("ok: draining\n"))
						if exitOnShutdown {
							ln.Close()
							return
						}
					default:
						conn.Write([]byte("unknown command\n"))
					}
				}
			}(conn)
		}
	}()

	return socketPath
}

func TestPingCommand(t *testing.T) {
	socketPath := startFakeDaemon(t, false)

	err := App().Run([]string{"quiescectl", "--socket", socketPath, "ping"})
	if err != nil {
		t.Errorf("ping: %v", err)
	}
}

func TestPingCommandNoDaemon(t *testing.T) {
	socketPath := filepath.Join(t.TempDir(), "missing.sock")

	err := App().Run([]string{"quiescectl", "--socket", socketPath, "ping"})
	if err == nil {
		t.Error("expected error when daemon is not running")
	}
}

func TestStatusCommand(t *testing.T) {
	socketPath := startFakeDaemon(t, false)

	for _, format := range []string{"text", "json"} {
		err := App().Run([]string{"quiescectl", "--socket", socketPath, "--output", format, "status"})
		if err != nil {
			t.Errorf("status with output=%s: %v", format, err)
		}
	}
}

func TestShutdownCommand(t *testing.T) {
	socketPath := startFakeDaemon(t, false)

	err := App().Run([]string{"quiescectl", "--socket", socketPath, "shutdown"})
	if err != nil {
		t.Errorf("shutdown: %v", err)
	}
}

func TestShutdownCommandWait(t *testing.T) {
	socketPath := startFakeDaemon(t, true)

	err := App().Run([]string{"quiescectl", "--socket", socketPath, "shutdown", "--wait", "--timeout", "5s"})
	if err != nil {
		t.Errorf("shutdown --wait: %v", err)
	}
}

func TestHealthCommand(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"status": "SERVING"})
	}))
	defer srv.Close()

	err := App().Run([]string{"quiescectl", "--server", srv.URL, "health"})
	if err != nil {
		t.Errorf("health: %v", err)
	}
}

func TestHealthCommandUnreachable(t *testing.T) {
	err := App().Run([]string{"quiescectl", "--server", "127.0.0.1:1", "health"})
	if err == nil {
		t.Error("expected error for unreachable server")
	}
}
