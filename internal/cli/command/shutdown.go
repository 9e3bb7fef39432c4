// Package command provides CLI command definitions for quiescectl.
package command

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/mbaklund/quiesce/internal/cli/connection"
	"github.com/mbaklund/quiesce/internal/cli/output"
)

// ShutdownCommand returns the shutdown command.
func ShutdownCommand() *cli.Command {
	return &cli.Command{
		Name:  "shutdown",
		Usage: "Request graceful shutdown of the server",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    "wait",
				Aliases: []string{"w"},
				Usage:   "Wait until the server has exited",
			},
			&cli.DurationFlag{
				Name:  "timeout",
				Usage: "How long to wait with --wait",
				Value: 60 * time.Second,
			},
		},
		Action: shutdownAction,
	}
}

func shutdownAction(c *cli.Context) error {
	client := socketClient(c)
	defer client.Close()

	resp, err := client.Execute("shutdown")
	if err != nil {
		return fmt.Errorf("request shutdown: %w", err)
	}
	if !strings.HasPrefix(strings.TrimSpace(resp), "ok") {
		return fmt.Errorf("unexpected response: %s", strings.TrimSpace(resp))
	}

	if !c.Bool("wait") {
		fmt.Println("shutdown requested")
		return nil
	}

	return waitForExit(c.String("socket"), c.Duration("timeout"))
}

// waitForExit polls the management socket until the daemon stops
// answering or reports termination.
func waitForExit(socketPath string, timeout time.Duration) error {
	spinner := output.NewSpinner(os.Stderr, "waiting for server to exit")
	spinner.Start()

	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		time.Sleep(200 * time.Millisecond)

		client := connection.NewSocketClient(socketPath)
		resp, err := client.Execute("status")
		client.Close()
		if err != nil {
			// The daemon tore down its socket: it has exited.
			spinner.Success("server exited")
			return nil
		}

		var status serverStatus
		if err := json.Unmarshal([]byte(resp), &status); err == nil && status.State == "terminated" {
			spinner.Success("server terminated")
			return nil
		}
	}

	spinner.Fail("timed out waiting for server exit")
	return fmt.Errorf("server still running after %s", timeout)
}
