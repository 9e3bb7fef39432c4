// Package command provides CLI command definitions for quiescectl.
package command

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/urfave/cli/v2"
)

// serverStatus mirrors the daemon's status response.
type serverStatus struct {
	State         string `json:"state"`
	Accepting     bool   `json:"accepting"`
	LiveConns     int    `json:"live_connections"`
	GracePeriod   string `json:"grace_period"`
	UptimeSeconds int64  `json:"uptime_seconds"`
	Version       string `json:"version"`
}

// StatusCommand returns the status command.
func StatusCommand() *cli.Command {
	return &cli.Command{
		Name:   "status",
		Usage:  "Show server status",
		Action: statusAction,
	}
}

func statusAction(c *cli.Context) error {
	client := socketClient(c)
	defer client.Close()

	resp, err := client.Execute("status")
	if err != nil {
		return fmt.Errorf("query status: %w", err)
	}

	var status serverStatus
	if err := json.Unmarshal([]byte(resp), &status); err != nil {
		return fmt.Errorf("parse status response: %w", err)
	}

	return formatter(c).Format(os.Stdout, status)
}
