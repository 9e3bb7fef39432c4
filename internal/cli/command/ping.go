// Package command provides CLI command definitions for quiescectl.
package command

import (
	"fmt"
	"strings"

	"github.com/urfave/cli/v2"
)

// PingCommand returns the ping command.
func PingCommand() *cli.Command {
	return &cli.Command{
		Name:   "ping",
		Usage:  "Check that the local management socket answers",
		Action: pingAction,
	}
}

func pingAction(c *cli.Context) error {
	client := socketClient(c)
	defer client.Close()

	resp, err := client.Execute("ping")
	if err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	if strings.TrimSpace(resp) != "pong" {
		return fmt.Errorf("unexpected response: %s", strings.TrimSpace(resp))
	}

	fmt.Println("pong")
	return nil
}
