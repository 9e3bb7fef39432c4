// Package command provides CLI command definitions for quiescectl.
package command

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/mbaklund/quiesce/internal/cli/connection"
	"github.com/mbaklund/quiesce/internal/cli/output"
)

// HealthCommand returns the health command.
func HealthCommand() *cli.Command {
	return &cli.Command{
		Name:  "health",
		Usage: "Check server health over the RPC surface",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "service",
				Usage: "Service name to check (empty checks the whole process)",
			},
			&cli.StringFlag{
				Name:  "ca",
				Usage: "PEM file with additional trusted CA certificates",
			},
		},
		Action: healthAction,
	}
}

func healthAction(c *cli.Context) error {
	var client *connection.HTTPClient
	if caFile := c.String("ca"); caFile != "" {
		var err error
		client, err = connection.NewHTTPClientWithCA(c.String("server"), caFile)
		if err != nil {
			return fmt.Errorf("load ca file: %w", err)
		}
	} else {
		client = connection.NewHTTPClient(c.String("server"))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	status, err := client.CheckHealth(ctx, c.String("service"))
	if err != nil {
		PrintError("health check failed: %v", err)
		return fmt.Errorf("server unreachable")
	}

	if output.Format(c.String("output")) == output.FormatJSON {
		return formatter(c).Format(os.Stdout, status)
	}

	if status.Status == "SERVING" {
		fmt.Printf("✓ Server is serving\n")
		fmt.Printf("  Target: %s\n", client.BaseURL())
	} else {
		fmt.Printf("✗ Server is not serving: %s\n", status.Status)
	}
	return nil
}
