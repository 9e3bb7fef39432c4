// Package command provides CLI command definitions for quiescectl.
package command

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/mbaklund/quiesce/internal/cli/connection"
	"github.com/mbaklund/quiesce/internal/cli/output"
	"github.com/mbaklund/quiesce/internal/infra/buildinfo"
	"github.com/mbaklund/quiesce/internal/server/config"
)

// App creates the CLI application.
func App() *cli.App {
	return &cli.App{
		Name:    "quiescectl",
		Usage:   "quiesced command-line management tool",
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", buildinfo.Version, buildinfo.Commit, buildinfo.BuildTime),
		Flags:   globalFlags(),
		Commands: []*cli.Command{
			StatusCommand(),
			ShutdownCommand(),
			PingCommand(),
			HealthCommand(),
		},
	}
}

// globalFlags returns the global CLI flags.
func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "socket",
			Aliases: []string{"S"},
			Usage:   "Path to the local management socket",
			EnvVars: []string{"QUIESCE_SOCKET"},
			Value:   config.DefaultLocalSocket,
		},
		&cli.StringFlag{
			Name:    "server",
			Aliases: []string{"s"},
			Usage:   "RPC server address (e.g., localhost:50051)",
			EnvVars: []string{"QUIESCE_SERVER"},
			Value:   "localhost:50051",
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "Output format: text, json",
			Value:   "text",
		},
	}
}

// socketClient creates a socket client from the global flags.
func socketClient(c *cli.Context) *connection.SocketClient {
	return connection.NewSocketClient(c.String("socket"))
}

// formatter creates an output formatter from the global flags.
func formatter(c *cli.Context) output.Formatter {
	return output.NewFormatter(output.Format(c.String("output")))
}

// PrintError prints an error message to stderr.
func PrintError(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "error: "+format+"\n", args...)
}
