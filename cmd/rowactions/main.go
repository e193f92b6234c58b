// Package main provides the rowactions server and command line runner.
package main

import (
	"context"
	"os"

	cli "github.com/urfave/cli/v3"

	"github.com/dukex/rowactions/pkg/log"
)

const defaultPort = 9094

func main() {
	logger := log.WithModule("rowactions")

	cmd := &cli.Command{
		Name:                  "rowactions",
		Usage:                 "Dispatch templated actions over selected data rows",
		EnableShellCompletion: true,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Value:   "info",
				Sources: cli.EnvVars("LOG_LEVEL"),
			},
			&cli.StringFlag{
				Name:     "config",
				Aliases:  []string{"c"},
				Usage:    "Path to the actions configuration file",
				Required: true,
				Sources:  cli.EnvVars("ROWACTIONS_CONFIG"),
			},
		},
		Commands: []*cli.Command{
			{
				Name:  "serve",
				Usage: "Run the HTTP API exposing action execution",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:    "port",
						Aliases: []string{"p"},
						Usage:   "Port to run the API server on",
						Value:   defaultPort,
						Sources: cli.EnvVars("PORT"),
					},
					&cli.BoolFlag{
						Name:    "tracing",
						Usage:   "Export traces over OTLP",
						Sources: cli.EnvVars("ROWACTIONS_TRACING"),
					},
				},
				Action: func(ctx context.Context, command *cli.Command) error {
					log.Setup(command.String("log-level"))

					return runServe(ctx, logger, command)
				},
			},
			{
				Name:  "run",
				Usage: "Execute actions once against a JSON file of selected rows",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "items",
						Usage:    "Path to a JSON file holding the selected rows",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "action",
						Usage: "Run only the named action instead of every visible one",
					},
				},
				Action: func(ctx context.Context, command *cli.Command) error {
					log.Setup(command.String("log-level"))

					return runOnce(ctx, logger, command)
				},
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		logger.Error("Command failed", "error", err)
		os.Exit(1)
	}
}
