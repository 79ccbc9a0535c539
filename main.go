package main

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"

	"github.com/okra-platform/apolloctl/internal/commands"
)

var (
	// Build information. Populated at build-time via -ldflags flag.
	version = "dev"
	commit  = "HEAD"
	date    = "now"
)

func build() string {
	short := commit
	if len(commit) > 7 {
		short = commit[:7]
	}

	return fmt.Sprintf("%s (%s) %s", version, short, date)
}

func main() {
	flags := &commands.Flags{}
	var ctrl *commands.Controller

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	app := &cli.Command{
		Name:    "apolloctl",
		Usage:   "Download GraphQL schemas and generate client code with the Apollo CLI",
		Version: build(),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "log-level",
				Usage:       "log level (debug, info, warn, error, fatal, panic)",
				Sources:     cli.EnvVars("APOLLOCTL_LOG_LEVEL"),
				Value:       "warn",
				Destination: &flags.LogLevel,
			},
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "path to apolloctl.json (default: search from the current directory upward)",
				Destination: &flags.ConfigPath,
			},
		},
		Before: func(ctx context.Context, c *cli.Command) (context.Context, error) {
			level, err := zerolog.ParseLevel(flags.LogLevel)
			if err != nil {
				return ctx, fmt.Errorf("failed to parse log level: %w", err)
			}

			log.Logger = log.Level(level)
			ctrl = commands.NewController(flags, log.Logger)

			return ctx, nil
		},
		Commands: []*cli.Command{
			{
				Name:  "init",
				Usage: "Create apolloctl.json in the current directory",
				Action: func(ctx context.Context, c *cli.Command) error {
					return ctrl.Init(ctx)
				},
			},
			{
				Name:  "download-schema",
				Usage: "Download the schema from the configured endpoint",
				Action: func(ctx context.Context, c *cli.Command) error {
					return ctrl.DownloadSchema(ctx)
				},
			},
			{
				Name:  "generate",
				Usage: "Generate code from the schema and operation documents",
				Action: func(ctx context.Context, c *cli.Command) error {
					return ctrl.Generate(ctx)
				},
			},
			{
				Name:  "watch",
				Usage: "Regenerate code whenever operations or the schema change",
				Action: func(ctx context.Context, c *cli.Command) error {
					return ctrl.Watch(ctx)
				},
			},
			{
				Name:      "inspect",
				Usage:     "Summarize a schema file or print an operations document",
				ArgsUsage: "[file]",
				Action: func(ctx context.Context, c *cli.Command) error {
					return ctrl.Inspect(ctx, c.Args().First())
				},
			},
		},
	}

	ctx := context.Background()

	if err := app.Run(ctx, os.Args); err != nil {
		log.Fatal().Err(err).Msg("failed to run apolloctl")
	}
}
