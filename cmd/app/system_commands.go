package main

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/allisson/newsletter/cmd/app/commands"
	"github.com/allisson/newsletter/internal/app"
	"github.com/allisson/newsletter/internal/config"
)

func getSystemCommands(version string) []*cli.Command {
	return []*cli.Command{
		{
			Name:  "server",
			Usage: "Start the HTTP server",
			Flags: []cli.Flag{
				&cli.BoolFlag{
					Name:    "with-worker",
					Aliases: []string{"w"},
					Value:   false,
					Usage:   "Also run the delivery worker in this process",
				},
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				return commands.RunServer(ctx, version, cmd.Bool("with-worker"))
			},
		},
		{
			Name:  "worker",
			Usage: "Start the delivery worker",
			Action: func(ctx context.Context, cmd *cli.Command) error {
				return commands.RunWorker(ctx, version)
			},
		},
		{
			Name:  "drain-queue",
			Usage: "Deliver every queued email that is due now and exit",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:    "format",
					Aliases: []string{"f"},
					Value:   "text",
					Usage:   "Output format: 'text' or 'json'",
				},
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				cfg := config.Load()
				container := app.NewContainer(cfg)
				defer func() { _ = container.Shutdown(ctx) }()

				worker, err := container.Worker()
				if err != nil {
					return err
				}

				return commands.RunDrainQueue(
					ctx,
					worker,
					container.Logger(),
					commands.DefaultIO().Writer,
					cmd.String("format"),
				)
			},
		},
		{
			Name:  "migrate",
			Usage: "Run database migrations",
			Action: func(ctx context.Context, cmd *cli.Command) error {
				cfg := config.Load()
				container := app.NewContainer(cfg)
				defer func() { _ = container.Shutdown(ctx) }()

				return commands.RunMigrations(container.Logger(), cfg.DBDriver, cfg.DBConnectionString)
			},
		},
		{
			Name:  "clean-idempotency-keys",
			Usage: "Delete completed idempotency keys older than specified days",
			Flags: []cli.Flag{
				&cli.IntFlag{
					Name:     "days",
					Aliases:  []string{"d"},
					Required: true,
					Usage:    "Delete keys older than this many days",
				},
				&cli.BoolFlag{
					Name:    "dry-run",
					Aliases: []string{"n"},
					Value:   false,
					Usage:   "Show how many keys would be deleted without deleting",
				},
				&cli.StringFlag{
					Name:    "format",
					Aliases: []string{"f"},
					Value:   "text",
					Usage:   "Output format: 'text' or 'json'",
				},
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				cfg := config.Load()
				container := app.NewContainer(cfg)
				defer func() { _ = container.Shutdown(ctx) }()

				keyUseCase, err := container.KeyUseCase()
				if err != nil {
					return err
				}

				return commands.RunCleanIdempotencyKeys(
					ctx,
					keyUseCase,
					container.Logger(),
					commands.DefaultIO().Writer,
					int(cmd.Int("days")),
					cmd.Bool("dry-run"),
					cmd.String("format"),
				)
			},
		},
	}
}
