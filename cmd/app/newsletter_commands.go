package main

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/allisson/newsletter/cmd/app/commands"
	"github.com/allisson/newsletter/internal/app"
	"github.com/allisson/newsletter/internal/config"
)

func getNewsletterCommands() []*cli.Command {
	return []*cli.Command{
		{
			Name:  "create-operator",
			Usage: "Create an operator and print its API token",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:     "name",
					Aliases:  []string{"n"},
					Required: true,
					Usage:    "Human-readable operator name",
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

				operatorUseCase, err := container.OperatorUseCase()
				if err != nil {
					return err
				}

				return commands.RunCreateOperator(
					ctx,
					operatorUseCase,
					container.Logger(),
					commands.DefaultIO().Writer,
					cmd.String("name"),
					cmd.String("format"),
				)
			},
		},
		{
			Name:  "add-subscriber",
			Usage: "Add a subscriber to the directory",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:     "email",
					Aliases:  []string{"e"},
					Required: true,
					Usage:    "Subscriber email address",
				},
				&cli.StringFlag{
					Name:     "name",
					Aliases:  []string{"n"},
					Required: true,
					Usage:    "Subscriber name",
				},
				&cli.BoolFlag{
					Name:    "confirmed",
					Aliases: []string{"c"},
					Value:   true,
					Usage:   "Whether the subscription is already confirmed",
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

				subscriberUseCase, err := container.SubscriberUseCase()
				if err != nil {
					return err
				}

				return commands.RunAddSubscriber(
					ctx,
					subscriberUseCase,
					container.Logger(),
					commands.DefaultIO().Writer,
					cmd.String("email"),
					cmd.String("name"),
					cmd.Bool("confirmed"),
					cmd.String("format"),
				)
			},
		},
	}
}
