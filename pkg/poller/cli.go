package poller

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"

	"github.com/stoopview/stoopview/pkg/config"
	"github.com/stoopview/stoopview/pkg/redis_client"
	"github.com/stoopview/stoopview/pkg/snapshot"
)

func RegisterCLI() *cli.Command {
	return &cli.Command{
		Name:  "poller",
		Usage: "Poll the upstream feeds without serving the API",
		Subcommands: []*cli.Command{
			{
				Name:  "run",
				Usage: "run the subway and bikeshare poll loops",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "config",
						Usage: "path to config.yaml",
						Value: "config.yaml",
					},
				},
				Action: func(c *cli.Context) error {
					loaded, err := config.Load(c.String("config"))
					if err != nil {
						return err
					}

					if err := redis_client.Connect(); err != nil {
						log.Warn().Err(err).Msg("Redis unavailable, caching disabled")
					}

					manager, err := NewManager(loaded, snapshot.NewCache())
					if err != nil {
						return err
					}

					ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
					defer stop()

					manager.Run(ctx)
					return nil
				},
			},
		},
	}
}
