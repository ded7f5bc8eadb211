package api

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"

	"github.com/stoopview/stoopview/pkg/config"
	"github.com/stoopview/stoopview/pkg/health"
	"github.com/stoopview/stoopview/pkg/poller"
	"github.com/stoopview/stoopview/pkg/redis_client"
	"github.com/stoopview/stoopview/pkg/snapshot"
)

func RegisterCLI() *cli.Command {
	return &cli.Command{
		Name:  "web-api",
		Usage: "Poll the feeds and serve the display API",
		Subcommands: []*cli.Command{
			{
				Name:  "run",
				Usage: "run the web api server with its background pollers",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "listen",
						Value: ":5000",
						Usage: "listen target for the web server",
					},
					&cli.StringFlag{
						Name:  "config",
						Value: "config.yaml",
						Usage: "path to config.yaml",
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

					cache := snapshot.NewCache()

					manager, err := poller.NewManager(loaded, cache)
					if err != nil {
						return err
					}

					ctx, cancel := context.WithCancel(context.Background())
					defer cancel()
					go manager.Run(ctx)

					checker := health.NewChecker(cache,
						time.Duration(loaded.Display.StalenessWarningSec)*time.Second,
						time.Duration(loaded.Display.StalenessCriticalSec)*time.Second)

					return SetupServer(c.String("listen"), loaded, cache, checker, manager.TrackedCorridor())
				},
			},
		},
	}
}
