package subway

import (
	"context"
	"fmt"
	"time"

	"github.com/kr/pretty"
	"github.com/urfave/cli/v2"

	"github.com/stoopview/stoopview/pkg/util"
)

func RegisterCLI() *cli.Command {
	return &cli.Command{
		Name:  "subway",
		Usage: "Inspect the MTA realtime feeds",
		Subcommands: []*cli.Command{
			{
				Name:      "fetch",
				Usage:     "fetch one feed and dump its trip updates",
				ArgsUsage: "<feed>",
				Action: func(c *cli.Context) error {
					feedName := c.Args().First()
					if feedName == "" {
						feedName = FeedNumbered
					}

					env := util.GetEnvironmentVariables()
					client := NewClient(env["MTA_API_KEY"])

					ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
					defer cancel()

					feed, err := client.FetchFeed(ctx, feedName)
					if err != nil {
						return err
					}

					fmt.Printf("feed %s: %d entities, header timestamp %d\n",
						feedName, len(feed.GetEntity()), feed.GetHeader().GetTimestamp())

					for _, entity := range feed.GetEntity() {
						tripUpdate := entity.GetTripUpdate()
						if tripUpdate == nil {
							continue
						}
						pretty.Println(tripUpdate.GetTrip().GetTripId(), tripUpdate.GetTrip().GetRouteId(), len(tripUpdate.GetStopTimeUpdate()))
					}

					return nil
				},
			},
		},
	}
}
