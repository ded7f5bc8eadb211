package bikeshare

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/kr/pretty"
	"github.com/urfave/cli/v2"

	"github.com/stoopview/stoopview/pkg/config"
)

func RegisterCLI() *cli.Command {
	configFlag := &cli.StringFlag{
		Name:  "config",
		Usage: "path to config.yaml",
		Value: "config.yaml",
	}

	return &cli.Command{
		Name:  "bikeshare",
		Usage: "Inspect the Citi Bike GBFS feeds",
		Subcommands: []*cli.Command{
			{
				Name:  "status",
				Usage: "print the dock board for the configured stations",
				Flags: []cli.Flag{configFlag},
				Action: func(c *cli.Context) error {
					loaded, err := config.Load(c.String("config"))
					if err != nil {
						return err
					}

					ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
					defer cancel()

					client := NewClient()
					information, err := client.StationInformation(ctx)
					if err != nil {
						return err
					}
					statuses, err := client.StationStatus(ctx)
					if err != nil {
						return err
					}

					var configured []ConfiguredStation
					for _, station := range loaded.Bikeshare.Stations {
						configured = append(configured, ConfiguredStation{
							StationID: station.StationID,
							Name:      station.Name,
						})
					}

					home := &Location{Latitude: loaded.Location.Latitude, Longitude: loaded.Location.Longitude}
					derived := DeriveStatuses(information, statuses, configured, home, time.Now())

					for _, station := range derived {
						printStation(station)
					}

					return nil
				},
			},
			{
				Name:      "resolve",
				Usage:     "resolve a station name against the live catalogue",
				ArgsUsage: "<name>",
				Flags:     []cli.Flag{configFlag},
				Action: func(c *cli.Context) error {
					query := strings.Join(c.Args().Slice(), " ")
					if query == "" {
						return fmt.Errorf("resolve requires a station name")
					}

					loaded, err := config.Load(c.String("config"))
					if err != nil {
						return err
					}

					ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
					defer cancel()

					information, err := NewClient().StationInformation(ctx)
					if err != nil {
						return err
					}

					home := &Location{Latitude: loaded.Location.Latitude, Longitude: loaded.Location.Longitude}

					station, found := ResolveStation(query, information, home)
					if !found {
						fmt.Printf("no station matches %q, nearest docks:\n", query)
						for _, nearby := range NearbyStations(information, home, 3) {
							pretty.Println(nearby)
						}
						return nil
					}

					pretty.Println(station)
					return nil
				},
			},
		},
	}
}

func printStation(station DerivedStation) {
	fmt.Println(strings.ToUpper(station.Name))
	fmt.Printf("  [%s]  %d%% full\n", renderBar(station.PercentFull, 14), station.PercentFull)
	fmt.Printf("  Regular bikes:  %d\n", station.BikesAvailable)
	fmt.Printf("  E-bikes:        %d\n", station.EBikesAvailable)
	fmt.Printf("  Empty docks:    %d\n", station.DocksAvailable)
	if station.WalkMinutes != nil {
		fmt.Printf("  Walk:           %d min\n", *station.WalkMinutes)
	}
	if station.Stale {
		fmt.Println("  WARNING: data is stale (>5 minutes old)")
	}
}

func renderBar(percentFull int, width int) string {
	filled := percentFull * width / 100
	if filled > width {
		filled = width
	}
	return strings.Repeat("#", filled) + strings.Repeat("-", width-filled)
}
