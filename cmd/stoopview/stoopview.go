package main

import (
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stoopview/stoopview/pkg/api"
	"github.com/stoopview/stoopview/pkg/bikeshare"
	"github.com/stoopview/stoopview/pkg/poller"
	"github.com/stoopview/stoopview/pkg/subway"
	"github.com/urfave/cli/v2"

	_ "time/tzdata"
)

func main() {
	godotenv.Load()

	if os.Getenv("STOOPVIEW_LOG_FORMAT") != "JSON" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339})
	}

	if os.Getenv("STOOPVIEW_DEBUG") == "YES" {
		log.Logger = log.Logger.Level(zerolog.DebugLevel)
	} else {
		log.Logger = log.Logger.Level(zerolog.InfoLevel)
	}

	app := &cli.App{
		Name:        "stoopview",
		Description: "Single binary of truth for Stoopview - runs all the services",

		Commands: []*cli.Command{
			api.RegisterCLI(),
			poller.RegisterCLI(),
			subway.RegisterCLI(),
			bikeshare.RegisterCLI(),
		},
	}

	err := app.Run(os.Args)
	if err != nil {
		log.Fatal().Err(err).Send()
	}
}
