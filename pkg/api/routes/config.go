package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/stoopview/stoopview/pkg/config"
)

// ConfigRouter exposes the read-only subset of the configuration the
// frontend renders from. Nothing here may leak credentials or internals.
func ConfigRouter(router fiber.Router, loaded *config.Config) {
	frontend := buildFrontendConfig(loaded)

	router.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"success": true,
			"data":    frontend,
		})
	})
}

func buildFrontendConfig(loaded *config.Config) fiber.Map {
	stations := []fiber.Map{}
	for _, block := range loaded.Subway.Stations {
		directions := []fiber.Map{}
		for _, direction := range block.Directions {
			directions = append(directions, fiber.Map{
				"code":        direction.Code,
				"label":       direction.Label,
				"destination": direction.Destination,
				"stop_id":     direction.StopID,
			})
		}

		stations = append(stations, fiber.Map{
			"id":         block.ID,
			"name":       block.Name,
			"lines":      block.Lines,
			"lat":        block.Latitude,
			"lng":        block.Longitude,
			"directions": directions,
		})
	}

	bikeshareStations := []fiber.Map{}
	for _, station := range loaded.Bikeshare.Stations {
		bikeshareStations = append(bikeshareStations, fiber.Map{
			"name":       station.Name,
			"station_id": station.StationID,
		})
	}

	inbound := fiber.Map{"enabled": false}
	if loaded.InboundEnabled() {
		walkMinutes := fiber.Map{}
		for _, station := range loaded.Inbound.Stations {
			if station.Destination {
				walkMinutes[station.Key] = station.WalkTimeMinutes
			}
		}

		inbound = fiber.Map{
			"enabled":      true,
			"label":        loaded.Inbound.Label,
			"routes":       loaded.Inbound.Routes,
			"walk_minutes": walkMinutes,
		}
	}

	return fiber.Map{
		"display": fiber.Map{
			"refresh_interval_ms":    loaded.Display.RefreshIntervalMS,
			"staleness_warning_sec":  loaded.Display.StalenessWarningSec,
			"staleness_critical_sec": loaded.Display.StalenessCriticalSec,
			"theme":                  loaded.Display.Theme,
			"orientation":            loaded.Display.Orientation,
		},
		"location": fiber.Map{
			"name": loaded.Location.Name,
			"lat":  loaded.Location.Latitude,
			"lng":  loaded.Location.Longitude,
		},
		"subway": fiber.Map{
			"stations": stations,
		},
		"citibike": fiber.Map{
			"stations": bikeshareStations,
		},
		"inbound_tracker": inbound,
	}
}
