package routes

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/stoopview/stoopview/pkg/bikeshare"
	"github.com/stoopview/stoopview/pkg/snapshot"
	"github.com/stoopview/stoopview/pkg/subway"
)

// SubwayRouter serves the arrival board, always with success true: an empty
// or not-yet-fetched board is empty data, not an error.
func SubwayRouter(router fiber.Router, cache *snapshot.Cache) {
	router.Get("/", func(c *fiber.Ctx) error {
		arrivals, entry, found := snapshot.Load[[]subway.Arrival](cache, snapshot.SourceSubway)
		if !found {
			arrivals = []subway.Arrival{}
		}

		return c.JSON(fiber.Map{
			"success":           true,
			"data":              arrivals,
			"last_updated":      lastUpdatedUnix(entry),
			"staleness_seconds": stalenessSeconds(entry, time.Now()),
		})
	})
}

// BikeshareRouter serves the dock board with the same envelope.
func BikeshareRouter(router fiber.Router, cache *snapshot.Cache) {
	router.Get("/", func(c *fiber.Ctx) error {
		docks, entry, found := snapshot.Load[[]bikeshare.DerivedStation](cache, snapshot.SourceBikeshare)
		if !found {
			docks = []bikeshare.DerivedStation{}
		}

		return c.JSON(fiber.Map{
			"success":           true,
			"data":              docks,
			"last_updated":      lastUpdatedUnix(entry),
			"staleness_seconds": stalenessSeconds(entry, time.Now()),
		})
	})
}

func lastUpdatedUnix(entry snapshot.Entry) *int64 {
	if entry.LastUpdated.IsZero() {
		return nil
	}
	updated := entry.LastUpdated.Unix()
	return &updated
}

func stalenessSeconds(entry snapshot.Entry, now time.Time) *int64 {
	if entry.LastUpdated.IsZero() {
		return nil
	}
	age := int64(now.Sub(entry.LastUpdated).Seconds())
	if age < 0 {
		age = 0
	}
	return &age
}
