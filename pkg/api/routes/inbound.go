package routes

import (
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/liip/sheriff"

	"github.com/stoopview/stoopview/pkg/config"
	"github.com/stoopview/stoopview/pkg/corridor"
	"github.com/stoopview/stoopview/pkg/snapshot"
	"github.com/stoopview/stoopview/pkg/tracker"
)

// InboundRouter serves the corridor tracker: trains next at the window start
// first, then the in-flight group, in their classifier order.
func InboundRouter(router fiber.Router, cache *snapshot.Cache, loaded *config.Config, trackedCorridor *corridor.Corridor) {
	windowDescription := describeTrackingWindow(loaded, trackedCorridor)

	router.Get("/", func(c *fiber.Ctx) error {
		result, entry, found := snapshot.Load[tracker.Result](cache, snapshot.SourceInbound)

		trains := []tracker.AnnotatedTrip{}
		if found {
			trains = append(trains, result.NextAtEntry...)
			trains = append(trains, result.InFlight...)
		}

		trainsReduced, err := sheriff.Marshal(&sheriff.Options{
			Groups: []string{"basic"},
		}, trains)
		if err != nil {
			c.SendStatus(fiber.StatusInternalServerError)
			return c.JSON(fiber.Map{
				"error": "could not reduce trains",
			})
		}

		return c.JSON(fiber.Map{
			"trains":          trainsReduced,
			"last_updated":    lastUpdatedISO(entry),
			"tracking_window": windowDescription,
		})
	})
}

func lastUpdatedISO(entry snapshot.Entry) *string {
	if entry.LastUpdated.IsZero() {
		return nil
	}
	formatted := entry.LastUpdated.UTC().Format("2006-01-02T15:04:05Z")
	return &formatted
}

// describeTrackingWindow renders "Grand Central-42 St -> Wall St (+2 @ start)"
// from the resolved corridor, falling back to the tracker label.
func describeTrackingWindow(loaded *config.Config, trackedCorridor *corridor.Corridor) string {
	if !loaded.InboundEnabled() || trackedCorridor == nil {
		return "Inbound"
	}

	window := loaded.Inbound.TrackingWindow

	// The window keys were validated during corridor construction.
	start := trackedCorridor.Station(window.StartStation)
	end := trackedCorridor.Station(window.EndStation)

	description := fmt.Sprintf("%s → %s", start.DisplayName, end.DisplayName)
	if window.IncludeNextAtStart > 0 {
		description += fmt.Sprintf(" (+%d @ start)", window.IncludeNextAtStart)
	}
	return description
}
