package routes

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/stoopview/stoopview/pkg/health"
	"github.com/stoopview/stoopview/pkg/snapshot"
)

func HealthRouter(router fiber.Router, checker *health.Checker, sources []string) {
	router.Get("/", HealthHandler(checker, sources))
}

func HealthHandler(checker *health.Checker, sources []string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.JSON(checker.Report(sources, time.Now()))
	}
}

// TrackedSources lists the cache slots the display depends on.
func TrackedSources(inboundEnabled bool) []string {
	sources := []string{snapshot.SourceSubway, snapshot.SourceBikeshare}
	if inboundEnabled {
		sources = append(sources, snapshot.SourceInbound)
	}
	return sources
}
