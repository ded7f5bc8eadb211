package api

import (
	"github.com/gofiber/adaptor/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/stoopview/stoopview/pkg/api/routes"
	"github.com/stoopview/stoopview/pkg/config"
	"github.com/stoopview/stoopview/pkg/corridor"
	"github.com/stoopview/stoopview/pkg/health"
	"github.com/stoopview/stoopview/pkg/snapshot"
)

// SetupServer wires the routes and blocks serving on the listen address.
func SetupServer(listen string, loaded *config.Config, cache *snapshot.Cache, checker *health.Checker, trackedCorridor *corridor.Corridor) error {
	webApp := fiber.New()
	webApp.Use(NewLogger())

	sources := routes.TrackedSources(loaded.InboundEnabled())

	group := webApp.Group("/api")

	group.Get("/version", routes.APIVersion)

	routes.SubwayRouter(group.Group("/subway"), cache)
	routes.InboundRouter(group.Group("/inbound"), cache, loaded, trackedCorridor)
	routes.BikeshareRouter(group.Group("/citibike"), cache)
	routes.HealthRouter(group.Group("/health"), checker, sources)
	routes.ConfigRouter(group.Group("/config"), loaded)

	// Kiosk probes hit the bare path.
	webApp.Get("/health", routes.HealthHandler(checker, sources))

	webApp.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	webApp.Static("/", "./frontend")

	return webApp.Listen(listen)
}
