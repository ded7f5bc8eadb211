package poller

import (
	"context"
	"fmt"
	"time"

	"github.com/MobilityData/gtfs-realtime-bindings/golang/gtfs"
	"github.com/rs/zerolog/log"

	"github.com/stoopview/stoopview/pkg/bikeshare"
	"github.com/stoopview/stoopview/pkg/config"
	"github.com/stoopview/stoopview/pkg/corridor"
	"github.com/stoopview/stoopview/pkg/snapshot"
	"github.com/stoopview/stoopview/pkg/stationdb"
	"github.com/stoopview/stoopview/pkg/subway"
	"github.com/stoopview/stoopview/pkg/tracker"
	"github.com/stoopview/stoopview/pkg/util"
)

// Manager owns the background fetch loops and writes their derived views
// into the snapshot cache.
type Manager struct {
	Config *config.Config
	Cache  *snapshot.Cache

	registry     *stationdb.Registry
	subwayClient *subway.Client
	parser       *subway.Parser

	boardStations []subway.StationDirection

	trackedCorridor *corridor.Corridor
	classifier      *tracker.Classifier
	trackerFeeds    []string

	bikeClient *bikeshare.Client
}

func NewManager(loaded *config.Config, cache *snapshot.Cache) (*Manager, error) {
	registry, err := stationdb.Load(loaded.StopsFile)
	if err != nil {
		return nil, err
	}

	env := util.GetEnvironmentVariables()

	manager := &Manager{
		Config: loaded,
		Cache:  cache,

		registry:     registry,
		subwayClient: subway.NewClient(env["MTA_API_KEY"]),
		bikeClient:   bikeshare.NewClient(),
	}
	manager.parser = subway.NewParser(registry)
	manager.boardStations = boardStations(loaded)

	if loaded.InboundEnabled() {
		if err := manager.setupTracker(loaded.Inbound); err != nil {
			return nil, err
		}
	}

	return manager, nil
}

func (manager *Manager) setupTracker(inbound *config.Inbound) error {
	var specs []stationdb.CorridorStationSpec
	for _, station := range inbound.Stations {
		specs = append(specs, stationdb.CorridorStationSpec{
			Key:         station.Key,
			Name:        station.Name,
			WalkMinutes: station.WalkTimeMinutes,
		})
	}

	trackedCorridor, err := manager.registry.BuildCorridor(
		specs,
		inbound.Direction,
		inbound.TrackingWindow.StartStation,
		inbound.TrackingWindow.EndStation,
		inbound.DestinationKeys(),
	)
	if err != nil {
		return fmt.Errorf("building tracked corridor: %w", err)
	}

	classifier, err := tracker.NewClassifier(trackedCorridor, tracker.Limits{
		MaxNext:     inbound.TrackingWindow.IncludeNextAtStart,
		MaxInFlight: inbound.MaxTrains,
	}, inbound.BuildingBufferMinutes)
	if err != nil {
		return err
	}

	manager.trackedCorridor = trackedCorridor
	manager.classifier = classifier
	manager.trackerFeeds = subway.RequiredFeeds(inbound.Routes)

	return nil
}

// TrackedCorridor is nil when the inbound tracker is disabled.
func (manager *Manager) TrackedCorridor() *corridor.Corridor {
	return manager.trackedCorridor
}

func boardStations(loaded *config.Config) []subway.StationDirection {
	var stations []subway.StationDirection

	for _, block := range loaded.Subway.Stations {
		for _, direction := range block.Directions {
			label := direction.Label
			if label == "" {
				label = subway.DirectionLabel(block.Lines, direction.Code)
			}

			stations = append(stations, subway.StationDirection{
				StationBlockID: block.ID,
				StationName:    block.Name,
				Lines:          block.Lines,
				DirectionCode:  direction.Code,
				DirectionLabel: label,
				Destination:    direction.Destination,
				StopID:         direction.StopID,
			})
		}
	}

	return stations
}

// Run starts one loop per source and blocks until the context is cancelled.
// Each loop fetches immediately, then keeps its configured cadence.
func (manager *Manager) Run(ctx context.Context) {
	subwayInterval := time.Duration(manager.Config.Subway.PollIntervalSeconds) * time.Second
	bikeshareInterval := time.Duration(manager.Config.Bikeshare.PollIntervalSeconds) * time.Second

	go manager.runLoop(ctx, snapshot.SourceSubway, subwayInterval, manager.pollSubway)
	go manager.runLoop(ctx, snapshot.SourceBikeshare, bikeshareInterval, manager.pollBikeshare)

	<-ctx.Done()
}

func (manager *Manager) runLoop(ctx context.Context, source string, refreshRate time.Duration, task func(context.Context) error) {
	log.Info().Str("source", source).Dur("interval", refreshRate).Msg("Starting poll loop")

	for {
		startTime := time.Now()

		fetchesTotal.WithLabelValues(source).Inc()
		if err := task(ctx); err != nil {
			fetchErrorsTotal.WithLabelValues(source).Inc()
			log.Error().Err(err).Str("source", source).Msg("Poll cycle failed")
		}

		executionDuration := time.Since(startTime)
		fetchDuration.WithLabelValues(source).Observe(executionDuration.Seconds())

		waitTime := refreshRate - executionDuration
		if waitTime < 0 {
			waitTime = 0
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(waitTime):
		}
	}
}

func (manager *Manager) pollSubway(ctx context.Context) error {
	now := time.Now()

	feedNames := subway.RequiredFeeds(manager.Config.Lines())
	feeds, err := manager.subwayClient.FetchFeeds(ctx, feedNames)
	if err != nil {
		manager.Cache.StoreError(snapshot.SourceSubway, err, now)
		if manager.classifier != nil {
			manager.Cache.StoreError(snapshot.SourceInbound, err, now)
		}
		return err
	}

	arrivals := subway.ArrivalBoard(feeds, manager.boardStations, now)
	arrivalsListed.Set(float64(len(arrivals)))
	if err := snapshot.Store(manager.Cache, snapshot.SourceSubway, arrivals, now); err != nil {
		return err
	}

	if manager.classifier == nil {
		return nil
	}

	return manager.classifyInbound(feeds, now)
}

func (manager *Manager) classifyInbound(feeds map[string]*gtfs.FeedMessage, now time.Time) error {
	inbound := manager.Config.Inbound

	var trips []tracker.TripSnapshot
	for _, feedName := range manager.trackerFeeds {
		feed, fetched := feeds[feedName]
		if !fetched {
			continue
		}
		trips = append(trips, manager.parser.TripSnapshots(feed, inbound.Routes, inbound.Direction)...)
	}

	result, err := manager.classifier.Classify(trips, now)
	if err != nil {
		manager.Cache.StoreError(snapshot.SourceInbound, err, now)
		return err
	}

	inboundTrains.WithLabelValues(tracker.WindowBucketApproachingStart).Set(float64(len(result.NextAtEntry)))
	inboundTrains.WithLabelValues(tracker.WindowBucketInFlight).Set(float64(len(result.InFlight)))

	return snapshot.Store(manager.Cache, snapshot.SourceInbound, result, now)
}

func (manager *Manager) pollBikeshare(ctx context.Context) error {
	now := time.Now()

	information, err := manager.bikeClient.StationInformation(ctx)
	if err != nil {
		manager.Cache.StoreError(snapshot.SourceBikeshare, err, now)
		return err
	}

	statuses, err := manager.bikeClient.StationStatus(ctx)
	if err != nil {
		manager.Cache.StoreError(snapshot.SourceBikeshare, err, now)
		return err
	}

	var configured []bikeshare.ConfiguredStation
	for _, station := range manager.Config.Bikeshare.Stations {
		configured = append(configured, bikeshare.ConfiguredStation{
			StationID: station.StationID,
			Name:      station.Name,
		})
	}

	home := &bikeshare.Location{
		Latitude:  manager.Config.Location.Latitude,
		Longitude: manager.Config.Location.Longitude,
	}
	if manager.Config.Location.Latitude == 0 && manager.Config.Location.Longitude == 0 {
		home = nil
	}

	derived := bikeshare.DeriveStatuses(information, statuses, configured, home, now)

	return snapshot.Store(manager.Cache, snapshot.SourceBikeshare, derived, now)
}
