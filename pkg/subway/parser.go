package subway

import (
	"strings"
	"time"

	"github.com/MobilityData/gtfs-realtime-bindings/golang/gtfs"

	"github.com/stoopview/stoopview/pkg/stationdb"
	"github.com/stoopview/stoopview/pkg/tracker"
)

// Parser turns decoded feed messages into the value types the rest of the
// backend works with, enriched with names from the static stop registry.
type Parser struct {
	Registry *stationdb.Registry
}

func NewParser(registry *stationdb.Registry) *Parser {
	return &Parser{Registry: registry}
}

// TripSnapshots extracts the trip updates for the given routes travelling in
// the given direction. Entities without a trip update, trips on other routes
// and trips whose direction cannot be determined are skipped.
func (parser *Parser) TripSnapshots(feed *gtfs.FeedMessage, routes []string, direction string) []tracker.TripSnapshot {
	wantedRoutes := map[string]bool{}
	for _, route := range routes {
		wantedRoutes[strings.ToUpper(strings.TrimSpace(route))] = true
	}
	wantedDirection := strings.ToUpper(strings.TrimSpace(direction))

	var snapshots []tracker.TripSnapshot

	for _, entity := range feed.GetEntity() {
		tripUpdate := entity.GetTripUpdate()
		if tripUpdate == nil {
			continue
		}

		descriptor := tripUpdate.GetTrip()
		routeID := strings.ToUpper(strings.TrimSpace(descriptor.GetRouteId()))
		if !wantedRoutes[routeID] {
			continue
		}

		if tripDirection(tripUpdate) != wantedDirection {
			continue
		}

		predictions := parser.predictions(tripUpdate)
		if len(predictions) == 0 {
			continue
		}

		snapshots = append(snapshots, tracker.TripSnapshot{
			TripID:      descriptor.GetTripId(),
			RouteID:     routeID,
			Direction:   wantedDirection,
			Predictions: predictions,
		})
	}

	return snapshots
}

func (parser *Parser) predictions(tripUpdate *gtfs.TripUpdate) []tracker.StopTimePrediction {
	var predictions []tracker.StopTimePrediction

	for position, update := range tripUpdate.GetStopTimeUpdate() {
		stopID := update.GetStopId()
		if stopID == "" {
			continue
		}

		// Arrival when present, departure otherwise. First stops often only
		// carry a departure.
		timestamp := update.GetArrival().GetTime()
		if timestamp == 0 {
			timestamp = update.GetDeparture().GetTime()
		}
		if timestamp == 0 {
			continue
		}

		sequenceIndex := int(update.GetStopSequence())
		if sequenceIndex == 0 {
			sequenceIndex = position
		}

		predictions = append(predictions, tracker.StopTimePrediction{
			StopID:          stopID,
			ParentStationID: parser.parentStationID(stopID),
			StopName:        parser.Registry.StopName(stopID),
			Predicted:       time.Unix(timestamp, 0),
			SequenceIndex:   sequenceIndex,
		})
	}

	return predictions
}

// parentStationID prefers the static registry; for stops missing from it the
// MTA convention of parent identifier plus a directional letter still lets us
// recover the parent.
func (parser *Parser) parentStationID(stopID string) string {
	if parent := parser.Registry.ParentStationID(stopID); parent != "" {
		return parent
	}

	if len(stopID) > 1 {
		suffix := stopID[len(stopID)-1]
		if suffix == 'N' || suffix == 'S' {
			return stopID[:len(stopID)-1]
		}
	}

	return stopID
}

// tripDirection resolves a trip's direction of travel: the trip descriptor's
// direction id when present (0 north, 1 south), otherwise a majority vote
// over the stop identifier suffixes. A tie is unresolvable.
func tripDirection(tripUpdate *gtfs.TripUpdate) string {
	descriptor := tripUpdate.GetTrip()
	if descriptor != nil && descriptor.DirectionId != nil {
		if descriptor.GetDirectionId() == 0 {
			return "N"
		}
		return "S"
	}

	counts := map[byte]int{}
	for _, update := range tripUpdate.GetStopTimeUpdate() {
		stopID := update.GetStopId()
		if stopID == "" {
			continue
		}
		suffix := stopID[len(stopID)-1]
		if suffix == 'N' || suffix == 'S' {
			counts[suffix]++
		}
	}

	if counts['N'] == counts['S'] {
		return ""
	}
	if counts['N'] > counts['S'] {
		return "N"
	}
	return "S"
}
