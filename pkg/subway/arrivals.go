package subway

import (
	"sort"
	"strings"
	"time"

	"github.com/MobilityData/gtfs-realtime-bindings/golang/gtfs"
)

// arrivalsPerDirection caps the departure board at the next trains per
// configured station direction.
const arrivalsPerDirection = 2

// StationDirection is one configured platform on the departure board.
type StationDirection struct {
	StationBlockID string
	StationName    string
	Lines          []string
	DirectionCode  string
	DirectionLabel string
	Destination    string
	StopID         string
}

type Arrival struct {
	Line           string `json:"line"`
	Station        string `json:"station"`
	StationBlockID string `json:"station_block_id"`
	Direction      string `json:"direction"`
	DirectionLabel string `json:"direction_label"`
	Destination    string `json:"direction_destination"`
	MinutesUntil   int    `json:"minutes_until"`
	RouteID        string `json:"route_id"`
	StopID         string `json:"stop_id"`
	Timestamp      int64  `json:"timestamp"`
}

type arrivalCandidate struct {
	timestamp int64
	routeID   string
}

// ArrivalBoard selects the next arrivals for every configured station
// direction across all fetched feeds. Trips are not filtered by their
// advertised line: service changes temporarily route other lines over a
// platform, and filtering would hide those trains.
func ArrivalBoard(feeds map[string]*gtfs.FeedMessage, stations []StationDirection, now time.Time) []Arrival {
	nowTimestamp := now.Unix()

	var arrivals []Arrival

	for _, station := range stations {
		candidates := collectCandidates(feeds, station.StopID, nowTimestamp)

		sort.Slice(candidates, func(i, j int) bool {
			if candidates[i].timestamp != candidates[j].timestamp {
				return candidates[i].timestamp < candidates[j].timestamp
			}
			return candidates[i].routeID < candidates[j].routeID
		})

		type dedupeKey struct {
			routeID   string
			timestamp int64
		}
		seen := map[dedupeKey]bool{}

		kept := 0
		for _, candidate := range candidates {
			key := dedupeKey{routeID: candidate.routeID, timestamp: candidate.timestamp}
			if seen[key] {
				continue
			}
			seen[key] = true

			arrivals = append(arrivals, Arrival{
				Line:           candidate.routeID,
				Station:        station.StationName,
				StationBlockID: station.StationBlockID,
				Direction:      station.DirectionCode,
				DirectionLabel: station.DirectionLabel,
				Destination:    station.Destination,
				MinutesUntil:   minutesUntilTimestamp(candidate.timestamp, nowTimestamp),
				RouteID:        candidate.routeID,
				StopID:         station.StopID,
				Timestamp:      nowTimestamp,
			})

			kept++
			if kept >= arrivalsPerDirection {
				break
			}
		}
	}

	return arrivals
}

func collectCandidates(feeds map[string]*gtfs.FeedMessage, stopID string, nowTimestamp int64) []arrivalCandidate {
	var candidates []arrivalCandidate

	for _, feed := range feeds {
		for _, entity := range feed.GetEntity() {
			tripUpdate := entity.GetTripUpdate()
			if tripUpdate == nil {
				continue
			}

			routeID := strings.ToUpper(strings.TrimSpace(tripUpdate.GetTrip().GetRouteId()))
			if routeID == "" {
				continue
			}

			for _, update := range tripUpdate.GetStopTimeUpdate() {
				if update.GetStopId() != stopID {
					continue
				}

				timestamp := update.GetArrival().GetTime()
				if timestamp == 0 {
					timestamp = update.GetDeparture().GetTime()
				}
				if timestamp == 0 || timestamp < nowTimestamp {
					continue
				}

				candidates = append(candidates, arrivalCandidate{
					timestamp: timestamp,
					routeID:   routeID,
				})
			}
		}
	}

	return candidates
}

func minutesUntilTimestamp(timestamp int64, nowTimestamp int64) int {
	if timestamp <= nowTimestamp {
		return 0
	}
	return int((timestamp - nowTimestamp) / 60)
}

// uptownLines are the services where riders say uptown and downtown rather
// than northbound and southbound.
var uptownLines = map[string]bool{
	"1": true, "2": true, "3": true, "4": true, "5": true, "6": true,
	"A": true, "C": true, "E": true, "B": true, "D": true, "F": true,
	"M": true, "N": true, "Q": true, "R": true, "W": true,
}

// DirectionLabel derives the rider-facing label for a direction code when the
// configuration does not provide one.
func DirectionLabel(lines []string, code string) string {
	directionCode := strings.ToUpper(strings.TrimSpace(code))

	isUptownService := false
	for _, line := range lines {
		if uptownLines[strings.ToUpper(strings.TrimSpace(line))] {
			isUptownService = true
			break
		}
	}

	switch {
	case directionCode == "N" && isUptownService:
		return "Uptown"
	case directionCode == "S" && isUptownService:
		return "Downtown"
	case directionCode == "N":
		return "Northbound"
	case directionCode == "S":
		return "Southbound"
	case directionCode == "E":
		return "Eastbound"
	case directionCode == "W":
		return "Westbound"
	}

	return "Unknown direction"
}
