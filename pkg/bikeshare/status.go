package bikeshare

import (
	"math"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

const (
	walkingSpeedMPS   = 1.4
	metersPerMile     = 1609.344
	minutesPerMile    = metersPerMile / (walkingSpeedMPS * 60)
	staleAfterSeconds = 300
)

// Location is the display's home coordinates.
type Location struct {
	Latitude  float64 `json:"lat" yaml:"lat"`
	Longitude float64 `json:"lng" yaml:"lng"`
}

// ConfiguredStation is one dock the display watches.
type ConfiguredStation struct {
	StationID string
	Name      string
}

// DerivedStation is the rider-facing view of one dock.
type DerivedStation struct {
	StationID       string   `json:"station_id"`
	Name            string   `json:"name"`
	BikesAvailable  int      `json:"bikes_available"`
	EBikesAvailable int      `json:"ebikes_available"`
	DocksAvailable  int      `json:"docks_available"`
	TotalCapacity   int      `json:"total_capacity"`
	IsRenting       bool     `json:"is_renting"`
	IsReturning     bool     `json:"is_returning"`
	LastReported    int64    `json:"last_reported"`
	PercentFull     int      `json:"percent_full"`
	DistanceMiles   *float64 `json:"distance_miles"`
	WalkMinutes     *int     `json:"walk_minutes"`
	Stale           bool     `json:"stale"`
}

// PercentFull is bikes over capacity clamped to 0..100. Zero capacity reads
// as empty rather than dividing by it.
func PercentFull(bikesAvailable int, capacity int) int {
	if capacity <= 0 {
		return 0
	}

	percent := int(math.Round(float64(bikesAvailable) / float64(capacity) * 100))
	if percent < 0 {
		return 0
	}
	if percent > 100 {
		return 100
	}
	return percent
}

func HaversineMiles(lat1, lon1, lat2, lon2 float64) float64 {
	const earthRadiusMiles = 3958.8

	phi1 := lat1 * math.Pi / 180
	phi2 := lat2 * math.Pi / 180
	deltaPhi := (lat2 - lat1) * math.Pi / 180
	deltaLambda := (lon2 - lon1) * math.Pi / 180

	a := math.Pow(math.Sin(deltaPhi/2), 2) +
		math.Cos(phi1)*math.Cos(phi2)*math.Pow(math.Sin(deltaLambda/2), 2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusMiles * c
}

// WalkMinutes converts a distance into whole walking minutes at a steady
// 1.4 m/s, always rounding a non-zero walk up to at least a minute.
func WalkMinutes(distanceMiles float64) int {
	if distanceMiles <= 0 {
		return 0
	}

	minutes := int(math.Round(distanceMiles * minutesPerMile))
	if minutes < 1 {
		return 1
	}
	return minutes
}

// DeriveStatuses joins the catalogue, live counts and configuration into the
// display's dock list, nearest dock first. Stations missing from the live
// feed appear out of service rather than vanishing from the display.
func DeriveStatuses(information []StationInformation, statuses []StationStatus, configured []ConfiguredStation, home *Location, now time.Time) []DerivedStation {
	informationByID := map[string]StationInformation{}
	for _, station := range information {
		informationByID[station.StationID] = station
	}
	statusByID := map[string]StationStatus{}
	for _, status := range statuses {
		statusByID[status.StationID] = status
	}

	var derived []DerivedStation

	for _, station := range configured {
		stationID := strings.TrimSpace(station.StationID)
		if stationID == "" || strings.EqualFold(stationID, "TBD") {
			log.Warn().Str("name", station.Name).Msg("Bikeshare station has no station id configured")
			continue
		}

		info, hasInformation := informationByID[stationID]

		status, hasStatus := statusByID[stationID]
		if !hasStatus {
			log.Warn().Str("station", stationID).Msg("Bikeshare station missing from live status feed")
			status = StationStatus{StationID: stationID}
		}

		totalBikes := status.BikesAvailable + status.EBikesAvailable

		capacity := info.Capacity
		if !hasInformation {
			capacity = totalBikes + status.DocksAvailable
		}

		name := info.Name
		if name == "" {
			name = station.Name
		}

		var distanceMiles *float64
		var walkMinutes *int
		if hasInformation && home != nil {
			distance := HaversineMiles(home.Latitude, home.Longitude, info.Latitude, info.Longitude)
			minutes := WalkMinutes(distance)
			distanceMiles = &distance
			walkMinutes = &minutes
		}

		derived = append(derived, DerivedStation{
			StationID:       stationID,
			Name:            name,
			BikesAvailable:  status.BikesAvailable,
			EBikesAvailable: status.EBikesAvailable,
			DocksAvailable:  status.DocksAvailable,
			TotalCapacity:   capacity,
			IsRenting:       status.IsRenting,
			IsReturning:     status.IsReturning,
			LastReported:    status.LastReported,
			PercentFull:     PercentFull(totalBikes, capacity),
			DistanceMiles:   distanceMiles,
			WalkMinutes:     walkMinutes,
			Stale:           status.LastReported > 0 && now.Unix()-status.LastReported > staleAfterSeconds,
		})
	}

	sort.SliceStable(derived, func(i, j int) bool {
		distanceI, distanceJ := derived[i].DistanceMiles, derived[j].DistanceMiles
		switch {
		case distanceI != nil && distanceJ != nil && *distanceI != *distanceJ:
			return *distanceI < *distanceJ
		case distanceI != nil && distanceJ == nil:
			return true
		case distanceI == nil && distanceJ != nil:
			return false
		}
		return strings.ToLower(derived[i].Name) < strings.ToLower(derived[j].Name)
	})

	return derived
}
