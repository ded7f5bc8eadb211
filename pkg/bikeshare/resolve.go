package bikeshare

import (
	"sort"
	"strings"

	"github.com/xrash/smetrics"
)

// similarityFloor is the minimum Jaro-Winkler score a fuzzy match needs;
// below it a query just doesn't name a real station.
const similarityFloor = 0.80

func normalizeName(name string) string {
	return strings.Join(strings.Fields(strings.ToLower(name)), " ")
}

// ResolveStation finds the catalogue station a configured name refers to.
// Exact normalized matches win; otherwise the highest Jaro-Winkler score
// above the floor. Ties go to the station closest to home.
func ResolveStation(query string, stations []StationInformation, home *Location) (StationInformation, bool) {
	normalizedQuery := normalizeName(query)
	if normalizedQuery == "" {
		return StationInformation{}, false
	}

	var exact []StationInformation
	for _, station := range stations {
		if normalizeName(station.Name) == normalizedQuery {
			exact = append(exact, station)
		}
	}
	if len(exact) > 0 {
		sortByDistance(exact, home)
		return exact[0], true
	}

	bestScore := 0.0
	var best []StationInformation
	for _, station := range stations {
		score := smetrics.JaroWinkler(normalizedQuery, normalizeName(station.Name), 0.7, 4)
		if score < similarityFloor {
			continue
		}
		switch {
		case score > bestScore:
			bestScore = score
			best = []StationInformation{station}
		case score == bestScore:
			best = append(best, station)
		}
	}

	if len(best) == 0 {
		return StationInformation{}, false
	}

	sortByDistance(best, home)
	return best[0], true
}

// NearbyStations lists the closest catalogue stations to home, for the
// resolve CLI's suggestions.
func NearbyStations(stations []StationInformation, home *Location, limit int) []StationInformation {
	if home == nil || limit <= 0 {
		return nil
	}

	nearby := make([]StationInformation, len(stations))
	copy(nearby, stations)
	sortByDistance(nearby, home)

	if len(nearby) > limit {
		nearby = nearby[:limit]
	}
	return nearby
}

func sortByDistance(stations []StationInformation, home *Location) {
	sort.SliceStable(stations, func(i, j int) bool {
		if home == nil {
			return stations[i].StationID < stations[j].StationID
		}
		distanceI := HaversineMiles(home.Latitude, home.Longitude, stations[i].Latitude, stations[i].Longitude)
		distanceJ := HaversineMiles(home.Latitude, home.Longitude, stations[j].Latitude, stations[j].Longitude)
		return distanceI < distanceJ
	})
}
