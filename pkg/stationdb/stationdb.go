package stationdb

import (
	"fmt"
	"os"
	"regexp"
	"sort"
	"strings"

	"github.com/gocarina/gocsv"
)

// Stop is one row of the static GTFS stops.txt. Platform stops carry a
// directional suffix (127N, 127S) and point at their parent station complex.
type Stop struct {
	ID            string  `csv:"stop_id"`
	Name          string  `csv:"stop_name"`
	Latitude      float64 `csv:"stop_lat"`
	Longitude     float64 `csv:"stop_lon"`
	LocationType  string  `csv:"location_type"`
	ParentStation string  `csv:"parent_station"`
}

// Registry is the in-memory stop database loaded once at startup.
type Registry struct {
	stops []Stop
	byID  map[string]*Stop
}

func Load(path string) (*Registry, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening stops file: %w", err)
	}
	defer file.Close()

	var stops []Stop
	if err := gocsv.UnmarshalFile(file, &stops); err != nil {
		return nil, fmt.Errorf("parsing stops file %s: %w", path, err)
	}

	return NewRegistry(stops), nil
}

func NewRegistry(stops []Stop) *Registry {
	registry := &Registry{
		byID: map[string]*Stop{},
	}

	for _, stop := range stops {
		if stop.ID == "" || stop.Name == "" {
			continue
		}
		registry.stops = append(registry.stops, stop)
	}
	for position := range registry.stops {
		registry.byID[registry.stops[position].ID] = &registry.stops[position]
	}

	return registry
}

func (registry *Registry) Stop(stopID string) (*Stop, bool) {
	stop, found := registry.byID[stopID]
	return stop, found
}

func (registry *Registry) StopName(stopID string) string {
	if stop, found := registry.byID[stopID]; found {
		return stop.Name
	}
	return ""
}

// ParentStationID returns the parent complex for a platform stop, or the stop
// itself when it has no parent (parent rows reference nothing).
func (registry *Registry) ParentStationID(stopID string) string {
	stop, found := registry.byID[stopID]
	if !found {
		return ""
	}
	if stop.ParentStation != "" {
		return stop.ParentStation
	}
	return stop.ID
}

var (
	ordinalSuffixes = regexp.MustCompile(`(\d+)(st|nd|rd|th)\b`)
	dropCharacters  = regexp.MustCompile(`[^a-z0-9\s-]`)
	runsOfSpace     = regexp.MustCompile(`[-\s]+`)
)

var streetAbbreviations = map[string]string{
	"street":    "st",
	"avenue":    "av",
	"boulevard": "blvd",
	"road":      "rd",
	"square":    "sq",
	"center":    "ctr",
	"terminal":  "term",
	"junction":  "jct",
}

// NormalizeStationName reduces a station name to a comparison key: lower
// case, ordinal suffixes stripped, common street words abbreviated the way
// the MTA's own stop names abbreviate them, punctuation collapsed to spaces.
func NormalizeStationName(value string) string {
	cleaned := strings.ToLower(value)
	cleaned = strings.NewReplacer("–", "-", "—", "-", "/", " ").Replace(cleaned)
	cleaned = dropCharacters.ReplaceAllString(cleaned, "")
	cleaned = ordinalSuffixes.ReplaceAllString(cleaned, "$1")
	cleaned = runsOfSpace.ReplaceAllString(cleaned, " ")
	cleaned = strings.TrimSpace(cleaned)

	words := strings.Split(cleaned, " ")
	for position, word := range words {
		if abbreviated, found := streetAbbreviations[word]; found {
			words[position] = abbreviated
		}
	}

	return strings.Join(words, " ")
}

func namesMatch(candidate string, target string) bool {
	candidateKey := NormalizeStationName(candidate)
	targetKey := NormalizeStationName(target)

	return candidateKey == targetKey ||
		strings.HasPrefix(candidateKey, targetKey) ||
		strings.HasPrefix(targetKey, candidateKey)
}

// preferredParentStations disambiguates station names that exist at more
// than one complex. "Wall St" alone matches both the 2/3 and the 4/5
// platforms; the tracker wants the Lexington Av ones.
var preferredParentStations = map[string][]string{
	"59 st":                     {"629"},
	"grand central 42 st":       {"631"},
	"14 st union sq":            {"635"},
	"brooklyn bridge":           {"640"},
	"brooklyn bridge city hall": {"640"},
	"wall st":                   {"419"},
	"fulton st":                 {"418"},
}

// ResolveStopID finds the platform stop for a station name and direction
// suffix (N or S). Ambiguous names fall back to the preferred parent list,
// then to the lowest stop ID so resolution stays deterministic.
func (registry *Registry) ResolveStopID(name string, direction string) (string, error) {
	suffix := strings.ToUpper(strings.TrimSpace(direction))
	if suffix != "N" && suffix != "S" {
		return "", fmt.Errorf("unsupported direction suffix %q", direction)
	}

	var matches []*Stop
	for position := range registry.stops {
		stop := &registry.stops[position]
		if stop.LocationType == "1" {
			continue
		}
		if !strings.HasSuffix(strings.ToUpper(stop.ID), suffix) {
			continue
		}
		if namesMatch(stop.Name, name) {
			matches = append(matches, stop)
		}
	}

	if len(matches) == 0 {
		return "", fmt.Errorf("no stop found for %q (%s)", name, suffix)
	}

	if preferredParents, found := preferredParentStations[NormalizeStationName(name)]; found {
		var preferred []*Stop
		for _, stop := range matches {
			for _, parent := range preferredParents {
				if stop.ParentStation == parent {
					preferred = append(preferred, stop)
					break
				}
			}
		}
		if len(preferred) > 0 {
			matches = preferred
		}
	}

	sort.Slice(matches, func(i, j int) bool {
		return matches[i].ID < matches[j].ID
	})

	return matches[0].ID, nil
}
