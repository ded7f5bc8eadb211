package corridor

import (
	"errors"
	"fmt"
)

// ErrInvalidConfiguration is returned when a corridor cannot be constructed
// from the supplied station list. It is always a startup failure - once New
// returns successfully every key lookup is guaranteed to resolve.
var ErrInvalidConfiguration = errors.New("invalid corridor configuration")

// Station is one position in the tracked corridor. The position in the
// Stations slice is authoritative for ordering - parent station identifiers
// assigned by the feed operator are not monotonic along the direction of
// travel and must never be compared numerically.
type Station struct {
	Key             string
	ParentStationID string
	DisplayName     string

	// WalkMinutes is only meaningful for destination stations and feeds the
	// leave-by calculation.
	WalkMinutes int
}

type Corridor struct {
	Stations []Station

	EntryKey        string
	ExitKey         string
	DestinationKeys []string

	indexByKey      map[string]int
	indexByParentID map[string]int
}

func New(stations []Station, entryKey string, exitKey string, destinationKeys []string) (*Corridor, error) {
	if len(stations) < 2 {
		return nil, fmt.Errorf("%w: requires at least 2 stations, got %d", ErrInvalidConfiguration, len(stations))
	}

	indexByKey := map[string]int{}
	indexByParentID := map[string]int{}

	for index, station := range stations {
		if station.Key == "" || station.ParentStationID == "" {
			return nil, fmt.Errorf("%w: station at position %d missing key or parent station", ErrInvalidConfiguration, index)
		}

		if _, exists := indexByKey[station.Key]; exists {
			return nil, fmt.Errorf("%w: duplicate station key %s", ErrInvalidConfiguration, station.Key)
		}
		if _, exists := indexByParentID[station.ParentStationID]; exists {
			return nil, fmt.Errorf("%w: duplicate parent station %s", ErrInvalidConfiguration, station.ParentStationID)
		}

		indexByKey[station.Key] = index
		indexByParentID[station.ParentStationID] = index
	}

	entryIndex, exists := indexByKey[entryKey]
	if !exists {
		return nil, fmt.Errorf("%w: unknown entry station %s", ErrInvalidConfiguration, entryKey)
	}
	exitIndex, exists := indexByKey[exitKey]
	if !exists {
		return nil, fmt.Errorf("%w: unknown exit station %s", ErrInvalidConfiguration, exitKey)
	}
	if entryIndex >= exitIndex {
		return nil, fmt.Errorf("%w: entry station %s must be strictly upstream of exit station %s", ErrInvalidConfiguration, entryKey, exitKey)
	}

	if len(destinationKeys) == 0 {
		return nil, fmt.Errorf("%w: at least one destination station required", ErrInvalidConfiguration)
	}
	previousIndex := -1
	for _, destinationKey := range destinationKeys {
		destinationIndex, exists := indexByKey[destinationKey]
		if !exists {
			return nil, fmt.Errorf("%w: unknown destination station %s", ErrInvalidConfiguration, destinationKey)
		}
		if destinationIndex <= entryIndex {
			return nil, fmt.Errorf("%w: destination station %s must be downstream of entry station %s", ErrInvalidConfiguration, destinationKey, entryKey)
		}
		if destinationIndex <= previousIndex {
			return nil, fmt.Errorf("%w: destination stations must be listed nearest first (%s out of order)", ErrInvalidConfiguration, destinationKey)
		}
		previousIndex = destinationIndex
	}

	return &Corridor{
		Stations: stations,

		EntryKey:        entryKey,
		ExitKey:         exitKey,
		DestinationKeys: destinationKeys,

		indexByKey:      indexByKey,
		indexByParentID: indexByParentID,
	}, nil
}

// StationByParentID reports the corridor station grouping the given feed
// parent station, if the corridor tracks it.
func (corridor *Corridor) StationByParentID(parentStationID string) (Station, bool) {
	index, exists := corridor.indexByParentID[parentStationID]
	if !exists {
		return Station{}, false
	}

	return corridor.Stations[index], true
}

// IndexByParentID is the ordinal lookup used for every between-ness
// comparison in the classifier.
func (corridor *Corridor) IndexByParentID(parentStationID string) (int, bool) {
	index, exists := corridor.indexByParentID[parentStationID]

	return index, exists
}

func (corridor *Corridor) Index(key string) (int, error) {
	index, exists := corridor.indexByKey[key]
	if !exists {
		return 0, fmt.Errorf("%w: unknown station key %s", ErrInvalidConfiguration, key)
	}

	return index, nil
}

// MustIndex is only valid for keys validated during New - the entry, exit and
// destination keys.
func (corridor *Corridor) MustIndex(key string) int {
	index, err := corridor.Index(key)
	if err != nil {
		panic(err)
	}

	return index
}

func (corridor *Corridor) Station(key string) Station {
	return corridor.Stations[corridor.MustIndex(key)]
}

func (corridor *Corridor) EntryIndex() int {
	return corridor.MustIndex(corridor.EntryKey)
}

func (corridor *Corridor) ExitIndex() int {
	return corridor.MustIndex(corridor.ExitKey)
}

// Destinations returns the destination stations in the configured display
// order, nearest first.
func (corridor *Corridor) Destinations() []Station {
	var destinations []Station
	for _, destinationKey := range corridor.DestinationKeys {
		destinations = append(destinations, corridor.Station(destinationKey))
	}

	return destinations
}
