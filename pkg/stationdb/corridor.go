package stationdb

import (
	"fmt"

	"github.com/stoopview/stoopview/pkg/corridor"
)

// CorridorStationSpec is one configured corridor stop, by station name. The
// registry resolves the name into its platform and parent complex.
type CorridorStationSpec struct {
	Key         string
	Name        string
	WalkMinutes int
}

// BuildCorridor resolves the configured station names for one direction into
// corridor stations and constructs the validated corridor. Any unresolvable
// name is a configuration error.
func (registry *Registry) BuildCorridor(specs []CorridorStationSpec, direction string, entryKey string, exitKey string, destinationKeys []string) (*corridor.Corridor, error) {
	stations := make([]corridor.Station, 0, len(specs))

	for _, spec := range specs {
		stopID, err := registry.ResolveStopID(spec.Name, direction)
		if err != nil {
			return nil, fmt.Errorf("resolving corridor station %s: %w", spec.Key, err)
		}

		stations = append(stations, corridor.Station{
			Key:             spec.Key,
			ParentStationID: registry.ParentStationID(stopID),
			DisplayName:     registry.StopName(stopID),
			WalkMinutes:     spec.WalkMinutes,
		})
	}

	return corridor.New(stations, entryKey, exitKey, destinationKeys)
}
