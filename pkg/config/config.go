package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	defaultRefreshIntervalMS    = 15000
	defaultStalenessWarningSec  = 60
	defaultStalenessCriticalSec = 120

	defaultSubwayPollSeconds    = 30
	defaultBikesharePollSeconds = 60

	defaultBuildingBufferMinutes = 3
	defaultMaxNextAtStart        = 2
	defaultMaxTrains             = 8
)

type Config struct {
	Display  Display  `yaml:"display"`
	Location Location `yaml:"location"`

	Subway    Subway   `yaml:"subway"`
	Inbound   *Inbound `yaml:"inbound_tracker"`
	Bikeshare Citibike `yaml:"citibike"`

	StopsFile string `yaml:"stops_file"`
}

type Display struct {
	RefreshIntervalMS    int    `yaml:"refresh_interval_ms"`
	StalenessWarningSec  int    `yaml:"staleness_warning_sec"`
	StalenessCriticalSec int    `yaml:"staleness_critical_sec"`
	Theme                string `yaml:"theme"`
	Orientation          string `yaml:"orientation"`
}

type Location struct {
	Name      string  `yaml:"name"`
	Latitude  float64 `yaml:"lat"`
	Longitude float64 `yaml:"lng"`
}

type Subway struct {
	PollIntervalSeconds int            `yaml:"poll_interval_seconds"`
	Stations            []StationBlock `yaml:"stations"`
}

// StationBlock is one station card on the display, with one row per
// direction.
type StationBlock struct {
	ID         string      `yaml:"id"`
	Name       string      `yaml:"name"`
	Lines      []string    `yaml:"lines"`
	Latitude   *float64    `yaml:"lat"`
	Longitude  *float64    `yaml:"lng"`
	Directions []Direction `yaml:"directions"`
}

type Direction struct {
	Code        string `yaml:"code"`
	Label       string `yaml:"label"`
	Destination string `yaml:"destination"`
	StopID      string `yaml:"stop_id"`
}

// Inbound configures the corridor tracker. The station list is ordered in
// the direction of travel; entry and exit name stations from that list by
// key.
type Inbound struct {
	Enabled *bool `yaml:"enabled"`

	Label     string   `yaml:"label"`
	Routes    []string `yaml:"routes"`
	Direction string   `yaml:"direction"`

	TrackingWindow TrackingWindow    `yaml:"tracking_window"`
	Stations       []CorridorStation `yaml:"corridor_stations"`

	BuildingBufferMinutes int `yaml:"building_buffer_minutes"`
	MaxTrains             int `yaml:"max_trains"`
}

type TrackingWindow struct {
	StartStation       string `yaml:"start_station"`
	EndStation         string `yaml:"end_station"`
	IncludeNextAtStart int    `yaml:"include_next_at_start"`
}

type CorridorStation struct {
	Key             string `yaml:"key"`
	Name            string `yaml:"name"`
	Destination     bool   `yaml:"destination"`
	WalkTimeMinutes int    `yaml:"walk_time_minutes"`
}

type Citibike struct {
	PollIntervalSeconds int               `yaml:"poll_interval_seconds"`
	Stations            []CitibikeStation `yaml:"stations"`
}

type CitibikeStation struct {
	Name      string `yaml:"name"`
	StationID string `yaml:"station_id"`
}

// Load reads and validates the configuration file, filling defaults.
func Load(path string) (*Config, error) {
	contents, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var loaded Config
	if err := yaml.Unmarshal(contents, &loaded); err != nil {
		return nil, fmt.Errorf("parsing config file %s: %w", path, err)
	}

	if err := loaded.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}

	return &loaded, nil
}

// Validate applies defaults and rejects configurations the backend cannot
// run with. Called once at startup; violations are fatal there.
func (loaded *Config) Validate() error {
	if loaded.Display.RefreshIntervalMS < 1000 {
		loaded.Display.RefreshIntervalMS = defaultRefreshIntervalMS
	}
	if loaded.Display.StalenessWarningSec <= 0 {
		loaded.Display.StalenessWarningSec = defaultStalenessWarningSec
	}
	if loaded.Display.StalenessCriticalSec <= 0 {
		loaded.Display.StalenessCriticalSec = defaultStalenessCriticalSec
	}

	if loaded.Subway.PollIntervalSeconds <= 0 {
		loaded.Subway.PollIntervalSeconds = defaultSubwayPollSeconds
	}
	if loaded.Bikeshare.PollIntervalSeconds <= 0 {
		loaded.Bikeshare.PollIntervalSeconds = defaultBikesharePollSeconds
	}

	if loaded.StopsFile == "" {
		loaded.StopsFile = "data/mta-static/stops.txt"
	}

	for position, station := range loaded.Subway.Stations {
		if station.Name == "" {
			return fmt.Errorf("subway station %d has no name", position)
		}
		if len(station.Lines) == 0 {
			return fmt.Errorf("subway station %s has no lines", station.Name)
		}
		if len(station.Directions) == 0 {
			return fmt.Errorf("subway station %s has no directions", station.Name)
		}
		for _, direction := range station.Directions {
			if direction.Code == "" || direction.StopID == "" {
				return fmt.Errorf("subway station %s has a direction without code or stop_id", station.Name)
			}
		}
	}

	if loaded.Inbound != nil && loaded.Inbound.isEnabled() {
		if err := loaded.Inbound.validate(); err != nil {
			return err
		}
	}

	return nil
}

func (inbound *Inbound) isEnabled() bool {
	return inbound.Enabled == nil || *inbound.Enabled
}

// InboundEnabled reports whether the corridor tracker should run at all.
func (loaded *Config) InboundEnabled() bool {
	return loaded.Inbound != nil && loaded.Inbound.isEnabled()
}

func (inbound *Inbound) validate() error {
	if inbound.Label == "" {
		inbound.Label = "INBOUND 4/5"
	}
	if len(inbound.Routes) == 0 {
		return fmt.Errorf("inbound tracker has no routes")
	}

	inbound.Direction = strings.ToUpper(strings.TrimSpace(inbound.Direction))
	if inbound.Direction == "" {
		inbound.Direction = "S"
	}
	if inbound.Direction != "N" && inbound.Direction != "S" {
		return fmt.Errorf("inbound tracker direction must be N or S, got %q", inbound.Direction)
	}

	if len(inbound.Stations) < 2 {
		return fmt.Errorf("inbound tracker needs at least two corridor stations")
	}
	keys := map[string]bool{}
	destinations := 0
	for position, station := range inbound.Stations {
		if station.Key == "" || station.Name == "" {
			return fmt.Errorf("corridor station %d needs both key and name", position)
		}
		if keys[station.Key] {
			return fmt.Errorf("corridor station key %s appears twice", station.Key)
		}
		keys[station.Key] = true
		if station.Destination {
			destinations++
		}
		if station.WalkTimeMinutes < 0 {
			return fmt.Errorf("corridor station %s has a negative walk time", station.Key)
		}
	}
	if destinations == 0 {
		return fmt.Errorf("inbound tracker has no destination stations")
	}

	window := &inbound.TrackingWindow
	if window.StartStation == "" || window.EndStation == "" {
		return fmt.Errorf("inbound tracking_window needs start_station and end_station")
	}
	if !keys[window.StartStation] {
		return fmt.Errorf("tracking_window start_station %s is not a corridor station", window.StartStation)
	}
	if !keys[window.EndStation] {
		return fmt.Errorf("tracking_window end_station %s is not a corridor station", window.EndStation)
	}
	if window.IncludeNextAtStart < 0 {
		window.IncludeNextAtStart = 0
	}
	if window.IncludeNextAtStart == 0 {
		window.IncludeNextAtStart = defaultMaxNextAtStart
	}

	if inbound.BuildingBufferMinutes <= 0 {
		inbound.BuildingBufferMinutes = defaultBuildingBufferMinutes
	}
	if inbound.MaxTrains <= 0 {
		inbound.MaxTrains = defaultMaxTrains
	}

	return nil
}

// DestinationKeys lists the corridor destinations in configured order.
func (inbound *Inbound) DestinationKeys() []string {
	var destinationKeys []string
	for _, station := range inbound.Stations {
		if station.Destination {
			destinationKeys = append(destinationKeys, station.Key)
		}
	}
	return destinationKeys
}

// Lines collects every line the display watches, subway stations and the
// tracker's routes combined.
func (loaded *Config) Lines() []string {
	seen := map[string]bool{}
	var lines []string

	appendLine := func(line string) {
		cleaned := strings.ToUpper(strings.TrimSpace(line))
		if cleaned == "" || seen[cleaned] {
			return
		}
		seen[cleaned] = true
		lines = append(lines, cleaned)
	}

	for _, station := range loaded.Subway.Stations {
		for _, line := range station.Lines {
			appendLine(line)
		}
	}
	if loaded.InboundEnabled() {
		for _, route := range loaded.Inbound.Routes {
			appendLine(route)
		}
	}

	return lines
}
