package config

import (
	"os"
	"path/filepath"
	"testing"
)

const sampleConfig = `
display:
  refresh_interval_ms: 20000
  staleness_warning_sec: 90
location:
  name: Home
  lat: 40.7028
  lng: -73.9873
subway:
  poll_interval_seconds: 30
  stations:
    - id: gct_456
      name: Grand Central-42 St
      lines: ["4", "5", "6"]
      directions:
        - code: S
          label: Downtown
          destination: Brooklyn Bridge
          stop_id: 631S
inbound_tracker:
  routes: ["4", "5"]
  direction: s
  tracking_window:
    start_station: gct
    end_station: wall
  corridor_stations:
    - key: gct
      name: Grand Central-42 St
    - key: union_sq
      name: 14 St-Union Sq
    - key: fulton
      name: Fulton St
      destination: true
      walk_time_minutes: 4
    - key: wall
      name: Wall St
      destination: true
      walk_time_minutes: 2
citibike:
  stations:
    - name: Front St & Jay St
      station_id: "4895.04"
`

func writeConfig(t *testing.T, contents string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	loaded, err := Load(writeConfig(t, sampleConfig))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if loaded.Display.RefreshIntervalMS != 20000 {
		t.Errorf("refresh interval = %d", loaded.Display.RefreshIntervalMS)
	}
	if loaded.Display.StalenessCriticalSec != 120 {
		t.Errorf("critical staleness default = %d, want 120", loaded.Display.StalenessCriticalSec)
	}
	if loaded.Bikeshare.PollIntervalSeconds != 60 {
		t.Errorf("bikeshare poll default = %d, want 60", loaded.Bikeshare.PollIntervalSeconds)
	}

	if !loaded.InboundEnabled() {
		t.Fatal("inbound tracker should default to enabled")
	}
	inbound := loaded.Inbound
	if inbound.Direction != "S" {
		t.Errorf("direction = %q, want normalized S", inbound.Direction)
	}
	if inbound.BuildingBufferMinutes != 3 || inbound.MaxTrains != 8 {
		t.Errorf("tracker defaults = buffer %d max %d, want 3 and 8", inbound.BuildingBufferMinutes, inbound.MaxTrains)
	}
	if inbound.TrackingWindow.IncludeNextAtStart != 2 {
		t.Errorf("include_next_at_start default = %d, want 2", inbound.TrackingWindow.IncludeNextAtStart)
	}
	if inbound.Label != "INBOUND 4/5" {
		t.Errorf("label default = %q", inbound.Label)
	}

	destinationKeys := inbound.DestinationKeys()
	if len(destinationKeys) != 2 || destinationKeys[0] != "fulton" || destinationKeys[1] != "wall" {
		t.Errorf("destination keys = %v", destinationKeys)
	}
}

func TestLines(t *testing.T) {
	loaded, err := Load(writeConfig(t, sampleConfig))
	if err != nil {
		t.Fatal(err)
	}

	lines := loaded.Lines()
	want := []string{"4", "5", "6"}
	if len(lines) != len(want) {
		t.Fatalf("Lines = %v, want %v", lines, want)
	}
	for position := range want {
		if lines[position] != want[position] {
			t.Fatalf("Lines = %v, want %v", lines, want)
		}
	}
}

func TestValidateRejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(loaded *Config)
	}{
		{
			name: "station without lines",
			mutate: func(loaded *Config) {
				loaded.Subway.Stations[0].Lines = nil
			},
		},
		{
			name: "direction without stop id",
			mutate: func(loaded *Config) {
				loaded.Subway.Stations[0].Directions[0].StopID = ""
			},
		},
		{
			name: "inbound without routes",
			mutate: func(loaded *Config) {
				loaded.Inbound.Routes = nil
			},
		},
		{
			name: "bad inbound direction",
			mutate: func(loaded *Config) {
				loaded.Inbound.Direction = "E"
			},
		},
		{
			name: "window names unknown station",
			mutate: func(loaded *Config) {
				loaded.Inbound.TrackingWindow.EndStation = "nope"
			},
		},
		{
			name: "duplicate corridor key",
			mutate: func(loaded *Config) {
				loaded.Inbound.Stations[1].Key = "gct"
			},
		},
		{
			name: "no destinations",
			mutate: func(loaded *Config) {
				for position := range loaded.Inbound.Stations {
					loaded.Inbound.Stations[position].Destination = false
				}
			},
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			loaded, err := Load(writeConfig(t, sampleConfig))
			if err != nil {
				t.Fatal(err)
			}

			test.mutate(loaded)

			if err := loaded.Validate(); err == nil {
				t.Error("Validate accepted a broken configuration")
			}
		})
	}
}

func TestDisabledInbound(t *testing.T) {
	disabled := sampleConfig + "\n"
	loaded, err := Load(writeConfig(t, disabled))
	if err != nil {
		t.Fatal(err)
	}

	off := false
	loaded.Inbound.Enabled = &off
	if loaded.InboundEnabled() {
		t.Error("InboundEnabled with enabled: false")
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("Load accepted a missing file")
	}
}
