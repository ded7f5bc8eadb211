package stationdb

import (
	"testing"
)

func fixtureRegistry() *Registry {
	rows := []Stop{
		{ID: "631", Name: "Grand Central-42 St", LocationType: "1"},
		{ID: "631N", Name: "Grand Central-42 St", ParentStation: "631"},
		{ID: "631S", Name: "Grand Central-42 St", ParentStation: "631"},
		{ID: "723", Name: "Grand Central-42 St", LocationType: "1"},
		{ID: "723S", Name: "Grand Central-42 St", ParentStation: "723"},
		{ID: "635", Name: "14 St-Union Sq", LocationType: "1"},
		{ID: "635S", Name: "14 St-Union Sq", ParentStation: "635"},
		{ID: "640", Name: "Brooklyn Bridge-City Hall", LocationType: "1"},
		{ID: "640S", Name: "Brooklyn Bridge-City Hall", ParentStation: "640"},
		{ID: "418", Name: "Fulton St", LocationType: "1"},
		{ID: "418S", Name: "Fulton St", ParentStation: "418"},
		{ID: "419", Name: "Wall St", LocationType: "1"},
		{ID: "419S", Name: "Wall St", ParentStation: "419"},
		{ID: "230", Name: "Wall St", LocationType: "1"},
		{ID: "230S", Name: "Wall St", ParentStation: "230"},
		{ID: "", Name: "Ghost Row"},
	}
	return NewRegistry(rows)
}

func TestNormalizeStationName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Grand Central-42 St", "grand central 42 st"},
		{"14 St-Union Sq", "14 st union sq"},
		{"Brooklyn Bridge-City Hall", "brooklyn bridge city hall"},
		{"Wall Street", "wall st"},
		{"23rd Street", "23 st"},
		{"Lexington Avenue/59th St", "lexington av 59 st"},
		{"  Fulton St.  ", "fulton st"},
	}

	for _, test := range tests {
		if got := NormalizeStationName(test.in); got != test.want {
			t.Errorf("NormalizeStationName(%q) = %q, want %q", test.in, got, test.want)
		}
	}
}

func TestResolveStopID(t *testing.T) {
	registry := fixtureRegistry()

	tests := []struct {
		name      string
		station   string
		direction string
		want      string
	}{
		// "Grand Central" matches both the Lexington and Flushing platforms;
		// the preferred parent keeps resolution on the 4/5/6 side.
		{"preferred parent wins", "Grand Central-42 St", "S", "631S"},
		{"preferred parent wall st", "Wall St", "S", "419S"},
		{"plain resolution", "14 St-Union Sq", "S", "635S"},
		{"abbreviated query", "Fulton Street", "S", "418S"},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			got, err := registry.ResolveStopID(test.station, test.direction)
			if err != nil {
				t.Fatalf("ResolveStopID(%q, %q): %v", test.station, test.direction, err)
			}
			if got != test.want {
				t.Errorf("ResolveStopID(%q, %q) = %s, want %s", test.station, test.direction, got, test.want)
			}
		})
	}
}

func TestResolveStopIDLowestIDWithoutPreference(t *testing.T) {
	registry := NewRegistry([]Stop{
		{ID: "R20S", Name: "Mystery Pl", ParentStation: "R20"},
		{ID: "D21S", Name: "Mystery Pl", ParentStation: "D21"},
	})

	got, err := registry.ResolveStopID("Mystery Pl", "S")
	if err != nil {
		t.Fatal(err)
	}
	if got != "D21S" {
		t.Errorf("ResolveStopID = %s, want the lowest stop ID D21S", got)
	}
}

func TestResolveStopIDErrors(t *testing.T) {
	registry := fixtureRegistry()

	if _, err := registry.ResolveStopID("Nowhere St", "S"); err == nil {
		t.Error("resolved a station that does not exist")
	}
	if _, err := registry.ResolveStopID("Wall St", "X"); err == nil {
		t.Error("accepted an unsupported direction suffix")
	}
}

func TestResolveStopIDSkipsParentRows(t *testing.T) {
	// Parent 230 has no directional suffix yet 230S does; only the platform
	// row may resolve.
	registry := NewRegistry([]Stop{
		{ID: "230", Name: "Wall St", LocationType: "1"},
		{ID: "230S", Name: "Wall St", ParentStation: "230"},
	})

	got, err := registry.ResolveStopID("Wall St", "S")
	if err != nil {
		t.Fatal(err)
	}
	if got != "230S" {
		t.Errorf("ResolveStopID = %s, want 230S", got)
	}
}

func TestParentStationID(t *testing.T) {
	registry := fixtureRegistry()

	if got := registry.ParentStationID("631S"); got != "631" {
		t.Errorf("ParentStationID(631S) = %s, want 631", got)
	}
	if got := registry.ParentStationID("631"); got != "631" {
		t.Errorf("ParentStationID(631) = %s, want itself", got)
	}
	if got := registry.ParentStationID("nope"); got != "" {
		t.Errorf("ParentStationID(nope) = %s, want empty", got)
	}
}

func TestBuildCorridor(t *testing.T) {
	registry := fixtureRegistry()

	specs := []CorridorStationSpec{
		{Key: "gct", Name: "Grand Central-42 St"},
		{Key: "union_sq", Name: "14 St-Union Sq"},
		{Key: "brooklyn_bridge", Name: "Brooklyn Bridge-City Hall"},
		{Key: "fulton", Name: "Fulton St", WalkMinutes: 4},
		{Key: "wall", Name: "Wall St", WalkMinutes: 2},
	}

	built, err := registry.BuildCorridor(specs, "S", "gct", "wall", []string{"fulton", "wall"})
	if err != nil {
		t.Fatalf("BuildCorridor: %v", err)
	}

	// The resolved parent identifiers run 631..640 then drop to 418/419;
	// corridor order must come from configuration, not the identifiers.
	wantParents := []string{"631", "635", "640", "418", "419"}
	for position, station := range built.Stations {
		if station.ParentStationID != wantParents[position] {
			t.Errorf("station %d parent = %s, want %s", position, station.ParentStationID, wantParents[position])
		}
	}

	if index, member := built.IndexByParentID("418"); !member || index != 3 {
		t.Errorf("Fulton St index = %d member=%t, want 3 true", index, member)
	}

	station, member := built.StationByParentID("419")
	if !member || station.WalkMinutes != 2 {
		t.Errorf("Wall St walk minutes not carried through resolution")
	}
}

func TestBuildCorridorUnresolvableStation(t *testing.T) {
	registry := fixtureRegistry()

	specs := []CorridorStationSpec{
		{Key: "gct", Name: "Grand Central-42 St"},
		{Key: "missing", Name: "Atlantis Terminal"},
	}

	if _, err := registry.BuildCorridor(specs, "S", "gct", "missing", []string{"missing"}); err == nil {
		t.Error("BuildCorridor accepted an unresolvable station name")
	}
}
