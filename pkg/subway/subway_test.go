package subway

import (
	"errors"
	"testing"
	"time"

	"github.com/MobilityData/gtfs-realtime-bindings/golang/gtfs"
	"google.golang.org/protobuf/proto"

	"github.com/stoopview/stoopview/pkg/stationdb"
)

var feedNow = time.Date(2025, time.March, 14, 8, 30, 0, 0, time.UTC)

func testRegistry() *stationdb.Registry {
	return stationdb.NewRegistry([]stationdb.Stop{
		{ID: "631", Name: "Grand Central-42 St", LocationType: "1"},
		{ID: "631S", Name: "Grand Central-42 St", ParentStation: "631"},
		{ID: "635S", Name: "14 St-Union Sq", ParentStation: "635"},
		{ID: "419S", Name: "Wall St", ParentStation: "419"},
	})
}

func stopTimeUpdate(stopID string, sequence uint32, offset time.Duration) *gtfs.TripUpdate_StopTimeUpdate {
	return &gtfs.TripUpdate_StopTimeUpdate{
		StopId:       proto.String(stopID),
		StopSequence: proto.Uint32(sequence),
		Arrival: &gtfs.TripUpdate_StopTimeEvent{
			Time: proto.Int64(feedNow.Add(offset).Unix()),
		},
	}
}

func tripUpdateEntity(entityID string, tripID string, routeID string, directionID *uint32, updates ...*gtfs.TripUpdate_StopTimeUpdate) *gtfs.FeedEntity {
	return &gtfs.FeedEntity{
		Id: proto.String(entityID),
		TripUpdate: &gtfs.TripUpdate{
			Trip: &gtfs.TripDescriptor{
				TripId:      proto.String(tripID),
				RouteId:     proto.String(routeID),
				DirectionId: directionID,
			},
			StopTimeUpdate: updates,
		},
	}
}

func feedMessage(entities ...*gtfs.FeedEntity) *gtfs.FeedMessage {
	return &gtfs.FeedMessage{
		Header: &gtfs.FeedHeader{
			GtfsRealtimeVersion: proto.String("2.0"),
			Timestamp:           proto.Uint64(uint64(feedNow.Unix())),
		},
		Entity: entities,
	}
}

func TestTripSnapshotsFiltersRouteAndDirection(t *testing.T) {
	southbound := proto.Uint32(1)
	northbound := proto.Uint32(0)

	feed := feedMessage(
		tripUpdateEntity("1", "T-SOUTH", "4", southbound,
			stopTimeUpdate("631S", 10, 2*time.Minute),
			stopTimeUpdate("635S", 14, 8*time.Minute),
		),
		tripUpdateEntity("2", "T-NORTH", "4", northbound,
			stopTimeUpdate("631N", 10, 2*time.Minute),
		),
		tripUpdateEntity("3", "T-OTHER-ROUTE", "7", southbound,
			stopTimeUpdate("725S", 3, 2*time.Minute),
		),
	)

	snapshots := NewParser(testRegistry()).TripSnapshots(feed, []string{"4", "5"}, "S")

	if len(snapshots) != 1 {
		t.Fatalf("got %d snapshots, want 1", len(snapshots))
	}

	trip := snapshots[0]
	if trip.TripID != "T-SOUTH" || trip.RouteID != "4" || trip.Direction != "S" {
		t.Errorf("snapshot = %s/%s/%s, want T-SOUTH/4/S", trip.TripID, trip.RouteID, trip.Direction)
	}
	if len(trip.Predictions) != 2 {
		t.Fatalf("got %d predictions, want 2", len(trip.Predictions))
	}

	first := trip.Predictions[0]
	if first.ParentStationID != "631" {
		t.Errorf("parent = %s, want 631 from the registry", first.ParentStationID)
	}
	if first.StopName != "Grand Central-42 St" {
		t.Errorf("stop name = %q", first.StopName)
	}
	if first.SequenceIndex != 10 {
		t.Errorf("sequence = %d, want 10", first.SequenceIndex)
	}
	if !first.Predicted.Equal(feedNow.Add(2 * time.Minute)) {
		t.Errorf("predicted = %v", first.Predicted)
	}
}

func TestTripSnapshotsDirectionFromStopSuffixes(t *testing.T) {
	feed := feedMessage(
		tripUpdateEntity("1", "T-SUFFIX", "4", nil,
			stopTimeUpdate("631S", 1, time.Minute),
			stopTimeUpdate("635S", 2, 4*time.Minute),
			stopTimeUpdate("640N", 3, 8*time.Minute),
		),
		tripUpdateEntity("2", "T-TIED", "4", nil,
			stopTimeUpdate("631S", 1, time.Minute),
			stopTimeUpdate("640N", 2, 8*time.Minute),
		),
	)

	snapshots := NewParser(testRegistry()).TripSnapshots(feed, []string{"4"}, "S")

	if len(snapshots) != 1 || snapshots[0].TripID != "T-SUFFIX" {
		t.Fatalf("suffix majority vote failed: %+v", snapshots)
	}
}

func TestTripSnapshotsDepartureFallbackAndParentGuess(t *testing.T) {
	southbound := proto.Uint32(1)

	feed := feedMessage(
		tripUpdateEntity("1", "T-DEP", "6", southbound,
			&gtfs.TripUpdate_StopTimeUpdate{
				// Origin stops often carry only a departure time.
				StopId: proto.String("999S"),
				Departure: &gtfs.TripUpdate_StopTimeEvent{
					Time: proto.Int64(feedNow.Add(90 * time.Second).Unix()),
				},
			},
			&gtfs.TripUpdate_StopTimeUpdate{
				StopId: proto.String("998S"),
			},
		),
	)

	snapshots := NewParser(testRegistry()).TripSnapshots(feed, []string{"6"}, "S")

	if len(snapshots) != 1 {
		t.Fatalf("got %d snapshots, want 1", len(snapshots))
	}
	predictions := snapshots[0].Predictions
	if len(predictions) != 1 {
		t.Fatalf("got %d predictions, want 1 (no-time update dropped)", len(predictions))
	}
	if predictions[0].ParentStationID != "999" {
		t.Errorf("parent = %s, want 999 from the suffix convention", predictions[0].ParentStationID)
	}
	if predictions[0].SequenceIndex != 0 {
		t.Errorf("sequence = %d, want positional fallback 0", predictions[0].SequenceIndex)
	}
}

func TestCheckFreshness(t *testing.T) {
	fresh := feedMessage()
	if err := checkFreshness(fresh, FeedNumbered, feedNow.Add(time.Minute)); err != nil {
		t.Errorf("fresh feed flagged stale: %v", err)
	}

	if err := checkFreshness(fresh, FeedNumbered, feedNow.Add(3*time.Minute)); !errors.Is(err, ErrFeedStale) {
		t.Errorf("stale feed not flagged: %v", err)
	}

	headerless := &gtfs.FeedMessage{}
	if err := checkFreshness(headerless, FeedNumbered, feedNow); err != nil {
		t.Errorf("headerless feed flagged: %v", err)
	}
}

func TestRequiredFeeds(t *testing.T) {
	feeds := RequiredFeeds([]string{"R", "4", "J", "4", "banana"})

	want := []string{FeedNumbered, FeedNQRW, FeedJZ}
	if len(feeds) != len(want) {
		t.Fatalf("RequiredFeeds = %v, want %v", feeds, want)
	}
	for position := range want {
		if feeds[position] != want[position] {
			t.Fatalf("RequiredFeeds = %v, want %v", feeds, want)
		}
	}
}

func TestFeedForLine(t *testing.T) {
	if feed, found := FeedForLine(" q "); !found || feed != FeedNQRW {
		t.Errorf("FeedForLine(q) = %s %t", feed, found)
	}
	if _, found := FeedForLine("S"); found {
		t.Error("FeedForLine resolved an unmapped line")
	}
}

func TestArrivalBoard(t *testing.T) {
	southbound := proto.Uint32(1)

	feed := feedMessage(
		tripUpdateEntity("1", "T1", "6", southbound,
			stopTimeUpdate("631S", 1, 3*time.Minute),
		),
		tripUpdateEntity("2", "T2", "6", southbound,
			stopTimeUpdate("631S", 1, 7*time.Minute),
		),
		tripUpdateEntity("3", "T3", "6", southbound,
			stopTimeUpdate("631S", 1, 11*time.Minute),
		),
		// Service change: a 4 running over the same platform still counts.
		tripUpdateEntity("4", "T4", "4", southbound,
			stopTimeUpdate("631S", 1, time.Minute),
		),
		// Departed already, never listed.
		tripUpdateEntity("5", "T5", "6", southbound,
			stopTimeUpdate("631S", 1, -2*time.Minute),
		),
		// Duplicate of T1's slot from an overlapping update.
		tripUpdateEntity("6", "T6", "6", southbound,
			stopTimeUpdate("631S", 1, 3*time.Minute),
		),
	)

	stations := []StationDirection{{
		StationBlockID: "gct_456",
		StationName:    "Grand Central-42 St",
		Lines:          []string{"4", "5", "6"},
		DirectionCode:  "S",
		DirectionLabel: "Downtown",
		Destination:    "Brooklyn Bridge",
		StopID:         "631S",
	}}

	arrivals := ArrivalBoard(map[string]*gtfs.FeedMessage{FeedNumbered: feed}, stations, feedNow)

	if len(arrivals) != 2 {
		t.Fatalf("got %d arrivals, want cap of 2", len(arrivals))
	}
	if arrivals[0].RouteID != "4" || arrivals[0].MinutesUntil != 1 {
		t.Errorf("first arrival = %s in %d min, want 4 in 1", arrivals[0].RouteID, arrivals[0].MinutesUntil)
	}
	if arrivals[1].RouteID != "6" || arrivals[1].MinutesUntil != 3 {
		t.Errorf("second arrival = %s in %d min, want 6 in 3", arrivals[1].RouteID, arrivals[1].MinutesUntil)
	}
	if arrivals[0].StationBlockID != "gct_456" || arrivals[0].DirectionLabel != "Downtown" {
		t.Errorf("station block metadata not carried through: %+v", arrivals[0])
	}
}

func TestDirectionLabel(t *testing.T) {
	tests := []struct {
		lines []string
		code  string
		want  string
	}{
		{[]string{"4", "5"}, "S", "Downtown"},
		{[]string{"4", "5"}, "N", "Uptown"},
		{[]string{"G"}, "N", "Northbound"},
		{[]string{"G"}, "S", "Southbound"},
		{[]string{"L"}, "E", "Eastbound"},
		{[]string{"L"}, "W", "Westbound"},
		{[]string{"L"}, "Q", "Unknown direction"},
	}

	for _, test := range tests {
		if got := DirectionLabel(test.lines, test.code); got != test.want {
			t.Errorf("DirectionLabel(%v, %s) = %q, want %q", test.lines, test.code, got, test.want)
		}
	}
}
