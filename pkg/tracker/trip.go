package tracker

import "time"

// StopTimePrediction is one predicted stop event for a trip, as decoded from
// a single feed snapshot.
type StopTimePrediction struct {
	StopID          string
	ParentStationID string

	// StopName is the name carried by the static stop registry for this
	// platform. Used for position descriptions when the stop is not a
	// corridor member.
	StopName string

	Predicted time.Time

	// SequenceIndex is the trip-relative stop ordinal. It is the only safe
	// ordering for a trip's predictions - stop identifiers are not monotonic
	// along the direction of travel.
	SequenceIndex int
}

// TripSnapshot is one vehicle's predicted schedule as of the polled snapshot.
// Instances are ephemeral - built fresh each poll and discarded after
// classification.
type TripSnapshot struct {
	TripID    string
	RouteID   string
	Direction string

	// Predictions ordered by SequenceIndex ascending. May be sparse: feeds
	// omit stops a trip has already passed.
	Predictions []StopTimePrediction
}

// AnnotatedTrip is a classified trip ready for display.
type AnnotatedTrip struct {
	TripID          string `json:"trip_id" groups:"basic"`
	RouteID         string `json:"route_id" groups:"basic"`
	CurrentPosition string `json:"current_position" groups:"basic"`
	WindowBucket    string `json:"window_bucket" groups:"basic"`

	// EntryETA is only set for trips approaching the corridor entry station.
	EntryETA *int `json:"entry_eta,omitempty" groups:"basic"`

	// DestinationETAs holds an entry for every configured destination key, in
	// configured order. A nil ETA means blanked: the trip has passed that
	// station or no prediction exists - never zero.
	DestinationETAs map[string]*int `json:"destination_etas" groups:"basic"`

	// LeaveBy maps destination keys to the latest minute the rider can leave
	// and still make this train, after walk time and building buffer. Nil
	// whenever the matching destination ETA is nil.
	LeaveBy map[string]*int `json:"leave_by" groups:"basic"`
}

const (
	WindowBucketApproachingStart = "approaching_start"
	WindowBucketInFlight         = "inflight"
)

// Result is the classification of one feed snapshot.
type Result struct {
	NextAtEntry []AnnotatedTrip `json:"next_at_entry" groups:"basic"`
	InFlight    []AnnotatedTrip `json:"in_flight" groups:"basic"`

	// Skipped counts trips dropped for malformed or unusable data.
	Skipped int `json:"-"`
}

// Limits caps the size of each output group.
type Limits struct {
	MaxNext     int
	MaxInFlight int
}

func DefaultLimits() Limits {
	return Limits{
		MaxNext:     2,
		MaxInFlight: 8,
	}
}
