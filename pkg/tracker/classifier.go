package tracker

import (
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/stoopview/stoopview/pkg/corridor"
)

// A train predicted within this window of now is described as already at the
// platform rather than approaching it.
const imminentThreshold = 60 * time.Second

// Classifier derives the inbound tracker view from one feed snapshot. It
// holds no mutable state, so a single instance is safe for concurrent
// Classify calls.
type Classifier struct {
	Corridor *corridor.Corridor
	Limits   Limits

	// BuildingBufferMinutes is added to every destination's walk time when
	// computing leave-by times.
	BuildingBufferMinutes int
}

func NewClassifier(trackedCorridor *corridor.Corridor, limits Limits, buildingBufferMinutes int) (*Classifier, error) {
	if trackedCorridor == nil {
		return nil, fmt.Errorf("classifier requires a corridor")
	}
	if limits.MaxNext <= 0 || limits.MaxInFlight <= 0 {
		return nil, fmt.Errorf("classifier limits must be positive, got next=%d inflight=%d", limits.MaxNext, limits.MaxInFlight)
	}
	if buildingBufferMinutes < 0 {
		return nil, fmt.Errorf("building buffer cannot be negative, got %d", buildingBufferMinutes)
	}

	return &Classifier{
		Corridor: trackedCorridor,
		Limits:   limits,

		BuildingBufferMinutes: buildingBufferMinutes,
	}, nil
}

// Classify splits the snapshot's trips into those approaching the corridor
// entry station and those already between entry and exit, annotated with a
// position description and destination ETAs. Per-trip data problems are
// skipped, never fatal.
func (classifier *Classifier) Classify(trips []TripSnapshot, now time.Time) (Result, error) {
	if now.IsZero() {
		return Result{}, fmt.Errorf("classify requires a valid clock time")
	}

	entryIndex := classifier.Corridor.EntryIndex()
	exitIndex := classifier.Corridor.ExitIndex()

	var nextAtEntry []AnnotatedTrip
	var inFlight []AnnotatedTrip
	skipped := 0

	seenTrips := map[string]bool{}

	for _, trip := range trips {
		if trip.TripID == "" || trip.RouteID == "" || len(trip.Predictions) == 0 {
			log.Debug().Str("trip", trip.TripID).Str("route", trip.RouteID).Msg("Skipping unclassifiable trip")
			skipped++
			continue
		}
		if seenTrips[trip.TripID] {
			continue
		}
		seenTrips[trip.TripID] = true

		view := classifier.observe(trip, now)

		if view.lastDeparted == nil && view.nextUpcoming == nil {
			skipped++
			continue
		}

		destinationETAs, leaveBy, hasDestination := classifier.destinationETAs(view, now)

		annotated := AnnotatedTrip{
			TripID:          trip.TripID,
			RouteID:         trip.RouteID,
			CurrentPosition: classifier.describePosition(view, now),
			DestinationETAs: destinationETAs,
			LeaveBy:         leaveBy,
		}

		if view.hasPassed(entryIndex) {
			// Past exit means the trip has left the tracking window entirely.
			if view.hasPassed(exitIndex) {
				continue
			}
			if !hasDestination {
				// Within the window but nothing left to show.
				continue
			}

			annotated.WindowBucket = WindowBucketInFlight
			inFlight = append(inFlight, annotated)
			continue
		}

		entryPrediction, hasEntryPrediction := view.futureByIndex[entryIndex]
		if !hasEntryPrediction {
			continue
		}

		entryETA := minutesUntil(entryPrediction.Predicted, now)
		annotated.EntryETA = &entryETA
		annotated.WindowBucket = WindowBucketApproachingStart
		nextAtEntry = append(nextAtEntry, annotated)
	}

	sort.SliceStable(nextAtEntry, func(i, j int) bool {
		if *nextAtEntry[i].EntryETA != *nextAtEntry[j].EntryETA {
			return *nextAtEntry[i].EntryETA < *nextAtEntry[j].EntryETA
		}
		return nextAtEntry[i].TripID < nextAtEntry[j].TripID
	})
	if len(nextAtEntry) > classifier.Limits.MaxNext {
		nextAtEntry = nextAtEntry[:classifier.Limits.MaxNext]
	}

	sort.SliceStable(inFlight, func(i, j int) bool {
		etaI := classifier.progressSortKey(inFlight[i])
		etaJ := classifier.progressSortKey(inFlight[j])
		if etaI != etaJ {
			return etaI < etaJ
		}
		return inFlight[i].TripID < inFlight[j].TripID
	})
	if len(inFlight) > classifier.Limits.MaxInFlight {
		inFlight = inFlight[:classifier.Limits.MaxInFlight]
	}

	return Result{
		NextAtEntry: nextAtEntry,
		InFlight:    inFlight,

		Skipped: skipped,
	}, nil
}

// tripView is the per-trip digest the classification rules operate on. All
// station indices are corridor ordinals, never raw identifiers.
type tripView struct {
	lastDeparted *StopTimePrediction
	nextUpcoming *StopTimePrediction

	maxPastIndex    int
	hasPastMember   bool
	minFutureIndex  int
	hasFutureMember bool

	pastByIndex   map[int]bool
	futureByIndex map[int]*StopTimePrediction
}

func (classifier *Classifier) observe(trip TripSnapshot, now time.Time) tripView {
	view := tripView{
		pastByIndex:   map[int]bool{},
		futureByIndex: map[int]*StopTimePrediction{},
	}

	for position := range trip.Predictions {
		prediction := &trip.Predictions[position]

		past := !prediction.Predicted.After(now)

		if past {
			// Predictions are sequence ordered, so the last past prediction
			// seen is the most recently departed stop.
			view.lastDeparted = prediction
		} else if view.nextUpcoming == nil {
			view.nextUpcoming = prediction
		}

		stationIndex, member := classifier.Corridor.IndexByParentID(prediction.ParentStationID)
		if !member {
			continue
		}

		if past {
			view.pastByIndex[stationIndex] = true
			if !view.hasPastMember || stationIndex > view.maxPastIndex {
				view.maxPastIndex = stationIndex
			}
			view.hasPastMember = true
		} else {
			if existing, ok := view.futureByIndex[stationIndex]; !ok || prediction.Predicted.Before(existing.Predicted) {
				view.futureByIndex[stationIndex] = prediction
			}
			if !view.hasFutureMember || stationIndex < view.minFutureIndex {
				view.minFutureIndex = stationIndex
			}
			view.hasFutureMember = true
		}
	}

	return view
}

// hasPassed reports whether the trip is beyond the given corridor station. A
// direct past prediction settles it. Otherwise the station is inferred passed
// when it is bracketed: some corridor stop behind the trip, the next known
// corridor stop strictly beyond the station, and no remaining prediction for
// the station itself - real feeds omit stops a trip has already served.
func (view tripView) hasPassed(stationIndex int) bool {
	if view.pastByIndex[stationIndex] {
		return true
	}
	if _, upcoming := view.futureByIndex[stationIndex]; upcoming {
		return false
	}
	if !view.hasPastMember {
		return false
	}

	if view.maxPastIndex >= stationIndex {
		return !view.hasFutureMember || view.minFutureIndex > stationIndex
	}

	return view.hasFutureMember && view.minFutureIndex > stationIndex
}

func (classifier *Classifier) destinationETAs(view tripView, now time.Time) (map[string]*int, map[string]*int, bool) {
	etas := map[string]*int{}
	leaveBy := map[string]*int{}
	hasDestination := false

	for _, destination := range classifier.Corridor.Destinations() {
		destinationIndex := classifier.Corridor.MustIndex(destination.Key)

		// Blanked once the trip's corridor progress is at or beyond the
		// destination - never zero, never omitted.
		etas[destination.Key] = nil
		leaveBy[destination.Key] = nil

		if view.hasPastMember && view.maxPastIndex >= destinationIndex {
			continue
		}

		prediction, upcoming := view.futureByIndex[destinationIndex]
		if !upcoming {
			continue
		}

		eta := minutesUntil(prediction.Predicted, now)
		etas[destination.Key] = &eta

		remaining := eta - (classifier.BuildingBufferMinutes + destination.WalkMinutes)
		if remaining < 0 {
			remaining = 0
		}
		leaveBy[destination.Key] = &remaining

		hasDestination = true
	}

	return etas, leaveBy, hasDestination
}

func (classifier *Classifier) describePosition(view tripView, now time.Time) string {
	if view.nextUpcoming != nil {
		name := classifier.stationName(view.nextUpcoming)
		if view.nextUpcoming.Predicted.Sub(now) <= imminentThreshold {
			return "At " + name
		}
		return "Approaching " + name
	}

	if view.lastDeparted != nil {
		return "Departed " + classifier.stationName(view.lastDeparted)
	}

	return "In transit"
}

// stationName prefers the corridor display name so the tracker reads
// consistently, falling back to whatever name the feed payload carried for
// stops outside the corridor.
func (classifier *Classifier) stationName(prediction *StopTimePrediction) string {
	if station, member := classifier.Corridor.StationByParentID(prediction.ParentStationID); member {
		return station.DisplayName
	}
	if prediction.StopName != "" {
		return prediction.StopName
	}

	return prediction.StopID
}

// progressSortKey orders in-flight trains soonest-to-exit first: the farthest
// configured destination with a usable ETA, falling back to the nearest one.
func (classifier *Classifier) progressSortKey(trip AnnotatedTrip) int {
	destinationKeys := classifier.Corridor.DestinationKeys
	for position := len(destinationKeys) - 1; position >= 0; position-- {
		if eta := trip.DestinationETAs[destinationKeys[position]]; eta != nil {
			return *eta
		}
	}

	// Unreachable for trips admitted to the in-flight group, which require at
	// least one destination ETA.
	return int(^uint(0) >> 1)
}

func minutesUntil(predicted time.Time, now time.Time) int {
	if !predicted.After(now) {
		return 0
	}

	return int(predicted.Sub(now) / time.Minute)
}
