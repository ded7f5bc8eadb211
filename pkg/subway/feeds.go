package subway

import (
	"strings"

	"github.com/rs/zerolog/log"
)

// The MTA publishes the subway as a handful of GTFS-Realtime feeds grouped by
// line family.
const (
	FeedNumbered = "gtfs-1234567"
	FeedACE      = "gtfs-ace"
	FeedNQRW     = "gtfs-nqrw"
	FeedJZ       = "gtfs-jz"
)

var FeedURLs = map[string]string{
	FeedNumbered: "https://api-endpoint.mta.info/Dataservice/mtagtfsfeeds/nyct%2Fgtfs",
	FeedACE:      "https://api-endpoint.mta.info/Dataservice/mtagtfsfeeds/nyct%2Fgtfs-ace",
	FeedNQRW:     "https://api-endpoint.mta.info/Dataservice/mtagtfsfeeds/nyct%2Fgtfs-nqrw",
	FeedJZ:       "https://api-endpoint.mta.info/Dataservice/mtagtfsfeeds/nyct%2Fgtfs-jz",
}

// feedOrder keeps multi-feed operations deterministic.
var feedOrder = []string{FeedNumbered, FeedACE, FeedNQRW, FeedJZ}

var lineToFeed = map[string]string{
	"1": FeedNumbered,
	"2": FeedNumbered,
	"3": FeedNumbered,
	"4": FeedNumbered,
	"5": FeedNumbered,
	"6": FeedNumbered,
	"7": FeedNumbered,
	"A": FeedACE,
	"C": FeedACE,
	"E": FeedACE,
	"J": FeedJZ,
	"Z": FeedJZ,
	"N": FeedNQRW,
	"Q": FeedNQRW,
	"R": FeedNQRW,
	"W": FeedNQRW,
}

func FeedForLine(line string) (string, bool) {
	feed, found := lineToFeed[strings.ToUpper(strings.TrimSpace(line))]
	return feed, found
}

// RequiredFeeds maps a set of lines onto the feeds that carry them, in the
// fixed feed order. Unknown lines are logged and skipped rather than failing
// the whole poll.
func RequiredFeeds(lines []string) []string {
	required := map[string]bool{}

	for _, line := range lines {
		feed, found := FeedForLine(line)
		if !found {
			log.Warn().Str("line", line).Msg("No feed mapping for line")
			continue
		}
		required[feed] = true
	}

	var ordered []string
	for _, feed := range feedOrder {
		if required[feed] {
			ordered = append(ordered, feed)
		}
	}

	return ordered
}
