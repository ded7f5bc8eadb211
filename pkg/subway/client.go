package subway

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/MobilityData/gtfs-realtime-bindings/golang/gtfs"
	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog/log"
	"github.com/sourcegraph/conc/pool"
	"google.golang.org/protobuf/proto"
)

const (
	feedTimeout    = 30 * time.Second
	staleThreshold = 120 * time.Second

	fetchAttempts = 3
)

// ErrFeedStale marks a feed whose header timestamp is too old to trust. The
// poller treats it like a failed fetch and keeps serving the last snapshot.
var ErrFeedStale = errors.New("feed header timestamp is stale")

// Client fetches and decodes the MTA GTFS-Realtime feeds.
type Client struct {
	APIKey string

	httpClient *http.Client
}

func NewClient(apiKey string) *Client {
	return &Client{
		APIKey: apiKey,

		httpClient: &http.Client{
			Timeout: feedTimeout,
		},
	}
}

// FetchFeed downloads and decodes one feed, retrying transient failures with
// exponential backoff. Staleness is not retried; a stale feed stays stale for
// longer than a backoff cycle.
func (client *Client) FetchFeed(ctx context.Context, feedName string) (*gtfs.FeedMessage, error) {
	feedURL, found := FeedURLs[feedName]
	if !found {
		return nil, fmt.Errorf("unknown feed %q", feedName)
	}

	var feed *gtfs.FeedMessage

	operation := func() error {
		fetched, err := client.fetchOnce(ctx, feedName, feedURL)
		if err != nil {
			if errors.Is(err, ErrFeedStale) {
				return backoff.Permanent(err)
			}
			log.Debug().Err(err).Str("feed", feedName).Msg("Feed fetch attempt failed")
			return err
		}

		feed = fetched
		return nil
	}

	retryPolicy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewExponentialBackOff(), fetchAttempts-1), ctx)
	if err := backoff.Retry(operation, retryPolicy); err != nil {
		return nil, err
	}

	return feed, nil
}

func (client *Client) fetchOnce(ctx context.Context, feedName string, feedURL string) (*gtfs.FeedMessage, error) {
	request, err := http.NewRequestWithContext(ctx, http.MethodGet, feedURL, nil)
	if err != nil {
		return nil, err
	}
	if client.APIKey != "" {
		request.Header.Set("x-api-key", client.APIKey)
	}

	response, err := client.httpClient.Do(request)
	if err != nil {
		return nil, fmt.Errorf("fetching feed %s: %w", feedName, err)
	}
	defer response.Body.Close()

	if response.StatusCode == http.StatusUnauthorized || response.StatusCode == http.StatusForbidden {
		log.Error().Str("feed", feedName).Int("status", response.StatusCode).Msg("Feed request unauthorized")
	}
	if response.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("feed %s returned HTTP %d", feedName, response.StatusCode)
	}

	body, err := io.ReadAll(response.Body)
	if err != nil {
		return nil, fmt.Errorf("reading feed %s body: %w", feedName, err)
	}

	feed := &gtfs.FeedMessage{}
	if err := proto.Unmarshal(body, feed); err != nil {
		return nil, fmt.Errorf("decoding feed %s protobuf: %w", feedName, err)
	}

	return feed, checkFreshness(feed, feedName, time.Now())
}

func checkFreshness(feed *gtfs.FeedMessage, feedName string, now time.Time) error {
	header := feed.GetHeader()
	if header == nil || header.Timestamp == nil {
		return nil
	}

	age := now.Sub(time.Unix(int64(header.GetTimestamp()), 0))
	if age > staleThreshold {
		return fmt.Errorf("feed %s is %ds old: %w", feedName, int(age.Seconds()), ErrFeedStale)
	}

	return nil
}

type fetchedFeed struct {
	name string
	feed *gtfs.FeedMessage
}

// FetchFeeds downloads a set of feeds concurrently. One failing feed fails
// the whole fetch; partial subway data produces misleading classifications.
func (client *Client) FetchFeeds(ctx context.Context, feedNames []string) (map[string]*gtfs.FeedMessage, error) {
	fetchPool := pool.NewWithResults[fetchedFeed]().WithContext(ctx).WithFirstError()

	for _, feedName := range feedNames {
		feedName := feedName
		fetchPool.Go(func(ctx context.Context) (fetchedFeed, error) {
			feed, err := client.FetchFeed(ctx, feedName)
			return fetchedFeed{name: feedName, feed: feed}, err
		})
	}

	fetched, err := fetchPool.Wait()
	if err != nil {
		return nil, err
	}

	feeds := map[string]*gtfs.FeedMessage{}
	for _, result := range fetched {
		feeds[result.name] = result.feed
	}

	return feeds, nil
}
