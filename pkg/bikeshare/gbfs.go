package bikeshare

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/eko/gocache/lib/v4/cache"
	"github.com/eko/gocache/lib/v4/store"
	redisstore "github.com/eko/gocache/store/redis/v4"
	"github.com/rs/zerolog/log"

	"github.com/stoopview/stoopview/pkg/redis_client"
)

const (
	StationInformationURL = "https://gbfs.citibikenyc.com/gbfs/en/station_information.json"
	StationStatusURL      = "https://gbfs.citibikenyc.com/gbfs/en/station_status.json"

	requestTimeout = 10 * time.Second

	// The station catalogue barely ever changes, no point hammering it on
	// every poll.
	informationCacheTTL = 60 * time.Minute
	informationCacheKey = "stoopview/bikeshare/station_information"
)

// StationInformation is one station from the GBFS catalogue feed.
type StationInformation struct {
	StationID string  `json:"station_id"`
	Name      string  `json:"name"`
	Latitude  float64 `json:"lat"`
	Longitude float64 `json:"lon"`
	Capacity  int     `json:"capacity"`
}

// StationStatus is one station's live dock counts.
type StationStatus struct {
	StationID       string
	BikesAvailable  int
	EBikesAvailable int
	DocksAvailable  int
	IsRenting       bool
	IsReturning     bool
	LastReported    int64
}

// GBFS 1.x serialises the renting flags as 0/1 integers.
type stationStatusRecord struct {
	StationID       string `json:"station_id"`
	BikesAvailable  int    `json:"num_bikes_available"`
	EBikesAvailable int    `json:"num_ebikes_available"`
	DocksAvailable  int    `json:"num_docks_available"`
	IsRenting       int    `json:"is_renting"`
	IsReturning     int    `json:"is_returning"`
	LastReported    int64  `json:"last_reported"`
}

type gbfsEnvelope[T any] struct {
	Data struct {
		Stations []T `json:"stations"`
	} `json:"data"`
}

// Client fetches the GBFS feeds, keeping the station catalogue in redis when
// a redis connection is configured.
type Client struct {
	httpClient *http.Client
	redisCache *cache.Cache[string]
}

func NewClient() *Client {
	client := &Client{
		httpClient: &http.Client{
			Timeout: requestTimeout,
		},
	}

	if redis_client.Client != nil {
		redisStore := redisstore.NewRedis(redis_client.Client, store.WithExpiration(informationCacheTTL))
		client.redisCache = cache.New[string](redisStore)
	}

	return client
}

// StationInformation returns the station catalogue, from cache when fresh.
func (client *Client) StationInformation(ctx context.Context) ([]StationInformation, error) {
	if client.redisCache != nil {
		if cached, err := client.redisCache.Get(ctx, informationCacheKey); err == nil {
			var stations []StationInformation
			if decodeErr := json.Unmarshal([]byte(cached), &stations); decodeErr == nil {
				return stations, nil
			} else {
				log.Warn().Err(decodeErr).Msg("Discarding undecodable cached station catalogue")
			}
		}
	}

	var envelope gbfsEnvelope[StationInformation]
	if err := client.fetchJSON(ctx, StationInformationURL, &envelope); err != nil {
		return nil, fmt.Errorf("fetching station information: %w", err)
	}
	if envelope.Data.Stations == nil {
		return nil, fmt.Errorf("station information response missing data.stations")
	}

	if client.redisCache != nil {
		encoded, err := json.Marshal(envelope.Data.Stations)
		if err == nil {
			if err := client.redisCache.Set(ctx, informationCacheKey, string(encoded)); err != nil {
				log.Warn().Err(err).Msg("Failed caching station catalogue")
			}
		}
	}

	return envelope.Data.Stations, nil
}

// StationStatus returns the live dock counts, never cached.
func (client *Client) StationStatus(ctx context.Context) ([]StationStatus, error) {
	var envelope gbfsEnvelope[stationStatusRecord]
	if err := client.fetchJSON(ctx, StationStatusURL, &envelope); err != nil {
		return nil, fmt.Errorf("fetching station status: %w", err)
	}
	if envelope.Data.Stations == nil {
		return nil, fmt.Errorf("station status response missing data.stations")
	}

	statuses := make([]StationStatus, 0, len(envelope.Data.Stations))
	for _, record := range envelope.Data.Stations {
		statuses = append(statuses, StationStatus{
			StationID:       record.StationID,
			BikesAvailable:  record.BikesAvailable,
			EBikesAvailable: record.EBikesAvailable,
			DocksAvailable:  record.DocksAvailable,
			IsRenting:       record.IsRenting != 0,
			IsReturning:     record.IsReturning != 0,
			LastReported:    record.LastReported,
		})
	}

	return statuses, nil
}

func (client *Client) fetchJSON(ctx context.Context, url string, target any) error {
	request, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}

	response, err := client.httpClient.Do(request)
	if err != nil {
		return err
	}
	defer response.Body.Close()

	if response.StatusCode != http.StatusOK {
		return fmt.Errorf("%s returned HTTP %d", url, response.StatusCode)
	}

	return json.NewDecoder(response.Body).Decode(target)
}
