package weather

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-json-experiment/json"
	"github.com/rs/zerolog/log"

	"github.com/jgoulah/energyplot/internal/cache"
	"github.com/jgoulah/energyplot/pkg/models"
)

// DefaultBaseURL is the Visual Crossing timeline endpoint
const DefaultBaseURL = "https://weather.visualcrossing.com/VisualCrossingWebServices/rest/services/timeline"

var (
	// ErrNoAPIKey is returned when the client has no Visual Crossing key
	ErrNoAPIKey = errors.New("visualcrossing api key is not configured")
	// ErrDecode is returned when a response body (fresh or cached) cannot be parsed
	ErrDecode = errors.New("decoding weather response")
)

// StatusError is returned for a non-success HTTP response
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("weather API error: status %d, response: %s", e.StatusCode, e.Body)
}

// Cache is the read-through store consulted before any request is made
type Cache interface {
	Get(key string) ([]byte, bool, error)
	Put(key string, data []byte) error
}

// Client fetches daily history from the Visual Crossing timeline API
type Client struct {
	httpClient *http.Client
	apiKey     string
	baseURL    string
	cache      Cache
}

// NewClient creates a weather client. An empty baseURL selects DefaultBaseURL.
func NewClient(httpClient *http.Client, apiKey, baseURL string, store Cache) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		httpClient: httpClient,
		apiKey:     apiKey,
		baseURL:    strings.TrimRight(baseURL, "/"),
		cache:      store,
	}
}

// RequestURL builds the full request URL for a location and inclusive date
// range. It doubles as the cache identifier.
func (c *Client) RequestURL(location string, from, to time.Time) string {
	return fmt.Sprintf("%s/%s/%s/%s?unitGroup=metric&key=%s&contentType=json",
		c.baseURL,
		url.PathEscape(location),
		from.Format(models.DateLayout),
		to.Format(models.DateLayout),
		url.QueryEscape(c.apiKey),
	)
}

// Fetch returns one WeatherDay per calendar day between from and to. A cached
// response for the same URL is used without touching the network.
func (c *Client) Fetch(ctx context.Context, location string, from, to time.Time) ([]models.WeatherDay, error) {
	if c.apiKey == "" {
		return nil, ErrNoAPIKey
	}

	reqURL := c.RequestURL(location, from, to)
	key := cache.Key(reqURL)
	logger := log.With().
		Str("location", location).
		Str("from", from.Format(models.DateLayout)).
		Str("to", to.Format(models.DateLayout)).
		Str("cache_key", key).
		Logger()

	if c.cache != nil {
		body, ok, err := c.cache.Get(key)
		if err != nil {
			return nil, err
		}
		if ok {
			logger.Debug().Msg("weather cache hit")
			return decodeDays(body)
		}
	}

	logger.Debug().Msg("weather cache miss, requesting")
	body, err := c.get(ctx, reqURL)
	if err != nil {
		return nil, err
	}

	if c.cache != nil {
		if err := c.cache.Put(key, body); err != nil {
			return nil, err
		}
	}

	return decodeDays(body)
}

func (c *Client) get(ctx context.Context, reqURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request error: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	return body, nil
}

// timelineResponse is the subset of the timeline payload we use. Member
// names are matched case-insensitively and unknown members are ignored.
type timelineResponse struct {
	Days []struct {
		Datetime      string  `json:"datetime"`
		DatetimeEpoch int64   `json:"datetimeEpoch"`
		Temp          float64 `json:"temp"`
	} `json:"days"`
}

func decodeDays(body []byte) ([]models.WeatherDay, error) {
	var payload timelineResponse
	if err := json.Unmarshal(body, &payload, json.MatchCaseInsensitiveNames(true)); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}

	days := make([]models.WeatherDay, 0, len(payload.Days))
	seen := make(map[string]bool, len(payload.Days))
	for _, d := range payload.Days {
		date, err := time.Parse(models.DateLayout, d.Datetime)
		if err != nil {
			return nil, fmt.Errorf("%w: day %q: %v", ErrDecode, d.Datetime, err)
		}
		if seen[d.Datetime] {
			return nil, fmt.Errorf("%w: day %q appears more than once", ErrDecode, d.Datetime)
		}
		seen[d.Datetime] = true
		days = append(days, models.WeatherDay{Date: date, Temperature: d.Temp})
	}

	return days, nil
}
