package octopus

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/jgoulah/energyplot/pkg/models"
)

// DefaultBaseURL is the Octopus Energy REST API root
const DefaultBaseURL = "https://api.octopus.energy/v1"

const pageSize = 25000

// Interval controls how the API aggregates readings
type Interval string

const (
	HalfHour Interval = ""
	Hour     Interval = "hour"
	Day      Interval = "day"
	Week     Interval = "week"
	Month    Interval = "month"
	Quarter  Interval = "quarter"
)

var (
	// ErrNoAPIKey is returned when no Octopus API key is configured
	ErrNoAPIKey = errors.New("octopus api key is not configured")
	// ErrDecode is returned when a consumption page cannot be parsed
	ErrDecode = errors.New("decoding consumption response")
)

// StatusError is returned for a non-success HTTP response
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("octopus API error: status %d, response: %s", e.StatusCode, e.Body)
}

// Meter identifies a supply point and the meter installed on it
type Meter struct {
	PointID string // MPAN for electricity, MPRN for gas
	Serial  string
}

// Client reads consumption from the Octopus Energy API
type Client struct {
	httpClient *http.Client
	apiKey     string
	baseURL    string
}

// NewClient creates an Octopus client. An empty baseURL selects DefaultBaseURL.
func NewClient(httpClient *http.Client, apiKey, baseURL string) *Client {
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
	}
}

type consumptionPage struct {
	Count   int     `json:"count"`
	Next    *string `json:"next"`
	Results []struct {
		Consumption   float64   `json:"consumption"`
		IntervalStart time.Time `json:"interval_start"`
		IntervalEnd   time.Time `json:"interval_end"`
	} `json:"results"`
}

// ConsumptionURL builds the first page URL for a meter and period
func (c *Client) ConsumptionURL(fuel models.Fuel, meter Meter, from, to time.Time, interval Interval) (string, error) {
	var pointPath string
	switch fuel {
	case models.Electricity:
		pointPath = "electricity-meter-points"
	case models.Gas:
		pointPath = "gas-meter-points"
	default:
		return "", fmt.Errorf("unknown fuel: %s", fuel)
	}

	params := url.Values{}
	params.Set("period_from", from.UTC().Format(time.RFC3339))
	params.Set("period_to", to.UTC().Format(time.RFC3339))
	params.Set("order_by", "period")
	params.Set("page_size", strconv.Itoa(pageSize))
	if interval != HalfHour {
		params.Set("group_by", string(interval))
	}

	return fmt.Sprintf("%s/%s/%s/meters/%s/consumption/?%s",
		c.baseURL,
		pointPath,
		url.PathEscape(meter.PointID),
		url.PathEscape(meter.Serial),
		params.Encode(),
	), nil
}

// Consumption fetches every reading for the meter in [from, to), following
// pagination. Readings are returned ordered by start.
func (c *Client) Consumption(ctx context.Context, fuel models.Fuel, meter Meter, from, to time.Time, interval Interval) ([]models.ConsumptionReading, error) {
	if c.apiKey == "" {
		return nil, ErrNoAPIKey
	}

	next, err := c.ConsumptionURL(fuel, meter, from, to, interval)
	if err != nil {
		return nil, err
	}

	var readings []models.ConsumptionReading
	for page := 1; next != ""; page++ {
		log.Debug().Str("fuel", string(fuel)).Int("page", page).Msg("fetching consumption page")

		body, err := c.get(ctx, next)
		if err != nil {
			return nil, err
		}

		var p consumptionPage
		if err := json.Unmarshal(body, &p); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrDecode, err)
		}

		for _, r := range p.Results {
			readings = append(readings, models.ConsumptionReading{
				Start:    r.IntervalStart,
				End:      r.IntervalEnd,
				Quantity: r.Consumption,
			})
		}

		next = ""
		if p.Next != nil {
			next = *p.Next
		}
	}

	sort.SliceStable(readings, func(i, j int) bool {
		return readings[i].Start.Before(readings[j].Start)
	})

	return readings, nil
}

func (c *Client) get(ctx context.Context, reqURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.SetBasicAuth(c.apiKey, "")
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

	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	return body, nil
}
