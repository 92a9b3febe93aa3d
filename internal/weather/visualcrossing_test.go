package weather

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jgoulah/energyplot/internal/cache"
)

const (
	testBaseURL  = "https://weather.example.test/timeline"
	testEndpoint = testBaseURL + "/London%2CUK/2024-12-01/2024-12-01"
	singleDay    = `{"days":[{"datetime":"2024-12-01","datetimeEpoch":1733011200,"temp":5.2}]}`
)

func day(s string) time.Time {
	d, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return d
}

// newTestClient wires a client to a mock transport and a temp-dir cache
func newTestClient(t *testing.T, apiKey string) (*Client, *httpmock.MockTransport, *cache.Store) {
	t.Helper()
	mt := httpmock.NewMockTransport()
	store := cache.New(t.TempDir())
	client := NewClient(&http.Client{Transport: mt}, apiKey, testBaseURL, store)
	return client, mt, store
}

func TestRequestURL(t *testing.T) {
	t.Parallel()
	c := NewClient(nil, "secret", testBaseURL+"/", nil)

	got := c.RequestURL("London,UK", day("2024-11-01"), day("2024-12-01"))
	assert.Equal(t,
		testBaseURL+"/London%2CUK/2024-11-01/2024-12-01?unitGroup=metric&key=secret&contentType=json",
		got)
}

func TestRequestURLDefaultBase(t *testing.T) {
	t.Parallel()
	c := NewClient(nil, "k", "", nil)
	assert.Contains(t, c.RequestURL("Leeds", day("2024-01-01"), day("2024-01-02")), DefaultBaseURL+"/Leeds/")
}

func TestFetchEndToEndCaching(t *testing.T) {
	t.Parallel()
	client, mt, store := newTestClient(t, "test-key")
	mt.RegisterResponder(http.MethodGet, testEndpoint, httpmock.NewStringResponder(http.StatusOK, singleDay))

	ctx := context.Background()
	first, err := client.Fetch(ctx, "London,UK", day("2024-12-01"), day("2024-12-01"))
	require.NoError(t, err)
	require.Len(t, first, 1)
	assert.Equal(t, "2024-12-01", first[0].Key())
	assert.InDelta(t, 5.2, first[0].Temperature, 1e-9)
	assert.Equal(t, 1, mt.GetTotalCallCount())

	entries, err := store.Entries()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, cache.Key(client.RequestURL("London,UK", day("2024-12-01"), day("2024-12-01"))), entries[0].Key)

	second, err := client.Fetch(ctx, "London,UK", day("2024-12-01"), day("2024-12-01"))
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, mt.GetTotalCallCount(), "second fetch must be served from cache")
}

func TestFetchCachedBodyIsStoredRaw(t *testing.T) {
	t.Parallel()
	client, mt, store := newTestClient(t, "test-key")
	mt.RegisterResponder(http.MethodGet, testEndpoint, httpmock.NewStringResponder(http.StatusOK, singleDay))

	_, err := client.Fetch(context.Background(), "London,UK", day("2024-12-01"), day("2024-12-01"))
	require.NoError(t, err)

	body, ok, err := store.Get(cache.Key(client.RequestURL("London,UK", day("2024-12-01"), day("2024-12-01"))))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, singleDay, string(body))
}

func TestFetchDifferentRangeMissesCache(t *testing.T) {
	t.Parallel()
	client, mt, _ := newTestClient(t, "test-key")
	mt.RegisterResponder(http.MethodGet, "=~^"+testBaseURL+"/", httpmock.NewStringResponder(http.StatusOK, singleDay))

	ctx := context.Background()
	_, err := client.Fetch(ctx, "London,UK", day("2024-12-01"), day("2024-12-01"))
	require.NoError(t, err)
	_, err = client.Fetch(ctx, "London,UK", day("2024-12-01"), day("2024-12-02"))
	require.NoError(t, err)

	assert.Equal(t, 2, mt.GetTotalCallCount())
}

func TestFetchCaseInsensitiveAndUnknownFields(t *testing.T) {
	t.Parallel()
	client, mt, _ := newTestClient(t, "test-key")
	body := `{
  "queryCost": 2,
  "resolvedAddress": "London, England, United Kingdom",
  "Days": [
    {"DateTime": "2024-12-01", "DATETIMEEPOCH": 1733011200, "Temp": 5.2, "humidity": 88.1},
    {"datetime": "2024-12-02", "datetimeEpoch": 1733097600, "TEMP": -1.5, "conditions": "Snow"}
  ]
}`
	mt.RegisterResponder(http.MethodGet, "=~^"+testBaseURL+"/", httpmock.NewStringResponder(http.StatusOK, body))

	days, err := client.Fetch(context.Background(), "London,UK", day("2024-12-01"), day("2024-12-02"))
	require.NoError(t, err)
	require.Len(t, days, 2)
	assert.Equal(t, "2024-12-01", days[0].Key())
	assert.InDelta(t, 5.2, days[0].Temperature, 1e-9)
	assert.Equal(t, "2024-12-02", days[1].Key())
	assert.InDelta(t, -1.5, days[1].Temperature, 1e-9)
}

func TestFetchHTTPErrorNoRetryNoCache(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		statusCode int
	}{
		{"bad_request", http.StatusBadRequest},
		{"unauthorized", http.StatusUnauthorized},
		{"too_many_requests", http.StatusTooManyRequests},
		{"internal_server_error", http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, mt, store := newTestClient(t, "test-key")
			mt.RegisterResponder(http.MethodGet, testEndpoint, httpmock.NewStringResponder(tt.statusCode, "nope"))

			days, err := client.Fetch(context.Background(), "London,UK", day("2024-12-01"), day("2024-12-01"))
			require.Error(t, err)
			assert.Nil(t, days)

			var statusErr *StatusError
			require.ErrorAs(t, err, &statusErr)
			assert.Equal(t, tt.statusCode, statusErr.StatusCode)
			assert.Equal(t, "nope", statusErr.Body)
			assert.Equal(t, 1, mt.GetTotalCallCount())

			entries, err := store.Entries()
			require.NoError(t, err)
			assert.Empty(t, entries, "failed responses must not be cached")
		})
	}
}

func TestFetchTransportError(t *testing.T) {
	t.Parallel()
	client, mt, _ := newTestClient(t, "test-key")
	mt.RegisterResponder(http.MethodGet, testEndpoint, httpmock.NewErrorResponder(errors.New("connection refused")))

	_, err := client.Fetch(context.Background(), "London,UK", day("2024-12-01"), day("2024-12-01"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
}

func TestFetchInvalidJSON(t *testing.T) {
	t.Parallel()
	client, mt, _ := newTestClient(t, "test-key")
	mt.RegisterResponder(http.MethodGet, testEndpoint, httpmock.NewStringResponder(http.StatusOK, `{invalid json`))

	_, err := client.Fetch(context.Background(), "London,UK", day("2024-12-01"), day("2024-12-01"))
	require.ErrorIs(t, err, ErrDecode)
}

func TestFetchTruncatedCacheEntryIsFatal(t *testing.T) {
	t.Parallel()
	client, mt, store := newTestClient(t, "test-key")
	mt.RegisterResponder(http.MethodGet, testEndpoint, httpmock.NewStringResponder(http.StatusOK, singleDay))

	key := cache.Key(client.RequestURL("London,UK", day("2024-12-01"), day("2024-12-01")))
	require.NoError(t, store.Put(key, []byte(singleDay[:20])))

	_, err := client.Fetch(context.Background(), "London,UK", day("2024-12-01"), day("2024-12-01"))
	require.ErrorIs(t, err, ErrDecode)
	assert.Equal(t, 0, mt.GetTotalCallCount(), "a corrupt entry is not refetched")
}

func TestFetchBadDate(t *testing.T) {
	t.Parallel()
	client, mt, _ := newTestClient(t, "test-key")
	mt.RegisterResponder(http.MethodGet, testEndpoint,
		httpmock.NewStringResponder(http.StatusOK, `{"days":[{"datetime":"01/12/2024","temp":5.2}]}`))

	_, err := client.Fetch(context.Background(), "London,UK", day("2024-12-01"), day("2024-12-01"))
	require.ErrorIs(t, err, ErrDecode)
}

func TestFetchDuplicateDay(t *testing.T) {
	t.Parallel()
	client, mt, _ := newTestClient(t, "test-key")
	mt.RegisterResponder(http.MethodGet, testEndpoint,
		httpmock.NewStringResponder(http.StatusOK, `{"days":[{"datetime":"2024-12-01","temp":5.2},{"datetime":"2024-12-01","temp":5.2}]}`))

	days, err := client.Fetch(context.Background(), "London,UK", day("2024-12-01"), day("2024-12-01"))
	require.ErrorIs(t, err, ErrDecode)
	assert.Nil(t, days)
	assert.Contains(t, err.Error(), "2024-12-01")
}

func TestFetchNoAPIKey(t *testing.T) {
	t.Parallel()
	client, mt, _ := newTestClient(t, "")

	_, err := client.Fetch(context.Background(), "London,UK", day("2024-12-01"), day("2024-12-01"))
	require.ErrorIs(t, err, ErrNoAPIKey)
	assert.Equal(t, 0, mt.GetTotalCallCount())
}
