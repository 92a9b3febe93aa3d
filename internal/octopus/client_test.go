package octopus

import (
	"context"
	"net/http"
	"net/url"
	"testing"
	"time"

	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jgoulah/energyplot/pkg/models"
)

const testBaseURL = "https://octopus.example.test/v1"

var (
	testFrom  = time.Date(2024, 12, 1, 0, 0, 0, 0, time.UTC)
	testTo    = time.Date(2024, 12, 3, 0, 0, 0, 0, time.UTC)
	testMeter = Meter{PointID: "1200000000000", Serial: "21L0000000"}
)

func newTestClient(t *testing.T, apiKey string) (*Client, *httpmock.MockTransport) {
	t.Helper()
	mt := httpmock.NewMockTransport()
	return NewClient(&http.Client{Transport: mt}, apiKey, testBaseURL), mt
}

func TestConsumptionURL(t *testing.T) {
	t.Parallel()
	c := NewClient(nil, "key", testBaseURL+"/")

	tests := []struct {
		name     string
		fuel     models.Fuel
		interval Interval
		path     string
		groupBy  string
	}{
		{"electricity daily", models.Electricity, Day, "/v1/electricity-meter-points/1200000000000/meters/21L0000000/consumption/", "day"},
		{"gas half hourly", models.Gas, HalfHour, "/v1/gas-meter-points/1200000000000/meters/21L0000000/consumption/", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw, err := c.ConsumptionURL(tt.fuel, testMeter, testFrom, testTo, tt.interval)
			require.NoError(t, err)

			u, err := url.Parse(raw)
			require.NoError(t, err)
			assert.Equal(t, tt.path, u.Path)
			q := u.Query()
			assert.Equal(t, "2024-12-01T00:00:00Z", q.Get("period_from"))
			assert.Equal(t, "2024-12-03T00:00:00Z", q.Get("period_to"))
			assert.Equal(t, "period", q.Get("order_by"))
			assert.Equal(t, "25000", q.Get("page_size"))
			assert.Equal(t, tt.groupBy, q.Get("group_by"))
		})
	}
}

func TestConsumptionURLUnknownFuel(t *testing.T) {
	t.Parallel()
	c := NewClient(nil, "key", "")
	_, err := c.ConsumptionURL(models.Fuel("oil"), testMeter, testFrom, testTo, Day)
	require.Error(t, err)
}

func TestConsumptionPaginatesAndSorts(t *testing.T) {
	t.Parallel()
	client, mt := newTestClient(t, "sk_test")

	page1 := `{"count":3,"next":"` + testBaseURL + `/electricity-meter-points/1200000000000/meters/21L0000000/consumption/?page=2","previous":null,"results":[
		{"consumption":9.5,"interval_start":"2024-12-02T00:00:00Z","interval_end":"2024-12-03T00:00:00Z"},
		{"consumption":8.25,"interval_start":"2024-12-01T00:00:00Z","interval_end":"2024-12-02T00:00:00Z"}
	]}`
	page2 := `{"count":3,"next":null,"previous":null,"results":[
		{"consumption":7.0,"interval_start":"2024-11-30T00:00:00Z","interval_end":"2024-12-01T00:00:00Z"}
	]}`

	mt.RegisterResponder(http.MethodGet, "=~/electricity-meter-points/1200000000000/meters/21L0000000/consumption/",
		func(req *http.Request) (*http.Response, error) {
			user, pass, ok := req.BasicAuth()
			if !ok || user != "sk_test" || pass != "" {
				return httpmock.NewStringResponse(http.StatusUnauthorized, `{"detail":"auth"}`), nil
			}
			if req.URL.Query().Get("page") == "2" {
				return httpmock.NewStringResponse(http.StatusOK, page2), nil
			}
			return httpmock.NewStringResponse(http.StatusOK, page1), nil
		})

	readings, err := client.Consumption(context.Background(), models.Electricity, testMeter, testFrom, testTo, Day)
	require.NoError(t, err)
	require.Len(t, readings, 3)
	assert.Equal(t, 2, mt.GetTotalCallCount())

	assert.True(t, readings[0].Start.Equal(time.Date(2024, 11, 30, 0, 0, 0, 0, time.UTC)))
	assert.InDelta(t, 7.0, readings[0].Quantity, 1e-9)
	assert.True(t, readings[1].Start.Equal(testFrom))
	assert.InDelta(t, 8.25, readings[1].Quantity, 1e-9)
	assert.True(t, readings[2].End.Equal(testTo))
}

func TestConsumptionStatusErrorNoRetry(t *testing.T) {
	t.Parallel()
	client, mt := newTestClient(t, "sk_test")
	mt.RegisterResponder(http.MethodGet, "=~/gas-meter-points/",
		httpmock.NewStringResponder(http.StatusUnauthorized, `{"detail":"Authentication credentials were not provided."}`))

	readings, err := client.Consumption(context.Background(), models.Gas, testMeter, testFrom, testTo, Day)
	require.Error(t, err)
	assert.Nil(t, readings)

	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusUnauthorized, statusErr.StatusCode)
	assert.Contains(t, err.Error(), "Authentication credentials")
	assert.Equal(t, 1, mt.GetTotalCallCount())
}

func TestConsumptionInvalidJSON(t *testing.T) {
	t.Parallel()
	client, mt := newTestClient(t, "sk_test")
	mt.RegisterResponder(http.MethodGet, "=~/gas-meter-points/", httpmock.NewStringResponder(http.StatusOK, `{"results":[`))

	_, err := client.Consumption(context.Background(), models.Gas, testMeter, testFrom, testTo, Day)
	require.ErrorIs(t, err, ErrDecode)
}

func TestConsumptionNoAPIKey(t *testing.T) {
	t.Parallel()
	client, mt := newTestClient(t, "")

	_, err := client.Consumption(context.Background(), models.Gas, testMeter, testFrom, testTo, Day)
	require.ErrorIs(t, err, ErrNoAPIKey)
	assert.Equal(t, 0, mt.GetTotalCallCount())
}

func TestConsumptionEmpty(t *testing.T) {
	t.Parallel()
	client, mt := newTestClient(t, "sk_test")
	mt.RegisterResponder(http.MethodGet, "=~/gas-meter-points/",
		httpmock.NewStringResponder(http.StatusOK, `{"count":0,"next":null,"previous":null,"results":[]}`))

	readings, err := client.Consumption(context.Background(), models.Gas, testMeter, testFrom, testTo, Day)
	require.NoError(t, err)
	assert.Empty(t, readings)
}
