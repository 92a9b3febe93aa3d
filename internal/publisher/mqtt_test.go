package publisher

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jgoulah/energyplot/internal/config"
	"github.com/jgoulah/energyplot/pkg/models"
)

type fakeToken struct {
	err error
}

func (t *fakeToken) Wait() bool                     { return true }
func (t *fakeToken) WaitTimeout(time.Duration) bool { return true }
func (t *fakeToken) Error() error                   { return t.err }
func (t *fakeToken) Done() <-chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}

type published struct {
	topic    string
	qos      byte
	retained bool
	payload  []byte
}

type fakeClient struct {
	messages     []published
	err          error
	connected    bool
	disconnected bool
}

func (c *fakeClient) Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token {
	c.messages = append(c.messages, published{topic: topic, qos: qos, retained: retained, payload: payload.([]byte)})
	return &fakeToken{err: c.err}
}

func (c *fakeClient) IsConnected() bool { return c.connected }

func (c *fakeClient) Disconnect(uint) { c.disconnected = true }

func ptr(v float64) *float64 { return &v }

func TestPublish(t *testing.T) {
	t.Parallel()
	client := &fakeClient{connected: true}
	pub := NewWithClient(client, "home/energy")

	record := models.DailyRecord{Date: "2024-12-01", Gas: ptr(10), GasKWh: ptr(107.95), Temperature: ptr(5.2)}
	require.NoError(t, pub.Publish(record))

	require.Len(t, client.messages, 1)
	msg := client.messages[0]
	assert.Equal(t, "home/energy/daily/2024-12-01", msg.topic)
	assert.Equal(t, byte(1), msg.qos)
	assert.True(t, msg.retained)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(msg.payload, &decoded))
	assert.Equal(t, "2024-12-01", decoded["date"])
	assert.InDelta(t, 10, decoded["gas"], 1e-9)
	assert.InDelta(t, 5.2, decoded["temperature_c"], 1e-9)
	assert.NotContains(t, decoded, "electricity_kwh")

	pub.Close()
	assert.True(t, client.disconnected)
}

func TestPublishError(t *testing.T) {
	t.Parallel()
	client := &fakeClient{err: errors.New("not connected")}
	pub := NewWithClient(client, "energyplot")

	err := pub.Publish(models.DailyRecord{Date: "2024-12-01"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "2024-12-01")
	assert.Contains(t, err.Error(), "not connected")
}

func TestCloseWhenDisconnected(t *testing.T) {
	t.Parallel()
	client := &fakeClient{}
	NewWithClient(client, "energyplot").Close()
	assert.False(t, client.disconnected)
}

func TestNewValidatesConfig(t *testing.T) {
	t.Parallel()

	_, err := New(config.MQTTConfig{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not enabled")

	_, err = New(config.MQTTConfig{Enabled: true})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broker address is required")
}
