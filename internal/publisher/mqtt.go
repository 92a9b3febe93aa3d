package publisher

import (
	"encoding/json"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"

	"github.com/jgoulah/energyplot/internal/config"
	"github.com/jgoulah/energyplot/pkg/models"
)

const publishTimeout = 10 * time.Second

// Client is the subset of the paho client the publisher uses
type Client interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
	IsConnected() bool
	Disconnect(quiesce uint)
}

// Publisher sends joined daily records to an MQTT broker
type Publisher struct {
	client      Client
	topicPrefix string
}

// New connects to the broker described by cfg
func New(cfg config.MQTTConfig) (*Publisher, error) {
	if !cfg.Enabled {
		return nil, fmt.Errorf("MQTT publishing is not enabled in config")
	}
	if cfg.Broker == "" {
		return nil, fmt.Errorf("MQTT broker address is required when enabled")
	}

	opts := mqtt.NewClientOptions()
	opts.AddBroker(fmt.Sprintf("tcp://%s", cfg.Broker))
	opts.SetClientID("energyplot-" + uuid.NewString())
	opts.SetConnectTimeout(10 * time.Second)
	// Runs are one-shot, a dropped connection should fail rather than retry
	opts.SetAutoReconnect(false)
	opts.SetConnectRetry(false)

	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
	}
	if cfg.Password != "" {
		opts.SetPassword(cfg.Password)
	}

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("connecting to MQTT broker: %w", token.Error())
	}

	return NewWithClient(client, cfg.GetTopicPrefix()), nil
}

// NewWithClient wraps an already connected client
func NewWithClient(client Client, topicPrefix string) *Publisher {
	return &Publisher{client: client, topicPrefix: topicPrefix}
}

// Topic returns the topic a record is published to
func (p *Publisher) Topic(record models.DailyRecord) string {
	return fmt.Sprintf("%s/daily/%s", p.topicPrefix, record.Date)
}

// Payload returns the JSON body for a record
func Payload(record models.DailyRecord) ([]byte, error) {
	body, err := json.Marshal(record)
	if err != nil {
		return nil, fmt.Errorf("encoding payload: %w", err)
	}
	return body, nil
}

// Publish sends one record as a retained QoS 1 message
func (p *Publisher) Publish(record models.DailyRecord) error {
	body, err := Payload(record)
	if err != nil {
		return err
	}

	token := p.client.Publish(p.Topic(record), 1, true, body)
	if !token.WaitTimeout(publishTimeout) {
		return fmt.Errorf("publishing %s: timed out", record.Date)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publishing %s: %w", record.Date, err)
	}

	return nil
}

// Close disconnects from the MQTT broker
func (p *Publisher) Close() {
	if p.client != nil && p.client.IsConnected() {
		p.client.Disconnect(250)
	}
}
