// Package notify publishes inventory events to the message broker.
package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/ukydev/logistics-dashboard/internal/models"
)

// StockAlert is published when a stock update moves an item into low or out of stock.
type StockAlert struct {
	ProductID      string                 `json:"product_id"`
	LocationID     string                 `json:"location_id"`
	Quantity       int                    `json:"quantity"`
	ReorderPoint   int                    `json:"reorder_point"`
	PreviousStatus models.InventoryStatus `json:"previous_status"`
	Status         models.InventoryStatus `json:"status"`
	At             time.Time              `json:"at"`
}

// Publisher delivers stock alerts.
type Publisher interface {
	PublishStockAlert(ctx context.Context, alert StockAlert) error
}

// NopPublisher discards every alert.
type NopPublisher struct{}

func (NopPublisher) PublishStockAlert(context.Context, StockAlert) error { return nil }

// StockAlertTopic returns the topic alerts are published on.
func StockAlertTopic(prefix string) string {
	return prefix + "/stock-alerts"
}

const (
	alertQoS       = 1
	publishTimeout = 5 * time.Second
)

// publishClient is the part of mqtt.Client the publisher needs.
type publishClient interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
}

// MQTTPublisher publishes alerts as JSON with QoS 1.
type MQTTPublisher struct {
	client publishClient
	topic  string
}

// NewMQTTPublisher wraps an existing client.
func NewMQTTPublisher(client publishClient, topicPrefix string) *MQTTPublisher {
	return &MQTTPublisher{client: client, topic: StockAlertTopic(topicPrefix)}
}

// ConnectMQTT connects a client to broker with automatic reconnects.
func ConnectMQTT(broker, clientID string) (mqtt.Client, error) {
	opts := mqtt.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID).
		SetAutoReconnect(true).
		SetConnectTimeout(publishTimeout)
	client := mqtt.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(publishTimeout) {
		return nil, fmt.Errorf("mqtt connect to %s timed out", broker)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("mqtt connect: %w", err)
	}
	return client, nil
}

var errPublishTimeout = errors.New("mqtt publish timed out")

func (p *MQTTPublisher) PublishStockAlert(ctx context.Context, alert StockAlert) error {
	payload, err := json.Marshal(alert)
	if err != nil {
		return fmt.Errorf("encode stock alert: %w", err)
	}
	token := p.client.Publish(p.topic, alertQoS, false, payload)
	select {
	case <-token.Done():
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(publishTimeout):
		return errPublishTimeout
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish stock alert: %w", err)
	}
	return nil
}
