// Package bus forwards published snapshots and their response protocol to
// cabin hardware over MQTT.
package bus

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/okian/cabina/internal/domain/emotion"
	"github.com/okian/cabina/internal/domain/model"
	"github.com/okian/cabina/internal/domain/protocol"
	"github.com/okian/cabina/pkg/logger"
	"github.com/okian/cabina/pkg/metrics"
)

const (
	qosAtLeastOnce    = 1
	publishTimeout    = 5 * time.Second
	disconnectQuiesce = 250 // ms
)

// Message is the JSON document sent per snapshot.
type Message struct {
	Version    uint64            `json:"version"`
	Timestamp  time.Time         `json:"timestamp"`
	State      emotion.State     `json:"state"`
	Risk       emotion.RiskTier  `json:"risk_tier"`
	Confidence float64           `json:"confidence"`
	Protocol   protocol.Protocol `json:"protocol"`
}

// Payload builds the message body for snap.
func Payload(snap model.Snapshot) ([]byte, error) { //nolint:gocritic // hugeParam: snapshot is immutable
	return json.Marshal(Message{
		Version:    snap.Version,
		Timestamp:  snap.Timestamp,
		State:      snap.Result.State,
		Risk:       snap.Result.Risk,
		Confidence: snap.Result.Confidence,
		Protocol:   protocol.For(snap.Result.State),
	})
}

// Publisher is the subset of mqtt.Client the bus needs.
type Publisher interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
}

// Option configures a Bus.
type Option func(*Bus)

// WithLogger sets a custom logger.
func WithLogger(l logger.Logger) Option {
	return func(b *Bus) {
		if l != nil {
			b.logger = l
		}
	}
}

// Bus publishes snapshots to one retained topic.
type Bus struct {
	client Publisher
	topic  string
	logger logger.Logger
	close  func()
}

// New wraps an existing publisher.
func New(client Publisher, topic string, opts ...Option) *Bus {
	b := &Bus{
		client: client,
		topic:  topic,
		logger: logger.Nop(),
		close:  func() {},
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Connect dials broker and returns a Bus that owns the connection.
func Connect(broker, clientID, topic string, opts ...Option) (*Bus, error) {
	b := New(nil, topic, opts...)
	log := b.logger

	copts := mqtt.NewClientOptions()
	copts.AddBroker(broker)
	copts.SetClientID(clientID)
	copts.SetAutoReconnect(true)
	copts.SetKeepAlive(60 * time.Second)
	copts.SetPingTimeout(10 * time.Second)
	copts.SetOnConnectHandler(func(mqtt.Client) {
		log.Info(context.Background(), "mqtt connected", logger.String("broker", broker))
	})
	copts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		log.Warn(context.Background(), "mqtt connection lost", logger.Error(err))
	})

	client := mqtt.NewClient(copts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("connect mqtt broker %s: %w", broker, token.Error())
	}
	b.client = client
	b.close = func() { client.Disconnect(disconnectQuiesce) }
	return b, nil
}

// Publish sends one snapshot and waits for the broker to acknowledge it.
func (b *Bus) Publish(ctx context.Context, snap model.Snapshot) error { //nolint:gocritic // hugeParam: snapshot is immutable
	payload, err := Payload(snap)
	if err != nil {
		return fmt.Errorf("encode snapshot %d: %w", snap.Version, err)
	}

	token := b.client.Publish(b.topic, qosAtLeastOnce, true, payload)
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-token.Done():
	case <-time.After(publishTimeout):
		metrics.RecordBusError()
		return fmt.Errorf("publish snapshot %d: timed out", snap.Version)
	}
	if err := token.Error(); err != nil {
		metrics.RecordBusError()
		return fmt.Errorf("publish snapshot %d: %w", snap.Version, err)
	}
	metrics.RecordBusPublish()
	return nil
}

// Run publishes every snapshot from ch until ctx ends or ch closes.
func (b *Bus) Run(ctx context.Context, ch <-chan model.Snapshot) {
	b.logger.Info(ctx, "cabin bus started", logger.String("topic", b.topic))
	for {
		select {
		case <-ctx.Done():
			return
		case snap, ok := <-ch:
			if !ok {
				return
			}
			if err := b.Publish(ctx, snap); err != nil {
				b.logger.Error(ctx, "cabin bus publish failed", logger.Error(err))
			}
		}
	}
}

// Close disconnects when the bus owns the connection.
func (b *Bus) Close() {
	b.close()
}
