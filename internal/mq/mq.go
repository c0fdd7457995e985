package mq

import (
	"context"
	"fmt"

	"github.com/exercise-tracker/apiserver/config"
)

// Well-known message attributes.
const (
	AttrContentType  = "content-type"
	AttrEventType    = "event-type"
	AttrPartitionKey = "partition-key"

	attrMessageID = "message-id"
)

// Message represents a broker-agnostic payload delivered to subscribers.
type Message struct {
	ID         string
	Data       []byte
	Attributes map[string]string
}

// Handler processes a message. Return an error to signal a retry/nack.
type Handler func(ctx context.Context, msg Message) error

// Backend defines the broker-agnostic operations used by the app.
type Backend interface {
	Publish(ctx context.Context, channel string, data []byte, attrs map[string]string) (string, error)
	Subscribe(ctx context.Context, channel string, handler Handler) error
	Close() error
}

// MQ wraps a backend and prefixes every channel name.
type MQ struct {
	backend Backend
	prefix  string
}

// New constructs an MQ wrapper for the provided backend.
func New(backend Backend, prefix string) *MQ {
	return &MQ{backend: backend, prefix: prefix}
}

// Open builds the configured backend. It returns nil when messaging is
// disabled.
func Open(ctx context.Context, cfg config.MQConfig) (*MQ, error) {
	var (
		backend Backend
		err     error
	)
	switch cfg.Backend {
	case config.MQBackendNone, "":
		return nil, nil
	case config.MQBackendRabbitMQ:
		backend, err = NewRabbitMQClient(cfg.RabbitMQ)
	case config.MQBackendPubSub:
		backend, err = NewPubSubClient(ctx, cfg.PubSub)
	case config.MQBackendKafka:
		backend, err = NewKafkaClient(cfg.Kafka)
	default:
		return nil, fmt.Errorf("unsupported mq backend %q", cfg.Backend)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", cfg.Backend, err)
	}
	return New(backend, cfg.ChannelPrefix), nil
}

// Channel returns the broker-level name for a logical channel.
func (m *MQ) Channel(name string) string {
	return m.prefix + name
}

// Publish sends a message to the named channel.
func (m *MQ) Publish(ctx context.Context, channel string, data []byte, attrs map[string]string) (string, error) {
	return m.backend.Publish(ctx, m.Channel(channel), data, attrs)
}

// Subscribe consumes messages from the named channel.
func (m *MQ) Subscribe(ctx context.Context, channel string, handler Handler) error {
	return m.backend.Subscribe(ctx, m.Channel(channel), handler)
}

// Close closes the underlying backend.
func (m *MQ) Close() error {
	return m.backend.Close()
}
