package mq

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/exercise-tracker/apiserver/config"
	"github.com/segmentio/kafka-go"
)

// kafkaReader is the subset of *kafka.Reader used by Subscribe.
type kafkaReader interface {
	FetchMessage(context.Context) (kafka.Message, error)
	CommitMessages(context.Context, ...kafka.Message) error
	Close() error
}

// writerBatchTimeout bounds how long a synchronous publish waits for its
// batch to fill. Events are published on the request path.
const writerBatchTimeout = 10 * time.Millisecond

// KafkaClient publishes to Kafka topics with one writer per topic and
// consumes them through a consumer group.
type KafkaClient struct {
	brokers []string
	groupID string

	mu      sync.Mutex
	writers map[string]*kafka.Writer

	newReader func(topic string) kafkaReader
}

// NewKafkaClient constructs a Kafka client from config. No connection is
// made until the first publish or subscribe.
func NewKafkaClient(cfg config.KafkaConfig) (*KafkaClient, error) {
	if len(cfg.Brokers) == 0 {
		return nil, errors.New("kafka brokers are required")
	}

	client := &KafkaClient{
		brokers: cfg.Brokers,
		groupID: cfg.GroupID,
		writers: make(map[string]*kafka.Writer),
	}
	client.newReader = func(topic string) kafkaReader {
		return kafka.NewReader(kafka.ReaderConfig{
			Brokers:         client.brokers,
			GroupID:         client.groupID,
			Topic:           topic,
			MinBytes:        1e3,
			MaxBytes:        10e6,
			CommitInterval:  time.Second,
			ReadLagInterval: -1,
		})
	}
	return client, nil
}

// Publish writes a message to the named topic. The message ID is used as the
// record key.
func (k *KafkaClient) Publish(ctx context.Context, channel string, data []byte, attrs map[string]string) (string, error) {
	if strings.TrimSpace(channel) == "" {
		return "", errors.New("kafka channel is required")
	}

	headers := make([]kafka.Header, 0, len(attrs))
	for key, value := range attrs {
		headers = append(headers, kafka.Header{Key: key, Value: []byte(value)})
	}

	messageID := newMessageID()
	record := kafka.Message{
		Key:     []byte(attrs[AttrPartitionKey]),
		Value:   data,
		Headers: append(headers, kafka.Header{Key: attrMessageID, Value: []byte(messageID)}),
		Time:    time.Now().UTC(),
	}
	if len(record.Key) == 0 {
		record.Key = []byte(messageID)
	}

	if err := k.writer(channel).WriteMessages(ctx, record); err != nil {
		return "", err
	}
	return messageID, nil
}

// Subscribe consumes the named topic until ctx is cancelled. Messages whose
// handler fails are left uncommitted.
func (k *KafkaClient) Subscribe(ctx context.Context, channel string, handler Handler) error {
	if strings.TrimSpace(channel) == "" {
		return errors.New("kafka channel is required")
	}

	reader := k.newReader(channel)
	defer reader.Close()

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		record, err := reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return err
		}

		message := Message{
			Data:       record.Value,
			Attributes: kafkaHeadersToAttributes(record.Headers),
		}
		if id, ok := message.Attributes[attrMessageID]; ok {
			message.ID = id
			delete(message.Attributes, attrMessageID)
		}

		if err := handler(ctx, message); err != nil {
			continue
		}
		if err := reader.CommitMessages(ctx, record); err != nil {
			return err
		}
	}
}

// Close closes every topic writer.
func (k *KafkaClient) Close() error {
	k.mu.Lock()
	defer k.mu.Unlock()

	var errs []error
	for topic, writer := range k.writers {
		if err := writer.Close(); err != nil {
			errs = append(errs, err)
		}
		delete(k.writers, topic)
	}
	return errors.Join(errs...)
}

func (k *KafkaClient) writer(topic string) *kafka.Writer {
	k.mu.Lock()
	defer k.mu.Unlock()

	if writer, ok := k.writers[topic]; ok {
		return writer
	}
	writer := &kafka.Writer{
		Addr:                   kafka.TCP(k.brokers...),
		Topic:                  topic,
		RequiredAcks:           kafka.RequireAll,
		Compression:            kafka.Snappy,
		BatchTimeout:           writerBatchTimeout,
		AllowAutoTopicCreation: true,
	}
	k.writers[topic] = writer
	return writer
}

func kafkaHeadersToAttributes(headers []kafka.Header) map[string]string {
	if len(headers) == 0 {
		return nil
	}
	attrs := make(map[string]string, len(headers))
	for _, header := range headers {
		attrs[header.Key] = string(header.Value)
	}
	return attrs
}
