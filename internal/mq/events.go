package mq

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/exercise-tracker/apiserver/types"
)

// EventPublisher encodes domain events as JSON and publishes each one on a
// channel named after its type.
type EventPublisher struct {
	mq *MQ
}

func NewEventPublisher(m *MQ) *EventPublisher {
	return &EventPublisher{mq: m}
}

func (p *EventPublisher) Publish(ctx context.Context, event types.Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode %s event: %w", event.Type, err)
	}
	_, err = p.mq.Publish(ctx, event.Type, data, map[string]string{
		AttrContentType:  "application/json",
		AttrEventType:    event.Type,
		AttrPartitionKey: event.UserID,
	})
	if err != nil {
		return fmt.Errorf("publish %s event: %w", event.Type, err)
	}
	return nil
}

// DecodeEvent parses a message produced by EventPublisher.
func DecodeEvent(msg Message) (types.Event, error) {
	var event types.Event
	if err := json.Unmarshal(msg.Data, &event); err != nil {
		return types.Event{}, fmt.Errorf("decode event %s: %w", msg.ID, err)
	}
	return event, nil
}
