package services

import (
	"context"
	"log/slog"

	"github.com/exercise-tracker/apiserver/types"
)

// EventPublisher delivers domain events to a message broker.
type EventPublisher interface {
	Publish(ctx context.Context, event types.Event) error
}

// publish is best-effort: a broker outage never fails the request that
// produced the event.
func publish(ctx context.Context, publisher EventPublisher, logger *slog.Logger, event types.Event) {
	if publisher == nil {
		return
	}
	if err := publisher.Publish(ctx, event); err != nil {
		logger.WarnContext(ctx, "failed to publish event",
			"event_type", event.Type,
			"user_id", event.UserID,
			"error", err)
	}
}
