package service

import (
	"context"

	"content-editor-be/pkg/events"
)

// EventPublisher is satisfied by *nats.Publisher. A nil EventPublisher
// disables domain events.
type EventPublisher interface {
	Publish(ctx context.Context, event events.Event) error
}
