package service

import (
	"context"
	"fmt"
	"strings"

	"content-editor-be/internal/dto"
	"content-editor-be/internal/pkg/logger"
	"content-editor-be/pkg/events"
	pktNats "content-editor-be/pkg/nats"

	"github.com/google/uuid"
)

// SessionDelivery pushes an event to the sockets of this instance only.
// Implemented by the websocket hub.
type SessionDelivery interface {
	Deliver(sessionID uuid.UUID, event dto.SessionEvent)
}

// NotificationService tells socket clients that their revision reached
// storage. It listens for CONTENT_SAVED on the event bus, so every instance
// hears saves made by any other and delivers only to its own sockets.
type NotificationService struct {
	subscriber *pktNats.Subscriber
	delivery   SessionDelivery
	logger     logger.ILogger
}

func NewNotificationService(sub *pktNats.Subscriber, delivery SessionDelivery, log logger.ILogger) *NotificationService {
	return &NotificationService{
		subscriber: sub,
		delivery:   delivery,
		logger:     log,
	}
}

// Start begins listening to the event bus.
func (s *NotificationService) Start() {
	subject := pktNats.Subject(events.ContentSaved)
	if err := s.subscriber.Subscribe(subject, "editor-save-notifier-"+uuid.NewString()[:8], s.HandleEvent); err != nil {
		s.logger.Error("NotificationService", "Failed to start save notifier", map[string]interface{}{"error": err})
		return
	}
	s.logger.Info("NotificationService", "Save notifier started", map[string]interface{}{"subject": subject})
}

func (s *NotificationService) HandleEvent(ctx context.Context, event events.Event) error {
	typeCode := strings.TrimPrefix(event.EventType(), "events.")
	if typeCode != events.ContentSaved {
		return nil
	}

	payload := event.Payload()
	sessionStr, _ := payload["session_id"].(string)
	sessionID, err := uuid.Parse(sessionStr)
	if err != nil {
		s.logger.Warn("NotificationService", "Event without a valid session_id", map[string]interface{}{"payload": payload})
		return nil
	}

	// JSON numbers decode as float64
	version := 0
	switch v := payload["version"].(type) {
	case float64:
		version = int(v)
	case int:
		version = v
	}

	if s.delivery != nil {
		s.delivery.Deliver(sessionID, dto.SessionEvent{
			Type:      dto.SessionEventSaved,
			SessionId: sessionID,
			Version:   version,
			Message:   fmt.Sprintf("version %d saved", version),
		})
	}
	return nil
}
