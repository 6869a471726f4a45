package service

import (
	"context"
	"encoding/json"

	"content-editor-be/internal/dto"
	"content-editor-be/internal/pkg/logger"
	"content-editor-be/internal/repository/specification"
	"content-editor-be/internal/repository/unitofwork"
	"content-editor-be/pkg/events"

	"github.com/ThreeDotsLabs/watermill/message"
)

type IConsumerService interface {
	Consume(ctx context.Context) error
}

type consumerService struct {
	subscriber     message.Subscriber
	topicName      string
	uowFactory     unitofwork.RepositoryFactory
	eventPublisher EventPublisher
	logger         logger.ILogger
}

func NewConsumerService(
	subscriber message.Subscriber,
	topicName string,
	uowFactory unitofwork.RepositoryFactory,
	eventPublisher EventPublisher,
	log logger.ILogger,
) IConsumerService {
	return &consumerService{
		subscriber:     subscriber,
		topicName:      topicName,
		uowFactory:     uowFactory,
		eventPublisher: eventPublisher,
		logger:         log,
	}
}

// Consume persists editor revisions published on the content-changed topic.
func (cs *consumerService) Consume(ctx context.Context) error {
	messages, err := cs.subscriber.Subscribe(ctx, cs.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			cs.processMessage(ctx, msg)
		}
	}()

	return nil
}

func (cs *consumerService) processMessage(ctx context.Context, msg *message.Message) {
	var payload dto.ContentChangedMessage
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		cs.logger.Error("ConsumerService", "Failed to unmarshal message", map[string]interface{}{"error": err})
		msg.Ack() // Ack invalid messages to prevent infinite retry
		return
	}

	saved, entityName, err := cs.persist(ctx, payload)
	if err != nil {
		cs.logger.Error("ConsumerService", "Failed to persist revision", map[string]interface{}{
			"content_id": payload.ContentId,
			"version":    payload.Version,
			"error":      err,
		})
		msg.Nack()
		return
	}
	msg.Ack()

	if !saved {
		return
	}
	cs.logger.Info("ConsumerService", "Revision persisted", map[string]interface{}{
		"content_id": payload.ContentId,
		"session_id": payload.SessionId,
		"version":    payload.Version,
	})

	if cs.eventPublisher != nil {
		evt := events.NewContentSaved(payload.ContentId.String(), payload.SessionId.String(), entityName, payload.Version)
		if err := cs.eventPublisher.Publish(ctx, evt); err != nil {
			cs.logger.Warn("ConsumerService", "Failed to publish CONTENT_SAVED event", map[string]interface{}{"error": err.Error()})
		}
	}
}

// persist writes the revision unless the row already holds a newer one from
// the same session. It reports whether anything was written.
func (cs *consumerService) persist(ctx context.Context, payload dto.ContentChangedMessage) (bool, string, error) {
	uow := cs.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return false, "", err
	}
	defer uow.Rollback()

	content, err := uow.ContentRepository().FindOne(ctx,
		specification.ByID{ID: payload.ContentId},
		specification.ForUpdate{},
	)
	if err != nil {
		return false, "", err
	}
	if content == nil {
		cs.logger.Warn("ConsumerService", "Content not found, dropping revision", map[string]interface{}{"content_id": payload.ContentId})
		return false, "", nil
	}
	if !content.AcceptsRevision(payload.SessionId, payload.Version) {
		cs.logger.Debug("ConsumerService", "Stale revision ignored", map[string]interface{}{
			"content_id": payload.ContentId,
			"version":    payload.Version,
			"stored":     content.Version,
		})
		return false, content.Entity, nil
	}

	sessionId := payload.SessionId
	content.Markdown = payload.Markdown
	content.State = payload.State
	content.Version = payload.Version
	content.LastSessionId = &sessionId

	if err := uow.ContentRepository().Update(ctx, content); err != nil {
		return false, "", err
	}
	if err := uow.Commit(); err != nil {
		return false, "", err
	}
	return true, content.Entity, nil
}
