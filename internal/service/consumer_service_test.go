package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"content-editor-be/internal/dto"
	"content-editor-be/internal/entity"
	"content-editor-be/internal/pkg/logger"
	"content-editor-be/pkg/events"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testTopic = "CONTENT_CHANGED_TEST"

func newConsumer(repo *memoryContents, sub message.Subscriber, pub EventPublisher) *consumerService {
	return NewConsumerService(sub, testTopic, fakeFactory{repo: repo}, pub, logger.NewNopLogger()).(*consumerService)
}

func revision(t *testing.T, m dto.ContentChangedMessage) *message.Message {
	t.Helper()
	payload, err := json.Marshal(m)
	require.NoError(t, err)
	return message.NewMessage(watermill.NewUUID(), payload)
}

func acked(msg *message.Message) bool {
	select {
	case <-msg.Acked():
		return true
	default:
		return false
	}
}

func nacked(msg *message.Message) bool {
	select {
	case <-msg.Nacked():
		return true
	default:
		return false
	}
}

func TestConsumerPersistsThroughPipeline(t *testing.T) {
	row := entity.Content{Id: uuid.New(), Entity: "posts", Markdown: "old"}
	repo := newMemoryContents(row)
	bus := &recordingPublisher{}

	pubSub := gochannel.NewGoChannel(gochannel.Config{}, watermill.NopLogger{})
	defer pubSub.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, newConsumer(repo, pubSub, bus).Consume(ctx))

	sessionID := uuid.New()
	payload, err := json.Marshal(dto.ContentChangedMessage{
		ContentId: row.Id,
		SessionId: sessionID,
		Version:   3,
		Markdown:  "**new**",
		State:     json.RawMessage(`{"root":{"type":"root","children":[]}}`),
	})
	require.NoError(t, err)
	require.NoError(t, NewPublisherService(testTopic, pubSub).Publish(ctx, payload))

	assert.Eventually(t, func() bool {
		stored, _ := repo.get(row.Id)
		return stored.Version == 3
	}, time.Second, 10*time.Millisecond)

	stored, _ := repo.get(row.Id)
	assert.Equal(t, "**new**", stored.Markdown)
	require.NotNil(t, stored.LastSessionId)
	assert.Equal(t, sessionID, *stored.LastSessionId)

	assert.Eventually(t, func() bool { return len(bus.published()) == 1 }, time.Second, 10*time.Millisecond)
	saved := bus.published()[0]
	assert.Equal(t, events.ContentSaved, saved.EventType())
	assert.Equal(t, sessionID.String(), saved.Payload()["session_id"])
	assert.Equal(t, "posts", saved.Payload()["entity"])
}

func TestConsumerRevisionOrdering(t *testing.T) {
	sessionA := uuid.New()
	sessionB := uuid.New()

	tests := []struct {
		name      string
		session   uuid.UUID
		version   int
		wantSaved bool
	}{
		{name: "newer from same session", session: sessionA, version: 6, wantSaved: true},
		{name: "same version from same session", session: sessionA, version: 5, wantSaved: false},
		{name: "older from same session", session: sessionA, version: 2, wantSaved: false},
		{name: "any version from another session", session: sessionB, version: 1, wantSaved: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			row := entity.Content{Id: uuid.New(), Entity: "pages", Markdown: "stored", Version: 5, LastSessionId: &sessionA}
			repo := newMemoryContents(row)
			pub := &recordingPublisher{}
			consumer := newConsumer(repo, nil, pub)

			msg := revision(t, dto.ContentChangedMessage{
				ContentId: row.Id,
				SessionId: tt.session,
				Version:   tt.version,
				Markdown:  "incoming",
			})
			consumer.processMessage(context.Background(), msg)

			assert.True(t, acked(msg))
			stored, _ := repo.get(row.Id)
			if tt.wantSaved {
				assert.Equal(t, "incoming", stored.Markdown)
				assert.Equal(t, tt.version, stored.Version)
				assert.Len(t, pub.published(), 1)
			} else {
				assert.Equal(t, "stored", stored.Markdown)
				assert.Empty(t, pub.published())
			}
		})
	}
}

func TestConsumerAckPolicy(t *testing.T) {
	t.Run("invalid payload is acked", func(t *testing.T) {
		consumer := newConsumer(newMemoryContents(), nil, nil)
		msg := message.NewMessage(watermill.NewUUID(), []byte("not json"))
		consumer.processMessage(context.Background(), msg)
		assert.True(t, acked(msg))
	})

	t.Run("missing content is acked", func(t *testing.T) {
		consumer := newConsumer(newMemoryContents(), nil, nil)
		msg := revision(t, dto.ContentChangedMessage{ContentId: uuid.New(), SessionId: uuid.New(), Version: 1})
		consumer.processMessage(context.Background(), msg)
		assert.True(t, acked(msg))
	})

	t.Run("storage failure is nacked", func(t *testing.T) {
		row := entity.Content{Id: uuid.New(), Entity: "pages"}
		repo := newMemoryContents(row)
		repo.failNext = errDatabaseDown
		consumer := newConsumer(repo, nil, nil)

		msg := revision(t, dto.ContentChangedMessage{ContentId: row.Id, SessionId: uuid.New(), Version: 1})
		consumer.processMessage(context.Background(), msg)
		assert.True(t, nacked(msg))
	})
}

func TestNotificationHandleEvent(t *testing.T) {
	broadcast := &recordingBroadcaster{}
	svc := NewNotificationService(nil, broadcast, logger.NewNopLogger())
	sessionID := uuid.New()

	// Versions arrive as float64 once the event went through JSON
	saved := events.NewContentSaved(uuid.NewString(), sessionID.String(), "pages", 0)
	saved.Data["version"] = float64(4)
	saved.Type = "events." + events.ContentSaved
	require.NoError(t, svc.HandleEvent(context.Background(), saved))

	other := events.BaseEvent{Type: events.ContentDeleted, Data: map[string]interface{}{"session_id": sessionID.String()}}
	require.NoError(t, svc.HandleEvent(context.Background(), other))

	noSession := events.NewContentSaved(uuid.NewString(), "", "pages", 1)
	require.NoError(t, svc.HandleEvent(context.Background(), noSession))

	assert.Empty(t, broadcast.events(), "saves reach every instance over NATS, so they are never re-broadcast")
	sent := broadcast.deliveries()
	require.Len(t, sent, 1)
	assert.Equal(t, dto.SessionEventSaved, sent[0].Type)
	assert.Equal(t, sessionID, sent[0].SessionId)
	assert.Equal(t, 4, sent[0].Version)
}
