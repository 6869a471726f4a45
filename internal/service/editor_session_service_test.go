package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"content-editor-be/internal/dto"
	"content-editor-be/internal/entity"
	"content-editor-be/internal/pkg/logger"
	"content-editor-be/internal/repository/memory"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sessionFixture struct {
	svc       IEditorSessionService
	payloads  *recordingPayloads
	broadcast *recordingBroadcaster
	content   entity.Content
}

func newSessionFixture(t *testing.T, md string) sessionFixture {
	t.Helper()
	content := entity.Content{Id: uuid.New(), Entity: "pages", Title: "Home", Markdown: md}
	f := sessionFixture{
		payloads:  &recordingPayloads{},
		broadcast: &recordingBroadcaster{},
		content:   content,
	}
	f.svc = NewEditorSessionService(
		fakeFactory{repo: newMemoryContents(content)},
		memory.NewSessionRepository(time.Minute),
		f.payloads,
		f.broadcast,
		logger.NewNopLogger(),
	)
	return f
}

func TestOpenSession(t *testing.T) {
	f := newSessionFixture(t, "Title")

	res, err := f.svc.Open(context.Background(), &dto.OpenSessionRequest{ContentId: f.content.Id})
	require.NoError(t, err)

	assert.Equal(t, f.content.Id, res.ContentId)
	assert.Equal(t, "pages", res.Entity)
	assert.Equal(t, "Title", res.Markdown)
	assert.Zero(t, res.Version)
	assert.False(t, res.Toolbar.CanUndo)
	assert.Equal(t, "paragraph", res.Toolbar.BlockType)
	require.NotNil(t, res.Tree)
	assert.Equal(t, "root", res.Tree.Type)
	assert.True(t, f.svc.Exists(res.SessionId))
	assert.Empty(t, f.payloads.all(), "opening is not a commit")
}

func TestOpenSessionUnknownContent(t *testing.T) {
	f := newSessionFixture(t, "")

	_, err := f.svc.Open(context.Background(), &dto.OpenSessionRequest{ContentId: uuid.New()})
	assert.ErrorIs(t, err, ErrContentNotFound)
}

func TestDispatchPublishesEachCommit(t *testing.T) {
	f := newSessionFixture(t, "Title")
	opened, err := f.svc.Open(context.Background(), &dto.OpenSessionRequest{ContentId: f.content.Id})
	require.NoError(t, err)

	res, err := f.svc.Dispatch(context.Background(), &dto.DispatchCommandRequest{
		SessionId: opened.SessionId,
		Command:   "FORMAT_BLOCK",
		Payload:   dto.CommandPayload{Block: "h2"},
	})
	require.NoError(t, err)

	assert.True(t, res.Handled)
	assert.Equal(t, 1, res.Version)
	assert.Equal(t, "## Title", res.Markdown)
	assert.Equal(t, "h2", res.Toolbar.BlockType)
	assert.True(t, res.Toolbar.CanUndo)
	assert.Empty(t, res.Error)

	payloads := f.payloads.all()
	require.Len(t, payloads, 1)
	var msg dto.ContentChangedMessage
	require.NoError(t, json.Unmarshal(payloads[0], &msg))
	assert.Equal(t, f.content.Id, msg.ContentId)
	assert.Equal(t, opened.SessionId, msg.SessionId)
	assert.Equal(t, 1, msg.Version)
	assert.Equal(t, "## Title", msg.Markdown)
	assert.NotEmpty(t, msg.State)

	sent := f.broadcast.events()
	require.Len(t, sent, 1)
	assert.Equal(t, dto.SessionEventState, sent[0].Type)
	require.NotNil(t, sent[0].Toolbar)
	assert.Equal(t, "h2", sent[0].Toolbar.BlockType)

	res, err = f.svc.Dispatch(context.Background(), &dto.DispatchCommandRequest{
		SessionId: opened.SessionId,
		Command:   "UNDO",
	})
	require.NoError(t, err)
	assert.Equal(t, "Title", res.Markdown)
	assert.Equal(t, 2, res.Version)
	assert.True(t, res.Toolbar.CanRedo)
	assert.Len(t, f.payloads.all(), 2)
}

func TestDispatchUnhandledCommand(t *testing.T) {
	f := newSessionFixture(t, "Title")
	opened, err := f.svc.Open(context.Background(), &dto.OpenSessionRequest{ContentId: f.content.Id})
	require.NoError(t, err)

	// Nothing to redo yet
	res, err := f.svc.Dispatch(context.Background(), &dto.DispatchCommandRequest{
		SessionId: opened.SessionId,
		Command:   "REDO",
	})
	require.NoError(t, err)
	assert.False(t, res.Handled)
	assert.Zero(t, res.Version)
	assert.Empty(t, f.payloads.all())
}

func TestDispatchErrors(t *testing.T) {
	f := newSessionFixture(t, "Title")
	opened, err := f.svc.Open(context.Background(), &dto.OpenSessionRequest{ContentId: f.content.Id})
	require.NoError(t, err)

	tests := []struct {
		name   string
		req    dto.DispatchCommandRequest
		status int
	}{
		{
			name:   "unknown session",
			req:    dto.DispatchCommandRequest{SessionId: uuid.New(), Command: "UNDO"},
			status: fiber.StatusNotFound,
		},
		{
			name:   "unknown command",
			req:    dto.DispatchCommandRequest{SessionId: opened.SessionId, Command: "SHOUT"},
			status: fiber.StatusBadRequest,
		},
		{
			name:   "bad mark",
			req:    dto.DispatchCommandRequest{SessionId: opened.SessionId, Command: "FORMAT_TEXT", Payload: dto.CommandPayload{Mark: "blink"}},
			status: fiber.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.Dispatch(context.Background(), &tt.req)
			var fe *fiber.Error
			require.True(t, errors.As(err, &fe))
			assert.Equal(t, tt.status, fe.Code)
		})
	}
}

func TestCloseSession(t *testing.T) {
	f := newSessionFixture(t, "Title")
	opened, err := f.svc.Open(context.Background(), &dto.OpenSessionRequest{ContentId: f.content.Id})
	require.NoError(t, err)

	require.NoError(t, f.svc.Close(context.Background(), opened.SessionId))

	assert.False(t, f.svc.Exists(opened.SessionId))
	sent := f.broadcast.events()
	require.NotEmpty(t, sent)
	assert.Equal(t, dto.SessionEventClosed, sent[len(sent)-1].Type)

	_, err = f.svc.Show(context.Background(), opened.SessionId)
	assert.ErrorIs(t, err, ErrSessionNotFound)
	assert.ErrorIs(t, f.svc.Close(context.Background(), opened.SessionId), ErrSessionNotFound)
}

func TestOpenPrefersStoredState(t *testing.T) {
	f := newSessionFixture(t, "")
	_, state, err := encodeField(mustDecode(t, "> from state"))
	require.NoError(t, err)

	content := entity.Content{Id: uuid.New(), Entity: "pages", Markdown: "from markdown", State: state}
	svc := NewEditorSessionService(
		fakeFactory{repo: newMemoryContents(content)},
		memory.NewSessionRepository(time.Minute),
		f.payloads,
		nil,
		logger.NewNopLogger(),
	)

	res, err := svc.Open(context.Background(), &dto.OpenSessionRequest{ContentId: content.Id})
	require.NoError(t, err)
	assert.Equal(t, "> from state", res.Markdown)
	assert.Equal(t, "quote", res.Toolbar.BlockType)
}
