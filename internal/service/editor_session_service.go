package service

import (
	"context"
	"encoding/json"
	"errors"

	"content-editor-be/internal/dto"
	"content-editor-be/internal/pkg/logger"
	"content-editor-be/internal/repository/memory"
	"content-editor-be/internal/repository/specification"
	"content-editor-be/internal/repository/unitofwork"
	"content-editor-be/pkg/editor"
	"content-editor-be/pkg/lexical"
	"content-editor-be/pkg/store"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// SessionBroadcaster pushes session events to connected clients. Implemented
// by the websocket hub.
type SessionBroadcaster interface {
	Broadcast(sessionID uuid.UUID, event dto.SessionEvent)
}

type IEditorSessionService interface {
	Open(ctx context.Context, req *dto.OpenSessionRequest) (*dto.SessionStateResponse, error)
	Dispatch(ctx context.Context, req *dto.DispatchCommandRequest) (*dto.DispatchCommandResponse, error)
	Show(ctx context.Context, sessionId uuid.UUID) (*dto.SessionStateResponse, error)
	Close(ctx context.Context, sessionId uuid.UUID) error
	Exists(sessionId uuid.UUID) bool
}

type editorSessionService struct {
	uowFactory       unitofwork.RepositoryFactory
	sessions         *memory.SessionRepository
	publisherService IPublisherService
	broadcaster      SessionBroadcaster
	logger           logger.ILogger
}

func NewEditorSessionService(
	uowFactory unitofwork.RepositoryFactory,
	sessions *memory.SessionRepository,
	publisherService IPublisherService,
	broadcaster SessionBroadcaster,
	log logger.ILogger,
) IEditorSessionService {
	return &editorSessionService{
		uowFactory:       uowFactory,
		sessions:         sessions,
		publisherService: publisherService,
		broadcaster:      broadcaster,
		logger:           log,
	}
}

func (s *editorSessionService) Open(ctx context.Context, req *dto.OpenSessionRequest) (*dto.SessionStateResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	content, err := uow.ContentRepository().FindOne(ctx, specification.ByID{ID: req.ContentId})
	if err != nil {
		return nil, err
	}
	if content == nil {
		return nil, ErrContentNotFound
	}

	var session *store.EditorSession
	composer := editor.NewComposer(
		editor.WithTree(restoreTree(content.Markdown, content.State)),
		editor.WithOnError(func(err error) {
			details := map[string]interface{}{"content_id": content.Id, "error": err.Error()}
			if session != nil {
				session.LastError = err
				details["session_id"] = session.ID
			}
			s.logger.Warn("EditorSessionService", "Transaction rejected", details)
		}),
	)
	session = store.NewEditorSession(content.Id, content.Entity, composer)

	// A plain update listener, since onChange needs the tree and selection
	// and not just markdown.
	composer.RegisterUpdateListener(func(doc editor.Document, sel lexical.Selection) {
		s.onChange(session, composer, doc, sel)
	})

	s.sessions.Save(session)
	s.logger.Info("EditorSessionService", "Session opened", map[string]interface{}{
		"session_id": session.ID,
		"content_id": content.Id,
		"entity":     content.Entity,
	})

	var res *dto.SessionStateResponse
	session.Do(func(c *editor.Composer) {
		res = sessionState(session, c)
	})
	return res, nil
}

// onChange runs after every commit, inside the session lock.
func (s *editorSessionService) onChange(session *store.EditorSession, c *editor.Composer, doc editor.Document, sel lexical.Selection) {
	md, state, err := encodeField(doc.Tree)
	if err != nil {
		s.logger.Error("EditorSessionService", "Failed to encode document", map[string]interface{}{"error": err})
		return
	}

	s.logger.Debug("EditorSessionService", "Commit", map[string]interface{}{
		"session_id":   session.ID,
		"version":      doc.Version,
		"markdown_len": len(md),
	})

	payload, err := json.Marshal(dto.ContentChangedMessage{
		ContentId: session.ContentID,
		SessionId: session.ID,
		Version:   doc.Version,
		Markdown:  md,
		State:     state,
	})
	if err == nil {
		err = s.publisherService.Publish(context.Background(), payload)
	}
	if err != nil {
		s.logger.Error("EditorSessionService", "Failed to publish content change", map[string]interface{}{
			"session_id": session.ID,
			"error":      err,
		})
	}

	if s.broadcaster != nil {
		toolbar := editor.Project(doc, sel, c.History.State())
		s.broadcaster.Broadcast(session.ID, dto.SessionEvent{
			Type:      dto.SessionEventState,
			SessionId: session.ID,
			Version:   doc.Version,
			Markdown:  md,
			Toolbar:   &toolbar,
			Selection: &sel,
		})
	}
}

func (s *editorSessionService) Dispatch(ctx context.Context, req *dto.DispatchCommandRequest) (*dto.DispatchCommandResponse, error) {
	session, ok := s.sessions.Get(req.SessionId)
	if !ok {
		return nil, ErrSessionNotFound
	}

	cmd, err := req.EditorRequest().Command()
	if err != nil {
		if errors.Is(err, editor.ErrUnknownCommand) || errors.Is(err, editor.ErrInvalidPayload) {
			return nil, fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		return nil, err
	}

	var res *dto.DispatchCommandResponse
	alive := session.Do(func(c *editor.Composer) {
		session.LastError = nil
		handled := c.Dispatch(cmd)

		st := c.State()
		res = &dto.DispatchCommandResponse{
			Handled:   handled,
			Version:   st.Version,
			Markdown:  c.Markdown(),
			Toolbar:   c.Toolbar(),
			Selection: st.Selection,
		}
		if session.LastError != nil {
			res.Error = session.LastError.Error()
		}
	})
	if !alive {
		return nil, ErrSessionClosed
	}
	return res, nil
}

func (s *editorSessionService) Show(ctx context.Context, sessionId uuid.UUID) (*dto.SessionStateResponse, error) {
	session, ok := s.sessions.Get(sessionId)
	if !ok {
		return nil, ErrSessionNotFound
	}

	var res *dto.SessionStateResponse
	if !session.Do(func(c *editor.Composer) {
		res = sessionState(session, c)
	}) {
		return nil, ErrSessionClosed
	}
	return res, nil
}

func (s *editorSessionService) Close(ctx context.Context, sessionId uuid.UUID) error {
	if _, ok := s.sessions.Get(sessionId); !ok {
		return ErrSessionNotFound
	}
	s.sessions.Delete(sessionId)

	if s.broadcaster != nil {
		s.broadcaster.Broadcast(sessionId, dto.SessionEvent{
			Type:      dto.SessionEventClosed,
			SessionId: sessionId,
		})
	}
	s.logger.Info("EditorSessionService", "Session closed", map[string]interface{}{"session_id": sessionId})
	return nil
}

func (s *editorSessionService) Exists(sessionId uuid.UUID) bool {
	_, ok := s.sessions.Get(sessionId)
	return ok
}

func sessionState(session *store.EditorSession, c *editor.Composer) *dto.SessionStateResponse {
	st := c.State()
	res := &dto.SessionStateResponse{
		SessionId: session.ID,
		ContentId: session.ContentID,
		Entity:    session.Entity,
		Version:   st.Version,
		Markdown:  c.Markdown(),
		Toolbar:   c.Toolbar(),
		Selection: st.Selection,
		Tree:      nodeView(st.Tree, lexical.RootKey),
		OpenedAt:  session.OpenedAt,
	}
	if state, err := lexical.ExportJSON(st.Tree); err == nil {
		res.State = state
	}
	return res
}

func nodeView(t *lexical.Tree, key lexical.NodeKey) *dto.NodeView {
	n := t.Node(key)
	if n == nil {
		return nil
	}
	view := &dto.NodeView{
		Key:     n.Key,
		Type:    n.Kind.String(),
		Text:    n.Text,
		URL:     n.URL,
		Level:   n.Level,
		Ordered: n.Ordered,
	}
	if n.Kind == lexical.KindText {
		view.Format = n.Format.Names()
	}
	for _, child := range n.Children {
		if cv := nodeView(t, child); cv != nil {
			view.Children = append(view.Children, *cv)
		}
	}
	return view
}
