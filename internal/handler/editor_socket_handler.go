package handler

import (
	"encoding/json"

	"content-editor-be/internal/dto"
	"content-editor-be/internal/pkg/logger"
	"content-editor-be/internal/service"
	internalWS "content-editor-be/internal/websocket"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
)

// EditorSocketHandler upgrades /sessions/:id/ws to a live editing socket.
type EditorSocketHandler struct {
	service service.IEditorSessionService
	hub     *internalWS.Hub
	logger  logger.ILogger
}

func NewEditorSocketHandler(service service.IEditorSessionService, hub *internalWS.Hub, log logger.ILogger) *EditorSocketHandler {
	return &EditorSocketHandler{
		service: service,
		hub:     hub,
		logger:  log,
	}
}

// ServeWs checks the session before upgrading so a bad id gets a plain 404.
func (h *EditorSocketHandler) ServeWs(c *fiber.Ctx) error {
	sessionID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid session id")
	}

	state, err := h.service.Show(c.UserContext(), sessionID)
	if err != nil {
		return err
	}

	if !websocket.IsWebSocketUpgrade(c) {
		return fiber.ErrUpgradeRequired
	}

	greeting, _ := json.Marshal(dto.SessionEvent{
		Type:      dto.SessionEventState,
		SessionId: sessionID,
		Version:   state.Version,
		Markdown:  state.Markdown,
		Toolbar:   &state.Toolbar,
		Selection: &state.Selection,
	})

	return websocket.New(func(conn *websocket.Conn) {
		h.logger.Info("EditorSocketHandler", "Socket attached", map[string]interface{}{"session_id": sessionID})
		internalWS.ServeWs(h.hub, h.service, conn, sessionID, greeting)
		h.logger.Info("EditorSocketHandler", "Socket detached", map[string]interface{}{"session_id": sessionID})
	})(c)
}

func (h *EditorSocketHandler) RegisterRoutes(router fiber.Router) {
	router.Get("/editor/v1/sessions/:id/ws", h.ServeWs)
}
