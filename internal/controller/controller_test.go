package controller

import (
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"content-editor-be/internal/dto"
	"content-editor-be/internal/pkg/serverutils"
	"content-editor-be/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubContentService struct {
	created *dto.CreateContentRequest
	listed  *dto.ListContentRequest
}

func (s *stubContentService) Create(_ context.Context, req *dto.CreateContentRequest) (*dto.CreateContentResponse, error) {
	if req.Entity != "pages" {
		return nil, service.ErrUnknownEntity
	}
	s.created = req
	return &dto.CreateContentResponse{Id: uuid.New()}, nil
}

func (s *stubContentService) Show(_ context.Context, _ string, _ uuid.UUID) (*dto.ShowContentResponse, error) {
	return nil, service.ErrContentNotFound
}

func (s *stubContentService) List(_ context.Context, req *dto.ListContentRequest) (*dto.ListContentResponse, error) {
	s.listed = req
	return &dto.ListContentResponse{Items: []*dto.ShowContentResponse{}}, nil
}

func (s *stubContentService) Update(_ context.Context, req *dto.UpdateContentRequest) (*dto.UpdateContentResponse, error) {
	return &dto.UpdateContentResponse{Id: req.Id}, nil
}

func (s *stubContentService) Delete(context.Context, string, uuid.UUID) error { return nil }

type stubSessionService struct {
	sessionId  uuid.UUID
	dispatched *dto.DispatchCommandRequest
}

func (s *stubSessionService) Open(_ context.Context, req *dto.OpenSessionRequest) (*dto.SessionStateResponse, error) {
	return &dto.SessionStateResponse{SessionId: s.sessionId, ContentId: req.ContentId, Markdown: "Title"}, nil
}

func (s *stubSessionService) Dispatch(_ context.Context, req *dto.DispatchCommandRequest) (*dto.DispatchCommandResponse, error) {
	if req.SessionId != s.sessionId {
		return nil, service.ErrSessionNotFound
	}
	s.dispatched = req
	return &dto.DispatchCommandResponse{Handled: true, Version: 1, Markdown: "## Title"}, nil
}

func (s *stubSessionService) Show(_ context.Context, id uuid.UUID) (*dto.SessionStateResponse, error) {
	if id != s.sessionId {
		return nil, service.ErrSessionNotFound
	}
	return &dto.SessionStateResponse{SessionId: id}, nil
}

func (s *stubSessionService) Close(context.Context, uuid.UUID) error { return nil }

func (s *stubSessionService) Exists(id uuid.UUID) bool { return id == s.sessionId }

func newTestApp(register func(r fiber.Router)) *fiber.App {
	app := fiber.New()
	app.Use(serverutils.ErrorHandlerMiddleware())
	register(app.Group("/api"))
	return app
}

func doJSON(t *testing.T, app *fiber.App, method, path, body string) (int, map[string]interface{}) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp.StatusCode, out
}

func TestContentRoutes(t *testing.T) {
	svc := &stubContentService{}
	app := newTestApp(NewContentController(svc).RegisterRoutes)

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		status int
	}{
		{name: "create", method: fiber.MethodPost, path: "/api/content/v1/pages", body: `{"title":"Home","markdown":"# Home"}`, status: fiber.StatusCreated},
		{name: "create without title", method: fiber.MethodPost, path: "/api/content/v1/pages", body: `{"markdown":"x"}`, status: fiber.StatusBadRequest},
		{name: "create unknown entity", method: fiber.MethodPost, path: "/api/content/v1/users", body: `{"title":"x"}`, status: fiber.StatusNotFound},
		{name: "list", method: fiber.MethodGet, path: "/api/content/v1/pages?limit=5&offset=10", status: fiber.StatusOK},
		{name: "list over limit", method: fiber.MethodGet, path: "/api/content/v1/pages?limit=500", status: fiber.StatusBadRequest},
		{name: "list bad sort", method: fiber.MethodGet, path: "/api/content/v1/pages?sort=title", status: fiber.StatusBadRequest},
		{name: "show bad id", method: fiber.MethodGet, path: "/api/content/v1/pages/nope", status: fiber.StatusBadRequest},
		{name: "show missing", method: fiber.MethodGet, path: "/api/content/v1/pages/" + uuid.NewString(), status: fiber.StatusNotFound},
		{name: "update", method: fiber.MethodPut, path: "/api/content/v1/pages/" + uuid.NewString(), body: `{"title":"New"}`, status: fiber.StatusOK},
		{name: "delete", method: fiber.MethodDelete, path: "/api/content/v1/pages/" + uuid.NewString(), status: fiber.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := doJSON(t, app, tt.method, tt.path, tt.body)
			assert.Equal(t, tt.status, status)
			assert.Equal(t, tt.status < 400, body["success"])
		})
	}

	require.NotNil(t, svc.created)
	assert.Equal(t, "pages", svc.created.Entity)
	assert.Equal(t, "# Home", svc.created.Markdown)
	require.NotNil(t, svc.listed)
	assert.Equal(t, 5, svc.listed.Limit)
	assert.Equal(t, 10, svc.listed.Offset)
}

func TestEditorRoutes(t *testing.T) {
	svc := &stubSessionService{sessionId: uuid.New()}
	app := newTestApp(NewEditorController(svc).RegisterRoutes)
	base := "/api/editor/v1/sessions/"

	status, body := doJSON(t, app, fiber.MethodPost, "/api/editor/v1/sessions", `{"content_id":"`+uuid.NewString()+`"}`)
	assert.Equal(t, fiber.StatusCreated, status)
	data := body["data"].(map[string]interface{})
	assert.Equal(t, svc.sessionId.String(), data["session_id"])

	status, _ = doJSON(t, app, fiber.MethodPost, "/api/editor/v1/sessions", `{}`)
	assert.Equal(t, fiber.StatusBadRequest, status)

	status, body = doJSON(t, app, fiber.MethodPost, base+svc.sessionId.String()+"/commands",
		`{"command":"FORMAT_BLOCK","payload":{"block":"h2"}}`)
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "## Title", body["data"].(map[string]interface{})["markdown"])
	require.NotNil(t, svc.dispatched)
	assert.Equal(t, "h2", svc.dispatched.Payload.Block)

	status, _ = doJSON(t, app, fiber.MethodPost, base+svc.sessionId.String()+"/commands",
		`{"command":"TOGGLE_LINK","payload":{"url":"not a url"}}`)
	assert.Equal(t, fiber.StatusBadRequest, status)

	status, _ = doJSON(t, app, fiber.MethodPost, base+svc.sessionId.String()+"/commands", `{"payload":{}}`)
	assert.Equal(t, fiber.StatusBadRequest, status)

	status, _ = doJSON(t, app, fiber.MethodGet, base+uuid.NewString(), "")
	assert.Equal(t, fiber.StatusNotFound, status)

	status, _ = doJSON(t, app, fiber.MethodGet, base+"abc", "")
	assert.Equal(t, fiber.StatusBadRequest, status)

	status, _ = doJSON(t, app, fiber.MethodDelete, base+svc.sessionId.String(), "")
	assert.Equal(t, fiber.StatusOK, status)
}
