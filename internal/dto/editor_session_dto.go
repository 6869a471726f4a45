package dto

import (
	"encoding/json"
	"time"

	"content-editor-be/pkg/editor"
	"content-editor-be/pkg/lexical"

	"github.com/google/uuid"
)

type OpenSessionRequest struct {
	ContentId uuid.UUID `json:"content_id" validate:"required"`
}

type CommandPayload struct {
	Mark      string             `json:"mark,omitempty"`
	Block     string             `json:"block,omitempty"`
	Ordered   bool               `json:"ordered,omitempty"`
	Text      string             `json:"text,omitempty"`
	URL       string             `json:"url,omitempty" validate:"omitempty,url"`
	Selection *lexical.Selection `json:"selection,omitempty"`
}

type DispatchCommandRequest struct {
	SessionId uuid.UUID
	Command   string         `json:"command" validate:"required"`
	Payload   CommandPayload `json:"payload"`
}

// EditorRequest maps the wire form onto the editor's command request.
func (r DispatchCommandRequest) EditorRequest() editor.Request {
	return editor.Request{
		Type:      editor.CommandType(r.Command),
		Mark:      r.Payload.Mark,
		Block:     editor.BlockType(r.Payload.Block),
		Ordered:   r.Payload.Ordered,
		Text:      r.Payload.Text,
		URL:       r.Payload.URL,
		Selection: r.Payload.Selection,
	}
}

// NodeView is a node as a client sees it: enough to build selections.
type NodeView struct {
	Key      lexical.NodeKey `json:"key"`
	Type     string          `json:"type"`
	Text     string          `json:"text,omitempty"`
	Format   []string        `json:"format,omitempty"`
	URL      string          `json:"url,omitempty"`
	Level    int             `json:"level,omitempty"`
	Ordered  bool            `json:"ordered,omitempty"`
	Children []NodeView      `json:"children,omitempty"`
}

type SessionStateResponse struct {
	SessionId uuid.UUID           `json:"session_id"`
	ContentId uuid.UUID           `json:"content_id"`
	Entity    string              `json:"entity"`
	Version   int                 `json:"version"`
	Markdown  string              `json:"markdown"`
	Toolbar   editor.ToolbarState `json:"toolbar"`
	Selection lexical.Selection   `json:"selection"`
	Tree      *NodeView           `json:"tree,omitempty"`
	State     json.RawMessage     `json:"state,omitempty"`
	OpenedAt  time.Time           `json:"opened_at"`
}

type DispatchCommandResponse struct {
	Handled   bool                `json:"handled"`
	Version   int                 `json:"version"`
	Markdown  string              `json:"markdown"`
	Toolbar   editor.ToolbarState `json:"toolbar"`
	Selection lexical.Selection   `json:"selection"`
	Error     string              `json:"error,omitempty"`
}

// SessionEvent is what socket clients receive.
type SessionEvent struct {
	Type      string               `json:"type"` // "state", "saved", "error", "closed"
	SessionId uuid.UUID            `json:"session_id"`
	Version   int                  `json:"version,omitempty"`
	Markdown  string               `json:"markdown,omitempty"`
	Toolbar   *editor.ToolbarState `json:"toolbar,omitempty"`
	Selection *lexical.Selection   `json:"selection,omitempty"`
	Message   string               `json:"message,omitempty"`
}

const (
	SessionEventState  = "state"
	SessionEventSaved  = "saved"
	SessionEventError  = "error"
	SessionEventClosed = "closed"
)
