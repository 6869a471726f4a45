package dto

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type CreateContentRequest struct {
	Entity   string
	Title    string `json:"title" validate:"required,max=255"`
	Markdown string `json:"markdown"`
}

type CreateContentResponse struct {
	Id uuid.UUID `json:"id"`
}

type UpdateContentRequest struct {
	Id       uuid.UUID
	Entity   string
	Title    string `json:"title" validate:"required,max=255"`
	Markdown string `json:"markdown"`
}

type UpdateContentResponse struct {
	Id uuid.UUID `json:"id"`
}

type ListContentRequest struct {
	Entity string
	Limit  int    `query:"limit" validate:"omitempty,min=1,max=100"`
	Offset int    `query:"offset" validate:"omitempty,min=0"`
	Sort   string `query:"sort" validate:"omitempty,oneof=updated created"`
}

type ShowContentResponse struct {
	Id        uuid.UUID       `json:"id"`
	Entity    string          `json:"entity"`
	Title     string          `json:"title"`
	Markdown  string          `json:"markdown"`
	State     json.RawMessage `json:"state,omitempty"`
	Version   int             `json:"version"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt *time.Time      `json:"updated_at"`
}

type ListContentResponse struct {
	Items []*ShowContentResponse `json:"items"`
	Total int64                  `json:"total"`
}

// ContentChangedMessage is published on every editor commit and consumed by
// the persistence worker.
type ContentChangedMessage struct {
	ContentId uuid.UUID       `json:"content_id"`
	SessionId uuid.UUID       `json:"session_id"`
	Version   int             `json:"version"`
	Markdown  string          `json:"markdown"`
	State     json.RawMessage `json:"state,omitempty"`
}
