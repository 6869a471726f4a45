package service

import "github.com/gofiber/fiber/v2"

// Service errors carry their HTTP status so the error middleware can render them.
var (
	ErrUnknownEntity   = fiber.NewError(fiber.StatusNotFound, "entity has no rich-text field")
	ErrContentNotFound = fiber.NewError(fiber.StatusNotFound, "content not found")
	ErrSessionNotFound = fiber.NewError(fiber.StatusNotFound, "editor session not found")
	ErrSessionClosed   = fiber.NewError(fiber.StatusGone, "editor session closed")
)
