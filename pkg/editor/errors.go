package editor

import "errors"

var (
	// ErrReentrantUpdate indicates an update or dispatch started while another was running.
	ErrReentrantUpdate = errors.New("editor update already in progress")

	// ErrInvariantViolation indicates a transaction left the tree or selection invalid.
	ErrInvariantViolation = errors.New("transaction violates document invariants")

	// ErrHandlerPanic indicates a handler, hook or listener panicked.
	ErrHandlerPanic = errors.New("editor callback panicked")

	// ErrInvalidPayload indicates a command payload of the wrong type or value.
	ErrInvalidPayload = errors.New("invalid command payload")

	// ErrUnknownCommand indicates a command name no transport mapping knows.
	ErrUnknownCommand = errors.New("unknown command")
)
