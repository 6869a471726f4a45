package lexical

import "errors"

// Tree errors
var (
	// ErrNodeNotFound indicates that a key does not resolve to a node in the tree.
	ErrNodeNotFound = errors.New("node not found")

	// ErrSchemaViolation indicates that a child kind is not allowed under its parent.
	ErrSchemaViolation = errors.New("child kind not allowed under parent")

	// ErrCycle indicates that an insert would make a node its own ancestor.
	ErrCycle = errors.New("insert would create a cycle")

	// ErrAttached indicates that a node must be detached before it is inserted.
	ErrAttached = errors.New("node is already attached")

	// ErrNotLeaf indicates a text operation on an element node.
	ErrNotLeaf = errors.New("node is not a leaf")

	// ErrInvalidHeadingLevel indicates a heading level outside 1..6.
	ErrInvalidHeadingLevel = errors.New("heading level must be between 1 and 6")

	// ErrRootImmutable indicates an attempt to detach, remove or retype the root.
	ErrRootImmutable = errors.New("root cannot be moved or removed")
)

// Selection errors
var (
	// ErrInvalidPoint indicates a selection point that does not address a live node or offset.
	ErrInvalidPoint = errors.New("selection point out of bounds")
)

// State errors
var (
	// ErrInvalidState indicates serialized editor state that cannot be decoded.
	ErrInvalidState = errors.New("invalid editor state")
)
