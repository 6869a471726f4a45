// Package editor is the transaction engine of the rich-text editor: commands
// are dispatched to prioritized handlers, each handler works on a private copy
// of the document, and only a handler that reports success gets its copy
// committed and broadcast to update listeners.
//
// An Editor is not safe for concurrent use; hosts serialize access to it.
package editor

import (
	"fmt"
	"slices"

	"content-editor-be/pkg/lexical"
)

// Priority orders handlers for one command. Higher priorities run first.
type Priority int

const (
	PriorityEditor Priority = iota
	PriorityLow
	PriorityNormal
	PriorityHigh
	PriorityCritical
)

// Handler runs a command inside a transaction. It reports whether it handled
// the command; an error rejects the transaction and stops dispatch.
type Handler func(tx *Txn, payload any) (bool, error)

// Document is a committed tree together with its version counter.
type Document struct {
	Tree    *lexical.Tree
	Version int
}

// State is everything a commit publishes.
type State struct {
	Tree      *lexical.Tree
	Selection lexical.Selection
	Version   int
}

func (s State) Document() Document {
	return Document{Tree: s.Tree, Version: s.Version}
}

// UpdateListener observes every committed transaction.
type UpdateListener func(doc Document, sel lexical.Selection)

// CommitHook runs after a transaction is accepted and before update listeners
// are told about it.
type CommitHook func(prev, next State, tags Tags)

type registration struct {
	id       int
	priority Priority
	handler  Handler
}

type listenerEntry[T any] struct {
	id int
	fn T
}

type Editor struct {
	state State

	handlers  map[CommandType][]registration
	listeners []listenerEntry[UpdateListener]
	hooks     []listenerEntry[CommitHook]
	onError   func(error)

	nextID   int
	updating bool
}

type Option func(*Editor)

// WithInitialTree starts the editor from t instead of an empty document. The
// caret is placed at the end of the document.
func WithInitialTree(t *lexical.Tree) Option {
	return func(e *Editor) {
		if err := t.Validate(); err != nil {
			e.reportError(fmt.Errorf("%w: initial tree: %v", ErrInvariantViolation, err))
			return
		}
		sel := lexical.Caret(t.End())
		if n := t.Node(sel.Anchor.Key); n != nil && n.Kind == lexical.KindText {
			sel.Format = n.Format
		}
		e.state = State{Tree: t, Selection: sel}
	}
}

// WithErrorHandler receives errors from rejected transactions and recovered panics.
func WithErrorHandler(fn func(error)) Option {
	return func(e *Editor) {
		e.onError = fn
	}
}

// New returns an editor with no command handlers registered.
func New(opts ...Option) *Editor {
	doc := lexical.NewDocument()
	e := &Editor{
		state:    State{Tree: doc, Selection: lexical.Caret(doc.Start())},
		handlers: map[CommandType][]registration{},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// State returns the committed state.
func (e *Editor) State() State {
	return e.state
}

func (e *Editor) Version() int {
	return e.state.Version
}

// RegisterCommand adds a handler and returns a function that removes it.
func (e *Editor) RegisterCommand(typ CommandType, priority Priority, h Handler) func() {
	e.nextID++
	id := e.nextID
	e.handlers[typ] = append(e.handlers[typ], registration{id: id, priority: priority, handler: h})
	return func() {
		e.handlers[typ] = slices.DeleteFunc(e.handlers[typ], func(r registration) bool { return r.id == id })
	}
}

// RegisterUpdateListener adds a listener and returns a function that removes it.
func (e *Editor) RegisterUpdateListener(fn UpdateListener) func() {
	e.nextID++
	id := e.nextID
	e.listeners = append(e.listeners, listenerEntry[UpdateListener]{id: id, fn: fn})
	return func() {
		e.listeners = slices.DeleteFunc(e.listeners, func(l listenerEntry[UpdateListener]) bool { return l.id == id })
	}
}

// RegisterCommitHook adds a hook and returns a function that removes it.
func (e *Editor) RegisterCommitHook(fn CommitHook) func() {
	e.nextID++
	id := e.nextID
	e.hooks = append(e.hooks, listenerEntry[CommitHook]{id: id, fn: fn})
	return func() {
		e.hooks = slices.DeleteFunc(e.hooks, func(h listenerEntry[CommitHook]) bool { return h.id == id })
	}
}

// handlersFor returns handlers by descending priority, then registration order.
func (e *Editor) handlersFor(typ CommandType) []registration {
	regs := slices.Clone(e.handlers[typ])
	slices.SortStableFunc(regs, func(a, b registration) int {
		return int(b.priority) - int(a.priority)
	})
	return regs
}

// Dispatch offers cmd to its handlers until one handles it. Each attempt runs
// in its own transaction, so a handler that declines leaves no trace.
func (e *Editor) Dispatch(cmd Command) bool {
	if e.updating {
		e.reportError(fmt.Errorf("dispatch %s: %w", cmd.Type, ErrReentrantUpdate))
		return false
	}
	for _, reg := range e.handlersFor(cmd.Type) {
		handled, err := e.transact(nil, func(tx *Txn) (bool, error) {
			return reg.handler(tx, cmd.Payload)
		})
		if err != nil {
			return false
		}
		if handled {
			return true
		}
	}
	return false
}

// Update runs fn in a transaction and commits it unless fn returns an error.
func (e *Editor) Update(fn func(tx *Txn) error, tags ...string) error {
	_, err := e.transact(tags, func(tx *Txn) (bool, error) {
		return true, fn(tx)
	})
	return err
}

// Read runs fn against the committed state.
func (e *Editor) Read(fn func(doc Document, sel lexical.Selection)) {
	fn(e.state.Document(), e.state.Selection)
}

func (e *Editor) transact(tags []string, fn func(tx *Txn) (bool, error)) (bool, error) {
	if e.updating {
		err := ErrReentrantUpdate
		e.reportError(err)
		return false, err
	}

	e.updating = true
	tx := newTxn(e.state)
	for _, tag := range tags {
		tx.Tag(tag)
	}
	handled, err := runHandler(tx, fn)
	if err == nil && handled {
		err = tx.finish()
	}
	if err != nil || !handled {
		e.updating = false
		if err != nil {
			e.reportError(err)
		}
		return false, err
	}

	prev := e.state
	next := State{Tree: tx.tree, Selection: tx.sel, Version: prev.Version + 1}
	for _, h := range slices.Clone(e.hooks) {
		e.guard(func() { h.fn(prev, next, tx.tags) })
	}
	e.state = next
	e.updating = false

	doc := next.Document()
	for _, l := range slices.Clone(e.listeners) {
		e.guard(func() { l.fn(doc, next.Selection) })
	}
	return true, nil
}

func runHandler(tx *Txn, fn func(tx *Txn) (bool, error)) (handled bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			handled, err = false, fmt.Errorf("%w: %v", ErrHandlerPanic, r)
		}
	}()
	return fn(tx)
}

// guard runs fn and routes a panic to the error handler.
func (e *Editor) guard(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			e.reportError(fmt.Errorf("%w: %v", ErrHandlerPanic, r))
		}
	}()
	fn()
}

func (e *Editor) reportError(err error) {
	if e.onError != nil {
		e.onError(err)
	}
}

// mergeRegister combines unregister functions into one.
func mergeRegister(fns ...func()) func() {
	return func() {
		for i := len(fns) - 1; i >= 0; i-- {
			fns[i]()
		}
	}
}
