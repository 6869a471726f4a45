package editor

import (
	"slices"

	"content-editor-be/pkg/lexical"
)

// HistoryEntry is a committed snapshot. Trees are never mutated after commit,
// so entries share them with the editor state.
type HistoryEntry struct {
	Tree      *lexical.Tree
	Selection lexical.Selection
}

// HistoryState is what a toolbar needs to know about history.
type HistoryState struct {
	CanUndo bool `json:"canUndo"`
	CanRedo bool `json:"canRedo"`
}

// History keeps unbounded undo and redo stacks of whole-document snapshots.
type History struct {
	undo []HistoryEntry
	redo []HistoryEntry

	listeners []listenerEntry[func(canUndo, canRedo bool)]
	nextID    int
}

// RegisterHistory attaches a history to e: UNDO and REDO handlers, a commit
// hook that records entries, and an update listener that broadcasts the
// stack state after each commit.
func RegisterHistory(e *Editor) (*History, func()) {
	h := &History{}
	unregister := mergeRegister(
		e.RegisterCommand(CommandUndo, PriorityEditor, h.step(&h.undo, TagUndo)),
		e.RegisterCommand(CommandRedo, PriorityEditor, h.step(&h.redo, TagRedo)),
		e.RegisterCommitHook(h.record),
		e.RegisterUpdateListener(func(Document, lexical.Selection) { h.broadcast() }),
	)
	return h, unregister
}

// step restores the top of stack. The stack itself is popped by record once
// the restoring transaction commits.
func (h *History) step(stack *[]HistoryEntry, tag string) Handler {
	return func(tx *Txn, _ any) (bool, error) {
		if len(*stack) == 0 {
			return false, nil
		}
		entry := (*stack)[len(*stack)-1]
		tx.restore(entry.Tree, entry.Selection)
		tx.Tag(tag)
		return true, nil
	}
}

// record pushes the pre-commit state for every commit not tagged
// TagSkipHistory, even one that leaves the tree unchanged.
func (h *History) record(prev, _ State, tags Tags) {
	entry := HistoryEntry{Tree: prev.Tree, Selection: prev.Selection}
	switch {
	case tags[TagUndo]:
		h.undo = h.undo[:len(h.undo)-1]
		h.redo = append(h.redo, entry)
	case tags[TagRedo]:
		h.redo = h.redo[:len(h.redo)-1]
		h.undo = append(h.undo, entry)
	case tags[TagSkipHistory]:
	default:
		h.undo = append(h.undo, entry)
		h.redo = nil
	}
}

func (h *History) CanUndo() bool {
	return len(h.undo) > 0
}

func (h *History) CanRedo() bool {
	return len(h.redo) > 0
}

func (h *History) State() HistoryState {
	return HistoryState{CanUndo: h.CanUndo(), CanRedo: h.CanRedo()}
}

// Clear drops both stacks and notifies listeners.
func (h *History) Clear() {
	h.undo, h.redo = nil, nil
	h.broadcast()
}

// OnChange registers fn to receive the stack state after every commit.
func (h *History) OnChange(fn func(canUndo, canRedo bool)) func() {
	h.nextID++
	id := h.nextID
	h.listeners = append(h.listeners, listenerEntry[func(bool, bool)]{id: id, fn: fn})
	return func() {
		h.listeners = slices.DeleteFunc(h.listeners, func(l listenerEntry[func(bool, bool)]) bool { return l.id == id })
	}
}

func (h *History) broadcast() {
	canUndo, canRedo := h.CanUndo(), h.CanRedo()
	for _, l := range slices.Clone(h.listeners) {
		l.fn(canUndo, canRedo)
	}
}
