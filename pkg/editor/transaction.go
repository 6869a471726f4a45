package editor

import (
	"fmt"
	"slices"

	"content-editor-be/pkg/lexical"
)

// Tags that change how a commit is recorded.
const (
	TagSkipHistory = "skip-history"
	TagUndo        = "history-undo"
	TagRedo        = "history-redo"
	TagInitial     = "initial"
)

// Tags is the set of tags attached to a transaction.
type Tags map[string]bool

// Txn is a working copy of the editor state. Handlers mutate it through its
// methods, which keep the selection pointing at the same logical positions.
// Nothing a Txn does is visible until the editor commits it.
type Txn struct {
	prev    *lexical.Tree
	tree    *lexical.Tree
	sel     lexical.Selection
	tags    Tags
	removed map[lexical.NodeKey]lexical.NodeKey

	restored bool
}

func newTxn(state State) *Txn {
	return &Txn{
		prev:    state.Tree,
		tree:    state.Tree.Clone(),
		sel:     state.Selection,
		tags:    Tags{},
		removed: map[lexical.NodeKey]lexical.NodeKey{},
	}
}

// Tree gives read access to the working tree. Mutate it only through Txn methods.
func (tx *Txn) Tree() *lexical.Tree {
	return tx.tree
}

func (tx *Txn) Selection() lexical.Selection {
	return tx.sel
}

func (tx *Txn) SetSelection(sel lexical.Selection) {
	tx.sel = sel
}

// Tag attaches tag to the transaction.
func (tx *Txn) Tag(tag string) {
	tx.tags[tag] = true
}

func (tx *Txn) HasTag(tag string) bool {
	return tx.tags[tag]
}

// restore replaces the working state with a copy of a committed snapshot.
func (tx *Txn) restore(tree *lexical.Tree, sel lexical.Selection) {
	tx.tree = tree.Clone()
	tx.sel = sel
	tx.restored = true
}

// collapse places a caret at p. On a text leaf the pending format follows the leaf.
func (tx *Txn) collapse(p lexical.Point) {
	format := tx.sel.Format
	if n := tx.tree.Node(p.Key); n != nil && n.Kind == lexical.KindText {
		format = n.Format
	}
	tx.sel = lexical.Selection{Anchor: p, Focus: p, Format: format}
}

func (tx *Txn) mapPoints(fn func(p lexical.Point) lexical.Point) {
	tx.sel.Anchor = fn(tx.sel.Anchor)
	tx.sel.Focus = fn(tx.sel.Focus)
}

// shiftElementPoints moves child-index points on parent at or after from by delta.
func (tx *Txn) shiftElementPoints(parent lexical.NodeKey, from, delta int) {
	tx.mapPoints(func(p lexical.Point) lexical.Point {
		if p.Key == parent && p.Offset >= from {
			p.Offset += delta
		}
		return p
	})
}

// Create allocates a detached node in the working tree.
func (tx *Txn) Create(proto lexical.Node) *lexical.Node {
	return tx.tree.Create(proto)
}

// InsertChild attaches child under parent at index.
func (tx *Txn) InsertChild(parent lexical.NodeKey, index int, child lexical.NodeKey) error {
	if err := tx.tree.InsertChild(parent, index, child); err != nil {
		return err
	}
	tx.shiftElementPoints(parent, index+1, 1)
	return nil
}

func (tx *Txn) AppendChild(parent, child lexical.NodeKey) error {
	p := tx.tree.Node(parent)
	if p == nil {
		return fmt.Errorf("%w: %d", lexical.ErrNodeNotFound, parent)
	}
	return tx.InsertChild(parent, len(p.Children), child)
}

// InsertAfter attaches child as the next sibling of sibling.
func (tx *Txn) InsertAfter(sibling, child lexical.NodeKey) error {
	s := tx.tree.Node(sibling)
	if s == nil || s.Parent == 0 {
		return fmt.Errorf("%w: %d has no parent", lexical.ErrNodeNotFound, sibling)
	}
	return tx.InsertChild(s.Parent, tx.tree.IndexOf(sibling)+1, child)
}

// Detach unlinks key from its parent, keeping the node for reinsertion.
func (tx *Txn) Detach(key lexical.NodeKey) error {
	n := tx.tree.Node(key)
	if n == nil {
		return fmt.Errorf("%w: %d", lexical.ErrNodeNotFound, key)
	}
	parent, idx := n.Parent, tx.tree.IndexOf(key)
	if err := tx.tree.Detach(key); err != nil {
		return err
	}
	if parent != 0 {
		tx.removed[key] = parent
		tx.shiftElementPoints(parent, idx+1, -1)
	}
	return nil
}

// Remove deletes key and its subtree. Selection endpoints inside it are
// repaired at commit.
func (tx *Txn) Remove(key lexical.NodeKey) error {
	if key == lexical.RootKey {
		return lexical.ErrRootImmutable
	}
	tx.recordParents(key)
	if err := tx.Detach(key); err != nil {
		return err
	}
	return tx.tree.Remove(key)
}

func (tx *Txn) recordParents(key lexical.NodeKey) {
	n := tx.tree.Node(key)
	if n == nil {
		return
	}
	for _, c := range n.Children {
		tx.removed[c] = key
		tx.recordParents(c)
	}
}

// MoveChildren moves the children of from, starting at fromIndex, under to at
// toIndex. Child-index points on from follow the moved nodes.
func (tx *Txn) MoveChildren(from lexical.NodeKey, fromIndex int, to lexical.NodeKey, toIndex int) error {
	src := tx.tree.Node(from)
	if src == nil {
		return fmt.Errorf("%w: %d", lexical.ErrNodeNotFound, from)
	}
	moving := slices.Clone(src.Children[fromIndex:])
	for i, c := range moving {
		if err := tx.tree.Detach(c); err != nil {
			return err
		}
		if err := tx.tree.InsertChild(to, toIndex+i, c); err != nil {
			return err
		}
	}
	tx.shiftElementPoints(to, toIndex+1, len(moving))
	tx.mapPoints(func(p lexical.Point) lexical.Point {
		if p.Key == from && p.Offset >= fromIndex {
			return lexical.Point{Key: to, Offset: toIndex + p.Offset - fromIndex}
		}
		return p
	})
	return nil
}

// Retype changes an element's kind in place.
func (tx *Txn) Retype(key lexical.NodeKey, proto lexical.Node) error {
	return tx.tree.Retype(key, proto)
}

func (tx *Txn) SetText(key lexical.NodeKey, text string) error {
	return tx.tree.SetText(key, text)
}

func (tx *Txn) SetFormat(key lexical.NodeKey, format lexical.Format) error {
	return tx.tree.SetFormat(key, format)
}

func (tx *Txn) SetURL(key lexical.NodeKey, url string) error {
	return tx.tree.SetURL(key, url)
}

// SplitText cuts a leaf at a rune offset and returns the key of the right
// half, or 0 when offset is at either end and nothing was split.
func (tx *Txn) SplitText(key lexical.NodeKey, offset int) (lexical.NodeKey, error) {
	n := tx.tree.Node(key)
	if n == nil {
		return 0, fmt.Errorf("%w: %d", lexical.ErrNodeNotFound, key)
	}
	if !n.Kind.IsLeaf() {
		return 0, fmt.Errorf("%w: %d", lexical.ErrNotLeaf, key)
	}
	if offset <= 0 || offset >= n.Size() {
		return 0, nil
	}
	runes := []rune(n.Text)
	proto := lexical.Text(string(runes[offset:]), n.Format)
	if n.Kind == lexical.KindCode {
		proto = lexical.Code(string(runes[offset:]))
	}
	right := tx.tree.Create(proto)
	if err := tx.tree.SetText(key, string(runes[:offset])); err != nil {
		return 0, err
	}
	if err := tx.InsertAfter(key, right.Key); err != nil {
		return 0, err
	}
	tx.mapPoints(func(p lexical.Point) lexical.Point {
		if p.Key == key && p.Offset > offset {
			return lexical.Point{Key: right.Key, Offset: p.Offset - offset}
		}
		return p
	})
	return right.Key, nil
}

// normalize merges adjacent text leaves of equal format and drops empty
// leaves, links and lists. A root left without blocks gets an empty paragraph.
func (tx *Txn) normalize() error {
	if err := tx.normalizeElement(lexical.RootKey); err != nil {
		return err
	}

	root := tx.tree.Root()
	if len(root.Children) == 0 {
		p := tx.tree.Create(lexical.Paragraph())
		if err := tx.tree.AppendChild(lexical.RootKey, p.Key); err != nil {
			return err
		}
		tx.mapPoints(func(pt lexical.Point) lexical.Point {
			if pt.Key == lexical.RootKey {
				return lexical.Point{Key: p.Key}
			}
			return pt
		})
	}
	return nil
}

func (tx *Txn) normalizeElement(key lexical.NodeKey) error {
	n := tx.tree.Node(key)
	for _, c := range slices.Clone(n.Children) {
		if child := tx.tree.Node(c); child != nil && !child.Kind.IsLeaf() {
			if err := tx.normalizeElement(c); err != nil {
				return err
			}
		}
	}

	for i := 0; i < len(n.Children); {
		c := tx.tree.Node(n.Children[i])
		empty := (c.Kind.IsLeaf() && c.Text == "") ||
			((c.Kind == lexical.KindLink || c.Kind == lexical.KindList) && len(c.Children) == 0)
		if empty {
			if err := tx.dropChild(key, i); err != nil {
				return err
			}
			continue
		}
		if i > 0 && c.Kind == lexical.KindText {
			prev := tx.tree.Node(n.Children[i-1])
			if prev.Kind == lexical.KindText && prev.Format == c.Format {
				if err := tx.mergeText(key, i); err != nil {
					return err
				}
				continue
			}
		}
		i++
	}
	return nil
}

// dropChild removes the child at index i of parent. Points on it land on the gap it leaves.
func (tx *Txn) dropChild(parent lexical.NodeKey, i int) error {
	n := tx.tree.Node(parent)
	key := n.Children[i]
	tx.mapPoints(func(p lexical.Point) lexical.Point {
		if p.Key == key {
			return lexical.Point{Key: parent, Offset: i}
		}
		return p
	})
	return tx.Remove(key)
}

// mergeText appends the text leaf at index i of parent to its left sibling.
func (tx *Txn) mergeText(parent lexical.NodeKey, i int) error {
	n := tx.tree.Node(parent)
	left, right := tx.tree.Node(n.Children[i-1]), tx.tree.Node(n.Children[i])
	leftLen := left.Size()
	left.Text += right.Text
	tx.mapPoints(func(p lexical.Point) lexical.Point {
		switch {
		case p.Key == right.Key:
			return lexical.Point{Key: left.Key, Offset: leftLen + p.Offset}
		case p.Key == parent && p.Offset == i:
			return lexical.Point{Key: left.Key, Offset: leftLen}
		}
		return p
	})
	return tx.Remove(right.Key)
}

// parentOf answers the last known parent of a key: the working tree, then
// removals recorded in this transaction, then the committed tree.
func (tx *Txn) parentOf(key lexical.NodeKey) (lexical.NodeKey, bool) {
	if n := tx.tree.Node(key); n != nil && n.Parent != 0 {
		return n.Parent, true
	}
	if p, ok := tx.removed[key]; ok {
		return p, true
	}
	if n := tx.prev.Node(key); n != nil && n.Parent != 0 {
		return n.Parent, true
	}
	return 0, false
}

// finish prepares the working state for commit and checks every invariant.
func (tx *Txn) finish() error {
	if !tx.restored {
		if err := tx.normalize(); err != nil {
			return fmt.Errorf("%w: normalize: %v", ErrInvariantViolation, err)
		}
	}
	tx.sel = tx.tree.Repair(tx.sel, tx.parentOf)
	tx.tree.Collect()
	if err := tx.tree.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvariantViolation, err)
	}
	if err := tx.tree.CheckSelection(tx.sel); err != nil {
		return fmt.Errorf("%w: %v", ErrInvariantViolation, err)
	}
	return nil
}
