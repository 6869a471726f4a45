package editor

import (
	"fmt"
	"slices"
	"strings"

	"content-editor-be/pkg/lexical"
)

// RegisterRichText installs the built-in text, block, list and link handlers
// at PriorityEditor and returns a function that removes them all.
func RegisterRichText(e *Editor) func() {
	return mergeRegister(
		e.RegisterCommand(CommandFormatText, PriorityEditor, formatText),
		e.RegisterCommand(CommandFormatBlock, PriorityEditor, formatBlock),
		e.RegisterCommand(CommandInsertList, PriorityEditor, insertList),
		e.RegisterCommand(CommandRemoveList, PriorityEditor, removeList),
		e.RegisterCommand(CommandInsertText, PriorityEditor, insertText),
		e.RegisterCommand(CommandInsertParagraph, PriorityEditor, insertParagraph),
		e.RegisterCommand(CommandDeleteCharacter, PriorityEditor, deleteCharacter),
		e.RegisterCommand(CommandSelectionChange, PriorityEditor, selectionChange),
		e.RegisterCommand(CommandSelectAll, PriorityEditor, selectAll),
		e.RegisterCommand(CommandToggleLink, PriorityEditor, toggleLink),
	)
}

func formatText(tx *Txn, payload any) (bool, error) {
	mark, ok := payload.(lexical.Format)
	if !ok || mark&lexical.Marks != mark || mark == 0 {
		return false, fmt.Errorf("%w: format %v", ErrInvalidPayload, payload)
	}

	if tx.sel.IsCollapsed() {
		tx.sel.Format = tx.sel.Format.Toggle(mark)
		tx.Tag(TagSkipHistory)
		return true, nil
	}

	if err := tx.splitAtSelection(); err != nil {
		return false, err
	}
	var texts []*lexical.Node
	for _, r := range tx.tree.Covered(tx.sel) {
		if r.Node.Kind == lexical.KindText {
			texts = append(texts, r.Node)
		}
	}
	if len(texts) == 0 {
		return false, nil
	}

	allHave := true
	for _, n := range texts {
		if !n.Format.Has(mark) {
			allHave = false
			break
		}
	}
	for _, n := range texts {
		format := n.Format | mark
		if allHave {
			format = n.Format &^ mark
		}
		if err := tx.SetFormat(n.Key, format); err != nil {
			return false, err
		}
	}
	tx.sel.Format = texts[0].Format
	return true, nil
}

// splitAtSelection splits the leaves under both endpoints so every covered leaf is covered whole.
func (tx *Txn) splitAtSelection() error {
	_, end := tx.tree.Ordered(tx.sel)
	if n := tx.tree.Node(end.Key); n != nil && n.Kind.IsLeaf() {
		if _, err := tx.SplitText(end.Key, end.Offset); err != nil {
			return err
		}
	}
	start, _ := tx.tree.Ordered(tx.sel)
	if n := tx.tree.Node(start.Key); n != nil && n.Kind.IsLeaf() {
		if _, err := tx.SplitText(start.Key, start.Offset); err != nil {
			return err
		}
	}
	return nil
}

// selectedTopLevel returns the inclusive range of root children the selection touches.
func (tx *Txn) selectedTopLevel() (first, last int, err error) {
	start, end := tx.tree.Ordered(tx.sel)
	if first, err = tx.topIndex(start); err != nil {
		return 0, 0, err
	}
	if last, err = tx.topIndex(end); err != nil {
		return 0, 0, err
	}
	if first > last {
		first, last = last, first
	}
	return first, last, nil
}

func (tx *Txn) topIndex(p lexical.Point) (int, error) {
	p = tx.tree.Descend(p)
	if p.Key == lexical.RootKey {
		return max(0, min(p.Offset, len(tx.tree.Root().Children)-1)), nil
	}
	top, err := tx.tree.TopLevelBlock(p.Key)
	if err != nil {
		return 0, err
	}
	return tx.tree.IndexOf(top.Key), nil
}

func formatBlock(tx *Txn, payload any) (bool, error) {
	var block BlockType
	switch v := payload.(type) {
	case BlockType:
		block = v
	case string:
		block = BlockType(v)
	default:
		return false, fmt.Errorf("%w: block %v", ErrInvalidPayload, payload)
	}
	proto, ok := block.proto()
	if !ok {
		return false, nil
	}

	first, last, err := tx.selectedTopLevel()
	if err != nil {
		return false, err
	}
	keys := slices.Clone(tx.tree.Root().Children[first : last+1])
	for _, key := range keys {
		n := tx.tree.Node(key)
		switch n.Kind {
		case lexical.KindParagraph, lexical.KindHeading, lexical.KindQuote:
			if err := tx.Retype(key, proto); err != nil {
				return false, err
			}
		case lexical.KindList:
			from, to := tx.selectedItems(n)
			if err := tx.convertItems(key, from, to, proto); err != nil {
				return false, err
			}
		}
	}
	return true, nil
}

func insertText(tx *Txn, payload any) (bool, error) {
	text, ok := payload.(string)
	if !ok {
		return false, fmt.Errorf("%w: text %v", ErrInvalidPayload, payload)
	}
	if text == "" && tx.sel.IsCollapsed() {
		return false, nil
	}
	if !tx.sel.IsCollapsed() {
		if err := tx.deleteRange(); err != nil {
			return false, err
		}
	}
	text = strings.ReplaceAll(text, "\r\n", "\n")
	for i, line := range strings.Split(text, "\n") {
		if i > 0 {
			if err := tx.splitBlock(); err != nil {
				return false, err
			}
		}
		if line == "" {
			continue
		}
		if err := tx.insertAtCaret(line); err != nil {
			return false, err
		}
	}
	return true, nil
}

// insertAtCaret types s at the collapsed caret using the pending format.
func (tx *Txn) insertAtCaret(s string) error {
	format := tx.sel.Format
	p := tx.tree.Descend(tx.sel.Anchor)
	n := tx.tree.Node(p.Key)
	size := len([]rune(s))

	caret := func(key lexical.NodeKey, offset int) {
		pt := lexical.Point{Key: key, Offset: offset}
		tx.sel = lexical.Selection{Anchor: pt, Focus: pt, Format: format}
	}

	switch {
	case n.Kind == lexical.KindCode || (n.Kind == lexical.KindText && n.Format == format):
		runes := []rune(n.Text)
		if err := tx.SetText(n.Key, string(runes[:p.Offset])+s+string(runes[p.Offset:])); err != nil {
			return err
		}
		caret(n.Key, p.Offset+size)
		return nil

	case n.Kind == lexical.KindText:
		leaf := tx.Create(lexical.Text(s, format))
		if p.Offset == 0 {
			if err := tx.InsertChild(n.Parent, tx.tree.IndexOf(n.Key), leaf.Key); err != nil {
				return err
			}
		} else {
			if _, err := tx.SplitText(n.Key, p.Offset); err != nil {
				return err
			}
			if err := tx.InsertAfter(n.Key, leaf.Key); err != nil {
				return err
			}
		}
		caret(leaf.Key, size)
		return nil

	case n.Kind == lexical.KindRoot:
		para := tx.Create(lexical.Paragraph())
		if err := tx.InsertChild(lexical.RootKey, min(p.Offset, len(n.Children)), para.Key); err != nil {
			return err
		}
		n, p = para, lexical.Point{Key: para.Key}
	}

	if !lexical.Allows(n.Kind, lexical.KindText) {
		return fmt.Errorf("%w: cannot type into %s", lexical.ErrSchemaViolation, n.Kind)
	}
	leaf := tx.Create(lexical.Text(s, format))
	if err := tx.InsertChild(n.Key, min(p.Offset, len(n.Children)), leaf.Key); err != nil {
		return err
	}
	caret(leaf.Key, size)
	return nil
}

func insertParagraph(tx *Txn, _ any) (bool, error) {
	if !tx.sel.IsCollapsed() {
		if err := tx.deleteRange(); err != nil {
			return false, err
		}
	}
	if err := tx.splitBlock(); err != nil {
		return false, err
	}
	return true, nil
}

// splitBlock breaks the caret's block in two and moves the caret to the start
// of the second half. A heading split at its end, or any quote, continues as
// a paragraph; list items continue as list items.
func (tx *Txn) splitBlock() error {
	format := tx.sel.Format
	p := tx.tree.Descend(tx.sel.Anchor)
	block, ok := tx.tree.BlockOf(p.Key)
	if !ok {
		para := tx.Create(lexical.Paragraph())
		if err := tx.InsertChild(lexical.RootKey, min(p.Offset, len(tx.tree.Root().Children)), para.Key); err != nil {
			return err
		}
		tx.sel = lexical.Selection{Anchor: lexical.Point{Key: para.Key}, Focus: lexical.Point{Key: para.Key}, Format: format}
		return nil
	}

	at, err := tx.childIndexAt(block, p)
	if err != nil {
		return err
	}

	proto := lexical.Paragraph()
	switch block.Kind {
	case lexical.KindListItem:
		proto = lexical.ListItem()
	case lexical.KindHeading:
		if at < len(block.Children) {
			proto = lexical.Heading(block.Level)
		}
	}

	next := tx.Create(proto)
	if err := tx.InsertAfter(block.Key, next.Key); err != nil {
		return err
	}
	if err := tx.MoveChildren(block.Key, at, next.Key, 0); err != nil {
		return err
	}
	pt := tx.tree.Descend(lexical.Point{Key: next.Key})
	tx.sel = lexical.Selection{Anchor: pt, Focus: pt, Format: format}
	return nil
}

// childIndexAt returns the index among block's children where p falls,
// splitting a text leaf when p is inside one. A point inside a link keeps the
// link whole.
func (tx *Txn) childIndexAt(block *lexical.Node, p lexical.Point) (int, error) {
	if p.Key == block.Key {
		return p.Offset, nil
	}
	child := tx.tree.Node(p.Key)
	for child.Parent != block.Key {
		child = tx.tree.Node(child.Parent)
	}
	idx := tx.tree.IndexOf(child.Key)

	if child.Key != p.Key {
		first := tx.tree.Descend(lexical.Point{Key: child.Key})
		if first == p {
			return idx, nil
		}
		return idx + 1, nil
	}
	switch {
	case p.Offset == 0:
		return idx, nil
	case p.Offset >= child.Size():
		return idx + 1, nil
	}
	if _, err := tx.SplitText(child.Key, p.Offset); err != nil {
		return 0, err
	}
	return idx + 1, nil
}

// deleteRange removes the selected content and collapses the caret at its start.
func (tx *Txn) deleteRange() error {
	start, end := tx.tree.Ordered(tx.sel)
	tx.sel.Anchor, tx.sel.Focus = tx.tree.Descend(start), tx.tree.Descend(end)
	if err := tx.splitAtSelection(); err != nil {
		return err
	}
	start, end = tx.sel.Anchor, tx.sel.Focus

	startBlock, ok := tx.tree.BlockOf(start.Key)
	if !ok {
		return fmt.Errorf("%w: selection start outside a block", ErrInvariantViolation)
	}
	endBlock, ok := tx.tree.BlockOf(end.Key)
	if !ok {
		return fmt.Errorf("%w: selection end outside a block", ErrInvariantViolation)
	}

	l := tx.tree.Linearize()
	from, to := l.Position(start), l.Position(end)
	var doomed []lexical.NodeKey
	for _, leaf := range tx.tree.Leaves() {
		s, e, _ := l.Span(leaf.Key)
		if s >= from && e <= to && e > s {
			doomed = append(doomed, leaf.Key)
		}
	}

	caret := start
	if n := tx.tree.Node(start.Key); n.Kind.IsLeaf() && start.Offset == 0 && slices.Contains(doomed, n.Key) {
		caret = lexical.Point{Key: n.Parent, Offset: tx.tree.IndexOf(n.Key)}
	}
	tx.sel = lexical.Selection{Anchor: caret, Focus: caret, Format: tx.sel.Format}

	for _, key := range doomed {
		if err := tx.Remove(key); err != nil {
			return err
		}
	}

	if startBlock.Key == endBlock.Key {
		return nil
	}

	blocks := tx.tree.Blocks()
	si := slices.IndexFunc(blocks, func(n *lexical.Node) bool { return n.Key == startBlock.Key })
	ei := slices.IndexFunc(blocks, func(n *lexical.Node) bool { return n.Key == endBlock.Key })
	for _, b := range blocks[si+1 : max(si+1, ei)] {
		if !tx.tree.Has(b.Key) || tx.tree.IsAncestor(b.Key, endBlock.Key) {
			continue
		}
		if err := tx.Remove(b.Key); err != nil {
			return err
		}
	}
	return tx.mergeInto(startBlock.Key, endBlock.Key)
}

// mergeInto moves the inline children of src to the end of dst and removes
// src when nothing else is left in it.
func (tx *Txn) mergeInto(dst, src lexical.NodeKey) error {
	for _, c := range slices.Clone(tx.tree.Node(src).Children) {
		if !tx.tree.Node(c).Kind.IsInline() {
			continue
		}
		if err := tx.Detach(c); err != nil {
			return err
		}
		if err := tx.AppendChild(dst, c); err != nil {
			return err
		}
	}
	if len(tx.tree.Node(src).Children) == 0 {
		return tx.Remove(src)
	}
	return nil
}

func deleteCharacter(tx *Txn, _ any) (bool, error) {
	if !tx.sel.IsCollapsed() {
		if err := tx.deleteRange(); err != nil {
			return false, err
		}
		return true, nil
	}

	p := tx.tree.Descend(tx.sel.Anchor)
	block, ok := tx.tree.BlockOf(p.Key)
	if !ok {
		return false, nil
	}

	leaf, offset := tx.tree.Node(p.Key), p.Offset
	if !leaf.Kind.IsLeaf() || offset == 0 {
		leaf = tx.previousLeaf(block, p)
		if leaf != nil {
			offset = leaf.Size()
		}
	}
	if leaf != nil && offset > 0 {
		runes := []rune(leaf.Text)
		if err := tx.SetText(leaf.Key, string(runes[:offset-1])+string(runes[offset:])); err != nil {
			return false, err
		}
		pt := lexical.Point{Key: leaf.Key, Offset: offset - 1}
		tx.sel = lexical.Selection{Anchor: pt, Focus: pt, Format: tx.sel.Format}
		return true, nil
	}
	return tx.mergeBackward(block)
}

// previousLeaf returns the last non-empty leaf of block that ends at or before p.
func (tx *Txn) previousLeaf(block *lexical.Node, p lexical.Point) *lexical.Node {
	l := tx.tree.Linearize()
	pos := l.Position(p)
	var prev *lexical.Node
	for _, leaf := range tx.tree.Leaves() {
		b, ok := tx.tree.BlockOf(leaf.Key)
		if !ok || b.Key != block.Key {
			continue
		}
		if s, e, _ := l.Span(leaf.Key); e <= pos && e > s {
			prev = leaf
		}
	}
	return prev
}

// mergeBackward handles a backspace at the start of block.
func (tx *Txn) mergeBackward(block *lexical.Node) (bool, error) {
	blocks := tx.tree.Blocks()
	i := slices.IndexFunc(blocks, func(n *lexical.Node) bool { return n.Key == block.Key })
	var prev *lexical.Node
	for j := i - 1; j >= 0; j-- {
		if !tx.tree.IsAncestor(blocks[j].Key, block.Key) {
			prev = blocks[j]
			break
		}
	}

	// A top-level list item turns into a paragraph instead of merging.
	if block.Kind == lexical.KindListItem {
		if list := tx.tree.Node(block.Parent); list.Parent == lexical.RootKey {
			idx := tx.tree.IndexOf(block.Key)
			return true, tx.convertItems(list.Key, idx, idx+1, lexical.Paragraph())
		}
	}
	if prev == nil {
		if block.Kind == lexical.KindHeading || block.Kind == lexical.KindQuote {
			return true, tx.Retype(block.Key, lexical.Paragraph())
		}
		return false, nil
	}

	caret := lexical.Point{Key: prev.Key, Offset: len(prev.Children)}
	tx.sel = lexical.Selection{Anchor: caret, Focus: caret, Format: tx.sel.Format}
	if err := tx.mergeInto(prev.Key, block.Key); err != nil {
		return false, err
	}
	return true, nil
}

func selectionChange(tx *Txn, payload any) (bool, error) {
	sel, ok := payload.(lexical.Selection)
	if !ok {
		return false, fmt.Errorf("%w: selection %v", ErrInvalidPayload, payload)
	}
	if err := tx.tree.CheckSelection(sel); err != nil {
		return false, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	tx.sel = tx.withDerivedFormat(sel)
	tx.Tag(TagSkipHistory)
	return true, nil
}

func selectAll(tx *Txn, _ any) (bool, error) {
	tx.sel = tx.withDerivedFormat(tx.tree.SelectAll())
	tx.Tag(TagSkipHistory)
	return true, nil
}

// withDerivedFormat sets the pending format from the text the selection starts in.
func (tx *Txn) withDerivedFormat(sel lexical.Selection) lexical.Selection {
	sel.Format = 0
	if !sel.IsCollapsed() {
		if covered := tx.tree.Covered(sel); len(covered) > 0 {
			sel.Format = covered[0].Node.Format
		}
		return sel
	}
	if n := tx.tree.Node(tx.tree.Descend(sel.Anchor).Key); n != nil && n.Kind == lexical.KindText {
		sel.Format = n.Format
	}
	return sel
}
