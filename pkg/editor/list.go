package editor

import (
	"fmt"
	"slices"

	"content-editor-be/pkg/lexical"
)

// insertList turns the selected top-level blocks into one list. When the
// block under the anchor is already a list of the requested kind the lists
// are removed instead, so the command toggles.
func insertList(tx *Txn, payload any) (bool, error) {
	ordered, ok := payload.(bool)
	if !ok {
		return false, fmt.Errorf("%w: ordered %v", ErrInvalidPayload, payload)
	}
	first, last, err := tx.selectedTopLevel()
	if err != nil {
		return false, err
	}
	keys := slices.Clone(tx.tree.Root().Children[first : last+1])

	anchor, err := tx.topIndex(tx.sel.Anchor)
	if err != nil {
		return false, err
	}
	if n := tx.tree.Node(tx.tree.Root().Children[anchor]); n.Kind == lexical.KindList && n.Ordered == ordered {
		return tx.unwrapLists(keys)
	}

	list := tx.Create(lexical.List(ordered))
	if err := tx.InsertChild(lexical.RootKey, first, list.Key); err != nil {
		return false, err
	}
	for _, key := range keys {
		n := tx.tree.Node(key)
		if n.Kind == lexical.KindList {
			if err := tx.MoveChildren(key, 0, list.Key, len(list.Children)); err != nil {
				return false, err
			}
		} else {
			item := tx.Create(lexical.ListItem())
			if err := tx.AppendChild(list.Key, item.Key); err != nil {
				return false, err
			}
			if err := tx.MoveChildren(key, 0, item.Key, 0); err != nil {
				return false, err
			}
		}
		if err := tx.Remove(key); err != nil {
			return false, err
		}
	}
	return true, nil
}

func removeList(tx *Txn, _ any) (bool, error) {
	first, last, err := tx.selectedTopLevel()
	if err != nil {
		return false, err
	}
	return tx.unwrapLists(slices.Clone(tx.tree.Root().Children[first : last+1]))
}

// unwrapLists replaces every list among keys with paragraphs. It reports false when there is none.
func (tx *Txn) unwrapLists(keys []lexical.NodeKey) (bool, error) {
	found := false
	for _, key := range keys {
		if tx.tree.Node(key).Kind != lexical.KindList {
			continue
		}
		found = true
		if err := tx.unwrapList(key, lexical.Paragraph()); err != nil {
			return false, err
		}
	}
	return found, nil
}

// selectedItems returns the half-open range of list's items the selection touches.
func (tx *Txn) selectedItems(list *lexical.Node) (from, to int) {
	start, end := tx.tree.Ordered(tx.sel)
	from, to = 0, len(list.Children)
	if i := tx.itemIndex(list, tx.tree.Descend(start).Key); i >= 0 {
		from = i
	}
	if i := tx.itemIndex(list, tx.tree.Descend(end).Key); i >= 0 {
		to = i + 1
	}
	if to <= from {
		to = from + 1
	}
	return from, to
}

// itemIndex returns the index of the item of list that contains key, or -1.
func (tx *Txn) itemIndex(list *lexical.Node, key lexical.NodeKey) int {
	for n := tx.tree.Node(key); n != nil && n.Parent != 0; n = tx.tree.Node(n.Parent) {
		if n.Parent == list.Key {
			return tx.tree.IndexOf(n.Key)
		}
	}
	return -1
}

// convertItems turns items [from, to) of a list into blocks shaped like proto,
// splitting the list around them.
func (tx *Txn) convertItems(listKey lexical.NodeKey, from, to int, proto lexical.Node) error {
	list := tx.tree.Node(listKey)
	if to < len(list.Children) {
		tail := tx.Create(lexical.List(list.Ordered))
		if err := tx.InsertAfter(listKey, tail.Key); err != nil {
			return err
		}
		if err := tx.MoveChildren(listKey, to, tail.Key, 0); err != nil {
			return err
		}
	}
	target := listKey
	if from > 0 {
		mid := tx.Create(lexical.List(list.Ordered))
		if err := tx.InsertAfter(listKey, mid.Key); err != nil {
			return err
		}
		if err := tx.MoveChildren(listKey, from, mid.Key, 0); err != nil {
			return err
		}
		target = mid.Key
	}
	return tx.unwrapList(target, proto)
}

// unwrapList replaces a list, nested lists included, with one block per item.
func (tx *Txn) unwrapList(listKey lexical.NodeKey, proto lexical.Node) error {
	list := tx.tree.Node(listKey)
	parent, idx := list.Parent, tx.tree.IndexOf(listKey)

	for _, itemKey := range tx.flattenItems(listKey) {
		block := tx.Create(proto)
		if err := tx.InsertChild(parent, idx, block.Key); err != nil {
			return err
		}
		idx++

		children := slices.Clone(tx.tree.Node(itemKey).Children)
		inline := 0
		for _, c := range children {
			if tx.tree.Node(c).Kind.IsInline() {
				inline++
			}
		}
		before := tx.sel
		for _, c := range children {
			child := tx.tree.Node(c)
			switch {
			case child.Kind.IsInline():
				if err := tx.Detach(c); err != nil {
					return err
				}
				if err := tx.AppendChild(block.Key, c); err != nil {
					return err
				}
			case child.Kind == lexical.KindParagraph:
				if err := tx.Detach(c); err != nil {
					return err
				}
				if err := tx.Retype(c, proto); err != nil {
					return err
				}
				if err := tx.InsertChild(parent, idx, c); err != nil {
					return err
				}
				idx++
			}
		}
		if before.Anchor.Key == itemKey {
			tx.sel.Anchor = lexical.Point{Key: block.Key, Offset: min(before.Anchor.Offset, inline)}
		}
		if before.Focus.Key == itemKey {
			tx.sel.Focus = lexical.Point{Key: block.Key, Offset: min(before.Focus.Offset, inline)}
		}
	}
	return tx.Remove(listKey)
}

// flattenItems lists the items of a list and its nested lists in document order.
func (tx *Txn) flattenItems(listKey lexical.NodeKey) []lexical.NodeKey {
	var out []lexical.NodeKey
	for _, itemKey := range tx.tree.Node(listKey).Children {
		out = append(out, itemKey)
		for _, c := range tx.tree.Node(itemKey).Children {
			if tx.tree.Node(c).Kind == lexical.KindList {
				out = append(out, tx.flattenItems(c)...)
			}
		}
	}
	return out
}
