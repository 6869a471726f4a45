package editor

import (
	"fmt"

	"content-editor-be/pkg/lexical"
)

// toggleLink wraps the selected leaves of one block in a link, or strips the
// links around them when the url is empty. A selection reaching into an
// existing link retargets that whole link.
func toggleLink(tx *Txn, payload any) (bool, error) {
	url, ok := payload.(string)
	if !ok {
		return false, fmt.Errorf("%w: url %v", ErrInvalidPayload, payload)
	}
	if tx.sel.IsCollapsed() {
		return false, nil
	}
	tx.sel.Anchor, tx.sel.Focus = tx.tree.Descend(tx.sel.Anchor), tx.tree.Descend(tx.sel.Focus)
	startBlock, ok1 := tx.tree.BlockOf(tx.sel.Anchor.Key)
	endBlock, ok2 := tx.tree.BlockOf(tx.sel.Focus.Key)
	if !ok1 || !ok2 || startBlock.Key != endBlock.Key {
		return false, nil
	}

	if err := tx.splitAtSelection(); err != nil {
		return false, err
	}
	var leaves []lexical.NodeKey
	for _, r := range tx.tree.Covered(tx.sel) {
		leaves = append(leaves, r.Node.Key)
	}
	if len(leaves) == 0 {
		return false, nil
	}

	if url == "" {
		return tx.unlink(leaves)
	}

	var run []lexical.NodeKey
	flush := func() error {
		if len(run) == 0 {
			return nil
		}
		defer func() { run = nil }()
		link := tx.Create(lexical.Link(url))
		first := tx.tree.Node(run[0])
		if err := tx.InsertChild(first.Parent, tx.tree.IndexOf(first.Key), link.Key); err != nil {
			return err
		}
		for _, key := range run {
			if err := tx.Detach(key); err != nil {
				return err
			}
			if err := tx.AppendChild(link.Key, key); err != nil {
				return err
			}
		}
		return nil
	}

	for _, key := range leaves {
		leaf := tx.tree.Node(key)
		parent := tx.tree.Node(leaf.Parent)
		if parent.Kind == lexical.KindLink {
			if err := flush(); err != nil {
				return false, err
			}
			if err := tx.SetURL(parent.Key, url); err != nil {
				return false, err
			}
			continue
		}
		if len(run) > 0 {
			last := tx.tree.Node(run[len(run)-1])
			if last.Parent != leaf.Parent || tx.tree.IndexOf(last.Key)+1 != tx.tree.IndexOf(key) {
				if err := flush(); err != nil {
					return false, err
				}
			}
		}
		run = append(run, key)
	}
	if err := flush(); err != nil {
		return false, err
	}
	return true, nil
}

// unlink moves the children of every link around leaves up into the link's parent.
func (tx *Txn) unlink(leaves []lexical.NodeKey) (bool, error) {
	seen := map[lexical.NodeKey]bool{}
	for _, key := range leaves {
		parent := tx.tree.Node(tx.tree.Node(key).Parent)
		if parent.Kind != lexical.KindLink || seen[parent.Key] {
			continue
		}
		seen[parent.Key] = true
		if err := tx.MoveChildren(parent.Key, 0, parent.Parent, tx.tree.IndexOf(parent.Key)); err != nil {
			return false, err
		}
		if err := tx.Remove(parent.Key); err != nil {
			return false, err
		}
	}
	return len(seen) > 0, nil
}
