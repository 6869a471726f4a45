package editor

import (
	"fmt"

	"content-editor-be/pkg/lexical"
)

// ToolbarState is the projection a formatting toolbar renders from.
type ToolbarState struct {
	CanUndo     bool     `json:"canUndo"`
	CanRedo     bool     `json:"canRedo"`
	ActiveMarks []string `json:"activeMarks"`
	BlockType   string   `json:"blockType"`
}

var toolbarMarks = []lexical.Format{lexical.FormatBold, lexical.FormatItalic, lexical.FormatUnderline}

// Project derives the toolbar state. It reads nothing but its arguments.
func Project(doc Document, sel lexical.Selection, hist HistoryState) ToolbarState {
	state := ToolbarState{
		CanUndo:     hist.CanUndo,
		CanRedo:     hist.CanRedo,
		ActiveMarks: []string{},
		BlockType:   string(BlockParagraph),
	}
	if doc.Tree == nil {
		return state
	}
	for _, mark := range toolbarMarks {
		if doc.Tree.HasFormat(sel, mark) {
			state.ActiveMarks = append(state.ActiveMarks, mark.Names()...)
		}
	}
	state.BlockType = blockType(doc.Tree, sel.Anchor)
	return state
}

// blockType reports the kind of the anchor's top-level block. A nested list
// reports the orderedness of the outermost list, which is the one InsertList toggles.
func blockType(t *lexical.Tree, anchor lexical.Point) string {
	p := t.Descend(anchor)
	if p.Key == lexical.RootKey || !t.Has(p.Key) {
		return string(BlockParagraph)
	}
	top, err := t.TopLevelBlock(p.Key)
	if err != nil {
		return string(BlockParagraph)
	}
	switch top.Kind {
	case lexical.KindList:
		if top.Ordered {
			return string(BlockNumber)
		}
		return string(BlockBullet)
	case lexical.KindHeading:
		return fmt.Sprintf("h%d", top.Level)
	case lexical.KindQuote:
		return string(BlockQuote)
	}
	return string(BlockParagraph)
}
