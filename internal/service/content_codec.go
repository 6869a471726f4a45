package service

import (
	"fmt"

	"content-editor-be/pkg/lexical"
	"content-editor-be/pkg/markdown"
)

// decodeField builds the editor tree for a stored field. Rows written by the
// old admin hold Lexical JSON instead of markdown; both are accepted.
func decodeField(raw string) (*lexical.Tree, error) {
	if lexical.LooksLikeState(raw) {
		return lexical.ImportJSON([]byte(raw))
	}
	return markdown.Import(raw), nil
}

// encodeField renders a tree into the two stored forms.
func encodeField(tree *lexical.Tree) (string, []byte, error) {
	state, err := lexical.ExportJSON(tree)
	if err != nil {
		return "", nil, fmt.Errorf("export editor state: %w", err)
	}
	return markdown.Export(tree), state, nil
}

// restoreTree prefers the stored editor state and falls back to the markdown.
func restoreTree(md string, state []byte) *lexical.Tree {
	if len(state) > 0 {
		if tree, err := lexical.ImportJSON(state); err == nil {
			return tree
		}
	}
	if tree, err := decodeField(md); err == nil {
		return tree
	}
	return markdown.Import(md)
}
