package editor

import (
	"encoding/json"
	"testing"

	"content-editor-be/pkg/lexical"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProjectBlockType(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{input: "plain", want: "paragraph"},
		{input: "# one", want: "h1"},
		{input: "### three", want: "h3"},
		{input: "> quoted", want: "quote"},
		{input: "- bullet", want: "ul"},
		{input: "1. number", want: "ol"},
		{input: "1. outer\n   - inner", want: "ol"},
		{input: "- outer\n  1. inner", want: "ul"},
		{input: "", want: "paragraph"},
	}

	for _, tt := range tests {
		t.Run(tt.want+"/"+tt.input, func(t *testing.T) {
			tree := mustTree(t, tt.input)
			sel := lexical.Caret(tree.End())
			got := Project(Document{Tree: tree}, sel, HistoryState{})
			assert.Equal(t, tt.want, got.BlockType)
		})
	}
}

func TestProjectActiveMarks(t *testing.T) {
	tree := mustTree(t, "**bold** and ***both***")
	para := nodeAt(t, tree, 0)
	require.Len(t, para.Children, 3)
	bold, plain, both := para.Children[0], para.Children[1], para.Children[2]

	point := func(key lexical.NodeKey, off int) lexical.Point { return lexical.Point{Key: key, Offset: off} }
	tests := []struct {
		name string
		sel  lexical.Selection
		want []string
	}{
		{name: "inside bold", sel: lexical.Range(point(bold, 0), point(bold, 4)), want: []string{"bold"}},
		{name: "bold and italic", sel: lexical.Range(point(both, 1), point(both, 3)), want: []string{"bold", "italic"}},
		{name: "mixed range", sel: lexical.Range(point(bold, 2), point(plain, 3)), want: []string{}},
		{name: "bold boundary only", sel: lexical.Range(point(bold, 2), point(plain, 0)), want: []string{"bold"}},
		{name: "collapsed uses pending format", sel: lexical.Selection{
			Anchor: point(plain, 1), Focus: point(plain, 1), Format: lexical.FormatUnderline,
		}, want: []string{"underline"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Project(Document{Tree: tree}, tt.sel, HistoryState{CanUndo: true})
			assert.Equal(t, tt.want, got.ActiveMarks)
			assert.True(t, got.CanUndo)
			assert.False(t, got.CanRedo)
		})
	}
}

func TestNestedListTogglesOuterList(t *testing.T) {
	c := newComposer(t, "- a\n  1. b")
	require.Equal(t, "ul", c.Toolbar().BlockType)

	require.True(t, c.Dispatch(InsertList(false)))
	assert.Equal(t, "paragraph", c.Toolbar().BlockType)
	assert.Equal(t, "a\n\nb", c.Markdown())
}

func TestToolbarJSON(t *testing.T) {
	c := newComposer(t, "## Title")
	require.True(t, c.Dispatch(SelectAll()))
	require.True(t, c.Dispatch(FormatText(lexical.FormatBold)))

	data, err := json.Marshal(c.Toolbar())
	require.NoError(t, err)
	assert.JSONEq(t, `{"canUndo":true,"canRedo":false,"activeMarks":["bold"],"blockType":"h2"}`, string(data))
}
