package lexical

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildParagraph(t *testing.T, tree *Tree, text string, format Format) (*Node, *Node) {
	t.Helper()
	p := tree.Create(Paragraph())
	require.NoError(t, tree.AppendChild(RootKey, p.Key))
	leaf := tree.Create(Text(text, format))
	require.NoError(t, tree.AppendChild(p.Key, leaf.Key))
	return p, leaf
}

func TestNewDocument(t *testing.T) {
	tree := NewDocument()

	root := tree.Root()
	require.Len(t, root.Children, 1)
	assert.Equal(t, KindParagraph, tree.Node(root.Children[0]).Kind)
	assert.NoError(t, tree.Validate())
}

func TestInsertChildSchema(t *testing.T) {
	tests := []struct {
		name    string
		parent  Node
		child   Node
		wantErr error
	}{
		{name: "text under paragraph", parent: Paragraph(), child: Text("a", 0)},
		{name: "item under list", parent: List(false), child: ListItem()},
		{name: "list under item", parent: ListItem(), child: List(true)},
		{name: "code under link", parent: Link("http://x"), child: Code("x")},
		{name: "text under list", parent: List(false), child: Text("a", 0), wantErr: ErrSchemaViolation},
		{name: "paragraph under paragraph", parent: Paragraph(), child: Paragraph(), wantErr: ErrSchemaViolation},
		{name: "link under link", parent: Link("a"), child: Link("b"), wantErr: ErrSchemaViolation},
		{name: "heading under quote", parent: Quote(), child: Heading(1), wantErr: ErrSchemaViolation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tree := NewTree()
			p := tree.Create(tt.parent)
			c := tree.Create(tt.child)

			err := tree.InsertChild(p.Key, 0, c.Key)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, p.Key, tree.Node(c.Key).Parent)
		})
	}
}

func TestInsertChildRejectsCyclesAndAttachedNodes(t *testing.T) {
	tree := NewTree()
	list := tree.Create(List(false))
	item := tree.Create(ListItem())
	require.NoError(t, tree.AppendChild(list.Key, item.Key))

	assert.ErrorIs(t, tree.AppendChild(item.Key, list.Key), ErrCycle)
	assert.ErrorIs(t, tree.AppendChild(list.Key, item.Key), ErrAttached)
	assert.ErrorIs(t, tree.AppendChild(item.Key, RootKey), ErrRootImmutable)
	assert.ErrorIs(t, tree.Remove(RootKey), ErrRootImmutable)
}

func TestRemoveDeletesSubtree(t *testing.T) {
	tree := NewTree()
	p, leaf := buildParagraph(t, tree, "hello", 0)

	require.NoError(t, tree.Remove(p.Key))

	assert.False(t, tree.Has(p.Key))
	assert.False(t, tree.Has(leaf.Key))
	assert.Empty(t, tree.Root().Children)
}

func TestCloneIsIndependent(t *testing.T) {
	tree := NewTree()
	_, leaf := buildParagraph(t, tree, "hello", 0)

	clone := tree.Clone()
	require.NoError(t, clone.SetText(leaf.Key, "changed"))

	assert.Equal(t, "hello", tree.Node(leaf.Key).Text)
	assert.Equal(t, "changed", clone.Node(leaf.Key).Text)
	assert.False(t, tree.Equal(clone))
}

func TestRetype(t *testing.T) {
	tree := NewTree()
	p, _ := buildParagraph(t, tree, "title", 0)

	require.NoError(t, tree.Retype(p.Key, Heading(2)))
	assert.Equal(t, KindHeading, tree.Node(p.Key).Kind)
	assert.Equal(t, 2, tree.Node(p.Key).Level)

	assert.ErrorIs(t, tree.Retype(p.Key, Heading(7)), ErrInvalidHeadingLevel)
	assert.ErrorIs(t, tree.Retype(p.Key, List(false)), ErrSchemaViolation)
	assert.ErrorIs(t, tree.Retype(RootKey, Paragraph()), ErrRootImmutable)
}

func TestValidateDetectsDetachedNodes(t *testing.T) {
	tree := NewDocument()
	tree.Create(Text("orphan", 0))

	assert.ErrorIs(t, tree.Validate(), ErrAttached)
	assert.Equal(t, 1, tree.Collect())
	assert.NoError(t, tree.Validate())
}

func TestBlocksAndTopLevelBlock(t *testing.T) {
	tree := NewTree()
	list := tree.Create(List(true))
	require.NoError(t, tree.AppendChild(RootKey, list.Key))
	item := tree.Create(ListItem())
	require.NoError(t, tree.AppendChild(list.Key, item.Key))
	require.NoError(t, tree.AppendText(item.Key, "one", 0))
	leaf := tree.Node(item.Children[0])

	top, err := tree.TopLevelBlock(leaf.Key)
	require.NoError(t, err)
	assert.Equal(t, list.Key, top.Key)

	block, ok := tree.BlockOf(leaf.Key)
	require.True(t, ok)
	assert.Equal(t, item.Key, block.Key)

	blocks := tree.Blocks()
	require.Len(t, blocks, 1)
	assert.Equal(t, item.Key, blocks[0].Key)
	assert.Equal(t, "one", tree.TextContent(RootKey))
}

func TestAppendTextMergesSameFormat(t *testing.T) {
	tree := NewTree()
	p := tree.Create(Paragraph())
	require.NoError(t, tree.AppendChild(RootKey, p.Key))

	require.NoError(t, tree.AppendText(p.Key, "a", FormatBold))
	require.NoError(t, tree.AppendText(p.Key, "b", FormatBold))
	require.NoError(t, tree.AppendText(p.Key, "c", 0))
	require.NoError(t, tree.AppendText(p.Key, "", FormatItalic))

	require.Len(t, tree.Node(p.Key).Children, 2)
	assert.Equal(t, "ab", tree.Node(tree.Node(p.Key).Children[0]).Text)
}

func TestFormatNames(t *testing.T) {
	assert.Equal(t, []string{"bold", "underline"}, (FormatBold | FormatUnderline).Names())
	assert.Empty(t, Format(0).Names())

	mark, ok := ParseMark("italic")
	assert.True(t, ok)
	assert.Equal(t, FormatItalic, mark)

	_, ok = ParseMark("strike")
	assert.False(t, ok)
}
