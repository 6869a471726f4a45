package lexical

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// twoRuns builds a paragraph holding "Hello " in plain text followed by a bold "world".
func twoRuns(t *testing.T) (*Tree, *Node, *Node) {
	t.Helper()
	tree := NewTree()
	p, plain := buildParagraph(t, tree, "Hello ", 0)
	bold := tree.Create(Text("world", FormatBold))
	require.NoError(t, tree.AppendChild(p.Key, bold.Key))
	return tree, plain, bold
}

func TestCheckPoint(t *testing.T) {
	tree, plain, _ := twoRuns(t)

	assert.NoError(t, tree.CheckPoint(Point{Key: plain.Key, Offset: 6}))
	assert.NoError(t, tree.CheckPoint(Point{Key: RootKey, Offset: 1}))
	assert.ErrorIs(t, tree.CheckPoint(Point{Key: plain.Key, Offset: 7}), ErrInvalidPoint)
	assert.ErrorIs(t, tree.CheckPoint(Point{Key: 999}), ErrInvalidPoint)
	assert.ErrorIs(t, tree.CheckPoint(Point{Key: RootKey, Offset: -1}), ErrInvalidPoint)
}

func TestPositionAndOrdered(t *testing.T) {
	tree, plain, bold := twoRuns(t)
	l := tree.Linearize()

	assert.Equal(t, 3, l.Position(Point{Key: plain.Key, Offset: 3}))
	assert.Equal(t, 8, l.Position(Point{Key: bold.Key, Offset: 2}))
	assert.Equal(t, 11, l.Position(Point{Key: RootKey, Offset: 1}))

	backwards := Range(Point{Key: bold.Key, Offset: 2}, Point{Key: plain.Key, Offset: 1})
	start, end := tree.Ordered(backwards)
	assert.Equal(t, plain.Key, start.Key)
	assert.Equal(t, bold.Key, end.Key)
}

func TestCoveredAndHasFormat(t *testing.T) {
	tree, plain, bold := twoRuns(t)

	tests := []struct {
		name     string
		sel      Selection
		covered  int
		wantBold bool
	}{
		{
			name:     "inside bold run",
			sel:      Range(Point{Key: bold.Key, Offset: 1}, Point{Key: bold.Key, Offset: 4}),
			covered:  1,
			wantBold: true,
		},
		{
			name:     "across both runs",
			sel:      Range(Point{Key: plain.Key, Offset: 2}, Point{Key: bold.Key, Offset: 3}),
			covered:  2,
			wantBold: false,
		},
		{
			name:     "boundary touching bold only",
			sel:      Range(Point{Key: plain.Key, Offset: 6}, Point{Key: bold.Key, Offset: 5}),
			covered:  1,
			wantBold: true,
		},
		{
			name:     "collapsed uses pending format",
			sel:      Selection{Anchor: Point{Key: plain.Key, Offset: 1}, Focus: Point{Key: plain.Key, Offset: 1}, Format: FormatBold},
			covered:  0,
			wantBold: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Len(t, tree.Covered(tt.sel), tt.covered)
			assert.Equal(t, tt.wantBold, tree.HasFormat(tt.sel, FormatBold))
		})
	}
}

func TestSelectAllDescendsToLeaves(t *testing.T) {
	tree, plain, bold := twoRuns(t)

	sel := tree.SelectAll()
	assert.Equal(t, Point{Key: plain.Key, Offset: 0}, sel.Anchor)
	assert.Equal(t, Point{Key: bold.Key, Offset: 5}, sel.Focus)

	empty := NewDocument()
	p := empty.Root().Children[0]
	assert.Equal(t, Point{Key: p, Offset: 0}, empty.Start())
}

func TestRepairUsesNearestSurvivingAncestor(t *testing.T) {
	tree, plain, _ := twoRuns(t)
	p := plain.Parent
	parents := map[NodeKey]NodeKey{plain.Key: p}
	lookup := func(k NodeKey) (NodeKey, bool) {
		v, ok := parents[k]
		return v, ok
	}

	require.NoError(t, tree.Remove(plain.Key))
	sel := tree.Repair(Caret(Point{Key: plain.Key, Offset: 4}), lookup)
	assert.Equal(t, Caret(Point{Key: p, Offset: 0}), sel)

	parents[p] = RootKey
	require.NoError(t, tree.Remove(p))
	sel = tree.Repair(Caret(Point{Key: plain.Key, Offset: 4}), lookup)
	assert.Equal(t, Caret(Point{Key: RootKey, Offset: 0}), sel)
}

func TestCompareEmptyBlocks(t *testing.T) {
	tree := NewTree()
	var paras []NodeKey
	for range 3 {
		p := tree.Create(Paragraph())
		require.NoError(t, tree.AppendChild(RootKey, p.Key))
		paras = append(paras, p.Key)
	}
	l := tree.Linearize()
	at := func(key NodeKey, off int) Point { return Point{Key: key, Offset: off} }

	tests := []struct {
		name string
		a, b Point
		want int
	}{
		{name: "earlier block", a: at(paras[0], 0), b: at(paras[2], 0), want: -1},
		{name: "later block", a: at(paras[2], 0), b: at(paras[1], 0), want: 1},
		{name: "same block", a: at(paras[1], 0), b: at(paras[1], 0), want: 0},
		{name: "root child index names the block", a: at(RootKey, 1), b: at(paras[1], 0), want: 0},
		{name: "root end descends into last block", a: at(paras[2], 0), b: at(RootKey, 3), want: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, l.Compare(tt.a, tt.b))
		})
	}

	backward := Range(at(paras[2], 0), at(paras[0], 0))
	assert.True(t, tree.IsBackward(backward))
	start, end := tree.Ordered(backward)
	assert.Equal(t, paras[0], start.Key)
	assert.Equal(t, paras[2], end.Key)

	assert.False(t, tree.IsBackward(Range(at(paras[0], 0), at(paras[2], 0))))
	assert.False(t, tree.IsBackward(Caret(at(paras[1], 0))))
}
