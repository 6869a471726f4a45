package lexical

import (
	"cmp"
	"fmt"
)

// Point addresses a position in a tree. On a leaf, Offset counts runes;
// on an element it is a child index where Offset == len(children) means "after the last child".
type Point struct {
	Key    NodeKey `json:"key"`
	Offset int     `json:"offset"`
}

// Selection is an anchor/focus pair. Format holds the marks applied to text
// typed at a collapsed caret.
type Selection struct {
	Anchor Point  `json:"anchor"`
	Focus  Point  `json:"focus"`
	Format Format `json:"format"`
}

// Caret returns a collapsed selection at p.
func Caret(p Point) Selection {
	return Selection{Anchor: p, Focus: p}
}

func Range(anchor, focus Point) Selection {
	return Selection{Anchor: anchor, Focus: focus}
}

func (s Selection) IsCollapsed() bool {
	return s.Anchor == s.Focus
}

// CheckPoint verifies that p names an attached node and an offset within its size.
func (t *Tree) CheckPoint(p Point) error {
	n := t.nodes[p.Key]
	if n == nil || !t.Attached(p.Key) {
		return fmt.Errorf("%w: node %d", ErrInvalidPoint, p.Key)
	}
	if p.Offset < 0 || p.Offset > n.Size() {
		return fmt.Errorf("%w: offset %d of %s %d (size %d)", ErrInvalidPoint, p.Offset, n.Kind, p.Key, n.Size())
	}
	return nil
}

// CheckSelection verifies both endpoints of s.
func (t *Tree) CheckSelection(s Selection) error {
	if err := t.CheckPoint(s.Anchor); err != nil {
		return fmt.Errorf("anchor: %w", err)
	}
	if err := t.CheckPoint(s.Focus); err != nil {
		return fmt.Errorf("focus: %w", err)
	}
	return nil
}

type span struct{ start, end int }

// Linear maps every attached node to its half-open range in the document's
// leaf text, concatenated in order. Elements contribute no width of their own.
type Linear struct {
	spans map[NodeKey]span
	order map[NodeKey]int // preorder index
	tree  *Tree
}

// Linearize computes the document-order offsets of t.
func (t *Tree) Linearize() *Linear {
	l := &Linear{
		spans: make(map[NodeKey]span, len(t.nodes)),
		order: make(map[NodeKey]int, len(t.nodes)),
		tree:  t,
	}
	pos := 0
	var visit func(key NodeKey)
	visit = func(key NodeKey) {
		n := t.nodes[key]
		l.order[key] = len(l.order)
		start := pos
		if n.Kind.IsLeaf() {
			pos += n.Size()
		} else {
			for _, c := range n.Children {
				visit(c)
			}
		}
		l.spans[key] = span{start, pos}
	}
	visit(RootKey)
	return l
}

// Span returns the linear range of key.
func (l *Linear) Span(key NodeKey) (start, end int, ok bool) {
	s, ok := l.spans[key]
	return s.start, s.end, ok
}

// Position converts a point to a linear offset.
func (l *Linear) Position(p Point) int {
	n := l.tree.nodes[p.Key]
	s := l.spans[p.Key]
	if n == nil {
		return 0
	}
	if n.Kind.IsLeaf() {
		return s.start + p.Offset
	}
	if p.Offset < len(n.Children) {
		return l.spans[n.Children[p.Offset]].start
	}
	return s.end
}

// Compare orders two points by document position. Points at the same text
// offset, such as the starts of consecutive empty blocks, are ordered by the
// preorder index of the node they descend to, then by offset.
func (l *Linear) Compare(a, b Point) int {
	if pa, pb := l.Position(a), l.Position(b); pa != pb {
		return cmp.Compare(pa, pb)
	}
	da, db := l.tree.Descend(a), l.tree.Descend(b)
	if oa, ob := l.order[da.Key], l.order[db.Key]; oa != ob {
		return cmp.Compare(oa, ob)
	}
	return cmp.Compare(da.Offset, db.Offset)
}

// Ordered returns the endpoints of s in document order. Equal points keep the anchor first.
func (t *Tree) Ordered(s Selection) (start, end Point) {
	if t.Linearize().Compare(s.Focus, s.Anchor) < 0 {
		return s.Focus, s.Anchor
	}
	return s.Anchor, s.Focus
}

// IsBackward reports whether the focus of s comes before its anchor.
func (t *Tree) IsBackward(s Selection) bool {
	return t.Linearize().Compare(s.Focus, s.Anchor) < 0
}

// LeafRange is the covered part [From, To) of one leaf.
type LeafRange struct {
	Node     *Node
	From, To int
}

// Covered returns the leaves that intersect s with non-zero width, in document order.
func (t *Tree) Covered(s Selection) []LeafRange {
	l := t.Linearize()
	a, b := l.Position(s.Anchor), l.Position(s.Focus)
	if a > b {
		a, b = b, a
	}
	if a == b {
		return nil
	}
	var out []LeafRange
	for _, n := range t.Leaves() {
		ls := l.spans[n.Key]
		from, to := max(a, ls.start), min(b, ls.end)
		if from < to {
			out = append(out, LeafRange{Node: n, From: from - ls.start, To: to - ls.start})
		}
	}
	return out
}

// HasFormat reports whether mark applies to the selection. A collapsed
// selection answers from its pending format; a range requires every covered
// text leaf to carry the mark.
func (t *Tree) HasFormat(s Selection, mark Format) bool {
	if s.IsCollapsed() {
		return s.Format.Has(mark)
	}
	texts := 0
	for _, r := range t.Covered(s) {
		if r.Node.Kind != KindText {
			continue
		}
		texts++
		if !r.Node.Format.Has(mark) {
			return false
		}
	}
	return texts > 0
}

// Descend moves an element point down to the deepest equivalent position,
// landing on a leaf where one exists.
func (t *Tree) Descend(p Point) Point {
	for {
		n := t.nodes[p.Key]
		if n == nil || n.Kind.IsLeaf() || len(n.Children) == 0 {
			return p
		}
		if p.Offset < len(n.Children) {
			p = Point{Key: n.Children[p.Offset], Offset: 0}
			continue
		}
		last := t.nodes[n.Children[len(n.Children)-1]]
		p = Point{Key: last.Key, Offset: last.Size()}
	}
}

// SelectAll spans the whole document.
func (t *Tree) SelectAll() Selection {
	root := t.Root()
	return Range(t.Descend(Point{Key: RootKey}), t.Descend(Point{Key: RootKey, Offset: len(root.Children)}))
}

// Start returns the first caret position of the document.
func (t *Tree) Start() Point {
	return t.Descend(Point{Key: RootKey})
}

// End returns the last caret position of the document.
func (t *Tree) End() Point {
	return t.Descend(Point{Key: RootKey, Offset: len(t.Root().Children)})
}

// Repair replaces endpoints of s whose node no longer exists in t. The
// nearest ancestor that survives is taken from parents, which records the
// parent each removed node had; the endpoint moves to offset 0 of that node,
// or to the start of the root when no ancestor survives.
func (t *Tree) Repair(s Selection, parents func(NodeKey) (NodeKey, bool)) Selection {
	s.Anchor = t.repairPoint(s.Anchor, parents)
	s.Focus = t.repairPoint(s.Focus, parents)
	return s
}

func (t *Tree) repairPoint(p Point, parents func(NodeKey) (NodeKey, bool)) Point {
	if t.CheckPoint(p) == nil {
		return p
	}
	if n := t.nodes[p.Key]; n != nil && t.Attached(p.Key) {
		p.Offset = max(0, min(p.Offset, n.Size()))
		return p
	}
	key := p.Key
	for {
		parent, ok := parents(key)
		if !ok || parent == 0 {
			break
		}
		if t.Attached(parent) {
			return Point{Key: parent, Offset: 0}
		}
		key = parent
	}
	return Point{Key: RootKey, Offset: 0}
}
