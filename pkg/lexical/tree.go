package lexical

import (
	"fmt"
	"slices"
	"unicode/utf8"
)

// Tree is a document: a root element and every node reachable from it.
// A committed Tree is never mutated; transactions work on a Clone.
type Tree struct {
	nodes   map[NodeKey]*Node
	nextKey NodeKey
}

// NewTree returns a tree holding only an empty root.
func NewTree() *Tree {
	t := &Tree{nodes: make(map[NodeKey]*Node), nextKey: RootKey + 1}
	t.nodes[RootKey] = &Node{Key: RootKey, Kind: KindRoot, Children: []NodeKey{}}
	return t
}

// NewDocument returns the empty document: a root with one empty paragraph.
func NewDocument() *Tree {
	t := NewTree()
	p := t.Create(Paragraph())
	must(t.AppendChild(RootKey, p.Key))
	return t
}

// must panics on errors that only a bug in this package can produce.
func must(err error) {
	if err != nil {
		panic(err)
	}
}

// Clone returns a deep copy that shares nothing with t.
func (t *Tree) Clone() *Tree {
	c := &Tree{nodes: make(map[NodeKey]*Node, len(t.nodes)), nextKey: t.nextKey}
	for k, n := range t.nodes {
		c.nodes[k] = n.clone()
	}
	return c
}

func (t *Tree) Root() *Node {
	return t.nodes[RootKey]
}

// Node returns the node for key, or nil when it is not present.
func (t *Tree) Node(key NodeKey) *Node {
	return t.nodes[key]
}

func (t *Tree) Has(key NodeKey) bool {
	_, ok := t.nodes[key]
	return ok
}

// Len returns the number of nodes held, attached or not.
func (t *Tree) Len() int {
	return len(t.nodes)
}

func (t *Tree) get(key NodeKey) (*Node, error) {
	n, ok := t.nodes[key]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrNodeNotFound, key)
	}
	return n, nil
}

// Create allocates a fresh key for a detached copy of proto and adds it to the tree.
func (t *Tree) Create(proto Node) *Node {
	n := proto
	n.Key = t.nextKey
	n.Parent = 0
	n.Children = nil
	if !n.Kind.IsLeaf() {
		n.Children = []NodeKey{}
	}
	t.nextKey++
	t.nodes[n.Key] = &n
	return &n
}

// Attached reports whether key is reachable from the root.
func (t *Tree) Attached(key NodeKey) bool {
	for key != RootKey {
		n, ok := t.nodes[key]
		if !ok || n.Parent == 0 {
			return false
		}
		key = n.Parent
	}
	return true
}

// IsAncestor reports whether a is a strict ancestor of b.
func (t *Tree) IsAncestor(a, b NodeKey) bool {
	n := t.nodes[b]
	for n != nil && n.Parent != 0 {
		if n.Parent == a {
			return true
		}
		n = t.nodes[n.Parent]
	}
	return false
}

// IndexOf returns the position of key among its parent's children, or -1.
func (t *Tree) IndexOf(key NodeKey) int {
	n := t.nodes[key]
	if n == nil || n.Parent == 0 {
		return -1
	}
	return slices.Index(t.nodes[n.Parent].Children, key)
}

// InsertChild attaches the detached node child at index under parent.
func (t *Tree) InsertChild(parent NodeKey, index int, child NodeKey) error {
	p, err := t.get(parent)
	if err != nil {
		return err
	}
	c, err := t.get(child)
	if err != nil {
		return err
	}
	if child == RootKey {
		return ErrRootImmutable
	}
	if c.Parent != 0 {
		return fmt.Errorf("%w: %d", ErrAttached, child)
	}
	if child == parent || t.IsAncestor(child, parent) {
		return ErrCycle
	}
	if !Allows(p.Kind, c.Kind) {
		return fmt.Errorf("%w: %s under %s", ErrSchemaViolation, c.Kind, p.Kind)
	}
	if index < 0 || index > len(p.Children) {
		return fmt.Errorf("%w: child index %d of %d", ErrInvalidPoint, index, len(p.Children))
	}
	p.Children = slices.Insert(p.Children, index, child)
	c.Parent = parent
	return nil
}

func (t *Tree) AppendChild(parent, child NodeKey) error {
	p, err := t.get(parent)
	if err != nil {
		return err
	}
	return t.InsertChild(parent, len(p.Children), child)
}

// InsertAfter attaches child as the next sibling of sibling.
func (t *Tree) InsertAfter(sibling, child NodeKey) error {
	s, err := t.get(sibling)
	if err != nil {
		return err
	}
	if s.Parent == 0 {
		return fmt.Errorf("%w: %d has no parent", ErrNodeNotFound, sibling)
	}
	return t.InsertChild(s.Parent, t.IndexOf(sibling)+1, child)
}

// Detach unlinks key from its parent but keeps it, and its subtree, in the tree.
func (t *Tree) Detach(key NodeKey) error {
	if key == RootKey {
		return ErrRootImmutable
	}
	n, err := t.get(key)
	if err != nil {
		return err
	}
	if n.Parent == 0 {
		return nil
	}
	p := t.nodes[n.Parent]
	if i := slices.Index(p.Children, key); i >= 0 {
		p.Children = slices.Delete(p.Children, i, i+1)
	}
	n.Parent = 0
	return nil
}

// Remove detaches key and deletes it together with its descendants.
func (t *Tree) Remove(key NodeKey) error {
	if err := t.Detach(key); err != nil {
		return err
	}
	t.drop(key)
	return nil
}

func (t *Tree) drop(key NodeKey) {
	n, ok := t.nodes[key]
	if !ok {
		return
	}
	for _, c := range n.Children {
		t.drop(c)
	}
	delete(t.nodes, key)
}

// SetText replaces the content of a leaf.
func (t *Tree) SetText(key NodeKey, text string) error {
	n, err := t.get(key)
	if err != nil {
		return err
	}
	if !n.Kind.IsLeaf() {
		return fmt.Errorf("%w: %d is %s", ErrNotLeaf, key, n.Kind)
	}
	n.Text = text
	return nil
}

// SetFormat replaces the mark bitmask of a text leaf.
func (t *Tree) SetFormat(key NodeKey, format Format) error {
	n, err := t.get(key)
	if err != nil {
		return err
	}
	if n.Kind != KindText {
		return fmt.Errorf("%w: %d is %s", ErrNotLeaf, key, n.Kind)
	}
	n.Format = format & Marks
	return nil
}

// SetURL changes the target of a link.
func (t *Tree) SetURL(key NodeKey, url string) error {
	n, err := t.get(key)
	if err != nil {
		return err
	}
	if n.Kind != KindLink {
		return fmt.Errorf("%w: %d is %s, not link", ErrSchemaViolation, key, n.Kind)
	}
	n.URL = url
	return nil
}

// Retype changes an element's kind in place, keeping its key and children.
// Only the attributes of proto that belong to the new kind are applied.
func (t *Tree) Retype(key NodeKey, proto Node) error {
	if key == RootKey {
		return ErrRootImmutable
	}
	n, err := t.get(key)
	if err != nil {
		return err
	}
	if n.Kind.IsLeaf() != proto.Kind.IsLeaf() || proto.Kind == KindRoot {
		return fmt.Errorf("%w: cannot retype %s to %s", ErrSchemaViolation, n.Kind, proto.Kind)
	}
	if proto.Kind == KindHeading && (proto.Level < 1 || proto.Level > 6) {
		return ErrInvalidHeadingLevel
	}
	if n.Parent != 0 && !Allows(t.nodes[n.Parent].Kind, proto.Kind) {
		return fmt.Errorf("%w: %s under %s", ErrSchemaViolation, proto.Kind, t.nodes[n.Parent].Kind)
	}
	for _, c := range n.Children {
		if !Allows(proto.Kind, t.nodes[c].Kind) {
			return fmt.Errorf("%w: %s under %s", ErrSchemaViolation, t.nodes[c].Kind, proto.Kind)
		}
	}
	n.Kind = proto.Kind
	n.Level = proto.Level
	n.Ordered = proto.Ordered
	n.URL = proto.URL
	return nil
}

// TopLevelBlock returns the child of the root that contains key.
func (t *Tree) TopLevelBlock(key NodeKey) (*Node, error) {
	n, err := t.get(key)
	if err != nil {
		return nil, err
	}
	if key == RootKey {
		return nil, fmt.Errorf("%w: root has no top-level block", ErrNodeNotFound)
	}
	for n.Parent != RootKey {
		if n.Parent == 0 {
			return nil, fmt.Errorf("%w: %d is detached", ErrNodeNotFound, key)
		}
		n = t.nodes[n.Parent]
	}
	return n, nil
}

// BlockOf returns the nearest ancestor-or-self whose content is inline nodes.
func (t *Tree) BlockOf(key NodeKey) (*Node, bool) {
	n := t.nodes[key]
	for n != nil {
		if n.Kind.IsTextBlock() {
			return n, true
		}
		if n.Parent == 0 {
			break
		}
		n = t.nodes[n.Parent]
	}
	return nil, false
}

// Walk visits attached nodes in document order. Returning false skips the node's subtree.
func (t *Tree) Walk(fn func(n *Node, depth int) bool) {
	t.walk(RootKey, 0, fn)
}

func (t *Tree) walk(key NodeKey, depth int, fn func(n *Node, depth int) bool) {
	n := t.nodes[key]
	if n == nil || !fn(n, depth) {
		return
	}
	for _, c := range n.Children {
		t.walk(c, depth+1, fn)
	}
}

// Leaves returns the text and code leaves in document order.
func (t *Tree) Leaves() []*Node {
	var out []*Node
	t.Walk(func(n *Node, _ int) bool {
		if n.Kind.IsLeaf() {
			out = append(out, n)
		}
		return true
	})
	return out
}

// Blocks returns text blocks in document order. A list item precedes the blocks nested in it.
func (t *Tree) Blocks() []*Node {
	var out []*Node
	t.Walk(func(n *Node, _ int) bool {
		if n.Kind.IsTextBlock() {
			out = append(out, n)
		}
		return !n.Kind.IsInline()
	})
	return out
}

// TextContent concatenates the leaf text beneath key.
func (t *Tree) TextContent(key NodeKey) string {
	var out []byte
	t.walk(key, 0, func(n *Node, _ int) bool {
		if n.Kind.IsLeaf() {
			out = append(out, n.Text...)
		}
		return true
	})
	return string(out)
}

// Collect deletes every node not reachable from the root and returns how many were removed.
func (t *Tree) Collect() int {
	live := make(map[NodeKey]bool, len(t.nodes))
	t.Walk(func(n *Node, _ int) bool {
		live[n.Key] = true
		return true
	})
	removed := 0
	for k := range t.nodes {
		if !live[k] {
			delete(t.nodes, k)
			removed++
		}
	}
	return removed
}

// Validate checks the structural invariants of every attached node and
// rejects detached nodes left behind in the map.
func (t *Tree) Validate() error {
	root, ok := t.nodes[RootKey]
	if !ok || root.Kind != KindRoot || root.Parent != 0 {
		return fmt.Errorf("%w: missing root", ErrNodeNotFound)
	}
	seen := make(map[NodeKey]bool, len(t.nodes))
	var check func(n *Node) error
	check = func(n *Node) error {
		if seen[n.Key] {
			return fmt.Errorf("%w: %d reached twice", ErrCycle, n.Key)
		}
		seen[n.Key] = true
		switch n.Kind {
		case KindHeading:
			if n.Level < 1 || n.Level > 6 {
				return fmt.Errorf("%w: heading %d has level %d", ErrInvalidHeadingLevel, n.Key, n.Level)
			}
		case KindText, KindCode:
			if len(n.Children) > 0 {
				return fmt.Errorf("%w: leaf %d has children", ErrSchemaViolation, n.Key)
			}
			if !utf8.ValidString(n.Text) {
				return fmt.Errorf("%w: leaf %d holds invalid UTF-8", ErrSchemaViolation, n.Key)
			}
		}
		for _, ck := range n.Children {
			c, ok := t.nodes[ck]
			if !ok {
				return fmt.Errorf("%w: child %d of %d", ErrNodeNotFound, ck, n.Key)
			}
			if c.Parent != n.Key {
				return fmt.Errorf("%w: %d does not point back to parent %d", ErrSchemaViolation, ck, n.Key)
			}
			if !Allows(n.Kind, c.Kind) {
				return fmt.Errorf("%w: %s under %s", ErrSchemaViolation, c.Kind, n.Kind)
			}
			if err := check(c); err != nil {
				return err
			}
		}
		return nil
	}
	if err := check(root); err != nil {
		return err
	}
	if len(seen) != len(t.nodes) {
		return fmt.Errorf("%w: %d detached nodes", ErrAttached, len(t.nodes)-len(seen))
	}
	return nil
}

// Equal reports whether both trees have the same shape, attributes and text, ignoring keys.
func (t *Tree) Equal(o *Tree) bool {
	return t.equal(RootKey, o, RootKey)
}

func (t *Tree) equal(a NodeKey, o *Tree, b NodeKey) bool {
	x, y := t.nodes[a], o.nodes[b]
	if x == nil || y == nil {
		return x == y
	}
	if x.Kind != y.Kind || x.Level != y.Level || x.Ordered != y.Ordered ||
		x.Text != y.Text || x.Format != y.Format || x.URL != y.URL ||
		len(x.Children) != len(y.Children) {
		return false
	}
	for i := range x.Children {
		if !t.equal(x.Children[i], o, y.Children[i]) {
			return false
		}
	}
	return true
}
