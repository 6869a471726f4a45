package lexical

import (
	"encoding/json"
	"fmt"
	"strings"
)

// LooksLikeState is a quick check for serialized Lexical JSON, used before
// deciding between ImportJSON and a markdown import.
func LooksLikeState(content string) bool {
	trimmed := strings.TrimSpace(content)
	return strings.HasPrefix(trimmed, `{"root":`)
}

// ImportJSON decodes a serialized Lexical state. Node types outside the
// editor's schema are folded into the closest supported shape: code blocks and
// table rows become paragraphs, line breaks become newlines, and unknown
// wrappers are flattened into their parent.
func ImportJSON(data []byte) (*Tree, error) {
	var st SerializedState
	if err := json.Unmarshal(data, &st); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidState, err)
	}
	if st.Root.Type != "root" {
		return nil, fmt.Errorf("%w: top-level node is %q", ErrInvalidState, st.Root.Type)
	}

	imp := &jsonImporter{tree: NewTree()}
	for _, child := range st.Root.Children {
		imp.block(child)
	}
	if len(imp.tree.Root().Children) == 0 {
		p := imp.tree.Create(Paragraph())
		imp.check(imp.tree.AppendChild(RootKey, p.Key))
	}
	if imp.err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidState, imp.err)
	}
	if err := imp.tree.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidState, err)
	}
	return imp.tree, nil
}

type jsonImporter struct {
	tree *Tree
	err  error // first failed tree operation
}

func (imp *jsonImporter) check(err error) {
	if imp.err == nil {
		imp.err = err
	}
}

func (imp *jsonImporter) appendBlock(proto Node, inline []SerializedNode) {
	b := imp.tree.Create(proto)
	imp.check(imp.tree.AppendChild(RootKey, b.Key))
	imp.inline(b.Key, inline)
}

func (imp *jsonImporter) block(node SerializedNode) {
	switch node.Type {
	case "paragraph":
		imp.appendBlock(Paragraph(), node.Children)

	case "heading":
		level := 1
		if len(node.Tag) == 2 && node.Tag[0] == 'h' && node.Tag[1] >= '1' && node.Tag[1] <= '6' {
			level = int(node.Tag[1] - '0')
		}
		imp.appendBlock(Heading(level), node.Children)

	case "quote":
		imp.appendBlock(Quote(), node.Children)

	case "list":
		l := imp.list(node)
		imp.check(imp.tree.AppendChild(RootKey, l))

	case "code":
		p := imp.tree.Create(Paragraph())
		imp.check(imp.tree.AppendChild(RootKey, p.Key))
		if text := serializedText(node); text != "" {
			c := imp.tree.Create(Code(text))
			imp.check(imp.tree.AppendChild(p.Key, c.Key))
		}

	case "table":
		for _, row := range node.Children {
			if row.Type != "tablerow" {
				continue
			}
			cells := make([]string, 0, len(row.Children))
			for _, cell := range row.Children {
				cells = append(cells, strings.ReplaceAll(serializedText(cell), "\n", " "))
			}
			p := imp.tree.Create(Paragraph())
			imp.check(imp.tree.AppendChild(RootKey, p.Key))
			imp.check(imp.tree.AppendText(p.Key, strings.Join(cells, " | "), 0))
		}

	case "horizontalrule":

	default:
		if isSerializedInline(node) {
			imp.appendBlock(Paragraph(), []SerializedNode{node})
			return
		}
		for _, child := range node.Children {
			imp.block(child)
		}
	}
}

func (imp *jsonImporter) list(node SerializedNode) NodeKey {
	l := imp.tree.Create(List(node.ListType == "number" || node.Tag == "ol"))
	var prev NodeKey
	for _, child := range node.Children {
		if child.Type != "listitem" {
			continue
		}
		// Lexical nests a list as an item whose only child is the list.
		if prev != 0 && onlyLists(child) {
			for _, nested := range child.Children {
				imp.check(imp.tree.AppendChild(prev, imp.list(nested)))
			}
			continue
		}
		item := imp.tree.Create(ListItem())
		imp.check(imp.tree.AppendChild(l.Key, item.Key))
		for _, gc := range child.Children {
			switch gc.Type {
			case "list":
				imp.check(imp.tree.AppendChild(item.Key, imp.list(gc)))
			case "paragraph", "heading", "quote":
				p := imp.tree.Create(Paragraph())
				imp.check(imp.tree.AppendChild(item.Key, p.Key))
				imp.inline(p.Key, gc.Children)
			default:
				imp.inline(item.Key, []SerializedNode{gc})
			}
		}
		prev = item.Key
	}
	return l.Key
}

func (imp *jsonImporter) inline(parent NodeKey, nodes []SerializedNode) {
	for _, node := range nodes {
		switch node.Type {
		case "text", "code-highlight":
			f := node.textFormat()
			if f.Has(FormatCode) {
				if node.Text != "" {
					c := imp.tree.Create(Code(node.Text))
					imp.check(imp.tree.AppendChild(parent, c.Key))
				}
				continue
			}
			imp.check(imp.tree.AppendText(parent, node.Text, f))
		case "linebreak":
			imp.check(imp.tree.AppendText(parent, "\n", 0))
		case "tab":
			imp.check(imp.tree.AppendText(parent, "\t", 0))
		case "link", "autolink":
			if imp.tree.Node(parent).Kind == KindLink {
				imp.inline(parent, node.Children)
				continue
			}
			l := imp.tree.Create(Link(node.URL))
			imp.check(imp.tree.AppendChild(parent, l.Key))
			imp.inline(l.Key, node.Children)
			if len(imp.tree.Node(l.Key).Children) == 0 {
				imp.check(imp.tree.Remove(l.Key))
			}
		default:
			imp.inline(parent, node.Children)
		}
	}
}

// AppendText adds text at the end of parent, extending the last child when it
// is a text leaf of the same format. Empty text is ignored.
func (t *Tree) AppendText(parent NodeKey, text string, format Format) error {
	if text == "" {
		return nil
	}
	p, err := t.get(parent)
	if err != nil {
		return err
	}
	format &= Marks
	if n := len(p.Children); n > 0 {
		last := t.nodes[p.Children[n-1]]
		if last.Kind == KindText && last.Format == format {
			last.Text += text
			return nil
		}
	}
	leaf := t.Create(Text(text, format))
	if err := t.AppendChild(parent, leaf.Key); err != nil {
		delete(t.nodes, leaf.Key)
		return err
	}
	return nil
}

func onlyLists(node SerializedNode) bool {
	if len(node.Children) == 0 {
		return false
	}
	for _, c := range node.Children {
		if c.Type != "list" {
			return false
		}
	}
	return true
}

func isSerializedInline(node SerializedNode) bool {
	switch node.Type {
	case "text", "linebreak", "tab", "link", "autolink", "code-highlight":
		return true
	}
	return false
}

func serializedText(node SerializedNode) string {
	switch node.Type {
	case "text", "code-highlight":
		return node.Text
	case "linebreak":
		return "\n"
	case "tab":
		return "\t"
	}
	var sb strings.Builder
	for _, c := range node.Children {
		sb.WriteString(serializedText(c))
	}
	return sb.String()
}

// ExportJSON encodes t in the serialized Lexical shape.
func ExportJSON(t *Tree) ([]byte, error) {
	st := SerializedState{Root: exportNode(t, t.Root(), 0)}
	return json.Marshal(st)
}

func exportNode(t *Tree, n *Node, index int) SerializedNode {
	out := SerializedNode{Type: n.Kind.String(), Version: 1}
	if n.Kind.IsLeaf() {
		out.Type = "text"
		out.Text = n.Text
		out.Mode = "normal"
		format := int(n.Format)
		if n.Kind == KindCode {
			format = int(FormatCode)
		}
		out.Format = format
		return out
	}

	out.Format = ""
	out.Direction = "ltr"
	switch n.Kind {
	case KindHeading:
		out.Tag = fmt.Sprintf("h%d", n.Level)
	case KindList:
		out.ListType, out.Tag = "bullet", "ul"
		if n.Ordered {
			out.ListType, out.Tag = "number", "ol"
		}
		out.Start = 1
	case KindListItem:
		out.Value = index + 1
	case KindLink:
		out.URL = n.URL
	}
	out.Children = make([]SerializedNode, 0, len(n.Children))
	for i, c := range n.Children {
		out.Children = append(out.Children, exportNode(t, t.nodes[c], i))
	}
	return out
}
