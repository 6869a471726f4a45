package markdown

import (
	"regexp"
	"strings"

	"content-editor-be/pkg/lexical"
)

var (
	headingLine = regexp.MustCompile(`^(#{1,6})(?:[ \t]+(.*))?$`)
	quoteLine   = regexp.MustCompile(`^>[ ]?(.*)$`)
	listLine    = regexp.MustCompile(`^( *)([-*+]|\d+[.)])(?:[ \t]+(.*))?$`)
)

// Importer builds a tree from markdown, one line at a time.
type Importer struct {
	tree  *lexical.Tree
	quote []string
	lists []openList
}

type openList struct {
	key    lexical.NodeKey
	indent int
}

func NewImporter() *Importer {
	return &Importer{}
}

// Import is a convenience wrapper around Importer.Import.
func Import(md string) *lexical.Tree {
	return NewImporter().Import(md)
}

// Import parses md. Blank lines end quotes and lists; consecutive quote lines
// form one quote; indentation of two spaces nests a list item under the one
// before it. Anything else is a paragraph per line. Unsupported syntax is kept
// as literal text.
func (im *Importer) Import(md string) *lexical.Tree {
	im.tree = lexical.NewTree()
	im.quote = nil
	im.lists = nil

	md = strings.ReplaceAll(md, "\r\n", "\n")
	for _, line := range strings.Split(md, "\n") {
		if strings.TrimSpace(line) == "" {
			im.closeQuote()
			im.closeList()
			continue
		}

		if m := listLine.FindStringSubmatch(line); m != nil {
			im.closeQuote()
			im.listItem(len(m[1]), m[2] != "-" && m[2] != "*" && m[2] != "+", m[3])
			continue
		}
		im.closeList()

		if m := quoteLine.FindStringSubmatch(line); m != nil {
			im.quote = append(im.quote, m[1])
			continue
		}
		im.closeQuote()

		trimmed := strings.TrimLeft(line, " \t")
		if m := headingLine.FindStringSubmatch(trimmed); m != nil {
			im.block(lexical.Heading(len(m[1])), strings.TrimRight(m[2], " \t"))
			continue
		}
		im.block(lexical.Paragraph(), trimmed)
	}
	im.closeQuote()
	im.closeList()

	if len(im.tree.Root().Children) == 0 {
		im.block(lexical.Paragraph(), "")
	}
	return im.tree
}

func (im *Importer) block(proto lexical.Node, content string) {
	b := im.tree.Create(proto)
	must(im.tree.AppendChild(lexical.RootKey, b.Key))
	appendInline(im.tree, b.Key, content)
}

func (im *Importer) closeQuote() {
	if im.quote == nil {
		return
	}
	im.block(lexical.Quote(), strings.Join(im.quote, "\n"))
	im.quote = nil
}

func (im *Importer) closeList() {
	im.lists = nil
}

func (im *Importer) listItem(indent int, ordered bool, content string) {
	for len(im.lists) > 1 && indent < im.lists[len(im.lists)-1].indent {
		im.lists = im.lists[:len(im.lists)-1]
	}

	switch {
	case len(im.lists) == 0:
		im.openList(lexical.RootKey, ordered, indent)

	case indent > im.lists[len(im.lists)-1].indent+1:
		top := im.tree.Node(im.lists[len(im.lists)-1].key)
		parentItem := top.Children[len(top.Children)-1]
		im.openList(parentItem, ordered, indent)

	case im.tree.Node(im.lists[len(im.lists)-1].key).Ordered != ordered:
		// A change of marker at the same depth starts a sibling list.
		parent := im.tree.Node(im.lists[len(im.lists)-1].key).Parent
		im.lists = im.lists[:len(im.lists)-1]
		im.openList(parent, ordered, indent)
	}

	top := im.lists[len(im.lists)-1]
	item := im.tree.Create(lexical.ListItem())
	must(im.tree.AppendChild(top.key, item.Key))
	appendInline(im.tree, item.Key, content)
}

func (im *Importer) openList(parent lexical.NodeKey, ordered bool, indent int) {
	l := im.tree.Create(lexical.List(ordered))
	must(im.tree.AppendChild(parent, l.Key))
	im.lists = append(im.lists, openList{key: l.Key, indent: indent})
}
