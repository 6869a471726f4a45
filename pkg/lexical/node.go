package lexical

import "unicode/utf8"

// NodeKey identifies a node inside one Tree. Keys are never reused within a tree.
type NodeKey int

// RootKey is the key of the root node of every tree.
const RootKey NodeKey = 1

// Kind is the closed set of node variants the editor understands.
type Kind uint8

const (
	KindRoot Kind = iota
	KindParagraph
	KindHeading
	KindQuote
	KindList
	KindListItem
	KindText
	KindCode
	KindLink
)

var kindNames = map[Kind]string{
	KindRoot:      "root",
	KindParagraph: "paragraph",
	KindHeading:   "heading",
	KindQuote:     "quote",
	KindList:      "list",
	KindListItem:  "listitem",
	KindText:      "text",
	KindCode:      "code",
	KindLink:      "link",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown"
}

// IsLeaf reports whether nodes of this kind carry text instead of children.
func (k Kind) IsLeaf() bool {
	return k == KindText || k == KindCode
}

// IsInline reports whether the kind lives inside a block.
func (k Kind) IsInline() bool {
	return k == KindText || k == KindCode || k == KindLink
}

// IsTextBlock reports whether the kind is a block whose content is inline nodes.
func (k Kind) IsTextBlock() bool {
	return k == KindParagraph || k == KindHeading || k == KindQuote || k == KindListItem
}

// schema lists the kinds each element accepts as children.
var schema = map[Kind][]Kind{
	KindRoot:      {KindParagraph, KindHeading, KindQuote, KindList},
	KindParagraph: {KindText, KindCode, KindLink},
	KindHeading:   {KindText, KindCode, KindLink},
	KindQuote:     {KindText, KindCode, KindLink},
	KindList:      {KindListItem},
	KindListItem:  {KindText, KindCode, KindLink, KindList, KindParagraph},
	KindLink:      {KindText, KindCode},
}

// Allows reports whether a node of kind child may be a direct child of parent.
func Allows(parent, child Kind) bool {
	for _, k := range schema[parent] {
		if k == child {
			return true
		}
	}
	return false
}

// Format is the inline mark bitmask carried by text leaves.
type Format uint8

// Bit values match the Lexical text format field.
const (
	FormatBold          Format = 1
	FormatItalic        Format = 1 << 1
	FormatStrikethrough Format = 1 << 2
	FormatUnderline     Format = 1 << 3
	FormatCode          Format = 1 << 4
)

// Marks is the subset of formats the editor toggles.
const Marks = FormatBold | FormatItalic | FormatUnderline

func (f Format) Has(mark Format) bool {
	return f&mark == mark
}

func (f Format) Toggle(mark Format) Format {
	return f ^ mark
}

// Names returns the lower-case mark names set in f, in wrap order.
func (f Format) Names() []string {
	names := make([]string, 0, 3)
	if f.Has(FormatBold) {
		names = append(names, "bold")
	}
	if f.Has(FormatItalic) {
		names = append(names, "italic")
	}
	if f.Has(FormatUnderline) {
		names = append(names, "underline")
	}
	return names
}

// ParseMark maps a mark name to its bit. The second result is false for unknown names.
func ParseMark(name string) (Format, bool) {
	switch name {
	case "bold":
		return FormatBold, true
	case "italic":
		return FormatItalic, true
	case "underline":
		return FormatUnderline, true
	}
	return 0, false
}

// Node is a single element or leaf. Only the fields relevant to Kind are meaningful.
type Node struct {
	Key      NodeKey
	Kind     Kind
	Parent   NodeKey
	Children []NodeKey

	Level   int    // heading
	Ordered bool   // list
	Text    string // text, code
	Format  Format // text
	URL     string // link
}

// Size is the rune length of a leaf or the child count of an element.
func (n *Node) Size() int {
	if n.Kind.IsLeaf() {
		return utf8.RuneCountInString(n.Text)
	}
	return len(n.Children)
}

func (n *Node) clone() *Node {
	c := *n
	if n.Children != nil {
		c.Children = append([]NodeKey(nil), n.Children...)
	}
	return &c
}

// Paragraph, Heading and the helpers below build detached node prototypes for Tree.Create.

func Paragraph() Node { return Node{Kind: KindParagraph} }

func Heading(level int) Node { return Node{Kind: KindHeading, Level: level} }

func Quote() Node { return Node{Kind: KindQuote} }

func List(ordered bool) Node { return Node{Kind: KindList, Ordered: ordered} }

func ListItem() Node { return Node{Kind: KindListItem} }

func Text(text string, format Format) Node {
	return Node{Kind: KindText, Text: text, Format: format & Marks}
}

func Code(text string) Node { return Node{Kind: KindCode, Text: text} }

func Link(url string) Node { return Node{Kind: KindLink, URL: url} }
