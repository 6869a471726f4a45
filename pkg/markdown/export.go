// Package markdown converts editor trees to and from the markdown subset the
// editor supports: headings, quotes, bullet and numbered lists, bold, italic,
// underline, inline code and links.
package markdown

import (
	"fmt"
	"regexp"
	"slices"
	"strings"

	"content-editor-be/pkg/lexical"
)

// Exporter walks a tree and writes markdown.
type Exporter struct{}

func NewExporter() *Exporter {
	return &Exporter{}
}

// Export is a convenience wrapper around Exporter.Export.
func Export(t *lexical.Tree) string {
	return NewExporter().Export(t)
}

// Export serializes t. Top-level blocks are separated by a blank line and
// empty paragraphs are skipped.
func (e *Exporter) Export(t *lexical.Tree) string {
	blocks := make([]string, 0, len(t.Root().Children))
	for _, key := range t.Root().Children {
		if out := e.block(t, t.Node(key)); out != "" {
			blocks = append(blocks, out)
		}
	}
	return strings.Join(blocks, "\n\n")
}

func (e *Exporter) block(t *lexical.Tree, n *lexical.Node) string {
	switch n.Kind {
	case lexical.KindParagraph:
		return escapeLineStart(flatten(e.inline(t, n.Children)))

	case lexical.KindHeading:
		content := escapeEdgeSpace(flatten(e.inline(t, n.Children)))
		marker := strings.Repeat("#", n.Level)
		if content == "" {
			return marker
		}
		return marker + " " + content

	case lexical.KindQuote:
		lines := strings.Split(e.inline(t, n.Children), "\n")
		for i, line := range lines {
			if line == "" {
				lines[i] = ">"
				continue
			}
			lines[i] = "> " + escapeLineStart(line)
		}
		return strings.Join(lines, "\n")

	case lexical.KindList:
		var sb strings.Builder
		e.list(t, n, &sb, 0)
		return strings.TrimSuffix(sb.String(), "\n")
	}
	return ""
}

func (e *Exporter) list(t *lexical.Tree, n *lexical.Node, sb *strings.Builder, depth int) {
	index := 1
	for _, key := range n.Children {
		item := t.Node(key)
		if item.Kind != lexical.KindListItem {
			continue
		}

		// Indentation for nested lists (2 spaces per depth level)
		sb.WriteString(strings.Repeat("  ", depth))
		if n.Ordered {
			sb.WriteString(fmt.Sprintf("%d.", index))
			index++
		} else {
			sb.WriteString("-")
		}

		var content strings.Builder
		var nested []*lexical.Node
		var inline []lexical.NodeKey
		for _, ck := range item.Children {
			child := t.Node(ck)
			switch child.Kind {
			case lexical.KindList:
				nested = append(nested, child)
			case lexical.KindParagraph:
				inline = append(inline, child.Children...)
			default:
				inline = append(inline, ck)
			}
		}
		content.WriteString(flatten(e.inline(t, inline)))
		if content.Len() > 0 {
			sb.WriteString(" ")
			sb.WriteString(escapeLineStart(content.String()))
		}
		sb.WriteString("\n")

		for _, child := range nested {
			e.list(t, child, sb, depth+1)
		}
	}
}

// inline renders a run of inline siblings. Bold and italic stay open across
// adjacent text leaves that share them, so a delimiter run never closes and
// reopens the same mark; underline is written as <u> tags around it. Code
// spans and links start with every mark closed.
func (e *Exporter) inline(t *lexical.Tree, keys []lexical.NodeKey) string {
	w := &markWriter{}
	for i, key := range keys {
		n := t.Node(key)
		switch n.Kind {
		case lexical.KindText:
			w.transition(n.Format, persistence(t, keys[i:]))
			w.sb.WriteString(escapeText(n.Text))
		case lexical.KindCode:
			w.transition(0, nil)
			w.sb.WriteString("`")
			w.sb.WriteString(n.Text)
			w.sb.WriteString("`")
		case lexical.KindLink:
			w.transition(0, nil)
			w.sb.WriteString("[")
			w.sb.WriteString(e.inline(t, n.Children))
			w.sb.WriteString("](")
			w.sb.WriteString(linkDestination(n.URL))
			w.sb.WriteString(")")
		}
	}
	w.transition(0, nil)
	return w.sb.String()
}

// markWriter tracks which marks are open, innermost last.
type markWriter struct {
	sb        strings.Builder
	stack     []lexical.Format
	underline bool
}

// transition closes and opens marks so that exactly want is in effect. When
// a mark below the top of the stack ends, the marks above it are closed and
// reopened. Marks opened together are nested by how long they last, longest
// outside. All '*' delimiters of one transition form a single run.
func (w *markWriter) transition(want lexical.Format, lasts map[lexical.Format]int) {
	cut := len(w.stack)
	for i, mark := range w.stack {
		if !want.Has(mark) {
			cut = i
			break
		}
	}

	var run strings.Builder
	for i := len(w.stack) - 1; i >= cut; i-- {
		run.WriteString(delimiter(w.stack[i]))
	}
	w.stack = w.stack[:cut]

	var opening []lexical.Format
	for _, mark := range []lexical.Format{lexical.FormatBold, lexical.FormatItalic} {
		if want.Has(mark) && !slices.Contains(w.stack, mark) {
			opening = append(opening, mark)
		}
	}
	slices.SortStableFunc(opening, func(a, b lexical.Format) int { return lasts[b] - lasts[a] })
	for _, mark := range opening {
		run.WriteString(delimiter(mark))
		w.stack = append(w.stack, mark)
	}

	if w.underline && !want.Has(lexical.FormatUnderline) {
		w.sb.WriteString("</u>")
		w.underline = false
	}
	w.sb.WriteString(run.String())
	if !w.underline && want.Has(lexical.FormatUnderline) {
		w.sb.WriteString("<u>")
		w.underline = true
	}
}

func delimiter(mark lexical.Format) string {
	if mark == lexical.FormatBold {
		return "**"
	}
	return "*"
}

// persistence counts, for bold and italic, how many consecutive text leaves
// from the start of keys carry the mark.
func persistence(t *lexical.Tree, keys []lexical.NodeKey) map[lexical.Format]int {
	lasts := map[lexical.Format]int{}
	for _, mark := range []lexical.Format{lexical.FormatBold, lexical.FormatItalic} {
		for _, key := range keys {
			n := t.Node(key)
			if n.Kind != lexical.KindText || !n.Format.Has(mark) {
				break
			}
			lasts[mark]++
		}
	}
	return lasts
}

// linkDestination writes url so that the importer reads it back whole. A URL
// with unbalanced parentheses, whitespace or backslashes is wrapped in angle
// brackets.
func linkDestination(url string) string {
	depth, balanced := 0, true
	for _, r := range url {
		switch r {
		case '(':
			depth++
		case ')':
			depth--
			if depth < 0 {
				balanced = false
			}
		}
	}
	if balanced && depth == 0 && !strings.ContainsAny(url, " \t<>\\") {
		return url
	}
	return "<" + strings.NewReplacer("<", "%3C", ">", "%3E").Replace(url) + ">"
}

var textEscaper = strings.NewReplacer(
	`\`, `\\`,
	"*", `\*`,
	"_", `\_`,
	"`", "\\`",
	"&", `\&`,
	"[", `\[`,
	"]", `\]`,
	"<", `\<`,
	">", `\>`,
	"#", `\#`,
)

func escapeText(s string) string {
	return textEscaper.Replace(s)
}

var (
	bulletMarker  = regexp.MustCompile(`^[-+](\s|$)`)
	orderedMarker = regexp.MustCompile(`^(\d+)[.)](\s|$)`)
)

// escapeLineStart protects content that would otherwise parse as a block
// marker or lose its leading whitespace on import.
func escapeLineStart(s string) string {
	switch {
	case strings.HasPrefix(s, " "):
		return "&#32;" + s[1:]
	case strings.HasPrefix(s, "\t"):
		return "&#9;" + s[1:]
	case strings.HasPrefix(s, "* "):
		return "*&#32;" + s[2:]
	case strings.HasPrefix(s, "*\t"):
		return "*&#9;" + s[2:]
	case bulletMarker.MatchString(s):
		return `\` + s
	case orderedMarker.MatchString(s):
		m := orderedMarker.FindStringSubmatchIndex(s)
		return s[:m[3]] + `\` + s[m[3]:]
	}
	return s
}

// escapeEdgeSpace keeps leading and trailing whitespace of heading text.
func escapeEdgeSpace(s string) string {
	s = escapeLineStart(s)
	switch {
	case strings.HasSuffix(s, " "):
		return s[:len(s)-1] + "&#32;"
	case strings.HasSuffix(s, "\t"):
		return s[:len(s)-1] + "&#9;"
	}
	return s
}

// flatten replaces line breaks where a block cannot hold them.
func flatten(s string) string {
	return strings.ReplaceAll(s, "\n", " ")
}
