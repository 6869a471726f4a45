package markdown

import (
	"math/bits"
	"strings"
	"unicode"

	"content-editor-be/pkg/lexical"
)

type tokenKind int

const (
	tokText tokenKind = iota
	tokStar
	tokUnder
	tokUOpen
	tokUClose
	tokCode
	tokLinkOpen
	tokLinkClose
)

type token struct {
	kind tokenKind
	text string // literal text, the code span, or the raw delimiter
	n    int    // delimiter run length
	url  string
}

func lexInline(s []rune, allowLinks bool) []token {
	var out []token
	literal := func(text string) {
		if k := len(out) - 1; k >= 0 && out[k].kind == tokText {
			out[k].text += text
			return
		}
		out = append(out, token{kind: tokText, text: text})
	}

	for i := 0; i < len(s); {
		c := s[i]
		switch {
		case c == '\\' && i+1 < len(s) && isEscapable(s[i+1]):
			literal(string(s[i+1]))
			i += 2

		case c == '`':
			end := indexRune(s, '`', i+1)
			if end < 0 {
				literal("`")
				i++
				continue
			}
			out = append(out, token{kind: tokCode, text: string(s[i+1 : end])})
			i = end + 1

		case c == '*' || c == '_':
			n := 1
			for i+n < len(s) && s[i+n] == c {
				n++
			}
			run := strings.Repeat(string(c), n)
			// Underscores inside a word are literal.
			if c == '_' && i > 0 && i+n < len(s) && isWordRune(s[i-1]) && isWordRune(s[i+n]) {
				literal(run)
			} else if c == '*' {
				out = append(out, token{kind: tokStar, text: run, n: n})
			} else {
				out = append(out, token{kind: tokUnder, text: run, n: n})
			}
			i += n

		case hasPrefix(s[i:], "&#32;"):
			literal(" ")
			i += 5

		case hasPrefix(s[i:], "&#9;"):
			literal("\t")
			i += 4

		case hasPrefix(s[i:], "<u>"):
			out = append(out, token{kind: tokUOpen, text: "<u>"})
			i += 3

		case hasPrefix(s[i:], "</u>"):
			out = append(out, token{kind: tokUClose, text: "</u>"})
			i += 4

		case c == '[' && allowLinks:
			inner, url, next, ok := scanLink(s, i)
			if !ok {
				literal("[")
				i++
				continue
			}
			out = append(out, token{kind: tokLinkOpen, url: url})
			out = append(out, lexInline(inner, false)...)
			out = append(out, token{kind: tokLinkClose})
			i = next

		default:
			literal(string(c))
			i++
		}
	}
	return out
}

// scanLink matches [text](url) starting at s[i] == '['. The destination is
// either wrapped in angle brackets or runs to the ')' that balances the
// opening parenthesis.
func scanLink(s []rune, i int) (inner []rune, url string, next int, ok bool) {
	k := i + 1
	for ; k < len(s); k++ {
		if s[k] == '\\' {
			k++
			continue
		}
		if s[k] == '[' || s[k] == '\n' {
			return nil, "", 0, false
		}
		if s[k] == ']' {
			break
		}
	}
	if k+1 >= len(s) || s[k] != ']' || s[k+1] != '(' {
		return nil, "", 0, false
	}
	dest, end, ok := scanDestination(s, k+2)
	if !ok {
		return nil, "", 0, false
	}
	return s[i+1 : k], dest, end + 1, true
}

// scanDestination reads a link destination starting at s[from] and returns
// it with the index of the closing ')'.
func scanDestination(s []rune, from int) (string, int, bool) {
	if from < len(s) && s[from] == '<' {
		end := indexRune(s, '>', from+1)
		if end < 0 || end+1 >= len(s) || s[end+1] != ')' {
			return "", 0, false
		}
		return string(s[from+1 : end]), end + 1, true
	}
	depth := 0
	for k := from; k < len(s); k++ {
		switch s[k] {
		case '\\':
			k++
		case '\n':
			return "", 0, false
		case '(':
			depth++
		case ')':
			if depth == 0 {
				return strings.TrimSpace(string(s[from:k])), k, true
			}
			depth--
		}
	}
	return "", 0, false
}

type segmentKind int

const (
	segText segmentKind = iota
	segCode
	segLinkStart
	segLinkEnd
)

type segment struct {
	kind   segmentKind
	text   string
	format lexical.Format
	url    string
}

const emphasis = lexical.FormatBold | lexical.FormatItalic

// delimiterCost is the number of '*' needed to open or close the marks in f.
func delimiterCost(f lexical.Format) int {
	cost := 0
	if f.Has(lexical.FormatBold) {
		cost += 2
	}
	if f.Has(lexical.FormatItalic) {
		cost++
	}
	return cost
}

// resolveRun decides what a run of n emphasis delimiters does given the marks
// already open: it first closes some open marks, then opens some. An option
// whose closes and opens cancel out is taken only when nothing else fits;
// otherwise the option touching the fewest marks wins, preferring closes on
// ties.
func resolveRun(open lexical.Format, n int) (closed, opened lexical.Format, ok bool) {
	subsets := []lexical.Format{emphasis, lexical.FormatBold, lexical.FormatItalic, 0}
	best := -1
	for _, c := range subsets {
		if c&open != c {
			continue
		}
		for _, o := range subsets {
			if o&(open&^c) != 0 {
				continue
			}
			if delimiterCost(c)+delimiterCost(o) != n {
				continue
			}
			ops := bits.OnesCount8(uint8(c)) + bits.OnesCount8(uint8(o))
			if c == o {
				ops += 8
			}
			if best < 0 || ops < best {
				best, closed, opened, ok = ops, c, o, true
			}
		}
	}
	return closed, opened, ok
}

// interpret turns tokens into formatted segments. Tokens listed in literal are
// treated as plain text. The second result is the index of the delimiter that
// opened a mark never closed, or -1.
func interpret(tokens []token, literal map[int]bool) ([]segment, int) {
	var out []segment
	var format lexical.Format
	openedAt := map[lexical.Format]int{}

	text := func(s string) {
		if k := len(out) - 1; k >= 0 && out[k].kind == segText && out[k].format == format {
			out[k].text += s
			return
		}
		out = append(out, segment{kind: segText, text: s, format: format})
	}

	for i, tok := range tokens {
		if literal[i] {
			text(tok.text)
			continue
		}
		switch tok.kind {
		case tokText:
			text(tok.text)

		case tokStar, tokUnder:
			closed, opened, ok := resolveRun(format&emphasis, tok.n)
			if !ok {
				text(tok.text)
				continue
			}
			for _, mark := range []lexical.Format{lexical.FormatBold, lexical.FormatItalic} {
				if closed.Has(mark) {
					delete(openedAt, mark)
				}
				if opened.Has(mark) {
					openedAt[mark] = i
				}
			}
			format = (format &^ closed) | opened

		case tokUOpen:
			if format.Has(lexical.FormatUnderline) {
				text(tok.text)
				continue
			}
			format |= lexical.FormatUnderline
			openedAt[lexical.FormatUnderline] = i

		case tokUClose:
			if !format.Has(lexical.FormatUnderline) {
				text(tok.text)
				continue
			}
			format &^= lexical.FormatUnderline
			delete(openedAt, lexical.FormatUnderline)

		case tokCode:
			out = append(out, segment{kind: segCode, text: tok.text})

		case tokLinkOpen:
			out = append(out, segment{kind: segLinkStart, url: tok.url})

		case tokLinkClose:
			out = append(out, segment{kind: segLinkEnd})
		}
	}

	unclosed := -1
	for _, at := range openedAt {
		unclosed = max(unclosed, at)
	}
	return out, unclosed
}

// parseInline resolves s into segments, demoting unmatched delimiters to text.
func parseInline(s string) []segment {
	tokens := lexInline([]rune(s), true)
	literal := map[int]bool{}
	for {
		segs, unclosed := interpret(tokens, literal)
		if unclosed < 0 {
			return segs
		}
		literal[unclosed] = true
	}
}

// appendInline parses s and appends the resulting nodes under parent.
func appendInline(t *lexical.Tree, parent lexical.NodeKey, s string) {
	cur := parent
	for _, seg := range parseInline(s) {
		switch seg.kind {
		case segText:
			must(t.AppendText(cur, seg.text, seg.format))
		case segCode:
			if seg.text == "" {
				continue
			}
			c := t.Create(lexical.Code(seg.text))
			must(t.AppendChild(cur, c.Key))
		case segLinkStart:
			l := t.Create(lexical.Link(seg.url))
			must(t.AppendChild(parent, l.Key))
			cur = l.Key
		case segLinkEnd:
			if len(t.Node(cur).Children) == 0 {
				must(t.Remove(cur))
			}
			cur = parent
		}
	}
}

// must panics when building the tree fails. Parsed segments always fit the
// schema, so an error here is a bug.
func must(err error) {
	if err != nil {
		panic(err)
	}
}

func isEscapable(r rune) bool {
	return r < unicode.MaxASCII && (unicode.IsPunct(r) || unicode.IsSymbol(r))
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}

func indexRune(s []rune, r rune, from int) int {
	for i := from; i < len(s); i++ {
		if s[i] == r {
			return i
		}
	}
	return -1
}

func hasPrefix(s []rune, prefix string) bool {
	p := []rune(prefix)
	if len(s) < len(p) {
		return false
	}
	for i := range p {
		if s[i] != p[i] {
			return false
		}
	}
	return true
}
