package editor

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"content-editor-be/pkg/lexical"
)

// RegisterMarkdownShortcuts installs an INSERT_TEXT handler above the
// built-in one that turns markdown typed into a paragraph into structure:
// "# " through "###### ", "> ", "- ", "* ", "+ " and "1. " at the start of a
// top-level paragraph change the block, and a closing "**", "__", "*" or "_"
// formats the text back to its opening delimiter. Typing that matches no
// shortcut falls through to the plain insert.
func RegisterMarkdownShortcuts(e *Editor) func() {
	return e.RegisterCommand(CommandInsertText, PriorityLow, markdownShortcut)
}

type blockShortcut struct {
	pattern *regexp.Regexp
	apply   func(tx *Txn, block lexical.NodeKey, m []string) error
}

var blockShortcuts = []blockShortcut{
	{
		pattern: regexp.MustCompile(`^(#{1,6}) $`),
		apply: func(tx *Txn, block lexical.NodeKey, m []string) error {
			return tx.Retype(block, lexical.Heading(len(m[1])))
		},
	},
	{
		pattern: regexp.MustCompile(`^> $`),
		apply: func(tx *Txn, block lexical.NodeKey, _ []string) error {
			return tx.Retype(block, lexical.Quote())
		},
	},
	{
		pattern: regexp.MustCompile(`^[-*+] $`),
		apply: func(tx *Txn, _ lexical.NodeKey, _ []string) error {
			_, err := insertList(tx, false)
			return err
		},
	},
	{
		pattern: regexp.MustCompile(`^\d+\. $`),
		apply: func(tx *Txn, _ lexical.NodeKey, _ []string) error {
			_, err := insertList(tx, true)
			return err
		},
	},
}

type formatShortcut struct {
	pattern *regexp.Regexp
	mark    lexical.Format
	width   int // delimiter length
}

// Bold comes first so "**x**" is not read as italic around "*x*".
var formatShortcuts = []formatShortcut{
	{pattern: regexp.MustCompile(`(?:^|[^*])(\*\*)([^*\s](?:[^*]*[^*\s])?)\*\*$`), mark: lexical.FormatBold, width: 2},
	{pattern: regexp.MustCompile(`(?:^|\s)(__)([^_\s](?:[^_]*[^_\s])?)__$`), mark: lexical.FormatBold, width: 2},
	{pattern: regexp.MustCompile(`(?:^|[^*])(\*)([^*\s](?:[^*]*[^*\s])?)\*$`), mark: lexical.FormatItalic, width: 1},
	{pattern: regexp.MustCompile(`(?:^|\s)(_)([^_\s](?:[^_]*[^_\s])?)_$`), mark: lexical.FormatItalic, width: 1},
}

func markdownShortcut(tx *Txn, payload any) (bool, error) {
	text, ok := payload.(string)
	if !ok || text == "" || strings.ContainsAny(text, "\r\n") {
		return false, nil
	}
	last, _ := utf8.DecodeLastRuneInString(text)
	if last != ' ' && last != '*' && last != '_' {
		return false, nil
	}

	if handled, err := insertText(tx, payload); !handled || err != nil {
		return false, err
	}

	leaf, before, ok := tx.textBeforeCaret()
	if !ok {
		return false, nil
	}
	if last == ' ' {
		return tx.applyBlockShortcut(leaf, before)
	}
	return tx.applyFormatShortcut(leaf, before)
}

// textBeforeCaret returns the text leaf under a collapsed caret and the part
// of its text before the caret.
func (tx *Txn) textBeforeCaret() (*lexical.Node, string, bool) {
	if !tx.sel.IsCollapsed() {
		return nil, "", false
	}
	p := tx.tree.Descend(tx.sel.Anchor)
	n := tx.tree.Node(p.Key)
	if n == nil || n.Kind != lexical.KindText {
		return nil, "", false
	}
	return n, string([]rune(n.Text)[:p.Offset]), true
}

func (tx *Txn) applyBlockShortcut(leaf *lexical.Node, before string) (bool, error) {
	block := tx.tree.Node(leaf.Parent)
	if block.Kind != lexical.KindParagraph || block.Parent != lexical.RootKey || tx.tree.IndexOf(leaf.Key) != 0 {
		return false, nil
	}
	for _, sc := range blockShortcuts {
		m := sc.pattern.FindStringSubmatch(before)
		if m == nil {
			continue
		}
		rest := string([]rune(leaf.Text)[utf8.RuneCountInString(before):])
		if err := tx.SetText(leaf.Key, rest); err != nil {
			return false, err
		}
		tx.collapse(lexical.Point{Key: leaf.Key})
		if err := sc.apply(tx, block.Key, m); err != nil {
			return false, err
		}
		return true, nil
	}
	return false, nil
}

func (tx *Txn) applyFormatShortcut(leaf *lexical.Node, before string) (bool, error) {
	for _, sc := range formatShortcuts {
		m := sc.pattern.FindStringSubmatchIndex(before)
		if m == nil {
			continue
		}
		open := utf8.RuneCountInString(before[:m[2]])
		content := utf8.RuneCountInString(before[m[4]:m[5]])
		caret := utf8.RuneCountInString(before)

		runes := []rune(leaf.Text)
		text := string(runes[:open]) + string(runes[open+sc.width:open+sc.width+content]) + string(runes[caret:])
		if err := tx.SetText(leaf.Key, text); err != nil {
			return false, err
		}

		format := leaf.Format
		tx.sel = lexical.Range(lexical.Point{Key: leaf.Key, Offset: open}, lexical.Point{Key: leaf.Key, Offset: open + content})
		if err := tx.splitAtSelection(); err != nil {
			return false, err
		}
		for _, r := range tx.tree.Covered(tx.sel) {
			if err := tx.SetFormat(r.Node.Key, r.Node.Format|sc.mark); err != nil {
				return false, err
			}
		}
		_, end := tx.tree.Ordered(tx.sel)
		tx.sel = lexical.Selection{Anchor: end, Focus: end, Format: format}
		return true, nil
	}
	return false, nil
}
