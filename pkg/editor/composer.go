package editor

import (
	"content-editor-be/pkg/lexical"
	"content-editor-be/pkg/markdown"
)

// Composer is an editor with rich-text handlers, markdown shortcuts and history
// installed, seeded from markdown and reporting every commit as markdown.
type Composer struct {
	*Editor
	History *History

	unregister func()
}

type ComposerOption func(*composerConfig)

type composerConfig struct {
	initial  string
	tree     *lexical.Tree
	onChange func(md string, version int)
	onError  func(error)

	noShortcuts bool
}

// WithMarkdown seeds the document. It is parsed once, without a transaction.
func WithMarkdown(md string) ComposerOption {
	return func(c *composerConfig) {
		c.initial = md
	}
}

// WithTree seeds the document with an already built tree. It wins over WithMarkdown.
func WithTree(t *lexical.Tree) ComposerOption {
	return func(c *composerConfig) {
		c.tree = t
	}
}

// WithOnChange receives the whole document as markdown after each commit.
func WithOnChange(fn func(md string, version int)) ComposerOption {
	return func(c *composerConfig) {
		c.onChange = fn
	}
}

func WithOnError(fn func(error)) ComposerOption {
	return func(c *composerConfig) {
		c.onError = fn
	}
}

// WithoutMarkdownShortcuts keeps typed markdown such as "# " or "**bold**" as literal text.
func WithoutMarkdownShortcuts() ComposerOption {
	return func(c *composerConfig) {
		c.noShortcuts = true
	}
}

func NewComposer(opts ...ComposerOption) *Composer {
	var cfg composerConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	var editorOpts []Option
	if cfg.onError != nil {
		editorOpts = append(editorOpts, WithErrorHandler(cfg.onError))
	}
	switch {
	case cfg.tree != nil:
		editorOpts = append(editorOpts, WithInitialTree(cfg.tree))
	case cfg.initial != "":
		editorOpts = append(editorOpts, WithInitialTree(markdown.Import(cfg.initial)))
	}

	e := New(editorOpts...)
	hist, unregisterHistory := RegisterHistory(e)
	c := &Composer{
		Editor:     e,
		History:    hist,
		unregister: mergeRegister(RegisterRichText(e), unregisterHistory),
	}
	if !cfg.noShortcuts {
		c.unregister = mergeRegister(c.unregister, RegisterMarkdownShortcuts(e))
	}
	if cfg.onChange != nil {
		onChange := cfg.onChange
		c.unregister = mergeRegister(c.unregister, e.RegisterUpdateListener(func(doc Document, _ lexical.Selection) {
			onChange(markdown.Export(doc.Tree), doc.Version)
		}))
	}
	return c
}

// Toolbar projects the committed state.
func (c *Composer) Toolbar() ToolbarState {
	s := c.State()
	return Project(s.Document(), s.Selection, c.History.State())
}

func (c *Composer) Markdown() string {
	return markdown.Export(c.State().Tree)
}

// Close removes every handler and listener the composer installed.
func (c *Composer) Close() {
	c.unregister()
}
