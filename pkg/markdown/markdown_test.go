package markdown

import (
	"testing"

	"content-editor-be/pkg/lexical"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const canonical = "# Title\n\n" +
	"Some **bold**, *italic* and <u>underlined</u> text.\n\n" +
	"> quoted\n> lines\n\n" +
	"- one\n- two\n  - nested\n\n" +
	"1. first\n2. second\n\n" +
	"A [link](https://example.com) and `code`."

func TestImportStructure(t *testing.T) {
	tree := Import(canonical)
	root := tree.Root()
	require.Len(t, root.Children, 6)

	kinds := make([]lexical.Kind, 0, len(root.Children))
	for _, k := range root.Children {
		kinds = append(kinds, tree.Node(k).Kind)
	}
	assert.Equal(t, []lexical.Kind{
		lexical.KindHeading, lexical.KindParagraph, lexical.KindQuote,
		lexical.KindList, lexical.KindList, lexical.KindParagraph,
	}, kinds)

	assert.Equal(t, "quoted\nlines", tree.TextContent(root.Children[2]))

	bullets := tree.Node(root.Children[3])
	assert.False(t, bullets.Ordered)
	require.Len(t, bullets.Children, 2)
	second := tree.Node(bullets.Children[1])
	require.Len(t, second.Children, 2)
	assert.Equal(t, lexical.KindList, tree.Node(second.Children[1]).Kind)

	assert.True(t, tree.Node(root.Children[4]).Ordered)
	assert.NoError(t, tree.Validate())
}

func TestImportInlineMarks(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		text    []string
		formats []lexical.Format
	}{
		{
			name:    "bold",
			input:   "**Hello**",
			text:    []string{"Hello"},
			formats: []lexical.Format{lexical.FormatBold},
		},
		{
			name:    "bold and italic",
			input:   "***both***",
			text:    []string{"both"},
			formats: []lexical.Format{lexical.FormatBold | lexical.FormatItalic},
		},
		{
			name:    "italic then bold italic",
			input:   "*a****b***",
			text:    []string{"a", "b"},
			formats: []lexical.Format{lexical.FormatItalic, lexical.FormatBold | lexical.FormatItalic},
		},
		{
			name:    "underline inside bold",
			input:   "**<u>x</u>**",
			text:    []string{"x"},
			formats: []lexical.Format{lexical.FormatBold | lexical.FormatUnderline},
		},
		{
			name:    "unmatched star stays literal",
			input:   "2 * 3",
			text:    []string{"2 * 3"},
			formats: []lexical.Format{0},
		},
		{
			name:    "intraword underscore",
			input:   "snake_case_name",
			text:    []string{"snake_case_name"},
			formats: []lexical.Format{0},
		},
		{
			name:    "escapes",
			input:   `\*not\* \# \[x\]`,
			text:    []string{"*not* # [x]"},
			formats: []lexical.Format{0},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tree := Import(tt.input)
			p := tree.Node(tree.Root().Children[0])
			require.Len(t, p.Children, len(tt.text))
			for i, k := range p.Children {
				assert.Equal(t, tt.text[i], tree.Node(k).Text)
				assert.Equal(t, tt.formats[i], tree.Node(k).Format)
			}
		})
	}
}

func TestImportLinkAndCode(t *testing.T) {
	tree := Import("see [**docs**](https://x.dev) or `go test`")
	p := tree.Node(tree.Root().Children[0])
	require.Len(t, p.Children, 4)

	link := tree.Node(p.Children[1])
	assert.Equal(t, lexical.KindLink, link.Kind)
	assert.Equal(t, "https://x.dev", link.URL)
	assert.Equal(t, lexical.FormatBold, tree.Node(link.Children[0]).Format)

	code := tree.Node(p.Children[3])
	assert.Equal(t, lexical.KindCode, code.Kind)
	assert.Equal(t, "go test", code.Text)
}

func TestImportEmpty(t *testing.T) {
	tree := Import("")
	assert.True(t, tree.Equal(lexical.NewDocument()))
	assert.Equal(t, "", Export(tree))
}

func TestExportCanonicalIsFixedPoint(t *testing.T) {
	assert.Equal(t, canonical, Export(Import(canonical)))
}

func TestRoundTripIsIdempotent(t *testing.T) {
	inputs := []string{
		"a\nb",
		"2 * 3",
		"snake_case",
		"~~strike~~ and | table |",
		"```go\nfmt.Println()\n```",
		"![img](x.png)",
		"- a\n\n- b",
		"1. a\n- b\n    - deep\n  - mid",
		"> - not a list\n>\n> end",
		"####### seven",
		"#nospace",
		"- [ ] task",
		"**unclosed",
		"<u>open",
		"1) paren",
		"*a**<u>b</u>*",
		"*<u>a</u>**b*",
		"*x****x****\\**",
		"***x****<u>x</u>*",
		"[a](x(y)",
		"&#32; lead",
	}

	for _, in := range inputs {
		t.Run(in, func(t *testing.T) {
			once := Export(Import(in))
			assert.Equal(t, once, Export(Import(once)))
			assert.NoError(t, Import(once).Validate())
		})
	}
}

func TestExportEscapesLineStarts(t *testing.T) {
	tree := lexical.NewTree()
	for _, text := range []string{"- dash", "1. one", "# hash", "> angle", "+ plus", "-\ttab", "1) paren", "-"} {
		p := tree.Create(lexical.Paragraph())
		require.NoError(t, tree.AppendChild(lexical.RootKey, p.Key))
		require.NoError(t, tree.AppendText(p.Key, text, 0))
	}

	out := Export(tree)
	assert.Equal(t, "\\- dash\n\n1\\. one\n\n\\# hash\n\n\\> angle\n\n\\+ plus\n\n\\-\ttab\n\n1\\) paren\n\n\\-", out)

	back := Import(out)
	assert.True(t, tree.Equal(back))
}

func TestExportNestedOrderedList(t *testing.T) {
	md := "1. a\n2. b\n  1. c\n  2. d\n3. e"
	assert.Equal(t, md, Export(Import(md)))
}

// paragraph appends a paragraph holding one text leaf per run.
func paragraph(t *testing.T, tree *lexical.Tree, runs ...textRun) {
	t.Helper()
	p := tree.Create(lexical.Paragraph())
	require.NoError(t, tree.AppendChild(lexical.RootKey, p.Key))
	for _, r := range runs {
		leaf := tree.Create(lexical.Text(r.text, r.format))
		require.NoError(t, tree.AppendChild(p.Key, leaf.Key))
	}
}

type textRun struct {
	text   string
	format lexical.Format
}

func TestMixedMarksRoundTrip(t *testing.T) {
	const (
		b = lexical.FormatBold
		i = lexical.FormatItalic
		u = lexical.FormatUnderline
	)
	tests := []struct {
		name string
		runs []textRun
		want string
	}{
		{name: "italic then bold", runs: []textRun{{"a", i}, {"b", b}}, want: "*a***b**"},
		{name: "bold then italic", runs: []textRun{{"a", b}, {"b", i}}, want: "**a***b*"},
		{name: "underline inside italic", runs: []textRun{{"a", i}, {"b", i | u}}, want: "*a<u>b</u>*"},
		{name: "underlined italic then bold", runs: []textRun{{"a", i | u}, {"b", b}}, want: "*<u>a</u>***b**"},
		{name: "both then bold", runs: []textRun{{"a", b | i}, {"b", b}}, want: "***a*b**"},
		{name: "both then italic", runs: []textRun{{"a", b | i}, {"b", i}}, want: "***a**b*"},
		{name: "italic inside bold", runs: []textRun{{"a", b}, {"b", b | i}, {"c", b}}, want: "**a*b*c**"},
		{name: "bold opens under underline", runs: []textRun{{"a", u}, {"b", b | u}}, want: "<u>a**b</u>**"},
		{name: "plain around bold", runs: []textRun{{"a ", 0}, {"b", b}, {" c", 0}}, want: "a **b** c"},
		{name: "all three then none", runs: []textRun{{"a", b | i | u}, {"b", 0}}, want: "***<u>a</u>***b"},
		{name: "space at mark edge", runs: []textRun{{" a ", b}, {"c", 0}}, want: "** a **c"},
		{name: "italic opening on a space", runs: []textRun{{" a", i}, {"b", 0}}, want: "*&#32;a*b"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tree := lexical.NewTree()
			paragraph(t, tree, tt.runs...)

			md := Export(tree)
			assert.Equal(t, tt.want, md)
			assert.True(t, tree.Equal(Import(md)), "import of %q", md)
			assert.Equal(t, md, Export(Import(md)))
		})
	}
}

func TestExportKeepsEdgeWhitespace(t *testing.T) {
	tree := lexical.NewTree()
	paragraph(t, tree, textRun{" lead", 0})
	paragraph(t, tree, textRun{"\ttab", 0})
	paragraph(t, tree, textRun{"  two", lexical.FormatItalic})
	h := tree.Create(lexical.Heading(2))
	require.NoError(t, tree.AppendChild(lexical.RootKey, h.Key))
	require.NoError(t, tree.AppendText(h.Key, " both ", 0))
	q := tree.Create(lexical.Quote())
	require.NoError(t, tree.AppendChild(lexical.RootKey, q.Key))
	require.NoError(t, tree.AppendText(q.Key, " quoted", 0))
	paragraph(t, tree, textRun{"&#32; literal", 0})

	out := Export(tree)
	assert.Equal(t, "&#32;lead\n\n&#9;tab\n\n*  two*\n\n## &#32;both&#32;\n\n> &#32;quoted\n\n\\&\\#32; literal", out)
	assert.True(t, tree.Equal(Import(out)))
}

func TestLinkDestinations(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		want    string
		wantURL string
	}{
		{name: "balanced parentheses", url: "https://en.wikipedia.org/wiki/Go_(language)", want: "[go](https://en.wikipedia.org/wiki/Go_(language))"},
		{name: "unbalanced close", url: "https://x.dev/a)b", want: "[go](<https://x.dev/a)b>)"},
		{name: "unbalanced open", url: "https://x.dev/a(b", want: "[go](<https://x.dev/a(b>)"},
		{name: "space", url: "https://x.dev/a b", want: "[go](<https://x.dev/a b>)"},
		{name: "backslash", url: `C:\docs\`, want: `[go](<C:\docs\>)`},
		{name: "angle brackets", url: "https://x.dev/<t>", want: "[go](<https://x.dev/%3Ct%3E>)", wantURL: "https://x.dev/%3Ct%3E"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tree := lexical.NewTree()
			p := tree.Create(lexical.Paragraph())
			require.NoError(t, tree.AppendChild(lexical.RootKey, p.Key))
			link := tree.Create(lexical.Link(tt.url))
			require.NoError(t, tree.AppendChild(p.Key, link.Key))
			require.NoError(t, tree.AppendText(link.Key, "go", 0))

			md := Export(tree)
			assert.Equal(t, tt.want, md)

			back := Import(md)
			got := back.Node(back.Node(back.Root().Children[0]).Children[0])
			require.Equal(t, lexical.KindLink, got.Kind)
			wantURL := tt.wantURL
			if wantURL == "" {
				wantURL = tt.url
			}
			assert.Equal(t, wantURL, got.URL)
			assert.Equal(t, "go", back.TextContent(got.Key))
		})
	}
}
