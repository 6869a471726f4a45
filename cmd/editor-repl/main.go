package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"content-editor-be/pkg/editor"
	"content-editor-be/pkg/lexical"

	"github.com/fatih/color"
)

const help = `Commands:
  type <text>        insert text at the selection
  enter              split the block (INSERT_PARAGRAPH)
  bs                 delete backward
  all                select the whole document
  select K O [K O]   caret or range by node key and offset (see "tree")
  bold | italic | underline
  block <paragraph|h1..h6|quote>
  ul | ol | unlist
  link <url> | unlink
  undo | redo
  md | toolbar | tree
  help | quit`

func main() {
	file := flag.String("file", "", "markdown file to open")
	flag.Parse()

	var initial string
	if *file != "" {
		data, err := os.ReadFile(*file)
		if err != nil {
			color.Red("Failed to read %s: %v", *file, err)
			os.Exit(1)
		}
		initial = string(data)
	}

	composer := editor.NewComposer(
		editor.WithMarkdown(initial),
		editor.WithOnChange(func(md string, version int) {
			color.Green("v%d", version)
			fmt.Println(md)
		}),
		editor.WithOnError(func(err error) {
			color.Red("rejected: %v", err)
		}),
	)
	defer composer.Close()

	color.Cyan("Editor REPL. Type \"help\" for commands.")
	run(composer, os.Stdin, os.Stdout)
}

func run(c *editor.Composer, in io.Reader, out io.Writer) {
	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, color.YellowString("> "))
		if !scanner.Scan() {
			return
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		switch line {
		case "quit", "exit":
			return
		case "help":
			fmt.Fprintln(out, help)
			continue
		case "md":
			fmt.Fprintln(out, c.Markdown())
			continue
		case "toolbar":
			printToolbar(out, c.Toolbar())
			continue
		case "tree":
			printTree(out, c.State().Tree)
			continue
		}

		cmd, err := parseCommand(line)
		if err != nil {
			fmt.Fprintln(out, color.RedString("%v", err))
			continue
		}
		if !c.Dispatch(cmd) {
			fmt.Fprintln(out, color.MagentaString("not handled"))
			continue
		}
		printToolbar(out, c.Toolbar())
	}
}

// parseCommand maps one REPL line onto an editor command.
func parseCommand(line string) (editor.Command, error) {
	word, rest, _ := strings.Cut(line, " ")
	rest = strings.TrimSpace(rest)

	req := editor.Request{}
	switch word {
	case "type":
		if rest == "" {
			return editor.Command{}, fmt.Errorf("type needs text")
		}
		req.Type, req.Text = editor.CommandInsertText, rest
	case "enter":
		req.Type = editor.CommandInsertParagraph
	case "bs":
		req.Type = editor.CommandDeleteCharacter
	case "all":
		req.Type = editor.CommandSelectAll
	case "select":
		sel, err := parseSelection(rest)
		if err != nil {
			return editor.Command{}, err
		}
		req.Type, req.Selection = editor.CommandSelectionChange, &sel
	case "bold", "italic", "underline":
		req.Type, req.Mark = editor.CommandFormatText, word
	case "block":
		req.Type, req.Block = editor.CommandFormatBlock, editor.BlockType(rest)
	case "ul", "ol":
		req.Type, req.Ordered = editor.CommandInsertList, word == "ol"
	case "unlist":
		req.Type = editor.CommandRemoveList
	case "link":
		if rest == "" {
			return editor.Command{}, fmt.Errorf("link needs a url")
		}
		req.Type, req.URL = editor.CommandToggleLink, rest
	case "unlink":
		req.Type = editor.CommandToggleLink
	case "undo":
		req.Type = editor.CommandUndo
	case "redo":
		req.Type = editor.CommandRedo
	default:
		return editor.Command{}, fmt.Errorf("unknown command %q (try help)", word)
	}
	return req.Command()
}

func parseSelection(args string) (lexical.Selection, error) {
	var ak, ao, fk, fo int
	n, _ := fmt.Sscan(args, &ak, &ao, &fk, &fo)
	switch n {
	case 2:
		return lexical.Caret(lexical.Point{Key: lexical.NodeKey(ak), Offset: ao}), nil
	case 4:
		return lexical.Range(
			lexical.Point{Key: lexical.NodeKey(ak), Offset: ao},
			lexical.Point{Key: lexical.NodeKey(fk), Offset: fo},
		), nil
	}
	return lexical.Selection{}, fmt.Errorf("select needs KEY OFFSET [KEY OFFSET]")
}

func printToolbar(out io.Writer, t editor.ToolbarState) {
	fmt.Fprintf(out, "%s block=%s marks=%v undo=%t redo=%t\n",
		color.CyanString("toolbar"), t.BlockType, t.ActiveMarks, t.CanUndo, t.CanRedo)
}

func printTree(out io.Writer, t *lexical.Tree) {
	t.Walk(func(n *lexical.Node, depth int) bool {
		indent := strings.Repeat("  ", depth)
		switch {
		case n.Kind.IsLeaf():
			fmt.Fprintf(out, "%s%d %s %q %v\n", indent, n.Key, n.Kind, n.Text, n.Format.Names())
		case n.Kind == lexical.KindLink:
			fmt.Fprintf(out, "%s%d %s %s\n", indent, n.Key, n.Kind, n.URL)
		default:
			fmt.Fprintf(out, "%s%d %s\n", indent, n.Key, n.Kind)
		}
		return true
	})
}
