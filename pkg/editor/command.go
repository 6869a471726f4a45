package editor

import (
	"fmt"

	"content-editor-be/pkg/lexical"
)

type CommandType string

const (
	CommandFormatText      CommandType = "FORMAT_TEXT"
	CommandFormatBlock     CommandType = "FORMAT_BLOCK"
	CommandInsertList      CommandType = "INSERT_LIST"
	CommandRemoveList      CommandType = "REMOVE_LIST"
	CommandUndo            CommandType = "UNDO"
	CommandRedo            CommandType = "REDO"
	CommandInsertText      CommandType = "INSERT_TEXT"
	CommandInsertParagraph CommandType = "INSERT_PARAGRAPH"
	CommandDeleteCharacter CommandType = "DELETE_CHARACTER"
	CommandSelectionChange CommandType = "SELECTION_CHANGE"
	CommandSelectAll       CommandType = "SELECT_ALL"
	CommandToggleLink      CommandType = "TOGGLE_LINK"
)

// Command is a typed request with its payload.
type Command struct {
	Type    CommandType
	Payload any
}

// BlockType names the block shapes a toolbar can switch between.
type BlockType string

const (
	BlockParagraph BlockType = "paragraph"
	BlockH1        BlockType = "h1"
	BlockH2        BlockType = "h2"
	BlockH3        BlockType = "h3"
	BlockH4        BlockType = "h4"
	BlockH5        BlockType = "h5"
	BlockH6        BlockType = "h6"
	BlockQuote     BlockType = "quote"
	BlockBullet    BlockType = "ul"
	BlockNumber    BlockType = "ol"
)

// proto returns the element prototype for a non-list block type.
func (b BlockType) proto() (lexical.Node, bool) {
	switch b {
	case BlockParagraph:
		return lexical.Paragraph(), true
	case BlockQuote:
		return lexical.Quote(), true
	case BlockH1, BlockH2, BlockH3, BlockH4, BlockH5, BlockH6:
		return lexical.Heading(int(b[1] - '0')), true
	}
	return lexical.Node{}, false
}

func FormatText(mark lexical.Format) Command {
	return Command{Type: CommandFormatText, Payload: mark}
}

func FormatBlock(block BlockType) Command {
	return Command{Type: CommandFormatBlock, Payload: block}
}

func InsertList(ordered bool) Command {
	return Command{Type: CommandInsertList, Payload: ordered}
}

func RemoveList() Command {
	return Command{Type: CommandRemoveList}
}

func Undo() Command {
	return Command{Type: CommandUndo}
}

func Redo() Command {
	return Command{Type: CommandRedo}
}

func InsertText(text string) Command {
	return Command{Type: CommandInsertText, Payload: text}
}

func InsertParagraph() Command {
	return Command{Type: CommandInsertParagraph}
}

// DeleteCharacter deletes backwards from the caret, or deletes the selected range.
func DeleteCharacter() Command {
	return Command{Type: CommandDeleteCharacter}
}

func SelectionChange(sel lexical.Selection) Command {
	return Command{Type: CommandSelectionChange, Payload: sel}
}

func SelectAll() Command {
	return Command{Type: CommandSelectAll}
}

// ToggleLink wraps the selection in a link to url, or unwraps it when url is empty.
func ToggleLink(url string) Command {
	return Command{Type: CommandToggleLink, Payload: url}
}

// Request is the transport form of a command.
type Request struct {
	Type      CommandType        `json:"type"`
	Mark      string             `json:"mark,omitempty"`
	Block     BlockType          `json:"block,omitempty"`
	Ordered   bool               `json:"ordered,omitempty"`
	Text      string             `json:"text,omitempty"`
	URL       string             `json:"url,omitempty"`
	Selection *lexical.Selection `json:"selection,omitempty"`
}

// Command converts the request, checking that the fields its type needs are present.
func (r Request) Command() (Command, error) {
	switch r.Type {
	case CommandFormatText:
		mark, ok := lexical.ParseMark(r.Mark)
		if !ok {
			return Command{}, fmt.Errorf("%w: mark %q", ErrInvalidPayload, r.Mark)
		}
		return FormatText(mark), nil
	case CommandFormatBlock:
		return FormatBlock(r.Block), nil
	case CommandInsertList:
		return InsertList(r.Ordered), nil
	case CommandRemoveList:
		return RemoveList(), nil
	case CommandUndo:
		return Undo(), nil
	case CommandRedo:
		return Redo(), nil
	case CommandInsertText:
		return InsertText(r.Text), nil
	case CommandInsertParagraph:
		return InsertParagraph(), nil
	case CommandDeleteCharacter:
		return DeleteCharacter(), nil
	case CommandSelectionChange:
		if r.Selection == nil {
			return Command{}, fmt.Errorf("%w: selection required", ErrInvalidPayload)
		}
		return SelectionChange(*r.Selection), nil
	case CommandSelectAll:
		return SelectAll(), nil
	case CommandToggleLink:
		return ToggleLink(r.URL), nil
	}
	return Command{}, fmt.Errorf("%w: %q", ErrUnknownCommand, r.Type)
}
