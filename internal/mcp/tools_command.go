package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"content-editor-be/internal/dto"
	"content-editor-be/pkg/editor"

	"github.com/mark3labs/mcp-go/mcp"
)

var commandNames = []string{
	string(editor.CommandFormatText),
	string(editor.CommandFormatBlock),
	string(editor.CommandInsertList),
	string(editor.CommandRemoveList),
	string(editor.CommandUndo),
	string(editor.CommandRedo),
	string(editor.CommandInsertText),
	string(editor.CommandInsertParagraph),
	string(editor.CommandDeleteCharacter),
	string(editor.CommandSelectionChange),
	string(editor.CommandSelectAll),
	string(editor.CommandToggleLink),
}

func (s *Server) registerCommandTools() {
	s.mcp.AddTool(mcp.NewTool("dispatch_command",
		mcp.WithDescription("Dispatch one editor command against a session. "+
			"Payload fields: mark (bold|italic|underline) for FORMAT_TEXT, "+
			"block (paragraph|h1..h6|quote|ul|ol) for FORMAT_BLOCK, ordered for INSERT_LIST, "+
			"text for INSERT_TEXT, url for TOGGLE_LINK, selection for SELECTION_CHANGE. "+
			"Use show_session to find node keys for selections."),
		mcp.WithString("sessionId", mcp.Description("Session ID"), mcp.Required()),
		mcp.WithString("command", mcp.Description("Command type"), mcp.Required(), mcp.Enum(commandNames...)),
		mcp.WithString("payload", mcp.Description("Command payload as a JSON object (optional)")),
	), s.handleDispatchCommand)

	s.mcp.AddTool(mcp.NewTool("write_text",
		mcp.WithDescription("Select the whole document and type text over it, one INSERT_TEXT per line with INSERT_PARAGRAPH between lines"),
		mcp.WithString("sessionId", mcp.Description("Session ID"), mcp.Required()),
		mcp.WithString("text", mcp.Description("Plain text to write"), mcp.Required()),
	), s.handleWriteText)
}

func (s *Server) handleDispatchCommand(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	sessionID, err := uuidArg(args, "sessionId")
	if err != nil {
		return nil, err
	}

	command, _ := args["command"].(string)
	if command == "" {
		return nil, fmt.Errorf("command is required")
	}

	var payload dto.CommandPayload
	if raw, ok := args["payload"].(string); ok && strings.TrimSpace(raw) != "" {
		if err := json.Unmarshal([]byte(raw), &payload); err != nil {
			return nil, fmt.Errorf("invalid payload: %w", err)
		}
	}

	res, err := s.sessions.Dispatch(ctx, &dto.DispatchCommandRequest{
		SessionId: sessionID,
		Command:   command,
		Payload:   payload,
	})
	if err != nil {
		return nil, fmt.Errorf("dispatch %s: %w", command, err)
	}
	return jsonResult(res)
}

func (s *Server) handleWriteText(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	sessionID, err := uuidArg(args, "sessionId")
	if err != nil {
		return nil, err
	}
	text, _ := args["text"].(string)

	steps := []dto.DispatchCommandRequest{{Command: string(editor.CommandSelectAll)}}
	for i, line := range strings.Split(text, "\n") {
		if i > 0 {
			steps = append(steps, dto.DispatchCommandRequest{Command: string(editor.CommandInsertParagraph)})
		}
		if line != "" {
			steps = append(steps, dto.DispatchCommandRequest{
				Command: string(editor.CommandInsertText),
				Payload: dto.CommandPayload{Text: line},
			})
		}
	}

	var last *dto.DispatchCommandResponse
	for _, step := range steps {
		step.SessionId = sessionID
		res, err := s.sessions.Dispatch(ctx, &step)
		if err != nil {
			return nil, fmt.Errorf("write text: %w", err)
		}
		if res.Error != "" {
			return nil, fmt.Errorf("write text: %s", res.Error)
		}
		last = res
	}
	return jsonResult(last)
}
