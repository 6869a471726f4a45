package mcpserver

import (
	"context"
	"fmt"

	"content-editor-be/internal/dto"

	"github.com/mark3labs/mcp-go/mcp"
)

func (s *Server) registerSessionTools() {
	s.mcp.AddTool(mcp.NewTool("open_session",
		mcp.WithDescription("Open an editing session for a stored content row. Returns the session id, markdown and toolbar state"),
		mcp.WithString("contentId", mcp.Description("Content ID (UUID)"), mcp.Required()),
	), s.handleOpenSession)

	s.mcp.AddTool(mcp.NewTool("show_session",
		mcp.WithDescription("Read a session's full state: markdown, toolbar, selection and node tree with keys"),
		mcp.WithString("sessionId", mcp.Description("Session ID"), mcp.Required()),
	), s.handleShowSession)

	s.mcp.AddTool(mcp.NewTool("read_markdown",
		mcp.WithDescription("Read the session's document serialized as markdown"),
		mcp.WithString("sessionId", mcp.Description("Session ID"), mcp.Required()),
	), s.handleReadMarkdown)

	s.mcp.AddTool(mcp.NewTool("get_toolbar",
		mcp.WithDescription("Read the toolbar state (canUndo, canRedo, activeMarks, blockType) for the current selection"),
		mcp.WithString("sessionId", mcp.Description("Session ID"), mcp.Required()),
	), s.handleGetToolbar)

	s.mcp.AddTool(mcp.NewTool("close_session",
		mcp.WithDescription("Close a session and discard its editor and history"),
		mcp.WithString("sessionId", mcp.Description("Session ID"), mcp.Required()),
	), s.handleCloseSession)
}

func (s *Server) handleOpenSession(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	contentID, err := uuidArg(req.GetArguments(), "contentId")
	if err != nil {
		return nil, err
	}

	res, err := s.sessions.Open(ctx, &dto.OpenSessionRequest{ContentId: contentID})
	if err != nil {
		return nil, fmt.Errorf("open session: %w", err)
	}
	res.Tree = nil
	res.State = nil
	return jsonResult(res)
}

func (s *Server) handleShowSession(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, err := uuidArg(req.GetArguments(), "sessionId")
	if err != nil {
		return nil, err
	}

	res, err := s.sessions.Show(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("show session: %w", err)
	}
	// The tree already carries what the Lexical state would.
	res.State = nil
	return jsonResult(res)
}

func (s *Server) handleReadMarkdown(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, err := uuidArg(req.GetArguments(), "sessionId")
	if err != nil {
		return nil, err
	}

	res, err := s.sessions.Show(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("read markdown: %w", err)
	}
	return textResult(res.Markdown), nil
}

func (s *Server) handleGetToolbar(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, err := uuidArg(req.GetArguments(), "sessionId")
	if err != nil {
		return nil, err
	}

	res, err := s.sessions.Show(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("get toolbar: %w", err)
	}
	return jsonResult(res.Toolbar)
}

func (s *Server) handleCloseSession(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, err := uuidArg(req.GetArguments(), "sessionId")
	if err != nil {
		return nil, err
	}

	if err := s.sessions.Close(ctx, sessionID); err != nil {
		return nil, fmt.Errorf("close session: %w", err)
	}
	return textResult(fmt.Sprintf("Session %s closed", sessionID)), nil
}
