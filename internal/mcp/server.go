package mcpserver

import (
	"encoding/json"
	"fmt"

	"content-editor-be/internal/pkg/logger"
	"content-editor-be/internal/service"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// Server exposes editor sessions as MCP tools.
type Server struct {
	mcp      *server.MCPServer
	sessions service.IEditorSessionService
	logger   logger.ILogger
}

func New(sessions service.IEditorSessionService, log logger.ILogger) *Server {
	s := &Server{
		sessions: sessions,
		logger:   log,
	}

	s.mcp = server.NewMCPServer(
		"content-editor",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithInstructions("Rich-text editing sessions over stored content. "+
			"Open a session for a content id, dispatch editor commands against it, "+
			"read markdown or toolbar state back, and close it when done. "+
			"Every committed command is persisted asynchronously."),
	)

	s.registerSessionTools()
	s.registerCommandTools()

	return s
}

// MCPServer returns the underlying server, mainly for transports other than stdio.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	s.logger.Info("MCPServer", "Starting stdio server", nil)
	return server.ServeStdio(s.mcp)
}

// ── Helpers ────────────────────────────────────────────────

// textResult creates a simple text tool result.
func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: text},
		},
	}
}

// jsonResult serializes v to JSON and wraps it in a text tool result.
func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal result: %w", err)
	}
	return textResult(string(data)), nil
}

func uuidArg(args map[string]any, name string) (uuid.UUID, error) {
	raw, ok := args[name].(string)
	if !ok || raw == "" {
		return uuid.Nil, fmt.Errorf("%s is required", name)
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%s: %w", name, err)
	}
	return id, nil
}
