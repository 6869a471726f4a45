package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"content-editor-be/internal/bootstrap"
	"content-editor-be/internal/config"
	"content-editor-be/internal/pkg/logger"
	"content-editor-be/pkg/database"

	mcpserver "content-editor-be/internal/mcp"
)

// editor-mcp serves editing sessions to MCP clients over stdin/stdout.
// Nothing but the protocol may write to stdout.
func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	log.SetOutput(os.Stderr)
	cfg := config.Load()

	db, err := database.NewQuietGormDB(cfg.Database.Connection)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}

	sysLogger := logger.NewIsolatedLogger(cfg.App.LogFilePath)
	container := bootstrap.NewContainer(db, cfg, sysLogger)
	defer container.Close()

	go func() {
		if err := container.ConsumerService.Consume(ctx); err != nil {
			sysLogger.Error("EditorMCP", "Consumer stopped", map[string]interface{}{"error": err})
		}
	}()

	mcpSrv := mcpserver.New(container.EditorSessionService, sysLogger)

	errCh := make(chan error, 1)
	go func() { errCh <- mcpSrv.ServeStdio() }()

	select {
	case err := <-errCh:
		if err != nil {
			log.Printf("MCP server error: %v", err)
		}
	case <-ctx.Done():
	}
}
