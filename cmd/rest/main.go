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
	"content-editor-be/internal/server"
	"content-editor-be/internal/tracer"
	"content-editor-be/pkg/database"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// 1. Load Configuration
	cfg := config.Load()

	// 2. Initialize Tracer
	shutdownTracer := tracer.InitTracer(cfg.Tracing)
	defer shutdownTracer(context.Background())

	// 3. Initialize Database
	gormDB, err := database.NewGormDBFromDSN(cfg.Database.Connection)
	if err != nil {
		log.Panicf("Unable to connect to GORM DB: %v", err)
	}

	// 4. Bootstrap Dependencies (Container)
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")
	container := bootstrap.NewContainer(gormDB, cfg, sysLogger)
	defer container.Close()

	// 5. Start Background Services
	go func() {
		sysLogger.Info("Main", "Starting consumer service", map[string]interface{}{"topic": cfg.Editor.ContentChangedTopic})
		if err := container.ConsumerService.Consume(ctx); err != nil {
			sysLogger.Error("Main", "Consumer stopped", map[string]interface{}{"error": err})
		}
	}()

	// 6. Run Server until interrupted
	srv := server.New(cfg, container)
	go func() {
		<-ctx.Done()
		if err := srv.Shutdown(); err != nil {
			sysLogger.Error("Main", "Server shutdown failed", map[string]interface{}{"error": err})
		}
	}()

	if err := srv.Run(); err != nil {
		sysLogger.Error("Main", "Server stopped", map[string]interface{}{"error": err})
	}
}
