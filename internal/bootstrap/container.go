package bootstrap

import (
	"context"
	"log"

	"content-editor-be/internal/config"
	"content-editor-be/internal/controller"
	"content-editor-be/internal/handler"
	"content-editor-be/internal/pkg/logger"
	"content-editor-be/internal/repository/memory"
	"content-editor-be/internal/repository/unitofwork"
	"content-editor-be/internal/service"
	"content-editor-be/internal/websocket"

	pktNats "content-editor-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Container struct {
	// Controllers
	ContentController controller.IContentController
	EditorController  controller.IEditorController

	// Services (the MCP binary talks to sessions directly)
	EditorSessionService service.IEditorSessionService

	// Background Services (Exposed for main.go to run)
	ConsumerService service.IConsumerService

	// WebSockets
	EditorSocketHandler *handler.EditorSocketHandler
	WebSocketHub        *websocket.Hub

	SysLogger logger.ILogger

	closers []func()
}

func NewContainer(db *gorm.DB, cfg *config.Config, sysLogger logger.ILogger) *Container {
	c := &Container{SysLogger: sysLogger}

	// 1. Core Facades
	uowFactory := unitofwork.NewRepositoryFactory(db)

	// 2. Event Bus (editor onChange -> persistence)
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermillLogger,
	)
	c.closeWith("watermill", pubSub.Close)

	// 3. Infrastructure
	// NATS
	var eventPublisher service.EventPublisher
	natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
	} else {
		eventPublisher = natsPub
		c.closers = append(c.closers, natsPub.Close)
	}
	natsSub, err := pktNats.NewSubscriber(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Subscriber: %v", err)
	} else {
		c.closers = append(c.closers, natsSub.Close)
	}

	// Redis
	opt, err := redis.ParseURL(cfg.App.RedisURL)
	if err != nil {
		log.Printf("[WARN] Failed to parse Redis URL: %v. Using direct Addr", err)
		opt = &redis.Options{
			Addr: cfg.App.RedisURL,
		}
	}
	rdb := redis.NewClient(opt)
	if _, err := rdb.Ping(context.Background()).Result(); err != nil {
		log.Printf("[WARN] Failed to connect to Redis: %v", err)
	}
	c.closeWith("redis", rdb.Close)

	// WebSocket Hub
	wsLogger := logger.NewIsolatedLogger(cfg.App.WsLogFilePath)
	wsHub := websocket.NewHub(rdb, wsLogger)
	go wsHub.Run()
	c.closers = append(c.closers, wsHub.Stop)

	// Editing sessions live in memory; an expired session is an unmounted editor.
	sessionRepo := memory.NewSessionRepository(cfg.Editor.SessionTTL)

	// 4. Services
	publisherService := service.NewPublisherService(cfg.Editor.ContentChangedTopic, pubSub)
	consumerService := service.NewConsumerService(
		pubSub,
		cfg.Editor.ContentChangedTopic,
		uowFactory,
		eventPublisher,
		sysLogger,
	)

	contentService := service.NewContentService(uowFactory, cfg.Editor.HasEntity, eventPublisher, sysLogger)
	sessionService := service.NewEditorSessionService(
		uowFactory,
		sessionRepo,
		publisherService,
		wsHub, // Hub implements SessionBroadcaster
		sysLogger,
	)

	// Save notices reach sockets on every instance through NATS
	if natsSub != nil {
		notifService := service.NewNotificationService(natsSub, wsHub, wsLogger)
		go notifService.Start()
	}

	// 5. Controllers
	c.ContentController = controller.NewContentController(contentService)
	c.EditorController = controller.NewEditorController(sessionService)
	c.EditorSessionService = sessionService
	c.ConsumerService = consumerService
	c.EditorSocketHandler = handler.NewEditorSocketHandler(sessionService, wsHub, wsLogger)
	c.WebSocketHub = wsHub

	return c
}

// Close releases brokers and connections in reverse order of creation.
func (c *Container) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
	if err := c.SysLogger.Sync(); err != nil {
		log.Printf("[WARN] Failed to sync logger: %v", err)
	}
}

// closeWith registers a closer whose error is logged instead of dropped.
func (c *Container) closeWith(name string, fn func() error) {
	c.closers = append(c.closers, func() {
		if err := fn(); err != nil {
			c.SysLogger.Warn("Container", "Close failed", map[string]interface{}{"resource": name, "error": err})
		}
	})
}
