package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/adaptor/v2"
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/makereel/api/internal/client"
	"github.com/makereel/api/internal/config"
	"github.com/makereel/api/internal/handler"
	"github.com/makereel/api/internal/middleware"
	"github.com/makereel/api/internal/service"
	"github.com/makereel/api/internal/store"
	"github.com/makereel/api/internal/stream"
	"github.com/makereel/api/internal/worker"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize Redis client
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	// Test Redis connection; fall back to in-memory stores without it
	ctx := context.Background()
	redisAvailable := true
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Printf("Warning: Redis not available, using in-memory stores: %v", err)
		redisAvailable = false
	}

	var stores store.Stores
	var asynqClient *asynq.Client
	var rateLimiterRedis *redis.Client
	if redisAvailable {
		stores = store.NewRedisStores(redisClient).Bundle()
		rateLimiterRedis = redisClient
		asynqClient = asynq.NewClient(asynq.RedisClientOpt{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer asynqClient.Close()
	} else {
		stores = store.NewMemoryStores().Bundle()
	}

	// Initialize validator
	validate := validator.New()

	// Initialize stream hub
	hub := stream.NewHub()
	streamAdapter := stream.NewAdapter(stores.Events, hub, time.Duration(cfg.Stream.PollIntervalMS)*time.Millisecond)

	// Initialize external clients
	analysisClient := client.NewAnalysisClient(&cfg.Analysis)
	videoIndexClient := client.NewVideoIndexClient(&cfg.VideoIndex)
	if !analysisClient.IsConfigured() {
		log.Println("Info: analysis service not configured, using mock candidates")
	}
	if !videoIndexClient.IsConfigured() {
		log.Println("Info: video index not configured, using fixture library")
	}

	// Initialize services
	eventService := service.NewEventService(stores.Events, hub)
	sessionService := service.NewSessionService(stores.Sessions, eventService)
	storyboardService := service.NewStoryboardService(stores.Sessions, stores.Storyboards, eventService)
	selectionService := service.NewSelectionService(stores.Storyboards, stores.History, eventService)
	matchService := service.NewMatchService(stores, asynqClient, analysisClient, videoIndexClient, selectionService, eventService, cfg.Matching)

	// Initialize handlers
	sessionHandler := handler.NewSessionHandler(sessionService, validate)
	storyboardHandler := handler.NewStoryboardHandler(storyboardService, validate)
	selectionHandler := handler.NewSelectionHandler(selectionService, validate)
	matchHandler := handler.NewMatchHandler(matchService, validate)
	eventsHandler := handler.NewEventsHandler(sessionService, eventService)
	streamHandler := handler.NewStreamHandler(sessionService, streamAdapter)

	rateLimiter := middleware.NewRateLimiter(rateLimiterRedis)

	// Initialize Fiber app
	app := fiber.New(fiber.Config{
		ErrorHandler: customErrorHandler,
		BodyLimit:    10 * 1024 * 1024, // 10MB
	})

	// Global middleware
	app.Use(recover.New())
	isDebug := strings.EqualFold(cfg.Server.LogLevel, "debug")
	logFormat := "[${time}] ${status} - ${latency} ${method} ${path}\n"
	if isDebug {
		logFormat = "[${time}] ${status} - ${latency} ${method} ${path} ${queryParams} ${body}\n"
		log.Println("Debug logging enabled")
	}
	app.Use(logger.New(logger.Config{
		Format: logFormat,
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,PUT,PATCH,DELETE,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept,Authorization,X-User-Id,X-Company-Id",
	}))

	// Base URL - timestamp
	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"timestamp": time.Now().Unix(),
		})
	})

	// Health check
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "ok",
			"services": fiber.Map{
				"redis":      redisAvailable,
				"analysis":   analysisClient.IsConfigured(),
				"videoIndex": videoIndexClient.IsConfigured(),
			},
		})
	})

	// Prometheus metrics
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	// API routes
	api := app.Group("/api", middleware.GatewayAuthMiddleware())

	// Session routes
	api.Post("/sessions", sessionHandler.Create)

	// Storyboard routes
	api.Get("/sessions/:sessionId/storyboard", storyboardHandler.Load)
	api.Put("/sessions/:sessionId/storyboard", rateLimiter.SaveLimit(cfg.RateLimit.SavesPerMin), storyboardHandler.Save)
	api.Patch("/sessions/:sessionId/scenes/:sceneId", rateLimiter.SaveLimit(cfg.RateLimit.SavesPerMin), storyboardHandler.UpdateScene)

	// Match routes
	api.Post("/sessions/:sessionId/scenes/:sceneId/match", rateLimiter.MatchLimit(cfg.RateLimit.MatchPerHour), matchHandler.Start)
	api.Get("/match/status/:jobId", matchHandler.Status)

	// Selection routes
	api.Post("/sessions/:sessionId/scenes/:sceneId/select", selectionHandler.Select)
	api.Post("/sessions/:sessionId/scenes/:sceneId/restore", selectionHandler.Restore)
	api.Get("/sessions/:sessionId/history/:sceneId", selectionHandler.History)

	// Event routes
	api.Get("/sessions/:sessionId/events", eventsHandler.List)
	api.Get("/sessions/:sessionId/stream", streamHandler.Stream)

	// WebSocket routes
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})

	app.Get("/ws/sessions/:sessionId", websocket.New(func(c *websocket.Conn) {
		sessionID := c.Params("sessionId")
		var resume *int64
		if raw := c.Query("cursor"); raw != "" {
			if cursor, err := strconv.ParseInt(raw, 10, 64); err == nil && cursor >= 0 {
				resume = &cursor
			}
		}
		streamHandler.HandleWebSocket(c, sessionID, resume)
	}))

	// Start Asynq worker server
	if redisAvailable {
		go startWorkerServer(cfg, matchService)
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-quit
		log.Println("Shutting down server...")
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			log.Printf("Server shutdown error: %v", err)
		}
	}()

	// Start server
	addr := ":" + cfg.Server.Port
	log.Printf("Server starting on %s", addr)
	if err := app.Listen(addr); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}

func startWorkerServer(cfg *config.Config, matchService *service.MatchService) {
	asynqLogLevel := asynq.InfoLevel
	if strings.EqualFold(cfg.Server.LogLevel, "debug") {
		asynqLogLevel = asynq.DebugLevel
	} else if strings.EqualFold(cfg.Server.LogLevel, "warn") {
		asynqLogLevel = asynq.WarnLevel
	} else if strings.EqualFold(cfg.Server.LogLevel, "error") {
		asynqLogLevel = asynq.ErrorLevel
	}

	srv := asynq.NewServer(
		asynq.RedisClientOpt{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		},
		asynq.Config{
			Concurrency: 10,
			Queues: map[string]int{
				"match": 10,
			},
			LogLevel: asynqLogLevel,
		},
	)

	matchWorker := worker.NewMatchWorker(matchService)

	mux := asynq.NewServeMux()
	mux.HandleFunc(service.TaskTypeMatch, matchWorker.ProcessTask)

	if err := srv.Run(mux); err != nil {
		log.Printf("Asynq worker error: %v", err)
	}
}

func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal Server Error"

	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		message = e.Message
	}

	return c.Status(code).JSON(fiber.Map{
		"error": fiber.Map{
			"code":    "SERVICE_ERROR",
			"message": message,
		},
	})
}
