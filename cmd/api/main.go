package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/websocket/v2"
	"go.uber.org/zap"

	"github.com/journey-rag/backend/internal/api/handlers"
	"github.com/journey-rag/backend/internal/cache/redis"
	"github.com/journey-rag/backend/internal/graph"
	"github.com/journey-rag/backend/internal/ingestion"
	"github.com/journey-rag/backend/internal/llm"
	"github.com/journey-rag/backend/internal/metrics"
	"github.com/journey-rag/backend/internal/middleware/ratelimit"
	"github.com/journey-rag/backend/internal/middleware/security"
	"github.com/journey-rag/backend/internal/query"
	"github.com/journey-rag/backend/internal/rag"
	"github.com/journey-rag/backend/internal/retrieval"
	"github.com/journey-rag/backend/internal/storage/sqlite"
	"github.com/journey-rag/backend/internal/vector/milvus"
	"github.com/journey-rag/backend/pkg/config"
	appLogger "github.com/journey-rag/backend/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	err = appLogger.Init(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.OutputPath)
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer appLogger.Sync()

	appLogger.Info("Starting Journey Graph RAG API Server")

	sqliteClient, err := sqlite.NewClient(cfg.SQLite.Path)
	if err != nil {
		appLogger.Fatal("Failed to create SQLite client", zap.Error(err))
	}
	defer sqliteClient.Close()

	err = sqliteClient.InitSchema()
	if err != nil {
		appLogger.Fatal("Failed to initialize schema", zap.Error(err))
	}

	// Cache is optional; the server runs without it.
	var cacheClient *redis.Client
	if cfg.Redis.Enabled {
		cacheClient, err = redis.NewClient(
			cfg.Redis.Host,
			cfg.Redis.Port,
			cfg.Redis.Password,
			cfg.Redis.DB,
			time.Duration(cfg.Redis.TTLMin)*time.Minute,
		)
		if err != nil {
			appLogger.Warn("Redis unavailable, continuing without answer cache", zap.Error(err))
			cacheClient = nil
		} else {
			defer cacheClient.Close()
		}
	}

	milvusClient, err := milvus.NewClient(
		cfg.Milvus.Endpoint,
		cfg.Milvus.CollectionName,
		cfg.Milvus.VectorDim,
	)
	if err != nil {
		appLogger.Fatal("Failed to create Milvus client", zap.Error(err))
	}
	defer milvusClient.Close()

	err = milvusClient.CreateCollection(context.Background())
	if err != nil {
		appLogger.Fatal("Failed to create collection", zap.Error(err))
	}

	llmClient := llm.NewClient(
		cfg.LLM.APIKey,
		cfg.LLM.Model,
		cfg.LLM.EmbeddingModel,
		cfg.LLM.Temperature,
		cfg.LLM.MaxTokens,
		cfg.LLM.TimeoutSec,
	)

	journeyGraph, err := loadOrBuildGraph(cfg)
	if err != nil {
		appLogger.Fatal("Failed to load journey graph", zap.Error(err))
	}

	if cacheClient != nil && cfg.Data.ForceRebuild {
		if err := cacheClient.Flush(context.Background()); err != nil {
			appLogger.Warn("Failed to flush answer cache after rebuild", zap.Error(err))
		}
	}

	naiveIndex := rag.NewIndex(milvusClient, llmClient, cfg.Retrieval.TopK)
	docs := ingestion.SessionDocuments(journeyGraph)
	if err := naiveIndex.Build(context.Background(), docs); err != nil {
		appLogger.Warn("Failed to build baseline index, naive queries may fail", zap.Error(err))
	}

	orchestrator := retrieval.NewOrchestrator(
		journeyGraph,
		cfg.Retrieval.PatternWindow,
		cfg.Retrieval.MaxPatterns,
	)

	queryEngine := query.NewEngine(sqliteClient, journeyGraph, orchestrator, naiveIndex, llmClient, cacheClient)

	metrics.Init()

	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:    cfg.Server.BodyLimit,
	})

	app.Use(recover.New())
	app.Use(fiberlogger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, X-User-ID",
		AllowMethods: "GET, POST, OPTIONS",
	}))
	app.Use(security.HeadersMiddleware(security.HeadersConfig{
		IsDevelopment: cfg.Logging.Level == "debug",
	}))

	limiter := ratelimit.New(ratelimit.Config{
		MaxRequestsPerMinute: cfg.RateLimit.MaxRequestsPerMinute,
	})
	defer limiter.Stop()
	app.Use(limiter.Middleware())

	queryHandler := handlers.NewQueryHandler(queryEngine)
	wsHandler := handlers.NewWebSocketHandler(queryEngine)

	api := app.Group("/api/v1")

	api.Post("/query/graphrag", queryHandler.HandleGraphRAG)
	api.Post("/query/naive", queryHandler.HandleNaive)
	api.Post("/query/compare", queryHandler.HandleCompare)
	api.Get("/query/history", queryHandler.GetHistory)
	api.Post("/feedback", queryHandler.PostFeedback)
	api.Get("/presets", queryHandler.GetPresets)
	api.Get("/stats", queryHandler.GetStats)

	api.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "healthy",
			"time":   time.Now().Unix(),
		})
	})

	api.Get("/ready", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":   "ready",
			"sessions": journeyGraph.NumSessions(),
		})
	})

	app.Get("/metrics", metrics.MetricsHandler())

	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws", websocket.New(wsHandler.HandleConnection))

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	appLogger.Info("Server starting", zap.String("address", addr))

	go func() {
		if err := app.Listen(addr); err != nil {
			appLogger.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	appLogger.Info("Server shutting down gracefully...")
	app.Shutdown()
	appLogger.Info("Server stopped")
}

// loadOrBuildGraph restores the graph from its snapshot when one exists,
// otherwise builds it from the CSV tables and saves the snapshot for the
// next start.
func loadOrBuildGraph(cfg *config.Config) (*graph.Graph, error) {
	snapshot := cfg.Data.GraphSnapshot

	if !cfg.Data.ForceRebuild {
		if _, err := os.Stat(snapshot); err == nil {
			g, err := graph.LoadSnapshot(snapshot)
			if err == nil {
				appLogger.Info("Journey graph restored from snapshot", zap.String("path", snapshot))
				return g, nil
			}
			appLogger.Warn("Snapshot unreadable, rebuilding from tables", zap.Error(err))
		}
	}

	tables, err := ingestion.LoadTables(cfg.Data.Dir)
	if err != nil {
		return nil, fmt.Errorf("failed to load tables: %w", err)
	}

	g, err := graph.Build(tables)
	if err != nil {
		return nil, fmt.Errorf("failed to build journey graph: %w", err)
	}

	if err := g.Save(snapshot); err != nil {
		appLogger.Warn("Failed to save graph snapshot", zap.Error(err))
	}

	return g, nil
}
