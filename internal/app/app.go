// Package app provides application initialization and dependency
// wiring. Setup builds every component from configuration; Close
// tears them down in reverse order.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/devdocsai/devdocs/db"
	"github.com/devdocsai/devdocs/internal/answer"
	"github.com/devdocsai/devdocs/internal/chunker"
	"github.com/devdocsai/devdocs/internal/config"
	"github.com/devdocsai/devdocs/internal/document"
	"github.com/devdocsai/devdocs/internal/embed"
	"github.com/devdocsai/devdocs/internal/ingest"
	"github.com/devdocsai/devdocs/internal/log"
	"github.com/devdocsai/devdocs/internal/queue"
	"github.com/devdocsai/devdocs/internal/retrieval"
	"github.com/devdocsai/devdocs/internal/service"
	"github.com/devdocsai/devdocs/internal/storage"
	"github.com/devdocsai/devdocs/internal/vectorstore"
)

// App is the core application container.
type App struct {
	Config   *config.Config
	Logger   log.Logger
	Pool     *pgxpool.Pool
	Redis    *redis.Client
	Service  *service.Service
	Pipeline *ingest.Pipeline
	Producer *queue.Producer
}

// Setup loads dependencies and wires the application together.
// Migrations run before anything touches the schema.
func Setup(ctx context.Context, cfg *config.Config, logger log.Logger) (*App, error) {
	if err := db.Migrate(cfg.PostgresURL(), logger); err != nil {
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	pool, err := pgxpool.New(ctx, cfg.PostgresConnectionString())
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	redisClient, err := queue.NewRedisClient(cfg.RedisURL)
	if err != nil {
		pool.Close()
		return nil, err
	}

	app, err := build(ctx, cfg, logger, pool, redisClient)
	if err != nil {
		_ = redisClient.Close()
		pool.Close()
		return nil, err
	}
	return app, nil
}

func build(ctx context.Context, cfg *config.Config, logger log.Logger, pool *pgxpool.Pool, redisClient *redis.Client) (*App, error) {
	docs, err := document.NewStore(pool, logger)
	if err != nil {
		return nil, fmt.Errorf("creating document store: %w", err)
	}
	chunks, err := vectorstore.NewStore(pool, logger)
	if err != nil {
		return nil, fmt.Errorf("creating vector store: %w", err)
	}

	embedder, err := embed.NewGemini(ctx, cfg.GeminiAPIKey, logger,
		embed.WithModel(cfg.EmbedderModel),
		embed.WithDimension(cfg.EmbedderDim),
	)
	if err != nil {
		return nil, fmt.Errorf("creating embedder: %w", err)
	}

	completer, err := answer.NewGeminiCompleter(ctx, cfg.GeminiAPIKey, cfg.CompletionModel)
	if err != nil {
		return nil, fmt.Errorf("creating completer: %w", err)
	}

	pipeline, err := ingest.New(ingest.Config{
		Documents: docs,
		Blobs:     storage.NewAFS(),
		Chunks:    chunks,
		Embedder:  embedder,
		Splitter: chunker.New(
			chunker.WithMaxLen(cfg.ChunkMaxLen),
			chunker.WithOverlap(cfg.ChunkOverlap),
		),
		StaleAfter: cfg.ClaimStaleAfter(),
		Logger:     logger,
	})
	if err != nil {
		return nil, fmt.Errorf("creating pipeline: %w", err)
	}

	engine, err := retrieval.New(embedder, chunks, logger)
	if err != nil {
		return nil, fmt.Errorf("creating retrieval engine: %w", err)
	}

	producer := queue.NewProducer(redisClient, logger)

	svc, err := service.New(service.Config{
		Documents:   docs,
		Blobs:       storage.NewAFS(),
		Processor:   pipeline,
		Publisher:   producer,
		Retriever:   engine,
		Answerer:    answer.NewGenerator(completer, logger),
		Logger:      logger,
		BlobBaseURL: cfg.BlobBaseURL,
		TopK:        cfg.TopK,
		Threshold:   cfg.SimilarityThreshold,
	})
	if err != nil {
		return nil, fmt.Errorf("creating service: %w", err)
	}

	return &App{
		Config:   cfg,
		Logger:   logger,
		Pool:     pool,
		Redis:    redisClient,
		Service:  svc,
		Pipeline: pipeline,
		Producer: producer,
	}, nil
}

// Close shuts down shared resources.
func (a *App) Close() error {
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			a.Logger.Warn("closing redis client", "error", err)
		}
	}
	if a.Pool != nil {
		a.Pool.Close()
	}
	a.Logger.Info("application shut down")
	return nil
}

// NewLogger builds the application logger from configuration.
func NewLogger(cfg *config.Config) log.Logger {
	level := slog.LevelInfo
	switch strings.ToLower(cfg.LogLevel) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	return log.New(log.Config{Level: level, JSON: cfg.LogJSON})
}
