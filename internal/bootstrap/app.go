package bootstrap

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"studyrag/internal/ai"
	"studyrag/internal/app"
	"studyrag/internal/cache"
	"studyrag/internal/config"
	"studyrag/internal/history"
	redisClient "studyrag/internal/platform/redis"
	sqliteClient "studyrag/internal/platform/sqlite"
	"studyrag/internal/repository"
	"studyrag/internal/vectorstore"
)

// App holds every wired dependency for the running process.
type App struct {
	Config *config.Config
	Logger zerolog.Logger
	DB     *gorm.DB
	Redis  *redis.Client

	Vectors *vectorstore.Registry
	History *history.Log

	SessionService *app.SessionService
	IngestService  *app.IngestService
	ChatService    *app.ChatService

	StartedAt time.Time
}

func New(ctx context.Context) (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config failed: %w", err)
	}

	logger := zerolog.New(os.Stderr).With().Timestamp().Str("app", cfg.App.Name).Logger()
	if cfg.App.Env == "dev" {
		logger = logger.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	db, err := sqliteClient.New(cfg.Storage.SQLitePath)
	if err != nil {
		return nil, err
	}
	if err := repository.Migrate(db); err != nil {
		return nil, fmt.Errorf("migrate tables failed: %w", err)
	}

	var (
		redisCli     *redis.Client
		historyCache app.HistoryCache
	)
	if cfg.Redis.Addr != "" {
		redisCli, err = redisClient.New(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			return nil, err
		}
		historyCache = cache.NewHistoryCache(
			redisCli,
			time.Duration(cfg.Redis.HistoryTTLSeconds)*time.Second,
			time.Duration(cfg.Redis.HistoryDirtyTTLSeconds)*time.Second,
		)
	}

	vectors := vectorstore.NewRegistry(cfg.Storage.VectorsDir, logger)
	historyLog := history.NewLog(cfg.Storage.HistoryDir, logger)
	locks := app.NewLocks()

	aiClient := ai.NewOpenAICompatibleClient()
	embedder := ai.NewGateway(aiClient, ai.EmbeddingConfig{
		BaseURL: cfg.Embedding.BaseURL,
		APIKey:  cfg.Embedding.APIKey,
		Model:   cfg.Embedding.Model,
	})
	llm := ai.NewLLM(aiClient, ai.ChatConfig{
		BaseURL: cfg.LLM.BaseURL,
		APIKey:  cfg.LLM.APIKey,
		Model:   cfg.LLM.Model,
	})

	sessionRepo := repository.NewSessionRepository(db)
	docRepo := repository.NewDocumentRepository(db)

	sessionService := app.NewSessionService(sessionRepo, docRepo, vectors, historyLog, historyCache, locks, logger)
	ingestService := app.NewIngestService(
		sessionRepo, docRepo, vectors, embedder, locks, logger,
		cfg.RAG.ChunkMaxTokens, cfg.RAG.OverlapFraction,
	)
	retriever := app.NewRetriever(embedder, vectors)
	chatService := app.NewChatService(
		sessionRepo, retriever, historyLog, historyCache, llm, locks, logger,
		app.ChatOptions{
			MaxContextMessages: cfg.LLM.MaxContextMessage,
			RetrieveAll:        cfg.RAG.RetrieveAll,
			TopK:               cfg.RAG.TopK,
		},
	)

	return &App{
		Config:         cfg,
		Logger:         logger,
		DB:             db,
		Redis:          redisCli,
		Vectors:        vectors,
		History:        historyLog,
		SessionService: sessionService,
		IngestService:  ingestService,
		ChatService:    chatService,
		StartedAt:      time.Now(),
	}, nil
}

func (a *App) Close() error {
	var firstErr error
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			firstErr = err
		}
	}
	if a.DB != nil {
		if sqlDB, err := a.DB.DB(); err == nil {
			if err := sqlDB.Close(); err != nil && firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}
