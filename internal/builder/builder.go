package builder

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/edubrain/answer-backend/internal/api"
	apimiddleware "github.com/edubrain/answer-backend/internal/api/middleware"
	searchapi "github.com/edubrain/answer-backend/internal/api/search"
	systemapi "github.com/edubrain/answer-backend/internal/api/system"
	"github.com/edubrain/answer-backend/internal/cache"
	"github.com/edubrain/answer-backend/internal/config"
	"github.com/edubrain/answer-backend/internal/engine"
	"github.com/edubrain/answer-backend/internal/integration/ai"
	"github.com/edubrain/answer-backend/internal/integration/lookup"
	"github.com/edubrain/answer-backend/internal/pkg/validator"
	"github.com/edubrain/answer-backend/internal/repository"
	"github.com/edubrain/answer-backend/internal/telegram"
	"github.com/edubrain/answer-backend/internal/usecase/answer"
)

func Build() (*App, error) {
	ctx := context.Background()

	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := setupLogger(cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("setup logger: %w", err)
	}

	logger.Info("Building application",
		zap.String("environment", cfg.Environment),
		zap.String("server_addr", cfg.ServerAddr),
	)

	// Setup database connection
	db, err := setupDatabase(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("setup database: %w", err)
	}

	// Run database migrations
	logger.Info("Running database migrations")
	if err := repository.RunMigrations(cfg.DatabaseURL); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	logger.Info("Database migrations completed successfully")

	// Initialize repositories
	recordRepo := repository.NewRecordPostgres(db)
	logger.Info("Repositories initialized")

	// Initialize the answer resolution pipeline
	answerUC, err := buildAnswerUsecase(ctx, cfg, recordRepo, logger)
	if err != nil {
		db.Close()
		return nil, err
	}
	logger.Info("Use cases initialized")

	// Rate limiter is shared between the router and the stats endpoint
	var limiter *apimiddleware.RateLimiter
	if cfg.RateLimitCfg.Enabled {
		limiter = apimiddleware.NewRateLimiter(cfg.RateLimitCfg.MaxRequests, cfg.RateLimitCfg.Window)
		logger.Info("Rate limiting enabled",
			zap.Int("max_requests", cfg.RateLimitCfg.MaxRequests),
			zap.Duration("window", cfg.RateLimitCfg.Window),
		)
	}

	// Setup API handlers
	searchHandler := searchapi.NewHandler(answerUC)
	systemHandler := systemapi.NewHandler(answerUC, limiter)
	logger.Info("API handlers initialized")

	// Setup router
	router := api.SetupRouter(searchHandler, systemHandler, cfg.AccessToken, limiter, logger)
	logger.Info("HTTP router configured")

	// Create HTTP server
	server := &http.Server{
		Addr:         cfg.ServerAddr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	logger.Info("Application built successfully",
		zap.String("environment", cfg.Environment),
	)

	return &App{
		server: server,
		db:     db,
		logger: logger,
	}, nil
}

// BuildTelegramBot creates and initializes the Telegram bot
func BuildTelegramBot() (telegram.Bot, *zap.Logger, error) {
	ctx := context.Background()

	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := setupLogger(cfg.LogLevel)
	if err != nil {
		return nil, nil, fmt.Errorf("setup logger: %w", err)
	}

	logger.Info("Building Telegram bot",
		zap.String("environment", cfg.Environment),
	)

	// Setup database connection
	db, err := setupDatabase(ctx, cfg, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("setup database: %w", err)
	}

	// Run database migrations
	logger.Info("Running database migrations")
	if err := repository.RunMigrations(cfg.DatabaseURL); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("run migrations: %w", err)
	}
	logger.Info("Database migrations completed successfully")

	// Initialize repositories
	recordRepo := repository.NewRecordPostgres(db)
	chatStateRepo := repository.NewChatStateRepository(db)
	logger.Info("Repositories initialized")

	// Initialize the answer resolution pipeline
	answerUC, err := buildAnswerUsecase(ctx, cfg, recordRepo, logger)
	if err != nil {
		db.Close()
		return nil, nil, err
	}
	logger.Info("Use cases initialized")

	// Initialize Telegram bot
	bot, err := telegram.NewBot(&cfg.TelegramCfg, chatStateRepo, answerUC, logger)
	if err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("initialize telegram bot: %w", err)
	}

	logger.Info("Telegram bot built successfully",
		zap.String("environment", cfg.Environment),
	)

	return bot, logger, nil
}

// buildAnswerUsecase assembles the shared resolution pipeline: cache,
// question-bank lookup, AI connector and the normalization engine.
func buildAnswerUsecase(
	ctx context.Context,
	cfg *config.Config,
	recordRepo repository.RecordRepository,
	logger *zap.Logger,
) (*answer.AnswerUsecase, error) {
	answerCache := setupCache(ctx, cfg, logger)

	aiConnector, lookupConnector, err := setupConnectors(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	// The AI connector doubles as the verifier for delegated
	// fill-in-the-blank checks.
	eng := engine.New(engine.Config{
		MinMultipleMatches: cfg.EngineCfg.MinMultipleMatches,
		AllowProvisional:   cfg.EngineCfg.AllowProvisional,
		OptionCacheSize:    cfg.EngineCfg.OptionCacheSize,
	}, aiConnector)

	return answer.NewUsecase(
		answerCache,
		lookupConnector,
		aiConnector,
		eng,
		recordRepo,
		validator.NewRequestValidator(),
		cfg,
		logger,
	), nil
}

// setupCache picks the answer cache backend. A configured but
// unreachable Redis degrades to the in-process cache instead of
// failing the build.
func setupCache(ctx context.Context, cfg *config.Config, logger *zap.Logger) answer.AnswerCache {
	if cfg.CacheCfg.RedisURL == "" {
		logger.Info("Using in-memory answer cache",
			zap.Bool("enabled", cfg.CacheCfg.Enabled),
			zap.Duration("expiration", cfg.CacheCfg.Expiration),
		)
		return cache.NewMemory(cfg.CacheCfg.Expiration)
	}

	opts, err := redis.ParseURL(cfg.CacheCfg.RedisURL)
	if err != nil {
		logger.Warn("Invalid CACHE_REDIS_URL, falling back to in-memory cache",
			zap.Error(err),
		)
		return cache.NewMemory(cfg.CacheCfg.Expiration)
	}

	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		logger.Warn("Redis unreachable, falling back to in-memory cache",
			zap.Error(err),
		)
		_ = client.Close()
		return cache.NewMemory(cfg.CacheCfg.Expiration)
	}

	logger.Info("Using Redis answer cache",
		zap.Duration("expiration", cfg.CacheCfg.Expiration),
	)
	return cache.NewRedis(client, cfg.CacheCfg.Expiration)
}

// setupConnectors builds the AI and question-bank connectors, or their
// mocks when ENABLE_MOCKS is set.
func setupConnectors(ctx context.Context, cfg *config.Config, logger *zap.Logger) (answer.AIConnector, answer.LookupConnector, error) {
	if cfg.EnableMocks {
		logger.Info("Using mock connectors for external services")
		return ai.NewMockConnector(logger), lookup.NewMockConnector(logger), nil
	}

	logger.Info("Using real connectors for external services",
		zap.String("ai_provider", cfg.AICfg.Provider),
		zap.String("model", cfg.AIModel()),
		zap.Int("lookup_providers", len(cfg.LookupProviders)),
	)

	var (
		aiConnector answer.AIConnector
		err         error
	)
	switch cfg.AICfg.Provider {
	case "openai":
		aiConnector, err = ai.NewOpenAIConnector(cfg.AICfg, cfg.OpenAICfg)
	default:
		aiConnector, err = ai.NewGeminiConnector(ctx, cfg.AICfg, cfg.GeminiCfg)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("create AI connector: %w", err)
	}

	return aiConnector, lookup.NewConnector(cfg.LookupCfg, cfg.LookupProviders, logger), nil
}
