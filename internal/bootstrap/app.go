package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"

	googleauth "smartdoc-backend/internal/auth"
	"smartdoc-backend/internal/comparison"
	"smartdoc-backend/internal/credits"
	"smartdoc-backend/internal/documents"
	"smartdoc-backend/internal/extract"
	"smartdoc-backend/internal/history"
	"smartdoc-backend/internal/llm"
	"smartdoc-backend/internal/llm/gemini"
	"smartdoc-backend/internal/llm/openai"
	"smartdoc-backend/internal/notifications"
	"smartdoc-backend/internal/queue"
	"smartdoc-backend/internal/services/health"
	"smartdoc-backend/internal/shared/config"
	"smartdoc-backend/internal/shared/ratelimit"
	"smartdoc-backend/internal/shared/server"
	"smartdoc-backend/internal/shared/server/middleware"
	"smartdoc-backend/internal/shared/storage/db"
	"smartdoc-backend/internal/shared/storage/object"
	localstore "smartdoc-backend/internal/shared/storage/object/local"
	miniostore "smartdoc-backend/internal/shared/storage/object/minio"
	s3store "smartdoc-backend/internal/shared/storage/object/s3"
	"smartdoc-backend/internal/shared/telemetry"
)

const (
	compareRateGroup   = "COMPARE"
	devSigningSecret   = "smartdoc-dev-signing"
	defaultGeminiModel = "gemini-1.5-flash"
	defaultOpenAIModel = "gpt-4o-mini"
)

// App holds shared dependencies for the API and the worker.
type App struct {
	Config config.Config
	Router *gin.Engine
	DB     *sql.DB
	Store  object.ObjectStore
	Queue  queue.Client
	Model  llm.Client

	DocumentsRepo documents.DocumentsRepo
	Extractor     *extract.Extractor

	DocumentsService     *documents.Service
	CreditsService       *credits.Service
	ComparisonService    *comparison.Service
	HistoryService       *history.Service
	NotificationsService *notifications.Service

	closers []func() error
}

// Build prepares every dependency and mounts the routes.
func Build(cfg config.Config) (*App, error) {
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "dev"
	}
	ctx := context.Background()

	sqlDB, err := buildDB(ctx, cfg)
	if err != nil {
		return nil, err
	}

	store, err := buildStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	queueClient, err := buildQueue(ctx, cfg)
	if err != nil {
		return nil, err
	}

	model, err := BuildModel(cfg)
	if err != nil {
		return nil, err
	}

	app := &App{
		Config: cfg,
		DB:     sqlDB,
		Store:  store,
		Queue:  queueClient,
		Model:  model,
	}
	if sqlDB != nil {
		app.closers = append(app.closers, sqlDB.Close)
	}

	if err := buildServices(app); err != nil {
		return nil, err
	}

	limiter, err := buildLimiter(cfg)
	if err != nil {
		return nil, err
	}
	if fw, ok := limiter.(*ratelimit.FixedWindow); ok {
		app.closers = append(app.closers, fw.Close)
	}
	compareLimit := middleware.RateLimit(middleware.RateLimitConfig{
		Rules: map[string]middleware.RateLimitRule{
			compareRateGroup: {Limit: cfg.CompareRateLimit, Window: cfg.CompareRateWindow},
		},
		DefaultGroup: compareRateGroup,
		Limiter:      limiter,
	})

	var healthSvc *health.Service
	if sqlDB != nil {
		healthSvc = health.NewService(sqlDB)
	}
	deps := server.RouterDeps{
		Config: cfg,
		Health: healthSvc,
		Routes: []server.RouteRegistrar{
			googleauth.NewGoogleService(cfg.GoogleClientID, cfg.GoogleClientSecret, cfg.GoogleRedirectURL, cfg.UIRedirectURL, app.CreditsService),
			documents.NewHandler(app.DocumentsService),
			comparison.NewHandler(app.ComparisonService, compareLimit),
			history.NewHandler(app.HistoryService),
			credits.NewHandler(app.CreditsService),
			notifications.NewHandler(app.NotificationsService),
		},
	}
	if local, ok := store.(*localstore.Store); ok {
		deps.Files = local
	}
	app.Router = server.NewRouter(deps)

	return app, nil
}

// Close releases the database pool and the Redis client.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func buildDB(ctx context.Context, cfg config.Config) (*sql.DB, error) {
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		if isDevLike(cfg.Env) {
			telemetry.Warn("bootstrap.memory_repositories", map[string]any{"reason": "DATABASE_URL empty"})
			return nil, nil
		}
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	opts := db.OptionsFromEnv(db.DefaultServerOptions())
	sqlDB, err := db.Connect(ctx, cfg.DatabaseURL, opts)
	if err != nil {
		if isDevLike(cfg.Env) {
			telemetry.Warn("bootstrap.memory_repositories", map[string]any{"reason": "database connect failed", "error": err})
			return nil, nil
		}
		return nil, err
	}
	return sqlDB, nil
}

func buildStore(ctx context.Context, cfg config.Config) (object.ObjectStore, error) {
	switch cfg.ObjectStoreType {
	case "s3":
		if strings.TrimSpace(cfg.S3Bucket) == "" {
			return nil, fmt.Errorf("OBJECT_STORE=s3 requires S3_BUCKET")
		}
		return s3store.New(ctx, cfg.AWSRegion, cfg.S3Bucket, cfg.S3Prefix, cfg.SSEKMSKeyID)
	case "minio":
		if strings.TrimSpace(cfg.MinioEndpoint) == "" {
			return nil, fmt.Errorf("OBJECT_STORE=minio requires MINIO_ENDPOINT")
		}
		return miniostore.New(ctx, cfg.MinioEndpoint, cfg.MinioAccessKey, cfg.MinioSecretKey, cfg.MinioBucket, cfg.MinioUseSSL)
	default:
		secret := cfg.JWTSecret
		if secret == "" {
			secret = devSigningSecret
		}
		return localstore.New(cfg.LocalStoreDir, secret), nil
	}
}

func buildQueue(ctx context.Context, cfg config.Config) (queue.Client, error) {
	if strings.TrimSpace(cfg.ExtractQueueURL) == "" {
		return nil, nil
	}
	return queue.NewSQSClient(ctx, cfg.AWSRegion, cfg.ExtractQueueURL)
}

// BuildModel returns the configured provider client, or llm.Unconfigured when
// its API key is missing.
func BuildModel(cfg config.Config) (llm.Client, error) {
	switch cfg.LLMProvider {
	case "openai":
		if cfg.OpenAIAPIKey == "" {
			break
		}
		model := cfg.LLMModel
		if model == "" {
			model = defaultOpenAIModel
		}
		client, err := openai.NewClient(cfg.OpenAIAPIKey, model, cfg.ModelTimeout)
		if err != nil {
			return nil, err
		}
		return llm.Instrument("openai", client), nil
	default:
		if cfg.GeminiAPIKey == "" {
			break
		}
		model := cfg.LLMModel
		if model == "" {
			model = defaultGeminiModel
		}
		client, err := gemini.NewClient(cfg.GeminiAPIKey, model, cfg.ModelTimeout)
		if err != nil {
			return nil, err
		}
		return llm.Instrument("gemini", client), nil
	}
	telemetry.Warn("bootstrap.llm_unconfigured", map[string]any{"provider": cfg.LLMProvider})
	return llm.Unconfigured{}, nil
}

func buildLimiter(cfg config.Config) (middleware.Limiter, error) {
	if strings.TrimSpace(cfg.RedisAddr) == "" {
		return middleware.NewTokenBucket(nil), nil
	}
	return ratelimit.NewFixedWindow(cfg.RedisAddr, cfg.RedisPassword, "")
}

func buildServices(app *App) error {
	var (
		docRepo     documents.DocumentsRepo
		creditStore credits.Store
		historyRepo history.Repo
		notifyRepo  notifications.Repo
	)
	if app.DB != nil {
		docRepo = &documents.PGRepo{DB: app.DB}
		creditStore = credits.NewPGStore(app.DB)
		historyRepo = &history.PGRepo{DB: app.DB}
		notifyRepo = &notifications.PGRepo{DB: app.DB}
	} else {
		docRepo = documents.NewMemoryRepo()
		creditStore = credits.NewMemoryStore()
		historyRepo = history.NewMemoryRepo()
		notifyRepo = notifications.NewMemoryRepo()
	}

	extractor := extract.New(documents.ExtractSource{Repo: docRepo}, app.Store, app.Config.TextCacheSize)
	creditSvc := credits.NewService(creditStore, app.Config.DefaultCredits)
	historySvc := history.NewService(historyRepo, docRepo)
	notifySvc := notifications.NewService(notifyRepo)

	app.DocumentsRepo = docRepo
	app.Extractor = extractor
	app.CreditsService = creditSvc
	app.HistoryService = historySvc
	app.NotificationsService = notifySvc
	app.DocumentsService = &documents.Service{
		Store:     app.Store,
		Repo:      docRepo,
		Extractor: extractor,
		Counter:   creditSvc,
		Queue:     app.Queue,
		ViewTTL:   app.Config.SignedURLTTL,
	}
	app.ComparisonService = &comparison.Service{
		Texts:        extractor,
		Docs:         docRepo,
		Ledger:       creditSvc,
		Model:        app.Model,
		History:      historySvc,
		Notifier:     notifySvc,
		Cost:         app.Config.ComparisonCost,
		ModelTimeout: app.Config.ModelTimeout,
	}
	return nil
}

func isDevLike(env string) bool {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "dev", "local":
		return true
	default:
		return false
	}
}
