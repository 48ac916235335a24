package main

import (
	"context"
	"fmt"
	"time"

	catalogapp "github.com/cotiza/backend/internal/application/catalog"
	identityapp "github.com/cotiza/backend/internal/application/identity"
	partnerapp "github.com/cotiza/backend/internal/application/partner"
	quotationapp "github.com/cotiza/backend/internal/application/quotation"
	"github.com/cotiza/backend/internal/infrastructure/auth"
	"github.com/cotiza/backend/internal/infrastructure/cache"
	"github.com/cotiza/backend/internal/infrastructure/config"
	"github.com/cotiza/backend/internal/infrastructure/logger"
	"github.com/cotiza/backend/internal/infrastructure/notify"
	"github.com/cotiza/backend/internal/infrastructure/persistence"
	"github.com/cotiza/backend/internal/infrastructure/persistence/models"
	"github.com/cotiza/backend/internal/infrastructure/printing"
	"github.com/cotiza/backend/internal/infrastructure/storage"
	"github.com/cotiza/backend/internal/infrastructure/telemetry"
	"github.com/cotiza/backend/internal/interfaces/http/handler"
	"github.com/cotiza/backend/internal/interfaces/http/middleware"
	"github.com/cotiza/backend/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type dependencies struct {
	engine *gin.Engine
}

// wire opens the stores, builds the services and returns the HTTP engine.
// Every opened resource is pushed on cleanup.
func wire(ctx context.Context, cfg *config.Config, tel *telemetryProviders, log *zap.Logger, cleanup *cleanupStack) (*dependencies, error) {
	db, err := openDatabase(cfg, log)
	if err != nil {
		return nil, err
	}
	cleanup.push("database", db.Close)

	redisClient := openRedis(ctx, cfg.Redis, log)
	if redisClient != nil {
		cleanup.push("redis", redisClient.Close)
	}
	var blacklist auth.TokenBlacklist = auth.NewInMemoryTokenBlacklist()
	if redisClient != nil {
		blacklist = auth.NewRedisTokenBlacklist(redisClient)
	}

	archive, err := openArchive(ctx, cfg.Storage, log)
	if err != nil {
		return nil, err
	}

	renderer, err := newRenderer(cfg.PDF, log)
	if err != nil {
		return nil, err
	}
	cleanup.push("pdf renderer", renderer.Close)
	printer := printing.NewQuotationPrinter(printing.NewTemplateEngine(), renderer, log,
		printing.WithIssuer(printing.Issuer{Name: cfg.App.Name}))

	metrics, err := telemetry.NewBusinessMetrics(tel.metrics.Meter("cotiza-backend"))
	if err != nil {
		return nil, fmt.Errorf("business metrics: %w", err)
	}

	jwtService := auth.NewJWTService(cfg.JWT)
	userRepo := persistence.NewGormUserRepository(db.DB)

	productOpts := []catalogapp.Option{
		catalogapp.WithStatsCache(cache.NewProductStatsCache(redisClient, statsCacheTTL, log)),
		catalogapp.WithMetrics(metrics),
	}
	quotationOpts := []quotationapp.Option{
		quotationapp.WithPrinter(printer),
		quotationapp.WithMetrics(metrics),
	}
	if archive != nil {
		productOpts = append(productOpts, catalogapp.WithArchive(archive))
		quotationOpts = append(quotationOpts, quotationapp.WithArchive(archive))
	}

	handlers := router.Handlers{
		Auth: handler.NewAuthHandler(identityapp.NewAuthService(
			userRepo, jwtService, blacklist, notify.NewLogNotifier(log), cfg.App, log)),
		User: handler.NewUserHandler(identityapp.NewUserService(
			userRepo, blacklist, jwtService.GetAccessTokenExpiration())),
		Client: handler.NewClientHandler(partnerapp.NewClientService(
			persistence.NewGormClientRepository(db.DB))),
		Product: handler.NewProductHandler(catalogapp.NewProductService(
			persistence.NewGormProductRepository(db.DB), log, productOpts...)),
		Quotation: handler.NewQuotationHandler(quotationapp.NewService(
			persistence.NewGormQuotationRepository(db.DB), cfg.Quotation, log, quotationOpts...)),
		System: handler.NewSystemHandler(cfg.App.Name, version, db),
	}

	guards := router.Guards{
		RequireAuth: middleware.JWTAuthMiddlewareWithConfig(middleware.JWTMiddlewareConfig{
			JWTService:     jwtService,
			TokenBlacklist: blacklist,
			Logger:         log,
		}),
	}
	if cfg.HTTP.AuthRateLimit > 0 {
		limiter := middleware.NewRateLimiter(cfg.HTTP.AuthRateLimit, cfg.HTTP.AuthRateWindow)
		guards.PublicAuth = []gin.HandlerFunc{middleware.RateLimit(limiter)}
	}

	engine := newEngine(cfg, tel, log)
	r := router.NewRouter(engine)
	router.RegisterAPI(engine, r, handlers, guards)
	for _, route := range r.Routes() {
		log.Debug("Route registered",
			zap.String("group", route.Group),
			zap.String("method", route.Method),
			zap.String("path", route.Path))
	}
	return &dependencies{engine: engine}, nil
}

func openDatabase(cfg *config.Config, log *zap.Logger) (*persistence.Database, error) {
	opts := []persistence.Option{
		persistence.WithLogger(logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level), slowQueryThreshold)),
	}
	if cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled {
		system := "postgresql"
		if cfg.Database.Driver == persistence.DriverSQLite {
			system = "sqlite"
		}
		opts = append(opts, persistence.WithPlugins(telemetry.NewDBTracingPlugin(telemetry.DBTracingConfig{
			DBSystem:        system,
			LogFullSQL:      cfg.App.Env == "development",
			SlowQueryThresh: slowQueryThreshold,
		}, log)))
	}

	db, err := persistence.NewDatabase(&cfg.Database, opts...)
	if err != nil {
		return nil, err
	}
	// sqlite is for local development; postgres schemas come from cmd/migrate
	if db.Driver() == persistence.DriverSQLite {
		if err := db.DB.AutoMigrate(models.All()...); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("migrate sqlite schema: %w", err)
		}
	}
	log.Info("Database connected", zap.String("driver", db.Driver()))
	return db, nil
}

// openRedis returns nil when Redis is disabled or unreachable. Callers fall
// back to in-process stores.
func openRedis(ctx context.Context, cfg config.RedisConfig, log *zap.Logger) redis.UniversalClient {
	if !cfg.Enabled {
		return nil
	}
	client, err := auth.NewRedisClient(ctx, cfg)
	if err != nil {
		log.Warn("Redis unavailable, using in-memory stores", zap.Error(err))
		return nil
	}
	return client
}

// openArchive returns nil when storage is disabled
func openArchive(ctx context.Context, cfg config.StorageConfig, log *zap.Logger) (storage.ObjectStorage, error) {
	if !cfg.Enabled {
		return nil, nil
	}
	store, err := storage.NewS3ObjectStorage(&cfg, storage.WithLogger(log))
	if err != nil {
		return nil, fmt.Errorf("object storage: %w", err)
	}
	if cfg.CreateBucket {
		bucketCtx, cancel := context.WithTimeout(ctx, bucketTimeout)
		defer cancel()
		if err := store.EnsureBucket(bucketCtx); err != nil {
			return nil, fmt.Errorf("prepare bucket %s: %w", cfg.Bucket, err)
		}
	}
	return store, nil
}

func newRenderer(cfg config.PDFConfig, log *zap.Logger) (printing.PDFRenderer, error) {
	if !cfg.Enabled {
		return printing.DisabledRenderer{}, nil
	}
	r, err := printing.NewChromedpRenderer(cfg, log)
	if err != nil {
		return nil, fmt.Errorf("pdf renderer: %w", err)
	}
	return r, nil
}

func newEngine(cfg *config.Config, tel *telemetryProviders, log *zap.Logger) *gin.Engine {
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	middleware.SetupValidator()

	engine := gin.New()
	engine.Use(
		middleware.RequestID(),
		logger.GinMiddleware(log),
		logger.Recovery(log),
		middleware.TracingWithConfig(middleware.TracingConfig{
			ServiceName: tel.cfg.ServiceName,
			Enabled:     tel.traces.IsEnabled(),
		}),
		middleware.SpanErrorMarker(),
		middleware.HTTPMetricsWithMeter(tel.metrics.Meter("cotiza-backend/http"), log),
		middleware.CORSWithConfig(middleware.CORSConfig{
			AllowOrigins:     cfg.HTTP.CORSAllowOrigins,
			AllowMethods:     cfg.HTTP.CORSAllowMethods,
			AllowHeaders:     cfg.HTTP.CORSAllowHeaders,
			ExposeHeaders:    []string{middleware.RequestIDHeader, "Content-Disposition"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}),
		middleware.Secure(),
		middleware.BodyLimit(cfg.HTTP.MaxBodySize),
	)
	return engine
}
