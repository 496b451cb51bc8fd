// Package app wires the storefront's dependencies and runs the HTTP
// server.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/nextshop/storefront/internal/auth"
	"github.com/nextshop/storefront/internal/cache"
	"github.com/nextshop/storefront/internal/catalog"
	"github.com/nextshop/storefront/internal/config"
	"github.com/nextshop/storefront/internal/event"
	handler "github.com/nextshop/storefront/internal/handler/http"
	"github.com/nextshop/storefront/internal/repository/postgres"
	"github.com/nextshop/storefront/internal/service"
	"github.com/nextshop/storefront/migrations"
	"github.com/nextshop/storefront/pkg/database"
	"github.com/nextshop/storefront/pkg/health"
	pkgkafka "github.com/nextshop/storefront/pkg/kafka"
	"github.com/nextshop/storefront/pkg/middleware"
)

// App holds the storefront's long-lived resources.
type App struct {
	cfg        *config.Config
	logger     *slog.Logger
	pool       *pgxpool.Pool
	redis      *redis.Client
	producer   *pkgkafka.Producer
	httpServer *http.Server
}

// NewApp initializes every dependency: database pool and migrations,
// optional Redis cache and Kafka producer, the catalog pipeline, services,
// and the HTTP server.
func NewApp(cfg *config.Config, logger *slog.Logger) (*App, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := database.NewPostgresPool(ctx, cfg.PostgresConfig(), logger)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	logger.Info("connected to PostgreSQL",
		slog.String("host", cfg.PostgresHost),
		slog.String("database", cfg.PostgresDB),
	)

	if err := database.RunMigrations(ctx, pool, migrations.FS, logger); err != nil {
		pool.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	var (
		redisClient *redis.Client
		queryCache  *cache.QueryCache
	)
	if cfg.CacheEnabled {
		redisClient, err = database.NewRedisClient(ctx, cfg.RedisConfig())
		if err != nil {
			pool.Close()
			return nil, fmt.Errorf("connect to redis: %w", err)
		}
		queryCache = cache.New(redisClient, cfg.CacheTTL(), logger)
		logger.Info("query cache enabled",
			slog.String("redis", cfg.RedisConfig().Addr()),
			slog.Duration("ttl", cfg.CacheTTL()),
		)
	}

	var producer *pkgkafka.Producer
	if cfg.KafkaEnabled {
		producer = pkgkafka.NewProducer(pkgkafka.DefaultProducerConfig(cfg.KafkaBrokers), logger)
		logger.Info("kafka producer initialized", slog.Any("brokers", cfg.KafkaBrokers))
	}

	// Dependency graph.
	productRepo := postgres.NewProductRepository(pool)
	reviewRepo := postgres.NewReviewRepository(pool)
	categoryRepo := postgres.NewCategoryRepository(pool)

	var events *event.Producer
	if producer != nil {
		events = event.NewProducer(producer, logger)
	} else {
		events = event.NewProducer(nil, logger)
	}

	catalogSvc := service.NewCatalogService(service.CatalogConfig{
		Products:   productRepo,
		Reviews:    reviewRepo,
		Categories: categoryRepo,
		Builder:    catalog.NewBuilder(catalog.SearchMode(cfg.SearchMode)),
		Pager:      catalog.NewPager(catalog.PageMode(cfg.PaginationMode), productRepo),
		Refiner:    catalog.NewRefiner(cfg.SearchThreshold),
		Assembler:  catalog.NewAssembler(logger),
		Cache:      queryCache,
		Events:     events,
		Logger:     logger,
	})
	reviewSvc := service.NewReviewService(reviewRepo, queryCache, events, logger)

	verifier := auth.NewJWTVerifier(cfg.AuthJWTSecret)

	// Health checks.
	checker := health.NewChecker(5 * time.Second)
	checker.Register("postgres", func(ctx context.Context) error {
		return pool.Ping(ctx)
	})
	if redisClient != nil {
		checker.Register("redis", func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		})
	}
	if producer != nil {
		checker.Register("kafka", producer.Ping)
	}

	corsCfg := middleware.DefaultCORSConfig()
	corsCfg.AllowedOrigins = cfg.CORSAllowedOrigins

	router := handler.NewRouter(handler.RouterConfig{
		Products:       handler.NewProductHandler(catalogSvc, logger),
		Reviews:        handler.NewReviewHandler(reviewSvc, logger),
		Categories:     handler.NewCategoryHandler(catalogSvc, logger),
		Verifier:       verifier.Verify,
		Health:         checker,
		Logger:         logger,
		RateLimitRPS:   cfg.RateLimitRPS,
		RateLimitBurst: cfg.RateLimitBurst,
		CORS:           corsCfg,
	})

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &App{
		cfg:        cfg,
		logger:     logger,
		pool:       pool,
		redis:      redisClient,
		producer:   producer,
		httpServer: httpServer,
	}, nil
}

// Run starts the HTTP server and blocks until the context is canceled or
// the server fails.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		a.logger.Info("starting HTTP server", slog.String("addr", a.httpServer.Addr))
		if err := a.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
	case err := <-errCh:
		return err
	}

	return a.Shutdown()
}

// Shutdown gracefully stops all components.
func (a *App) Shutdown() error {
	a.logger.Info("shutting down application...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := a.httpServer.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("http server shutdown error", slog.String("error", err.Error()))
	}

	if a.producer != nil {
		if err := a.producer.Close(); err != nil {
			a.logger.Error("kafka producer close error", slog.String("error", err.Error()))
		}
	}

	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.logger.Error("redis close error", slog.String("error", err.Error()))
		}
	}

	a.pool.Close()

	a.logger.Info("application shutdown complete")
	return nil
}
