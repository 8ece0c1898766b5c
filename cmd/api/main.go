package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	httptransport "github.com/pancakepress/posts-api/internal/api/http"
	"github.com/pancakepress/posts-api/internal/api/http/handlers"
	"github.com/pancakepress/posts-api/internal/auth"
	"github.com/pancakepress/posts-api/internal/config"
	"github.com/pancakepress/posts-api/internal/events"
	"github.com/pancakepress/posts-api/internal/observability"
	"github.com/pancakepress/posts-api/internal/persistence"
	"github.com/pancakepress/posts-api/internal/repository"
	"github.com/pancakepress/posts-api/internal/service"
	"github.com/pancakepress/posts-api/internal/validation"
	"github.com/pancakepress/posts-api/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	tokens, err := auth.NewTokenManager(
		auth.SigningConfig{Secret: []byte(cfg.Auth.JWTSecret), Algorithm: cfg.Auth.JWTAlgorithm},
		cfg.Auth.AccessTokenTTL(),
		auth.WithLeeway(cfg.Auth.Leeway()),
	)
	if err != nil {
		logger.Fatal("invalid signing configuration", zap.Error(err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if pg.Enabled() && cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), cfg.Postgres.MigrationsDir, logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(ctx, cfg.Redis, cfg.Cache, logger)
	defer redis.Close()

	var postRepo repository.PostRepository
	if pg.Enabled() {
		postRepo = repository.NewPostgresPostRepository(pg.PoolHandle())
	} else {
		postRepo = repository.NewMemoryPostRepository(repository.DefaultPosts()...)
	}
	if redis.Enabled() {
		postRepo = repository.NewCachedPostRepository(postRepo, redis.Client, cfg.Cache.TTL(), logger)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := observability.NewMetrics(registry)

	dispatcher := events.NewInMemoryDispatcher()
	worker.StartAuditWorker(service.NewAuditService(dispatcher, logger, metrics))

	postService := service.NewPostService(postRepo, dispatcher, logger)
	authService := service.NewAuthService(repository.NewMemoryUserRepository(), tokens, auth.NewPasswordHasher(cfg.Auth.BcryptCost))
	guard := auth.NewGuard(auth.NewBearerExtractor(), tokens, logger, auth.WithRecorder(metrics))
	validator := validation.New()

	app := fiber.New(fiber.Config{AppName: cfg.App.Name})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health: handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, map[string]handlers.Pinger{
			"postgres": pg,
			"redis":    redis,
		}),
		Posts:    handlers.NewPostsHandler(postService, validator, logger),
		Users:    handlers.NewUsersHandler(authService, validator),
		Guard:    guard,
		Gatherer: registry,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	if err := app.Shutdown(); err != nil {
		logger.Warn("shutdown", zap.Error(err))
	}
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
