package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/auth-gateway/internal/api/http"
	"github.com/spec-kit/auth-gateway/internal/api/http/handlers"
	"github.com/spec-kit/auth-gateway/internal/auth"
	"github.com/spec-kit/auth-gateway/internal/config"
	"github.com/spec-kit/auth-gateway/internal/domain"
	"github.com/spec-kit/auth-gateway/internal/observability"
	"github.com/spec-kit/auth-gateway/internal/persistence"
	"github.com/spec-kit/auth-gateway/internal/ratelimit"
	"github.com/spec-kit/auth-gateway/internal/repository"
	"github.com/spec-kit/auth-gateway/internal/service"
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

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	subjects := buildSubjectRepository(ctx, cfg, pg, logger)

	tokens, err := auth.NewTokenManager(cfg.Auth.JWTSecret)
	if err != nil {
		logger.Fatal("failed to init token manager", zap.Error(err))
	}

	authService := service.NewAuthService(cfg.Auth, subjects, tokens)

	metrics := observability.NewMetrics()
	reporter := observability.NewAsyncReporter(logger, cfg.Reporting)

	app := fiber.New(fiber.Config{AppName: cfg.App.Name})
	httptransport.RegisterMiddlewares(app, httptransport.MiddlewareConfig{
		Logger:      logger,
		Metrics:     metrics,
		Reporter:    reporter,
		Development: cfg.App.IsDevelopment(),
		Timeout:     cfg.App.RequestTimeout(),
	})

	var authMiddleware *auth.Middleware
	if cfg.Auth.Enabled {
		authMiddleware = auth.NewMiddleware(tokens, cfg.Auth.ExcludedPaths)
	}

	rateLimiter := ratelimit.New(buildRateLimitStore(cfg, redis), ratelimit.Config{
		MaxRequests:   cfg.RateLimit.MaxRequests,
		ExcludedPaths: cfg.RateLimit.ExcludedPaths,
	}, logger, metrics)

	healthHandler := handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis)
	authHandler := handlers.NewAuthHandler(authService)

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         healthHandler,
		Auth:           authHandler,
		AuthMiddleware: authMiddleware,
		RateLimit:      rateLimiter,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	_ = app.Shutdown()

	flushCtx, flushCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer flushCancel()
	if err := reporter.Close(flushCtx); err != nil {
		logger.Warn("failure reporter flush interrupted", zap.Error(err))
	}
}

func buildSubjectRepository(ctx context.Context, cfg *config.Config, pg *persistence.Postgres, logger *zap.Logger) repository.SubjectRepository {
	if pool := pg.PoolHandle(); pool != nil {
		return repository.NewSubjectRepository(pool)
	}

	logger.Warn("using in-memory credential store; subjects do not survive restarts")
	subjects := repository.NewMemorySubjectRepository()
	seedDevSubject(ctx, cfg.Auth, subjects, logger)
	return subjects
}

func seedDevSubject(ctx context.Context, cfg config.AuthConfig, subjects repository.SubjectRepository, logger *zap.Logger) {
	if cfg.DevSubjectEmail == "" || cfg.DevSubjectPassword == "" {
		return
	}
	hash, err := auth.HashPassword(cfg.DevSubjectPassword, cfg.BcryptCost)
	if err != nil {
		logger.Warn("failed to hash dev subject password", zap.Error(err))
		return
	}
	subject := &domain.Subject{Email: cfg.DevSubjectEmail, PasswordHash: hash, Active: true}
	if err := subjects.Create(ctx, subject); err != nil {
		logger.Warn("failed to seed dev subject", zap.Error(err))
		return
	}
	logger.Info("seeded dev subject", zap.String("email", cfg.DevSubjectEmail))
}

func buildRateLimitStore(cfg *config.Config, redis *persistence.Redis) ratelimit.Store {
	if cfg.RateLimit.Store == "redis" {
		return ratelimit.NewRedisStore(redis.Client, cfg.RateLimit.Window)
	}
	return ratelimit.NewMemoryStore(cfg.RateLimit.Window)
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
