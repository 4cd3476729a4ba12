package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	httptransport "github.com/darsni/backend/internal/api/http"
	"github.com/darsni/backend/internal/api/http/handlers"
	"github.com/darsni/backend/internal/auth"
	"github.com/darsni/backend/internal/config"
	"github.com/darsni/backend/internal/events"
	"github.com/darsni/backend/internal/observability"
	"github.com/darsni/backend/internal/persistence"
	"github.com/darsni/backend/internal/repository"
	"github.com/darsni/backend/internal/service"
	"github.com/darsni/backend/internal/worker"
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

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := observability.NewMetrics(registry)

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, cfg.App.Name, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), cfg.Postgres.MigrationsDir, logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(ctx, cfg.Redis, logger)
	defer redis.Close()

	provider, err := auth.NewFirebaseProvider(ctx, cfg.Firebase, logger)
	if err != nil {
		logger.Fatal("failed to init identity provider", zap.Error(err))
	}
	issuer := auth.NewSessionIssuer(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTL, cfg.Auth.RefreshTokenTTL)
	providerGuard := auth.NewGuard("provider", auth.NewProviderResolver(provider), logger, metrics)
	crossCheckGuard := auth.NewGuard("cross_check", auth.NewCrossCheckResolver(issuer, provider), logger, metrics)

	pool := pg.PoolHandle()
	userRepo := repository.NewUserRepository(pool)
	courseRepo := repository.NewCourseRepository(pool)
	progressRepo := repository.NewProgressRepository(pool)
	quoteRepo := repository.NewQuoteRepository(pool)
	leaderboardStore := repository.NewLeaderboardStore(redis.Client, cfg.Leaderboard.Key)

	dispatcher := events.NewInMemoryDispatcher()
	leaderboardService := service.NewLeaderboardService(leaderboardStore, cfg.Leaderboard, metrics, logger)
	worker.StartXPWorker(dispatcher, leaderboardService)

	sessionService := service.NewSessionService(issuer, logger)
	userService := service.NewUserService(userRepo)
	quoteService := service.NewQuoteService(quoteRepo)
	courseService := service.NewCourseService(service.CourseDependencies{
		CourseRepo:   courseRepo,
		ProgressRepo: progressRepo,
		Dispatcher:   dispatcher,
		Logger:       logger,
	})

	app := fiber.New(fiber.Config{
		AppName:               cfg.App.Name,
		DisableStartupMessage: cfg.App.IsProduction(),
		ErrorHandler:          httptransport.ErrorHandler(logger, metrics),
	})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health: handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, map[string]handlers.Pinger{
			"postgres": pg,
			"redis":    redis,
		}),
		Sessions:        handlers.NewSessionHandler(sessionService),
		Users:           handlers.NewUsersHandler(userService),
		Courses:         handlers.NewCoursesHandler(courseService),
		Leaderboard:     handlers.NewLeaderboardHandler(leaderboardService, quoteService),
		Metrics:         metrics,
		ProviderGuard:   providerGuard,
		CrossCheckGuard: crossCheckGuard,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
