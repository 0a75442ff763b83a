package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"golang.org/x/sync/errgroup"

	"github.com/jomcas/ccit-wall-2026-sub001/internal/app"
	"github.com/jomcas/ccit-wall-2026-sub001/internal/auth"
	"github.com/jomcas/ccit-wall-2026-sub001/internal/logging"
	"github.com/jomcas/ccit-wall-2026-sub001/internal/notifications"
	"github.com/jomcas/ccit-wall-2026-sub001/internal/observability"
	"github.com/jomcas/ccit-wall-2026-sub001/internal/platform/cache"
	"github.com/jomcas/ccit-wall-2026-sub001/internal/platform/db"
	"github.com/jomcas/ccit-wall-2026-sub001/internal/platform/httpx"
	"github.com/jomcas/ccit-wall-2026-sub001/internal/posts"
	"github.com/jomcas/ccit-wall-2026-sub001/internal/session"
	"github.com/jomcas/ccit-wall-2026-sub001/internal/shared"
	"github.com/jomcas/ccit-wall-2026-sub001/internal/users"
	"github.com/jomcas/ccit-wall-2026-sub001/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	jwtSecret := cfg.JWTSecret
	if jwtSecret == "" {
		// LoadConfig already refused this in production.
		jwtSecret = auth.DevFallbackSecret
		logging.SecurityEvent(logger, logging.SeverityHigh, "dev_fallback_secret_in_use",
			"detail", "JWT_SECRET is unset; tokens are signed with the development fallback")
	}

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logging.Fatal(logger, "connect postgres", slog.Any("error", err))
	}
	defer pool.Close()

	errWriter := httpx.NewErrorWriter(logger, cfg.IsProduction(), cfg.DebugErrors)
	tokens := auth.NewTokenService(jwtSecret, cfg.JWTTTL, cfg.JWTIssuer)
	authmw := auth.NewMiddleware(tokens, logger, errWriter)

	var activity session.ActivityStore = session.NewMemoryStore()
	if cfg.SessionStore == "redis" {
		redisClient, err := cache.New(ctx, cfg.RedisAddr)
		if err != nil {
			logging.Fatal(logger, "connect redis", slog.Any("error", err))
		}
		defer func() {
			if err := redisClient.Close(); err != nil {
				logger.Warn("redis close", slog.Any("error", err))
			}
		}()
		activity = session.NewRedisStore(redisClient)
	}
	sessions := session.NewManager(cfg.SessionConfig(), activity, logger)

	jobClient, err := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	if err != nil {
		logging.Fatal(logger, "init job client", slog.Any("error", err))
	}
	defer func() {
		if err := jobClient.Close(); err != nil {
			logger.Warn("job client close", slog.Any("error", err))
		}
	}()

	audit := shared.NewAuditTrail(pool)

	usersRepo := users.NewRepository(pool)
	usersService := users.NewService(usersRepo, tokens, jobClient, audit, logger, cfg.BcryptCost)
	usersHandler := users.NewHandler(users.HandlerConfig{
		Logger:            logger,
		Service:           usersService,
		Sessions:          sessions,
		Errors:            errWriter,
		Auth:              authmw,
		CredentialLimiter: app.CredentialRateLimit(cfg, errWriter),
	})

	postsRepo := posts.NewRepository(pool)
	postsService := posts.NewService(postsRepo, jobClient, logger)
	postsHandler := posts.NewHandler(logger, postsService, errWriter, authmw)

	notifRepo := notifications.NewRepository(pool)
	notifService := notifications.NewService(notifRepo, postsRepo, logger)
	notifHandler := notifications.NewHandler(logger, notifService, errWriter, authmw)

	metrics := observability.NewMetrics()

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobHandler := jobs.NewHandler(inspector, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:               logger,
		Config:               cfg,
		Sessions:             sessions,
		Errors:               errWriter,
		Auth:                 authmw,
		UsersHandler:         usersHandler,
		PostsHandler:         postsHandler,
		NotificationsHandler: notifHandler,
		JobHandler:           jobHandler,
		Metrics:              metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr), slog.String("env", cfg.AppEnv))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logging.Fatal(logger, "server exited", slog.Any("error", err))
	}
}
