package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"

	"github.com/jomcas/ccit-wall-2026-sub001/internal/app"
	jobmetrics "github.com/jomcas/ccit-wall-2026-sub001/internal/jobs"
	"github.com/jomcas/ccit-wall-2026-sub001/internal/logging"
	"github.com/jomcas/ccit-wall-2026-sub001/internal/notifications"
	"github.com/jomcas/ccit-wall-2026-sub001/internal/platform/cache"
	"github.com/jomcas/ccit-wall-2026-sub001/internal/platform/db"
	"github.com/jomcas/ccit-wall-2026-sub001/internal/posts"
	"github.com/jomcas/ccit-wall-2026-sub001/internal/session"
	"github.com/jomcas/ccit-wall-2026-sub001/internal/users"
	"github.com/jomcas/ccit-wall-2026-sub001/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping worker startup")
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

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logging.Fatal(logger, "connect postgres", slog.Any("error", err))
	}
	defer pool.Close()

	metrics := jobmetrics.NewMetrics(nil)

	postsRepo := posts.NewRepository(pool)
	notifRepo := notifications.NewRepository(pool)
	notifService := notifications.NewService(notifRepo, postsRepo, logger)
	fanoutJob := jobs.NewNotifyFanoutJob(notifService, logger, metrics)

	usersRepo := users.NewRepository(pool)
	purgeJob := jobs.NewResetPurgeJob(usersRepo, logger, metrics)

	mailJob := jobs.NewMailJob(logger, metrics)

	handlers := []jobs.TaskHandler{
		{Type: jobs.TaskTypeSendEmail, Handler: mailJob.Handle},
		{Type: jobs.TaskTypeNotifyFanout, Handler: fanoutJob.Handle},
		{Type: jobs.TaskTypeResetPurge, Handler: purgeJob.Handle},
	}
	cron := []jobs.CronRegistration{
		{Spec: "0 * * * *", Task: jobs.NewResetPurgeTask(), Options: []asynq.Option{asynq.MaxRetry(3)}},
	}

	// Sweeping session activity only makes sense against the shared
	// store; the in-process map sweeps itself inside the API server.
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
		sweepJob := jobs.NewSessionSweepJob(session.NewRedisStore(redisClient), cfg.SessionIdleTimeout, logger, metrics)
		handlers = append(handlers, jobs.TaskHandler{Type: jobs.TaskTypeSessionSweep, Handler: sweepJob.Handle})
		cron = append(cron, jobs.CronRegistration{Spec: "*/15 * * * *", Task: jobs.NewSessionSweepTask(), Options: []asynq.Option{asynq.MaxRetry(1)}})
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Handlers:  handlers,
		Cron:      cron,
	})
	if err != nil {
		logging.Fatal(logger, "init worker", slog.Any("error", err))
	}

	if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logging.Fatal(logger, "worker run", slog.Any("error", err))
	}
}
