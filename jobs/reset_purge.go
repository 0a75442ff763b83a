package jobs

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/jomcas/ccit-wall-2026-sub001/internal/jobs"
	"github.com/jomcas/ccit-wall-2026-sub001/internal/users"
)

// ResetPurgeJob clears password-reset fingerprints whose expiry has
// passed. Expired tokens are already rejected on use; the purge just
// keeps dead credential material out of storage.
type ResetPurgeJob struct {
	Users   users.Repository
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
	clock   func() time.Time
}

// NewResetPurgeJob wires dependencies for the purge handler.
func NewResetPurgeJob(repo users.Repository, logger *slog.Logger, metrics *jobmetrics.Metrics) *ResetPurgeJob {
	return &ResetPurgeJob{Users: repo, Logger: logger, Metrics: metrics, clock: func() time.Time { return time.Now().UTC() }}
}

// Handle processes TaskTypeResetPurge tasks.
func (j *ResetPurgeJob) Handle(ctx context.Context, _ *asynq.Task) error {
	if j == nil || j.Users == nil {
		return errors.New("reset purge: handler not configured")
	}
	tracker := j.metrics().Track(TaskTypeResetPurge)
	purged, err := j.Users.PurgeExpiredResetTokens(ctx, j.clock())
	if err != nil {
		j.logger().Error("reset token purge", slog.Any("error", err))
		return tracker.End(err)
	}
	if purged > 0 {
		j.logger().Info("reset token purge", slog.Int("purged", purged))
	}
	return tracker.End(nil)
}

func (j *ResetPurgeJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger
	}
	return slog.Default()
}

func (j *ResetPurgeJob) metrics() *jobmetrics.Metrics {
	if j.Metrics != nil {
		return j.Metrics
	}
	return defaultJobMetrics
}
