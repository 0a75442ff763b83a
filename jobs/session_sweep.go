package jobs

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/jomcas/ccit-wall-2026-sub001/internal/jobs"
	"github.com/jomcas/ccit-wall-2026-sub001/internal/session"
)

// SessionSweepJob purges idle session-activity entries from a shared
// store. Only meaningful against the Redis store: the in-process map
// lives inside the API server and sweeps itself on request traffic.
type SessionSweepJob struct {
	Store   session.ActivityStore
	Timeout time.Duration
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
	clock   func() time.Time
}

// NewSessionSweepJob wires dependencies for the sweep handler.
func NewSessionSweepJob(store session.ActivityStore, timeout time.Duration, logger *slog.Logger, metrics *jobmetrics.Metrics) *SessionSweepJob {
	return &SessionSweepJob{Store: store, Timeout: timeout, Logger: logger, Metrics: metrics, clock: time.Now}
}

// Handle processes TaskTypeSessionSweep tasks.
func (j *SessionSweepJob) Handle(ctx context.Context, _ *asynq.Task) error {
	if j == nil || j.Store == nil {
		return errors.New("session sweep: handler not configured")
	}
	tracker := j.metrics().Track(TaskTypeSessionSweep)
	removed, err := j.Store.Sweep(ctx, j.clock(), j.Timeout)
	if err != nil {
		j.logger().Error("session sweep", slog.Any("error", err))
		return tracker.End(err)
	}
	if removed > 0 {
		j.logger().Info("session sweep", slog.Int("removed", removed))
	}
	return tracker.End(nil)
}

func (j *SessionSweepJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger
	}
	return slog.Default()
}

func (j *SessionSweepJob) metrics() *jobmetrics.Metrics {
	if j.Metrics != nil {
		return j.Metrics
	}
	return defaultJobMetrics
}
