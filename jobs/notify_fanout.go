package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/jomcas/ccit-wall-2026-sub001/internal/jobs"
	"github.com/jomcas/ccit-wall-2026-sub001/internal/notifications"
)

var defaultJobMetrics = jobmetrics.NewMetrics(nil)

// NotifyFanoutJob turns one wall event into notification rows for its
// audience.
type NotifyFanoutJob struct {
	Notifications *notifications.Service
	Logger        *slog.Logger
	Metrics       *jobmetrics.Metrics
}

// NewNotifyFanoutJob wires dependencies for the fanout handler.
func NewNotifyFanoutJob(svc *notifications.Service, logger *slog.Logger, metrics *jobmetrics.Metrics) *NotifyFanoutJob {
	return &NotifyFanoutJob{Notifications: svc, Logger: logger, Metrics: metrics}
}

// Handle processes TaskTypeNotifyFanout tasks.
func (j *NotifyFanoutJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Notifications == nil {
		return errors.New("notify fanout: handler not configured")
	}
	var payload NotifyFanoutPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	if payload.PostID == "" || payload.ActorID == "" {
		return asynq.SkipRetry
	}
	tracker := j.metrics().Track(TaskTypeNotifyFanout)
	written, err := j.Notifications.Fanout(ctx, payload.Kind, payload.PostID, payload.ActorID)
	if err != nil {
		j.logger().Error("notification fanout", slog.String("post", payload.PostID), slog.Any("error", err))
		return tracker.End(err)
	}
	j.logger().Info("notification fanout", slog.String("kind", payload.Kind), slog.String("post", payload.PostID), slog.Int("written", written))
	return tracker.End(nil)
}

func (j *NotifyFanoutJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger
	}
	return slog.Default()
}

func (j *NotifyFanoutJob) metrics() *jobmetrics.Metrics {
	if j.Metrics != nil {
		return j.Metrics
	}
	return defaultJobMetrics
}
