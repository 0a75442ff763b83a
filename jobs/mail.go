package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/jomcas/ccit-wall-2026-sub001/internal/jobs"
)

// MailJob delivers transactional mail. Real SMTP stays out of scope;
// the job logs the send through the sanitizing logger, which is enough
// for local and test deployments. The body is never logged because
// reset mails carry live tokens.
type MailJob struct {
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
}

// NewMailJob wires dependencies for the mail handler.
func NewMailJob(logger *slog.Logger, metrics *jobmetrics.Metrics) *MailJob {
	return &MailJob{Logger: logger, Metrics: metrics}
}

// Handle processes TaskTypeSendEmail tasks.
func (j *MailJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil {
		return errors.New("mail: handler not configured")
	}
	var payload SendEmailPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	tracker := j.metrics().Track(TaskTypeSendEmail)
	j.logger().Info("sending mail", slog.String("to", payload.To), slog.String("subject", payload.Subject))
	return tracker.End(nil)
}

func (j *MailJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger
	}
	return slog.Default()
}

func (j *MailJob) metrics() *jobmetrics.Metrics {
	if j.Metrics != nil {
		return j.Metrics
	}
	return defaultJobMetrics
}
