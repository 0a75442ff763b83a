// Package jobs owns the background work the API must not do inline:
// notification fanout, outbound mail, and the periodic hygiene sweeps
// over reset tokens and session activity.
package jobs

import (
	"context"
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"

	// TaskTypeSendEmail delivers a transactional email.
	TaskTypeSendEmail = "mail:send"
	// TaskTypeNotifyFanout writes notification rows for a wall event.
	TaskTypeNotifyFanout = "notify:fanout"
	// TaskTypeResetPurge clears expired password-reset fingerprints.
	TaskTypeResetPurge = "auth:reset_purge"
	// TaskTypeSessionSweep purges idle session-activity entries.
	TaskTypeSessionSweep = "session:sweep"
)

// SendEmailPayload describes the information required to send an email.
type SendEmailPayload struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// NotifyFanoutPayload describes a wall event to fan out.
type NotifyFanoutPayload struct {
	Kind    string `json:"kind"`
	PostID  string `json:"postId"`
	ActorID string `json:"actorId"`
}

// NewSendEmailTask constructs the mail task.
func NewSendEmailTask(payload SendEmailPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeSendEmail, data), nil
}

// NewNotifyFanoutTask constructs the fanout task.
func NewNotifyFanoutTask(payload NotifyFanoutPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeNotifyFanout, data), nil
}

// NewResetPurgeTask constructs the reset-token purge task. No payload:
// the job always purges everything past expiry.
func NewResetPurgeTask() *asynq.Task {
	return asynq.NewTask(TaskTypeResetPurge, nil)
}

// NewSessionSweepTask constructs the session sweep task.
func NewSessionSweepTask() *asynq.Task {
	return asynq.NewTask(TaskTypeSessionSweep, nil)
}

// Client submits jobs to the queue. It satisfies the enqueue interfaces
// the domain services declare (users.Mailer, posts.Notifier).
type Client struct {
	client *asynq.Client
}

// NewClient constructs an Asynq client.
func NewClient(redisOpts asynq.RedisClientOpt) (*Client, error) {
	return &Client{client: asynq.NewClient(redisOpts)}, nil
}

// EnqueueSendEmail enqueues a send-email task.
func (c *Client) EnqueueSendEmail(ctx context.Context, to, subject, body string) error {
	task, err := NewSendEmailTask(SendEmailPayload{To: to, Subject: subject, Body: body})
	if err != nil {
		return err
	}
	_, err = c.client.EnqueueContext(ctx, task, asynq.Queue(QueueDefault))
	return err
}

// EnqueueNotifyFanout enqueues a notification fanout task.
func (c *Client) EnqueueNotifyFanout(ctx context.Context, kind, postID, actorID string) error {
	task, err := NewNotifyFanoutTask(NotifyFanoutPayload{Kind: kind, PostID: postID, ActorID: actorID})
	if err != nil {
		return err
	}
	_, err = c.client.EnqueueContext(ctx, task, asynq.Queue(QueueDefault))
	return err
}

// Close releases client resources.
func (c *Client) Close() error {
	return c.client.Close()
}
