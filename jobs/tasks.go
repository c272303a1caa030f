package jobs

import (
	"context"
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskPeriodAutoLock triggers the scheduled month-end period lock.
	TaskPeriodAutoLock = "periods:auto_lock"
	// TaskSessionSweep deactivates sessions past their expiry.
	TaskSessionSweep = "sessions:sweep"
)

// PeriodAutoLockPayload scopes an auto-lock run.
type PeriodAutoLockPayload struct {
	// BusinessID limits the run to one business; empty means every
	// business with accounting periods.
	BusinessID string `json:"business_id,omitempty"`
}

// NewPeriodAutoLockTask constructs an auto-lock task.
func NewPeriodAutoLockTask(payload PeriodAutoLockPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskPeriodAutoLock, data), nil
}

// NewSessionSweepTask constructs a session sweep task.
func NewSessionSweepTask() *asynq.Task {
	return asynq.NewTask(TaskSessionSweep, nil)
}

// Client submits jobs to the queue.
type Client struct {
	client *asynq.Client
}

// NewClient constructs an Asynq client.
func NewClient(redisOpts asynq.RedisClientOpt) (*Client, error) {
	return &Client{client: asynq.NewClient(redisOpts)}, nil
}

// EnqueuePeriodAutoLock enqueues an auto-lock run.
func (c *Client) EnqueuePeriodAutoLock(ctx context.Context, payload PeriodAutoLockPayload) (*asynq.TaskInfo, error) {
	task, err := NewPeriodAutoLockTask(payload)
	if err != nil {
		return nil, err
	}
	return c.client.EnqueueContext(ctx, task, asynq.Queue(QueueDefault))
}

// Close releases client resources.
func (c *Client) Close() error {
	return c.client.Close()
}
