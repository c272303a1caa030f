package jobs

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/vigilpos/vigilpos/internal/sessions"
)

// SessionSweepJob deactivates sessions past their expiry so stale device
// logins stop counting as active.
type SessionSweepJob struct {
	Service *sessions.Service
	Logger  *slog.Logger
}

// NewSessionSweepJob initialises the sweep handler.
func NewSessionSweepJob(service *sessions.Service, logger *slog.Logger) *SessionSweepJob {
	return &SessionSweepJob{Service: service, Logger: logger}
}

// Handle executes one sweep.
func (j *SessionSweepJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Service == nil {
		return errors.New("session sweep: handler not configured")
	}
	start := time.Now()
	swept, err := j.Service.SweepExpired(ctx)
	if err != nil {
		j.logger().Error("session sweep failed", slog.Any("error", err))
		return err
	}
	j.logger().Info("completed session sweep",
		slog.Int64("swept", swept),
		slog.Duration("duration", time.Since(start)))
	return nil
}

func (j *SessionSweepJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger
	}
	return slog.Default()
}
