package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vigilpos/vigilpos/internal/fraud"
	"github.com/vigilpos/vigilpos/internal/observability"
)

// FraudSignalJob persists incoming fraud signals for the detector to pick
// up. Signals are advisory; a failed insert is retried by the queue without
// touching any gate decision.
type FraudSignalJob struct {
	Pool    *pgxpool.Pool
	Logger  *slog.Logger
	Metrics *observability.Metrics
	clock   func() time.Time
}

// NewFraudSignalJob initialises the fraud signal handler.
func NewFraudSignalJob(pool *pgxpool.Pool, logger *slog.Logger, metrics *observability.Metrics) *FraudSignalJob {
	return &FraudSignalJob{
		Pool:    pool,
		Logger:  logger,
		Metrics: metrics,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// Handle stores one signal.
func (j *FraudSignalJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Pool == nil {
		return errors.New("fraud signal: handler not configured")
	}
	var signal fraud.Signal
	if err := json.Unmarshal(t.Payload(), &signal); err != nil {
		return asynq.SkipRetry
	}
	if signal.BusinessID == "" || signal.Type == "" {
		return asynq.SkipRetry
	}

	var payload []byte
	if signal.Payload != nil {
		data, err := json.Marshal(signal.Payload)
		if err != nil {
			return asynq.SkipRetry
		}
		payload = data
	}

	_, err := j.Pool.Exec(ctx, `INSERT INTO fraud_signals (id, business_id, user_id, signal_type, severity, description, payload, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		uuid.NewString(), signal.BusinessID, signal.UserID, signal.Type,
		signal.Severity, signal.Description, payload, j.clock())
	if err != nil {
		j.logger().Error("persist fraud signal", slog.Any("error", err))
		return err
	}

	j.Metrics.FraudSignal(signal.Type, signal.Severity)
	j.logger().Info("fraud signal recorded",
		slog.String("type", signal.Type),
		slog.String("severity", signal.Severity),
		slog.String("business_id", signal.BusinessID))
	return nil
}

func (j *FraudSignalJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger
	}
	return slog.Default()
}
