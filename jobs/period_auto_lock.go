package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vigilpos/vigilpos/internal/periods"
)

// PeriodAutoLockJob runs the scheduled month-end lock across businesses.
// Missing a run is harmless: the next run locks the same period.
type PeriodAutoLockJob struct {
	Service *periods.Service
	Pool    *pgxpool.Pool
	Logger  *slog.Logger
}

// NewPeriodAutoLockJob initialises the auto-lock handler.
func NewPeriodAutoLockJob(service *periods.Service, pool *pgxpool.Pool, logger *slog.Logger) *PeriodAutoLockJob {
	return &PeriodAutoLockJob{Service: service, Pool: pool, Logger: logger}
}

// Handle executes one auto-lock run.
func (j *PeriodAutoLockJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Service == nil {
		return errors.New("period auto lock: handler not configured")
	}
	var payload PeriodAutoLockPayload
	if len(t.Payload()) > 0 {
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}
	}

	start := time.Now()
	businesses := []string{payload.BusinessID}
	if payload.BusinessID == "" {
		ids, err := j.listBusinesses(ctx)
		if err != nil {
			j.logger().Error("list businesses for auto lock", slog.Any("error", err))
			return err
		}
		businesses = ids
	}

	var failed int
	for _, businessID := range businesses {
		if err := j.Service.AutoLockPreviousMonth(ctx, businessID); err != nil {
			failed++
			j.logger().Error("auto lock failed",
				slog.String("business_id", businessID),
				slog.Any("error", err))
		}
	}

	j.logger().Info("completed period auto lock",
		slog.Int("businesses", len(businesses)),
		slog.Int("failed", failed),
		slog.Duration("duration", time.Since(start)))
	if failed > 0 {
		return errors.New("period auto lock: some businesses failed")
	}
	return nil
}

func (j *PeriodAutoLockJob) listBusinesses(ctx context.Context) ([]string, error) {
	if j.Pool == nil {
		return nil, errors.New("period auto lock: pool not configured")
	}
	rows, err := j.Pool.Query(ctx, `SELECT DISTINCT business_id FROM accounting_periods`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (j *PeriodAutoLockJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger
	}
	return slog.Default()
}
