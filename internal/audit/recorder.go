package audit

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Recorder appends entries to the audit trail.
type Recorder interface {
	Record(ctx context.Context, entry Entry) error
}

// PGRecorder persists audit entries in the audit_logs table.
type PGRecorder struct {
	pool *pgxpool.Pool
}

// NewPGRecorder constructs a PGRecorder.
func NewPGRecorder(pool *pgxpool.Pool) *PGRecorder {
	return &PGRecorder{pool: pool}
}

// Record inserts the entry. Payloads are serialized here so callers only
// ever hand over typed values.
func (r *PGRecorder) Record(ctx context.Context, entry Entry) error {
	if r == nil || r.pool == nil {
		return errors.New("audit: recorder not initialised")
	}
	if entry.UserID == "" || entry.Entity == "" || entry.Action == "" {
		return errors.New("audit: entry requires user/entity/action")
	}
	oldJSON, err := marshalPayload(entry.OldValue)
	if err != nil {
		return err
	}
	newJSON, err := marshalPayload(entry.NewValue)
	if err != nil {
		return err
	}
	at := entry.At
	if at.IsZero() {
		at = time.Now().UTC()
	}
	_, err = r.pool.Exec(ctx, `INSERT INTO audit_logs (id, user_id, target_entity, record_id, action, old_value, new_value, occurred_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		uuid.NewString(), entry.UserID, entry.Entity, entry.RecordID, entry.Action, oldJSON, newJSON, at)
	return err
}

func marshalPayload(p Payload) ([]byte, error) {
	if p == nil {
		return nil, nil
	}
	return json.Marshal(p)
}

// Try records the entry and swallows any failure after logging it. A broken
// audit pipe must stay visible in diagnostics without blocking the caller.
func Try(ctx context.Context, logger *slog.Logger, rec Recorder, entry Entry) {
	if rec == nil {
		return
	}
	if err := rec.Record(ctx, entry); err != nil && logger != nil {
		logger.Error("audit write failed",
			slog.String("entity", entry.Entity),
			slog.String("action", entry.Action),
			slog.Any("error", err))
	}
}

var _ Recorder = (*PGRecorder)(nil)
