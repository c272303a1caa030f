package periods

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository defines persistence for accounting periods. Periods are created
// by an admin flow outside this core; only lock fields mutate here.
type Repository interface {
	ListByBusiness(ctx context.Context, businessID string) ([]AccountingPeriod, error)
	Get(ctx context.Context, businessID, periodID string) (AccountingPeriod, error)
	SetLock(ctx context.Context, periodID string, lockedBy, reason string, at time.Time) error
	ClearLock(ctx context.Context, periodID string) error
}

// PGRepository implements Repository on PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PGRepository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

const periodColumns = `id, business_id, name, period_type, start_date, end_date, is_locked, locked_at, locked_by, lock_reason, created_at, updated_at`

// ListByBusiness returns every period for a business ordered by start date.
func (r *PGRepository) ListByBusiness(ctx context.Context, businessID string) ([]AccountingPeriod, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+periodColumns+` FROM accounting_periods WHERE business_id = $1 ORDER BY start_date`, businessID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var periods []AccountingPeriod
	for rows.Next() {
		period, err := scanPeriod(rows)
		if err != nil {
			return nil, err
		}
		periods = append(periods, period)
	}
	return periods, rows.Err()
}

// Get fetches a single period scoped to the business.
func (r *PGRepository) Get(ctx context.Context, businessID, periodID string) (AccountingPeriod, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+periodColumns+` FROM accounting_periods WHERE id = $1 AND business_id = $2`, periodID, businessID)
	period, err := scanPeriod(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return AccountingPeriod{}, ErrPeriodNotFound
		}
		return AccountingPeriod{}, err
	}
	return period, nil
}

// SetLock marks a period locked. Lock fields are written together.
func (r *PGRepository) SetLock(ctx context.Context, periodID string, lockedBy, reason string, at time.Time) error {
	tag, err := r.pool.Exec(ctx, `UPDATE accounting_periods
SET is_locked = TRUE, locked_at = $2, locked_by = $3, lock_reason = $4, updated_at = NOW()
WHERE id = $1`, periodID, at, lockedBy, reason)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrPeriodNotFound
	}
	return nil
}

// ClearLock unlocks a period, clearing all lock fields together.
func (r *PGRepository) ClearLock(ctx context.Context, periodID string) error {
	tag, err := r.pool.Exec(ctx, `UPDATE accounting_periods
SET is_locked = FALSE, locked_at = NULL, locked_by = NULL, lock_reason = '', updated_at = NOW()
WHERE id = $1`, periodID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrPeriodNotFound
	}
	return nil
}

func scanPeriod(row pgx.Row) (AccountingPeriod, error) {
	var (
		p          AccountingPeriod
		lockedAt   pgtype.Timestamptz
		lockedBy   pgtype.Text
		lockReason pgtype.Text
	)
	err := row.Scan(&p.ID, &p.BusinessID, &p.Name, &p.Type, &p.StartDate, &p.EndDate,
		&p.IsLocked, &lockedAt, &lockedBy, &lockReason, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return AccountingPeriod{}, err
	}
	if lockedAt.Valid {
		t := lockedAt.Time
		p.LockedAt = &t
	}
	if lockedBy.Valid {
		v := lockedBy.String
		p.LockedBy = &v
	}
	if lockReason.Valid {
		p.LockReason = lockReason.String
	}
	return p, nil
}

var _ Repository = (*PGRepository)(nil)
