package closing

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Store reads cash closing records from the local authoritative store.
type Store interface {
	FindByDate(ctx context.Context, businessID string, date time.Time) (*CashClosing, error)
	ListRange(ctx context.Context, businessID string, from, to time.Time) ([]CashClosing, error)
}

// PGStore implements Store on PostgreSQL.
type PGStore struct {
	pool *pgxpool.Pool
}

// NewStore constructs a PGStore.
func NewStore(pool *pgxpool.Pool) *PGStore {
	return &PGStore{pool: pool}
}

// FindByDate returns the closing for a date, or nil when none is recorded.
func (s *PGStore) FindByDate(ctx context.Context, businessID string, date time.Time) (*CashClosing, error) {
	var c CashClosing
	err := s.pool.QueryRow(ctx, `SELECT business_id, closing_date, status FROM cash_closings
WHERE business_id = $1 AND closing_date = $2`, businessID, date).
		Scan(&c.BusinessID, &c.ClosingDate, &c.Status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &c, nil
}

// ListRange returns closings recorded between from and to inclusive.
func (s *PGStore) ListRange(ctx context.Context, businessID string, from, to time.Time) ([]CashClosing, error) {
	rows, err := s.pool.Query(ctx, `SELECT business_id, closing_date, status FROM cash_closings
WHERE business_id = $1 AND closing_date BETWEEN $2 AND $3 ORDER BY closing_date`, businessID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var closings []CashClosing
	for rows.Next() {
		var c CashClosing
		if err := rows.Scan(&c.BusinessID, &c.ClosingDate, &c.Status); err != nil {
			return nil, err
		}
		closings = append(closings, c)
	}
	return closings, rows.Err()
}

var _ Store = (*PGStore)(nil)
