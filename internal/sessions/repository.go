package sessions

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository persists session records.
type Repository interface {
	Insert(ctx context.Context, session UserSession) error
	Get(ctx context.Context, sessionID string) (UserSession, error)
	ListActiveByUser(ctx context.Context, businessID, userID string) ([]UserSession, error)
	ListActiveByBusiness(ctx context.Context, businessID string) ([]UserSession, error)
	ListHistory(ctx context.Context, businessID, userID string, limit int) ([]UserSession, error)
	Touch(ctx context.Context, sessionID string, at time.Time) error
	Terminate(ctx context.Context, sessionID string, forced bool) error
	ExpireStale(ctx context.Context, now time.Time) (int64, error)
}

// PGRepository implements Repository on PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PGRepository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

const sessionColumns = `id, user_id, business_id, device_id, device_name, platform, login_at, last_active_at, expires_at, is_active, force_logout`

// Insert stores a new session record.
func (r *PGRepository) Insert(ctx context.Context, s UserSession) error {
	_, err := r.pool.Exec(ctx, `INSERT INTO user_sessions (`+sessionColumns+`)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		s.ID, s.UserID, s.BusinessID, s.DeviceID, s.DeviceName, s.Platform,
		s.LoginAt, s.LastActiveAt, s.ExpiresAt, s.IsActive, s.ForceLogout)
	return err
}

// Get fetches a session by id.
func (r *PGRepository) Get(ctx context.Context, sessionID string) (UserSession, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+sessionColumns+` FROM user_sessions WHERE id = $1`, sessionID)
	s, err := scanSession(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return UserSession{}, ErrSessionNotFound
		}
		return UserSession{}, err
	}
	return s, nil
}

// ListActiveByUser returns a user's active sessions, newest login first.
func (r *PGRepository) ListActiveByUser(ctx context.Context, businessID, userID string) ([]UserSession, error) {
	return r.list(ctx, `SELECT `+sessionColumns+` FROM user_sessions
WHERE business_id = $1 AND user_id = $2 AND is_active ORDER BY login_at DESC`, businessID, userID)
}

// ListActiveByBusiness returns every active session for a business.
func (r *PGRepository) ListActiveByBusiness(ctx context.Context, businessID string) ([]UserSession, error) {
	return r.list(ctx, `SELECT `+sessionColumns+` FROM user_sessions
WHERE business_id = $1 AND is_active ORDER BY login_at DESC`, businessID)
}

// ListHistory returns past and present sessions for the login-history view.
func (r *PGRepository) ListHistory(ctx context.Context, businessID, userID string, limit int) ([]UserSession, error) {
	if limit <= 0 {
		limit = 50
	}
	return r.list(ctx, `SELECT `+sessionColumns+` FROM user_sessions
WHERE business_id = $1 AND user_id = $2 ORDER BY login_at DESC LIMIT $3`, businessID, userID, limit)
}

// Touch refreshes the last-active timestamp.
func (r *PGRepository) Touch(ctx context.Context, sessionID string, at time.Time) error {
	_, err := r.pool.Exec(ctx, `UPDATE user_sessions SET last_active_at = $2 WHERE id = $1`, sessionID, at)
	return err
}

// Terminate deactivates a session. The record is kept for history.
func (r *PGRepository) Terminate(ctx context.Context, sessionID string, forced bool) error {
	tag, err := r.pool.Exec(ctx, `UPDATE user_sessions SET is_active = FALSE, force_logout = force_logout OR $2
WHERE id = $1`, sessionID, forced)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrSessionNotFound
	}
	return nil
}

// ExpireStale deactivates every active session past its expiry.
func (r *PGRepository) ExpireStale(ctx context.Context, now time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx, `UPDATE user_sessions SET is_active = FALSE
WHERE is_active AND expires_at < $1`, now)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (r *PGRepository) list(ctx context.Context, query string, args ...any) ([]UserSession, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []UserSession
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, s)
	}
	return sessions, rows.Err()
}

func scanSession(row pgx.Row) (UserSession, error) {
	var s UserSession
	err := row.Scan(&s.ID, &s.UserID, &s.BusinessID, &s.DeviceID, &s.DeviceName, &s.Platform,
		&s.LoginAt, &s.LastActiveAt, &s.ExpiresAt, &s.IsActive, &s.ForceLogout)
	return s, err
}

var _ Repository = (*PGRepository)(nil)
