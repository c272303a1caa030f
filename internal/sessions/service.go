package sessions

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/vigilpos/vigilpos/internal/audit"
)

// DefaultExpiry is the session lifetime applied when none is configured.
const DefaultExpiry = 24 * time.Hour

// Service manages the login session lifecycle.
type Service struct {
	repo         Repository
	notifier     Notifier
	rec          audit.Recorder
	logger       *slog.Logger
	expiry       time.Duration
	singleDevice bool
	now          func() time.Time
}

// NewService constructs a Service.
func NewService(repo Repository, notifier Notifier, rec audit.Recorder, logger *slog.Logger, expiry time.Duration, singleDevice bool) *Service {
	if expiry <= 0 {
		expiry = DefaultExpiry
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repo:         repo,
		notifier:     notifier,
		rec:          rec,
		logger:       logger,
		expiry:       expiry,
		singleDevice: singleDevice,
		now:          time.Now,
	}
}

// WithNow overrides the clock for deterministic tests.
func (s *Service) WithNow(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// CreateSession registers a device login. With single-device enforcement,
// every other active session of the user is force-terminated first; those
// terminations need no PIN.
func (s *Service) CreateSession(ctx context.Context, in CreateSessionInput) (UserSession, error) {
	if in.UserID == "" || in.BusinessID == "" {
		return UserSession{}, errors.New("sessions: user and business required")
	}
	now := s.now().UTC()

	if s.singleDevice {
		siblings, err := s.repo.ListActiveByUser(ctx, in.BusinessID, in.UserID)
		if err != nil {
			return UserSession{}, err
		}
		for _, sibling := range siblings {
			if err := s.repo.Terminate(ctx, sibling.ID, true); err != nil {
				return UserSession{}, err
			}
			s.notify(ctx, sibling.ID)
		}
	}

	session := UserSession{
		ID:           uuid.NewString(),
		UserID:       in.UserID,
		BusinessID:   in.BusinessID,
		DeviceID:     in.DeviceID,
		DeviceName:   in.DeviceName,
		Platform:     in.Platform,
		LoginAt:      now,
		LastActiveAt: now,
		ExpiresAt:    now.Add(s.expiry),
		IsActive:     true,
	}
	if err := s.repo.Insert(ctx, session); err != nil {
		return UserSession{}, err
	}
	return session, nil
}

// ValidateSession reloads the record; a session that must log out is ended
// and reported invalid, otherwise the heartbeat timestamp is refreshed.
func (s *Service) ValidateSession(ctx context.Context, sessionID string) (bool, error) {
	session, err := s.repo.Get(ctx, sessionID)
	if err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			return false, nil
		}
		return false, err
	}
	now := s.now().UTC()
	if session.ShouldLogout(now) {
		if session.IsActive {
			if err := s.repo.Terminate(ctx, sessionID, session.ForceLogout); err != nil {
				return false, err
			}
		}
		return false, nil
	}
	if err := s.repo.Touch(ctx, sessionID, now); err != nil {
		return false, err
	}
	return true, nil
}

// EndSession terminates a session from its own device.
func (s *Service) EndSession(ctx context.Context, sessionID string) error {
	return s.repo.Terminate(ctx, sessionID, false)
}

// ForceLogout is an owner-initiated remote termination. The target device
// observes the flip through its live subscription, independent of its own
// request loop.
func (s *Service) ForceLogout(ctx context.Context, targetSessionID, performedBy string) error {
	target, err := s.repo.Get(ctx, targetSessionID)
	if err != nil {
		return err
	}
	if err := s.repo.Terminate(ctx, targetSessionID, true); err != nil {
		return err
	}
	s.notify(ctx, targetSessionID)
	audit.Try(ctx, s.logger, s.rec, audit.Entry{
		UserID:   performedBy,
		Entity:   audit.EntitySession,
		RecordID: targetSessionID,
		Action:   audit.ActionForceLogout,
		NewValue: audit.SessionTerminated{
			SessionID:  targetSessionID,
			DeviceName: target.DeviceName,
			Platform:   target.Platform,
		},
	})
	return nil
}

// GetActiveSessions lists the active sessions for a business. Read-only.
func (s *Service) GetActiveSessions(ctx context.Context, businessID string) ([]UserSession, error) {
	return s.repo.ListActiveByBusiness(ctx, businessID)
}

// GetLoginHistory lists a user's sessions, newest first. Read-only.
func (s *Service) GetLoginHistory(ctx context.Context, businessID, userID string, limit int) ([]UserSession, error) {
	return s.repo.ListHistory(ctx, businessID, userID, limit)
}

// SweepExpired deactivates sessions past their expiry. Run periodically by
// the background worker.
func (s *Service) SweepExpired(ctx context.Context) (int64, error) {
	return s.repo.ExpireStale(ctx, s.now().UTC())
}

func (s *Service) notify(ctx context.Context, sessionID string) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.NotifyForceLogout(ctx, sessionID); err != nil {
		s.logger.Warn("force logout notify failed",
			slog.String("session_id", sessionID),
			slog.Any("error", err))
	}
}
