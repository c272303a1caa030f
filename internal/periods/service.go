package periods

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/vigilpos/vigilpos/internal/audit"
	"github.com/vigilpos/vigilpos/internal/pin"
)

// Service tracks the lock state of accounting periods and gates backdated
// mutation. Lock and unlock are fail-closed: any PIN verification error
// blocks the transition.
type Service struct {
	repo     Repository
	cache    *PeriodCache
	verifier pin.Verifier
	rec      audit.Recorder
	logger   *slog.Logger
	now      func() time.Time
	group    singleflight.Group
}

// NewService constructs a Service.
func NewService(repo Repository, cache *PeriodCache, verifier pin.Verifier, rec audit.Recorder, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repo:     repo,
		cache:    cache,
		verifier: verifier,
		rec:      rec,
		logger:   logger,
		now:      time.Now,
	}
}

// WithNow overrides the clock for deterministic tests.
func (s *Service) WithNow(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// IsDateLocked reports whether a date falls inside a locked period. A date
// not covered by any period is unlocked.
func (s *Service) IsDateLocked(ctx context.Context, businessID string, date time.Time) (bool, error) {
	status, err := s.GetLockStatus(ctx, businessID, date)
	if err != nil {
		return false, err
	}
	return status.Locked, nil
}

// GetLockStatus returns the first period containing the date along with its
// lock flag.
func (s *Service) GetLockStatus(ctx context.Context, businessID string, date time.Time) (LockStatus, error) {
	periods, err := s.periodsFor(ctx, businessID)
	if err != nil {
		return LockStatus{}, err
	}
	for i := range periods {
		if periods[i].Contains(date) {
			p := periods[i]
			return LockStatus{Locked: p.IsLocked, Period: &p}, nil
		}
	}
	return LockStatus{}, nil
}

// Lock performs a manual UNLOCKED to LOCKED transition. It requires a valid
// PIN; the reason is optional. Locking an already locked period is a no-op.
func (s *Service) Lock(ctx context.Context, in LockInput) error {
	verified, err := s.verifier.Verify(ctx, in.BusinessID, in.PIN)
	if err != nil {
		return fmt.Errorf("periods: lock: %w", err)
	}
	if !verified {
		return errInvalidPIN("lock")
	}
	period, err := s.repo.Get(ctx, in.BusinessID, in.PeriodID)
	if err != nil {
		return err
	}
	if period.IsLocked {
		return nil
	}
	at := s.now().UTC()
	if err := s.repo.SetLock(ctx, period.ID, in.UserID, in.Reason, at); err != nil {
		return err
	}
	s.cache.Invalidate(in.BusinessID)
	audit.Try(ctx, s.logger, s.rec, audit.Entry{
		UserID:   in.UserID,
		Entity:   audit.EntityPeriod,
		RecordID: period.ID,
		Action:   audit.ActionPeriodLocked,
		OldValue: audit.PeriodLockChange{PeriodID: period.ID, PeriodName: period.Name, WasLocked: false, NowLocked: false},
		NewValue: audit.PeriodLockChange{PeriodID: period.ID, PeriodName: period.Name, WasLocked: false, NowLocked: true, Reason: in.Reason},
	})
	return nil
}

// Unlock performs a LOCKED to UNLOCKED transition. It requires a valid PIN
// and a mandatory reason.
func (s *Service) Unlock(ctx context.Context, in UnlockInput) error {
	if strings.TrimSpace(in.Reason) == "" {
		return &PeriodLockError{Op: "unlock", Reason: "reason is required"}
	}
	verified, err := s.verifier.Verify(ctx, in.BusinessID, in.PIN)
	if err != nil {
		return fmt.Errorf("periods: unlock: %w", err)
	}
	if !verified {
		return errInvalidPIN("unlock")
	}
	period, err := s.repo.Get(ctx, in.BusinessID, in.PeriodID)
	if err != nil {
		return err
	}
	if !period.IsLocked {
		return nil
	}
	if err := s.repo.ClearLock(ctx, period.ID); err != nil {
		return err
	}
	s.cache.Invalidate(in.BusinessID)
	audit.Try(ctx, s.logger, s.rec, audit.Entry{
		UserID:   in.UserID,
		Entity:   audit.EntityPeriod,
		RecordID: period.ID,
		Action:   audit.ActionPeriodUnlocked,
		OldValue: audit.PeriodLockChange{PeriodID: period.ID, PeriodName: period.Name, WasLocked: true, NowLocked: true, Reason: period.LockReason},
		NewValue: audit.PeriodLockChange{PeriodID: period.ID, PeriodName: period.Name, WasLocked: true, NowLocked: false, Reason: in.Reason},
	})
	return nil
}

// AutoLockPreviousMonth locks the monthly period covering the previous
// calendar month as the system actor. Re-running when the period is already
// locked, or when no matching period exists, is a no-op.
func (s *Service) AutoLockPreviousMonth(ctx context.Context, businessID string) error {
	now := s.now().UTC()
	firstOfMonth := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	midPrevMonth := firstOfMonth.AddDate(0, 0, -15)

	periods, err := s.repo.ListByBusiness(ctx, businessID)
	if err != nil {
		return err
	}
	var target *AccountingPeriod
	for i := range periods {
		if periods[i].Type == PeriodTypeMonthly && periods[i].Contains(midPrevMonth) {
			target = &periods[i]
			break
		}
	}
	if target == nil {
		s.logger.Debug("auto-lock: no monthly period for previous month",
			slog.String("business_id", businessID))
		return nil
	}
	if target.IsLocked {
		s.logger.Debug("auto-lock: period already locked",
			slog.String("business_id", businessID),
			slog.String("period_id", target.ID))
		return nil
	}
	if err := s.repo.SetLock(ctx, target.ID, SystemActor, "scheduled month-end lock", now); err != nil {
		return err
	}
	s.cache.Invalidate(businessID)
	audit.Try(ctx, s.logger, s.rec, audit.Entry{
		UserID:   SystemActor,
		Entity:   audit.EntityPeriod,
		RecordID: target.ID,
		Action:   audit.ActionPeriodLocked,
		OldValue: audit.PeriodLockChange{PeriodID: target.ID, PeriodName: target.Name, WasLocked: false, NowLocked: false, SystemLock: true},
		NewValue: audit.PeriodLockChange{PeriodID: target.ID, PeriodName: target.Name, WasLocked: false, NowLocked: true, SystemLock: true, Reason: "scheduled month-end lock"},
	})
	return nil
}

// periodsFor loads the business's periods through the cache. Concurrent
// misses for the same business collapse into one repository query.
func (s *Service) periodsFor(ctx context.Context, businessID string) ([]AccountingPeriod, error) {
	if cached, ok := s.cache.Get(businessID); ok {
		return cached, nil
	}
	result, err, _ := s.group.Do(businessID, func() (any, error) {
		periods, err := s.repo.ListByBusiness(ctx, businessID)
		if err != nil {
			return nil, err
		}
		s.cache.Put(businessID, periods)
		return periods, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]AccountingPeriod), nil
}
