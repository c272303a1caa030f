package closing

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Service blocks new billing until the prior day's cash reconciliation is
// recorded. The whole gate is fail-open: billing must never be blocked by an
// internal-tool malfunction, so unexpected errors resolve to allowed.
type Service struct {
	store     Store
	mirror    Mirror
	graceDays int
	logger    *slog.Logger
	now       func() time.Time
}

// NewService constructs a Service. graceDays below zero is treated as the
// default of one day.
func NewService(store Store, mirror Mirror, graceDays int, logger *slog.Logger) *Service {
	if graceDays < 0 {
		graceDays = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:     store,
		mirror:    mirror,
		graceDays: graceDays,
		logger:    logger,
		now:       time.Now,
	}
}

// WithNow overrides the clock for deterministic tests.
func (s *Service) WithNow(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// ValidateForBilling decides whether a bill may be created for the date.
// Bills older than the grace cutoff are historical corrections and always
// allowed. Otherwise the day preceding today must carry a MATCHED or
// MISMATCH_APPROVED closing, looked up locally first and then in the remote
// mirror.
func (s *Service) ValidateForBilling(ctx context.Context, businessID string, billDate time.Time) BillingValidation {
	today := truncateDay(s.now().UTC())
	cutoff := today.AddDate(0, 0, -s.graceDays)
	if truncateDay(billDate).Before(cutoff) {
		return BillingValidation{Allowed: true}
	}

	prior := today.AddDate(0, 0, -1)
	record, err := s.store.FindByDate(ctx, businessID, prior)
	if err != nil {
		s.logger.Warn("cash closing lookup failed, allowing billing",
			slog.String("business_id", businessID),
			slog.Any("error", err))
		return BillingValidation{Allowed: true}
	}
	if record == nil && s.mirror != nil {
		mirrored, mirrorErr := s.mirror.FindByDate(ctx, businessID, prior)
		if mirrorErr != nil {
			s.logger.Warn("closing mirror lookup failed",
				slog.String("business_id", businessID),
				slog.Any("error", mirrorErr))
		} else {
			record = mirrored
		}
	}
	if record != nil && record.Satisfies() {
		return BillingValidation{Allowed: true}
	}

	pending := prior
	msg := fmt.Sprintf("Cash closing for %s is pending. Record the closing before creating new bills.", pending.Format("02 Jan 2006"))
	if record != nil {
		msg = fmt.Sprintf("Cash closing for %s is %s. Resolve the reconciliation before creating new bills.", pending.Format("02 Jan 2006"), record.Status)
	}
	return BillingValidation{
		Allowed:         false,
		ClosingRequired: true,
		PendingDate:     &pending,
		Message:         msg,
	}
}

// GetPendingClosingDates lists the days inside the lookback window that lack
// a satisfying closing, oldest first, for UI reminders.
func (s *Service) GetPendingClosingDates(ctx context.Context, businessID string, lookbackDays int) ([]time.Time, error) {
	if lookbackDays <= 0 {
		return nil, nil
	}
	today := truncateDay(s.now().UTC())
	from := today.AddDate(0, 0, -lookbackDays)
	to := today.AddDate(0, 0, -1)

	closings, err := s.store.ListRange(ctx, businessID, from, to)
	if err != nil {
		return nil, err
	}
	satisfied := make(map[string]bool, len(closings))
	for _, c := range closings {
		if c.Satisfies() {
			satisfied[truncateDay(c.ClosingDate).Format("2006-01-02")] = true
		}
	}
	var pending []time.Time
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		if !satisfied[d.Format("2006-01-02")] {
			pending = append(pending, d)
		}
	}
	return pending, nil
}

func truncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
