package periods

import (
	"errors"
	"fmt"
	"time"
)

// PeriodType distinguishes calendar months from custom ranges.
type PeriodType string

const (
	PeriodTypeMonthly PeriodType = "MONTHLY"
	PeriodTypeCustom  PeriodType = "CUSTOM"
)

// SystemActor identifies scheduled auto-lock transitions in lock metadata
// and audit entries.
const SystemActor = "system:auto-lock"

// AccountingPeriod is a calendar interval whose transactions can be frozen.
// Lock fields are set together on lock and cleared together on unlock.
type AccountingPeriod struct {
	ID         string
	BusinessID string
	Name       string
	Type       PeriodType
	StartDate  time.Time
	EndDate    time.Time
	IsLocked   bool
	LockedAt   *time.Time
	LockedBy   *string
	LockReason string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Contains reports whether the date falls inside [StartDate, EndDate],
// compared at day granularity.
func (p AccountingPeriod) Contains(date time.Time) bool {
	d := truncateDay(date)
	return !d.Before(truncateDay(p.StartDate)) && !d.After(truncateDay(p.EndDate))
}

func truncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// LockStatus reports whether a date is frozen and by which period.
type LockStatus struct {
	Locked bool
	Period *AccountingPeriod
}

// LockInput carries a manual lock request.
type LockInput struct {
	BusinessID string
	PeriodID   string
	UserID     string
	PIN        string
	Reason     string
}

// UnlockInput carries an unlock request. Reason is mandatory.
type UnlockInput struct {
	BusinessID string
	PeriodID   string
	UserID     string
	PIN        string
	Reason     string
}

// ErrPeriodNotFound indicates the period does not exist for the business.
var ErrPeriodNotFound = errors.New("periods: period not found")

// PeriodLockError is an authorization failure on a lock transition: the
// caller can re-prompt for the PIN or reason instead of treating it as a
// fault. The period state is unchanged.
type PeriodLockError struct {
	Op     string
	Reason string
}

func (e *PeriodLockError) Error() string {
	return fmt.Sprintf("periods: %s: %s", e.Op, e.Reason)
}

func errInvalidPIN(op string) *PeriodLockError {
	return &PeriodLockError{Op: op, Reason: "invalid PIN"}
}
