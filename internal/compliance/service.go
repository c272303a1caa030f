package compliance

import (
	"fmt"
	"time"
)

// DefaultNearExpiryDays is the advisory warning window before expiry.
const DefaultNearExpiryDays = 30

// Service validates sale items against regulatory rules. It is a pure
// decision function; item and configuration data arrive from the caller.
type Service struct {
	nearExpiryDays int
	now            func() time.Time
}

// NewService constructs a Service. A non-positive threshold falls back to
// the default window.
func NewService(nearExpiryDays int) *Service {
	if nearExpiryDays <= 0 {
		nearExpiryDays = DefaultNearExpiryDays
	}
	return &Service{nearExpiryDays: nearExpiryDays, now: time.Now}
}

// WithNow overrides the clock for deterministic tests.
func (s *Service) WithNow(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// ValidateBillItems is the final pre-commit check: the first blocking issue
// across the items aborts the bill with a ViolationError.
func (s *Service) ValidateBillItems(cfg BusinessConfig, items []SaleItem) error {
	for _, item := range items {
		if err := s.ValidateBillItem(cfg, item); err != nil {
			return err
		}
	}
	return nil
}

// ValidateBillItem checks a single item and returns a ViolationError for
// the first blocking rule it breaks.
func (s *Service) ValidateBillItem(cfg BusinessConfig, item SaleItem) error {
	for _, issue := range s.itemIssues(cfg, item) {
		if issue.Blocking {
			return &ViolationError{Issue: issue}
		}
	}
	return nil
}

// CheckItemsForIssues collects every finding, blocking and advisory, for
// the pre-checkout warning screen.
func (s *Service) CheckItemsForIssues(cfg BusinessConfig, items []SaleItem) []Issue {
	var issues []Issue
	for _, item := range items {
		issues = append(issues, s.itemIssues(cfg, item)...)
	}
	return issues
}

// itemIssues applies the rules in their fixed order: prescription, expiry,
// batch/expiry field requirements, then the near-expiry advisory.
func (s *Service) itemIssues(cfg BusinessConfig, item SaleItem) []Issue {
	var issues []Issue
	now := s.now()

	if item.DrugSchedule.IsScheduled() && item.PrescriptionID == "" {
		issues = append(issues, Issue{
			ProductID: item.ProductID,
			ItemName:  item.Name,
			Code:      IssuePrescriptionRequired,
			Message:   fmt.Sprintf("%s is a Schedule %s drug and needs a prescription on record", item.Name, item.DrugSchedule),
			Blocking:  true,
		})
	}

	// Expired goods are blocked for every business type.
	if item.ExpiryDate != nil && item.ExpiryDate.Before(now) {
		issues = append(issues, Issue{
			ProductID: item.ProductID,
			ItemName:  item.Name,
			Code:      IssueExpired,
			Message:   fmt.Sprintf("%s expired on %s", item.Name, item.ExpiryDate.Format("02 Jan 2006")),
			Blocking:  true,
		})
	}

	if cfg.RequiresPharmacyValidation() {
		if item.BatchNo == "" {
			issues = append(issues, Issue{
				ProductID: item.ProductID,
				ItemName:  item.Name,
				Code:      IssueBatchMissing,
				Message:   fmt.Sprintf("%s has no batch number", item.Name),
				Blocking:  true,
			})
		}
		if item.ExpiryDate == nil {
			issues = append(issues, Issue{
				ProductID: item.ProductID,
				ItemName:  item.Name,
				Code:      IssueExpiryMissing,
				Message:   fmt.Sprintf("%s has no expiry date", item.Name),
				Blocking:  true,
			})
		}
	}

	if item.ExpiryDate != nil && !item.ExpiryDate.Before(now) {
		warnCutoff := now.AddDate(0, 0, s.nearExpiryDays)
		if item.ExpiryDate.Before(warnCutoff) {
			issues = append(issues, Issue{
				ProductID: item.ProductID,
				ItemName:  item.Name,
				Code:      IssueNearExpiry,
				Message:   fmt.Sprintf("%s expires on %s", item.Name, item.ExpiryDate.Format("02 Jan 2006")),
				Blocking:  false,
			})
		}
	}

	return issues
}
