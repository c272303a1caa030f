package compliance

import (
	"fmt"
	"time"
)

// DrugSchedule classifies regulated medicines.
type DrugSchedule string

// Schedules that require a prescription on record before sale.
const (
	ScheduleH  DrugSchedule = "H"
	ScheduleH1 DrugSchedule = "H1"
	ScheduleX  DrugSchedule = "X"
)

// IsScheduled reports whether the schedule requires a prescription.
func (s DrugSchedule) IsScheduled() bool {
	return s == ScheduleH || s == ScheduleH1 || s == ScheduleX
}

// SaleItem is the slice of a bill line this gate inspects.
type SaleItem struct {
	ProductID      string       `json:"product_id"`
	Name           string       `json:"name"`
	BatchNo        string       `json:"batch_no,omitempty"`
	ExpiryDate     *time.Time   `json:"expiry_date,omitempty"`
	DrugSchedule   DrugSchedule `json:"drug_schedule,omitempty"`
	PrescriptionID string       `json:"prescription_id,omitempty"`
}

// BusinessConfig is the field configuration of a business type. Whether a
// trade needs pharmacy-grade validation is derived from these capabilities,
// never from the type name.
type BusinessConfig struct {
	BusinessType string `json:"business_type"`
	TrackBatches bool   `json:"track_batches"`
	TrackExpiry  bool   `json:"track_expiry"`
}

// RequiresPharmacyValidation reports whether batch and expiry tracking are
// both mandated for this trade.
func (c BusinessConfig) RequiresPharmacyValidation() bool {
	return c.TrackBatches && c.TrackExpiry
}

// Issue codes reported by the gate.
const (
	IssuePrescriptionRequired = "PRESCRIPTION_REQUIRED"
	IssueExpired              = "ITEM_EXPIRED"
	IssueBatchMissing         = "BATCH_MISSING"
	IssueExpiryMissing        = "EXPIRY_MISSING"
	IssueNearExpiry           = "NEAR_EXPIRY"
)

// Issue is one finding on one item. Non-blocking issues are advisory
// warnings for the pre-checkout screen.
type Issue struct {
	ProductID string `json:"product_id"`
	ItemName  string `json:"item_name"`
	Code      string `json:"code"`
	Message   string `json:"message"`
	Blocking  bool   `json:"blocking"`
}

// ViolationError carries the first blocking issue found during the final
// pre-commit validation.
type ViolationError struct {
	Issue Issue
}

func (e *ViolationError) Error() string {
	return fmt.Sprintf("compliance: %s: %s", e.Issue.Code, e.Issue.Message)
}
