package closing

import "time"

// Status enumerates cash closing reconciliation states.
type Status string

const (
	StatusPending          Status = "PENDING"
	StatusMatched          Status = "MATCHED"
	StatusMismatch         Status = "MISMATCH"
	StatusMismatchApproved Status = "MISMATCH_APPROVED"
)

// CashClosing is one day's cash reconciliation record for a business.
type CashClosing struct {
	BusinessID  string    `json:"business_id"`
	ClosingDate time.Time `json:"closing_date"`
	Status      Status    `json:"status"`
}

// Satisfies reports whether the record clears the billing gate.
func (c CashClosing) Satisfies() bool {
	return c.Status == StatusMatched || c.Status == StatusMismatchApproved
}

// BillingValidation is the gate decision for a proposed bill date.
type BillingValidation struct {
	Allowed         bool       `json:"allowed"`
	ClosingRequired bool       `json:"closing_required"`
	PendingDate     *time.Time `json:"pending_date,omitempty"`
	Message         string     `json:"message,omitempty"`
}
