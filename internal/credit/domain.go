package credit

import (
	"errors"

	"github.com/shopspring/decimal"
)

// Action is the enforcement decision for a proposed sale.
type Action string

const (
	ActionAllow Action = "allow"
	ActionWarn  Action = "warn"
	ActionBlock Action = "block"
)

// warningRatio is the outstanding-to-limit ratio above which a sale is
// flagged. Fixed policy, not configuration.
var warningRatio = decimal.NewFromFloat(0.8)

// Customer is the slice of the customer record this engine consumes. A
// credit limit of zero or below means unlimited credit.
type Customer struct {
	ID          string
	Name        string
	CreditLimit decimal.Decimal
	TotalDues   decimal.Decimal
	IsBlocked   bool
	BlockReason string
}

// EnforcementResult is the outcome of a credit check.
type EnforcementResult struct {
	Action               Action          `json:"action"`
	Message              string          `json:"message,omitempty"`
	CreditLimit          decimal.Decimal `json:"credit_limit"`
	CurrentOutstanding   decimal.Decimal `json:"current_outstanding"`
	ProposedAmount       decimal.Decimal `json:"proposed_amount"`
	ProjectedOutstanding decimal.Decimal `json:"projected_outstanding"`
}

// OverLimitAmount is the shortfall past the credit limit, never negative and
// zero for unlimited-credit customers.
func (r EnforcementResult) OverLimitAmount() decimal.Decimal {
	if r.CreditLimit.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero
	}
	over := r.ProjectedOutstanding.Sub(r.CreditLimit)
	if over.IsNegative() {
		return decimal.Zero
	}
	return over
}

// ErrCustomerNotFound indicates the customer record does not exist.
var ErrCustomerNotFound = errors.New("credit: customer not found")
