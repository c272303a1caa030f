package credit

import (
	"context"
	"errors"
	"log/slog"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/vigilpos/vigilpos/internal/audit"
)

// Service computes allow/warn/block for proposed sales against a customer's
// credit standing.
type Service struct {
	repo    Repository
	rec     audit.Recorder
	logger  *slog.Logger
	printer *message.Printer
}

// NewService constructs a Service.
func NewService(repo Repository, rec audit.Recorder, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repo:    repo,
		rec:     rec,
		logger:  logger,
		printer: message.NewPrinter(language.English),
	}
}

// CheckCreditLimit evaluates the decision ladder for a proposed sale. Each
// step is terminal. A missing customer resolves to allow, matching the
// cash-sale fallback in the billing flow.
func (s *Service) CheckCreditLimit(ctx context.Context, customerID string, proposedAmount decimal.Decimal) (EnforcementResult, error) {
	customer, err := s.repo.Find(ctx, customerID)
	if err != nil {
		if errors.Is(err, ErrCustomerNotFound) {
			return EnforcementResult{
				Action:               ActionAllow,
				ProposedAmount:       proposedAmount,
				ProjectedOutstanding: proposedAmount,
			}, nil
		}
		return EnforcementResult{}, err
	}

	result := EnforcementResult{
		CreditLimit:        customer.CreditLimit,
		CurrentOutstanding: customer.TotalDues,
		ProposedAmount:     proposedAmount,
	}

	if customer.IsBlocked {
		result.Action = ActionBlock
		result.Message = customer.BlockReason
		if result.Message == "" {
			result.Message = "Customer is blocked from credit sales."
		}
		result.ProjectedOutstanding = customer.TotalDues.Add(proposedAmount)
		return result, nil
	}

	result.ProjectedOutstanding = customer.TotalDues.Add(proposedAmount)

	if customer.CreditLimit.LessThanOrEqual(decimal.Zero) {
		result.Action = ActionAllow
		return result, nil
	}

	if result.ProjectedOutstanding.GreaterThan(customer.CreditLimit) {
		shortfall := result.ProjectedOutstanding.Sub(customer.CreditLimit)
		result.Action = ActionBlock
		result.Message = s.printer.Sprintf("Credit limit of %s exceeded by %s. Outstanding %s plus this sale of %s crosses the limit.",
			customer.CreditLimit.StringFixed(2), shortfall.StringFixed(2),
			customer.TotalDues.StringFixed(2), proposedAmount.StringFixed(2))
		return result, nil
	}

	if result.ProjectedOutstanding.Div(customer.CreditLimit).GreaterThanOrEqual(warningRatio) {
		result.Action = ActionWarn
		result.Message = s.printer.Sprintf("Outstanding will reach %s of the %s credit limit after this sale.",
			result.ProjectedOutstanding.StringFixed(2), customer.CreditLimit.StringFixed(2))
		return result, nil
	}

	result.Action = ActionAllow
	return result, nil
}

// BlockCustomer flags a customer against further credit sales. Returns
// false when the customer does not exist or the write fails.
func (s *Service) BlockCustomer(ctx context.Context, customerID, reason, actorID string) bool {
	customer, err := s.repo.Find(ctx, customerID)
	if err != nil {
		s.logWriteFailure("block customer", customerID, err)
		return false
	}
	if err := s.repo.SetBlocked(ctx, customerID, true, reason); err != nil {
		s.logWriteFailure("block customer", customerID, err)
		return false
	}
	audit.Try(ctx, s.logger, s.rec, audit.Entry{
		UserID:   actorID,
		Entity:   audit.EntityCustomer,
		RecordID: customerID,
		Action:   audit.ActionCreditBlocked,
		OldValue: audit.CreditChange{CustomerID: customerID, Field: "is_blocked", OldValue: boolString(customer.IsBlocked)},
		NewValue: audit.CreditChange{CustomerID: customerID, Field: "is_blocked", NewValue: "true", Reason: reason},
	})
	return true
}

// UnblockCustomer clears the block flag.
func (s *Service) UnblockCustomer(ctx context.Context, customerID, actorID string) bool {
	if _, err := s.repo.Find(ctx, customerID); err != nil {
		s.logWriteFailure("unblock customer", customerID, err)
		return false
	}
	if err := s.repo.SetBlocked(ctx, customerID, false, ""); err != nil {
		s.logWriteFailure("unblock customer", customerID, err)
		return false
	}
	audit.Try(ctx, s.logger, s.rec, audit.Entry{
		UserID:   actorID,
		Entity:   audit.EntityCustomer,
		RecordID: customerID,
		Action:   audit.ActionCreditBlocked,
		NewValue: audit.CreditChange{CustomerID: customerID, Field: "is_blocked", NewValue: "false"},
	})
	return true
}

// UpdateCreditLimit sets a new credit ceiling.
func (s *Service) UpdateCreditLimit(ctx context.Context, customerID string, limit decimal.Decimal, actorID string) bool {
	customer, err := s.repo.Find(ctx, customerID)
	if err != nil {
		s.logWriteFailure("update credit limit", customerID, err)
		return false
	}
	if err := s.repo.SetCreditLimit(ctx, customerID, limit); err != nil {
		s.logWriteFailure("update credit limit", customerID, err)
		return false
	}
	audit.Try(ctx, s.logger, s.rec, audit.Entry{
		UserID:   actorID,
		Entity:   audit.EntityCustomer,
		RecordID: customerID,
		Action:   audit.ActionCreditLimitSet,
		OldValue: audit.CreditChange{CustomerID: customerID, Field: "credit_limit", OldValue: customer.CreditLimit.String()},
		NewValue: audit.CreditChange{CustomerID: customerID, Field: "credit_limit", NewValue: limit.String()},
	})
	return true
}

func (s *Service) logWriteFailure(op, customerID string, err error) {
	s.logger.Warn(op+" failed",
		slog.String("customer_id", customerID),
		slog.Any("error", err))
}

func boolString(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
