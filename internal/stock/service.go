package stock

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"github.com/vigilpos/vigilpos/internal/audit"
	"github.com/vigilpos/vigilpos/internal/fraud"
	"github.com/vigilpos/vigilpos/internal/pin"
)

// Thresholds for flagging statistically large adjustments.
const (
	mismatchPercent = 50
	criticalPercent = 90
)

// Service validates manual stock adjustments and records the movement audit
// trail.
type Service struct {
	verifier pin.Verifier
	rec      audit.Recorder
	emitter  fraud.Emitter
	logger   *slog.Logger
}

// NewService constructs a Service.
func NewService(verifier pin.Verifier, rec audit.Recorder, emitter fraud.Emitter, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{verifier: verifier, rec: rec, emitter: emitter, logger: logger}
}

// ValidateAdjustment checks the reason's note and PIN requirements. A
// missing or incorrect PIN sets PinRequired so the caller can re-prompt;
// verification faults deny without the re-prompt hint.
func (s *Service) ValidateAdjustment(ctx context.Context, businessID string, req AdjustmentRequest, pinCode string) ValidationResult {
	facets, ok := FacetsFor(req.Reason)
	if !ok {
		return ValidationResult{Error: fmt.Sprintf("unknown adjustment reason %q", req.Reason)}
	}
	if facets.RequiresNotes && req.Notes == "" {
		return ValidationResult{Error: fmt.Sprintf("notes are required for reason %s", req.Reason)}
	}
	if facets.RequiresPin {
		if pinCode == "" {
			return ValidationResult{PinRequired: true, Error: fmt.Sprintf("owner PIN is required for reason %s", req.Reason)}
		}
		verified, err := s.verifier.Verify(ctx, businessID, pinCode)
		if err != nil {
			s.logger.Warn("pin verification failed",
				slog.String("business_id", businessID),
				slog.Any("error", err))
			return ValidationResult{Error: "PIN verification is unavailable, try again"}
		}
		if !verified {
			return ValidationResult{PinRequired: true, Error: "incorrect PIN"}
		}
	}
	return ValidationResult{Allowed: true}
}

// LogAdjustment writes the movement audit entry and, when the relative
// change exceeds the mismatch threshold, emits an observational fraud
// signal. Neither write blocks the adjustment itself.
func (s *Service) LogAdjustment(ctx context.Context, businessID string, req AdjustmentRequest) {
	delta := req.QuantityChange()
	audit.Try(ctx, s.logger, s.rec, audit.Entry{
		UserID:   req.AdjustedBy,
		Entity:   audit.EntityStockMovement,
		RecordID: req.ProductID,
		Action:   audit.ActionStockAdjusted,
		NewValue: audit.StockAdjusted{
			ProductID:      req.ProductID,
			ProductName:    req.ProductName,
			OldQuantity:    req.OldQuantity,
			NewQuantity:    req.NewQuantity,
			QuantityChange: delta,
			Reason:         string(req.Reason),
			ReferenceID:    req.ReferenceID,
			Notes:          req.Notes,
		},
		At: req.At,
	})

	changePercent := ChangePercent(req.OldQuantity, req.NewQuantity)
	if changePercent <= mismatchPercent {
		return
	}
	severity := fraud.SeverityHigh
	if changePercent > criticalPercent {
		severity = fraud.SeverityCritical
	}
	audit.Try(ctx, s.logger, s.rec, audit.Entry{
		UserID:   req.AdjustedBy,
		Entity:   audit.EntityStockMovement,
		RecordID: req.ProductID,
		Action:   audit.ActionStockMismatch,
		NewValue: audit.StockMismatch{
			ProductID:     req.ProductID,
			ChangePercent: changePercent,
			Severity:      severity,
		},
	})
	fraud.Try(ctx, s.logger, s.emitter, fraud.Signal{
		BusinessID:  businessID,
		UserID:      req.AdjustedBy,
		Type:        fraud.SignalStockMismatch,
		Severity:    severity,
		Description: fmt.Sprintf("stock for %s changed by %.1f%%", req.ProductName, changePercent),
		Payload: map[string]any{
			"product_id":     req.ProductID,
			"old_quantity":   req.OldQuantity,
			"new_quantity":   req.NewQuantity,
			"change_percent": changePercent,
			"reason":         string(req.Reason),
		},
	})
}

// ChangePercent is the relative size of an adjustment. A starting quantity
// of zero or below counts as a full change.
func ChangePercent(oldQuantity, newQuantity float64) float64 {
	if oldQuantity <= 0 {
		return 100
	}
	return math.Abs(newQuantity-oldQuantity) / oldQuantity * 100
}
