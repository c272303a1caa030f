package stock

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vigilpos/vigilpos/internal/audit"
	"github.com/vigilpos/vigilpos/internal/fraud"
)

type mockVerifier struct {
	valid string
	err   error
}

func (m *mockVerifier) Verify(ctx context.Context, businessID, pin string) (bool, error) {
	if m.err != nil {
		return false, m.err
	}
	return pin == m.valid, nil
}

type recordingSink struct {
	entries []audit.Entry
}

func (r *recordingSink) Record(ctx context.Context, entry audit.Entry) error {
	r.entries = append(r.entries, entry)
	return nil
}

type recordingEmitter struct {
	signals []fraud.Signal
}

func (r *recordingEmitter) Submit(ctx context.Context, signal fraud.Signal) error {
	r.signals = append(r.signals, signal)
	return nil
}

func newTestService(verifier *mockVerifier) (*Service, *recordingSink, *recordingEmitter) {
	sink := &recordingSink{}
	em := &recordingEmitter{}
	return NewService(verifier, sink, em, nil), sink, em
}

func TestReasonFacets(t *testing.T) {
	theft, ok := FacetsFor(ReasonTheft)
	require.True(t, ok)
	assert.True(t, theft.RequiresPin)
	assert.True(t, theft.RequiresNotes)

	purchase, ok := FacetsFor(ReasonPurchaseReceived)
	require.True(t, ok)
	assert.False(t, purchase.RequiresPin)

	_, ok = FacetsFor(Reason("MADE_UP"))
	assert.False(t, ok)
}

func TestValidateRequiresNotes(t *testing.T) {
	svc, _, _ := newTestService(&mockVerifier{valid: "1234"})

	result := svc.ValidateAdjustment(context.Background(), "biz1", AdjustmentRequest{Reason: ReasonDamageOrExpiry}, "")
	assert.False(t, result.Allowed)
	assert.False(t, result.PinRequired)
	assert.Contains(t, result.Error, "notes")

	result = svc.ValidateAdjustment(context.Background(), "biz1", AdjustmentRequest{Reason: ReasonDamageOrExpiry, Notes: "water damage"}, "")
	assert.True(t, result.Allowed)
}

func TestValidatePinMissingAndInvalidReportedDistinctly(t *testing.T) {
	svc, _, _ := newTestService(&mockVerifier{valid: "1234"})
	req := AdjustmentRequest{Reason: ReasonTheft, Notes: "reported to police"}

	result := svc.ValidateAdjustment(context.Background(), "biz1", req, "")
	assert.False(t, result.Allowed)
	assert.True(t, result.PinRequired)

	result = svc.ValidateAdjustment(context.Background(), "biz1", req, "0000")
	assert.False(t, result.Allowed)
	assert.True(t, result.PinRequired)

	result = svc.ValidateAdjustment(context.Background(), "biz1", req, "1234")
	assert.True(t, result.Allowed)
}

func TestValidateVerifierFaultDeniesWithoutReprompt(t *testing.T) {
	svc, _, _ := newTestService(&mockVerifier{err: errors.New("verifier unreachable")})
	req := AdjustmentRequest{Reason: ReasonTheft, Notes: "n"}

	result := svc.ValidateAdjustment(context.Background(), "biz1", req, "1234")
	assert.False(t, result.Allowed)
	assert.False(t, result.PinRequired)
}

func TestChangePercent(t *testing.T) {
	assert.InDelta(t, 60, ChangePercent(100, 40), 0.001)
	assert.InDelta(t, 100, ChangePercent(0, 50), 0.001)
	assert.InDelta(t, 100, ChangePercent(-5, 50), 0.001)
	assert.InDelta(t, 20, ChangePercent(100, 120), 0.001)
}

func TestLogAdjustmentAlwaysAudits(t *testing.T) {
	svc, sink, em := newTestService(&mockVerifier{valid: "1234"})

	svc.LogAdjustment(context.Background(), "biz1", AdjustmentRequest{
		ProductID: "p1", OldQuantity: 100, NewQuantity: 90,
		Reason: ReasonSale, AdjustedBy: "u1",
	})

	require.Len(t, sink.entries, 1)
	assert.Equal(t, audit.ActionStockAdjusted, sink.entries[0].Action)
	payload, ok := sink.entries[0].NewValue.(audit.StockAdjusted)
	require.True(t, ok)
	assert.Equal(t, float64(-10), payload.QuantityChange)
	assert.Empty(t, em.signals, "10% change is below the mismatch threshold")
}

func TestLargeAdjustmentEmitsHighSignal(t *testing.T) {
	svc, sink, em := newTestService(&mockVerifier{valid: "1234"})

	// 100 -> 40 is a 60% change: flagged HIGH, not CRITICAL.
	svc.LogAdjustment(context.Background(), "biz1", AdjustmentRequest{
		ProductID: "p1", ProductName: "Paracetamol", OldQuantity: 100, NewQuantity: 40,
		Reason: ReasonCountCorrection, Notes: "recount", AdjustedBy: "u1",
	})

	require.Len(t, sink.entries, 2)
	assert.Equal(t, audit.ActionStockMismatch, sink.entries[1].Action)
	require.Len(t, em.signals, 1)
	assert.Equal(t, fraud.SignalStockMismatch, em.signals[0].Type)
	assert.Equal(t, fraud.SeverityHigh, em.signals[0].Severity)
}

func TestExtremeAdjustmentEmitsCriticalSignal(t *testing.T) {
	svc, _, em := newTestService(&mockVerifier{valid: "1234"})

	svc.LogAdjustment(context.Background(), "biz1", AdjustmentRequest{
		ProductID: "p1", OldQuantity: 100, NewQuantity: 2,
		Reason: ReasonTheft, Notes: "reported", AdjustedBy: "u1",
	})

	require.Len(t, em.signals, 1)
	assert.Equal(t, fraud.SeverityCritical, em.signals[0].Severity)
}

func TestZeroBaselineCountsAsFullChange(t *testing.T) {
	svc, _, em := newTestService(&mockVerifier{valid: "1234"})

	svc.LogAdjustment(context.Background(), "biz1", AdjustmentRequest{
		ProductID: "p1", OldQuantity: 0, NewQuantity: 10,
		Reason: ReasonOpeningBalance, AdjustedBy: "u1",
	})

	require.Len(t, em.signals, 1)
	assert.Equal(t, fraud.SeverityCritical, em.signals[0].Severity)
}
