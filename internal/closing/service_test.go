package closing

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockStore struct {
	closings map[string]CashClosing
	findErr  error
	listErr  error
}

func newMockStore() *mockStore {
	return &mockStore{closings: make(map[string]CashClosing)}
}

func (m *mockStore) add(c CashClosing) {
	m.closings[c.BusinessID+"|"+c.ClosingDate.Format("2006-01-02")] = c
}

func (m *mockStore) FindByDate(ctx context.Context, businessID string, date time.Time) (*CashClosing, error) {
	if m.findErr != nil {
		return nil, m.findErr
	}
	c, ok := m.closings[businessID+"|"+date.Format("2006-01-02")]
	if !ok {
		return nil, nil
	}
	return &c, nil
}

func (m *mockStore) ListRange(ctx context.Context, businessID string, from, to time.Time) ([]CashClosing, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	var out []CashClosing
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		if c, ok := m.closings[businessID+"|"+d.Format("2006-01-02")]; ok {
			out = append(out, c)
		}
	}
	return out, nil
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func fixedToday(svc *Service) {
	svc.WithNow(func() time.Time { return day(2025, time.March, 10) })
}

func TestHistoricalBillAlwaysAllowed(t *testing.T) {
	svc := NewService(newMockStore(), nil, 1, nil)
	fixedToday(svc)

	// Bill dated before the cutoff of 2025-03-09 even with no closing record.
	result := svc.ValidateForBilling(context.Background(), "biz1", day(2025, time.March, 8))
	assert.True(t, result.Allowed)
	assert.False(t, result.ClosingRequired)
}

func TestBillingBlockedWithoutPriorDayClosing(t *testing.T) {
	svc := NewService(newMockStore(), nil, 1, nil)
	fixedToday(svc)

	result := svc.ValidateForBilling(context.Background(), "biz1", day(2025, time.March, 10))
	assert.False(t, result.Allowed)
	assert.True(t, result.ClosingRequired)
	require.NotNil(t, result.PendingDate)
	assert.Equal(t, day(2025, time.March, 9), *result.PendingDate)
	assert.Contains(t, result.Message, "09 Mar 2025")
}

func TestBillingAllowedWithMatchedClosing(t *testing.T) {
	store := newMockStore()
	store.add(CashClosing{BusinessID: "biz1", ClosingDate: day(2025, time.March, 9), Status: StatusMatched})
	svc := NewService(store, nil, 1, nil)
	fixedToday(svc)

	result := svc.ValidateForBilling(context.Background(), "biz1", day(2025, time.March, 10))
	assert.True(t, result.Allowed)
}

func TestBillingBlockedOnMismatchUntilApproved(t *testing.T) {
	store := newMockStore()
	store.add(CashClosing{BusinessID: "biz1", ClosingDate: day(2025, time.March, 9), Status: StatusMismatch})
	svc := NewService(store, nil, 1, nil)
	fixedToday(svc)

	result := svc.ValidateForBilling(context.Background(), "biz1", day(2025, time.March, 10))
	assert.False(t, result.Allowed)
	assert.Contains(t, result.Message, string(StatusMismatch))

	store.add(CashClosing{BusinessID: "biz1", ClosingDate: day(2025, time.March, 9), Status: StatusMismatchApproved})
	result = svc.ValidateForBilling(context.Background(), "biz1", day(2025, time.March, 10))
	assert.True(t, result.Allowed)
}

func TestStoreErrorFailsOpen(t *testing.T) {
	store := newMockStore()
	store.findErr = errors.New("store down")
	svc := NewService(store, nil, 1, nil)
	fixedToday(svc)

	result := svc.ValidateForBilling(context.Background(), "biz1", day(2025, time.March, 10))
	assert.True(t, result.Allowed, "internal faults must not block billing")
}

func TestMirrorFallback(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	mirrored := CashClosing{BusinessID: "biz1", ClosingDate: day(2025, time.March, 9), Status: StatusMatched}
	data, err := json.Marshal(mirrored)
	require.NoError(t, err)
	require.NoError(t, mr.Set("closing:biz1:2025-03-09", string(data)))

	svc := NewService(newMockStore(), NewRedisMirror(client), 1, nil)
	fixedToday(svc)

	result := svc.ValidateForBilling(context.Background(), "biz1", day(2025, time.March, 10))
	assert.True(t, result.Allowed, "mirror record satisfies the gate when local store is empty")
}

func TestMirrorFailureSwallowed(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	mr.Close() // force mirror errors

	svc := NewService(newMockStore(), NewRedisMirror(client), 1, nil)
	fixedToday(svc)

	result := svc.ValidateForBilling(context.Background(), "biz1", day(2025, time.March, 10))
	assert.False(t, result.Allowed, "mirror failure falls through to the closing-required decision")
	assert.True(t, result.ClosingRequired)
}

func TestGetPendingClosingDates(t *testing.T) {
	store := newMockStore()
	store.add(CashClosing{BusinessID: "biz1", ClosingDate: day(2025, time.March, 8), Status: StatusMatched})
	store.add(CashClosing{BusinessID: "biz1", ClosingDate: day(2025, time.March, 7), Status: StatusMismatch})
	svc := NewService(store, nil, 1, nil)
	fixedToday(svc)

	pending, err := svc.GetPendingClosingDates(context.Background(), "biz1", 3)
	require.NoError(t, err)
	assert.Equal(t, []time.Time{day(2025, time.March, 7), day(2025, time.March, 9)}, pending)
}
