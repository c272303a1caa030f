package compliance

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	pharmacyCfg = BusinessConfig{BusinessType: "pharmacy", TrackBatches: true, TrackExpiry: true}
	groceryCfg  = BusinessConfig{BusinessType: "grocery"}
)

func testService() *Service {
	svc := NewService(30)
	svc.WithNow(func() time.Time { return time.Date(2025, time.June, 1, 0, 0, 0, 0, time.UTC) })
	return svc
}

func expiry(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}

func TestRequiresPharmacyValidationIsCapabilityDriven(t *testing.T) {
	assert.True(t, pharmacyCfg.RequiresPharmacyValidation())
	assert.False(t, groceryCfg.RequiresPharmacyValidation())
	assert.False(t, BusinessConfig{TrackBatches: true}.RequiresPharmacyValidation())

	// A wholesale trade with the same capabilities gets the same rules.
	wholesale := BusinessConfig{BusinessType: "wholesale", TrackBatches: true, TrackExpiry: true}
	assert.True(t, wholesale.RequiresPharmacyValidation())
}

func TestScheduledDrugWithoutPrescriptionBlocked(t *testing.T) {
	svc := testService()
	item := SaleItem{ProductID: "p1", Name: "Alprazolam", BatchNo: "B1", ExpiryDate: expiry(2026, time.January, 1), DrugSchedule: ScheduleH1}

	err := svc.ValidateBillItem(pharmacyCfg, item)
	var violation *ViolationError
	require.ErrorAs(t, err, &violation)
	assert.Equal(t, IssuePrescriptionRequired, violation.Issue.Code)

	item.PrescriptionID = "rx-9"
	assert.NoError(t, svc.ValidateBillItem(pharmacyCfg, item))
}

func TestExpiredItemBlockedForEveryBusinessType(t *testing.T) {
	svc := testService()
	item := SaleItem{ProductID: "p1", Name: "Milk", ExpiryDate: expiry(2025, time.May, 20)}

	for _, cfg := range []BusinessConfig{groceryCfg, pharmacyCfg} {
		err := svc.ValidateBillItem(cfg, SaleItem{ProductID: item.ProductID, Name: item.Name, BatchNo: "B1", ExpiryDate: item.ExpiryDate})
		var violation *ViolationError
		require.ErrorAs(t, err, &violation, "business type %s", cfg.BusinessType)
		assert.Equal(t, IssueExpired, violation.Issue.Code)
	}
}

func TestNoExpiryDateNeverTriggersExpiryRule(t *testing.T) {
	svc := testService()
	assert.NoError(t, svc.ValidateBillItem(groceryCfg, SaleItem{ProductID: "p1", Name: "Salt"}))
}

func TestBatchAndExpiryRequiredOnlyWhenTracked(t *testing.T) {
	svc := testService()
	item := SaleItem{ProductID: "p1", Name: "Syrup"}

	assert.NoError(t, svc.ValidateBillItem(groceryCfg, item))

	err := svc.ValidateBillItem(pharmacyCfg, item)
	var violation *ViolationError
	require.ErrorAs(t, err, &violation)
	assert.Equal(t, IssueBatchMissing, violation.Issue.Code)

	item.BatchNo = "B7"
	err = svc.ValidateBillItem(pharmacyCfg, item)
	require.ErrorAs(t, err, &violation)
	assert.Equal(t, IssueExpiryMissing, violation.Issue.Code)

	item.ExpiryDate = expiry(2026, time.January, 1)
	assert.NoError(t, svc.ValidateBillItem(pharmacyCfg, item))
}

func TestValidateBillItemsStopsAtFirstViolation(t *testing.T) {
	svc := testService()
	items := []SaleItem{
		{ProductID: "ok", Name: "Bandage", BatchNo: "B1", ExpiryDate: expiry(2026, time.March, 1)},
		{ProductID: "bad", Name: "Old syrup", BatchNo: "B2", ExpiryDate: expiry(2025, time.January, 1)},
	}

	err := svc.ValidateBillItems(pharmacyCfg, items)
	var violation *ViolationError
	require.ErrorAs(t, err, &violation)
	assert.Equal(t, "bad", violation.Issue.ProductID)
}

func TestCheckItemsCollectsAdvisoryWarnings(t *testing.T) {
	svc := testService()
	items := []SaleItem{
		{ProductID: "p1", Name: "Insulin", BatchNo: "B1", ExpiryDate: expiry(2025, time.June, 15)},
		{ProductID: "p2", Name: "Gauze", BatchNo: "B2", ExpiryDate: expiry(2026, time.June, 1)},
		{ProductID: "p3", Name: "Old stock", BatchNo: "B3", ExpiryDate: expiry(2025, time.April, 1)},
	}

	issues := svc.CheckItemsForIssues(pharmacyCfg, items)
	require.Len(t, issues, 2)

	assert.Equal(t, IssueNearExpiry, issues[0].Code)
	assert.False(t, issues[0].Blocking, "near expiry is advisory only")
	assert.Equal(t, IssueExpired, issues[1].Code)
	assert.True(t, issues[1].Blocking)

	// The advisory issue never blocks the committing path.
	assert.Error(t, svc.ValidateBillItems(pharmacyCfg, items))
	assert.NoError(t, svc.ValidateBillItems(pharmacyCfg, items[:2]))
}
