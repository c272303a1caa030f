package compliance

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vigilpos/vigilpos/internal/observability"
)

func newTestComplianceRouter() http.Handler {
	svc := NewService(30)
	svc.WithNow(func() time.Time { return time.Date(2025, time.June, 1, 0, 0, 0, 0, time.UTC) })
	handler := NewHandler(slog.Default(), svc, observability.NewMetrics())
	r := chi.NewRouter()
	r.Route("/compliance", handler.MountRoutes)
	return r
}

func postJSON(t *testing.T, router http.Handler, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

func TestValidateEndpointBlocksScheduledDrugWithoutPrescription(t *testing.T) {
	router := newTestComplianceRouter()

	rr := postJSON(t, router, "/compliance/validate", complianceRequest{
		Config: BusinessConfig{BusinessType: "pharmacy", TrackBatches: true, TrackExpiry: true},
		Items: []SaleItem{
			{ProductID: "p1", Name: "Alprax", BatchNo: "B1", DrugSchedule: ScheduleH1},
		},
	})

	require.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	var body struct {
		Allowed   bool  `json:"allowed"`
		Violation Issue `json:"violation"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.False(t, body.Allowed)
	assert.Equal(t, IssuePrescriptionRequired, body.Violation.Code)
}

func TestValidateEndpointAllowsCleanBill(t *testing.T) {
	router := newTestComplianceRouter()

	rr := postJSON(t, router, "/compliance/validate", complianceRequest{
		Config: BusinessConfig{BusinessType: "grocery"},
		Items:  []SaleItem{{ProductID: "p1", Name: "Rice"}},
	})

	require.Equal(t, http.StatusOK, rr.Code)
}

func TestIssuesEndpointCollectsEveryFinding(t *testing.T) {
	router := newTestComplianceRouter()
	nearExpiry := time.Date(2025, time.June, 15, 0, 0, 0, 0, time.UTC)

	rr := postJSON(t, router, "/compliance/issues", complianceRequest{
		Config: BusinessConfig{BusinessType: "pharmacy", TrackBatches: true, TrackExpiry: true},
		Items: []SaleItem{
			{ProductID: "p1", Name: "Alprax", BatchNo: "B1", ExpiryDate: &nearExpiry, DrugSchedule: ScheduleH1},
			{ProductID: "p2", Name: "Syrup"},
		},
	})

	require.Equal(t, http.StatusOK, rr.Code)
	var body struct {
		Issues []Issue `json:"issues"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	codes := make([]string, 0, len(body.Issues))
	for _, issue := range body.Issues {
		codes = append(codes, issue.Code)
	}
	assert.Contains(t, codes, IssuePrescriptionRequired)
	assert.Contains(t, codes, IssueNearExpiry)
	assert.Contains(t, codes, IssueBatchMissing)
	assert.Contains(t, codes, IssueExpiryMissing)
}
