package closing

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/vigilpos/vigilpos/internal/observability"
	"github.com/vigilpos/vigilpos/internal/platform/httpx"
	"github.com/vigilpos/vigilpos/internal/rbac"
)

// Handler exposes the cash closing gate over HTTP.
type Handler struct {
	logger  *slog.Logger
	service *Service
	metrics *observability.Metrics
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, metrics *observability.Metrics) *Handler {
	return &Handler{logger: logger, service: service, metrics: metrics}
}

// MountRoutes registers closing routes. The gate is advisory for billing
// flows, so no permission guard applies to reads.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/validate", h.validate)
	r.Get("/pending", h.pending)
}

func (h *Handler) validate(w http.ResponseWriter, r *http.Request) {
	businessID := strings.TrimSpace(r.Header.Get(rbac.BusinessHeader))
	if businessID == "" {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "business header required")
		return
	}
	billDate, err := time.Parse("2006-01-02", r.URL.Query().Get("bill_date"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "bill_date must be YYYY-MM-DD")
		return
	}
	result := h.service.ValidateForBilling(r.Context(), businessID, billDate)
	if result.Allowed {
		h.metrics.GateDecision("closing", "allow")
	} else {
		h.metrics.GateDecision("closing", "block")
	}
	httpx.JSON(w, http.StatusOK, result)
}

func (h *Handler) pending(w http.ResponseWriter, r *http.Request) {
	businessID := strings.TrimSpace(r.Header.Get(rbac.BusinessHeader))
	if businessID == "" {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "business header required")
		return
	}
	lookback := 7
	if raw := r.URL.Query().Get("lookback_days"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "lookback_days must be a positive integer")
			return
		}
		lookback = parsed
	}
	dates, err := h.service.GetPendingClosingDates(r.Context(), businessID, lookback)
	if err != nil {
		h.logger.Error("pending closings", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	out := make([]string, 0, len(dates))
	for _, d := range dates {
		out = append(out, d.Format("2006-01-02"))
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"pending_dates": out})
}
