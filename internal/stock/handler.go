package stock

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/vigilpos/vigilpos/internal/observability"
	"github.com/vigilpos/vigilpos/internal/platform/httpx"
	"github.com/vigilpos/vigilpos/internal/rbac"
)

// Handler exposes the stock adjustment gate over HTTP.
type Handler struct {
	logger  *slog.Logger
	service *Service
	metrics *observability.Metrics
	guard   rbac.Middleware
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, metrics *observability.Metrics, guard rbac.Middleware) *Handler {
	return &Handler{logger: logger, service: service, metrics: metrics, guard: guard}
}

// MountRoutes registers stock routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/reasons", h.reasons)
	r.Group(func(r chi.Router) {
		r.Use(h.guard.RequireAny(rbac.PermAdjustStock))
		r.Post("/validate", h.validate)
		r.Post("/adjustments", h.adjust)
	})
}

type reasonView struct {
	Reason        Reason `json:"reason"`
	RequiresNotes bool   `json:"requires_notes"`
	RequiresPin   bool   `json:"requires_pin"`
}

func (h *Handler) reasons(w http.ResponseWriter, r *http.Request) {
	views := make([]reasonView, 0, len(reasonFacets))
	for _, reason := range []Reason{
		ReasonPurchaseReceived, ReasonSale, ReasonCustomerReturn,
		ReasonSupplierReturn, ReasonDamageOrExpiry, ReasonTheft,
		ReasonCountCorrection, ReasonOpeningBalance, ReasonTransfer,
		ReasonSample, ReasonOther,
	} {
		facets := reasonFacets[reason]
		views = append(views, reasonView{
			Reason:        reason,
			RequiresNotes: facets.RequiresNotes,
			RequiresPin:   facets.RequiresPin,
		})
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"reasons": views})
}

type adjustmentBody struct {
	AdjustmentRequest
	PIN string `json:"pin,omitempty"`
}

func (h *Handler) validate(w http.ResponseWriter, r *http.Request) {
	var body adjustmentBody
	if err := httpx.DecodeJSON(r, &body); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid JSON body")
		return
	}
	businessID := strings.TrimSpace(r.Header.Get(rbac.BusinessHeader))
	result := h.service.ValidateAdjustment(r.Context(), businessID, body.AdjustmentRequest, body.PIN)
	if result.Allowed {
		h.metrics.GateDecision("stock", "allow")
	} else {
		h.metrics.GateDecision("stock", "denied")
	}
	httpx.JSON(w, http.StatusOK, result)
}

// adjust runs the gate and, when the change passes, logs it. Oversized
// changes are still logged and flagged, never blocked.
func (h *Handler) adjust(w http.ResponseWriter, r *http.Request) {
	var body adjustmentBody
	if err := httpx.DecodeJSON(r, &body); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid JSON body")
		return
	}
	businessID := strings.TrimSpace(r.Header.Get(rbac.BusinessHeader))
	if body.AdjustedBy == "" {
		body.AdjustedBy = strings.TrimSpace(r.Header.Get(rbac.UserHeader))
	}
	result := h.service.ValidateAdjustment(r.Context(), businessID, body.AdjustmentRequest, body.PIN)
	if !result.Allowed {
		h.metrics.GateDecision("stock", "denied")
		httpx.JSON(w, http.StatusUnprocessableEntity, result)
		return
	}
	h.service.LogAdjustment(r.Context(), businessID, body.AdjustmentRequest)
	h.metrics.GateDecision("stock", "allow")
	httpx.JSON(w, http.StatusOK, result)
}
