package compliance

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/vigilpos/vigilpos/internal/observability"
	"github.com/vigilpos/vigilpos/internal/platform/httpx"
)

// Handler exposes the regulatory compliance gate over HTTP.
type Handler struct {
	logger  *slog.Logger
	service *Service
	metrics *observability.Metrics
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, metrics *observability.Metrics) *Handler {
	return &Handler{logger: logger, service: service, metrics: metrics}
}

// MountRoutes registers compliance routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/validate", h.validate)
	r.Post("/issues", h.issues)
}

type complianceRequest struct {
	Config BusinessConfig `json:"config"`
	Items  []SaleItem     `json:"items"`
}

// validate is the pre-commit check: the first blocking violation fails the
// whole bill.
func (h *Handler) validate(w http.ResponseWriter, r *http.Request) {
	var req complianceRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid JSON body")
		return
	}
	if err := h.service.ValidateBillItems(req.Config, req.Items); err != nil {
		var violation *ViolationError
		if errors.As(err, &violation) {
			h.metrics.GateDecision("compliance", "block")
			httpx.JSON(w, http.StatusUnprocessableEntity, map[string]any{
				"allowed":   false,
				"violation": violation.Issue,
			})
			return
		}
		h.logger.Error("compliance validate", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	h.metrics.GateDecision("compliance", "allow")
	httpx.JSON(w, http.StatusOK, map[string]bool{"allowed": true})
}

// issues is the pre-checkout review: every finding is collected so the
// cashier sees the complete picture at once.
func (h *Handler) issues(w http.ResponseWriter, r *http.Request) {
	var req complianceRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid JSON body")
		return
	}
	found := h.service.CheckItemsForIssues(req.Config, req.Items)
	if found == nil {
		found = []Issue{}
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"issues": found})
}
