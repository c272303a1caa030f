package credit

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/vigilpos/vigilpos/internal/observability"
	"github.com/vigilpos/vigilpos/internal/platform/httpx"
	"github.com/vigilpos/vigilpos/internal/rbac"
)

// Handler exposes the credit enforcement engine over HTTP.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
	metrics   *observability.Metrics
	guard     rbac.Middleware
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, metrics *observability.Metrics, guard rbac.Middleware) *Handler {
	return &Handler{
		logger:    logger,
		service:   service,
		validator: validator.New(),
		metrics:   metrics,
		guard:     guard,
	}
}

// MountRoutes registers credit routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/check", h.check)
	r.Group(func(r chi.Router) {
		r.Use(h.guard.RequireAny(rbac.PermManageCredit))
		r.Post("/customers/{customerID}/block", h.block)
		r.Post("/customers/{customerID}/unblock", h.unblock)
		r.Put("/customers/{customerID}/limit", h.updateLimit)
	})
}

type checkRequest struct {
	CustomerID string `json:"customer_id" validate:"required"`
	Amount     string `json:"amount" validate:"required"`
}

func (h *Handler) check(w http.ResponseWriter, r *http.Request) {
	var req checkRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil || amount.IsNegative() {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "amount must be a non-negative decimal")
		return
	}
	result, err := h.service.CheckCreditLimit(r.Context(), req.CustomerID, amount)
	if err != nil {
		h.logger.Error("credit check", slog.String("customer_id", req.CustomerID), slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	h.metrics.GateDecision("credit", string(result.Action))
	httpx.JSON(w, http.StatusOK, result)
}

type blockRequest struct {
	Reason string `json:"reason"`
}

func (h *Handler) block(w http.ResponseWriter, r *http.Request) {
	var req blockRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid JSON body")
		return
	}
	customerID := chi.URLParam(r, "customerID")
	actorID := strings.TrimSpace(r.Header.Get(rbac.UserHeader))
	updated := h.service.BlockCustomer(r.Context(), customerID, req.Reason, actorID)
	httpx.JSON(w, http.StatusOK, map[string]bool{"updated": updated})
}

func (h *Handler) unblock(w http.ResponseWriter, r *http.Request) {
	customerID := chi.URLParam(r, "customerID")
	actorID := strings.TrimSpace(r.Header.Get(rbac.UserHeader))
	updated := h.service.UnblockCustomer(r.Context(), customerID, actorID)
	httpx.JSON(w, http.StatusOK, map[string]bool{"updated": updated})
}

type limitRequest struct {
	Limit string `json:"limit" validate:"required"`
}

func (h *Handler) updateLimit(w http.ResponseWriter, r *http.Request) {
	var req limitRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	limit, err := decimal.NewFromString(req.Limit)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "limit must be a decimal")
		return
	}
	customerID := chi.URLParam(r, "customerID")
	actorID := strings.TrimSpace(r.Header.Get(rbac.UserHeader))
	updated := h.service.UpdateCreditLimit(r.Context(), customerID, limit, actorID)
	httpx.JSON(w, http.StatusOK, map[string]bool{"updated": updated})
}
