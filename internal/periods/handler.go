package periods

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/vigilpos/vigilpos/internal/observability"
	"github.com/vigilpos/vigilpos/internal/platform/httpx"
	"github.com/vigilpos/vigilpos/internal/rbac"
)

const dateLayout = "2006-01-02"

// Handler exposes the period lock gate over HTTP.
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

// MountRoutes registers period routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/status", h.status)
	r.With(h.guard.RequireAny(rbac.PermLockPeriods)).Post("/{periodID}/lock", h.lock)
	r.With(h.guard.RequireAny(rbac.PermUnlockPeriods)).Post("/{periodID}/unlock", h.unlock)
}

type lockStatusResponse struct {
	Locked bool              `json:"locked"`
	Period *AccountingPeriod `json:"period,omitempty"`
}

func (h *Handler) status(w http.ResponseWriter, r *http.Request) {
	businessID := strings.TrimSpace(r.Header.Get(rbac.BusinessHeader))
	if businessID == "" {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "business header required")
		return
	}
	date, err := parseDate(r.URL.Query().Get("date"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "date must be YYYY-MM-DD")
		return
	}
	status, err := h.service.GetLockStatus(r.Context(), businessID, date)
	if err != nil {
		h.logger.Error("period status", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, lockStatusResponse{Locked: status.Locked, Period: status.Period})
}

type lockRequest struct {
	PIN    string `json:"pin"`
	Reason string `json:"reason"`
}

func (h *Handler) lock(w http.ResponseWriter, r *http.Request) {
	var req lockRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid JSON body")
		return
	}
	in := LockInput{
		BusinessID: strings.TrimSpace(r.Header.Get(rbac.BusinessHeader)),
		PeriodID:   chi.URLParam(r, "periodID"),
		UserID:     strings.TrimSpace(r.Header.Get(rbac.UserHeader)),
		PIN:        req.PIN,
		Reason:     req.Reason,
	}
	if err := h.service.Lock(r.Context(), in); err != nil {
		h.respondLockError(w, "lock", err)
		return
	}
	h.metrics.GateDecision("periods", "lock")
	httpx.JSON(w, http.StatusOK, map[string]bool{"locked": true})
}

func (h *Handler) unlock(w http.ResponseWriter, r *http.Request) {
	var req lockRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid JSON body")
		return
	}
	in := UnlockInput{
		BusinessID: strings.TrimSpace(r.Header.Get(rbac.BusinessHeader)),
		PeriodID:   chi.URLParam(r, "periodID"),
		UserID:     strings.TrimSpace(r.Header.Get(rbac.UserHeader)),
		PIN:        req.PIN,
		Reason:     req.Reason,
	}
	if err := h.service.Unlock(r.Context(), in); err != nil {
		h.respondLockError(w, "unlock", err)
		return
	}
	h.metrics.GateDecision("periods", "unlock")
	httpx.JSON(w, http.StatusOK, map[string]bool{"locked": false})
}

func (h *Handler) respondLockError(w http.ResponseWriter, op string, err error) {
	var lockErr *PeriodLockError
	switch {
	case errors.As(err, &lockErr):
		h.metrics.GateDecision("periods", "denied")
		httpx.Problem(w, http.StatusForbidden, "Lock Transition Refused", lockErr.Reason)
	case errors.Is(err, ErrPeriodNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", err.Error())
	default:
		h.logger.Error("period "+op, slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}

func parseDate(raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, errors.New("periods: date required")
	}
	return time.Parse(dateLayout, raw)
}
