package sessions

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/vigilpos/vigilpos/internal/platform/httpx"
	"github.com/vigilpos/vigilpos/internal/rbac"
)

// Handler exposes session lifecycle endpoints over HTTP.
type Handler struct {
	logger  *slog.Logger
	service *Service
	guard   rbac.Middleware
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, guard rbac.Middleware) *Handler {
	return &Handler{logger: logger, service: service, guard: guard}
}

// MountRoutes registers session routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/", h.create)
	r.Post("/{sessionID}/heartbeat", h.heartbeat)
	r.Delete("/{sessionID}", h.end)
	r.Group(func(r chi.Router) {
		r.Use(h.guard.RequireAny(rbac.PermManageSessions))
		r.Post("/{sessionID}/force-logout", h.forceLogout)
		r.Get("/active", h.active)
		r.Get("/history", h.history)
	})
}

type createRequest struct {
	DeviceID   string `json:"device_id"`
	DeviceName string `json:"device_name"`
	Platform   string `json:"platform"`
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid JSON body")
		return
	}
	in := CreateSessionInput{
		UserID:     strings.TrimSpace(r.Header.Get(rbac.UserHeader)),
		BusinessID: strings.TrimSpace(r.Header.Get(rbac.BusinessHeader)),
		DeviceID:   req.DeviceID,
		DeviceName: req.DeviceName,
		Platform:   req.Platform,
	}
	if in.UserID == "" || in.BusinessID == "" {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "identity headers required")
		return
	}
	session, err := h.service.CreateSession(r.Context(), in)
	if err != nil {
		h.logger.Error("create session", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	httpx.JSON(w, http.StatusCreated, session)
}

func (h *Handler) heartbeat(w http.ResponseWriter, r *http.Request) {
	valid, err := h.service.ValidateSession(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		h.logger.Error("validate session", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]bool{"valid": valid})
}

func (h *Handler) end(w http.ResponseWriter, r *http.Request) {
	if err := h.service.EndSession(r.Context(), chi.URLParam(r, "sessionID")); err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			httpx.Problem(w, http.StatusNotFound, "Not Found", err.Error())
			return
		}
		h.logger.Error("end session", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) forceLogout(w http.ResponseWriter, r *http.Request) {
	performedBy := strings.TrimSpace(r.Header.Get(rbac.UserHeader))
	err := h.service.ForceLogout(r.Context(), chi.URLParam(r, "sessionID"), performedBy)
	if err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			httpx.Problem(w, http.StatusNotFound, "Not Found", err.Error())
			return
		}
		h.logger.Error("force logout", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]bool{"terminated": true})
}

func (h *Handler) active(w http.ResponseWriter, r *http.Request) {
	businessID := strings.TrimSpace(r.Header.Get(rbac.BusinessHeader))
	list, err := h.service.GetActiveSessions(r.Context(), businessID)
	if err != nil {
		h.logger.Error("list active sessions", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	if list == nil {
		list = []UserSession{}
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"sessions": list})
}

func (h *Handler) history(w http.ResponseWriter, r *http.Request) {
	businessID := strings.TrimSpace(r.Header.Get(rbac.BusinessHeader))
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		userID = strings.TrimSpace(r.Header.Get(rbac.UserHeader))
	}
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, _ = strconv.Atoi(raw)
	}
	list, err := h.service.GetLoginHistory(r.Context(), businessID, userID, limit)
	if err != nil {
		h.logger.Error("login history", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	if list == nil {
		list = []UserSession{}
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"sessions": list})
}
