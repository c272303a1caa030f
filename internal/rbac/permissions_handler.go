package rbac

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/vigilpos/vigilpos/internal/platform/httpx"
)

// PermissionsHandler exposes role and permission lookups.
type PermissionsHandler struct {
	logger   *slog.Logger
	resolver *Resolver
	rbac     Middleware
}

// NewPermissionsHandler builds a PermissionsHandler instance.
func NewPermissionsHandler(logger *slog.Logger, resolver *Resolver, rbac Middleware) *PermissionsHandler {
	return &PermissionsHandler{logger: logger, resolver: resolver, rbac: rbac}
}

// MountRoutes registers permission routes.
func (h *PermissionsHandler) MountRoutes(r chi.Router) {
	r.Get("/roles", h.listRoles)
	r.Get("/check", h.check)
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAny(PermManageUsers))
		r.Put("/users/{userID}/role", h.setRole)
		r.Delete("/users/{userID}/role", h.clearRole)
	})
}

func (h *PermissionsHandler) listRoles(w http.ResponseWriter, r *http.Request) {
	out := make(map[Role][]Permission, len(Roles()))
	for _, role := range Roles() {
		out[role] = PermissionsFor(role)
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"roles": out})
}

// check answers whether the calling user holds a permission. It goes
// through the auditing path so repeated denied probes surface as signals.
func (h *PermissionsHandler) check(w http.ResponseWriter, r *http.Request) {
	perm := Permission(r.URL.Query().Get("permission"))
	if perm == "" {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "permission query parameter required")
		return
	}
	userID := strings.TrimSpace(r.Header.Get(UserHeader))
	businessID := strings.TrimSpace(r.Header.Get(BusinessHeader))
	allowed := h.resolver.CheckPermission(r.Context(), userID, businessID, perm, r.URL.Path)
	httpx.JSON(w, http.StatusOK, map[string]bool{"allowed": allowed})
}

type setRoleRequest struct {
	Role Role `json:"role"`
}

func (h *PermissionsHandler) setRole(w http.ResponseWriter, r *http.Request) {
	var req setRoleRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid JSON body")
		return
	}
	known := false
	for _, role := range Roles() {
		if role == req.Role {
			known = true
			break
		}
	}
	if !known {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "unknown role")
		return
	}
	userID := chi.URLParam(r, "userID")
	h.resolver.SetUserRole(userID, req.Role)
	h.logger.Info("role assigned",
		slog.String("user_id", userID),
		slog.String("role", string(req.Role)))
	httpx.JSON(w, http.StatusOK, map[string]any{"user_id": userID, "role": req.Role})
}

func (h *PermissionsHandler) clearRole(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	h.resolver.ClearUserCache(userID)
	w.WriteHeader(http.StatusNoContent)
}
