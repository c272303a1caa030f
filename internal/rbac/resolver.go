package rbac

import (
	"context"
	"log/slog"

	"github.com/vigilpos/vigilpos/internal/audit"
	"github.com/vigilpos/vigilpos/internal/fraud"
)

// Resolver answers permission questions for authenticated users and records
// denials. The role cache is injected so callers own its lifecycle.
type Resolver struct {
	cache   *RoleCache
	rec     audit.Recorder
	emitter fraud.Emitter
	logger  *slog.Logger
}

// NewResolver constructs a Resolver.
func NewResolver(cache *RoleCache, rec audit.Recorder, emitter fraud.Emitter, logger *slog.Logger) *Resolver {
	return &Resolver{cache: cache, rec: rec, emitter: emitter, logger: logger}
}

// SetUserRole binds a role to a user at login.
func (r *Resolver) SetUserRole(userID string, role Role) {
	r.cache.Set(userID, role)
}

// ClearUserCache removes the binding at logout.
func (r *Resolver) ClearUserCache(userID string) {
	r.cache.Clear(userID)
}

// HasPermission is a pure cache lookup. No role cached means
// unauthenticated, which denies without logging.
func (r *Resolver) HasPermission(userID string, perm Permission) bool {
	role, ok := r.cache.Get(userID)
	if !ok {
		return false
	}
	return roleHas(role, perm)
}

// CheckPermission behaves like HasPermission and, on denial of an
// authenticated user, writes an audit entry and forwards a role-abuse signal
// to the fraud detector. Both side calls are best-effort and never change
// the returned decision.
func (r *Resolver) CheckPermission(ctx context.Context, userID, businessID string, perm Permission, actionContext string) bool {
	role, ok := r.cache.Get(userID)
	if !ok {
		return false
	}
	if roleHas(role, perm) {
		return true
	}
	audit.Try(ctx, r.logger, r.rec, audit.Entry{
		UserID:   userID,
		Entity:   audit.EntityPermission,
		RecordID: string(perm),
		Action:   audit.ActionDenied,
		NewValue: audit.PermissionDenied{
			Permission: string(perm),
			Role:       string(role),
			Context:    actionContext,
		},
	})
	fraud.Try(ctx, r.logger, r.emitter, fraud.Signal{
		BusinessID:  businessID,
		UserID:      userID,
		Type:        fraud.SignalRoleAbuse,
		Severity:    fraud.SeverityHigh,
		Description: "attempted action outside role permissions",
		Payload: map[string]any{
			"attempted_action": string(perm),
			"user_role":        string(role),
		},
	})
	return false
}

// HasAnyPermission reports whether the user holds at least one of the
// supplied permissions. Pure combinator, no side effects.
func (r *Resolver) HasAnyPermission(userID string, perms ...Permission) bool {
	for _, perm := range perms {
		if r.HasPermission(userID, perm) {
			return true
		}
	}
	return false
}

// HasAllPermissions reports whether the user holds every supplied
// permission. Pure combinator, no side effects.
func (r *Resolver) HasAllPermissions(userID string, perms ...Permission) bool {
	for _, perm := range perms {
		if !r.HasPermission(userID, perm) {
			return false
		}
	}
	return true
}
