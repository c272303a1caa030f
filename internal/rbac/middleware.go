package rbac

import (
	"net/http"
	"strings"
)

// UserHeader carries the acting user id, set by the authenticating edge in
// front of this service.
const UserHeader = "X-User-Id"

// BusinessHeader carries the acting business id.
const BusinessHeader = "X-Business-Id"

// Middleware wires authorization checks for HTTP handlers.
type Middleware struct {
	Resolver *Resolver
}

// RequireAny ensures the current user holds at least one of the required
// permissions.
func (m Middleware) RequireAny(perms ...Permission) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if len(perms) == 0 {
				next.ServeHTTP(w, r)
				return
			}
			userID := strings.TrimSpace(r.Header.Get(UserHeader))
			if userID == "" {
				http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
				return
			}
			businessID := strings.TrimSpace(r.Header.Get(BusinessHeader))
			for _, perm := range perms {
				if m.Resolver.CheckPermission(r.Context(), userID, businessID, perm, r.URL.Path) {
					next.ServeHTTP(w, r)
					return
				}
			}
			http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
		})
	}
}

// RequireAll ensures the current user holds every required permission.
func (m Middleware) RequireAll(perms ...Permission) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID := strings.TrimSpace(r.Header.Get(UserHeader))
			if userID == "" && len(perms) > 0 {
				http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
				return
			}
			if m.Resolver.HasAllPermissions(userID, perms...) {
				next.ServeHTTP(w, r)
				return
			}
			http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
		})
	}
}
