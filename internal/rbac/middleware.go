package rbac

import (
	"log/slog"
	"net/http"

	"github.com/odyssey-erp/odyssey-lite/internal/platform/httpx"
	"github.com/odyssey-erp/odyssey-lite/internal/shared"
)

// Middleware wires RBAC authorization helpers for HTTP handlers.
type Middleware struct {
	Service *Service
	Logger  *slog.Logger
}

// RequireSuperAdmin redirects callers that are not super admins to the
// dashboard and never reaches next for them.
func (m Middleware) RequireSuperAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !m.Service.CheckSuperAdmin(r.Context()) {
			if m.Logger != nil {
				m.Logger.Info("super admin required", slog.String("path", r.URL.Path))
			}
			http.Redirect(w, r, shared.UnauthorizedRedirect, http.StatusSeeOther)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequirePermission answers 403 unless the caller holds (action, resource).
func (m Middleware) RequirePermission(action, resource string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if shared.IdentityFromContext(r.Context()) == nil {
				httpx.RespondError(w, httpx.ErrUnauthorized)
				return
			}
			if !m.Service.HasPermission(r.Context(), action, resource, "") {
				httpx.RespondError(w, httpx.ErrForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
