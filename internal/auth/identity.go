package auth

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/odyssey-erp/odyssey-lite/internal/shared"
)

// Identify resolves the session user once per request and attaches the
// identity to the request context. Lookup failures leave the request anonymous.
func Identify(service *Service, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess := shared.SessionFromContext(r.Context())
			if sess == nil || sess.User() == "" {
				next.ServeHTTP(w, r)
				return
			}
			user, err := service.Lookup(r.Context(), sess.User())
			if err != nil {
				if !errors.Is(err, shared.ErrNotFound) && logger != nil {
					logger.Warn("identify session user", slog.Any("error", err))
				}
				next.ServeHTTP(w, r)
				return
			}
			ctx := shared.ContextWithIdentity(r.Context(), &shared.Identity{ID: user.ID, Email: user.Email})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// Resolver reads the identity placed on the context by Identify.
type Resolver struct{}

// CurrentUser returns the request identity, or nil for anonymous callers.
func (Resolver) CurrentUser(ctx context.Context) (*shared.Identity, error) {
	return shared.IdentityFromContext(ctx), nil
}

// RequireIdentity answers 401 for anonymous callers.
func RequireIdentity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if shared.IdentityFromContext(r.Context()) == nil {
			unauthorized(w)
			return
		}
		next.ServeHTTP(w, r)
	})
}
