package shared

import "context"

type sessionContextKey struct{}

type identityContextKey struct{}

// Identity is the authenticated caller as seen by request handlers.
type Identity struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// ContextWithSession stores the session in context.
func ContextWithSession(ctx context.Context, sess *Session) context.Context {
	return context.WithValue(ctx, sessionContextKey{}, sess)
}

// SessionFromContext extracts the session from context.
func SessionFromContext(ctx context.Context) *Session {
	sess, _ := ctx.Value(sessionContextKey{}).(*Session)
	return sess
}

// ContextWithIdentity attaches a resolved identity. A nil identity is stored as absent.
func ContextWithIdentity(ctx context.Context, id *Identity) context.Context {
	if id == nil || id.ID == "" {
		return ctx
	}
	return context.WithValue(ctx, identityContextKey{}, id)
}

// IdentityFromContext returns the identity resolved for the request, or nil.
func IdentityFromContext(ctx context.Context) *Identity {
	id, _ := ctx.Value(identityContextKey{}).(*Identity)
	return id
}
