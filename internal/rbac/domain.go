package rbac

import (
	"context"

	"github.com/odyssey-erp/odyssey-lite/internal/shared"
)

// Role represents a high-level permission grouping.
type Role struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	DisplayName string `json:"display_name"`
	Description string `json:"description,omitempty"`
	Priority    int    `json:"priority"`
}

// Permission represents an atomic capability. Action and Resource form its key.
type Permission struct {
	ID       string `json:"id,omitempty"`
	Action   string `json:"action"`
	Resource string `json:"resource"`
}

// RoleGrant is a user_roles row joined with its role. Role is nil when the
// relation did not resolve to a single role object.
type RoleGrant struct {
	ID   string
	Role *Role
}

// RolePermissions is one held role together with its permission set.
type RolePermissions struct {
	Role        Role
	Permissions []Permission
}

// IdentityResolver returns the caller attached to the request context.
type IdentityResolver interface {
	CurrentUser(ctx context.Context) (*shared.Identity, error)
}

// Store is the read side of the role and permission tables.
type Store interface {
	UserRoles(ctx context.Context, userID string) ([]Role, error)
	RoleGrants(ctx context.Context, userID string) ([]RoleGrant, error)
	RolePermissions(ctx context.Context, userID string) ([]RolePermissions, error)
	ListRoles(ctx context.Context) ([]Role, error)
}

// DecisionRecorder receives authorization outcomes for instrumentation.
type DecisionRecorder interface {
	ObserveDecision(check string, allowed bool)
	ObserveStoreError(action string)
}
