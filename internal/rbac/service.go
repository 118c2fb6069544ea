package rbac

import (
	"cmp"
	"context"
	"log/slog"
	"slices"

	"github.com/odyssey-erp/odyssey-lite/internal/shared"
)

const logModule = "auth"

// Check names used for logging and metrics.
const (
	CheckSuperAdmin = "checkSuperAdmin"
	CheckUserRoles  = "getUserRoles"
	CheckPermission = "hasPermission"
	CheckAllRoles   = "getAllRoles"
)

// Service answers authorization questions. Every method is total: store
// failures are logged and turned into a deny or an empty list.
type Service struct {
	store    Store
	resolver IdentityResolver
	logger   *slog.Logger
	recorder DecisionRecorder
}

// NewService constructs a Service. logger and recorder may be nil.
func NewService(store Store, resolver IdentityResolver, logger *slog.Logger, recorder DecisionRecorder) *Service {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Service{store: store, resolver: resolver, logger: logger, recorder: recorder}
}

// CheckSuperAdmin reports whether the current caller holds the super_admin role.
func (s *Service) CheckSuperAdmin(ctx context.Context) bool {
	userID := s.currentUserID(ctx)
	if userID == "" {
		s.observe(CheckSuperAdmin, false)
		return false
	}
	grants, err := s.store.RoleGrants(ctx, userID)
	grants, ok := failClosed(ctx, s, lookup{action: CheckSuperAdmin, userID: userID}, grants, err)
	allowed := ok && hasSuperAdminGrant(grants)
	s.observe(CheckSuperAdmin, allowed)
	return allowed
}

// GetUserRoles lists the roles of userID, or of the current caller when userID
// is empty. The result is never nil.
func (s *Service) GetUserRoles(ctx context.Context, userID string) []Role {
	if userID == "" {
		userID = s.currentUserID(ctx)
	}
	if userID == "" {
		return []Role{}
	}
	roles, err := s.store.UserRoles(ctx, userID)
	roles, _ = failClosed(ctx, s, lookup{action: CheckUserRoles, userID: userID}, roles, err)
	if roles == nil {
		return []Role{}
	}
	return roles
}

// HasPermission reports whether userID, or the current caller when userID is
// empty, holds the exact (action, resource) pair through any of its roles.
func (s *Service) HasPermission(ctx context.Context, action, resource, userID string) bool {
	if userID == "" {
		userID = s.currentUserID(ctx)
	}
	if userID == "" {
		s.observe(CheckPermission, false)
		return false
	}
	held, err := s.store.RolePermissions(ctx, userID)
	held, ok := failClosed(ctx, s, lookup{
		action: CheckPermission,
		userID: userID,
		metadata: []any{
			slog.String("permission", action),
			slog.String("resource", resource),
		},
	}, held, err)
	allowed := ok && grantsPermission(held, action, resource)
	s.observe(CheckPermission, allowed)
	return allowed
}

// GetAllRoles returns the role catalog ordered by priority, highest first.
// The result is never nil.
func (s *Service) GetAllRoles(ctx context.Context) []Role {
	roles, err := s.store.ListRoles(ctx)
	roles, _ = failClosed(ctx, s, lookup{action: CheckAllRoles}, roles, err)
	if roles == nil {
		return []Role{}
	}
	slices.SortStableFunc(roles, func(a, b Role) int {
		return cmp.Compare(b.Priority, a.Priority)
	})
	return roles
}

func (s *Service) currentUserID(ctx context.Context) string {
	if s.resolver == nil {
		return ""
	}
	identity, err := s.resolver.CurrentUser(ctx)
	if err != nil {
		s.logger.DebugContext(ctx, "identity unavailable", slog.Any("error", err))
		return ""
	}
	if identity == nil {
		return ""
	}
	return identity.ID
}

func (s *Service) observe(check string, allowed bool) {
	if s.recorder != nil {
		s.recorder.ObserveDecision(check, allowed)
	}
}

type lookup struct {
	action   string
	userID   string
	metadata []any
}

// failClosed is the single place where a store failure becomes a denial. It
// returns the zero value and false after logging err once.
func failClosed[T any](ctx context.Context, s *Service, l lookup, value T, err error) (T, bool) {
	if err == nil {
		return value, true
	}
	attrs := []slog.Attr{
		slog.String("module", logModule),
		slog.String("action", l.action),
		slog.Any("error", err),
	}
	if l.userID != "" {
		attrs = append(attrs, slog.String("userId", l.userID))
	}
	if len(l.metadata) > 0 {
		attrs = append(attrs, slog.Group("metadata", l.metadata...))
	}
	s.logger.LogAttrs(ctx, slog.LevelError, "authorization lookup failed", attrs...)
	if s.recorder != nil {
		s.recorder.ObserveStoreError(l.action)
	}
	var zero T
	return zero, false
}

func hasSuperAdminGrant(grants []RoleGrant) bool {
	for _, g := range grants {
		if g.Role != nil && g.Role.Name == shared.SuperAdminRole {
			return true
		}
	}
	return false
}

func grantsPermission(held []RolePermissions, action, resource string) bool {
	for _, rp := range held {
		for _, p := range rp.Permissions {
			if p.Action == action && p.Resource == resource {
				return true
			}
		}
	}
	return false
}
