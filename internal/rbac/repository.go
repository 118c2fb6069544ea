package rbac

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/odyssey-erp/odyssey-lite/internal/platform/db"
)

// Repository reads roles and permissions from PostgreSQL.
type Repository struct {
	conn db.DBTX
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(conn db.DBTX) *Repository {
	return &Repository{conn: conn}
}

const userRolesSQL = `
SELECT r.id::text, r.name, r.display_name, COALESCE(r.description, '')
FROM user_roles ur
JOIN roles r ON r.id = ur.role_id
WHERE ur.user_id = $1`

// UserRoles returns the roles assigned to userID in store order.
func (r *Repository) UserRoles(ctx context.Context, userID string) ([]Role, error) {
	rows, err := r.conn.Query(ctx, userRolesSQL, userID)
	if err != nil {
		return nil, fmt.Errorf("rbac: user roles: %w", err)
	}
	defer rows.Close()
	var roles []Role
	for rows.Next() {
		var role Role
		if err := rows.Scan(&role.ID, &role.Name, &role.DisplayName, &role.Description); err != nil {
			return nil, fmt.Errorf("rbac: scan user role: %w", err)
		}
		roles = append(roles, role)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rbac: user roles: %w", err)
	}
	return roles, nil
}

const roleGrantsSQL = `
SELECT ur.id::text,
       CASE WHEN r.id IS NULL THEN NULL
            ELSE json_build_object('id', r.id::text, 'name', r.name, 'display_name', r.display_name)
       END
FROM user_roles ur
LEFT JOIN roles r ON r.id = ur.role_id
WHERE ur.user_id = $1`

// RoleGrants returns every user_roles row of userID with its role relation.
func (r *Repository) RoleGrants(ctx context.Context, userID string) ([]RoleGrant, error) {
	rows, err := r.conn.Query(ctx, roleGrantsSQL, userID)
	if err != nil {
		return nil, fmt.Errorf("rbac: role grants: %w", err)
	}
	defer rows.Close()
	var grants []RoleGrant
	for rows.Next() {
		var (
			grant    RoleGrant
			relation []byte
		)
		if err := rows.Scan(&grant.ID, &relation); err != nil {
			return nil, fmt.Errorf("rbac: scan role grant: %w", err)
		}
		grant.Role = decodeRoleRelation(relation)
		grants = append(grants, grant)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rbac: role grants: %w", err)
	}
	return grants, nil
}

// decodeRoleRelation accepts only a single JSON object. Collections and nulls
// yield nil so they never count as a held role.
//
// TODO: confirm with product whether a collection-shaped relation should be
// flattened instead; until then the super-admin check treats it as absent.
func decodeRoleRelation(raw []byte) *Role {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] != '{' {
		return nil
	}
	var role Role
	if err := json.Unmarshal(raw, &role); err != nil {
		return nil
	}
	return &role
}

const rolePermissionsSQL = `
SELECT r.id::text, r.name, r.display_name,
       COALESCE(
           json_agg(json_build_object('id', p.id::text, 'action', p.action, 'resource', p.resource))
               FILTER (WHERE p.id IS NOT NULL),
           '[]'::json)
FROM user_roles ur
JOIN roles r ON r.id = ur.role_id
LEFT JOIN role_permissions rp ON rp.role_id = r.id
LEFT JOIN permissions p ON p.id = rp.permission_id
WHERE ur.user_id = $1
GROUP BY ur.id, r.id, r.name, r.display_name`

// RolePermissions returns each role held by userID with its nested permissions.
func (r *Repository) RolePermissions(ctx context.Context, userID string) ([]RolePermissions, error) {
	rows, err := r.conn.Query(ctx, rolePermissionsSQL, userID)
	if err != nil {
		return nil, fmt.Errorf("rbac: role permissions: %w", err)
	}
	defer rows.Close()
	var out []RolePermissions
	for rows.Next() {
		var (
			entry RolePermissions
			perms []byte
		)
		if err := rows.Scan(&entry.Role.ID, &entry.Role.Name, &entry.Role.DisplayName, &perms); err != nil {
			return nil, fmt.Errorf("rbac: scan role permissions: %w", err)
		}
		if err := json.Unmarshal(perms, &entry.Permissions); err != nil {
			return nil, fmt.Errorf("rbac: decode permissions of role %s: %w", entry.Role.Name, err)
		}
		out = append(out, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rbac: role permissions: %w", err)
	}
	return out, nil
}

const listRolesSQL = `
SELECT id::text, name, display_name, COALESCE(description, ''), priority
FROM roles
ORDER BY priority DESC`

// ListRoles returns the full role catalog, highest priority first.
func (r *Repository) ListRoles(ctx context.Context) ([]Role, error) {
	rows, err := r.conn.Query(ctx, listRolesSQL)
	if err != nil {
		return nil, fmt.Errorf("rbac: list roles: %w", err)
	}
	defer rows.Close()
	var roles []Role
	for rows.Next() {
		var role Role
		if err := rows.Scan(&role.ID, &role.Name, &role.DisplayName, &role.Description, &role.Priority); err != nil {
			return nil, fmt.Errorf("rbac: scan role: %w", err)
		}
		roles = append(roles, role)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rbac: list roles: %w", err)
	}
	return roles, nil
}

var _ Store = (*Repository)(nil)
