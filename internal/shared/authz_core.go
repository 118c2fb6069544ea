package shared

// SuperAdminRole is the machine name of the role that unlocks the admin area.
const SuperAdminRole = "super_admin"

// UnauthorizedRedirect is where page guards send callers that fail a check.
const UnauthorizedRedirect = "/dashboard?error=unauthorized"

// Permission actions.
const (
	ActionRead   = "read"
	ActionWrite  = "write"
	ActionDelete = "delete"
)

// Permission resources.
const (
	ResourceUsers       = "users"
	ResourceRoles       = "roles"
	ResourcePermissions = "permissions"
	ResourceProfile     = "profile"
)
