package rbac

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newHandlerRouter(store Store) http.Handler {
	svc := NewService(store, ctxResolver{}, nil, nil)
	h := NewHandler(nil, svc)
	r := chi.NewRouter()
	r.Route("/api", h.MountRoutes)
	r.Route("/admin", func(r chi.Router) {
		r.Use(Middleware{Service: svc}.RequireSuperAdmin)
		h.MountAdminRoutes(r)
	})
	return r
}

func TestAccessEndpoint(t *testing.T) {
	store := newFakeStore()
	role := superAdmin
	store.grants[aliceID] = []RoleGrant{{ID: "ur-1", Role: &role}}
	store.roles[aliceID] = []Role{superAdmin}
	router := newHandlerRouter(store)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, withIdentity(httptest.NewRequest(http.MethodGet, "/api/me/access", nil), aliceID))
	require.Equal(t, http.StatusOK, rec.Code)

	var body accessResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, aliceID, body.UserID)
	assert.True(t, body.IsSuperAdmin)
	assert.Equal(t, []Role{superAdmin}, body.Roles)
}

func TestAccessEndpointRequiresIdentity(t *testing.T) {
	router := newHandlerRouter(newFakeStore())

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/me/access", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAccessEndpointStoreOutageLooksLikeNoAccess(t *testing.T) {
	store := newFakeStore()
	store.err = errors.New("db down")
	router := newHandlerRouter(store)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, withIdentity(httptest.NewRequest(http.MethodGet, "/api/me/access", nil), aliceID))
	require.Equal(t, http.StatusOK, rec.Code)

	var body accessResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.False(t, body.IsSuperAdmin)
	assert.NotNil(t, body.Roles)
	assert.Empty(t, body.Roles)
}

func TestPermissionCheckEndpoint(t *testing.T) {
	store := newFakeStore()
	withPermissions(store, aliceID, manager, Permission{Action: "write", Resource: "roles"})
	router := newHandlerRouter(store)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/me/permissions/check?action=write&resource=roles", nil)
	router.ServeHTTP(rec, withIdentity(req, aliceID))
	require.Equal(t, http.StatusOK, rec.Code)

	var body checkResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.True(t, body.Allowed)

	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/api/me/permissions/check?action=write", nil)
	router.ServeHTTP(rec, withIdentity(req, aliceID))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAdminRolesGuarded(t *testing.T) {
	store := newFakeStore()
	store.catalog = []Role{viewer, superAdmin, manager}
	router := newHandlerRouter(store)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, withIdentity(httptest.NewRequest(http.MethodGet, "/admin/roles", nil), bobID))
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/dashboard?error=unauthorized", rec.Header().Get("Location"))

	role := superAdmin
	store.grants[aliceID] = []RoleGrant{{ID: "ur-1", Role: &role}}
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, withIdentity(httptest.NewRequest(http.MethodGet, "/admin/roles", nil), aliceID))
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Roles []Role `json:"roles"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Roles, 3)
	assert.Equal(t, "super_admin", body.Roles[0].Name)
	assert.Equal(t, "viewer", body.Roles[2].Name)
}
