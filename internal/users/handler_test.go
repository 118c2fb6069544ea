package users

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/odyssey-lite/internal/rbac"
	"github.com/odyssey-erp/odyssey-lite/internal/shared"
)

const readerID = "0d6f3b2a-8e4c-4a7b-b1d9-5c2e8f7a6b14"

type grantStore struct {
	perms map[string][]rbac.RolePermissions
}

func (g grantStore) UserRoles(ctx context.Context, userID string) ([]rbac.Role, error) {
	return nil, nil
}

func (g grantStore) RoleGrants(ctx context.Context, userID string) ([]rbac.RoleGrant, error) {
	return nil, nil
}

func (g grantStore) RolePermissions(ctx context.Context, userID string) ([]rbac.RolePermissions, error) {
	return g.perms[userID], nil
}

func (g grantStore) ListRoles(ctx context.Context) ([]rbac.Role, error) {
	return nil, nil
}

type contextResolver struct{}

func (contextResolver) CurrentUser(ctx context.Context) (*shared.Identity, error) {
	return shared.IdentityFromContext(ctx), nil
}

func newTestRouter(t *testing.T) (http.Handler, *memoryRepo) {
	t.Helper()
	svc, repo := seededService(t)
	store := grantStore{perms: map[string][]rbac.RolePermissions{
		readerID: {{
			Role:        rbac.Role{ID: "r-2", Name: "manager"},
			Permissions: []rbac.Permission{{ID: "p-1", Action: "read", Resource: "users"}},
		}},
	}}
	authz := rbac.Middleware{Service: rbac.NewService(store, contextResolver{}, nil, nil)}

	h := NewHandler(nil, svc, authz)
	r := chi.NewRouter()
	r.Route("/api", h.MountRoutes)
	return r, repo
}

func as(r *http.Request, id string) *http.Request {
	return r.WithContext(shared.ContextWithIdentity(r.Context(), &shared.Identity{ID: id}))
}

func TestProfileRoutes(t *testing.T) {
	router, repo := newTestRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/profile", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, as(httptest.NewRequest(http.MethodGet, "/api/profile", nil), ownerID))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"email":"owner@test.local"`)

	rec = httptest.NewRecorder()
	body := strings.NewReader(`{"full_name":"Renamed","phone":"+15550100"}`)
	router.ServeHTTP(rec, as(httptest.NewRequest(http.MethodPut, "/api/profile", body), ownerID))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Renamed", repo.users[ownerID].FullName)

	rec = httptest.NewRecorder()
	body = strings.NewReader(`{"full_name":""}`)
	router.ServeHTTP(rec, as(httptest.NewRequest(http.MethodPut, "/api/profile", body), ownerID))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	body = strings.NewReader(`{"full_name":"X","role":"super_admin"}`)
	router.ServeHTTP(rec, as(httptest.NewRequest(http.MethodPut, "/api/profile", body), ownerID))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPasswordRoute(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := httptest.NewRecorder()
	body := strings.NewReader(`{"current_password":"wrong-password","new_password":"new-password"}`)
	router.ServeHTTP(rec, as(httptest.NewRequest(http.MethodPost, "/api/profile/password", body), ownerID))
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = httptest.NewRecorder()
	body = strings.NewReader(`{"current_password":"old-password","new_password":"new-password"}`)
	router.ServeHTTP(rec, as(httptest.NewRequest(http.MethodPost, "/api/profile/password", body), ownerID))
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestListUsersRequiresPermission(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, as(httptest.NewRequest(http.MethodGet, "/api/users", nil), ownerID))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, as(httptest.NewRequest(http.MethodGet, "/api/users", nil), readerID))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"users":[`)
	assert.Contains(t, rec.Body.String(), ownerID)
}
