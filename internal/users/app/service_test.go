// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package app_test

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/yomira-identity/internal/access"
	"github.com/taibuivan/yomira-identity/internal/access/authcache"
	"github.com/taibuivan/yomira-identity/internal/access/rbac"
	"github.com/taibuivan/yomira-identity/internal/platform/apperr"
	"github.com/taibuivan/yomira-identity/internal/platform/cache"
	"github.com/taibuivan/yomira-identity/internal/platform/sec"
	"github.com/taibuivan/yomira-identity/internal/users/app"
	"github.com/taibuivan/yomira-identity/pkg/pagination"
)

// # Fakes

type fakeStore struct {
	apps   map[string]app.App
	tokens map[string]string
}

func newFakeStore() *fakeStore {
	return &fakeStore{apps: map[string]app.App{}, tokens: map[string]string{}}
}

func (s *fakeStore) Create(_ context.Context, a *app.App) error {
	for _, existing := range s.apps {
		if existing.Name == a.Name {
			return apperr.Conflict("Application name is already in use")
		}
	}
	s.apps[a.ID] = *a
	return nil
}

func (s *fakeStore) FindByID(_ context.Context, id string) (*app.App, error) {
	a, ok := s.apps[id]
	if !ok {
		return nil, apperr.NotFound("Application")
	}
	return &a, nil
}

func (s *fakeStore) List(_ context.Context, _ pagination.Params, _ string) ([]app.App, int, error) {
	apps := []app.App{}
	for _, a := range s.apps {
		apps = append(apps, a)
	}
	return apps, len(apps), nil
}

func (s *fakeStore) ListAll(_ context.Context) ([]app.App, error) {
	apps, _, err := s.List(nil, pagination.Params{}, "")
	return apps, err
}

func (s *fakeStore) Update(_ context.Context, a *app.App) error {
	if _, ok := s.apps[a.ID]; !ok {
		return apperr.NotFound("Application")
	}
	s.apps[a.ID] = *a
	return nil
}

func (s *fakeStore) SetToken(_ context.Context, id, token string) error {
	a, ok := s.apps[id]
	if !ok {
		return apperr.NotFound("Application")
	}
	a.Token = &token
	s.apps[id] = a
	s.tokens[id] = token
	return nil
}

func (s *fakeStore) Delete(_ context.Context, id string) error {
	if _, ok := s.apps[id]; !ok {
		return apperr.NotFound("Application")
	}
	delete(s.apps, id)
	return nil
}

// fakeRBACStore embeds the interface so only the methods these tests reach
// need real bodies.
type fakeRBACStore struct {
	rbac.Store
	roles           map[string]rbac.Role
	permissions     map[string]rbac.Permission
	rolePermissions map[string][]string
	principalRoles  map[string][]string
	principalPerms  map[string][]string
}

func newFakeRBACStore() *fakeRBACStore {
	return &fakeRBACStore{
		roles:           map[string]rbac.Role{},
		permissions:     map[string]rbac.Permission{},
		rolePermissions: map[string][]string{},
		principalRoles:  map[string][]string{},
		principalPerms:  map[string][]string{},
	}
}

func pkey(p access.Principal) string { return string(p.Kind) + ":" + p.ID }

func (s *fakeRBACStore) FindRoleByID(_ context.Context, id string) (*rbac.Role, error) {
	role, ok := s.roles[id]
	if !ok {
		return nil, apperr.NotFound("Role")
	}
	return &role, nil
}

func (s *fakeRBACStore) FindPermissionByID(_ context.Context, id string) (*rbac.Permission, error) {
	permission, ok := s.permissions[id]
	if !ok {
		return nil, apperr.NotFound("Permission")
	}
	return &permission, nil
}

func (s *fakeRBACStore) ListRolePermissions(_ context.Context, roleID string) ([]rbac.Permission, error) {
	permissions := []rbac.Permission{}
	for _, id := range s.rolePermissions[roleID] {
		permissions = append(permissions, s.permissions[id])
	}
	return permissions, nil
}

func (s *fakeRBACStore) ListPrincipalRoles(_ context.Context, principal access.Principal) ([]rbac.Role, error) {
	roles := []rbac.Role{}
	for _, id := range s.principalRoles[pkey(principal)] {
		roles = append(roles, s.roles[id])
	}
	return roles, nil
}

func (s *fakeRBACStore) ListPrincipalPermissions(_ context.Context, principal access.Principal) ([]rbac.Permission, error) {
	permissions := []rbac.Permission{}
	for _, id := range s.principalPerms[pkey(principal)] {
		permissions = append(permissions, s.permissions[id])
	}
	return permissions, nil
}

func (s *fakeRBACStore) SyncPrincipalRoles(_ context.Context, principal access.Principal, roleIDs []string) error {
	s.principalRoles[pkey(principal)] = append([]string{}, roleIDs...)
	return nil
}

func (s *fakeRBACStore) SyncPrincipalPermissions(_ context.Context, principal access.Principal, permissionIDs []string) error {
	s.principalPerms[pkey(principal)] = append([]string{}, permissionIDs...)
	return nil
}

// # Harness

type harness struct {
	store     *fakeStore
	rbacStore *fakeRBACStore
	writer    *authcache.Writer
	server    *miniredis.Miniredis
	tokens    *sec.TokenService
	service   *app.Service
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	server := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	store := newFakeStore()
	rbacStore := newFakeRBACStore()
	writer := authcache.NewWriter(cache.New(client))
	tokens := sec.NewTokenService("test-secret")
	service := app.NewService(store, rbacStore, rbac.NewResolver(rbacStore), writer, tokens)

	return &harness{
		store:     store,
		rbacStore: rbacStore,
		writer:    writer,
		server:    server,
		tokens:    tokens,
		service:   service,
	}
}

// # Tests

/*
TestService_Create assigns an ID and rejects duplicate names.
*/
func TestService_Create(t *testing.T) {
	h := newHarness(t)

	created, err := h.service.Create(context.Background(), "billing", "Billing engine")
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.Nil(t, created.Token)

	_, err = h.service.Create(context.Background(), "billing", "Duplicate")
	require.Error(t, err)
	ae := apperr.As(err)
	require.NotNil(t, ae)
	assert.Equal(t, 409, ae.HTTPStatus)
}

/*
TestService_GenerateToken issues decodable app claims and persists the
credential.
*/
func TestService_GenerateToken(t *testing.T) {
	h := newHarness(t)
	created, err := h.service.Create(context.Background(), "billing", "")
	require.NoError(t, err)

	withToken, err := h.service.GenerateToken(context.Background(), created.ID)
	require.NoError(t, err)
	require.NotNil(t, withToken.Token)
	assert.Equal(t, *withToken.Token, h.store.tokens[created.ID])

	claims, err := h.tokens.Decode(*withToken.Token)
	require.NoError(t, err)
	assert.Equal(t, created.ID, claims.ID)
	assert.True(t, claims.IsApp())
}

/*
TestService_SyncRoles_WritesCacheUnconditionally verifies app grant changes
always materialize a cache entry.
*/
func TestService_SyncRoles_WritesCacheUnconditionally(t *testing.T) {
	h := newHarness(t)
	created, err := h.service.Create(context.Background(), "billing", "")
	require.NoError(t, err)

	h.rbacStore.roles["r-1"] = rbac.Role{ID: "r-1", Name: "service"}
	h.rbacStore.permissions["p-1"] = rbac.Permission{ID: "p-1", Name: app.PermList}
	h.rbacStore.rolePermissions["r-1"] = []string{"p-1"}

	require.False(t, h.server.Exists(authcache.Key(created.ID)))
	require.NoError(t, h.service.SyncRoles(context.Background(), created.ID, []string{"r-1"}))
	require.True(t, h.server.Exists(authcache.Key(created.ID)))

	entry, err := h.writer.Read(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"service"}, entry.Roles)
	assert.Equal(t, []string{app.PermList}, entry.Permissions)
	assert.Nil(t, entry.Profile)
}

/*
TestService_SyncPermissions_ValidatesIDs rejects unknown permission IDs
before touching the grant set.
*/
func TestService_SyncPermissions_ValidatesIDs(t *testing.T) {
	h := newHarness(t)
	created, err := h.service.Create(context.Background(), "billing", "")
	require.NoError(t, err)

	err = h.service.SyncPermissions(context.Background(), created.ID, []string{"missing"})
	require.Error(t, err)
	assert.Empty(t, h.rbacStore.principalPerms["app:"+created.ID])
}

/*
TestService_Delete_EvictsCache removes the entity and its cache entry.
*/
func TestService_Delete_EvictsCache(t *testing.T) {
	h := newHarness(t)
	created, err := h.service.Create(context.Background(), "billing", "")
	require.NoError(t, err)
	require.NoError(t, h.service.WriteCache(context.Background(), created))
	require.True(t, h.server.Exists(authcache.Key(created.ID)))

	require.NoError(t, h.service.Delete(context.Background(), created.ID))

	assert.False(t, h.server.Exists(authcache.Key(created.ID)))
	_, err = h.service.Get(context.Background(), created.ID)
	require.Error(t, err)
}

/*
TestService_Permissions returns direct grants and the deduped effective set.
*/
func TestService_Permissions(t *testing.T) {
	h := newHarness(t)
	created, err := h.service.Create(context.Background(), "billing", "")
	require.NoError(t, err)

	h.rbacStore.roles["r-1"] = rbac.Role{ID: "r-1", Name: "service"}
	h.rbacStore.permissions["p-1"] = rbac.Permission{ID: "p-1", Name: "a"}
	h.rbacStore.permissions["p-2"] = rbac.Permission{ID: "p-2", Name: "b"}
	h.rbacStore.rolePermissions["r-1"] = []string{"p-1", "p-2"}
	h.rbacStore.principalRoles["app:"+created.ID] = []string{"r-1"}
	h.rbacStore.principalPerms["app:"+created.ID] = []string{"p-1"}

	sets, err := h.service.Permissions(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Len(t, sets.Permissions, 1)
	assert.Len(t, sets.RolesPermissions, 2)
}
