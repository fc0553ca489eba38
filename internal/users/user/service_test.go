// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package user_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/yomira-identity/internal/access"
	"github.com/taibuivan/yomira-identity/internal/access/authcache"
	"github.com/taibuivan/yomira-identity/internal/access/rbac"
	"github.com/taibuivan/yomira-identity/internal/platform/apperr"
	"github.com/taibuivan/yomira-identity/internal/platform/cache"
	"github.com/taibuivan/yomira-identity/internal/users/user"
	"github.com/taibuivan/yomira-identity/pkg/pagination"
)

// # Fakes

type fakeUserStore struct {
	users    map[string]user.User
	profiles map[string]user.Profile
	devices  map[string][]user.Device
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{
		users:    map[string]user.User{},
		profiles: map[string]user.Profile{},
		devices:  map[string][]user.Device{},
	}
}

func (s *fakeUserStore) Create(_ context.Context, u *user.User) error {
	for _, existing := range s.users {
		if existing.Email == u.Email || existing.Phone == u.Phone {
			return apperr.Conflict("Email or phone is already registered")
		}
	}
	u.CreatedAt = time.Now()
	s.users[u.ID] = *u
	return nil
}

func (s *fakeUserStore) Update(_ context.Context, u *user.User) error {
	s.users[u.ID] = *u
	return nil
}

func (s *fakeUserStore) inScope(u user.User, scope user.Scope) bool {
	switch scope {
	case user.ScopeWithDeleted:
		return true
	case user.ScopeDeletedOnly:
		return u.DeletedAt != nil
	default:
		return u.DeletedAt == nil
	}
}

func (s *fakeUserStore) FindByID(_ context.Context, id string, scope user.Scope) (*user.User, error) {
	u, ok := s.users[id]
	if !ok || !s.inScope(u, scope) {
		return nil, apperr.NotFound("User")
	}
	return &u, nil
}

func (s *fakeUserStore) FindByAqID(_ context.Context, aqID int64) (*user.User, error) {
	for _, u := range s.users {
		if u.AqID != nil && *u.AqID == aqID && u.DeletedAt == nil {
			copy := u
			return &copy, nil
		}
	}
	return nil, apperr.NotFound("User")
}

func (s *fakeUserStore) FindByPhoneOrEmail(_ context.Context, identifier string) (*user.User, error) {
	for _, u := range s.users {
		if (u.Phone == identifier || u.Email == identifier) && u.DeletedAt == nil {
			copy := u
			return &copy, nil
		}
	}
	return nil, apperr.NotFound("User")
}

func (s *fakeUserStore) FindByPhoneAndEmail(_ context.Context, phone, email string) (*user.User, error) {
	for _, u := range s.users {
		if u.Phone == phone && u.Email == email && u.DeletedAt == nil {
			copy := u
			return &copy, nil
		}
	}
	return nil, apperr.NotFound("User")
}

func (s *fakeUserStore) List(_ context.Context, _ pagination.Params, _ string, scope user.Scope) ([]user.User, int, error) {
	users := []user.User{}
	for _, u := range s.users {
		if s.inScope(u, scope) {
			users = append(users, u)
		}
	}
	return users, len(users), nil
}

func (s *fakeUserStore) UpdatePassword(_ context.Context, id, passwordHash string, newPass bool) error {
	u := s.users[id]
	u.PasswordHash = passwordHash
	u.NewPass = newPass
	s.users[id] = u
	return nil
}

func (s *fakeUserStore) SetActive(_ context.Context, id string, active bool) error {
	u := s.users[id]
	u.IsActive = active
	s.users[id] = u
	return nil
}

func (s *fakeUserStore) SoftDelete(_ context.Context, id string) error {
	u := s.users[id]
	now := time.Now()
	u.DeletedAt = &now
	s.users[id] = u
	return nil
}

func (s *fakeUserStore) Restore(_ context.Context, id string) error {
	u := s.users[id]
	u.DeletedAt = nil
	s.users[id] = u
	return nil
}

func (s *fakeUserStore) HardDelete(_ context.Context, id string) error {
	delete(s.users, id)
	delete(s.profiles, id)
	delete(s.devices, id)
	return nil
}

func (s *fakeUserStore) FindProfile(_ context.Context, userID string) (*user.Profile, error) {
	profile, ok := s.profiles[userID]
	if !ok {
		return nil, apperr.NotFound("Profile")
	}
	return &profile, nil
}

func (s *fakeUserStore) UpsertProfile(_ context.Context, profile *user.Profile) error {
	s.profiles[profile.UserID] = *profile
	return nil
}

func (s *fakeUserStore) CreateDevice(_ context.Context, device *user.Device) error {
	s.devices[device.UserID] = append(s.devices[device.UserID], *device)
	return nil
}

func (s *fakeUserStore) ListDevices(_ context.Context, userID string) ([]user.Device, error) {
	return s.devices[userID], nil
}

// fakeRBACStore implements the subset of graph state these tests exercise.
type fakeRBACStore struct {
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

func (s *fakeRBACStore) CreateRole(_ context.Context, role *rbac.Role) error {
	s.roles[role.ID] = *role
	return nil
}

func (s *fakeRBACStore) FindRoleByID(_ context.Context, id string) (*rbac.Role, error) {
	role, ok := s.roles[id]
	if !ok {
		return nil, apperr.NotFound("Role")
	}
	return &role, nil
}

func (s *fakeRBACStore) FindRoleByName(_ context.Context, name string) (*rbac.Role, error) {
	for _, role := range s.roles {
		if role.Name == name {
			copy := role
			return &copy, nil
		}
	}
	return nil, apperr.NotFound("Role")
}

func (s *fakeRBACStore) ListRoles(_ context.Context, _ pagination.Params, _ string) ([]rbac.Role, int, error) {
	return nil, 0, nil
}

func (s *fakeRBACStore) ListAllRoles(_ context.Context) ([]rbac.Role, error) { return nil, nil }

func (s *fakeRBACStore) UpdateRole(_ context.Context, role *rbac.Role) error {
	s.roles[role.ID] = *role
	return nil
}

func (s *fakeRBACStore) DeleteRole(_ context.Context, id string) error {
	delete(s.roles, id)
	return nil
}

func (s *fakeRBACStore) CreatePermission(_ context.Context, permission *rbac.Permission) error {
	s.permissions[permission.ID] = *permission
	return nil
}

func (s *fakeRBACStore) FindPermissionByID(_ context.Context, id string) (*rbac.Permission, error) {
	permission, ok := s.permissions[id]
	if !ok {
		return nil, apperr.NotFound("Permission")
	}
	return &permission, nil
}

func (s *fakeRBACStore) ListPermissions(_ context.Context, _ pagination.Params, _ string) ([]rbac.Permission, int, error) {
	return nil, 0, nil
}

func (s *fakeRBACStore) ListAllPermissions(_ context.Context) ([]rbac.Permission, error) {
	return nil, nil
}

func (s *fakeRBACStore) UpdatePermission(_ context.Context, permission *rbac.Permission) error {
	s.permissions[permission.ID] = *permission
	return nil
}

func (s *fakeRBACStore) DeletePermission(_ context.Context, id string) error {
	delete(s.permissions, id)
	return nil
}

func (s *fakeRBACStore) ListRolePermissions(_ context.Context, roleID string) ([]rbac.Permission, error) {
	permissions := []rbac.Permission{}
	for _, id := range s.rolePermissions[roleID] {
		if permission, ok := s.permissions[id]; ok {
			permissions = append(permissions, permission)
		}
	}
	return permissions, nil
}

func (s *fakeRBACStore) SyncRolePermissions(_ context.Context, roleID string, permissionIDs []string) error {
	s.rolePermissions[roleID] = append([]string{}, permissionIDs...)
	return nil
}

func (s *fakeRBACStore) ListPrincipalRoles(_ context.Context, principal access.Principal) ([]rbac.Role, error) {
	roles := []rbac.Role{}
	for _, id := range s.principalRoles[pkey(principal)] {
		if role, ok := s.roles[id]; ok {
			roles = append(roles, role)
		}
	}
	return roles, nil
}

func (s *fakeRBACStore) ListPrincipalPermissions(_ context.Context, principal access.Principal) ([]rbac.Permission, error) {
	permissions := []rbac.Permission{}
	for _, id := range s.principalPerms[pkey(principal)] {
		if permission, ok := s.permissions[id]; ok {
			permissions = append(permissions, permission)
		}
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
	store     *fakeUserStore
	rbacStore *fakeRBACStore
	writer    *authcache.Writer
	server    *miniredis.Miniredis
	service   *user.Service
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	server := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	store := newFakeUserStore()
	rbacStore := newFakeRBACStore()
	rbacStore.roles["r-shopper"] = rbac.Role{ID: "r-shopper", Name: user.DefaultRole, Fixed: true}
	rbacStore.roles["r-root"] = rbac.Role{ID: "r-root", Name: access.RoleRoot, Fixed: true}

	writer := authcache.NewWriter(cache.New(client))
	service := user.NewService(store, rbacStore, rbac.NewResolver(rbacStore), writer)

	return &harness{store: store, rbacStore: rbacStore, writer: writer, server: server, service: service}
}

func (h *harness) seedUser(id, email, phone string, roleIDs ...string) {
	h.store.users[id] = user.User{ID: id, Email: email, Phone: phone}
	h.rbacStore.principalRoles["user:"+id] = roleIDs
}

// # Tests

/*
TestService_Create assigns the default shopper role and hashes the password.
*/
func TestService_Create(t *testing.T) {
	h := newHarness(t)

	created, err := h.service.Create(context.Background(), user.CreateInput{
		Email:    "ana@yomira.app",
		Phone:    "5512345678",
		Password: "sup3r-secret",
		Name:     "Ana",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.True(t, created.NewPass)
	assert.NotEqual(t, "sup3r-secret", created.PasswordHash)
	assert.Equal(t, []string{"r-shopper"}, h.rbacStore.principalRoles["user:"+created.ID])
}

/*
TestService_SoftDelete_RootProtected verifies root-role holders survive both
deletion paths.
*/
func TestService_SoftDelete_RootProtected(t *testing.T) {
	h := newHarness(t)
	h.seedUser("u-admin", "root@yomira.app", "5500000000", "r-root")

	for _, operation := range []func(context.Context, string) error{
		h.service.SoftDelete,
		h.service.HardDelete,
	} {
		err := operation(context.Background(), "u-admin")
		require.Error(t, err)
		ae := apperr.As(err)
		require.NotNil(t, ae)
		assert.Equal(t, 403, ae.HTTPStatus)
		assert.Equal(t, "You can't delete root user", ae.Message)
	}
}

/*
TestService_SoftDelete_EvictsCache verifies deletion hides the account and
removes its authorization entry.
*/
func TestService_SoftDelete_EvictsCache(t *testing.T) {
	h := newHarness(t)
	h.seedUser("u-1", "ana@yomira.app", "5512345678", "r-shopper")
	u := h.store.users["u-1"]
	require.NoError(t, h.service.WriteCache(context.Background(), &u, true))
	require.True(t, h.server.Exists(authcache.Key("u-1")))

	require.NoError(t, h.service.SoftDelete(context.Background(), "u-1"))

	assert.False(t, h.server.Exists(authcache.Key("u-1")))
	_, err := h.service.Get(context.Background(), "u-1", user.ScopeActive)
	require.Error(t, err)
	_, err = h.service.Get(context.Background(), "u-1", user.ScopeDeletedOnly)
	require.NoError(t, err)
}

/*
TestService_Restore_ForcesCacheEntry verifies restoration recreates the cache
entry even though none exists.
*/
func TestService_Restore_ForcesCacheEntry(t *testing.T) {
	h := newHarness(t)
	h.seedUser("u-1", "ana@yomira.app", "5512345678", "r-shopper")
	now := time.Now()
	u := h.store.users["u-1"]
	u.DeletedAt = &now
	h.store.users["u-1"] = u

	require.NoError(t, h.service.Restore(context.Background(), "u-1"))

	assert.True(t, h.server.Exists(authcache.Key("u-1")))
	restored, err := h.service.Get(context.Background(), "u-1", user.ScopeActive)
	require.NoError(t, err)
	assert.Nil(t, restored.DeletedAt)
}

/*
TestService_SyncRoles_CacheDiscipline verifies grant syncs refresh only
existing cache entries.
*/
func TestService_SyncRoles_CacheDiscipline(t *testing.T) {
	h := newHarness(t)
	h.seedUser("u-1", "ana@yomira.app", "5512345678", "r-shopper")

	// No session, no entry: the sync must not create one.
	require.NoError(t, h.service.SyncRoles(context.Background(), "u-1", []string{"r-shopper"}))
	assert.False(t, h.server.Exists(authcache.Key("u-1")))

	// With an entry present the sync refreshes it.
	u := h.store.users["u-1"]
	require.NoError(t, h.service.WriteCache(context.Background(), &u, true))
	h.rbacStore.permissions["p-1"] = rbac.Permission{ID: "p-1", Name: user.PermList}
	h.rbacStore.rolePermissions["r-shopper"] = []string{"p-1"}

	require.NoError(t, h.service.SyncRoles(context.Background(), "u-1", []string{"r-shopper"}))

	entry, err := h.writer.Read(context.Background(), "u-1")
	require.NoError(t, err)
	assert.Equal(t, []string{user.PermList}, entry.Permissions)
	assert.Equal(t, []string{user.DefaultRole}, entry.Roles)
}

/*
TestService_SyncPermissions_ValidatesIDs verifies unknown permission IDs are
rejected before the grant set is touched.
*/
func TestService_SyncPermissions_ValidatesIDs(t *testing.T) {
	h := newHarness(t)
	h.seedUser("u-1", "ana@yomira.app", "5512345678")

	err := h.service.SyncPermissions(context.Background(), "u-1", []string{"missing"})
	require.Error(t, err)
	assert.Empty(t, h.rbacStore.principalPerms["user:u-1"])
}
