// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package account_test

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
	"github.com/taibuivan/yomira-identity/internal/users/account"
	"github.com/taibuivan/yomira-identity/internal/users/shopper"
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
	s.users[u.ID] = *u
	return nil
}

func (s *fakeUserStore) Update(_ context.Context, u *user.User) error {
	s.users[u.ID] = *u
	return nil
}

func (s *fakeUserStore) FindByID(_ context.Context, id string, _ user.Scope) (*user.User, error) {
	u, ok := s.users[id]
	if !ok {
		return nil, apperr.NotFound("User")
	}
	return &u, nil
}

func (s *fakeUserStore) FindByAqID(_ context.Context, _ int64) (*user.User, error) {
	return nil, apperr.NotFound("User")
}

func (s *fakeUserStore) FindByPhoneOrEmail(_ context.Context, _ string) (*user.User, error) {
	return nil, apperr.NotFound("User")
}

func (s *fakeUserStore) FindByPhoneAndEmail(_ context.Context, _, _ string) (*user.User, error) {
	return nil, apperr.NotFound("User")
}

func (s *fakeUserStore) List(_ context.Context, _ pagination.Params, _ string, _ user.Scope) ([]user.User, int, error) {
	return nil, 0, nil
}

func (s *fakeUserStore) UpdatePassword(_ context.Context, id, hash string, newPass bool) error {
	u := s.users[id]
	u.PasswordHash = hash
	u.NewPass = newPass
	s.users[id] = u
	return nil
}

func (s *fakeUserStore) SetActive(_ context.Context, _ string, _ bool) error { return nil }
func (s *fakeUserStore) SoftDelete(_ context.Context, _ string) error        { return nil }
func (s *fakeUserStore) Restore(_ context.Context, _ string) error           { return nil }
func (s *fakeUserStore) HardDelete(_ context.Context, _ string) error        { return nil }

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

// fakeRBACStore embeds the interface so only the methods these tests reach
// need real bodies.
type fakeRBACStore struct {
	rbac.Store
}

func (s *fakeRBACStore) ListPrincipalRoles(_ context.Context, _ access.Principal) ([]rbac.Role, error) {
	return nil, nil
}

func (s *fakeRBACStore) ListPrincipalPermissions(_ context.Context, _ access.Principal) ([]rbac.Permission, error) {
	return nil, nil
}

// # Harness

func newService(t *testing.T) (*account.Service, *fakeUserStore) {
	t.Helper()

	server := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	userStore := newFakeUserStore()
	rbacStore := &fakeRBACStore{}
	writer := authcache.NewWriter(cache.New(client))
	users := user.NewService(userStore, rbacStore, rbac.NewResolver(rbacStore), writer)
	shoppers := shopper.NewService(users, userStore, nil, nil)

	return account.NewService(users, userStore, shoppers), userStore
}

// # Tests

/*
TestService_UpdatePassword clears the administrative rotation flag.
*/
func TestService_UpdatePassword(t *testing.T) {
	service, store := newService(t)
	store.users["u-1"] = user.User{ID: "u-1", NewPass: true, PasswordHash: "old"}

	require.NoError(t, service.UpdatePassword(context.Background(), "u-1", "new-password"))

	rotated := store.users["u-1"]
	assert.False(t, rotated.NewPass)
	assert.True(t, sec.CheckPasswordHash("new-password", rotated.PasswordHash))
}

/*
TestService_RegisterDevice assigns an ID and persists the handset.
*/
func TestService_RegisterDevice(t *testing.T) {
	service, store := newService(t)
	store.users["u-1"] = user.User{ID: "u-1"}

	device, err := service.RegisterDevice(context.Background(), "u-1", account.DeviceInput{
		DeviceID:   "android-4f2a",
		Mark:       "Samsung",
		Model:      "A54",
		OS:         "android 14",
		NFC:        true,
		AppVersion: "3.2.1",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, device.ID)
	assert.Equal(t, "u-1", device.UserID)

	devices, err := service.Devices(context.Background(), "u-1")
	require.NoError(t, err)
	require.Len(t, devices, 1)
	assert.Equal(t, "android-4f2a", devices[0].DeviceID)
}

/*
TestService_UpdateProfile_RoundTrips the merged entity with the profile
attached.
*/
func TestService_UpdateProfile_RoundTrips(t *testing.T) {
	service, store := newService(t)
	store.users["u-1"] = user.User{ID: "u-1", Email: "ana@yomira.app"}

	zip := "06600"
	me, err := service.UpdateProfile(context.Background(), "u-1", shopper.ProfileInput{Zip: &zip})
	require.NoError(t, err)
	require.NotNil(t, me.Profile)
	assert.Equal(t, "06600", me.Profile.Zip)
}
