// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package shopper_test

import (
	"context"
	"net/http"
	"strings"
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
	"github.com/taibuivan/yomira-identity/internal/users/shopper"
	"github.com/taibuivan/yomira-identity/internal/users/user"
	"github.com/taibuivan/yomira-identity/pkg/pagination"
)

// # Fakes

type fakeUserStore struct {
	users    map[string]user.User
	profiles map[string]user.Profile
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{users: map[string]user.User{}, profiles: map[string]user.Profile{}}
}

func (s *fakeUserStore) Create(_ context.Context, u *user.User) error {
	for _, existing := range s.users {
		if existing.Email == u.Email || existing.Phone == u.Phone {
			return apperr.Conflict("Email or phone is already registered")
		}
	}
	s.users[u.ID] = *u
	return nil
}

func (s *fakeUserStore) Update(_ context.Context, u *user.User) error {
	s.users[u.ID] = *u
	return nil
}

func (s *fakeUserStore) FindByID(_ context.Context, id string, scope user.Scope) (*user.User, error) {
	u, ok := s.users[id]
	if !ok || (scope == user.ScopeActive && u.DeletedAt != nil) {
		return nil, apperr.NotFound("User")
	}
	return &u, nil
}

func (s *fakeUserStore) FindByAqID(_ context.Context, _ int64) (*user.User, error) {
	return nil, apperr.NotFound("User")
}

func (s *fakeUserStore) FindByPhoneOrEmail(_ context.Context, identifier string) (*user.User, error) {
	for _, u := range s.users {
		if u.Phone == identifier || u.Email == identifier {
			copy := u
			return &copy, nil
		}
	}
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

func (s *fakeUserStore) CreateDevice(_ context.Context, _ *user.Device) error { return nil }
func (s *fakeUserStore) ListDevices(_ context.Context, _ string) ([]user.Device, error) {
	return nil, nil
}

// fakeRBACStore embeds the interface so only the methods these tests reach
// need real bodies.
type fakeRBACStore struct {
	rbac.Store
	roles map[string]rbac.Role
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

func (s *fakeRBACStore) SyncPrincipalRoles(_ context.Context, _ access.Principal, _ []string) error {
	return nil
}

func (s *fakeRBACStore) ListPrincipalRoles(_ context.Context, _ access.Principal) ([]rbac.Role, error) {
	return nil, nil
}

func (s *fakeRBACStore) ListPrincipalPermissions(_ context.Context, _ access.Principal) ([]rbac.Permission, error) {
	return nil, nil
}

type fakeShopperStore struct {
	unrelated []user.User
}

func (s *fakeShopperStore) ListUnrelated(_ context.Context, _ pagination.Params, filter shopper.UnrelatedFilter) ([]user.User, int, error) {
	matches := []user.User{}
	for _, u := range s.unrelated {
		if filter.Phone != "" && u.Phone != filter.Phone {
			continue
		}
		matches = append(matches, u)
	}
	return matches, len(matches), nil
}

// # Harness

type harness struct {
	userStore *fakeUserStore
	server    *miniredis.Miniredis
	users     *user.Service
	service   *shopper.Service
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	server := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	userStore := newFakeUserStore()
	rbacStore := &fakeRBACStore{roles: map[string]rbac.Role{
		"r-shopper": {ID: "r-shopper", Name: user.DefaultRole, Fixed: true},
	}}

	writer := authcache.NewWriter(cache.New(client))
	users := user.NewService(userStore, rbacStore, rbac.NewResolver(rbacStore), writer)
	service := shopper.NewService(users, userStore, &fakeShopperStore{}, nil)

	return &harness{userStore: userStore, server: server, users: users, service: service}
}

func str(value string) *string   { return &value }
func num(value float64) *float64 { return &value }

// # Tests

/*
TestService_Register_SeedsProfile verifies registration creates both the
account and the onboarding profile.
*/
func TestService_Register_SeedsProfile(t *testing.T) {
	h := newHarness(t)

	created, err := h.service.Register(context.Background(), shopper.RegisterInput{
		Email:    "ana@yomira.app",
		Phone:    "5512345678",
		Password: "sup3r-secret",
		Name:     "Ana",
		Profile: &shopper.ProfileInput{
			CURP: str("MARA900101MDFXXX01"),
			Zip:  str("06600"),
		},
	})
	require.NoError(t, err)
	require.NotNil(t, created.Profile)
	assert.Equal(t, "MARA900101MDFXXX01", created.Profile.CURP)

	stored, err := h.userStore.FindProfile(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, "06600", stored.Zip)
}

/*
TestService_UpdateProfile_Merges verifies absent fields survive a partial
update.
*/
func TestService_UpdateProfile_Merges(t *testing.T) {
	h := newHarness(t)
	h.userStore.users["u-1"] = user.User{ID: "u-1", Email: "ana@yomira.app", Phone: "5512345678"}
	h.userStore.profiles["u-1"] = user.Profile{UserID: "u-1", CURP: "MARA900101MDFXXX01", Zip: "06600"}

	profile, err := h.service.UpdateProfile(context.Background(), "u-1", shopper.ProfileInput{
		Street: str("Reforma 222"),
	})
	require.NoError(t, err)
	assert.Equal(t, "Reforma 222", profile.Street)
	assert.Equal(t, "MARA900101MDFXXX01", profile.CURP)
	assert.Equal(t, "06600", profile.Zip)
}

/*
TestService_UpdateCredit_CacheDiscipline verifies credit pushes refresh only
shoppers that already hold a cache entry.
*/
func TestService_UpdateCredit_CacheDiscipline(t *testing.T) {
	h := newHarness(t)
	h.userStore.users["u-1"] = user.User{ID: "u-1", Email: "ana@yomira.app", Phone: "5512345678"}

	// Never logged in: the push must not create an entry.
	_, err := h.service.UpdateCredit(context.Background(), "u-1", shopper.CreditInput{
		AvailableCredit: num(1500),
	})
	require.NoError(t, err)
	assert.False(t, h.server.Exists(authcache.Key("u-1")))

	// Cached shopper: the push refreshes the snapshot.
	u := h.userStore.users["u-1"]
	require.NoError(t, h.users.WriteCache(context.Background(), &u, true))

	capacity := 800.0
	flag := true
	_, err = h.service.UpdateCredit(context.Background(), "u-1", shopper.CreditInput{
		PaymentCapacity: &capacity,
		SecondCredit:    &flag,
	})
	require.NoError(t, err)

	writer := authcache.NewWriter(cache.New(redis.NewClient(&redis.Options{Addr: h.server.Addr()})))
	entry, err := writer.Read(context.Background(), "u-1")
	require.NoError(t, err)
	require.NotNil(t, entry.Profile)
	assert.Equal(t, 1500.0, entry.Profile.AvailableCredit)
	assert.Equal(t, 800.0, entry.Profile.PaymentCapacity)
	assert.True(t, entry.Profile.SecondCredit)
}

/*
TestService_UpdateCredit_UnknownShopper verifies the push fails for unknown
accounts.
*/
func TestService_UpdateCredit_UnknownShopper(t *testing.T) {
	h := newHarness(t)

	_, err := h.service.UpdateCredit(context.Background(), "ghost", shopper.CreditInput{})
	require.Error(t, err)
	ae := apperr.As(err)
	require.NotNil(t, ae)
	assert.Equal(t, 404, ae.HTTPStatus)
}

/*
TestService_GetByIdentifier resolves a shopper by either phone or email.
*/
func TestService_GetByIdentifier(t *testing.T) {
	h := newHarness(t)
	h.userStore.users["u-1"] = user.User{ID: "u-1", Email: "ana@yomira.app", Phone: "5512345678"}

	byPhone, err := h.service.GetByIdentifier(context.Background(), "5512345678")
	require.NoError(t, err)
	assert.Equal(t, "u-1", byPhone.ID)

	byEmail, err := h.service.GetByIdentifier(context.Background(), "ana@yomira.app")
	require.NoError(t, err)
	assert.Equal(t, "u-1", byEmail.ID)

	_, err = h.service.GetByIdentifier(context.Background(), "nobody@yomira.app")
	require.Error(t, err)
}

/*
TestService_UploadDocuments_NoUploader rejects uploads with a 503 instead of
panicking when no object storage bucket is configured.
*/
func TestService_UploadDocuments_NoUploader(t *testing.T) {
	h := newHarness(t)
	h.userStore.users["u-1"] = user.User{ID: "u-1"}

	_, err := h.service.UploadDocuments(context.Background(), "u-1", []shopper.Document{{
		Field:       shopper.DocLegalIDFront,
		Filename:    "front.jpg",
		ContentType: "image/jpeg",
		Content:     strings.NewReader("bytes"),
	}})
	require.Error(t, err)
	require.NotNil(t, apperr.As(err))
	assert.Equal(t, http.StatusServiceUnavailable, apperr.As(err).HTTPStatus)
}
