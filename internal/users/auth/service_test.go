// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth_test

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
	"github.com/taibuivan/yomira-identity/internal/platform/sec"
	"github.com/taibuivan/yomira-identity/internal/users/auth"
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
	roles          map[string]rbac.Role
	principalRoles map[string][]string
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

func (s *fakeRBACStore) SyncPrincipalRoles(_ context.Context, principal access.Principal, roleIDs []string) error {
	s.principalRoles[principal.ID] = append([]string{}, roleIDs...)
	return nil
}

func (s *fakeRBACStore) ListPrincipalRoles(_ context.Context, principal access.Principal) ([]rbac.Role, error) {
	roles := []rbac.Role{}
	for _, id := range s.principalRoles[principal.ID] {
		roles = append(roles, s.roles[id])
	}
	return roles, nil
}

func (s *fakeRBACStore) ListPrincipalPermissions(_ context.Context, _ access.Principal) ([]rbac.Permission, error) {
	return nil, nil
}

func (s *fakeRBACStore) ListRolePermissions(_ context.Context, _ string) ([]rbac.Permission, error) {
	return nil, nil
}

type fakeSessionStore struct {
	sessions []auth.Session
}

func (s *fakeSessionStore) Create(_ context.Context, session *auth.Session) error {
	s.sessions = append(s.sessions, *session)
	return nil
}

func (s *fakeSessionStore) Delete(_ context.Context, userID, marker string) error {
	kept := []auth.Session{}
	for _, session := range s.sessions {
		if session.UserID == userID && session.Marker == marker {
			continue
		}
		kept = append(kept, session)
	}
	s.sessions = kept
	return nil
}

func (s *fakeSessionStore) HasActiveSession(_ context.Context, userID string) (bool, error) {
	now := time.Now()
	for _, session := range s.sessions {
		if session.UserID == userID && !session.Expired(now) {
			return true, nil
		}
	}
	return false, nil
}

func (s *fakeSessionStore) ActiveUserIDs(_ context.Context) ([]string, error) {
	now := time.Now()
	seen := map[string]bool{}
	ids := []string{}
	for _, session := range s.sessions {
		if !session.Expired(now) && !seen[session.UserID] {
			seen[session.UserID] = true
			ids = append(ids, session.UserID)
		}
	}
	return ids, nil
}

func (s *fakeSessionStore) DeleteExpired(_ context.Context) (int, error) { return 0, nil }

type fakeResetStore struct {
	tokens map[string]auth.ResetToken
}

func (s *fakeResetStore) Create(_ context.Context, token *auth.ResetToken) error {
	s.tokens[token.ID] = *token
	return nil
}

func (s *fakeResetStore) FindByToken(_ context.Context, code string) (*auth.ResetToken, error) {
	for _, token := range s.tokens {
		if token.Token == code {
			copy := token
			return &copy, nil
		}
	}
	return nil, apperr.NotFound("Reset token")
}

func (s *fakeResetStore) FindByTokenAndUsername(_ context.Context, code, username string) (*auth.ResetToken, error) {
	for _, token := range s.tokens {
		if token.Token == code && token.Username == username {
			copy := token
			return &copy, nil
		}
	}
	return nil, apperr.NotFound("Reset token")
}

func (s *fakeResetStore) Delete(_ context.Context, id string) error {
	delete(s.tokens, id)
	return nil
}

type fakeNotifier struct {
	sentPhone string
	sentCode  string
	fail      error
}

func (n *fakeNotifier) SendResetCode(_ context.Context, phone, code string) error {
	if n.fail != nil {
		return n.fail
	}
	n.sentPhone = phone
	n.sentCode = code
	return nil
}

// # Harness

type harness struct {
	userStore *fakeUserStore
	sessions  *fakeSessionStore
	resets    *fakeResetStore
	notifier  *fakeNotifier
	server    *miniredis.Miniredis
	tokens    *sec.TokenService
	service   *auth.Service
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	server := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	userStore := newFakeUserStore()
	rbacStore := &fakeRBACStore{
		roles: map[string]rbac.Role{
			"r-shopper": {ID: "r-shopper", Name: user.DefaultRole, Fixed: true},
		},
		principalRoles: map[string][]string{},
	}

	writer := authcache.NewWriter(cache.New(client))
	resolver := rbac.NewResolver(rbacStore)
	users := user.NewService(userStore, rbacStore, resolver, writer)
	shoppers := shopper.NewService(users, userStore, nil, nil)

	sessions := &fakeSessionStore{}
	resets := &fakeResetStore{tokens: map[string]auth.ResetToken{}}
	notifier := &fakeNotifier{}
	tokens := sec.NewTokenService("test-secret")

	service := auth.NewService(users, userStore, shoppers, sessions, resets, tokens, notifier, writer)

	return &harness{
		userStore: userStore,
		sessions:  sessions,
		resets:    resets,
		notifier:  notifier,
		server:    server,
		tokens:    tokens,
		service:   service,
	}
}

func (h *harness) seedShopper(t *testing.T, id, email, phone, password string) {
	t.Helper()
	hash, err := sec.HashPassword(password)
	require.NoError(t, err)
	h.userStore.users[id] = user.User{ID: id, Email: email, Phone: phone, PasswordHash: hash}
	// Seeded accounts carry the default role like service-created ones.
	aqID := int64(4200)
	u := h.userStore.users[id]
	u.AqID = &aqID
	h.userStore.users[id] = u
}

// # Tests

/*
TestService_Login issues a decodable pair, records the ledger row, and
force-writes the cache entry.
*/
func TestService_Login(t *testing.T) {
	h := newHarness(t)
	h.seedShopper(t, "u-1", "ana@yomira.app", "5512345678", "sup3r-secret")
	h.userStore.profiles["u-1"] = user.Profile{UserID: "u-1", AvailableCredit: 1200, SecondCredit: true}

	pair, err := h.service.Login(context.Background(), "5512345678", "sup3r-secret")
	require.NoError(t, err)
	require.NotEmpty(t, pair.Token)
	require.NotEmpty(t, pair.RefreshToken)

	claims, err := h.tokens.Decode(pair.Token)
	require.NoError(t, err)
	assert.Equal(t, "u-1", claims.ID)
	assert.Len(t, claims.Session, 64)
	assert.False(t, claims.IsApp())
	require.NotNil(t, claims.AqID)
	assert.Equal(t, "4200", *claims.AqID)
	assert.Equal(t, 1200.0, claims.AvailableCredit)
	assert.True(t, claims.SecondCredit)

	require.Len(t, h.sessions.sessions, 1)
	assert.Equal(t, claims.Session, h.sessions.sessions[0].Marker)
	assert.True(t, h.server.Exists(authcache.Key("u-1")))
}

/*
TestService_Login_BadCredentials returns the same generic error for unknown
identifiers and wrong passwords.
*/
func TestService_Login_BadCredentials(t *testing.T) {
	h := newHarness(t)
	h.seedShopper(t, "u-1", "ana@yomira.app", "5512345678", "sup3r-secret")

	for _, attempt := range [][2]string{
		{"ghost@yomira.app", "sup3r-secret"},
		{"ana@yomira.app", "wrong-password"},
	} {
		_, err := h.service.Login(context.Background(), attempt[0], attempt[1])
		require.Error(t, err)
		ae := apperr.As(err)
		require.NotNil(t, ae)
		assert.Equal(t, 400, ae.HTTPStatus)
		assert.Equal(t, "The credentials do not match our records.", ae.Message)
	}

	assert.Empty(t, h.sessions.sessions)
}

/*
TestService_Logout_KeepsCacheWhileSessionsRemain verifies the cache entry
survives until the last session is gone.
*/
func TestService_Logout_KeepsCacheWhileSessionsRemain(t *testing.T) {
	h := newHarness(t)
	h.seedShopper(t, "u-1", "ana@yomira.app", "5512345678", "sup3r-secret")

	first, err := h.service.Login(context.Background(), "ana@yomira.app", "sup3r-secret")
	require.NoError(t, err)
	second, err := h.service.Login(context.Background(), "ana@yomira.app", "sup3r-secret")
	require.NoError(t, err)
	require.Len(t, h.sessions.sessions, 2)

	firstClaims, err := h.tokens.Decode(first.Token)
	require.NoError(t, err)
	require.NoError(t, h.service.Logout(context.Background(), firstClaims))
	assert.True(t, h.server.Exists(authcache.Key("u-1")))

	secondClaims, err := h.tokens.Decode(second.Token)
	require.NoError(t, err)
	require.NoError(t, h.service.Logout(context.Background(), secondClaims))
	assert.False(t, h.server.Exists(authcache.Key("u-1")))
	assert.Empty(t, h.sessions.sessions)
}

/*
TestService_GenerateToken requires the exact phone and email combination.
*/
func TestService_GenerateToken(t *testing.T) {
	h := newHarness(t)
	h.seedShopper(t, "u-1", "ana@yomira.app", "5512345678", "sup3r-secret")

	pair, err := h.service.GenerateToken(context.Background(), "5512345678", "ana@yomira.app")
	require.NoError(t, err)
	claims, err := h.tokens.Decode(pair.Token)
	require.NoError(t, err)
	assert.Equal(t, "u-1", claims.ID)

	_, err = h.service.GenerateToken(context.Background(), "5512345678", "other@yomira.app")
	require.Error(t, err)
}

/*
TestService_ForgotPassword stores a six digit code and returns the masked
phone.
*/
func TestService_ForgotPassword(t *testing.T) {
	h := newHarness(t)
	h.seedShopper(t, "u-1", "ana@yomira.app", "5512345678", "sup3r-secret")

	masked, err := h.service.ForgotPassword(context.Background(), "ana@yomira.app")
	require.NoError(t, err)
	assert.Equal(t, "******5678", masked)
	assert.Equal(t, "5512345678", h.notifier.sentPhone)
	assert.Len(t, h.notifier.sentCode, 6)
	require.Len(t, h.resets.tokens, 1)
}

/*
TestService_ForgotPassword_UnknownIdentifier returns the localized field
error without touching the notifier.
*/
func TestService_ForgotPassword_UnknownIdentifier(t *testing.T) {
	h := newHarness(t)

	_, err := h.service.ForgotPassword(context.Background(), "ghost@yomira.app")
	require.Error(t, err)
	ae := apperr.As(err)
	require.NotNil(t, ae)
	assert.Equal(t, 400, ae.HTTPStatus)
	require.Len(t, ae.Details, 1)
	assert.Equal(t, "username", ae.Details[0].Field)
	assert.Empty(t, h.notifier.sentCode)
}

/*
TestService_ResetPassword consumes the code, rotates the password, and signs
the user in.
*/
func TestService_ResetPassword(t *testing.T) {
	h := newHarness(t)
	h.seedShopper(t, "u-1", "ana@yomira.app", "5512345678", "old-password")

	_, err := h.service.ForgotPassword(context.Background(), "ana@yomira.app")
	require.NoError(t, err)
	code := h.notifier.sentCode

	require.NoError(t, h.service.ValidateResetToken(context.Background(), code, "ana@yomira.app"))

	pair, err := h.service.ResetPassword(context.Background(), code, "new-password")
	require.NoError(t, err)
	assert.NotEmpty(t, pair.Token)
	assert.Empty(t, h.resets.tokens)

	// The old password is gone, the new one works.
	_, err = h.service.Login(context.Background(), "ana@yomira.app", "old-password")
	require.Error(t, err)
	_, err = h.service.Login(context.Background(), "ana@yomira.app", "new-password")
	require.NoError(t, err)
}

/*
TestService_ResetPassword_ExpiredCode rejects codes past their expiry.
*/
func TestService_ResetPassword_ExpiredCode(t *testing.T) {
	h := newHarness(t)
	h.seedShopper(t, "u-1", "ana@yomira.app", "5512345678", "sup3r-secret")
	h.resets.tokens["rt-1"] = auth.ResetToken{
		ID:        "rt-1",
		Token:     "123456",
		Username:  "ana@yomira.app",
		ExpiresAt: time.Now().Add(-time.Minute),
	}

	err := h.service.ValidateResetToken(context.Background(), "123456", "ana@yomira.app")
	require.Error(t, err)

	_, err = h.service.ResetPassword(context.Background(), "123456", "new-password")
	require.Error(t, err)
	ae := apperr.As(err)
	require.NotNil(t, ae)
	assert.Equal(t, 400, ae.HTTPStatus)
	require.Len(t, ae.Details, 1)
	assert.Equal(t, "The token is invalid.", ae.Details[0].Message)
}
