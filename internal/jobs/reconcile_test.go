// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package jobs_test

import (
	"context"
	"log/slog"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/yomira-identity/internal/access"
	"github.com/taibuivan/yomira-identity/internal/access/authcache"
	"github.com/taibuivan/yomira-identity/internal/access/rbac"
	"github.com/taibuivan/yomira-identity/internal/jobs"
	"github.com/taibuivan/yomira-identity/internal/platform/apperr"
	"github.com/taibuivan/yomira-identity/internal/platform/cache"
	"github.com/taibuivan/yomira-identity/internal/platform/sec"
	"github.com/taibuivan/yomira-identity/internal/users/app"
	"github.com/taibuivan/yomira-identity/internal/users/auth"
	"github.com/taibuivan/yomira-identity/internal/users/user"
)

// # Fakes

// fakeSessionStore embeds the interface so only the methods the jobs reach
// need real bodies.
type fakeSessionStore struct {
	auth.SessionStore
	activeIDs []string
	swept     int
}

func (s *fakeSessionStore) ActiveUserIDs(_ context.Context) ([]string, error) {
	return s.activeIDs, nil
}

func (s *fakeSessionStore) DeleteExpired(_ context.Context) (int, error) {
	return s.swept, nil
}

type fakeUserStore struct {
	user.Store
	users map[string]user.User
}

func (s *fakeUserStore) FindByID(_ context.Context, id string, _ user.Scope) (*user.User, error) {
	u, ok := s.users[id]
	if !ok {
		return nil, apperr.NotFound("User")
	}
	return &u, nil
}

func (s *fakeUserStore) FindProfile(_ context.Context, _ string) (*user.Profile, error) {
	return nil, apperr.NotFound("Profile")
}

func (s *fakeUserStore) ListDevices(_ context.Context, _ string) ([]user.Device, error) {
	return nil, apperr.NotFound("Devices")
}

type fakeAppStore struct {
	app.Store
	apps []app.App
}

func (s *fakeAppStore) ListAll(_ context.Context) ([]app.App, error) {
	return s.apps, nil
}

type fakeRBACStore struct {
	rbac.Store
}

func (s *fakeRBACStore) ListPrincipalRoles(_ context.Context, _ access.Principal) ([]rbac.Role, error) {
	return []rbac.Role{{ID: "r-1", Name: "shopper"}}, nil
}

func (s *fakeRBACStore) ListPrincipalPermissions(_ context.Context, _ access.Principal) ([]rbac.Permission, error) {
	return nil, nil
}

func (s *fakeRBACStore) ListRolePermissions(_ context.Context, _ string) ([]rbac.Permission, error) {
	return []rbac.Permission{{ID: "p-1", Name: user.PermDetail}}, nil
}

// # Harness

type harness struct {
	job      *jobs.CacheReconcileJob
	writer   *authcache.Writer
	sessions *fakeSessionStore
	server   *miniredis.Miniredis
}

func newHarness(t *testing.T, activeIDs []string, users map[string]user.User, apps []app.App) *harness {
	t.Helper()

	server := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	writer := authcache.NewWriter(cache.New(client))
	rbacStore := &fakeRBACStore{}
	resolver := rbac.NewResolver(rbacStore)

	userStore := &fakeUserStore{users: users}
	userService := user.NewService(userStore, rbacStore, resolver, writer)

	appStore := &fakeAppStore{apps: apps}
	appService := app.NewService(appStore, rbacStore, resolver, writer, sec.NewTokenService("test-secret"))

	sessions := &fakeSessionStore{activeIDs: activeIDs}
	job := jobs.NewCacheReconcileJob(sessions, userService, appService, appStore, writer, slog.Default())

	return &harness{job: job, writer: writer, sessions: sessions, server: server}
}

// # Tests

/*
TestCacheReconcileJob_RestoresMissingEntries simulates a flushed Redis: every
sessioned user and every application gets its entry back.
*/
func TestCacheReconcileJob_RestoresMissingEntries(t *testing.T) {
	h := newHarness(t,
		[]string{"u-1", "u-2"},
		map[string]user.User{
			"u-1": {ID: "u-1", Email: "ana@yomira.app"},
			"u-2": {ID: "u-2", Email: "luis@yomira.app"},
		},
		[]app.App{{ID: "a-1", Name: "checkout"}},
	)

	require.NoError(t, h.job.Handle(context.Background(), jobs.NewCacheReconcileTask()))

	for _, id := range []string{"u-1", "u-2", "a-1"} {
		entry, err := h.writer.Read(context.Background(), id)
		require.NoError(t, err, "entry for %s", id)
		assert.Equal(t, id, entry.ID)
		assert.Contains(t, entry.Roles, "shopper")
	}
}

/*
TestCacheReconcileJob_LeavesPresentEntriesAlone verifies that an existing
entry is not overwritten by the reconciler.
*/
func TestCacheReconcileJob_LeavesPresentEntriesAlone(t *testing.T) {
	h := newHarness(t,
		[]string{"u-1"},
		map[string]user.User{"u-1": {ID: "u-1", Email: "new@yomira.app"}},
		nil,
	)

	// Seed an entry that is fresher than what the database would produce.
	require.NoError(t, h.writer.WriteUser(context.Background(), authcache.Entry{
		ID:    "u-1",
		Email: "cached@yomira.app",
	}, true))

	require.NoError(t, h.job.Handle(context.Background(), jobs.NewCacheReconcileTask()))

	entry, err := h.writer.Read(context.Background(), "u-1")
	require.NoError(t, err)
	assert.Equal(t, "cached@yomira.app", entry.Email)
}

/*
TestCacheReconcileJob_SkipsRemovedAccounts checks that a ledger row whose
account no longer exists does not fail the run.
*/
func TestCacheReconcileJob_SkipsRemovedAccounts(t *testing.T) {
	h := newHarness(t,
		[]string{"u-gone", "u-1"},
		map[string]user.User{"u-1": {ID: "u-1", Email: "ana@yomira.app"}},
		nil,
	)

	require.NoError(t, h.job.Handle(context.Background(), jobs.NewCacheReconcileTask()))

	_, err := h.writer.Read(context.Background(), "u-gone")
	assert.ErrorIs(t, err, cache.ErrMiss)

	_, err = h.writer.Read(context.Background(), "u-1")
	assert.NoError(t, err)
}
