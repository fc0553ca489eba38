// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package authcache_test

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/yomira-identity/internal/access/authcache"
	"github.com/taibuivan/yomira-identity/internal/platform/cache"
)

func newTestWriter(t *testing.T) (*authcache.Writer, *miniredis.Miniredis) {
	t.Helper()

	server := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return authcache.NewWriter(cache.New(client)), server
}

func userEntry(id string) authcache.Entry {
	return authcache.Entry{
		ID:          id,
		Email:       id + "@yomira.app",
		Permissions: []string{"User - User - list"},
		Roles:       []string{"shopper"},
		Profile:     &authcache.Profile{AvailableCredit: 1500},
	}
}

/*
TestWriteUser_SkipsAbsentWithoutForce verifies a plain write never creates an
entry for a user with no active session.
*/
func TestWriteUser_SkipsAbsentWithoutForce(t *testing.T) {
	writer, server := newTestWriter(t)
	ctx := context.Background()

	require.NoError(t, writer.WriteUser(ctx, userEntry("u-1"), false))
	assert.False(t, server.Exists(authcache.Key("u-1")))
}

/*
TestWriteUser_ForceCreates verifies a forced write creates the entry and a
subsequent plain write refreshes it.
*/
func TestWriteUser_ForceCreates(t *testing.T) {
	writer, server := newTestWriter(t)
	ctx := context.Background()

	require.NoError(t, writer.WriteUser(ctx, userEntry("u-1"), true))
	assert.True(t, server.Exists(authcache.Key("u-1")))

	updated := userEntry("u-1")
	updated.Roles = []string{"shopper", "support"}
	require.NoError(t, writer.WriteUser(ctx, updated, false))

	entry, err := writer.Read(ctx, "u-1")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"shopper", "support"}, entry.Roles)
	require.NotNil(t, entry.Profile)
	assert.Equal(t, float64(1500), entry.Profile.AvailableCredit)
}

/*
TestWriteApp_AlwaysWrites verifies application entries are created without force.
*/
func TestWriteApp_AlwaysWrites(t *testing.T) {
	writer, _ := newTestWriter(t)
	ctx := context.Background()

	entry := authcache.Entry{ID: "app-1", Permissions: []string{"Billing - Charge - create"}}
	require.NoError(t, writer.WriteApp(ctx, entry))

	got, err := writer.Read(ctx, "app-1")
	require.NoError(t, err)
	assert.Nil(t, got.Profile)
	assert.Equal(t, []string{"Billing - Charge - create"}, got.Permissions)
}

/*
TestRead_Miss verifies an absent principal surfaces the cache miss sentinel.
*/
func TestRead_Miss(t *testing.T) {
	writer, _ := newTestWriter(t)

	_, err := writer.Read(context.Background(), "ghost")
	assert.ErrorIs(t, err, cache.ErrMiss)
}

/*
TestDelete_And_Truncate verifies entry removal and namespace truncation.
*/
func TestDelete_And_Truncate(t *testing.T) {
	writer, server := newTestWriter(t)
	ctx := context.Background()

	require.NoError(t, writer.WriteUser(ctx, userEntry("u-1"), true))
	require.NoError(t, writer.WriteUser(ctx, userEntry("u-2"), true))
	server.Set("unrelated", "keep")

	require.NoError(t, writer.Delete(ctx, "u-1"))
	assert.False(t, server.Exists(authcache.Key("u-1")))

	deleted, err := writer.Truncate(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, deleted)
	assert.True(t, server.Exists("unrelated"))
}
