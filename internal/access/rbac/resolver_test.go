// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package rbac_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/yomira-identity/internal/access"
	"github.com/taibuivan/yomira-identity/internal/access/rbac"
)

/*
TestResolver_Grants verifies the effective permission set is the deduplicated
union of direct grants and role-derived permissions.
*/
func TestResolver_Grants(t *testing.T) {
	store := newFakeStore()
	seedRole(store, "r-support", "support", false)
	seedRole(store, "r-billing", "billing", false)
	seedPermission(store, "p-list", "User - User - list", false)
	seedPermission(store, "p-detail", "User - User - detail", false)
	seedPermission(store, "p-charge", "Billing - Charge - create", false)

	principal := access.User("u-1")
	store.principalRoles[principalKey(principal)] = []string{"r-support", "r-billing"}
	store.rolePermissions["r-support"] = []string{"p-list", "p-detail"}
	store.rolePermissions["r-billing"] = []string{"p-charge"}
	// Direct grant overlapping with a role-derived permission.
	store.principalPermissions[principalKey(principal)] = []string{"p-list"}

	resolver := rbac.NewResolver(store)
	grants, err := resolver.Grants(context.Background(), principal)
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{"support", "billing"}, grants.Roles)
	assert.ElementsMatch(t,
		[]string{"User - User - list", "User - User - detail", "Billing - Charge - create"},
		grants.Permissions)
}

/*
TestResolver_Grants_Empty verifies a principal with no assignments resolves to
empty, non-nil grant sets.
*/
func TestResolver_Grants_Empty(t *testing.T) {
	resolver := rbac.NewResolver(newFakeStore())

	grants, err := resolver.Grants(context.Background(), access.App("app-1"))
	require.NoError(t, err)
	assert.Empty(t, grants.Roles)
	assert.Empty(t, grants.Permissions)
	assert.False(t, grants.IsRoot())
}

/*
TestResolver_Grants_RootBypassAtEnforcement verifies the resolver returns the
root role as plain data and the bypass only activates through the grant checks.
*/
func TestResolver_Grants_RootBypassAtEnforcement(t *testing.T) {
	store := newFakeStore()
	seedRole(store, "r-root", "root", true)

	principal := access.User("u-admin")
	store.principalRoles[principalKey(principal)] = []string{"r-root"}

	resolver := rbac.NewResolver(store)
	grants, err := resolver.Grants(context.Background(), principal)
	require.NoError(t, err)

	// No permissions materialized, yet every check passes via the bypass.
	assert.Empty(t, grants.Permissions)
	assert.True(t, grants.IsRoot())
	assert.True(t, grants.HasAnyPermission("User - User - list"))
	assert.True(t, grants.HasAnyRole("support"))
}
