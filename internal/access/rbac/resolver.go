// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package rbac

import (
	"context"
	"fmt"

	"github.com/taibuivan/yomira-identity/internal/access"
)

// Resolver computes the effective grant set of a principal from the RBAC graph.
//
// # Semantics
//
// The effective permission set is the union of the principal's direct grants
// and the permissions attached to each of its roles, deduplicated by ID. The
// resolver never inspects role names; root short-circuiting belongs to
// [access.Grants] so that every caller applies it identically.
type Resolver struct {
	store Store
}

// NewResolver creates a grant resolver backed by the given store.
func NewResolver(store Store) *Resolver {
	return &Resolver{store: store}
}

/*
Grants resolves the role names and effective permission names of a principal.

Parameters:
  - context: context.Context
  - principal: access.Principal

Returns:
  - access.Grants: Role names plus deduplicated permission names
  - error: Storage errors
*/
func (resolver *Resolver) Grants(context context.Context, principal access.Principal) (access.Grants, error) {
	roles, err := resolver.store.ListPrincipalRoles(context, principal)
	if err != nil {
		return access.Grants{}, fmt.Errorf("rbac_resolve_roles_failed: %w", err)
	}

	direct, err := resolver.store.ListPrincipalPermissions(context, principal)
	if err != nil {
		return access.Grants{}, fmt.Errorf("rbac_resolve_permissions_failed: %w", err)
	}

	seen := make(map[string]struct{}, len(direct))
	permissionNames := make([]string, 0, len(direct))
	for _, permission := range direct {
		if _, ok := seen[permission.ID]; ok {
			continue
		}
		seen[permission.ID] = struct{}{}
		permissionNames = append(permissionNames, permission.Name)
	}

	roleNames := make([]string, 0, len(roles))
	for _, role := range roles {
		roleNames = append(roleNames, role.Name)

		derived, err := resolver.store.ListRolePermissions(context, role.ID)
		if err != nil {
			return access.Grants{}, fmt.Errorf("rbac_resolve_role_permissions_failed: %w", err)
		}
		for _, permission := range derived {
			if _, ok := seen[permission.ID]; ok {
				continue
			}
			seen[permission.ID] = struct{}{}
			permissionNames = append(permissionNames, permission.Name)
		}
	}

	return access.Grants{Roles: roleNames, Permissions: permissionNames}, nil
}
