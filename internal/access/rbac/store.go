// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package rbac

import (
	"context"

	"github.com/taibuivan/yomira-identity/internal/access"
	"github.com/taibuivan/yomira-identity/pkg/pagination"
)

// # Graph Data Access

// Store defines the data access contract for the role/permission graph.
type Store interface {

	/*
		CreateRole persists a new role.

		Parameters:
		  - context: context.Context
		  - role: *Role

		Returns:
		  - error: apperr.Conflict on duplicate name, or persistence failures
	*/
	CreateRole(context context.Context, role *Role) error

	/*
		FindRoleByID returns the role with the given ID.

		Parameters:
		  - context: context.Context
		  - id: string

		Returns:
		  - *Role: Hydrated entity
		  - error: apperr.NotFound or retrieval failures
	*/
	FindRoleByID(context context.Context, id string) (*Role, error)

	/*
		FindRoleByName returns the role with the given unique name.

		Parameters:
		  - context: context.Context
		  - name: string

		Returns:
		  - *Role: Hydrated entity
		  - error: apperr.NotFound or retrieval failures
	*/
	FindRoleByName(context context.Context, name string) (*Role, error)

	/*
		ListRoles returns one page of roles, optionally filtered by a
		case-insensitive name search.

		Parameters:
		  - context: context.Context
		  - params: pagination.Params
		  - search: string (empty means no filter)

		Returns:
		  - []Role: Page of roles
		  - int: Total row count for pagination metadata
		  - error: Retrieval failures
	*/
	ListRoles(context context.Context, params pagination.Params, search string) ([]Role, int, error)

	/*
		ListAllRoles returns every role ordered by name.

		Parameters:
		  - context: context.Context

		Returns:
		  - []Role: All roles
		  - error: Retrieval failures
	*/
	ListAllRoles(context context.Context) ([]Role, error)

	/*
		UpdateRole persists changes to a role's name.

		Parameters:
		  - context: context.Context
		  - role: *Role

		Returns:
		  - error: apperr.Conflict on duplicate name, or persistence failures
	*/
	UpdateRole(context context.Context, role *Role) error

	/*
		DeleteRole removes a role and every association referencing it.

		Parameters:
		  - context: context.Context
		  - id: string

		Returns:
		  - error: Persistence failures
	*/
	DeleteRole(context context.Context, id string) error

	/*
		CreatePermission persists a new permission.

		Parameters:
		  - context: context.Context
		  - permission: *Permission

		Returns:
		  - error: apperr.Conflict on duplicate name, or persistence failures
	*/
	CreatePermission(context context.Context, permission *Permission) error

	/*
		FindPermissionByID returns the permission with the given ID.

		Parameters:
		  - context: context.Context
		  - id: string

		Returns:
		  - *Permission: Hydrated entity
		  - error: apperr.NotFound or retrieval failures
	*/
	FindPermissionByID(context context.Context, id string) (*Permission, error)

	/*
		ListPermissions returns one page of permissions, optionally filtered
		by a case-insensitive name search.

		Parameters:
		  - context: context.Context
		  - params: pagination.Params
		  - search: string (empty means no filter)

		Returns:
		  - []Permission: Page of permissions
		  - int: Total row count for pagination metadata
		  - error: Retrieval failures
	*/
	ListPermissions(context context.Context, params pagination.Params, search string) ([]Permission, int, error)

	/*
		ListAllPermissions returns every permission ordered by name.

		Parameters:
		  - context: context.Context

		Returns:
		  - []Permission: All permissions
		  - error: Retrieval failures
	*/
	ListAllPermissions(context context.Context) ([]Permission, error)

	/*
		UpdatePermission persists changes to a permission's name.

		Parameters:
		  - context: context.Context
		  - permission: *Permission

		Returns:
		  - error: apperr.Conflict on duplicate name, or persistence failures
	*/
	UpdatePermission(context context.Context, permission *Permission) error

	/*
		DeletePermission removes a permission and every association
		referencing it.

		Parameters:
		  - context: context.Context
		  - id: string

		Returns:
		  - error: Persistence failures
	*/
	DeletePermission(context context.Context, id string) error

	/*
		ListRolePermissions returns the permissions attached to a role.

		Parameters:
		  - context: context.Context
		  - roleID: string

		Returns:
		  - []Permission: Attached permissions
		  - error: Retrieval failures
	*/
	ListRolePermissions(context context.Context, roleID string) ([]Permission, error)

	/*
		SyncRolePermissions replaces a role's permission set atomically.

		Parameters:
		  - context: context.Context
		  - roleID: string
		  - permissionIDs: []string (the complete desired set)

		Returns:
		  - error: Persistence failures
	*/
	SyncRolePermissions(context context.Context, roleID string, permissionIDs []string) error

	/*
		ListPrincipalRoles returns the roles assigned to a user or application.

		Parameters:
		  - context: context.Context
		  - principal: access.Principal

		Returns:
		  - []Role: Assigned roles
		  - error: Retrieval failures
	*/
	ListPrincipalRoles(context context.Context, principal access.Principal) ([]Role, error)

	/*
		ListPrincipalPermissions returns the DIRECT permission grants of a
		user or application, excluding role-derived permissions.

		Parameters:
		  - context: context.Context
		  - principal: access.Principal

		Returns:
		  - []Permission: Direct grants
		  - error: Retrieval failures
	*/
	ListPrincipalPermissions(context context.Context, principal access.Principal) ([]Permission, error)

	/*
		SyncPrincipalRoles replaces a principal's role set atomically.

		Parameters:
		  - context: context.Context
		  - principal: access.Principal
		  - roleIDs: []string (the complete desired set)

		Returns:
		  - error: Persistence failures
	*/
	SyncPrincipalRoles(context context.Context, principal access.Principal, roleIDs []string) error

	/*
		SyncPrincipalPermissions replaces a principal's direct permission set
		atomically.

		Parameters:
		  - context: context.Context
		  - principal: access.Principal
		  - permissionIDs: []string (the complete desired set)

		Returns:
		  - error: Persistence failures
	*/
	SyncPrincipalPermissions(context context.Context, principal access.Principal, permissionIDs []string) error
}
