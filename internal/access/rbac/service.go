// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package rbac

import (
	"context"
	"fmt"

	"github.com/taibuivan/yomira-identity/internal/access"
	"github.com/taibuivan/yomira-identity/internal/platform/apperr"
	"github.com/taibuivan/yomira-identity/pkg/pagination"
	"github.com/taibuivan/yomira-identity/pkg/uuid"
)

// Service implements role and permission administration use cases.
//
// # Review Process
//
// This service guards the access control model itself. Any changes to the
// protection rules below must be reviewed by the security team.
type Service struct {
	store Store
}

// NewService constructs a new rbac [Service].
func NewService(store Store) *Service {
	return &Service{store: store}
}

// # Roles

/*
CreateRole persists a brand new role.

Parameters:
  - context: context.Context
  - name: string

Returns:
  - *Role: Created entity
  - error: Conflict (if name exists) or storage errors
*/
func (service *Service) CreateRole(context context.Context, name string) (*Role, error) {
	// Time-sortable ID to prevent PG index fragmentation.
	role := &Role{
		ID:    uuid.New(),
		Name:  name,
		Fixed: false,
	}

	if err := service.store.CreateRole(context, role); err != nil {
		return nil, err
	}

	return role, nil
}

/*
GetRole returns a role hydrated with its attached permissions.

Parameters:
  - context: context.Context
  - id: string

Returns:
  - *Role: Entity with Permissions populated
  - error: NotFound or storage errors
*/
func (service *Service) GetRole(context context.Context, id string) (*Role, error) {
	role, err := service.store.FindRoleByID(context, id)
	if err != nil {
		return nil, err
	}

	permissions, err := service.store.ListRolePermissions(context, id)
	if err != nil {
		return nil, fmt.Errorf("rbac_service_get_role_permissions_failed: %w", err)
	}
	role.Permissions = permissions

	return role, nil
}

/*
ListRoles returns one page of roles plus the matching total.
*/
func (service *Service) ListRoles(context context.Context, params pagination.Params, search string) ([]Role, int, error) {
	return service.store.ListRoles(context, params, search)
}

/*
ListAllRoles returns every role for non-paginated selectors.
*/
func (service *Service) ListAllRoles(context context.Context) ([]Role, error) {
	return service.store.ListAllRoles(context)
}

/*
UpdateRole renames an existing role.

Description: The root role is immutable. Renaming it would silently detach
every holder from the superuser bypass, so the operation is rejected outright.

Parameters:
  - context: context.Context
  - id: string
  - name: string

Returns:
  - *Role: Updated entity
  - error: NotFound, Protected, Conflict, or storage errors
*/
func (service *Service) UpdateRole(context context.Context, id, name string) (*Role, error) {
	role, err := service.store.FindRoleByID(context, id)
	if err != nil {
		return nil, err
	}

	if role.Name == access.RoleRoot {
		return nil, apperr.Protected("It's not possible modify the root role")
	}

	role.Name = name
	if err := service.store.UpdateRole(context, role); err != nil {
		return nil, err
	}

	return role, nil
}

/*
DeleteRole removes a role and all of its assignments.

Description: Fixed roles (including root, which is always fixed) are seeded by
migration and cannot be deleted through the API.

Parameters:
  - context: context.Context
  - id: string

Returns:
  - error: NotFound, Protected, or storage errors
*/
func (service *Service) DeleteRole(context context.Context, id string) error {
	role, err := service.store.FindRoleByID(context, id)
	if err != nil {
		return err
	}

	if role.Fixed || role.Name == access.RoleRoot {
		return apperr.Protected("It's not possible delete a role with the attribute 'fixed' like true")
	}

	return service.store.DeleteRole(context, id)
}

/*
SyncRolePermissions replaces a role's permission set with exactly the given IDs.

Parameters:
  - context: context.Context
  - roleID: string
  - permissionIDs: []string

Returns:
  - error: NotFound (role or any permission) or storage errors
*/
func (service *Service) SyncRolePermissions(context context.Context, roleID string, permissionIDs []string) error {
	if _, err := service.store.FindRoleByID(context, roleID); err != nil {
		return err
	}

	// Validate every referenced permission before touching the attachment set.
	for _, permissionID := range permissionIDs {
		if _, err := service.store.FindPermissionByID(context, permissionID); err != nil {
			return err
		}
	}

	return service.store.SyncRolePermissions(context, roleID, permissionIDs)
}

// # Permissions

/*
CreatePermission persists a brand new permission.

Parameters:
  - context: context.Context
  - name: string

Returns:
  - *Permission: Created entity
  - error: Conflict (if name exists) or storage errors
*/
func (service *Service) CreatePermission(context context.Context, name string) (*Permission, error) {
	permission := &Permission{
		ID:    uuid.New(),
		Name:  name,
		Fixed: false,
	}

	if err := service.store.CreatePermission(context, permission); err != nil {
		return nil, err
	}

	return permission, nil
}

/*
GetPermission returns a single permission by ID.
*/
func (service *Service) GetPermission(context context.Context, id string) (*Permission, error) {
	return service.store.FindPermissionByID(context, id)
}

/*
ListPermissions returns one page of permissions plus the matching total.
*/
func (service *Service) ListPermissions(context context.Context, params pagination.Params, search string) ([]Permission, int, error) {
	return service.store.ListPermissions(context, params, search)
}

/*
ListAllPermissions returns every permission for non-paginated selectors.
*/
func (service *Service) ListAllPermissions(context context.Context) ([]Permission, error) {
	return service.store.ListAllPermissions(context)
}

/*
UpdatePermission renames an existing permission.

Description: Unlike roles, fixed permissions accept renames. Gate checks match
on permission names at request time, so renaming a seeded permission is an
operator decision, not a forbidden one.

Parameters:
  - context: context.Context
  - id: string
  - name: string

Returns:
  - *Permission: Updated entity
  - error: NotFound, Conflict, or storage errors
*/
func (service *Service) UpdatePermission(context context.Context, id, name string) (*Permission, error) {
	permission, err := service.store.FindPermissionByID(context, id)
	if err != nil {
		return nil, err
	}

	permission.Name = name
	if err := service.store.UpdatePermission(context, permission); err != nil {
		return nil, err
	}

	return permission, nil
}

/*
DeletePermission removes a permission and every grant referencing it.

Description: Fixed permissions are seeded by migration and cannot be deleted
through the API.

Parameters:
  - context: context.Context
  - id: string

Returns:
  - error: NotFound, Protected, or storage errors
*/
func (service *Service) DeletePermission(context context.Context, id string) error {
	permission, err := service.store.FindPermissionByID(context, id)
	if err != nil {
		return err
	}

	if permission.Fixed {
		return apperr.Protected("It's not possible delete a permission with the attribute 'fixed' like true")
	}

	return service.store.DeletePermission(context, id)
}
