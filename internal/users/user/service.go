// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package user

import (
	"context"
	"fmt"

	"github.com/taibuivan/yomira-identity/internal/access"
	"github.com/taibuivan/yomira-identity/internal/access/authcache"
	"github.com/taibuivan/yomira-identity/internal/access/rbac"
	"github.com/taibuivan/yomira-identity/internal/platform/apperr"
	"github.com/taibuivan/yomira-identity/internal/platform/sec"
	"github.com/taibuivan/yomira-identity/pkg/pagination"
	"github.com/taibuivan/yomira-identity/pkg/uuid"
)

// Service implements user lifecycle and grant administration use cases.
//
// # Review Process
//
// Deletion protection and cache upkeep are load-bearing for the whole
// platform's authorization. Changes here must be reviewed by the security team.
type Service struct {
	store     Store
	rbacStore rbac.Store
	resolver  *rbac.Resolver
	cache     *authcache.Writer
}

// NewService constructs a new user [Service].
func NewService(store Store, rbacStore rbac.Store, resolver *rbac.Resolver, cache *authcache.Writer) *Service {
	return &Service{
		store:     store,
		rbacStore: rbacStore,
		resolver:  resolver,
		cache:     cache,
	}
}

// # Creation & Reads

// CreateInput holds the data required to enroll a new user.
type CreateInput struct {
	Email          string
	Phone          string
	Password       string
	Name           string
	Lastname       string
	SecondLastname string

	// RoleID overrides the default shopper role assignment.
	RoleID string
}

/*
Create validates, hashes, and persists a brand new user account.

Description: Every user is born with exactly one role. When no role is given,
the default shopper role seeded by migration is assigned.

Parameters:
  - context: context.Context
  - input: CreateInput

Returns:
  - *User: Created entity
  - error: Conflict (if email/phone exists), NotFound (unknown role), storage errors
*/
func (service *Service) Create(context context.Context, input CreateInput) (*User, error) {
	role, err := service.initialRole(context, input.RoleID)
	if err != nil {
		return nil, err
	}

	// Prevent storing plain-text passwords.
	hashedPassword, err := sec.HashPassword(input.Password)
	if err != nil {
		return nil, fmt.Errorf("user_service_hash_failed: %w", err)
	}

	// Time-sortable ID to prevent PG index fragmentation.
	user := &User{
		ID:             uuid.New(),
		Email:          input.Email,
		Phone:          input.Phone,
		PasswordHash:   hashedPassword,
		Name:           input.Name,
		Lastname:       input.Lastname,
		SecondLastname: input.SecondLastname,
		IsActive:       false,
		NewPass:        true,
	}

	if err := service.store.Create(context, user); err != nil {
		return nil, err
	}

	if err := service.rbacStore.SyncPrincipalRoles(context, access.User(user.ID), []string{role.ID}); err != nil {
		return nil, fmt.Errorf("user_service_assign_role_failed: %w", err)
	}

	return user, nil
}

// initialRole resolves the role a new user is born with.
func (service *Service) initialRole(context context.Context, roleID string) (*rbac.Role, error) {
	if roleID != "" {
		return service.rbacStore.FindRoleByID(context, roleID)
	}
	return service.rbacStore.FindRoleByName(context, DefaultRole)
}

/*
Get returns a user hydrated with profile and devices.

Parameters:
  - context: context.Context
  - id: string
  - scope: Scope

Returns:
  - *User: Entity with Profile and Devices populated when present
  - error: NotFound or storage errors
*/
func (service *Service) Get(context context.Context, id string, scope Scope) (*User, error) {
	user, err := service.store.FindByID(context, id, scope)
	if err != nil {
		return nil, err
	}

	if profile, err := service.store.FindProfile(context, user.ID); err == nil {
		user.Profile = profile
	}
	if devices, err := service.store.ListDevices(context, user.ID); err == nil {
		user.Devices = devices
	}

	return user, nil
}

/*
GetByAqID returns a user by its external origination system ID.
*/
func (service *Service) GetByAqID(context context.Context, aqID int64) (*User, error) {
	user, err := service.store.FindByAqID(context, aqID)
	if err != nil {
		return nil, err
	}

	if profile, err := service.store.FindProfile(context, user.ID); err == nil {
		user.Profile = profile
	}

	return user, nil
}

/*
List returns one page of users plus the matching total.
*/
func (service *Service) List(context context.Context, params pagination.Params, search string, scope Scope) ([]User, int, error) {
	return service.store.List(context, params, search, scope)
}

// # Updates

// UpdateInput carries the allow-listed identity fields. Nil pointers leave
// the current value untouched.
type UpdateInput struct {
	Email          *string
	Phone          *string
	Name           *string
	Lastname       *string
	SecondLastname *string
}

/*
Update applies the allow-listed identity changes to a user.

Returns:
  - *User: Updated entity
  - error: NotFound, Conflict, or storage errors
*/
func (service *Service) Update(context context.Context, id string, input UpdateInput) (*User, error) {
	user, err := service.store.FindByID(context, id, ScopeActive)
	if err != nil {
		return nil, err
	}

	if input.Email != nil {
		user.Email = *input.Email
	}
	if input.Phone != nil {
		user.Phone = *input.Phone
	}
	if input.Name != nil {
		user.Name = *input.Name
	}
	if input.Lastname != nil {
		user.Lastname = *input.Lastname
	}
	if input.SecondLastname != nil {
		user.SecondLastname = *input.SecondLastname
	}

	if err := service.store.Update(context, user); err != nil {
		return nil, err
	}

	// Email lives in the cached snapshot; refresh if an entry exists.
	_ = service.WriteCache(context, user, false)

	return user, nil
}

/*
UpdatePassword hashes and stores a new password for a user.

Description: The newPass flag distinguishes administrative resets (true) from
a rotation performed by the account holder (false).
*/
func (service *Service) UpdatePassword(context context.Context, id, password string, newPass bool) error {
	if _, err := service.store.FindByID(context, id, ScopeActive); err != nil {
		return err
	}

	hashedPassword, err := sec.HashPassword(password)
	if err != nil {
		return fmt.Errorf("user_service_hash_failed: %w", err)
	}

	return service.store.UpdatePassword(context, id, hashedPassword, newPass)
}

/*
Activate raises the onboarding activation flag.
*/
func (service *Service) Activate(context context.Context, id string) error {
	if _, err := service.store.FindByID(context, id, ScopeActive); err != nil {
		return err
	}
	return service.store.SetActive(context, id, true)
}

/*
Deactivate lowers the onboarding activation flag.
*/
func (service *Service) Deactivate(context context.Context, id string) error {
	if _, err := service.store.FindByID(context, id, ScopeActive); err != nil {
		return err
	}
	return service.store.SetActive(context, id, false)
}

// # Grant Administration

// GrantSets separates a user's direct permission grants from the effective
// set that includes role-derived permissions.
type GrantSets struct {
	Permissions      []rbac.Permission `json:"permissions"`
	RolesPermissions []rbac.Permission `json:"roles_permissions"`
}

/*
Permissions returns a user's direct and effective permission sets.
*/
func (service *Service) Permissions(context context.Context, id string) (*GrantSets, error) {
	user, err := service.store.FindByID(context, id, ScopeActive)
	if err != nil {
		return nil, err
	}

	principal := access.User(user.ID)
	direct, err := service.rbacStore.ListPrincipalPermissions(context, principal)
	if err != nil {
		return nil, fmt.Errorf("user_service_permissions_failed: %w", err)
	}

	effective, err := service.effectivePermissions(context, principal, direct)
	if err != nil {
		return nil, err
	}

	return &GrantSets{Permissions: direct, RolesPermissions: effective}, nil
}

// effectivePermissions unions direct grants with role-derived permissions,
// deduplicated by ID.
func (service *Service) effectivePermissions(context context.Context, principal access.Principal, direct []rbac.Permission) ([]rbac.Permission, error) {
	seen := map[string]struct{}{}
	effective := []rbac.Permission{}
	for _, permission := range direct {
		seen[permission.ID] = struct{}{}
		effective = append(effective, permission)
	}

	roles, err := service.rbacStore.ListPrincipalRoles(context, principal)
	if err != nil {
		return nil, fmt.Errorf("user_service_roles_failed: %w", err)
	}
	for _, role := range roles {
		derived, err := service.rbacStore.ListRolePermissions(context, role.ID)
		if err != nil {
			return nil, fmt.Errorf("user_service_role_permissions_failed: %w", err)
		}
		for _, permission := range derived {
			if _, ok := seen[permission.ID]; ok {
				continue
			}
			seen[permission.ID] = struct{}{}
			effective = append(effective, permission)
		}
	}

	return effective, nil
}

/*
Roles returns the roles assigned to a user.
*/
func (service *Service) Roles(context context.Context, id string) ([]rbac.Role, error) {
	user, err := service.store.FindByID(context, id, ScopeActive)
	if err != nil {
		return nil, err
	}
	return service.rbacStore.ListPrincipalRoles(context, access.User(user.ID))
}

/*
SyncPermissions replaces a user's direct permission set and refreshes the
cached snapshot when one exists.

Returns:
  - error: NotFound (user or any permission ID) or storage errors
*/
func (service *Service) SyncPermissions(context context.Context, id string, permissionIDs []string) error {
	user, err := service.store.FindByID(context, id, ScopeActive)
	if err != nil {
		return err
	}

	for _, permissionID := range permissionIDs {
		if _, err := service.rbacStore.FindPermissionByID(context, permissionID); err != nil {
			return err
		}
	}

	if err := service.rbacStore.SyncPrincipalPermissions(context, access.User(user.ID), permissionIDs); err != nil {
		return fmt.Errorf("user_service_sync_permissions_failed: %w", err)
	}

	_ = service.WriteCache(context, user, false)

	return nil
}

/*
SyncRoles replaces a user's role set and refreshes the cached snapshot when
one exists.
*/
func (service *Service) SyncRoles(context context.Context, id string, roleIDs []string) error {
	user, err := service.store.FindByID(context, id, ScopeActive)
	if err != nil {
		return err
	}

	for _, roleID := range roleIDs {
		if _, err := service.rbacStore.FindRoleByID(context, roleID); err != nil {
			return err
		}
	}

	if err := service.rbacStore.SyncPrincipalRoles(context, access.User(user.ID), roleIDs); err != nil {
		return fmt.Errorf("user_service_sync_roles_failed: %w", err)
	}

	_ = service.WriteCache(context, user, false)

	return nil
}

// # Deletion Lifecycle

/*
SoftDelete marks an account deleted and evicts its authorization entry.

Description: Holders of the root role can never be deleted through the API;
removing the last superuser would be unrecoverable without DB access.

Returns:
  - error: NotFound, Protected, or storage errors
*/
func (service *Service) SoftDelete(context context.Context, id string) error {
	user, err := service.store.FindByID(context, id, ScopeActive)
	if err != nil {
		return err
	}

	if err := service.ensureDeletable(context, user); err != nil {
		return err
	}

	if err := service.store.SoftDelete(context, id); err != nil {
		return err
	}

	_ = service.cache.Delete(context, user.ID)

	return nil
}

/*
Restore reinstates a soft-deleted account and force-recreates its
authorization entry so sibling services see it again immediately.
*/
func (service *Service) Restore(context context.Context, id string) error {
	user, err := service.store.FindByID(context, id, ScopeDeletedOnly)
	if err != nil {
		return err
	}

	if err := service.store.Restore(context, id); err != nil {
		return err
	}

	_ = service.WriteCache(context, user, true)

	return nil
}

/*
HardDelete permanently removes an account and everything attached to it.
*/
func (service *Service) HardDelete(context context.Context, id string) error {
	user, err := service.store.FindByID(context, id, ScopeWithDeleted)
	if err != nil {
		return err
	}

	if err := service.ensureDeletable(context, user); err != nil {
		return err
	}

	if err := service.store.HardDelete(context, id); err != nil {
		return err
	}

	_ = service.cache.Delete(context, user.ID)

	return nil
}

// ensureDeletable rejects deletion of root-role holders.
func (service *Service) ensureDeletable(context context.Context, user *User) error {
	roles, err := service.rbacStore.ListPrincipalRoles(context, access.User(user.ID))
	if err != nil {
		return fmt.Errorf("user_service_deletable_check_failed: %w", err)
	}

	for _, role := range roles {
		if role.Name == access.RoleRoot {
			return apperr.Protected("You can't delete root user")
		}
	}

	return nil
}

// # Cache Upkeep

/*
CacheEntry builds the authorization snapshot for a user: resolved grants plus
the profile's credit figures.
*/
func (service *Service) CacheEntry(context context.Context, user *User) (authcache.Entry, error) {
	grants, err := service.resolver.Grants(context, access.User(user.ID))
	if err != nil {
		return authcache.Entry{}, err
	}

	entry := authcache.Entry{
		ID:          user.ID,
		Email:       user.Email,
		Permissions: grants.Permissions,
		Roles:       grants.Roles,
	}

	profile := user.Profile
	if profile == nil {
		profile, _ = service.store.FindProfile(context, user.ID)
	}
	if profile != nil {
		entry.Profile = &authcache.Profile{
			PaymentCapacity: profile.PaymentCapacity,
			SecondCredit:    profile.SecondCredit,
			AvailableCredit: profile.AvailableCredit,
		}
	}

	return entry, nil
}

/*
WriteCache refreshes a user's authorization entry. Non-forced writes skip
users without an existing entry.
*/
func (service *Service) WriteCache(context context.Context, user *User, force bool) error {
	if !force {
		// Avoid resolving grants for users that were never cached.
		exists, err := service.cache.Exists(context, user.ID)
		if err != nil || !exists {
			return err
		}
	}

	entry, err := service.CacheEntry(context, user)
	if err != nil {
		return err
	}

	return service.cache.WriteUser(context, entry, force)
}

