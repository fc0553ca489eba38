// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package app

import (
	"context"

	"github.com/taibuivan/yomira-identity/internal/access"
	"github.com/taibuivan/yomira-identity/internal/access/authcache"
	"github.com/taibuivan/yomira-identity/internal/access/rbac"
	"github.com/taibuivan/yomira-identity/internal/platform/constants"
	"github.com/taibuivan/yomira-identity/internal/platform/sec"
	"github.com/taibuivan/yomira-identity/pkg/pagination"
	"github.com/taibuivan/yomira-identity/pkg/uuid"
)

// Service implements the application lifecycle and credential use cases.
type Service struct {
	store     Store
	rbacStore rbac.Store
	resolver  *rbac.Resolver
	cache     *authcache.Writer
	tokens    *sec.TokenService
}

// NewService constructs a new application [Service].
func NewService(store Store, rbacStore rbac.Store, resolver *rbac.Resolver, cache *authcache.Writer, tokens *sec.TokenService) *Service {
	return &Service{
		store:     store,
		rbacStore: rbacStore,
		resolver:  resolver,
		cache:     cache,
		tokens:    tokens,
	}
}

// # Lifecycle

/*
Create registers a new application.

Parameters:
  - context: context.Context
  - name: string (unique display name)
  - description: string

Returns:
  - *App: Created entity, without a credential yet
  - error: Conflict (name taken) or storage errors
*/
func (service *Service) Create(context context.Context, name, description string) (*App, error) {
	app := &App{
		// Time-sortable ID to prevent PG index fragmentation.
		ID:          uuid.New(),
		Name:        name,
		Description: description,
	}

	if err := service.store.Create(context, app); err != nil {
		return nil, err
	}

	return app, nil
}

// Get returns an application by ID.
func (service *Service) Get(context context.Context, id string) (*App, error) {
	return service.store.FindByID(context, id)
}

// List returns one page of applications.
func (service *Service) List(context context.Context, params pagination.Params, search string) ([]App, int, error) {
	return service.store.List(context, params, search)
}

// Update applies name and description changes.
func (service *Service) Update(context context.Context, id, name, description string) (*App, error) {
	app, err := service.store.FindByID(context, id)
	if err != nil {
		return nil, err
	}

	app.Name = name
	app.Description = description

	if err := service.store.Update(context, app); err != nil {
		return nil, err
	}

	return app, nil
}

/*
Delete removes an application together with its grant assignments and its
cached authorization entry.
*/
func (service *Service) Delete(context context.Context, id string) error {
	if err := service.store.Delete(context, id); err != nil {
		return err
	}

	_ = service.cache.Delete(context, id)

	return nil
}

// # Credentials

/*
GenerateToken issues a fresh long-lived credential and stores it on the
application row.

Description: Application claims carry only the principal ID. Authorization
data is resolved per request from the cache or the grant graph, so a token
minted today honors grants assigned tomorrow.

Returns:
  - *App: Entity carrying the new token
  - error: NotFound or signing errors
*/
func (service *Service) GenerateToken(context context.Context, id string) (*App, error) {
	app, err := service.store.FindByID(context, id)
	if err != nil {
		return nil, err
	}

	token, err := service.tokens.IssueApp(sec.AppClaims{ID: app.ID}, constants.AppTokenTTL)
	if err != nil {
		return nil, err
	}

	if err := service.store.SetToken(context, app.ID, token); err != nil {
		return nil, err
	}

	app.Token = &token
	return app, nil
}

// # Grants

// GrantSets bundles the direct and role-derived permission views of an
// application.
type GrantSets struct {
	Permissions      []rbac.Permission `json:"permissions"`
	RolesPermissions []rbac.Permission `json:"roles_permissions"`
}

// Permissions returns the direct and effective permission sets of an
// application.
func (service *Service) Permissions(context context.Context, id string) (*GrantSets, error) {
	app, err := service.store.FindByID(context, id)
	if err != nil {
		return nil, err
	}

	principal := access.App(app.ID)

	direct, err := service.rbacStore.ListPrincipalPermissions(context, principal)
	if err != nil {
		return nil, err
	}

	roles, err := service.rbacStore.ListPrincipalRoles(context, principal)
	if err != nil {
		return nil, err
	}

	seen := map[string]bool{}
	for _, permission := range direct {
		seen[permission.ID] = true
	}

	effective := append([]rbac.Permission{}, direct...)
	for _, role := range roles {
		derived, err := service.rbacStore.ListRolePermissions(context, role.ID)
		if err != nil {
			return nil, err
		}
		for _, permission := range derived {
			if !seen[permission.ID] {
				seen[permission.ID] = true
				effective = append(effective, permission)
			}
		}
	}

	return &GrantSets{Permissions: direct, RolesPermissions: effective}, nil
}

// Roles returns the roles assigned to an application.
func (service *Service) Roles(context context.Context, id string) ([]rbac.Role, error) {
	app, err := service.store.FindByID(context, id)
	if err != nil {
		return nil, err
	}

	return service.rbacStore.ListPrincipalRoles(context, access.App(app.ID))
}

/*
SyncRoles replaces the application's role assignments.

Description: Unlike users, applications have no login moment that would seed
their cache entry. The entry is therefore written unconditionally after
every grant change.
*/
func (service *Service) SyncRoles(context context.Context, id string, roleIDs []string) error {
	app, err := service.store.FindByID(context, id)
	if err != nil {
		return err
	}

	for _, roleID := range roleIDs {
		if _, err := service.rbacStore.FindRoleByID(context, roleID); err != nil {
			return err
		}
	}

	if err := service.rbacStore.SyncPrincipalRoles(context, access.App(app.ID), roleIDs); err != nil {
		return err
	}

	return service.WriteCache(context, app)
}

// SyncPermissions replaces the application's direct permission grants.
func (service *Service) SyncPermissions(context context.Context, id string, permissionIDs []string) error {
	app, err := service.store.FindByID(context, id)
	if err != nil {
		return err
	}

	for _, permissionID := range permissionIDs {
		if _, err := service.rbacStore.FindPermissionByID(context, permissionID); err != nil {
			return err
		}
	}

	if err := service.rbacStore.SyncPrincipalPermissions(context, access.App(app.ID), permissionIDs); err != nil {
		return err
	}

	return service.WriteCache(context, app)
}

// WriteCache resolves the application's grants and writes its authorization
// entry. App entries carry no profile block.
func (service *Service) WriteCache(context context.Context, app *App) error {
	grants, err := service.resolver.Grants(context, access.App(app.ID))
	if err != nil {
		return err
	}

	return service.cache.WriteApp(context, authcache.Entry{
		ID:          app.ID,
		Permissions: grants.Permissions,
		Roles:       grants.Roles,
	})
}
