// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package rbac

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/yomira-identity/internal/access"
	"github.com/taibuivan/yomira-identity/internal/platform/middleware"
	requestutil "github.com/taibuivan/yomira-identity/internal/platform/request"
	"github.com/taibuivan/yomira-identity/internal/platform/respond"
	"github.com/taibuivan/yomira-identity/internal/platform/validate"
	"github.com/taibuivan/yomira-identity/pkg/pagination"
)

// Handler implements the role and permission administration endpoints.
//
// # Scope
//
// Read endpoints are gated by the matching list/detail permissions; every
// mutation requires the root role.
type Handler struct {
	rbacService *Service
	grants      middleware.GrantSource
}

// NewHandler constructs a new [Handler] with its dependencies.
func NewHandler(service *Service, grants middleware.GrantSource) *Handler {
	return &Handler{rbacService: service, grants: grants}
}

// Routes returns a [chi.Router] configured with the RBAC administration routes.
//
// # Endpoints
//   - GET    /roles                       : Paginated role listing.
//   - GET    /roles/list                  : Full role listing for pickers.
//   - POST   /role                        : Creates a role.
//   - GET    /role/{id}                   : Role detail with permissions.
//   - PUT    /role/{id}                   : Renames a role.
//   - POST   /role/{id}/sync-permissions  : Replaces a role's permission set.
//   - DELETE /role/{id}                   : Deletes a role.
//
// The /permissions and /permission endpoints mirror the role surface.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()
	router.Use(middleware.RequireAuth)

	router.With(middleware.RequirePermissions(handler.grants, PermRoleList)).
		Get("/roles", handler.listRoles)
	router.With(middleware.RequirePermissions(handler.grants, PermRoleList)).
		Get("/roles/list", handler.listAllRoles)
	router.With(middleware.RequirePermissions(handler.grants, PermRoleDetail)).
		Get("/role/{id}", handler.getRole)

	router.With(middleware.RequirePermissions(handler.grants, PermPermissionList)).
		Get("/permissions", handler.listPermissions)
	router.With(middleware.RequirePermissions(handler.grants, PermPermissionList)).
		Get("/permissions/list", handler.listAllPermissions)
	router.With(middleware.RequirePermissions(handler.grants, PermPermissionDetail)).
		Get("/permission/{id}", handler.getPermission)

	// Mutations reshape the access model itself and are reserved for root.
	router.Group(func(r chi.Router) {
		r.Use(middleware.RequireRoles(handler.grants, access.RoleRoot))

		r.Post("/role", handler.createRole)
		r.Put("/role/{id}", handler.updateRole)
		r.Post("/role/{id}/sync-permissions", handler.syncRolePermissions)
		r.Delete("/role/{id}", handler.deleteRole)

		r.Post("/permission", handler.createPermission)
		r.Put("/permission/{id}", handler.updatePermission)
		r.Delete("/permission/{id}", handler.deletePermission)
	})

	return router
}

// # Request Payloads

type nameRequest struct {
	Name string `json:"name"`
}

type syncPermissionsRequest struct {
	Permissions []string `json:"permissions"`
}

// # Role Endpoints

/*
ListRoles returns one page of roles.

GET /api/v1/access/roles

Request:
  - Query: page, per_page, q (optional name filter)

Response:
  - 200: []Role with pagination metadata
  - 403: ErrForbidden: Missing the role listing permission
*/
func (handler *Handler) listRoles(writer http.ResponseWriter, request *http.Request) {
	params := pagination.FromRequest(request)
	search := request.URL.Query().Get("q")

	roles, total, err := handler.rbacService.ListRoles(request.Context(), params, search)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Paginated(writer, roles, pagination.NewMeta(params.Page, params.PerPage, total))
}

/*
ListAllRoles returns every role without pagination, for admin pickers.

GET /api/v1/access/roles/list
*/
func (handler *Handler) listAllRoles(writer http.ResponseWriter, request *http.Request) {
	roles, err := handler.rbacService.ListAllRoles(request.Context())
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, roles)
}

/*
GetRole returns a role detail including its attached permissions.

GET /api/v1/access/role/{id}

Response:
  - 200: Role with Permissions populated
  - 404: ErrNotFound: Unknown role
*/
func (handler *Handler) getRole(writer http.ResponseWriter, request *http.Request) {
	id := requestutil.ID(request, "id")

	role, err := handler.rbacService.GetRole(request.Context(), id)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, role)
}

/*
CreateRole registers a brand new role.

POST /api/v1/access/role

Request:
  - Body: nameRequest (Name)

Response:
  - 201: Role: Created entity
  - 409: ErrConflict: Name already in use
*/
func (handler *Handler) createRole(writer http.ResponseWriter, request *http.Request) {
	var input nameRequest

	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	validator := &validate.Validator{}
	validator.Required(FieldName, input.Name).MinLen(FieldName, input.Name, 2)

	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	role, err := handler.rbacService.CreateRole(request.Context(), input.Name)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Created(writer, role)
}

/*
UpdateRole renames an existing role.

PUT /api/v1/access/role/{id}

Response:
  - 200: Role: Updated entity
  - 403: ErrProtected: The root role cannot be modified
  - 404: ErrNotFound: Unknown role
*/
func (handler *Handler) updateRole(writer http.ResponseWriter, request *http.Request) {
	id := requestutil.ID(request, "id")

	var input nameRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	validator := &validate.Validator{}
	validator.Required(FieldName, input.Name).MinLen(FieldName, input.Name, 2)

	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	role, err := handler.rbacService.UpdateRole(request.Context(), id, input.Name)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, role)
}

/*
SyncRolePermissions replaces a role's permission set with the given IDs.

POST /api/v1/access/role/{id}/sync-permissions

Request:
  - Body: syncPermissionsRequest (Permissions: permission IDs)

Response:
  - 204: No Content: Set replaced
  - 404: ErrNotFound: Unknown role or permission ID
*/
func (handler *Handler) syncRolePermissions(writer http.ResponseWriter, request *http.Request) {
	id := requestutil.ID(request, "id")

	var input syncPermissionsRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	if err := handler.rbacService.SyncRolePermissions(request.Context(), id, input.Permissions); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.NoContent(writer)
}

/*
DeleteRole removes a role and every assignment referencing it.

DELETE /api/v1/access/role/{id}

Response:
  - 204: No Content: Role deleted
  - 403: ErrProtected: Fixed roles cannot be deleted
  - 404: ErrNotFound: Unknown role
*/
func (handler *Handler) deleteRole(writer http.ResponseWriter, request *http.Request) {
	id := requestutil.ID(request, "id")

	if err := handler.rbacService.DeleteRole(request.Context(), id); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.NoContent(writer)
}

// # Permission Endpoints

/*
ListPermissions returns one page of permissions.

GET /api/v1/access/permissions

Request:
  - Query: page, per_page, q (optional name filter)
*/
func (handler *Handler) listPermissions(writer http.ResponseWriter, request *http.Request) {
	params := pagination.FromRequest(request)
	search := request.URL.Query().Get("q")

	permissions, total, err := handler.rbacService.ListPermissions(request.Context(), params, search)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Paginated(writer, permissions, pagination.NewMeta(params.Page, params.PerPage, total))
}

/*
ListAllPermissions returns every permission without pagination.

GET /api/v1/access/permissions/list
*/
func (handler *Handler) listAllPermissions(writer http.ResponseWriter, request *http.Request) {
	permissions, err := handler.rbacService.ListAllPermissions(request.Context())
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, permissions)
}

/*
GetPermission returns a single permission detail.

GET /api/v1/access/permission/{id}
*/
func (handler *Handler) getPermission(writer http.ResponseWriter, request *http.Request) {
	id := requestutil.ID(request, "id")

	permission, err := handler.rbacService.GetPermission(request.Context(), id)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, permission)
}

/*
CreatePermission registers a brand new permission.

POST /api/v1/access/permission

Response:
  - 201: Permission: Created entity
  - 409: ErrConflict: Name already in use
*/
func (handler *Handler) createPermission(writer http.ResponseWriter, request *http.Request) {
	var input nameRequest

	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	validator := &validate.Validator{}
	validator.Required(FieldName, input.Name).MinLen(FieldName, input.Name, 2)

	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	permission, err := handler.rbacService.CreatePermission(request.Context(), input.Name)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Created(writer, permission)
}

/*
UpdatePermission renames an existing permission.

PUT /api/v1/access/permission/{id}

Response:
  - 200: Permission: Updated entity
  - 404: ErrNotFound: Unknown permission
*/
func (handler *Handler) updatePermission(writer http.ResponseWriter, request *http.Request) {
	id := requestutil.ID(request, "id")

	var input nameRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	validator := &validate.Validator{}
	validator.Required(FieldName, input.Name).MinLen(FieldName, input.Name, 2)

	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	permission, err := handler.rbacService.UpdatePermission(request.Context(), id, input.Name)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, permission)
}

/*
DeletePermission removes a permission and every grant referencing it.

DELETE /api/v1/access/permission/{id}

Response:
  - 204: No Content: Permission deleted
  - 403: ErrProtected: Fixed permissions cannot be deleted
  - 404: ErrNotFound: Unknown permission
*/
func (handler *Handler) deletePermission(writer http.ResponseWriter, request *http.Request) {
	id := requestutil.ID(request, "id")

	if err := handler.rbacService.DeletePermission(request.Context(), id); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.NoContent(writer)
}
