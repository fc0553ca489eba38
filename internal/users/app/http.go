// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package app

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/yomira-identity/internal/platform/middleware"
	requestutil "github.com/taibuivan/yomira-identity/internal/platform/request"
	"github.com/taibuivan/yomira-identity/internal/platform/respond"
	"github.com/taibuivan/yomira-identity/internal/platform/validate"
	"github.com/taibuivan/yomira-identity/pkg/pagination"
)

// Handler implements the application management endpoints.
type Handler struct {
	appService *Service
	grants     middleware.GrantSource
}

// NewHandler constructs a new [Handler] with its dependencies.
func NewHandler(service *Service, grants middleware.GrantSource) *Handler {
	return &Handler{appService: service, grants: grants}
}

// Routes returns a [chi.Router] configured with the application routes.
//
// # Endpoints
//   - GET    /                       : Paginated application listing.
//   - POST   /                       : Registers an application.
//   - GET    /{id}                   : Application detail.
//   - PUT    /{id}                   : Updates name and description.
//   - DELETE /{id}                   : Removes the application and its grants.
//   - POST   /{id}/generate-token    : Issues a fresh credential.
//   - GET    /{id}/permissions       : Direct and effective permission sets.
//   - POST   /{id}/sync-permissions  : Replaces direct grants.
//   - POST   /{id}/sync-roles        : Replaces role assignments.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()
	router.Use(middleware.RequireAuth)

	gate := func(permission string) func(http.Handler) http.Handler {
		return middleware.RequirePermissions(handler.grants, permission)
	}

	router.With(gate(PermList)).Get("/", handler.list)
	router.With(gate(PermCreate)).Post("/", handler.create)
	router.With(gate(PermDetail)).Get("/{id}", handler.get)
	router.With(gate(PermUpdate)).Put("/{id}", handler.update)
	router.With(gate(PermDelete)).Delete("/{id}", handler.delete)
	router.With(gate(PermGenerateToken)).Post("/{id}/generate-token", handler.generateToken)
	router.With(gate(PermPermissions)).Get("/{id}/permissions", handler.permissions)
	router.With(gate(PermPermissions)).Post("/{id}/sync-permissions", handler.syncPermissions)
	router.With(gate(PermRoles)).Post("/{id}/sync-roles", handler.syncRoles)

	return router
}

// # Request Payloads

type appRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type syncPermissionsRequest struct {
	Permissions []string `json:"permissions"`
}

type syncRolesRequest struct {
	Roles []string `json:"roles"`
}

// # Handlers

/*
List returns one page of applications.

GET /api/v1/apps

Request:
  - Query: page, per_page, q (matches id and name)
*/
func (handler *Handler) list(writer http.ResponseWriter, request *http.Request) {
	params := pagination.FromRequest(request)
	search := request.URL.Query().Get("q")

	apps, total, err := handler.appService.List(request.Context(), params, search)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Paginated(writer, apps, pagination.NewMeta(params.Page, params.PerPage, total))
}

/*
Create registers a new application.

POST /api/v1/apps

Response:
  - 201: App: Created entity
  - 409: ErrConflict: Name already in use
*/
func (handler *Handler) create(writer http.ResponseWriter, request *http.Request) {
	var input appRequest

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

	app, err := handler.appService.Create(request.Context(), input.Name, input.Description)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Created(writer, app)
}

/*
Get returns an application detail.

GET /api/v1/apps/{id}
*/
func (handler *Handler) get(writer http.ResponseWriter, request *http.Request) {
	app, err := handler.appService.Get(request.Context(), requestutil.ID(request, "id"))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, app)
}

/*
Update changes an application's name and description.

PUT /api/v1/apps/{id}
*/
func (handler *Handler) update(writer http.ResponseWriter, request *http.Request) {
	var input appRequest

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

	app, err := handler.appService.Update(request.Context(), requestutil.ID(request, "id"), input.Name, input.Description)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, app)
}

/*
Delete removes an application, its grants, and its cache entry.

DELETE /api/v1/apps/{id}

Response:
  - 204: No Content
*/
func (handler *Handler) delete(writer http.ResponseWriter, request *http.Request) {
	if err := handler.appService.Delete(request.Context(), requestutil.ID(request, "id")); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.NoContent(writer)
}

/*
GenerateToken issues a fresh long-lived credential.

POST /api/v1/apps/{id}/generate-token

Response:
  - 200: App: Entity carrying the new token
*/
func (handler *Handler) generateToken(writer http.ResponseWriter, request *http.Request) {
	app, err := handler.appService.GenerateToken(request.Context(), requestutil.ID(request, "id"))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, app)
}

/*
Permissions returns the direct and effective permission sets.

GET /api/v1/apps/{id}/permissions
*/
func (handler *Handler) permissions(writer http.ResponseWriter, request *http.Request) {
	sets, err := handler.appService.Permissions(request.Context(), requestutil.ID(request, "id"))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, sets)
}

/*
SyncPermissions replaces the application's direct grants.

POST /api/v1/apps/{id}/sync-permissions

Response:
  - 204: No Content
*/
func (handler *Handler) syncPermissions(writer http.ResponseWriter, request *http.Request) {
	var input syncPermissionsRequest

	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	err := handler.appService.SyncPermissions(request.Context(), requestutil.ID(request, "id"), input.Permissions)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.NoContent(writer)
}

/*
SyncRoles replaces the application's role assignments.

POST /api/v1/apps/{id}/sync-roles

Response:
  - 204: No Content
*/
func (handler *Handler) syncRoles(writer http.ResponseWriter, request *http.Request) {
	var input syncRolesRequest

	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	err := handler.appService.SyncRoles(request.Context(), requestutil.ID(request, "id"), input.Roles)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.NoContent(writer)
}
