// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package user

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/yomira-identity/internal/platform/middleware"
	requestutil "github.com/taibuivan/yomira-identity/internal/platform/request"
	"github.com/taibuivan/yomira-identity/internal/platform/respond"
	"github.com/taibuivan/yomira-identity/internal/platform/validate"
	"github.com/taibuivan/yomira-identity/pkg/pagination"
)

// Handler implements the administrative user management endpoints.
type Handler struct {
	userService *Service
	grants      middleware.GrantSource
}

// NewHandler constructs a new [Handler] with its dependencies.
func NewHandler(service *Service, grants middleware.GrantSource) *Handler {
	return &Handler{userService: service, grants: grants}
}

// Routes returns a [chi.Router] configured with the user administration routes.
//
// # Endpoints
//   - GET    /                       : Paginated user listing.
//   - GET    /trash                  : Paginated soft-deleted listing.
//   - POST   /                       : Creates a user.
//   - GET    /{id}                   : User detail with profile and devices.
//   - GET    /aq/{id}                : Lookup by origination system ID.
//   - PUT    /{id}                   : Updates identity fields.
//   - PUT    /{id}/password          : Administrative password reset.
//   - GET    /{id}/devices           : Registered handsets.
//   - GET    /{id}/permissions       : Direct and effective permission sets.
//   - POST   /{id}/sync-permissions  : Replaces direct grants.
//   - POST   /{id}/sync-roles        : Replaces role assignments.
//   - POST   /{id}/activate          : Raises the activation flag.
//   - DELETE /{id}/activate          : Lowers the activation flag.
//   - DELETE /{id}                   : Soft delete.
//   - POST   /{id}/restore           : Reinstates a soft-deleted account.
//   - DELETE /{id}/hard              : Permanent removal.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()
	router.Use(middleware.RequireAuth)

	gate := func(permission string) func(http.Handler) http.Handler {
		return middleware.RequirePermissions(handler.grants, permission)
	}

	router.With(gate(PermList)).Get("/", handler.list)
	router.With(gate(PermList)).Get("/trash", handler.listTrash)
	router.With(gate(PermCreate)).Post("/", handler.create)
	router.With(gate(PermDetail)).Get("/{id}", handler.get)
	router.With(gate(PermDetail)).Get("/aq/{id}", handler.getByAqID)
	router.With(gate(PermUpdate)).Put("/{id}", handler.update)
	router.With(gate(PermUpdatePassword)).Put("/{id}/password", handler.updatePassword)
	router.With(gate(PermDetail)).Get("/{id}/devices", handler.listDevices)
	router.With(gate(PermDetail)).Get("/{id}/permissions", handler.permissions)
	router.With(gate(PermPermissions)).Post("/{id}/sync-permissions", handler.syncPermissions)
	router.With(gate(PermRoles)).Post("/{id}/sync-roles", handler.syncRoles)
	router.With(gate(PermActivate)).Post("/{id}/activate", handler.activate)
	router.With(gate(PermActivate)).Delete("/{id}/activate", handler.deactivate)
	router.With(gate(PermSoftDelete)).Delete("/{id}", handler.softDelete)
	router.With(gate(PermRestore)).Post("/{id}/restore", handler.restore)
	router.With(gate(PermDelete)).Delete("/{id}/hard", handler.hardDelete)

	return router
}

// # Request Payloads

type createRequest struct {
	Email          string `json:"email"`
	Phone          string `json:"phone"`
	Password       string `json:"password"`
	Name           string `json:"name"`
	Lastname       string `json:"lastname"`
	SecondLastname string `json:"second_lastname"`
	RoleID         string `json:"role_id"`
}

type updateRequest struct {
	Email          *string `json:"email"`
	Phone          *string `json:"phone"`
	Name           *string `json:"name"`
	Lastname       *string `json:"lastname"`
	SecondLastname *string `json:"second_lastname"`
}

type updatePasswordRequest struct {
	Password string `json:"password"`
}

type syncPermissionsRequest struct {
	Permissions []string `json:"permissions"`
}

type syncRolesRequest struct {
	Roles []string `json:"roles"`
}

// # Listing

/*
List returns one page of active users.

GET /api/v1/users

Request:
  - Query: page, per_page, q (matches id, email, phone, names, CURP, RFC)
*/
func (handler *Handler) list(writer http.ResponseWriter, request *http.Request) {
	handler.listScoped(writer, request, ScopeActive)
}

/*
ListTrash returns one page of soft-deleted users.

GET /api/v1/users/trash
*/
func (handler *Handler) listTrash(writer http.ResponseWriter, request *http.Request) {
	handler.listScoped(writer, request, ScopeDeletedOnly)
}

func (handler *Handler) listScoped(writer http.ResponseWriter, request *http.Request, scope Scope) {
	params := pagination.FromRequest(request)
	search := request.URL.Query().Get("q")

	users, total, err := handler.userService.List(request.Context(), params, search, scope)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Paginated(writer, users, pagination.NewMeta(params.Page, params.PerPage, total))
}

/*
Create registers a new user account administratively.

POST /api/v1/users

Response:
  - 201: User: Created entity
  - 409: ErrConflict: Email or phone already registered
*/
func (handler *Handler) create(writer http.ResponseWriter, request *http.Request) {
	var input createRequest

	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	validator := &validate.Validator{}
	validator.Required(FieldEmail, input.Email).
		Email(FieldEmail, input.Email).
		Required(FieldPhone, input.Phone).
		Phone(FieldPhone, input.Phone).
		Required(FieldPassword, input.Password).
		MinLen(FieldPassword, input.Password, 8)

	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	user, err := handler.userService.Create(request.Context(), CreateInput{
		Email:          input.Email,
		Phone:          input.Phone,
		Password:       input.Password,
		Name:           input.Name,
		Lastname:       input.Lastname,
		SecondLastname: input.SecondLastname,
		RoleID:         input.RoleID,
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Created(writer, user)
}

// # Detail & Updates

/*
Get returns a user detail with profile and devices.

GET /api/v1/users/{id}
*/
func (handler *Handler) get(writer http.ResponseWriter, request *http.Request) {
	user, err := handler.userService.Get(request.Context(), requestutil.ID(request, "id"), ScopeActive)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, user)
}

/*
GetByAqID returns a user by its external origination system ID.

GET /api/v1/users/aq/{id}
*/
func (handler *Handler) getByAqID(writer http.ResponseWriter, request *http.Request) {
	aqID, err := strconv.ParseInt(requestutil.ID(request, "id"), 10, 64)
	if err != nil {
		respond.Error(writer, request, validate.RequiredError("id", "must be an integer"))
		return
	}

	user, err := handler.userService.GetByAqID(request.Context(), aqID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, user)
}

/*
Update applies allow-listed identity changes.

PUT /api/v1/users/{id}
*/
func (handler *Handler) update(writer http.ResponseWriter, request *http.Request) {
	var input updateRequest

	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	validator := &validate.Validator{}
	if input.Email != nil {
		validator.Email(FieldEmail, *input.Email)
	}
	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	user, err := handler.userService.Update(request.Context(), requestutil.ID(request, "id"), UpdateInput{
		Email:          input.Email,
		Phone:          input.Phone,
		Name:           input.Name,
		Lastname:       input.Lastname,
		SecondLastname: input.SecondLastname,
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, user)
}

/*
UpdatePassword performs an administrative password reset.

PUT /api/v1/users/{id}/password

Response:
  - 204: No Content: Password replaced and flagged for rotation
*/
func (handler *Handler) updatePassword(writer http.ResponseWriter, request *http.Request) {
	var input updatePasswordRequest

	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	validator := &validate.Validator{}
	validator.Required(FieldPassword, input.Password).MinLen(FieldPassword, input.Password, 8)

	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	err := handler.userService.UpdatePassword(request.Context(), requestutil.ID(request, "id"), input.Password, true)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.NoContent(writer)
}

// # Satellites & Grants

/*
ListDevices returns the handsets registered to a user.

GET /api/v1/users/{id}/devices
*/
func (handler *Handler) listDevices(writer http.ResponseWriter, request *http.Request) {
	user, err := handler.userService.Get(request.Context(), requestutil.ID(request, "id"), ScopeActive)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	devices := user.Devices
	if devices == nil {
		devices = []Device{}
	}
	respond.OK(writer, devices)
}

/*
Permissions returns the direct and effective permission sets of a user.

GET /api/v1/users/{id}/permissions
*/
func (handler *Handler) permissions(writer http.ResponseWriter, request *http.Request) {
	sets, err := handler.userService.Permissions(request.Context(), requestutil.ID(request, "id"))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, sets)
}

/*
SyncPermissions replaces a user's direct permission grants.

POST /api/v1/users/{id}/sync-permissions

Response:
  - 204: No Content: Grant set replaced
*/
func (handler *Handler) syncPermissions(writer http.ResponseWriter, request *http.Request) {
	var input syncPermissionsRequest

	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	err := handler.userService.SyncPermissions(request.Context(), requestutil.ID(request, "id"), input.Permissions)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.NoContent(writer)
}

/*
SyncRoles replaces a user's role assignments.

POST /api/v1/users/{id}/sync-roles
*/
func (handler *Handler) syncRoles(writer http.ResponseWriter, request *http.Request) {
	var input syncRolesRequest

	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	err := handler.userService.SyncRoles(request.Context(), requestutil.ID(request, "id"), input.Roles)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.NoContent(writer)
}

// # Lifecycle

/*
Activate raises the onboarding activation flag.

POST /api/v1/users/{id}/activate
*/
func (handler *Handler) activate(writer http.ResponseWriter, request *http.Request) {
	if err := handler.userService.Activate(request.Context(), requestutil.ID(request, "id")); err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.NoContent(writer)
}

/*
Deactivate lowers the onboarding activation flag.

DELETE /api/v1/users/{id}/activate
*/
func (handler *Handler) deactivate(writer http.ResponseWriter, request *http.Request) {
	if err := handler.userService.Deactivate(request.Context(), requestutil.ID(request, "id")); err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.NoContent(writer)
}

/*
SoftDelete marks an account deleted.

DELETE /api/v1/users/{id}

Response:
  - 204: No Content: Account hidden and cache entry evicted
  - 403: ErrProtected: Root-role holders cannot be deleted
*/
func (handler *Handler) softDelete(writer http.ResponseWriter, request *http.Request) {
	if err := handler.userService.SoftDelete(request.Context(), requestutil.ID(request, "id")); err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.NoContent(writer)
}

/*
Restore reinstates a soft-deleted account.

POST /api/v1/users/{id}/restore
*/
func (handler *Handler) restore(writer http.ResponseWriter, request *http.Request) {
	if err := handler.userService.Restore(request.Context(), requestutil.ID(request, "id")); err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.NoContent(writer)
}

/*
HardDelete permanently removes an account.

DELETE /api/v1/users/{id}/hard
*/
func (handler *Handler) hardDelete(writer http.ResponseWriter, request *http.Request) {
	if err := handler.userService.HardDelete(request.Context(), requestutil.ID(request, "id")); err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.NoContent(writer)
}
