// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package account

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/yomira-identity/internal/platform/apperr"
	"github.com/taibuivan/yomira-identity/internal/platform/ctxutil"
	"github.com/taibuivan/yomira-identity/internal/platform/middleware"
	requestutil "github.com/taibuivan/yomira-identity/internal/platform/request"
	"github.com/taibuivan/yomira-identity/internal/platform/respond"
	"github.com/taibuivan/yomira-identity/internal/platform/validate"
	"github.com/taibuivan/yomira-identity/internal/users/shopper"
	"github.com/taibuivan/yomira-identity/internal/users/user"
)

// Handler implements the self-service endpoints.
type Handler struct {
	accountService *Service
	grants         middleware.GrantSource
}

// NewHandler constructs a new [Handler] with its dependencies.
func NewHandler(service *Service, grants middleware.GrantSource) *Handler {
	return &Handler{accountService: service, grants: grants}
}

// Routes returns a [chi.Router] configured with the self-service routes.
//
// # Endpoints
//   - GET    /                 : Authenticated user with profile and devices.
//   - PUT    /                 : Full profile merge.
//   - PATCH  /                 : Partial profile merge.
//   - PUT    /account          : Identity fields (names).
//   - PUT    /auth             : Contact identifiers (email, phone).
//   - POST   /update-password  : Self-service password rotation.
//   - GET    /permissions      : Effective permission set.
//   - GET    /roles            : Role assignments.
//   - GET    /devices          : Registered handsets.
//   - POST   /devices          : Registers a handset.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()
	router.Use(middleware.RequireAuth)

	router.Get("/", handler.me)
	router.With(middleware.RequirePermissions(handler.grants, shopper.PermUpdateProfile)).
		Put("/", handler.updateProfile)
	router.With(middleware.RequirePermissions(handler.grants, shopper.PermUpdateProfile)).
		Patch("/", handler.updateProfile)
	router.Put("/account", handler.updateAccount)
	router.Put("/auth", handler.updateAuth)
	router.Post("/update-password", handler.updatePassword)
	router.Get("/permissions", handler.permissions)
	router.Get("/roles", handler.roles)
	router.Get("/devices", handler.devices)
	router.Post("/devices", handler.registerDevice)

	return router
}

// principalID extracts the authenticated user's ID, rejecting app tokens.
// Machine principals have no profile, devices, or password to manage.
func principalID(request *http.Request) (string, error) {
	claims := ctxutil.GetClaims(request.Context())
	if claims == nil || claims.IsApp() {
		return "", apperr.Unauthorized("Authentication required")
	}
	return claims.ID, nil
}

// # Request Payloads

type accountRequest struct {
	Name           *string `json:"name"`
	Lastname       *string `json:"lastname"`
	SecondLastname *string `json:"second_lastname"`
}

type authRequest struct {
	Email *string `json:"email"`
	Phone *string `json:"phone"`
}

type updatePasswordRequest struct {
	Password string `json:"password"`
}

// # Handlers

/*
Me returns the authenticated user.

GET /api/v1/account
*/
func (handler *Handler) me(writer http.ResponseWriter, request *http.Request) {
	id, err := principalID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	me, err := handler.accountService.Me(request.Context(), id)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, me)
}

/*
UpdateProfile merges profile fields for the authenticated user.

PUT|PATCH /api/v1/account
*/
func (handler *Handler) updateProfile(writer http.ResponseWriter, request *http.Request) {
	id, err := principalID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input shopper.ProfileInput
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	me, err := handler.accountService.UpdateProfile(request.Context(), id, input)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, me)
}

/*
UpdateAccount applies name changes for the authenticated user.

PUT /api/v1/account/account
*/
func (handler *Handler) updateAccount(writer http.ResponseWriter, request *http.Request) {
	id, err := principalID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input accountRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	me, err := handler.accountService.UpdateIdentity(request.Context(), id, user.UpdateInput{
		Name:           input.Name,
		Lastname:       input.Lastname,
		SecondLastname: input.SecondLastname,
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, me)
}

/*
UpdateAuth applies contact identifier changes for the authenticated user.

PUT /api/v1/account/auth
*/
func (handler *Handler) updateAuth(writer http.ResponseWriter, request *http.Request) {
	id, err := principalID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input authRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	validator := &validate.Validator{}
	if input.Email != nil {
		validator.Email(user.FieldEmail, *input.Email)
	}
	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	me, err := handler.accountService.UpdateIdentity(request.Context(), id, user.UpdateInput{
		Email: input.Email,
		Phone: input.Phone,
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, me)
}

/*
UpdatePassword rotates the authenticated user's password.

POST /api/v1/account/update-password

Response:
  - 204: No Content
*/
func (handler *Handler) updatePassword(writer http.ResponseWriter, request *http.Request) {
	id, err := principalID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input updatePasswordRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	validator := &validate.Validator{}
	validator.Required(FieldPassword, input.Password).
		MinLen(FieldPassword, input.Password, 8)

	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.accountService.UpdatePassword(request.Context(), id, input.Password); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.NoContent(writer)
}

/*
Permissions returns the authenticated user's effective permission set.

GET /api/v1/account/permissions
*/
func (handler *Handler) permissions(writer http.ResponseWriter, request *http.Request) {
	id, err := principalID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	permissions, err := handler.accountService.Permissions(request.Context(), id)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, permissions)
}

/*
Roles returns the authenticated user's role assignments.

GET /api/v1/account/roles
*/
func (handler *Handler) roles(writer http.ResponseWriter, request *http.Request) {
	id, err := principalID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	roles, err := handler.accountService.Roles(request.Context(), id)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, roles)
}

/*
Devices returns the authenticated user's registered handsets.

GET /api/v1/account/devices
*/
func (handler *Handler) devices(writer http.ResponseWriter, request *http.Request) {
	id, err := principalID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	devices, err := handler.accountService.Devices(request.Context(), id)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	if devices == nil {
		devices = []user.Device{}
	}
	respond.OK(writer, devices)
}

/*
RegisterDevice records a new handset for the authenticated user.

POST /api/v1/account/devices

Response:
  - 201: user.Device: Created entity
*/
func (handler *Handler) registerDevice(writer http.ResponseWriter, request *http.Request) {
	id, err := principalID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input DeviceInput
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	validator := &validate.Validator{}
	validator.Required(FieldDeviceID, input.DeviceID)

	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	device, err := handler.accountService.RegisterDevice(request.Context(), id, input)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Created(writer, device)
}
