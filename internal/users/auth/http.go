// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

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
)

// Handler implements the authentication endpoints.
type Handler struct {
	authService *Service
	grants      middleware.GrantSource
}

// NewHandler constructs a new [Handler] with its dependencies.
func NewHandler(service *Service, grants middleware.GrantSource) *Handler {
	return &Handler{authService: service, grants: grants}
}

// Routes returns a [chi.Router] configured with the authentication routes.
//
// # Endpoints
//   - POST /register                    : Shopper self-registration, returns tokens.
//   - POST /login                       : Credential exchange.
//   - POST /logout                      : Drops the presented session.
//   - POST /refresh                     : Fresh pair for the authenticated user.
//   - POST /check                       : Liveness probe for a held token.
//   - POST /generate-token              : Supervised impersonation.
//   - POST /validate-email              : Identifier to contact identity lookup.
//   - POST /forgot-password             : Starts the WhatsApp reset flow.
//   - POST /validate-token-notification : Pre-validates a delivered code.
//   - POST /reset-password              : Consumes a code and rotates the password.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()

	router.Post("/register", handler.register)
	router.Post("/login", handler.login)
	router.Post("/forgot-password", handler.forgotPassword)
	router.Post("/validate-token-notification", handler.validateResetToken)
	router.Post("/reset-password", handler.resetPassword)

	router.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth)
		r.Post("/logout", handler.logout)
		r.Post("/refresh", handler.refresh)
		r.Post("/check", handler.check)
		r.With(middleware.RequirePermissions(handler.grants, PermGenerateToken)).
			Post("/generate-token", handler.generateToken)
		r.With(middleware.RequirePermissions(handler.grants, PermValidateEmail)).
			Post("/validate-email", handler.validateEmail)
	})

	return router
}

// # Request Payloads

type registerRequest struct {
	Email          string                `json:"email"`
	Phone          string                `json:"phone"`
	Password       string                `json:"password"`
	Name           string                `json:"name"`
	Lastname       string                `json:"lastname"`
	SecondLastname string                `json:"second_lastname"`
	Profile        *shopper.ProfileInput `json:"profile"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type generateTokenRequest struct {
	Phone string `json:"phone"`
	Email string `json:"email"`
}

type usernameRequest struct {
	Username string `json:"username"`
}

type validateResetTokenRequest struct {
	Token    string `json:"token"`
	Username string `json:"username"`
}

type resetPasswordRequest struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}

type forgotPasswordResponse struct {
	Phone string `json:"phone"`
}

// # Interactive Flows

/*
Register enrolls a new shopper and returns a signed token pair.

POST /api/v1/auth/register

Response:
  - 201: sec.TokenPair
  - 409: ErrConflict: Email or phone already registered
*/
func (handler *Handler) register(writer http.ResponseWriter, request *http.Request) {
	var input registerRequest

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

	pair, err := handler.authService.Register(request.Context(), shopper.RegisterInput{
		Email:          input.Email,
		Phone:          input.Phone,
		Password:       input.Password,
		Name:           input.Name,
		Lastname:       input.Lastname,
		SecondLastname: input.SecondLastname,
		Profile:        input.Profile,
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Created(writer, pair)
}

/*
Login exchanges credentials for a signed token pair.

POST /api/v1/auth/login

Response:
  - 200: sec.TokenPair
  - 400: The credentials do not match our records.
*/
func (handler *Handler) login(writer http.ResponseWriter, request *http.Request) {
	var input loginRequest

	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	validator := &validate.Validator{}
	validator.Required(FieldUsername, input.Username).
		Required(FieldPassword, input.Password)

	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	pair, err := handler.authService.Login(request.Context(), input.Username, input.Password)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, pair)
}

/*
Logout drops the ledger row behind the presented token.

POST /api/v1/auth/logout

Response:
  - 204: No Content
*/
func (handler *Handler) logout(writer http.ResponseWriter, request *http.Request) {
	claims := ctxutil.GetClaims(request.Context())
	if claims == nil {
		respond.Error(writer, request, apperr.Unauthorized("Authentication required"))
		return
	}

	if err := handler.authService.Logout(request.Context(), claims); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.NoContent(writer)
}

/*
Refresh issues a fresh token pair for the authenticated user.

POST /api/v1/auth/refresh
*/
func (handler *Handler) refresh(writer http.ResponseWriter, request *http.Request) {
	claims := ctxutil.GetClaims(request.Context())
	if claims == nil {
		respond.Error(writer, request, apperr.Unauthorized("Authentication required"))
		return
	}

	pair, err := handler.authService.Refresh(request.Context(), claims)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, pair)
}

/*
Check confirms the presented token authenticates a live account.

POST /api/v1/auth/check

Response:
  - 204: No Content
*/
func (handler *Handler) check(writer http.ResponseWriter, request *http.Request) {
	respond.NoContent(writer)
}

/*
GenerateToken issues a token pair for the account matching the exact phone
and email combination.

POST /api/v1/auth/generate-token
*/
func (handler *Handler) generateToken(writer http.ResponseWriter, request *http.Request) {
	var input generateTokenRequest

	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	validator := &validate.Validator{}
	validator.Required(FieldPhone, input.Phone).
		Required(FieldEmail, input.Email).
		Email(FieldEmail, input.Email)

	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	pair, err := handler.authService.GenerateToken(request.Context(), input.Phone, input.Email)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, pair)
}

/*
ValidateEmail resolves an identifier to its contact identity.

POST /api/v1/auth/validate-email

Response:
  - 200: EmailIdentity
  - 404: ErrNotFound: Unknown identifier
*/
func (handler *Handler) validateEmail(writer http.ResponseWriter, request *http.Request) {
	var input usernameRequest

	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	validator := &validate.Validator{}
	validator.Required(FieldUsername, input.Username)

	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	identity, err := handler.authService.ValidateEmail(request.Context(), input.Username)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, identity)
}

// # Password Reset Flow

/*
ForgotPassword starts the reset flow and responds with the masked target
phone.

POST /api/v1/auth/forgot-password
*/
func (handler *Handler) forgotPassword(writer http.ResponseWriter, request *http.Request) {
	var input usernameRequest

	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	validator := &validate.Validator{}
	validator.Required(FieldUsername, input.Username)

	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	masked, err := handler.authService.ForgotPassword(request.Context(), input.Username)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, forgotPasswordResponse{Phone: masked})
}

/*
ValidateResetToken pre-validates a delivered code so the client can move to
the password screen before consuming it.

POST /api/v1/auth/validate-token-notification

Response:
  - 204: No Content
  - 400: The token is invalid.
*/
func (handler *Handler) validateResetToken(writer http.ResponseWriter, request *http.Request) {
	var input validateResetTokenRequest

	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	validator := &validate.Validator{}
	validator.Required(FieldToken, input.Token).
		Required(FieldUsername, input.Username)

	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	err := handler.authService.ValidateResetToken(request.Context(), input.Token, input.Username)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.NoContent(writer)
}

/*
ResetPassword consumes a code, rotates the password, and signs the user in.

POST /api/v1/auth/reset-password

Response:
  - 200: sec.TokenPair
  - 400: The token is invalid.
*/
func (handler *Handler) resetPassword(writer http.ResponseWriter, request *http.Request) {
	var input resetPasswordRequest

	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	validator := &validate.Validator{}
	validator.Required(FieldToken, input.Token).
		Required(FieldPassword, input.Password).
		MinLen(FieldPassword, input.Password, 8)

	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	pair, err := handler.authService.ResetPassword(request.Context(), input.Token, input.Password)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, pair)
}
