// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package shopper

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/yomira-identity/internal/platform/middleware"
	requestutil "github.com/taibuivan/yomira-identity/internal/platform/request"
	"github.com/taibuivan/yomira-identity/internal/platform/respond"
	"github.com/taibuivan/yomira-identity/internal/platform/validate"
	"github.com/taibuivan/yomira-identity/internal/users/user"
	"github.com/taibuivan/yomira-identity/pkg/pagination"
)

// Form uploads are capped well above any phone camera output.
const maxUploadBytes = 32 << 20

// Handler implements the shopper management endpoints.
type Handler struct {
	shopperService *Service
	grants         middleware.GrantSource
}

// NewHandler constructs a new [Handler] with its dependencies.
func NewHandler(service *Service, grants middleware.GrantSource) *Handler {
	return &Handler{shopperService: service, grants: grants}
}

// Routes returns a [chi.Router] configured with the shopper routes.
//
// # Endpoints
//   - POST   /                      : Creates a shopper with profile seed.
//   - GET    /unrelated             : Shoppers without a credit line.
//   - GET    /{id}                  : Shopper detail.
//   - PUT    /{id}                  : Identity fields.
//   - PUT    /{id}/profile          : Full profile merge.
//   - PATCH  /{id}/profile          : Partial profile merge.
//   - PUT    /{id}/payment          : Credit figures from origination.
//   - PUT    /{id}/available-credit : Single-figure credit update.
//   - PUT    /{id}/payment-capacity : Single-figure capacity update.
//   - PUT    /{id}/second-credit    : Second-credit flag.
//   - POST   /{id}/files            : KYC document upload (multipart).
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()
	router.Use(middleware.RequireAuth)

	gate := func(permission string) func(http.Handler) http.Handler {
		return middleware.RequirePermissions(handler.grants, permission)
	}

	router.With(gate(PermCreate)).Post("/", handler.create)
	router.With(gate(PermList)).Get("/unrelated", handler.listUnrelated)
	router.With(gate(PermDetail)).Get("/{id}", handler.get)
	router.With(gate(PermUpdate)).Put("/{id}", handler.updateIdentity)
	router.With(gate(PermUpdateProfile)).Put("/{id}/profile", handler.updateProfile)
	router.With(gate(PermUpdateProfile)).Patch("/{id}/profile", handler.updateProfile)
	router.With(gate(PermUpdatePayment)).Put("/{id}/payment", handler.updatePayment)
	router.With(gate(PermUpdatePayment)).Put("/{id}/available-credit", handler.updateAvailableCredit)
	router.With(gate(PermUpdatePayment)).Put("/{id}/payment-capacity", handler.updatePaymentCapacity)
	router.With(gate(PermUpdatePayment)).Put("/{id}/second-credit", handler.updateSecondCredit)
	router.With(gate(PermUploadFiles)).Post("/{id}/files", handler.uploadFiles)

	return router
}

// # Request Payloads

type createRequest struct {
	Email          string        `json:"email"`
	Phone          string        `json:"phone"`
	Password       string        `json:"password"`
	Name           string        `json:"name"`
	Lastname       string        `json:"lastname"`
	SecondLastname string        `json:"second_lastname"`
	Profile        *ProfileInput `json:"profile"`
}

type identityRequest struct {
	Email          *string `json:"email"`
	Phone          *string `json:"phone"`
	Name           *string `json:"name"`
	Lastname       *string `json:"lastname"`
	SecondLastname *string `json:"second_lastname"`
}

type availableCreditRequest struct {
	AvailableCredit *float64 `json:"available_credit"`
}

type paymentCapacityRequest struct {
	PaymentCapacity *float64 `json:"payment_capacity"`
}

type secondCreditRequest struct {
	SecondCredit *bool `json:"second_credit"`
}

// # Handlers

/*
Create enrolls a new shopper.

POST /api/v1/shoppers

Response:
  - 201: user.User: Created shopper
  - 409: ErrConflict: Email or phone already registered
*/
func (handler *Handler) create(writer http.ResponseWriter, request *http.Request) {
	var input createRequest

	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	validator := &validate.Validator{}
	validator.Required(user.FieldEmail, input.Email).
		Email(user.FieldEmail, input.Email).
		Required(user.FieldPhone, input.Phone).
		Required(user.FieldPassword, input.Password).
		MinLen(user.FieldPassword, input.Password, 8)

	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	shopper, err := handler.shopperService.Register(request.Context(), RegisterInput{
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

	respond.Created(writer, shopper)
}

/*
ListUnrelated returns shoppers that have no credit line yet.

GET /api/v1/shoppers/unrelated

Request:
  - Query: page, per_page, phone, email, curp (exact matches)
*/
func (handler *Handler) listUnrelated(writer http.ResponseWriter, request *http.Request) {
	params := pagination.FromRequest(request)
	query := request.URL.Query()
	filter := UnrelatedFilter{
		Phone: query.Get("phone"),
		Email: query.Get("email"),
		CURP:  query.Get("curp"),
	}

	shoppers, total, err := handler.shopperService.ListUnrelated(request.Context(), params, filter)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Paginated(writer, shoppers, pagination.NewMeta(params.Page, params.PerPage, total))
}

/*
Get returns a shopper detail.

GET /api/v1/shoppers/{id}
*/
func (handler *Handler) get(writer http.ResponseWriter, request *http.Request) {
	shopper, err := handler.shopperService.Get(request.Context(), requestutil.ID(request, "id"))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, shopper)
}

/*
UpdateIdentity applies allow-listed identity changes.

PUT /api/v1/shoppers/{id}
*/
func (handler *Handler) updateIdentity(writer http.ResponseWriter, request *http.Request) {
	var input identityRequest

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

	shopper, err := handler.shopperService.UpdateIdentity(request.Context(), requestutil.ID(request, "id"), user.UpdateInput{
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

	respond.OK(writer, shopper)
}

/*
UpdateProfile merges profile fields. PUT and PATCH share the merge
semantics since absent fields are never cleared.

PUT|PATCH /api/v1/shoppers/{id}/profile
*/
func (handler *Handler) updateProfile(writer http.ResponseWriter, request *http.Request) {
	var input ProfileInput

	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	profile, err := handler.shopperService.UpdateProfile(request.Context(), requestutil.ID(request, "id"), input)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, profile)
}

/*
UpdatePayment merges credit figures pushed by the origination system.

PUT /api/v1/shoppers/{id}/payment
*/
func (handler *Handler) updatePayment(writer http.ResponseWriter, request *http.Request) {
	var input CreditInput

	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	handler.applyCredit(writer, request, input)
}

/*
UpdateAvailableCredit updates the available credit figure alone.

PUT /api/v1/shoppers/{id}/available-credit
*/
func (handler *Handler) updateAvailableCredit(writer http.ResponseWriter, request *http.Request) {
	var input availableCreditRequest

	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}
	if input.AvailableCredit == nil {
		respond.Error(writer, request, validate.RequiredError("available_credit", "is required"))
		return
	}

	handler.applyCredit(writer, request, CreditInput{AvailableCredit: input.AvailableCredit})
}

/*
UpdatePaymentCapacity updates the payment capacity figure alone.

PUT /api/v1/shoppers/{id}/payment-capacity
*/
func (handler *Handler) updatePaymentCapacity(writer http.ResponseWriter, request *http.Request) {
	var input paymentCapacityRequest

	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}
	if input.PaymentCapacity == nil {
		respond.Error(writer, request, validate.RequiredError("payment_capacity", "is required"))
		return
	}

	handler.applyCredit(writer, request, CreditInput{PaymentCapacity: input.PaymentCapacity})
}

/*
UpdateSecondCredit flips the second-credit flag.

PUT /api/v1/shoppers/{id}/second-credit
*/
func (handler *Handler) updateSecondCredit(writer http.ResponseWriter, request *http.Request) {
	var input secondCreditRequest

	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}
	if input.SecondCredit == nil {
		respond.Error(writer, request, validate.RequiredError("second_credit", "is required"))
		return
	}

	handler.applyCredit(writer, request, CreditInput{SecondCredit: input.SecondCredit})
}

func (handler *Handler) applyCredit(writer http.ResponseWriter, request *http.Request, input CreditInput) {
	profile, err := handler.shopperService.UpdateCredit(request.Context(), requestutil.ID(request, "id"), input)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, profile)
}

/*
UploadFiles receives KYC documents as a multipart form.

POST /api/v1/shoppers/{id}/files

Request:
  - Form files: legal_id_front, legal_id_back, proof_of_address (any subset)

Response:
  - 200: user.Profile: Profile carrying the new document URLs
  - 400: ErrValidation: No recognized file field present
*/
func (handler *Handler) uploadFiles(writer http.ResponseWriter, request *http.Request) {
	if err := request.ParseMultipartForm(maxUploadBytes); err != nil {
		respond.Error(writer, request, validate.RequiredError("files", "must be a multipart form"))
		return
	}

	documents := []Document{}
	for _, field := range []string{DocLegalIDFront, DocLegalIDBack, DocProofOfAddress} {
		file, header, err := request.FormFile(field)
		if err != nil {
			continue
		}
		defer func() { _ = file.Close() }()

		documents = append(documents, Document{
			Field:       field,
			Filename:    header.Filename,
			ContentType: header.Header.Get("Content-Type"),
			Content:     file,
		})
	}

	if len(documents) == 0 {
		respond.Error(writer, request, validate.RequiredError("files", "at least one document is required"))
		return
	}

	profile, err := handler.shopperService.UploadDocuments(request.Context(), requestutil.ID(request, "id"), documents)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, profile)
}
